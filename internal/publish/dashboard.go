package publish

import "fmt"

// DashboardParams feed the fixed Looker-style "create report" template.
// DataSourceID/DataSourceSubID identify the published data source (for
// this service: report id and worksheet/page index within it).
type DashboardParams struct {
	TemplateReportID string
	PageID           string
	Connector        string
	Mode             string
	DataSourceID     string
	DataSourceSubID  string
	Alias            string
}

const dashboardTemplate = "https://lookerstudio.google.com/reporting/create?" +
	"c.reportId=%s&" +
	"c.pageId=%s&" +
	"c.mode=%s&" +
	"ds.%s.connector=%s&" +
	"ds.%s.spreadsheetId=%s&" +
	"ds.%s.worksheetId=%s"

// DashboardURL is pure string templating; no network call.
func DashboardURL(p DashboardParams) string {
	return fmt.Sprintf(dashboardTemplate,
		p.TemplateReportID,
		p.PageID,
		p.Mode,
		p.Alias, p.Connector,
		p.Alias, p.DataSourceID,
		p.Alias, p.DataSourceSubID,
	)
}

func ReportURL(baseURL string, reportID uint64) string {
	return fmt.Sprintf("%s/reports/%d", baseURL, reportID)
}

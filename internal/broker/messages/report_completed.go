package messages

import "time"

// ReportCompleted announces a finished reconciliation run.
type ReportCompleted struct {
	ReportID  uint64    `json:"report_id"`
	CreatedAt time.Time `json:"created_at"`
	RowCount  int       `json:"row_count"`

	RegisteredCount    int64 `json:"registered_count"`
	SkippedCount       int64 `json:"skipped_count"`
	QuotaExceededCount int64 `json:"quota_exceeded_count"`
	ResolvedCount      int64 `json:"resolved_count"`

	DashboardURL string `json:"dashboard_url,omitempty"`
}

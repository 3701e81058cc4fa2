package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tawheedrony/17TrackDashboard/internal/models"
	"github.com/tawheedrony/17TrackDashboard/internal/services/batch"
	"github.com/tawheedrony/17TrackDashboard/internal/storage/pgreport"
)

type stubService struct {
	gotOrders []models.OrderRow
	report    *models.Report
	runErr    error

	meta *pgreport.ReportMeta
	rows []models.ReconciledRow

	gotLimit  int
	gotOffset int
}

func (s *stubService) Run(ctx context.Context, orders []models.OrderRow) (*models.Report, error) {
	s.gotOrders = orders
	return s.report, s.runErr
}

func (s *stubService) GetReport(ctx context.Context, reportID uint64) (*pgreport.ReportMeta, error) {
	return s.meta, nil
}

func (s *stubService) ListReportRows(ctx context.Context, reportID uint64, limit, offset int) ([]models.ReconciledRow, error) {
	s.gotLimit, s.gotOffset = limit, offset
	return s.rows, nil
}

const exportCSV = "order_id,product_name,qty,country,order_created_at,tracking_number\n" +
	"1001,Desk Lamp,1,Germany,01/03/2024,RR1\n" +
	"1002,Mouse Pad,2,France,02/03/2024,RR2\n"

func exportRequest(t *testing.T, filename, body string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("export", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/reports", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestPostReports(t *testing.T) {
	svc := &stubService{report: &models.Report{
		ID:           42,
		Rows:         []models.ReconciledRow{{TrackingNumber: "RR1"}},
		Summary:      models.RunSummary{ResolvedCount: 1, SkippedCount: 1},
		ReportURL:    "http://localhost:8080/reports/42",
		DashboardURL: "https://lookerstudio.google.com/reporting/create?x=y",
	}}
	r := newRouter(httpOpts{svc: svc})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, exportRequest(t, "orders.csv", exportCSV))

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, svc.gotOrders, 2)
	require.Equal(t, "RR1", svc.gotOrders[0].TrackingNumber)

	var resp runResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, uint64(42), resp.ReportID)
	require.Equal(t, 1, resp.RowCount)
	require.Equal(t, int64(1), resp.Summary.ResolvedCount)
	require.Equal(t, "http://localhost:8080/reports/42", resp.ReportURL)
}

func TestPostReports_RejectsNonCSV(t *testing.T) {
	svc := &stubService{}
	r := newRouter(httpOpts{svc: svc})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, exportRequest(t, "orders.xlsx", exportCSV))

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Nil(t, svc.gotOrders)
}

func TestPostReports_RejectsBadExport(t *testing.T) {
	r := newRouter(httpOpts{svc: &stubService{}})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, exportRequest(t, "orders.csv", "only,three,columns\n1,2,3\n"))

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPostReports_MissingFile(t *testing.T) {
	r := newRouter(httpOpts{svc: &stubService{}})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/reports", nil))

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPostReports_RunError(t *testing.T) {
	svc := &stubService{runErr: errors.New("batch run: context canceled")}
	r := newRouter(httpOpts{svc: svc})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, exportRequest(t, "orders.csv", exportCSV))

	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetReport_NotFound(t *testing.T) {
	r := newRouter(httpOpts{svc: &stubService{}})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reports/7", nil))

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetReport(t *testing.T) {
	svc := &stubService{meta: &pgreport.ReportMeta{
		ID:        7,
		CreatedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		RowCount:  3,
		Summary:   models.RunSummary{ResolvedCount: 3},
	}}
	r := newRouter(httpOpts{svc: svc})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reports/7", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.EqualValues(t, 7, resp["report_id"])
	require.EqualValues(t, 3, resp["row_count"])
}

func TestGetReport_BadID(t *testing.T) {
	r := newRouter(httpOpts{svc: &stubService{}})

	for _, path := range []string{"/reports/abc", "/reports/0"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}

func TestListReportRows_PassesPaging(t *testing.T) {
	svc := &stubService{rows: []models.ReconciledRow{{TrackingNumber: "RR1"}}}
	r := newRouter(httpOpts{svc: svc})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reports/7/rows?limit=10&offset=20", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 10, svc.gotLimit)
	require.Equal(t, 20, svc.gotOffset)

	var rows []models.ReconciledRow
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
}

func TestStatsAndHealth(t *testing.T) {
	r := newRouter(httpOpts{
		svc:   &stubService{},
		stats: func() batch.Stats { return batch.Stats{TotalResolved: 5} },
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var st batch.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	require.Equal(t, int64(5), st.TotalResolved)

	for _, path := range []string{"/healthz", "/readyz"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, w.Code, path)
	}
}

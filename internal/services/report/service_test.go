package report

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tawheedrony/17TrackDashboard/internal/broker/messages"
	"github.com/tawheedrony/17TrackDashboard/internal/models"
	"github.com/tawheedrony/17TrackDashboard/internal/publish"
	"github.com/tawheedrony/17TrackDashboard/internal/storage/pgreport"
)

type fakeBatch struct {
	gotNumbers []string
	records    []*models.NormalizedRecord
	summary    models.RunSummary
	err        error
}

func (f *fakeBatch) Run(ctx context.Context, numbers []string) ([]*models.NormalizedRecord, models.RunSummary, error) {
	f.gotNumbers = numbers
	return f.records, f.summary, f.err
}

type fakeSink struct {
	savedRows    []models.ReconciledRow
	savedSummary models.RunSummary
	saveID       uint64
	saveErr      error

	dashID  uint64
	dashURL string

	meta *pgreport.ReportMeta
	rows []models.ReconciledRow
}

func (f *fakeSink) SaveReport(ctx context.Context, rows []models.ReconciledRow, summary models.RunSummary) (uint64, error) {
	f.savedRows = rows
	f.savedSummary = summary
	return f.saveID, f.saveErr
}

func (f *fakeSink) SetDashboardURL(ctx context.Context, reportID uint64, dashboardURL string) error {
	f.dashID = reportID
	f.dashURL = dashboardURL
	return nil
}

func (f *fakeSink) GetReport(ctx context.Context, reportID uint64) (*pgreport.ReportMeta, error) {
	return f.meta, nil
}

func (f *fakeSink) ListReportRows(ctx context.Context, reportID uint64, limit, offset int) ([]models.ReconciledRow, error) {
	return f.rows, nil
}

type fakeProducer struct {
	topic string
	key   []byte
	value []byte
	calls int
	err   error
}

func (p *fakeProducer) Publish(ctx context.Context, topic string, key, value []byte) error {
	p.calls++
	p.topic, p.key, p.value = topic, key, value
	return p.err
}

func testOrders() []models.OrderRow {
	return []models.OrderRow{
		{OrderID: "1001", OrderCreatedAt: "01/03/2024", TrackingNumber: "RR1"},
		{OrderID: "1002", OrderCreatedAt: "02/03/2024", TrackingNumber: "RR2"},
	}
}

func TestRun_EndToEnd(t *testing.T) {
	fb := &fakeBatch{
		records: []*models.NormalizedRecord{
			{TrackingNumber: "RR1", CarrierName: "China Post", ShippingCountry: "CN", RecipientCountry: "DE",
				LatestStatus: "Delivered", Events: map[string]string{"InTransit": "2024-03-05", "Delivered": "2024-03-09"}},
		},
		summary: models.RunSummary{ResolvedCount: 1, SkippedCount: 1},
	}
	fs := &fakeSink{saveID: 42}
	fp := &fakeProducer{}

	svc := New(fb, fs, map[string]string{"CN": "China", "DE": "Germany"}).
		WithProducer(fp, "report.completed").
		WithLinks("http://localhost:8080", publish.DashboardParams{
			PageID: "1lviD", Connector: "googleSheets", Mode: "view", Alias: "ds0",
		})

	rep, err := svc.Run(context.Background(), testOrders())
	require.NoError(t, err)

	require.Equal(t, []string{"RR1", "RR2"}, fb.gotNumbers)
	require.Equal(t, uint64(42), rep.ID)
	require.Len(t, rep.Rows, 1)
	require.Equal(t, "RR1", rep.Rows[0].TrackingNumber)
	require.Equal(t, "China", rep.Rows[0].ShippingCountry)
	require.Equal(t, 4, *rep.Rows[0].ProcessingTime)

	require.Equal(t, "http://localhost:8080/reports/42", rep.ReportURL)
	require.Contains(t, rep.DashboardURL, "ds.ds0.spreadsheetId=42")
	require.Equal(t, uint64(42), fs.dashID)
	require.Equal(t, rep.DashboardURL, fs.dashURL)

	require.Equal(t, 1, fp.calls)
	require.Equal(t, "report.completed", fp.topic)
	require.Equal(t, []byte("42"), fp.key)
	var msg messages.ReportCompleted
	require.NoError(t, json.Unmarshal(fp.value, &msg))
	require.Equal(t, uint64(42), msg.ReportID)
	require.Equal(t, 1, msg.RowCount)
	require.Equal(t, int64(1), msg.ResolvedCount)
	require.Equal(t, int64(1), msg.SkippedCount)
}

func TestRun_NoOrders(t *testing.T) {
	svc := New(&fakeBatch{}, &fakeSink{}, nil)
	_, err := svc.Run(context.Background(), nil)
	require.Error(t, err)
}

func TestRun_BatchCancelFailsRun(t *testing.T) {
	fb := &fakeBatch{err: context.Canceled}
	svc := New(fb, &fakeSink{}, nil)
	_, err := svc.Run(context.Background(), testOrders())
	require.ErrorIs(t, err, context.Canceled)
}

func TestRun_SinkErrorFailsRun(t *testing.T) {
	fb := &fakeBatch{summary: models.RunSummary{SkippedCount: 2}}
	fs := &fakeSink{saveErr: errors.New("pg down")}
	svc := New(fb, fs, nil)
	_, err := svc.Run(context.Background(), testOrders())
	require.Error(t, err)
}

func TestRun_ProducerFailureIsNotFatal(t *testing.T) {
	fb := &fakeBatch{summary: models.RunSummary{SkippedCount: 2}}
	fs := &fakeSink{saveID: 7}
	fp := &fakeProducer{err: errors.New("broker down")}

	svc := New(fb, fs, nil).WithProducer(fp, "report.completed")
	rep, err := svc.Run(context.Background(), testOrders())
	require.NoError(t, err)
	require.Equal(t, uint64(7), rep.ID)
	require.Equal(t, 1, fp.calls)
}

func TestRun_AllItemsFailedStillYieldsSummary(t *testing.T) {
	fb := &fakeBatch{summary: models.RunSummary{SkippedCount: 2, QuotaExceededCount: 2}}
	fs := &fakeSink{saveID: 9}

	svc := New(fb, fs, nil)
	rep, err := svc.Run(context.Background(), testOrders())
	require.NoError(t, err)
	require.Empty(t, rep.Rows)
	require.Equal(t, int64(2), rep.Summary.QuotaExceededCount)
}

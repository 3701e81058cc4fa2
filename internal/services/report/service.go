package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/tawheedrony/17TrackDashboard/internal/broker/messages"
	"github.com/tawheedrony/17TrackDashboard/internal/models"
	"github.com/tawheedrony/17TrackDashboard/internal/publish"
	"github.com/tawheedrony/17TrackDashboard/internal/services/reconcile"
	"github.com/tawheedrony/17TrackDashboard/internal/storage/pgreport"
)

type Orchestrator interface {
	Run(ctx context.Context, numbers []string) ([]*models.NormalizedRecord, models.RunSummary, error)
}

type Sink interface {
	SaveReport(ctx context.Context, rows []models.ReconciledRow, summary models.RunSummary) (uint64, error)
	SetDashboardURL(ctx context.Context, reportID uint64, dashboardURL string) error
	GetReport(ctx context.Context, reportID uint64) (*pgreport.ReportMeta, error)
	ListReportRows(ctx context.Context, reportID uint64, limit, offset int) ([]models.ReconciledRow, error)
}

type Producer interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// Service runs the whole pipeline: batch resolution, reconciliation,
// persistence, link construction, completion event.
type Service struct {
	batch     Orchestrator
	sink      Sink
	producer  Producer
	topic     string
	countries map[string]string

	reportBaseURL string
	dashTemplate  publish.DashboardParams
}

func New(batch Orchestrator, sink Sink, countries map[string]string) *Service {
	return &Service{
		batch:     batch,
		sink:      sink,
		countries: countries,
	}
}

func (s *Service) WithProducer(p Producer, topic string) *Service {
	s.producer = p
	s.topic = topic
	return s
}

func (s *Service) WithLinks(reportBaseURL string, dashTemplate publish.DashboardParams) *Service {
	s.reportBaseURL = reportBaseURL
	s.dashTemplate = dashTemplate
	return s
}

// Run takes a parsed order table and returns the reconciled report.
// Per-item provider failures never fail the run; the summary always
// reflects them. Cancellation and sink failures do fail the run.
func (s *Service) Run(ctx context.Context, orders []models.OrderRow) (*models.Report, error) {
	if len(orders) == 0 {
		return nil, errors.New("no orders with tracking numbers")
	}

	numbers := make([]string, 0, len(orders))
	for _, o := range orders {
		numbers = append(numbers, o.TrackingNumber)
	}

	records, summary, err := s.batch.Run(ctx, numbers)
	if err != nil {
		return nil, errors.Wrap(err, "batch run")
	}

	rows := reconcile.Reconcile(orders, records, s.countries)

	id, err := s.sink.SaveReport(ctx, rows, summary)
	if err != nil {
		return nil, errors.Wrap(err, "save report")
	}

	dash := s.dashTemplate
	dash.DataSourceID = fmt.Sprintf("%d", id)
	if dash.DataSourceSubID == "" {
		dash.DataSourceSubID = "0"
	}
	dashboardURL := publish.DashboardURL(dash)
	if err := s.sink.SetDashboardURL(ctx, id, dashboardURL); err != nil {
		slog.Warn("store dashboard url", "report_id", id, "error", err.Error())
	}

	s.publishCompleted(ctx, id, len(rows), summary, dashboardURL)

	slog.Info("report published",
		"report_id", id,
		"rows", len(rows),
		"resolved", summary.ResolvedCount,
		"registered", summary.RegisteredCount,
		"skipped", summary.SkippedCount,
		"quota_exceeded", summary.QuotaExceededCount,
	)

	return &models.Report{
		ID:           id,
		Rows:         rows,
		Summary:      summary,
		ReportURL:    publish.ReportURL(s.reportBaseURL, id),
		DashboardURL: dashboardURL,
	}, nil
}

func (s *Service) GetReport(ctx context.Context, reportID uint64) (*pgreport.ReportMeta, error) {
	if reportID == 0 {
		return nil, errors.New("reportId is required")
	}
	return s.sink.GetReport(ctx, reportID)
}

func (s *Service) ListReportRows(ctx context.Context, reportID uint64, limit, offset int) ([]models.ReconciledRow, error) {
	return s.sink.ListReportRows(ctx, reportID, limit, offset)
}

// publishCompleted is best-effort: a broker outage must not fail a run
// that already persisted its report.
func (s *Service) publishCompleted(ctx context.Context, id uint64, rowCount int, summary models.RunSummary, dashboardURL string) {
	if s.producer == nil || s.topic == "" {
		return
	}

	msg := messages.ReportCompleted{
		ReportID:           id,
		CreatedAt:          time.Now().UTC(),
		RowCount:           rowCount,
		RegisteredCount:    summary.RegisteredCount,
		SkippedCount:       summary.SkippedCount,
		QuotaExceededCount: summary.QuotaExceededCount,
		ResolvedCount:      summary.ResolvedCount,
		DashboardURL:       dashboardURL,
	}
	b, err := json.Marshal(msg)
	if err != nil {
		slog.Warn("marshal report.completed", "error", err.Error())
		return
	}
	key := []byte(fmt.Sprintf("%d", id))
	if err := s.producer.Publish(ctx, s.topic, key, b); err != nil {
		slog.Warn("publish report.completed", "report_id", id, "error", err.Error())
	}
}

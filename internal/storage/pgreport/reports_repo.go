package pgreport

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/tawheedrony/17TrackDashboard/internal/models"
)

type ReportMeta struct {
	ID           uint64
	CreatedAt    time.Time
	RowCount     int
	Summary      models.RunSummary
	DashboardURL string
}

func (s *Storage) SaveReport(ctx context.Context, rows []models.ReconciledRow, summary models.RunSummary) (uint64, error) {
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id uint64
	err = tx.QueryRow(ctx, `
INSERT INTO reports (
  created_at, row_count, registered_count, skipped_count, quota_exceeded_count, resolved_count
)
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING id
`, now, len(rows), summary.RegisteredCount, summary.SkippedCount, summary.QuotaExceededCount, summary.ResolvedCount).Scan(&id)
	if err != nil {
		return 0, errors.Wrap(err, "insert report")
	}

	for _, r := range rows {
		_, err := tx.Exec(ctx, `
INSERT INTO report_rows (
  report_id, order_id, product_name, qty, country,
  tracking_number, carrier_name, shipping_country, recipient_country, latest_status,
  days_after_order, days_of_transit,
  order_created_at, info_received_at, in_transit_at, delivered_at,
  processing_time, shipping_time, total_time
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
`, id, r.OrderID, r.ProductName, r.Qty, r.Country,
			r.TrackingNumber, r.CarrierName, r.ShippingCountry, r.RecipientCountry, r.LatestStatus,
			r.DaysAfterOrder, r.DaysOfTransit,
			r.OrderCreatedAt, r.InfoReceivedAt, r.InTransitAt, r.DeliveredAt,
			r.ProcessingTime, r.ShippingTime, r.TotalTime)
		if err != nil {
			return 0, errors.Wrap(err, "insert report row")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, errors.Wrap(err, "commit tx")
	}

	return id, nil
}

func (s *Storage) SetDashboardURL(ctx context.Context, reportID uint64, dashboardURL string) error {
	_, err := s.db.Exec(ctx, `UPDATE reports SET dashboard_url = $2 WHERE id = $1`, reportID, dashboardURL)
	if err != nil {
		return errors.Wrap(err, "update dashboard url")
	}
	return nil
}

func (s *Storage) GetReport(ctx context.Context, reportID uint64) (*ReportMeta, error) {
	var m ReportMeta
	err := s.db.QueryRow(ctx, `
SELECT id, created_at, row_count, registered_count, skipped_count, quota_exceeded_count, resolved_count, dashboard_url
FROM reports
WHERE id = $1
`, reportID).Scan(
		&m.ID, &m.CreatedAt, &m.RowCount,
		&m.Summary.RegisteredCount, &m.Summary.SkippedCount, &m.Summary.QuotaExceededCount, &m.Summary.ResolvedCount,
		&m.DashboardURL,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "select report")
	}
	return &m, nil
}

func (s *Storage) ListReportRows(ctx context.Context, reportID uint64, limit, offset int) ([]models.ReconciledRow, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.Query(ctx, `
SELECT
  order_id, product_name, qty, country,
  tracking_number, carrier_name, shipping_country, recipient_country, latest_status,
  days_after_order, days_of_transit,
  order_created_at, info_received_at, in_transit_at, delivered_at,
  processing_time, shipping_time, total_time
FROM report_rows
WHERE report_id = $1
ORDER BY id
LIMIT $2 OFFSET $3
`, reportID, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "select report rows")
	}
	defer rows.Close()

	out := make([]models.ReconciledRow, 0, limit)
	for rows.Next() {
		var r models.ReconciledRow
		if err := rows.Scan(
			&r.OrderID, &r.ProductName, &r.Qty, &r.Country,
			&r.TrackingNumber, &r.CarrierName, &r.ShippingCountry, &r.RecipientCountry, &r.LatestStatus,
			&r.DaysAfterOrder, &r.DaysOfTransit,
			&r.OrderCreatedAt, &r.InfoReceivedAt, &r.InTransitAt, &r.DeliveredAt,
			&r.ProcessingTime, &r.ShippingTime, &r.TotalTime,
		); err != nil {
			return nil, errors.Wrap(err, "scan report row")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate report rows")
	}
	return out, nil
}

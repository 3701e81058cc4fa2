package pgreport

import (
	"context"

	"github.com/pkg/errors"
)

func (s *Storage) initSchema(ctx context.Context) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS reports (
  id BIGSERIAL PRIMARY KEY,
  created_at TIMESTAMPTZ NOT NULL,
  row_count INT NOT NULL,
  registered_count BIGINT NOT NULL DEFAULT 0,
  skipped_count BIGINT NOT NULL DEFAULT 0,
  quota_exceeded_count BIGINT NOT NULL DEFAULT 0,
  resolved_count BIGINT NOT NULL DEFAULT 0,
  dashboard_url TEXT NOT NULL DEFAULT ''
)`,
		`
CREATE TABLE IF NOT EXISTS report_rows (
  id BIGSERIAL PRIMARY KEY,
  report_id BIGINT NOT NULL REFERENCES reports(id) ON DELETE CASCADE,
  order_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  qty TEXT NOT NULL,
  country TEXT NOT NULL,
  tracking_number TEXT NOT NULL,
  carrier_name TEXT NOT NULL,
  shipping_country TEXT NOT NULL,
  recipient_country TEXT NOT NULL,
  latest_status TEXT NOT NULL,
  days_after_order INT NULL,
  days_of_transit INT NULL,
  order_created_at TEXT NULL,
  info_received_at TEXT NULL,
  in_transit_at TEXT NULL,
  delivered_at TEXT NULL,
  processing_time INT NULL,
  shipping_time INT NULL,
  total_time INT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_report_rows_report_id ON report_rows(report_id)`,
		`CREATE INDEX IF NOT EXISTS idx_report_rows_tracking_number ON report_rows(tracking_number)`,
	}

	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}

package ingest

import (
	"encoding/csv"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/tawheedrony/17TrackDashboard/internal/models"
)

// Structural problems with the export are batch-fatal and surface before
// any provider call. Re-prompting for another file is the caller's job.
var ErrBadExport = errors.New("bad order export")

const expectedColumns = 6

// ValidateName rejects anything but a .csv upload.
func ValidateName(name string) error {
	if strings.EqualFold(filepath.Ext(name), ".csv") {
		return nil
	}
	return errors.Wrapf(ErrBadExport, "unsupported file type %q, expected .csv", filepath.Ext(name))
}

// ReadOrders reads the six fixed-order columns (order_id, product_name,
// qty, country, order_created_at, tracking_number). The first line is a
// header and is skipped. Rows without a tracking number are dropped here,
// before the core ever sees them.
func ReadOrders(r io.Reader) ([]models.OrderRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = expectedColumns

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.Wrap(ErrBadExport, "export is empty")
	}
	if err != nil {
		return nil, errors.Wrapf(ErrBadExport, "read header: %v", err)
	}
	_ = header

	var orders []models.OrderRow
	total := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(ErrBadExport, "read row: %v", err)
		}
		total++

		if strings.TrimSpace(rec[5]) == "" {
			continue
		}
		orders = append(orders, models.OrderRow{
			OrderID:        rec[0],
			ProductName:    rec[1],
			Qty:            rec[2],
			Country:        rec[3],
			OrderCreatedAt: rec[4],
			TrackingNumber: strings.TrimSpace(rec[5]),
		})
	}

	slog.Info("order export read", "orders", total, "with_tracking_number", len(orders))
	return orders, nil
}

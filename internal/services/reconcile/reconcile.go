package reconcile

import (
	"strings"

	"github.com/tawheedrony/17TrackDashboard/internal/models"
)

// Event categories that feed the shipping metrics.
const (
	eventInfoReceived = "InfoReceived"
	eventInTransit    = "InTransit"
	eventDelivered    = "Delivered"
)

var failureStatuses = []string{
	models.StatusDeliveryFailure,
	models.StatusNotFound,
	models.StatusException,
}

// Reconcile left-joins orders onto the resolved records by tracking number
// and derives the shipping metrics. Orders whose tracking never resolved
// are dropped, as are rows with an empty or terminal-failure status.
// Unknown country codes pass through unchanged.
func Reconcile(orders []models.OrderRow, records []*models.NormalizedRecord, countries map[string]string) []models.ReconciledRow {
	byNumber := make(map[string]*models.NormalizedRecord, len(records))
	for _, r := range records {
		byNumber[r.TrackingNumber] = r
	}

	out := make([]models.ReconciledRow, 0, len(orders))
	for _, o := range orders {
		rec, ok := byNumber[o.TrackingNumber]
		if !ok {
			continue
		}
		if dropStatus(rec.LatestStatus) {
			continue
		}

		orderCreated := parseDayFirst(o.OrderCreatedAt)
		infoReceived := parseEvent(rec.Events[eventInfoReceived])
		inTransit := parseEvent(rec.Events[eventInTransit])
		delivered := parseEvent(rec.Events[eventDelivered])

		processing := daysBetween(inTransit, orderCreated)
		shipping := daysBetween(delivered, inTransit)

		out = append(out, models.ReconciledRow{
			OrderID:          o.OrderID,
			ProductName:      o.ProductName,
			Qty:              o.Qty,
			Country:          o.Country,
			TrackingNumber:   o.TrackingNumber,
			CarrierName:      rec.CarrierName,
			ShippingCountry:  countryName(countries, rec.ShippingCountry),
			RecipientCountry: countryName(countries, rec.RecipientCountry),
			LatestStatus:     rec.LatestStatus,
			DaysAfterOrder:   rec.DaysAfterOrder,
			DaysOfTransit:    rec.DaysOfTransit,
			OrderCreatedAt:   formatDate(orderCreated),
			InfoReceivedAt:   formatDate(infoReceived),
			InTransitAt:      formatDate(inTransit),
			DeliveredAt:      formatDate(delivered),
			ProcessingTime:   processing,
			ShippingTime:     shipping,
			TotalTime:        sumDays(processing, shipping),
		})
	}
	return out
}

// dropStatus: empty status or a case-sensitive substring match on one of
// the terminal-failure markers. Anything else is kept.
func dropStatus(status string) bool {
	if status == "" {
		return true
	}
	for _, f := range failureStatuses {
		if strings.Contains(status, f) {
			return true
		}
	}
	return false
}

func countryName(countries map[string]string, code string) string {
	if name, ok := countries[code]; ok {
		return name
	}
	return code
}

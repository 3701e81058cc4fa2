package resolver

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/tawheedrony/17TrackDashboard/internal/integrations/provider"
	"github.com/tawheedrony/17TrackDashboard/internal/models"
)

// buildRecord flattens an accepted payload into the carrier-agnostic
// record. A payload without a tracking provider entry is malformed; that
// parse failure skips the item, never the batch.
func buildRecord(number string, p *provider.Payload) (*models.NormalizedRecord, error) {
	if len(p.TrackInfo.Tracking.Providers) == 0 {
		return nil, errors.Errorf("payload for %s has no tracking providers", number)
	}
	prov := p.TrackInfo.Tracking.Providers[0]

	if p.Number != "" {
		number = p.Number
	}

	rec := &models.NormalizedRecord{
		TrackingNumber:   number,
		CarrierName:      prov.Provider.Name,
		ShippingCountry:  p.TrackInfo.ShippingInfo.ShipperAddress.Country,
		RecipientCountry: p.TrackInfo.ShippingInfo.RecipientAddress.Country,
		LatestStatus:     p.TrackInfo.LatestStatus.Status,
		DaysAfterOrder:   p.TrackInfo.TimeMetrics.DaysAfterOrder,
		DaysOfTransit:    p.TrackInfo.TimeMetrics.DaysOfTransit,
	}

	for _, ev := range prov.Events {
		if ev.SubStatus == "" || ev.TimeRaw == nil || ev.TimeRaw.Date == "" {
			continue
		}
		if rec.Events == nil {
			rec.Events = map[string]string{}
		}
		// Category collisions: the latest event in payload order wins.
		rec.Events[eventCategory(ev.SubStatus)] = ev.TimeRaw.Date
	}

	return rec, nil
}

// eventCategory is the sub-status text before the first underscore, or
// the whole sub-status when there is none.
func eventCategory(subStatus string) string {
	cat, _, _ := strings.Cut(subStatus, "_")
	return cat
}

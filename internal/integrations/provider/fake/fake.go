package fake

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/tawheedrony/17TrackDashboard/internal/integrations/provider"
)

// FakeClient is a deterministic in-process stand-in for the aggregator.
// A quarter of numbers need registration first; registration is remembered,
// so the register-then-refetch path works end to end without a network.
type FakeClient struct {
	mu         sync.Mutex
	registered map[string]bool
}

func New() *FakeClient {
	return &FakeClient{registered: map[string]bool{}}
}

func (f *FakeClient) Submit(ctx context.Context, op provider.Op, trackingNumber string) (provider.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if op == provider.OpRegister {
		f.registered[trackingNumber] = true
		p := provider.Payload{Number: trackingNumber}
		return provider.Outcome{Accepted: &p}, nil
	}

	if f.needsRegistration(trackingNumber) && !f.registered[trackingNumber] {
		return provider.Outcome{Rejected: &provider.Rejection{
			Code:    provider.CodeNeedsRegistration,
			RawCode: provider.RawCodeNeedsRegistration,
			Message: fmt.Sprintf("%s is not registered", trackingNumber),
		}}, nil
	}

	p := f.buildPayload(trackingNumber)
	return provider.Outcome{Accepted: &p}, nil
}

func (f *FakeClient) needsRegistration(trackingNumber string) bool {
	return hashOf(trackingNumber)%4 == 0
}

func (f *FakeClient) buildPayload(trackingNumber string) provider.Payload {
	// 20% of numbers are delivered, the rest in transit.
	delivered := hashOf(trackingNumber)%5 == 0

	status := "InTransit"
	events := []provider.Event{
		{SubStatus: "InfoReceived", TimeRaw: &provider.TimeRaw{Date: "2024-03-01"}},
		{SubStatus: "InTransit_PickedUp", TimeRaw: &provider.TimeRaw{Date: "2024-03-03"}},
	}
	daysAfterOrder := 6
	var daysOfTransit *int
	if delivered {
		status = "Delivered"
		events = append(events, provider.Event{SubStatus: "Delivered_Other", TimeRaw: &provider.TimeRaw{Date: "2024-03-08"}})
		d := 5
		daysOfTransit = &d
	}

	return provider.Payload{
		Number: trackingNumber,
		TrackInfo: provider.TrackInfo{
			LatestStatus: provider.LatestStatus{Status: status},
			TimeMetrics:  provider.TimeMetrics{DaysAfterOrder: &daysAfterOrder, DaysOfTransit: daysOfTransit},
			ShippingInfo: provider.ShippingInfo{
				ShipperAddress:   provider.Address{Country: "CN"},
				RecipientAddress: provider.Address{Country: "US"},
			},
			Tracking: provider.Tracking{
				Providers: []provider.ProviderEntry{
					{Provider: provider.ProviderInfo{Name: "Fake Post"}, Events: events},
				},
			},
		},
	}
}

func hashOf(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}

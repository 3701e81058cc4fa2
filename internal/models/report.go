package models

// Terminal-failure markers matched as substrings of the raw provider status.
const (
	StatusNotFound        = "NotFound"
	StatusException       = "Exception"
	StatusDeliveryFailure = "DeliveryFailure"
)

// OrderRow is one line of the order export. Read-only input.
type OrderRow struct {
	OrderID        string
	ProductName    string
	Qty            string
	Country        string
	OrderCreatedAt string
	TrackingNumber string
}

// NormalizedRecord is the carrier-agnostic shape built per resolved
// tracking number. Events maps an event category (sub-status text before
// the first underscore) to the raw event date.
type NormalizedRecord struct {
	TrackingNumber   string            `json:"tracking_number"`
	CarrierName      string            `json:"carrier_name"`
	ShippingCountry  string            `json:"shipping_country"`
	RecipientCountry string            `json:"recipient_country"`
	LatestStatus     string            `json:"latest_status"`
	DaysAfterOrder   *int              `json:"days_after_order,omitempty"`
	DaysOfTransit    *int              `json:"days_of_transit,omitempty"`
	Events           map[string]string `json:"events,omitempty"`
}

// RunSummary accumulates per-run counters, one increment per terminal
// outcome per tracking number.
type RunSummary struct {
	RegisteredCount    int64 `json:"registered_count"`
	SkippedCount       int64 `json:"skipped_count"`
	QuotaExceededCount int64 `json:"quota_exceeded_count"`
	ResolvedCount      int64 `json:"resolved_count"`
}

// ReconciledRow is the terminal artifact: one order enriched with resolved
// tracking data and derived shipping metrics. Metric and date fields are
// nil when their inputs are absent or unparseable.
type ReconciledRow struct {
	OrderID          string  `json:"order_id"`
	ProductName      string  `json:"product_name"`
	Qty              string  `json:"qty"`
	Country          string  `json:"country"`
	TrackingNumber   string  `json:"tracking_number"`
	CarrierName      string  `json:"carrier_name"`
	ShippingCountry  string  `json:"shipping_country"`
	RecipientCountry string  `json:"recipient_country"`
	LatestStatus     string  `json:"latest_status"`
	DaysAfterOrder   *int    `json:"days_after_order,omitempty"`
	DaysOfTransit    *int    `json:"days_of_transit,omitempty"`
	OrderCreatedAt   *string `json:"order_created_at"`
	InfoReceivedAt   *string `json:"info_received_at"`
	InTransitAt      *string `json:"in_transit_at"`
	DeliveredAt      *string `json:"delivered_at"`
	ProcessingTime   *int    `json:"processing_time"`
	ShippingTime     *int    `json:"shipping_time"`
	TotalTime        *int    `json:"total_time"`
}

// Report is what a completed run hands back to the caller.
type Report struct {
	ID           uint64          `json:"report_id"`
	Rows         []ReconciledRow `json:"rows"`
	Summary      RunSummary      `json:"summary"`
	ReportURL    string          `json:"report_url"`
	DashboardURL string          `json:"dashboard_url"`
}

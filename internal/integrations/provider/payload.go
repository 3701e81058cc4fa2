package provider

// Payload is the accepted-item schema of a gettrackinfo response, decoded
// once at the client boundary. Fields the pipeline does not consume are
// not mapped.
type Payload struct {
	Number    string    `json:"number"`
	TrackInfo TrackInfo `json:"track_info"`
}

type TrackInfo struct {
	LatestStatus LatestStatus `json:"latest_status"`
	TimeMetrics  TimeMetrics  `json:"time_metrics"`
	ShippingInfo ShippingInfo `json:"shipping_info"`
	Tracking     Tracking     `json:"tracking"`
}

type LatestStatus struct {
	Status string `json:"status"`
}

type TimeMetrics struct {
	DaysAfterOrder *int `json:"days_after_order"`
	DaysOfTransit  *int `json:"days_of_transit"`
}

type ShippingInfo struct {
	ShipperAddress   Address `json:"shipper_address"`
	RecipientAddress Address `json:"recipient_address"`
}

type Address struct {
	Country string `json:"country"`
}

type Tracking struct {
	Providers []ProviderEntry `json:"providers"`
}

type ProviderEntry struct {
	Provider ProviderInfo `json:"provider"`
	Events   []Event      `json:"events"`
}

type ProviderInfo struct {
	Name string `json:"name"`
}

type Event struct {
	SubStatus string   `json:"sub_status"`
	TimeRaw   *TimeRaw `json:"time_raw"`
}

type TimeRaw struct {
	Date string `json:"date"`
}

package model

import "time"

// PriceSource describes where an IntervalRecord's node price came from.
type PriceSource string

const (
	PriceReported PriceSource = "reported"
	PriceDerived  PriceSource = "derived"
	PriceMissing  PriceSource = "missing"
)

// IntervalRecord is the canonical observation every provider payload is normalized into.
// Convention: positive VolumeMWh = generation delivered to grid.
type IntervalRecord struct {
	Provider        string
	Label           string
	AssetKey        string // empty until classified
	SettlementPoint string
	IntervalStart   time.Time

	VolumeMWh   float64
	NodePrice   float64 // $/MWh
	PriceSource PriceSource

	SettlementAmount *float64
	AveragePrice     *float64
	HubPrice         *float64 // hub price embedded in the same payload, if any

	// Wholesale fields reported by asset-management feeds (fixed-for-floating assets).
	DAVolumeMWh   *float64
	DAPrice       *float64
	RTPrice       *float64
	MarketRevenue *float64
}

// Empty reports whether the record carries neither volume nor settlement amount.
func (r IntervalRecord) Empty() bool {
	amount := 0.0
	if r.SettlementAmount != nil {
		amount = *r.SettlementAmount
	}
	return r.VolumeMWh == 0 && amount == 0
}

// PricePoint is one observation from an independent price feed.
type PricePoint struct {
	Location string
	Instant  time.Time
	Price    float64
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

package model

import "time"

// HubSource records which tier resolved an interval's hub price.
type HubSource string

const (
	HubEmbedded   HubSource = "embedded"
	HubExact      HubSource = "feed_exact"
	HubNearest    HubSource = "feed_nearest"
	HubCached     HubSource = "cached"
	HubUnresolved HubSource = "unresolved"
)

// SettlementResult is the per-interval outcome of applying an asset's contract.
type SettlementResult struct {
	AssetKey        string
	SettlementPoint string
	IntervalStart   time.Time

	VolumeMWh float64
	NodePrice float64
	HubPrice  *float64
	HubSource HubSource

	// Basis = node - hub; 0 when the hub or node price is unresolved.
	Basis float64
	// PriceMissing marks an interval settled without a node price. It carries no basis or
	// node weight.
	PriceMissing bool

	MerchantPnL     float64
	PPAPnL          float64
	MarketRevenue   float64
	FixedPayment    float64
	FloatingPayment float64

	PnL float64
}

// WorstBasisEntry is one interval ranked by how much basis cost it carried.
type WorstBasisEntry struct {
	IntervalStart   time.Time `json:"interval_start"`
	AssetKey        string    `json:"asset"`
	SettlementPoint string    `json:"settlement_point"`
	Basis           float64   `json:"basis"`
	VolumeMWh       float64   `json:"volume"`
	BasisPnLImpact  float64   `json:"basis_pnl_impact"`
}

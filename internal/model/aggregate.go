package model

import "time"

// Period key layouts.
const (
	DayLayout   = "2006-01-02"
	MonthLayout = "2006-01"
	YearLayout  = "2006"
)

// Scope is the calendar granularity of an Aggregate bucket.
type Scope string

const (
	ScopeDay   Scope = "day"
	ScopeMonth Scope = "month"
	ScopeYear  Scope = "year"
)

// Scopes lists every scope in accumulation order.
var Scopes = []Scope{ScopeDay, ScopeMonth, ScopeYear}

// PeriodKey formats t (already in the asset's timezone) for the scope.
func (s Scope) PeriodKey(t time.Time) string {
	switch s {
	case ScopeMonth:
		return t.Format(MonthLayout)
	case ScopeYear:
		return t.Format(YearLayout)
	default:
		return t.Format(DayLayout)
	}
}

// BucketKey identifies one Aggregate bucket.
type BucketKey struct {
	Scope    Scope
	Period   string
	AssetKey string
}

// Aggregate holds the running totals of one bucket. Only sums are stored; prices and
// averages are derived from them.
type Aggregate struct {
	PnL       float64 `json:"pnl"`
	VolumeMWh float64 `json:"volume"`
	Count     int     `json:"count"`

	// Sum of volume*basis over priced intervals with volume > 0, and the matching volume.
	VolumeBasisProduct float64 `json:"volume_basis_product"`
	BasisVolumeMWh     float64 `json:"basis_volume"`

	VolumeNodeProduct float64 `json:"volume_node_product"`
	NodeVolumeMWh     float64 `json:"node_volume"`
	VolumeHubProduct  float64 `json:"volume_hub_product"`
	HubVolumeMWh      float64 `json:"hub_volume"`

	MerchantPnL     float64 `json:"merchant_pnl"`
	PPAPnL          float64 `json:"ppa_pnl"`
	MarketRevenue   float64 `json:"market_revenue"`
	FixedPayment    float64 `json:"fixed_payment"`
	FloatingPayment float64 `json:"floating_payment"`
}

// AddResult folds one settlement result into the bucket.
func (a *Aggregate) AddResult(r SettlementResult) {
	a.PnL += r.PnL
	a.VolumeMWh += r.VolumeMWh
	a.Count++
	a.MerchantPnL += r.MerchantPnL
	a.PPAPnL += r.PPAPnL
	a.MarketRevenue += r.MarketRevenue
	a.FixedPayment += r.FixedPayment
	a.FloatingPayment += r.FloatingPayment
	if r.VolumeMWh <= 0 {
		return
	}
	if !r.PriceMissing {
		a.VolumeBasisProduct += r.VolumeMWh * r.Basis
		a.BasisVolumeMWh += r.VolumeMWh
		a.VolumeNodeProduct += r.VolumeMWh * r.NodePrice
		a.NodeVolumeMWh += r.VolumeMWh
	}
	if r.HubPrice != nil {
		a.VolumeHubProduct += r.VolumeMWh * *r.HubPrice
		a.HubVolumeMWh += r.VolumeMWh
	}
}

// Merge adds another bucket's totals into a.
func (a *Aggregate) Merge(o Aggregate) {
	a.PnL += o.PnL
	a.VolumeMWh += o.VolumeMWh
	a.Count += o.Count
	a.VolumeBasisProduct += o.VolumeBasisProduct
	a.BasisVolumeMWh += o.BasisVolumeMWh
	a.VolumeNodeProduct += o.VolumeNodeProduct
	a.NodeVolumeMWh += o.NodeVolumeMWh
	a.VolumeHubProduct += o.VolumeHubProduct
	a.HubVolumeMWh += o.HubVolumeMWh
	a.MerchantPnL += o.MerchantPnL
	a.PPAPnL += o.PPAPnL
	a.MarketRevenue += o.MarketRevenue
	a.FixedPayment += o.FixedPayment
	a.FloatingPayment += o.FloatingPayment
}

// GWABasis is the generation-weighted average basis over priced intervals, nil when none
// carried volume.
func (a Aggregate) GWABasis() *float64 {
	return ratio(a.VolumeBasisProduct, a.BasisVolumeMWh)
}

// AvgNodePrice is the generation-weighted node price.
func (a Aggregate) AvgNodePrice() *float64 {
	return ratio(a.VolumeNodeProduct, a.NodeVolumeMWh)
}

// AvgHubPrice is the generation-weighted hub price over intervals with a resolved hub.
func (a Aggregate) AvgHubPrice() *float64 {
	return ratio(a.VolumeHubProduct, a.HubVolumeMWh)
}

// PnLPerMWh is total PnL divided by total volume.
func (a Aggregate) PnLPerMWh() *float64 {
	return ratio(a.PnL, a.VolumeMWh)
}

func ratio(num, den float64) *float64 {
	if den == 0 {
		return nil
	}
	v := num / den
	return &v
}

package aggregate

import "renewables-pnl/internal/model"

// Pricer derives a bucket's realized price from its totals.
type Pricer interface {
	RealizedPrice(a *model.Asset, agg model.Aggregate) *float64
}

// PeriodView is the published form of one bucket.
type PeriodView struct {
	Period        string   `json:"period"`
	PnL           float64  `json:"pnl"`
	VolumeMWh     float64  `json:"volume"`
	Count         int      `json:"count"`
	GWABasis      *float64 `json:"gwa_basis"`
	RealizedPrice *float64 `json:"realized_price"`
	AvgNodePrice  *float64 `json:"avg_node_price"`
	AvgHubPrice   *float64 `json:"avg_hub_price"`

	MerchantPnL     float64 `json:"merchant_pnl"`
	PPAPnL          float64 `json:"ppa_pnl"`
	MarketRevenue   float64 `json:"market_revenue,omitempty"`
	FixedPayment    float64 `json:"fixed_payment,omitempty"`
	FloatingPayment float64 `json:"floating_payment,omitempty"`
}

// HistoryView is the published form of an asset history. Periods are keyed by ISO date,
// month and year.
type HistoryView struct {
	Asset   string                `json:"asset"`
	Daily   map[string]PeriodView `json:"daily_pnl"`
	Monthly map[string]PeriodView `json:"monthly_pnl"`
	Annual  map[string]PeriodView `json:"annual_pnl"`
	Total   PeriodView            `json:"total"`
}

// View builds a period view. With a nil pricer or asset, realized price falls back to PnL per
// MWh, which is what the combined buckets use.
func View(period string, agg model.Aggregate, a *model.Asset, p Pricer) PeriodView {
	v := PeriodView{
		Period:          period,
		PnL:             agg.PnL,
		VolumeMWh:       agg.VolumeMWh,
		Count:           agg.Count,
		GWABasis:        agg.GWABasis(),
		AvgNodePrice:    agg.AvgNodePrice(),
		AvgHubPrice:     agg.AvgHubPrice(),
		MerchantPnL:     agg.MerchantPnL,
		PPAPnL:          agg.PPAPnL,
		MarketRevenue:   agg.MarketRevenue,
		FixedPayment:    agg.FixedPayment,
		FloatingPayment: agg.FloatingPayment,
	}
	if p != nil && a != nil {
		v.RealizedPrice = p.RealizedPrice(a, agg)
	} else {
		v.RealizedPrice = agg.PnLPerMWh()
	}
	return v
}

// Views returns the view of every period, keyed like periods.
func Views(periods map[string]model.Aggregate, a *model.Asset, p Pricer) map[string]PeriodView {
	out := make(map[string]PeriodView, len(periods))
	for k, agg := range periods {
		out[k] = View(k, agg, a, p)
	}
	return out
}

// ViewHistory renders a full asset history.
func ViewHistory(h *model.AssetHistory, a *model.Asset, p Pricer) HistoryView {
	if h == nil {
		return HistoryView{Daily: map[string]PeriodView{}, Monthly: map[string]PeriodView{}, Annual: map[string]PeriodView{}}
	}
	return HistoryView{
		Asset:   h.AssetKey,
		Daily:   Views(h.Daily, a, p),
		Monthly: Views(h.Monthly, a, p),
		Annual:  Views(h.Annual, a, p),
		Total:   View("total", h.Totals(), a, p),
	}
}

// Package settlement applies each asset's contract to normalized interval records.
package settlement

import (
	"fmt"

	"renewables-pnl/internal/model"
)

// Formula is one contractual settlement scheme.
type Formula interface {
	Name() string
	// Settle computes the per-interval result. hub is nil when no hub price could be resolved.
	Settle(a *model.Asset, r model.IntervalRecord, hub *float64) model.SettlementResult
	// RealizedPrice derives the bucket's realized $/MWh from its totals.
	RealizedPrice(a *model.Asset, agg model.Aggregate) *float64
}

// FormulaFor resolves the formula for an asset's settlement mode.
func FormulaFor(mode model.SettlementMode) (Formula, error) {
	switch mode {
	case model.ModeNode, model.ModeHub, model.ModeSplit, "":
		return Unified{}, nil
	case model.ModeFixedForFloating:
		return FixedForFloating{}, nil
	default:
		return nil, fmt.Errorf("unknown settlement mode %q", mode)
	}
}

func baseResult(a *model.Asset, r model.IntervalRecord, hub *float64) model.SettlementResult {
	res := model.SettlementResult{
		AssetKey:        a.Key,
		SettlementPoint: r.SettlementPoint,
		IntervalStart:   r.IntervalStart,
		VolumeMWh:       r.VolumeMWh,
		NodePrice:       r.NodePrice,
		PriceMissing:    r.PriceSource == model.PriceMissing,
	}
	if hub != nil {
		res.HubPrice = model.Float(*hub)
		if !res.PriceMissing {
			res.Basis = r.NodePrice - *hub
		}
	}
	return res
}

// Unified covers node, hub and split settlement: the merchant share earns the node price and
// the PPA share earns the contract price plus its exposed fraction of basis.
type Unified struct{}

func (Unified) Name() string { return "unified" }

func (Unified) Settle(a *model.Asset, r model.IntervalRecord, hub *float64) model.SettlementResult {
	m, p, b := a.Fractions()
	res := baseResult(a, r, hub)
	v := r.VolumeMWh

	res.MerchantPnL = m * v * r.NodePrice
	res.PPAPnL = p*v*a.PPAPrice + b*p*v*res.Basis
	res.PnL = res.MerchantPnL + res.PPAPnL
	return res
}

func (Unified) RealizedPrice(a *model.Asset, agg model.Aggregate) *float64 {
	m, p, b := a.Fractions()
	return unifiedRealized(m, p, b, a.PPAPrice, agg)
}

func unifiedRealized(m, p, b, price float64, agg model.Aggregate) *float64 {
	basis := agg.GWABasis()
	if basis == nil {
		return nil
	}
	v := p * (price + b**basis)
	if m > 0 {
		node := agg.AvgNodePrice()
		if node == nil {
			return nil
		}
		v += m * *node
	}
	return &v
}

// FixedForFloating is a financial hedge on top of the asset's wholesale settlement: the
// counterparty pays the fixed price and the asset pays back the floating hub price on the
// hedged share of volume.
type FixedForFloating struct{}

func (FixedForFloating) Name() string { return "fixed_for_floating" }

func (FixedForFloating) Settle(a *model.Asset, r model.IntervalRecord, hub *float64) model.SettlementResult {
	_, p, _ := a.Fractions()
	res := baseResult(a, r, hub)
	v := r.VolumeMWh

	floating := r.NodePrice
	if hub != nil {
		floating = *hub
	}
	res.MarketRevenue = marketRevenue(r)
	res.FixedPayment = p * v * a.PPAPrice
	res.FloatingPayment = p * v * floating
	res.MerchantPnL = res.MarketRevenue
	res.PPAPnL = res.FixedPayment - res.FloatingPayment
	res.PnL = res.MarketRevenue + res.PPAPnL
	return res
}

// RealizedPrice for a swap collapses to node-settled economics: market revenue at the node
// plus the fixed price minus the hub on the hedged share.
func (FixedForFloating) RealizedPrice(a *model.Asset, agg model.Aggregate) *float64 {
	m, p, _ := a.Fractions()
	return unifiedRealized(m, p, 1, a.PPAPrice, agg)
}

// marketRevenue prefers the reported wholesale revenue, otherwise rebuilds it from the
// day-ahead award and the real-time deviation.
func marketRevenue(r model.IntervalRecord) float64 {
	if r.MarketRevenue != nil {
		return *r.MarketRevenue
	}
	rt := r.NodePrice
	if r.RTPrice != nil {
		rt = *r.RTPrice
	}
	if r.DAVolumeMWh == nil || r.DAPrice == nil {
		return r.VolumeMWh * rt
	}
	da := *r.DAVolumeMWh
	return da**r.DAPrice + (r.VolumeMWh-da)*rt
}

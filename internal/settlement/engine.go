package settlement

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"renewables-pnl/internal/model"
	"renewables-pnl/internal/pricing"
)

// HubResolver resolves the hub price of one interval.
type HubResolver interface {
	Resolve(hub string, t time.Time, embedded *float64) pricing.Resolution
}

type Engine struct {
	assets   map[string]*model.Asset
	formulas map[string]Formula
	unknown  *model.Asset
}

// New builds an engine for the configured assets. Records the classifier left UNKNOWN are
// settled as pure merchant at their node against unknownHub, so they still show up in the
// per-asset diagnostics.
func New(assets []*model.Asset, unknownHub string) (*Engine, error) {
	e := &Engine{
		assets:   make(map[string]*model.Asset, len(assets)),
		formulas: make(map[string]Formula, len(assets)+1),
	}
	for _, a := range assets {
		if a == nil {
			return nil, errors.New("asset is nil")
		}
		if _, dup := e.assets[a.Key]; dup {
			return nil, fmt.Errorf("duplicate asset %q", a.Key)
		}
		f, err := FormulaFor(a.Mode)
		if err != nil {
			return nil, fmt.Errorf("asset %s: %w", a.Key, err)
		}
		e.assets[a.Key] = a
		e.formulas[a.Key] = f
	}
	e.unknown = &model.Asset{
		Key:                  model.UnknownAsset,
		Hub:                  unknownHub,
		MerchantPercent:      100,
		BasisExposurePercent: 100,
		Mode:                 model.ModeNode,
	}
	e.formulas[model.UnknownAsset] = Unified{}
	return e, nil
}

// Asset returns the asset definition used for key, including the UNKNOWN placeholder.
func (e *Engine) Asset(key string) (*model.Asset, bool) {
	if key == model.UnknownAsset {
		return e.unknown, true
	}
	a, ok := e.assets[key]
	return a, ok
}

// Formula returns the formula used for key.
func (e *Engine) Formula(key string) (Formula, bool) {
	f, ok := e.formulas[key]
	return f, ok
}

// RealizedPrice prices a bucket with the formula of a's asset. Unconfigured assets get nil.
func (e *Engine) RealizedPrice(a *model.Asset, agg model.Aggregate) *float64 {
	if a == nil {
		return nil
	}
	f, ok := e.formulas[a.Key]
	if !ok {
		return nil
	}
	return f.RealizedPrice(a, agg)
}

// Assets returns the configured assets sorted by key.
func (e *Engine) Assets() []*model.Asset {
	out := make([]*model.Asset, 0, len(e.assets))
	for _, a := range e.assets {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Run settles classified records in interval order.
func (e *Engine) Run(recs []model.IntervalRecord, hubs HubResolver) (*Result, error) {
	if hubs == nil {
		return nil, errors.New("hub resolver is nil")
	}
	ordered := append([]model.IntervalRecord(nil), recs...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].IntervalStart.Before(ordered[j].IntervalStart)
	})

	out := &Result{
		Ledger:     make([]LedgerRow, 0, len(ordered)),
		Results:    make([]model.SettlementResult, 0, len(ordered)),
		ByAsset:    map[string]float64{},
		HubSources: map[model.HubSource]int{},
	}
	cum := 0.0

	for idx, r := range ordered {
		key := r.AssetKey
		if key == "" {
			key = model.UnknownAsset
		}
		a, ok := e.Asset(key)
		if !ok {
			return nil, fmt.Errorf("record %d: asset %q is not configured", idx, key)
		}
		hub := hubs.Resolve(a.Hub, r.IntervalStart, r.HubPrice)
		res := e.formulas[key].Settle(a, r, hub.Price)
		res.HubSource = hub.Source

		cum += res.PnL
		out.Results = append(out.Results, res)
		out.ByAsset[key] += res.PnL
		out.HubSources[hub.Source]++
		out.Ledger = append(out.Ledger, LedgerRow{
			Index:              idx,
			IntervalStartLocal: a.In(r.IntervalStart),
			IntervalStartUTC:   r.IntervalStart.UTC(),
			Label:              r.Label,
			Provider:           r.Provider,
			Result:             res,
			CumPnL:             cum,
		})
	}
	out.TotalPnL = cum
	return out, nil
}

// Package aggregate folds settlement results into day, month and year buckets.
package aggregate

import (
	"sort"

	"renewables-pnl/internal/model"
)

// Buckets is the flat bucket map keyed by (scope, period, asset).
type Buckets map[model.BucketKey]*model.Aggregate

// AssetLookup returns the asset definition for a key.
type AssetLookup func(key string) (*model.Asset, bool)

// Add folds one result into every scope for its asset, and into the combined buckets unless
// the asset is UNKNOWN. Periods are keyed in a's timezone.
func (b Buckets) Add(a *model.Asset, r model.SettlementResult) {
	local := a.In(r.IntervalStart)
	for _, scope := range model.Scopes {
		period := scope.PeriodKey(local)
		b.bucket(scope, period, r.AssetKey).AddResult(r)
		if r.AssetKey != model.UnknownAsset {
			b.bucket(scope, period, model.AllAssets).AddResult(r)
		}
	}
}

func (b Buckets) bucket(scope model.Scope, period, asset string) *model.Aggregate {
	k := model.BucketKey{Scope: scope, Period: period, AssetKey: asset}
	agg, ok := b[k]
	if !ok {
		agg = &model.Aggregate{}
		b[k] = agg
	}
	return agg
}

// Accumulate builds buckets for results. Results whose asset lookup fails are bucketed in UTC.
func Accumulate(results []model.SettlementResult, lookup AssetLookup) Buckets {
	b := Buckets{}
	for _, r := range results {
		var a *model.Asset
		if lookup != nil {
			a, _ = lookup(r.AssetKey)
		}
		if a == nil {
			a = &model.Asset{Key: r.AssetKey}
		}
		b.Add(a, r)
	}
	return b
}

// Get returns a copy of one bucket.
func (b Buckets) Get(scope model.Scope, period, asset string) (model.Aggregate, bool) {
	agg, ok := b[model.BucketKey{Scope: scope, Period: period, AssetKey: asset}]
	if !ok {
		return model.Aggregate{}, false
	}
	return *agg, true
}

// AssetKeys returns every asset key present, sorted.
func (b Buckets) AssetKeys() []string {
	seen := map[string]bool{}
	for k := range b {
		seen[k.AssetKey] = true
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Daily returns the day buckets of one asset keyed by date.
func (b Buckets) Daily(asset string) map[string]model.Aggregate {
	out := map[string]model.Aggregate{}
	for k, v := range b {
		if k.Scope == model.ScopeDay && k.AssetKey == asset {
			out[k.Period] = *v
		}
	}
	return out
}

// Histories converts the buckets into per-asset histories, including ALL. Monthly and annual
// maps are rebuilt from the daily buckets.
func (b Buckets) Histories() map[string]*model.AssetHistory {
	out := map[string]*model.AssetHistory{}
	for _, key := range b.AssetKeys() {
		h := model.NewAssetHistory(key)
		h.Daily = b.Daily(key)
		h.Monthly, h.Annual = Rollup(h.Daily)
		out[key] = h
	}
	return out
}

// Rollup rebuilds month and year buckets from day buckets keyed YYYY-MM-DD.
func Rollup(daily map[string]model.Aggregate) (monthly, annual map[string]model.Aggregate) {
	monthly = map[string]model.Aggregate{}
	annual = map[string]model.Aggregate{}
	for day, agg := range daily {
		if len(day) < len(model.DayLayout) {
			continue
		}
		m := monthly[day[:len(model.MonthLayout)]]
		m.Merge(agg)
		monthly[day[:len(model.MonthLayout)]] = m

		y := annual[day[:len(model.YearLayout)]]
		y.Merge(agg)
		annual[day[:len(model.YearLayout)]] = y
	}
	return monthly, annual
}

// Combine sums the daily buckets of every history except UNKNOWN and ALL into a fresh ALL
// history.
func Combine(histories map[string]*model.AssetHistory) *model.AssetHistory {
	out := model.NewAssetHistory(model.AllAssets)
	for key, h := range histories {
		if key == model.UnknownAsset || key == model.AllAssets || h == nil {
			continue
		}
		for day, agg := range h.Daily {
			d := out.Daily[day]
			d.Merge(agg)
			out.Daily[day] = d
		}
		if h.UpdatedAt.After(out.UpdatedAt) {
			out.UpdatedAt = h.UpdatedAt
		}
	}
	out.Monthly, out.Annual = Rollup(out.Daily)
	return out
}

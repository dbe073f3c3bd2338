// Package backfill merges cached, fresh and historical daily data into the published snapshot.
package backfill

import (
	"sort"

	"renewables-pnl/internal/aggregate"
	"renewables-pnl/internal/model"
)

// Merge combines the three tiers of one asset's daily history. Per date, fresh data replaces
// cached data and historical data only fills dates neither of them has. Monthly and annual
// buckets are rebuilt from the merged days, so merging the same input twice changes nothing.
// Any argument may be nil.
func Merge(key string, cached, fresh, historical *model.AssetHistory) *model.AssetHistory {
	out := model.NewAssetHistory(key)

	if cached != nil {
		for day, agg := range cached.Daily {
			out.Daily[day] = agg
			tier := cached.DayTiers[day]
			if tier == "" {
				tier = model.TierCache
			}
			out.DayTiers[day] = tier
		}
		out.UpdatedAt = cached.UpdatedAt
	}
	if fresh != nil {
		for day, agg := range fresh.Daily {
			out.Daily[day] = agg
			out.DayTiers[day] = model.TierFresh
		}
		if fresh.UpdatedAt.After(out.UpdatedAt) {
			out.UpdatedAt = fresh.UpdatedAt
		}
	}
	if historical != nil {
		for day, agg := range historical.Daily {
			if _, ok := out.Daily[day]; ok {
				continue
			}
			out.Daily[day] = agg
			out.DayTiers[day] = model.TierHistorical
		}
	}

	out.Monthly, out.Annual = aggregate.Rollup(out.Daily)
	return out
}

// MergeAll merges every asset present in any tier and rebuilds the combined history.
func MergeAll(cached, fresh, historical map[string]*model.AssetHistory) (map[string]*model.AssetHistory, *model.AssetHistory) {
	keys := map[string]bool{}
	for _, m := range []map[string]*model.AssetHistory{cached, fresh, historical} {
		for k := range m {
			if k != model.AllAssets {
				keys[k] = true
			}
		}
	}
	out := make(map[string]*model.AssetHistory, len(keys))
	for k := range keys {
		out[k] = Merge(k, cached[k], fresh[k], historical[k])
	}
	return out, aggregate.Combine(out)
}

// SumSources totals asset's days across every source. Sources are added in name order so the
// sum does not depend on map iteration.
func SumSources(layers map[string]model.SourceDays, asset string, days []string) *model.AssetHistory {
	names := make([]string, 0, len(layers))
	for name := range layers {
		names = append(names, name)
	}
	sort.Strings(names)

	h := model.NewAssetHistory(asset)
	for _, day := range days {
		var total model.Aggregate
		for _, name := range names {
			if agg, ok := layers[name][asset][day]; ok {
				total.Merge(agg)
			}
		}
		h.Daily[day] = total
	}
	return h
}

// Package analysis derives basis diagnostics from settlement results.
package analysis

import (
	"math"
	"sort"
	"time"

	"renewables-pnl/internal/model"
)

// DefaultMaxEntries caps a worst-basis list at one day of 15-minute intervals.
const DefaultMaxEntries = 96

// WorstBasis ranks one asset's intervals from yesterday by basis PnL impact.
type WorstBasis struct {
	Asset      *model.Asset
	MaxEntries int
}

// Yesterday returns the asset-local date before now's local date.
func Yesterday(a *model.Asset, now time.Time) string {
	local := a.In(now)
	y, m, d := local.Date()
	return time.Date(y, m, d-1, 12, 0, 0, 0, local.Location()).Format(model.DayLayout)
}

// Build returns the ranked list for the day before now. Impact is volume * basis, so the most
// negative (costliest) intervals come first. Intervals without a node price are skipped.
func (w WorstBasis) Build(results []model.SettlementResult, now time.Time) model.WorstBasisList {
	date := Yesterday(w.Asset, now)
	list := model.WorstBasisList{AssetKey: w.Asset.Key, Date: date, Entries: []model.WorstBasisEntry{}}

	for _, r := range results {
		if r.AssetKey != w.Asset.Key || r.PriceMissing || w.Asset.LocalDate(r.IntervalStart) != date {
			continue
		}
		list.Entries = append(list.Entries, model.WorstBasisEntry{
			IntervalStart:   r.IntervalStart,
			AssetKey:        r.AssetKey,
			SettlementPoint: r.SettlementPoint,
			Basis:           r.Basis,
			VolumeMWh:       r.VolumeMWh,
			BasisPnLImpact:  r.VolumeMWh * r.Basis,
		})
	}
	sortEntries(list.Entries)

	limit := w.MaxEntries
	if limit <= 0 {
		limit = DefaultMaxEntries
	}
	if len(list.Entries) > limit {
		list.Entries = list.Entries[:limit]
	}
	return list
}

func sortEntries(entries []model.WorstBasisEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].BasisPnLImpact != entries[j].BasisPnLImpact {
			return entries[i].BasisPnLImpact < entries[j].BasisPnLImpact
		}
		return entries[i].IntervalStart.Before(entries[j].IntervalStart)
	})
}

// Current returns list when its date is still yesterday for a, otherwise an empty list for
// yesterday. A list computed before midnight must not be served the next day.
func Current(list model.WorstBasisList, a *model.Asset, now time.Time) model.WorstBasisList {
	date := Yesterday(a, now)
	if list.Date != date || list.AssetKey != a.Key {
		return model.WorstBasisList{AssetKey: a.Key, Date: date, Entries: []model.WorstBasisEntry{}}
	}
	return list
}

// Merge folds fresh entries into an existing list for the same day. Entries for the same
// interval are replaced.
func Merge(existing, fresh model.WorstBasisList, maxEntries int) model.WorstBasisList {
	if existing.Date != fresh.Date || existing.AssetKey != fresh.AssetKey {
		return fresh
	}
	byStart := map[int64]model.WorstBasisEntry{}
	for _, e := range existing.Entries {
		byStart[e.IntervalStart.UnixNano()] = e
	}
	for _, e := range fresh.Entries {
		byStart[e.IntervalStart.UnixNano()] = e
	}
	out := fresh
	out.Entries = make([]model.WorstBasisEntry, 0, len(byStart))
	for _, e := range byStart {
		out.Entries = append(out.Entries, e)
	}
	sortEntries(out.Entries)
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if len(out.Entries) > maxEntries {
		out.Entries = out.Entries[:maxEntries]
	}
	return out
}

// TopK returns the first k entries.
func TopK(list model.WorstBasisList, k int) []model.WorstBasisEntry {
	if k < 0 {
		k = 0
	}
	if k > len(list.Entries) {
		k = len(list.Entries)
	}
	return list.Entries[:k]
}

// RecoverableImpact is the dollar amount that excluding the given entries would recover:
// the sum of their negative impacts as a positive number.
func RecoverableImpact(entries []model.WorstBasisEntry) float64 {
	total := 0.0
	for _, e := range entries {
		if e.BasisPnLImpact < 0 {
			total += math.Abs(e.BasisPnLImpact)
		}
	}
	return total
}

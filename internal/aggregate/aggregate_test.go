package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"renewables-pnl/internal/model"
)

var central, _ = time.LoadLocation("America/Chicago")

func lookup(assets ...*model.Asset) AssetLookup {
	m := map[string]*model.Asset{}
	for _, a := range assets {
		m[a.Key] = a
	}
	return func(key string) (*model.Asset, bool) {
		a, ok := m[key]
		return a, ok
	}
}

func result(asset string, at time.Time, v, pnl, basis float64) model.SettlementResult {
	return model.SettlementResult{AssetKey: asset, IntervalStart: at, VolumeMWh: v, PnL: pnl, Basis: basis, NodePrice: 20}
}

func TestAccumulate_BucketsInAssetTimezone(t *testing.T) {
	wind := &model.Asset{Key: "WIND", Location: central}
	// 2026-01-01 03:00 UTC is still 2025-12-31 in Chicago.
	results := []model.SettlementResult{
		result("WIND", time.Date(2026, 1, 1, 3, 0, 0, 0, time.UTC), 10, 100, -5),
		result("WIND", time.Date(2026, 1, 1, 18, 0, 0, 0, time.UTC), 0, 7, 50),
		result(model.UnknownAsset, time.Date(2026, 1, 1, 18, 0, 0, 0, time.UTC), 3, 30, 1),
	}

	b := Accumulate(results, lookup(wind))

	day, ok := b.Get(model.ScopeDay, "2025-12-31", "WIND")
	require.True(t, ok)
	assert.Equal(t, 1, day.Count)
	assert.InDelta(t, -50, day.VolumeBasisProduct, 1e-9)

	year, ok := b.Get(model.ScopeYear, "2026", "WIND")
	require.True(t, ok)
	assert.InDelta(t, 7, year.PnL, 1e-9)
	// zero-volume interval contributes no basis weight
	assert.Zero(t, year.VolumeBasisProduct)
	assert.Nil(t, year.GWABasis())

	unknown, ok := b.Get(model.ScopeDay, "2026-01-01", model.UnknownAsset)
	require.True(t, ok)
	assert.InDelta(t, 30, unknown.PnL, 1e-9)

	all, ok := b.Get(model.ScopeDay, "2026-01-01", model.AllAssets)
	require.True(t, ok)
	assert.InDelta(t, 7, all.PnL, 1e-9, "ALL excludes UNKNOWN")

	assert.Equal(t, []string{model.AllAssets, model.UnknownAsset, "WIND"}, b.AssetKeys())
}

func TestGWABasis(t *testing.T) {
	a := &model.Asset{Key: "A"}
	b := Buckets{}
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	b.Add(a, result("A", at, 10, 0, -4))
	b.Add(a, result("A", at.Add(5*time.Minute), 30, 0, 8))

	day, _ := b.Get(model.ScopeDay, "2026-05-01", "A")
	require.NotNil(t, day.GWABasis())
	// (10*-4 + 30*8) / 40
	assert.InDelta(t, 5, *day.GWABasis(), 1e-9)
}

func TestRollupMatchesDirectAccumulation(t *testing.T) {
	a := &model.Asset{Key: "A", Location: central}
	var results []model.SettlementResult
	start := time.Date(2025, 12, 30, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 24*5; i++ {
		results = append(results, result("A", start.Add(time.Duration(i)*time.Hour), float64(i%7), float64(i), float64(i%5-2)))
	}
	b := Accumulate(results, lookup(a))

	monthly, annual := Rollup(b.Daily("A"))

	for k, v := range b {
		if k.AssetKey != "A" {
			continue
		}
		switch k.Scope {
		case model.ScopeMonth:
			assert.InDelta(t, v.PnL, monthly[k.Period].PnL, 1e-6, k.Period)
			assert.Equal(t, v.Count, monthly[k.Period].Count, k.Period)
			assert.InDelta(t, v.VolumeBasisProduct, monthly[k.Period].VolumeBasisProduct, 1e-6)
		case model.ScopeYear:
			assert.InDelta(t, v.PnL, annual[k.Period].PnL, 1e-6, k.Period)
			assert.Equal(t, v.Count, annual[k.Period].Count, k.Period)
		}
	}
	assert.Len(t, annual, 2)
}

func TestCombineExcludesUnknown(t *testing.T) {
	h1 := model.NewAssetHistory("A")
	h1.Daily["2026-02-01"] = model.Aggregate{PnL: 10, Count: 1}
	h2 := model.NewAssetHistory("B")
	h2.Daily["2026-02-01"] = model.Aggregate{PnL: 5, Count: 1}
	h2.Daily["2026-03-01"] = model.Aggregate{PnL: 1, Count: 1}
	unk := model.NewAssetHistory(model.UnknownAsset)
	unk.Daily["2026-02-01"] = model.Aggregate{PnL: 1000, Count: 1}

	all := Combine(map[string]*model.AssetHistory{"A": h1, "B": h2, model.UnknownAsset: unk})

	assert.InDelta(t, 15, all.Daily["2026-02-01"].PnL, 1e-9)
	assert.InDelta(t, 16, all.Annual["2026"].PnL, 1e-9)
	assert.Equal(t, 3, all.Annual["2026"].Count)
	assert.Len(t, all.Monthly, 2)
}

type fixedPricer float64

func (f fixedPricer) RealizedPrice(*model.Asset, model.Aggregate) *float64 {
	v := float64(f)
	return &v
}

func TestViewHistory(t *testing.T) {
	h := model.NewAssetHistory("A")
	h.Daily["2026-02-02"] = model.Aggregate{PnL: 20, VolumeMWh: 2, Count: 1}
	h.Daily["2026-02-01"] = model.Aggregate{PnL: 10, VolumeMWh: 0, Count: 1}
	h.Monthly, h.Annual = Rollup(h.Daily)

	v := ViewHistory(h, &model.Asset{Key: "A"}, fixedPricer(42))
	require.Len(t, v.Daily, 2)
	assert.Equal(t, "2026-02-01", v.Daily["2026-02-01"].Period)
	assert.Nil(t, v.Daily["2026-02-01"].GWABasis)
	assert.InDelta(t, 42, *v.Daily["2026-02-02"].RealizedPrice, 1e-9)
	assert.InDelta(t, 30, v.Total.PnL, 1e-9)
	assert.Contains(t, v.Monthly, "2026-02")
	assert.Contains(t, v.Annual, "2026")

	combined := ViewHistory(h, nil, nil)
	assert.InDelta(t, 10, *combined.Daily["2026-02-02"].RealizedPrice, 1e-9)
	assert.Nil(t, combined.Daily["2026-02-01"].RealizedPrice)

	empty := ViewHistory(nil, nil, nil)
	assert.NotNil(t, empty.Daily)
}

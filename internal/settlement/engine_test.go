package settlement

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"renewables-pnl/internal/model"
	"renewables-pnl/internal/pricing"
)

func asset(t *testing.T, a model.Asset) *model.Asset {
	t.Helper()
	if len(a.Patterns) == 0 {
		a.Patterns = []string{a.Key}
	}
	out, err := model.NewAsset(a)
	require.NoError(t, err)
	return out
}

var t0 = time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)

func TestUnified_SplitPPA(t *testing.T) {
	a := asset(t, model.Asset{Key: "SPL", PPAPercent: 100, PPAPrice: 34, BasisExposurePercent: 50, Mode: model.ModeSplit})
	r := model.IntervalRecord{IntervalStart: t0, VolumeMWh: 10, NodePrice: 40}

	res := Unified{}.Settle(a, r, model.Float(30))

	assert.InDelta(t, 10, res.Basis, 1e-9)
	assert.InDelta(t, 0, res.MerchantPnL, 1e-9)
	assert.InDelta(t, 390, res.PPAPnL, 1e-9)
	assert.InDelta(t, 390, res.PnL, 1e-9)
}

func TestUnified_PureMerchant(t *testing.T) {
	a := asset(t, model.Asset{Key: "MER", MerchantPercent: 100, BasisExposurePercent: 100})
	r := model.IntervalRecord{IntervalStart: t0, VolumeMWh: 5, NodePrice: 50}

	res := Unified{}.Settle(a, r, model.Float(45))

	assert.InDelta(t, 250, res.PnL, 1e-9)
	assert.InDelta(t, 5, res.Basis, 1e-9)
}

func TestUnified_HubSettledIgnoresBasis(t *testing.T) {
	a := asset(t, model.Asset{Key: "HUB", PPAPercent: 100, PPAPrice: 30, Mode: model.ModeHub})
	r := model.IntervalRecord{IntervalStart: t0, VolumeMWh: 2, NodePrice: -20}

	res := Unified{}.Settle(a, r, model.Float(25))

	assert.InDelta(t, -45, res.Basis, 1e-9)
	assert.InDelta(t, 60, res.PnL, 1e-9)
}

func TestUnified_UnresolvedHubHasZeroBasis(t *testing.T) {
	a := asset(t, model.Asset{Key: "NODE", PPAPercent: 100, PPAPrice: 30, BasisExposurePercent: 100})
	r := model.IntervalRecord{IntervalStart: t0, VolumeMWh: 4, NodePrice: 10}

	res := Unified{}.Settle(a, r, nil)

	assert.Nil(t, res.HubPrice)
	assert.Zero(t, res.Basis)
	assert.InDelta(t, 120, res.PnL, 1e-9)
}

func TestUnified_MissingNodePriceCarriesNoBasis(t *testing.T) {
	a := asset(t, model.Asset{Key: "NODE", PPAPercent: 100, PPAPrice: 30, BasisExposurePercent: 100})
	priced := model.IntervalRecord{IntervalStart: t0, VolumeMWh: 10, NodePrice: 25, PriceSource: model.PriceReported}
	missing := model.IntervalRecord{IntervalStart: t0.Add(5 * time.Minute), VolumeMWh: 10, PriceSource: model.PriceMissing}

	res := Unified{}.Settle(a, missing, model.Float(30))

	assert.True(t, res.PriceMissing)
	assert.Zero(t, res.Basis)
	require.NotNil(t, res.HubPrice)
	assert.InDelta(t, 300, res.PnL, 1e-9)

	var agg model.Aggregate
	agg.AddResult(Unified{}.Settle(a, priced, model.Float(30)))
	agg.AddResult(res)

	assert.InDelta(t, 20, agg.VolumeMWh, 1e-9)
	require.NotNil(t, agg.GWABasis())
	assert.InDelta(t, -5, *agg.GWABasis(), 1e-9)
	assert.InDelta(t, 25, *agg.AvgNodePrice(), 1e-9)
	assert.InDelta(t, 30, *agg.AvgHubPrice(), 1e-9)

	var onlyMissing model.Aggregate
	onlyMissing.AddResult(res)
	assert.Nil(t, onlyMissing.GWABasis())
	assert.Nil(t, onlyMissing.AvgNodePrice())
	assert.Nil(t, Unified{}.RealizedPrice(a, onlyMissing))
}

func TestFixedForFloating_DerivedMarketRevenue(t *testing.T) {
	a := asset(t, model.Asset{Key: "FFF", PPAPercent: 100, PPAPrice: 40, BasisExposurePercent: 100, Mode: model.ModeFixedForFloating})
	r := model.IntervalRecord{
		IntervalStart: t0,
		VolumeMWh:     10,
		NodePrice:     20,
		DAVolumeMWh:   model.Float(8),
		DAPrice:       model.Float(25),
		RTPrice:       model.Float(20),
	}

	res := FixedForFloating{}.Settle(a, r, model.Float(22))

	// 8*25 + 2*20
	assert.InDelta(t, 240, res.MarketRevenue, 1e-9)
	assert.InDelta(t, 400, res.FixedPayment, 1e-9)
	assert.InDelta(t, 220, res.FloatingPayment, 1e-9)
	assert.InDelta(t, 180, res.PPAPnL, 1e-9)
	assert.InDelta(t, 420, res.PnL, 1e-9)
	assert.InDelta(t, -2, res.Basis, 1e-9)
}

func TestFixedForFloating_ReportedRevenueAndUnresolvedHub(t *testing.T) {
	a := asset(t, model.Asset{Key: "FFF", PPAPercent: 100, PPAPrice: 40, BasisExposurePercent: 100, Mode: model.ModeFixedForFloating})
	r := model.IntervalRecord{IntervalStart: t0, VolumeMWh: 10, NodePrice: 20, MarketRevenue: model.Float(205)}

	res := FixedForFloating{}.Settle(a, r, nil)

	assert.InDelta(t, 205, res.MarketRevenue, 1e-9)
	// floating leg falls back to the node price
	assert.InDelta(t, 200, res.FloatingPayment, 1e-9)
	assert.InDelta(t, 405, res.PnL, 1e-9)
	assert.Zero(t, res.Basis)
}

func TestRealizedPrice(t *testing.T) {
	split := asset(t, model.Asset{Key: "SPL", PPAPercent: 100, PPAPrice: 34, BasisExposurePercent: 50, Mode: model.ModeSplit})
	var agg model.Aggregate
	agg.AddResult(Unified{}.Settle(split, model.IntervalRecord{VolumeMWh: 10, NodePrice: 40}, model.Float(30)))

	got := Unified{}.RealizedPrice(split, agg)
	require.NotNil(t, got)
	assert.InDelta(t, 39, *got, 1e-9)
	assert.InDelta(t, *agg.PnLPerMWh(), *got, 1e-9)

	assert.Nil(t, Unified{}.RealizedPrice(split, model.Aggregate{}))
}

func TestFormulaFor(t *testing.T) {
	f, err := FormulaFor(model.ModeSplit)
	require.NoError(t, err)
	assert.Equal(t, "unified", f.Name())

	f, err = FormulaFor(model.ModeFixedForFloating)
	require.NoError(t, err)
	assert.Equal(t, "fixed_for_floating", f.Name())

	_, err = FormulaFor("collar")
	assert.Error(t, err)
}

func TestEngineRun(t *testing.T) {
	spl := asset(t, model.Asset{Key: "SPL", Hub: "HB_WEST", PPAPercent: 100, PPAPrice: 34, BasisExposurePercent: 50, Mode: model.ModeSplit})
	e, err := New([]*model.Asset{spl}, "HB_WEST")
	require.NoError(t, err)

	hubs := pricing.NewSet(pricing.NewLastKnown(time.Hour), time.Minute)
	hubs.AddPoints([]model.PricePoint{{Location: "HB_WEST", Instant: t0, Price: 30}})

	recs := []model.IntervalRecord{
		{AssetKey: model.UnknownAsset, Label: "other", IntervalStart: t0.Add(5 * time.Minute), VolumeMWh: 1, NodePrice: 10},
		{AssetKey: "SPL", Label: "spl", IntervalStart: t0, VolumeMWh: 10, NodePrice: 40},
	}

	out, err := e.Run(recs, hubs)
	require.NoError(t, err)
	require.Len(t, out.Ledger, 2)

	assert.Equal(t, "SPL", out.Results[0].AssetKey)
	assert.Equal(t, model.HubExact, out.Results[0].HubSource)
	assert.InDelta(t, 390, out.ByAsset["SPL"], 1e-9)

	// unknown record settles merchant at node, hub from cache
	assert.Equal(t, model.UnknownAsset, out.Results[1].AssetKey)
	assert.Equal(t, model.HubCached, out.Results[1].HubSource)
	assert.InDelta(t, 10, out.ByAsset[model.UnknownAsset], 1e-9)

	assert.InDelta(t, 400, out.TotalPnL, 1e-9)
	assert.InDelta(t, 400, out.Ledger[1].CumPnL, 1e-9)
}

func TestEngineRun_UnconfiguredAsset(t *testing.T) {
	e, err := New(nil, "")
	require.NoError(t, err)

	_, err = e.Run([]model.IntervalRecord{{AssetKey: "NOPE"}}, pricing.NewSet(nil, time.Minute))
	assert.Error(t, err)
}

func TestNew_DuplicateAsset(t *testing.T) {
	a := asset(t, model.Asset{Key: "A", MerchantPercent: 100, BasisExposurePercent: 100})
	_, err := New([]*model.Asset{a, a}, "")
	assert.Error(t, err)
}

func TestWriteLedger(t *testing.T) {
	a := asset(t, model.Asset{Key: "MER", MerchantPercent: 100, BasisExposurePercent: 100})
	e, err := New([]*model.Asset{a}, "")
	require.NoError(t, err)
	out, err := e.Run([]model.IntervalRecord{{AssetKey: "MER", IntervalStart: t0, VolumeMWh: 5, NodePrice: 50}}, pricing.NewSet(nil, time.Minute))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteLedger(&buf, out.Ledger))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "index", rows[0][0])
	assert.Equal(t, "MER", rows[1][5])
	assert.Equal(t, "", rows[1][9])
	assert.Equal(t, "unresolved", rows[1][10])
	assert.Equal(t, "250.000000", rows[1][17])
}

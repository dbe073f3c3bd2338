package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"renewables-pnl/internal/model"
)

func testAssets(t *testing.T) []*model.Asset {
	t.Helper()
	defs := []model.Asset{
		{Key: "BKII", Patterns: []string{"Bearkat Wind Energy II"}, MerchantPercent: 100, BasisExposurePercent: 100},
		{Key: "BKI", Patterns: []string{"Bearkat Wind Energy"}, MerchantPercent: 100, BasisExposurePercent: 100},
		{Key: "MCII", Patterns: []string{"McCrae Wind Energy II"}, MerchantPercent: 100, BasisExposurePercent: 100},
		{Key: "NWOH", Patterns: []string{"Northwest Ohio Wind"}, MerchantPercent: 100, BasisExposurePercent: 100},
	}
	out := make([]*model.Asset, 0, len(defs))
	for _, d := range defs {
		a, err := model.NewAsset(d)
		require.NoError(t, err)
		out = append(out, a)
	}
	return out
}

func TestClassify(t *testing.T) {
	c := New(testAssets(t), []string{"-Gen"}, []string{"-Generation"})

	tests := []struct {
		label string
		want  string
	}{
		{"Bearkat Wind Energy II, LLC - Gen", "BKII"},
		{"BEARKAT WIND ENERGY II, LLC - GEN", "BKII"},
		{"Bearkat Wind Energy I, LLC - Gen", "BKI"},
		{"McCrae Wind Energy II - Main", model.UnknownAsset},
		{"McCrae Wind Energy II - Hedge", model.UnknownAsset},
		{"McCrae Wind Energy II-Gen", "MCII"},
		{"Northwest Ohio Wind - Generation Only", "NWOH"},
		{"Some Other Solar - Gen", model.UnknownAsset},
		{"Bearkat Wind Energy II - Gen Tie", model.UnknownAsset},
		{"", model.UnknownAsset},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.label))
		})
	}
}

func TestClassify_FirstRegisteredWins(t *testing.T) {
	assets := testAssets(t)
	// Swap so the broader pattern is registered first.
	assets[0], assets[1] = assets[1], assets[0]
	c := New(assets, []string{"-gen"}, nil)

	assert.Equal(t, "BKI", c.Classify("Bearkat Wind Energy II, LLC - Gen"))
}

func TestTag(t *testing.T) {
	c := New(testAssets(t), []string{"-gen"}, []string{"-generation"})
	recs := []model.IntervalRecord{
		{Label: "Bearkat Wind Energy II, LLC - Gen"},
		{Label: "McCrae Wind Energy II - Main"},
		{Label: "Bearkat Wind Energy II, LLC - Gen"},
	}

	counts := c.Tag(recs)

	assert.Equal(t, "BKII", recs[0].AssetKey)
	assert.Equal(t, model.UnknownAsset, recs[1].AssetKey)
	assert.Equal(t, map[string]int{"BKII": 2, model.UnknownAsset: 1}, counts)
}

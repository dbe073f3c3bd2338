package data

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"renewables-pnl/internal/model"
)

func writeWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	_, err := f.NewSheet(DailySheet)
	require.NoError(t, err)
	_, err = f.NewSheet(FiveMinSheet)
	require.NoError(t, err)

	require.NoError(t, f.SetSheetRow(DailySheet, "A1", &[]any{"Monthly Wind Units Report"}))
	require.NoError(t, f.SetSheetRow(DailySheet, "A2", &[]any{"Date", "Gen MWh", "DAMWh", "DALMP", "RTLMP", "Revenue DA", "Revenue RT", "Gross Revenue"}))
	require.NoError(t, f.SetSheetRow(DailySheet, "A3", &[]any{"01/15/2025", 24, 20, 30, 28, 600, 112, 712}))
	require.NoError(t, f.SetSheetRow(DailySheet, "A4", &[]any{"01/16/2025", 12, 0, 0, 25, 0, 300, ""}))
	require.NoError(t, f.SetSheetRow(DailySheet, "A5", &[]any{"Total", 36}))

	require.NoError(t, f.SetSheetRow(FiveMinSheet, "A1", &[]any{"PPA"}))
	require.NoError(t, f.SetSheetRow(FiveMinSheet, "A2", &[]any{"Date", "HE", "Min", "Hub", "Node", "Gen", "GM", "Floating", "Fixed"}))
	// 12 rows of one hour: hourly gen 12 MWh => 1 MWh per row.
	for i := 0; i < 12; i++ {
		cellRef, err := excelize.CoordinatesToCellName(1, 3+i)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(FiveMinSheet, cellRef, &[]any{"2025-01-15", 1, (i + 1) * 5, 30, 28, 12, 0, "", ""}))
	}

	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoadWindReport(t *testing.T) {
	path := writeWorkbook(t)

	hist, stats, err := LoadWindReport(WindReport{Path: path, Asset: "NWOH", PPAPrice: 33.31})
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Days)
	assert.Equal(t, 12, stats.FiveMinRows)
	assert.Equal(t, 1, stats.Skipped)

	h := hist["NWOH"]
	require.NotNil(t, h)
	day := h.Daily["2025-01-15"]
	assert.InDelta(t, 24, day.VolumeMWh, 1e-9)
	assert.Equal(t, 12, day.Count)
	assert.InDelta(t, 12*33.31, day.FixedPayment, 1e-6)
	assert.InDelta(t, 12*30, day.FloatingPayment, 1e-6)
	assert.InDelta(t, 712+12*33.31-360, day.PnL, 1e-6)
	assert.InDelta(t, 30, *day.AvgHubPrice(), 1e-9)
	// weighted by the 12 MWh of 5-minute generation, not the day's 24 MWh
	assert.InDelta(t, -2, *day.GWABasis(), 1e-9)

	second := h.Daily["2025-01-16"]
	assert.InDelta(t, 300, second.MarketRevenue, 1e-9, "gross falls back to DA + RT revenue")
	assert.InDelta(t, 300, second.PnL, 1e-9)
	assert.Nil(t, second.AvgHubPrice())
	assert.Nil(t, second.GWABasis(), "no 5-minute data means no basis")
	require.NotNil(t, second.AvgNodePrice())
	assert.InDelta(t, 25, *second.AvgNodePrice(), 1e-9)

	assert.Equal(t, model.TierHistorical, h.DayTiers["2025-01-15"])
	assert.InDelta(t, day.PnL+second.PnL, h.Monthly["2025-01"].PnL, 1e-6)
}

func TestLoadWindReport_MissingSheet(t *testing.T) {
	f := excelize.NewFile()
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	_, _, err := LoadWindReport(WindReport{Path: path, Asset: "NWOH"})
	assert.Error(t, err)
}

func TestHistoryJSONRoundTrip(t *testing.T) {
	h := model.NewAssetHistory("NWOH")
	h.Daily["2025-01-15"] = model.Aggregate{PnL: 10, Count: 1}
	h.Monthly["2025-01"] = model.Aggregate{PnL: 999}
	path := filepath.Join(t.TempDir(), "hist.json")

	require.NoError(t, SaveHistoryJSON(path, "test", map[string]*model.AssetHistory{"NWOH": h}))
	got, err := LoadHistoryJSON(path)
	require.NoError(t, err)

	require.Contains(t, got, "NWOH")
	assert.InDelta(t, 10, got["NWOH"].Monthly["2025-01"].PnL, 1e-9, "rollups are rebuilt")
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12.5", 12.5, true},
		{"$1,234.50", 1234.5, true},
		{"(12.00)", -12, true},
		{"", 0, false},
		{"-", 0, false},
		{"n/a", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseNumber(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.InDelta(t, tt.want, got, 1e-9, tt.in)
	}
}

func TestParseExcelDate(t *testing.T) {
	d, ok := parseExcelDate("45672")
	require.True(t, ok)
	assert.Equal(t, "2025-01-15", d)

	d, ok = parseExcelDate("1/5/2025")
	require.True(t, ok)
	assert.Equal(t, "2025-01-05", d)

	_, ok = parseExcelDate("Total")
	assert.False(t, ok)
}

package data

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"renewables-pnl/internal/aggregate"
	"renewables-pnl/internal/model"
)

// Sheet names and header row of the monthly wind units report.
const (
	DailySheet   = "Daily"
	FiveMinSheet = "PPA 5 Min Data"
	headerRow    = 1
)

// 5-minute tab columns, by position.
const (
	colDate = iota
	colHE
	colMinEnding
	colHubLMP
	colNodeLMP
	colGenHourly
	colGMMWh
	colFloating
	colFixed
)

// WindReport describes one workbook to import.
type WindReport struct {
	Path     string
	Asset    string
	PPAPrice float64
}

// ImportStats counts what the importer kept and skipped.
type ImportStats struct {
	Days        int
	FiveMinRows int
	Skipped     int
}

// LoadWindReport reads a monthly wind units report into a daily history for one
// fixed-for-floating asset. Daily totals come from the Daily tab; hub and node weighting and
// the swap legs come from the 5-minute tab, whose hourly generation is spread evenly over
// twelve rows.
func LoadWindReport(r WindReport) (map[string]*model.AssetHistory, ImportStats, error) {
	var stats ImportStats
	f, err := excelize.OpenFile(r.Path)
	if err != nil {
		return nil, stats, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	fiveMin, err := f.GetRows(FiveMinSheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, stats, fmt.Errorf("read %q: %w", FiveMinSheet, err)
	}
	ppaByDay := map[string]*model.Aggregate{}
	for i, row := range fiveMin {
		if i <= headerRow {
			continue
		}
		day, ok := parseExcelDate(cell(row, colDate))
		if !ok {
			stats.Skipped++
			continue
		}
		gen, okGen := parseNumber(cell(row, colGenHourly))
		hub, okHub := parseNumber(cell(row, colHubLMP))
		node, okNode := parseNumber(cell(row, colNodeLMP))
		if !okGen || !okHub || !okNode {
			stats.Skipped++
			continue
		}
		gen5 := gen / 12

		agg := ppaByDay[day]
		if agg == nil {
			agg = &model.Aggregate{}
			ppaByDay[day] = agg
		}
		agg.Count++
		if gen5 > 0 {
			agg.BasisVolumeMWh += gen5
			agg.VolumeBasisProduct += gen5 * (node - hub)
			agg.VolumeNodeProduct += gen5 * node
			agg.NodeVolumeMWh += gen5
			agg.VolumeHubProduct += gen5 * hub
			agg.HubVolumeMWh += gen5
		}
		floating, ok := parseNumber(cell(row, colFloating))
		if !ok {
			floating = gen5 * hub
		}
		fixed, ok := parseNumber(cell(row, colFixed))
		if !ok {
			fixed = gen5 * r.PPAPrice
		}
		agg.FloatingPayment += floating
		agg.FixedPayment += fixed
		stats.FiveMinRows++
	}

	daily, err := f.GetRows(DailySheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, stats, fmt.Errorf("read %q: %w", DailySheet, err)
	}
	if len(daily) <= headerRow {
		return nil, stats, fmt.Errorf("%q has no header row", DailySheet)
	}
	cols := headerIndex(daily[headerRow])
	for _, name := range []string{"Date", "Gen MWh"} {
		if _, ok := cols[name]; !ok {
			return nil, stats, fmt.Errorf("%q is missing column %q", DailySheet, name)
		}
	}

	h := model.NewAssetHistory(r.Asset)
	for _, row := range daily[headerRow+1:] {
		day, ok := parseExcelDate(named(row, cols, "Date"))
		if !ok {
			stats.Skipped++
			continue
		}
		gen, _ := parseNumber(named(row, cols, "Gen MWh"))
		gross, ok := parseNumber(named(row, cols, "Gross Revenue"))
		if !ok {
			da, _ := parseNumber(named(row, cols, "Revenue DA"))
			rt, _ := parseNumber(named(row, cols, "Revenue RT"))
			gross = da + rt
		}

		agg := model.Aggregate{Count: 1}
		if ppa := ppaByDay[day]; ppa != nil {
			agg = *ppa
		} else if rtLMP, ok := parseNumber(named(row, cols, "RTLMP")); ok && gen > 0 {
			// No 5-minute data: the node is the day's RT price, hub and basis stay unknown.
			agg.VolumeNodeProduct = gen * rtLMP
			agg.NodeVolumeMWh = gen
		}
		agg.VolumeMWh = gen
		agg.MarketRevenue = gross
		agg.MerchantPnL = gross
		agg.PPAPnL = agg.FixedPayment - agg.FloatingPayment
		agg.PnL = agg.MarketRevenue + agg.PPAPnL

		h.Daily[day] = agg
		h.DayTiers[day] = model.TierHistorical
		stats.Days++
	}
	h.Monthly, h.Annual = aggregate.Rollup(h.Daily)
	return map[string]*model.AssetHistory{r.Asset: h}, stats, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func named(row []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok {
		return ""
	}
	return cell(row, i)
}

func headerIndex(header []string) map[string]int {
	out := make(map[string]int, len(header))
	for i, h := range header {
		if h = strings.TrimSpace(h); h != "" {
			out[h] = i
		}
	}
	return out
}

var excelDateLayouts = []string{
	"01/02/2006",
	"1/2/2006",
	"1/2/06",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseExcelDate accepts a serial date number or a formatted date and returns YYYY-MM-DD.
func parseExcelDate(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return "", false
		}
		return t.Format(model.DayLayout), true
	}
	for _, layout := range excelDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(model.DayLayout), true
		}
	}
	return "", false
}

// parseNumber accepts plain and accounting-formatted numbers ("$1,234.50", "(12.00)").
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0, false
	}
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	s = strings.NewReplacer("$", "", ",", "").Replace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		v = -v
	}
	return v, true
}

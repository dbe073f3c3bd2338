package normalize

import (
	"sort"
	"strconv"
	"time"

	"renewables-pnl/internal/model"
)

// GridOperatorPrices converts the grid operator's flat per-node feed into price points.
// Rows for other nodes are ignored; location names the resulting points.
func GridOperatorPrices(rows []model.GridOperatorLMP, pnodeID int64, location string) ([]model.PricePoint, Stats) {
	var stats Stats
	if location == "" {
		location = strconv.FormatInt(pnodeID, 10)
	}
	out := make([]model.PricePoint, 0, len(rows))
	for _, r := range rows {
		if pnodeID != 0 && r.PnodeID != pnodeID {
			continue
		}
		// The feed's *_utc fields carry no offset.
		ts, err := ParseTime(r.DatetimeBeginningUTC, time.UTC)
		if err != nil {
			stats.Dropped++
			continue
		}
		out = append(out, model.PricePoint{Location: location, Instant: ts, Price: r.TotalLMPRT})
	}
	sortPoints(out)
	stats.Records = len(out)
	return out, stats
}

// GridStatusPrices converts a Grid Status location query into price points.
func GridStatusPrices(resp *model.GridStatusLMPResponse, location string) []model.PricePoint {
	if resp == nil {
		return nil
	}
	out := make([]model.PricePoint, 0, len(resp.Data))
	for _, it := range resp.Data {
		if location != "" && it.Location != "" && it.Location != location {
			continue
		}
		start := it.Start()
		if start.IsZero() {
			continue
		}
		loc := it.Location
		if loc == "" {
			loc = location
		}
		out = append(out, model.PricePoint{Location: loc, Instant: start.UTC(), Price: it.Price()})
	}
	sortPoints(out)
	return out
}

func sortPoints(pts []model.PricePoint) {
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].Instant.Before(pts[j].Instant) })
}

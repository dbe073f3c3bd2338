package normalize

import (
	"time"

	"renewables-pnl/internal/model"
)

// Vendor normalizes an asset-management batch into hourly records. The pre-joined hourly
// revenue rows are used when present; otherwise awards, generation and real-time prices are
// joined by hour-beginning instant.
//
// SettlementAmount is set to the negated wholesale revenue so that hours with a day-ahead
// award but no generation are kept.
func Vendor(b model.VendorBatch, provider string, loc *time.Location) ([]model.IntervalRecord, Stats) {
	if loc == nil {
		loc = time.UTC
	}
	if len(b.Hourly) > 0 {
		return vendorHourly(b, provider, loc)
	}
	return vendorJoined(b, provider, loc)
}

func vendorHourly(b model.VendorBatch, provider string, loc *time.Location) ([]model.IntervalRecord, Stats) {
	var stats Stats
	recs := make([]model.IntervalRecord, 0, len(b.Hourly))
	seen := map[int64]bool{}
	for _, h := range b.Hourly {
		ts, err := ParseTime(h.HourBeginning, loc)
		if err != nil {
			stats.Dropped++
			continue
		}
		if seen[ts.UnixNano()] {
			stats.Dropped++
			continue
		}
		seen[ts.UnixNano()] = true
		revenue := h.DARevenue + h.RTRevenue
		r := model.IntervalRecord{
			Provider:         provider,
			Label:            b.Label,
			SettlementPoint:  b.SettlementPoint,
			IntervalStart:    ts,
			VolumeMWh:        h.GenMWh,
			NodePrice:        h.RTLMP,
			PriceSource:      model.PriceReported,
			SettlementAmount: model.Float(-revenue),
			DAVolumeMWh:      model.Float(h.DAMWh),
			DAPrice:          model.Float(h.DALMP),
			RTPrice:          model.Float(h.RTLMP),
			MarketRevenue:    model.Float(revenue),
		}
		if h.HubLMP != nil {
			r.HubPrice = model.Float(*h.HubLMP)
		}
		recs = append(recs, r)
	}
	return finalize(recs, &stats), stats
}

type vendorHour struct {
	gen      *float64
	daMWh    float64
	daPrice  *float64
	rtSum    float64
	rtPoints int
}

func vendorJoined(b model.VendorBatch, provider string, loc *time.Location) ([]model.IntervalRecord, Stats) {
	var stats Stats
	hours := map[int64]*vendorHour{}
	order := []time.Time{}
	get := func(t time.Time) *vendorHour {
		t = t.Truncate(time.Hour)
		k := t.UnixNano()
		h, ok := hours[k]
		if !ok {
			h = &vendorHour{}
			hours[k] = h
			order = append(order, t)
		}
		return h
	}

	for _, a := range b.Awards {
		ts, err := ParseTime(a.Timestamp, loc)
		if err != nil {
			stats.Dropped++
			continue
		}
		h := get(ts)
		h.daMWh += a.MW
		h.daPrice = model.Float(a.Price)
	}
	for _, g := range b.Generation {
		end, err := ParseTime(g.IntervalEnding, loc)
		if err != nil {
			stats.Dropped++
			continue
		}
		h := get(end.Add(-time.Hour))
		if h.gen == nil {
			h.gen = model.Float(0)
		}
		*h.gen += g.MWh
	}
	for _, p := range b.RTPrices {
		ts, err := ParseTime(p.Time, loc)
		if err != nil {
			stats.Dropped++
			continue
		}
		h := get(ts)
		h.rtSum += p.LMP
		h.rtPoints++
	}

	recs := make([]model.IntervalRecord, 0, len(order))
	for _, t := range order {
		h := hours[t.UnixNano()]
		r := model.IntervalRecord{
			Provider:        provider,
			Label:           b.Label,
			SettlementPoint: b.SettlementPoint,
			IntervalStart:   t.In(loc),
		}
		if h.gen != nil {
			r.VolumeMWh = *h.gen
		}
		var rt *float64
		if h.rtPoints > 0 {
			// Hourly RT LMP is the simple mean of the hour's intervals, as the market publishes it.
			rt = model.Float(h.rtSum / float64(h.rtPoints))
			r.NodePrice = *rt
			r.PriceSource = model.PriceReported
			r.RTPrice = rt
		}
		if h.daPrice != nil {
			r.DAVolumeMWh = model.Float(h.daMWh)
			r.DAPrice = h.daPrice
			if rt != nil {
				revenue := h.daMWh*(*h.daPrice) + (r.VolumeMWh-h.daMWh)*(*rt)
				r.MarketRevenue = model.Float(revenue)
				r.SettlementAmount = model.Float(-revenue)
			}
		}
		recs = append(recs, r)
	}
	return finalize(recs, &stats), stats
}

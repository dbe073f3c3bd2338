package normalize

import (
	"encoding/json"
	"strings"
	"time"

	"renewables-pnl/internal/model"
)

type metricKind int

const (
	metricUnknown metricKind = iota
	metricVolume
	metricAmount
	metricAveragePrice
	metricNodePrice
	metricHubPrice
)

var metricAliases = map[string]metricKind{
	"volume":                 metricVolume,
	"gen_mwh":                metricVolume,
	"generation":             metricVolume,
	"net_mwh":                metricVolume,
	"mwh":                    metricVolume,
	"settlement_amount":      metricAmount,
	"amount":                 metricAmount,
	"settlement":             metricAmount,
	"average_price":          metricAveragePrice,
	"avg_price":              metricAveragePrice,
	"settlement_point_price": metricNodePrice,
	"spp":                    metricNodePrice,
	"node_price":             metricNodePrice,
	"lmp":                    metricNodePrice,
	"price":                  metricNodePrice,
	"hub_price":              metricHubPrice,
	"hub_spp":                metricHubPrice,
	"hub_lmp":                metricHubPrice,
}

func classifyMetric(name string) metricKind {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.NewReplacer(" ", "_", "-", "_").Replace(n)
	return metricAliases[n]
}

type recordKey struct {
	label   string
	instant int64
	point   string
}

type hubKey struct {
	label   string
	instant int64
}

// DecodeTimeSeries decodes and normalizes a raw time-series API body.
func DecodeTimeSeries(body []byte, provider string, loc *time.Location) ([]model.IntervalRecord, Stats) {
	var p model.TimeSeriesPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, Stats{PayloadError: "decode time-series payload: " + err.Error()}
	}
	return TimeSeries(&p, provider, loc)
}

// TimeSeries joins the metrics of each element into one record per
// (element, interval instant, settlement point). Hub price metrics are attached to every
// record of the same element and instant regardless of settlement point.
func TimeSeries(p *model.TimeSeriesPayload, provider string, loc *time.Location) ([]model.IntervalRecord, Stats) {
	var stats Stats
	if p == nil {
		stats.PayloadError = "nil time-series payload"
		return nil, stats
	}
	if loc == nil {
		loc = time.UTC
	}

	index := map[recordKey]int{}
	hubs := map[hubKey]float64{}
	var recs []model.IntervalRecord

	for _, el := range p.Elements {
		label := strings.TrimSpace(el.Name)
		if label == "" {
			stats.Dropped++
			continue
		}
		for _, m := range el.Metrics {
			kind := classifyMetric(m.Name)
			if kind == metricUnknown {
				continue
			}
			for _, iv := range m.Intervals {
				ts, err := ParseRawTime(iv.Interval, loc)
				if err != nil {
					stats.Dropped++
					continue
				}
				v, err := ParseRawFloat(iv.Value)
				if err != nil {
					stats.Dropped++
					continue
				}
				if kind == metricHubPrice {
					hubs[hubKey{label, ts.UnixNano()}] = v
					continue
				}
				point := el.SettlementPoint
				if iv.SettlementPoint != "" {
					point = iv.SettlementPoint
				}
				k := recordKey{label, ts.UnixNano(), point}
				i, ok := index[k]
				if !ok {
					i = len(recs)
					index[k] = i
					recs = append(recs, model.IntervalRecord{
						Provider:        provider,
						Label:           label,
						SettlementPoint: point,
						IntervalStart:   ts,
					})
				}
				applyMetric(&recs[i], kind, v)
			}
		}
	}

	for i := range recs {
		if h, ok := hubs[hubKey{recs[i].Label, recs[i].IntervalStart.UnixNano()}]; ok {
			recs[i].HubPrice = model.Float(h)
		}
	}
	return finalize(recs, &stats), stats
}

func applyMetric(r *model.IntervalRecord, kind metricKind, v float64) {
	switch kind {
	case metricVolume:
		r.VolumeMWh = v
	case metricAmount:
		r.SettlementAmount = model.Float(v)
	case metricAveragePrice:
		r.AveragePrice = model.Float(v)
	case metricNodePrice:
		r.NodePrice = v
		r.PriceSource = model.PriceReported
	}
}

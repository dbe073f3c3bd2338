// Package normalize converts provider payloads into canonical interval records.
//
// Every function here is total: malformed records are dropped and counted, a malformed
// payload yields no records and a Stats with PayloadError set. Callers treat that as
// "no new data this cycle".
package normalize

import (
	"sort"

	"renewables-pnl/internal/model"
)

// Stats counts what happened to a payload during normalization.
type Stats struct {
	Records int // records emitted
	Dropped int // malformed records
	Empty   int // records with neither volume nor settlement amount
	// Records whose price could not be derived because volume was zero.
	ZeroVolumeDerivations int
	Derived               int
	PayloadError          string
}

// Add merges o into s.
func (s *Stats) Add(o Stats) {
	s.Records += o.Records
	s.Dropped += o.Dropped
	s.Empty += o.Empty
	s.ZeroVolumeDerivations += o.ZeroVolumeDerivations
	s.Derived += o.Derived
	if s.PayloadError == "" {
		s.PayloadError = o.PayloadError
	}
}

// finalize resolves each record's node price, drops empty records and sorts the rest by
// interval start then label.
//
// Price precedence: reported settlement-point price, reported average price, then
// price = -amount / volume. The derivation assumes the provider reports amounts from the
// market operator's side (negative = paid to the asset).
func finalize(recs []model.IntervalRecord, stats *Stats) []model.IntervalRecord {
	out := recs[:0]
	for _, r := range recs {
		if r.Empty() {
			stats.Empty++
			continue
		}
		if r.PriceSource == "" {
			switch {
			case r.AveragePrice != nil:
				r.NodePrice = *r.AveragePrice
				r.PriceSource = model.PriceReported
			case r.SettlementAmount != nil && r.VolumeMWh != 0:
				r.NodePrice = -*r.SettlementAmount / r.VolumeMWh
				r.PriceSource = model.PriceDerived
				stats.Derived++
			case r.SettlementAmount != nil:
				stats.ZeroVolumeDerivations++
				r.PriceSource = model.PriceMissing
			default:
				r.PriceSource = model.PriceMissing
			}
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].IntervalStart.Equal(out[j].IntervalStart) {
			return out[i].IntervalStart.Before(out[j].IntervalStart)
		}
		return out[i].Label < out[j].Label
	})
	stats.Records = len(out)
	return out
}

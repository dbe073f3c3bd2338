package analysis

import (
	"math"
	"sort"
	"time"

	"renewables-pnl/internal/model"
)

// BasisProfile summarizes an asset's basis over a window of intervals.
type BasisProfile struct {
	Asset string `json:"asset"`

	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	Count int `json:"count"`

	MinBasis  float64 `json:"min_basis"`
	MaxBasis  float64 `json:"max_basis"`
	MeanBasis float64 `json:"mean_basis"`
	P05Basis  float64 `json:"p05_basis"`
	P95Basis  float64 `json:"p95_basis"`

	// NegativeShare is the fraction of intervals with basis below zero.
	NegativeShare float64 `json:"negative_share"`
	Latest        float64 `json:"latest_basis"`
	Status        string  `json:"status"`
}

func ComputeProfile(asset string, points []model.BasisPoint, t Thresholds) BasisProfile {
	p := BasisProfile{Asset: asset}
	if len(points) == 0 {
		return p
	}
	ordered := append([]model.BasisPoint(nil), points...)
	sortPoints(ordered)
	p.Count = len(ordered)
	p.Start = ordered[0].Time
	p.End = ordered[len(ordered)-1].Time
	p.Latest = ordered[len(ordered)-1].Basis
	p.Status = t.Status(p.Latest)

	sum := 0.0
	neg := 0
	minv := math.Inf(1)
	maxv := math.Inf(-1)
	vals := make([]float64, 0, len(ordered))
	for _, pt := range ordered {
		v := pt.Basis
		vals = append(vals, v)
		sum += v
		if v < 0 {
			neg++
		}
		if v < minv {
			minv = v
		}
		if v > maxv {
			maxv = v
		}
	}
	sort.Float64s(vals)
	p.MinBasis = minv
	p.MaxBasis = maxv
	p.MeanBasis = sum / float64(len(vals))
	p.P05Basis = percentileSorted(vals, 0.05)
	p.P95Basis = percentileSorted(vals, 0.95)
	p.NegativeShare = float64(neg) / float64(len(vals))
	return p
}

func percentileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	// Linear interpolation between order stats.
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func sortPoints(points []model.BasisPoint) {
	sort.Slice(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })
}

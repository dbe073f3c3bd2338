// Package pricing resolves the hub reference price of an interval from several candidate
// sources.
package pricing

import (
	"sort"
	"time"

	"renewables-pnl/internal/model"
)

// Feed is an immutable index over one hub's independent price series.
// Lookups are by absolute instant, so the feed's native timezone is irrelevant.
type Feed struct {
	points []model.PricePoint
	exact  map[int64]float64
}

// NewFeed indexes points. Later duplicates of the same instant win.
func NewFeed(points []model.PricePoint) *Feed {
	sorted := append([]model.PricePoint(nil), points...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Instant.Before(sorted[j].Instant) })
	f := &Feed{exact: make(map[int64]float64, len(sorted))}
	for _, p := range sorted {
		k := p.Instant.UnixNano()
		if _, dup := f.exact[k]; dup {
			f.points[len(f.points)-1] = p
		} else {
			f.points = append(f.points, p)
		}
		f.exact[k] = p.Price
	}
	return f
}

// Len returns the number of distinct instants.
func (f *Feed) Len() int {
	if f == nil {
		return 0
	}
	return len(f.points)
}

// Exact returns the price at exactly t.
func (f *Feed) Exact(t time.Time) (float64, bool) {
	if f == nil {
		return 0, false
	}
	v, ok := f.exact[t.UnixNano()]
	return v, ok
}

// NearestPrior returns the latest point strictly before t and no more than tolerance earlier.
func (f *Feed) NearestPrior(t time.Time, tolerance time.Duration) (model.PricePoint, bool) {
	if f == nil || len(f.points) == 0 || tolerance <= 0 {
		return model.PricePoint{}, false
	}
	i := sort.Search(len(f.points), func(i int) bool { return !f.points[i].Instant.Before(t) })
	if i == 0 {
		return model.PricePoint{}, false
	}
	p := f.points[i-1]
	if t.Sub(p.Instant) >= tolerance {
		return model.PricePoint{}, false
	}
	return p, true
}

// Latest returns the most recent point.
func (f *Feed) Latest() (model.PricePoint, bool) {
	if f == nil || len(f.points) == 0 {
		return model.PricePoint{}, false
	}
	return f.points[len(f.points)-1], true
}

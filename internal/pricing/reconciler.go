package pricing

import (
	"time"

	"renewables-pnl/internal/model"
)

// Resolution is the outcome of resolving one interval's hub price.
type Resolution struct {
	Price  *float64
	Source model.HubSource
}

// Reconciler resolves hub prices for one hub, in priority order:
//  1. a hub price embedded in the record's own payload
//  2. the independent feed at exactly the interval instant
//  3. the feed's nearest prior point within Tolerance
//  4. the last known price for the hub
//
// Returns a nil price when none of them yields one.
type Reconciler struct {
	Hub       string
	Feed      *Feed
	Last      *LastKnown
	Tolerance time.Duration
}

// NewReconciler builds a reconciler and seeds the last-known cache with the feed's latest point.
func NewReconciler(hub string, feed *Feed, last *LastKnown, tolerance time.Duration) *Reconciler {
	r := &Reconciler{Hub: hub, Feed: feed, Last: last, Tolerance: tolerance}
	if p, ok := feed.Latest(); ok {
		last.Observe(hub, p.Instant, p.Price)
	}
	return r
}

// Resolve returns the hub price for the interval starting at t.
func (r *Reconciler) Resolve(t time.Time, embedded *float64) Resolution {
	if embedded != nil {
		r.Last.Observe(r.Hub, t, *embedded)
		return Resolution{Price: model.Float(*embedded), Source: model.HubEmbedded}
	}
	if v, ok := r.Feed.Exact(t); ok {
		r.Last.Observe(r.Hub, t, v)
		return Resolution{Price: model.Float(v), Source: model.HubExact}
	}
	if p, ok := r.Feed.NearestPrior(t, r.Tolerance); ok {
		r.Last.Observe(r.Hub, p.Instant, p.Price)
		return Resolution{Price: model.Float(p.Price), Source: model.HubNearest}
	}
	if v, _, ok := r.Last.Get(r.Hub); ok {
		return Resolution{Price: model.Float(v), Source: model.HubCached}
	}
	return Resolution{Source: model.HubUnresolved}
}

// Set holds one reconciler per hub. Hubs without a feed still resolve embedded and cached
// prices.
type Set struct {
	last      *LastKnown
	tolerance time.Duration
	byHub     map[string]*Reconciler
}

func NewSet(last *LastKnown, tolerance time.Duration) *Set {
	return &Set{last: last, tolerance: tolerance, byHub: map[string]*Reconciler{}}
}

// AddFeed registers the independent feed for hub, replacing any previous one.
func (s *Set) AddFeed(hub string, feed *Feed) {
	s.byHub[hub] = NewReconciler(hub, feed, s.last, s.tolerance)
}

// AddPoints groups points by location and registers a feed per hub.
func (s *Set) AddPoints(points []model.PricePoint) {
	grouped := map[string][]model.PricePoint{}
	for _, p := range points {
		grouped[p.Location] = append(grouped[p.Location], p)
	}
	for hub, pts := range grouped {
		s.AddFeed(hub, NewFeed(pts))
	}
}

// Resolve returns the hub price for the interval starting at t.
func (s *Set) Resolve(hub string, t time.Time, embedded *float64) Resolution {
	r, ok := s.byHub[hub]
	if !ok {
		r = &Reconciler{Hub: hub, Last: s.last, Tolerance: s.tolerance}
		s.byHub[hub] = r
	}
	return r.Resolve(t, embedded)
}

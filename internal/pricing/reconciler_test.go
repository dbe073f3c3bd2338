package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"renewables-pnl/internal/model"
)

var central = mustLoc("America/Chicago")

func mustLoc(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func hubFeed() *Feed {
	// Feed is published in UTC; records arrive in market time.
	return NewFeed([]model.PricePoint{
		{Location: "HB_WEST", Instant: time.Date(2026, 1, 15, 16, 0, 0, 0, time.UTC), Price: 25},
		{Location: "HB_WEST", Instant: time.Date(2026, 1, 15, 16, 5, 0, 0, time.UTC), Price: 30},
		{Location: "HB_WEST", Instant: time.Date(2026, 1, 15, 16, 10, 0, 0, time.UTC), Price: 35},
	})
}

func TestResolve_EmbeddedWins(t *testing.T) {
	r := NewReconciler("HB_WEST", hubFeed(), NewLastKnown(time.Hour), time.Minute)
	at := time.Date(2026, 1, 15, 10, 5, 0, 0, central)

	res := r.Resolve(at, model.Float(99))

	require.NotNil(t, res.Price)
	assert.Equal(t, 99.0, *res.Price)
	assert.Equal(t, model.HubEmbedded, res.Source)
}

func TestResolve_ExactAcrossTimezones(t *testing.T) {
	r := NewReconciler("HB_WEST", hubFeed(), NewLastKnown(time.Hour), time.Minute)
	// 10:05 CST == 16:05 UTC
	at := time.Date(2026, 1, 15, 10, 5, 0, 0, central)

	res := r.Resolve(at, nil)

	require.NotNil(t, res.Price)
	assert.Equal(t, 30.0, *res.Price)
	assert.Equal(t, model.HubExact, res.Source)
}

func TestResolve_SameMinuteFallback(t *testing.T) {
	r := NewReconciler("HB_WEST", hubFeed(), NewLastKnown(time.Hour), time.Minute)
	at := time.Date(2026, 1, 15, 10, 5, 30, 0, central)

	res := r.Resolve(at, nil)

	require.NotNil(t, res.Price)
	assert.Equal(t, 30.0, *res.Price)
	assert.Equal(t, model.HubNearest, res.Source)
}

func TestResolve_CachedFallback(t *testing.T) {
	last := NewLastKnown(time.Hour)
	r := NewReconciler("HB_WEST", hubFeed(), last, time.Minute)
	// Two minutes past the last feed point: outside tolerance, no exact match.
	at := time.Date(2026, 1, 15, 10, 12, 0, 0, central)

	res := r.Resolve(at, nil)

	require.NotNil(t, res.Price)
	assert.Equal(t, 35.0, *res.Price)
	assert.Equal(t, model.HubCached, res.Source)
}

func TestResolve_CacheSurvivesEmptyFeed(t *testing.T) {
	last := NewLastKnown(time.Hour)
	last.Observe("HB_WEST", time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC), 21.5)

	r := NewReconciler("HB_WEST", NewFeed(nil), last, time.Minute)
	res := r.Resolve(time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), nil)

	require.NotNil(t, res.Price)
	assert.Equal(t, 21.5, *res.Price)
	assert.Equal(t, model.HubCached, res.Source)
}

func TestResolve_NothingAvailable(t *testing.T) {
	r := NewReconciler("HB_WEST", NewFeed(nil), NewLastKnown(time.Hour), time.Minute)

	res := r.Resolve(time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), nil)

	assert.Nil(t, res.Price)
	assert.Equal(t, model.HubUnresolved, res.Source)
}

func TestLastKnown_IgnoresOlderObservations(t *testing.T) {
	last := NewLastKnown(time.Hour)
	newer := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	last.Observe("HB_WEST", newer, 40)
	last.Observe("HB_WEST", newer.Add(-time.Hour), 10)

	v, at, ok := last.Get("HB_WEST")
	require.True(t, ok)
	assert.Equal(t, 40.0, v)
	assert.True(t, at.Equal(newer))
}

func TestFeed_DuplicateInstantLastWins(t *testing.T) {
	at := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	f := NewFeed([]model.PricePoint{{Instant: at, Price: 1}, {Instant: at, Price: 2}})

	v, ok := f.Exact(at)
	require.True(t, ok)
	assert.Equal(t, 2.0, v)
	assert.Equal(t, 1, f.Len())
}

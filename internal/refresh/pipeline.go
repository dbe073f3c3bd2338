// Package refresh runs one periodic fetch-and-settle loop per upstream source and hands the
// results to the backfill coordinator.
package refresh

import (
	"time"

	"renewables-pnl/internal/classify"
	"renewables-pnl/internal/model"
	"renewables-pnl/internal/normalize"
	"renewables-pnl/internal/pricing"
	"renewables-pnl/internal/settlement"
)

// Window is the time range a cycle fetches.
type Window struct {
	Start time.Time
	End   time.Time
}

// Collected is what a source produced for one window, already normalized.
type Collected struct {
	Records []model.IntervalRecord
	Prices  []model.PricePoint
	Stats   normalize.Stats
}

// Pipeline is the pure part of a cycle: classify, reconcile, settle.
type Pipeline struct {
	Classifier *classify.Classifier
	Engine     *settlement.Engine
	Last       *pricing.LastKnown
	Tolerance  time.Duration
}

func (p *Pipeline) Process(c Collected) (*settlement.Result, error) {
	recs := append([]model.IntervalRecord(nil), c.Records...)
	p.Classifier.Tag(recs)
	hubs := pricing.NewSet(p.Last, p.Tolerance)
	hubs.AddPoints(c.Prices)
	return p.Engine.Run(recs, hubs)
}

package backfill

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"renewables-pnl/internal/aggregate"
	"renewables-pnl/internal/analysis"
	"renewables-pnl/internal/logger"
	"renewables-pnl/internal/model"
	"renewables-pnl/internal/store"
)

// Update is what one refresh cycle of one source hands to the coordinator. Fetching and
// computing happen before the update is sent; only Apply touches the snapshot.
type Update struct {
	Source  string
	CycleID string
	Started time.Time

	// Status is model.StatusOK, StatusNoData or StatusError.
	Status  string
	Err     error
	Records int
	Dropped int

	Results []model.SettlementResult
}

// Coordinator is the single writer of the published snapshot.
type Coordinator struct {
	State  store.State
	Store  store.SnapshotStore
	Key    string
	Ledger store.Ledger

	// Lookup resolves asset definitions for bucketing, including UNKNOWN.
	Lookup aggregate.AssetLookup

	WorstAsset  *model.Asset
	MaxEntries  int
	Thresholds  analysis.Thresholds
	HistorySize int

	Now func() time.Time
	Log *slog.Logger
}

func (c *Coordinator) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Coordinator) log() *slog.Logger {
	if c.Log != nil {
		return c.Log
	}
	return logger.Component("backfill")
}

// Restore loads the persisted snapshot into State. A missing snapshot is not an error.
func (c *Coordinator) Restore(ctx context.Context) error {
	if c.Store == nil {
		return nil
	}
	snap, err := store.LoadSnapshot(ctx, c.Store, c.Key)
	if errors.Is(err, store.ErrNotFound) {
		c.log().Info("no persisted snapshot", "key", c.Key)
		return nil
	}
	if err != nil {
		return err
	}
	// Statuses describe the previous process.
	for name, s := range snap.Sources {
		s.Status = model.StatusInitializing
		snap.Sources[name] = s
	}
	c.State.Publish(snap)
	c.log().Info("restored snapshot", "key", c.Key, "assets", len(snap.Assets), "updated_at", snap.UpdatedAt)
	return nil
}

// Run applies updates until ctx is done or updates is closed.
func (c *Coordinator) Run(ctx context.Context, updates <-chan Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			c.Apply(ctx, u)
		}
	}
}

// Apply folds one update into a new snapshot, publishes it and persists it. A failed or empty
// update changes the source status only; previously published aggregates are kept.
func (c *Coordinator) Apply(ctx context.Context, u Update) *model.Snapshot {
	now := c.now()
	cur := c.State.Snapshot()
	next := cur.Clone()

	status := next.Sources[u.Source]
	status.Name = u.Source
	status.Status = u.Status
	status.CycleID = u.CycleID
	status.LastAttempt = u.Started
	status.Records = u.Records
	status.Dropped = u.Dropped
	status.Error = ""
	if u.Err != nil {
		status.Error = u.Err.Error()
	}
	if u.Status == model.StatusOK {
		status.LastSuccess = now
	}
	next.Sources[u.Source] = status

	log := c.log().With("source", u.Source, "cycle_id", u.CycleID)

	if u.Status == model.StatusOK && len(u.Results) > 0 {
		fresh := c.freshDays(next, u, now)
		next.Assets, next.Combined = MergeAll(cur.Assets, fresh, nil)
		c.updateDiagnostics(next, cur, u.Results, now)

		if c.Ledger != nil {
			if err := c.Ledger.Append(ctx, u.Results); err != nil {
				log.Error("ledger append failed", "error", err)
			}
		}
		log.Info("applied update", "results", len(u.Results), "assets", len(fresh))
	} else if u.Err != nil {
		log.Warn("refresh failed", "error", u.Err)
	}

	if c.WorstAsset != nil {
		next.WorstBasis = analysis.Current(next.WorstBasis, c.WorstAsset, now)
	}
	next.UpdatedAt = now
	c.publish(ctx, next)
	return next
}

// freshDays records the update in its source's layer and returns, for every asset and date it
// touched, the day summed over all sources.
func (c *Coordinator) freshDays(next *model.Snapshot, u Update, now time.Time) map[string]*model.AssetHistory {
	buckets := aggregate.Accumulate(u.Results, c.Lookup)
	layer := next.SourceDays[u.Source]
	touched := map[string][]string{}
	for _, asset := range buckets.AssetKeys() {
		if asset == model.AllAssets {
			continue
		}
		days := buckets.Daily(asset)
		layer = layer.With(asset, days)
		for day := range days {
			touched[asset] = append(touched[asset], day)
		}
	}
	next.SourceDays[u.Source] = layer

	fresh := make(map[string]*model.AssetHistory, len(touched))
	for asset, days := range touched {
		h := SumSources(next.SourceDays, asset, days)
		h.UpdatedAt = now
		fresh[asset] = h
	}
	return fresh
}

func (c *Coordinator) updateDiagnostics(next, cur *model.Snapshot, results []model.SettlementResult, now time.Time) {
	if c.WorstAsset != nil {
		fresh := analysis.WorstBasis{Asset: c.WorstAsset, MaxEntries: c.MaxEntries}.Build(results, now)
		next.WorstBasis = analysis.Merge(analysis.Current(cur.WorstBasis, c.WorstAsset, now), fresh, c.MaxEntries)
	}

	seen := map[string]bool{}
	for _, r := range results {
		seen[r.AssetKey] = true
	}
	for asset := range seen {
		next.Recent[asset] = analysis.RecentBasis(cur.Recent[asset], results, asset, c.Thresholds, c.HistorySize)
	}
}

// ApplyHistorical merges imported histories. Dates already present from the cache or a fresh
// fetch are left untouched.
func (c *Coordinator) ApplyHistorical(ctx context.Context, histories map[string]*model.AssetHistory) *model.Snapshot {
	cur := c.State.Snapshot()
	next := cur.Clone()
	next.Assets, next.Combined = MergeAll(cur.Assets, nil, histories)
	next.UpdatedAt = c.now()
	c.publish(ctx, next)
	c.log().Info("applied historical import", "assets", len(histories))
	return next
}

func (c *Coordinator) publish(ctx context.Context, snap *model.Snapshot) {
	c.State.Publish(snap)
	if c.Store == nil {
		return
	}
	if err := store.SaveSnapshot(ctx, c.Store, c.Key, snap); err != nil {
		c.log().Error("persist snapshot failed", "key", c.Key, "error", err)
	}
}

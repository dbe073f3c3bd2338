package refresh

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"renewables-pnl/internal/backfill"
	"renewables-pnl/internal/logger"
	"renewables-pnl/internal/model"
)

// ErrPayload marks a cycle whose payload could not be decoded.
var ErrPayload = errors.New("malformed payload")

// Task refreshes one source. At most one cycle of a task runs at a time.
type Task struct {
	Source   Source
	Pipeline *Pipeline
	Updates  chan<- backfill.Update

	Interval time.Duration
	Backoff  time.Duration
	Timeout  time.Duration
	Window   func(now time.Time) Window
	Now      func() time.Time

	running atomic.Bool
}

func (t *Task) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

func (t *Task) log() *slog.Logger {
	return logger.Component("refresh").With("source", t.Source.Name())
}

// Running reports whether a cycle is in flight.
func (t *Task) Running() bool {
	return t.running.Load()
}

// TryRun runs one cycle unless one is already in flight, in which case it returns false.
func (t *Task) TryRun(ctx context.Context) (bool, error) {
	if !t.running.CompareAndSwap(false, true) {
		t.log().Debug("cycle already running, skipped")
		return false, nil
	}
	defer t.running.Store(false)
	return true, t.cycle(ctx)
}

func (t *Task) cycle(ctx context.Context) error {
	cycleID := uuid.NewString()
	started := t.now()
	log := t.log().With("cycle_id", cycleID)

	u := backfill.Update{Source: t.Source.Name(), CycleID: cycleID, Started: started}

	win := Window{End: started}
	if t.Window != nil {
		win = t.Window(started)
	}

	fctx := ctx
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	log.Info("refresh started", "start", win.Start, "end", win.End)
	collected, err := t.Source.Collect(fctx, win)
	if err == nil && collected.Stats.PayloadError != "" {
		err = errors.Join(ErrPayload, errors.New(collected.Stats.PayloadError))
	}
	if err != nil {
		u.Status = model.StatusError
		u.Err = err
		t.send(ctx, u)
		return err
	}
	u.Records = collected.Stats.Records
	u.Dropped = collected.Stats.Dropped

	if len(collected.Records) == 0 {
		u.Status = model.StatusNoData
		log.Info("refresh returned no records")
		t.send(ctx, u)
		return nil
	}

	res, err := t.Pipeline.Process(collected)
	if err != nil {
		u.Status = model.StatusError
		u.Err = err
		t.send(ctx, u)
		return err
	}
	u.Status = model.StatusOK
	u.Results = res.Results
	log.Info("refresh settled",
		"records", len(res.Results),
		"dropped", collected.Stats.Dropped,
		"total_pnl", res.TotalPnL,
		"hub_sources", res.HubSources,
		"duration", t.now().Sub(started))
	t.send(ctx, u)
	return nil
}

func (t *Task) send(ctx context.Context, u backfill.Update) {
	if t.Updates == nil {
		return
	}
	select {
	case t.Updates <- u:
	case <-ctx.Done():
	}
}

// Loop runs cycles until ctx is done, waiting Interval after a successful cycle and Backoff
// after a failed one.
func (t *Task) Loop(ctx context.Context) error {
	for {
		_, err := t.TryRun(ctx)
		wait := t.Interval
		if err != nil {
			wait = t.Backoff
			t.log().Warn("refresh failed, backing off", "error", err, "backoff", wait)
		}
		if wait <= 0 {
			wait = time.Minute
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

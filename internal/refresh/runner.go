package refresh

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"renewables-pnl/internal/backfill"
	"renewables-pnl/internal/model"
)

// Runner owns the task loops and the single coordinator consuming their updates.
type Runner struct {
	Tasks       []*Task
	Coordinator *backfill.Coordinator
	Updates     chan backfill.Update

	mu   sync.Mutex
	base context.Context
}

// NewRunner wires every task to a shared update channel.
func NewRunner(c *backfill.Coordinator, tasks ...*Task) *Runner {
	updates := make(chan backfill.Update, len(tasks)+1)
	for _, t := range tasks {
		t.Updates = updates
	}
	return &Runner{Tasks: tasks, Coordinator: c, Updates: updates}
}

// Run blocks until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	r.mu.Lock()
	r.base = ctx
	r.mu.Unlock()

	for _, t := range r.Tasks {
		r.Coordinator.Apply(ctx, backfill.Update{Source: t.Source.Name(), Status: model.StatusInitializing})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r.Coordinator.Run(gctx, r.Updates)
		return nil
	})
	for _, t := range r.Tasks {
		t := t
		g.Go(func() error { return t.Loop(gctx) })
	}
	return g.Wait()
}

// Trigger starts a cycle on every idle task in the background and returns the names of the
// sources it started. Cycles are bound to the context Run was started with.
func (r *Runner) Trigger() []string {
	r.mu.Lock()
	ctx := r.base
	r.mu.Unlock()
	if ctx == nil {
		return nil
	}
	var started []string
	for _, t := range r.Tasks {
		if t.Running() {
			continue
		}
		started = append(started, t.Source.Name())
		go t.TryRun(ctx)
	}
	return started
}

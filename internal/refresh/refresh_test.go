package refresh

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"renewables-pnl/internal/backfill"
	"renewables-pnl/internal/classify"
	"renewables-pnl/internal/model"
	"renewables-pnl/internal/normalize"
	"renewables-pnl/internal/pricing"
	"renewables-pnl/internal/settlement"
	"renewables-pnl/internal/store"
)

var central, _ = time.LoadLocation("America/Chicago")

type fakeSource struct {
	name    string
	out     Collected
	err     error
	block   chan struct{}
	entered chan struct{}
	windows []Window
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Collect(ctx context.Context, w Window) (Collected, error) {
	f.windows = append(f.windows, w)
	if f.entered != nil {
		close(f.entered)
	}
	if f.block != nil {
		<-f.block
	}
	return f.out, f.err
}

func pipeline(t *testing.T) *Pipeline {
	t.Helper()
	a, err := model.NewAsset(model.Asset{
		Key: "BKII", Patterns: []string{"Bearkat Wind Energy II"}, Hub: "HB_WEST", Location: central,
		PPAPercent: 100, PPAPrice: 34, BasisExposurePercent: 50, Mode: model.ModeSplit,
	})
	require.NoError(t, err)
	e, err := settlement.New([]*model.Asset{a}, "HB_WEST")
	require.NoError(t, err)
	return &Pipeline{
		Classifier: classify.New([]*model.Asset{a}, []string{"-gen"}, nil),
		Engine:     e,
		Last:       pricing.NewLastKnown(time.Hour),
		Tolerance:  time.Minute,
	}
}

var at = time.Date(2026, 3, 9, 10, 0, 0, 0, central)

func collected() Collected {
	return Collected{
		Records: []model.IntervalRecord{
			{Label: "Bearkat Wind Energy II, LLC - Gen", IntervalStart: at, VolumeMWh: 10, NodePrice: 40},
			{Label: "McCrae Wind Energy II - Main", IntervalStart: at, VolumeMWh: 3, NodePrice: 40},
		},
		Prices: []model.PricePoint{{Location: "HB_WEST", Instant: at.UTC(), Price: 30}},
		Stats:  normalize.Stats{Records: 2, Dropped: 1},
	}
}

func TestPipeline_Process(t *testing.T) {
	res, err := pipeline(t).Process(collected())
	require.NoError(t, err)

	require.Len(t, res.Results, 2)
	assert.InDelta(t, 390, res.ByAsset["BKII"], 1e-9)
	assert.InDelta(t, 120, res.ByAsset[model.UnknownAsset], 1e-9)
	assert.Equal(t, 2, res.HubSources[model.HubExact])
}

func TestTask_SuccessSendsUpdate(t *testing.T) {
	updates := make(chan backfill.Update, 1)
	task := &Task{Source: &fakeSource{name: "tenaska", out: collected()}, Pipeline: pipeline(t), Updates: updates, Timeout: time.Second}

	ran, err := task.TryRun(context.Background())
	require.True(t, ran)
	require.NoError(t, err)

	u := <-updates
	assert.Equal(t, "tenaska", u.Source)
	assert.Equal(t, model.StatusOK, u.Status)
	assert.NotEmpty(t, u.CycleID)
	assert.Equal(t, 2, u.Records)
	assert.Equal(t, 1, u.Dropped)
	assert.Len(t, u.Results, 2)
}

func TestTask_FailureAndEmpty(t *testing.T) {
	updates := make(chan backfill.Update, 3)

	failing := &Task{Source: &fakeSource{name: "s", err: errors.New("timeout")}, Pipeline: pipeline(t), Updates: updates}
	_, err := failing.TryRun(context.Background())
	assert.Error(t, err)
	assert.Equal(t, model.StatusError, (<-updates).Status)

	malformed := &Task{Source: &fakeSource{name: "s", out: Collected{Stats: normalize.Stats{PayloadError: "unexpected EOF"}}}, Pipeline: pipeline(t), Updates: updates}
	_, err = malformed.TryRun(context.Background())
	assert.ErrorIs(t, err, ErrPayload)
	assert.Equal(t, model.StatusError, (<-updates).Status)

	empty := &Task{Source: &fakeSource{name: "s"}, Pipeline: pipeline(t), Updates: updates}
	_, err = empty.TryRun(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, model.StatusNoData, (<-updates).Status)
}

func TestTask_SkipsWhenRunning(t *testing.T) {
	src := &fakeSource{name: "s", out: collected(), block: make(chan struct{}), entered: make(chan struct{})}
	updates := make(chan backfill.Update, 1)
	task := &Task{Source: src, Pipeline: pipeline(t), Updates: updates}

	done := make(chan struct{})
	go func() {
		defer close(done)
		ran, err := task.TryRun(context.Background())
		assert.True(t, ran)
		assert.NoError(t, err)
	}()
	<-src.entered

	assert.True(t, task.Running())
	ran, err := task.TryRun(context.Background())
	assert.False(t, ran)
	assert.NoError(t, err)

	close(src.block)
	<-done
	assert.False(t, task.Running())
	assert.Len(t, src.windows, 1)
}

func TestTask_WindowIsPassedToSource(t *testing.T) {
	src := &fakeSource{name: "s"}
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, central)
	task := &Task{
		Source:   src,
		Pipeline: pipeline(t),
		Now:      func() time.Time { return now },
		Window:   WindowFunc(3, central, time.Time{}, nil),
	}

	_, err := task.TryRun(context.Background())
	require.NoError(t, err)

	require.Len(t, src.windows, 1)
	assert.True(t, src.windows[0].Start.Equal(time.Date(2026, 3, 8, 0, 0, 0, 0, central)))
	assert.True(t, src.windows[0].End.Equal(now))
}

func TestWindowFunc(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, central)
	backfillStart := time.Date(2025, 1, 1, 0, 0, 0, 0, central)
	hasData := false

	win := WindowFunc(1, central, backfillStart, func() bool { return hasData })

	assert.True(t, win(now).Start.Equal(backfillStart))
	hasData = true
	// lookback is clamped to two days
	assert.True(t, win(now).Start.Equal(time.Date(2026, 3, 9, 0, 0, 0, 0, central)))
}

func TestTask_LoopStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := &fakeSource{name: "s", entered: make(chan struct{})}
	task := &Task{Source: src, Pipeline: pipeline(t), Interval: time.Hour, Backoff: time.Hour}

	done := make(chan error)
	go func() { done <- task.Loop(ctx) }()
	<-src.entered
	cancel()

	assert.NoError(t, <-done)
}

func TestRunner_AppliesUpdates(t *testing.T) {
	state := store.NewMemoryState(nil)
	coord := &backfill.Coordinator{State: state, Now: func() time.Time { return at }}
	task := &Task{Source: &fakeSource{name: "tenaska", out: collected()}, Pipeline: pipeline(t), Interval: time.Hour, Backoff: time.Hour}
	r := NewRunner(coord, task)
	assert.Nil(t, r.Trigger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool {
		s := state.Snapshot().Sources["tenaska"]
		return s.Status == model.StatusOK
	}, 5*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	snap := state.Snapshot()
	assert.Contains(t, snap.Assets, "BKII")
	assert.InDelta(t, 390, snap.Combined.Totals().PnL, 1e-9)
}

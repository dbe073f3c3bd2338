package store

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"renewables-pnl/internal/config"
	"renewables-pnl/internal/model"
)

func sampleSnapshot() *model.Snapshot {
	snap := model.NewSnapshot()
	h := model.NewAssetHistory("BKII")
	h.Daily["2026-03-09"] = model.Aggregate{PnL: 12.5, VolumeMWh: 3, Count: 2, VolumeBasisProduct: -6}
	h.DayTiers["2026-03-09"] = model.TierFresh
	snap.Assets["BKII"] = h
	snap.WorstBasis = model.WorstBasisList{AssetKey: "BKII", Date: "2026-03-09"}
	snap.Sources["tenaska"] = model.SourceStatus{Name: "tenaska", Status: model.StatusOK}
	snap.UpdatedAt = time.Date(2026, 3, 10, 1, 0, 0, 0, time.UTC)
	return snap
}

func TestMemoryState_PublishSwaps(t *testing.T) {
	s := NewMemoryState(nil)
	require.NotNil(t, s.Snapshot())

	first := s.Snapshot()
	next := sampleSnapshot()
	s.Publish(next)
	s.Publish(nil)

	assert.Same(t, next, s.Snapshot())
	assert.Empty(t, first.Assets)
}

func TestMemoryState_ConcurrentReaders(t *testing.T) {
	s := NewMemoryState(nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = s.Snapshot().Assets
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Publish(sampleSnapshot())
			}
		}()
	}
	wg.Wait()
	assert.Contains(t, s.Snapshot().Assets, "BKII")
}

func testRoundTrip(t *testing.T, s SnapshotStore) {
	t.Helper()
	ctx := context.Background()

	_, err := LoadSnapshot(ctx, s, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, SaveSnapshot(ctx, s, "pnl_snapshot", sampleSnapshot()))
	got, err := LoadSnapshot(ctx, s, "pnl_snapshot")
	require.NoError(t, err)

	require.Contains(t, got.Assets, "BKII")
	assert.InDelta(t, 12.5, got.Assets["BKII"].Daily["2026-03-09"].PnL, 1e-9)
	assert.Equal(t, model.TierFresh, got.Assets["BKII"].DayTiers["2026-03-09"])
	assert.NotNil(t, got.Assets["BKII"].Monthly)
	assert.Equal(t, "2026-03-09", got.WorstBasis.Date)
	assert.Equal(t, model.StatusOK, got.Sources["tenaska"].Status)
	assert.True(t, got.UpdatedAt.Equal(sampleSnapshot().UpdatedAt))
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	testRoundTrip(t, s)
}

func TestFileStore_SanitizesKey(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.Save(context.Background(), "../escape/key", []byte(`{}`)))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ".._escape_key.json", entries[0].Name())
}

func TestMemoryStore(t *testing.T) {
	testRoundTrip(t, NewMemoryStore())
}

func TestDecodeSnapshot_FillsMissingMaps(t *testing.T) {
	snap, err := DecodeSnapshot([]byte(`{"assets":{"A":{"daily":{"2026-01-01":{"pnl":1}}},"B":null}}`))
	require.NoError(t, err)

	require.Contains(t, snap.Assets, "A")
	assert.NotContains(t, snap.Assets, "B")
	assert.Equal(t, "A", snap.Assets["A"].AssetKey)
	assert.NotNil(t, snap.Assets["A"].Annual)
	assert.NotNil(t, snap.Combined)
	assert.NotNil(t, snap.Sources)
	assert.NotNil(t, snap.SourceDays)

	_, err = DecodeSnapshot([]byte(`{`))
	assert.Error(t, err)
}

func TestMemoryLedger_ReplacesInterval(t *testing.T) {
	l := NewMemoryLedger()
	at := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	require.NoError(t, l.Append(ctx, []model.SettlementResult{{AssetKey: "A", IntervalStart: at, PnL: 1}}))
	require.NoError(t, l.Append(ctx, []model.SettlementResult{{AssetKey: "A", IntervalStart: at, PnL: 2}, {AssetKey: "A", IntervalStart: at.Add(time.Minute)}}))

	assert.Equal(t, 2, l.Len())
}

func TestOpen(t *testing.T) {
	s, closeFn, err := Open(context.Background(), config.StorageConfig{Kind: "file", Dir: t.TempDir()})
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &FileStore{}, s)

	s, _, err = Open(context.Background(), config.StorageConfig{Kind: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	_, _, err = Open(context.Background(), config.StorageConfig{Kind: "s3"})
	assert.Error(t, err)

	l, _, err := OpenLedger(context.Background(), config.StorageConfig{})
	require.NoError(t, err)
	assert.Nil(t, l)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	s := NewRedisStore(addr, "", 0)
	defer s.Close()
	testRoundTrip(t, s)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	s, err := NewPostgresStore(context.Background(), dsn)
	require.NoError(t, err)
	defer s.Close()
	testRoundTrip(t, s)
}

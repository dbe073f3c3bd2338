package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"renewables-pnl/internal/config"
	"renewables-pnl/internal/data"
	"renewables-pnl/internal/model"
	"renewables-pnl/internal/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	c := &config.Config{
		Assets: []config.AssetConfig{
			{Key: "BKII", Patterns: []string{"Bearkat Wind Energy II"}, Hub: "HB_WEST", PPAPercent: 100, PPAPrice: 25},
			{Key: "MCW", Patterns: []string{"McCrae Wind"}, Hub: "HB_NORTH", MerchantPercent: 100},
		},
		Sources: []config.SourceConfig{
			{Name: "tenaska", Kind: "timeseries", HubFeed: config.HubFeedConfig{Kind: "gridstatus", Location: "HB_WEST"}},
			{Name: "vendor", Kind: "vendor", Asset: "BKII"},
		},
		Storage: config.StorageConfig{Kind: "memory"},
	}
	c.WorstBasis.Asset = "MCW"
	c.ApplyDefaults()
	require.NoError(t, c.Validate())
	return c
}

func TestNew(t *testing.T) {
	svc, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer svc.Close()

	assert.Len(t, svc.Assets, 2)
	assert.Equal(t, "MCW", svc.WorstAsset().Key)
	assert.Equal(t, -100.0, svc.Thresholds().AlertBelow)
	assert.IsType(t, &store.MemoryStore{}, svc.Store)

	unknown, ok := svc.Coordinator.Lookup(model.UnknownAsset)
	require.True(t, ok)
	assert.Equal(t, "HB_WEST", unknown.Hub)

	tasks, err := svc.Tasks()
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "tenaska", tasks[0].Source.Name())
	assert.Equal(t, svc.Config.RefreshInterval.Std(), tasks[0].Interval)
	assert.NotNil(t, tasks[1].Window)
}

func TestImportHistoricalJSON(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(t.TempDir(), "history.json")
	h := model.NewAssetHistory("BKII")
	h.Daily["2024-06-01"] = model.Aggregate{PnL: 12, VolumeMWh: 3, Count: 1}
	require.NoError(t, data.SaveHistoryJSON(path, "test", map[string]*model.AssetHistory{"BKII": h}))
	cfg.Historical = []config.HistoricalImport{{Asset: "BKII", Path: path}}

	svc, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer svc.Close()

	require.NoError(t, svc.ImportHistorical(context.Background()))
	require.NoError(t, svc.ImportHistorical(context.Background()))

	snap := svc.State.Snapshot()
	assert.InDelta(t, 12, snap.Assets["BKII"].Annual["2024"].PnL, 1e-9)
	assert.InDelta(t, 12, snap.Combined.Totals().PnL, 1e-9)

	persisted, err := store.LoadSnapshot(context.Background(), svc.Store, cfg.Storage.Key)
	require.NoError(t, err)
	assert.Equal(t, model.TierHistorical, persisted.Assets["BKII"].DayTiers["2024-06-01"])
}

func TestLoadHistorical_UnsupportedType(t *testing.T) {
	_, err := LoadHistorical(config.HistoricalImport{Asset: "BKII", Path: "report.csv"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported historical file type")
}

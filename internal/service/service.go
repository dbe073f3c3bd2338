// Package service assembles the settlement engine, the snapshot coordinator and the refresh
// tasks from configuration.
package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"renewables-pnl/internal/analysis"
	"renewables-pnl/internal/backfill"
	"renewables-pnl/internal/classify"
	"renewables-pnl/internal/config"
	"renewables-pnl/internal/data"
	"renewables-pnl/internal/logger"
	"renewables-pnl/internal/model"
	"renewables-pnl/internal/pricing"
	"renewables-pnl/internal/refresh"
	"renewables-pnl/internal/settlement"
	"renewables-pnl/internal/store"
)

// Service is the wired-up process state shared by the API server and the CLI.
type Service struct {
	Config      *config.Config
	Assets      []*model.Asset
	Classifier  *classify.Classifier
	Engine      *settlement.Engine
	LastKnown   *pricing.LastKnown
	State       *store.MemoryState
	Store       store.SnapshotStore
	Coordinator *backfill.Coordinator
	Cache       *data.ResponseCache

	closers []func()
}

// New opens storage and builds the pipeline. Close releases what it opened.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	assets, err := cfg.ModelAssets()
	if err != nil {
		return nil, err
	}
	engine, err := settlement.New(assets, cfg.UnknownHub)
	if err != nil {
		return nil, err
	}

	s := &Service{
		Config:     cfg,
		Assets:     assets,
		Classifier: classify.New(assets, cfg.Classifier.GenSuffixes, cfg.Classifier.GenMarkers),
		Engine:     engine,
		LastKnown:  pricing.NewLastKnown(cfg.Pricing.CacheTTL.Std()),
		State:      store.NewMemoryState(nil),
		Cache:      data.NewResponseCache(cfg.Pricing.ResponseTTL.Std()),
	}

	snapStore, closeStore, err := store.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	s.closers = append(s.closers, closeStore)
	s.Store = snapStore

	ledger, closeLedger, err := store.OpenLedger(ctx, cfg.Storage)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("open settlement ledger: %w", err)
	}
	s.closers = append(s.closers, closeLedger)

	s.Coordinator = &backfill.Coordinator{
		State:       s.State,
		Store:       snapStore,
		Key:         cfg.Storage.Key,
		Ledger:      ledger,
		Lookup:      engine.Asset,
		WorstAsset:  s.WorstAsset(),
		MaxEntries:  cfg.WorstBasis.MaxEntries,
		Thresholds:  s.Thresholds(),
		HistorySize: cfg.Alerts.HistorySize,
	}
	return s, nil
}

// Close releases storage connections in reverse order.
func (s *Service) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// WorstAsset is the asset the worst-basis list tracks: the configured one, else the first.
func (s *Service) WorstAsset() *model.Asset {
	if key := s.Config.WorstBasis.Asset; key != "" {
		if a, ok := s.Engine.Asset(key); ok {
			return a
		}
	}
	if len(s.Assets) == 0 {
		return nil
	}
	return s.Assets[0]
}

func (s *Service) Thresholds() analysis.Thresholds {
	return analysis.Thresholds{
		CautionBelow: s.Config.Alerts.CautionBelow,
		AlertBelow:   s.Config.Alerts.AlertBelow,
	}
}

// Pipeline returns the pure classify-reconcile-settle step.
func (s *Service) Pipeline() *refresh.Pipeline {
	return &refresh.Pipeline{
		Classifier: s.Classifier,
		Engine:     s.Engine,
		Last:       s.LastKnown,
		Tolerance:  s.Config.Pricing.NearestTolerance.Std(),
	}
}

// Tasks builds one refresh task per configured source.
func (s *Service) Tasks() ([]*refresh.Task, error) {
	cfg := s.Config
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}
	backfillStart := cfg.BackfillStartTime(loc)
	pipeline := s.Pipeline()

	tasks := make([]*refresh.Task, 0, len(cfg.Sources))
	for _, sc := range cfg.Sources {
		src, err := refresh.NewSource(cfg, sc, s.Cache)
		if err != nil {
			return nil, err
		}
		name := sc.Name
		hasData := func() bool {
			st, ok := s.State.Snapshot().Sources[name]
			return ok && !st.LastSuccess.IsZero()
		}
		tasks = append(tasks, &refresh.Task{
			Source:   src,
			Pipeline: pipeline,
			Interval: sc.Interval.Std(),
			Backoff:  sc.Backoff.Std(),
			Timeout:  cfg.RequestTimeout.Std(),
			Window:   refresh.WindowFunc(cfg.LookbackDays, loc, backfillStart, hasData),
		})
	}
	return tasks, nil
}

// ImportHistorical loads every configured historical file and merges it as the gap-filling
// tier. Excel workbooks and exported JSON histories are both accepted.
func (s *Service) ImportHistorical(ctx context.Context) error {
	log := logger.Component("service")
	for _, h := range s.Config.Historical {
		histories, err := LoadHistorical(h)
		if err != nil {
			return fmt.Errorf("historical import %s: %w", h.Path, err)
		}
		s.Coordinator.ApplyHistorical(ctx, histories)
		log.Info("historical import merged", "asset", h.Asset, "path", h.Path, "assets", len(histories))
	}
	return nil
}

// LoadHistorical reads one historical import by file extension.
func LoadHistorical(h config.HistoricalImport) (map[string]*model.AssetHistory, error) {
	switch strings.ToLower(filepath.Ext(h.Path)) {
	case ".json":
		return data.LoadHistoryJSON(h.Path)
	case ".xlsx", ".xlsm":
		histories, stats, err := data.LoadWindReport(data.WindReport{Path: h.Path, Asset: h.Asset, PPAPrice: h.PPAPrice})
		if err != nil {
			return nil, err
		}
		logger.Component("service").Info("wind report parsed",
			"path", h.Path, "days", stats.Days, "five_min_rows", stats.FiveMinRows, "skipped", stats.Skipped)
		return histories, nil
	default:
		return nil, fmt.Errorf("unsupported historical file type %q", filepath.Ext(h.Path))
	}
}

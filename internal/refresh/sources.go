package refresh

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"renewables-pnl/internal/config"
	"renewables-pnl/internal/data"
	"renewables-pnl/internal/logger"
	"renewables-pnl/internal/model"
	"renewables-pnl/internal/normalize"
)

// Source fetches and normalizes one upstream for a window.
type Source interface {
	Name() string
	Collect(ctx context.Context, w Window) (Collected, error)
}

// HubFeed fetches an independent hub price series.
type HubFeed interface {
	Prices(ctx context.Context, w Window) ([]model.PricePoint, error)
}

type gridStatusFeed struct {
	client   *data.GridStatusClient
	dataset  string
	location string
}

func (f gridStatusFeed) Prices(ctx context.Context, w Window) ([]model.PricePoint, error) {
	resp, err := f.client.QueryLocation(ctx, data.QueryLocationParams{
		DatasetID:  f.dataset,
		LocationID: f.location,
		StartTime:  w.Start,
		EndTime:    w.End,
	})
	if err != nil {
		return nil, err
	}
	return normalize.GridStatusPrices(resp, f.location), nil
}

type gridOperatorFeed struct {
	client   *data.GridOperatorClient
	pnodeID  int64
	location string
}

func (f gridOperatorFeed) Prices(ctx context.Context, w Window) ([]model.PricePoint, error) {
	rows, err := f.client.RealTimeLMP(ctx, f.pnodeID, w.Start, w.End)
	if err != nil {
		return nil, err
	}
	pts, _ := normalize.GridOperatorPrices(rows, f.pnodeID, f.location)
	return pts, nil
}

// collectWith runs the record fetch and the hub fetch concurrently. A failed hub fetch is
// logged and leaves reconciliation to embedded and cached prices.
func collectWith(ctx context.Context, name string, w Window, hub HubFeed, records func(context.Context) ([]model.IntervalRecord, normalize.Stats, error)) (Collected, error) {
	var out Collected
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		out.Records, out.Stats, err = records(gctx)
		return err
	})
	if hub != nil {
		g.Go(func() error {
			pts, err := hub.Prices(gctx, w)
			if err != nil {
				logger.Component("refresh").Warn("hub feed failed", "source", name, "error", err)
				return nil
			}
			out.Prices = pts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Collected{}, err
	}
	return out, nil
}

// TimeSeriesSource reads the element/metric time-series API.
type TimeSeriesSource struct {
	name     string
	client   *data.TimeSeriesClient
	elements []string
	metrics  []string
	loc      *time.Location
	hub      HubFeed
}

func (s *TimeSeriesSource) Name() string { return s.name }

func (s *TimeSeriesSource) Collect(ctx context.Context, w Window) (Collected, error) {
	return collectWith(ctx, s.name, w, s.hub, func(ctx context.Context) ([]model.IntervalRecord, normalize.Stats, error) {
		body, err := s.client.Fetch(ctx, data.TimeSeriesQuery{Elements: s.elements, Metrics: s.metrics, Start: w.Start, End: w.End})
		if err != nil {
			return nil, normalize.Stats{}, err
		}
		recs, stats := normalize.DecodeTimeSeries(body, s.name, s.loc)
		return recs, stats, nil
	})
}

// VendorSource reads the asset-management vendor API for one asset.
type VendorSource struct {
	name   string
	client *data.VendorClient
	query  data.VendorQuery
	loc    *time.Location
	hub    HubFeed
}

func (s *VendorSource) Name() string { return s.name }

func (s *VendorSource) Collect(ctx context.Context, w Window) (Collected, error) {
	return collectWith(ctx, s.name, w, s.hub, func(ctx context.Context) ([]model.IntervalRecord, normalize.Stats, error) {
		q := s.query
		q.Start, q.End = w.Start, w.End
		batch, err := s.client.Batch(ctx, q)
		if err != nil {
			return nil, normalize.Stats{}, err
		}
		recs, stats := normalize.Vendor(batch, s.name, s.loc)
		return recs, stats, nil
	})
}

// NewSource builds the source described by sc. cache is shared by every Grid Status feed.
func NewSource(cfg *config.Config, sc config.SourceConfig, cache *data.ResponseCache) (Source, error) {
	tz := sc.Market
	if tz == "" {
		tz = cfg.Timezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("source %s: invalid market timezone %q: %w", sc.Name, tz, err)
	}
	opts := data.ClientOptions{BaseURL: sc.BaseURL, Timeout: cfg.RequestTimeout.Std()}

	hub, err := newHubFeed(cfg, sc.HubFeed, cache)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", sc.Name, err)
	}

	switch sc.Kind {
	case "timeseries":
		return &TimeSeriesSource{
			name:     sc.Name,
			client:   data.NewTimeSeriesClient(config.Secret(sc.TokenEnv), opts),
			elements: sc.Elements,
			metrics:  sc.Metrics,
			loc:      loc,
			hub:      hub,
		}, nil
	case "vendor":
		label := sc.Label
		if label == "" {
			label = sc.Asset + " - Gen"
		}
		return &VendorSource{
			name:   sc.Name,
			client: data.NewVendorClient(config.Secret(sc.TokenEnv), opts),
			query: data.VendorQuery{
				Asset:           sc.Asset,
				Label:           label,
				SettlementPoint: sc.SettlementPoint,
				PreferHourly:    sc.PreferHourly,
			},
			loc: loc,
			hub: hub,
		}, nil
	default:
		return nil, fmt.Errorf("source %s: unknown kind %q", sc.Name, sc.Kind)
	}
}

func newHubFeed(cfg *config.Config, hc config.HubFeedConfig, cache *data.ResponseCache) (HubFeed, error) {
	opts := data.ClientOptions{BaseURL: hc.BaseURL, Timeout: cfg.RequestTimeout.Std(), RequestsPerSecond: 1}
	switch hc.Kind {
	case "":
		return nil, nil
	case "gridstatus":
		c := data.NewGridStatusClient(config.Secret(hc.KeyEnv), opts)
		c.Cache = cache
		return gridStatusFeed{client: c, dataset: hc.Dataset, location: hc.Location}, nil
	case "gridoperator":
		c := data.NewGridOperatorClient(config.Secret(hc.KeyEnv), hc.Dataset, opts)
		return gridOperatorFeed{client: c, pnodeID: hc.PnodeID, location: hc.Location}, nil
	default:
		return nil, fmt.Errorf("unknown hub feed kind %q", hc.Kind)
	}
}

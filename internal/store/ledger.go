package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"renewables-pnl/internal/model"
)

// Ledger archives per-interval settlement results.
type Ledger interface {
	Append(ctx context.Context, results []model.SettlementResult) error
}

// MemoryLedger keeps results in memory; re-appending an interval replaces it.
type MemoryLedger struct {
	mu   sync.Mutex
	rows map[string]model.SettlementResult
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{rows: map[string]model.SettlementResult{}}
}

func (m *MemoryLedger) Append(_ context.Context, results []model.SettlementResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range results {
		m.rows[fmt.Sprintf("%s|%s|%d", r.AssetKey, r.SettlementPoint, r.IntervalStart.UnixNano())] = r
	}
	return nil
}

func (m *MemoryLedger) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type ClickHouseConfig struct {
	Addr     string
	Username string
	Password string
	Timeout  int
}

// ClickHouseLedger archives results into a ReplacingMergeTree keyed by asset, point and
// interval, so refetched intervals collapse to the latest version.
type ClickHouseLedger struct {
	conn driver.Conn
}

func NewClickHouseLedger(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseLedger, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10
	}
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: "default",
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout: time.Duration(cfg.Timeout) * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	if err := conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS settlement_ledger (
			asset String,
			settlement_point String,
			interval_start DateTime64(3, 'UTC'),
			volume_mwh Float64,
			node_price Float64,
			hub_price Nullable(Float64),
			hub_source LowCardinality(String),
			basis Float64,
			merchant_pnl Float64,
			ppa_pnl Float64,
			market_revenue Float64,
			fixed_payment Float64,
			floating_payment Float64,
			pnl Float64,
			inserted_at DateTime DEFAULT now()
		) ENGINE = ReplacingMergeTree(inserted_at)
		ORDER BY (asset, settlement_point, interval_start)
	`); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &ClickHouseLedger{conn: conn}, nil
}

var _ Ledger = (*ClickHouseLedger)(nil)

func (c *ClickHouseLedger) Append(ctx context.Context, results []model.SettlementResult) error {
	if len(results) == 0 {
		return nil
	}
	batch, err := c.conn.PrepareBatch(ctx, "INSERT INTO settlement_ledger (asset, settlement_point, interval_start, volume_mwh, node_price, hub_price, hub_source, basis, merchant_pnl, ppa_pnl, market_revenue, fixed_payment, floating_payment, pnl)")
	if err != nil {
		return fmt.Errorf("prepare ledger batch: %w", err)
	}
	for _, r := range results {
		if err := batch.Append(
			r.AssetKey,
			r.SettlementPoint,
			r.IntervalStart.UTC(),
			r.VolumeMWh,
			r.NodePrice,
			r.HubPrice,
			string(r.HubSource),
			r.Basis,
			r.MerchantPnL,
			r.PPAPnL,
			r.MarketRevenue,
			r.FixedPayment,
			r.FloatingPayment,
			r.PnL,
		); err != nil {
			return fmt.Errorf("append ledger row: %w", err)
		}
	}
	return batch.Send()
}

func (c *ClickHouseLedger) Close() error {
	return c.conn.Close()
}

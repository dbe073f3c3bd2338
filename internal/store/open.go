package store

import (
	"context"
	"fmt"

	"renewables-pnl/internal/config"
)

// Open builds the snapshot store selected by cfg.Kind. The returned close func is never nil.
func Open(ctx context.Context, cfg config.StorageConfig) (SnapshotStore, func(), error) {
	switch cfg.Kind {
	case "", "file":
		s, err := NewFileStore(cfg.Dir)
		if err != nil {
			return nil, func() {}, err
		}
		return s, func() {}, nil
	case "memory":
		return NewMemoryStore(), func() {}, nil
	case "redis":
		s := NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := s.Ping(ctx); err != nil {
			s.Close()
			return nil, func() {}, fmt.Errorf("ping redis: %w", err)
		}
		return s, func() { s.Close() }, nil
	case "postgres":
		s, err := NewPostgresStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, func() {}, err
		}
		return s, s.Close, nil
	default:
		return nil, func() {}, fmt.Errorf("unknown storage kind %q", cfg.Kind)
	}
}

// OpenLedger returns the ClickHouse archive when configured, otherwise nil.
func OpenLedger(ctx context.Context, cfg config.StorageConfig) (Ledger, func(), error) {
	if cfg.ClickHouseAddr == "" {
		return nil, func() {}, nil
	}
	l, err := NewClickHouseLedger(ctx, ClickHouseConfig{
		Addr:     cfg.ClickHouseAddr,
		Username: cfg.ClickHouseUsername,
		Password: cfg.ClickHousePassword,
	})
	if err != nil {
		return nil, func() {}, err
	}
	return l, func() { l.Close() }, nil
}

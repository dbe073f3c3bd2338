package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"renewables-pnl/internal/model"
)

// ErrNotFound is returned by Load when nothing has been saved under the key.
var ErrNotFound = errors.New("snapshot not found")

// SnapshotStore persists opaque snapshot payloads by key.
type SnapshotStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// LoadSnapshot reads and decodes the snapshot under key. Missing keys yield ErrNotFound.
func LoadSnapshot(ctx context.Context, s SnapshotStore, key string) (*model.Snapshot, error) {
	raw, err := s.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	return DecodeSnapshot(raw)
}

// SaveSnapshot encodes and writes snap under key.
func SaveSnapshot(ctx context.Context, s SnapshotStore, key string, snap *model.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return s.Save(ctx, key, raw)
}

// DecodeSnapshot parses a persisted snapshot and fills any missing maps.
func DecodeSnapshot(raw []byte) (*model.Snapshot, error) {
	snap := model.NewSnapshot()
	if err := json.Unmarshal(raw, snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Assets == nil {
		snap.Assets = map[string]*model.AssetHistory{}
	}
	for key, h := range snap.Assets {
		if h == nil {
			delete(snap.Assets, key)
			continue
		}
		fillHistory(h, key)
	}
	if snap.Combined == nil {
		snap.Combined = model.NewAssetHistory(model.AllAssets)
	}
	fillHistory(snap.Combined, model.AllAssets)
	if snap.Recent == nil {
		snap.Recent = map[string][]model.BasisPoint{}
	}
	if snap.Sources == nil {
		snap.Sources = map[string]model.SourceStatus{}
	}
	if snap.SourceDays == nil {
		snap.SourceDays = map[string]model.SourceDays{}
	}
	return snap, nil
}

func fillHistory(h *model.AssetHistory, key string) {
	if h.AssetKey == "" {
		h.AssetKey = key
	}
	if h.Daily == nil {
		h.Daily = map[string]model.Aggregate{}
	}
	if h.Monthly == nil {
		h.Monthly = map[string]model.Aggregate{}
	}
	if h.Annual == nil {
		h.Annual = map[string]model.Aggregate{}
	}
	if h.DayTiers == nil {
		h.DayTiers = map[string]model.Tier{}
	}
}

package data

import (
	"encoding/json"
	"fmt"
	"os"

	"renewables-pnl/internal/aggregate"
	"renewables-pnl/internal/model"
)

func LoadGridStatusJSON(path string) (*model.GridStatusLMPResponse, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var resp model.GridStatusLMPResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LoadVendorBatchJSON reads a saved vendor batch, as written by a vendor fetch dump.
func LoadVendorBatchJSON(path string) (model.VendorBatch, error) {
	var b model.VendorBatch
	raw, err := os.ReadFile(path)
	if err != nil {
		return b, err
	}
	if err := json.Unmarshal(raw, &b); err != nil {
		return b, fmt.Errorf("parse vendor batch %s: %w", path, err)
	}
	return b, nil
}

// HistoryFile is the exported form of one or more asset histories.
type HistoryFile struct {
	Source string                         `json:"source,omitempty"`
	Assets map[string]*model.AssetHistory `json:"assets"`
}

// LoadHistoryJSON reads an exported history. Monthly and annual buckets in the file are
// ignored and rebuilt from the daily buckets.
func LoadHistoryJSON(path string) (map[string]*model.AssetHistory, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f HistoryFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse history %s: %w", path, err)
	}
	out := make(map[string]*model.AssetHistory, len(f.Assets))
	for key, h := range f.Assets {
		if h == nil || key == model.AllAssets {
			continue
		}
		clean := model.NewAssetHistory(key)
		for day, agg := range h.Daily {
			clean.Daily[day] = agg
		}
		clean.Monthly, clean.Annual = aggregate.Rollup(clean.Daily)
		clean.UpdatedAt = h.UpdatedAt
		out[key] = clean
	}
	return out, nil
}

func SaveHistoryJSON(path, source string, histories map[string]*model.AssetHistory) error {
	raw, err := json.MarshalIndent(HistoryFile{Source: source, Assets: histories}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

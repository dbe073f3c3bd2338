package model

import "time"

// Tier identifies which data tier last supplied a daily bucket.
type Tier string

const (
	TierCache      Tier = "cache"
	TierFresh      Tier = "api"
	TierHistorical Tier = "historical"
)

// AssetHistory is the merged daily history of one asset plus its rollups.
// Monthly and Annual are always derived from Daily.
type AssetHistory struct {
	AssetKey  string               `json:"asset"`
	Daily     map[string]Aggregate `json:"daily"`
	Monthly   map[string]Aggregate `json:"monthly"`
	Annual    map[string]Aggregate `json:"annual"`
	DayTiers  map[string]Tier      `json:"day_tiers,omitempty"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// NewAssetHistory returns an empty history for key.
func NewAssetHistory(key string) *AssetHistory {
	return &AssetHistory{
		AssetKey: key,
		Daily:    map[string]Aggregate{},
		Monthly:  map[string]Aggregate{},
		Annual:   map[string]Aggregate{},
		DayTiers: map[string]Tier{},
	}
}

// Totals sums every daily bucket.
func (h *AssetHistory) Totals() Aggregate {
	var out Aggregate
	if h == nil {
		return out
	}
	for _, d := range h.Daily {
		out.Merge(d)
	}
	return out
}

// BasisPoint is one interval of the recent basis trend.
type BasisPoint struct {
	Time      time.Time `json:"time"`
	NodePrice float64   `json:"node_price"`
	HubPrice  *float64  `json:"hub_price"`
	Basis     float64   `json:"basis"`
	Status    string    `json:"status"`
}

// WorstBasisList is the published exclusion-candidate ranking for one asset and one day.
type WorstBasisList struct {
	AssetKey string            `json:"asset"`
	Date     string            `json:"date"`
	Entries  []WorstBasisEntry `json:"entries"`
}

// Source status values.
const (
	StatusInitializing = "initializing"
	StatusOK           = "ok"
	StatusNoData       = "no_data"
	StatusError        = "error"
)

// SourceStatus reports the outcome of a source's most recent refresh.
type SourceStatus struct {
	Name        string    `json:"name"`
	Status      string    `json:"status"`
	CycleID     string    `json:"cycle_id,omitempty"`
	LastAttempt time.Time `json:"last_attempt"`
	LastSuccess time.Time `json:"last_success,omitempty"`
	Records     int       `json:"records"`
	Dropped     int       `json:"dropped"`
	Error       string    `json:"error,omitempty"`
}

// SourceDays holds the daily buckets one source has reported, keyed by asset then date.
type SourceDays map[string]map[string]Aggregate

// With returns a copy of d in which asset's days are replaced, date by date, by days.
func (d SourceDays) With(asset string, days map[string]Aggregate) SourceDays {
	out := make(SourceDays, len(d)+1)
	for k, v := range d {
		out[k] = v
	}
	merged := make(map[string]Aggregate, len(d[asset])+len(days))
	for day, agg := range d[asset] {
		merged[day] = agg
	}
	for day, agg := range days {
		merged[day] = agg
	}
	out[asset] = merged
	return out
}

// Snapshot is the complete published state. It is never mutated after publication;
// refreshes build a new one and swap it in.
type Snapshot struct {
	Assets     map[string]*AssetHistory `json:"assets"`
	Combined   *AssetHistory            `json:"combined"`
	WorstBasis WorstBasisList           `json:"worst_basis"`
	Recent     map[string][]BasisPoint  `json:"recent,omitempty"`
	Sources    map[string]SourceStatus  `json:"sources"`
	// SourceDays keeps each source's own days so that one source's refresh never replaces
	// another's contribution to the same asset and date.
	SourceDays map[string]SourceDays `json:"source_days,omitempty"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Assets:     map[string]*AssetHistory{},
		Combined:   NewAssetHistory(AllAssets),
		Recent:     map[string][]BasisPoint{},
		Sources:    map[string]SourceStatus{},
		SourceDays: map[string]SourceDays{},
	}
}

// Clone returns a copy whose maps can be modified without affecting s.
// AssetHistory and SourceDays values are shared; callers replace them rather than mutate.
func (s *Snapshot) Clone() *Snapshot {
	out := NewSnapshot()
	if s == nil {
		return out
	}
	for k, v := range s.Assets {
		out.Assets[k] = v
	}
	if s.Combined != nil {
		out.Combined = s.Combined
	}
	out.WorstBasis = s.WorstBasis
	for k, v := range s.Recent {
		out.Recent[k] = v
	}
	for k, v := range s.Sources {
		out.Sources[k] = v
	}
	for k, v := range s.SourceDays {
		out.SourceDays[k] = v
	}
	out.UpdatedAt = s.UpdatedAt
	return out
}

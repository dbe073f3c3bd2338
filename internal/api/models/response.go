package models

import (
	"time"

	"renewables-pnl/internal/aggregate"
	"renewables-pnl/internal/analysis"
	"renewables-pnl/internal/model"
)

// HealthResponse reports liveness plus the age of the published snapshot.
type HealthResponse struct {
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AssetInfo describes one configured asset.
type AssetInfo struct {
	Key                  string  `json:"key"`
	Name                 string  `json:"name"`
	SettlementPoint      string  `json:"settlement_point"`
	Hub                  string  `json:"hub"`
	Timezone             string  `json:"timezone"`
	SettlementMode       string  `json:"settlement_mode"`
	MerchantPercent      float64 `json:"merchant_percent"`
	PPAPercent           float64 `json:"ppa_percent"`
	PPAPrice             float64 `json:"ppa_price"`
	BasisExposurePercent float64 `json:"basis_exposure_percent"`
	CapacityMW           float64 `json:"capacity_mw,omitempty"`
}

// AssetsResponse lists configured assets.
type AssetsResponse struct {
	Assets []AssetInfo `json:"assets"`
}

// AssetSummary is one row of the portfolio overview.
type AssetSummary struct {
	Asset string               `json:"asset"`
	Name  string               `json:"name,omitempty"`
	Total aggregate.PeriodView `json:"total"`
	// LatestBasis is the most recent interval's basis status, when one is known.
	LatestBasis *model.BasisPoint `json:"latest_basis,omitempty"`
}

// PortfolioResponse is the combined PnL plus a per-asset breakdown. Assets includes UNKNOWN
// for diagnostics; Combined excludes it.
type PortfolioResponse struct {
	UpdatedAt time.Time             `json:"updated_at"`
	Combined  aggregate.HistoryView `json:"combined"`
	Assets    []AssetSummary        `json:"assets"`
}

// HistoryResponse is the full history of one asset.
type HistoryResponse struct {
	UpdatedAt time.Time `json:"updated_at"`
	aggregate.HistoryView
}

// WorstBasisResponse lists yesterday's worst basis intervals.
type WorstBasisResponse struct {
	Asset             string                  `json:"asset"`
	Date              string                  `json:"date"`
	Count             int                     `json:"count"`
	TotalCount        int                     `json:"total_count"`
	RecoverableImpact float64                 `json:"recoverable_impact"`
	Entries           []model.WorstBasisEntry `json:"entries"`
}

// BasisResponse is the recent basis trend of one asset.
type BasisResponse struct {
	Asset   string                `json:"asset"`
	Status  string                `json:"status"`
	Latest  *model.BasisPoint     `json:"latest,omitempty"`
	Recent  []model.BasisPoint    `json:"recent"`
	Profile analysis.BasisProfile `json:"profile"`
}

// RankResponse orders assets by mean recent basis, worst first.
type RankResponse struct {
	Rankings []Ranking `json:"rankings"`
}

// Ranking is one ranked asset.
type Ranking struct {
	Rank int `json:"rank"`
	analysis.BasisProfile
}

// StatusResponse reports the refresh state of every source.
type StatusResponse struct {
	UpdatedAt time.Time            `json:"updated_at"`
	Sources   []model.SourceStatus `json:"sources"`
}

// RefreshResponse lists the sources a manual refresh started.
type RefreshResponse struct {
	Started []string `json:"started"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

package settlement

import (
	"time"

	"renewables-pnl/internal/model"
)

// LedgerRow is one row of per-interval settlement output.
type LedgerRow struct {
	Index int

	IntervalStartLocal time.Time
	IntervalStartUTC   time.Time

	Label    string
	Provider string

	Result model.SettlementResult

	CumPnL float64
}

type Result struct {
	Ledger  []LedgerRow
	Results []model.SettlementResult

	TotalPnL   float64
	ByAsset    map[string]float64
	HubSources map[model.HubSource]int
}

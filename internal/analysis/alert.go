package analysis

import "renewables-pnl/internal/model"

// Alert levels for the most recent basis.
const (
	AlertOK      = "OK"
	AlertCaution = "CAUTION"
	AlertAlert   = "ALERT"
)

// Thresholds classify a basis value. Basis above CautionBelow is OK, below AlertBelow is ALERT.
type Thresholds struct {
	CautionBelow float64
	AlertBelow   float64
}

var DefaultThresholds = Thresholds{CautionBelow: 0, AlertBelow: -100}

func (t Thresholds) Status(basis float64) string {
	switch {
	case basis > t.CautionBelow:
		return AlertOK
	case basis < t.AlertBelow:
		return AlertAlert
	default:
		return AlertCaution
	}
}

// RecentBasis appends results of one asset to history as basis points and keeps the newest
// limit points in time order. Points at an instant already present are replaced; intervals
// without a node price are skipped.
func RecentBasis(history []model.BasisPoint, results []model.SettlementResult, asset string, t Thresholds, limit int) []model.BasisPoint {
	byTime := make(map[int64]model.BasisPoint, len(history)+len(results))
	for _, p := range history {
		byTime[p.Time.UnixNano()] = p
	}
	for _, r := range results {
		if r.AssetKey != asset || r.PriceMissing {
			continue
		}
		byTime[r.IntervalStart.UnixNano()] = model.BasisPoint{
			Time:      r.IntervalStart,
			NodePrice: r.NodePrice,
			HubPrice:  r.HubPrice,
			Basis:     r.Basis,
			Status:    t.Status(r.Basis),
		}
	}
	out := make([]model.BasisPoint, 0, len(byTime))
	for _, p := range byTime {
		out = append(out, p)
	}
	sortPoints(out)
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

package model

import "time"

// GridStatusLMPResponse matches the JSON shape of a Grid Status location query.
//
// Example:
//
//	{
//	  "status_code": 200,
//	  "data": [ ... ]
//	}
type GridStatusLMPResponse struct {
	StatusCode int           `json:"status_code"`
	Data       []LMPInterval `json:"data"`
}

// LMPInterval represents one interval row from a Grid Status LMP/SPP dataset.
// All timestamps are provided in the JSON as RFC3339 strings (with offsets).
type LMPInterval struct {
	IntervalStartLocal time.Time `json:"interval_start_local"`
	IntervalStartUTC   time.Time `json:"interval_start_utc"`
	IntervalEndLocal   time.Time `json:"interval_end_local"`
	IntervalEndUTC     time.Time `json:"interval_end_utc"`

	Market       string `json:"market"`
	Location     string `json:"location"`
	LocationType string `json:"location_type"`

	// Prices in $/MWh. ERCOT settlement point datasets report SPP instead of LMP.
	LMP float64  `json:"lmp"`
	SPP *float64 `json:"spp,omitempty"`
}

// Start returns the interval start as an absolute instant.
func (i LMPInterval) Start() time.Time {
	// Prefer UTC fields because they're unambiguous and consistent.
	if !i.IntervalStartUTC.IsZero() {
		return i.IntervalStartUTC
	}
	return i.IntervalStartLocal
}

// Price returns SPP when present, LMP otherwise.
func (i LMPInterval) Price() float64 {
	if i.SPP != nil {
		return *i.SPP
	}
	return i.LMP
}

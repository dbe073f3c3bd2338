package model

import "encoding/json"

// Upstream payload shapes. These are decoded by the data clients and consumed only by the
// normalize package; nothing past normalization sees them.

// TimeSeriesPayload is the token-authenticated time-series API response:
// element -> metric -> interval -> value.
type TimeSeriesPayload struct {
	Elements []TimeSeriesElement `json:"elements"`
}

type TimeSeriesElement struct {
	Name            string             `json:"name"`
	SettlementPoint string             `json:"settlement_point"`
	Metrics         []TimeSeriesMetric `json:"metrics"`
}

type TimeSeriesMetric struct {
	Name      string               `json:"name"`
	Intervals []TimeSeriesInterval `json:"intervals"`
}

// TimeSeriesInterval keeps the timestamp and value raw: providers mix RFC3339 strings,
// naive local strings and epoch milliseconds, and send values as numbers or strings.
type TimeSeriesInterval struct {
	Interval        json.RawMessage `json:"interval"`
	SettlementPoint string          `json:"settlement_point,omitempty"`
	Value           json.RawMessage `json:"value"`
}

// GridOperatorLMP is one row of the grid operator's flat real-time LMP feed.
type GridOperatorLMP struct {
	PnodeID              int64   `json:"pnode_id"`
	PnodeName            string  `json:"pnode_name"`
	DatetimeBeginningUTC string  `json:"datetime_beginning_utc"`
	TotalLMPRT           float64 `json:"total_lmp_rt"`
}

// GridOperatorLMPPage is one page of the grid operator's feed.
type GridOperatorLMPPage struct {
	Items      []GridOperatorLMP `json:"items"`
	TotalRows  int               `json:"totalRows"`
	NextOffset *int              `json:"next_offset,omitempty"`
}

// VendorAward is a day-ahead award row from the asset-management API.
type VendorAward struct {
	Timestamp string  `json:"timestamp"`
	MW        float64 `json:"mw"`
	Price     float64 `json:"price"`
}

// VendorGeneration is a metered generation row; timestamps are hour-ending.
type VendorGeneration struct {
	IntervalEnding string  `json:"interval_ending"`
	MWh            float64 `json:"mwh"`
}

// VendorRTPrice is a real-time price row.
type VendorRTPrice struct {
	Time string  `json:"time"`
	LMP  float64 `json:"lmp"`
}

// VendorHourlyRevenue is a row of the pre-joined hourly revenue endpoint.
type VendorHourlyRevenue struct {
	HourBeginning string   `json:"hour_beginning"`
	GenMWh        float64  `json:"gen_mwh"`
	DAMWh         float64  `json:"da_mwh"`
	DALMP         float64  `json:"da_lmp"`
	RTLMP         float64  `json:"rt_lmp"`
	DARevenue     float64  `json:"da_revenue"`
	RTRevenue     float64  `json:"rt_revenue"`
	HubLMP        *float64 `json:"hub_lmp,omitempty"`
}

// VendorPage wraps paginated vendor responses.
type VendorPage[T any] struct {
	Data     []T    `json:"data"`
	NextPage string `json:"next_page,omitempty"`
}

// VendorBatch is everything fetched from the vendor API for one window.
// When Hourly is non-empty the individual endpoints are ignored.
type VendorBatch struct {
	Label           string                `json:"label"`
	SettlementPoint string                `json:"settlement_point"`
	Hourly          []VendorHourlyRevenue `json:"hourly,omitempty"`
	Awards          []VendorAward         `json:"da_awards,omitempty"`
	Generation      []VendorGeneration    `json:"generation,omitempty"`
	RTPrices        []VendorRTPrice       `json:"rt_prices,omitempty"`
}

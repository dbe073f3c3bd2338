package models

// HistoryQuery narrows the daily buckets of a PnL history. Dates are YYYY-MM-DD, inclusive.
type HistoryQuery struct {
	From string `form:"from"`
	To   string `form:"to"`
}

// WorstBasisQuery selects the top K exclusion candidates.
type WorstBasisQuery struct {
	Top int `form:"top"` // default: configured top_k
}

// BasisQuery limits how many recent intervals are returned.
type BasisQuery struct {
	Limit int `form:"limit"` // 0 = everything retained
}

package models

import "time"

// CandidateRow is one ranked symbol-versus-benchmark comparison. Return
// fields are on the display scale (percent, 2 decimal places). A full set of
// rows is produced per screening run and replaces the previous set wholesale.
type CandidateRow struct {
	Symbol            string    `json:"symbol"`
	Sector            string    `json:"sector"`
	SectorETF         string    `json:"sector_etf"`
	ReturnPct         float64   `json:"return_pct"`
	ETFReturnPct      float64   `json:"sector_etf_pct"`
	Outperforming     bool      `json:"outperforming"`
	HasDividend       bool      `json:"has_dividend"`
	DaysUntilDividend *int      `json:"days_until_dividend,omitempty"`
	EvaluatedAt       time.Time `json:"evaluated_at"`
	RunID             string    `json:"run_id"`
}

// CandidateFilter restricts a candidate listing at presentation time. Both
// conditions are conjunctive when set.
type CandidateFilter struct {
	OnlyOutperforming bool
	OnlyWithDividends bool
}

// Match reports whether a row passes the filter.
func (f CandidateFilter) Match(row *CandidateRow) bool {
	if f.OnlyOutperforming && !row.Outperforming {
		return false
	}
	if f.OnlyWithDividends && !row.HasDividend {
		return false
	}
	return true
}

// SectorSummary is a derived per-sector rollup of candidate rows. Never
// persisted; recomputed on demand.
type SectorSummary struct {
	Sector            string   `json:"sector"`
	SectorETF         string   `json:"sector_etf"`
	Symbols           []string `json:"symbols"`
	AvgReturnPct      float64  `json:"avg_return_pct"`
	Count             int      `json:"count"`
	DividendCount     int      `json:"dividend_count"`
	AvgDaysToDividend *float64 `json:"avg_days_to_div,omitempty"` // nil when no row has a known dividend date
}

package models

import "time"

// DividendStatus is the per-symbol dividend block maintained by the dividend
// refresh service. LastChecked is a calendar date ("2006-01-02") used to
// rate-limit provider calls to once per day; an empty string means the symbol
// has never been checked.
type DividendStatus struct {
	HasDividend       bool       `json:"has_dividend"`
	NextDividendDate  *time.Time `json:"next_dividend_date,omitempty"`
	DaysUntilDividend *int       `json:"days_until_dividend,omitempty"`
	LastChecked       string     `json:"last_checked,omitempty"`
}

// TickerInfo is one enriched row per symbol. Created by the enrichment step;
// only the Dividend block is mutated afterwards.
type TickerInfo struct {
	Symbol     string         `json:"symbol"`
	LongName   string         `json:"long_name"`
	Sector     string         `json:"sector"`
	Industry   string         `json:"industry"`
	Country    string         `json:"country"`
	MarketCap  *float64       `json:"market_cap,omitempty"` // nil when the provider does not report one
	Currency   string         `json:"currency"`
	HasOptions bool           `json:"has_options"`
	QuoteType  string         `json:"quote_type"`
	Exchange   string         `json:"exchange"`
	Dividend   DividendStatus `json:"dividend"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// CompanyInfo is the provider-side company metadata used to build a TickerInfo.
type CompanyInfo struct {
	Symbol     string
	LongName   string
	Sector     string
	Industry   string
	Country    string
	MarketCap  *float64
	Currency   string
	QuoteType  string
	Exchange   string
	HasOptions bool
}

// Listing is a raw exchange listing row from the ingestion step. Processed is
// flipped once the symbol has been enriched so reruns pick up where they left
// off.
type Listing struct {
	Symbol       string    `json:"symbol"`
	SecurityName string    `json:"security_name"`
	Exchange     string    `json:"exchange"`
	Processed    bool      `json:"processed"`
	CreatedAt    time.Time `json:"created_at"`
}

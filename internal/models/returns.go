package models

import (
	"fmt"
	"time"
)

// PricePeriod is the pseudo-period under which single-day close prices are
// cached alongside period returns.
const PricePeriod = "1d"

// PriceBar is one day's closing observation from the market data provider.
type PriceBar struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// DividendPayment is one historical dividend payment.
type DividendPayment struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}

// DividendCalendar carries the provider's upcoming ex-dividend date, when it
// publishes one.
type DividendCalendar struct {
	ExDividendDate *time.Time `json:"ex_dividend_date,omitempty"`
}

// ReturnCacheEntry caches a computed period return and/or a close price for
// one (symbol, period, as-of-date) triple. Returns are stored as fractions
// rounded to 4 decimal places; conversion to percent happens only at the
// display boundary. Staleness is implicit in AsOfDate: a new calendar day
// produces a new key, old entries are simply never read again.
type ReturnCacheEntry struct {
	Key        string    `json:"key"`
	Symbol     string    `json:"symbol"`
	Period     string    `json:"period"`
	AsOfDate   string    `json:"as_of_date"` // "2006-01-02"
	ReturnPct  *float64  `json:"return_pct,omitempty"`
	ClosePrice *float64  `json:"close_price,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ReturnCacheKey builds the composite store key for a cache entry.
func ReturnCacheKey(symbol, period, asOfDate string) string {
	return fmt.Sprintf("%s|%s|%s", symbol, period, asOfDate)
}

// PriceHistory caches a full daily close series for one (symbol, period).
// Consumed by reporting; written once per period and never expired.
type PriceHistory struct {
	Key       string     `json:"key"`
	Symbol    string     `json:"symbol"`
	Period    string     `json:"period"`
	Bars      []PriceBar `json:"bars"`
	FetchedAt time.Time  `json:"fetched_at"`
}

// PriceHistoryKey builds the store key for a cached price series.
func PriceHistoryKey(symbol, period string) string {
	return fmt.Sprintf("%s|%s", symbol, period)
}

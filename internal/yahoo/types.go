// Package yahoo provides a client for the Yahoo Finance public API.
// This package centralizes all market data provider interactions for the
// application.
package yahoo

import (
	"fmt"
	"time"
)

// APIError represents an error response from the Yahoo Finance API.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("yahoo API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// RateLimitError represents a rate limit error.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("yahoo rate limit exceeded, retry after %v", e.RetryAfter)
}

// validPeriods are the relative lookback ranges the chart endpoint accepts.
var validPeriods = map[string]bool{
	"1d":  true,
	"5d":  true,
	"1mo": true,
	"3mo": true,
	"6mo": true,
	"1y":  true,
	"2y":  true,
	"5y":  true,
	"10y": true,
	"ytd": true,
	"max": true,
}

// ValidPeriod reports whether the provider accepts the given lookback period.
func ValidPeriod(period string) bool {
	return validPeriods[period]
}

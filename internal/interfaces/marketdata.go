// Package interfaces provides service interfaces for dependency injection.
package interfaces

import (
	"context"

	"github.com/ternarybob/sectorscan/internal/models"
)

// MarketDataSource is the external market data provider. Implementations
// return typed errors (see the yahoo package); callers in the screening
// pipeline convert any error into the "no data" path rather than propagating
// it.
type MarketDataSource interface {
	// GetHistory returns a date-ascending daily close series for a relative
	// lookback period ("1d", "1mo", "3mo", "6mo", "1y"). An empty slice means
	// the provider has no data for the symbol.
	GetHistory(ctx context.Context, symbol, period string) ([]models.PriceBar, error)

	// GetCompanyInfo returns company metadata for the enrichment step.
	GetCompanyInfo(ctx context.Context, symbol string) (*models.CompanyInfo, error)

	// GetDividendCalendar returns the upcoming ex-dividend date, when the
	// provider publishes one.
	GetDividendCalendar(ctx context.Context, symbol string) (*models.DividendCalendar, error)

	// GetDividendHistory returns historical dividend payments, date-ascending.
	GetDividendHistory(ctx context.Context, symbol string) ([]models.DividendPayment, error)
}

// Package dividends maintains the per-symbol dividend block on TickerInfo,
// rate-limiting provider refreshes to once per calendar day.
package dividends

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sectorscan/internal/common"
	"github.com/ternarybob/sectorscan/internal/interfaces"
	"github.com/ternarybob/sectorscan/internal/models"
)

const (
	// quarterlyPayerMinimum is the payment-history size above which a symbol
	// is assumed to pay quarterly for ex-date estimation.
	quarterlyPayerMinimum = 4

	// estimatedPayInterval is the assumed gap between quarterly payments.
	estimatedPayInterval = 90 * 24 * time.Hour
)

// Service refreshes dividend status for tickers.
type Service struct {
	source  interfaces.MarketDataSource
	tickers interfaces.TickerStorage
	clock   common.Clock
	logger  arbor.ILogger
}

// NewService creates a new dividend status service.
func NewService(source interfaces.MarketDataSource, tickers interfaces.TickerStorage, clock common.Clock, logger arbor.ILogger) *Service {
	return &Service{
		source:  source,
		tickers: tickers,
		clock:   clock,
		logger:  logger,
	}
}

// Refresh updates the symbol's dividend block from the provider.
//
// Unless force is set, a symbol already checked today is a no-op, so the
// provider sees at most one dividend round-trip per symbol per day. Provider
// failures are logged and leave the stored block untouched; only storage
// failures surface as errors.
func (s *Service) Refresh(ctx context.Context, symbol string, force bool) error {
	info, err := s.tickers.Get(ctx, symbol)
	if err != nil {
		return err
	}

	today := common.Today(s.clock)
	if !force && info.Dividend.LastChecked == today {
		return nil
	}

	calendar, err := s.source.GetDividendCalendar(ctx, symbol)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Dividend calendar fetch failed, keeping stored status")
		return nil
	}
	payments, err := s.source.GetDividendHistory(ctx, symbol)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Dividend history fetch failed, keeping stored status")
		return nil
	}

	status := models.DividendStatus{
		HasDividend: len(payments) > 0,
		LastChecked: today,
	}

	todayDate := dateOnly(s.clock.Now().UTC())
	switch {
	case calendar.ExDividendDate != nil:
		// The provider's own ex-date wins, but only while it is still ahead;
		// a stale past ex-date yields no estimate.
		exDate := dateOnly(*calendar.ExDividendDate)
		if !exDate.Before(todayDate) {
			days := daysBetween(todayDate, exDate)
			status.NextDividendDate = &exDate
			status.DaysUntilDividend = &days
		}
	case status.HasDividend && len(payments) >= quarterlyPayerMinimum:
		// Best-effort estimate for quarterly payers: 90 days after the last
		// recorded payment. No accuracy guarantee.
		estimate := dateOnly(payments[len(payments)-1].Date.Add(estimatedPayInterval))
		days := daysBetween(todayDate, estimate)
		status.NextDividendDate = &estimate
		status.DaysUntilDividend = &days
	}

	if err := s.tickers.UpdateDividendStatus(ctx, symbol, status); err != nil {
		return err
	}

	s.logger.Debug().
		Str("symbol", symbol).
		Bool("has_dividend", status.HasDividend).
		Msg("Dividend status refreshed")

	return nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

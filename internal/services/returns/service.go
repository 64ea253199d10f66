// Package returns provides the read-through cache over period returns and
// close prices. Entries are keyed by (symbol, period, as-of-date); the date
// in the key is the staleness mechanism, there is no TTL.
package returns

import (
	"context"
	"math"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sectorscan/internal/common"
	"github.com/ternarybob/sectorscan/internal/interfaces"
	"github.com/ternarybob/sectorscan/internal/models"
)

const (
	// returnPrecision is the decimal precision of cached return fractions.
	returnPrecision = 4

	// pricePrecision is the decimal precision of cached close prices.
	pricePrecision = 2
)

// Service provides cached access to period returns and latest close prices.
type Service struct {
	source  interfaces.MarketDataSource
	cache   interfaces.ReturnCacheStorage
	history interfaces.HistoryStorage
	clock   common.Clock
	logger  arbor.ILogger
}

// NewService creates a new return cache service.
func NewService(source interfaces.MarketDataSource, cache interfaces.ReturnCacheStorage, history interfaces.HistoryStorage, clock common.Clock, logger arbor.ILogger) *Service {
	return &Service{
		source:  source,
		cache:   cache,
		history: history,
		clock:   clock,
		logger:  logger,
	}
}

// GetOrFetchReturn returns the symbol's percentage return over the period as
// a fraction (0.05 = 5%), or nil when the provider has no usable data.
//
// A same-day cache entry is returned without touching the provider. On a
// miss the return is computed from the first and last close of the period's
// history and persisted before returning. Provider failures and series with
// fewer than two observations yield nil WITHOUT a cache write: negative
// results are not cached, so a later call the same day retries the provider.
func (s *Service) GetOrFetchReturn(ctx context.Context, symbol, period string) *float64 {
	today := common.Today(s.clock)

	if entry, err := s.cache.Get(ctx, symbol, period, today); err == nil {
		return entry.ReturnPct
	}

	bars, err := s.source.GetHistory(ctx, symbol, period)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Str("period", period).Msg("Price history fetch failed")
		return nil
	}
	if len(bars) < 2 {
		s.logger.Debug().Str("symbol", symbol).Str("period", period).Int("bars", len(bars)).Msg("Insufficient price history")
		return nil
	}

	first := bars[0].Close
	last := bars[len(bars)-1].Close
	if first == 0 {
		s.logger.Debug().Str("symbol", symbol).Str("period", period).Msg("Zero opening close, skipping return")
		return nil
	}

	ret := roundTo((last-first)/first, returnPrecision)

	entry := &models.ReturnCacheEntry{
		Symbol:    symbol,
		Period:    period,
		AsOfDate:  today,
		ReturnPct: &ret,
	}
	if err := s.cache.Upsert(ctx, entry); err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache return")
	}

	return &ret
}

// GetOrFetchPrice returns the symbol's latest close price, cached under the
// (symbol, "1d", today) key, or nil when unavailable.
func (s *Service) GetOrFetchPrice(ctx context.Context, symbol string) *float64 {
	today := common.Today(s.clock)

	if entry, err := s.cache.Get(ctx, symbol, models.PricePeriod, today); err == nil && entry.ClosePrice != nil {
		return entry.ClosePrice
	}

	bars, err := s.source.GetHistory(ctx, symbol, models.PricePeriod)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Latest price fetch failed")
		return nil
	}
	if len(bars) == 0 {
		return nil
	}

	price := roundTo(bars[len(bars)-1].Close, pricePrecision)

	entry := &models.ReturnCacheEntry{
		Symbol:     symbol,
		Period:     models.PricePeriod,
		AsOfDate:   today,
		ClosePrice: &price,
	}
	if err := s.cache.Upsert(ctx, entry); err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache price")
	}

	return &price
}

// GetOrFetchHistory returns the full daily close series for (symbol, period),
// serving from the history store when present. Used by reporting; an empty
// slice means no data.
func (s *Service) GetOrFetchHistory(ctx context.Context, symbol, period string) []models.PriceBar {
	if cached, err := s.history.Get(ctx, symbol, period); err == nil {
		return cached.Bars
	}

	bars, err := s.source.GetHistory(ctx, symbol, period)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Str("period", period).Msg("History fetch failed")
		return nil
	}
	if len(bars) == 0 {
		return nil
	}

	if err := s.history.Put(ctx, &models.PriceHistory{Symbol: symbol, Period: period, Bars: bars}); err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache history")
	}

	return bars
}

// roundTo rounds v to n decimal places.
func roundTo(v float64, n int) float64 {
	pow := math.Pow10(n)
	return math.Round(v*pow) / pow
}

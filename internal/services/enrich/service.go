// Package enrich turns raw exchange listings into enriched ticker rows by
// pulling company metadata from the market data provider.
package enrich

import (
	"context"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sectorscan/internal/common"
	"github.com/ternarybob/sectorscan/internal/interfaces"
	"github.com/ternarybob/sectorscan/internal/models"
)

// Result summarizes one enrichment pass.
type Result struct {
	Processed int
	Failed    int
}

// Service enriches unprocessed listings into ticker rows.
type Service struct {
	source   interfaces.MarketDataSource
	listings interfaces.ListingStorage
	tickers  interfaces.TickerStorage
	clock    common.Clock
	logger   arbor.ILogger
}

// NewService creates a new enrichment service.
func NewService(source interfaces.MarketDataSource, listings interfaces.ListingStorage, tickers interfaces.TickerStorage, clock common.Clock, logger arbor.ILogger) *Service {
	return &Service{
		source:   source,
		listings: listings,
		tickers:  tickers,
		clock:    clock,
		logger:   logger,
	}
}

// Run enriches every unprocessed listing. A provider failure for one symbol
// skips it without marking it processed, so the next run retries it. limit
// caps the number of listings handled in one pass; 0 means all.
func (s *Service) Run(ctx context.Context, limit int) (*Result, error) {
	listings, err := s.listings.ListUnprocessed(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(listings) > limit {
		listings = listings[:limit]
	}

	s.logger.Info().Int("listings", len(listings)).Msg("Starting enrichment pass")

	result := &Result{}
	for i, listing := range listings {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		s.logger.Debug().Str("symbol", listing.Symbol).Int("index", i+1).Int("total", len(listings)).Msg("Enriching symbol")

		info, err := s.source.GetCompanyInfo(ctx, listing.Symbol)
		if err != nil {
			s.logger.Warn().Err(err).Str("symbol", listing.Symbol).Msg("Company info fetch failed, will retry next run")
			result.Failed++
			continue
		}

		now := s.clock.Now().UTC()
		ticker := &models.TickerInfo{
			Symbol:     listing.Symbol,
			LongName:   info.LongName,
			Sector:     info.Sector,
			Industry:   info.Industry,
			Country:    info.Country,
			MarketCap:  info.MarketCap,
			Currency:   info.Currency,
			HasOptions: info.HasOptions,
			QuoteType:  info.QuoteType,
			Exchange:   listing.Exchange,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if ticker.Exchange == "" {
			ticker.Exchange = info.Exchange
		}

		if err := s.tickers.Upsert(ctx, ticker); err != nil {
			return result, err
		}
		if err := s.listings.MarkProcessed(ctx, listing.Symbol); err != nil {
			return result, err
		}
		result.Processed++
	}

	s.logger.Info().Int("processed", result.Processed).Int("failed", result.Failed).Msg("Enrichment pass complete")
	return result, nil
}

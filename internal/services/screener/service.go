// Package screener ranks symbols against their sector benchmark ETF over a
// lookback period and persists the result as the candidates collection.
package screener

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sectorscan/internal/common"
	"github.com/ternarybob/sectorscan/internal/interfaces"
	"github.com/ternarybob/sectorscan/internal/models"
	"github.com/ternarybob/sectorscan/internal/services/dividends"
	"github.com/ternarybob/sectorscan/internal/services/returns"
)

// Service ranks candidate symbols against sector benchmarks.
type Service struct {
	tickers    interfaces.TickerStorage
	candidates interfaces.CandidateStorage
	returns    *returns.Service
	dividends  *dividends.Service
	sectorMap  models.SectorMap
	maxPrice   float64
	force      bool
	clock      common.Clock
	logger     arbor.ILogger
}

// NewService creates a new screener service. maxPrice caps the latest close
// a candidate may trade at; 0 disables the cap. force refreshes dividend
// status even for symbols already checked today.
func NewService(tickers interfaces.TickerStorage, candidates interfaces.CandidateStorage, returnsSvc *returns.Service, dividendsSvc *dividends.Service, sectorMap models.SectorMap, maxPrice float64, force bool, clock common.Clock, logger arbor.ILogger) *Service {
	return &Service{
		tickers:    tickers,
		candidates: candidates,
		returns:    returnsSvc,
		dividends:  dividendsSvc,
		sectorMap:  sectorMap,
		maxPrice:   maxPrice,
		force:      force,
		clock:      clock,
		logger:     logger,
	}
}

// Rank evaluates each symbol in input order against its sector ETF and
// persists the resulting rows as the new candidates collection, replacing any
// previous run's rows.
//
// Best-effort batch: a symbol with an unknown sector, unmapped benchmark or
// unavailable price data is skipped with a log line, never an error. The
// returned rows are sorted by return descending, ties keeping input order.
func (s *Service) Rank(ctx context.Context, symbols []string, period string) ([]models.CandidateRow, error) {
	runID := uuid.New().String()
	evaluatedAt := s.clock.Now().UTC()

	s.logger.Info().
		Str("run_id", runID).
		Str("period", period).
		Int("symbols", len(symbols)).
		Msg("Starting screen run")

	rows := make([]models.CandidateRow, 0, len(symbols))
	for i, symbol := range symbols {
		s.logger.Debug().Str("symbol", symbol).Int("index", i+1).Int("total", len(symbols)).Msg("Evaluating candidate")

		if row, ok := s.evaluate(ctx, symbol, period, runID, evaluatedAt); ok {
			rows = append(rows, row)
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].ReturnPct > rows[j].ReturnPct
	})

	if err := s.candidates.ReplaceAll(ctx, rows); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("run_id", runID).
		Int("candidates", len(rows)).
		Int("skipped", len(symbols)-len(rows)).
		Msg("Screen run complete")

	return rows, nil
}

// evaluate builds the candidate row for one symbol, reporting ok=false when
// the symbol is skipped. The sector and benchmark checks come first so a
// symbol without a usable benchmark never triggers a provider call.
func (s *Service) evaluate(ctx context.Context, symbol, period, runID string, evaluatedAt time.Time) (models.CandidateRow, bool) {
	info, err := s.tickers.Get(ctx, symbol)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			s.logger.Warn().Str("symbol", symbol).Msg("Skipping symbol: not enriched")
		} else {
			s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Skipping symbol: ticker lookup failed")
		}
		return models.CandidateRow{}, false
	}
	if info.Sector == "" {
		s.logger.Warn().Str("symbol", symbol).Msg("Skipping symbol: no sector")
		return models.CandidateRow{}, false
	}

	etf, ok := s.sectorMap.ETF(info.Sector)
	if !ok {
		s.logger.Warn().Str("symbol", symbol).Str("sector", info.Sector).Msg("Skipping symbol: sector has no benchmark ETF")
		return models.CandidateRow{}, false
	}

	if err := s.dividends.Refresh(ctx, symbol, s.force); err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Dividend refresh failed")
		return models.CandidateRow{}, false
	}
	info, err = s.tickers.Get(ctx, symbol)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Skipping symbol: ticker re-read failed")
		return models.CandidateRow{}, false
	}

	symbolReturn := s.returns.GetOrFetchReturn(ctx, symbol, period)
	if symbolReturn == nil {
		s.logger.Warn().Str("symbol", symbol).Str("period", period).Msg("Skipping symbol: no return data")
		return models.CandidateRow{}, false
	}

	etfReturn := s.returns.GetOrFetchReturn(ctx, etf, period)
	if etfReturn == nil {
		s.logger.Warn().Str("symbol", symbol).Str("etf", etf).Str("period", period).Msg("Skipping symbol: no benchmark return data")
		return models.CandidateRow{}, false
	}

	if s.maxPrice > 0 {
		price := s.returns.GetOrFetchPrice(ctx, symbol)
		if price == nil {
			s.logger.Warn().Str("symbol", symbol).Msg("Skipping symbol: no latest price")
			return models.CandidateRow{}, false
		}
		if *price > s.maxPrice {
			s.logger.Debug().Str("symbol", symbol).Float64("price", *price).Float64("max_price", s.maxPrice).Msg("Skipping symbol: above price cap")
			return models.CandidateRow{}, false
		}
	}

	row := models.CandidateRow{
		Symbol:        symbol,
		Sector:        info.Sector,
		SectorETF:     etf,
		ReturnPct:     toPercent(*symbolReturn),
		ETFReturnPct:  toPercent(*etfReturn),
		Outperforming: *symbolReturn > *etfReturn,
		EvaluatedAt:   evaluatedAt,
		RunID:         runID,
	}
	row.HasDividend = info.Dividend.HasDividend
	row.DaysUntilDividend = info.Dividend.DaysUntilDividend
	return row, true
}

// toPercent converts a fractional return to a percentage rounded to two
// decimal places.
func toPercent(fraction float64) float64 {
	return math.Round(fraction*100*100) / 100
}

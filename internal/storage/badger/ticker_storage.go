package badger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sectorscan/internal/interfaces"
	"github.com/ternarybob/sectorscan/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// TickerStorage implements the TickerStorage interface for Badger
type TickerStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewTickerStorage creates a new TickerStorage instance
func NewTickerStorage(db *BadgerDB, logger arbor.ILogger) interfaces.TickerStorage {
	return &TickerStorage{
		db:     db,
		logger: logger,
	}
}

// normalizeSymbol uppercases a symbol for case-insensitive keys
func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Upsert inserts or updates a ticker, preserving CreatedAt on update
func (s *TickerStorage) Upsert(ctx context.Context, info *models.TickerInfo) error {
	if info.Symbol == "" {
		return fmt.Errorf("ticker symbol is required")
	}

	key := normalizeSymbol(info.Symbol)
	info.Symbol = key
	now := time.Now().UTC()
	info.UpdatedAt = now
	if info.CreatedAt.IsZero() {
		info.CreatedAt = now
	}

	var existing models.TickerInfo
	if err := s.db.Store().Get(key, &existing); err == nil {
		info.CreatedAt = existing.CreatedAt
	}

	if err := s.db.Store().Upsert(key, info); err != nil {
		return fmt.Errorf("failed to upsert ticker: %w", err)
	}
	return nil
}

// Get retrieves a ticker by symbol
func (s *TickerStorage) Get(ctx context.Context, symbol string) (*models.TickerInfo, error) {
	var info models.TickerInfo
	err := s.db.Store().Get(normalizeSymbol(symbol), &info)
	if err == badgerhold.ErrNotFound {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticker: %w", err)
	}
	return &info, nil
}

// List returns tickers matching the options, largest market cap first.
// Market cap filtering and ordering happen in memory: the field is nullable
// and BadgerHold cannot sort on pointer fields.
func (s *TickerStorage) List(ctx context.Context, opts *interfaces.TickerListOptions) ([]*models.TickerInfo, error) {
	query := badgerhold.Where("Symbol").Ne("")
	if opts != nil && opts.OptionableOnly {
		query = query.And("HasOptions").Eq(true)
	}

	var tickers []models.TickerInfo
	if err := s.db.Store().Find(&tickers, query); err != nil {
		return nil, fmt.Errorf("failed to list tickers: %w", err)
	}

	result := make([]*models.TickerInfo, 0, len(tickers))
	for i := range tickers {
		t := &tickers[i]
		if opts != nil && opts.MinMarketCap > 0 {
			if t.MarketCap == nil || *t.MarketCap <= opts.MinMarketCap {
				continue
			}
		}
		result = append(result, t)
	}

	sort.SliceStable(result, func(i, j int) bool {
		var a, b float64
		if result[i].MarketCap != nil {
			a = *result[i].MarketCap
		}
		if result[j].MarketCap != nil {
			b = *result[j].MarketCap
		}
		return a > b
	})

	if opts != nil && opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}

	return result, nil
}

// UpdateDividendStatus replaces the dividend block of an existing ticker
func (s *TickerStorage) UpdateDividendStatus(ctx context.Context, symbol string, status models.DividendStatus) error {
	key := normalizeSymbol(symbol)

	var info models.TickerInfo
	err := s.db.Store().Get(key, &info)
	if err == badgerhold.ErrNotFound {
		return interfaces.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get ticker for dividend update: %w", err)
	}

	info.Dividend = status
	info.UpdatedAt = time.Now().UTC()

	if err := s.db.Store().Upsert(key, &info); err != nil {
		return fmt.Errorf("failed to update dividend status: %w", err)
	}
	return nil
}

// Count returns the number of stored tickers
func (s *TickerStorage) Count(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.TickerInfo{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count tickers: %w", err)
	}
	return int(count), nil
}

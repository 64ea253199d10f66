package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sectorscan/internal/interfaces"
	"github.com/ternarybob/sectorscan/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ReturnCacheStorage implements the ReturnCacheStorage interface for Badger
type ReturnCacheStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewReturnCacheStorage creates a new ReturnCacheStorage instance
func NewReturnCacheStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ReturnCacheStorage {
	return &ReturnCacheStorage{
		db:     db,
		logger: logger,
	}
}

// Get retrieves the cache entry for an exact (symbol, period, date) triple
func (s *ReturnCacheStorage) Get(ctx context.Context, symbol, period, asOfDate string) (*models.ReturnCacheEntry, error) {
	key := models.ReturnCacheKey(normalizeSymbol(symbol), period, asOfDate)

	var entry models.ReturnCacheEntry
	err := s.db.Store().Get(key, &entry)
	if err == badgerhold.ErrNotFound {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}
	return &entry, nil
}

// Upsert inserts or replaces the entry keyed by its (symbol, period, date)
// triple. At most one entry exists per triple.
func (s *ReturnCacheStorage) Upsert(ctx context.Context, entry *models.ReturnCacheEntry) error {
	if entry.Symbol == "" || entry.Period == "" || entry.AsOfDate == "" {
		return fmt.Errorf("cache entry requires symbol, period and as-of date")
	}

	entry.Symbol = normalizeSymbol(entry.Symbol)
	entry.Key = models.ReturnCacheKey(entry.Symbol, entry.Period, entry.AsOfDate)
	entry.UpdatedAt = time.Now().UTC()

	if err := s.db.Store().Upsert(entry.Key, entry); err != nil {
		return fmt.Errorf("failed to upsert cache entry: %w", err)
	}
	return nil
}

// Count returns the number of cached entries
func (s *ReturnCacheStorage) Count(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.ReturnCacheEntry{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return int(count), nil
}

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

// HistoryStorage implements the HistoryStorage interface for Badger
type HistoryStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewHistoryStorage creates a new HistoryStorage instance
func NewHistoryStorage(db *BadgerDB, logger arbor.ILogger) interfaces.HistoryStorage {
	return &HistoryStorage{
		db:     db,
		logger: logger,
	}
}

// Get retrieves a cached close series for (symbol, period)
func (s *HistoryStorage) Get(ctx context.Context, symbol, period string) (*models.PriceHistory, error) {
	key := models.PriceHistoryKey(normalizeSymbol(symbol), period)

	var history models.PriceHistory
	err := s.db.Store().Get(key, &history)
	if err == badgerhold.ErrNotFound {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get price history: %w", err)
	}
	return &history, nil
}

// Put stores a close series keyed by (symbol, period)
func (s *HistoryStorage) Put(ctx context.Context, history *models.PriceHistory) error {
	if history.Symbol == "" || history.Period == "" {
		return fmt.Errorf("price history requires symbol and period")
	}

	history.Symbol = normalizeSymbol(history.Symbol)
	history.Key = models.PriceHistoryKey(history.Symbol, history.Period)
	history.FetchedAt = time.Now().UTC()

	if err := s.db.Store().Upsert(history.Key, history); err != nil {
		return fmt.Errorf("failed to store price history: %w", err)
	}
	return nil
}

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

// ListingStorage implements the ListingStorage interface for Badger
type ListingStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewListingStorage creates a new ListingStorage instance
func NewListingStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ListingStorage {
	return &ListingStorage{
		db:     db,
		logger: logger,
	}
}

// ReplaceAll swaps the listings collection for a freshly ingested set
func (s *ListingStorage) ReplaceAll(ctx context.Context, listings []models.Listing) error {
	if err := s.db.Store().DeleteMatching(&models.Listing{}, nil); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to clear listings: %w", err)
	}

	now := time.Now().UTC()
	for i := range listings {
		listing := listings[i]
		if listing.Symbol == "" {
			continue
		}
		listing.Symbol = normalizeSymbol(listing.Symbol)
		listing.CreatedAt = now
		if err := s.db.Store().Upsert(listing.Symbol, &listing); err != nil {
			return fmt.Errorf("failed to store listing %s: %w", listing.Symbol, err)
		}
	}

	s.logger.Info().Int("count", len(listings)).Msg("Replaced listings collection")
	return nil
}

// ListUnprocessed returns listings not yet picked up by enrichment
func (s *ListingStorage) ListUnprocessed(ctx context.Context) ([]models.Listing, error) {
	var listings []models.Listing
	err := s.db.Store().Find(&listings, badgerhold.Where("Processed").Eq(false).SortBy("Symbol"))
	if err != nil {
		return nil, fmt.Errorf("failed to list unprocessed listings: %w", err)
	}
	return listings, nil
}

// MarkProcessed flags a listing as enriched
func (s *ListingStorage) MarkProcessed(ctx context.Context, symbol string) error {
	key := normalizeSymbol(symbol)

	var listing models.Listing
	err := s.db.Store().Get(key, &listing)
	if err == badgerhold.ErrNotFound {
		return interfaces.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get listing: %w", err)
	}

	listing.Processed = true
	if err := s.db.Store().Upsert(key, &listing); err != nil {
		return fmt.Errorf("failed to mark listing processed: %w", err)
	}
	return nil
}

// Count returns the number of stored listings
func (s *ListingStorage) Count(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.Listing{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count listings: %w", err)
	}
	return int(count), nil
}

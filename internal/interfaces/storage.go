package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/sectorscan/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// TickerListOptions narrows a ticker listing. Zero values mean "no
// constraint"; results are ordered by market cap descending.
type TickerListOptions struct {
	MinMarketCap   float64
	OptionableOnly bool
	Limit          int
}

// TickerStorage - interface for enriched ticker persistence
type TickerStorage interface {
	Upsert(ctx context.Context, info *models.TickerInfo) error
	Get(ctx context.Context, symbol string) (*models.TickerInfo, error)
	List(ctx context.Context, opts *TickerListOptions) ([]*models.TickerInfo, error)

	// UpdateDividendStatus replaces only the dividend block of an existing
	// ticker, leaving the enrichment fields untouched.
	UpdateDividendStatus(ctx context.Context, symbol string, status models.DividendStatus) error

	Count(ctx context.Context) (int, error)
}

// ReturnCacheStorage - interface for the (symbol, period, date) return cache
type ReturnCacheStorage interface {
	// Get looks up the entry for an exact key triple.
	Get(ctx context.Context, symbol, period, asOfDate string) (*models.ReturnCacheEntry, error)

	// Upsert inserts or replaces the entry for its key triple.
	Upsert(ctx context.Context, entry *models.ReturnCacheEntry) error

	Count(ctx context.Context) (int, error)
}

// CandidateStorage - interface for ranked candidate persistence
type CandidateStorage interface {
	// ReplaceAll swaps the whole candidates collection for a new run's rows.
	ReplaceAll(ctx context.Context, rows []models.CandidateRow) error

	// List returns rows passing the filter, preserving stored order.
	List(ctx context.Context, filter models.CandidateFilter) ([]models.CandidateRow, error)

	Count(ctx context.Context) (int, error)
}

// ListingStorage - interface for raw exchange listings
type ListingStorage interface {
	ReplaceAll(ctx context.Context, listings []models.Listing) error
	ListUnprocessed(ctx context.Context) ([]models.Listing, error)
	MarkProcessed(ctx context.Context, symbol string) error
	Count(ctx context.Context) (int, error)
}

// HistoryStorage - interface for cached daily close series
type HistoryStorage interface {
	Get(ctx context.Context, symbol, period string) (*models.PriceHistory, error)
	Put(ctx context.Context, history *models.PriceHistory) error
}

// StorageManager provides access to all storage implementations
type StorageManager interface {
	TickerStorage() TickerStorage
	ReturnCacheStorage() ReturnCacheStorage
	CandidateStorage() CandidateStorage
	ListingStorage() ListingStorage
	HistoryStorage() HistoryStorage
	Close() error
}

package badger

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sectorscan/internal/common"
	"github.com/ternarybob/sectorscan/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db          *BadgerDB
	tickers     interfaces.TickerStorage
	returnCache interfaces.ReturnCacheStorage
	candidates  interfaces.CandidateStorage
	listings    interfaces.ListingStorage
	history     interfaces.HistoryStorage
	logger      arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:          db,
		tickers:     NewTickerStorage(db, logger),
		returnCache: NewReturnCacheStorage(db, logger),
		candidates:  NewCandidateStorage(db, logger),
		listings:    NewListingStorage(db, logger),
		history:     NewHistoryStorage(db, logger),
		logger:      logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// TickerStorage returns the Ticker storage interface
func (m *Manager) TickerStorage() interfaces.TickerStorage {
	return m.tickers
}

// ReturnCacheStorage returns the ReturnCache storage interface
func (m *Manager) ReturnCacheStorage() interfaces.ReturnCacheStorage {
	return m.returnCache
}

// CandidateStorage returns the Candidate storage interface
func (m *Manager) CandidateStorage() interfaces.CandidateStorage {
	return m.candidates
}

// ListingStorage returns the Listing storage interface
func (m *Manager) ListingStorage() interfaces.ListingStorage {
	return m.listings
}

// HistoryStorage returns the History storage interface
func (m *Manager) HistoryStorage() interfaces.HistoryStorage {
	return m.history
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

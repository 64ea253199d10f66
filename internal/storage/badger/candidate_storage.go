package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sectorscan/internal/interfaces"
	"github.com/ternarybob/sectorscan/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// candidateRecord wraps a row with its rank position so listings come back in
// the order the screener persisted them.
type candidateRecord struct {
	Seq int
	Row models.CandidateRow
}

// CandidateStorage implements the CandidateStorage interface for Badger
type CandidateStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewCandidateStorage creates a new CandidateStorage instance
func NewCandidateStorage(db *BadgerDB, logger arbor.ILogger) interfaces.CandidateStorage {
	return &CandidateStorage{
		db:     db,
		logger: logger,
	}
}

// ReplaceAll swaps the entire candidates collection for a new run's rows.
// A run has no memory of prior runs' candidates.
func (s *CandidateStorage) ReplaceAll(ctx context.Context, rows []models.CandidateRow) error {
	if err := s.db.Store().DeleteMatching(&candidateRecord{}, nil); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to clear candidates: %w", err)
	}

	for i, row := range rows {
		record := candidateRecord{Seq: i, Row: row}
		if err := s.db.Store().Upsert(i, &record); err != nil {
			return fmt.Errorf("failed to store candidate %s: %w", row.Symbol, err)
		}
	}

	s.logger.Info().Int("count", len(rows)).Msg("Replaced candidates collection")
	return nil
}

// List returns candidate rows passing the filter, in stored rank order
func (s *CandidateStorage) List(ctx context.Context, filter models.CandidateFilter) ([]models.CandidateRow, error) {
	var records []candidateRecord
	if err := s.db.Store().Find(&records, badgerhold.Where("Seq").Ge(0).SortBy("Seq")); err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}

	rows := make([]models.CandidateRow, 0, len(records))
	for i := range records {
		row := records[i].Row
		if !filter.Match(&row) {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Count returns the number of stored candidate rows
func (s *CandidateStorage) Count(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&candidateRecord{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count candidates: %w", err)
	}
	return int(count), nil
}

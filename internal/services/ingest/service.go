// Package ingest loads the NASDAQ trader symbol directory files into the
// listing store.
package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sectorscan/internal/common"
	"github.com/ternarybob/sectorscan/internal/interfaces"
	"github.com/ternarybob/sectorscan/internal/models"
)

// exchangeNames maps the otherlisted.txt single-letter exchange codes to
// readable names.
var exchangeNames = map[string]string{
	"N": "NYSE",
	"A": "AMEX",
	"P": "NYSE ARCA",
}

// Service parses exchange listing files and replaces the listing store.
type Service struct {
	listings interfaces.ListingStorage
	clock    common.Clock
	logger   arbor.ILogger
}

// NewService creates a new ingestion service.
func NewService(listings interfaces.ListingStorage, clock common.Clock, logger arbor.ILogger) *Service {
	return &Service{
		listings: listings,
		clock:    clock,
		logger:   logger,
	}
}

// Run parses the nasdaqlisted.txt and otherlisted.txt files and replaces the
// listing store with the combined result. Either path may be empty to skip
// that file. Test issues and ETF rows are dropped.
func (s *Service) Run(ctx context.Context, nasdaqPath, otherPath string) (int, error) {
	var all []models.Listing

	if nasdaqPath != "" {
		rows, err := s.parseFile(nasdaqPath, s.nasdaqListing)
		if err != nil {
			return 0, fmt.Errorf("parsing %s: %w", nasdaqPath, err)
		}
		s.logger.Info().Str("file", nasdaqPath).Int("listings", len(rows)).Msg("Parsed NASDAQ listings")
		all = append(all, rows...)
	}

	if otherPath != "" {
		rows, err := s.parseFile(otherPath, s.otherListing)
		if err != nil {
			return 0, fmt.Errorf("parsing %s: %w", otherPath, err)
		}
		s.logger.Info().Str("file", otherPath).Int("listings", len(rows)).Msg("Parsed other exchange listings")
		all = append(all, rows...)
	}

	if err := s.listings.ReplaceAll(ctx, all); err != nil {
		return 0, err
	}

	s.logger.Info().Int("total", len(all)).Msg("Listing store replaced")
	return len(all), nil
}

// parseFile reads one pipe-delimited listing file, skipping the header row
// and the "File Creation Time" footer.
func (s *Service) parseFile(path string, convert func(record []string) (models.Listing, bool)) ([]models.Listing, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = '|'
	reader.FieldsPerRecord = -1

	var listings []models.Listing
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if first {
			first = false
			continue
		}
		if len(record) > 0 && strings.HasPrefix(record[0], "File Creation Time") {
			continue
		}

		if listing, ok := convert(record); ok {
			listings = append(listings, listing)
		}
	}
	return listings, nil
}

// nasdaqListing converts one nasdaqlisted.txt record:
// Symbol|Security Name|Market Category|Test Issue|Financial Status|Round Lot Size|ETF|NextShares
func (s *Service) nasdaqListing(record []string) (models.Listing, bool) {
	if len(record) < 8 {
		return models.Listing{}, false
	}
	if record[3] == "Y" || record[6] == "Y" {
		return models.Listing{}, false
	}
	symbol := strings.TrimSpace(record[0])
	if symbol == "" {
		return models.Listing{}, false
	}
	return models.Listing{
		Symbol:       strings.ToUpper(symbol),
		SecurityName: strings.TrimSpace(record[1]),
		Exchange:     "NASDAQ",
		CreatedAt:    s.clock.Now().UTC(),
	}, true
}

// otherListing converts one otherlisted.txt record:
// ACT Symbol|Security Name|Exchange|CQS Symbol|ETF|Round Lot Size|Test Issue|NASDAQ Symbol
func (s *Service) otherListing(record []string) (models.Listing, bool) {
	if len(record) < 8 {
		return models.Listing{}, false
	}
	if record[4] == "Y" || record[6] == "Y" {
		return models.Listing{}, false
	}
	symbol := strings.TrimSpace(record[0])
	if symbol == "" {
		return models.Listing{}, false
	}
	exchange, ok := exchangeNames[record[2]]
	if !ok {
		exchange = record[2]
	}
	return models.Listing{
		Symbol:       strings.ToUpper(symbol),
		SecurityName: strings.TrimSpace(record[1]),
		Exchange:     exchange,
		CreatedAt:    s.clock.Now().UTC(),
	}, true
}

// Package report renders the persisted candidate rows as a flat comparison
// table with finviz screener links.
package report

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sectorscan/internal/interfaces"
	"github.com/ternarybob/sectorscan/internal/models"
	"github.com/ternarybob/sectorscan/internal/services/returns"
)

const finvizScreenerURL = "https://finviz.com/screener.ashx?v=211&t=%s"

// Row is one line of the flat report. DiffPct is the candidate's margin over
// its benchmark in percentage points.
type Row struct {
	Symbol            string   `json:"symbol"`
	Sector            string   `json:"sector"`
	SectorETF         string   `json:"sector_etf"`
	ReturnPct         float64  `json:"return_pct"`
	ETFReturnPct      float64  `json:"sector_etf_pct"`
	DiffPct           float64  `json:"diff_pct"`
	TickerPrice       *float64 `json:"ticker_price,omitempty"`
	ETFPrice          *float64 `json:"etf_price,omitempty"`
	HasDividend       bool     `json:"has_dividend"`
	DaysUntilDividend *int     `json:"days_until_dividend,omitempty"`
}

// Report is a flat candidate table plus one finviz link per benchmark ETF
// covering that ETF and its candidates.
type Report struct {
	Rows  []Row    `json:"rows"`
	Links []string `json:"links"`
}

// Service builds flat reports from persisted candidates.
type Service struct {
	candidates interfaces.CandidateStorage
	returns    *returns.Service
	logger     arbor.ILogger
}

// NewService creates a new report service.
func NewService(candidates interfaces.CandidateStorage, returnsSvc *returns.Service, logger arbor.ILogger) *Service {
	return &Service{
		candidates: candidates,
		returns:    returnsSvc,
		logger:     logger,
	}
}

// Build reads the stored candidates, attaches cached latest prices and sorts
// by outperformance margin descending. Prices come through the read-through
// price cache so a freshly screened run costs no extra provider calls.
func (s *Service) Build(ctx context.Context, filter models.CandidateFilter) (*Report, error) {
	candidates, err := s.candidates.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(candidates))
	byETF := make(map[string][]string)
	etfOrder := make([]string, 0)

	for _, c := range candidates {
		row := Row{
			Symbol:            c.Symbol,
			Sector:            c.Sector,
			SectorETF:         c.SectorETF,
			ReturnPct:         c.ReturnPct,
			ETFReturnPct:      c.ETFReturnPct,
			DiffPct:           math.Round((c.ReturnPct-c.ETFReturnPct)*100) / 100,
			TickerPrice:       s.returns.GetOrFetchPrice(ctx, c.Symbol),
			ETFPrice:          s.returns.GetOrFetchPrice(ctx, c.SectorETF),
			HasDividend:       c.HasDividend,
			DaysUntilDividend: c.DaysUntilDividend,
		}
		rows = append(rows, row)

		if _, ok := byETF[c.SectorETF]; !ok {
			etfOrder = append(etfOrder, c.SectorETF)
		}
		byETF[c.SectorETF] = append(byETF[c.SectorETF], c.Symbol)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].DiffPct > rows[j].DiffPct
	})

	links := make([]string, 0, len(etfOrder))
	for _, etf := range etfOrder {
		tickers := append([]string{etf}, byETF[etf]...)
		links = append(links, fmt.Sprintf(finvizScreenerURL, strings.Join(tickers, ",")))
	}

	s.logger.Debug().Int("rows", len(rows)).Int("links", len(links)).Msg("Report built")
	return &Report{Rows: rows, Links: links}, nil
}

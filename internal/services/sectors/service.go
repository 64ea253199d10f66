// Package sectors derives per-sector rollups from candidate rows and computes
// multi-window performance tables from cached price histories.
package sectors

import (
	"math"
	"sort"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sectorscan/internal/models"
)

// Service groups candidate rows into sector summaries.
type Service struct {
	sectorMap models.SectorMap
	logger    arbor.ILogger
}

// NewService creates a new sector aggregation service.
func NewService(sectorMap models.SectorMap, logger arbor.ILogger) *Service {
	return &Service{
		sectorMap: sectorMap,
		logger:    logger,
	}
}

// Aggregate filters candidate rows and groups the survivors by sector.
// Summaries are sorted by average return descending. The days-to-dividend
// average covers only rows with a known next date; when no row in a sector
// has one the average is nil rather than zero.
func (s *Service) Aggregate(rows []models.CandidateRow, filter models.CandidateFilter) []models.SectorSummary {
	type bucket struct {
		summary   models.SectorSummary
		returnSum float64
		daysSum   int
		daysCount int
	}

	buckets := make(map[string]*bucket)
	order := make([]string, 0)

	for i := range rows {
		row := &rows[i]
		if !filter.Match(row) {
			continue
		}

		b, ok := buckets[row.Sector]
		if !ok {
			etf := row.SectorETF
			if etf == "" {
				etf, _ = s.sectorMap.ETF(row.Sector)
			}
			b = &bucket{summary: models.SectorSummary{Sector: row.Sector, SectorETF: etf}}
			buckets[row.Sector] = b
			order = append(order, row.Sector)
		}

		b.summary.Symbols = append(b.summary.Symbols, row.Symbol)
		b.summary.Count++
		b.returnSum += row.ReturnPct
		if row.HasDividend {
			b.summary.DividendCount++
		}
		if row.DaysUntilDividend != nil {
			b.daysSum += *row.DaysUntilDividend
			b.daysCount++
		}
	}

	summaries := make([]models.SectorSummary, 0, len(buckets))
	for _, sector := range order {
		b := buckets[sector]
		b.summary.AvgReturnPct = math.Round(b.returnSum/float64(b.summary.Count)*100) / 100
		if b.daysCount > 0 {
			avg := math.Round(float64(b.daysSum)/float64(b.daysCount)*10) / 10
			b.summary.AvgDaysToDividend = &avg
		}
		summaries = append(summaries, b.summary)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].AvgReturnPct > summaries[j].AvgReturnPct
	})

	return summaries
}

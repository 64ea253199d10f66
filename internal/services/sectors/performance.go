package sectors

import (
	"context"
	"math"
	"time"

	"github.com/ternarybob/sectorscan/internal/common"
	"github.com/ternarybob/sectorscan/internal/models"
	"github.com/ternarybob/sectorscan/internal/services/returns"
)

// historyPeriod covers every performance window including the full year and
// YTD with one provider call per symbol.
const historyPeriod = "2y"

// PerformanceWindows are the lookback windows of a performance row, in
// display order. YTD is handled separately since its span depends on the
// current date.
var PerformanceWindows = []struct {
	Name string
	Days int
}{
	{"Week", 7},
	{"Month", 30},
	{"Quarter", 90},
	{"Half", 180},
	{"Year", 365},
}

// PerformanceRow holds one symbol's percent change over each window. A nil
// entry means the history had no observation on or before that window's
// start.
type PerformanceRow struct {
	Symbol  string              `json:"symbol"`
	Changes map[string]*float64 `json:"changes"`
}

// PerformanceTable computes multi-window percent changes for a list of
// symbols, one cached history fetch per symbol. Symbols whose history is
// unavailable get a row of all-nil changes.
func PerformanceTable(ctx context.Context, returnsSvc *returns.Service, clock common.Clock, symbols []string) []PerformanceRow {
	now := clock.Now().UTC()
	table := make([]PerformanceRow, 0, len(symbols))
	for _, symbol := range symbols {
		bars := returnsSvc.GetOrFetchHistory(ctx, symbol, historyPeriod)
		table = append(table, PerformanceRow{
			Symbol:  symbol,
			Changes: windowChanges(bars, now),
		})
	}
	return table
}

// windowChanges computes the percent change from each window boundary to the
// latest close. bars must be date-ascending.
func windowChanges(bars []models.PriceBar, now time.Time) map[string]*float64 {
	changes := make(map[string]*float64, len(PerformanceWindows)+1)
	for _, w := range PerformanceWindows {
		changes[w.Name] = nil
	}
	changes["YTD"] = nil

	if len(bars) == 0 {
		return changes
	}
	latest := bars[len(bars)-1].Close
	if latest == 0 {
		return changes
	}

	for _, w := range PerformanceWindows {
		boundary := now.AddDate(0, 0, -w.Days)
		changes[w.Name] = changeSince(bars, boundary, latest)
	}
	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	changes["YTD"] = changeSince(bars, yearStart, latest)

	return changes
}

// changeSince returns the percent change from the last bar on or before the
// boundary to the latest close, or nil when no such bar exists.
func changeSince(bars []models.PriceBar, boundary time.Time, latest float64) *float64 {
	var base *models.PriceBar
	for i := range bars {
		if bars[i].Date.After(boundary) {
			break
		}
		base = &bars[i]
	}
	if base == nil || base.Close == 0 {
		return nil
	}
	change := math.Round((latest-base.Close)/base.Close*100*100) / 100
	return &change
}

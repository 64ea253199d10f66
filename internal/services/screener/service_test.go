package screener

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sectorscan/internal/interfaces"
	"github.com/ternarybob/sectorscan/internal/models"
	"github.com/ternarybob/sectorscan/internal/services/dividends"
	"github.com/ternarybob/sectorscan/internal/services/returns"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

// fakeSource serves canned histories keyed "SYMBOL|period" and records which
// symbols were fetched.
type fakeSource struct {
	histories map[string][]models.PriceBar
	fetched   []string
}

func (f *fakeSource) GetHistory(ctx context.Context, symbol, period string) ([]models.PriceBar, error) {
	f.fetched = append(f.fetched, symbol)
	return f.histories[symbol+"|"+period], nil
}

func (f *fakeSource) GetCompanyInfo(ctx context.Context, symbol string) (*models.CompanyInfo, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeSource) GetDividendCalendar(ctx context.Context, symbol string) (*models.DividendCalendar, error) {
	return &models.DividendCalendar{}, nil
}

func (f *fakeSource) GetDividendHistory(ctx context.Context, symbol string) ([]models.DividendPayment, error) {
	return nil, nil
}

type memTickers struct {
	tickers map[string]*models.TickerInfo
}

func (m *memTickers) Upsert(ctx context.Context, info *models.TickerInfo) error {
	m.tickers[info.Symbol] = info
	return nil
}

func (m *memTickers) Get(ctx context.Context, symbol string) (*models.TickerInfo, error) {
	info, ok := m.tickers[symbol]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	copied := *info
	return &copied, nil
}

func (m *memTickers) List(ctx context.Context, opts *interfaces.TickerListOptions) ([]*models.TickerInfo, error) {
	return nil, fmt.Errorf("not implemented")
}

func (m *memTickers) UpdateDividendStatus(ctx context.Context, symbol string, status models.DividendStatus) error {
	info, ok := m.tickers[symbol]
	if !ok {
		return interfaces.ErrNotFound
	}
	info.Dividend = status
	return nil
}

func (m *memTickers) Count(ctx context.Context) (int, error) {
	return len(m.tickers), nil
}

type memCache struct {
	entries map[string]*models.ReturnCacheEntry
}

func (c *memCache) Get(ctx context.Context, symbol, period, asOfDate string) (*models.ReturnCacheEntry, error) {
	entry, ok := c.entries[models.ReturnCacheKey(symbol, period, asOfDate)]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return entry, nil
}

func (c *memCache) Upsert(ctx context.Context, entry *models.ReturnCacheEntry) error {
	c.entries[models.ReturnCacheKey(entry.Symbol, entry.Period, entry.AsOfDate)] = entry
	return nil
}

func (c *memCache) Count(ctx context.Context) (int, error) {
	return len(c.entries), nil
}

type memHistory struct{}

func (memHistory) Get(ctx context.Context, symbol, period string) (*models.PriceHistory, error) {
	return nil, interfaces.ErrNotFound
}

func (memHistory) Put(ctx context.Context, history *models.PriceHistory) error {
	return nil
}

type memCandidates struct {
	rows []models.CandidateRow
}

func (m *memCandidates) ReplaceAll(ctx context.Context, rows []models.CandidateRow) error {
	m.rows = rows
	return nil
}

func (m *memCandidates) List(ctx context.Context, filter models.CandidateFilter) ([]models.CandidateRow, error) {
	var out []models.CandidateRow
	for i := range m.rows {
		if filter.Match(&m.rows[i]) {
			out = append(out, m.rows[i])
		}
	}
	return out, nil
}

func (m *memCandidates) Count(ctx context.Context) (int, error) {
	return len(m.rows), nil
}

type fixture struct {
	svc        *Service
	source     *fakeSource
	candidates *memCandidates
}

// newFixture wires a screener over in-memory stores. tickers maps symbol to
// sector; every symbol gets a usable 6mo history unless histories overrides
// it.
func newFixture(tickers map[string]string, histories map[string][]models.PriceBar, maxPrice float64) *fixture {
	clock := &fakeClock{now: time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)}
	logger := arbor.NewLogger()

	tickerStore := &memTickers{tickers: make(map[string]*models.TickerInfo)}
	for symbol, sector := range tickers {
		tickerStore.tickers[symbol] = &models.TickerInfo{Symbol: symbol, Sector: sector}
	}

	source := &fakeSource{histories: histories}
	returnsSvc := returns.NewService(source, &memCache{entries: make(map[string]*models.ReturnCacheEntry)}, memHistory{}, clock, logger)
	dividendsSvc := dividends.NewService(source, tickerStore, clock, logger)
	candidates := &memCandidates{}

	svc := NewService(tickerStore, candidates, returnsSvc, dividendsSvc, models.DefaultSectorMap(), maxPrice, false, clock, logger)
	return &fixture{svc: svc, source: source, candidates: candidates}
}

func series(closes ...float64) []models.PriceBar {
	out := make([]models.PriceBar, len(closes))
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		out[i] = models.PriceBar{Date: base.AddDate(0, 0, i), Close: c}
	}
	return out
}

func TestRankOutperformance(t *testing.T) {
	f := newFixture(
		map[string]string{"AAPL": "Technology", "XOM": "Energy"},
		map[string][]models.PriceBar{
			"AAPL|6mo": series(100, 120), // +20%
			"XLK|6mo":  series(100, 110), // +10%
			"XOM|6mo":  series(100, 102), // +2%
			"XLE|6mo":  series(100, 105), // +5%
		},
		0,
	)

	rows, err := f.svc.Rank(context.Background(), []string{"AAPL", "XOM"}, "6mo")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}

	// Sorted by return descending
	if rows[0].Symbol != "AAPL" || rows[1].Symbol != "XOM" {
		t.Errorf("Expected AAPL before XOM, got %s, %s", rows[0].Symbol, rows[1].Symbol)
	}

	if !rows[0].Outperforming {
		t.Error("Expected AAPL (+20% vs +10%) to outperform")
	}
	if rows[0].ReturnPct != 20.0 || rows[0].ETFReturnPct != 10.0 {
		t.Errorf("Expected percent-scale returns 20/10, got %v/%v", rows[0].ReturnPct, rows[0].ETFReturnPct)
	}
	if rows[0].SectorETF != "XLK" {
		t.Errorf("Expected XLK benchmark, got %s", rows[0].SectorETF)
	}

	if rows[1].Outperforming {
		t.Error("Expected XOM (+2% vs +5%) to underperform")
	}

	if rows[0].RunID == "" || rows[0].RunID != rows[1].RunID {
		t.Error("Expected a shared non-empty run ID")
	}

	stored, _ := f.candidates.List(context.Background(), models.CandidateFilter{})
	if len(stored) != 2 {
		t.Errorf("Expected rows persisted, got %d", len(stored))
	}
}

func TestRankEqualReturnsNotOutperforming(t *testing.T) {
	f := newFixture(
		map[string]string{"AAPL": "Technology"},
		map[string][]models.PriceBar{
			"AAPL|6mo": series(100, 110),
			"XLK|6mo":  series(200, 220), // Same +10%
		},
		0,
	)

	rows, err := f.svc.Rank(context.Background(), []string{"AAPL"}, "6mo")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(rows))
	}
	if rows[0].Outperforming {
		t.Error("Expected equality to count as not outperforming")
	}
}

func TestRankUnmappedSectorMakesNoProviderCall(t *testing.T) {
	f := newFixture(
		map[string]string{"ODD": "Shipping Conglomerates"},
		map[string][]models.PriceBar{},
		0,
	)

	rows, err := f.svc.Rank(context.Background(), []string{"ODD"}, "6mo")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Errorf("Expected unmapped sector skipped, got %d rows", len(rows))
	}
	if len(f.source.fetched) != 0 {
		t.Errorf("Expected no provider calls for an unmapped sector, got %v", f.source.fetched)
	}
}

func TestRankUnknownSymbolSkipped(t *testing.T) {
	f := newFixture(
		map[string]string{"AAPL": "Technology"},
		map[string][]models.PriceBar{
			"AAPL|6mo": series(100, 120),
			"XLK|6mo":  series(100, 110),
		},
		0,
	)

	rows, err := f.svc.Rank(context.Background(), []string{"MISSING", "AAPL"}, "6mo")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Symbol != "AAPL" {
		t.Errorf("Expected only AAPL ranked, got %v", rows)
	}
}

func TestRankMissingDataSkipsSymbol(t *testing.T) {
	f := newFixture(
		map[string]string{"AAPL": "Technology", "XOM": "Energy"},
		map[string][]models.PriceBar{
			"AAPL|6mo": series(100, 120),
			"XLK|6mo":  series(100, 110),
			// XOM has no history; XLE never consulted
		},
		0,
	)

	rows, err := f.svc.Rank(context.Background(), []string{"AAPL", "XOM"}, "6mo")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Symbol != "AAPL" {
		t.Errorf("Expected XOM skipped for missing data, got %v", rows)
	}
}

func TestRankMaxPriceGuard(t *testing.T) {
	f := newFixture(
		map[string]string{"AAPL": "Technology", "NVDA": "Technology"},
		map[string][]models.PriceBar{
			"AAPL|6mo": series(80, 100),
			"NVDA|6mo": series(700, 900),
			"XLK|6mo":  series(100, 110),
			"AAPL|1d":  series(100),
			"NVDA|1d":  series(900),
		},
		120,
	)

	rows, err := f.svc.Rank(context.Background(), []string{"AAPL", "NVDA"}, "6mo")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Symbol != "AAPL" {
		t.Errorf("Expected NVDA dropped by the price cap, got %v", rows)
	}
}

func TestRankReplacesPreviousRun(t *testing.T) {
	f := newFixture(
		map[string]string{"AAPL": "Technology"},
		map[string][]models.PriceBar{
			"AAPL|6mo": series(100, 120),
			"XLK|6mo":  series(100, 110),
		},
		0,
	)
	f.candidates.rows = []models.CandidateRow{{Symbol: "STALE"}}

	rows, err := f.svc.Rank(context.Background(), []string{"AAPL"}, "6mo")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(rows))
	}

	stored, _ := f.candidates.List(context.Background(), models.CandidateFilter{})
	if len(stored) != 1 || stored[0].Symbol != "AAPL" {
		t.Errorf("Expected previous run replaced, got %v", stored)
	}
}

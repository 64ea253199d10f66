package report

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sectorscan/internal/interfaces"
	"github.com/ternarybob/sectorscan/internal/models"
	"github.com/ternarybob/sectorscan/internal/services/returns"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

type fakeSource struct {
	prices map[string]float64
}

func (f *fakeSource) GetHistory(ctx context.Context, symbol, period string) ([]models.PriceBar, error) {
	price, ok := f.prices[symbol]
	if !ok {
		return []models.PriceBar{}, nil
	}
	return []models.PriceBar{{Date: time.Now(), Close: price}}, nil
}

func (f *fakeSource) GetCompanyInfo(ctx context.Context, symbol string) (*models.CompanyInfo, error) {
	return nil, nil
}

func (f *fakeSource) GetDividendCalendar(ctx context.Context, symbol string) (*models.DividendCalendar, error) {
	return nil, nil
}

func (f *fakeSource) GetDividendHistory(ctx context.Context, symbol string) ([]models.DividendPayment, error) {
	return nil, nil
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

func newTestService(rows []models.CandidateRow, prices map[string]float64) *Service {
	logger := arbor.NewLogger()
	clock := &fakeClock{now: time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)}
	returnsSvc := returns.NewService(
		&fakeSource{prices: prices},
		&memCache{entries: make(map[string]*models.ReturnCacheEntry)},
		memHistory{},
		clock,
		logger,
	)
	return NewService(&memCandidates{rows: rows}, returnsSvc, logger)
}

func TestBuildSortsByDiff(t *testing.T) {
	rows := []models.CandidateRow{
		{Symbol: "AAPL", Sector: "Technology", SectorETF: "XLK", ReturnPct: 20, ETFReturnPct: 10},
		{Symbol: "NVDA", Sector: "Technology", SectorETF: "XLK", ReturnPct: 45, ETFReturnPct: 10},
		{Symbol: "XOM", Sector: "Energy", SectorETF: "XLE", ReturnPct: 8, ETFReturnPct: 5},
	}
	prices := map[string]float64{"AAPL": 230, "NVDA": 890, "XOM": 110, "XLK": 215, "XLE": 92}

	rep, err := newTestService(rows, prices).Build(context.Background(), models.CandidateFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rep.Rows))
	}

	// NVDA has the widest margin over its benchmark
	if rep.Rows[0].Symbol != "NVDA" || rep.Rows[0].DiffPct != 35 {
		t.Errorf("Expected NVDA first with diff 35, got %s %v", rep.Rows[0].Symbol, rep.Rows[0].DiffPct)
	}
	if rep.Rows[1].Symbol != "AAPL" || rep.Rows[2].Symbol != "XOM" {
		t.Errorf("Unexpected order %v, %v", rep.Rows[1].Symbol, rep.Rows[2].Symbol)
	}

	if rep.Rows[0].TickerPrice == nil || *rep.Rows[0].TickerPrice != 890 {
		t.Errorf("Expected NVDA price 890, got %v", rep.Rows[0].TickerPrice)
	}
	if rep.Rows[0].ETFPrice == nil || *rep.Rows[0].ETFPrice != 215 {
		t.Errorf("Expected XLK price 215, got %v", rep.Rows[0].ETFPrice)
	}
}

func TestBuildFinvizLinks(t *testing.T) {
	rows := []models.CandidateRow{
		{Symbol: "AAPL", SectorETF: "XLK", ReturnPct: 20, ETFReturnPct: 10},
		{Symbol: "NVDA", SectorETF: "XLK", ReturnPct: 45, ETFReturnPct: 10},
		{Symbol: "XOM", SectorETF: "XLE", ReturnPct: 8, ETFReturnPct: 5},
	}

	rep, err := newTestService(rows, nil).Build(context.Background(), models.CandidateFilter{})
	if err != nil {
		t.Fatal(err)
	}

	if len(rep.Links) != 2 {
		t.Fatalf("Expected one link per ETF, got %d", len(rep.Links))
	}
	if !strings.Contains(rep.Links[0], "t=XLK,AAPL,NVDA") {
		t.Errorf("Expected ETF-first symbol group, got %s", rep.Links[0])
	}
	if !strings.HasPrefix(rep.Links[0], "https://finviz.com/screener.ashx") {
		t.Errorf("Unexpected link %s", rep.Links[0])
	}
}

func TestBuildMissingPriceLeavesNil(t *testing.T) {
	rows := []models.CandidateRow{
		{Symbol: "AAPL", SectorETF: "XLK", ReturnPct: 20, ETFReturnPct: 10},
	}

	rep, err := newTestService(rows, map[string]float64{"XLK": 215}).Build(context.Background(), models.CandidateFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if rep.Rows[0].TickerPrice != nil {
		t.Errorf("Expected nil price when the provider has none, got %v", *rep.Rows[0].TickerPrice)
	}
	if rep.Rows[0].ETFPrice == nil {
		t.Error("Expected the ETF price to resolve")
	}
}

func TestBuildAppliesFilter(t *testing.T) {
	rows := []models.CandidateRow{
		{Symbol: "AAPL", SectorETF: "XLK", Outperforming: true},
		{Symbol: "XOM", SectorETF: "XLE", Outperforming: false},
	}

	rep, err := newTestService(rows, nil).Build(context.Background(), models.CandidateFilter{OnlyOutperforming: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Rows) != 1 || rep.Rows[0].Symbol != "AAPL" {
		t.Errorf("Expected only AAPL, got %v", rep.Rows)
	}
}

package returns

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sectorscan/internal/interfaces"
	"github.com/ternarybob/sectorscan/internal/models"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

type fakeSource struct {
	histories    map[string][]models.PriceBar
	historyErr   error
	historyCalls int
}

func (f *fakeSource) GetHistory(ctx context.Context, symbol, period string) ([]models.PriceBar, error) {
	f.historyCalls++
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.histories[symbol+"|"+period], nil
}

func (f *fakeSource) GetCompanyInfo(ctx context.Context, symbol string) (*models.CompanyInfo, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeSource) GetDividendCalendar(ctx context.Context, symbol string) (*models.DividendCalendar, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeSource) GetDividendHistory(ctx context.Context, symbol string) ([]models.DividendPayment, error) {
	return nil, fmt.Errorf("not implemented")
}

type memCache struct {
	entries map[string]*models.ReturnCacheEntry
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]*models.ReturnCacheEntry)}
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

type memHistory struct {
	histories map[string]*models.PriceHistory
}

func newMemHistory() *memHistory {
	return &memHistory{histories: make(map[string]*models.PriceHistory)}
}

func (h *memHistory) Get(ctx context.Context, symbol, period string) (*models.PriceHistory, error) {
	history, ok := h.histories[models.PriceHistoryKey(symbol, period)]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return history, nil
}

func (h *memHistory) Put(ctx context.Context, history *models.PriceHistory) error {
	h.histories[models.PriceHistoryKey(history.Symbol, history.Period)] = history
	return nil
}

func bars(closes ...float64) []models.PriceBar {
	out := make([]models.PriceBar, len(closes))
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		out[i] = models.PriceBar{Date: base.AddDate(0, 0, i), Close: c}
	}
	return out
}

func newTestService(source *fakeSource, clock *fakeClock) (*Service, *memCache) {
	cache := newMemCache()
	svc := NewService(source, cache, newMemHistory(), clock, arbor.NewLogger())
	return svc, cache
}

func TestGetOrFetchReturnComputesFraction(t *testing.T) {
	source := &fakeSource{histories: map[string][]models.PriceBar{
		"AAPL|6mo": bars(100, 105, 112.5),
	}}
	clock := &fakeClock{now: time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)}
	svc, _ := newTestService(source, clock)

	got := svc.GetOrFetchReturn(context.Background(), "AAPL", "6mo")
	if got == nil {
		t.Fatal("Expected a return, got nil")
	}
	// (112.5 - 100) / 100 = 0.125, fraction not percent
	if *got != 0.125 {
		t.Errorf("Expected 0.125, got %v", *got)
	}
}

func TestGetOrFetchReturnSecondCallHitsCache(t *testing.T) {
	source := &fakeSource{histories: map[string][]models.PriceBar{
		"AAPL|6mo": bars(100, 110),
	}}
	clock := &fakeClock{now: time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)}
	svc, _ := newTestService(source, clock)

	first := svc.GetOrFetchReturn(context.Background(), "AAPL", "6mo")
	second := svc.GetOrFetchReturn(context.Background(), "AAPL", "6mo")

	if first == nil || second == nil || *first != *second {
		t.Fatalf("Expected identical results, got %v and %v", first, second)
	}
	if source.historyCalls != 1 {
		t.Errorf("Expected 1 provider call, got %d", source.historyCalls)
	}
}

func TestGetOrFetchReturnDayRolloverRefetches(t *testing.T) {
	source := &fakeSource{histories: map[string][]models.PriceBar{
		"AAPL|6mo": bars(100, 110),
	}}
	clock := &fakeClock{now: time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)}
	svc, _ := newTestService(source, clock)

	svc.GetOrFetchReturn(context.Background(), "AAPL", "6mo")

	clock.now = clock.now.AddDate(0, 0, 1)
	svc.GetOrFetchReturn(context.Background(), "AAPL", "6mo")

	if source.historyCalls != 2 {
		t.Errorf("Expected a fresh fetch after the date changed, got %d calls", source.historyCalls)
	}
}

func TestGetOrFetchReturnNoNegativeCaching(t *testing.T) {
	tests := []struct {
		name string
		bars []models.PriceBar
	}{
		{"no data", nil},
		{"single bar", bars(100)},
		{"zero first close", bars(0, 100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &fakeSource{histories: map[string][]models.PriceBar{
				"AAPL|6mo": tt.bars,
			}}
			clock := &fakeClock{now: time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)}
			svc, cache := newTestService(source, clock)

			if got := svc.GetOrFetchReturn(context.Background(), "AAPL", "6mo"); got != nil {
				t.Errorf("Expected nil return, got %v", *got)
			}
			if count, _ := cache.Count(context.Background()); count != 0 {
				t.Errorf("Expected no cache write for unusable data, got %d entries", count)
			}

			// The miss is retried, not remembered
			svc.GetOrFetchReturn(context.Background(), "AAPL", "6mo")
			if source.historyCalls != 2 {
				t.Errorf("Expected retry on second call, got %d calls", source.historyCalls)
			}
		})
	}
}

func TestGetOrFetchReturnProviderErrorNotCached(t *testing.T) {
	source := &fakeSource{historyErr: fmt.Errorf("rate limited")}
	clock := &fakeClock{now: time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)}
	svc, cache := newTestService(source, clock)

	if got := svc.GetOrFetchReturn(context.Background(), "AAPL", "6mo"); got != nil {
		t.Errorf("Expected nil on provider failure, got %v", *got)
	}
	if count, _ := cache.Count(context.Background()); count != 0 {
		t.Errorf("Expected no cache write on failure, got %d entries", count)
	}
}

func TestGetOrFetchReturnRoundsToFourPlaces(t *testing.T) {
	source := &fakeSource{histories: map[string][]models.PriceBar{
		"AAPL|6mo": bars(3, 4), // 1/3 = 0.3333...
	}}
	clock := &fakeClock{now: time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)}
	svc, _ := newTestService(source, clock)

	got := svc.GetOrFetchReturn(context.Background(), "AAPL", "6mo")
	if got == nil || *got != 0.3333 {
		t.Errorf("Expected 0.3333, got %v", got)
	}
}

func TestGetOrFetchPrice(t *testing.T) {
	source := &fakeSource{histories: map[string][]models.PriceBar{
		"AAPL|1d": bars(231.456),
	}}
	clock := &fakeClock{now: time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)}
	svc, _ := newTestService(source, clock)

	got := svc.GetOrFetchPrice(context.Background(), "AAPL")
	if got == nil || *got != 231.46 {
		t.Fatalf("Expected 231.46, got %v", got)
	}

	svc.GetOrFetchPrice(context.Background(), "AAPL")
	if source.historyCalls != 1 {
		t.Errorf("Expected price served from cache on second call, got %d calls", source.historyCalls)
	}
}

func TestGetOrFetchHistoryCachesSeries(t *testing.T) {
	source := &fakeSource{histories: map[string][]models.PriceBar{
		"SPY|2y": bars(400, 420, 450),
	}}
	clock := &fakeClock{now: time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)}
	svc, _ := newTestService(source, clock)

	first := svc.GetOrFetchHistory(context.Background(), "SPY", "2y")
	second := svc.GetOrFetchHistory(context.Background(), "SPY", "2y")

	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("Expected 3 bars both times, got %d and %d", len(first), len(second))
	}
	if source.historyCalls != 1 {
		t.Errorf("Expected history served from store on second call, got %d calls", source.historyCalls)
	}
}

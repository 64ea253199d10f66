package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sectorscan/internal/models"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the base URL for the Yahoo Finance API.
	DefaultBaseURL = "https://query1.finance.yahoo.com"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second).
	// Deliberately low: the limiter doubles as the courtesy delay between
	// sequential fetches.
	DefaultRateLimit = 1

	// dividendLookback is the history range used to collect past payments.
	dividendLookback = "10y"

	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Client is a Yahoo Finance API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets a custom rate limit.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// NewClient creates a new Yahoo Finance API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// get performs a GET request to the API.
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return &RateLimitError{RetryAfter: time.Second}
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL = fmt.Sprintf("%s?%s", reqURL, params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	if c.logger != nil {
		c.logger.Debug().
			Str("url", c.baseURL+path).
			Msg("Yahoo Finance API request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{RetryAfter: time.Minute}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// chart fetches the chart endpoint for a symbol and lookback range.
func (c *Client) chart(ctx context.Context, symbol, period string, withDividends bool) (*chartResult, error) {
	params := url.Values{}
	params.Set("range", period)
	params.Set("interval", "1d")
	if withDividends {
		params.Set("events", "div")
	}

	path := "/v8/finance/chart/" + symbol

	var resp chartResponse
	if err := c.get(ctx, path, params, &resp); err != nil {
		return nil, err
	}

	if resp.Chart.Error != nil {
		return nil, &APIError{
			StatusCode: http.StatusOK,
			Message:    resp.Chart.Error.Description,
			Endpoint:   path,
		}
	}
	if len(resp.Chart.Result) == 0 {
		return nil, nil
	}

	return &resp.Chart.Result[0], nil
}

// GetHistory retrieves the daily close series for a symbol over a relative
// lookback period. Days without a close (halts, partial sessions) are
// dropped; the result is date-ascending. An empty slice means the provider
// has no data.
func (c *Client) GetHistory(ctx context.Context, symbol, period string) ([]models.PriceBar, error) {
	if !ValidPeriod(period) {
		return nil, fmt.Errorf("invalid period: %s", period)
	}

	result, err := c.chart(ctx, symbol, period, false)
	if err != nil {
		return nil, err
	}
	if result == nil || len(result.Indicators.Quote) == 0 {
		return []models.PriceBar{}, nil
	}

	closes := result.Indicators.Quote[0].Close
	bars := make([]models.PriceBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		bars = append(bars, models.PriceBar{
			Date:  time.Unix(ts, 0).UTC(),
			Close: *closes[i],
		})
	}

	return bars, nil
}

// GetCompanyInfo retrieves company metadata for a symbol. Option
// availability comes from a second request to the options endpoint, matching
// how the quote summary omits it.
func (c *Client) GetCompanyInfo(ctx context.Context, symbol string) (*models.CompanyInfo, error) {
	params := url.Values{}
	params.Set("modules", "assetProfile,price")

	path := "/v10/finance/quoteSummary/" + symbol

	var resp quoteSummaryResponse
	if err := c.get(ctx, path, params, &resp); err != nil {
		return nil, err
	}

	if resp.QuoteSummary.Error != nil {
		return nil, &APIError{
			StatusCode: http.StatusOK,
			Message:    resp.QuoteSummary.Error.Description,
			Endpoint:   path,
		}
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, &APIError{
			StatusCode: http.StatusOK,
			Message:    "empty quote summary",
			Endpoint:   path,
		}
	}

	result := resp.QuoteSummary.Result[0]

	info := &models.CompanyInfo{Symbol: symbol}
	if profile := result.AssetProfile; profile != nil {
		info.Sector = profile.Sector
		info.Industry = profile.Industry
		info.Country = profile.Country
	}
	if price := result.Price; price != nil {
		info.LongName = price.LongName
		if info.LongName == "" {
			info.LongName = price.ShortName
		}
		info.Currency = price.Currency
		info.QuoteType = price.QuoteType
		info.Exchange = price.ExchangeName
		info.MarketCap = price.MarketCap.Raw
	}

	hasOptions, err := c.hasListedOptions(ctx, symbol)
	if err != nil {
		// Not fatal: treat unknown option status as no options.
		if c.logger != nil {
			c.logger.Debug().Err(err).Str("symbol", symbol).Msg("Option chain lookup failed")
		}
	}
	info.HasOptions = hasOptions

	return info, nil
}

// GetDividendCalendar retrieves the upcoming ex-dividend date for a symbol,
// when the provider publishes one.
func (c *Client) GetDividendCalendar(ctx context.Context, symbol string) (*models.DividendCalendar, error) {
	params := url.Values{}
	params.Set("modules", "calendarEvents")

	path := "/v10/finance/quoteSummary/" + symbol

	var resp quoteSummaryResponse
	if err := c.get(ctx, path, params, &resp); err != nil {
		return nil, err
	}

	if resp.QuoteSummary.Error != nil {
		return nil, &APIError{
			StatusCode: http.StatusOK,
			Message:    resp.QuoteSummary.Error.Description,
			Endpoint:   path,
		}
	}

	calendar := &models.DividendCalendar{}
	if len(resp.QuoteSummary.Result) == 0 {
		return calendar, nil
	}

	events := resp.QuoteSummary.Result[0].CalendarEvents
	if events != nil && events.ExDividendDate != nil && events.ExDividendDate.Raw != nil {
		exDate := time.Unix(int64(*events.ExDividendDate.Raw), 0).UTC()
		calendar.ExDividendDate = &exDate
	}

	return calendar, nil
}

// GetDividendHistory retrieves historical dividend payments for a symbol,
// date-ascending. An empty slice means the symbol has never paid.
func (c *Client) GetDividendHistory(ctx context.Context, symbol string) ([]models.DividendPayment, error) {
	result, err := c.chart(ctx, symbol, dividendLookback, true)
	if err != nil {
		return nil, err
	}
	if result == nil || result.Events == nil || len(result.Events.Dividends) == 0 {
		return []models.DividendPayment{}, nil
	}

	payments := make([]models.DividendPayment, 0, len(result.Events.Dividends))
	for _, div := range result.Events.Dividends {
		payments = append(payments, models.DividendPayment{
			Date:   time.Unix(div.Date, 0).UTC(),
			Amount: div.Amount,
		})
	}
	sort.Slice(payments, func(i, j int) bool {
		return payments[i].Date.Before(payments[j].Date)
	})

	return payments, nil
}

// hasListedOptions checks whether the symbol has a listed option chain.
func (c *Client) hasListedOptions(ctx context.Context, symbol string) (bool, error) {
	path := "/v7/finance/options/" + symbol

	var resp optionsResponse
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return false, err
	}

	if resp.OptionChain.Error != nil {
		return false, &APIError{
			StatusCode: http.StatusOK,
			Message:    resp.OptionChain.Error.Description,
			Endpoint:   path,
		}
	}
	if len(resp.OptionChain.Result) == 0 {
		return false, nil
	}

	return len(resp.OptionChain.Result[0].ExpirationDates) > 0, nil
}

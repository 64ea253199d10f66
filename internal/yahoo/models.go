package yahoo

// Response envelopes for the Yahoo Finance v8/v10 endpoints. Numeric fields
// arrive as {"raw": n, "fmt": "..."} pairs; only the raw value is kept.

type apiFault struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type rawValue struct {
	Raw *float64 `json:"raw"`
}

// chart endpoint (/v8/finance/chart/{symbol})

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *apiFault     `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Timestamp  []int64      `json:"timestamp"`
	Events     *chartEvents `json:"events"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

type chartEvents struct {
	Dividends map[string]chartDividend `json:"dividends"`
}

type chartDividend struct {
	Amount float64 `json:"amount"`
	Date   int64   `json:"date"`
}

// quoteSummary endpoint (/v10/finance/quoteSummary/{symbol})

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []quoteSummaryResult `json:"result"`
		Error  *apiFault            `json:"error"`
	} `json:"quoteSummary"`
}

type quoteSummaryResult struct {
	AssetProfile   *assetProfile   `json:"assetProfile"`
	Price          *priceModule    `json:"price"`
	CalendarEvents *calendarEvents `json:"calendarEvents"`
}

type assetProfile struct {
	Sector   string `json:"sector"`
	Industry string `json:"industry"`
	Country  string `json:"country"`
}

type priceModule struct {
	LongName     string   `json:"longName"`
	ShortName    string   `json:"shortName"`
	Currency     string   `json:"currency"`
	QuoteType    string   `json:"quoteType"`
	ExchangeName string   `json:"exchangeName"`
	MarketCap    rawValue `json:"marketCap"`
}

type calendarEvents struct {
	ExDividendDate *rawValue `json:"exDividendDate"`
}

// options endpoint (/v7/finance/options/{symbol})

type optionsResponse struct {
	OptionChain struct {
		Result []struct {
			ExpirationDates []int64 `json:"expirationDates"`
		} `json:"result"`
		Error *apiFault `json:"error"`
	} `json:"optionChain"`
}

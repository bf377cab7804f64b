package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"resty.dev/v3"

	"stockhistory/internal/fetcher"
)

// DefaultBaseURL is the Alpha Vantage query endpoint
const DefaultBaseURL = "https://www.alphavantage.co/query"

// compactPoints is the number of trading days returned with outputsize=compact
const compactPoints = 100

// DailyResponse represents the AlphaVantage TIME_SERIES_DAILY response.
// Error and throttling notices arrive with HTTP 200 in the same document.
type DailyResponse struct {
	MetaData struct {
		Symbol   string `json:"2. Symbol"`
		TimeZone string `json:"5. Time Zone"`
	} `json:"Meta Data"`
	TimeSeries   map[string]DailyBar `json:"Time Series (Daily)"`
	ErrorMessage string              `json:"Error Message"`
	Note         string              `json:"Note"`
	Information  string              `json:"Information"`
}

// DailyBar is one day in the time series. All values are decimal strings.
type DailyBar struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

// HistoryClient fetches daily price history from AlphaVantage
type HistoryClient struct {
	apiKey string
	client *resty.Client
	logger *zap.Logger
	now    func() time.Time
}

type options struct {
	http fetcher.HTTPOptions
	now  func() time.Time
}

// Option configures a HistoryClient
type Option func(*options)

// WithTimeout bounds each request
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.http.Timeout = d }
}

// WithLogger sets the logger used for request diagnostics
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.http.Logger = logger }
}

// WithClock sets the clock the period window is measured from
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// NewHistoryClient creates a new daily history client
func NewHistoryClient(apiKey, baseURL string, opts ...Option) *HistoryClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	o := &options{now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	logger := o.http.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &HistoryClient{
		apiKey: apiKey,
		client: fetcher.NewHTTPClient(baseURL, o.http),
		logger: logger.Named("alphavantage"),
		now:    o.now,
	}
}

// History retrieves daily bars for symbol covering period. AlphaVantage has
// no range parameter, so the period is checked here and the series trimmed
// to its window.
func (c *HistoryClient) History(ctx context.Context, symbol, period string) (*fetcher.Table, error) {
	now := c.now().UTC()
	start, ok := fetcher.PeriodStart(period, now)
	if !ok {
		return nil, fetcher.NewInvalidArgumentError(0, fmt.Sprintf("unsupported period %q", period))
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"apikey":     c.apiKey,
			"function":   "TIME_SERIES_DAILY",
			"symbol":     symbol,
			"outputsize": outputSize(start, now),
		}).
		Get("")
	if err != nil {
		return nil, fetcher.ClassifyTransportError(err)
	}

	if !resp.IsSuccess() {
		return nil, fetcher.ClassifyHTTPError(resp.StatusCode())
	}

	var result DailyResponse
	if err := json.Unmarshal([]byte(resp.String()), &result); err != nil {
		return nil, fetcher.NewValidationError("malformed alphavantage response", err)
	}

	switch {
	case result.ErrorMessage != "":
		// AlphaVantage answers unknown symbols with an error message; treat as no data.
		c.logger.Debug("symbol rejected", zap.String("symbol", symbol), zap.String("message", result.ErrorMessage))
		return &fetcher.Table{Symbol: symbol}, nil
	case result.Note != "":
		return nil, fetcher.NewRateLimitError(resp.StatusCode(), result.Note)
	case result.Information != "":
		if isThrottleNotice(result.Information) {
			return nil, fetcher.NewRateLimitError(resp.StatusCode(), result.Information)
		}
		// Premium-only features and key problems are reported the same way.
		return nil, fetcher.NewClientError(0, result.Information)
	}

	table, err := toTable(symbol, result, start)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("daily series fetched",
		zap.String("symbol", symbol),
		zap.String("period", period),
		zap.Int("bars", table.Len()))

	return table, nil
}

// isThrottleNotice reports whether an Information notice is about request quotas
func isThrottleNotice(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "rate limit") || strings.Contains(msg, "call frequency")
}

// outputSize picks compact when the window fits in its trading days
func outputSize(start, now time.Time) string {
	// 100 trading days span roughly 140 calendar days
	if !start.IsZero() && now.Sub(start) <= compactPoints*7/5*24*time.Hour {
		return "compact"
	}
	return "full"
}

// toTable orders the series by date and keeps the days on or after start
func toTable(symbol string, result DailyResponse, start time.Time) (*fetcher.Table, error) {
	table := &fetcher.Table{
		Symbol:   symbol,
		Timezone: result.MetaData.TimeZone,
	}
	if result.MetaData.Symbol != "" {
		table.Symbol = result.MetaData.Symbol
	}

	startDay := start.Format(time.DateOnly)
	dates := make([]string, 0, len(result.TimeSeries))
	for date := range result.TimeSeries {
		// ISO dates order lexically
		if start.IsZero() || date >= startDay {
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)

	table.Bars = make([]fetcher.Bar, 0, len(dates))
	for _, date := range dates {
		day, err := time.Parse(time.DateOnly, date)
		if err != nil {
			return nil, fetcher.NewValidationError(fmt.Sprintf("invalid date %q in alphavantage series", date), err)
		}
		bar := result.TimeSeries[date]

		closePrice, err := strconv.ParseFloat(bar.Close, 64)
		if err != nil {
			return nil, fetcher.NewValidationError(fmt.Sprintf("invalid close %q on %s", bar.Close, date), err)
		}

		row := fetcher.Bar{Timestamp: day.Unix(), Close: closePrice, AdjClose: math.NaN()}
		for _, f := range []struct {
			name string
			raw  string
			dst  *float64
		}{
			{"open", bar.Open, &row.Open},
			{"high", bar.High, &row.High},
			{"low", bar.Low, &row.Low},
		} {
			if *f.dst, err = parseOptional(f.raw); err != nil {
				return nil, fetcher.NewValidationError(fmt.Sprintf("invalid %s %q on %s", f.name, f.raw, date), err)
			}
		}
		if row.Volume, err = parseOptionalInt(bar.Volume); err != nil {
			return nil, fetcher.NewValidationError(fmt.Sprintf("invalid volume %q on %s", bar.Volume, date), err)
		}

		table.Bars = append(table.Bars, row)
	}

	return table, nil
}

// parseOptional returns NaN for an absent price and an error for a malformed one
func parseOptional(s string) (float64, error) {
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// parseOptionalInt returns 0 for an absent count, like a null volume from the
// chart API, and an error for a malformed one
func parseOptionalInt(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

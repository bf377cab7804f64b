package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"go.uber.org/zap"
	"resty.dev/v3"

	"stockhistory/internal/fetcher"
)

// DefaultBaseURL is the public Yahoo Finance query host
const DefaultBaseURL = "https://query1.finance.yahoo.com"

const (
	chartPath     = "/v8/finance/chart/{symbol}"
	dailyInterval = "1d"

	errCodeNotFound      = "Not Found"
	errCodeBadRequest    = "Bad Request"
	errCodeUnprocessable = "Unprocessable Entity"
)

// ChartResponse is the Yahoo Finance v8 chart API response
type ChartResponse struct {
	Chart struct {
		Result []ChartResult `json:"result"`
		Error  *ChartError   `json:"error"`
	} `json:"chart"`
}

// ChartError is the error object Yahoo embeds in failed chart responses
type ChartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// ChartResult holds the history of one symbol. Price arrays are parallel to
// Timestamp and may contain nulls on days without a print.
type ChartResult struct {
	Meta struct {
		Currency             string `json:"currency"`
		Symbol               string `json:"symbol"`
		ExchangeTimezoneName string `json:"exchangeTimezoneName"`
		GMTOffset            int    `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*int64   `json:"volume"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

// Client fetches daily price history from the Yahoo Finance chart API
type Client struct {
	client *resty.Client
	logger *zap.Logger
}

type options struct {
	http fetcher.HTTPOptions
}

// Option configures a Client
type Option func(*options)

// WithTimeout bounds each chart request
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.http.Timeout = d }
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) Option {
	return func(o *options) { o.http.UserAgent = ua }
}

// WithLogger sets the logger used for request diagnostics
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.http.Logger = logger }
}

// NewClient creates a Yahoo chart client. An empty baseURL means DefaultBaseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	logger := o.http.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		client: fetcher.NewHTTPClient(baseURL, o.http),
		logger: logger.Named("yahoo"),
	}
}

// History retrieves daily bars for symbol over period. The period is passed
// to Yahoo as the chart range and is not checked locally.
func (c *Client) History(ctx context.Context, symbol, period string) (*fetcher.Table, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("symbol", symbol).
		SetQueryParams(map[string]string{
			"range":                period,
			"interval":             dailyInterval,
			"includeAdjustedClose": "true",
			"events":               "div,splits",
		}).
		Get(chartPath)
	if err != nil {
		return nil, fetcher.ClassifyTransportError(err)
	}

	var chart ChartResponse
	decodeErr := json.Unmarshal([]byte(resp.String()), &chart)

	if decodeErr == nil && chart.Chart.Error != nil {
		return c.chartError(symbol, resp.StatusCode(), chart.Chart.Error)
	}

	if !resp.IsSuccess() {
		switch resp.StatusCode() {
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			return nil, fetcher.NewInvalidArgumentError(resp.StatusCode(),
				fmt.Sprintf("yahoo rejected range %q", period))
		}
		return nil, fetcher.ClassifyHTTPError(resp.StatusCode())
	}

	if decodeErr != nil {
		return nil, fetcher.NewValidationError("malformed yahoo chart response", decodeErr)
	}

	if len(chart.Chart.Result) == 0 {
		c.logger.Debug("empty chart result", zap.String("symbol", symbol))
		return &fetcher.Table{Symbol: symbol}, nil
	}

	table, err := toTable(chart.Chart.Result[0])
	if err != nil {
		return nil, err
	}
	if table.Symbol == "" {
		table.Symbol = symbol
	}

	c.logger.Debug("chart fetched",
		zap.String("symbol", symbol),
		zap.String("range", period),
		zap.Int("bars", table.Len()))

	return table, nil
}

func (c *Client) chartError(symbol string, status int, chartErr *ChartError) (*fetcher.Table, error) {
	switch chartErr.Code {
	case errCodeNotFound:
		// Unknown and delisted symbols are indistinguishable from an empty range.
		c.logger.Debug("symbol not found", zap.String("symbol", symbol), zap.String("description", chartErr.Description))
		return &fetcher.Table{Symbol: symbol}, nil
	case errCodeBadRequest, errCodeUnprocessable:
		return nil, fetcher.NewInvalidArgumentError(status, chartErr.Description)
	}

	if status >= http.StatusBadRequest {
		fe := fetcher.ClassifyHTTPError(status)
		fe.Message = fmt.Sprintf("yahoo api error %s: %s", chartErr.Code, chartErr.Description)
		return nil, fe
	}
	return nil, fetcher.NewValidationError(
		fmt.Sprintf("yahoo api error %s: %s", chartErr.Code, chartErr.Description), nil)
}

// toTable turns a chart result into a typed table, keeping provider order.
func toTable(result ChartResult) (*fetcher.Table, error) {
	table := &fetcher.Table{
		Symbol:    result.Meta.Symbol,
		Currency:  result.Meta.Currency,
		Timezone:  result.Meta.ExchangeTimezoneName,
		UTCOffset: time.Duration(result.Meta.GMTOffset) * time.Second,
	}

	n := len(result.Timestamp)
	if n == 0 {
		return table, nil
	}
	if len(result.Indicators.Quote) == 0 {
		return nil, fetcher.NewValidationError("yahoo chart response has timestamps but no quotes", nil)
	}

	quote := result.Indicators.Quote[0]
	if len(quote.Close) < n {
		return nil, fetcher.NewValidationError(
			fmt.Sprintf("yahoo chart response has %d closes for %d timestamps", len(quote.Close), n), nil)
	}

	var adj []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adj = result.Indicators.AdjClose[0].AdjClose
	}

	table.Bars = make([]fetcher.Bar, n)
	for i, ts := range result.Timestamp {
		table.Bars[i] = fetcher.Bar{
			Timestamp: ts,
			Open:      at(quote.Open, i),
			High:      at(quote.High, i),
			Low:       at(quote.Low, i),
			Close:     at(quote.Close, i),
			AdjClose:  at(adj, i),
			Volume:    volumeAt(quote.Volume, i),
		}
	}

	return table, nil
}

// at returns values[i], or NaN when the cell is null or absent.
func at(values []*float64, i int) float64 {
	if i >= len(values) || values[i] == nil {
		return math.NaN()
	}
	return *values[i]
}

func volumeAt(values []*int64, i int) int64 {
	if i >= len(values) || values[i] == nil {
		return 0
	}
	return *values[i]
}

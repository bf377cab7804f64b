package testutil

import (
	"context"
	"encoding/json"
	"time"

	"stockhistory/internal/fetcher"
)

// StubFetcher is a function-backed history fetcher for coordinator tests
type StubFetcher struct {
	FetchFunc func(ctx context.Context, symbol, period string) (fetcher.QuoteSeries, error)
}

// Fetch implements coordinator.HistoryFetcher
func (s *StubFetcher) Fetch(ctx context.Context, symbol, period string) (fetcher.QuoteSeries, error) {
	if s.FetchFunc != nil {
		return s.FetchFunc(ctx, symbol, period)
	}
	return fetcher.QuoteSeries{}, nil
}

// NewStubFetcher returns canned series per symbol; symbols found in errs fail
// with that error and unknown symbols yield an empty series.
func NewStubFetcher(series map[string]fetcher.QuoteSeries, errs map[string]error) *StubFetcher {
	return &StubFetcher{
		FetchFunc: func(ctx context.Context, symbol, period string) (fetcher.QuoteSeries, error) {
			if err, ok := errs[symbol]; ok {
				return nil, err
			}
			if s, ok := series[symbol]; ok {
				return s, nil
			}
			return fetcher.QuoteSeries{}, nil
		},
	}
}

// ChartRow is one daily row of a simulated Yahoo chart response.
// Nil prices are sent as JSON null.
type ChartRow struct {
	Date     string
	Open     *float64
	High     *float64
	Low      *float64
	Close    *float64
	AdjClose *float64
	Volume   *int64
}

// Price returns a pointer to v, for building ChartRows
func Price(v float64) *float64 { return &v }

// Volume returns a pointer to v, for building ChartRows
func Volume(v int64) *int64 { return &v }

// YahooChart renders a Yahoo v8 chart body for symbol. Each row is stamped
// at 09:30 exchange time using gmtOffset seconds from UTC.
func YahooChart(symbol string, gmtOffset int, rows ...ChartRow) string {
	timestamps := make([]int64, 0, len(rows))
	var open, high, low, closes, adj []*float64
	var volume []*int64

	for _, r := range rows {
		day, err := time.Parse(time.DateOnly, r.Date)
		if err != nil {
			panic(err)
		}
		ts := day.Add(9*time.Hour + 30*time.Minute).Unix() - int64(gmtOffset)
		timestamps = append(timestamps, ts)
		open = append(open, r.Open)
		high = append(high, r.High)
		low = append(low, r.Low)
		closes = append(closes, r.Close)
		adj = append(adj, r.AdjClose)
		volume = append(volume, r.Volume)
	}

	result := map[string]any{
		"meta": map[string]any{
			"currency":             "USD",
			"symbol":               symbol,
			"exchangeTimezoneName": "America/New_York",
			"gmtoffset":            gmtOffset,
		},
		"indicators": map[string]any{
			"quote": []map[string]any{{
				"open":   open,
				"high":   high,
				"low":    low,
				"close":  closes,
				"volume": volume,
			}},
			"adjclose": []map[string]any{{"adjclose": adj}},
		},
	}
	if len(rows) > 0 {
		result["timestamp"] = timestamps
	}

	body, err := json.Marshal(map[string]any{
		"chart": map[string]any{
			"result": []any{result},
			"error":  nil,
		},
	})
	if err != nil {
		panic(err)
	}
	return string(body)
}

// YahooChartError renders a Yahoo chart body carrying an error object
func YahooChartError(code, description string) string {
	body, _ := json.Marshal(map[string]any{
		"chart": map[string]any{
			"result": nil,
			"error": map[string]string{
				"code":        code,
				"description": description,
			},
		},
	})
	return string(body)
}

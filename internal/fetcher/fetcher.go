package fetcher

import (
	"context"
	"fmt"
	"math"
)

// Fetcher retrieves daily closing-price history for a ticker and
// normalizes it into a QuoteSeries.
type Fetcher struct {
	source   Source
	adjusted bool
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithAdjustedClose selects the split and dividend adjusted close when the
// provider supplies one. Enabled by default.
func WithAdjustedClose(adjusted bool) Option {
	return func(f *Fetcher) {
		f.adjusted = adjusted
	}
}

// New creates a Fetcher backed by source
func New(source Source, opts ...Option) *Fetcher {
	f := &Fetcher{
		source:   source,
		adjusted: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch requests history for symbol over period and keeps only the closing
// price of each row. An empty period means DefaultPeriod.
//
// An unrecognized symbol returns an empty, non-nil series. Provider failures
// are returned unchanged in class (see ErrDataSourceUnavailable and
// ErrInvalidArgument) and never come with a partial series.
func (f *Fetcher) Fetch(ctx context.Context, symbol, period string) (QuoteSeries, error) {
	if period == "" {
		period = DefaultPeriod
	}

	table, err := f.source.History(ctx, symbol, period)
	if err != nil {
		return nil, fmt.Errorf("fetch %s history over %s: %w", symbol, period, err)
	}

	return Project(table, f.adjusted), nil
}

// Project reduces a provider table to (date, close) pairs in table order.
// When adjusted is set, a row's adjusted close wins over its raw close.
// Rows without a finite close carry no observation and are left out.
func Project(table *Table, adjusted bool) QuoteSeries {
	series := make(QuoteSeries, 0, table.Len())
	if table == nil {
		return series
	}

	for _, bar := range table.Bars {
		price := bar.Close
		if adjusted && !Missing(bar.AdjClose) {
			price = bar.AdjClose
		}
		if math.IsNaN(price) || math.IsInf(price, 0) {
			continue
		}
		series = append(series, Quote{
			Date:  CalendarDate(bar.Timestamp, table.UTCOffset),
			Close: price,
		})
	}

	return series
}

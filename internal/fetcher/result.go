package fetcher

// Result represents the outcome of fetching one symbol.
// It's sent through channels from worker goroutines to a coordinator
// that renders the series.
type Result struct {
	// Symbol is the ticker that was requested
	Symbol string

	// Series is the fetched closing-price history
	Series QuoteSeries

	// Error contains any error that occurred during the fetch operation.
	// If Error is not nil, Series is nil.
	Error error
}

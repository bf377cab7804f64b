package fetcher

// Quote is a single closing-price observation.
type Quote struct {
	// Date is the trading day as an ISO-8601 calendar date (YYYY-MM-DD)
	Date string `json:"date"`

	// Close is the closing price in the instrument's currency
	Close float64 `json:"close"`
}

// QuoteSeries is an ordered sequence of quotes, ascending by date.
// A series is built fresh on every fetch and belongs to the caller.
type QuoteSeries []Quote

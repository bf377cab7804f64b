package fetcher

import (
	"math"
	"time"
)

// Bar is one row of provider price history. Prices the provider left
// empty are NaN.
type Bar struct {
	Timestamp int64
	Open      float64
	High      float64
	Low       float64
	Close     float64
	AdjClose  float64
	Volume    int64
}

// Table is the date-indexed OHLCV history returned by a Source.
// Bars are kept in the order the provider sent them.
type Table struct {
	Symbol   string
	Currency string

	// Timezone is the exchange's zone name, informational only
	Timezone string

	// UTCOffset is the exchange's offset from UTC, used to place
	// bar timestamps on the exchange's calendar day
	UTCOffset time.Duration

	Bars []Bar
}

// Len returns the number of rows in the table. A nil table has none.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Bars)
}

// Missing reports whether a price cell is empty.
func Missing(v float64) bool {
	return math.IsNaN(v)
}

package fetcher

import "time"

// Period is a relative time range understood by market-data providers.
type Period string

// Period vocabulary accepted by the providers.
const (
	Period1d  Period = "1d"
	Period5d  Period = "5d"
	Period1mo Period = "1mo"
	Period3mo Period = "3mo"
	Period6mo Period = "6mo"
	Period1y  Period = "1y"
	Period2y  Period = "2y"
	Period5y  Period = "5y"
	Period10y Period = "10y"
	PeriodYTD Period = "ytd"
	PeriodMax Period = "max"
)

// DefaultPeriod is used when the caller does not name a period.
const DefaultPeriod = string(Period5y)

// PeriodStart returns the first instant covered by period when it ends at now.
// The max period starts at the zero time. ok is false for anything outside the
// vocabulary.
//
// Providers that take a range argument natively do not need this; it exists
// for providers that only return a fixed window and must be trimmed locally.
func PeriodStart(period string, now time.Time) (start time.Time, ok bool) {
	switch Period(period) {
	case Period1d:
		return now.AddDate(0, 0, -1), true
	case Period5d:
		return now.AddDate(0, 0, -5), true
	case Period1mo:
		return now.AddDate(0, -1, 0), true
	case Period3mo:
		return now.AddDate(0, -3, 0), true
	case Period6mo:
		return now.AddDate(0, -6, 0), true
	case Period1y:
		return now.AddDate(-1, 0, 0), true
	case Period2y:
		return now.AddDate(-2, 0, 0), true
	case Period5y:
		return now.AddDate(-5, 0, 0), true
	case Period10y:
		return now.AddDate(-10, 0, 0), true
	case PeriodYTD:
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()), true
	case PeriodMax:
		return time.Time{}, true
	}
	return time.Time{}, false
}

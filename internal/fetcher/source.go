package fetcher

import "context"

//go:generate mockgen -source=source.go -destination=../testutil/mock_source.go -package=testutil

// Source is the external market-data collaborator. Implementations request
// daily price history for symbol over period and return it as a Table.
//
// An unknown symbol yields an empty Table, not an error. Failures are
// reported as *FetchError so callers can match ErrDataSourceUnavailable
// or ErrInvalidArgument.
type Source interface {
	History(ctx context.Context, symbol, period string) (*Table, error)
}

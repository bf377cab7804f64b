package coordinator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"stockhistory/internal/fetcher"
	"stockhistory/internal/render"
)

// HistoryFetcher is the part of fetcher.Fetcher the coordinator needs
type HistoryFetcher interface {
	Fetch(ctx context.Context, symbol, period string) (fetcher.QuoteSeries, error)
}

// Coordinator runs independent history fetches for several symbols and
// renders the results
type Coordinator struct {
	fetcher HistoryFetcher
	period  string
	out     io.Writer
	format  render.Format
	logger  *zap.Logger
}

// New creates a new Coordinator writing rendered series to out
func New(f HistoryFetcher, period string, out io.Writer, format render.Format, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		fetcher: f,
		period:  period,
		out:     out,
		format:  format,
		logger:  logger,
	}
}

// Collect fetches every symbol concurrently. Each symbol runs in its own
// goroutine and reports through a shared channel; results come back in the
// order the symbols were given.
func (c *Coordinator) Collect(ctx context.Context, symbols []string) []fetcher.Result {
	type indexed struct {
		index  int
		result fetcher.Result
	}

	resultChan := make(chan indexed, len(symbols))

	var wg sync.WaitGroup
	for i, symbol := range symbols {
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()

			series, err := c.fetcher.Fetch(ctx, symbol, c.period)
			if err != nil {
				series = nil
			}
			resultChan <- indexed{
				index: i,
				result: fetcher.Result{
					Symbol: symbol,
					Series: series,
					Error:  err,
				},
			}
		}(i, symbol)
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	results := make([]fetcher.Result, len(symbols))
	for r := range resultChan {
		results[r.index] = r.result
	}
	return results
}

// Run fetches all distinct symbols, writes the successful series and logs each
// failure. It returns an error when any symbol failed; the output still
// holds every series that was fetched.
func (c *Coordinator) Run(ctx context.Context, symbols []string) error {
	if len(symbols) == 0 {
		return errors.New("no symbols requested")
	}

	symbols = uniqueSymbols(symbols)
	results := c.Collect(ctx, symbols)

	failed := 0
	for _, result := range results {
		if result.Error != nil {
			failed++
			c.logger.Error("fetch failed",
				zap.String("symbol", result.Symbol),
				zap.Bool("invalid_argument", errors.Is(result.Error, fetcher.ErrInvalidArgument)),
				zap.Error(result.Error))
			continue
		}
		if len(result.Series) == 0 {
			c.logger.Warn("no data for symbol in range",
				zap.String("symbol", result.Symbol),
				zap.String("period", c.period))
		}
	}

	if failed < len(results) {
		if err := render.Write(c.out, c.format, results); err != nil {
			return fmt.Errorf("failed to write results: %w", err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d symbols failed", failed, len(results))
	}
	return nil
}

// uniqueSymbols drops repeated tickers, keeping first-seen order.
func uniqueSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	unique := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		unique = append(unique, s)
	}
	return unique
}

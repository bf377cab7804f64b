// Package render writes fetched series in the output contract: ordered
// records of {date, close}.
package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"stockhistory/internal/fetcher"
)

// Format selects the output encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat validates a user-supplied format name
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatCSV:
		return Format(s), nil
	case "":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unsupported output format %q (want json or csv)", s)
}

// Write renders the successful results to w. A request for a single symbol is
// written as a bare series; several are keyed by symbol even when only one of
// them succeeded. Failed results are skipped.
func Write(w io.Writer, format Format, results []fetcher.Result) error {
	multi := len(results) != 1

	ok := make([]fetcher.Result, 0, len(results))
	for _, r := range results {
		if r.Error == nil {
			ok = append(ok, r)
		}
	}

	switch format {
	case FormatJSON, "":
		return writeJSON(w, ok, multi)
	case FormatCSV:
		return writeCSV(w, ok, multi)
	}
	return fmt.Errorf("unsupported output format %q", format)
}

func writeJSON(w io.Writer, results []fetcher.Result, multi bool) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if !multi {
		if len(results) == 0 {
			return enc.Encode(fetcher.QuoteSeries{})
		}
		return enc.Encode(nonNil(results[0].Series))
	}

	bySymbol := make(map[string]fetcher.QuoteSeries, len(results))
	for _, r := range results {
		bySymbol[r.Symbol] = nonNil(r.Series)
	}
	return enc.Encode(bySymbol)
}

func writeCSV(w io.Writer, results []fetcher.Result, multi bool) error {
	cw := csv.NewWriter(w)

	header := []string{"date", "close"}
	if multi {
		header = append([]string{"symbol"}, header...)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range results {
		for _, q := range r.Series {
			row := []string{q.Date, strconv.FormatFloat(q.Close, 'f', -1, 64)}
			if multi {
				row = append([]string{r.Symbol}, row...)
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

func nonNil(s fetcher.QuoteSeries) fetcher.QuoteSeries {
	if s == nil {
		return fetcher.QuoteSeries{}
	}
	return s
}

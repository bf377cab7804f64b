package fetcher_test

import (
	"context"
	"errors"
	"math"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"stockhistory/internal/fetcher"
	"stockhistory/internal/testutil"
)

var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// nyse places bars at 09:30 New York time (UTC-4 in June)
const nyseOffset = -4 * time.Hour

func bar(date string, open, high, low, closePrice float64, volume int64) fetcher.Bar {
	day, err := time.Parse(time.DateOnly, date)
	if err != nil {
		panic(err)
	}
	ts := day.Add(9*time.Hour + 30*time.Minute - nyseOffset).Unix()
	return fetcher.Bar{
		Timestamp: ts,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closePrice,
		AdjClose:  math.NaN(),
		Volume:    volume,
	}
}

func nvdaTable() *fetcher.Table {
	return &fetcher.Table{
		Symbol:    "NVDA",
		Currency:  "USD",
		Timezone:  "America/New_York",
		UTCOffset: nyseOffset,
		Bars: []fetcher.Bar{
			bar("2023-06-01", 297.50, 301.00, 295.10, 300.12, 41000000),
			bar("2023-06-02", 301.20, 306.80, 300.00, 305.40, 39000000),
		},
	}
}

func TestFetch_ExampleScenario(t *testing.T) {
	t.Parallel()

	// Arrange: a provider returning two OHLCV rows for NVDA
	ctrl := gomock.NewController(t)
	source := testutil.NewMockSource(ctrl)
	source.EXPECT().
		History(gomock.Any(), "NVDA", "5y").
		Return(nvdaTable(), nil).
		Times(1)

	// Act
	series, err := fetcher.New(source).Fetch(context.Background(), "NVDA", "5y")

	// Assert: only date and close survive, in provider order
	require.NoError(t, err)
	assert.Equal(t, fetcher.QuoteSeries{
		{Date: "2023-06-01", Close: 300.12},
		{Date: "2023-06-02", Close: 305.40},
	}, series)
}

func TestFetch_DefaultPeriod(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	source := testutil.NewMockSource(ctrl)
	source.EXPECT().
		History(gomock.Any(), "AAPL", fetcher.DefaultPeriod).
		Return(&fetcher.Table{Symbol: "AAPL"}, nil)

	_, err := fetcher.New(source).Fetch(context.Background(), "AAPL", "")
	require.NoError(t, err)
	assert.Equal(t, "5y", fetcher.DefaultPeriod)
}

func TestFetch_PassesContextAndPeriodThrough(t *testing.T) {
	t.Parallel()

	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "marker")

	ctrl := gomock.NewController(t)
	source := testutil.NewMockSource(ctrl)
	source.EXPECT().
		History(gomock.Any(), "MSFT", "1mo").
		DoAndReturn(func(got context.Context, symbol, period string) (*fetcher.Table, error) {
			assert.Equal(t, "marker", got.Value(ctxKey{}))
			return &fetcher.Table{}, nil
		})

	_, err := fetcher.New(source).Fetch(ctx, "MSFT", "1mo")
	require.NoError(t, err)
}

func TestFetch_ShapeAndOrdering(t *testing.T) {
	t.Parallel()

	table := &fetcher.Table{UTCOffset: nyseOffset}
	start := time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 60; i++ {
		day := start.AddDate(0, 0, i)
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		table.Bars = append(table.Bars, bar(day.Format(time.DateOnly), 10, 12, 9, 10+float64(i)/4, 1000))
	}

	ctrl := gomock.NewController(t)
	source := testutil.NewMockSource(ctrl)
	source.EXPECT().History(gomock.Any(), gomock.Any(), gomock.Any()).Return(table, nil)

	series, err := fetcher.New(source).Fetch(context.Background(), "SPY", "3mo")
	require.NoError(t, err)

	// One entry per distinct trading date
	require.Len(t, series, len(table.Bars))

	for i, q := range series {
		assert.Regexp(t, isoDate, q.Date)
		assert.False(t, math.IsNaN(q.Close) || math.IsInf(q.Close, 0), "close must be finite")
		if i > 0 {
			assert.LessOrEqual(t, series[i-1].Date, q.Date)
		}
	}
}

func TestFetch_EmptyResultIsNotAnError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		table *fetcher.Table
	}{
		{"empty table", &fetcher.Table{Symbol: "ZZZZZZ"}},
		{"nil table", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			source := testutil.NewMockSource(ctrl)
			source.EXPECT().History(gomock.Any(), "ZZZZZZ", "5y").Return(tt.table, nil)

			series, err := fetcher.New(source).Fetch(context.Background(), "ZZZZZZ", "5y")
			require.NoError(t, err)
			require.NotNil(t, series)
			assert.Empty(t, series)
		})
	}
}

func TestFetch_ErrorPropagation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		wantIs  error
		wantNot error
	}{
		{
			name:    "connectivity failure",
			err:     fetcher.NewNetworkError(errors.New("connection refused")),
			wantIs:  fetcher.ErrDataSourceUnavailable,
			wantNot: fetcher.ErrInvalidArgument,
		},
		{
			name:    "timeout",
			err:     fetcher.NewTimeoutError(context.DeadlineExceeded),
			wantIs:  fetcher.ErrDataSourceUnavailable,
			wantNot: fetcher.ErrInvalidArgument,
		},
		{
			name:    "malformed data",
			err:     fetcher.NewValidationError("malformed", nil),
			wantIs:  fetcher.ErrDataSourceUnavailable,
			wantNot: fetcher.ErrInvalidArgument,
		},
		{
			name:    "unknown period",
			err:     fetcher.NewInvalidArgumentError(422, "Invalid input - range=7y"),
			wantIs:  fetcher.ErrInvalidArgument,
			wantNot: fetcher.ErrDataSourceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			source := testutil.NewMockSource(ctrl)
			source.EXPECT().History(gomock.Any(), "NVDA", "5y").Return(nvdaTable(), tt.err)

			series, err := fetcher.New(source).Fetch(context.Background(), "NVDA", "5y")

			// No partial series alongside an error
			require.Error(t, err)
			assert.Nil(t, series)
			assert.ErrorIs(t, err, tt.wantIs)
			assert.NotErrorIs(t, err, tt.wantNot)

			var fe *fetcher.FetchError
			require.ErrorAs(t, err, &fe)
		})
	}
}

func TestProject_ColumnIsolation(t *testing.T) {
	t.Parallel()

	series := fetcher.Project(nvdaTable(), true)

	for _, q := range series {
		// Open, high, low and volume differ from every close in the fixture
		for _, other := range []float64{297.50, 301.00, 295.10, 301.20, 306.80, 300.00, 41000000, 39000000} {
			assert.NotEqual(t, other, q.Close)
		}
	}
	assert.Equal(t, []float64{300.12, 305.40}, []float64{series[0].Close, series[1].Close})
}

func TestProject_AdjustedClose(t *testing.T) {
	t.Parallel()

	table := nvdaTable()
	table.Bars[0].AdjClose = 299.90

	t.Run("adjusted preferred when present", func(t *testing.T) {
		series := fetcher.Project(table, true)
		assert.Equal(t, 299.90, series[0].Close)
		assert.Equal(t, 305.40, series[1].Close, "falls back to raw close")
	})

	t.Run("raw close when disabled", func(t *testing.T) {
		series := fetcher.Project(table, false)
		assert.Equal(t, 300.12, series[0].Close)
	})

	t.Run("fetcher option", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		source := testutil.NewMockSource(ctrl)
		source.EXPECT().History(gomock.Any(), gomock.Any(), gomock.Any()).Return(table, nil)

		series, err := fetcher.New(source, fetcher.WithAdjustedClose(false)).Fetch(context.Background(), "NVDA", "5y")
		require.NoError(t, err)
		assert.Equal(t, 300.12, series[0].Close)
	})
}

func TestProject_SkipsRowsWithoutClose(t *testing.T) {
	t.Parallel()

	table := nvdaTable()
	table.Bars = append(table.Bars, bar("2023-06-05", 1, 1, 1, math.NaN(), 0))
	table.Bars = append(table.Bars, bar("2023-06-06", 1, 1, 1, 310.01, 0))

	series := fetcher.Project(table, true)
	require.Len(t, series, 3)
	assert.Equal(t, "2023-06-06", series[2].Date)
}

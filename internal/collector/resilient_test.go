package collector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AgroMonitor/internal/model"
)

// newTestFetcher returns a fetcher that records pauses instead of sleeping.
func newTestFetcher(src Source, opts Options) (*ResilientFetcher, *[]time.Duration) {
	f := NewResilientFetcher(src, opts, nil)
	var pauses []time.Duration
	f.sleep = func(_ context.Context, d time.Duration) error {
		pauses = append(pauses, d)
		return nil
	}
	return f, &pauses
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.RateLimit = 0
	return opts
}

func TestFetchPriceSeries_RecoversOnThirdAttempt(t *testing.T) {
	src := NewMockSource(100, 60)
	src.FailuresLeft["ohlcv:SLCE3.SA"] = 2
	f, pauses := newTestFetcher(src, testOptions())

	res := f.FetchPriceSeries(context.Background(), "SLCE3.SA", "1y")
	require.Equal(t, StatusSuccess, res.Status)
	assert.NoError(t, res.Err)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, 60, res.Series.Len())
	assert.Equal(t, []time.Duration{time.Second, 1500 * time.Millisecond}, *pauses)
}

func TestFetchPriceSeries_AllAttemptsFail(t *testing.T) {
	src := NewMockSource(100, 60)
	src.FailuresLeft["ohlcv:SLCE3.SA"] = 3
	f, pauses := newTestFetcher(src, testOptions())

	res := f.FetchPriceSeries(context.Background(), "SLCE3.SA", "1y")
	assert.Equal(t, StatusUnavailable, res.Status)
	assert.Nil(t, res.Series)
	assert.ErrorIs(t, res.Err, ErrUnavailable)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, 3, src.Calls["ohlcv:SLCE3.SA"])
	assert.Len(t, *pauses, 2)
}

func TestFetchPriceSeries_ShortSeriesIsUnavailable(t *testing.T) {
	for _, bars := range []int{0, 1, 30, 49} {
		src := NewMockSource(100, bars)
		f, _ := newTestFetcher(src, testOptions())

		res := f.FetchPriceSeries(context.Background(), "KNCA11.SA", "1y")
		assert.Equal(t, StatusUnavailable, res.Status, "bars=%d", bars)
		assert.Equal(t, 3, src.Calls["ohlcv:KNCA11.SA"], "short payloads are retried")
		if bars > 0 {
			assert.ErrorIs(t, res.Err, ErrInsufficientBars, "bars=%d", bars)
		} else {
			assert.ErrorIs(t, res.Err, ErrEmptyPayload)
		}
	}

	src := NewMockSource(100, 50)
	f, _ := newTestFetcher(src, testOptions())
	res := f.FetchPriceSeries(context.Background(), "KNCA11.SA", "1y")
	assert.Equal(t, StatusSuccess, res.Status)
}

func TestFetchPriceSeries_CollapsesMultiLevelColumns(t *testing.T) {
	src := NewMockSource(100, 60)
	src.MultiLevel = true
	f, _ := newTestFetcher(src, testOptions())

	res := f.FetchPriceSeries(context.Background(), "ZC=F", "1y")
	require.Equal(t, StatusSuccess, res.Status)
	last := res.Series.Bars[59]
	assert.Greater(t, last.Close, 0.0)
	assert.Greater(t, last.High, last.Low)
	assert.Equal(t, 1000000.0, last.Volume)
}

func TestFetchPriceSeries_MalformedIsRetried(t *testing.T) {
	src := NewMockSource(100, 60)
	frame := MockFrame("BEEF3.SA", make([]float64, 60), false)
	frame.Columns = frame.Columns[:3] // no close or volume
	src.Frames["BEEF3.SA"] = frame
	f, _ := newTestFetcher(src, testOptions())

	res := f.FetchPriceSeries(context.Background(), "BEEF3.SA", "1y")
	assert.Equal(t, StatusUnavailable, res.Status)
	assert.ErrorIs(t, res.Err, ErrMalformedPayload)
	assert.Equal(t, 3, src.Calls["ohlcv:BEEF3.SA"])
}

func TestFetchPriceSeries_Memo(t *testing.T) {
	src := NewMockSource(100, 60)
	f, _ := newTestFetcher(src, testOptions())
	ctx := context.Background()

	first := f.FetchPriceSeries(ctx, "DE", "1y")
	second := f.FetchPriceSeries(ctx, "DE", "1y")
	assert.Same(t, first.Series, second.Series)
	assert.Equal(t, 1, src.Calls["ohlcv:DE"])

	f.FetchPriceSeries(ctx, "DE", "2y")
	assert.Equal(t, 2, src.Calls["ohlcv:DE"])

	f.ResetMemo()
	f.FetchPriceSeries(ctx, "DE", "1y")
	assert.Equal(t, 3, src.Calls["ohlcv:DE"])
}

func TestFetchPriceSeries_CancelledContext(t *testing.T) {
	src := NewMockSource(100, 60)
	f := NewResilientFetcher(src, testOptions(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := f.FetchPriceSeries(ctx, "DE", "1y")
	assert.Equal(t, StatusUnavailable, res.Status)
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Equal(t, 1, res.Attempts)
	assert.Zero(t, src.Calls["ohlcv:DE"])
}

func TestFetchFundamentals_Success(t *testing.T) {
	src := NewMockSource(50, 60)
	src.Info["SLCE3.SA"] = map[string]float64{
		"trailingPE":     9.5,
		"priceToBook":    1.4,
		"dividendYield":  0.071,
		"returnOnEquity": 0.18,
	}
	f, _ := newTestFetcher(src, testOptions())

	res := f.FetchFundamentals(context.Background(), "SLCE3.SA")
	require.Equal(t, StatusSuccess, res.Status)
	s := res.Snapshot
	assert.Equal(t, 9.5, s.PriceEarnings)
	assert.Equal(t, 1.4, s.PriceBook)
	assert.InDelta(t, 7.1, s.DividendYield, 1e-9)
	assert.InDelta(t, 18.0, s.ReturnOnEquity, 1e-9)
	assert.False(t, s.ManualYield)
	assert.Zero(t, src.Calls["dividends:SLCE3.SA"])
}

func TestFetchFundamentals_ZeroYieldFallsBackToManual(t *testing.T) {
	src := NewMockSource(50, 60)
	src.Info["KNCA11.SA"] = map[string]float64{"priceToBook": 0.95, "dividendYield": 0}
	src.Dividends["KNCA11.SA"] = []model.Dividend{
		{Date: time.Now().AddDate(0, -1, 0), Amount: 1.00},
		{Date: time.Now().AddDate(0, -6, 0), Amount: 2.00},
		{Date: time.Now().AddDate(-2, 0, 0), Amount: 9.00},
	}
	src.Frames["KNCA11.SA"] = MockFrame("KNCA11.SA", []float64{50}, true)
	f, _ := newTestFetcher(src, testOptions())

	res := f.FetchFundamentals(context.Background(), "KNCA11.SA")
	require.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, 0.95, res.Snapshot.PriceBook)
	assert.InDelta(t, 6.0, res.Snapshot.DividendYield, 1e-9)
	assert.True(t, res.Snapshot.ManualYield)
}

func TestFetchFundamentals_ExhaustedRetriesDegrade(t *testing.T) {
	src := NewMockSource(50, 60)
	src.FailuresLeft["info:VGIA11.SA"] = 3
	src.Dividends["VGIA11.SA"] = []model.Dividend{
		{Date: time.Now().AddDate(0, -3, 0), Amount: 1.00},
		{Date: time.Now().AddDate(0, -9, 0), Amount: 2.00},
	}
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 40
	}
	closes[59] = 50
	src.Frames["VGIA11.SA"] = MockFrame("VGIA11.SA", closes, false)
	f, pauses := newTestFetcher(src, testOptions())
	ctx := context.Background()

	// The memoised series supplies the latest close.
	require.Equal(t, StatusSuccess, f.FetchPriceSeries(ctx, "VGIA11.SA", "1y").Status)

	res := f.FetchFundamentals(ctx, "VGIA11.SA")
	assert.Equal(t, StatusPartial, res.Status)
	assert.ErrorIs(t, res.Err, ErrUnavailable)
	require.NotNil(t, res.Snapshot)
	assert.Zero(t, res.Snapshot.PriceEarnings)
	assert.Zero(t, res.Snapshot.PriceBook)
	assert.Zero(t, res.Snapshot.ReturnOnEquity)
	assert.InDelta(t, 6.0, res.Snapshot.DividendYield, 1e-9)
	assert.True(t, res.Snapshot.ManualYield)
	assert.Len(t, *pauses, 2)
}

func TestFetchFundamentals_EmptyInfoIsRetried(t *testing.T) {
	src := NewMockSource(50, 60)
	f, _ := newTestFetcher(src, testOptions())

	res := f.FetchFundamentals(context.Background(), "AGRO3.SA")
	assert.Equal(t, StatusPartial, res.Status)
	assert.ErrorIs(t, res.Err, ErrEmptyPayload)
	assert.Equal(t, 3, src.Calls["info:AGRO3.SA"])
	assert.Zero(t, res.Snapshot.DividendYield)
}

func TestLatestPrice(t *testing.T) {
	ctx := context.Background()

	src := NewMockSource(48, 60)
	src.Frames["RZAG11.SA"] = MockFrame("RZAG11.SA", []float64{47, 48}, false)
	src.FailuresLeft["ohlcv:RZAG11.SA"] = 1 // the 1d download fails
	f, _ := newTestFetcher(src, testOptions())
	assert.Equal(t, 48.0, f.latestPrice(ctx, "RZAG11.SA"))
	assert.Equal(t, 2, src.Calls["ohlcv:RZAG11.SA"])

	// A session without a close yields no price at all.
	src = NewMockSource(48, 60)
	src.Frames["RZAG11.SA"] = MockFrame("RZAG11.SA", []float64{math.NaN()}, false)
	f, _ = newTestFetcher(src, testOptions())
	assert.Zero(t, f.latestPrice(ctx, "RZAG11.SA"))
	assert.Equal(t, 2, src.Calls["ohlcv:RZAG11.SA"])
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	src := NewMockSource(100, 60)
	src.FailuresLeft["ohlcv:ADM"] = 100
	opts := testOptions()
	opts.BreakerFailures = 2
	opts.BreakerTimeout = time.Hour
	f, _ := newTestFetcher(src, opts)

	res := f.FetchPriceSeries(context.Background(), "ADM", "1y")
	assert.Equal(t, StatusUnavailable, res.Status)
	assert.ErrorIs(t, res.Err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, src.Calls["ohlcv:ADM"], "third attempt short-circuits")
}

func TestBreakerIgnoresSymbolFaults(t *testing.T) {
	src := NewMockSource(100, 60)
	src.FailWith = &StatusError{Source: "mock", Code: http.StatusNotFound, Body: "Not Found"}
	opts := testOptions()
	opts.BreakerFailures = 2
	opts.BreakerTimeout = time.Hour
	f, _ := newTestFetcher(src, opts)
	ctx := context.Background()

	for _, sym := range []string{"DEAD1", "DEAD2", "DEAD3"} {
		src.FailuresLeft["ohlcv:"+sym] = 3
		res := f.FetchPriceSeries(ctx, sym, "1y")
		assert.Equal(t, StatusUnavailable, res.Status)
		assert.NotErrorIs(t, res.Err, gobreaker.ErrOpenState)
		assert.Equal(t, 3, src.Calls["ohlcv:"+sym], "every attempt reaches the upstream")
	}

	res := f.FetchPriceSeries(ctx, "ADM", "1y")
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, 1, src.Calls["ohlcv:ADM"])
	assert.Equal(t, gobreaker.StateClosed, f.breaker.State())
}

func TestSymbolFault(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{&StatusError{Code: http.StatusNotFound}, true},
		{fmt.Errorf("wrapped: %w", &StatusError{Code: http.StatusBadRequest}), true},
		{&StatusError{Code: http.StatusTooManyRequests}, false},
		{&StatusError{Code: http.StatusBadGateway}, false},
		{&StatusError{Code: http.StatusUnauthorized}, false},
		{fmt.Errorf("%w: no data found, symbol may be delisted", ErrSymbolRejected), true},
		{ErrEmptyPayload, true},
		{fmt.Errorf("%w: decode", ErrMalformedPayload), true},
		{context.Canceled, true},
		{context.DeadlineExceeded, false},
		{errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, symbolFault(tt.err))
		})
	}
}

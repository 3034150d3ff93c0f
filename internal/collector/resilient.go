package collector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"AgroMonitor/internal/calculator"
	"AgroMonitor/internal/metrics"
	"AgroMonitor/internal/model"
)

var (
	// ErrUnavailable wraps the last cause once every attempt has failed.
	ErrUnavailable = errors.New("upstream unavailable")

	ErrEmptyPayload     = errors.New("empty payload")
	ErrInsufficientBars = errors.New("insufficient bars")
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrSymbolRejected marks an upstream refusing a symbol, e.g. a delisted ticker.
	ErrSymbolRejected = errors.New("symbol rejected")
)

// Status classifies the outcome of a resilient fetch.
type Status int

const (
	StatusSuccess Status = iota
	// StatusPartial means a degraded but usable payload was produced.
	StatusPartial
	StatusUnavailable
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusPartial:
		return "partial"
	case StatusUnavailable:
		return "unavailable"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// SeriesResult is the outcome of FetchPriceSeries. Series is nil unless
// Status is StatusSuccess.
type SeriesResult struct {
	Series   *model.PriceSeries
	Status   Status
	Attempts int
	Err      error
}

// FundamentalsResult is the outcome of FetchFundamentals. Snapshot is never nil.
type FundamentalsResult struct {
	Snapshot *model.FundamentalSnapshot
	Status   Status
	Attempts int
	Err      error
}

// Options tunes the retry budget and upstream protection.
type Options struct {
	Attempts        int
	Pauses          []time.Duration // pause before the 2nd, 3rd... attempt; the last one repeats
	MinBars         int
	RateLimit       float64 // upstream calls per second, <= 0 disables
	RateBurst       int
	BreakerFailures uint32 // consecutive failures that open the breaker
	BreakerTimeout  time.Duration
}

// DefaultOptions returns the standard budget: 3 attempts paced 1s then 1.5s.
func DefaultOptions() Options {
	return Options{
		Attempts:        3,
		Pauses:          []time.Duration{time.Second, 1500 * time.Millisecond},
		MinBars:         50,
		RateLimit:       2,
		RateBurst:       1,
		BreakerFailures: 15,
		BreakerTimeout:  30 * time.Second,
	}
}

type memoKey struct {
	symbol   string
	lookback string
}

// ResilientFetcher wraps a Source with bounded retries, validation and a
// per-scan memo of price series. It is not safe for concurrent use.
type ResilientFetcher struct {
	source  Source
	opts    Options
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	metrics *metrics.Metrics
	memo    map[memoKey]*model.PriceSeries

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// NewResilientFetcher creates a fetcher around src. m may be nil.
func NewResilientFetcher(src Source, opts Options, m *metrics.Metrics) *ResilientFetcher {
	if opts.Attempts <= 0 {
		opts.Attempts = 1
	}
	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	burst := max(opts.RateBurst, 1)

	failures := opts.BreakerFailures
	if failures == 0 {
		failures = DefaultOptions().BreakerFailures
	}
	st := gobreaker.Settings{
		Name:    src.Name(),
		Timeout: opts.BreakerTimeout,
		IsSuccessful: func(err error) bool {
			return err == nil || symbolFault(err)
		},
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("source", name).Str("from", from.String()).Str("to", to.String()).
				Msg("upstream circuit breaker changed state")
			m.Breaker(int(to))
		},
	}

	return &ResilientFetcher{
		source:  src,
		opts:    opts,
		limiter: rate.NewLimiter(limit, burst),
		breaker: gobreaker.NewCircuitBreaker(st),
		metrics: m,
		memo:    make(map[memoKey]*model.PriceSeries),
		sleep:   sleepContext,
		now:     time.Now,
	}
}

// Source returns the wrapped upstream.
func (f *ResilientFetcher) Source() Source { return f.source }

// ResetMemo forgets every memoised series. Called at the start of a scan.
func (f *ResilientFetcher) ResetMemo() {
	f.memo = make(map[memoKey]*model.PriceSeries)
}

// FetchPriceSeries returns a validated daily series for the trailing lookback
// ("1y" or "2y"), or StatusUnavailable once the retry budget is spent.
func (f *ResilientFetcher) FetchPriceSeries(ctx context.Context, symbol, lookback string) SeriesResult {
	key := memoKey{symbol, lookback}
	if s, ok := f.memo[key]; ok {
		return SeriesResult{Series: s, Status: StatusSuccess}
	}

	series, attempts, err := retry(ctx, f, "price", symbol, func(ctx context.Context) (*model.PriceSeries, error) {
		v, err := f.upstream(ctx, func() (any, error) {
			return f.source.DownloadOHLCV(ctx, symbol, lookback)
		})
		if err != nil {
			return nil, err
		}
		frame, _ := v.(*model.Frame)
		bars, err := normalizeFrame(symbol, frame)
		if err != nil {
			return nil, err
		}
		if len(bars) < f.opts.MinBars {
			return nil, fmt.Errorf("%w: %s has %d bars, need %d",
				ErrInsufficientBars, symbol, len(bars), f.opts.MinBars)
		}
		return &model.PriceSeries{Symbol: symbol, Bars: bars, FetchedAt: f.now()}, nil
	})
	if err != nil {
		f.metrics.Outcome("price", StatusUnavailable.String())
		return SeriesResult{Status: StatusUnavailable, Attempts: attempts, Err: err}
	}

	f.memo[key] = series
	f.metrics.Outcome("price", StatusSuccess.String())
	return SeriesResult{Series: series, Status: StatusSuccess, Attempts: attempts}
}

// FetchFundamentals returns the valuation snapshot of symbol. It never
// fails outright: once retries are exhausted every ratio is zero and only
// the dividend yield is rebuilt from the distribution history.
func (f *ResilientFetcher) FetchFundamentals(ctx context.Context, symbol string) FundamentalsResult {
	info, attempts, err := retry(ctx, f, "fundamentals", symbol, func(ctx context.Context) (map[string]float64, error) {
		v, err := f.upstream(ctx, func() (any, error) {
			return f.source.GetInfo(ctx, symbol)
		})
		if err != nil {
			return nil, err
		}
		info, _ := v.(map[string]float64)
		if len(info) == 0 {
			return nil, ErrEmptyPayload
		}
		return info, nil
	})
	if err != nil {
		snap := &model.FundamentalSnapshot{
			DividendYield: f.manualYield(ctx, symbol),
			ManualYield:   true,
		}
		f.metrics.Outcome("fundamentals", StatusPartial.String())
		return FundamentalsResult{Snapshot: snap, Status: StatusPartial, Attempts: attempts, Err: err}
	}

	snap := snapshotFromInfo(info)
	if snap.DividendYield <= 0 {
		snap.DividendYield = f.manualYield(ctx, symbol)
		snap.ManualYield = true
	}
	f.metrics.Outcome("fundamentals", StatusSuccess.String())
	return FundamentalsResult{Snapshot: snap, Status: StatusSuccess, Attempts: attempts}
}

// snapshotFromInfo maps vendor attributes; yields and returns arrive as fractions.
func snapshotFromInfo(info map[string]float64) *model.FundamentalSnapshot {
	get := func(k string) float64 {
		v := info[k]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return v
	}
	return &model.FundamentalSnapshot{
		PriceEarnings:  get("trailingPE"),
		PriceBook:      get("priceToBook"),
		DividendYield:  get("dividendYield") * 100,
		ReturnOnEquity: get("returnOnEquity") * 100,
	}
}

// manualYield is best effort: any upstream failure yields 0.
func (f *ResilientFetcher) manualYield(ctx context.Context, symbol string) float64 {
	v, err := f.upstream(ctx, func() (any, error) {
		return f.source.GetDividendHistory(ctx, symbol)
	})
	if err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("dividend history unavailable")
		return 0
	}
	history, _ := v.([]model.Dividend)
	if len(history) == 0 {
		return 0
	}
	return calculator.ManualDividendYield(history, f.latestPrice(ctx, symbol), f.now())
}

// latestPrice prefers a memoised series, then the last session, then the
// latest close of the last five sessions.
func (f *ResilientFetcher) latestPrice(ctx context.Context, symbol string) float64 {
	for k, s := range f.memo {
		if k.symbol == symbol && s.LastClose() > 0 {
			return s.LastClose()
		}
	}
	for _, period := range []string{"1d", "5d"} {
		v, err := f.upstream(ctx, func() (any, error) {
			return f.source.DownloadOHLCV(ctx, symbol, period)
		})
		if err != nil {
			continue
		}
		frame, _ := v.(*model.Frame)
		bars, err := normalizeFrame(symbol, frame)
		if err != nil || len(bars) == 0 {
			continue
		}
		return bars[len(bars)-1].Close
	}
	return 0
}

// upstream paces and guards one call to the source.
func (f *ResilientFetcher) upstream(ctx context.Context, fn func() (any, error)) (any, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return f.breaker.Execute(fn)
}

// symbolFault reports whether err concerns one symbol rather than the health
// of the upstream. Such errors are still retried but never trip the breaker.
func symbolFault(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.SymbolFault()
	}
	return errors.Is(err, ErrSymbolRejected) ||
		errors.Is(err, ErrEmptyPayload) ||
		errors.Is(err, ErrMalformedPayload) ||
		errors.Is(err, context.Canceled)
}

func (f *ResilientFetcher) pause(i int) time.Duration {
	if len(f.opts.Pauses) == 0 {
		return 0
	}
	if i >= len(f.opts.Pauses) {
		i = len(f.opts.Pauses) - 1
	}
	return f.opts.Pauses[i]
}

// retry runs call up to Attempts times, pausing between attempts.
func retry[T any](ctx context.Context, f *ResilientFetcher, kind, symbol string, call func(context.Context) (T, error)) (T, int, error) {
	var zero T
	var lastErr error
	for attempt := 1; attempt <= f.opts.Attempts; attempt++ {
		if attempt > 1 {
			if err := f.sleep(ctx, f.pause(attempt-2)); err != nil {
				return zero, attempt - 1, fmt.Errorf("%w: %w", ErrUnavailable, err)
			}
		}
		v, err := call(ctx)
		if err == nil {
			f.metrics.Attempt(kind, "ok")
			return v, attempt, nil
		}
		lastErr = err
		f.metrics.Attempt(kind, "error")
		log.Warn().Err(err).Str("symbol", symbol).Str("kind", kind).
			Int("attempt", attempt).Int("max", f.opts.Attempts).Msg("fetch attempt failed")
		if ctx.Err() != nil {
			return zero, attempt, fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
		}
	}
	return zero, f.opts.Attempts, fmt.Errorf("%w after %d attempts: %w", ErrUnavailable, f.opts.Attempts, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

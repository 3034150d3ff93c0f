package scanner

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"AgroMonitor/internal/calculator"
	"AgroMonitor/internal/catalog"
	"AgroMonitor/internal/collector"
	"AgroMonitor/internal/metrics"
	"AgroMonitor/internal/model"
	"AgroMonitor/internal/strategy"
)

// Skip reasons, also used as metric labels.
const (
	SkipUnavailable      = "unavailable"
	SkipDataInsufficient = "data_insufficient"
	SkipBelowThreshold   = "below_threshold"
)

// Options are the caller-supplied knobs of one scan.
type Options struct {
	MinScore int
	Filter   string
}

// Scanner walks the catalog, scores every instrument and ranks the results.
// Scans are serialised; the fetcher memo is only touched under mu.
type Scanner struct {
	mu       sync.Mutex
	catalog  *catalog.Catalog
	fetcher  *collector.ResilientFetcher
	metrics  *metrics.Metrics
	lookback string
	now      func() time.Time
}

// New creates a scanner. m may be nil.
func New(c *catalog.Catalog, f *collector.ResilientFetcher, m *metrics.Metrics, lookback string) *Scanner {
	if lookback == "" {
		lookback = "1y"
	}
	return &Scanner{
		catalog:  c,
		fetcher:  f,
		metrics:  m,
		lookback: lookback,
		now:      time.Now,
	}
}

// Catalog returns the registry the scanner walks.
func (s *Scanner) Catalog() *catalog.Catalog { return s.catalog }

// Scan evaluates every instrument matching opts.Filter. A failing instrument
// is skipped, never aborting the scan. On cancellation the partial report is
// returned with Aborted set, together with the context error.
func (s *Scanner) Scan(ctx context.Context, opts Options) (*model.ScanReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	filter := strings.ToUpper(strings.TrimSpace(opts.Filter))
	report := &model.ScanReport{
		ID:        uuid.NewString(),
		StartedAt: s.now(),
		MinScore:  opts.MinScore,
		Filter:    filter,
	}
	s.fetcher.ResetMemo()

	logger := log.With().Str("scan", report.ID).Logger()
	logger.Info().Int("min_score", opts.MinScore).Str("filter", filter).Msg("scan started")

	var scanErr error
	for _, g := range s.catalog.Groups() {
		bucket := model.CategoryResults{Category: g.Category}
		for _, inst := range g.Instruments {
			if filter != "" && !strings.Contains(inst.Symbol, filter) {
				continue
			}
			if scanErr = ctx.Err(); scanErr != nil {
				break
			}

			row, reason := s.evaluate(ctx, inst, opts.MinScore)
			if reason == SkipUnavailable && ctx.Err() != nil {
				// Cancelled mid-fetch, so the instrument was never really evaluated.
				scanErr = ctx.Err()
				break
			}
			if reason != "" {
				report.Skipped++
				s.metrics.Skip(reason)
				logger.Debug().Str("symbol", inst.Symbol).Str("reason", reason).Msg("instrument skipped")
				continue
			}
			bucket.Results = append(bucket.Results, *row)
			s.metrics.Ranked(string(g.Category))
		}
		report.Categories = append(report.Categories, bucket)
		if scanErr != nil {
			report.Aborted = true
			break
		}
	}

	for i := range report.Categories {
		rows := report.Categories[i].Results
		sort.SliceStable(rows, func(a, b int) bool {
			return rows[a].Technical.Score > rows[b].Technical.Score
		})
	}

	report.FinishedAt = s.now()
	s.metrics.ScanSeconds(report.FinishedAt.Sub(report.StartedAt).Seconds())
	ev := logger.Info()
	if report.Aborted {
		ev = logger.Warn()
	}
	ev.Int("ranked", report.Total()).Int("skipped", report.Skipped).Bool("aborted", report.Aborted).
		Dur("took", report.FinishedAt.Sub(report.StartedAt)).Msg("scan finished")
	return report, scanErr
}

// evaluate scores one instrument. A non-empty reason means it was skipped.
func (s *Scanner) evaluate(ctx context.Context, inst model.Instrument, minScore int) (*model.ScanResult, string) {
	res := s.fetcher.FetchPriceSeries(ctx, inst.Symbol, s.lookback)
	if res.Status != collector.StatusSuccess {
		if errors.Is(res.Err, collector.ErrInsufficientBars) || errors.Is(res.Err, collector.ErrEmptyPayload) {
			return nil, SkipDataInsufficient
		}
		return nil, SkipUnavailable
	}
	series := res.Series

	ind, err := calculator.ComputeIndicators(series)
	if err != nil {
		log.Warn().Err(err).Str("symbol", inst.Symbol).Msg("indicator computation failed")
		return nil, SkipDataInsufficient
	}

	price := series.LastClose()
	technical := strategy.ScoreTechnical(price, ind)
	if technical.Score < minScore {
		return nil, SkipBelowThreshold
	}

	row := &model.ScanResult{
		Instrument:  inst,
		Price:       price,
		ChangePct:   series.ChangePercent(),
		Technical:   technical,
		Fundamental: model.NotAvailable,
	}
	if rsi, ok := ind.Latest(model.RSI); ok {
		row.RSI = rsi
	}

	if inst.Category.HasFundamentals() {
		fr := s.fetcher.FetchFundamentals(ctx, inst.Symbol)
		row.Fundamental = strategy.ScoreFundamental(fr.Snapshot, inst.Category)
		row.DividendYield = fr.Snapshot.DividendYield
		row.FundamentalsOK = fr.Status == collector.StatusSuccess
	}
	row.Insight = strategy.ComposeInsight(technical.Score, row.Fundamental.Score, row.DividendYield, inst.Category)
	return row, ""
}

// Chart fetches and derives the data needed to chart a single symbol.
// Available is false when no usable series could be obtained. Series
// memoised by an earlier scan are discarded first.
func (s *Scanner) Chart(ctx context.Context, symbol string) *model.ChartData {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetcher.ResetMemo()

	inst, _ := s.catalog.Lookup(symbol)
	data := &model.ChartData{Instrument: inst}

	res := s.fetcher.FetchPriceSeries(ctx, inst.Symbol, s.lookback)
	if res.Status != collector.StatusSuccess {
		log.Warn().Err(res.Err).Str("symbol", inst.Symbol).Msg("chart data unavailable")
		return data
	}
	data.Series = res.Series
	data.Available = true

	ind, err := calculator.ComputeIndicators(res.Series)
	if err != nil {
		log.Warn().Err(err).Str("symbol", inst.Symbol).Msg("indicator computation failed")
		return data
	}
	data.Indicators = ind
	return data
}

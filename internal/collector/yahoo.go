package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"AgroMonitor/internal/model"
)

// YahooSource implements Source using the public Yahoo Finance endpoints.
type YahooSource struct {
	BaseURL string
	Client  *http.Client
}

// NewYahooSource creates a Yahoo Finance source with optional proxy support.
func NewYahooSource(proxyURL string, timeout time.Duration) *YahooSource {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &YahooSource{
		BaseURL: "https://query1.finance.yahoo.com",
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

func (y *YahooSource) Name() string { return "yahoo" }

// yahooChart is the response structure from the Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp []int64 `json:"timestamp"`
			Events    struct {
				Dividends map[string]struct {
					Amount float64 `json:"amount"`
					Date   int64   `json:"date"`
				} `json:"dividends"`
			} `json:"events"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// yahooSummary is the response structure from the quoteSummary API.
type yahooSummary struct {
	QuoteSummary struct {
		Result []map[string]map[string]json.RawMessage `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

func (y *YahooSource) get(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := y.Client.Do(req)
	if err != nil {
		return fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &StatusError{Source: "yahoo", Code: resp.StatusCode, Body: string(body)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: yahoo decode: %v", ErrMalformedPayload, err)
	}
	return nil
}

func (y *YahooSource) fetchChart(ctx context.Context, symbol, rng, events string) (*yahooChart, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=%s",
		y.BaseURL, url.PathEscape(symbol), url.QueryEscape(rng))
	if events != "" {
		u += "&events=" + url.QueryEscape(events)
	}
	var chart yahooChart
	if err := y.get(ctx, u, &chart); err != nil {
		return nil, err
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("%w: yahoo api error: %s", ErrSymbolRejected, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, ErrEmptyPayload
	}
	return &chart, nil
}

// DownloadOHLCV returns a frame whose columns are keyed (field, symbol),
// the same two-level layout recent Yahoo clients produce.
func (y *YahooSource) DownloadOHLCV(ctx context.Context, symbol, period string) (*model.Frame, error) {
	chart, err := y.fetchChart(ctx, symbol, period, "")
	if err != nil {
		return nil, err
	}
	result := chart.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return &model.Frame{}, nil
	}
	quote := result.Indicators.Quote[0]

	n := len(result.Timestamp)
	cols := []struct {
		field  string
		values []*float64
	}{
		{"Open", quote.Open},
		{"High", quote.High},
		{"Low", quote.Low},
		{"Close", quote.Close},
		{"Volume", quote.Volume},
	}
	if len(result.Indicators.AdjClose) > 0 {
		cols = append(cols, struct {
			field  string
			values []*float64
		}{"Adj Close", result.Indicators.AdjClose[0].AdjClose})
	}

	frame := &model.Frame{Index: make([]time.Time, n)}
	for i, ts := range result.Timestamp {
		frame.Index[i] = time.Unix(ts, 0)
	}
	for _, c := range cols {
		if len(c.values) != n {
			return nil, fmt.Errorf("%w: yahoo %s has %d values for %d timestamps",
				ErrMalformedPayload, c.field, len(c.values), n)
		}
		vals := make([]float64, n)
		for i, v := range c.values {
			vals[i] = deref(v)
		}
		frame.Columns = append(frame.Columns, model.ColumnKey{c.field, symbol})
		frame.Values = append(frame.Values, vals)
	}
	return frame, nil
}

// GetInfo flattens the raw values of the summary modules into one map.
func (y *YahooSource) GetInfo(ctx context.Context, symbol string) (map[string]float64, error) {
	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=summaryDetail,defaultKeyStatistics,financialData",
		y.BaseURL, url.PathEscape(symbol))
	var summary yahooSummary
	if err := y.get(ctx, u, &summary); err != nil {
		return nil, err
	}
	if summary.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("%w: yahoo api error: %s", ErrSymbolRejected, summary.QuoteSummary.Error.Description)
	}

	info := make(map[string]float64)
	for _, modules := range summary.QuoteSummary.Result {
		for _, fields := range modules {
			for key, raw := range fields {
				if _, seen := info[key]; seen {
					continue
				}
				if v, ok := rawNumber(raw); ok {
					info[key] = v
				}
			}
		}
	}
	return info, nil
}

// GetDividendHistory reads the dividend events of the last two years.
func (y *YahooSource) GetDividendHistory(ctx context.Context, symbol string) ([]model.Dividend, error) {
	chart, err := y.fetchChart(ctx, symbol, "2y", "div")
	if err != nil {
		return nil, err
	}
	events := chart.Chart.Result[0].Events.Dividends
	divs := make([]model.Dividend, 0, len(events))
	for key, ev := range events {
		ts := ev.Date
		if ts == 0 {
			ts, _ = strconv.ParseInt(key, 10, 64)
		}
		divs = append(divs, model.Dividend{Date: time.Unix(ts, 0), Amount: ev.Amount})
	}
	sort.Slice(divs, func(i, j int) bool { return divs[i].Date.Before(divs[j].Date) })
	return divs, nil
}

// rawNumber accepts either {"raw": x, "fmt": "..."} or a bare number.
func rawNumber(msg json.RawMessage) (float64, bool) {
	if len(msg) == 0 || string(msg) == "null" {
		return 0, false
	}
	var wrapped struct {
		Raw *float64 `json:"raw"`
	}
	if err := json.Unmarshal(msg, &wrapped); err == nil && wrapped.Raw != nil {
		return *wrapped.Raw, true
	}
	var v float64
	if err := json.Unmarshal(msg, &v); err == nil {
		return v, true
	}
	return 0, false
}

func deref(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

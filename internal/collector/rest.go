package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"AgroMonitor/internal/model"
)

// RESTSource implements Source against a JSON REST market data API.
type RESTSource struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewRESTSource creates a new source with optional proxy support.
func NewRESTSource(baseURL, apiKey, proxyURL string, timeout time.Duration) *RESTSource {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RESTSource{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

func (r *RESTSource) Name() string { return "rest" }

// restBar is the expected JSON shape of a daily bar.
type restBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

type restDividend struct {
	Timestamp int64   `json:"timestamp"`
	Amount    float64 `json:"amount"`
}

// DownloadOHLCV returns a flat single-level frame.
func (r *RESTSource) DownloadOHLCV(ctx context.Context, symbol, period string) (*model.Frame, error) {
	endpoint := fmt.Sprintf("%s/api/v1/bars/daily?symbol=%s&range=%s",
		r.BaseURL, url.QueryEscape(symbol), url.QueryEscape(period))
	var bars []restBar
	if err := r.getJSON(ctx, endpoint, &bars); err != nil {
		return nil, err
	}

	n := len(bars)
	frame := &model.Frame{
		Index: make([]time.Time, n),
		Columns: []model.ColumnKey{
			{"open"}, {"high"}, {"low"}, {"close"}, {"volume"},
		},
		Values: make([][]float64, 5),
	}
	for c := range frame.Values {
		frame.Values[c] = make([]float64, n)
	}
	for i, b := range bars {
		frame.Index[i] = time.Unix(b.Timestamp, 0)
		frame.Values[0][i] = b.Open
		frame.Values[1][i] = b.High
		frame.Values[2][i] = b.Low
		frame.Values[3][i] = b.Close
		frame.Values[4][i] = b.Volume
	}
	return frame, nil
}

// GetInfo returns the fundamentals object as numeric attributes.
func (r *RESTSource) GetInfo(ctx context.Context, symbol string) (map[string]float64, error) {
	endpoint := fmt.Sprintf("%s/api/v1/fundamentals?symbol=%s", r.BaseURL, url.QueryEscape(symbol))
	var raw map[string]json.RawMessage
	if err := r.getJSON(ctx, endpoint, &raw); err != nil {
		return nil, err
	}
	info := make(map[string]float64, len(raw))
	for k, v := range raw {
		if f, ok := rawNumber(v); ok {
			info[k] = f
		}
	}
	return info, nil
}

func (r *RESTSource) GetDividendHistory(ctx context.Context, symbol string) ([]model.Dividend, error) {
	endpoint := fmt.Sprintf("%s/api/v1/dividends?symbol=%s", r.BaseURL, url.QueryEscape(symbol))
	var events []restDividend
	if err := r.getJSON(ctx, endpoint, &events); err != nil {
		return nil, err
	}
	divs := make([]model.Dividend, len(events))
	for i, ev := range events {
		divs[i] = model.Dividend{Date: time.Unix(ev.Timestamp, 0), Amount: ev.Amount}
	}
	return divs, nil
}

func (r *RESTSource) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if r.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.APIKey)
	}
	resp, err := r.Client.Do(req)
	if err != nil {
		return fmt.Errorf("rest fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &StatusError{Source: "rest fetch", Code: resp.StatusCode, Body: string(body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: rest decode: %v", ErrMalformedPayload, err)
	}
	return nil
}

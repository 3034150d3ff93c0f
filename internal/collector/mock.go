package collector

import (
	"context"
	"fmt"
	"time"

	"AgroMonitor/internal/model"
)

// MockSource returns controllable data for development and testing.
// Every method fails while its FailuresLeft counter is positive.
type MockSource struct {
	Price      float64
	Bars       int
	MultiLevel bool

	Frames    map[string]*model.Frame
	Info      map[string]map[string]float64
	Dividends map[string][]model.Dividend

	// FailuresLeft is keyed "ohlcv:SYMBOL", "info:SYMBOL" or "dividends:SYMBOL".
	FailuresLeft map[string]int
	// FailWith is returned by scripted failures. Nil means a transport error.
	FailWith     error
	Calls        map[string]int
}

// NewMockSource creates a source that generates a gently rising series of
// bars around price for any unknown symbol.
func NewMockSource(price float64, bars int) *MockSource {
	return &MockSource{
		Price:        price,
		Bars:         bars,
		Frames:       make(map[string]*model.Frame),
		Info:         make(map[string]map[string]float64),
		Dividends:    make(map[string][]model.Dividend),
		FailuresLeft: make(map[string]int),
		Calls:        make(map[string]int),
	}
}

func (m *MockSource) Name() string { return "mock" }

func (m *MockSource) call(key string) error {
	m.Calls[key]++
	if m.FailuresLeft[key] > 0 {
		m.FailuresLeft[key]--
		if m.FailWith != nil {
			return m.FailWith
		}
		return fmt.Errorf("mock: scripted failure for %s", key)
	}
	return nil
}

func (m *MockSource) DownloadOHLCV(_ context.Context, symbol, period string) (*model.Frame, error) {
	if err := m.call("ohlcv:" + symbol); err != nil {
		return nil, err
	}
	if f, ok := m.Frames[symbol]; ok {
		return f, nil
	}
	n := m.Bars
	switch period {
	case "1d":
		n = 1
	case "5d":
		n = 5
	}
	return MockFrame(symbol, risingCloses(m.Price, n), m.MultiLevel), nil
}

func (m *MockSource) GetInfo(_ context.Context, symbol string) (map[string]float64, error) {
	if err := m.call("info:" + symbol); err != nil {
		return nil, err
	}
	return m.Info[symbol], nil
}

func (m *MockSource) GetDividendHistory(_ context.Context, symbol string) ([]model.Dividend, error) {
	if err := m.call("dividends:" + symbol); err != nil {
		return nil, err
	}
	return m.Dividends[symbol], nil
}

// MockFrame builds a frame of consecutive daily bars ending yesterday. With
// multiLevel set, columns are keyed (field, symbol).
func MockFrame(symbol string, closes []float64, multiLevel bool) *model.Frame {
	n := len(closes)
	end := time.Now().Truncate(24 * time.Hour)
	f := &model.Frame{Index: make([]time.Time, n)}
	open := make([]float64, n)
	high := make([]float64, n)
	low := make([]float64, n)
	volume := make([]float64, n)
	for i, c := range closes {
		f.Index[i] = end.AddDate(0, 0, -(n - i))
		open[i] = c * 0.999
		high[i] = c * 1.005
		low[i] = c * 0.995
		volume[i] = 1000000
	}
	for _, col := range []struct {
		name   string
		values []float64
	}{
		{"Open", open}, {"High", high}, {"Low", low}, {"Close", closes}, {"Volume", volume},
	} {
		key := model.ColumnKey{col.name}
		if multiLevel {
			key = append(key, symbol)
		}
		f.Columns = append(f.Columns, key)
		f.Values = append(f.Values, col.values)
	}
	return f
}

func risingCloses(basePrice float64, count int) []float64 {
	closes := make([]float64, count)
	for i := range closes {
		closes[i] = basePrice * (1 + float64(i-count/2)*0.001)
	}
	return closes
}

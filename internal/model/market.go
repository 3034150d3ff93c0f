package model

import (
	"math"
	"time"
)

// OHLCV represents a single daily candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceSeries holds validated daily bars in chronological order with no duplicate dates.
type PriceSeries struct {
	Symbol    string
	Bars      []OHLCV
	FetchedAt time.Time
}

// Len returns the number of bars.
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// Closes extracts the closing prices.
func (s *PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// LastClose returns the most recent close, or 0 for an empty series.
func (s *PriceSeries) LastClose() float64 {
	if s.Len() == 0 {
		return 0
	}
	return s.Bars[len(s.Bars)-1].Close
}

// ChangePercent returns the day-over-day percent change of the last close.
func (s *PriceSeries) ChangePercent() float64 {
	n := s.Len()
	if n < 2 || s.Bars[n-2].Close == 0 {
		return 0
	}
	return (s.Bars[n-1].Close/s.Bars[n-2].Close - 1) * 100
}

// ColumnKey names a frame column. Vendors sometimes return several levels,
// e.g. ("Close", "SLCE3.SA").
type ColumnKey []string

// Frame is the raw tabular payload returned by a market data source.
// Values is column-major: Values[col][row], aligned with Index.
type Frame struct {
	Index   []time.Time
	Columns []ColumnKey
	Values  [][]float64
}

// Empty reports whether the frame carries no rows.
func (f *Frame) Empty() bool {
	return f == nil || len(f.Index) == 0 || len(f.Columns) == 0
}

// MultiLevel reports whether any column has more than one level.
func (f *Frame) MultiLevel() bool {
	for _, c := range f.Columns {
		if len(c) > 1 {
			return true
		}
	}
	return false
}

// Dividend is a single per-share distribution.
type Dividend struct {
	Date   time.Time
	Amount float64
}

// Undefined is the placeholder for warm-up values in indicator series.
var Undefined = math.NaN()

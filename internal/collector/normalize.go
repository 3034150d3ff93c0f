package collector

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"AgroMonitor/internal/model"
)

var ohlcvFields = []string{"open", "high", "low", "close", "volume"}

// normalizeFrame collapses multi-level columns to their first level and
// converts the frame into chronological bars with unique dates.
// Rows with an undefined close (holidays, halted sessions) are dropped.
// When an "Adj Close" column is present, prices are dividend-adjusted: the
// adjusted close replaces the close and open, high and low are scaled by
// the same factor.
func normalizeFrame(symbol string, f *model.Frame) ([]model.OHLCV, error) {
	if f.Empty() {
		return nil, ErrEmptyPayload
	}

	// First occurrence of each field wins when the collapse yields duplicates.
	colIdx := make(map[string]int, len(ohlcvFields))
	for i, key := range f.Columns {
		if len(key) == 0 {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(key[0]))
		if _, seen := colIdx[name]; !seen {
			colIdx[name] = i
		}
	}
	cols := make([][]float64, len(ohlcvFields))
	for i, field := range ohlcvFields {
		idx, ok := colIdx[field]
		if !ok {
			return nil, fmt.Errorf("%w: %s missing column %q", ErrMalformedPayload, symbol, field)
		}
		if idx >= len(f.Values) || len(f.Values[idx]) != len(f.Index) {
			return nil, fmt.Errorf("%w: %s column %q misaligned with index", ErrMalformedPayload, symbol, field)
		}
		cols[i] = f.Values[idx]
	}
	var adj []float64
	if idx, ok := colIdx["adj close"]; ok && idx < len(f.Values) && len(f.Values[idx]) == len(f.Index) {
		adj = f.Values[idx]
	}

	bars := make([]model.OHLCV, 0, len(f.Index))
	for row, ts := range f.Index {
		c := cols[3][row]
		if math.IsNaN(c) || c <= 0 {
			continue
		}
		factor := 1.0
		if adj != nil && !math.IsNaN(adj[row]) && adj[row] > 0 {
			factor = adj[row] / c
		}
		bars = append(bars, model.OHLCV{
			Time:   ts,
			Open:   orZero(cols[0][row]) * factor,
			High:   orZero(cols[1][row]) * factor,
			Low:    orZero(cols[2][row]) * factor,
			Close:  c * factor,
			Volume: orZero(cols[4][row]),
		})
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })

	// Keep the later row for a repeated trading date.
	deduped := bars[:0]
	for _, b := range bars {
		n := len(deduped)
		if n > 0 && sameDay(deduped[n-1], b) {
			deduped[n-1] = b
			continue
		}
		deduped = append(deduped, b)
	}
	return deduped, nil
}

func sameDay(a, b model.OHLCV) bool {
	ay, am, ad := a.Time.Date()
	by, bm, bd := b.Time.Date()
	return ay == by && am == bm && ad == bd
}

func orZero(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}

package model

import "math"

// IndicatorKey names an entry of an IndicatorSet.
type IndicatorKey string

const (
	SMA20      IndicatorKey = "SMA20"
	SMA50      IndicatorKey = "SMA50"
	SMA200     IndicatorKey = "SMA200"
	RSI        IndicatorKey = "RSI"
	MACD       IndicatorKey = "MACD"
	MACDSignal IndicatorKey = "MACD_S"
	BBUpper    IndicatorKey = "BB_H"
	BBLower    IndicatorKey = "BB_L"
)

// IndicatorSet maps an indicator to a series aligned with its PriceSeries.
// Warm-up values are NaN. Consumers must tolerate missing keys.
type IndicatorSet map[IndicatorKey][]float64

// Has reports whether key is present.
func (s IndicatorSet) Has(key IndicatorKey) bool {
	_, ok := s[key]
	return ok
}

// Latest returns the last value of key. ok is false when the key is missing
// or the last value is undefined.
func (s IndicatorSet) Latest(key IndicatorKey) (float64, bool) {
	series, ok := s[key]
	if !ok || len(series) == 0 {
		return 0, false
	}
	v := series[len(series)-1]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

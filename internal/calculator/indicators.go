package calculator

import (
	"errors"
	"fmt"
	"math"

	"AgroMonitor/internal/model"
)

// ErrNoCloses is returned for an empty price series.
var ErrNoCloses = errors.New("no closing prices")

// ComputeIndicators derives the full indicator set from a validated series.
//
// Any hard failure (empty input, non-finite or non-positive close, a failing
// sub-computation) drops the whole set. A window longer than the series is not
// a failure: that indicator is present but undefined throughout.
func ComputeIndicators(series *model.PriceSeries) (model.IndicatorSet, error) {
	if series.Len() == 0 {
		return nil, ErrNoCloses
	}
	closes := series.Closes()
	for i, c := range closes {
		if math.IsNaN(c) || math.IsInf(c, 0) || c <= 0 {
			return nil, fmt.Errorf("invalid close %v at bar %d", c, i)
		}
	}

	set := make(model.IndicatorSet, 8)
	for key, period := range map[model.IndicatorKey]int{
		model.SMA20:  20,
		model.SMA50:  50,
		model.SMA200: 200,
	} {
		sma, err := SMASeries(closes, period)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		set[key] = sma
	}

	rsi, err := RSISeries(closes, 14)
	if err != nil {
		return nil, fmt.Errorf("RSI: %w", err)
	}
	set[model.RSI] = rsi

	line, sig, err := MACDSeries(closes, MACDFast, MACDSlow, MACDSignal)
	if err != nil {
		return nil, fmt.Errorf("MACD: %w", err)
	}
	set[model.MACD] = line
	set[model.MACDSignal] = sig

	upper, lower, err := BollingerSeries(closes, 20, 2)
	if err != nil {
		return nil, fmt.Errorf("bollinger: %w", err)
	}
	set[model.BBUpper] = upper
	set[model.BBLower] = lower

	return set, nil
}

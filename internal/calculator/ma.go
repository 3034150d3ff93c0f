package calculator

import (
	"errors"
	"math"

	"AgroMonitor/internal/model"
)

// SMASeries returns the rolling simple moving average aligned with prices.
// The first period-1 values are undefined; a period longer than the input
// yields an all-undefined series.
func SMASeries(prices []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	out := undefinedSeries(len(prices))
	sum := 0.0
	for i, p := range prices {
		sum += p
		if i >= period {
			sum -= prices[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out, nil
}

// EMASeries returns the exponential moving average with alpha = 2/(period+1).
// The average starts at the first defined value and is reported once period
// defined observations have been seen. Leading NaNs are skipped, so the
// function can smooth another indicator's output.
func EMASeries(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	out := undefinedSeries(len(values))
	alpha := 2.0 / float64(period+1)
	var ema float64
	seen := 0
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if seen == 0 {
			ema = v
		} else {
			ema = alpha*v + (1-alpha)*ema
		}
		seen++
		if seen >= period {
			out[i] = ema
		}
	}
	return out, nil
}

func undefinedSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = model.Undefined
	}
	return out
}

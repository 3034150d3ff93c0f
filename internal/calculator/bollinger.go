package calculator

import (
	"errors"
	"math"
)

// BollingerSeries returns the upper and lower bands: SMA(period) ± k population
// standard deviations over the same window.
func BollingerSeries(closes []float64, period int, k float64) (upper, lower []float64, err error) {
	if period <= 0 {
		return nil, nil, errors.New("period must be positive")
	}
	mid, err := SMASeries(closes, period)
	if err != nil {
		return nil, nil, err
	}
	upper = undefinedSeries(len(closes))
	lower = undefinedSeries(len(closes))
	for i := period - 1; i < len(closes); i++ {
		mean := mid[i]
		var ss float64
		for j := i - period + 1; j <= i; j++ {
			d := closes[j] - mean
			ss += d * d
		}
		sd := math.Sqrt(ss / float64(period))
		upper[i] = mean + k*sd
		lower[i] = mean - k*sd
	}
	return upper, lower, nil
}

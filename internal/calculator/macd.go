package calculator

import "math"

// Standard MACD windows.
const (
	MACDFast   = 12
	MACDSlow   = 26
	MACDSignal = 9
)

// MACDSeries returns the MACD line (fast EMA - slow EMA) and its signal EMA.
func MACDSeries(closes []float64, fast, slow, signal int) (line, sig []float64, err error) {
	emaFast, err := EMASeries(closes, fast)
	if err != nil {
		return nil, nil, err
	}
	emaSlow, err := EMASeries(closes, slow)
	if err != nil {
		return nil, nil, err
	}
	line = undefinedSeries(len(closes))
	for i := range closes {
		if math.IsNaN(emaFast[i]) || math.IsNaN(emaSlow[i]) {
			continue
		}
		line[i] = emaFast[i] - emaSlow[i]
	}
	sig, err = EMASeries(line, signal)
	if err != nil {
		return nil, nil, err
	}
	return line, sig, nil
}

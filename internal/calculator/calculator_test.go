package calculator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AgroMonitor/internal/model"
)

func seriesFromCloses(closes []float64) *model.PriceSeries {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{Time: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}
	return &model.PriceSeries{Symbol: "TEST", Bars: bars}
}

func ramp(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func TestSMASeries(t *testing.T) {
	sma, err := SMASeries([]float64{1, 2, 3, 4, 5}, 3)
	require.NoError(t, err)
	require.Len(t, sma, 5)
	assert.True(t, math.IsNaN(sma[0]))
	assert.True(t, math.IsNaN(sma[1]))
	assert.InDelta(t, 2.0, sma[2], 1e-9)
	assert.InDelta(t, 3.0, sma[3], 1e-9)
	assert.InDelta(t, 4.0, sma[4], 1e-9)

	_, err = SMASeries([]float64{1, 2}, 0)
	assert.Error(t, err)
}

func TestSMASeries_WindowLongerThanData(t *testing.T) {
	sma, err := SMASeries(ramp(10, 1, 1), 200)
	require.NoError(t, err)
	for _, v := range sma {
		assert.True(t, math.IsNaN(v))
	}
}

func TestEMASeries_ConstantInput(t *testing.T) {
	ema, err := EMASeries([]float64{5, 5, 5, 5}, 3)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(ema[1]))
	assert.InDelta(t, 5.0, ema[2], 1e-9)
	assert.InDelta(t, 5.0, ema[3], 1e-9)
}

func TestEMASeries_SkipsLeadingUndefined(t *testing.T) {
	nan := math.NaN()
	ema, err := EMASeries([]float64{nan, nan, 2, 4}, 2)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(ema[2]))
	// alpha = 2/3: 2/3*4 + 1/3*2
	assert.InDelta(t, 10.0/3.0, ema[3], 1e-9)
}

func TestRSISeries(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
		want   float64
	}{
		{"only gains", ramp(30, 10, 1), 100},
		{"only losses", ramp(30, 100, -1), 0},
	}
	for _, tt := range tests {
		rsi, err := RSISeries(tt.closes, 14)
		require.NoError(t, err, tt.name)
		assert.True(t, math.IsNaN(rsi[13]), tt.name)
		assert.InDelta(t, tt.want, rsi[len(rsi)-1], 1e-9, tt.name)
	}

	alternating := make([]float64, 30)
	for i := range alternating {
		alternating[i] = 100
		if i%2 == 1 {
			alternating[i] = 101
		}
	}
	rsi, err := RSISeries(alternating, 14)
	require.NoError(t, err)
	last := rsi[len(rsi)-1]
	assert.Greater(t, last, 40.0)
	assert.Less(t, last, 60.0)
}

func TestRSISeries_TooShort(t *testing.T) {
	rsi, err := RSISeries(ramp(10, 1, 1), 14)
	require.NoError(t, err)
	for _, v := range rsi {
		assert.True(t, math.IsNaN(v))
	}
}

func TestMACDSeries_RisingTrend(t *testing.T) {
	line, sig, err := MACDSeries(ramp(60, 10, 0.5), MACDFast, MACDSlow, MACDSignal)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(line[24]))
	assert.False(t, math.IsNaN(line[25]))
	assert.True(t, math.IsNaN(sig[32]))
	assert.False(t, math.IsNaN(sig[33]))
	assert.Greater(t, line[59], 0.0, "fast EMA above slow EMA in an uptrend")
}

func TestBollingerSeries_ConstantCollapses(t *testing.T) {
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 42
	}
	upper, lower, err := BollingerSeries(closes, 20, 2)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(upper[18]))
	assert.InDelta(t, 42.0, upper[24], 1e-9)
	assert.InDelta(t, 42.0, lower[24], 1e-9)
}

func TestBollingerSeries_BandsStraddleMean(t *testing.T) {
	closes := ramp(40, 10, 1)
	upper, lower, err := BollingerSeries(closes, 20, 2)
	require.NoError(t, err)
	mid := (closes[20] + closes[39]) / 2
	assert.Greater(t, upper[39], mid)
	assert.Less(t, lower[39], mid)
	assert.InDelta(t, upper[39]-mid, mid-lower[39], 1e-9)
}

func TestComputeIndicators_MinimumBarCount(t *testing.T) {
	set, err := ComputeIndicators(seriesFromCloses(ramp(50, 20, 0.1)))
	require.NoError(t, err)

	for _, key := range []model.IndicatorKey{
		model.SMA20, model.SMA50, model.SMA200, model.RSI,
		model.MACD, model.MACDSignal, model.BBUpper, model.BBLower,
	} {
		require.True(t, set.Has(key), key)
		assert.Len(t, set[key], 50, key)
	}

	_, ok := set.Latest(model.SMA20)
	assert.True(t, ok)
	_, ok = set.Latest(model.RSI)
	assert.True(t, ok)
	_, ok = set.Latest(model.SMA50)
	assert.True(t, ok)
	_, ok = set.Latest(model.SMA200)
	assert.False(t, ok, "SMA200 cannot be defined on 50 bars")
}

func TestComputeIndicators_HardFailures(t *testing.T) {
	_, err := ComputeIndicators(&model.PriceSeries{})
	assert.ErrorIs(t, err, ErrNoCloses)

	closes := ramp(60, 10, 1)
	closes[30] = math.NaN()
	set, err := ComputeIndicators(seriesFromCloses(closes))
	assert.Error(t, err)
	assert.Nil(t, set)

	closes = ramp(60, 10, 1)
	closes[5] = 0
	_, err = ComputeIndicators(seriesFromCloses(closes))
	assert.Error(t, err)
}

func TestManualDividendYield(t *testing.T) {
	asOf := time.Date(2026, 6, 30, 12, 0, 0, 0, time.UTC)

	t.Run("empty history", func(t *testing.T) {
		assert.Equal(t, 0.0, ManualDividendYield(nil, 50, asOf))
		assert.Equal(t, 0.0, ManualDividendYield(nil, -1, asOf))
	})

	t.Run("two distributions", func(t *testing.T) {
		history := []model.Dividend{
			{Date: asOf.AddDate(0, -2, 0), Amount: 1.00},
			{Date: asOf.AddDate(0, -8, 0), Amount: 2.00},
		}
		assert.Equal(t, 6.0, ManualDividendYield(history, 50.00, asOf))
	})

	t.Run("old distributions ignored", func(t *testing.T) {
		history := []model.Dividend{
			{Date: asOf.AddDate(-2, 0, 0), Amount: 10},
			{Date: asOf.AddDate(0, 0, -366), Amount: 10},
			{Date: asOf.AddDate(0, -1, 0), Amount: 0.5},
		}
		assert.InDelta(t, 5.0, ManualDividendYield(history, 10, asOf), 1e-9)
	})

	t.Run("non-positive price", func(t *testing.T) {
		history := []model.Dividend{{Date: asOf, Amount: 1}}
		assert.Equal(t, 0.0, ManualDividendYield(history, 0, asOf))
	})

	t.Run("zone ignored", func(t *testing.T) {
		saoPaulo := time.FixedZone("BRT", -3*3600)
		// 11:00 BRT is 14:00 UTC, which would fall inside the window; its
		// wall clock is before the 2025-06-30 12:00 cutoff.
		history := []model.Dividend{
			{Date: time.Date(2025, 6, 30, 11, 0, 0, 0, saoPaulo), Amount: 3},
			{Date: time.Date(2025, 7, 1, 0, 0, 0, 0, saoPaulo), Amount: 1},
		}
		assert.InDelta(t, 10.0, ManualDividendYield(history, 10, asOf), 1e-9)
	})
}

package calculator

import (
	"time"

	"github.com/shopspring/decimal"

	"AgroMonitor/internal/model"
)

// ManualDividendYield sums the distributions paid within the 365 days before
// asOf and returns them as a percentage of price. Dates are compared on their
// wall clock, ignoring time zones. Returns 0 for an empty history or a
// non-positive price.
func ManualDividendYield(history []model.Dividend, price float64, asOf time.Time) float64 {
	if len(history) == 0 || price <= 0 {
		return 0
	}
	cutoff := naive(asOf).AddDate(0, 0, -365)

	total := decimal.Zero
	for _, d := range history {
		if naive(d.Date).Before(cutoff) {
			continue
		}
		total = total.Add(decimal.NewFromFloat(d.Amount))
	}
	if total.IsZero() {
		return 0
	}
	return total.Div(decimal.NewFromFloat(price)).Mul(decimal.NewFromInt(100)).InexactFloat64()
}

// naive drops the zone, keeping the wall-clock reading.
func naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

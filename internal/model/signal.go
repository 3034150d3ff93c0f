package model

import "time"

// Status is the discrete label attached to a score.
type Status string

const (
	StatusNotAvailable Status = "not-available"

	StatusStrongBuy Status = "strong buy"
	StatusBuy       Status = "buy"
	StatusNeutral   Status = "neutral"
	StatusSell      Status = "sell"

	StatusExcellent Status = "excellent"
	StatusSolid     Status = "solid"
	StatusAttention Status = "attention"
)

// ScoreResult is a bounded [0,100] score with its label.
// Technical and fundamental results are never merged.
type ScoreResult struct {
	Score  int
	Status Status
}

// NotAvailable is the sentinel result for missing inputs.
var NotAvailable = ScoreResult{Score: 0, Status: StatusNotAvailable}

// FundamentalSnapshot holds valuation ratios. Zero means unavailable.
type FundamentalSnapshot struct {
	PriceEarnings  float64
	PriceBook      float64
	DividendYield  float64 // percent
	ReturnOnEquity float64 // percent
	ManualYield    bool    // DividendYield derived from distribution history
}

// ScanResult is one ranked row handed to the presentation layer.
type ScanResult struct {
	Instrument     Instrument
	Price          float64
	ChangePct      float64
	Technical      ScoreResult
	Fundamental    ScoreResult
	DividendYield  float64
	RSI            float64
	Insight        string
	FundamentalsOK bool
}

// CategoryResults holds the ranked rows of one category.
type CategoryResults struct {
	Category Category
	Results  []ScanResult
}

// ScanReport is the outcome of one pass over the catalog.
type ScanReport struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	MinScore   int
	Filter     string
	Categories []CategoryResults
	Skipped    int
	Aborted    bool
}

// Total returns the number of ranked rows across categories.
func (r *ScanReport) Total() int {
	n := 0
	for _, c := range r.Categories {
		n += len(c.Results)
	}
	return n
}

// ChartData is the on-demand payload for charting a single instrument.
type ChartData struct {
	Instrument Instrument
	Series     *PriceSeries
	Indicators IndicatorSet
	Available  bool
}

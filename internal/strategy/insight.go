package strategy

import (
	"fmt"
	"strings"

	"AgroMonitor/internal/model"
)

// ComposeInsight writes a short explanation of both scores.
func ComposeInsight(technical, fundamental int, dividendYield float64, c model.Category) string {
	var b strings.Builder

	switch {
	case technical >= 70:
		b.WriteString("Very strong trend: price is riding above its averages with positive momentum.")
	case technical <= 30:
		b.WriteString("Strong correction signal: price is losing its averages.")
	default:
		b.WriteString("Sideways movement: no clear direction yet.")
	}

	var clause string
	switch c {
	case model.CategoryIncomeFund:
		switch {
		case dividendYield > 11:
			clause = fmt.Sprintf("Attractive payout: %.1f%% yield over the last 12 months.", dividendYield)
		case dividendYield < 8:
			clause = fmt.Sprintf("Below-average payout: %.1f%% yield over the last 12 months.", dividendYield)
		}
	case model.CategoryGrowthEquity, model.CategoryGlobalDepositary:
		switch {
		case fundamental >= 70:
			clause = "Fundamentals look cheap for the profitability on offer."
		case fundamental <= 40:
			clause = "Multiples look stretched; valuation deserves attention."
		}
	}
	if clause != "" {
		b.WriteString(" ")
		b.WriteString(clause)
	}
	return b.String()
}

package strategy

import "AgroMonitor/internal/model"

// FundamentalRules is the scoring strategy of one category.
type FundamentalRules interface {
	// Adjust returns the points added to the base score of 50.
	Adjust(s *model.FundamentalSnapshot) int
}

// incomeFundRules favour payout and discount to book value.
type incomeFundRules struct{}

func (incomeFundRules) Adjust(s *model.FundamentalSnapshot) int {
	pts := 0

	switch dy := s.DividendYield; {
	case dy > 13:
		pts += 35
	case dy > 10:
		pts += 20
	case dy < 6:
		pts -= 20
	}

	// (1.05, 1.20] scores nothing.
	switch pb := s.PriceBook; {
	case pb < 0.90:
		pts += 25
	case pb <= 1.05:
		pts += 15
	case pb > 1.20:
		pts -= 15
	}
	return pts
}

// equityRules blend value and profitability for stocks, BDRs and ETFs.
type equityRules struct{}

func (equityRules) Adjust(s *model.FundamentalSnapshot) int {
	pts := 0
	if s.PriceEarnings > 0 && s.PriceEarnings <= 12 {
		pts += 20
	}
	if s.PriceBook > 0 && s.PriceBook <= 2.0 {
		pts += 15
	}
	if s.ReturnOnEquity >= 15 {
		pts += 15
	}
	if s.DividendYield >= 6 {
		pts += 10
	}
	return pts
}

var rulesByCategory = map[model.Category]FundamentalRules{
	model.CategoryIncomeFund:       incomeFundRules{},
	model.CategoryGrowthEquity:     equityRules{},
	model.CategoryGlobalDepositary: equityRules{},
}

// RulesFor returns the rule set of a category, or false when fundamentals do not apply.
func RulesFor(c model.Category) (FundamentalRules, bool) {
	r, ok := rulesByCategory[c]
	return r, ok
}

// ScoreFundamental scores a snapshot with the rules of its category.
// Commodity futures and missing snapshots are not available.
func ScoreFundamental(s *model.FundamentalSnapshot, c model.Category) model.ScoreResult {
	rules, ok := RulesFor(c)
	if !ok || s == nil {
		return model.NotAvailable
	}
	final := clamp(50 + rules.Adjust(s))
	return model.ScoreResult{
		Score:  final,
		Status: mapStatus(fundamentalTiers, final, model.StatusAttention),
	}
}

package strategy

import "AgroMonitor/internal/model"

type statusTier struct {
	MinScore int
	Status   model.Status
}

// technicalTiers maps a technical score to its label, highest first.
var technicalTiers = []statusTier{
	{75, model.StatusStrongBuy},
	{60, model.StatusBuy},
	{40, model.StatusNeutral},
}

// fundamentalTiers maps a fundamental score to its label, highest first.
var fundamentalTiers = []statusTier{
	{70, model.StatusExcellent},
	{50, model.StatusSolid},
}

func mapStatus(tiers []statusTier, score int, fallback model.Status) model.Status {
	for _, t := range tiers {
		if score >= t.MinScore {
			return t.Status
		}
	}
	return fallback
}

func clamp(score int) int {
	return min(100, max(0, score))
}

// ScoreTechnical scores the current price against its trend and momentum indicators.
// Each rule only fires when its indicator has a defined latest value.
func ScoreTechnical(price float64, ind model.IndicatorSet) model.ScoreResult {
	if len(ind) == 0 {
		return model.NotAvailable
	}

	score := 0

	// Trend
	if v, ok := ind.Latest(model.SMA20); ok && price > v {
		score += 10
	}
	if v, ok := ind.Latest(model.SMA50); ok && price > v {
		score += 15
	}
	if v, ok := ind.Latest(model.SMA200); ok && price > v {
		score += 20
	}

	// Momentum; 60 < RSI <= 70 is neutral
	if rsi, ok := ind.Latest(model.RSI); ok {
		switch {
		case rsi < 30:
			score += 25
		case rsi <= 60:
			score += 10
		case rsi > 70:
			score -= 10
		}
	}

	macd, okLine := ind.Latest(model.MACD)
	sig, okSig := ind.Latest(model.MACDSignal)
	if okLine && okSig && macd > sig {
		score += 20
	}

	final := clamp(score)
	return model.ScoreResult{
		Score:  final,
		Status: mapStatus(technicalTiers, final, model.StatusSell),
	}
}

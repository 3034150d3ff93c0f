package model

import "fmt"

// Category is the closed set of instrument groups the scorers distinguish.
type Category string

const (
	CategoryIncomeFund       Category = "income-fund"
	CategoryGrowthEquity     Category = "growth-equity"
	CategoryGlobalDepositary Category = "global-depositary"
	CategoryCommodityFuture  Category = "commodity-future"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryIncomeFund,
	CategoryGrowthEquity,
	CategoryGlobalDepositary,
	CategoryCommodityFuture,
}

var categoryLabels = map[Category]string{
	CategoryIncomeFund:       "Fiagros (Renda)",
	CategoryGrowthEquity:     "Ações BR",
	CategoryGlobalDepositary: "BDRs & ETFs",
	CategoryCommodityFuture:  "Commodities",
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label returns the display label of the category.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// HasFundamentals is false for instruments without a balance sheet.
func (c Category) HasFundamentals() bool {
	return c != CategoryCommodityFuture
}

// UnmarshalText rejects unknown categories.
func (c *Category) UnmarshalText(text []byte) error {
	v := Category(text)
	if !v.Valid() {
		return fmt.Errorf("unknown category %q", string(text))
	}
	*c = v
	return nil
}

// Instrument identifies a tradable asset.
type Instrument struct {
	Symbol   string   `yaml:"symbol"`
	Name     string   `yaml:"name"`
	Category Category `yaml:"-"`
}

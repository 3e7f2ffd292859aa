/*
slab.go - Advisory brokerage slab suggestion

Suggests one of three standard brokerage percentages from the gross premium
alone. A hint surfaced to the operator, never silently applied to a document.
*/
package finance

import "github.com/shopspring/decimal"

// Slab tiers. Small risks carry the highest standard rate, large risks are
// negotiated down.
var (
	slabMediumFrom = decimal.NewFromInt(100_000)
	slabHighFrom   = decimal.NewFromInt(1_000_000)

	slabLowPct    = MustDecimal("20")
	slabMediumPct = MustDecimal("15")
	slabHighPct   = MustDecimal("10")
)

// SlabSuggestion pairs the suggested percentage with its tier name.
type SlabSuggestion struct {
	Tier         string          `json:"tier"`
	BrokeragePct decimal.Decimal `json:"brokerage_pct"`
}

// SuggestBrokerageSlab returns the standard brokerage percentage for the
// premium's tier. Advisory only.
func SuggestBrokerageSlab(gross decimal.Decimal) SlabSuggestion {
	switch {
	case gross.GreaterThanOrEqual(slabHighFrom):
		return SlabSuggestion{Tier: "high", BrokeragePct: slabHighPct}
	case gross.GreaterThanOrEqual(slabMediumFrom):
		return SlabSuggestion{Tier: "medium", BrokeragePct: slabMediumPct}
	default:
		return SlabSuggestion{Tier: "low", BrokeragePct: slabLowPct}
	}
}

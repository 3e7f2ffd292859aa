/*
Package finance provides the premium/brokerage calculation engine.

PURPOSE:
  Pure monetary arithmetic for document issuance: gross premium in,
  brokerage/VAT/agent-commission/levy breakdown out, plus minimum-premium
  validation, the advisory brokerage slab hint, and the rate/premium/
  sum-insured triangle solver.

KEY CONCEPTS:
  - Breakdown: The full monetary split persisted onto the owning record
  - Options: Percentages and levy rates, defaulted from the statutory table
  - Round-at-every-step: Each intermediate is rounded to 2 decimal places
    BEFORE feeding the next step, so results are reproducible bit-for-bit

DESIGN PRINCIPLES:
  1. Purity: No state, no clock, no I/O. Same inputs, byte-identical outputs.
  2. Precision: decimal.Decimal everywhere, never float64 arithmetic.
  3. Edge validation: Percentage range checks live at the caller's edge
     (issuance, API), not inside ComputeBreakdown.

SEE ALSO:
  - breakdown.go: The calculation itself
  - minimum.go: Minimum premium check
  - slab.go: Advisory brokerage tiers
  - triangle.go: rate/premium/sum-insured solver
*/
package finance

import "github.com/shopspring/decimal"

// round2 rounds half away from zero to 2 decimal places. Every intermediate
// in the engine passes through this before being used again.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// pctOf returns round2(base * pct / 100).
func pctOf(base, pct decimal.Decimal) decimal.Decimal {
	return round2(base.Mul(pct).Div(decimal.NewFromInt(100)))
}

// MustDecimal parses s, panicking on malformed input. For statically known
// constants only.
func MustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

/*
triangle.go - rate / premium / sum-insured solver

PURPOSE:
  The three quantities are related by premium = sumInsured * rate / 100.
  Operators supply whichever two they know and the system derives the third.
  One solver replaces the three independent code paths the original flows
  accumulated (rate-from-premium, premium-from-rate, sum-insured-from-both).

RULES:
  - Exactly the missing member is computed, rounded to 2 decimal places.
  - When all three are supplied, the inputs are returned untouched; the
    caller asked for nothing.
  - Fewer than two supplied members is ErrTriangleUnderdetermined.
  - Deriving a member that requires dividing by a zero input is also
    underdetermined (0 sum insured cannot yield a rate).
*/
package finance

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Triangle holds the three related quantities. Nil means "not supplied".
type Triangle struct {
	RatePct    *decimal.Decimal
	Premium    *decimal.Decimal
	SumInsured *decimal.Decimal
}

// Solve fills in the missing member of the triangle.
func (t Triangle) Solve() (Triangle, error) {
	supplied := 0
	for _, p := range []*decimal.Decimal{t.RatePct, t.Premium, t.SumInsured} {
		if p != nil {
			supplied++
		}
	}
	if supplied < 2 {
		return Triangle{}, ErrTriangleUnderdetermined
	}
	if supplied == 3 {
		return t, nil
	}

	hundred := decimal.NewFromInt(100)
	switch {
	case t.Premium == nil:
		premium := round2(t.SumInsured.Mul(*t.RatePct).Div(hundred))
		t.Premium = &premium
	case t.RatePct == nil:
		if t.SumInsured.IsZero() {
			return Triangle{}, fmt.Errorf("%w: zero sum insured", ErrTriangleUnderdetermined)
		}
		rate := round2(t.Premium.Mul(hundred).Div(*t.SumInsured))
		t.RatePct = &rate
	case t.SumInsured == nil:
		if t.RatePct.IsZero() {
			return Triangle{}, fmt.Errorf("%w: zero rate", ErrTriangleUnderdetermined)
		}
		sum := round2(t.Premium.Mul(hundred).Div(*t.RatePct))
		t.SumInsured = &sum
	}
	return t, nil
}

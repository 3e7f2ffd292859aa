/*
minimum.go - Minimum premium validation

The minimum itself comes from the product catalog (per LOB, overridable at
the sub-LOB level). This check never clamps or mutates the premium; whether
an invalid result rejects or merely warns is the caller's decision.
*/
package finance

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MinimumResult is the outcome of a minimum-premium check.
type MinimumResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// ValidateMinimumPremium compares gross against the LOB minimum. The
// boundary is inclusive: gross == minimum is valid.
func ValidateMinimumPremium(gross, minimum decimal.Decimal) MinimumResult {
	if gross.GreaterThanOrEqual(minimum) {
		return MinimumResult{Valid: true}
	}
	return MinimumResult{
		Valid: false,
		Message: fmt.Sprintf("gross premium %s is below the minimum premium %s for this product",
			gross.StringFixed(2), minimum.StringFixed(2)),
	}
}

// MinimumError converts an invalid result into the error form used by the
// issuance workflow. Returns nil for valid results.
func MinimumError(gross, minimum decimal.Decimal) error {
	res := ValidateMinimumPremium(gross, minimum)
	if res.Valid {
		return nil
	}
	return &BelowMinimumError{Gross: gross, Minimum: minimum, Message: res.Message}
}

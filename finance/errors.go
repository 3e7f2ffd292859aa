/*
errors.go - Centralized error types for the calculation engine

ERROR CATEGORIES:
  1. Percentage errors - Out-of-range inputs caught at the caller's edge
  2. Levy errors       - Unparseable levy structures
  3. Minimum errors    - Below-minimum premium (validation class, non-fatal)

SEE ALSO:
  - levies.go: Produces ErrMalformedLevies
  - minimum.go: Produces BelowMinimumError
*/
package finance

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidPercentage is returned by the edge guard when a percentage
	// falls outside [0, 100]. The whole operation is rejected before any
	// persistence occurs.
	ErrInvalidPercentage = errors.New("percentage out of range")

	// ErrNegativePremium is returned by the edge guard for a negative gross
	// premium.
	ErrNegativePremium = errors.New("gross premium must not be negative")

	// ErrMalformedLevies is returned when the levies input is not a keyed
	// mapping at all. Individual unparseable values inside a valid mapping
	// default to 0 instead.
	ErrMalformedLevies = errors.New("malformed levies structure")

	// ErrBelowMinimumPremium classifies minimum-premium validation failures.
	// Non-fatal: whether to reject or warn is the caller's decision.
	ErrBelowMinimumPremium = errors.New("gross premium below minimum")

	// ErrTriangleUnderdetermined is returned when fewer than two of the
	// rate/premium/sum-insured triangle members are supplied.
	ErrTriangleUnderdetermined = errors.New("need at least two of rate, premium, sum insured")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// PercentageError reports which percentage argument was out of range.
type PercentageError struct {
	Field string
	Value decimal.Decimal
}

func (e *PercentageError) Error() string {
	return fmt.Sprintf("%s must be between 0 and 100, got %s", e.Field, e.Value)
}

func (e *PercentageError) Unwrap() error {
	return ErrInvalidPercentage
}

// BelowMinimumError carries the human-readable minimum-premium message.
type BelowMinimumError struct {
	Gross   decimal.Decimal
	Minimum decimal.Decimal
	Message string
}

func (e *BelowMinimumError) Error() string {
	return e.Message
}

func (e *BelowMinimumError) Unwrap() error {
	return ErrBelowMinimumPremium
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is correctable by the client.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidPercentage) ||
		errors.Is(err, ErrNegativePremium) ||
		errors.Is(err, ErrMalformedLevies) ||
		errors.Is(err, ErrTriangleUnderdetermined)
}

// IsValidation returns true for the non-fatal validation class that callers
// may choose to override through a separately authorized path.
func IsValidation(err error) bool {
	return errors.Is(err, ErrBelowMinimumPremium)
}

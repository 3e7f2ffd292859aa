/*
errors.go - Centralized error types for the numbering engine

PURPOSE:
  All sequence error types in one place. Consumers should match with
  errors.Is / errors.As rather than string comparison.

ERROR CATEGORIES:
  1. Conflict errors - Contention on a counter row (retryable)
  2. Key errors      - Malformed partition keys (caller bugs)
  3. Code errors     - Unparseable rendered codes

USAGE:
  if errors.Is(err, sequence.ErrSequenceConflict) {
      // retries exhausted: surface as transient failure, never skip
  }

SEE ALSO:
  - generator.go: Retry loop around ErrSequenceConflict
  - store/sqlite: Maps driver errors onto these
*/
package sequence

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrSequenceConflict is returned when the counter increment could not be
	// committed due to contention. The generator retries a bounded number of
	// times; if this still surfaces, the operation failed transiently.
	ErrSequenceConflict = errors.New("sequence counter conflict")

	// ErrStoreUnavailable is returned when the underlying store cannot be
	// reached at all.
	ErrStoreUnavailable = errors.New("sequence store unavailable")

	// ErrReleaseSuperseded is returned by a compensating release when the
	// number being given back is no longer the latest. Best-effort only:
	// callers must treat this as informational, never as corruption.
	ErrReleaseSuperseded = errors.New("sequence release superseded by a later issue")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidKeyError reports a partition key the store must never see.
type InvalidKeyError struct {
	Key    Key
	Reason string
}

func (e *InvalidKeyError) Error() string {
	return fmt.Sprintf("invalid sequence key %s: %s", e.Key, e.Reason)
}

// ConflictError wraps a store-level contention failure with the key it hit.
type ConflictError struct {
	Key      Key
	Attempts int
	Err      error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("sequence conflict on %s after %d attempts: %v", e.Key, e.Attempts, e.Err)
}

func (e *ConflictError) Unwrap() error {
	return ErrSequenceConflict
}

// MalformedCodeError reports a code string that does not match its template.
type MalformedCodeError struct {
	Input  string
	Reason string
}

func (e *MalformedCodeError) Error() string {
	return fmt.Sprintf("malformed code %q: %s", e.Input, e.Reason)
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrSequenceConflict)
}

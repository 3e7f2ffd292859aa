/*
store.go - Persistence interface for sequence counters

PURPOSE:
  Defines the interface between the generator and the database. The store
  owns atomicity: Next must be an atomic read-increment-write with respect to
  concurrent callers on the same key, which in SQL terms means a serializable
  (or stronger) transaction or an upsert-returning statement.

CONTRACT:
  - Next creates the counter lazily at 1 on first use of a key.
  - Two concurrent Next calls for the same key never return the same value.
  - Counters are never deleted in normal operation; only test and cleanup
    code removes rows.
  - Release is best-effort compensation for a burned number and only takes
    effect while that number is still the latest. Correctness never depends
    on it; gaps are accepted.

IMPLEMENTATIONS:
  - store/sqlite: Production store, one counters table with a uniqueness
    constraint on the full key tuple.
  - sequence/store.Memory: In-memory store for tests and dev.

SEE ALSO:
  - generator.go: The only consumer of this interface
*/
package sequence

import "context"

// Store handles counter persistence. One row per (entity, year, sub-type).
type Store interface {
	// Next atomically increments the counter for key and returns the new
	// value, creating the row at 1 when absent. Returns an error satisfying
	// errors.Is(err, ErrSequenceConflict) on unresolved contention.
	Next(ctx context.Context, key Key) (int64, error)

	// Current returns the last issued value for key, 0 when the counter does
	// not exist yet. Read-only: never creates the row.
	Current(ctx context.Context, key Key) (int64, error)

	// Release attempts a compensating decrement after a failed downstream
	// write. It succeeds only when seq is still the latest issued value and
	// returns ErrReleaseSuperseded otherwise.
	Release(ctx context.Context, key Key, seq int64) error
}

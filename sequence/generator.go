/*
generator.go - The document number generator

PURPOSE:
  Turns "give me the next policy number for 2025" into an atomic counter
  increment plus a rendered code. All numbering flows (clients, policies,
  endorsements, notes, claims, import batches) go through this one type.

KEY BEHAVIORS:
  - Year defaulting: a Key with Year == 0 resolves to the injected clock's
    current year at call time. The clock is a parameter, not a global, so
    year-boundary behavior is testable.
  - Bounded retry: store-level conflicts are retried a fixed number of times
    before surfacing. A surfaced conflict is a transient failure, never a
    silently skipped number.
  - Peek: a read-only preview of the next value, used by forms that show the
    number before submit. Peek is advisory; a concurrent issuer can still
    take the previewed value first.
  - Release: best-effort give-back of a burned number after a failed
    downstream persist. Gaps remain acceptable.

SEE ALSO:
  - store.go: Atomicity contract the generator relies on
  - format.go: Rendering of the returned Code
*/
package sequence

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// =============================================================================
// GENERATOR
// =============================================================================

const defaultMaxAttempts = 3

// Generator issues document numbers from a Store.
type Generator struct {
	store       Store
	clock       func() time.Time
	maxAttempts int
	logger      *zap.SugaredLogger
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock injects the time source used to resolve zero years.
func WithClock(clock func() time.Time) Option {
	return func(g *Generator) { g.clock = clock }
}

// WithMaxAttempts bounds the conflict retry loop.
func WithMaxAttempts(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// WithLogger attaches a logger for issued-number audit lines.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(g *Generator) { g.logger = logger }
}

// NewGenerator creates a generator over the given store.
func NewGenerator(store Store, opts ...Option) *Generator {
	g := &Generator{
		store:       store,
		clock:       time.Now,
		maxAttempts: defaultMaxAttempts,
		logger:      zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Next issues the next number in the key's partition and renders its code.
// Key.Year == 0 resolves to the clock's current year.
func (g *Generator) Next(ctx context.Context, key Key) (Code, error) {
	key = key.resolved(g.clock())
	if err := key.validate(); err != nil {
		return Code{}, err
	}

	var (
		seq int64
		err error
	)
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		seq, err = g.store.Next(ctx, key)
		if err == nil {
			break
		}
		if !IsRetryable(err) {
			return Code{}, err
		}
		if attempt == g.maxAttempts {
			return Code{}, &ConflictError{Key: key, Attempts: attempt, Err: err}
		}
	}

	code := Code{Entity: key.Entity, SubType: key.SubType, Year: key.Year, Seq: seq}
	g.logger.Infow("issued document number",
		"entity", key.Entity,
		"year", key.Year,
		"sub_type", key.SubType,
		"seq", seq,
		"code", code.String())
	return code, nil
}

// Peek previews the value the next issue would receive without incrementing.
// Advisory only: a concurrent issuer may take the previewed value first.
func (g *Generator) Peek(ctx context.Context, key Key) (Code, error) {
	key = key.resolved(g.clock())
	if err := key.validate(); err != nil {
		return Code{}, err
	}

	last, err := g.store.Current(ctx, key)
	if err != nil {
		return Code{}, err
	}
	return Code{Entity: key.Entity, SubType: key.SubType, Year: key.Year, Seq: last + 1}, nil
}

// Release hands back a number obtained from Next after the owning record
// failed to persist. Best-effort: a superseded release is reported but must
// not be escalated.
func (g *Generator) Release(ctx context.Context, code Code) error {
	key := Key{Entity: code.Entity, Year: code.Year, SubType: code.SubType}
	if err := key.validate(); err != nil {
		return err
	}

	err := g.store.Release(ctx, key, code.Seq)
	if err != nil {
		g.logger.Infow("sequence release skipped",
			"entity", key.Entity,
			"year", key.Year,
			"sub_type", key.SubType,
			"seq", code.Seq,
			"reason", err)
		return err
	}
	return nil
}

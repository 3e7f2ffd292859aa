/*
Package sequence provides the year-partitioned document numbering engine.

PURPOSE:
  Every numbered artifact in the brokerage back office (clients, policies,
  endorsements, credit/debit notes, claims, import batches) draws its number
  from one uniform counter keyspace. This package owns the key model, the
  code formats, and the generator that hands out numbers atomically.

KEY CONCEPTS IN THIS FILE (types.go):
  - EntityType: Which numbering series a document belongs to
  - SubType: Optional partition within a series (e.g. Individual vs Corporate)
  - Key: The (entity, year, sub-type) tuple identifying one counter
  - Counter: Persisted state of one partition
  - Code: A rendered document number plus its raw components

DESIGN PRINCIPLES:
  1. One keyspace: no parallel "clientSequences"/"policySequences" tables.
     The entity type is part of the key, not part of the schema.
  2. Year partitions are independent: each calendar year starts at 1 for
     every entity type and sub-type, with no carry-over.
  3. Numbers are unique and monotonic, NOT gap-free. A caller that burns a
     number by failing downstream leaves a gap, and that is fine.
  4. Codes are derived values: (entity, year, seq) is the source of truth,
     the string is always reproducible from it.

USAGE:
  gen := sequence.NewGenerator(store, sequence.WithClock(time.Now))
  code, err := gen.Next(ctx, sequence.Key{Entity: sequence.EntityPolicy, Year: 2025})
  // code.String() == "POL/2025/000001"

SEE ALSO:
  - format.go: Code templates and round-trip parsing
  - generator.go: The atomic increment loop
  - store.go: Persistence interface
  - store/memory.go: In-memory implementation for tests
*/
package sequence

import (
	"fmt"
	"time"
)

// =============================================================================
// ENTITY TYPES - One numbering series per entity type
// =============================================================================

// EntityType identifies a numbering series.
type EntityType string

const (
	EntityClient      EntityType = "CLIENT"
	EntityPolicy      EntityType = "POLICY"
	EntityEndorsement EntityType = "ENDORSEMENT"
	EntityNote        EntityType = "NOTE"
	EntityClaim       EntityType = "CLAIM"
	EntityImportBatch EntityType = "IMPORT_BATCH"
)

// Valid reports whether the entity type is one of the known series.
func (e EntityType) Valid() bool {
	switch e {
	case EntityClient, EntityPolicy, EntityEndorsement, EntityNote, EntityClaim, EntityImportBatch:
		return true
	}
	return false
}

// SubType partitions a series further. The empty sub-type is itself a valid,
// distinct partition: EntityClient with and without a sub-type are different
// counters.
type SubType string

const (
	SubTypeNone SubType = ""

	// Client sub-series
	SubTypeIndividual SubType = "INDIVIDUAL"
	SubTypeCorporate  SubType = "CORPORATE"

	// Note sub-series
	SubTypeCreditNote SubType = "CREDIT"
	SubTypeDebitNote  SubType = "DEBIT"
)

// =============================================================================
// KEY - Identifies one independent counter partition
// =============================================================================

// Key is the full partition key for one counter. Two Keys that differ in any
// field address independent counters.
//
// Year zero means "resolve against the generator's clock at call time".
// Callers issuing back-dated documents (bulk imports, policies numbered by
// their start date) pass the year explicitly.
type Key struct {
	Entity  EntityType
	Year    int
	SubType SubType
}

func (k Key) String() string {
	if k.SubType == SubTypeNone {
		return fmt.Sprintf("%s/%d", k.Entity, k.Year)
	}
	return fmt.Sprintf("%s/%d/%s", k.Entity, k.Year, k.SubType)
}

// resolved returns a copy with Year filled in from now when the caller left
// it zero.
func (k Key) resolved(now time.Time) Key {
	if k.Year == 0 {
		k.Year = now.Year()
	}
	return k
}

// validate rejects keys the store should never see.
func (k Key) validate() error {
	if !k.Entity.Valid() {
		return &InvalidKeyError{Key: k, Reason: "unknown entity type"}
	}
	if k.Year < 1900 || k.Year > 9999 {
		return &InvalidKeyError{Key: k, Reason: "year out of range"}
	}
	return nil
}

// =============================================================================
// COUNTER - Persisted state of one partition
// =============================================================================

// Counter is the durable row backing one partition. LastSeq is the last
// integer issued; the first issued value is 1. Rows are created lazily on
// first use and never deleted in normal operation.
type Counter struct {
	Key       Key
	LastSeq   int64
	UpdatedAt time.Time
}

// =============================================================================
// CODE - A rendered document number
// =============================================================================

// Code is a generated document number. The string is derived from the raw
// components and carries no independent identity.
type Code struct {
	Entity  EntityType
	SubType SubType
	Year    int
	Seq     int64
}

// String renders the code in the entity's canonical template.
func (c Code) String() string {
	return formatCode(c.Entity, c.SubType, c.Year, c.Seq)
}

/*
Package issuance implements the document issuance workflow.

PURPOSE:
  The consumer that ties the numbering engine and the calculation engine
  together: when a policy, endorsement, credit/debit note, claim, or import
  batch is created, this package generates its number, computes its monetary
  breakdown, and hands both to persistence as one record.

FLOW (per document):
  1. Validate percentages at the edge (reject before anything persists)
  2. Resolve product terms from the catalog, apply request overrides
  3. Minimum premium check (non-fatal class; rejected unless explicitly
     overridden through the authorized path)
  4. Compute the breakdown
  5. Generate the document number, numbered by the document's effective
     year rather than the wall clock
  6. Persist; on failure, best-effort release of the burned number, the
     persistence error always propagates

A record is never persisted partially numbered or partially costed: any
error before step 6 aborts the whole operation.

SEE ALSO:
  - service.go: The workflow itself
  - store.go: DocumentStore interface
*/
package issuance

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meibl/brokerage-engine/finance"
	"github.com/meibl/brokerage-engine/sequence"
)

// =============================================================================
// DOCUMENT KINDS
// =============================================================================

// Kind identifies what kind of document is being issued.
type Kind string

const (
	KindPolicy      Kind = "policy"
	KindEndorsement Kind = "endorsement"
	KindCreditNote  Kind = "credit_note"
	KindDebitNote   Kind = "debit_note"
	KindClaim       Kind = "claim"
	KindImportBatch Kind = "import_batch"
)

// Valid reports whether the kind is issuable.
func (k Kind) Valid() bool {
	switch k {
	case KindPolicy, KindEndorsement, KindCreditNote, KindDebitNote, KindClaim, KindImportBatch:
		return true
	}
	return false
}

// SequenceKey maps the kind onto its numbering partition for the given year.
// Credit and debit notes share the NOTE entity but run independent
// sub-series.
func (k Kind) SequenceKey(year int) sequence.Key {
	switch k {
	case KindPolicy:
		return sequence.Key{Entity: sequence.EntityPolicy, Year: year}
	case KindEndorsement:
		return sequence.Key{Entity: sequence.EntityEndorsement, Year: year}
	case KindCreditNote:
		return sequence.Key{Entity: sequence.EntityNote, Year: year, SubType: sequence.SubTypeCreditNote}
	case KindDebitNote:
		return sequence.Key{Entity: sequence.EntityNote, Year: year, SubType: sequence.SubTypeDebitNote}
	case KindClaim:
		return sequence.Key{Entity: sequence.EntityClaim, Year: year}
	case KindImportBatch:
		return sequence.Key{Entity: sequence.EntityImportBatch, Year: year}
	}
	return sequence.Key{}
}

// =============================================================================
// DOCUMENT - The persisted result of one issuance
// =============================================================================

// Document is an issued, numbered, costed record.
type Document struct {
	ID     string
	Kind   Kind
	Number string
	Seq    int64
	Year   int

	ClientID  string
	InsurerID string
	LOB       string
	SubLOB    string

	Breakdown finance.Breakdown

	EffectiveAt time.Time
	CreatedAt   time.Time
}

// =============================================================================
// REQUESTS
// =============================================================================

// IssueRequest describes one document to issue.
type IssueRequest struct {
	Kind      Kind
	ClientID  string
	InsurerID string
	LOB       string
	SubLOB    string

	GrossPremium decimal.Decimal

	// Overrides; nil fields take the catalog's resolved terms.
	BrokeragePct       *decimal.Decimal
	VATPct             *decimal.Decimal
	AgentCommissionPct *decimal.Decimal
	LevyRates          map[string]decimal.Decimal

	// EffectiveAt drives the numbering year (back-dated imports number
	// policies by their start date). Zero means the workflow clock.
	EffectiveAt time.Time

	// AllowBelowMinimum is set only by the separately authorized override
	// path; the normal flow rejects below-minimum premiums.
	AllowBelowMinimum bool
}

// Client is a registered client with its generated code.
type Client struct {
	ID        string
	Code      string
	Seq       int64
	Year      int
	Name      string
	Type      ClientType
	CreatedAt time.Time
}

// ClientType selects the client sub-series.
type ClientType string

const (
	ClientIndividual ClientType = "individual"
	ClientCorporate  ClientType = "corporate"
)

// SubType maps the client type to its sequence partition.
func (t ClientType) SubType() (sequence.SubType, bool) {
	switch t {
	case ClientIndividual:
		return sequence.SubTypeIndividual, true
	case ClientCorporate:
		return sequence.SubTypeCorporate, true
	}
	return sequence.SubTypeNone, false
}

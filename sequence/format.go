/*
format.go - Code templates and round-trip parsing

PURPOSE:
  Renders (entity, sub-type, year, seq) into the canonical document number
  string and parses such strings back into their components.

TEMPLATES (canonical, one per series):
  Client (individual)  MEIBL/CL/IND/{YYYY}/{SEQ:5}  e.g. MEIBL/CL/IND/2025/00001
  Client (corporate)   MEIBL/CL/COR/{YYYY}/{SEQ:5}
  Client (untyped)     MEIBL/CL/{YYYY}/{SEQ:5}
  Policy               POL/{YYYY}/{SEQ:6}           e.g. POL/2025/000001
  Endorsement          END/{YYYY}/{SEQ:6}
  Claim                CLM/{YYYY}/{SEQ:6}
  Import batch         IMP/{YYYY}/{SEQ:6}
  Credit note          CRN/{YYYY}/{SEQ:6}
  Debit note           DBN/{YYYY}/{SEQ:6}

  Every sub-typed series renders under its own prefix. Two distinct counter
  partitions must never emit the same string: the clients table enforces a
  unique code, so a shared template would make one partition's codes reject
  the other's inserts.

ROUND-TRIP GUARANTEE:
  For any code produced by formatCode, ParseCode returns the exact
  (year, seq) pair and re-rendering reproduces the original string.

SEE ALSO:
  - types.go: Code type
  - generator.go: Produces Codes
*/
package sequence

import (
	"fmt"
	"strconv"
	"strings"
)

// template describes one entity's rendering rule.
type template struct {
	prefix string
	width  int
}

// codeTemplates maps each un-sub-typed entity series to its template. Client
// and note sub-series render under their own prefixes, one per partition.
var codeTemplates = map[EntityType]template{
	EntityPolicy:      {prefix: "POL", width: 6},
	EntityEndorsement: {prefix: "END", width: 6},
	EntityClaim:       {prefix: "CLM", width: 6},
	EntityImportBatch: {prefix: "IMP", width: 6},
}

var clientTemplates = map[SubType]template{
	SubTypeIndividual: {prefix: "MEIBL/CL/IND", width: 5},
	SubTypeCorporate:  {prefix: "MEIBL/CL/COR", width: 5},
	SubTypeNone:       {prefix: "MEIBL/CL", width: 5},
}

var noteTemplates = map[SubType]template{
	SubTypeCreditNote: {prefix: "CRN", width: 6},
	SubTypeDebitNote:  {prefix: "DBN", width: 6},
	SubTypeNone:       {prefix: "NTE", width: 6},
}

func lookupTemplate(entity EntityType, subType SubType) template {
	switch entity {
	case EntityClient:
		if t, ok := clientTemplates[subType]; ok {
			return t
		}
		return clientTemplates[SubTypeNone]
	case EntityNote:
		if t, ok := noteTemplates[subType]; ok {
			return t
		}
		return noteTemplates[SubTypeNone]
	}
	return codeTemplates[entity]
}

func formatCode(entity EntityType, subType SubType, year int, seq int64) string {
	t := lookupTemplate(entity, subType)
	return fmt.Sprintf("%s/%04d/%0*d", t.prefix, year, t.width, seq)
}

// ParseCode extracts (year, seq) from a rendered code for the given series.
// The prefix and zero-padding must match the series template exactly.
func ParseCode(entity EntityType, subType SubType, s string) (Code, error) {
	t := lookupTemplate(entity, subType)

	rest, ok := strings.CutPrefix(s, t.prefix+"/")
	if !ok {
		return Code{}, &MalformedCodeError{Input: s, Reason: "prefix mismatch"}
	}

	parts := strings.Split(rest, "/")
	if len(parts) != 2 {
		return Code{}, &MalformedCodeError{Input: s, Reason: "expected {YYYY}/{SEQ}"}
	}

	if len(parts[0]) != 4 {
		return Code{}, &MalformedCodeError{Input: s, Reason: "year must be 4 digits"}
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return Code{}, &MalformedCodeError{Input: s, Reason: "year is not numeric"}
	}

	// Sequences wider than the template (past 10^width-1) render unpadded
	// growth, so only undersized fields are malformed.
	if len(parts[1]) < t.width {
		return Code{}, &MalformedCodeError{Input: s, Reason: fmt.Sprintf("sequence must be at least %d digits", t.width)}
	}
	seq, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Code{}, &MalformedCodeError{Input: s, Reason: "sequence is not numeric"}
	}

	return Code{Entity: entity, SubType: subType, Year: year, Seq: seq}, nil
}

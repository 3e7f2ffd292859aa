/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Structural validation (required fields, enums) is declared with
  go-playground/validator struct tags and run in the handlers. Monetary and
  percentage range rules stay in the domain packages.

SEE ALSO:
  - handlers.go: Uses these types
  - issuance/types.go: Domain types these map onto
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meibl/brokerage-engine/finance"
	"github.com/meibl/brokerage-engine/issuance"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// IssueDocumentRequest is the request to issue a numbered, costed document.
type IssueDocumentRequest struct {
	Kind         string `json:"kind" validate:"required,oneof=policy endorsement credit_note debit_note claim import_batch"`
	ClientID     string `json:"client_id,omitempty"`
	InsurerID    string `json:"insurer_id,omitempty"`
	LOB          string `json:"lob" validate:"required"`
	SubLOB       string `json:"sub_lob,omitempty"`
	GrossPremium string `json:"gross_premium" validate:"required"`

	BrokeragePct       *string        `json:"brokerage_pct,omitempty"`
	VATPct             *string        `json:"vat_pct,omitempty"`
	AgentCommissionPct *string        `json:"agent_commission_pct,omitempty"`
	Levies             map[string]any `json:"levies,omitempty"`

	EffectiveAt       string `json:"effective_at,omitempty"` // YYYY-MM-DD
	AllowBelowMinimum bool   `json:"allow_below_minimum,omitempty"`
}

// RegisterClientRequest is the request to register a client.
type RegisterClientRequest struct {
	Name string `json:"name" validate:"required"`
	Type string `json:"type" validate:"required,oneof=individual corporate"`
}

// BreakdownRequest computes a quote breakdown without persisting anything.
type BreakdownRequest struct {
	GrossPremium       string         `json:"gross_premium" validate:"required"`
	BrokeragePct       string         `json:"brokerage_pct" validate:"required"`
	VATPct             *string        `json:"vat_pct,omitempty"`
	AgentCommissionPct *string        `json:"agent_commission_pct,omitempty"`
	Levies             map[string]any `json:"levies,omitempty"`
}

// SolveTriangleRequest fills in the missing member of rate/premium/sum-insured.
type SolveTriangleRequest struct {
	RatePct    *string `json:"rate_pct,omitempty"`
	Premium    *string `json:"premium,omitempty"`
	SumInsured *string `json:"sum_insured,omitempty"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// DocumentDTO represents an issued document in API responses.
type DocumentDTO struct {
	ID          string       `json:"id"`
	Kind        string       `json:"kind"`
	Number      string       `json:"number"`
	Seq         int64        `json:"seq"`
	Year        int          `json:"year"`
	ClientID    string       `json:"client_id,omitempty"`
	InsurerID   string       `json:"insurer_id,omitempty"`
	LOB         string       `json:"lob"`
	SubLOB      string       `json:"sub_lob,omitempty"`
	Breakdown   BreakdownDTO `json:"breakdown"`
	EffectiveAt string       `json:"effective_at"`
	CreatedAt   string       `json:"created_at,omitempty"`
}

// BreakdownDTO is the monetary breakdown with fixed 2-decimal rendering.
type BreakdownDTO struct {
	GrossPremium          string            `json:"gross_premium"`
	BrokeragePct          string            `json:"brokerage_pct"`
	BrokerageAmount       string            `json:"brokerage_amount"`
	VATPct                string            `json:"vat_pct"`
	VATOnBrokerage        string            `json:"vat_on_brokerage"`
	AgentCommissionPct    string            `json:"agent_commission_pct"`
	AgentCommissionAmount string            `json:"agent_commission_amount"`
	NetBrokerage          string            `json:"net_brokerage"`
	Levies                map[string]string `json:"levies"`
	LeviesTotal           string            `json:"levies_total"`
	NetAmountDue          string            `json:"net_amount_due"`
	InsurerNetAmount      string            `json:"insurer_net_amount"`
}

// ClientDTO represents a registered client.
type ClientDTO struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	CreatedAt string `json:"created_at,omitempty"`
}

// PeekDTO previews the next number in a series.
type PeekDTO struct {
	Entity  string `json:"entity"`
	SubType string `json:"sub_type,omitempty"`
	Year    int    `json:"year"`
	NextSeq int64  `json:"next_seq"`
	Code    string `json:"code"`
}

// ProductTermsDTO lists catalog terms.
type ProductTermsDTO struct {
	LOB            string            `json:"lob"`
	SubLOB         string            `json:"sub_lob,omitempty"`
	Name           string            `json:"name"`
	BrokeragePct   string            `json:"brokerage_pct"`
	VATPct         string            `json:"vat_pct"`
	MinimumPremium string            `json:"minimum_premium"`
	LevyRates      map[string]string `json:"levy_rates"`
}

// TriangleDTO is the solved rate/premium/sum-insured triple.
type TriangleDTO struct {
	RatePct    string `json:"rate_pct"`
	Premium    string `json:"premium"`
	SumInsured string `json:"sum_insured"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toBreakdownDTO(b finance.Breakdown) BreakdownDTO {
	levies := make(map[string]string, len(b.Levies))
	for k, v := range b.Levies {
		levies[k] = v.StringFixed(2)
	}
	return BreakdownDTO{
		GrossPremium:          b.GrossPremium.StringFixed(2),
		BrokeragePct:          b.BrokeragePct.String(),
		BrokerageAmount:       b.BrokerageAmount.StringFixed(2),
		VATPct:                b.VATPct.String(),
		VATOnBrokerage:        b.VATOnBrokerage.StringFixed(2),
		AgentCommissionPct:    b.AgentCommissionPct.String(),
		AgentCommissionAmount: b.AgentCommissionAmount.StringFixed(2),
		NetBrokerage:          b.NetBrokerage.StringFixed(2),
		Levies:                levies,
		LeviesTotal:           b.LeviesTotal.StringFixed(2),
		NetAmountDue:          b.NetAmountDue.StringFixed(2),
		InsurerNetAmount:      b.InsurerNetAmount.StringFixed(2),
	}
}

func toDocumentDTO(doc issuance.Document) DocumentDTO {
	return DocumentDTO{
		ID:          doc.ID,
		Kind:        string(doc.Kind),
		Number:      doc.Number,
		Seq:         doc.Seq,
		Year:        doc.Year,
		ClientID:    doc.ClientID,
		InsurerID:   doc.InsurerID,
		LOB:         doc.LOB,
		SubLOB:      doc.SubLOB,
		Breakdown:   toBreakdownDTO(doc.Breakdown),
		EffectiveAt: doc.EffectiveAt.Format("2006-01-02"),
		CreatedAt:   doc.CreatedAt.Format(time.RFC3339),
	}
}

func toClientDTO(c issuance.Client) ClientDTO {
	return ClientDTO{
		ID:        c.ID,
		Code:      c.Code,
		Name:      c.Name,
		Type:      string(c.Type),
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
}

// parseDecimal parses a required decimal field.
func parseDecimal(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

// parseDecimalPtr parses an optional decimal field, nil in nil out.
func parseDecimalPtr(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

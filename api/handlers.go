/*
handlers.go - HTTP API handlers for the brokerage back-office core

PURPOSE:
  Exposes document issuance, client registration, number previews, and quote
  calculations via REST. Handles HTTP request/response, JSON serialization,
  and delegates to domain logic.

ENDPOINTS:
  Documents:
    POST   /api/documents           Issue a numbered, costed document
    GET    /api/documents           List issued documents (?kind=)
    GET    /api/documents/{id}      Get one document

  Clients:
    POST   /api/clients             Register a client (generates its code)
    GET    /api/clients             List registered clients

  Sequences:
    GET    /api/sequences/{entity}/peek?year=&sub_type=  Preview next number

  Quotes:
    POST   /api/quotes/breakdown    Compute a breakdown, nothing persists
    GET    /api/quotes/slab?gross=  Advisory brokerage slab
    POST   /api/quotes/solve        rate/premium/sum-insured triangle

  Catalog:
    GET    /api/catalog             List product terms

ERROR HANDLING:
  Errors are returned as JSON with the status derived from the workflow's
  error class:
  - 400: Malformed input, out-of-range percentages, malformed levies
  - 404: Resource not found
  - 422: Below-minimum premium (client-correctable validation)
  - 500: Sequence conflicts with retries exhausted, internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - issuance/service.go: The workflow behind POST /api/documents
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/meibl/brokerage-engine/factory"
	"github.com/meibl/brokerage-engine/finance"
	"github.com/meibl/brokerage-engine/issuance"
	"github.com/meibl/brokerage-engine/sequence"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service   *issuance.Service
	Sequences *sequence.Generator
	Store     issuance.DocumentStore
	Catalog   *factory.Catalog

	validate *validator.Validate
}

// NewHandler creates a new handler with the given collaborators.
func NewHandler(svc *issuance.Service, gen *sequence.Generator, store issuance.DocumentStore, catalog *factory.Catalog) *Handler {
	return &Handler{
		Service:   svc,
		Sequences: gen,
		Store:     store,
		Catalog:   catalog,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

// =============================================================================
// DOCUMENT HANDLERS
// =============================================================================

// IssueDocument runs the issuance workflow.
func (h *Handler) IssueDocument(w http.ResponseWriter, r *http.Request) {
	var req IssueDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}

	gross, err := parseDecimal(req.GrossPremium)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid gross_premium", err)
		return
	}

	brokeragePct, err := parseDecimalPtr(req.BrokeragePct)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid brokerage_pct", err)
		return
	}
	vatPct, err := parseDecimalPtr(req.VATPct)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid vat_pct", err)
		return
	}
	agentPct, err := parseDecimalPtr(req.AgentCommissionPct)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid agent_commission_pct", err)
		return
	}

	var rates map[string]decimal.Decimal
	if req.Levies != nil {
		rates, err = finance.ParseLevyRates(req.Levies)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid levies", err)
			return
		}
	}

	var effectiveAt time.Time
	if req.EffectiveAt != "" {
		effectiveAt, err = time.Parse("2006-01-02", req.EffectiveAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid effective_at format (use YYYY-MM-DD)", err)
			return
		}
	}

	doc, err := h.Service.Issue(r.Context(), issuance.IssueRequest{
		Kind:               issuance.Kind(req.Kind),
		ClientID:           req.ClientID,
		InsurerID:          req.InsurerID,
		LOB:                req.LOB,
		SubLOB:             req.SubLOB,
		GrossPremium:       gross,
		BrokeragePct:       brokeragePct,
		VATPct:             vatPct,
		AgentCommissionPct: agentPct,
		LevyRates:          rates,
		EffectiveAt:        effectiveAt,
		AllowBelowMinimum:  req.AllowBelowMinimum,
	})
	if err != nil {
		writeWorkflowError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toDocumentDTO(*doc))
}

// ListDocuments returns issued documents, optionally filtered by kind.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	kind := issuance.Kind(r.URL.Query().Get("kind"))
	if kind != "" && !kind.Valid() {
		writeError(w, http.StatusBadRequest, "Unknown document kind", nil)
		return
	}

	docs, err := h.Store.ListDocuments(r.Context(), kind)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list documents", err)
		return
	}

	dtos := make([]DocumentDTO, len(docs))
	for i, doc := range docs {
		dtos[i] = toDocumentDTO(doc)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetDocument returns a single document.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	doc, err := h.Store.GetDocument(r.Context(), id)
	if errors.Is(err, issuance.ErrDocumentNotFound) {
		writeError(w, http.StatusNotFound, "Document not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get document", err)
		return
	}

	writeJSON(w, http.StatusOK, toDocumentDTO(*doc))
}

// =============================================================================
// CLIENT HANDLERS
// =============================================================================

// RegisterClient registers a client and issues its code.
func (h *Handler) RegisterClient(w http.ResponseWriter, r *http.Request) {
	var req RegisterClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}

	client, err := h.Service.RegisterClient(r.Context(), req.Name, issuance.ClientType(req.Type))
	if err != nil {
		writeWorkflowError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toClientDTO(*client))
}

// ListClients returns all registered clients.
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.Store.ListClients(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list clients", err)
		return
	}

	dtos := make([]ClientDTO, len(clients))
	for i, c := range clients {
		dtos[i] = toClientDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// SEQUENCE HANDLERS
// =============================================================================

// PeekSequence previews the next number for a series without issuing it.
func (h *Handler) PeekSequence(w http.ResponseWriter, r *http.Request) {
	entity := sequence.EntityType(chi.URLParam(r, "entity"))
	if !entity.Valid() {
		writeError(w, http.StatusBadRequest, "Unknown entity type", nil)
		return
	}

	year := 0
	if y := r.URL.Query().Get("year"); y != "" {
		parsed, err := strconv.Atoi(y)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid year", err)
			return
		}
		year = parsed
	}
	subType := sequence.SubType(r.URL.Query().Get("sub_type"))

	code, err := h.Sequences.Peek(r.Context(), sequence.Key{Entity: entity, Year: year, SubType: subType})
	if err != nil {
		writeWorkflowError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, PeekDTO{
		Entity:  string(code.Entity),
		SubType: string(code.SubType),
		Year:    code.Year,
		NextSeq: code.Seq,
		Code:    code.String(),
	})
}

// =============================================================================
// QUOTE HANDLERS
// =============================================================================

// ComputeBreakdown computes a breakdown without persisting anything.
func (h *Handler) ComputeBreakdown(w http.ResponseWriter, r *http.Request) {
	var req BreakdownRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}

	gross, err := parseDecimal(req.GrossPremium)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid gross_premium", err)
		return
	}
	if gross.IsNegative() {
		writeError(w, http.StatusBadRequest, "gross_premium must not be negative", finance.ErrNegativePremium)
		return
	}
	brokeragePct, err := parseDecimal(req.BrokeragePct)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid brokerage_pct", err)
		return
	}
	vatPct, err := parseDecimalPtr(req.VATPct)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid vat_pct", err)
		return
	}
	agentPct, err := parseDecimalPtr(req.AgentCommissionPct)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid agent_commission_pct", err)
		return
	}

	// Edge range guards, per the calculator's contract.
	pcts := []struct {
		field string
		pct   *decimal.Decimal
	}{
		{"brokerage_pct", &brokeragePct},
		{"vat_pct", vatPct},
		{"agent_commission_pct", agentPct},
	}
	for _, p := range pcts {
		if p.pct == nil {
			continue
		}
		if err := finance.ValidatePercent(p.field, *p.pct); err != nil {
			writeError(w, http.StatusBadRequest, "Percentage out of range", err)
			return
		}
	}

	opts := finance.Options{VATPct: vatPct}
	if agentPct != nil {
		opts.AgentCommissionPct = *agentPct
	}
	if req.Levies != nil {
		rates, err := finance.ParseLevyRates(req.Levies)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid levies", err)
			return
		}
		opts.LevyRates = rates
	}

	writeJSON(w, http.StatusOK, toBreakdownDTO(finance.ComputeBreakdown(gross, brokeragePct, opts)))
}

// SuggestSlab returns the advisory brokerage tier for a gross premium.
func (h *Handler) SuggestSlab(w http.ResponseWriter, r *http.Request) {
	gross, err := parseDecimal(r.URL.Query().Get("gross"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid gross", err)
		return
	}

	s := finance.SuggestBrokerageSlab(gross)
	writeJSON(w, http.StatusOK, map[string]string{
		"tier":          s.Tier,
		"brokerage_pct": s.BrokeragePct.String(),
	})
}

// SolveTriangle fills in the missing of rate/premium/sum-insured.
func (h *Handler) SolveTriangle(w http.ResponseWriter, r *http.Request) {
	var req SolveTriangleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rate, err := parseDecimalPtr(req.RatePct)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid rate_pct", err)
		return
	}
	premium, err := parseDecimalPtr(req.Premium)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid premium", err)
		return
	}
	sumInsured, err := parseDecimalPtr(req.SumInsured)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid sum_insured", err)
		return
	}

	solved, err := finance.Triangle{RatePct: rate, Premium: premium, SumInsured: sumInsured}.Solve()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Cannot solve", err)
		return
	}

	writeJSON(w, http.StatusOK, TriangleDTO{
		RatePct:    solved.RatePct.String(),
		Premium:    solved.Premium.StringFixed(2),
		SumInsured: solved.SumInsured.StringFixed(2),
	})
}

// =============================================================================
// CATALOG HANDLERS
// =============================================================================

// ListCatalog returns LOB-level product terms.
func (h *Handler) ListCatalog(w http.ResponseWriter, r *http.Request) {
	terms := h.Catalog.LOBs()
	dtos := make([]ProductTermsDTO, len(terms))
	for i, t := range terms {
		rates := make(map[string]string, len(t.LevyRates))
		for k, v := range t.LevyRates {
			rates[k] = v.String()
		}
		dtos[i] = ProductTermsDTO{
			LOB:            t.LOB,
			SubLOB:         t.SubLOB,
			Name:           t.Name,
			BrokeragePct:   t.BrokeragePct.String(),
			VATPct:         t.VATPct.String(),
			MinimumPremium: t.MinimumPremium.StringFixed(2),
			LevyRates:      rates,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeWorkflowError maps domain errors onto HTTP statuses.
func writeWorkflowError(w http.ResponseWriter, err error) {
	switch issuance.StatusClass(err) {
	case "not_found":
		writeError(w, http.StatusNotFound, "Not found", err)
	case "validation":
		writeError(w, http.StatusUnprocessableEntity, "Premium below minimum", err)
	case "client":
		writeError(w, http.StatusBadRequest, "Invalid request", err)
	case "conflict":
		writeError(w, http.StatusInternalServerError, "Numbering conflict, retry the operation", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

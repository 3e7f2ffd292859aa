/*
service.go - The document issuance workflow

Combines the sequence generator and the financial calculator, then persists.
Errors are never swallowed: a failure at any step aborts the whole issuance,
and a number burned by a failed persist is released best-effort only.
*/
package issuance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/meibl/brokerage-engine/factory"
	"github.com/meibl/brokerage-engine/finance"
	"github.com/meibl/brokerage-engine/sequence"
)

// ErrUnknownKind rejects issuance requests for kinds outside the taxonomy.
var ErrUnknownKind = errors.New("unknown document kind")

// ErrUnknownClientType rejects client registrations with a bad type.
var ErrUnknownClientType = errors.New("unknown client type")

// =============================================================================
// SERVICE
// =============================================================================

// Service runs issuance workflows.
type Service struct {
	sequences *sequence.Generator
	store     DocumentStore
	catalog   *factory.Catalog
	clock     func() time.Time
	logger    *zap.SugaredLogger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock injects the workflow time source.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *Service) { s.clock = clock }
}

// WithLogger attaches a logger for issuance audit lines.
func WithLogger(logger *zap.SugaredLogger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// NewService wires the workflow's collaborators together.
func NewService(gen *sequence.Generator, store DocumentStore, catalog *factory.Catalog, opts ...ServiceOption) *Service {
	s := &Service{
		sequences: gen,
		store:     store,
		catalog:   catalog,
		clock:     time.Now,
		logger:    zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// =============================================================================
// DOCUMENT ISSUANCE
// =============================================================================

// Issue runs the full workflow for one document.
func (s *Service) Issue(ctx context.Context, req IssueRequest) (*Document, error) {
	if !req.Kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, req.Kind)
	}
	if req.GrossPremium.IsNegative() {
		return nil, finance.ErrNegativePremium
	}

	terms, err := s.catalog.Resolve(req.LOB, req.SubLOB)
	if err != nil {
		return nil, err
	}

	brokeragePct := terms.BrokeragePct
	if req.BrokeragePct != nil {
		brokeragePct = *req.BrokeragePct
	}
	vatPct := terms.VATPct
	if req.VATPct != nil {
		vatPct = *req.VATPct
	}
	agentPct := decimal.Zero
	if req.AgentCommissionPct != nil {
		agentPct = *req.AgentCommissionPct
	}

	// Range checks happen here, at the edge, before anything persists.
	for _, check := range []struct {
		field string
		pct   decimal.Decimal
	}{
		{"brokerage_pct", brokeragePct},
		{"vat_pct", vatPct},
		{"agent_commission_pct", agentPct},
	} {
		if err := finance.ValidatePercent(check.field, check.pct); err != nil {
			return nil, err
		}
	}

	if !req.AllowBelowMinimum {
		if err := finance.MinimumError(req.GrossPremium, terms.MinimumPremium); err != nil {
			return nil, err
		}
	}

	rates := terms.LevyRates
	if req.LevyRates != nil {
		rates = req.LevyRates
	}

	breakdown := finance.ComputeBreakdown(req.GrossPremium, brokeragePct, finance.Options{
		VATPct:             &vatPct,
		AgentCommissionPct: agentPct,
		LevyRates:          rates,
	})

	effectiveAt := req.EffectiveAt
	if effectiveAt.IsZero() {
		effectiveAt = s.clock()
	}

	code, err := s.sequences.Next(ctx, req.Kind.SequenceKey(effectiveAt.Year()))
	if err != nil {
		return nil, err
	}

	doc := Document{
		ID:          uuid.NewString(),
		Kind:        req.Kind,
		Number:      code.String(),
		Seq:         code.Seq,
		Year:        code.Year,
		ClientID:    req.ClientID,
		InsurerID:   req.InsurerID,
		LOB:         req.LOB,
		SubLOB:      req.SubLOB,
		Breakdown:   breakdown,
		EffectiveAt: effectiveAt,
		CreatedAt:   s.clock().UTC(),
	}

	if err := s.store.SaveDocument(ctx, doc); err != nil {
		// Give the burned number back if it is still the tip. Best-effort:
		// the persistence error is what propagates either way.
		if relErr := s.sequences.Release(ctx, code); relErr != nil {
			s.logger.Warnw("burned sequence number not released",
				"number", doc.Number, "error", relErr)
		}
		return nil, fmt.Errorf("failed to persist document %s: %w", doc.Number, err)
	}

	s.logger.Infow("issued document",
		"kind", doc.Kind,
		"number", doc.Number,
		"gross_premium", breakdown.GrossPremium,
		"net_amount_due", breakdown.NetAmountDue)
	return &doc, nil
}

// =============================================================================
// CLIENT REGISTRATION
// =============================================================================

// RegisterClient issues a client code in the type's sub-series and persists
// the client.
func (s *Service) RegisterClient(ctx context.Context, name string, clientType ClientType) (*Client, error) {
	subType, ok := clientType.SubType()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownClientType, clientType)
	}

	code, err := s.sequences.Next(ctx, sequence.Key{Entity: sequence.EntityClient, SubType: subType})
	if err != nil {
		return nil, err
	}

	client := Client{
		ID:        uuid.NewString(),
		Code:      code.String(),
		Seq:       code.Seq,
		Year:      code.Year,
		Name:      name,
		Type:      clientType,
		CreatedAt: s.clock().UTC(),
	}

	if err := s.store.SaveClient(ctx, client); err != nil {
		if relErr := s.sequences.Release(ctx, code); relErr != nil {
			s.logger.Warnw("burned client code not released",
				"code", client.Code, "error", relErr)
		}
		return nil, fmt.Errorf("failed to persist client %s: %w", client.Code, err)
	}
	return &client, nil
}

// =============================================================================
// ERROR CLASSIFICATION
// =============================================================================

// StatusClass buckets workflow errors for transport layers: "client" maps to
// a 400-class response, "validation" to 422, "conflict" to 500-transient,
// "not_found" to 404, anything else to 500.
func StatusClass(err error) string {
	var invalidKey *sequence.InvalidKeyError
	switch {
	case errors.Is(err, ErrDocumentNotFound):
		return "not_found"
	case finance.IsValidation(err):
		return "validation"
	case sequence.IsRetryable(err):
		return "conflict"
	case finance.IsClientError(err),
		errors.As(err, &invalidKey),
		errors.Is(err, factory.ErrUnknownProduct),
		errors.Is(err, ErrUnknownKind),
		errors.Is(err, ErrUnknownClientType):
		return "client"
	}
	return "internal"
}

package issuance_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meibl/brokerage-engine/factory"
	"github.com/meibl/brokerage-engine/finance"
	"github.com/meibl/brokerage-engine/issuance"
	"github.com/meibl/brokerage-engine/sequence"
	seqstore "github.com/meibl/brokerage-engine/sequence/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func fixedClock(year int) func() time.Time {
	return func() time.Time {
		return time.Date(year, time.March, 10, 9, 0, 0, 0, time.UTC)
	}
}

type fixture struct {
	service *issuance.Service
	gen     *sequence.Generator
	store   *issuance.MemoryStore
}

func newFixture(t *testing.T, year int) *fixture {
	t.Helper()
	gen := sequence.NewGenerator(seqstore.NewMemory(), sequence.WithClock(fixedClock(year)))
	store := issuance.NewMemoryStore()
	svc := issuance.NewService(gen, store, factory.DefaultCatalog(), issuance.WithClock(fixedClock(year)))
	return &fixture{service: svc, gen: gen, store: store}
}

func dec(s string) decimal.Decimal {
	return finance.MustDecimal(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func policyRequest(gross string) issuance.IssueRequest {
	return issuance.IssueRequest{
		Kind:         issuance.KindPolicy,
		ClientID:     "client-1",
		InsurerID:    "insurer-1",
		LOB:          "fire",
		GrossPremium: dec(gross),
	}
}

// =============================================================================
// ISSUE - HAPPY PATH
// =============================================================================

func TestIssuePolicyNumbersAndCosts(t *testing.T) {
	f := newFixture(t, 2025)

	doc, err := f.service.Issue(context.Background(), policyRequest("100000"))
	require.NoError(t, err)

	assert.Equal(t, "POL/2025/000001", doc.Number)
	assert.Equal(t, int64(1), doc.Seq)
	assert.Equal(t, 2025, doc.Year)
	assert.NotEmpty(t, doc.ID)

	// fire terms: 15% brokerage, default VAT and levies
	assert.True(t, dec("15000.00").Equal(doc.Breakdown.BrokerageAmount))
	assert.True(t, dec("1125.00").Equal(doc.Breakdown.VATOnBrokerage))
	assert.True(t, dec("81875.00").Equal(doc.Breakdown.NetAmountDue))

	// Persisted exactly as returned.
	stored, err := f.store.GetDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.Number, stored.Number)
}

func TestIssueSequencesPerKind(t *testing.T) {
	f := newFixture(t, 2025)
	ctx := context.Background()

	first, err := f.service.Issue(ctx, policyRequest("100000"))
	require.NoError(t, err)
	second, err := f.service.Issue(ctx, policyRequest("100000"))
	require.NoError(t, err)

	claimReq := policyRequest("100000")
	claimReq.Kind = issuance.KindClaim
	claim, err := f.service.Issue(ctx, claimReq)
	require.NoError(t, err)

	assert.Equal(t, "POL/2025/000001", first.Number)
	assert.Equal(t, "POL/2025/000002", second.Number)
	assert.Equal(t, "CLM/2025/000001", claim.Number, "claims run their own series")
}

func TestIssueNotesRunIndependentSubSeries(t *testing.T) {
	f := newFixture(t, 2025)
	ctx := context.Background()

	creditReq := policyRequest("100000")
	creditReq.Kind = issuance.KindCreditNote
	debitReq := policyRequest("100000")
	debitReq.Kind = issuance.KindDebitNote

	credit, err := f.service.Issue(ctx, creditReq)
	require.NoError(t, err)
	debit, err := f.service.Issue(ctx, debitReq)
	require.NoError(t, err)

	assert.Equal(t, "CRN/2025/000001", credit.Number)
	assert.Equal(t, "DBN/2025/000001", debit.Number)
}

func TestIssueNumbersByEffectiveYear(t *testing.T) {
	// Bulk-imported policies are numbered by their start-date year, not the
	// wall clock.
	f := newFixture(t, 2025)

	req := policyRequest("100000")
	req.EffectiveAt = time.Date(2023, time.November, 1, 0, 0, 0, 0, time.UTC)

	doc, err := f.service.Issue(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2023, doc.Year)
	assert.Equal(t, "POL/2023/000001", doc.Number)
}

func TestIssueAppliesCatalogOverrides(t *testing.T) {
	f := newFixture(t, 2025)

	req := policyRequest("100000")
	req.BrokeragePct = decPtr("20")
	req.AgentCommissionPct = decPtr("5")
	req.LevyRates = map[string]decimal.Decimal{}

	doc, err := f.service.Issue(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, dec("20000.00").Equal(doc.Breakdown.BrokerageAmount))
	assert.True(t, dec("5000.00").Equal(doc.Breakdown.AgentCommissionAmount))
	assert.True(t, dec("15000.00").Equal(doc.Breakdown.NetBrokerage))
	assert.Empty(t, doc.Breakdown.Levies)
}

// =============================================================================
// ISSUE - VALIDATION
// =============================================================================

func TestIssueRejectsBelowMinimumPremium(t *testing.T) {
	f := newFixture(t, 2025)

	// fire minimum is 10,000
	_, err := f.service.Issue(context.Background(), policyRequest("9999.99"))
	require.Error(t, err)
	assert.ErrorIs(t, err, finance.ErrBelowMinimumPremium)
	assert.Equal(t, "validation", issuance.StatusClass(err))

	// The rejection happened before numbering: the next issue still gets 1.
	doc, err := f.service.Issue(context.Background(), policyRequest("100000"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), doc.Seq)
}

func TestIssueBelowMinimumOverridePath(t *testing.T) {
	f := newFixture(t, 2025)

	req := policyRequest("500")
	req.AllowBelowMinimum = true

	doc, err := f.service.Issue(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "POL/2025/000001", doc.Number)
}

func TestIssueRejectsOutOfRangePercentages(t *testing.T) {
	f := newFixture(t, 2025)

	req := policyRequest("100000")
	req.BrokeragePct = decPtr("101")

	_, err := f.service.Issue(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, finance.ErrInvalidPercentage)
	assert.Equal(t, "client", issuance.StatusClass(err))

	req = policyRequest("100000")
	req.AgentCommissionPct = decPtr("-1")
	_, err = f.service.Issue(context.Background(), req)
	assert.ErrorIs(t, err, finance.ErrInvalidPercentage)
}

func TestIssueRejectsNegativePremium(t *testing.T) {
	f := newFixture(t, 2025)

	_, err := f.service.Issue(context.Background(), policyRequest("-1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, finance.ErrNegativePremium)
}

func TestIssueRejectsUnknownKindAndProduct(t *testing.T) {
	f := newFixture(t, 2025)
	ctx := context.Background()

	req := policyRequest("100000")
	req.Kind = "receipt"
	_, err := f.service.Issue(ctx, req)
	assert.ErrorIs(t, err, issuance.ErrUnknownKind)

	req = policyRequest("100000")
	req.LOB = "aviation"
	_, err = f.service.Issue(ctx, req)
	assert.ErrorIs(t, err, factory.ErrUnknownProduct)
	assert.Equal(t, "client", issuance.StatusClass(err))
}

// =============================================================================
// ISSUE - PERSISTENCE FAILURE
// =============================================================================

func TestIssueReleasesBurnedNumberOnPersistFailure(t *testing.T) {
	f := newFixture(t, 2025)
	ctx := context.Background()

	f.store.FailNextSave = errors.New("disk full")
	_, err := f.service.Issue(ctx, policyRequest("100000"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	// The compensating release returned the number: the next issue reuses 1.
	doc, err := f.service.Issue(ctx, policyRequest("100000"))
	require.NoError(t, err)
	assert.Equal(t, "POL/2025/000001", doc.Number)
}

func TestIssuePersistFailurePropagatesOriginalError(t *testing.T) {
	f := newFixture(t, 2025)

	sentinel := errors.New("constraint violation")
	f.store.FailNextSave = sentinel

	_, err := f.service.Issue(context.Background(), policyRequest("100000"))
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
}

// =============================================================================
// CLIENT REGISTRATION
// =============================================================================

func TestRegisterClientSubSeries(t *testing.T) {
	f := newFixture(t, 2025)
	ctx := context.Background()

	alice, err := f.service.RegisterClient(ctx, "Alice Ade", issuance.ClientIndividual)
	require.NoError(t, err)
	bola, err := f.service.RegisterClient(ctx, "Bola Ltd", issuance.ClientCorporate)
	require.NoError(t, err)
	chidi, err := f.service.RegisterClient(ctx, "Chidi Eze", issuance.ClientIndividual)
	require.NoError(t, err)

	// Individual and corporate clients draw from independent partitions,
	// each rendering under its own prefix so codes never collide.
	assert.Equal(t, "MEIBL/CL/IND/2025/00001", alice.Code)
	assert.Equal(t, "MEIBL/CL/COR/2025/00001", bola.Code)
	assert.Equal(t, "MEIBL/CL/IND/2025/00002", chidi.Code)

	clients, err := f.store.ListClients(ctx)
	require.NoError(t, err)
	assert.Len(t, clients, 3)
}

func TestRegisterClientCodesNeverCollideAcrossTypes(t *testing.T) {
	// Seq 1 of each sub-series lands in the same year; the rendered codes
	// must still both persist against the unique-code constraint.
	f := newFixture(t, 2025)
	ctx := context.Background()

	individual, err := f.service.RegisterClient(ctx, "Alice Ade", issuance.ClientIndividual)
	require.NoError(t, err)
	corporate, err := f.service.RegisterClient(ctx, "Bola Ltd", issuance.ClientCorporate)
	require.NoError(t, err)

	assert.NotEqual(t, individual.Code, corporate.Code)
}

func TestMemoryStoreRejectsDuplicateClientCode(t *testing.T) {
	store := issuance.NewMemoryStore()
	ctx := context.Background()

	first := issuance.Client{ID: "c1", Code: "MEIBL/CL/IND/2025/00001", Name: "Alice Ade", Type: issuance.ClientIndividual}
	require.NoError(t, store.SaveClient(ctx, first))

	dup := issuance.Client{ID: "c2", Code: "MEIBL/CL/IND/2025/00001", Name: "Imposter", Type: issuance.ClientIndividual}
	err := store.SaveClient(ctx, dup)
	assert.ErrorIs(t, err, issuance.ErrDuplicateNumber)
}

func TestRegisterClientRejectsUnknownType(t *testing.T) {
	f := newFixture(t, 2025)

	_, err := f.service.RegisterClient(context.Background(), "Ghost", "partnership")
	require.Error(t, err)
	assert.ErrorIs(t, err, issuance.ErrUnknownClientType)
}

// =============================================================================
// ERROR CLASSIFICATION
// =============================================================================

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "not_found", issuance.StatusClass(issuance.ErrDocumentNotFound))
	assert.Equal(t, "validation", issuance.StatusClass(finance.ErrBelowMinimumPremium))
	assert.Equal(t, "conflict", issuance.StatusClass(sequence.ErrSequenceConflict))
	assert.Equal(t, "client", issuance.StatusClass(finance.ErrInvalidPercentage))
	assert.Equal(t, "client", issuance.StatusClass(finance.ErrMalformedLevies))
	assert.Equal(t, "client", issuance.StatusClass(&sequence.InvalidKeyError{
		Key:    sequence.Key{Entity: sequence.EntityClient, Year: 100},
		Reason: "year out of range",
	}), "a bad partition key is caller-correctable input")
	assert.Equal(t, "internal", issuance.StatusClass(errors.New("boom")))
}

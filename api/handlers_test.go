package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meibl/brokerage-engine/api"
	"github.com/meibl/brokerage-engine/factory"
	"github.com/meibl/brokerage-engine/issuance"
	"github.com/meibl/brokerage-engine/sequence"
	seqstore "github.com/meibl/brokerage-engine/sequence/store"
)

// =============================================================================
// TEST HARNESS
// =============================================================================

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	clock := func() time.Time {
		return time.Date(2025, time.May, 15, 10, 0, 0, 0, time.UTC)
	}
	gen := sequence.NewGenerator(seqstore.NewMemory(), sequence.WithClock(clock))
	store := issuance.NewMemoryStore()
	catalog := factory.DefaultCatalog()
	svc := issuance.NewService(gen, store, catalog, issuance.WithClock(clock))

	srv := httptest.NewServer(api.NewRouter(api.NewHandler(svc, gen, store, catalog)))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		decoded = nil
	}
	return resp, decoded
}

func issueBody(gross string) map[string]any {
	return map[string]any{
		"kind":          "policy",
		"client_id":     "client-1",
		"lob":           "fire",
		"gross_premium": gross,
	}
}

// =============================================================================
// DOCUMENTS
// =============================================================================

func TestIssueDocumentEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/documents", issueBody("100000"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	assert.Equal(t, "POL/2025/000001", body["number"])
	assert.Equal(t, "policy", body["kind"])
	assert.Equal(t, float64(2025), body["year"])

	breakdown, ok := body["breakdown"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "15000.00", breakdown["brokerage_amount"])
	assert.Equal(t, "1125.00", breakdown["vat_on_brokerage"])
	assert.Equal(t, "81875.00", breakdown["net_amount_due"])
	assert.Equal(t, "83000.00", breakdown["insurer_net_amount"])
}

func TestIssueDocumentRejectsUnknownKind(t *testing.T) {
	srv := newTestServer(t)

	body := issueBody("100000")
	body["kind"] = "receipt"
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/documents", body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIssueDocumentBelowMinimumIsUnprocessable(t *testing.T) {
	srv := newTestServer(t)

	// fire minimum is 10,000
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/documents", issueBody("500"))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.NotEmpty(t, body["error"])

	// The override flag turns the same request into a 201.
	override := issueBody("500")
	override["allow_below_minimum"] = true
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/documents", override)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestIssueDocumentRejectsBadPercentage(t *testing.T) {
	srv := newTestServer(t)

	body := issueBody("100000")
	body["brokerage_pct"] = "150"
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/documents", body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIssueDocumentHonorsEffectiveYear(t *testing.T) {
	srv := newTestServer(t)

	body := issueBody("100000")
	body["effective_at"] = "2023-07-01"
	resp, decoded := doJSON(t, http.MethodPost, srv.URL+"/api/documents", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "POL/2023/000001", decoded["number"])
	assert.Equal(t, "2023-07-01", decoded["effective_at"])
}

func TestGetAndListDocuments(t *testing.T) {
	srv := newTestServer(t)

	_, created := doJSON(t, http.MethodPost, srv.URL+"/api/documents", issueBody("100000"))
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)

	resp, got := doJSON(t, http.MethodGet, srv.URL+"/api/documents/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, created["number"], got["number"])

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/documents/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	listResp, err := http.Get(srv.URL + "/api/documents?kind=policy")
	require.NoError(t, err)
	defer listResp.Body.Close()
	var docs []map[string]any
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&docs))
	assert.Len(t, docs, 1)
}

// =============================================================================
// CLIENTS
// =============================================================================

func TestRegisterClientEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/clients", map[string]any{
		"name": "Alice Ade",
		"type": "individual",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "MEIBL/CL/IND/2025/00001", body["code"])

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/clients", map[string]any{
		"name": "Bola Ltd",
		"type": "corporate",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "MEIBL/CL/COR/2025/00001", body["code"])

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/clients", map[string]any{
		"name": "Ghost", "type": "partnership",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// SEQUENCES
// =============================================================================

func TestPeekSequenceEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/sequences/POLICY/peek?year=2026", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "POL/2026/000001", body["code"])
	assert.Equal(t, float64(1), body["next_seq"])

	// Peeking does not consume: issue still starts at 1.
	issued, created := doJSON(t, http.MethodPost, srv.URL+"/api/documents", func() map[string]any {
		b := issueBody("100000")
		b["effective_at"] = "2026-01-01"
		return b
	}())
	require.Equal(t, http.StatusCreated, issued.StatusCode)
	assert.Equal(t, "POL/2026/000001", created["number"])
}

func TestPeekSequenceRejectsUnknownEntity(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/sequences/RECEIPT/peek", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPeekSequenceRejectsOutOfRangeYear(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/sequences/CLIENT/peek?year=100", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, body["error"])
}

// =============================================================================
// QUOTES
// =============================================================================

func TestQuoteBreakdownEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/quotes/breakdown", map[string]any{
		"gross_premium": "100000",
		"brokerage_pct": "15",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "15000.00", body["brokerage_amount"])
	assert.Equal(t, "2000.00", body["levies_total"])
	assert.Equal(t, "81875.00", body["net_amount_due"])

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/quotes/breakdown", map[string]any{
		"gross_premium": "-5",
		"brokerage_pct": "15",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestQuoteSlabEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/quotes/slab?gross=500000", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "15", body["brokerage_pct"])
}

func TestQuoteSolveEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/quotes/solve", map[string]any{
		"rate_pct":    "2.5",
		"sum_insured": "1000000",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "25000.00", body["premium"])

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/quotes/solve", map[string]any{
		"rate_pct": "2.5",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// CATALOG
// =============================================================================

func TestCatalogEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/catalog")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var terms []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&terms))
	require.NotEmpty(t, terms)

	lobs := make(map[string]bool)
	for _, term := range terms {
		lob, _ := term["lob"].(string)
		lobs[lob] = true
	}
	assert.True(t, lobs["fire"])
	assert.True(t, lobs["motor"])
}

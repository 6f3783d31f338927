package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acgs-labs/charter/pkg/cache"
	"github.com/acgs-labs/charter/pkg/contracts"
	"github.com/acgs-labs/charter/pkg/engine"
	"github.com/acgs-labs/charter/pkg/solver"
)

const referenceHash = "cdd01ef066bc6cf2"

func newTestServer(t *testing.T, limiter *RateLimiter) *Server {
	t.Helper()
	eng, err := engine.New(engine.Config{
		ReferenceHash: referenceHash,
		Cache:         cache.NewMemoryCache(64),
		Solver:        solver.NewAdapter(solver.NewSimulator()),
	})
	require.NoError(t, err)
	return NewServer(eng, limiter)
}

func TestHandleVerify_OK(t *testing.T) {
	srv := newTestServer(t, nil)

	body := `{
		"policy_id": "policy-1",
		"constitutional_hash": "cdd01ef066bc6cf2",
		"constraints": ["safety_score must be greater than 0.9"],
		"verification_type": "safety"
	}`
	req := httptest.NewRequest(http.MethodPost, "/v1/verify", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var result contracts.VerificationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "policy-1", result.PolicyID)
	assert.Equal(t, contracts.StatusSAT, result.VerificationStatus)
	assert.True(t, result.ConstitutionalCompliance)
	assert.Equal(t, "simulation", result.SolverBackend)
}

func TestHandleVerify_BadRequest(t *testing.T) {
	srv := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/verify", strings.NewReader(`{"policy_id": "p"}`))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "schema validation failed")
}

func TestHandleVerify_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/verify", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleBatchVerify_OK(t *testing.T) {
	srv := newTestServer(t, nil)

	body := `[
		{"policy_id": "policy-a", "constitutional_hash": "cdd01ef066bc6cf2"},
		{"policy_id": "policy-b", "constitutional_hash": "wrong_hash"}
	]`
	req := httptest.NewRequest(http.MethodPost, "/v1/verify/batch", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var results []contracts.VerificationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 2)
	assert.Equal(t, "policy-a", results[0].PolicyID)
	assert.True(t, results[0].ConstitutionalCompliance)
	assert.Equal(t, "policy-b", results[1].PolicyID)
	assert.False(t, results[1].ConstitutionalCompliance)
}

func TestHandleBatchVerify_RejectsBadItem(t *testing.T) {
	srv := newTestServer(t, nil)

	body := `[
		{"policy_id": "policy-a", "constitutional_hash": "h"},
		{"policy_id": ""}
	]`
	req := httptest.NewRequest(http.MethodPost, "/v1/verify/batch", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], "request 1")
}

func TestHandleBatchVerify_RejectsNonArray(t *testing.T) {
	srv := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/verify/batch", strings.NewReader(`{"policy_id": "p"}`))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleStats(t *testing.T) {
	srv := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/stats", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var stats contracts.AggregateStatistics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Zero(t, stats.TotalVerifications)
}

func TestHandleHealthz(t *testing.T) {
	srv := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRateLimiter_Returns429(t *testing.T) {
	srv := newTestServer(t, NewRateLimiter(1, 1))
	handler := srv.Routes()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "10.0.0.1:55555"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// A different client IP has its own budget.
	other := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	other.RemoteAddr = "10.0.0.2:55555"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusOK, rec.Code)
}

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acgs-labs/charter/pkg/contracts"
)

func openTestLog(t *testing.T) *SQLiteResultLog {
	t.Helper()
	log, err := OpenSQLite(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = log.Close() })
	return log
}

func storedResult(requestID string) *contracts.VerificationResult {
	return &contracts.VerificationResult{
		RequestID:                requestID,
		PolicyID:                 "policy-1",
		VerificationStatus:       contracts.StatusSAT,
		IsValid:                  true,
		Counterexample:           map[string]string{"safety_score": "0.975"},
		VerificationTimeMs:       12.5,
		SolverOutput:             "simulated: sat (interval check passed)",
		SolverBackend:            "simulation",
		ConstitutionalCompliance: true,
		Timestamp:                time.Date(2026, 8, 25, 10, 0, 0, 123456000, time.UTC),
		Signature:                []byte{0x01, 0x02, 0x03},
	}
}

func TestSQLiteResultLog_AppendAndList(t *testing.T) {
	ctx := context.Background()
	log := openTestLog(t)

	want := storedResult("req-1")
	require.NoError(t, log.Append(ctx, want))

	results, err := log.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)

	got := results[0]
	assert.Equal(t, want.RequestID, got.RequestID)
	assert.Equal(t, want.PolicyID, got.PolicyID)
	assert.Equal(t, want.VerificationStatus, got.VerificationStatus)
	assert.Equal(t, want.IsValid, got.IsValid)
	assert.Equal(t, want.Counterexample, got.Counterexample)
	assert.Equal(t, want.VerificationTimeMs, got.VerificationTimeMs)
	assert.Equal(t, want.SolverOutput, got.SolverOutput)
	assert.Equal(t, want.SolverBackend, got.SolverBackend)
	assert.Equal(t, want.ConstitutionalCompliance, got.ConstitutionalCompliance)
	assert.Equal(t, want.Signature, got.Signature)
	assert.True(t, got.Timestamp.Equal(want.Timestamp), "got %v want %v", got.Timestamp, want.Timestamp)
}

func TestSQLiteResultLog_ListNewestFirstWithLimit(t *testing.T) {
	ctx := context.Background()
	log := openTestLog(t)

	for _, id := range []string{"req-1", "req-2", "req-3"} {
		require.NoError(t, log.Append(ctx, storedResult(id)))
	}

	all, err := log.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "req-3", all[0].RequestID)
	assert.Equal(t, "req-1", all[2].RequestID)

	limited, err := log.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "req-3", limited[0].RequestID)
	assert.Equal(t, "req-2", limited[1].RequestID)
}

func TestSQLiteResultLog_Count(t *testing.T) {
	ctx := context.Background()
	log := openTestLog(t)

	n, err := log.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, log.Append(ctx, storedResult("req-1")))
	require.NoError(t, log.Append(ctx, storedResult("req-2")))

	n, err = log.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSQLiteResultLog_NilCounterexample(t *testing.T) {
	ctx := context.Background()
	log := openTestLog(t)

	r := storedResult("req-1")
	r.Counterexample = nil
	r.Signature = nil
	require.NoError(t, log.Append(ctx, r))

	results, err := log.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Nil(t, results[0].Counterexample)
	assert.Empty(t, results[0].Signature)
}

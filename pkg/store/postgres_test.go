package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acgs-labs/charter/pkg/contracts"
)

func newMockPostgresLog(t *testing.T) (*PostgresResultLog, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS verification_results").
		WillReturnResult(sqlmock.NewResult(0, 0))

	log, err := NewPostgresResultLog(db)
	require.NoError(t, err)
	return log, mock
}

func TestPostgresResultLog_Append(t *testing.T) {
	log, mock := newMockPostgresLog(t)

	mock.ExpectExec("INSERT INTO verification_results").
		WithArgs("req-1", "policy-1", "SAT", true, `{"safety_score":"0.975"}`,
			12.5, "sat", "simulation", true, sqlmock.AnyArg(), []byte{0x01}).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := log.Append(context.Background(), &contracts.VerificationResult{
		RequestID:                "req-1",
		PolicyID:                 "policy-1",
		VerificationStatus:       contracts.StatusSAT,
		IsValid:                  true,
		Counterexample:           map[string]string{"safety_score": "0.975"},
		VerificationTimeMs:       12.5,
		SolverOutput:             "sat",
		SolverBackend:            "simulation",
		ConstitutionalCompliance: true,
		Timestamp:                time.Now(),
		Signature:                []byte{0x01},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresResultLog_List(t *testing.T) {
	log, mock := newMockPostgresLog(t)

	ts := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"request_id", "policy_id", "verification_status", "is_valid", "counterexample",
		"verification_time_ms", "solver_output", "solver_backend",
		"constitutional_compliance", "timestamp", "signature",
	}).AddRow("req-2", "policy-1", "UNSAT", false, "null", 3.25, "unsat", "z3", false, ts, nil).
		AddRow("req-1", "policy-1", "SAT", true, `{"x":"0.5"}`, 8.0, "sat", "z3", true, ts, nil)

	mock.ExpectQuery("SELECT request_id, policy_id, verification_status").
		WithArgs(2).
		WillReturnRows(rows)

	results, err := log.List(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "req-2", results[0].RequestID)
	assert.Equal(t, contracts.StatusUNSAT, results[0].VerificationStatus)
	assert.Nil(t, results[0].Counterexample)

	assert.Equal(t, "req-1", results[1].RequestID)
	assert.True(t, results[1].IsValid)
	assert.Equal(t, map[string]string{"x": "0.5"}, results[1].Counterexample)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresResultLog_Count(t *testing.T) {
	log, mock := newMockPostgresLog(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM verification_results`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	n, err := log.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

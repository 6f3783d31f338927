package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/acgs-labs/charter/pkg/contracts"

	_ "github.com/lib/pq"
)

// PostgresResultLog stores verification results in Postgres for
// multi-instance deployments that need a shared history.
type PostgresResultLog struct {
	db *sql.DB
}

// OpenPostgres connects with the given DSN and migrates the schema.
func OpenPostgres(dsn string) (*PostgresResultLog, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres result log: %w", err)
	}
	return NewPostgresResultLog(db)
}

// NewPostgresResultLog wraps an existing handle and migrates the schema.
func NewPostgresResultLog(db *sql.DB) (*PostgresResultLog, error) {
	s := &PostgresResultLog{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresResultLog) migrate() error {
	query := `
    CREATE TABLE IF NOT EXISTS verification_results (
        id BIGSERIAL PRIMARY KEY,
        request_id TEXT NOT NULL,
        policy_id TEXT NOT NULL,
        verification_status TEXT NOT NULL,
        is_valid BOOLEAN NOT NULL,
        counterexample JSONB,
        verification_time_ms DOUBLE PRECISION NOT NULL,
        solver_output TEXT,
        solver_backend TEXT NOT NULL,
        constitutional_compliance BOOLEAN NOT NULL,
        timestamp TIMESTAMPTZ NOT NULL,
        signature BYTEA
    );
    CREATE INDEX IF NOT EXISTS idx_results_policy ON verification_results(policy_id);`
	_, err := s.db.ExecContext(context.Background(), query)
	return err
}

// Append inserts one result.
func (s *PostgresResultLog) Append(ctx context.Context, r *contracts.VerificationResult) error {
	query := `INSERT INTO verification_results (
		request_id, policy_id, verification_status, is_valid, counterexample,
		verification_time_ms, solver_output, solver_backend,
		constitutional_compliance, timestamp, signature
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	ceJSON, _ := json.Marshal(r.Counterexample)
	_, err := s.db.ExecContext(ctx, query,
		r.RequestID, r.PolicyID, string(r.VerificationStatus), r.IsValid,
		string(ceJSON), r.VerificationTimeMs, r.SolverOutput, r.SolverBackend,
		r.ConstitutionalCompliance, r.Timestamp.UTC(), r.Signature,
	)
	if err != nil {
		return fmt.Errorf("failed to insert verification result: %w", err)
	}
	return nil
}

// List returns the most recent results, newest first.
func (s *PostgresResultLog) List(ctx context.Context, limit int) ([]contracts.VerificationResult, error) {
	if limit <= 0 {
		limit = 10000
	}
	query := `
        SELECT request_id, policy_id, verification_status, is_valid, counterexample,
               verification_time_ms, solver_output, solver_backend,
               constitutional_compliance, timestamp, signature
        FROM verification_results
        ORDER BY id DESC
        LIMIT $1`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []contracts.VerificationResult
	for rows.Next() {
		var (
			r          contracts.VerificationResult
			status     string
			ceJSON     sql.NullString
		)
		if err := rows.Scan(
			&r.RequestID, &r.PolicyID, &status, &r.IsValid, &ceJSON,
			&r.VerificationTimeMs, &r.SolverOutput, &r.SolverBackend,
			&r.ConstitutionalCompliance, &r.Timestamp, &r.Signature,
		); err != nil {
			return nil, fmt.Errorf("failed to scan verification result: %w", err)
		}
		r.VerificationStatus = contracts.VerificationStatus(status)
		if ceJSON.Valid && ceJSON.String != "" && ceJSON.String != "null" {
			if err := json.Unmarshal([]byte(ceJSON.String), &r.Counterexample); err != nil {
				return nil, fmt.Errorf("failed to decode counterexample: %w", err)
			}
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// Count reports the total number of logged results.
func (s *PostgresResultLog) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM verification_results`).Scan(&n)
	return n, err
}

// Close closes the underlying handle.
func (s *PostgresResultLog) Close() error { return s.db.Close() }

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/acgs-labs/charter/pkg/contracts"

	_ "modernc.org/sqlite"
)

// SQLiteResultLog stores verification results in an embedded SQLite
// database, the default for single-node deployments.
type SQLiteResultLog struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and migrates the
// schema. Use ":memory:" for an ephemeral log.
func OpenSQLite(path string) (*SQLiteResultLog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite result log: %w", err)
	}
	return NewSQLiteResultLog(db)
}

// NewSQLiteResultLog wraps an existing handle and migrates the schema.
func NewSQLiteResultLog(db *sql.DB) (*SQLiteResultLog, error) {
	s := &SQLiteResultLog{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteResultLog) migrate() error {
	query := `
    CREATE TABLE IF NOT EXISTS verification_results (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        request_id TEXT NOT NULL,
        policy_id TEXT NOT NULL,
        verification_status TEXT NOT NULL,
        is_valid INTEGER NOT NULL,
        counterexample JSON,
        verification_time_ms REAL NOT NULL,
        solver_output TEXT,
        solver_backend TEXT NOT NULL,
        constitutional_compliance INTEGER NOT NULL,
        timestamp DATETIME NOT NULL,
        signature BLOB
    );
    CREATE INDEX IF NOT EXISTS idx_results_policy ON verification_results(policy_id);
    CREATE INDEX IF NOT EXISTS idx_results_timestamp ON verification_results(timestamp);`
	_, err := s.db.ExecContext(context.Background(), query)
	return err
}

// Append inserts one result.
func (s *SQLiteResultLog) Append(ctx context.Context, r *contracts.VerificationResult) error {
	query := `INSERT INTO verification_results (
		request_id, policy_id, verification_status, is_valid, counterexample,
		verification_time_ms, solver_output, solver_backend,
		constitutional_compliance, timestamp, signature
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	ceJSON, _ := json.Marshal(r.Counterexample)
	_, err := s.db.ExecContext(ctx, query,
		r.RequestID, r.PolicyID, string(r.VerificationStatus), boolToInt(r.IsValid),
		string(ceJSON), r.VerificationTimeMs, r.SolverOutput, r.SolverBackend,
		boolToInt(r.ConstitutionalCompliance),
		r.Timestamp.UTC().Format(time.RFC3339Nano), r.Signature,
	)
	if err != nil {
		return fmt.Errorf("failed to insert verification result: %w", err)
	}
	return nil
}

// List returns the most recent results, newest first. limit <= 0 returns
// everything.
func (s *SQLiteResultLog) List(ctx context.Context, limit int) ([]contracts.VerificationResult, error) {
	if limit <= 0 {
		limit = -1 // SQLite: negative LIMIT means no limit
	}
	query := `
        SELECT request_id, policy_id, verification_status, is_valid, counterexample,
               verification_time_ms, solver_output, solver_backend,
               constitutional_compliance, timestamp, signature
        FROM verification_results
        ORDER BY id DESC
        LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []contracts.VerificationResult
	for rows.Next() {
		r, err := scanResultRow(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// Count reports the total number of logged results.
func (s *SQLiteResultLog) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM verification_results`).Scan(&n)
	return n, err
}

// Close closes the underlying handle.
func (s *SQLiteResultLog) Close() error { return s.db.Close() }

func scanResultRow(rows *sql.Rows) (*contracts.VerificationResult, error) {
	var (
		r          contracts.VerificationResult
		status     string
		isValid    int
		compliance int
		ceJSON     sql.NullString
		ts         string
	)
	if err := rows.Scan(
		&r.RequestID, &r.PolicyID, &status, &isValid, &ceJSON,
		&r.VerificationTimeMs, &r.SolverOutput, &r.SolverBackend,
		&compliance, &ts, &r.Signature,
	); err != nil {
		return nil, fmt.Errorf("failed to scan verification result: %w", err)
	}
	r.VerificationStatus = contracts.VerificationStatus(status)
	r.IsValid = isValid != 0
	r.ConstitutionalCompliance = compliance != 0
	if ceJSON.Valid && ceJSON.String != "" && ceJSON.String != "null" {
		if err := json.Unmarshal([]byte(ceJSON.String), &r.Counterexample); err != nil {
			return nil, fmt.Errorf("failed to decode counterexample: %w", err)
		}
	}
	parsed, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil, fmt.Errorf("failed to parse result timestamp: %w", err)
	}
	r.Timestamp = parsed
	return &r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

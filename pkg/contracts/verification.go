// Package contracts defines the wire-level types exchanged between the
// verification engine and its callers. Everything here is serialization-safe
// and free of engine internals so external collaborators (governance
// services, dashboards, telemetry collectors) can depend on it directly.
package contracts

import (
	"time"
)

// VerificationStatus is the solver's classified verdict for a request.
type VerificationStatus string

const (
	StatusSAT     VerificationStatus = "SAT"
	StatusUNSAT   VerificationStatus = "UNSAT"
	StatusTimeout VerificationStatus = "TIMEOUT"
	StatusError   VerificationStatus = "ERROR"
)

// VerificationRequest is the immutable input to a policy verification.
// Assertions are solver-ready mini-language statements; Constraints are
// free-text requirements translated by the assertion generator.
type VerificationRequest struct {
	RequestID          string   `json:"request_id"`
	PolicyID           string   `json:"policy_id"`
	ConstitutionalHash string   `json:"constitutional_hash"`
	Assertions         []string `json:"assertions,omitempty"`
	Constraints        []string `json:"constraints,omitempty"`
	VerificationType   string   `json:"verification_type,omitempty"`
	TimeoutSeconds     int      `json:"timeout_seconds,omitempty"`
}

// VerificationResult is the engine's answer for one request. Callers always
// receive a well-formed result; failures surface as StatusError with a
// diagnostic in SolverOutput, never as an error return.
type VerificationResult struct {
	RequestID          string             `json:"request_id"`
	PolicyID           string             `json:"policy_id"`
	VerificationStatus VerificationStatus `json:"verification_status"`

	// IsValid is true exactly when VerificationStatus is SAT.
	IsValid bool `json:"is_valid"`

	// Counterexample is the witness model the solver produced on SAT,
	// when the backend exposes one.
	Counterexample map[string]string `json:"counterexample,omitempty"`

	VerificationTimeMs float64 `json:"verification_time_ms"`
	SolverOutput       string  `json:"solver_output"`

	// SolverBackend names the backend that produced this verdict
	// ("z3" or "simulation"). A simulated pass is never indistinguishable
	// from a proven one.
	SolverBackend string `json:"solver_backend"`

	// ConstitutionalCompliance is true only when the request's hash equals
	// the deployment's reference hash AND IsValid is true.
	ConstitutionalCompliance bool `json:"constitutional_compliance"`

	Timestamp time.Time `json:"timestamp"`

	// Signature is an ed25519 signature over the canonical result bytes,
	// present when the engine is configured with a signing key.
	Signature []byte `json:"signature,omitempty"`
}

// Clone returns a deep copy. Cached results are handed out as copies so a
// caller can never mutate the stored verdict.
func (r *VerificationResult) Clone() *VerificationResult {
	if r == nil {
		return nil
	}
	out := *r
	if r.Counterexample != nil {
		out.Counterexample = make(map[string]string, len(r.Counterexample))
		for k, v := range r.Counterexample {
			out.Counterexample[k] = v
		}
	}
	if r.Signature != nil {
		out.Signature = append([]byte(nil), r.Signature...)
	}
	return &out
}

// AggregateStatistics summarizes the accumulated verification history.
type AggregateStatistics struct {
	TotalVerifications           int     `json:"total_verifications"`
	CacheSize                    int     `json:"cache_size"`
	SuccessRate                  float64 `json:"success_rate"`
	AverageVerificationTimeMs    float64 `json:"average_verification_time_ms"`
	ConstitutionalComplianceRate float64 `json:"constitutional_compliance_rate"`
}

// Package engine is the verification orchestrator: the only entry point
// external callers use. It coordinates cache lookup, assertion generation,
// solver invocation, and result construction, and converts every failure
// into a well-formed result so callers never need error handling of their
// own.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/acgs-labs/charter/pkg/assertion"
	"github.com/acgs-labs/charter/pkg/cache"
	"github.com/acgs-labs/charter/pkg/contracts"
	"github.com/acgs-labs/charter/pkg/metrics"
	"github.com/acgs-labs/charter/pkg/solver"
	"github.com/acgs-labs/charter/pkg/store"
)

const (
	defaultTimeoutSeconds = 30
	defaultBatchWorkers   = 4
)

// Signer attests results before they are cached; satisfied by attest.Signer.
type Signer interface {
	SignResult(result *contracts.VerificationResult) error
}

// Config assembles an Engine.
type Config struct {
	// ReferenceHash is the deployment's constitutional baseline
	// fingerprint. It is injected here, never compiled in.
	ReferenceHash string

	Cache  cache.ResultCache
	Solver *solver.Adapter

	// Log is the optional persisted result history.
	Log store.ResultLog

	// Signer optionally attests every computed result.
	Signer Signer

	// Recorder optionally exports per-verification telemetry.
	Recorder *metrics.Recorder

	// BatchWorkers bounds BatchVerify parallelism. Zero selects the default.
	BatchWorkers int
}

// Engine orchestrates policy verification.
type Engine struct {
	referenceHash string
	cache         cache.ResultCache
	solver        *solver.Adapter
	log           store.ResultLog
	signer        Signer
	recorder      *metrics.Recorder
	workers       int
	flight        singleflight.Group
	logger        *slog.Logger
	clock         func() time.Time
}

// New validates the configuration and builds an Engine.
func New(cfg Config) (*Engine, error) {
	if cfg.ReferenceHash == "" {
		return nil, fmt.Errorf("engine: reference constitutional hash is required")
	}
	if cfg.Cache == nil {
		return nil, fmt.Errorf("engine: result cache is required")
	}
	if cfg.Solver == nil {
		return nil, fmt.Errorf("engine: solver adapter is required")
	}
	workers := cfg.BatchWorkers
	if workers <= 0 {
		workers = defaultBatchWorkers
	}
	return &Engine{
		referenceHash: cfg.ReferenceHash,
		cache:         cfg.Cache,
		solver:        cfg.Solver,
		log:           cfg.Log,
		signer:        cfg.Signer,
		recorder:      cfg.Recorder,
		workers:       workers,
		logger:        slog.Default().With("component", "engine"),
		clock:         time.Now,
	}, nil
}

// WithClock overrides the clock for testing.
func (e *Engine) WithClock(clock func() time.Time) *Engine {
	e.clock = clock
	return e
}

// VerifyPolicy verifies a single request. It always returns a result; any
// internal failure surfaces as StatusError with the diagnostic in
// SolverOutput.
func (e *Engine) VerifyPolicy(ctx context.Context, req *contracts.VerificationRequest) (result *contracts.VerificationResult) {
	start := e.clock()

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("verification panicked", "policy_id", req.PolicyID, "panic", r)
			result = e.errorResult(req, start, fmt.Sprintf("internal error: %v", r))
		}
	}()

	key, err := cache.Fingerprint(req)
	if err != nil {
		return e.errorResult(req, start, fmt.Sprintf("fingerprint failed: %v", err))
	}

	if cached, ok, err := e.cache.Get(ctx, key); err == nil && ok {
		e.recorder.Observe(ctx, cached, true)
		return cached
	} else if err != nil {
		e.logger.Warn("cache lookup failed", "fingerprint", key, "error", err)
	}

	// Single-flight: concurrent requests with an identical fingerprint
	// invoke the solver at most once and observe the same result.
	v, _, _ := e.flight.Do(key, func() (any, error) {
		return e.compute(ctx, req, key, start), nil
	})
	res := v.(*contracts.VerificationResult)
	return res.Clone()
}

func (e *Engine) compute(ctx context.Context, req *contracts.VerificationRequest, key string, start time.Time) *contracts.VerificationResult {
	timeout := time.Duration(req.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeoutSeconds * time.Second
	}

	policyData := map[string]any{
		"compliance_threshold": assertion.DefaultComplianceThreshold,
		"constitutional_hash":  req.ConstitutionalHash,
		"safety_requirements":  req.Constraints,
	}
	asserts := assertion.Generate(policyData)
	asserts = append(asserts, req.Assertions...)

	outcome := e.solver.Check(ctx, asserts, timeout)

	result := e.buildResult(req, outcome, start)

	if e.signer != nil {
		if err := e.signer.SignResult(result); err != nil {
			e.logger.Warn("result signing failed", "policy_id", req.PolicyID, "error", err)
		}
	}
	if err := e.cache.Put(ctx, key, result); err != nil {
		e.logger.Warn("cache store failed", "fingerprint", key, "error", err)
	}
	if e.log != nil {
		if err := e.log.Append(ctx, result); err != nil {
			e.logger.Warn("result log append failed", "policy_id", req.PolicyID, "error", err)
		}
	}
	e.recorder.Observe(ctx, result, false)

	e.logger.Info("policy verified",
		"policy_id", req.PolicyID,
		"status", result.VerificationStatus,
		"compliant", result.ConstitutionalCompliance,
		"backend", result.SolverBackend,
		"duration_ms", result.VerificationTimeMs,
	)
	return result
}

func (e *Engine) buildResult(req *contracts.VerificationRequest, outcome *solver.Outcome, start time.Time) *contracts.VerificationResult {
	now := e.clock()
	isValid := outcome.Status == contracts.StatusSAT

	return &contracts.VerificationResult{
		RequestID:          requestID(req),
		PolicyID:           req.PolicyID,
		VerificationStatus: outcome.Status,
		IsValid:            isValid,
		Counterexample:     outcome.Witness,
		VerificationTimeMs: float64(now.Sub(start)) / float64(time.Millisecond),
		SolverOutput:       outcome.Output,
		SolverBackend:      outcome.Backend,
		// A hash mismatch short-circuits to non-compliant regardless of
		// the solver outcome.
		ConstitutionalCompliance: req.ConstitutionalHash == e.referenceHash && isValid,
		Timestamp:                now,
	}
}

func (e *Engine) errorResult(req *contracts.VerificationRequest, start time.Time, msg string) *contracts.VerificationResult {
	now := e.clock()
	return &contracts.VerificationResult{
		RequestID:          requestID(req),
		PolicyID:           req.PolicyID,
		VerificationStatus: contracts.StatusError,
		IsValid:            false,
		VerificationTimeMs: float64(now.Sub(start)) / float64(time.Millisecond),
		SolverOutput:       msg,
		SolverBackend:      e.solver.Backend(),
		Timestamp:          now,
	}
}

func requestID(req *contracts.VerificationRequest) string {
	if req.RequestID != "" {
		return req.RequestID
	}
	return uuid.NewString()
}

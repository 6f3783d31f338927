package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/acgs-labs/charter/pkg/contracts"
)

// Recorder exports per-verification telemetry following the RED pattern.
// A nil Recorder is a no-op so the engine works without observability
// configured.
type Recorder struct {
	verifications metric.Int64Counter
	cacheHits     metric.Int64Counter
	duration      metric.Float64Histogram
}

// NewRecorder creates the verification instruments on the given meter.
func NewRecorder(meter metric.Meter) (*Recorder, error) {
	verifications, err := meter.Int64Counter(
		"charter.verifications.total",
		metric.WithDescription("Completed policy verifications by status and backend"),
	)
	if err != nil {
		return nil, fmt.Errorf("create verifications counter: %w", err)
	}
	cacheHits, err := meter.Int64Counter(
		"charter.cache.hits.total",
		metric.WithDescription("Verification requests served from cache"),
	)
	if err != nil {
		return nil, fmt.Errorf("create cache hit counter: %w", err)
	}
	duration, err := meter.Float64Histogram(
		"charter.verification.duration.ms",
		metric.WithDescription("Wall-clock verification time in milliseconds"),
	)
	if err != nil {
		return nil, fmt.Errorf("create duration histogram: %w", err)
	}
	return &Recorder{
		verifications: verifications,
		cacheHits:     cacheHits,
		duration:      duration,
	}, nil
}

// Observe records one completed verification.
func (r *Recorder) Observe(ctx context.Context, result *contracts.VerificationResult, cacheHit bool) {
	if r == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("status", string(result.VerificationStatus)),
		attribute.String("backend", result.SolverBackend),
		attribute.Bool("compliant", result.ConstitutionalCompliance),
	)
	if cacheHit {
		r.cacheHits.Add(ctx, 1, attrs)
		return
	}
	r.verifications.Add(ctx, 1, attrs)
	r.duration.Record(ctx, result.VerificationTimeMs, attrs)
}

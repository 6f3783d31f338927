package engine

import (
	"context"

	"github.com/acgs-labs/charter/pkg/cache"
	"github.com/acgs-labs/charter/pkg/contracts"
	"github.com/acgs-labs/charter/pkg/metrics"
)

// Statistics derives aggregate correctness and performance statistics.
// The persisted result log is preferred when configured (it survives
// restarts and cache eviction); otherwise the cache snapshot serves as the
// history. Side-effect free.
func (e *Engine) Statistics(ctx context.Context) (contracts.AggregateStatistics, error) {
	cacheSize, err := e.cache.Len(ctx)
	if err != nil {
		return contracts.AggregateStatistics{}, err
	}

	var history []contracts.VerificationResult
	switch {
	case e.log != nil:
		history, err = e.log.List(ctx, 0)
	default:
		if snap, ok := e.cache.(cache.Snapshotter); ok {
			history, err = snap.Snapshot(ctx)
		}
	}
	if err != nil {
		return contracts.AggregateStatistics{}, err
	}

	return metrics.Compute(history, cacheSize), nil
}

package engine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/acgs-labs/charter/pkg/contracts"
)

// BatchVerify verifies each request over a bounded worker pool. The output
// slice always has the same length and order as the input, and one
// request's failure never aborts the batch: VerifyPolicy converts every
// failure into an ERROR-status result.
func (e *Engine) BatchVerify(ctx context.Context, reqs []*contracts.VerificationRequest) []*contracts.VerificationResult {
	results := make([]*contracts.VerificationResult, len(reqs))

	g := new(errgroup.Group)
	g.SetLimit(e.workers)
	for i, req := range reqs {
		g.Go(func() error {
			results[i] = e.VerifyPolicy(ctx, req)
			return nil
		})
	}
	// Workers never return errors; Wait only synchronizes completion.
	_ = g.Wait()
	return results
}

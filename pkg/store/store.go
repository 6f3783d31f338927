// Package store persists the verification result log. The cache serves the
// hot path; the log is the durable history that statistics survive process
// restarts on.
package store

import (
	"context"

	"github.com/acgs-labs/charter/pkg/contracts"
)

// ResultLog is an append-only record of every computed verification.
type ResultLog interface {
	Append(ctx context.Context, result *contracts.VerificationResult) error
	List(ctx context.Context, limit int) ([]contracts.VerificationResult, error)
	Count(ctx context.Context) (int, error)
}

//go:build !z3

package solver

import (
	"context"
	"errors"
)

// ErrZ3Unavailable is returned when the binary was built without the z3
// tag. The caller decides whether to fall back to the simulation backend;
// the adapter never substitutes it silently.
var ErrZ3Unavailable = errors.New("z3 backend not available - rebuild with '-tags z3' to enable")

// Z3 is the stub variant compiled when libz3 is not linked.
type Z3 struct{}

// NewZ3 reports the backend unavailable.
func NewZ3() (*Z3, error) { return nil, ErrZ3Unavailable }

func (z *Z3) Name() string { return BackendZ3 }

func (z *Z3) Solve(ctx context.Context, assertions []string) (*Outcome, error) {
	return nil, ErrZ3Unavailable
}

// Package solver evaluates assertion sets for satisfiability within a
// bounded time budget.
//
// Two backends exist and are never mixed per-request: a real Z3 backend
// (cgo, build tag "z3") and a deterministic simulation used when no solver
// library is linked. Every Outcome names the backend that produced it so a
// simulated pass can never be mistaken for a proven one.
package solver

import (
	"context"

	"github.com/acgs-labs/charter/pkg/contracts"
)

// Backend names, carried on every Outcome.
const (
	BackendZ3         = "z3"
	BackendSimulation = "simulation"
)

// Outcome is a backend's classified verdict for one assertion set.
type Outcome struct {
	Status contracts.VerificationStatus

	// Witness is the variable→value model on SAT, when the backend
	// exposes one.
	Witness map[string]string

	// Output is the raw textual verdict or diagnostic message.
	Output string

	// Backend identifies which solver produced this outcome.
	Backend string
}

// Solver is a satisfiability backend. Solve honors ctx cancellation on a
// best-effort basis; the Adapter enforces the hard deadline externally.
type Solver interface {
	Name() string
	Solve(ctx context.Context, assertions []string) (*Outcome, error)
}

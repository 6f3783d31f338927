package solver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/acgs-labs/charter/pkg/contracts"
)

const defaultTimeout = 30 * time.Second

// Adapter wraps a backend with the guarantees the orchestrator relies on:
// the caller's budget is enforced with an external deadline even if the
// backend cannot cancel, admission is rate-limited so a burst of requests
// cannot pile up solver processes, and every path returns a well-formed
// Outcome instead of an error.
type Adapter struct {
	backend Solver
	limiter *rate.Limiter
	logger  *slog.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithAdmissionLimit bounds solver invocations to rps with the given burst.
func WithAdmissionLimit(rps float64, burst int) Option {
	return func(a *Adapter) {
		a.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger overrides the adapter's logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) { a.logger = l }
}

// NewAdapter wraps backend. The backend is fixed for the adapter's
// lifetime; modes are never mixed per-request.
func NewAdapter(backend Solver, opts ...Option) *Adapter {
	a := &Adapter{
		backend: backend,
		logger:  slog.Default().With("component", "solver"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Backend returns the name of the wrapped backend.
func (a *Adapter) Backend() string { return a.backend.Name() }

// Check evaluates the assertion set within timeout. It always returns an
// Outcome: backend errors become StatusError, deadline expiry becomes
// StatusTimeout.
func (a *Adapter) Check(ctx context.Context, assertions []string, timeout time.Duration) *Outcome {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if a.limiter != nil {
		if err := a.limiter.Wait(cctx); err != nil {
			return a.timeoutOrError(cctx, timeout, err)
		}
	}

	type solveReply struct {
		out *Outcome
		err error
	}
	ch := make(chan solveReply, 1)
	go func() {
		out, err := a.backend.Solve(cctx, assertions)
		ch <- solveReply{out, err}
	}()

	select {
	case <-cctx.Done():
		// The backend goroutine is abandoned; the z3 backend carries its
		// own solver-side timeout matching this budget so it terminates
		// shortly after rather than leaking.
		return a.timeoutOrError(cctx, timeout, cctx.Err())
	case reply := <-ch:
		if reply.err != nil {
			a.logger.Warn("solver backend failed",
				"backend", a.backend.Name(), "error", reply.err)
			return &Outcome{
				Status:  contracts.StatusError,
				Output:  fmt.Sprintf("solver error: %v", reply.err),
				Backend: a.backend.Name(),
			}
		}
		if reply.out.Backend == "" {
			reply.out.Backend = a.backend.Name()
		}
		return reply.out
	}
}

func (a *Adapter) timeoutOrError(ctx context.Context, timeout time.Duration, err error) *Outcome {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		a.logger.Warn("solver timed out", "backend", a.backend.Name(), "budget", timeout)
		return &Outcome{
			Status:  contracts.StatusTimeout,
			Output:  fmt.Sprintf("solver timed out after %s", timeout),
			Backend: a.backend.Name(),
		}
	}
	return &Outcome{
		Status:  contracts.StatusError,
		Output:  fmt.Sprintf("solver aborted: %v", err),
		Backend: a.backend.Name(),
	}
}

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/acgs-labs/charter/pkg/cache"
	"github.com/acgs-labs/charter/pkg/config"
	"github.com/acgs-labs/charter/pkg/contracts"
	"github.com/acgs-labs/charter/pkg/engine"
	"github.com/acgs-labs/charter/pkg/solver"
)

// runVerifyCmd performs a one-shot verification from a JSON request file,
// without starting the service.
func runVerifyCmd(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(stderr)
	reqPath := fs.String("req", "", "path to a VerificationRequest JSON file")
	backendName := fs.String("backend", "", "solver backend override (simulation|z3)")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *reqPath == "" {
		fmt.Fprintln(stderr, "verify: -req FILE is required")
		return 1
	}

	cfg := config.Load()
	setupLogging(cfg.LogLevel)
	if cfg.ProfilePath != "" {
		profile, err := config.LoadProfile(cfg.ProfilePath)
		if err != nil {
			fmt.Fprintf(stderr, "profile load failed: %v\n", err)
			return 1
		}
		profile.Apply(cfg)
	}
	if *backendName != "" {
		cfg.SolverBackend = *backendName
	}

	data, err := os.ReadFile(*reqPath)
	if err != nil {
		fmt.Fprintf(stderr, "verify: %v\n", err)
		return 1
	}
	req, err := contracts.DecodeRequest(data)
	if err != nil {
		fmt.Fprintf(stderr, "verify: %v\n", err)
		return 1
	}

	backend, err := selectBackend(cfg.SolverBackend)
	if err != nil {
		fmt.Fprintf(stderr, "verify: %v\n", err)
		return 1
	}
	eng, err := engine.New(engine.Config{
		ReferenceHash: cfg.ConstitutionalHash,
		Cache:         cache.NewMemoryCache(1),
		Solver:        solver.NewAdapter(backend),
	})
	if err != nil {
		fmt.Fprintf(stderr, "verify: %v\n", err)
		return 1
	}

	result := eng.VerifyPolicy(context.Background(), req)

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(stderr, "verify: %v\n", err)
		return 1
	}
	if result.VerificationStatus == contracts.StatusError {
		return 2
	}
	return 0
}

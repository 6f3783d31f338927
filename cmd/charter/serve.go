package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/acgs-labs/charter/pkg/api"
	"github.com/acgs-labs/charter/pkg/attest"
	"github.com/acgs-labs/charter/pkg/cache"
	"github.com/acgs-labs/charter/pkg/config"
	"github.com/acgs-labs/charter/pkg/engine"
	"github.com/acgs-labs/charter/pkg/metrics"
	"github.com/acgs-labs/charter/pkg/observability"
	"github.com/acgs-labs/charter/pkg/solver"
	"github.com/acgs-labs/charter/pkg/store"
)

func runServe(stdout, stderr io.Writer) int {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	if cfg.ProfilePath != "" {
		profile, err := config.LoadProfile(cfg.ProfilePath)
		if err != nil {
			fmt.Fprintf(stderr, "profile load failed: %v\n", err)
			return 1
		}
		profile.Apply(cfg)
		slog.Info("deployment profile loaded", "name", profile.Name)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	obs, err := observability.New(ctx, observability.Config{
		ServiceName:    "charter",
		ServiceVersion: config.EngineVersion,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Insecure:       true,
	})
	if err != nil {
		fmt.Fprintf(stderr, "observability init failed: %v\n", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = obs.Shutdown(shutdownCtx)
	}()

	eng, cleanup, err := buildEngine(cfg, obs)
	if err != nil {
		fmt.Fprintf(stderr, "engine init failed: %v\n", err)
		return 1
	}
	defer cleanup()

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.NewServer(eng, api.NewRateLimiter(100, 200)).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("verification service listening", "addr", cfg.ListenAddr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(stderr, "shutdown failed: %v\n", err)
			return 1
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(stderr, "server failed: %v\n", err)
			return 1
		}
	}
	return 0
}

// buildEngine assembles the engine from configuration. The returned cleanup
// closes any opened stores.
func buildEngine(cfg *config.Config, obs *observability.Provider) (*engine.Engine, func(), error) {
	backend, err := selectBackend(cfg.SolverBackend)
	if err != nil {
		return nil, nil, err
	}

	var adapterOpts []solver.Option
	if cfg.SolverRPS > 0 {
		adapterOpts = append(adapterOpts, solver.WithAdmissionLimit(cfg.SolverRPS, cfg.SolverBurst))
	}
	adapter := solver.NewAdapter(backend, adapterOpts...)
	slog.Info("solver backend selected", "backend", adapter.Backend())

	var resultCache cache.ResultCache
	var closers []func()
	if cfg.RedisAddr != "" {
		rc := cache.NewRedisCache(cache.RedisConfig{Addr: cfg.RedisAddr})
		closers = append(closers, func() { _ = rc.Close() })
		resultCache = rc
	} else {
		resultCache = cache.NewMemoryCache(cfg.CacheCapacity)
	}

	var resultLog store.ResultLog
	switch cfg.DatabaseDriver {
	case "sqlite":
		s, err := store.OpenSQLite(cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { _ = s.Close() })
		resultLog = s
	case "postgres":
		s, err := store.OpenPostgres(cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { _ = s.Close() })
		resultLog = s
	case "":
		// no persisted history; statistics fall back to the cache snapshot
	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.DatabaseDriver)
	}

	var signer engine.Signer
	if cfg.SigningSecret != "" {
		provider, err := attest.NewDerivedKeyProvider([]byte(cfg.SigningSecret), "charter-result-signing")
		if err != nil {
			return nil, nil, err
		}
		signer = attest.NewSigner(provider)
	}

	recorder, err := metrics.NewRecorder(obs.Meter())
	if err != nil {
		return nil, nil, err
	}

	eng, err := engine.New(engine.Config{
		ReferenceHash: cfg.ConstitutionalHash,
		Cache:         resultCache,
		Solver:        adapter,
		Log:           resultLog,
		Signer:        signer,
		Recorder:      recorder,
		BatchWorkers:  cfg.BatchWorkers,
	})
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}
	return eng, cleanup, nil
}

func selectBackend(name string) (solver.Solver, error) {
	switch name {
	case "z3":
		return solver.NewZ3()
	case "simulation", "":
		return solver.NewSimulator(), nil
	default:
		return nil, fmt.Errorf("unknown solver backend %q", name)
	}
}

func setupLogging(level string) {
	var lvl slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		lvl = slog.LevelDebug
	case "WARN":
		lvl = slog.LevelWarn
	case "ERROR":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

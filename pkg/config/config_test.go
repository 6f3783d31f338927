package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"CHARTER_LISTEN_ADDR", "CHARTER_LOG_LEVEL", "CHARTER_CONSTITUTIONAL_HASH",
		"CHARTER_SOLVER_BACKEND", "CHARTER_CACHE_CAPACITY", "CHARTER_DB_DRIVER",
		"CHARTER_DB_DSN", "CHARTER_SOLVER_RPS",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := Load()
	assert.Equal(t, ":8443", cfg.ListenAddr)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Empty(t, cfg.ConstitutionalHash)
	assert.Equal(t, "simulation", cfg.SolverBackend)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, "charter.db", cfg.DatabaseDSN)
	assert.Zero(t, cfg.CacheCapacity)
	assert.Zero(t, cfg.SolverRPS)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("CHARTER_LISTEN_ADDR", ":9000")
	t.Setenv("CHARTER_CONSTITUTIONAL_HASH", "cdd01ef066bc6cf2")
	t.Setenv("CHARTER_SOLVER_BACKEND", "z3")
	t.Setenv("CHARTER_CACHE_CAPACITY", "128")
	t.Setenv("CHARTER_SOLVER_RPS", "2.5")
	t.Setenv("CHARTER_BATCH_WORKERS", "8")

	cfg := Load()
	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "cdd01ef066bc6cf2", cfg.ConstitutionalHash)
	assert.Equal(t, "z3", cfg.SolverBackend)
	assert.Equal(t, 128, cfg.CacheCapacity)
	assert.Equal(t, 2.5, cfg.SolverRPS)
	assert.Equal(t, 8, cfg.BatchWorkers)
}

func TestLoad_MalformedNumbersFallBack(t *testing.T) {
	t.Setenv("CHARTER_CACHE_CAPACITY", "lots")
	t.Setenv("CHARTER_SOLVER_RPS", "fast")

	cfg := Load()
	assert.Zero(t, cfg.CacheCapacity)
	assert.Zero(t, cfg.SolverRPS)
}

func writeProfile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadProfile_AppliesOverlay(t *testing.T) {
	path := writeProfile(t, `
name: production
constitutional_hash: cdd01ef066bc6cf2
solver_backend: z3
cache_capacity: 256
engine_compat: ">= 1.0.0 < 2.0.0"
`)

	profile, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "production", profile.Name)

	cfg := &Config{SolverBackend: "simulation", BatchWorkers: 2}
	profile.Apply(cfg)

	assert.Equal(t, "cdd01ef066bc6cf2", cfg.ConstitutionalHash)
	assert.Equal(t, "z3", cfg.SolverBackend)
	assert.Equal(t, 256, cfg.CacheCapacity)
	assert.Equal(t, 2, cfg.BatchWorkers, "unset profile fields keep existing values")
}

func TestLoadProfile_RequiresHash(t *testing.T) {
	path := writeProfile(t, "name: incomplete\n")
	_, err := LoadProfile(path)
	assert.ErrorContains(t, err, "constitutional_hash is required")
}

func TestLoadProfile_EngineCompatGate(t *testing.T) {
	path := writeProfile(t, `
name: future
constitutional_hash: cdd01ef066bc6cf2
engine_compat: ">= 9.0.0"
`)
	_, err := LoadProfile(path)
	assert.ErrorContains(t, err, "requires engine")
}

func TestLoadProfile_InvalidConstraint(t *testing.T) {
	path := writeProfile(t, `
name: broken
constitutional_hash: cdd01ef066bc6cf2
engine_compat: "not-a-constraint"
`)
	_, err := LoadProfile(path)
	assert.ErrorContains(t, err, "invalid engine_compat")
}

func TestLoadProfile_MissingFile(t *testing.T) {
	_, err := LoadProfile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

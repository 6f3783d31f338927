// Package config loads engine configuration from the environment and
// optional YAML deployment profiles.
package config

import (
	"os"
	"strconv"
)

// EngineVersion is the release version compared against profile
// compatibility constraints.
const EngineVersion = "1.3.0"

// Config holds process configuration. The reference constitutional hash is
// deliberately configuration, not a compiled-in constant, so governance
// baselines vary per deployment.
type Config struct {
	ListenAddr         string
	LogLevel           string
	ConstitutionalHash string
	SolverBackend      string // "simulation" | "z3"

	CacheCapacity int
	RedisAddr     string // empty selects the in-memory cache

	DatabaseDriver string // "sqlite" | "postgres" | "" (no result log)
	DatabaseDSN    string

	BatchWorkers   int
	SolverRPS      float64
	SolverBurst    int
	SigningSecret  string
	OTLPEndpoint   string
	ProfilePath    string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		ListenAddr:         envOr("CHARTER_LISTEN_ADDR", ":8443"),
		LogLevel:           envOr("CHARTER_LOG_LEVEL", "INFO"),
		ConstitutionalHash: os.Getenv("CHARTER_CONSTITUTIONAL_HASH"),
		SolverBackend:      envOr("CHARTER_SOLVER_BACKEND", "simulation"),
		CacheCapacity:      envInt("CHARTER_CACHE_CAPACITY", 0),
		RedisAddr:          os.Getenv("CHARTER_REDIS_ADDR"),
		DatabaseDriver:     envOr("CHARTER_DB_DRIVER", "sqlite"),
		DatabaseDSN:        envOr("CHARTER_DB_DSN", "charter.db"),
		BatchWorkers:       envInt("CHARTER_BATCH_WORKERS", 0),
		SolverRPS:          envFloat("CHARTER_SOLVER_RPS", 0),
		SolverBurst:        envInt("CHARTER_SOLVER_BURST", 1),
		SigningSecret:      os.Getenv("CHARTER_SIGNING_SECRET"),
		OTLPEndpoint:       os.Getenv("CHARTER_OTLP_ENDPOINT"),
		ProfilePath:        os.Getenv("CHARTER_PROFILE"),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

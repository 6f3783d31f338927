package config

import (
	"fmt"
	"os"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// DeploymentProfile is a governance-baseline profile distributed alongside
// a deployment. It pins the constitutional hash and may constrain which
// engine versions are allowed to serve it.
type DeploymentProfile struct {
	Name               string  `yaml:"name" json:"name"`
	ConstitutionalHash string  `yaml:"constitutional_hash" json:"constitutional_hash"`
	SolverBackend      string  `yaml:"solver_backend,omitempty" json:"solver_backend,omitempty"`
	CacheCapacity      int     `yaml:"cache_capacity,omitempty" json:"cache_capacity,omitempty"`
	BatchWorkers       int     `yaml:"batch_workers,omitempty" json:"batch_workers,omitempty"`

	// EngineCompat is a semver constraint (e.g. ">= 1.2.0 < 2.0.0")
	// validated against EngineVersion at load time.
	EngineCompat string `yaml:"engine_compat,omitempty" json:"engine_compat,omitempty"`
}

// LoadProfile reads and validates a deployment profile.
func LoadProfile(path string) (*DeploymentProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load profile %q: %w", path, err)
	}

	var profile DeploymentProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("parse profile %q: %w", path, err)
	}
	if profile.ConstitutionalHash == "" {
		return nil, fmt.Errorf("profile %q: constitutional_hash is required", path)
	}

	if profile.EngineCompat != "" {
		constraint, err := semver.NewConstraint(profile.EngineCompat)
		if err != nil {
			return nil, fmt.Errorf("profile %q: invalid engine_compat: %w", path, err)
		}
		current, err := semver.NewVersion(EngineVersion)
		if err != nil {
			return nil, fmt.Errorf("invalid engine version %q: %w", EngineVersion, err)
		}
		if !constraint.Check(current) {
			return nil, fmt.Errorf("profile %q requires engine %s, running %s",
				path, profile.EngineCompat, EngineVersion)
		}
	}
	return &profile, nil
}

// Apply overlays profile values onto the config. Profile values win over
// environment defaults; the constitutional hash always comes from the
// profile when one is loaded.
func (p *DeploymentProfile) Apply(cfg *Config) {
	cfg.ConstitutionalHash = p.ConstitutionalHash
	if p.SolverBackend != "" {
		cfg.SolverBackend = p.SolverBackend
	}
	if p.CacheCapacity > 0 {
		cfg.CacheCapacity = p.CacheCapacity
	}
	if p.BatchWorkers > 0 {
		cfg.BatchWorkers = p.BatchWorkers
	}
}

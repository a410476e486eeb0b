package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"

	"github.com/danielpatrickdp/rulecheck/internal/compare"
	"github.com/danielpatrickdp/rulecheck/internal/difficulty"
	"github.com/danielpatrickdp/rulecheck/internal/inventory"
	"github.com/danielpatrickdp/rulecheck/internal/report"
)

// ErrInvalidProfile marks a profile file that cannot be turned into a run
// configuration.
var ErrInvalidProfile = errors.New("invalid profile")

// #region env
// Env is the process configuration read from RULECHECK_* variables.
type Env struct {
	Report    string `env:"RULECHECK_REPORT"     envDefault:"results/compare.txt"`
	DB        string `env:"RULECHECK_DB"`
	Workers   int    `env:"RULECHECK_WORKERS"`
	Profile   string `env:"RULECHECK_PROFILE"`
	LogLevel  string `env:"RULECHECK_LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"RULECHECK_LOG_FORMAT" envDefault:"text"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadEnv reads Env from the process environment.
func LoadEnv() (Env, error) {
	var cfg Env
	if err := ParseEnv(&cfg); err != nil {
		return Env{}, err
	}
	if cfg.Workers < 0 {
		return Env{}, fmt.Errorf("RULECHECK_WORKERS must be >= 0, got %d", cfg.Workers)
	}
	return cfg, nil
}

// #endregion env

// #region profile
// Profile is a YAML description of one comparison setup. Every field is
// optional; missing fields keep the defaults.
type Profile struct {
	Labels     *report.Labels        `yaml:"labels,omitempty"`
	Dimensions []inventory.Dimension `yaml:"dimensions,omitempty"`
	Slot       int                   `yaml:"slot,omitempty"`
	Steps      map[string]int        `yaml:"steps,omitempty"`
	Tiers      []string              `yaml:"tiers,omitempty"`
	Workers    int                   `yaml:"workers,omitempty"`
	Exclude    *Exclude              `yaml:"exclude,omitempty"`
}

// Exclude lists targets to skip, by kind.
type Exclude struct {
	Entrances []string `yaml:"entrances,omitempty"`
	Locations []string `yaml:"locations,omitempty"`
}

// LoadProfile reads a YAML profile. An empty path is the empty profile.
func LoadProfile(path string) (Profile, error) {
	if path == "" {
		return Profile{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read profile: %w", err)
	}
	return ParseProfile(data)
}

// ParseProfile decodes a YAML profile, rejecting unknown keys.
func ParseProfile(data []byte) (Profile, error) {
	var p Profile
	if err := yamlStrict(data, &p); err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	return p, nil
}

// #endregion profile

// #region resolve
// Run is everything a comparison needs besides its providers.
type Run struct {
	Space   *inventory.Space
	Compare compare.Config
	Labels  report.Labels
}

// Resolve applies the profile and then env on top of the defaults.
func Resolve(p Profile, e Env) (Run, error) {
	sp := inventory.DefaultSpace()
	if len(p.Dimensions) > 0 {
		var err error
		if sp, err = inventory.NewSpace(p.Dimensions...); err != nil {
			return Run{}, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
		}
	}

	cfg := compare.DefaultConfig()
	if p.Slot != 0 {
		cfg.Slot = p.Slot
		cfg.Mapping.Slot = p.Slot
	}
	switch {
	case p.Steps != nil:
		cfg.Mapping.Steps = p.Steps
	case len(p.Dimensions) > 0:
		// custom dimensions carry their own steps
		cfg.Mapping.Steps = map[string]int{}
	}
	if err := cfg.Mapping.Validate(sp); err != nil {
		return Run{}, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	if len(p.Tiers) > 0 {
		cfg.Tiers = cfg.Tiers[:0:0]
		for _, name := range p.Tiers {
			t, err := difficulty.Parse(name)
			if err != nil {
				return Run{}, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
			}
			cfg.Tiers = append(cfg.Tiers, t)
		}
	}
	if p.Exclude != nil {
		cfg.Exclusions = compare.NewExclusions(p.Exclude.Entrances, p.Exclude.Locations)
	}
	switch {
	case e.Workers > 0:
		cfg.Workers = e.Workers
	case p.Workers > 0:
		cfg.Workers = p.Workers
	}

	labels := report.DefaultLabels()
	if p.Labels != nil {
		if p.Labels.A != "" {
			labels.A = p.Labels.A
		}
		if p.Labels.B != "" {
			labels.B = p.Labels.B
		}
	}
	return Run{Space: sp, Compare: cfg, Labels: labels}, nil
}

// #endregion resolve

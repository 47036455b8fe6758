// Package config loads the run configuration. A YAML file carries the
// recognized options; credentials (User-Agent contact string, database URL)
// come from the environment so they stay out of checked-in files.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"coordscan/pkg/core/detect"
	"coordscan/pkg/core/fetch"
	"coordscan/pkg/core/filter"
	"coordscan/pkg/core/normalize"
)

// Config is the full recognized option set for both stages.
type Config struct {
	// Fetch stage
	UserAgent         string   `yaml:"user_agent"`
	RequestsPerSecond float64  `yaml:"requests_per_second"`
	Workers           int      `yaml:"workers"`
	Retries           int      `yaml:"retries"`
	TimeoutSeconds    int      `yaml:"timeout_seconds"`
	IncludeCodes      []string `yaml:"include_codes"`
	RequireTenPercent *bool    `yaml:"require_ten_percent"`
	KeepOTC           bool     `yaml:"keep_otc"`

	// Detection stage
	By            string  `yaml:"by"` // publication | transaction
	AbsTol        float64 `yaml:"abs_tol"`
	PctTol        float64 `yaml:"pct_tol"`
	MinBuyers     int     `yaml:"min_buyers"`
	KeepHistory   bool    `yaml:"keep_history"`
	PreferRevised *bool   `yaml:"prefer_revised"`
}

// Default returns the conventional run configuration.
func Default() Config {
	t := true
	return Config{
		RequestsPerSecond: 2.0,
		Workers:           6,
		Retries:           3,
		TimeoutSeconds:    30,
		IncludeCodes:      []string{"P", "C"},
		RequireTenPercent: &t,
		By:                "publication",
		AbsTol:            0.02,
		PctTol:            0.003,
		MinBuyers:         2,
		PreferRevised:     &t,
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// FetchOptions maps the config onto the fetch client.
func (c Config) FetchOptions() fetch.Options {
	return fetch.Options{
		UserAgent:         c.UserAgent,
		RequestsPerSecond: c.RequestsPerSecond,
		MaxConns:          c.Workers,
		Retries:           c.Retries,
		Timeout:           time.Duration(c.TimeoutSeconds) * time.Second,
	}
}

// FilterConfig maps the config onto the eligibility filter.
func (c Config) FilterConfig() filter.Config {
	require := true
	if c.RequireTenPercent != nil {
		require = *c.RequireTenPercent
	}
	return filter.NewConfig(c.IncludeCodes, require, c.KeepOTC)
}

// DetectParams maps the config onto the detection engine.
func (c Config) DetectParams() (detect.Params, error) {
	basis, err := normalize.ParseBasis(c.By)
	if err != nil {
		return detect.Params{}, err
	}
	p := detect.DefaultParams()
	p.Basis = basis
	p.AbsTol = c.AbsTol
	p.PctTol = c.PctTol
	p.MinBuyers = c.MinBuyers
	p.KeepHistory = c.KeepHistory
	if c.PreferRevised != nil {
		p.PreferRevised = *c.PreferRevised
	}
	return p, nil
}

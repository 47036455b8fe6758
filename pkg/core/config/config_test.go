package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"coordscan/pkg/core/normalize"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.RequestsPerSecond != 2.0 || cfg.Workers != 6 || cfg.MinBuyers != 2 {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.RequireTenPercent == nil || !*cfg.RequireTenPercent {
		t.Errorf("ten-percent requirement should default on")
	}
	if cfg.PreferRevised == nil || !*cfg.PreferRevised {
		t.Errorf("revision preference should default on")
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.AbsTol != 0.02 {
		t.Errorf("empty path should return defaults, got %+v", cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `user_agent: "coordscan test (dev@example.com)"
requests_per_second: 0.5
workers: 2
include_codes: ["P"]
require_ten_percent: false
by: transaction
abs_tol: 0.05
min_buyers: 3
prefer_revised: false
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.RequestsPerSecond != 0.5 || cfg.Workers != 2 || cfg.AbsTol != 0.05 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	// Untouched keys keep their defaults.
	if cfg.PctTol != 0.003 || cfg.Retries != 3 {
		t.Errorf("defaults lost: %+v", cfg)
	}
	if cfg.RequireTenPercent == nil || *cfg.RequireTenPercent {
		t.Errorf("explicit false should survive loading")
	}

	opts := cfg.FetchOptions()
	if opts.UserAgent != "coordscan test (dev@example.com)" || opts.Timeout != 30*time.Second {
		t.Errorf("FetchOptions = %+v", opts)
	}

	fc := cfg.FilterConfig()
	if fc.RequireTenPercent {
		t.Errorf("filter should honor the explicit false")
	}
	if !fc.AllowedCodes["P"] || fc.AllowedCodes["C"] {
		t.Errorf("allowed codes = %v", fc.AllowedCodes)
	}

	p, err := cfg.DetectParams()
	if err != nil {
		t.Fatal(err)
	}
	if p.Basis != normalize.ByTransaction || p.MinBuyers != 3 || p.PreferRevised {
		t.Errorf("DetectParams = %+v", p)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Errorf("expected an error for a missing file")
	}
}

func TestDetectParamsBadBasis(t *testing.T) {
	cfg := Default()
	cfg.By = "sideways"
	if _, err := cfg.DetectParams(); err == nil {
		t.Errorf("expected an error for an unknown basis")
	}
}

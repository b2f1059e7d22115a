package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/gyresim/internal/control"
	"github.com/san-kum/gyresim/internal/flow"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Flow.Family != "rankine_vortex" {
		t.Errorf("expected family rankine_vortex, got %s", cfg.Flow.Family)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Duration <= 0 {
		t.Error("duration should be positive")
	}
	if _, err := cfg.Params(); err != nil {
		t.Errorf("default config should translate cleanly: %v", err)
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")

	cfg := DefaultConfig()
	cfg.Flow.Gamma = 1.25
	cfg.Flow.Noise = [2]float64{0.002, -0.001}
	cfg.Orientation = "cw"
	cfg.Direction = "out"
	cfg.Mobile = PoseConfig{X: 3, Y: -1, Theta: 0.4}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if loaded.Flow.Gamma != 1.25 {
		t.Errorf("gamma: got %f", loaded.Flow.Gamma)
	}
	if loaded.Flow.Noise != cfg.Flow.Noise {
		t.Errorf("noise: got %v", loaded.Flow.Noise)
	}
	if loaded.Orientation != "cw" || loaded.Direction != "out" {
		t.Errorf("conventions: got %s/%s", loaded.Orientation, loaded.Direction)
	}
	if loaded.Mobile != cfg.Mobile {
		t.Errorf("mobile pose: got %+v", loaded.Mobile)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "partial.yaml")
	data := []byte("flow:\n  family: rankine_vortex\n  gamma: 2.0\n  core_radius: 0.1\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Flow.Gamma != 2.0 {
		t.Errorf("gamma: got %f", cfg.Flow.Gamma)
	}
	if cfg.Dt != DefaultDt {
		t.Errorf("dt should keep default, got %f", cfg.Dt)
	}
	if cfg.Orientation != "ccw" {
		t.Errorf("orientation should keep default, got %s", cfg.Orientation)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParams_BadNames(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Flow.Family = "tornado"
	if _, err := cfg.Params(); !errors.Is(err, flow.ErrUnknownFamily) {
		t.Errorf("expected ErrUnknownFamily, got %v", err)
	}

	cfg = DefaultConfig()
	cfg.Orientation = "widdershins"
	if _, err := cfg.Params(); err == nil {
		t.Error("expected error for unknown orientation")
	}

	cfg = DefaultConfig()
	cfg.Direction = "sideways"
	if _, err := cfg.Params(); err == nil {
		t.Error("expected error for unknown direction")
	}
}

func TestFlowSpec_SingleVortexProfile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Flow.Family = "single_vortex"
	cfg.Flow.Gamma = 2 * math.Pi
	cfg.Flow.CoreRadius = 1.0
	cfg.Flow.Mu = 0.01

	spec, err := cfg.FlowSpec()
	if err != nil {
		t.Fatalf("flow spec: %v", err)
	}
	// Rankine profile evaluated outside the core: gamma/(2*pi*r).
	got := spec.Single.Profile(2.0)
	if math.Abs(got-0.5) > 1e-12 {
		t.Errorf("profile(2) = %f, want 0.5", got)
	}
	if spec.Single.Mu != 0.01 {
		t.Errorf("mu: got %f", spec.Single.Mu)
	}
}

func TestFlowSpec_SingleVortexNeedsCore(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Flow.Family = "single_vortex"
	cfg.Flow.CoreRadius = 0
	if _, err := cfg.FlowSpec(); !errors.Is(err, flow.ErrBadParams) {
		t.Errorf("expected ErrBadParams, got %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("rankine_vortex", "opposed")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Mobile.X != 32 {
		t.Errorf("expected mobile x 32, got %f", cfg.Mobile.X)
	}
	if _, err := cfg.Params(); err != nil {
		t.Errorf("preset should translate cleanly: %v", err)
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("rankine_vortex", "nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if cfg := GetPreset("nonexistent", "default"); cfg != nil {
		t.Error("expected nil for nonexistent family")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets("rankine_vortex")
	if len(presets) == 0 {
		t.Error("expected presets for rankine_vortex")
	}
	if presets := ListPresets("nonexistent"); presets != nil {
		t.Error("expected nil for nonexistent family")
	}
}

func TestAllPresetsTranslate(t *testing.T) {
	for family, group := range Presets {
		for name, cfg := range group {
			if _, err := cfg.Params(); err != nil {
				t.Errorf("preset %s/%s: %v", family, name, err)
			}
		}
	}
}

func TestParamsConventions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Orientation = "cw"
	cfg.Direction = "out"
	p, err := cfg.Params()
	if err != nil {
		t.Fatal(err)
	}
	if p.Orientation != control.CW {
		t.Errorf("orientation: got %v", p.Orientation)
	}
	if p.Direction != control.Out {
		t.Errorf("direction: got %v", p.Direction)
	}
}

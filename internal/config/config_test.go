package config

import (
	"path/filepath"
	"testing"

	"github.com/avolkov/looplab/internal/control"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Duration <= 0 {
		t.Error("duration should be positive")
	}
	if cfg.Controller.Algorithm != "basic" {
		t.Errorf("expected algorithm basic, got %s", cfg.Controller.Algorithm)
	}
	if len(cfg.Steps) == 0 {
		t.Error("expected a default setpoint step")
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("deadtime")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Process.DeadTime != 3.0 {
		t.Errorf("expected dead time 3.0, got %f", cfg.Process.DeadTime)
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets()
	if len(presets) == 0 {
		t.Fatal("expected presets")
	}

	found := false
	for _, name := range presets {
		if name == "default" {
			found = true
		}
	}
	if !found {
		t.Error("expected default preset in list")
	}
}

func TestPresetsResolve(t *testing.T) {
	for name, cfg := range Presets {
		if _, err := cfg.LoopConfig(); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loop.yaml")

	cfg := DefaultConfig()
	cfg.Controller.Kp = 2.5
	cfg.Controller.Algorithm = "i-pd"
	cfg.Process.DeadTime = 1.5
	cfg.Steps = []StepConfig{{At: 3.0, Setpoint: 65.0}}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if got.Controller.Kp != 2.5 {
		t.Errorf("kp = %f, want 2.5", got.Controller.Kp)
	}
	if got.Controller.Algorithm != "i-pd" {
		t.Errorf("algorithm = %s, want i-pd", got.Controller.Algorithm)
	}
	if got.Process.DeadTime != 1.5 {
		t.Errorf("dead time = %f, want 1.5", got.Process.DeadTime)
	}
	if len(got.Steps) != 1 || got.Steps[0].Setpoint != 65.0 {
		t.Errorf("steps = %+v, want one step to 65", got.Steps)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoopConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Controller.Algorithm = "pi-d"

	lc, err := cfg.LoopConfig()
	if err != nil {
		t.Fatalf("loop config: %v", err)
	}
	if lc.Algorithm != control.PI_D {
		t.Errorf("algorithm = %v, want PI_D", lc.Algorithm)
	}
	if lc.Kp != cfg.Controller.Kp || lc.TimeConstant != cfg.Process.TimeConstant {
		t.Error("loop config does not mirror file config")
	}
}

func TestLoopConfigBadAlgorithm(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Controller.Algorithm = "bogus"

	if _, err := cfg.LoopConfig(); err == nil {
		t.Error("expected error for unknown algorithm")
	}
}

package storage

import (
	"strings"
	"testing"

	"github.com/avolkov/looplab/internal/control"
	"github.com/avolkov/looplab/internal/loop"
	"github.com/avolkov/looplab/internal/scenario"
)

func testRun() (scenario.Config, *scenario.Result) {
	lc := loop.DefaultConfig()
	lc.DeadTime = 1.0
	lc.Seed = 42

	cfg := scenario.Config{
		Name:     "step",
		Loop:     lc,
		Duration: 1.0,
	}
	result := &scenario.Result{
		Times:     []float64{0.0, 0.1, 0.2},
		Setpoints: []float64{50, 70, 70},
		PVs:       []float64{50, 50, 50.2},
		MVs:       []float64{50, 72, 71.5},
		Metrics:   map[string]float64{"iae": 3.95, "overshoot_pct": 0},
	}
	return cfg, result
}

func TestSaveLoadRoundtrip(t *testing.T) {
	store := New(t.TempDir())
	if err := store.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	cfg, result := testRun()
	runID, err := store.Save(cfg, result)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(runID, "step_") {
		t.Errorf("run id %q does not carry the scenario name", runID)
	}

	meta, err := store.Load(runID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if meta.ID != runID || meta.Name != "step" {
		t.Errorf("metadata = %+v, want id %s", meta, runID)
	}
	if meta.Seed != 42 || meta.DeadTime != 1.0 {
		t.Errorf("loop parameters not preserved: %+v", meta)
	}
	if meta.Algorithm != control.BasicPID.String() {
		t.Errorf("algorithm = %s, want %s", meta.Algorithm, control.BasicPID)
	}
	if meta.Metrics["iae"] != 3.95 {
		t.Errorf("metrics not preserved: %+v", meta.Metrics)
	}

	trend, err := store.LoadTrend(runID)
	if err != nil {
		t.Fatalf("load trend: %v", err)
	}
	if len(trend.Times) != 3 {
		t.Fatalf("trend has %d rows, want 3", len(trend.Times))
	}
	if trend.MVs[1] != 72 || trend.Setpoints[1] != 70 {
		t.Errorf("trend row 1 = (%f, %f), want (70, 72)", trend.Setpoints[1], trend.MVs[1])
	}
}

func TestList(t *testing.T) {
	store := New(t.TempDir())
	if err := store.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	cfg, result := testRun()
	if _, err := store.Save(cfg, result); err != nil {
		t.Fatalf("save: %v", err)
	}

	runs, err := store.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("listed %d runs, want 1", len(runs))
	}
	if runs[0].Name != "step" {
		t.Errorf("run name = %s, want step", runs[0].Name)
	}
}

func TestListEmptyBaseDir(t *testing.T) {
	store := New(t.TempDir() + "/never-created")

	runs, err := store.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("listed %d runs from a missing directory", len(runs))
	}
}

func TestLoadUnknownRun(t *testing.T) {
	store := New(t.TempDir())
	if _, err := store.Load("no_such_run"); err == nil {
		t.Error("expected error for unknown run id")
	}
}

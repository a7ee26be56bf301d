package scenario

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/avolkov/looplab/internal/loop"
)

func testConfig() Config {
	return Config{
		Name:     "step",
		Loop:     loop.DefaultConfig(),
		Duration: 30.0,
		Steps:    []Step{{At: 5.0, Setpoint: 70.0}},
	}
}

func TestRunRecordsTrend(t *testing.T) {
	s, err := New(testConfig(), nil)
	if err != nil {
		t.Fatalf("new scenario: %v", err)
	}

	result, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	// 300 ticks plus the initial sample.
	if len(result.Times) != 301 {
		t.Errorf("recorded %d samples, want 301", len(result.Times))
	}
	if len(result.PVs) != len(result.Times) || len(result.MVs) != len(result.Times) {
		t.Error("trend series lengths disagree")
	}

	if result.Times[0] != 0 {
		t.Errorf("first sample at t=%f, want 0", result.Times[0])
	}
	if math.Abs(result.Times[len(result.Times)-1]-30.0) > 1e-6 {
		t.Errorf("last sample at t=%f, want 30", result.Times[len(result.Times)-1])
	}
}

func TestRunAppliesSetpointSteps(t *testing.T) {
	s, err := New(testConfig(), nil)
	if err != nil {
		t.Fatalf("new scenario: %v", err)
	}

	result, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	for i, tm := range result.Times {
		if math.Abs(tm-5.0) < 0.15 {
			continue // within a tick of the step boundary
		}
		want := 50.0
		if tm > 5.0 {
			want = 70.0
		}
		if result.Setpoints[i] != want {
			t.Fatalf("t=%f: setpoint %f, want %f", tm, result.Setpoints[i], want)
		}
	}

	// The loop should have moved toward the new setpoint by the end.
	final := result.PVs[len(result.PVs)-1]
	if final < 60 {
		t.Errorf("final PV %f, expected progress toward 70", final)
	}
}

func TestRunComputesMetrics(t *testing.T) {
	s, err := New(testConfig(), nil)
	if err != nil {
		t.Fatalf("new scenario: %v", err)
	}

	result, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	for _, name := range []string{"iae", "ise", "overshoot_pct", "settling_time", "control_effort"} {
		if _, ok := result.Metrics[name]; !ok {
			t.Errorf("metric %s missing from result", name)
		}
	}
	if result.Metrics["iae"] <= 0 {
		t.Error("IAE should be positive for a setpoint step")
	}
}

func TestRunAppliesModeSwitches(t *testing.T) {
	cfg := testConfig()
	cfg.Steps = nil
	cfg.Modes = []ModeSwitch{{At: 5.0, Automatic: false, ManualOutput: 80.0}}

	s, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("new scenario: %v", err)
	}

	result, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	last := result.MVs[len(result.MVs)-1]
	if last != 80.0 {
		t.Errorf("final MV %f, want manual output 80", last)
	}
}

func TestRunCancelled(t *testing.T) {
	s, err := New(testConfig(), nil)
	if err != nil {
		t.Fatalf("new scenario: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := s.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(result.Times) != 1 {
		t.Errorf("recorded %d samples after immediate cancel, want the initial one", len(result.Times))
	}
}

func TestNewRejectsNonPositiveDuration(t *testing.T) {
	cfg := testConfig()
	cfg.Duration = 0

	if _, err := New(cfg, nil); !errors.Is(err, ErrNonPositiveDuration) {
		t.Errorf("err = %v, want ErrNonPositiveDuration", err)
	}
}

func TestNewRejectsBadLoopConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Loop.Dt = 0

	if _, err := New(cfg, nil); !errors.Is(err, loop.ErrNonPositiveTick) {
		t.Errorf("err = %v, want loop.ErrNonPositiveTick", err)
	}
}

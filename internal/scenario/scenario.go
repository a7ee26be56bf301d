// Package scenario runs a configured loop for a fixed duration, applying
// scheduled setpoint steps and collecting trend data plus metrics.
package scenario

import (
	"context"
	"errors"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/avolkov/looplab/internal/loop"
	"github.com/avolkov/looplab/internal/metrics"
)

// ErrNonPositiveDuration is returned when a scenario is configured with a
// duration of zero or less.
var ErrNonPositiveDuration = errors.New("scenario: duration must be positive")

// Step schedules a setpoint change at a simulation time.
type Step struct {
	At       float64
	Setpoint float64
}

// ModeSwitch schedules a controller mode change at a simulation time. For a
// switch to manual, ManualOutput is applied after the transition so the
// bumpless hand-off is followed by a deliberate output move.
type ModeSwitch struct {
	At           float64
	Automatic    bool
	ManualOutput float64
}

// Config describes one run.
type Config struct {
	Name     string
	Loop     loop.Config
	Duration float64
	Steps    []Step
	Modes    []ModeSwitch
}

// Result holds the trend recorded during a run.
type Result struct {
	Times     []float64
	Setpoints []float64
	PVs       []float64
	MVs       []float64
	Metrics   map[string]float64
}

// Scenario drives one loop through its schedule.
type Scenario struct {
	cfg     Config
	lp      *loop.Loop
	metrics []metrics.Metric
}

// New assembles the loop for cfg. A nil logger disables logging.
func New(cfg Config, log *logrus.Logger) (*Scenario, error) {
	if cfg.Duration <= 0 {
		return nil, ErrNonPositiveDuration
	}

	lp, err := loop.New(cfg.Loop, log)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(cfg.Steps, func(i, j int) bool { return cfg.Steps[i].At < cfg.Steps[j].At })
	sort.SliceStable(cfg.Modes, func(i, j int) bool { return cfg.Modes[i].At < cfg.Modes[j].At })

	return &Scenario{
		cfg:     cfg,
		lp:      lp,
		metrics: metrics.Defaults(),
	}, nil
}

// Loop exposes the underlying loop, mainly for the live view.
func (s *Scenario) Loop() *loop.Loop { return s.lp }

// AddMetric registers an extra metric evaluated during Run.
func (s *Scenario) AddMetric(m metrics.Metric) { s.metrics = append(s.metrics, m) }

// Run executes the schedule tick by tick. The context is checked every tick,
// so a cancelled run returns promptly with the data collected so far.
func (s *Scenario) Run(ctx context.Context) (*Result, error) {
	dt := s.lp.Dt()
	ticks := int(s.cfg.Duration / dt)

	result := &Result{
		Times:     make([]float64, 0, ticks+1),
		Setpoints: make([]float64, 0, ticks+1),
		PVs:       make([]float64, 0, ticks+1),
		MVs:       make([]float64, 0, ticks+1),
		Metrics:   make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	nextStep := 0
	nextMode := 0

	record := func(st loop.Status) {
		result.Times = append(result.Times, st.Time)
		result.Setpoints = append(result.Setpoints, st.Setpoint)
		result.PVs = append(result.PVs, st.PV)
		result.MVs = append(result.MVs, st.MV)
		for _, m := range s.metrics {
			m.Observe(st)
		}
	}

	record(s.lp.Status())

	for i := 0; i < ticks; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		t := s.lp.Time()

		for nextStep < len(s.cfg.Steps) && s.cfg.Steps[nextStep].At <= t {
			s.lp.SetSetpoint(s.cfg.Steps[nextStep].Setpoint)
			nextStep++
		}
		for nextMode < len(s.cfg.Modes) && s.cfg.Modes[nextMode].At <= t {
			mode := s.cfg.Modes[nextMode]
			s.lp.SetMode(mode.Automatic)
			if !mode.Automatic {
				s.lp.SetManualOutput(mode.ManualOutput)
			}
			nextMode++
		}

		if err := s.lp.Step(); err != nil {
			return result, err
		}

		record(s.lp.Status())
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

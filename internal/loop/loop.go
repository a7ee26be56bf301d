// Package loop ties one controller and one process into a closed loop,
// sequencing one tick as controller update, process update, bookkeeping.
package loop

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/avolkov/looplab/internal/control"
	"github.com/avolkov/looplab/internal/process"
)

// ErrNonPositiveTick is returned for a loop configured with dt <= 0.
var ErrNonPositiveTick = errors.New("loop: tick duration must be positive")

const (
	DefaultDt     = 0.1
	DefaultSpeed  = 1.0
	DefaultSteady = 50.0
)

// Config carries everything needed to assemble a loop at a steady operating
// point.
type Config struct {
	Dt     float64
	Speed  float64
	Steady float64

	Kp, Ki, Kd float64
	Algorithm  control.Algorithm
	OutMin     float64
	OutMax     float64
	AntiWindup bool

	Gain         float64
	TimeConstant float64
	DeadTime     float64
	Disturbance  float64

	SetpointTracking bool
	Seed             int64
}

// DefaultConfig returns a loop at 50% of a 0..100 range with the default
// controller and process constants.
func DefaultConfig() Config {
	return Config{
		Dt:           DefaultDt,
		Speed:        DefaultSpeed,
		Steady:       DefaultSteady,
		Kp:           control.DefaultKp,
		Ki:           control.DefaultKi,
		Kd:           control.DefaultKd,
		OutMin:       control.DefaultOutputMin,
		OutMax:       control.DefaultOutputMax,
		AntiWindup:   true,
		Gain:         process.DefaultGain,
		TimeConstant: process.DefaultTimeConstant,
		DeadTime:     process.DefaultDeadTime,
	}
}

// Loop owns one controller and one process exclusively and drives them one
// logical tick at a time. Ticks are short synchronous call chains; a host
// scheduler decides when (and whether) the next tick happens.
type Loop struct {
	ctrl *control.PID
	proc *process.FOPTD
	log  *logrus.Logger

	dt       float64
	speed    float64
	elapsed  float64
	ticks    int64
	tracking bool
}

// Status is a consistent snapshot of the loop for display and metrics.
type Status struct {
	Time        float64
	Ticks       int64
	Setpoint    float64
	PV          float64
	MV          float64
	Error       float64
	IntegralSum float64
	Automatic   bool
}

// New assembles a loop from cfg and brings it to the configured steady
// operating point. A nil logger disables logging.
func New(cfg Config, log *logrus.Logger) (*Loop, error) {
	if cfg.Dt <= 0 {
		return nil, ErrNonPositiveTick
	}
	if cfg.Speed <= 0 {
		cfg.Speed = DefaultSpeed
	}
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.ErrorLevel)
	}

	ctrl, err := control.New(cfg.Kp, cfg.Ki, cfg.Kd)
	if err != nil {
		return nil, err
	}
	if err := ctrl.SetOutputLimits(cfg.OutMin, cfg.OutMax); err != nil {
		return nil, err
	}
	ctrl.SetAlgorithm(cfg.Algorithm)
	ctrl.SetAntiWindup(cfg.AntiWindup)

	proc := process.NewFOPTD(cfg.Seed)
	if err := proc.SetTick(cfg.Dt); err != nil {
		return nil, err
	}
	proc.SetGain(cfg.Gain)
	proc.SetTimeConstant(cfg.TimeConstant)
	proc.SetDeadTime(cfg.DeadTime)
	proc.SetDisturbance(cfg.Disturbance)

	l := &Loop{
		ctrl:     ctrl,
		proc:     proc,
		log:      log,
		dt:       cfg.Dt,
		speed:    cfg.Speed,
		tracking: cfg.SetpointTracking,
	}
	l.Initialize(cfg.Steady)
	return l, nil
}

// Initialize brings the loop to a steady operating point with
// SP = PV = MV = steady. The ordering matters: the process is placed at the
// operating point and seeded first, then the controller is told the steady
// output and measurement, and only then is its integral term derived from
// them. Seeding the controller before the process produces a one-tick bump.
func (l *Loop) Initialize(steady float64) {
	l.proc.Initialize(steady, steady)

	l.ctrl.Preload(steady, steady)
	l.ctrl.SetSetpoint(steady)
	l.ctrl.Initialize()

	l.elapsed = 0
	l.ticks = 0

	l.log.WithFields(logrus.Fields{"steady": steady}).Debug("loop initialized")
}

// Step advances the loop by one tick: setpoint tracking (manual mode only),
// controller update, process update, time bookkeeping. A failed controller
// update aborts the tick without committing any state.
func (l *Loop) Step() error {
	pv := l.proc.Output()

	if l.tracking && !l.ctrl.Automatic() {
		l.ctrl.SetSetpoint(pv)
	}

	mv, err := l.ctrl.Update(pv, l.dt)
	if err != nil {
		return err
	}

	l.proc.SetInput(mv)
	l.proc.Update()

	l.elapsed += l.dt * l.speed
	l.ticks++
	return nil
}

// Reset clears the time-dependent state (integral seed, dead-time history,
// elapsed time) while preserving tuning, process constants and the current
// operating point. The loop keeps responding to output changes immediately
// after a reset; it never zeroes MV or PV.
func (l *Loop) Reset() {
	u := l.proc.Input()
	y := l.proc.Output()
	l.proc.Initialize(u, y)
	l.ctrl.Reset()

	l.elapsed = 0
	l.ticks = 0

	l.log.WithFields(logrus.Fields{"pv": y, "mv": u}).Info("loop reset")
}

// SetMode switches the controller between automatic and manual. The
// controller handles the bumpless automatic-to-manual hand-off itself; on
// the way back to automatic the controller is re-initialized so its integral
// term reproduces the present output.
func (l *Loop) SetMode(auto bool) {
	l.ctrl.SetMode(auto)
	if auto {
		l.ctrl.Initialize()
	}
	l.log.WithFields(logrus.Fields{"automatic": auto}).Info("mode switched")
}

// SetSetpointTracking controls whether, in manual mode, the setpoint follows
// the measurement so a later switch to automatic starts from zero error.
func (l *Loop) SetSetpointTracking(enabled bool) {
	l.tracking = enabled
}

// SetSpeed sets the simulation speed multiplier applied to elapsed-time
// bookkeeping, silently clamped to be positive.
func (l *Loop) SetSpeed(speed float64) {
	if speed <= 0 {
		speed = DefaultSpeed
	}
	l.speed = speed
}

// SetSetpoint forwards the target value to the controller.
func (l *Loop) SetSetpoint(sp float64) { l.ctrl.SetSetpoint(sp) }

// SetManualOutput forwards the manual output to the controller.
func (l *Loop) SetManualOutput(v float64) { l.ctrl.SetManualOutput(v) }

// SetTuning forwards new gains to the controller.
func (l *Loop) SetTuning(kp, ki, kd float64) error { return l.ctrl.SetTuning(kp, ki, kd) }

// SetAlgorithm forwards the formulation selection to the controller.
func (l *Loop) SetAlgorithm(a control.Algorithm) { l.ctrl.SetAlgorithm(a) }

// SetOutputLimits forwards the clamp range to the controller.
func (l *Loop) SetOutputLimits(min, max float64) error { return l.ctrl.SetOutputLimits(min, max) }

// SetProcessGain forwards the steady-state gain to the process.
func (l *Loop) SetProcessGain(k float64) { l.proc.SetGain(k) }

// SetTimeConstant forwards τ to the process (clamped there).
func (l *Loop) SetTimeConstant(tau float64) { l.proc.SetTimeConstant(tau) }

// SetDeadTime forwards Td to the process (clamped there); the dead-time
// history is rebuilt around the current input.
func (l *Loop) SetDeadTime(td float64) {
	l.proc.SetDeadTime(td)
	l.log.WithFields(logrus.Fields{"dead_time": l.proc.DeadTime()}).Debug("dead-time history rebuilt")
}

// SetDisturbance forwards the noise factor to the process (clamped there).
func (l *Loop) SetDisturbance(factor float64) { l.proc.SetDisturbance(factor) }

// Dt returns the logical tick duration.
func (l *Loop) Dt() float64 { return l.dt }

// Time returns the elapsed simulation time including the speed multiplier.
func (l *Loop) Time() float64 { return l.elapsed }

// Ticks returns the number of completed ticks.
func (l *Loop) Ticks() int64 { return l.ticks }

// Automatic reports the controller mode.
func (l *Loop) Automatic() bool { return l.ctrl.Automatic() }

// Algorithm returns the controller formulation.
func (l *Loop) Algorithm() control.Algorithm { return l.ctrl.Algorithm() }

// Tuning returns the controller gains.
func (l *Loop) Tuning() (kp, ki, kd float64) { return l.ctrl.Tuning() }

// Setpoint returns the current target value.
func (l *Loop) Setpoint() float64 { return l.ctrl.Setpoint() }

// PV returns the current process output.
func (l *Loop) PV() float64 { return l.proc.Output() }

// MV returns the last controller output.
func (l *Loop) MV() float64 { return l.ctrl.Output() }

// Status returns a snapshot for display and metrics.
func (l *Loop) Status() Status {
	return Status{
		Time:        l.elapsed,
		Ticks:       l.ticks,
		Setpoint:    l.ctrl.Setpoint(),
		PV:          l.proc.Output(),
		MV:          l.ctrl.Output(),
		Error:       l.ctrl.Error(),
		IntegralSum: l.ctrl.IntegralSum(),
		Automatic:   l.ctrl.Automatic(),
	}
}

package control

import (
	"math"
	"sync"
	"time"
)

const (
	DefaultKp = 1.0
	DefaultKi = 0.1
	DefaultKd = 0.05

	DefaultOutputMin = 0.0
	DefaultOutputMax = 100.0

	// epsGain is the floor used wherever a gain appears in a denominator.
	// Ki below this is treated as a pure P/PD controller.
	epsGain = 1e-9
)

// PID is a three-algorithm feedback controller with output clamping,
// integral anti-windup and bumpless automatic/manual transfer.
//
// All methods are safe for concurrent use; a display thread may read state
// while a timer thread drives Update.
type PID struct {
	mu sync.Mutex

	kp, ki, kd float64
	algorithm  Algorithm
	antiWindup bool

	setpoint float64
	pv       float64
	output   float64
	manual   float64
	auto     bool

	outMin, outMax float64
	intMin, intMax float64

	integral float64
	prevErr  float64
	prevPV   float64

	// lastUpdate is diagnostic only; control decisions never read the clock.
	lastUpdate time.Time
}

// New creates an automatic-mode controller with the given gains, default
// output limits [0, 100], anti-windup enabled and the basic algorithm.
func New(kp, ki, kd float64) (*PID, error) {
	if kp < 0 || ki < 0 || kd < 0 {
		return nil, ErrNegativeGain
	}
	c := &PID{
		kp:         kp,
		ki:         ki,
		kd:         kd,
		auto:       true,
		antiWindup: true,
		outMin:     DefaultOutputMin,
		outMax:     DefaultOutputMax,
	}
	c.updateIntegralLimits()
	return c, nil
}

// Update computes the controller output for the given measurement. In manual
// mode the manual output is returned (clamped) and no accumulation state
// advances. dt <= 0 is rejected; the failed call leaves state untouched and
// returns the previous output alongside the error.
func (c *PID) Update(pv, dt float64) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if dt <= 0 {
		return c.output, ErrNonPositiveDt
	}

	c.pv = pv
	c.lastUpdate = time.Now()

	if !c.auto {
		c.output = clamp(c.manual, c.outMin, c.outMax)
		return c.output, nil
	}

	err := c.setpoint - pv

	c.integral += err * dt
	if c.antiWindup {
		c.integral = clamp(c.integral, c.intMin, c.intMax)
	}

	var p, d float64
	i := c.ki * c.integral

	switch c.algorithm {
	case PI_D:
		// Derivative on measurement: no kick on setpoint steps.
		p = c.kp * err
		d = -c.kd * (pv - c.prevPV) / dt
	case I_PD:
		// Proportional and derivative on measurement change: only the
		// integral responds directly to a setpoint step.
		p = -c.kp * (pv - c.prevPV)
		d = -c.kd * (pv - c.prevPV) / dt
	default:
		p = c.kp * err
		d = c.kd * (err - c.prevErr) / dt
	}

	c.output = clamp(p+i+d, c.outMin, c.outMax)
	c.prevErr = err
	c.prevPV = pv

	return c.output, nil
}

// Initialize establishes a steady operating point: differencing state is
// reset against the current measurement and, in automatic mode with a
// non-negligible Ki, the integral term is pre-loaded so the next Update with
// zero error reproduces the current output exactly.
func (c *PID) Initialize() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.prevErr = 0
	c.prevPV = c.pv

	if c.auto && math.Abs(c.ki) > epsGain {
		c.integral = c.output / c.ki
		if c.antiWindup {
			c.integral = clamp(c.integral, c.intMin, c.intMax)
		}
	} else {
		c.integral = 0
	}
}

// Reset re-seeds the accumulation state exactly as Initialize does. The last
// output and measurement are preserved so downstream consumers see no
// discontinuity; keeping the whole loop responsive across a reset is the
// orchestrator's contract.
func (c *PID) Reset() {
	c.Initialize()
}

// Preload sets the controller's notion of its current output and measurement
// without running the algorithm. It is the seeding hook used when the loop
// establishes a steady operating point before calling Initialize.
func (c *PID) Preload(output, pv float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.output = clamp(output, c.outMin, c.outMax)
	c.manual = c.output
	c.pv = pv
}

// SetMode switches between automatic (true) and manual (false). On the
// transition to manual the manual output is synchronized to the last
// computed output, so the switch itself never steps the output.
func (c *PID) SetMode(auto bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.auto && !auto {
		c.manual = c.output
	}
	c.auto = auto
}

// SetManualOutput sets the output applied while in manual mode, silently
// clamped to the output limits.
func (c *PID) SetManualOutput(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.manual = clamp(v, c.outMin, c.outMax)
}

// SetTuning replaces the three gains. Negative gains are rejected and the
// previous tuning stays in effect. Integral limits follow the new Ki.
func (c *PID) SetTuning(kp, ki, kd float64) error {
	if kp < 0 || ki < 0 || kd < 0 {
		return ErrNegativeGain
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.kp, c.ki, c.kd = kp, ki, kd
	c.updateIntegralLimits()
	return nil
}

// SetOutputLimits replaces the output clamp range. min >= max is rejected
// and the previous limits stay in effect. The integral limits are recomputed
// to match and the accumulated integral is re-clamped.
func (c *PID) SetOutputLimits(min, max float64) error {
	if min >= max {
		return ErrInvalidLimits
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.outMin, c.outMax = min, max
	c.output = clamp(c.output, min, max)
	c.manual = clamp(c.manual, min, max)
	c.updateIntegralLimits()
	return nil
}

// SetAlgorithm selects the PID formulation applied on the next Update.
func (c *PID) SetAlgorithm(a Algorithm) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.algorithm = a
}

// SetAntiWindup enables or disables integral clamping. Enabling it clamps
// the accumulated integral immediately.
func (c *PID) SetAntiWindup(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.antiWindup = enabled
	if enabled {
		c.integral = clamp(c.integral, c.intMin, c.intMax)
	}
}

// SetSetpoint sets the target value for the controlled variable.
func (c *PID) SetSetpoint(sp float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setpoint = sp
}

// updateIntegralLimits derives the integral clamp range from the output
// limits so that Ki * integral stays within them. Callers hold c.mu.
func (c *PID) updateIntegralLimits() {
	denom := math.Abs(c.ki)
	if denom < epsGain {
		denom = epsGain
	}
	c.intMin = c.outMin / denom
	c.intMax = c.outMax / denom

	if c.antiWindup {
		c.integral = clamp(c.integral, c.intMin, c.intMax)
	}
}

// Setpoint returns the current target value.
func (c *PID) Setpoint() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setpoint
}

// PV returns the measurement seen on the last Update or Preload.
func (c *PID) PV() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pv
}

// Output returns the last computed output.
func (c *PID) Output() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.output
}

// Error returns setpoint minus measurement.
func (c *PID) Error() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setpoint - c.pv
}

// IntegralSum returns the accumulated integral term, for diagnostics.
func (c *PID) IntegralSum() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.integral
}

// Automatic reports whether the controller is in automatic mode.
func (c *PID) Automatic() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.auto
}

// ManualOutput returns the output applied in manual mode.
func (c *PID) ManualOutput() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.manual
}

// Tuning returns the current gains.
func (c *PID) Tuning() (kp, ki, kd float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kp, c.ki, c.kd
}

// OutputLimits returns the output clamp range.
func (c *PID) OutputLimits() (min, max float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outMin, c.outMax
}

// Algorithm returns the selected formulation.
func (c *PID) Algorithm() Algorithm {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.algorithm
}

// AntiWindup reports whether integral clamping is enabled.
func (c *PID) AntiWindup() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.antiWindup
}

// LastUpdate returns the wall-clock time of the last Update call, for
// diagnostics only.
func (c *PID) LastUpdate() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastUpdate
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

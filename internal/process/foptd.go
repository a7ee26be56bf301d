package process

import (
	"errors"
	"math/rand"
	"sync"
)

const (
	DefaultGain         = 1.0
	DefaultTimeConstant = 10.0
	DefaultDeadTime     = 0.0
	DefaultTick         = 0.1

	// MinTimeConstant keeps the Euler step well-conditioned; a process faster
	// than this is treated as this fast.
	MinTimeConstant = 0.1
)

// ErrNonPositiveTick is returned when a tick duration of zero or less is
// requested. The previous tick duration stays in effect.
var ErrNonPositiveTick = errors.New("process: tick duration must be positive")

// FOPTD simulates a first-order-plus-dead-time process,
// K·e^(−Td·s)/(τ·s+1), advanced one Euler step per Update. An optional
// disturbance adds bipolar uniform noise directly to the output: it models
// sensor/environment noise, so it deliberately bypasses the lag.
//
// All methods are safe for concurrent use; a display thread may read state
// while a timer thread drives Update.
type FOPTD struct {
	mu sync.Mutex

	gain         float64
	timeConstant float64
	deadTime     float64
	tick         float64
	disturbance  float64 // percent of full scale, 0..100

	input   float64
	output  float64
	elapsed float64

	delay *DelayLine
	rng   *rand.Rand
}

// NewFOPTD creates a process with default constants. The seed drives the
// disturbance source only; a fixed seed gives reproducible runs.
func NewFOPTD(seed int64) *FOPTD {
	p := &FOPTD{
		gain:         DefaultGain,
		timeConstant: DefaultTimeConstant,
		deadTime:     DefaultDeadTime,
		tick:         DefaultTick,
		rng:          rand.New(rand.NewSource(seed)),
	}
	p.delay = NewDelayLine(p.deadTime, p.tick)
	p.delay.Fill(0, p.input)
	return p
}

// Initialize sets the operating point directly, bypassing the lag, and
// re-seeds the dead-time history with the initial input so the delayed input
// equals the present input at t=0.
func (p *FOPTD) Initialize(initialInput, initialOutput float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.input = initialInput
	p.output = initialOutput
	p.elapsed = 0
	p.delay.Fill(0, initialInput)
}

// Update advances the process by one tick: it resolves the input from
// deadTime seconds ago, integrates one Euler step toward the corresponding
// steady state, applies disturbance noise, and records the present input for
// future ticks.
func (p *FOPTD) Update() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.elapsed += p.tick

	delayed := p.delay.ValueAt(p.elapsed-p.deadTime, p.input)
	target := p.gain * delayed
	p.output += p.tick * (target - p.output) / p.timeConstant

	if p.disturbance > 0 {
		amplitude := p.disturbance / 100 * p.rng.Float64()
		if p.rng.Intn(2) == 0 {
			amplitude = -amplitude
		}
		p.output += amplitude
	}

	p.delay.Push(p.elapsed, p.input)
}

// Reset clears the dead-time history and re-seeds it with the current input.
// Input and output are untouched, preserving the operating point.
func (p *FOPTD) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delay.Fill(p.elapsed, p.input)
}

// SetInput sets the manipulated input driving the process.
func (p *FOPTD) SetInput(u float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.input = u
}

// SetGain sets the steady-state process gain.
func (p *FOPTD) SetGain(k float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gain = k
}

// SetTimeConstant sets τ, silently clamped to MinTimeConstant.
func (p *FOPTD) SetTimeConstant(tau float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if tau < MinTimeConstant {
		tau = MinTimeConstant
	}
	p.timeConstant = tau
}

// SetDeadTime sets Td, silently clamped to zero. Changing the dead time
// invalidates the history, so the delay line is rebuilt seeded with the
// current input; the process never sees a stale zero-valued history.
func (p *FOPTD) SetDeadTime(td float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if td < 0 {
		td = 0
	}
	p.deadTime = td
	p.rebuildDelay()
}

// SetTick sets the tick duration. A non-positive value is rejected and the
// previous duration stays in effect. A successful change rebuilds the delay
// line, as the retained horizon depends on the tick.
func (p *FOPTD) SetTick(dt float64) error {
	if dt <= 0 {
		return ErrNonPositiveTick
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tick = dt
	p.rebuildDelay()
	return nil
}

// SetDisturbance sets the noise factor in percent, silently clamped to
// [0, 100].
func (p *FOPTD) SetDisturbance(factor float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if factor < 0 {
		factor = 0
	}
	if factor > 100 {
		factor = 100
	}
	p.disturbance = factor
}

func (p *FOPTD) rebuildDelay() {
	p.delay = NewDelayLine(p.deadTime, p.tick)
	p.delay.Fill(p.elapsed, p.input)
}

// Input returns the current process input.
func (p *FOPTD) Input() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.input
}

// Output returns the current process output.
func (p *FOPTD) Output() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.output
}

// Gain returns the steady-state gain.
func (p *FOPTD) Gain() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gain
}

// TimeConstant returns τ after clamping.
func (p *FOPTD) TimeConstant() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.timeConstant
}

// DeadTime returns Td after clamping.
func (p *FOPTD) DeadTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.deadTime
}

// Tick returns the tick duration.
func (p *FOPTD) Tick() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tick
}

// Disturbance returns the noise factor in percent.
func (p *FOPTD) Disturbance() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.disturbance
}

package process

import "math"

// timeEps absorbs floating-point drift when comparing sample timestamps
// against a delay target accumulated over many ticks.
const timeEps = 1e-9

type delaySample struct {
	t float64
	v float64
}

// DelayLine retains enough history of a scalar signal to recover the value
// from a fixed horizon in the past. Samples older than the horizon plus one
// tick are purged after each push, so memory stays bounded.
type DelayLine struct {
	horizon float64
	tick    float64
	samples []delaySample
}

// NewDelayLine creates a delay line for the given horizon and tick duration.
// Capacity is derived as ceil(horizon/tick)+1 so a value exactly horizon
// seconds old is always recoverable.
func NewDelayLine(horizon, tick float64) *DelayLine {
	n := delayDepth(horizon, tick)
	return &DelayLine{
		horizon: horizon,
		tick:    tick,
		samples: make([]delaySample, 0, n),
	}
}

func delayDepth(horizon, tick float64) int {
	if horizon <= 0 || tick <= 0 {
		return 1
	}
	return int(math.Ceil(horizon/tick)) + 1
}

// Fill discards all history and re-seeds the line with v replicated across
// the whole horizon, ending at time now. A line filled this way answers
// ValueAt with v for any target in [now-horizon, now], which is what a
// bump-free start requires.
func (d *DelayLine) Fill(now, v float64) {
	n := delayDepth(d.horizon, d.tick)
	d.samples = d.samples[:0]
	for i := n - 1; i >= 0; i-- {
		d.samples = append(d.samples, delaySample{t: now - float64(i)*d.tick, v: v})
	}
}

// Push appends a sample and purges entries older than horizon + one tick.
func (d *DelayLine) Push(t, v float64) {
	d.samples = append(d.samples, delaySample{t: t, v: v})

	cutoff := t - d.horizon - d.tick
	for len(d.samples) > 1 && d.samples[0].t < cutoff-timeEps {
		d.samples = d.samples[1:]
	}
}

// ValueAt returns the most recent sample with timestamp <= target. If the
// line is empty, the horizon is zero, or no sample is old enough, fallback
// (the present input) is returned instead.
func (d *DelayLine) ValueAt(target, fallback float64) float64 {
	if d.horizon <= 0 || len(d.samples) == 0 {
		return fallback
	}
	for i := len(d.samples) - 1; i >= 0; i-- {
		if d.samples[i].t <= target+timeEps {
			return d.samples[i].v
		}
	}
	return fallback
}

// Len reports the number of retained samples.
func (d *DelayLine) Len() int { return len(d.samples) }

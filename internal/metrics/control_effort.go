package metrics

import (
	"math"

	"github.com/avolkov/looplab/internal/loop"
)

// ControlEffort reports the mean absolute change in controller output per
// tick, a proxy for actuator wear.
type ControlEffort struct {
	sum     float64
	prevMV  float64
	samples int
	first   bool
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{first: true}
}

func (c *ControlEffort) Name() string { return "control_effort" }

func (c *ControlEffort) Observe(s loop.Status) {
	if c.first {
		c.prevMV = s.MV
		c.first = false
		return
	}
	c.sum += math.Abs(s.MV - c.prevMV)
	c.prevMV = s.MV
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.prevMV = 0
	c.samples = 0
	c.first = true
}

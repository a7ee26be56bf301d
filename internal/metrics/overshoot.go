package metrics

import (
	"math"

	"github.com/avolkov/looplab/internal/loop"
)

// spanEps below this the setpoint step is considered degenerate and the
// metric reports zero rather than dividing by it.
const spanEps = 1e-9

// Overshoot reports the peak excursion of the measurement beyond the
// setpoint, as a percentage of the most recent setpoint step span.
type Overshoot struct {
	setpoint float64
	base     float64
	peak     float64
	first    bool
}

func NewOvershoot() *Overshoot {
	return &Overshoot{first: true}
}

func (m *Overshoot) Name() string { return "overshoot_pct" }

func (m *Overshoot) Observe(s loop.Status) {
	if m.first || s.Setpoint != m.setpoint {
		m.setpoint = s.Setpoint
		m.base = s.PV
		m.peak = 0
		m.first = false
		return
	}

	span := m.setpoint - m.base
	var over float64
	if span >= 0 {
		over = s.PV - m.setpoint
	} else {
		over = m.setpoint - s.PV
	}
	if over > m.peak {
		m.peak = over
	}
}

func (m *Overshoot) Value() float64 {
	span := math.Abs(m.setpoint - m.base)
	if span < spanEps {
		return 0
	}
	return m.peak / span * 100
}

func (m *Overshoot) Reset() {
	m.setpoint = 0
	m.base = 0
	m.peak = 0
	m.first = true
}

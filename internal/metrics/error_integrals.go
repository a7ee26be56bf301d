package metrics

import (
	"math"

	"github.com/avolkov/looplab/internal/loop"
)

// IAE accumulates the integral of absolute error over simulation time.
type IAE struct {
	sum   float64
	prevT float64
	first bool
}

func NewIAE() *IAE {
	return &IAE{first: true}
}

func (m *IAE) Name() string { return "iae" }

func (m *IAE) Observe(s loop.Status) {
	if m.first {
		m.prevT = s.Time
		m.first = false
		return
	}
	dt := s.Time - m.prevT
	if dt > 0 {
		m.sum += math.Abs(s.Error) * dt
	}
	m.prevT = s.Time
}

func (m *IAE) Value() float64 { return m.sum }

func (m *IAE) Reset() {
	m.sum = 0
	m.first = true
}

// ISE accumulates the integral of squared error over simulation time.
type ISE struct {
	sum   float64
	prevT float64
	first bool
}

func NewISE() *ISE {
	return &ISE{first: true}
}

func (m *ISE) Name() string { return "ise" }

func (m *ISE) Observe(s loop.Status) {
	if m.first {
		m.prevT = s.Time
		m.first = false
		return
	}
	dt := s.Time - m.prevT
	if dt > 0 {
		m.sum += s.Error * s.Error * dt
	}
	m.prevT = s.Time
}

func (m *ISE) Value() float64 { return m.sum }

func (m *ISE) Reset() {
	m.sum = 0
	m.first = true
}

package metrics

import (
	"math"

	"github.com/avolkov/looplab/internal/loop"
)

// SettlingTime reports how long after the last setpoint change the
// measurement took to enter, and stay within, a band around the setpoint.
// The band is a fraction of the step span. If the measurement never settles,
// the whole observed window since the change is reported.
type SettlingTime struct {
	band float64 // fraction of the step span, e.g. 0.02

	setpoint  float64
	base      float64
	changedAt float64
	enteredAt float64
	inBand    bool
	lastT     float64
	first     bool
}

func NewSettlingTime(band float64) *SettlingTime {
	return &SettlingTime{band: band, first: true}
}

func (m *SettlingTime) Name() string { return "settling_time" }

func (m *SettlingTime) Observe(s loop.Status) {
	if m.first || s.Setpoint != m.setpoint {
		m.setpoint = s.Setpoint
		m.base = s.PV
		m.changedAt = s.Time
		m.inBand = false
		m.first = false
		m.lastT = s.Time
		return
	}

	halfBand := m.band * math.Abs(m.setpoint-m.base)
	if halfBand < spanEps {
		halfBand = spanEps
	}

	if math.Abs(s.PV-m.setpoint) <= halfBand {
		if !m.inBand {
			m.inBand = true
			m.enteredAt = s.Time
		}
	} else {
		m.inBand = false
	}
	m.lastT = s.Time
}

func (m *SettlingTime) Value() float64 {
	if m.inBand {
		return m.enteredAt - m.changedAt
	}
	return m.lastT - m.changedAt
}

func (m *SettlingTime) Reset() {
	m.setpoint = 0
	m.base = 0
	m.changedAt = 0
	m.enteredAt = 0
	m.inBand = false
	m.lastT = 0
	m.first = true
}

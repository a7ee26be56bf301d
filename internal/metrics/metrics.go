// Package metrics computes loop performance indicators from per-tick
// snapshots: integrated error, overshoot, settling time and control effort.
package metrics

import "github.com/avolkov/looplab/internal/loop"

// Metric observes one loop snapshot per tick and reduces the run to a single
// number.
type Metric interface {
	Name() string
	Observe(s loop.Status)
	Value() float64
	Reset()
}

// Defaults returns the standard set evaluated for every scenario run.
func Defaults() []Metric {
	return []Metric{
		NewIAE(),
		NewISE(),
		NewOvershoot(),
		NewSettlingTime(0.02),
		NewControlEffort(),
	}
}

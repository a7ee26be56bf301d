package control

import "fmt"

// Algorithm selects which PID formulation Update applies.
type Algorithm int

const (
	// BasicPID acts on error with all three terms. A setpoint step produces
	// both a proportional and a derivative kick.
	BasicPID Algorithm = iota

	// PI_D acts on error with the proportional and integral terms; the
	// derivative acts on the measurement, eliminating derivative kick.
	PI_D

	// I_PD acts on error with the integral term only; proportional and
	// derivative act on the measurement change, eliminating both kicks.
	I_PD
)

func (a Algorithm) String() string {
	switch a {
	case BasicPID:
		return "basic"
	case PI_D:
		return "pi-d"
	case I_PD:
		return "i-pd"
	default:
		return fmt.Sprintf("algorithm(%d)", int(a))
	}
}

// ParseAlgorithm maps the config/CLI name of an algorithm to its value.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch name {
	case "basic", "pid":
		return BasicPID, nil
	case "pi-d", "pid-d":
		return PI_D, nil
	case "i-pd", "ipd":
		return I_PD, nil
	default:
		return BasicPID, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}
}

// Algorithms lists the selectable formulations in display order.
func Algorithms() []Algorithm {
	return []Algorithm{BasicPID, PI_D, I_PD}
}

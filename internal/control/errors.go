package control

import "errors"

// Validation errors. A call that returns one of these leaves controller
// state unchanged.
var (
	// ErrNonPositiveDt indicates Update was called with dt <= 0.
	ErrNonPositiveDt = errors.New("control: dt must be positive")

	// ErrNegativeGain indicates a tuning call with a negative gain.
	ErrNegativeGain = errors.New("control: gains must be non-negative")

	// ErrInvalidLimits indicates output limits with min >= max.
	ErrInvalidLimits = errors.New("control: output limits inverted")

	// ErrUnknownAlgorithm indicates an unrecognized algorithm name.
	ErrUnknownAlgorithm = errors.New("control: unknown algorithm")
)

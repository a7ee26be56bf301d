// Package process simulates the controlled plant: a first-order lag with
// pure transport delay (FOPTD) plus injected sensor noise.
//
//   - [FOPTD]: the process model, advanced one Euler step per Update
//   - [DelayLine]: bounded history implementing the dead time
//
// The model is parameterized by its physical constants (gain, time constant,
// dead time); only this one process shape is supported.
package process

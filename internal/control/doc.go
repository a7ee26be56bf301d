// Package control implements the feedback controller of the simulated loop.
//
// [PID] computes the manipulated output from setpoint and measurement using
// one of three formulations:
//
//   - [BasicPID]: all terms act on error
//   - [PI_D]: derivative acts on measurement (no derivative kick)
//   - [I_PD]: proportional and derivative act on measurement (no kicks)
//
// # Usage
//
//	c, _ := control.New(1.0, 0.1, 0.05) // Kp, Ki, Kd
//	c.SetSetpoint(50)
//	mv, err := c.Update(pv, dt)
//
// The controller clamps its output to configured limits and, with
// anti-windup enabled, bounds the integral term so Ki times the accumulated
// integral never exceeds those limits on its own.
package control

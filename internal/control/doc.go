// Package control provides the low-level waypoint controllers that drive an
// agent's [vehicle.Car] in the kinematic world modes.
//
// Controllers implement [Controller] and map the car's current pose and a
// target waypoint to a (linear, angular) velocity command:
//
//   - [Simple]: proportional steering toward the waypoint
//   - [PID]: distance and heading loops built on the scalar [Loop]
//   - [MPC]: receding-horizon search over a grid of candidate commands
//   - [None]: zero command
//
// # Usage
//
//	ctrl, _ := control.New("simple", 4)
//	for i := 0; i < ctrl.Horizon(); i++ {
//		v, w := ctrl.Compute(car, target, dt/float64(ctrl.Horizon()))
//		car.SetVelocity(v, w)
//		car.Update(dt / float64(ctrl.Horizon()))
//	}
//
// Controllers implementing [Tunable] accept named gains through [Tune]; the
// scenario config passes them as scenario.gains.
package control

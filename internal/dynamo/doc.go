// Package dynamo provides the numeric primitives shared by the world simulation,
// the vehicle models and the EDI dataset builder.
//
// The package defines the fundamental interfaces and types:
//
//   - [State]: flattened state vector (world snapshots, vehicle poses)
//   - [Control]: flattened control vector
//   - [System]: ODE contract (dX/dt = f(X, u, t)) integrated by an [Integrator]
//   - [Metric]: per-step observer that reduces a run to a scalar
//
// # Example
//
//	car := vehicle.NewCar(0, 0, 0)
//	car.SetVelocity(0.5, 0.1)
//	car.Update(0.05) // integrates car.Derive with RK4
//
// # Thread Safety
//
// Nothing in this package holds shared mutable state. [ParallelFor] is the one
// helper that spawns goroutines; callers must write to disjoint indices.
package dynamo

// Package dynamo provides the simulation loop used to roll robot arms
// forward in time.
//
//   - [State]: system state, [θ; θ̇] for an arm
//   - [System]: continuous dynamics dx/dt = f(x, u, t)
//   - [Integrator]: fixed-step numerical integrator
//   - [Controller]: feedback law sampled once per control period
//   - [Simulator]: orchestrates a run and collects a [Result]
//
// # Example
//
//	arm := dynamics.NewArm(chain, []float64{0, 0, -9.8})
//	sim := dynamo.New(arm, integrators.NewEuler(), tracker)
//	result, err := sim.Run(ctx, x0, dynamo.DefaultConfig())
//
// # Thread Safety
//
// Simulator instances are NOT thread-safe; use one per goroutine.
package dynamo

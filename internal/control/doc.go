// Package control provides joint-torque controllers for robot arms.
//
// Controllers implement the [dynamo.Controller] interface and compute
// torques from the arm state [θ; θ̇]:
//
//   - [Tracker]: computed-torque tracking of a joint reference
//   - [PD]: joint-space PD regulation with gravity compensation
//   - [None]: zero torque, the arm falls freely
//
// # Usage
//
//	ref := control.NewReference(thetas, dt)
//	tracker := control.NewTracker(model, gravity, ref, control.Gains{Kp: 20, Ki: 10, Kd: 18})
//	sim := dynamo.New(arm, integrators.NewEuler(), tracker)
//
// [SimulateControl] runs the same computed-torque loop without the simulator,
// with a plant that may differ from the controller's model.
//
// Controllers implementing [dynamo.Configurable] support live tuning.
package control

// Package kinematics computes forward kinematics, Jacobians and numerical
// inverse kinematics of open serial chains described by screw axes.
//
// A chain is given by its home end-effector configuration M and a 6 x n
// matrix whose columns are the joint screw axes, expressed either in the
// fixed space frame or in the end-effector body frame ([Frame]). Joint
// coordinates are plain []float64 values owned by the caller:
//
//	T := kinematics.FKinSpace(M, Slist, theta)
//	Js := kinematics.JacobianSpace(Slist, theta)
//	theta, ok := kinematics.IKinSpace(Slist, M, target, guess, 1e-3, 1e-4)
//
// Nothing in this package keeps state between calls, so a chain description
// may be shared by concurrent callers.
package kinematics

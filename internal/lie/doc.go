// Package lie implements the matrix Lie group operations used to describe
// rigid-body motion in the product-of-exponentials formulation.
//
// Rotations are 3x3 [mat.Dense] values in SO(3), transforms are 4x4
// homogeneous matrices in SE(3). Angular velocities, twists and wrenches are
// [mat.VecDense] values of length 3 or 6, ordered angular part first:
//
//   - [VecToso3], [So3ToVec]: 3-vectors and skew-symmetric matrices
//   - [MatrixExp3], [MatrixLog3]: exponential coordinates of rotations
//   - [MatrixExp6], [MatrixLog6]: exponential coordinates of transforms
//   - [Adjoint], [Bracket]: frame changes and Lie brackets of twists
//   - [ProjectToSO3], [DistanceToSE3] and friends: manifold repair and checks
//
// # Example
//
//	S := lie.ScrewToAxis(q, s, 0)
//	T := lie.MatrixExp6(lie.VecTose3(scaled(S, theta)))
//	back := lie.Se3ToVec(lie.MatrixLog6(T))
//
// All functions are pure. Inputs are never modified and every result is a
// freshly allocated matrix or vector.
package lie

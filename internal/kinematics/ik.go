package kinematics

import (
	"github.com/san-kum/modrob/internal/lie"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// MaxIKIterations bounds the number of Newton-Raphson updates.
const MaxIKIterations = 20

// pinvRcond is the relative singular value cutoff of the pseudo-inverse.
const pinvRcond = 1e-10

// IKinBody solves for joint coordinates placing the end-effector at T,
// starting from guess. It returns the last iterate and whether both the
// angular and linear error twist norms fell within eomg and ev.
// guess is not modified.
func IKinBody(Blist, M, T mat.Matrix, guess []float64, eomg, ev float64) ([]float64, bool) {
	theta := append([]float64(nil), guess...)
	Vb := bodyError(Blist, M, T, theta)
	for i := 0; i < MaxIKIterations && !withinTolerance(Vb, eomg, ev); i++ {
		floats.Add(theta, pinvSolve(JacobianBody(Blist, theta), Vb))
		Vb = bodyError(Blist, M, T, theta)
	}
	return theta, withinTolerance(Vb, eomg, ev)
}

// IKinSpace is IKinBody for space-frame screw axes; the error twist is
// expressed in the space frame.
func IKinSpace(Slist, M, T mat.Matrix, guess []float64, eomg, ev float64) ([]float64, bool) {
	theta := append([]float64(nil), guess...)
	Vs := spaceError(Slist, M, T, theta)
	for i := 0; i < MaxIKIterations && !withinTolerance(Vs, eomg, ev); i++ {
		floats.Add(theta, pinvSolve(JacobianSpace(Slist, theta), Vs))
		Vs = spaceError(Slist, M, T, theta)
	}
	return theta, withinTolerance(Vs, eomg, ev)
}

func InverseKinematics(frame Frame, axes, M, T mat.Matrix, guess []float64, eomg, ev float64) ([]float64, bool) {
	if frame == Body {
		return IKinBody(axes, M, T, guess, eomg, ev)
	}
	return IKinSpace(axes, M, T, guess, eomg, ev)
}

// bodyError returns log(FK(θ)⁻¹ T) as a body twist.
func bodyError(Blist, M, T mat.Matrix, theta []float64) *mat.VecDense {
	var diff mat.Dense
	diff.Mul(lie.TransInv(FKinBody(M, Blist, theta)), T)
	return lie.Se3ToVec(lie.MatrixLog6(&diff))
}

// spaceError returns the body error twist re-expressed in the space frame.
func spaceError(Slist, M, T mat.Matrix, theta []float64) *mat.VecDense {
	Tfk := FKinSpace(M, Slist, theta)
	var diff mat.Dense
	diff.Mul(lie.TransInv(Tfk), T)
	var Vs mat.VecDense
	Vs.MulVec(lie.Adjoint(Tfk), lie.Se3ToVec(lie.MatrixLog6(&diff)))
	return &Vs
}

func withinTolerance(V *mat.VecDense, eomg, ev float64) bool {
	v := V.RawVector().Data
	return floats.Norm(v[:3], 2) <= eomg && floats.Norm(v[3:6], 2) <= ev
}

// pinvSolve returns the minimum-norm least-squares solution of J x = V,
// discarding singular values below pinvRcond relative to the largest.
func pinvSolve(J mat.Matrix, V mat.Vector) []float64 {
	_, n := J.Dims()

	var svd mat.SVD
	if ok := svd.Factorize(J, mat.SVDThin); !ok {
		return make([]float64, n)
	}
	rank := svd.Rank(pinvRcond)
	if rank == 0 {
		return make([]float64, n)
	}
	var x mat.VecDense
	svd.SolveVecTo(&x, V, rank)
	return x.RawVector().Data
}

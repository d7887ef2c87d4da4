package kinematics

import (
	"math"

	"github.com/san-kum/modrob/internal/lie"
	"gonum.org/v1/gonum/mat"
)

// JacobianSpace returns the 6 x n space Jacobian. Column i is S_i mapped
// through the adjoint of e^[S1]θ1 ... e^[S(i-1)]θ(i-1); column 0 is S_1.
func JacobianSpace(Slist mat.Matrix, theta []float64) *mat.Dense {
	Js := mat.DenseCopyOf(Slist)
	T := lie.Identity(4)
	var col mat.VecDense
	for i := 1; i < len(theta); i++ {
		T.Mul(T, screwExp(Slist, i-1, theta[i-1]))
		col.MulVec(lie.Adjoint(T), mat.NewVecDense(6, mat.Col(nil, i, Slist)))
		Js.SetCol(i, col.RawVector().Data)
	}
	return Js
}

// JacobianBody returns the 6 x n body Jacobian. Column i is B_i mapped
// through the adjoint of e^-[Bn]θn ... e^-[B(i+1)]θ(i+1); the last column
// is B_n.
func JacobianBody(Blist mat.Matrix, theta []float64) *mat.Dense {
	Jb := mat.DenseCopyOf(Blist)
	T := lie.Identity(4)
	var col mat.VecDense
	for i := len(theta) - 2; i >= 0; i-- {
		T.Mul(T, screwExp(Blist, i+1, -theta[i+1]))
		col.MulVec(lie.Adjoint(T), mat.NewVecDense(6, mat.Col(nil, i, Blist)))
		Jb.SetCol(i, col.RawVector().Data)
	}
	return Jb
}

func Jacobian(frame Frame, axes mat.Matrix, theta []float64) *mat.Dense {
	if frame == Body {
		return JacobianBody(axes, theta)
	}
	return JacobianSpace(axes, theta)
}

// Manipulability returns the Yoshikawa measure of J, the product of its
// singular values, and its condition number. A singular Jacobian has
// measure 0 and condition number +Inf.
func Manipulability(J mat.Matrix) (measure, cond float64) {
	var svd mat.SVD
	if ok := svd.Factorize(J, mat.SVDNone); !ok {
		return 0, math.Inf(1)
	}
	measure = 1
	for _, s := range svd.Values(nil) {
		measure *= s
	}
	return measure, svd.Cond()
}

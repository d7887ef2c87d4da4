package lie

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// RpToTrans builds the homogeneous transform [[R, p], [0, 1]].
func RpToTrans(R mat.Matrix, p mat.Vector) *mat.Dense {
	T := mat.NewDense(4, 4, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			T.Set(i, j, R.At(i, j))
		}
		T.Set(i, 3, p.AtVec(i))
	}
	T.Set(3, 3, 1)
	return T
}

// TransToRp splits a homogeneous transform into its rotation and position.
func TransToRp(T mat.Matrix) (*mat.Dense, *mat.VecDense) {
	R := mat.NewDense(3, 3, nil)
	p := mat.NewVecDense(3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			R.Set(i, j, T.At(i, j))
		}
		p.SetVec(i, T.At(i, 3))
	}
	return R, p
}

// TransInv inverts a transform using the structure of SE(3): [[Rᵀ, -Rᵀp], [0, 1]].
func TransInv(T mat.Matrix) *mat.Dense {
	R, p := TransToRp(T)
	Rt := RotInv(R)
	var q mat.VecDense
	q.MulVec(Rt, p)
	q.ScaleVec(-1, &q)
	return RpToTrans(Rt, &q)
}

// VecTose3 converts a twist [ω; v] to its 4x4 matrix form [[ω̂, v], [0, 0]].
func VecTose3(V mat.Vector) *mat.Dense {
	w := VecToso3(mat.NewVecDense(3, []float64{V.AtVec(0), V.AtVec(1), V.AtVec(2)}))
	se3 := mat.NewDense(4, 4, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			se3.Set(i, j, w.At(i, j))
		}
		se3.Set(i, 3, V.AtVec(i+3))
	}
	return se3
}

func Se3ToVec(se3 mat.Matrix) *mat.VecDense {
	return mat.NewVecDense(6, []float64{
		se3.At(2, 1), se3.At(0, 2), se3.At(1, 0),
		se3.At(0, 3), se3.At(1, 3), se3.At(2, 3),
	})
}

// Adjoint returns the 6x6 adjoint representation [[R, 0], [p̂R, R]] of T.
func Adjoint(T mat.Matrix) *mat.Dense {
	R, p := TransToRp(T)
	var pR mat.Dense
	pR.Mul(VecToso3(p), R)

	ad := mat.NewDense(6, 6, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			ad.Set(i, j, R.At(i, j))
			ad.Set(i+3, j+3, R.At(i, j))
			ad.Set(i+3, j, pR.At(i, j))
		}
	}
	return ad
}

// Bracket returns the 6x6 matrix [adV] = [[ω̂, 0], [v̂, ω̂]], so that
// Bracket(V1)·V2 is the Lie bracket of the twists V1 and V2.
func Bracket(V mat.Vector) *mat.Dense {
	w := VecToso3(mat.NewVecDense(3, []float64{V.AtVec(0), V.AtVec(1), V.AtVec(2)}))
	v := VecToso3(mat.NewVecDense(3, []float64{V.AtVec(3), V.AtVec(4), V.AtVec(5)}))

	ad := mat.NewDense(6, 6, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			ad.Set(i, j, w.At(i, j))
			ad.Set(i+3, j+3, w.At(i, j))
			ad.Set(i+3, j, v.At(i, j))
		}
	}
	return ad
}

// ScrewToAxis returns the normalized screw axis through point q with unit
// direction s and pitch h.
func ScrewToAxis(q, s mat.Vector, h float64) *mat.VecDense {
	var qs mat.VecDense
	qs.MulVec(VecToso3(q), s)
	return mat.NewVecDense(6, []float64{
		s.AtVec(0), s.AtVec(1), s.AtVec(2),
		qs.AtVec(0) + h*s.AtVec(0),
		qs.AtVec(1) + h*s.AtVec(1),
		qs.AtVec(2) + h*s.AtVec(2),
	})
}

// AxisAng6 splits exponential coordinates Sθ into the screw axis S and the
// distance θ travelled along it. θ is the norm of the angular part, or of the
// linear part for a pure translation.
func AxisAng6(expc6 mat.Vector) (*mat.VecDense, float64) {
	theta := math.Sqrt(sq(expc6.AtVec(0)) + sq(expc6.AtVec(1)) + sq(expc6.AtVec(2)))
	if NearZero(theta) {
		theta = math.Sqrt(sq(expc6.AtVec(3)) + sq(expc6.AtVec(4)) + sq(expc6.AtVec(5)))
	}
	S := mat.VecDenseCopyOf(expc6)
	if theta != 0 {
		S.ScaleVec(1/theta, S)
	}
	return S, theta
}

func sq(x float64) float64 { return x * x }

// MatrixExp6 maps se3 = [S]θ to the transform exp([S]θ).
func MatrixExp6(se3 mat.Matrix) *mat.Dense {
	omgtheta, v := TransToRp(se3)
	theta := mat.Norm(So3ToVec(omgtheta), 2)
	if NearZero(theta) {
		return RpToTrans(Identity(3), v)
	}

	var omg, omg2, term mat.Dense
	omg.Scale(1/theta, omgtheta)
	omg2.Mul(&omg, &omg)

	// G(θ) = Iθ + (1-cosθ)[ω] + (θ-sinθ)[ω]²
	G := Identity(3)
	G.Scale(theta, G)
	term.Scale(1-math.Cos(theta), &omg)
	G.Add(G, &term)
	term.Scale(theta-math.Sin(theta), &omg2)
	G.Add(G, &term)

	var p mat.VecDense
	p.MulVec(G, v)
	p.ScaleVec(1/theta, &p)
	return RpToTrans(MatrixExp3(omgtheta), &p)
}

// MatrixLog6 returns the matrix logarithm [S]θ of a transform.
func MatrixLog6(T mat.Matrix) *mat.Dense {
	R, p := TransToRp(T)
	omgmat := MatrixLog3(R)

	se3 := mat.NewDense(4, 4, nil)
	if NearZero(mat.Norm(omgmat, 2)) {
		for i := 0; i < 3; i++ {
			se3.Set(i, 3, p.AtVec(i))
		}
		return se3
	}

	theta := mat.Norm(So3ToVec(omgmat), 2)

	// G⁻¹(θ)θ written in terms of [ω]θ: I - [ω]θ/2 + (1/θ - cot(θ/2)/2)[ω]²θ
	var omg2, term mat.Dense
	omg2.Mul(omgmat, omgmat)
	Ginv := Identity(3)
	term.Scale(0.5, omgmat)
	Ginv.Sub(Ginv, &term)
	term.Scale((1/theta-1/math.Tan(theta/2)/2)/theta, &omg2)
	Ginv.Add(Ginv, &term)

	var v mat.VecDense
	v.MulVec(Ginv, p)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			se3.Set(i, j, omgmat.At(i, j))
		}
		se3.Set(i, 3, v.AtVec(i))
	}
	return se3
}

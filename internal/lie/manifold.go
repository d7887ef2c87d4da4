package lie

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// ErrFactorize is returned when a matrix cannot be decomposed by SVD,
// typically because it contains NaN or Inf entries.
var ErrFactorize = errors.New("lie: singular value decomposition failed")

// ManifoldThreshold is the distance below which a matrix is accepted as a
// member of SO(3) or SE(3).
const ManifoldThreshold = 1e-3

// offManifold is reported as the distance of matrices with a non-positive
// determinant.
const offManifold = 1e9

// ProjectToSO3 returns the rotation closest to M in the Frobenius norm.
func ProjectToSO3(M mat.Matrix) (*mat.Dense, error) {
	var svd mat.SVD
	if ok := svd.Factorize(M, mat.SVDFull); !ok {
		return nil, ErrFactorize
	}
	var U, V mat.Dense
	svd.UTo(&U)
	svd.VTo(&V)

	R := mat.NewDense(3, 3, nil)
	R.Mul(&U, V.T())
	if mat.Det(R) < 0 {
		for i := 0; i < 3; i++ {
			R.Set(i, 2, -R.At(i, 2))
		}
	}
	return R, nil
}

// ProjectToSE3 projects the rotation block of M onto SO(3) and keeps its
// translation.
func ProjectToSE3(M mat.Matrix) (*mat.Dense, error) {
	R, p := TransToRp(M)
	Rp, err := ProjectToSO3(R)
	if err != nil {
		return nil, err
	}
	return RpToTrans(Rp, p), nil
}

// DistanceToSO3 returns ‖MᵀM - I‖ for matrices with positive determinant
// and a large constant otherwise.
func DistanceToSO3(M mat.Matrix) float64 {
	if mat.Det(M) <= 0 {
		return offManifold
	}
	var d mat.Dense
	d.Mul(M.T(), M)
	d.Sub(&d, Identity(3))
	return mat.Norm(&d, 2)
}

// DistanceToSE3 measures how far T is from SE(3), including its bottom row.
func DistanceToSE3(T mat.Matrix) float64 {
	R, _ := TransToRp(T)
	if mat.Det(R) <= 0 {
		return offManifold
	}
	var RtR mat.Dense
	RtR.Mul(R.T(), R)

	d := mat.NewDense(4, 4, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			d.Set(i, j, RtR.At(i, j))
		}
	}
	for j := 0; j < 4; j++ {
		d.Set(3, j, T.At(3, j))
	}
	d.Sub(d, Identity(4))
	return mat.Norm(d, 2)
}

// TestIfSO3 reports whether M is within ManifoldThreshold of SO(3).
func TestIfSO3(M mat.Matrix) bool {
	return DistanceToSO3(M) < ManifoldThreshold
}

// TestIfSE3 reports whether T is within ManifoldThreshold of SE(3).
func TestIfSE3(T mat.Matrix) bool {
	return DistanceToSE3(T) < ManifoldThreshold
}

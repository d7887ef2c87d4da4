package lie

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// ZeroTolerance is the magnitude below which a scalar is treated as zero.
const ZeroTolerance = 1e-6

func NearZero(v float64) bool {
	return math.Abs(v) < ZeroTolerance
}

// Identity returns a freshly allocated n x n identity matrix.
func Identity(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

// Normalize scales v to unit length. The zero vector is returned unchanged.
func Normalize(v mat.Vector) *mat.VecDense {
	out := mat.VecDenseCopyOf(v)
	n := mat.Norm(v, 2)
	if n == 0 {
		return out
	}
	out.ScaleVec(1/n, out)
	return out
}

func VecToso3(w mat.Vector) *mat.Dense {
	x, y, z := w.AtVec(0), w.AtVec(1), w.AtVec(2)
	return mat.NewDense(3, 3, []float64{
		0, -z, y,
		z, 0, -x,
		-y, x, 0,
	})
}

func So3ToVec(so3 mat.Matrix) *mat.VecDense {
	return mat.NewVecDense(3, []float64{so3.At(2, 1), so3.At(0, 2), so3.At(1, 0)})
}

// AxisAng3 splits exponential coordinates ω̂θ into the unit axis and the
// angle. Callers must not pass the zero vector.
func AxisAng3(expc3 mat.Vector) (*mat.VecDense, float64) {
	return Normalize(expc3), mat.Norm(expc3, 2)
}

// RotInv returns the inverse of a rotation matrix, its transpose.
func RotInv(R mat.Matrix) *mat.Dense {
	return mat.DenseCopyOf(R.T())
}

// MatrixExp3 maps so3 = [ω̂]θ to the rotation exp([ω̂]θ) by Rodrigues' formula.
func MatrixExp3(so3 mat.Matrix) *mat.Dense {
	theta := mat.Norm(So3ToVec(so3), 2)
	if NearZero(theta) {
		return Identity(3)
	}

	var omg, omg2, term mat.Dense
	omg.Scale(1/theta, so3)
	omg2.Mul(&omg, &omg)

	R := Identity(3)
	term.Scale(math.Sin(theta), &omg)
	R.Add(R, &term)
	term.Scale(1-math.Cos(theta), &omg2)
	R.Add(R, &term)
	return R
}

// rotationLog tags the three regimes of the SO(3) logarithm.
type rotationLog int

const (
	logIdentity rotationLog = iota // tr(R) = 3, no rotation
	logHalfTurn                    // tr(R) = -1, θ = π
	logGeneral
)

func (c rotationLog) String() string {
	switch c {
	case logIdentity:
		return "identity"
	case logHalfTurn:
		return "half-turn"
	default:
		return "general"
	}
}

// classifyRotation returns the logarithm regime of R and cos θ. Rotations
// within ZeroTolerance of a half turn take the half-turn path, where R - Rᵀ
// no longer carries the axis.
func classifyRotation(R mat.Matrix) (rotationLog, float64) {
	cosTheta := (mat.Trace(R) - 1) / 2
	switch {
	case cosTheta >= 1:
		return logIdentity, 1
	case cosTheta <= -1 || NearZero(1+cosTheta):
		return logHalfTurn, math.Max(cosTheta, -1)
	default:
		return logGeneral, cosTheta
	}
}

// halfTurnAxis recovers the unit rotation axis of a rotation near π from the
// symmetric part (R+Rᵀ)/2 = cos θ I + (1-cos θ) ωωᵀ, reading the column of
// the largest diagonal entry. The sign follows R - Rᵀ and is arbitrary at
// exactly π.
func halfTurnAxis(R mat.Matrix, cosTheta float64) *mat.VecDense {
	var outer mat.Dense
	outer.Add(R, R.T())
	outer.Scale(0.5, &outer)
	for i := 0; i < 3; i++ {
		outer.Set(i, i, outer.At(i, i)-cosTheta)
	}
	outer.Scale(1/(1-cosTheta), &outer)

	col := 0
	for i := 1; i < 3; i++ {
		if outer.At(i, i) > outer.At(col, col) {
			col = i
		}
	}

	w := Normalize(outer.ColView(col))
	if mat.Dot(w, skewPart(R)) < 0 {
		w.ScaleVec(-1, w)
	}
	return w
}

// skewPart returns the vector of (R - Rᵀ)/2, which is sin θ ω.
func skewPart(R mat.Matrix) *mat.VecDense {
	return mat.NewVecDense(3, []float64{
		(R.At(2, 1) - R.At(1, 2)) / 2,
		(R.At(0, 2) - R.At(2, 0)) / 2,
		(R.At(1, 0) - R.At(0, 1)) / 2,
	})
}

// MatrixLog3 returns the matrix logarithm [ω̂]θ of a rotation, θ in [0, π].
func MatrixLog3(R mat.Matrix) *mat.Dense {
	regime, cosTheta := classifyRotation(R)
	switch regime {
	case logIdentity:
		return mat.NewDense(3, 3, nil)
	case logHalfTurn:
		w := halfTurnAxis(R, cosTheta)
		// sin θ from the skew part keeps θ accurate where acos is not
		theta := math.Atan2(mat.Norm(skewPart(R), 2), cosTheta)
		w.ScaleVec(theta, w)
		return VecToso3(w)
	default:
		theta := math.Acos(cosTheta)
		var out mat.Dense
		out.Sub(R, R.T())
		out.Scale(theta/(2*math.Sin(theta)), &out)
		return &out
	}
}

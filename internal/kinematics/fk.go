package kinematics

import (
	"fmt"

	"github.com/san-kum/modrob/internal/lie"
	"gonum.org/v1/gonum/mat"
)

// Frame selects the reference frame the screw axes are expressed in.
type Frame int

const (
	Space Frame = iota
	Body
)

func (f Frame) String() string {
	switch f {
	case Space:
		return "space"
	case Body:
		return "body"
	default:
		return fmt.Sprintf("Frame(%d)", int(f))
	}
}

func ParseFrame(s string) (Frame, error) {
	switch s {
	case "space", "s":
		return Space, nil
	case "body", "b":
		return Body, nil
	}
	return Space, fmt.Errorf("unknown frame %q (want space or body)", s)
}

// screwExp returns exp([S_i]θ) for column i of axes.
func screwExp(axes mat.Matrix, i int, theta float64) *mat.Dense {
	S := mat.NewVecDense(6, mat.Col(nil, i, axes))
	S.ScaleVec(theta, S)
	return lie.MatrixExp6(lie.VecTose3(S))
}

// FKinSpace returns the end-effector configuration
// e^[S1]θ1 ... e^[Sn]θn M for space-frame screw axes.
func FKinSpace(M, Slist mat.Matrix, theta []float64) *mat.Dense {
	T := mat.DenseCopyOf(M)
	for i := len(theta) - 1; i >= 0; i-- {
		T.Mul(screwExp(Slist, i, theta[i]), T)
	}
	return T
}

// FKinBody returns M e^[B1]θ1 ... e^[Bn]θn for body-frame screw axes.
func FKinBody(M, Blist mat.Matrix, theta []float64) *mat.Dense {
	T := mat.DenseCopyOf(M)
	for i := range theta {
		T.Mul(T, screwExp(Blist, i, theta[i]))
	}
	return T
}

func ForwardKinematics(frame Frame, M, axes mat.Matrix, theta []float64) *mat.Dense {
	if frame == Body {
		return FKinBody(M, axes, theta)
	}
	return FKinSpace(M, axes, theta)
}

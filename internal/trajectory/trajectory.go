// Package trajectory generates point-to-point reference motions in joint
// space and in SE(3).
package trajectory

import (
	"errors"
	"fmt"

	"github.com/san-kum/modrob/internal/lie"
	"gonum.org/v1/gonum/mat"
)

var ErrTooFewPoints = errors.New("trajectory: need at least two points")

// Method selects the time scaling. Any value other than Cubic is quintic.
type Method int

const (
	Cubic   Method = 3
	Quintic Method = 5
)

func (m Method) String() string {
	if m == Cubic {
		return "cubic"
	}
	return "quintic"
}

func ParseMethod(s string) (Method, error) {
	switch s {
	case "cubic", "3":
		return Cubic, nil
	case "quintic", "5":
		return Quintic, nil
	}
	return Quintic, fmt.Errorf("unknown time scaling %q (want cubic or quintic)", s)
}

// CubicTimeScaling returns s(t) = 3(t/Tf)² - 2(t/Tf)³, which has zero
// velocity at both ends.
func CubicTimeScaling(Tf, t float64) float64 {
	s := t / Tf
	return 3*s*s - 2*s*s*s
}

// QuinticTimeScaling returns s(t) = 10(t/Tf)³ - 15(t/Tf)⁴ + 6(t/Tf)⁵, which
// has zero velocity and acceleration at both ends.
func QuinticTimeScaling(Tf, t float64) float64 {
	s := t / Tf
	s3 := s * s * s
	return 10*s3 - 15*s3*s + 6*s3*s*s
}

// Scale returns the path parameter at time t for the given method.
func (m Method) Scale(Tf, t float64) float64 {
	if m == Cubic {
		return CubicTimeScaling(Tf, t)
	}
	return QuinticTimeScaling(Tf, t)
}

// samples returns the N path parameters evenly spaced in time over [0, Tf].
func samples(Tf float64, N int, method Method) ([]float64, error) {
	if N < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewPoints, N)
	}
	gap := Tf / float64(N-1)
	s := make([]float64, N)
	for i := range s {
		s[i] = method.Scale(Tf, gap*float64(i))
	}
	return s, nil
}

// JointTrajectory returns an N x n matrix whose rows move from start to end
// along a straight line in joint space.
func JointTrajectory(start, end []float64, Tf float64, N int, method Method) (*mat.Dense, error) {
	s, err := samples(Tf, N, method)
	if err != nil {
		return nil, err
	}
	traj := mat.NewDense(N, len(start), nil)
	for i, si := range s {
		for j := range start {
			traj.Set(i, j, si*end[j]+(1-si)*start[j])
		}
	}
	return traj, nil
}

// ScrewTrajectory returns N transforms along the constant screw motion
// Xstart exp(log(Xstart⁻¹Xend) s).
func ScrewTrajectory(Xstart, Xend mat.Matrix, Tf float64, N int, method Method) ([]*mat.Dense, error) {
	s, err := samples(Tf, N, method)
	if err != nil {
		return nil, err
	}
	var rel mat.Dense
	rel.Mul(lie.TransInv(Xstart), Xend)
	log := lie.MatrixLog6(&rel)

	traj := make([]*mat.Dense, N)
	for i, si := range s {
		var step, X mat.Dense
		step.Scale(si, log)
		X.Mul(Xstart, lie.MatrixExp6(&step))
		traj[i] = &X
	}
	return traj, nil
}

// CartesianTrajectory returns N transforms whose origin moves on a straight
// line while the rotation follows Rstart exp(log(RstartᵀRend) s).
func CartesianTrajectory(Xstart, Xend mat.Matrix, Tf float64, N int, method Method) ([]*mat.Dense, error) {
	s, err := samples(Tf, N, method)
	if err != nil {
		return nil, err
	}
	Rs, ps := lie.TransToRp(Xstart)
	Re, pe := lie.TransToRp(Xend)
	var rel mat.Dense
	rel.Mul(Rs.T(), Re)
	log := lie.MatrixLog3(&rel)

	traj := make([]*mat.Dense, N)
	for i, si := range s {
		var step, R mat.Dense
		step.Scale(si, log)
		R.Mul(Rs, lie.MatrixExp3(&step))

		var p mat.VecDense
		p.ScaleVec(1-si, ps)
		p.AddScaledVec(&p, si, pe)
		traj[i] = lie.RpToTrans(&R, &p)
	}
	return traj, nil
}

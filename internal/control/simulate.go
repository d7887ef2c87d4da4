package control

import (
	"fmt"

	"github.com/san-kum/modrob/internal/dynamics"
	"gonum.org/v1/gonum/mat"
)

// Loop describes a closed-loop computed-torque run. The controller plans
// with Model and ModelGravity while the motion is produced by Plant under
// Gravity and the tip wrenches Ftips, one row per reference row, nil for
// none.
type Loop struct {
	Plant        *dynamics.Chain
	Gravity      []float64
	Ftips        *mat.Dense
	Model        *dynamics.Chain
	ModelGravity []float64
	Gains        Gains
	IntRes       int
}

// SimulateControl follows ref from (theta, dtheta). Each reference row
// computes a torque, holds it over IntRes Euler substeps of ref.Dt/IntRes
// and then accumulates the tracking error into the integral term. Row i of
// the results holds the torque applied over step i and the joint angles at
// its end.
func SimulateControl(loop Loop, theta, dtheta []float64, ref Reference) (taus, thetas *mat.Dense, err error) {
	intRes := loop.IntRes
	if intRes < 1 {
		intRes = 1
	}
	N := ref.Len()
	n := len(theta)
	taus = mat.NewDense(N, n, nil)
	thetas = mat.NewDense(N, n, nil)

	theta = append([]float64(nil), theta...)
	dtheta = append([]float64(nil), dtheta...)
	eint := make([]float64, n)
	h := ref.Dt / float64(intRes)

	for i := 0; i < N; i++ {
		thetad, dthetad, ddthetad := ref.At(i)
		tau := ComputedTorque(loop.Model, theta, dtheta, eint, loop.ModelGravity, thetad, dthetad, ddthetad, loop.Gains)

		var Ftip []float64
		if loop.Ftips != nil {
			Ftip = mat.Row(nil, i, loop.Ftips)
		}
		for j := 0; j < intRes; j++ {
			ddtheta, err := loop.Plant.ForwardDynamics(theta, dtheta, tau, loop.Gravity, Ftip)
			if err != nil {
				return nil, nil, fmt.Errorf("control step %d: %w", i, err)
			}
			theta, dtheta = dynamics.EulerStep(theta, dtheta, ddtheta, h)
		}

		taus.SetRow(i, tau)
		thetas.SetRow(i, theta)
		for j := range eint {
			eint[j] += ref.Dt * (thetad[j] - theta[j])
		}
	}
	return taus, thetas, nil
}

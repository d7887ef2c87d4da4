package dynamics

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ForwardDynamics returns the joint accelerations produced by the torques
// tau at (theta, dtheta), solving M(θ)θ̈ = τ - c(θ,θ̇) - g(θ) - Jᵀ(θ)Ftip
// by Cholesky factorization.
func (c *Chain) ForwardDynamics(theta, dtheta, tau, g, Ftip []float64) ([]float64, error) {
	n := len(theta)

	rhs := append([]float64(nil), tau...)
	floats.Sub(rhs, c.VelQuadraticForces(theta, dtheta))
	floats.Sub(rhs, c.GravityForces(theta, g))
	if Ftip != nil {
		floats.Sub(rhs, c.EndEffectorForces(theta, Ftip))
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(symmetric(c.MassMatrix(theta))); !ok {
		return nil, ErrNotPositiveDefinite
	}
	var ddtheta mat.VecDense
	if err := chol.SolveVecTo(&ddtheta, mat.NewVecDense(n, rhs)); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("solve mass matrix: %w", err)
		}
	}
	return ddtheta.RawVector().Data, nil
}

// symmetric averages M with its transpose to remove rounding asymmetry.
func symmetric(M *mat.Dense) *mat.SymDense {
	n, _ := M.Dims()
	S := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			S.SetSym(i, j, 0.5*(M.At(i, j)+M.At(j, i)))
		}
	}
	return S
}

// EulerStep advances joint positions by the current velocities and then the
// velocities by the accelerations over dt. The inputs are not modified.
func EulerStep(theta, dtheta, ddtheta []float64, dt float64) ([]float64, []float64) {
	nextTheta := append([]float64(nil), theta...)
	nextDtheta := append([]float64(nil), dtheta...)
	floats.AddScaled(nextTheta, dt, dtheta)
	floats.AddScaled(nextDtheta, dt, ddtheta)
	return nextTheta, nextDtheta
}

// InverseDynamicsTrajectory applies InverseDynamics to every row of the
// joint trajectory. Row i of the result holds the torques at step i.
// Ftips may be nil for a zero tip wrench throughout.
func (c *Chain) InverseDynamicsTrajectory(thetas, dthetas, ddthetas *mat.Dense, g []float64, Ftips *mat.Dense) *mat.Dense {
	steps, n := thetas.Dims()
	taus := mat.NewDense(steps, n, nil)
	for i := 0; i < steps; i++ {
		tau := c.InverseDynamics(
			mat.Row(nil, i, thetas),
			mat.Row(nil, i, dthetas),
			mat.Row(nil, i, ddthetas),
			g,
			tipRow(Ftips, i),
		)
		taus.SetRow(i, tau)
	}
	return taus
}

// ForwardDynamicsTrajectory integrates the motion produced by the torque
// history taus, one row per dt interval, taking intRes Euler substeps per
// interval. Row 0 of the results is the initial state.
func (c *Chain) ForwardDynamicsTrajectory(theta, dtheta []float64, taus *mat.Dense, g []float64, Ftips *mat.Dense, dt float64, intRes int) (*mat.Dense, *mat.Dense, error) {
	if intRes < 1 {
		intRes = 1
	}
	steps, n := taus.Dims()
	thetas := mat.NewDense(steps, n, nil)
	dthetas := mat.NewDense(steps, n, nil)
	thetas.SetRow(0, theta)
	dthetas.SetRow(0, dtheta)

	h := dt / float64(intRes)
	for i := 0; i < steps-1; i++ {
		tau := mat.Row(nil, i, taus)
		Ftip := tipRow(Ftips, i)
		for j := 0; j < intRes; j++ {
			ddtheta, err := c.ForwardDynamics(theta, dtheta, tau, g, Ftip)
			if err != nil {
				return nil, nil, fmt.Errorf("step %d: %w", i, err)
			}
			theta, dtheta = EulerStep(theta, dtheta, ddtheta, h)
		}
		thetas.SetRow(i+1, theta)
		dthetas.SetRow(i+1, dtheta)
	}
	return thetas, dthetas, nil
}

func tipRow(Ftips *mat.Dense, i int) []float64 {
	if Ftips == nil {
		return nil
	}
	return mat.Row(nil, i, Ftips)
}

package control

import (
	"github.com/san-kum/modrob/internal/dynamics"
	"gonum.org/v1/gonum/mat"
)

// Gains are the scalar feedback gains applied to every joint.
type Gains struct {
	Kp float64 `yaml:"kp" json:"kp"`
	Ki float64 `yaml:"ki" json:"ki"`
	Kd float64 `yaml:"kd" json:"kd"`
}

// ComputedTorque returns the torque
//
//	τ = M(θ)(Kp·e + Ki·(eint + e) + Kd·ė) + ID(θ, θ̇, θ̈d, g, 0)
//
// with e = θd - θ and ė = θ̇d - θ̇, using model as the controller's
// description of the arm.
func ComputedTorque(model *dynamics.Chain, theta, dtheta, eint, g, thetad, dthetad, ddthetad []float64, gains Gains) []float64 {
	n := len(theta)
	pid := make([]float64, n)
	for i := range pid {
		e := thetad[i] - theta[i]
		pid[i] = gains.Kp*e + gains.Ki*(eint[i]+e) + gains.Kd*(dthetad[i]-dtheta[i])
	}

	var feedback mat.VecDense
	feedback.MulVec(model.MassMatrix(theta), mat.NewVecDense(n, pid))

	tau := model.InverseDynamics(theta, dtheta, ddthetad, g, nil)
	for i := range tau {
		tau[i] += feedback.AtVec(i)
	}
	return tau
}

package control

import (
	"fmt"

	"github.com/san-kum/modrob/internal/dynamics"
	"github.com/san-kum/modrob/internal/dynamo"
)

// PD regulates the arm to a fixed joint target with
// τ = Kp(θd - θ) - Kd·θ̇ + g(θ).
type PD struct {
	Kp     float64
	Kd     float64
	Target []float64

	model   *dynamics.Chain
	gravity []float64
}

func NewPD(model *dynamics.Chain, gravity, target []float64, kp, kd float64) *PD {
	return &PD{Kp: kp, Kd: kd, Target: target, model: model, gravity: gravity}
}

func (p *PD) Compute(x dynamo.State, t float64) dynamo.Control {
	n := p.model.Joints()
	theta, dtheta := x[:n], x[n:2*n]

	u := p.model.GravityForces(theta, p.gravity)
	for i := range u {
		u[i] += p.Kp*(p.Target[i]-theta[i]) - p.Kd*dtheta[i]
	}
	return u
}

func (p *PD) GetParams() map[string]float64 {
	return map[string]float64{"Kp": p.Kp, "Kd": p.Kd}
}

func (p *PD) SetParam(name string, value float64) error {
	switch name {
	case "Kp":
		p.Kp = value
	case "Kd":
		p.Kd = value
	default:
		return fmt.Errorf("%w: %q", dynamo.ErrUnknownParam, name)
	}
	return nil
}

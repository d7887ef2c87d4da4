package control

import (
	"fmt"
	"math"

	"github.com/san-kum/modrob/internal/dynamics"
	"github.com/san-kum/modrob/internal/dynamo"
)

// Tracker follows a Reference with computed torque. It expects to be
// sampled once per ref.Dt starting at t = 0, which is how dynamo.Simulator
// drives controllers, and keeps the integral of the tracking error between
// calls.
type Tracker struct {
	Gains

	model   *dynamics.Chain
	gravity []float64
	ref     Reference
	eint    []float64
	prev    int
}

func NewTracker(model *dynamics.Chain, gravity []float64, ref Reference, gains Gains) *Tracker {
	return &Tracker{
		Gains:   gains,
		model:   model,
		gravity: gravity,
		ref:     ref,
		eint:    make([]float64, model.Joints()),
		prev:    -1,
	}
}

func (tr *Tracker) Compute(x dynamo.State, t float64) dynamo.Control {
	n := tr.model.Joints()
	theta, dtheta := x[:n], x[n:2*n]

	i := int(math.Round(t / tr.ref.Dt))
	if tr.prev >= 0 && i > tr.prev {
		prevTheta, _, _ := tr.ref.At(tr.prev)
		for j := range tr.eint {
			tr.eint[j] += tr.ref.Dt * (prevTheta[j] - theta[j])
		}
	}
	tr.prev = i

	thetad, dthetad, ddthetad := tr.ref.At(i)
	return ComputedTorque(tr.model, theta, dtheta, tr.eint, tr.gravity, thetad, dthetad, ddthetad, tr.Gains)
}

// Reset clears the integral term.
func (tr *Tracker) Reset() {
	for j := range tr.eint {
		tr.eint[j] = 0
	}
	tr.prev = -1
}

func (tr *Tracker) GetParams() map[string]float64 {
	return map[string]float64{
		"Kp": tr.Kp,
		"Ki": tr.Ki,
		"Kd": tr.Kd,
	}
}

func (tr *Tracker) SetParam(name string, value float64) error {
	switch name {
	case "Kp":
		tr.Kp = value
	case "Ki":
		tr.Ki = value
	case "Kd":
		tr.Kd = value
	default:
		return fmt.Errorf("%w: %q", dynamo.ErrUnknownParam, name)
	}
	return nil
}

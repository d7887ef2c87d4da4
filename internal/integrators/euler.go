package integrators

import (
	"github.com/san-kum/modrob/internal/dynamo"
	"gonum.org/v1/gonum/floats"
)

// Euler is the explicit first-order method. With an arm and a held torque it
// reproduces the substep update of dynamics.EulerStep.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(sys dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	out := x.Clone()
	floats.AddScaled(out, dt, sys.Derive(x, u, t))
	return out
}

// SemiImplicitEuler advances the velocity half of a [q; q̇] state first and
// then the positions with the new velocity. It keeps bounded energy error on
// unforced arms where explicit Euler gains energy.
type SemiImplicitEuler struct{}

func NewSemiImplicitEuler() *SemiImplicitEuler {
	return &SemiImplicitEuler{}
}

func (s *SemiImplicitEuler) Step(sys dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	half := len(x) / 2
	dx := sys.Derive(x, u, t)

	out := x.Clone()
	floats.AddScaled(out[half:], dt, dx[half:])
	floats.AddScaled(out[:half], dt, out[half:])
	return out
}

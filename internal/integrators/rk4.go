package integrators

import (
	"github.com/san-kum/modrob/internal/dynamo"
	"gonum.org/v1/gonum/floats"
)

// RK4 is the classical fourth-order Runge-Kutta method. The scratch buffer is
// reused between steps, so an RK4 must not be shared between goroutines.
type RK4 struct {
	scratch dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) stage(x, k dynamo.State, h float64) dynamo.State {
	if len(r.scratch) != len(x) {
		r.scratch = make(dynamo.State, len(x))
	}
	floats.AddScaledTo(r.scratch, x, h, k)
	return r.scratch
}

func (r *RK4) Step(sys dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	k1 := sys.Derive(x, u, t).Clone()
	k2 := sys.Derive(r.stage(x, k1, dt/2), u, t+dt/2).Clone()
	k3 := sys.Derive(r.stage(x, k2, dt/2), u, t+dt/2).Clone()
	k4 := sys.Derive(r.stage(x, k3, dt), u, t+dt)

	out := x.Clone()
	floats.AddScaled(out, dt/6, k1)
	floats.AddScaled(out, dt/3, k2)
	floats.AddScaled(out, dt/3, k3)
	floats.AddScaled(out, dt/6, k4)
	return out
}

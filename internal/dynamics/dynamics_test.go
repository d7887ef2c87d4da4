package dynamics

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/modrob/internal/dynamo"
	"github.com/san-kum/modrob/internal/integrators"
	"gonum.org/v1/gonum/mat"
)

func transform(rows ...[]float64) *mat.Dense {
	T := mat.NewDense(4, 4, nil)
	for i, r := range rows {
		T.SetRow(i, r)
	}
	T.SetRow(3, []float64{0, 0, 0, 1})
	return T
}

func inertia(d ...float64) *mat.Dense {
	G := mat.NewDense(6, 6, nil)
	for i, v := range d {
		G.Set(i, i, v)
	}
	return G
}

// ur5Chain is the first three links of a UR5.
func ur5Chain() *Chain {
	Mlist := []mat.Matrix{
		transform([]float64{1, 0, 0, 0}, []float64{0, 1, 0, 0}, []float64{0, 0, 1, 0.089159}),
		transform([]float64{0, 0, 1, 0.28}, []float64{0, 1, 0, 0.13585}, []float64{-1, 0, 0, 0}),
		transform([]float64{1, 0, 0, 0}, []float64{0, 1, 0, -0.1197}, []float64{0, 0, 1, 0.395}),
		transform([]float64{1, 0, 0, 0}, []float64{0, 1, 0, 0}, []float64{0, 0, 1, 0.14225}),
	}
	Glist := []mat.Matrix{
		inertia(0.010267, 0.010267, 0.00666, 3.7, 3.7, 3.7),
		inertia(0.22689, 0.22689, 0.0151074, 8.393, 8.393, 8.393),
		inertia(0.0494433, 0.0494433, 0.004095, 2.275, 2.275, 2.275),
	}
	Slist := mat.NewDense(6, 3, []float64{
		1, 0, 0,
		0, 1, 1,
		1, 0, 0,
		0, -0.089, -0.089,
		1, 0, 0,
		0, 0, 0.425,
	})
	return NewChain(Mlist, Glist, Slist)
}

var (
	theta   = []float64{0.1, 0.1, 0.1}
	dtheta  = []float64{0.1, 0.2, 0.3}
	ddtheta = []float64{2, 1.5, 1}
	gravity = []float64{0, 0, -9.8}
	ftip    = []float64{1, 1, 1, 1, 1, 1}
)

func assertSlice(t *testing.T, name string, got, want []float64, tol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: got %d entries, want %d", name, len(got), len(want))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > tol {
			t.Errorf("%s[%d] = %.10f, want %.10f", name, i, got[i], want[i])
		}
	}
}

func assertMatrix(t *testing.T, name string, got mat.Matrix, want *mat.Dense, tol float64) {
	t.Helper()
	if !mat.EqualApprox(got, want, tol) {
		t.Errorf("%s mismatch\ngot:\n%v\nwant:\n%v", name, mat.Formatted(got, mat.Prefix(""), mat.Squeeze()), mat.Formatted(want, mat.Prefix(""), mat.Squeeze()))
	}
}

func TestValidate(t *testing.T) {
	c := ur5Chain()
	if err := c.Validate(); err != nil {
		t.Fatalf("valid chain rejected: %v", err)
	}

	tests := []struct {
		name  string
		chain *Chain
	}{
		{"missing axes", NewChain(c.Mlist, c.Glist, nil)},
		{"short frame list", NewChain(c.Mlist[:3], c.Glist, c.Slist)},
		{"short inertia list", NewChain(c.Mlist, c.Glist[:2], c.Slist)},
		{"bad axes shape", NewChain(c.Mlist, c.Glist, mat.NewDense(5, 3, nil))},
		{"bad inertia shape", NewChain(c.Mlist, []mat.Matrix{c.Glist[0], c.Glist[1], mat.NewDense(3, 3, nil)}, c.Slist)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.chain.Validate(); !errors.Is(err, ErrDimensionMismatch) {
				t.Errorf("expected ErrDimensionMismatch, got %v", err)
			}
		})
	}
}

func TestHomeConfiguration(t *testing.T) {
	M := ur5Chain().HomeConfiguration()
	assertSlice(t, "home position", []float64{M.At(0, 3), M.At(1, 3), M.At(2, 3)}, []float64{0.81725, 0.01615, 0.089159}, 1e-12)
}

func TestInverseDynamics(t *testing.T) {
	got := ur5Chain().InverseDynamics(theta, dtheta, ddtheta, gravity, ftip)
	assertSlice(t, "tau", got, []float64{74.69616155287451, -33.06766015851458, -3.230573137901424}, 1e-9)
}

func TestInverseDynamicsNilTip(t *testing.T) {
	c := ur5Chain()
	zero := make([]float64, 6)
	assertSlice(t, "tau", c.InverseDynamics(theta, dtheta, ddtheta, gravity, nil),
		c.InverseDynamics(theta, dtheta, ddtheta, gravity, zero), 1e-12)
}

func TestGravityForces(t *testing.T) {
	c := ur5Chain()
	want := []float64{28.40331261821983, -37.64094817177068, -5.4415891999683605}
	assertSlice(t, "grav", c.GravityForces(theta, gravity), want, 1e-9)
	// repeated calls see no leftover state
	assertSlice(t, "grav again", c.GravityForces(theta, gravity), want, 1e-9)
}

func TestMassMatrix(t *testing.T) {
	M := ur5Chain().MassMatrix(theta)
	want := mat.NewDense(3, 3, []float64{
		22.543338035546054, -0.3071467542246569, -0.0071842639094406744,
		-0.307146754224657, 1.968507166255545, 0.43215736829319346,
		-0.007184263909440675, 0.43215736829319357, 0.19163085751427505,
	})
	assertMatrix(t, "mass matrix", M, want, 1e-9)
	assertMatrix(t, "mass matrix symmetry", M, mat.DenseCopyOf(M.T()), 1e-12)
}

func TestVelQuadraticForces(t *testing.T) {
	got := ur5Chain().VelQuadraticForces(theta, dtheta)
	assertSlice(t, "c", got, []float64{0.26453118054501235, -0.0550515682891655, -0.006891320068248913}, 1e-9)
}

func TestEndEffectorForces(t *testing.T) {
	got := ur5Chain().EndEffectorForces(theta, ftip)
	assertSlice(t, "JtF", got, []float64{1.4095460782639782, 1.8577149723180628, 1.392409}, 1e-9)
}

func TestDecomposition(t *testing.T) {
	c := ur5Chain()
	var Mdd mat.VecDense
	Mdd.MulVec(c.MassMatrix(theta), mat.NewVecDense(3, ddtheta))

	sum := make([]float64, 3)
	for i := range sum {
		sum[i] = Mdd.AtVec(i) +
			c.VelQuadraticForces(theta, dtheta)[i] +
			c.GravityForces(theta, gravity)[i] +
			c.EndEffectorForces(theta, ftip)[i]
	}
	assertSlice(t, "M θ̈ + c + g + JᵀF", sum, c.InverseDynamics(theta, dtheta, ddtheta, gravity, ftip), 1e-9)
}

func TestForwardDynamics(t *testing.T) {
	c := ur5Chain()
	got, err := c.ForwardDynamics(theta, dtheta, []float64{0.5, 0.6, 0.7}, gravity, ftip)
	if err != nil {
		t.Fatalf("ForwardDynamics: %v", err)
	}
	assertSlice(t, "ddtheta", got, []float64{-0.9739290670855626, 25.584667840340554, -32.91499212478149}, 1e-8)

	// and back again
	back, err := c.ForwardDynamics(theta, dtheta, c.InverseDynamics(theta, dtheta, ddtheta, gravity, ftip), gravity, ftip)
	if err != nil {
		t.Fatalf("ForwardDynamics: %v", err)
	}
	assertSlice(t, "round trip", back, ddtheta, 1e-9)
}

func TestForwardDynamicsSingular(t *testing.T) {
	c := ur5Chain()
	massless := NewChain(c.Mlist, []mat.Matrix{mat.NewDense(6, 6, nil), mat.NewDense(6, 6, nil), mat.NewDense(6, 6, nil)}, c.Slist)
	if _, err := massless.ForwardDynamics(theta, dtheta, []float64{1, 1, 1}, gravity, nil); !errors.Is(err, ErrNotPositiveDefinite) {
		t.Errorf("expected ErrNotPositiveDefinite, got %v", err)
	}
}

func TestEulerStep(t *testing.T) {
	th, dth := EulerStep(theta, dtheta, ddtheta, 0.1)
	assertSlice(t, "theta", th, []float64{0.11, 0.12, 0.13}, 1e-12)
	assertSlice(t, "dtheta", dth, []float64{0.3, 0.35, 0.4}, 1e-12)
	if theta[0] != 0.1 || dtheta[0] != 0.1 {
		t.Error("EulerStep modified its inputs")
	}
}

var taumat = mat.NewDense(10, 3, []float64{
	3.63, -6.58, -5.57,
	3.74, -5.55, -5.5,
	4.31, -0.68, -5.19,
	5.18, 5.63, -4.31,
	5.85, 8.17, -2.59,
	5.78, 2.79, -1.7,
	4.99, -5.3, -1.19,
	4.08, -9.41, 0.07,
	3.56, -10.1, 0.97,
	3.49, -9.41, 1.23,
})

func TestForwardDynamicsTrajectory(t *testing.T) {
	c := ur5Chain()

	t.Run("constant tip wrench", func(t *testing.T) {
		Ftips := mat.NewDense(10, 6, nil)
		for i := 0; i < 10; i++ {
			Ftips.SetRow(i, ftip)
		}
		thetas, dthetas, err := c.ForwardDynamicsTrajectory(theta, dtheta, taumat, gravity, Ftips, 0.1, 8)
		if err != nil {
			t.Fatalf("ForwardDynamicsTrajectory: %v", err)
		}
		assertSlice(t, "theta[0]", mat.Row(nil, 0, thetas), theta, 0)
		assertSlice(t, "theta[1]", mat.Row(nil, 1, thetas), []float64{0.10643138, 0.2625997, -0.22664947}, 1e-6)
		assertSlice(t, "theta[9]", mat.Row(nil, 9, thetas), []float64{-0.4638099, 3.63178793, -7.63190052}, 1e-6)
		assertSlice(t, "dtheta[9]", mat.Row(nil, 9, dthetas), []float64{-0.1455669, -4.57149985, -3.43135114}, 1e-6)
	})

	t.Run("no tip wrench", func(t *testing.T) {
		thetas, dthetas, err := c.ForwardDynamicsTrajectory(theta, dtheta, taumat, gravity, nil, 0.1, 8)
		if err != nil {
			t.Fatalf("ForwardDynamicsTrajectory: %v", err)
		}
		assertSlice(t, "theta[1]", mat.Row(nil, 1, thetas), []float64{0.10665259843918214, 0.25700704162997007, -0.18235996631722454}, 1e-9)
		assertSlice(t, "theta[9]", mat.Row(nil, 9, thetas), []float64{-0.2990559170961613, 2.311817515329092, 3.155466215213363}, 1e-8)
		assertSlice(t, "dtheta[9]", mat.Row(nil, 9, dthetas), []float64{0.1692616005598055, -7.005966429351021, 15.200995356515893}, 1e-8)
	})

	t.Run("resolution clamped", func(t *testing.T) {
		a, _, err := c.ForwardDynamicsTrajectory(theta, dtheta, taumat, gravity, nil, 0.1, 0)
		if err != nil {
			t.Fatal(err)
		}
		b, _, err := c.ForwardDynamicsTrajectory(theta, dtheta, taumat, gravity, nil, 0.1, 1)
		if err != nil {
			t.Fatal(err)
		}
		assertMatrix(t, "intRes 0 vs 1", a, b, 0)
	})
}

func TestInverseDynamicsTrajectory(t *testing.T) {
	const (
		N  = 1000
		Tf = 3.0
	)
	dt := Tf / (N - 1)

	thetas := mat.NewDense(N, 3, nil)
	for i := 0; i < N; i++ {
		s := dt * float64(i) / Tf
		s = 10*math.Pow(s, 3) - 15*math.Pow(s, 4) + 6*math.Pow(s, 5)
		thetas.SetRow(i, []float64{s * math.Pi / 2, s * math.Pi / 2, s * math.Pi / 2})
	}
	dthetas := mat.NewDense(N, 3, nil)
	ddthetas := mat.NewDense(N, 3, nil)
	for i := 0; i < N-1; i++ {
		for j := 0; j < 3; j++ {
			dthetas.Set(i+1, j, (thetas.At(i+1, j)-thetas.At(i, j))/dt)
			ddthetas.Set(i+1, j, (dthetas.At(i+1, j)-dthetas.At(i, j))/dt)
		}
	}

	taus := ur5Chain().InverseDynamicsTrajectory(thetas, dthetas, ddthetas, gravity, nil)
	if r, c := taus.Dims(); r != N || c != 3 {
		t.Fatalf("got %dx%d torques", r, c)
	}
	assertSlice(t, "tau[0]", mat.Row(nil, 0, taus), []float64{11.533916940000003, -38.07951700000001, -5.573750000000001}, 1e-7)
	assertSlice(t, "tau[499]", mat.Row(nil, 499, taus), []float64{115.65311751390145, -24.04474125880858, -0.3832478511774396}, 1e-6)
	assertSlice(t, "tau[999]", mat.Row(nil, 999, taus), []float64{80.15080026073552, -25.024948252950853, 1.0919180801855732}, 1e-6)
}

func TestArmDerive(t *testing.T) {
	c := ur5Chain()
	arm := NewArm(c, gravity)
	arm.SetTipWrench(ftip)

	if arm.StateDim() != 6 || arm.ControlDim() != 3 {
		t.Fatalf("dims = %d, %d", arm.StateDim(), arm.ControlDim())
	}

	x := dynamo.State{0.1, 0.1, 0.1, 0.1, 0.2, 0.3}
	dx := arm.Derive(x, dynamo.Control{0.5, 0.6, 0.7}, 0)
	assertSlice(t, "dx", dx, []float64{0.1, 0.2, 0.3, -0.9739290670855626, 25.584667840340554, -32.91499212478149}, 1e-8)
}

func TestArmEnergyConserved(t *testing.T) {
	arm := NewArm(ur5Chain(), gravity)
	integ := integrators.NewRK4()

	x := dynamo.State{0.1, 0.1, 0.1, 0.1, 0.2, 0.3}
	e0 := arm.Energy(x)
	zero := dynamo.Control{0, 0, 0}
	for i := 0; i < 1000; i++ {
		x = integ.Step(arm, x, zero, float64(i)*1e-3, 1e-3)
	}
	if drift := math.Abs(arm.Energy(x) - e0); drift > 1e-6*math.Max(1, math.Abs(e0)) {
		t.Errorf("energy drifted by %g from %g", drift, e0)
	}
}

func TestFramePositions(t *testing.T) {
	c := ur5Chain()

	points := c.FramePositions(make([]float64, 3))
	if len(points) != 5 {
		t.Fatalf("expected 5 points, got %d", len(points))
	}
	if points[0].Norm() != 0 {
		t.Errorf("base at %v", points[0])
	}
	ee := points[4]
	assertSlice(t, "end-effector", []float64{ee.X, ee.Y, ee.Z}, []float64{0.81725, 0.01615, 0.089159}, 1e-12)
	first := points[1]
	assertSlice(t, "link 1", []float64{first.X, first.Y, first.Z}, []float64{0, 0, 0.089159}, 1e-12)
}

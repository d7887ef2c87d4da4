package dynamics

import (
	"github.com/san-kum/modrob/internal/lie"
	"gonum.org/v1/gonum/mat"
)

// link carries the quantities of one link computed by the outward sweep.
type link struct {
	A   *mat.VecDense // joint screw axis in the link frame
	AdT *mat.Dense    // adjoint of the transform from the previous link frame
	V   *mat.VecDense // link twist
	Vd  *mat.VecDense // link acceleration
}

// InverseDynamics returns the joint torques required to produce ddtheta at
// (theta, dtheta) under gravity g while the end-effector applies the wrench
// Ftip to the environment. A nil Ftip is the zero wrench.
func (c *Chain) InverseDynamics(theta, dtheta, ddtheta, g, Ftip []float64) []float64 {
	n := len(theta)
	links := c.outward(theta, dtheta, ddtheta, g)

	F := mat.NewVecDense(6, nil)
	if Ftip != nil {
		F.CopyVec(mat.NewVecDense(6, Ftip))
	}
	AdNext := lie.Adjoint(lie.TransInv(c.Mlist[n]))

	tau := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		l := &links[i]
		G := c.Glist[i]

		var transmitted, inertial, momentum, coriolis mat.VecDense
		transmitted.MulVec(AdNext.T(), F)
		inertial.MulVec(G, l.Vd)
		momentum.MulVec(G, l.V)
		coriolis.MulVec(lie.Bracket(l.V).T(), &momentum)

		F = mat.NewVecDense(6, nil)
		F.AddVec(&transmitted, &inertial)
		F.SubVec(F, &coriolis)

		tau[i] = mat.Dot(F, l.A)
		AdNext = l.AdT
	}
	return tau
}

// outward propagates twists and accelerations from the base to the tip.
// The base acceleration is -g, which accounts for gravity in every link.
func (c *Chain) outward(theta, dtheta, ddtheta, g []float64) []link {
	n := len(theta)
	links := make([]link, n)

	Mi := lie.Identity(4)
	V := mat.NewVecDense(6, nil)
	Vd := mat.NewVecDense(6, []float64{0, 0, 0, -g[0], -g[1], -g[2]})

	for i := 0; i < n; i++ {
		Mi.Mul(Mi, c.Mlist[i])

		A := mat.NewVecDense(6, nil)
		A.MulVec(lie.Adjoint(lie.TransInv(Mi)), mat.NewVecDense(6, mat.Col(nil, i, c.Slist)))

		var back mat.VecDense
		back.ScaleVec(-theta[i], A)
		var Ti mat.Dense
		Ti.Mul(lie.MatrixExp6(lie.VecTose3(&back)), lie.TransInv(c.Mlist[i]))
		AdT := lie.Adjoint(&Ti)

		Vi := mat.NewVecDense(6, nil)
		Vi.MulVec(AdT, V)
		Vi.AddScaledVec(Vi, dtheta[i], A)

		var bracket mat.VecDense
		bracket.MulVec(lie.Bracket(Vi), A)
		Vdi := mat.NewVecDense(6, nil)
		Vdi.MulVec(AdT, Vd)
		Vdi.AddScaledVec(Vdi, ddtheta[i], A)
		Vdi.AddScaledVec(Vdi, dtheta[i], &bracket)

		links[i] = link{A: A, AdT: AdT, V: Vi, Vd: Vdi}
		V, Vd = Vi, Vdi
	}
	return links
}

// GravityForces returns the torques needed to hold the chain still at theta.
func (c *Chain) GravityForces(theta, g []float64) []float64 {
	n := len(theta)
	return c.InverseDynamics(theta, make([]float64, n), make([]float64, n), g, nil)
}

// MassMatrix returns the n x n joint-space inertia matrix M(θ), built one
// column at a time from unit joint accelerations.
func (c *Chain) MassMatrix(theta []float64) *mat.Dense {
	n := len(theta)
	M := mat.NewDense(n, n, nil)
	zero := make([]float64, n)
	g := []float64{0, 0, 0}
	for i := 0; i < n; i++ {
		ddtheta := make([]float64, n)
		ddtheta[i] = 1
		M.SetCol(i, c.InverseDynamics(theta, zero, ddtheta, g, nil))
	}
	return M
}

// VelQuadraticForces returns the Coriolis and centripetal torques c(θ, θ̇).
func (c *Chain) VelQuadraticForces(theta, dtheta []float64) []float64 {
	n := len(theta)
	return c.InverseDynamics(theta, dtheta, make([]float64, n), []float64{0, 0, 0}, nil)
}

// EndEffectorForces returns the torques Jᵀ(θ)Ftip needed to balance the tip
// wrench alone.
func (c *Chain) EndEffectorForces(theta, Ftip []float64) []float64 {
	n := len(theta)
	zero := make([]float64, n)
	return c.InverseDynamics(theta, zero, zero, []float64{0, 0, 0}, Ftip)
}

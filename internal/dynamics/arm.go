package dynamics

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/san-kum/modrob/internal/dynamo"
	"github.com/san-kum/modrob/internal/kinematics"
	"gonum.org/v1/gonum/mat"
)

// Arm adapts a Chain to dynamo.System. The state is [θ; θ̇] and the control
// is the joint torque vector.
type Arm struct {
	chain   *Chain
	gravity []float64
	tip     []float64
}

func NewArm(chain *Chain, gravity []float64) *Arm {
	return &Arm{chain: chain, gravity: gravity}
}

// SetTipWrench sets a constant wrench applied by the end-effector.
func (a *Arm) SetTipWrench(Ftip []float64) { a.tip = Ftip }

func (a *Arm) Chain() *Chain      { return a.chain }
func (a *Arm) Gravity() []float64 { return a.gravity }
func (a *Arm) StateDim() int      { return 2 * a.chain.Joints() }
func (a *Arm) ControlDim() int    { return a.chain.Joints() }

// Split returns views of the joint positions and velocities in x.
func (a *Arm) Split(x dynamo.State) (theta, dtheta []float64) {
	n := a.chain.Joints()
	return x[:n], x[n : 2*n]
}

// Derive returns [θ̇; θ̈]. A mass matrix that cannot be factorized yields a
// NaN derivative, which the simulator reports as an invalid state.
func (a *Arm) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	theta, dtheta := a.Split(x)
	n := len(theta)

	tau := make([]float64, n)
	copy(tau, u)

	dx := make(dynamo.State, 2*n)
	copy(dx, dtheta)
	ddtheta, err := a.chain.ForwardDynamics(theta, dtheta, tau, a.gravity, a.tip)
	if err != nil {
		for i := n; i < 2*n; i++ {
			dx[i] = math.NaN()
		}
		return dx
	}
	copy(dx[n:], ddtheta)
	return dx
}

// Energy returns the kinetic energy ½θ̇ᵀM(θ)θ̇ plus the gravitational
// potential of the link centers of mass.
func (a *Arm) Energy(x dynamo.State) float64 {
	theta, dtheta := a.Split(x)
	M := a.chain.MassMatrix(theta)
	v := mat.NewVecDense(len(dtheta), append([]float64(nil), dtheta...))
	kinetic := 0.5 * mat.Inner(v, M, v)

	potential := 0.0
	g := r3.Vector{X: a.gravity[0], Y: a.gravity[1], Z: a.gravity[2]}
	centers := a.chain.FramePositions(theta)
	for i := 0; i < len(theta); i++ {
		potential -= a.chain.linkMass(i) * g.Dot(centers[i+1])
	}
	return kinetic + potential
}

// FramePositions returns the space-frame origins of the base, of every link
// frame and of the end-effector frame at theta, n+2 points in total.
func (c *Chain) FramePositions(theta []float64) []r3.Vector {
	n := c.Joints()
	points := make([]r3.Vector, 0, n+2)
	points = append(points, r3.Vector{})

	home := mat.DenseCopyOf(c.Mlist[0])
	for i := 0; i <= n; i++ {
		if i > 0 {
			home.Mul(home, c.Mlist[i])
		}
		k := i + 1
		if k > n {
			k = n
		}
		T := kinematics.FKinSpace(home, c.Slist, theta[:k])
		points = append(points, r3.Vector{X: T.At(0, 3), Y: T.At(1, 3), Z: T.At(2, 3)})
	}
	return points
}

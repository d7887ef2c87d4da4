// Package dynamics implements recursive Newton-Euler dynamics for open chains.
package dynamics

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Chain is the immutable description of an n-joint open chain.
//
// Mlist holds n+1 transforms: Mlist[i] is the home pose of link frame i+1
// relative to link frame i, with link frames at the centers of mass and the
// last entry placing the end-effector frame. Glist holds the n 6x6 spatial
// inertia matrices of the links in their own frames. Slist is the 6 x n
// matrix of joint screw axes in the space frame.
type Chain struct {
	Mlist []mat.Matrix
	Glist []mat.Matrix
	Slist mat.Matrix
}

func NewChain(Mlist, Glist []mat.Matrix, Slist mat.Matrix) *Chain {
	return &Chain{Mlist: Mlist, Glist: Glist, Slist: Slist}
}

// Joints returns the number of joints.
func (c *Chain) Joints() int {
	_, n := c.Slist.Dims()
	return n
}

// Validate checks that the parts of the chain agree on the number of joints
// and have the expected shapes. The dynamics routines assume a valid chain
// and do not call it themselves.
func (c *Chain) Validate() error {
	if c.Slist == nil {
		return fmt.Errorf("%w: missing screw axes", ErrDimensionMismatch)
	}
	r, n := c.Slist.Dims()
	if r != 6 {
		return fmt.Errorf("%w: screw axes have %d rows, want 6", ErrDimensionMismatch, r)
	}
	if len(c.Mlist) != n+1 {
		return fmt.Errorf("%w: %d link frames for %d joints, want %d", ErrDimensionMismatch, len(c.Mlist), n, n+1)
	}
	if len(c.Glist) != n {
		return fmt.Errorf("%w: %d inertias for %d joints", ErrDimensionMismatch, len(c.Glist), n)
	}
	for i, M := range c.Mlist {
		if rows, cols := M.Dims(); rows != 4 || cols != 4 {
			return fmt.Errorf("%w: link frame %d is %dx%d", ErrDimensionMismatch, i, rows, cols)
		}
	}
	for i, G := range c.Glist {
		if rows, cols := G.Dims(); rows != 6 || cols != 6 {
			return fmt.Errorf("%w: inertia %d is %dx%d", ErrDimensionMismatch, i, rows, cols)
		}
	}
	return nil
}

// HomeConfiguration returns the end-effector pose at θ = 0, the product of
// all link frames.
func (c *Chain) HomeConfiguration() *mat.Dense {
	M := mat.DenseCopyOf(c.Mlist[0])
	for _, next := range c.Mlist[1:] {
		M.Mul(M, next)
	}
	return M
}

// linkMass reads the mass of link i from the linear block of its inertia.
func (c *Chain) linkMass(i int) float64 {
	return c.Glist[i].At(3, 3)
}

package dynamics

import "errors"

var (
	// ErrNotPositiveDefinite indicates a mass matrix that admits no Cholesky
	// factorization, which only happens for malformed link inertias.
	ErrNotPositiveDefinite = errors.New("dynamics: mass matrix is not positive definite")

	// ErrDimensionMismatch indicates a chain description whose link frames,
	// inertias and screw axes disagree on the number of joints.
	ErrDimensionMismatch = errors.New("dynamics: chain dimensions do not agree")
)

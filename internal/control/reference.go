package control

import "gonum.org/v1/gonum/mat"

// Reference is a sampled joint trajectory with one row per control period.
type Reference struct {
	Theta   *mat.Dense
	Dtheta  *mat.Dense
	Ddtheta *mat.Dense
	Dt      float64
}

// NewReference differentiates sampled joint positions by backward
// differences. Row 0 has zero velocity and acceleration.
func NewReference(thetas *mat.Dense, dt float64) Reference {
	N, n := thetas.Dims()
	dthetas := mat.NewDense(N, n, nil)
	ddthetas := mat.NewDense(N, n, nil)
	for i := 0; i < N-1; i++ {
		for j := 0; j < n; j++ {
			dthetas.Set(i+1, j, (thetas.At(i+1, j)-thetas.At(i, j))/dt)
			ddthetas.Set(i+1, j, (dthetas.At(i+1, j)-dthetas.At(i, j))/dt)
		}
	}
	return Reference{Theta: thetas, Dtheta: dthetas, Ddtheta: ddthetas, Dt: dt}
}

func (r Reference) Len() int {
	N, _ := r.Theta.Dims()
	return N
}

// At returns row i. Past the last row the final position is held with zero
// velocity and acceleration.
func (r Reference) At(i int) (theta, dtheta, ddtheta []float64) {
	N, n := r.Theta.Dims()
	if i >= N {
		return mat.Row(nil, N-1, r.Theta), make([]float64, n), make([]float64, n)
	}
	return mat.Row(nil, i, r.Theta), mat.Row(nil, i, r.Dtheta), mat.Row(nil, i, r.Ddtheta)
}

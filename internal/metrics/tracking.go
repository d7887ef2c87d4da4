package metrics

import (
	"math"

	"github.com/san-kum/modrob/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// TrackingError is the RMS joint position error against a reference sampled
// every dt. Samples past the end of the reference compare against its last
// row.
type TrackingError struct {
	ref     *mat.Dense
	dt      float64
	sumSq   float64
	samples int
}

func NewTrackingError(ref *mat.Dense, dt float64) *TrackingError {
	return &TrackingError{ref: ref, dt: dt}
}

func (e *TrackingError) Name() string { return "tracking_error" }

func (e *TrackingError) Observe(x dynamo.State, u dynamo.Control, t float64) {
	rows, n := e.ref.Dims()
	i := int(math.Round(t / e.dt))
	if i >= rows {
		i = rows - 1
	}
	for j := 0; j < n; j++ {
		d := e.ref.At(i, j) - x[j]
		e.sumSq += d * d
	}
	e.samples++
}

func (e *TrackingError) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	_, n := e.ref.Dims()
	return math.Sqrt(e.sumSq / float64(e.samples*n))
}

func (e *TrackingError) Reset() {
	e.sumSq = 0
	e.samples = 0
}

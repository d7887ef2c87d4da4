package metrics

import (
	"github.com/san-kum/modrob/internal/dynamo"
	"github.com/san-kum/modrob/internal/kinematics"
	"gonum.org/v1/gonum/mat"
)

// Manipulability is the mean Yoshikawa measure of the space Jacobian over
// the run. It approaches zero when the arm spends time near singularities.
type Manipulability struct {
	slist   mat.Matrix
	sum     float64
	samples int
}

func NewManipulability(Slist mat.Matrix) *Manipulability {
	return &Manipulability{slist: Slist}
}

func (m *Manipulability) Name() string { return "manipulability" }

func (m *Manipulability) Observe(x dynamo.State, u dynamo.Control, t float64) {
	_, n := m.slist.Dims()
	w, _ := kinematics.Manipulability(kinematics.JacobianSpace(m.slist, x[:n]))
	m.sum += w
	m.samples++
}

func (m *Manipulability) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *Manipulability) Reset() {
	m.sum = 0
	m.samples = 0
}

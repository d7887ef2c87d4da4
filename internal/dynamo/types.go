package dynamo

import (
	"fmt"
	"math"

	"go.uber.org/multierr"
	"gonum.org/v1/gonum/floats"
)

// State is the full state vector of a system, [θ; θ̇] for an arm.
type State []float64

func (s State) Clone() State {
	return append(State(nil), s...)
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	return floats.Norm(s, 2)
}

// AddScaled returns s + alpha*other. The vectors must have equal length.
func (s State) AddScaled(alpha float64, other State) State {
	out := s.Clone()
	floats.AddScaled(out, alpha, other)
	return out
}

func (s State) Sub(other State) State {
	out := s.Clone()
	floats.Sub(out, other)
	return out
}

// Control is the input applied to a system, joint torques for an arm.
type Control []float64

type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

// Hamiltonian systems expose their total energy, used for drift checks.
type Hamiltonian interface {
	Energy(x State) float64
}

type Integrator interface {
	Step(sys System, x State, u Control, t, dt float64) State
}

type Controller interface {
	Compute(x State, t float64) Control
}

type Metric interface {
	Name() string
	Observe(x State, u Control, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x State, u Control, t float64)
}

// Configurable components expose named parameters for live tuning.
type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// Config controls a simulation run. The controller is sampled once every
// Dt and its output held over Substeps integrator steps of Dt/Substeps.
type Config struct {
	Dt            float64
	Duration      float64
	Substeps      int
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Dt:            0.01,
		Duration:      1.0,
		Substeps:      8,
		ValidateState: true,
	}
}

// Steps returns the number of control periods in the run.
func (c Config) Steps() int {
	return int(math.Round(c.Duration / c.Dt))
}

type Result struct {
	States      []State
	Controls    []Control
	Times       []float64
	Metrics     map[string]float64
	EnergyDrift float64
	StepsTaken  int
	Errors      []error
}

// Err folds the errors recorded during the run into one, nil if none.
func (r *Result) Err() error {
	return multierr.Combine(r.Errors...)
}

// SimError describes a failure at a given control period.
type SimError struct {
	Time    float64
	Step    int
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}

package dynamo

import (
	"context"
	"fmt"
	"math"
)

type Simulator struct {
	sys        System
	integrator Integrator
	controller Controller
	metrics    []Metric
	observers  []Observer
}

func New(sys System, integrator Integrator, controller Controller) *Simulator {
	return &Simulator{
		sys:        sys,
		integrator: integrator,
		controller: controller,
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Run simulates from x0 for cfg.Duration. The controller is evaluated once
// per cfg.Dt; each recorded control is the torque applied over the period
// that ends at the matching state. An invalid state stops the run early and
// is reported through Result.Err.
func (s *Simulator) Run(ctx context.Context, x0 State, cfg Config) (*Result, error) {
	if err := s.validate(x0, cfg); err != nil {
		return nil, err
	}

	steps := cfg.Steps()
	result := &Result{
		States:   make([]State, 0, steps+1),
		Controls: make([]Control, 0, steps),
		Times:    make([]float64, 0, steps+1),
		Metrics:  make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x := x0.Clone()
	t := 0.0

	result.States = append(result.States, x.Clone())
	result.Times = append(result.Times, t)

	initialEnergy := s.energy(x)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		u := s.controller.Compute(x, t)
		if len(u) != s.sys.ControlDim() {
			result.Errors = append(result.Errors, &SimulationError{
				Step: i, Time: t, State: x.Clone(),
				Wrapped: fmt.Errorf("%w: control has %d entries, want %d", ErrDimensionMismatch, len(u), s.sys.ControlDim()),
			})
			break
		}

		for _, m := range s.metrics {
			m.Observe(x, u, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(x, u, t)
		}

		next := s.advance(x, u, t, cfg)
		if cfg.ValidateState && !next.IsValid() {
			result.Errors = append(result.Errors, &SimulationError{
				Step: i, Time: t, State: x.Clone(), Wrapped: ErrInvalidState,
			})
			break
		}

		x = next
		t = float64(i+1) * cfg.Dt
		result.StepsTaken++

		result.States = append(result.States, x.Clone())
		result.Controls = append(result.Controls, u)
		result.Times = append(result.Times, t)
	}

	if initialEnergy != 0 {
		result.EnergyDrift = math.Abs(s.energy(x)-initialEnergy) / math.Abs(initialEnergy)
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

// Step samples the controller at (x, t) and advances one control period.
// It is the single-step form of Run for interactive front ends; metrics and
// observers are not notified.
func (s *Simulator) Step(x State, t float64, cfg Config) (State, Control) {
	u := s.controller.Compute(x, t)
	return s.advance(x, u, t, cfg), u
}

// System returns the simulated system.
func (s *Simulator) System() System { return s.sys }

// Controller returns the controller, for live tuning of Configurable ones.
func (s *Simulator) Controller() Controller { return s.controller }

// advance holds u over one control period split into cfg.Substeps steps.
func (s *Simulator) advance(x State, u Control, t float64, cfg Config) State {
	n := cfg.Substeps
	if n < 1 {
		n = 1
	}
	h := cfg.Dt / float64(n)
	for k := 0; k < n; k++ {
		x = s.integrator.Step(s.sys, x, u, t+float64(k)*h, h)
	}
	return x
}

func (s *Simulator) validate(x0 State, cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalidConfig, cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %f", ErrInvalidConfig, cfg.Duration)
	}
	if len(x0) != s.sys.StateDim() {
		return fmt.Errorf("%w: initial state has %d entries, want %d", ErrDimensionMismatch, len(x0), s.sys.StateDim())
	}
	return nil
}

func (s *Simulator) energy(x State) float64 {
	if h, ok := s.sys.(Hamiltonian); ok {
		return h.Energy(x)
	}
	return 0
}

// RunWithCallback steps the system until the duration elapses or callback
// returns false. Nothing is recorded; the callback sees every sample.
func (s *Simulator) RunWithCallback(ctx context.Context, x0 State, cfg Config, callback func(State, Control, float64) bool) error {
	if err := s.validate(x0, cfg); err != nil {
		return err
	}

	x := x0.Clone()
	for i := 0; i < cfg.Steps(); i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		t := float64(i) * cfg.Dt
		u := s.controller.Compute(x, t)
		if !callback(x, u, t) {
			return nil
		}

		x = s.advance(x, u, t, cfg)
		if cfg.ValidateState && !x.IsValid() {
			return &SimulationError{Step: i, Time: t, State: x, Wrapped: ErrInvalidState}
		}
	}
	return nil
}

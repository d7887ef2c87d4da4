// Package experiment assembles an arm, a controller, an integrator and the
// default metrics from a configuration and runs the simulation.
package experiment

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"github.com/san-kum/modrob/internal/config"
	"github.com/san-kum/modrob/internal/control"
	"github.com/san-kum/modrob/internal/dynamics"
	"github.com/san-kum/modrob/internal/dynamo"
	"github.com/san-kum/modrob/internal/metrics"
	"github.com/san-kum/modrob/internal/storage"
	"go.uber.org/zap"
)

type Experiment struct {
	cfg       *config.Config
	arm       *dynamics.Arm
	ref       control.Reference
	simulator *dynamo.Simulator
	logger    *zap.SugaredLogger
}

func New(cfg *config.Config, reg *Registry, logger *zap.SugaredLogger) (*Experiment, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	chain, err := cfg.BuildChain()
	if err != nil {
		return nil, errors.Wrap(err, "build chain")
	}
	ref, err := cfg.BuildReference()
	if err != nil {
		return nil, errors.Wrap(err, "build reference")
	}

	arm := dynamics.NewArm(chain, cfg.Gravity)
	if cfg.TipWrench != nil {
		arm.SetTipWrench(cfg.TipWrench)
	}

	integ, err := reg.GetIntegrator(cfg.Integrator)
	if err != nil {
		return nil, err
	}
	ctrl, err := reg.GetController(cfg.Controller, Setup{Config: cfg, Chain: chain, Reference: ref})
	if err != nil {
		return nil, err
	}

	sim := dynamo.New(arm, integ, ctrl)
	for _, m := range reg.DefaultMetrics(arm, ref) {
		sim.AddMetric(m)
	}
	if lower, upper, ok := cfg.JointLimits(); ok {
		sim.AddMetric(metrics.NewJointLimits(lower, upper))
	}
	named := logger.With("arm", cfg.Name)
	sim.AddObserver(&progress{logger: named, every: progressEvery})

	return &Experiment{
		cfg:       cfg,
		arm:       arm,
		ref:       ref,
		simulator: sim,
		logger:    named,
	}, nil
}

const progressEvery = 100

// progress logs the arm state at Debug level every few control periods.
type progress struct {
	logger *zap.SugaredLogger
	every  int
	step   int
}

func (p *progress) OnStep(x dynamo.State, u dynamo.Control, t float64) {
	if p.step%p.every == 0 {
		p.logger.Debugw("progress", "t", t, "state", x, "torque", u)
	}
	p.step++
}

type resetter interface{ Reset() }

// ReachTime simulates the run again without recording and returns the
// first time at which every joint is within tol of the reference target.
// The controller is reset before and after so Run is unaffected.
func (e *Experiment) ReachTime(ctx context.Context, tol float64) (float64, bool, error) {
	target := e.cfg.Reference.Target
	if target == nil {
		target = e.cfg.InitState.Theta
	}
	ctrl := e.simulator.Controller()
	if r, ok := ctrl.(resetter); ok {
		r.Reset()
		defer r.Reset()
	}

	reached, at := false, 0.0
	err := e.simulator.RunWithCallback(ctx, e.cfg.InitialState(), e.cfg.SimConfig(), func(x dynamo.State, u dynamo.Control, t float64) bool {
		theta, _ := e.arm.Split(x)
		for j, v := range theta {
			if math.Abs(v-target[j]) > tol {
				return true
			}
		}
		reached, at = true, t
		return false
	})
	return at, reached, err
}

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	e.logger.Infow("starting run",
		"joints", e.cfg.Joints(),
		"integrator", e.cfg.Integrator,
		"controller", e.cfg.Controller,
		"dt", e.cfg.Dt,
		"duration", e.cfg.Duration,
	)

	if r, ok := e.simulator.Controller().(resetter); ok {
		r.Reset()
	}
	result, err := e.simulator.Run(ctx, e.cfg.InitialState(), e.cfg.SimConfig())
	if err != nil {
		return result, err
	}
	if runErr := result.Err(); runErr != nil {
		e.logger.Warnw("run stopped early", "steps", result.StepsTaken, "error", runErr)
	}
	e.logger.Infow("run finished", "steps", result.StepsTaken, "metrics", result.Metrics)
	return result, nil
}

// Simulator is exposed for adding observers before Run.
func (e *Experiment) Simulator() *dynamo.Simulator { return e.simulator }

func (e *Experiment) Arm() *dynamics.Arm { return e.arm }

func (e *Experiment) Reference() control.Reference { return e.ref }

// Metadata describes the run for the store.
func (e *Experiment) Metadata() storage.RunMetadata {
	return storage.RunMetadata{
		Arm:        e.cfg.Name,
		Joints:     e.cfg.Joints(),
		Dt:         e.cfg.Dt,
		Duration:   e.cfg.Duration,
		Substeps:   e.cfg.Substeps,
		Integrator: e.cfg.Integrator,
		Controller: e.cfg.Controller,
	}
}

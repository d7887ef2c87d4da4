package config

import (
	"fmt"
	"math"
	"os"

	"github.com/pkg/errors"
	"github.com/san-kum/modrob/internal/control"
	"github.com/san-kum/modrob/internal/dynamics"
	"github.com/san-kum/modrob/internal/dynamo"
	"github.com/san-kum/modrob/internal/trajectory"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt       = 0.01
	DefaultDuration = 2.0
	DefaultSubsteps = 8
	DefaultKp       = 20.0
	DefaultKi       = 10.0
	DefaultKd       = 18.0
)

// Config describes an arm, how to drive it and how to simulate it.
type Config struct {
	Name       string          `yaml:"name"`
	Integrator string          `yaml:"integrator"`
	Controller string          `yaml:"controller"`
	Dt         float64         `yaml:"dt"`
	Duration   float64         `yaml:"duration"`
	Substeps   int             `yaml:"substeps"`
	Gravity    []float64       `yaml:"gravity"`
	TipWrench  []float64       `yaml:"tip_wrench,omitempty"`
	Chain      ChainConfig     `yaml:"chain"`
	InitState  InitStateConfig `yaml:"init_state"`
	Gains      control.Gains   `yaml:"gains"`
	Reference  ReferenceConfig `yaml:"reference"`
}

// ChainConfig lists the links from the base outward. Frame is the 4x4 home
// pose of the link's center of mass relative to the previous one; EndEffector
// places the tool frame relative to the last link.
type ChainConfig struct {
	Links       []LinkConfig `yaml:"links"`
	EndEffector [][]float64  `yaml:"end_effector"`
}

type LinkConfig struct {
	Frame [][]float64 `yaml:"frame"`
	Mass  float64     `yaml:"mass"`
	// Principal rotational inertia about the link frame axes.
	Inertia []float64 `yaml:"inertia"`
	// Joint screw axis [ω; v] in the space frame.
	Screw []float64 `yaml:"screw"`
	// Optional [lower, upper] joint position bounds.
	Limits []float64 `yaml:"limits,omitempty"`
}

type InitStateConfig struct {
	Theta  []float64 `yaml:"theta"`
	Dtheta []float64 `yaml:"dtheta"`
}

// ReferenceConfig is a point-to-point joint move from the initial angles to
// Target over Tf seconds, followed by holding the target.
type ReferenceConfig struct {
	Target []float64 `yaml:"target"`
	Tf     float64   `yaml:"tf"`
	Method string    `yaml:"method"`
}

func DefaultConfig() *Config {
	cfg, _ := GetPreset("ur5")
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	return errors.Wrap(os.WriteFile(path, data, 0644), "write config")
}

func (c *Config) Joints() int { return len(c.Chain.Links) }

// JointLimits returns the position bounds when every link declares them.
func (c *Config) JointLimits() (lower, upper []float64, ok bool) {
	for _, l := range c.Chain.Links {
		if len(l.Limits) != 2 {
			return nil, nil, false
		}
		lower = append(lower, l.Limits[0])
		upper = append(upper, l.Limits[1])
	}
	return lower, upper, len(lower) > 0
}

func (c *Config) Validate() error {
	n := c.Joints()
	if n == 0 {
		return errors.New("chain has no links")
	}
	if c.Dt <= 0 || c.Duration <= 0 {
		return errors.Errorf("dt and duration must be positive, got %g and %g", c.Dt, c.Duration)
	}
	if len(c.Gravity) != 3 {
		return errors.Errorf("gravity has %d components, want 3", len(c.Gravity))
	}
	if c.TipWrench != nil && len(c.TipWrench) != 6 {
		return errors.Errorf("tip wrench has %d components, want 6", len(c.TipWrench))
	}
	for i, l := range c.Chain.Links {
		if len(l.Screw) != 6 {
			return errors.Errorf("link %d: screw axis has %d components, want 6", i, len(l.Screw))
		}
		if len(l.Inertia) != 3 {
			return errors.Errorf("link %d: inertia has %d components, want 3", i, len(l.Inertia))
		}
		if l.Limits != nil && (len(l.Limits) != 2 || l.Limits[0] > l.Limits[1]) {
			return errors.Errorf("link %d: limits must be [lower, upper], got %v", i, l.Limits)
		}
	}
	if len(c.InitState.Theta) != n || len(c.InitState.Dtheta) != n {
		return errors.Errorf("initial state must have %d joint angles and velocities", n)
	}
	if c.Reference.Target != nil && len(c.Reference.Target) != n {
		return errors.Errorf("reference target has %d joints, want %d", len(c.Reference.Target), n)
	}
	return nil
}

func transform(rows [][]float64) (*mat.Dense, error) {
	if len(rows) != 4 {
		return nil, errors.Errorf("transform has %d rows, want 4", len(rows))
	}
	T := mat.NewDense(4, 4, nil)
	for i, r := range rows {
		if len(r) != 4 {
			return nil, errors.Errorf("transform row %d has %d entries, want 4", i, len(r))
		}
		T.SetRow(i, r)
	}
	return T, nil
}

// BuildChain assembles the dynamics description of the configured arm.
func (c *Config) BuildChain() (*dynamics.Chain, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	n := c.Joints()
	Mlist := make([]mat.Matrix, 0, n+1)
	Glist := make([]mat.Matrix, 0, n)
	Slist := mat.NewDense(6, n, nil)

	for i, l := range c.Chain.Links {
		M, err := transform(l.Frame)
		if err != nil {
			return nil, errors.Wrapf(err, "link %d", i)
		}
		Mlist = append(Mlist, M)

		G := mat.NewDense(6, 6, nil)
		for k := 0; k < 3; k++ {
			G.Set(k, k, l.Inertia[k])
			G.Set(k+3, k+3, l.Mass)
		}
		Glist = append(Glist, G)
		Slist.SetCol(i, l.Screw)
	}
	ee, err := transform(c.Chain.EndEffector)
	if err != nil {
		return nil, errors.Wrap(err, "end effector")
	}
	Mlist = append(Mlist, ee)

	chain := dynamics.NewChain(Mlist, Glist, Slist)
	if err := chain.Validate(); err != nil {
		return nil, err
	}
	return chain, nil
}

func (c *Config) InitialState() dynamo.State {
	x := make(dynamo.State, 0, 2*c.Joints())
	x = append(x, c.InitState.Theta...)
	return append(x, c.InitState.Dtheta...)
}

func (c *Config) SimConfig() dynamo.Config {
	return dynamo.Config{
		Dt:            c.Dt,
		Duration:      c.Duration,
		Substeps:      c.Substeps,
		ValidateState: true,
	}
}

// BuildReference samples the configured move every Dt. Without a target the
// arm is asked to hold its initial angles.
func (c *Config) BuildReference() (control.Reference, error) {
	target := c.Reference.Target
	if target == nil {
		target = c.InitState.Theta
	}
	method := trajectory.Quintic
	if c.Reference.Method != "" {
		m, err := trajectory.ParseMethod(c.Reference.Method)
		if err != nil {
			return control.Reference{}, err
		}
		method = m
	}
	Tf := c.Reference.Tf
	if Tf <= 0 {
		Tf = c.Duration
	}
	N := int(math.Round(Tf/c.Dt)) + 1
	thetas, err := trajectory.JointTrajectory(c.InitState.Theta, target, Tf, N, method)
	if err != nil {
		return control.Reference{}, fmt.Errorf("reference: %w", err)
	}
	return control.NewReference(thetas, Tf/float64(N-1)), nil
}

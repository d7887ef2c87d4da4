package config

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/modrob/internal/control"
)

var ErrUnknownPreset = errors.New("config: unknown preset")

func translate(x, y, z float64) [][]float64 {
	return [][]float64{{1, 0, 0, x}, {0, 1, 0, y}, {0, 0, 1, z}, {0, 0, 0, 1}}
}

// ur5 is the shoulder, elbow and first wrist link of a UR5 with the tool
// frame on the wrist. It tracks a quintic move to all joints at π/2.
func ur5() *Config {
	return &Config{
		Name:       "ur5",
		Integrator: "euler",
		Controller: "tracker",
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
		Substeps:   DefaultSubsteps,
		Gravity:    []float64{0, 0, -9.8},
		Chain: ChainConfig{
			Links: []LinkConfig{
				{
					Frame:   translate(0, 0, 0.089159),
					Mass:    3.7,
					Inertia: []float64{0.010267, 0.010267, 0.00666},
					Screw:   []float64{0, 0, 1, 0, 0, 0},
					Limits:  []float64{-2 * math.Pi, 2 * math.Pi},
				},
				{
					Frame:   [][]float64{{0, 0, 1, 0.28}, {0, 1, 0, 0.13585}, {-1, 0, 0, 0}, {0, 0, 0, 1}},
					Mass:    8.393,
					Inertia: []float64{0.22689, 0.22689, 0.0151074},
					Screw:   []float64{0, 1, 0, -0.089159, 0, 0},
					Limits:  []float64{-2 * math.Pi, 2 * math.Pi},
				},
				{
					Frame:   translate(0, -0.1197, 0.395),
					Mass:    2.275,
					Inertia: []float64{0.0494433, 0.0494433, 0.004095},
					Screw:   []float64{0, 1, 0, -0.089159, 0, 0.425},
					Limits:  []float64{-2 * math.Pi, 2 * math.Pi},
				},
			},
			EndEffector: translate(0, 0, 0.14225),
		},
		InitState: InitStateConfig{
			Theta:  []float64{0, 0, 0},
			Dtheta: []float64{0, 0, 0},
		},
		Gains: control.Gains{Kp: DefaultKp, Ki: DefaultKi, Kd: DefaultKd},
		Reference: ReferenceConfig{
			Target: []float64{math.Pi / 2, math.Pi / 2, math.Pi / 2},
			Tf:     1.0,
			Method: "quintic",
		},
	}
}

// planar2 is a two-link arm of unit rods moving in the xy-plane with
// gravity along -y. By default it swings freely from horizontal.
func planar2() *Config {
	rod := []float64{0.001, 1.0 / 12, 1.0 / 12}
	return &Config{
		Name:       "planar2",
		Integrator: "rk4",
		Controller: "none",
		Dt:         DefaultDt,
		Duration:   5.0,
		Substeps:   1,
		Gravity:    []float64{0, -9.81, 0},
		Chain: ChainConfig{
			Links: []LinkConfig{
				{Frame: translate(0.5, 0, 0), Mass: 1, Inertia: rod, Screw: []float64{0, 0, 1, 0, 0, 0}},
				{Frame: translate(1, 0, 0), Mass: 1, Inertia: rod, Screw: []float64{0, 0, 1, 0, -1, 0}},
			},
			EndEffector: translate(0.5, 0, 0),
		},
		InitState: InitStateConfig{
			Theta:  []float64{0, 0},
			Dtheta: []float64{0, 0},
		},
		Gains: control.Gains{Kp: 50, Kd: 10},
		Reference: ReferenceConfig{
			Target: []float64{-math.Pi / 2, 0},
			Tf:     2.0,
			Method: "cubic",
		},
	}
}

var presets = map[string]func() *Config{
	"ur5":     ur5,
	"planar2": planar2,
}

// GetPreset returns a fresh copy of a built-in configuration.
func GetPreset(name string) (*Config, error) {
	ctor, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return ctor(), nil
}

func ListPresets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

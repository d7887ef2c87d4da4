package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/modrob/internal/config"
	"github.com/san-kum/modrob/internal/control"
	"github.com/san-kum/modrob/internal/dynamics"
	"github.com/san-kum/modrob/internal/dynamo"
	"github.com/san-kum/modrob/internal/integrators"
	"github.com/san-kum/modrob/internal/metrics"
)

// Setup is what a controller constructor may draw on.
type Setup struct {
	Config    *config.Config
	Chain     *dynamics.Chain
	Reference control.Reference
}

type Registry struct {
	controllers map[string]func(Setup) dynamo.Controller
}

func NewRegistry() *Registry {
	r := &Registry{
		controllers: make(map[string]func(Setup) dynamo.Controller),
	}

	r.controllers["none"] = func(s Setup) dynamo.Controller {
		return control.NewNone(s.Chain.Joints())
	}
	r.controllers["tracker"] = func(s Setup) dynamo.Controller {
		return control.NewTracker(s.Chain, s.Config.Gravity, s.Reference, s.Config.Gains)
	}
	r.controllers["pd"] = func(s Setup) dynamo.Controller {
		target := s.Config.Reference.Target
		if target == nil {
			target = s.Config.InitState.Theta
		}
		return control.NewPD(s.Chain, s.Config.Gravity, target, s.Config.Gains.Kp, s.Config.Gains.Kd)
	}

	return r
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	return integrators.New(name)
}

func (r *Registry) GetController(name string, s Setup) (dynamo.Controller, error) {
	fn, ok := r.controllers[name]
	if !ok {
		return nil, fmt.Errorf("unknown controller: %s", name)
	}
	return fn(s), nil
}

func (r *Registry) ListControllers() []string {
	names := make([]string, 0, len(r.controllers))
	for name := range r.controllers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) ListIntegrators() []string {
	return integrators.Names()
}

// DefaultMetrics are attached to every experiment.
func (r *Registry) DefaultMetrics(arm *dynamics.Arm, ref control.Reference) []dynamo.Metric {
	return []dynamo.Metric{
		metrics.NewControlEffort(),
		metrics.NewEnergyDrift(arm),
		metrics.NewTrackingError(ref.Theta, ref.Dt),
		metrics.NewManipulability(arm.Chain().Slist),
	}
}

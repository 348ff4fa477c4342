package experiment

import (
	"sort"

	"github.com/san-kum/hvasim/internal/config"
	"github.com/san-kum/hvasim/internal/dynamo"
	"github.com/san-kum/hvasim/internal/integrators"
	"github.com/san-kum/hvasim/internal/metrics"
	"github.com/san-kum/hvasim/internal/network"
)

// Registry resolves integrators and per-group metrics by name.
type Registry struct {
	metrics map[string]func(group string) network.Metric
}

func NewRegistry() *Registry {
	r := &Registry{
		metrics: make(map[string]func(string) network.Metric),
	}

	r.metrics["rate"] = func(g string) network.Metric { return metrics.NewFiringRate(g) }
	r.metrics["mean_vm"] = func(g string) network.Metric { return metrics.NewMeanVm(g) }
	r.metrics["peak_ge"] = func(g string) network.Metric { return metrics.NewPeakConductance(g) }

	return r
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	return integrators.ByName(name)
}

func (r *Registry) ListIntegrators() []string {
	return integrators.Names()
}

func (r *Registry) ListMetrics() []string {
	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics returns a fresh set of every registered metric for every
// neuron group in s.
func (r *Registry) DefaultMetrics(s *config.Settings) []network.Metric {
	kinds := r.ListMetrics()
	out := make([]network.Metric, 0, len(kinds)*len(s.Neurons))
	for _, group := range s.GroupNames() {
		for _, kind := range kinds {
			out = append(out, r.metrics[kind](group))
		}
	}
	return out
}

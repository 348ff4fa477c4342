// Package config holds the settings bundles that describe a network: neuron
// groups, the V1 afferent population, the projections between them and what
// to record.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDt         = 1e-4
	DefaultIntegrator = "rk4"
	DefaultEE         = 0.0
	DefaultEI         = -0.080

	// Afferents is the reserved name of the V1 input population.
	Afferents = "afferents"
)

// Monitor variable names accepted in the monitors section.
const (
	VarV       = "V"
	VarGeTotal = "Ge_total"
	VarGiTotal = "Gi_total"
	VarSpikes  = "spikes"
)

var ErrInvalidSettings = errors.New("config: invalid settings")

type Settings struct {
	Dt         float64                 `yaml:"dt,omitempty" json:"dt,omitempty"`
	Integrator string                  `yaml:"integrator,omitempty" json:"integrator,omitempty"`
	Seed       int64                   `yaml:"seed,omitempty" json:"seed,omitempty"`
	Neurons    map[string]NeuronParams `yaml:"neurons" json:"neurons"`
	Afferents  AfferentParams          `yaml:"afferents" json:"afferents"`
	Synapses   []SynapseParams         `yaml:"synapses" json:"synapses"`
	Monitors   map[string]string       `yaml:"monitors" json:"monitors"`
}

type NeuronParams struct {
	N       int     `yaml:"N" json:"N"`
	TauM    float64 `yaml:"tau_m" json:"tau_m"`
	TauE    float64 `yaml:"tau_e" json:"tau_e"`
	TauI    float64 `yaml:"tau_i" json:"tau_i"`
	Thresh  float64 `yaml:"thresh" json:"thresh"`
	Reset   float64 `yaml:"reset" json:"reset"`
	VRest   float64 `yaml:"V_rest" json:"V_rest"`
	Refract float64 `yaml:"refract" json:"refract"`
	// RIn is the input resistance in MOhm. When set, synaptic weights onto
	// the group are read as pS.
	RIn float64  `yaml:"R_in,omitempty" json:"R_in,omitempty"`
	EE  *float64 `yaml:"E_e,omitempty" json:"E_e,omitempty"`
	EI  *float64 `yaml:"E_i,omitempty" json:"E_i,omitempty"`
}

// ReversalE returns the excitatory reversal potential in volts.
func (p NeuronParams) ReversalE() float64 {
	if p.EE == nil {
		return DefaultEE
	}
	return *p.EE
}

// ReversalI returns the inhibitory reversal potential in volts.
func (p NeuronParams) ReversalI() float64 {
	if p.EI == nil {
		return DefaultEI
	}
	return *p.EI
}

// ConductanceScale converts synaptic weights into units of the leak
// conductance.
func (p NeuronParams) ConductanceScale() float64 {
	if p.RIn > 0 {
		return p.RIn * 1e-6 // MOhm * pS
	}
	return 1
}

type AfferentParams struct {
	N               int       `yaml:"N" json:"N"`
	UsePoisson      bool      `yaml:"use_poisson" json:"use_poisson"`
	ModulationRate  []float64 `yaml:"modulation_rate,omitempty" json:"modulation_rate,omitempty"`
	PeakRate        float64   `yaml:"peak_rate,omitempty" json:"peak_rate,omitempty"`
	SpikesPerSecond []float64 `yaml:"spikes_per_second,omitempty" json:"spikes_per_second,omitempty"`
	SimTime         float64   `yaml:"sim_time" json:"sim_time"`
}

type SynapseParams struct {
	Pre      string  `yaml:"pre" json:"pre"`
	Post     string  `yaml:"post" json:"post"`
	PConnect float64 `yaml:"p_connect" json:"p_connect"`
	D1       float64 `yaml:"d1" json:"d1"`
	D2       float64 `yaml:"d2" json:"d2"`
	F1       float64 `yaml:"f1" json:"f1"`
	F2       float64 `yaml:"f2" json:"f2"`
	TauD1    float64 `yaml:"tau_D1" json:"tau_D1"`
	TauD2    float64 `yaml:"tau_D2" json:"tau_D2"`
	TauF1    float64 `yaml:"tau_F1" json:"tau_F1"`
	TauF2    float64 `yaml:"tau_F2" json:"tau_F2"`
	WE       float64 `yaml:"w_e" json:"w_e"`
	WI       float64 `yaml:"w_i" json:"w_i"`
	Delay    float64 `yaml:"delay" json:"delay"`
}

// Key names the projection the way the monitors and logs refer to it.
func (s SynapseParams) Key() string {
	return s.Pre + "->" + s.Post
}

func Default() *Settings {
	return &Settings{
		Dt:         DefaultDt,
		Integrator: DefaultIntegrator,
		Neurons:    map[string]NeuronParams{},
		Monitors:   map[string]string{},
	}
}

func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Settings, error) {
	s := Default()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	return s, nil
}

func Save(path string, s *Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy so presets can be tweaked without touching the
// built-in tables.
func (s *Settings) Clone() *Settings {
	c := *s
	c.Neurons = make(map[string]NeuronParams, len(s.Neurons))
	for k, v := range s.Neurons {
		c.Neurons[k] = v
	}
	c.Afferents.ModulationRate = append([]float64(nil), s.Afferents.ModulationRate...)
	c.Afferents.SpikesPerSecond = append([]float64(nil), s.Afferents.SpikesPerSecond...)
	c.Synapses = append([]SynapseParams(nil), s.Synapses...)
	c.Monitors = make(map[string]string, len(s.Monitors))
	for k, v := range s.Monitors {
		c.Monitors[k] = v
	}
	return &c
}

// GroupNames returns the neuron group names in sorted order.
func (s *Settings) GroupNames() []string {
	names := make([]string, 0, len(s.Neurons))
	for name := range s.Neurons {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MonitorVars splits the monitor string of a group into variable names.
func (s *Settings) MonitorVars(group string) []string {
	return strings.Fields(s.Monitors[group])
}

// Records reports whether variable v is monitored on group.
func (s *Settings) Records(group, v string) bool {
	for _, m := range s.MonitorVars(group) {
		if m == v {
			return true
		}
	}
	return false
}

func (s *Settings) Validate() error {
	if s.Dt <= 0 {
		return invalid("dt must be positive, got %g", s.Dt)
	}
	if len(s.Neurons) == 0 {
		return invalid("no neuron groups defined")
	}

	for _, name := range s.GroupNames() {
		if name == Afferents {
			return invalid("neuron group may not be named %q", Afferents)
		}
		if err := s.Neurons[name].validate(); err != nil {
			return fmt.Errorf("%w: neuron group %s: %v", ErrInvalidSettings, name, err)
		}
	}

	a := s.Afferents
	if a.N <= 0 {
		return invalid("afferents: N must be positive, got %d", a.N)
	}
	if a.SimTime <= 0 {
		return invalid("afferents: sim_time must be positive, got %g", a.SimTime)
	}
	if a.UsePoisson && a.PeakRate < 0 {
		return invalid("afferents: peak_rate must not be negative")
	}
	for _, r := range a.ModulationRate {
		if r < 0 {
			return invalid("afferents: modulation_rate must not be negative, got %g", r)
		}
	}
	for _, r := range a.SpikesPerSecond {
		if r <= 0 {
			return invalid("afferents: spikes_per_second must be positive, got %g", r)
		}
	}
	if len(s.Conditions()) == 0 {
		return invalid("afferents: no stimulus conditions (set modulation_rate or spikes_per_second)")
	}

	seen := make(map[string]bool, len(s.Synapses))
	for _, syn := range s.Synapses {
		if err := s.validateSynapse(syn); err != nil {
			return fmt.Errorf("%w: synapse %s: %v", ErrInvalidSettings, syn.Key(), err)
		}
		if seen[syn.Key()] {
			return invalid("synapse %s defined twice", syn.Key())
		}
		seen[syn.Key()] = true
	}

	for group, mon := range s.Monitors {
		_, isGroup := s.Neurons[group]
		if !isGroup && group != Afferents {
			return invalid("monitor on unknown group %q", group)
		}
		for _, v := range strings.Fields(mon) {
			switch v {
			case VarSpikes:
			case VarV, VarGeTotal, VarGiTotal:
				if !isGroup {
					return invalid("afferents can only record spikes, got %q", v)
				}
			default:
				return invalid("unknown monitor variable %q on %s", v, group)
			}
		}
	}

	return nil
}

func (p NeuronParams) validate() error {
	switch {
	case p.N <= 0:
		return fmt.Errorf("N must be positive, got %d", p.N)
	case p.TauM <= 0 || p.TauE <= 0 || p.TauI <= 0:
		return errors.New("time constants must be positive")
	case p.Refract < 0:
		return errors.New("refract must not be negative")
	case p.Reset >= p.Thresh:
		return fmt.Errorf("reset (%g) must be below thresh (%g)", p.Reset, p.Thresh)
	case p.RIn < 0:
		return errors.New("R_in must not be negative")
	}
	return nil
}

func (s *Settings) validateSynapse(syn SynapseParams) error {
	if syn.Pre != Afferents {
		if _, ok := s.Neurons[syn.Pre]; !ok {
			return fmt.Errorf("unknown presynaptic group %q", syn.Pre)
		}
	}
	if _, ok := s.Neurons[syn.Post]; !ok {
		return fmt.Errorf("unknown postsynaptic group %q", syn.Post)
	}
	if syn.PConnect < 0 || syn.PConnect > 1 || math.IsNaN(syn.PConnect) {
		return fmt.Errorf("p_connect must be in [0, 1], got %g", syn.PConnect)
	}
	if syn.TauD1 <= 0 || syn.TauD2 <= 0 || syn.TauF1 <= 0 || syn.TauF2 <= 0 {
		return errors.New("STP time constants must be positive")
	}
	if syn.D1 < 0 || syn.D2 < 0 || syn.F1 < 0 || syn.F2 < 0 {
		return errors.New("STP factors must not be negative")
	}
	if syn.Delay < 0 {
		return errors.New("delay must not be negative")
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidSettings, fmt.Sprintf(format, args...))
}

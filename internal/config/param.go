package config

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownParam = errors.New("config: unknown parameter")

type accessor struct {
	get func() float64
	set func(float64)
}

func floatField(p *float64) accessor {
	return accessor{
		get: func() float64 { return *p },
		set: func(v float64) { *p = v },
	}
}

func intField(p *int) accessor {
	return accessor{
		get: func() float64 { return float64(*p) },
		set: func(v float64) { *p = int(v) },
	}
}

// Param reads a scalar setting addressed by a dotted path. See SetParam.
func (s *Settings) Param(path string) (float64, error) {
	a, _, err := s.lookup(path)
	if err != nil {
		return 0, err
	}
	return a.get(), nil
}

// SetParam assigns a scalar setting addressed by a dotted path: dt, seed,
// afferents.<field>, neurons.<group>.<field> or synapses.<pre>-><post>.<field>.
// Field names are the ones used in settings files.
func (s *Settings) SetParam(path string, v float64) error {
	a, commit, err := s.lookup(path)
	if err != nil {
		return err
	}
	a.set(v)
	commit()
	return nil
}

func (s *Settings) lookup(path string) (accessor, func(), error) {
	noop := func() {}
	unknown := func() (accessor, func(), error) {
		return accessor{}, noop, fmt.Errorf("%w: %q", ErrUnknownParam, path)
	}

	parts := strings.Split(path, ".")
	switch parts[0] {
	case "dt":
		if len(parts) == 1 {
			return floatField(&s.Dt), noop, nil
		}
	case "seed":
		if len(parts) == 1 {
			return accessor{
				get: func() float64 { return float64(s.Seed) },
				set: func(v float64) { s.Seed = int64(v) },
			}, noop, nil
		}
	case "afferents":
		if len(parts) == 2 {
			if a, ok := afferentField(&s.Afferents, parts[1]); ok {
				return a, noop, nil
			}
		}
	case "neurons":
		if len(parts) == 3 {
			p, ok := s.Neurons[parts[1]]
			if !ok {
				return unknown()
			}
			if a, ok := neuronField(&p, parts[2]); ok {
				return a, func() { s.Neurons[parts[1]] = p }, nil
			}
		}
	case "synapses":
		if len(parts) == 3 {
			for i := range s.Synapses {
				if s.Synapses[i].Key() != parts[1] {
					continue
				}
				if a, ok := synapseField(&s.Synapses[i], parts[2]); ok {
					return a, noop, nil
				}
			}
		}
	}
	return unknown()
}

func afferentField(p *AfferentParams, name string) (accessor, bool) {
	switch name {
	case "N":
		return intField(&p.N), true
	case "peak_rate":
		return floatField(&p.PeakRate), true
	case "sim_time":
		return floatField(&p.SimTime), true
	}
	return accessor{}, false
}

func neuronField(p *NeuronParams, name string) (accessor, bool) {
	switch name {
	case "N":
		return intField(&p.N), true
	case "tau_m":
		return floatField(&p.TauM), true
	case "tau_e":
		return floatField(&p.TauE), true
	case "tau_i":
		return floatField(&p.TauI), true
	case "thresh":
		return floatField(&p.Thresh), true
	case "reset":
		return floatField(&p.Reset), true
	case "V_rest":
		return floatField(&p.VRest), true
	case "refract":
		return floatField(&p.Refract), true
	case "R_in":
		return floatField(&p.RIn), true
	case "E_e":
		return reversalField(&p.EE, DefaultEE), true
	case "E_i":
		return reversalField(&p.EI, DefaultEI), true
	}
	return accessor{}, false
}

func reversalField(p **float64, def float64) accessor {
	return accessor{
		get: func() float64 {
			if *p == nil {
				return def
			}
			return **p
		},
		set: func(v float64) { *p = &v },
	}
}

func synapseField(p *SynapseParams, name string) (accessor, bool) {
	fields := map[string]*float64{
		"p_connect": &p.PConnect,
		"d1":        &p.D1,
		"d2":        &p.D2,
		"f1":        &p.F1,
		"f2":        &p.F2,
		"tau_D1":    &p.TauD1,
		"tau_D2":    &p.TauD2,
		"tau_F1":    &p.TauF1,
		"tau_F2":    &p.TauF2,
		"w_e":       &p.WE,
		"w_i":       &p.WI,
		"delay":     &p.Delay,
	}
	f, ok := fields[name]
	if !ok {
		return accessor{}, false
	}
	return floatField(f), true
}

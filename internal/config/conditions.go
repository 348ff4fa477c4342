package config

import (
	"fmt"
	"strconv"
)

type StimulusKind string

const (
	// Modulation drives Poisson afferents with a sinusoidal rate.
	Modulation StimulusKind = "modulation"
	// Pulse drives all afferents with a regular train.
	Pulse StimulusKind = "pulse"
)

// Condition is one run of a settings bundle at a single stimulus value.
type Condition struct {
	Index int          `json:"index" yaml:"index"`
	Label string       `json:"label" yaml:"label"`
	Kind  StimulusKind `json:"kind" yaml:"kind"`
	Rate  float64      `json:"rate" yaml:"rate"`
}

// Conditions expands the afferent section into the runs it describes, in
// the order they are listed.
func (s *Settings) Conditions() []Condition {
	var (
		kind   StimulusKind
		rates  []float64
		prefix string
	)
	if s.Afferents.UsePoisson {
		kind, rates, prefix = Modulation, s.Afferents.ModulationRate, "mod"
	} else {
		kind, rates, prefix = Pulse, s.Afferents.SpikesPerSecond, "pulse"
	}

	conds := make([]Condition, len(rates))
	for i, r := range rates {
		conds[i] = Condition{
			Index: i,
			Label: fmt.Sprintf("%02d_%s_%sHz", i, prefix, strconv.FormatFloat(r, 'g', -1, 64)),
			Kind:  kind,
			Rate:  r,
		}
	}
	return conds
}

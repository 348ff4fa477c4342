package analysis

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/hvasim/internal/config"
	"github.com/san-kum/hvasim/internal/monitor"
	"github.com/san-kum/hvasim/internal/storage"
)

var ErrUnknownMonitorType = errors.New("unknown monitor type")

// ParseMonitorType maps v, ge_total and gi_total (any case) to the
// recorded variable name.
func ParseMonitorType(monType string) (string, error) {
	switch strings.ToLower(monType) {
	case "v":
		return config.VarV, nil
	case "ge_total":
		return config.VarGeTotal, nil
	case "gi_total":
		return config.VarGiTotal, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMonitorType, monType)
}

// Trace is one analog monitor. Both slices are empty when the group was
// not monitored for the variable.
type Trace struct {
	Time []float64
	Data [][]float64
}

func (t Trace) Empty() bool { return len(t.Time) == 0 }

// Mean averages the trace across neurons.
func (t Trace) Mean() []float64 {
	out := make([]float64, len(t.Time))
	if len(t.Data) == 0 {
		return out
	}
	for _, row := range t.Data {
		for j := range out {
			if j < len(row) {
				out[j] += row[j]
			}
		}
	}
	for j := range out {
		out[j] /= float64(len(t.Data))
	}
	return out
}

type AnalogData struct {
	Var        string
	Conditions []config.Condition
	Groups     []string
	Traces     map[string]map[string]Trace
}

func (d *AnalogData) Trace(condition, group string) Trace {
	return d.Traces[condition][group]
}

// ExtractAnalog collects one variable for every neuron group of every
// bundle.
func ExtractAnalog(bundles []*storage.Bundle, monType string) (*AnalogData, error) {
	variable, err := ParseMonitorType(monType)
	if err != nil {
		return nil, err
	}

	out := &AnalogData{
		Var:        variable,
		Conditions: conditions(bundles),
		Traces:     make(map[string]map[string]Trace, len(bundles)),
	}
	for _, b := range bundles {
		traces := make(map[string]Trace)
		for _, group := range groupNames(b) {
			var tr Trace
			if b.Net != nil {
				if m, ok := b.Net.Analog(monitor.AnalogName(group, variable)); ok {
					tr = Trace{Time: m.T, Data: m.Data}
				}
			}
			traces[group] = tr
		}
		out.Traces[b.Condition.Label] = traces
	}
	out.Groups = uniqueGroups(bundles)
	return out, nil
}

// SpikeTrain is one spike monitor with its PSTH. PSTH is nil when the
// group was not monitored for spikes.
type SpikeTrain struct {
	N     int
	Times []float64
	Units []int
	PSTH  *Histogram
}

func (s SpikeTrain) Empty() bool { return s.PSTH == nil }

type SpikeData struct {
	Binsize    float64
	Conditions []config.Condition
	Groups     []string
	Trains     map[string]map[string]SpikeTrain
}

func (d *SpikeData) Train(condition, group string) SpikeTrain {
	return d.Trains[condition][group]
}

// ExtractSpikes collects the spike monitors of every neuron group and bins
// them over each bundle's simulated time.
func ExtractSpikes(bundles []*storage.Bundle, binsize float64) (*SpikeData, error) {
	out := &SpikeData{
		Binsize:    binsize,
		Conditions: conditions(bundles),
		Trains:     make(map[string]map[string]SpikeTrain, len(bundles)),
	}
	for _, b := range bundles {
		trains := make(map[string]SpikeTrain)
		for _, group := range groupNames(b) {
			var tr SpikeTrain
			if b.Net != nil {
				if m, ok := b.Net.Spike(monitor.SpikeName(group)); ok {
					h, err := PSTH(m.T, m.I, binsize, b.SimTime())
					if err != nil {
						return nil, fmt.Errorf("%s %s: %w", b.Condition.Label, group, err)
					}
					h.N = m.N
					tr = SpikeTrain{N: m.N, Times: m.T, Units: m.I, PSTH: h}
				}
			}
			trains[group] = tr
		}
		out.Trains[b.Condition.Label] = trains
	}
	out.Groups = uniqueGroups(bundles)
	return out, nil
}

func conditions(bundles []*storage.Bundle) []config.Condition {
	out := make([]config.Condition, len(bundles))
	for i, b := range bundles {
		out[i] = b.Condition
	}
	return out
}

func groupNames(b *storage.Bundle) []string {
	if b.Settings == nil {
		return nil
	}
	return b.Settings.GroupNames()
}

func uniqueGroups(bundles []*storage.Bundle) []string {
	seen := make(map[string]bool)
	var names []string
	for _, b := range bundles {
		for _, g := range groupNames(b) {
			if !seen[g] {
				seen[g] = true
				names = append(names, g)
			}
		}
	}
	sort.Strings(names)
	return names
}

// Package monitor holds recorded time series keyed by monitor name.
//
// Names follow the "<group>_<var>_mon" convention: HVA_PY_V_mon,
// HVA_PY_Ge_total_mon, HVA_PY_Gi_total_mon and HVA_PY_spike_mon.
package monitor

import (
	"fmt"
	"sort"
)

const spikeSuffix = "_spike_mon"

// AnalogName returns the monitor name for a continuous variable.
func AnalogName(group, variable string) string {
	return group + "_" + variable + "_mon"
}

// SpikeName returns the monitor name for a group's spikes.
func SpikeName(group string) string {
	return group + spikeSuffix
}

// AnalogMonitor samples one variable of every neuron in a group.
// Data is indexed [neuron][sample] and every row has len(T) samples.
type AnalogMonitor struct {
	Var  string      `json:"var"`
	T    []float64   `json:"t"`
	Data [][]float64 `json:"data"`
}

func NewAnalogMonitor(variable string, n, capacity int) *AnalogMonitor {
	m := &AnalogMonitor{
		Var:  variable,
		T:    make([]float64, 0, capacity),
		Data: make([][]float64, n),
	}
	for i := range m.Data {
		m.Data[i] = make([]float64, 0, capacity)
	}
	return m
}

// Record appends one sample. values must hold one entry per neuron.
func (m *AnalogMonitor) Record(t float64, values []float64) {
	m.T = append(m.T, t)
	for i := range m.Data {
		m.Data[i] = append(m.Data[i], values[i])
	}
}

// SpikeMonitor stores spike events as parallel time and unit index slices.
type SpikeMonitor struct {
	N int       `json:"n"`
	T []float64 `json:"t"`
	I []int     `json:"i"`
}

func NewSpikeMonitor(n int) *SpikeMonitor {
	return &SpikeMonitor{N: n}
}

func (m *SpikeMonitor) Record(t float64, unit int) {
	m.T = append(m.T, t)
	m.I = append(m.I, unit)
}

func (m *SpikeMonitor) Count() int { return len(m.T) }

// Validate checks that the event slices line up.
func (m *SpikeMonitor) Validate() error {
	if len(m.T) != len(m.I) {
		return fmt.Errorf("spike monitor: %d times but %d unit indices", len(m.T), len(m.I))
	}
	return nil
}

// Recording is the result bundle of one simulation run.
type Recording struct {
	Analogs map[string]*AnalogMonitor `json:"analog"`
	Spikes  map[string]*SpikeMonitor  `json:"spikes"`
}

func NewRecording() *Recording {
	return &Recording{
		Analogs: make(map[string]*AnalogMonitor),
		Spikes:  make(map[string]*SpikeMonitor),
	}
}

func (r *Recording) Analog(name string) (*AnalogMonitor, bool) {
	m, ok := r.Analogs[name]
	return m, ok
}

func (r *Recording) Spike(name string) (*SpikeMonitor, bool) {
	m, ok := r.Spikes[name]
	return m, ok
}

func (r *Recording) Has(name string) bool {
	_, a := r.Analogs[name]
	_, s := r.Spikes[name]
	return a || s
}

// Names returns every monitor name in sorted order.
func (r *Recording) Names() []string {
	names := make([]string, 0, len(r.Analogs)+len(r.Spikes))
	for name := range r.Analogs {
		names = append(names, name)
	}
	for name := range r.Spikes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

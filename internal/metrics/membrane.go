package metrics

import (
	"math"

	"github.com/san-kum/hvasim/internal/dynamo"
)

// MeanVm averages the membrane potential of a group over neurons and steps.
type MeanVm struct {
	name    string
	group   string
	sum     float64
	samples int
}

func NewMeanVm(group string) *MeanVm {
	return &MeanVm{name: group + "_mean_vm", group: group}
}

func (m *MeanVm) Name() string { return m.name }

func (m *MeanVm) Observe(group string, x dynamo.State, _ []int, _ float64) {
	if group != m.group {
		return
	}
	n := len(x) / 3
	for _, v := range x[:n] {
		m.sum += v
	}
	m.samples += n
}

func (m *MeanVm) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanVm) Reset() {
	m.sum = 0
	m.samples = 0
}

// PeakConductance tracks the largest excitatory conductance seen on any
// neuron of a group.
type PeakConductance struct {
	name  string
	group string
	peak  float64
}

func NewPeakConductance(group string) *PeakConductance {
	return &PeakConductance{name: group + "_peak_ge", group: group}
}

func (p *PeakConductance) Name() string { return p.name }

func (p *PeakConductance) Observe(group string, x dynamo.State, _ []int, _ float64) {
	if group != p.group {
		return
	}
	n := len(x) / 3
	for _, g := range x[n : 2*n] {
		p.peak = math.Max(p.peak, g)
	}
}

func (p *PeakConductance) Value() float64 { return p.peak }
func (p *PeakConductance) Reset()         { p.peak = 0 }

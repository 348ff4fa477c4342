package metrics

import "github.com/san-kum/hvasim/internal/dynamo"

// FiringRate is the mean rate of a group in spikes per neuron per second.
type FiringRate struct {
	name   string
	group  string
	n      int
	spikes int
	last   float64
}

func NewFiringRate(group string) *FiringRate {
	return &FiringRate{
		name:  group + "_rate",
		group: group,
	}
}

func (f *FiringRate) Name() string { return f.name }

func (f *FiringRate) Observe(group string, x dynamo.State, spikes []int, t float64) {
	if group != f.group {
		return
	}
	f.n = len(x) / 3
	f.spikes += len(spikes)
	f.last = t
}

func (f *FiringRate) Value() float64 {
	if f.n == 0 || f.last <= 0 {
		return 0
	}
	return float64(f.spikes) / (float64(f.n) * f.last)
}

func (f *FiringRate) Reset() {
	f.n = 0
	f.spikes = 0
	f.last = 0
}

package network

import (
	"math"
	"math/rand"

	"github.com/san-kum/hvasim/internal/config"
)

// AfferentSource generates the V1 input spikes for one condition.
type AfferentSource struct {
	n    int
	cond config.Condition
	peak float64
	rng  *rand.Rand

	nextPulse float64
}

func NewAfferentSource(p config.AfferentParams, cond config.Condition, rng *rand.Rand) *AfferentSource {
	return &AfferentSource{
		n:    p.N,
		cond: cond,
		peak: p.PeakRate,
		rng:  rng,
	}
}

func (a *AfferentSource) N() int { return a.n }

// Rate is the instantaneous firing rate of each afferent in spikes/s.
// A modulation rate of 0 Hz gives a constant peak/2.
func (a *AfferentSource) Rate(t float64) float64 {
	if a.cond.Kind == config.Pulse {
		return a.cond.Rate
	}
	return 0.5 * a.peak * (1 + math.Sin(2*math.Pi*a.cond.Rate*t))
}

// Emit appends the afferents spiking in [t, t+dt) to out.
func (a *AfferentSource) Emit(t, dt float64, out []int) []int {
	if a.cond.Kind == config.Pulse {
		if a.cond.Rate <= 0 || t+dt/2 < a.nextPulse {
			return out
		}
		a.nextPulse += 1 / a.cond.Rate
		for i := 0; i < a.n; i++ {
			out = append(out, i)
		}
		return out
	}

	p := a.Rate(t) * dt
	if p <= 0 {
		return out
	}
	for i := 0; i < a.n; i++ {
		if a.rng.Float64() < p {
			out = append(out, i)
		}
	}
	return out
}

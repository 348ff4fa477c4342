package network

import "math"

// Plasticity holds the two depression and two facilitation factors of one
// synapse. Every factor relaxes back to 1 between presynaptic spikes.
type Plasticity struct {
	D1, D2 float64
	F1, F2 float64
	last   float64
}

func NewPlasticity() Plasticity {
	return Plasticity{D1: 1, D2: 1, F1: 1, F2: 1}
}

// STPParams are the per-projection constants of the plasticity model.
type STPParams struct {
	D1, D2       float64
	F1, F2       float64
	TauD1, TauD2 float64
	TauF1, TauF2 float64
}

// Static reports whether the parameters leave the synapse unchanged by
// activity.
func (p STPParams) Static() bool {
	return p.D1 == 1 && p.D2 == 1 && p.F1 == 0 && p.F2 == 0
}

// Transmit relaxes the factors to time t, returns the release amplitude
// D1*D2*F1*F2 and then applies the spike's depression and facilitation.
func (s *Plasticity) Transmit(p STPParams, t float64) float64 {
	if elapsed := t - s.last; elapsed > 0 {
		s.D1 = 1 - (1-s.D1)*math.Exp(-elapsed/p.TauD1)
		s.D2 = 1 - (1-s.D2)*math.Exp(-elapsed/p.TauD2)
		s.F1 = 1 + (s.F1-1)*math.Exp(-elapsed/p.TauF1)
		s.F2 = 1 + (s.F2-1)*math.Exp(-elapsed/p.TauF2)
	}
	s.last = t

	amp := s.D1 * s.D2 * s.F1 * s.F2

	s.D1 *= p.D1
	s.D2 *= p.D2
	s.F1 += p.F1
	s.F2 += p.F2
	return amp
}

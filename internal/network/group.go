package network

import (
	"github.com/san-kum/hvasim/internal/config"
	"github.com/san-kum/hvasim/internal/dynamo"
)

// Group is a population of conductance-based LIF neurons.
//
// State layout: [V_0..V_{N-1}, Ge_0..Ge_{N-1}, Gi_0..Gi_{N-1}].
// Conductances are kept in weight units and scaled on use, so Ge_total
// monitors read in the same units as w_e.
type Group struct {
	Name   string
	params config.NeuronParams
	n      int
	scale  float64
	eE, eI float64

	refractUntil []float64
}

func NewGroup(name string, p config.NeuronParams) *Group {
	g := &Group{
		Name:         name,
		params:       p,
		n:            p.N,
		scale:        p.ConductanceScale(),
		eE:           p.ReversalE(),
		eI:           p.ReversalI(),
		refractUntil: make([]float64, p.N),
	}
	for i := range g.refractUntil {
		g.refractUntil[i] = -1
	}
	return g
}

func (g *Group) N() int        { return g.n }
func (g *Group) StateDim() int { return 3 * g.n }

// InitialState puts every neuron at rest with closed synapses.
func (g *Group) InitialState() dynamo.State {
	x := make(dynamo.State, g.StateDim())
	for i := 0; i < g.n; i++ {
		x[i] = g.params.VRest
	}
	return x
}

func (g *Group) V(x dynamo.State) []float64  { return x[:g.n] }
func (g *Group) Ge(x dynamo.State) []float64 { return x[g.n : 2*g.n] }
func (g *Group) Gi(x dynamo.State) []float64 { return x[2*g.n : 3*g.n] }

// Refractory reports whether neuron i is clamped at time t.
func (g *Group) Refractory(i int, t float64) bool {
	return t < g.refractUntil[i]
}

// Derive writes the time derivative of the group state into dx.
func (g *Group) Derive(dx, x dynamo.State, t float64) {
	p := g.params
	n := g.n
	for i := 0; i < n; i++ {
		v, ge, gi := x[i], x[n+i], x[2*n+i]

		if g.Refractory(i, t) {
			dx[i] = 0
		} else {
			drive := (p.VRest - v) + g.scale*(ge*(g.eE-v)+gi*(g.eI-v))
			dx[i] = drive / p.TauM
		}
		dx[n+i] = -ge / p.TauE
		dx[2*n+i] = -gi / p.TauI
	}
}

// Threshold resets every neuron above threshold at time t and appends its
// index to spikes.
func (g *Group) Threshold(x dynamo.State, t float64, spikes []int) []int {
	p := g.params
	for i := 0; i < g.n; i++ {
		if g.Refractory(i, t) {
			x[i] = p.Reset
			continue
		}
		if x[i] > p.Thresh {
			x[i] = p.Reset
			g.refractUntil[i] = t + p.Refract
			spikes = append(spikes, i)
		}
	}
	return spikes
}

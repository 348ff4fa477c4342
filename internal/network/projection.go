package network

import (
	"math"
	"math/rand"

	"github.com/san-kum/hvasim/internal/config"
	"github.com/san-kum/hvasim/internal/dynamo"
)

// Projection connects a presynaptic population to a postsynaptic group.
type Projection struct {
	Params config.SynapseParams
	stp    STPParams
	post   *Group

	// targets[pre] lists synapse indices; synPost[syn] is the post neuron.
	targets [][]int
	synPost []int
	plastic []Plasticity // nil when the synapses are static

	delaySteps int
	queue      [][]int
}

// NewProjection draws connectivity with probability p_connect for every
// pre/post pair, visiting pairs in pre-major order.
func NewProjection(p config.SynapseParams, preN int, post *Group, dt float64, rng *rand.Rand) *Projection {
	pr := &Projection{
		Params: p,
		stp: STPParams{
			D1: p.D1, D2: p.D2, F1: p.F1, F2: p.F2,
			TauD1: p.TauD1, TauD2: p.TauD2, TauF1: p.TauF1, TauF2: p.TauF2,
		},
		post:       post,
		targets:    make([][]int, preN),
		delaySteps: int(math.Round(p.Delay / dt)),
	}
	pr.queue = make([][]int, pr.delaySteps+2)

	for i := 0; i < preN; i++ {
		for j := 0; j < post.N(); j++ {
			if rng.Float64() < p.PConnect {
				pr.targets[i] = append(pr.targets[i], len(pr.synPost))
				pr.synPost = append(pr.synPost, j)
			}
		}
	}
	if pr.stp.Static() {
		return pr
	}
	pr.plastic = make([]Plasticity, len(pr.synPost))
	for i := range pr.plastic {
		pr.plastic[i] = NewPlasticity()
	}
	return pr
}

func (p *Projection) Synapses() int   { return len(p.synPost) }
func (p *Projection) DelaySteps() int { return p.delaySteps }
func (p *Projection) Targets(pre int) []int {
	out := make([]int, len(p.targets[pre]))
	for i, syn := range p.targets[pre] {
		out[i] = p.synPost[syn]
	}
	return out
}

// Schedule queues presynaptic spikes emitted at step for delivery after
// the axonal delay.
func (p *Projection) Schedule(step int, pre []int) {
	if len(pre) == 0 {
		return
	}
	slot := (step + p.delaySteps) % len(p.queue)
	p.queue[slot] = append(p.queue[slot], pre...)
}

// Deliver transmits every event due at step into the post group's
// conductances in x.
func (p *Projection) Deliver(step int, t float64, x dynamo.State) {
	slot := step % len(p.queue)
	due := p.queue[slot]
	if len(due) == 0 {
		return
	}

	ge := p.post.Ge(x)
	gi := p.post.Gi(x)
	for _, pre := range due {
		for _, syn := range p.targets[pre] {
			amp := 1.0
			if p.plastic != nil {
				amp = p.plastic[syn].Transmit(p.stp, t)
			}
			j := p.synPost[syn]
			ge[j] += p.Params.WE * amp
			gi[j] += p.Params.WI * amp
		}
	}
	p.queue[slot] = due[:0]
}

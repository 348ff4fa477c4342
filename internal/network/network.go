package network

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/san-kum/hvasim/internal/config"
	"github.com/san-kum/hvasim/internal/dynamo"
	"github.com/san-kum/hvasim/internal/logging"
	"github.com/san-kum/hvasim/internal/monitor"
)

// Metric observes every group after each step. The spikes slice is reused
// between calls. Implementations live in package metrics.
type Metric interface {
	Name() string
	Observe(group string, x dynamo.State, spikes []int, t float64)
	Value() float64
	Reset()
}

type Result struct {
	Recording *monitor.Recording
	Metrics   map[string]float64
	Steps     int
}

// ProgressFunc receives the completed fraction of a run.
type ProgressFunc func(fraction float64)

type Network struct {
	settings *config.Settings
	cond     config.Condition
	dt       float64
	steps    int

	groups      []*Group
	states      []dynamo.State
	afferents   *AfferentSource
	projections []*Projection
	outgoing    map[string][]*Projection

	integ   dynamo.Integrator
	metrics []Metric
	log     *slog.Logger
}

type Option func(*Network)

func WithLogger(l *slog.Logger) Option {
	return func(n *Network) { n.log = l }
}

func WithMetrics(ms ...Metric) Option {
	return func(n *Network) { n.metrics = append(n.metrics, ms...) }
}

// New builds the network described by s for one condition. Connectivity
// and afferent spikes are drawn from a generator seeded with seed.
func New(s *config.Settings, cond config.Condition, integ dynamo.Integrator, seed int64, opts ...Option) (*Network, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if integ == nil {
		return nil, fmt.Errorf("network: nil integrator")
	}

	rng := rand.New(rand.NewSource(seed))
	n := &Network{
		settings: s,
		cond:     cond,
		dt:       s.Dt,
		steps:    int(math.Round(s.Afferents.SimTime / s.Dt)),
		outgoing: make(map[string][]*Projection),
		integ:    integ,
		log:      logging.Discard(),
	}
	for _, opt := range opts {
		opt(n)
	}

	byName := make(map[string]*Group, len(s.Neurons))
	for _, name := range s.GroupNames() {
		g := NewGroup(name, s.Neurons[name])
		byName[name] = g
		n.groups = append(n.groups, g)
		n.states = append(n.states, g.InitialState())
	}

	n.afferents = NewAfferentSource(s.Afferents, cond, rng)

	for _, syn := range s.Synapses {
		preN := s.Afferents.N
		if syn.Pre != config.Afferents {
			preN = s.Neurons[syn.Pre].N
		}
		p := NewProjection(syn, preN, byName[syn.Post], s.Dt, rng)
		n.projections = append(n.projections, p)
		n.outgoing[syn.Pre] = append(n.outgoing[syn.Pre], p)
		n.log.Debug("projection built",
			"synapse", syn.Key(),
			"synapses", p.Synapses(),
			"delay_steps", p.DelaySteps())
	}

	return n, nil
}

func (n *Network) Groups() []*Group           { return n.groups }
func (n *Network) Projections() []*Projection { return n.projections }
func (n *Network) Steps() int                 { return n.steps }

func (n *Network) newRecording() *monitor.Recording {
	rec := monitor.NewRecording()
	for _, g := range n.groups {
		for _, v := range []string{config.VarV, config.VarGeTotal, config.VarGiTotal} {
			if n.settings.Records(g.Name, v) {
				rec.Analogs[monitor.AnalogName(g.Name, v)] = monitor.NewAnalogMonitor(v, g.N(), n.steps)
			}
		}
		if n.settings.Records(g.Name, config.VarSpikes) {
			rec.Spikes[monitor.SpikeName(g.Name)] = monitor.NewSpikeMonitor(g.N())
		}
	}
	if n.settings.Records(config.Afferents, config.VarSpikes) {
		rec.Spikes[monitor.SpikeName(config.Afferents)] = monitor.NewSpikeMonitor(n.afferents.N())
	}
	return rec
}

// Run integrates the network from t=0 to sim_time. progress may be nil.
func (n *Network) Run(ctx context.Context, progress ProgressFunc) (*Result, error) {
	for gi, g := range n.groups {
		if err := dynamo.CheckDim(g, n.states[gi]); err != nil {
			return nil, fmt.Errorf("%s: %w", g.Name, err)
		}
	}

	rec := n.newRecording()
	for _, m := range n.metrics {
		m.Reset()
	}

	affMon, _ := rec.Spike(monitor.SpikeName(config.Afferents))
	reportEvery := n.steps / 100
	if reportEvery == 0 {
		reportEvery = 1
	}

	var affSpikes, spikes []int
	for step := 0; step < n.steps; step++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}

		t := float64(step) * n.dt

		affSpikes = n.afferents.Emit(t, n.dt, affSpikes[:0])
		if affMon != nil {
			for _, i := range affSpikes {
				affMon.Record(t, i)
			}
		}
		for _, p := range n.outgoing[config.Afferents] {
			p.Schedule(step, affSpikes)
		}

		for gi, g := range n.groups {
			for _, p := range n.projections {
				if p.post == g {
					p.Deliver(step, t, n.states[gi])
				}
			}
		}

		for gi, g := range n.groups {
			n.sample(rec, g, n.states[gi], t)
		}

		for gi, g := range n.groups {
			x := n.states[gi]
			n.integ.Step(g, x, t, n.dt)
			if !x.IsValid() {
				return nil, &dynamo.SimulationError{Step: step, Time: t, Group: g.Name, Wrapped: dynamo.ErrInvalidState}
			}

			tNext := t + n.dt
			spikes = g.Threshold(x, tNext, spikes[:0])

			if mon, ok := rec.Spike(monitor.SpikeName(g.Name)); ok {
				for _, i := range spikes {
					mon.Record(tNext, i)
				}
			}
			for _, p := range n.outgoing[g.Name] {
				p.Schedule(step+1, spikes)
			}
			for _, m := range n.metrics {
				m.Observe(g.Name, x, spikes, tNext)
			}
		}

		if progress != nil && (step+1)%reportEvery == 0 {
			progress(float64(step+1) / float64(n.steps))
		}
	}

	res := &Result{
		Recording: rec,
		Metrics:   make(map[string]float64, len(n.metrics)),
		Steps:     n.steps,
	}
	for _, m := range n.metrics {
		res.Metrics[m.Name()] = m.Value()
	}
	return res, nil
}

func (n *Network) sample(rec *monitor.Recording, g *Group, x dynamo.State, t float64) {
	if m, ok := rec.Analog(monitor.AnalogName(g.Name, config.VarV)); ok {
		m.Record(t, g.V(x))
	}
	if m, ok := rec.Analog(monitor.AnalogName(g.Name, config.VarGeTotal)); ok {
		m.Record(t, g.Ge(x))
	}
	if m, ok := rec.Analog(monitor.AnalogName(g.Name, config.VarGiTotal)); ok {
		m.Record(t, g.Gi(x))
	}
}

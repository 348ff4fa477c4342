package network

import (
	"context"
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/hvasim/internal/config"
	"github.com/san-kum/hvasim/internal/dynamo"
	"github.com/san-kum/hvasim/internal/integrators"
	"github.com/san-kum/hvasim/internal/monitor"
)

// pulseSettings drives one silent cell (threshold out of reach) from one
// afferent so the conductance trace only reflects plasticity.
func pulseSettings(d1, f1 float64) *config.Settings {
	s := config.Default()
	s.Neurons["PY"] = config.NeuronParams{
		N: 1, TauM: 0.020, TauE: 0.0005, TauI: 0.010,
		Thresh: 10, Reset: -0.050, VRest: -0.075, Refract: 0.001,
	}
	s.Afferents = config.AfferentParams{N: 1, SpikesPerSecond: []float64{10}, SimTime: 0.5}
	s.Synapses = []config.SynapseParams{{
		Pre: config.Afferents, Post: "PY", PConnect: 1,
		D1: d1, D2: 1, F1: f1,
		TauD1: 1e9, TauD2: 1e9, TauF1: 1e9, TauF2: 1e9,
		WE: 1,
	}}
	s.Monitors = map[string]string{"PY": "V Ge_total spikes", config.Afferents: "spikes"}
	return s
}

func drivenSettings() *config.Settings {
	s := config.GetPreset("ff_hva_only")
	s.Afferents.SimTime = 0.5
	s.Afferents.N = 200
	for i := range s.Synapses {
		s.Synapses[i].PConnect = 1
		s.Synapses[i].WE = 0.5
	}
	s.Monitors["MED_HVA_PY"] = "V Ge_total spikes"
	s.Monitors["LAT_HVA_PY"] = "V Ge_total spikes"
	return s
}

func sampleAt(m *monitor.AnalogMonitor, t float64) float64 {
	for i, ts := range m.T {
		if math.Abs(ts-t) < 1e-9 {
			return m.Data[0][i]
		}
	}
	Fail("no sample at requested time")
	return 0
}

func derive(g *Group, x dynamo.State, t float64) dynamo.State {
	dx := make(dynamo.State, g.StateDim())
	g.Derive(dx, x, t)
	return dx
}

var _ = Describe("Group", func() {
	params := config.NeuronParams{
		N: 2, TauM: 0.020, TauE: 0.002, TauI: 0.010,
		Thresh: -0.040, Reset: -0.050, VRest: -0.070, Refract: 0.002,
	}

	It("is at equilibrium at rest", func() {
		g := NewGroup("PY", params)
		dx := derive(g, g.InitialState(), 0)
		for _, v := range dx {
			Expect(v).To(BeNumerically("~", 0, 1e-15))
		}
	})

	It("decays conductances with their own time constants", func() {
		g := NewGroup("PY", params)
		x := g.InitialState()
		g.Ge(x)[0] = 1
		g.Gi(x)[1] = 1
		dx := derive(g, x, 0)
		Expect(dx[2]).To(BeNumerically("~", -1/params.TauE, 1e-9))
		Expect(dx[5]).To(BeNumerically("~", -1/params.TauI, 1e-9))
		Expect(dx[0]).To(BeNumerically(">", 0), "excitation depolarizes")
		Expect(dx[1]).To(BeNumerically("<", 0), "inhibition hyperpolarizes")
	})

	It("resets on threshold and stays clamped while refractory", func() {
		g := NewGroup("PY", params)
		x := g.InitialState()
		x[0] = -0.030

		spikes := g.Threshold(x, 0.010, nil)
		Expect(spikes).To(Equal([]int{0}))
		Expect(x[0]).To(Equal(params.Reset))
		Expect(g.Refractory(0, 0.011)).To(BeTrue())
		Expect(g.Refractory(0, 0.013)).To(BeFalse())

		g.Ge(x)[0] = 5
		Expect(derive(g, x, 0.011)[0]).To(BeZero())

		x[0] = -0.030
		Expect(g.Threshold(x, 0.011, nil)).To(BeEmpty())
		Expect(x[0]).To(Equal(params.Reset))
	})

	It("scales conductances by the input resistance", func() {
		p := params
		p.RIn = 100
		g := NewGroup("PY", p)
		x := g.InitialState()
		g.Ge(x)[0] = 100 // pS
		dx := derive(g, x, 0)
		want := 100e-6 * 100 * (0 - p.VRest) / p.TauM
		Expect(dx[0]).To(BeNumerically("~", want, 1e-12))
	})
})

var _ = Describe("AfferentSource", func() {
	It("fires regular pulse trains on every afferent", func() {
		cond := config.Condition{Kind: config.Pulse, Rate: 10}
		a := NewAfferentSource(config.AfferentParams{N: 3}, cond, rand.New(rand.NewSource(1)))

		dt := 1e-4
		pulses := 0
		var firstTimes []float64
		for step := 0; step < 10000; step++ {
			t := float64(step) * dt
			out := a.Emit(t, dt, nil)
			if len(out) > 0 {
				Expect(out).To(Equal([]int{0, 1, 2}))
				pulses++
				firstTimes = append(firstTimes, t)
			}
		}
		Expect(pulses).To(Equal(10))
		Expect(firstTimes[0]).To(BeNumerically("~", 0, 1e-12))
		Expect(firstTimes[1]).To(BeNumerically("~", 0.1, 1e-9))
	})

	It("modulates the Poisson rate sinusoidally", func() {
		cond := config.Condition{Kind: config.Modulation, Rate: 2}
		a := NewAfferentSource(config.AfferentParams{N: 1, PeakRate: 40}, cond, nil)
		Expect(a.Rate(0)).To(BeNumerically("~", 20, 1e-9))
		Expect(a.Rate(0.125)).To(BeNumerically("~", 40, 1e-9))
		Expect(a.Rate(0.375)).To(BeNumerically("~", 0, 1e-9))
	})

	It("holds a constant half-peak rate at 0 Hz", func() {
		cond := config.Condition{Kind: config.Modulation, Rate: 0}
		a := NewAfferentSource(config.AfferentParams{N: 500, PeakRate: 40}, cond, rand.New(rand.NewSource(7)))

		dt := 1e-3
		total := 0
		for step := 0; step < 1000; step++ {
			total += len(a.Emit(float64(step)*dt, dt, nil))
		}
		// 500 afferents at 20 spk/s for one second.
		Expect(float64(total)).To(BeNumerically("~", 10000, 500))
	})
})

var _ = Describe("Projection", func() {
	post := NewGroup("PY", config.NeuronParams{
		N: 4, TauM: 0.02, TauE: 0.002, TauI: 0.01, Thresh: -0.04, Reset: -0.05, VRest: -0.07,
	})
	base := config.SynapseParams{
		Pre: config.Afferents, Post: "PY",
		D1: 1, D2: 1, TauD1: 1, TauD2: 1, TauF1: 1, TauF2: 1, WE: 0.5, WI: 0.25,
	}

	It("connects every pair at p_connect=1 and none at 0", func() {
		rng := rand.New(rand.NewSource(3))
		full := base
		full.PConnect = 1
		Expect(NewProjection(full, 5, post, 1e-4, rng).Synapses()).To(Equal(20))

		none := base
		none.PConnect = 0
		Expect(NewProjection(none, 5, post, 1e-4, rng).Synapses()).To(BeZero())
	})

	It("delivers after the axonal delay", func() {
		syn := base
		syn.PConnect = 1
		syn.Delay = 0.002
		p := NewProjection(syn, 1, post, 1e-4, rand.New(rand.NewSource(1)))
		Expect(p.DelaySteps()).To(Equal(20))
		Expect(p.Targets(0)).To(Equal([]int{0, 1, 2, 3}))

		x := post.InitialState()
		p.Schedule(0, []int{0})
		for step := 0; step < 20; step++ {
			p.Deliver(step, float64(step)*1e-4, x)
			Expect(post.Ge(x)[0]).To(BeZero())
		}
		p.Deliver(20, 0.002, x)
		Expect(post.Ge(x)).To(Equal([]float64{0.5, 0.5, 0.5, 0.5}))
		Expect(post.Gi(x)).To(Equal([]float64{0.25, 0.25, 0.25, 0.25}))

		p.Deliver(20+len(p.queue), 0.004, x)
		Expect(post.Ge(x)[0]).To(Equal(0.5), "slot is cleared after delivery")
	})

	It("keeps no plasticity state for static synapses", func() {
		syn := base
		syn.PConnect = 1
		p := NewProjection(syn, 1, post, 1e-4, rand.New(rand.NewSource(1)))
		Expect(p.plastic).To(BeNil())

		x := post.InitialState()
		for step := 0; step < 3; step++ {
			p.Schedule(step, []int{0})
			p.Deliver(step, float64(step)*1e-4, x)
		}
		Expect(post.Ge(x)[0]).To(BeNumerically("~", 1.5, 1e-12))

		syn.D1 = 0.5
		p = NewProjection(syn, 1, post, 1e-4, rand.New(rand.NewSource(1)))
		Expect(p.plastic).To(HaveLen(p.Synapses()))
	})
})

var _ = Describe("Network", func() {
	cond := func(s *config.Settings) config.Condition { return s.Conditions()[0] }

	It("reproduces geometric depression in the conductance trace", func() {
		s := pulseSettings(0.5, 0)
		net, err := New(s, cond(s), integrators.NewRK4(), 1)
		Expect(err).NotTo(HaveOccurred())

		res, err := net.Run(context.Background(), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Steps).To(Equal(5000))

		ge, ok := res.Recording.Analog(monitor.AnalogName("PY", config.VarGeTotal))
		Expect(ok).To(BeTrue())
		Expect(ge.T).To(HaveLen(5000))
		Expect(sampleAt(ge, 0)).To(BeNumerically("~", 1, 1e-9))
		Expect(sampleAt(ge, 0.1)).To(BeNumerically("~", 0.5, 1e-6))
		Expect(sampleAt(ge, 0.2)).To(BeNumerically("~", 0.25, 1e-6))

		aff, ok := res.Recording.Spike(monitor.SpikeName(config.Afferents))
		Expect(ok).To(BeTrue())
		Expect(aff.Count()).To(Equal(5))

		py, _ := res.Recording.Spike(monitor.SpikeName("PY"))
		Expect(py.Count()).To(BeZero())
	})

	It("reproduces linear facilitation in the conductance trace", func() {
		s := pulseSettings(1, 0.5)
		net, err := New(s, cond(s), integrators.NewEuler(), 1)
		Expect(err).NotTo(HaveOccurred())
		res, err := net.Run(context.Background(), nil)
		Expect(err).NotTo(HaveOccurred())

		ge, _ := res.Recording.Analog(monitor.AnalogName("PY", config.VarGeTotal))
		Expect(sampleAt(ge, 0.1)).To(BeNumerically("~", 1.5, 1e-6))
		Expect(sampleAt(ge, 0.2)).To(BeNumerically("~", 2.0, 1e-6))
	})

	It("drives HVA cells to fire under strong afferent input", func() {
		s := drivenSettings()
		net, err := New(s, cond(s), integrators.NewRK4(), 42)
		Expect(err).NotTo(HaveOccurred())

		res, err := net.Run(context.Background(), nil)
		Expect(err).NotTo(HaveOccurred())

		for _, g := range []string{"MED_HVA_PY", "LAT_HVA_PY"} {
			spk, ok := res.Recording.Spike(monitor.SpikeName(g))
			Expect(ok).To(BeTrue())
			Expect(spk.Count()).To(BeNumerically(">", 0), g)
			Expect(spk.Validate()).To(Succeed())

			v, _ := res.Recording.Analog(monitor.AnalogName(g, config.VarV))
			for _, vv := range v.Data[0] {
				Expect(vv).To(BeNumerically("<=", s.Neurons[g].Thresh+1e-12))
			}
		}
	})

	It("is deterministic for a given seed", func() {
		s := drivenSettings()
		run := func(seed int64) []float64 {
			net, err := New(s, cond(s), integrators.NewRK4(), seed)
			Expect(err).NotTo(HaveOccurred())
			res, err := net.Run(context.Background(), nil)
			Expect(err).NotTo(HaveOccurred())
			spk, _ := res.Recording.Spike(monitor.SpikeName(config.Afferents))
			return spk.T
		}
		Expect(run(5)).To(Equal(run(5)))
		Expect(run(5)).NotTo(Equal(run(6)))
	})

	It("reports progress up to completion", func() {
		s := pulseSettings(1, 0)
		net, err := New(s, cond(s), integrators.NewEuler(), 1)
		Expect(err).NotTo(HaveOccurred())

		var last float64
		calls := 0
		_, err = net.Run(context.Background(), func(f float64) {
			Expect(f).To(BeNumerically(">=", last))
			last = f
			calls++
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(calls).To(Equal(100))
		Expect(last).To(BeNumerically("~", 1, 1e-12))
	})

	It("stops when the context is canceled", func() {
		s := pulseSettings(1, 0)
		net, err := New(s, cond(s), integrators.NewEuler(), 1)
		Expect(err).NotTo(HaveOccurred())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = net.Run(ctx, nil)
		Expect(err).To(MatchError(dynamo.ErrContextCanceled))
		Expect(err).To(MatchError(context.Canceled))
	})

	It("rejects invalid settings", func() {
		s := pulseSettings(1, 0)
		s.Monitors["PY"] = "V Na"
		_, err := New(s, config.Condition{}, integrators.NewEuler(), 1)
		Expect(err).To(MatchError(config.ErrInvalidSettings))
	})

	It("flags diverging state", func() {
		s := pulseSettings(1, 0)
		p := s.Neurons["PY"]
		p.TauE = 1e-9 // Euler blows up when dt >> tau
		s.Neurons["PY"] = p
		net, err := New(s, cond(s), integrators.NewEuler(), 1)
		Expect(err).NotTo(HaveOccurred())

		_, err = net.Run(context.Background(), nil)
		Expect(err).To(MatchError(dynamo.ErrInvalidState))
		var simErr *dynamo.SimulationError
		Expect(err).To(BeAssignableToTypeOf(simErr))
	})
})

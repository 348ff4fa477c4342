package config

import "sort"

func pyCell(tauM, thresh, reset float64) NeuronParams {
	return NeuronParams{
		N: 1, TauM: tauM, TauE: 0.002, TauI: 0.010,
		Thresh: thresh, Reset: reset, VRest: -0.075, Refract: 0.0015,
	}
}

func ffSynapse(post string, pConnect, d1, d2, f1, f2, tauD1, tauD2, tauF1, tauF2, wE, delay float64) SynapseParams {
	return SynapseParams{
		Pre: Afferents, Post: post, PConnect: pConnect,
		D1: d1, D2: d2, F1: f1, F2: f2,
		TauD1: tauD1, TauD2: tauD2, TauF1: tauF1, TauF2: tauF2,
		WE: wE, Delay: delay,
	}
}

// Allen preset weights: a total EPSC of 1 nA onto PY cells at a 70 mV
// driving force, spread over the connected afferents, expressed in pS.
const (
	allenAfferents   = 400
	allenPConnect    = 0.25
	allenEPSC        = 1000e-12
	allenDrivingF    = 70e-3
	allenScaleFS     = 5
	allenScaleSOM    = 0.15
	allenTauEPSC     = 0.003
	allenConnectedIn = allenAfferents * allenPConnect
)

func allenWeight(scale float64) float64 {
	return (allenEPSC * scale / allenDrivingF) / allenConnectedIn / 1e-12
}

// Presets are the built-in settings bundles.
var Presets = map[string]func() *Settings{
	// FF excitation onto PY cells in medial and lateral HVAs, no
	// interneurons, plasticity from the in vitro data set.
	"ff_hva_only": func() *Settings {
		s := Default()
		s.Neurons["MED_HVA_PY"] = pyCell(0.030, -0.040, -0.044)
		s.Neurons["LAT_HVA_PY"] = pyCell(0.025, -0.040, -0.048)
		s.Afferents = AfferentParams{
			N: 1000, UsePoisson: true,
			ModulationRate: []float64{0, 1, 25, 50},
			PeakRate:       30, SimTime: 3,
		}
		s.Synapses = []SynapseParams{
			ffSynapse("MED_HVA_PY", 0.20, 0.51642, 0.71354, 0.34452, 1.5001, 0.15051, 0.35033, 1.0608, 0.10762, 0.020, 0),
			ffSynapse("LAT_HVA_PY", 0.20, 0.40722, 0.70762, 0.46088, 1.6147, 0.40722, 0.70762, 0.69453, 0.09442, 0.020, 0),
		}
		s.Monitors = map[string]string{
			"MED_HVA_PY": "V Ge_total",
			"LAT_HVA_PY": "V Ge_total",
			Afferents:    "spikes",
		}
		return s
	},

	// Same circuit with STP estimated from the grand average of the raw
	// recordings and identical passive properties for every cell.
	"ff_hva_only_real_params": func() *Settings {
		s := Default()
		for _, name := range []string{"MED_PY", "LAT_PY", "CONTROL_PY"} {
			s.Neurons[name] = pyCell(0.020, -0.040, -0.044)
			s.Monitors[name] = "V Ge_total Gi_total spikes"
		}
		s.Afferents = AfferentParams{
			N: 200, UsePoisson: true,
			ModulationRate: []float64{0.01, 0.1, 0.2, 0.4, 1, 2, 4, 8, 16, 32, 64},
			PeakRate:       50, SimTime: 5,
		}
		s.Synapses = []SynapseParams{
			ffSynapse("LAT_PY", 1, 0.745776372204423, 0.384630322243764, 0.20171125824736, 1.99996992031001,
				0.408571779798192, 0.0782562829011947, 0.526480048225554, 0.0611956230085695, 0.0025, 0),
			ffSynapse("MED_PY", 1, 0.57033797518005, 0.877343800497582, 0.24791793329521, 1.24055971861832,
				0.193759182770654, 1.26678114645274, 1.18578349080901, 0.1027449281392, 0.0025, 0),
			ffSynapse("CONTROL_PY", 1, 1, 1, 0, 0, 1, 1, 1, 1, 0.0025, 0),
		}
		s.Monitors[Afferents] = "spikes"
		return s
	},

	// FF excitation with FS and SOM interneurons; passive properties fit
	// by eye, PY inputs without plasticity.
	"allen": func() *Settings {
		s := Default()
		s.Neurons["HVA_FS"] = NeuronParams{
			N: 20, TauM: 0.004, RIn: 85, TauE: allenTauEPSC, TauI: 0.010,
			Thresh: -0.040, Reset: -0.060, VRest: -0.065, Refract: 0.0023,
		}
		s.Neurons["HVA_SOM"] = NeuronParams{
			N: 20, TauM: 0.0182, RIn: 240, TauE: allenTauEPSC, TauI: 0.010,
			Thresh: -0.040, Reset: -0.055, VRest: -0.062, Refract: 0.008,
		}
		s.Neurons["HVA_PY"] = NeuronParams{
			N: 20, TauM: 0.020, RIn: 87, TauE: allenTauEPSC, TauI: 0.010,
			Thresh: -0.035, Reset: -0.050, VRest: -0.065, Refract: 0.020,
		}
		s.Afferents = AfferentParams{
			N: allenAfferents, UsePoisson: true,
			ModulationRate:  []float64{0.1, 0.5, 1, 4},
			PeakRate:        50,
			SpikesPerSecond: []float64{1},
			SimTime:         5,
		}
		s.Synapses = []SynapseParams{
			ffSynapse("HVA_FS", allenPConnect, 0.8966, 0.92244, 0, 0, 0.0504, 0.10431, 0.0001, 0.0001, allenWeight(allenScaleFS), 0.002),
			ffSynapse("HVA_SOM", allenPConnect, 0.87488, 0.94607, 1.6817, 0.27817, 0.10472, 0.084781, 0.050023, 0.57205, allenWeight(allenScaleSOM), 0.002),
			ffSynapse("HVA_PY", allenPConnect, 1, 1, 0, 0, 0.0001, 0.0001, 0.0001, 0.0001, allenWeight(1), 0.002),
		}
		s.Monitors = map[string]string{
			"HVA_FS":  "V spikes",
			"HVA_SOM": "V spikes",
			"HVA_PY":  "V spikes",
			Afferents: "spikes",
		}
		return s
	},

	// Seminar demo: depressing lateral input, facilitating medial input and
	// a static control, swept over a wide range of modulation rates.
	"seminar": func() *Settings {
		s := Default()
		for _, name := range []string{"MED_PY", "LAT_PY", "CONTROL_PY"} {
			s.Neurons[name] = pyCell(0.020, -0.040, -0.044)
			s.Monitors[name] = "V Ge_total Gi_total spikes"
		}
		s.Afferents = AfferentParams{
			N: 200, UsePoisson: true,
			ModulationRate: []float64{0.01, 0.1, 0.2, 0.4, 1, 2, 4, 8, 16, 32, 64, 120},
			PeakRate:       100, SimTime: 5,
		}
		s.Synapses = []SynapseParams{
			ffSynapse("LAT_PY", 1, 0.75, 1, 0, 0, 0.300, 1, 1, 1, 0.009, 0),
			ffSynapse("MED_PY", 1, 1, 1, 0.1, 0, 1, 1, 0.050, 1, 0.0025, 0),
			ffSynapse("CONTROL_PY", 1, 1, 1, 0, 0, 1, 1, 1, 1, 0.0025, 0),
		}
		s.Monitors[Afferents] = "spikes"
		return s
	},

	// STP check: identical cells driven by a single afferent with regular
	// pulse trains, unit weights so the first response equals the weight.
	"test_stp": func() *Settings {
		s := Default()
		for _, name := range []string{"MED_PY", "LAT_PY", "FS", "SOM"} {
			s.Neurons[name] = pyCell(0.030, -0.044, -0.050)
			s.Monitors[name] = "V Ge_total"
		}
		s.Afferents = AfferentParams{
			N: 1, UsePoisson: false,
			SpikesPerSecond: []float64{1, 10, 50, 100},
			SimTime:         5,
		}
		s.Synapses = []SynapseParams{
			ffSynapse("MED_PY", 1, 0.677779435896493, 0.955948527539736, 0.148664758049794, 0.832543707486315,
				0.351337559465874, 4.9999853200625, 2.73381117965421, 0.141095029186461, 1, 0),
			ffSynapse("LAT_PY", 1, 0.742699612358215, 0.380550934611453, 0.185905243622942, 1.99385635699509,
				0.390633486546194, 0.0761030284059299, 0.524076918189163, 0.0613934939446212, 1, 0),
			ffSynapse("FS", 1, 0.432578461135955, 0.780335983676696, 0.353000433498374, 1.40831789911982,
				0.206258773398254, 0.903356348050939, 0.710594220581384, 0.0952281600157747, 1, 0),
			ffSynapse("SOM", 1, 0.99999988547475, 0.999999885044096, 0.95088768316992, 0.113095357180333,
				2.23652758743532, 2.19678699022476, 0.111601436492032, 2.94599944507649, 1, 0),
		}
		s.Monitors[Afferents] = "spikes"
		return s
	},
}

// GetPreset returns a fresh copy of a built-in settings bundle, or nil.
func GetPreset(name string) *Settings {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	return fn()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package analysis

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/hvasim/internal/config"
	"github.com/san-kum/hvasim/internal/monitor"
	"github.com/san-kum/hvasim/internal/storage"
)

// modulatedBundles builds one bundle per rate in which every unit of PY
// fires at the peaks of a sinusoid at that rate. FS has no spike monitor.
func modulatedBundles(rates []float64) []*storage.Bundle {
	s := config.Default()
	s.Neurons["PY"] = config.NeuronParams{N: 4}
	s.Neurons["FS"] = config.NeuronParams{N: 2}
	s.Afferents = config.AfferentParams{N: 1, UsePoisson: true, ModulationRate: rates, PeakRate: 20, SimTime: 1}
	s.Monitors["PY"] = "V spikes"
	s.Monitors["FS"] = "V"

	var bundles []*storage.Bundle
	for _, c := range s.Conditions() {
		rec := monitor.NewRecording()

		v := monitor.NewAnalogMonitor(config.VarV, 4, 3)
		for k := 0; k < 3; k++ {
			v.Record(float64(k)*0.001, []float64{-0.07, -0.068, -0.066, -0.064})
		}
		rec.Analogs[monitor.AnalogName("PY", config.VarV)] = v
		rec.Analogs[monitor.AnalogName("FS", config.VarV)] = monitor.NewAnalogMonitor(config.VarV, 2, 0)

		spk := monitor.NewSpikeMonitor(4)
		for k := 0; float64(k) < c.Rate; k++ {
			for u := 0; u < 4; u++ {
				spk.Record(float64(k)/c.Rate+0.001, u)
			}
		}
		rec.Spikes[monitor.SpikeName("PY")] = spk

		bundles = append(bundles, &storage.Bundle{
			Condition: c,
			Stimulus:  c.Rate,
			Settings:  s,
			Net:       rec,
		})
	}
	return bundles
}

func TestExtractAnalog(t *testing.T) {
	bundles := modulatedBundles([]float64{2, 4})

	for _, monType := range []string{"v", "V"} {
		data, err := ExtractAnalog(bundles, monType)
		if err != nil {
			t.Fatalf("%s: %v", monType, err)
		}
		if data.Var != config.VarV {
			t.Errorf("expected var V, got %s", data.Var)
		}
		if len(data.Groups) != 2 || data.Groups[0] != "FS" || data.Groups[1] != "PY" {
			t.Errorf("expected groups [FS PY], got %v", data.Groups)
		}

		tr := data.Trace(bundles[0].Condition.Label, "PY")
		if len(tr.Time) != 3 || len(tr.Data) != 4 {
			t.Fatalf("unexpected PY trace shape %d x %d", len(tr.Data), len(tr.Time))
		}
		if m := tr.Mean(); math.Abs(m[0]+0.067) > 1e-12 {
			t.Errorf("expected mean -0.067, got %f", m[0])
		}
	}

	data, err := ExtractAnalog(bundles, "ge_total")
	if err != nil {
		t.Fatal(err)
	}
	if !data.Trace(bundles[1].Condition.Label, "PY").Empty() {
		t.Error("expected an empty trace for an unmonitored variable")
	}
}

func TestExtractAnalogUnknownType(t *testing.T) {
	for _, monType := range []string{"", "spikes", "ge"} {
		if _, err := ExtractAnalog(nil, monType); !errors.Is(err, ErrUnknownMonitorType) {
			t.Errorf("%q: expected ErrUnknownMonitorType, got %v", monType, err)
		}
	}
}

func TestExtractSpikes(t *testing.T) {
	bundles := modulatedBundles([]float64{2, 4})

	data, err := ExtractSpikes(bundles, 0.025)
	if err != nil {
		t.Fatal(err)
	}

	for i, b := range bundles {
		tr := data.Train(b.Condition.Label, "PY")
		if tr.Empty() {
			t.Fatalf("condition %d: missing PY train", i)
		}
		if tr.PSTH.Bins() != 40 {
			t.Errorf("condition %d: expected 40 bins, got %d", i, tr.PSTH.Bins())
		}
		if tr.PSTH.Total() != len(tr.Times) {
			t.Errorf("condition %d: expected %d binned spikes, got %d", i, len(tr.Times), tr.PSTH.Total())
		}
		if tr.PSTH.N != 4 {
			t.Errorf("condition %d: expected group size 4, got %d", i, tr.PSTH.N)
		}
		if !data.Train(b.Condition.Label, "FS").Empty() {
			t.Errorf("condition %d: FS has no spike monitor", i)
		}
	}

	if _, err := ExtractSpikes(bundles, 0); !errors.Is(err, ErrInvalidBinning) {
		t.Errorf("expected ErrInvalidBinning, got %v", err)
	}
}

func TestFrequencyResponse(t *testing.T) {
	bundles := modulatedBundles([]float64{8, 2, 4})

	data, err := ExtractSpikes(bundles, 0.01)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := FrequencyResponse(data)
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := resp["FS"]; ok {
		t.Error("FS should have no response without spikes")
	}
	pts := resp["PY"]
	if len(pts) != 3 {
		t.Fatalf("expected 3 points, got %d", len(pts))
	}
	for i, want := range []float64{2, 4, 8} {
		if pts[i].Freq != want {
			t.Errorf("point %d: expected %v Hz, got %v", i, want, pts[i].Freq)
		}
		if math.Abs(pts[i].MeanRate-want) > 1e-9 {
			t.Errorf("point %d: expected mean rate %v, got %v", i, want, pts[i].MeanRate)
		}
		if pts[i].DOM <= 0 {
			t.Errorf("point %d: expected phase locked response, got %v", i, pts[i].DOM)
		}
	}
}

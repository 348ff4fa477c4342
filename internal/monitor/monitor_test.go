package monitor

import (
	"testing"
)

func TestNames(t *testing.T) {
	if got := AnalogName("HVA_PY", "Ge_total"); got != "HVA_PY_Ge_total_mon" {
		t.Errorf("AnalogName = %q", got)
	}
	if got := SpikeName("afferents"); got != "afferents_spike_mon" {
		t.Errorf("SpikeName = %q", got)
	}
}

func TestAnalogMonitor_Record(t *testing.T) {
	m := NewAnalogMonitor("V", 2, 4)
	m.Record(0, []float64{-0.070, -0.060})
	m.Record(1e-4, []float64{-0.068, -0.062})

	if len(m.T) != 2 || len(m.Data[0]) != 2 || len(m.Data[1]) != 2 {
		t.Fatalf("unexpected shape: T=%d rows=%d,%d", len(m.T), len(m.Data[0]), len(m.Data[1]))
	}
	if m.Data[1][1] != -0.062 {
		t.Errorf("Data[1][1] = %v, want -0.062", m.Data[1][1])
	}
}

func TestSpikeMonitor(t *testing.T) {
	m := NewSpikeMonitor(3)
	m.Record(0.01, 2)
	m.Record(0.02, 0)

	if m.Count() != 2 {
		t.Errorf("Count = %d, want 2", m.Count())
	}
	if err := m.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	m.I = m.I[:1]
	if err := m.Validate(); err == nil {
		t.Error("expected error for mismatched slices")
	}
}

func TestRecording(t *testing.T) {
	r := NewRecording()
	r.Analogs[AnalogName("LAT_PY", "V")] = NewAnalogMonitor("V", 1, 0)
	r.Spikes[SpikeName("LAT_PY")] = NewSpikeMonitor(1)

	want := []string{"LAT_PY_V_mon", "LAT_PY_spike_mon"}
	got := r.Names()
	if len(got) != len(want) {
		t.Fatalf("Names = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if !r.Has("LAT_PY_V_mon") || r.Has("MED_PY_V_mon") {
		t.Error("Has returned wrong result")
	}
	if _, ok := r.Spike("LAT_PY_spike_mon"); !ok {
		t.Error("Spike lookup failed")
	}
}

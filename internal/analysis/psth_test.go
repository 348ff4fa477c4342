package analysis

import (
	"errors"
	"math"
	"testing"
)

func TestPSTHBinning(t *testing.T) {
	times := []float64{0, 0.01, 0.025, 0.049, 0.05, 0.1, 0.2}
	units := []int{0, 2, 0, 2, 2, 0, 2}

	h, err := PSTH(times, units, 0.025, 0.1)
	if err != nil {
		t.Fatalf("psth failed: %v", err)
	}

	if h.Bins() != 4 {
		t.Fatalf("expected 4 bins, got %d", h.Bins())
	}
	if len(h.Units) != 2 || h.Units[0] != 0 || h.Units[1] != 2 {
		t.Fatalf("expected units [0 2], got %v", h.Units)
	}

	want := [][]int{
		{1, 1, 0, 1},
		{1, 1, 1, 0},
	}
	for i := range want {
		for b := range want[i] {
			if h.Counts[i][b] != want[i][b] {
				t.Errorf("unit %d bin %d: expected %d, got %d", h.Units[i], b, want[i][b], h.Counts[i][b])
			}
			if r := h.Rates[i][b]; math.Abs(r-float64(want[i][b])/0.025) > 1e-9 {
				t.Errorf("unit %d bin %d: rate %f", h.Units[i], b, r)
			}
		}
	}

	if h.Total() != 6 {
		t.Errorf("expected 6 spikes in range, got %d", h.Total())
	}
}

func TestPSTHCountsSumToSpikesInRange(t *testing.T) {
	tests := []struct {
		name    string
		binsize float64
		total   float64
	}{
		{"exact multiple", 0.025, 1.0},
		{"partial last bin", 0.03, 1.0},
		{"single bin", 2.0, 1.0},
		{"fine bins", 0.001, 1.0},
	}

	var times []float64
	var units []int
	for k := 0; k < 500; k++ {
		times = append(times, float64(k)*0.0023)
		units = append(units, k%7)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := PSTH(times, units, tt.binsize, tt.total)
			if err != nil {
				t.Fatal(err)
			}
			last := h.Edges[len(h.Edges)-1]
			if last < tt.total-1e-9 {
				t.Errorf("last edge %f before total %f", last, tt.total)
			}

			inRange := 0
			for _, ts := range times {
				if ts >= 0 && ts <= last {
					inRange++
				}
			}
			if h.Total() != inRange {
				t.Errorf("expected %d spikes, got %d", inRange, h.Total())
			}
		})
	}
}

func TestPSTHEdges(t *testing.T) {
	h, err := PSTH(nil, nil, 0.025, 0.09)
	if err != nil {
		t.Fatal(err)
	}
	if len(h.Edges) != 5 {
		t.Fatalf("expected 5 edges, got %v", h.Edges)
	}
	if len(h.Units) != 0 || h.Total() != 0 {
		t.Error("expected no units for an empty train")
	}

	h, err = PSTH(nil, nil, 0.025, 0)
	if err != nil {
		t.Fatal(err)
	}
	if h.Bins() != 0 {
		t.Errorf("expected no bins for zero duration, got %d", h.Bins())
	}
}

func TestPSTHErrors(t *testing.T) {
	tests := []struct {
		name    string
		times   []float64
		units   []int
		binsize float64
		total   float64
	}{
		{"zero binsize", nil, nil, 0, 1},
		{"negative binsize", nil, nil, -0.1, 1},
		{"negative total", nil, nil, 0.1, -1},
		{"mismatched", []float64{0.1, 0.2}, []int{0}, 0.1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PSTH(tt.times, tt.units, tt.binsize, tt.total)
			if !errors.Is(err, ErrInvalidBinning) {
				t.Errorf("expected ErrInvalidBinning, got %v", err)
			}
		})
	}
}

func TestPopulationRate(t *testing.T) {
	h, err := PSTH([]float64{0.05, 0.05, 0.15}, []int{0, 1, 0}, 0.1, 0.2)
	if err != nil {
		t.Fatal(err)
	}

	rate := PopulationRate(h)
	if math.Abs(rate[0]-10) > 1e-9 || math.Abs(rate[1]-5) > 1e-9 {
		t.Errorf("expected [10 5] over firing units, got %v", rate)
	}

	h.N = 4
	rate = PopulationRate(h)
	if math.Abs(rate[0]-5) > 1e-9 || math.Abs(rate[1]-2.5) > 1e-9 {
		t.Errorf("expected [5 2.5] over the whole group, got %v", rate)
	}
}

func TestPSTHSpikesOnEdges(t *testing.T) {
	const total = 3.0
	for _, binsize := range []float64{0.001, 0.005, 0.025, 0.1} {
		edges := binEdges(binsize, total)
		bins := len(edges) - 1

		times := make([]float64, len(edges))
		units := make([]int, len(edges))
		copy(times, edges)

		h, err := PSTH(times, units, binsize, total)
		if err != nil {
			t.Fatalf("binsize %v: %v", binsize, err)
		}
		for k := 0; k < bins; k++ {
			want := 1
			if k == bins-1 {
				want = 2 // closed last bin holds the final edge too
			}
			if got := h.Counts[0][k]; got != want {
				t.Errorf("binsize %v: bin %d (edge %v) has %d spikes, want %d", binsize, k, edges[k], got, want)
			}
		}
	}
}

func TestBinIndex(t *testing.T) {
	edges := []float64{0, 0.5, 1, 1.5}
	tests := []struct {
		t    float64
		want int
	}{
		{0, 0}, {0.2, 0}, {0.5, 1}, {0.99, 1}, {1, 2}, {1.4, 2}, {1.5, 2},
	}
	for _, tt := range tests {
		if got := binIndex(edges, tt.t); got != tt.want {
			t.Errorf("binIndex(%v) = %d, want %d", tt.t, got, tt.want)
		}
	}
}

package network

import (
	"math"
	"testing"
)

const never = 1e12

func TestPlasticity_Static(t *testing.T) {
	p := STPParams{D1: 1, D2: 1, TauD1: 1, TauD2: 1, TauF1: 1, TauF2: 1}
	if !p.Static() {
		t.Fatal("expected static params")
	}
	s := NewPlasticity()
	for i := 0; i < 5; i++ {
		if amp := s.Transmit(p, float64(i)*0.01); amp != 1 {
			t.Fatalf("spike %d: amp = %v, want 1", i, amp)
		}
	}
}

func TestPlasticity_GeometricDepression(t *testing.T) {
	p := STPParams{D1: 0.5, D2: 0.8, TauD1: never, TauD2: never, TauF1: never, TauF2: never}
	s := NewPlasticity()
	for i := 0; i < 4; i++ {
		want := math.Pow(0.5*0.8, float64(i))
		if amp := s.Transmit(p, float64(i)*0.1); math.Abs(amp-want) > 1e-9 {
			t.Errorf("spike %d: amp = %v, want %v", i, amp, want)
		}
	}
}

func TestPlasticity_LinearFacilitation(t *testing.T) {
	p := STPParams{D1: 1, D2: 1, F1: 0.25, TauD1: never, TauD2: never, TauF1: never, TauF2: never}
	s := NewPlasticity()
	for i := 0; i < 4; i++ {
		want := 1 + 0.25*float64(i)
		if amp := s.Transmit(p, float64(i)*0.1); math.Abs(amp-want) > 1e-9 {
			t.Errorf("spike %d: amp = %v, want %v", i, amp, want)
		}
	}
}

func TestPlasticity_Recovery(t *testing.T) {
	p := STPParams{D1: 0.5, D2: 1, TauD1: 0.1, TauD2: 1, TauF1: 1, TauF2: 1}
	s := NewPlasticity()
	s.Transmit(p, 0)

	amp := s.Transmit(p, 0.1)
	want := 1 - 0.5*math.Exp(-1)
	if math.Abs(amp-want) > 1e-12 {
		t.Errorf("amp after one tau = %v, want %v", amp, want)
	}

	// Long silence restores the synapse.
	if amp := s.Transmit(p, 100); math.Abs(amp-1) > 1e-9 {
		t.Errorf("amp after recovery = %v, want 1", amp)
	}
}

package analysis

import (
	"math"
	"math/cmplx"
)

// FFT transforms data, zero padded to the next power of two.
func FFT(data []float64) []complex128 {
	n := nextPow2(len(data))
	out := make([]complex128, n)
	for i, v := range data {
		out[i] = complex(v, 0)
	}
	if n < 2 {
		return out
	}

	bits := uint(math.Log2(float64(n)) + 0.5)
	for i := range out {
		if j := reverseBits(i, bits); j > i {
			out[i], out[j] = out[j], out[i]
		}
	}

	for size := 2; size <= n; size <<= 1 {
		half := size / 2
		step := cmplx.Exp(complex(0, -2*math.Pi/float64(size)))
		for start := 0; start < n; start += size {
			w := complex(1, 0)
			for k := 0; k < half; k++ {
				a, b := out[start+k], w*out[start+k+half]
				out[start+k], out[start+k+half] = a+b, a-b
				w *= step
			}
		}
	}
	return out
}

func reverseBits(i int, bits uint) int {
	r := 0
	for b := uint(0); b < bits; b++ {
		r = r<<1 | (i>>b)&1
	}
	return r
}

// PowerSpectrum returns the FFT magnitudes up to, not including, Nyquist.
func PowerSpectrum(data []float64) []float64 {
	spec := FFT(data)
	ps := make([]float64, len(spec)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(spec[i])
	}
	return ps
}

// DominantFrequency returns the frequency in Hz of the strongest non-DC
// component of data sampled every dt seconds.
func DominantFrequency(data []float64, dt float64) float64 {
	if len(data) < 2 || dt <= 0 {
		return 0
	}
	centered := make([]float64, len(data))
	m := mean(data)
	for i, v := range data {
		centered[i] = v - m
	}

	ps := PowerSpectrum(centered)
	best := 0
	for i := 1; i < len(ps); i++ {
		if ps[i] > ps[best] {
			best = i
		}
	}
	if best == 0 {
		return 0
	}
	return float64(best) / (float64(nextPow2(len(data))) * dt)
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"sort"
)

var ErrEmptySignal = errors.New("empty signal")

// DepthOfModulation projects x, sampled every dt seconds, onto a complex
// exponential at f Hz and returns the magnitude of the response.
func DepthOfModulation(x []float64, dt, f float64) (float64, error) {
	if len(x) == 0 {
		return 0, ErrEmptySignal
	}
	if dt <= 0 {
		return 0, fmt.Errorf("%w: sample interval %v", ErrInvalidBinning, dt)
	}

	var sum complex128
	for n, v := range x {
		if v == 0 {
			continue
		}
		phase := -2 * math.Pi * f * float64(n) * dt
		sum += complex(v, 0) * cmplx.Exp(complex(0, phase))
	}
	return cmplx.Abs(sum) * 2 / float64(len(x)), nil
}

// ResponsePoint is the response of one group to one condition.
type ResponsePoint struct {
	Condition string
	Freq      float64
	MeanRate  float64
	DOM       float64
}

// FrequencyResponse computes, for every group with a spike monitor, the
// depth of modulation of its population rate at each condition's stimulus
// frequency. Points are sorted by frequency.
func FrequencyResponse(data *SpikeData) (map[string][]ResponsePoint, error) {
	out := make(map[string][]ResponsePoint)
	for _, cond := range data.Conditions {
		for _, group := range data.Groups {
			tr := data.Train(cond.Label, group)
			if tr.Empty() || tr.PSTH.Bins() == 0 {
				continue
			}
			rate := PopulationRate(tr.PSTH)
			dom, err := DepthOfModulation(rate, tr.PSTH.Binsize, cond.Rate)
			if err != nil {
				return nil, fmt.Errorf("%s %s: %w", cond.Label, group, err)
			}
			out[group] = append(out[group], ResponsePoint{
				Condition: cond.Label,
				Freq:      cond.Rate,
				MeanRate:  mean(rate),
				DOM:       dom,
			})
		}
	}
	for _, pts := range out {
		sort.SliceStable(pts, func(i, j int) bool { return pts[i].Freq < pts[j].Freq })
	}
	return out, nil
}

func mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	s := 0.0
	for _, v := range x {
		s += v
	}
	return s / float64(len(x))
}

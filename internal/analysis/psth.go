package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var ErrInvalidBinning = errors.New("invalid binning")

// Histogram is a per-unit peri-stimulus time histogram. Units lists the
// units that fired, ascending; Counts and Rates are indexed like Units.
type Histogram struct {
	Binsize float64
	Edges   []float64
	Units   []int
	Counts  [][]int
	Rates   [][]float64
	// N is the size of the recorded group, or 0 when unknown.
	N int
}

func (h *Histogram) Bins() int {
	if len(h.Edges) == 0 {
		return 0
	}
	return len(h.Edges) - 1
}

// LeftEdges returns the start time of every bin.
func (h *Histogram) LeftEdges() []float64 {
	return h.Edges[:h.Bins()]
}

// Total is the number of spikes that fell inside the edges.
func (h *Histogram) Total() int {
	total := 0
	for _, row := range h.Counts {
		for _, c := range row {
			total += c
		}
	}
	return total
}

// binEdges returns 0, b, 2b, ... up to the first edge at or past total.
func binEdges(binsize, total float64) []float64 {
	k := int(math.Ceil(total/binsize - 1e-9))
	if k < 0 {
		k = 0
	}
	edges := make([]float64, k+1)
	for i := range edges {
		edges[i] = float64(i) * binsize
	}
	return edges
}

// PSTH bins spike events per unit. times and units are parallel slices.
func PSTH(times []float64, units []int, binsize, total float64) (*Histogram, error) {
	if binsize <= 0 || math.IsNaN(binsize) {
		return nil, fmt.Errorf("%w: binsize %v", ErrInvalidBinning, binsize)
	}
	if total < 0 || math.IsNaN(total) {
		return nil, fmt.Errorf("%w: total time %v", ErrInvalidBinning, total)
	}
	if len(times) != len(units) {
		return nil, fmt.Errorf("%w: %d spike times but %d unit indices", ErrInvalidBinning, len(times), len(units))
	}

	h := &Histogram{Binsize: binsize, Edges: binEdges(binsize, total)}
	bins := h.Bins()

	row := make(map[int]int)
	for _, u := range units {
		if _, ok := row[u]; !ok {
			row[u] = 0
			h.Units = append(h.Units, u)
		}
	}
	sort.Ints(h.Units)
	for i, u := range h.Units {
		row[u] = i
	}

	h.Counts = make([][]int, len(h.Units))
	h.Rates = make([][]float64, len(h.Units))
	for i := range h.Units {
		h.Counts[i] = make([]int, bins)
		h.Rates[i] = make([]float64, bins)
	}
	if bins == 0 {
		return h, nil
	}

	last := h.Edges[bins]
	for k, t := range times {
		if t < 0 || t > last {
			continue
		}
		h.Counts[row[units[k]]][binIndex(h.Edges, t)]++
	}

	for i, counts := range h.Counts {
		for b, c := range counts {
			h.Rates[i][b] = float64(c) / binsize
		}
	}
	return h, nil
}

// binIndex finds the bin of t in [edges[0], edges[len-1]]. Bins are
// [edges[b], edges[b+1]) except the last, which also holds its right edge.
func binIndex(edges []float64, t float64) int {
	i := sort.SearchFloat64s(edges, t)
	if i < len(edges) && edges[i] == t {
		return min(i, len(edges)-2)
	}
	return i - 1
}

// PopulationRate is the mean rate per bin across the group. Units that
// never fired count as silent when the group size is known.
func PopulationRate(h *Histogram) []float64 {
	out := make([]float64, h.Bins())
	n := h.N
	if n < len(h.Units) {
		n = len(h.Units)
	}
	if n == 0 {
		return out
	}
	for _, counts := range h.Counts {
		for b, c := range counts {
			out[b] += float64(c)
		}
	}
	for b := range out {
		out[b] /= float64(n) * h.Binsize
	}
	return out
}

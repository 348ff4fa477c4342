package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/hvasim/internal/analysis"
	"github.com/san-kum/hvasim/internal/monitor"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteTraceCSV writes an analog trace with one row per sample, one
// column per neuron and a final across-neuron mean.
func WriteTraceCSV(w io.Writer, tr analysis.Trace) error {
	cw := csv.NewWriter(w)

	header := []string{"time"}
	for i := range tr.Data {
		header = append(header, fmt.Sprintf("n%d", i))
	}
	header = append(header, "mean")
	if err := cw.Write(header); err != nil {
		return err
	}

	mean := tr.Mean()
	row := make([]string, len(header))
	for k, t := range tr.Time {
		row[0] = formatFloat(t)
		for i, d := range tr.Data {
			if k < len(d) {
				row[i+1] = formatFloat(d[k])
			} else {
				row[i+1] = ""
			}
		}
		row[len(row)-1] = formatFloat(mean[k])
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WritePSTHCSV writes one row per bin with the rate of every unit that
// fired and the population rate.
func WritePSTHCSV(w io.Writer, h *analysis.Histogram) error {
	cw := csv.NewWriter(w)

	header := []string{"bin_start", "bin_end"}
	for _, u := range h.Units {
		header = append(header, fmt.Sprintf("unit%d", u))
	}
	header = append(header, "population")
	if err := cw.Write(header); err != nil {
		return err
	}

	pop := analysis.PopulationRate(h)
	row := make([]string, len(header))
	for b := 0; b < h.Bins(); b++ {
		row[0] = formatFloat(h.Edges[b])
		row[1] = formatFloat(h.Edges[b+1])
		for i := range h.Units {
			row[i+2] = formatFloat(h.Rates[i][b])
		}
		row[len(row)-1] = formatFloat(pop[b])
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteSpikesCSV writes one row per spike event.
func WriteSpikesCSV(w io.Writer, spk *monitor.SpikeMonitor) error {
	if err := spk.Validate(); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "unit"}); err != nil {
		return err
	}
	for k, t := range spk.T {
		if err := cw.Write([]string{formatFloat(t), strconv.Itoa(spk.I[k])}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

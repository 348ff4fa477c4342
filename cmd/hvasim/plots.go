package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/hvasim/internal/analysis"
	"github.com/san-kum/hvasim/internal/export"
	"github.com/san-kum/hvasim/internal/monitor"
	"github.com/san-kum/hvasim/internal/plot"
	"github.com/san-kum/hvasim/internal/storage"
	"github.com/san-kum/hvasim/internal/viz"
)

func loadBundles(cmd *cobra.Command, runID string, labels ...string) ([]*storage.Bundle, error) {
	st, err := openStore(cmd.Context())
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.LoadBundles(runID, labels...)
}

func writeSVG(path, svg string) error {
	if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	monType, _ := cmd.Flags().GetString("monitor")
	layout, _ := cmd.Flags().GetString("type")
	binsize, _ := cmd.Flags().GetFloat64("bin")
	svgOut, _ := cmd.Flags().GetString("svg")
	width, _ := cmd.Flags().GetInt("width")
	height, _ := cmd.Flags().GetInt("height")

	pt, err := plot.ParsePlotType(layout)
	if err != nil {
		return err
	}

	bundles, err := loadBundles(cmd, args[0])
	if err != nil {
		return err
	}

	var fig *plot.Figure
	if strings.EqualFold(monType, "spikes") {
		data, err := analysis.ExtractSpikes(bundles, binsize)
		if err != nil {
			return err
		}
		fig, err = plot.SpikeSummary(data, pt)
		if err != nil {
			return err
		}
	} else {
		data, err := analysis.ExtractAnalog(bundles, monType)
		if err != nil {
			return err
		}
		fig, err = plot.AnalogSummary(data, pt)
		if err != nil {
			return err
		}
	}
	fig.Title = fmt.Sprintf("%s: %s", args[0], fig.Title)

	if svgOut != "" {
		return writeSVG(svgOut, export.FigureSVG(fig, 300*fig.Cols+200, 220*fig.Rows+40))
	}
	fmt.Print(viz.RenderFigure(fig, width, height))
	return nil
}

func rasterRun(cmd *cobra.Command, args []string) error {
	runID, label, group := args[0], args[1], args[2]
	svgOut, _ := cmd.Flags().GetString("svg")
	width, _ := cmd.Flags().GetInt("width")
	height, _ := cmd.Flags().GetInt("height")

	bundles, err := loadBundles(cmd, runID, label)
	if err != nil {
		return err
	}
	b := bundles[0]

	spk, ok := b.Net.Spike(monitor.SpikeName(group))
	if !ok {
		return fmt.Errorf("no spike monitor for %s in %s (monitors: %v)", group, label, b.Net.Names())
	}

	if svgOut != "" {
		return writeSVG(svgOut, export.CanvasToSVG(viz.Raster(spk, b.SimTime(), width, height), 4))
	}
	fmt.Print(viz.RenderRaster(fmt.Sprintf("%s / %s", label, group), spk, b.SimTime(), width, height))
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	binsize, _ := cmd.Flags().GetFloat64("bin")
	svgOut, _ := cmd.Flags().GetString("svg")
	width, _ := cmd.Flags().GetInt("width")
	height, _ := cmd.Flags().GetInt("height")

	bundles, err := loadBundles(cmd, args[0])
	if err != nil {
		return err
	}
	data, err := analysis.ExtractSpikes(bundles, binsize)
	if err != nil {
		return err
	}
	resp, err := analysis.FrequencyResponse(data)
	if err != nil {
		return err
	}
	if len(resp) == 0 {
		return fmt.Errorf("run %s has no spike monitors on neuron groups", args[0])
	}

	fmt.Printf("frequency response: %s (bin %gs)\n\n", args[0], binsize)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GROUP\tCONDITION\tFREQ\tMEAN RATE\tDOM\tPEAK FREQ")
	for _, g := range data.Groups {
		for _, pt := range resp[g] {
			tr := data.Train(pt.Condition, g)
			peak := analysis.DominantFrequency(analysis.PopulationRate(tr.PSTH), binsize)
			fmt.Fprintf(w, "%s\t%s\t%gHz\t%.2f\t%.2f\t%.2fHz\n", g, pt.Condition, pt.Freq, pt.MeanRate, pt.DOM, peak)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Println()

	fig := plot.FrequencyResponseFigure(resp)
	if svgOut != "" {
		return writeSVG(svgOut, export.FigureSVG(fig, 600, 500))
	}
	fmt.Print(viz.RenderFigure(fig, width, height))
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	runID, label, name := args[0], args[1], args[2]
	psth, _ := cmd.Flags().GetBool("psth")
	binsize, _ := cmd.Flags().GetFloat64("bin")
	outFile, _ := cmd.Flags().GetString("output")

	bundles, err := loadBundles(cmd, runID, label)
	if err != nil {
		return err
	}
	b := bundles[0]
	if !b.Net.Has(name) {
		return fmt.Errorf("no monitor %s in %s (monitors: %v)", name, label, b.Net.Names())
	}

	var out io.Writer = os.Stdout
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	if m, ok := b.Net.Analog(name); ok {
		return export.WriteTraceCSV(out, analysis.Trace{Time: m.T, Data: m.Data})
	}
	spk, _ := b.Net.Spike(name)
	if !psth {
		return export.WriteSpikesCSV(out, spk)
	}
	h, err := analysis.PSTH(spk.T, spk.I, binsize, b.SimTime())
	if err != nil {
		return err
	}
	h.N = spk.N
	return export.WritePSTHCSV(out, h)
}

package plot

import (
	"fmt"
	"sort"

	"github.com/san-kum/hvasim/internal/analysis"
	"github.com/san-kum/hvasim/internal/config"
)

const (
	timeLabel = "time (sec)"
	rateLabel = "spk/sec"
	// Upper limit of PSTH panels in spikes per second.
	maxRate = 300
)

func monitorLabel(variable string) string {
	if variable == config.VarV {
		return "monitor (V)"
	}
	return "monitor (conductance)"
}

// layout places condition row and group col on a figure of the given
// type and returns the panel to draw into.
func layout(fig *Figure, plotType PlotType, row, col int) *Panel {
	if plotType == Overlay {
		return fig.Panel(row, 0)
	}
	return fig.Panel(row, col)
}

func newSummary(title string, conds []config.Condition, groups []string, plotType PlotType) (*Figure, error) {
	var fig *Figure
	switch plotType {
	case Overlay:
		fig = NewFigure(title, len(conds), 1)
	case Grid:
		fig = NewFigure(title, len(conds), len(groups))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlotType, plotType)
	}
	for row, c := range conds {
		fig.RowLabels[row] = c.Label
		if plotType == Overlay {
			fig.Panel(row, 0).Title = c.Label
			continue
		}
		if row == 0 {
			for col, g := range groups {
				fig.Panel(0, col).Title = g
			}
		}
	}
	return fig, nil
}

// AnalogSummary draws every neuron's trace, coloured by group.
func AnalogSummary(data *analysis.AnalogData, plotType PlotType) (*Figure, error) {
	fig, err := newSummary(data.Var, data.Conditions, data.Groups, plotType)
	if err != nil {
		return nil, err
	}

	for row, c := range data.Conditions {
		for col, g := range data.Groups {
			p := layout(fig, plotType, row, col)
			p.XLabel = timeLabel
			p.YLabel = monitorLabel(data.Var)

			tr := data.Trace(c.Label, g)
			for i, y := range tr.Data {
				p.Series = append(p.Series, Series{
					Name:  fmt.Sprintf("%s[%d]", g, i),
					Group: g,
					X:     tr.Time,
					Y:     y,
					Color: Color(col),
				})
			}
		}
	}
	return fig, nil
}

// SpikeSummary draws one PSTH line per unit that fired, against the left
// edge of each bin.
func SpikeSummary(data *analysis.SpikeData, plotType PlotType) (*Figure, error) {
	fig, err := newSummary("psth", data.Conditions, data.Groups, plotType)
	if err != nil {
		return nil, err
	}

	for row, c := range data.Conditions {
		for col, g := range data.Groups {
			p := layout(fig, plotType, row, col)
			p.XLabel = timeLabel
			p.YLabel = rateLabel
			p.FixedY, p.YMin, p.YMax = true, 0, maxRate

			tr := data.Train(c.Label, g)
			if tr.Empty() {
				continue
			}
			x := tr.PSTH.LeftEdges()
			for i, u := range tr.PSTH.Units {
				p.Series = append(p.Series, Series{
					Name:  fmt.Sprintf("%s[%d]", g, u),
					Group: g,
					X:     x,
					Y:     tr.PSTH.Rates[i],
					Color: Color(col),
				})
			}
		}
	}
	return fig, nil
}

// FrequencyResponseFigure plots depth of modulation and mean rate against
// stimulus frequency, one line per group.
func FrequencyResponseFigure(resp map[string][]analysis.ResponsePoint) *Figure {
	groups := make([]string, 0, len(resp))
	for g := range resp {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	fig := NewFigure("frequency response", 2, 1)
	dom, rate := fig.Panel(0, 0), fig.Panel(1, 0)
	fig.RowLabels[0], fig.RowLabels[1] = "depth of modulation", "mean rate"
	dom.Title, dom.XLabel, dom.YLabel = "depth of modulation", "frequency (Hz)", rateLabel
	rate.Title, rate.XLabel, rate.YLabel = "mean rate", "frequency (Hz)", rateLabel

	for i, g := range groups {
		pts := resp[g]
		x := make([]float64, len(pts))
		yd := make([]float64, len(pts))
		yr := make([]float64, len(pts))
		for k, pt := range pts {
			x[k], yd[k], yr[k] = pt.Freq, pt.DOM, pt.MeanRate
		}
		dom.Series = append(dom.Series, Series{Name: g, Group: g, X: x, Y: yd, Color: Color(i)})
		rate.Series = append(rate.Series, Series{Name: g, Group: g, X: x, Y: yr, Color: Color(i)})
	}
	return fig
}

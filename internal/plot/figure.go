// Package plot lays recorded data out as figures independent of any
// renderer. Package viz draws them in the terminal and package export
// writes them as SVG.
package plot

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var ErrUnknownPlotType = errors.New("unknown plot type")

type PlotType string

const (
	// Overlay draws one panel per condition with every group in it.
	Overlay PlotType = "overlay"
	// Grid draws one panel per condition and group.
	Grid PlotType = "grid"
)

func ParsePlotType(s string) (PlotType, error) {
	switch PlotType(strings.ToLower(s)) {
	case Overlay:
		return Overlay, nil
	case Grid:
		return Grid, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPlotType, s)
}

// Palette is the ten colour categorical cycle used for groups.
var Palette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

func Color(i int) string {
	return Palette[i%len(Palette)]
}

type Series struct {
	Name  string
	Group string
	X     []float64
	Y     []float64
	Color string
}

type Panel struct {
	Title  string
	XLabel string
	YLabel string
	Series []Series
	// FixedY pins the y axis to [YMin, YMax] instead of the data range.
	FixedY bool
	YMin   float64
	YMax   float64
}

// YRange returns the y axis limits of the panel.
func (p *Panel) YRange() (lo, hi float64) {
	if p.FixedY {
		return p.YMin, p.YMax
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, s := range p.Series {
		for _, y := range s.Y {
			lo = math.Min(lo, y)
			hi = math.Max(hi, y)
		}
	}
	if math.IsInf(lo, 1) {
		return 0, 1
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	return lo, hi
}

// XRange returns the x extent of the panel's data.
func (p *Panel) XRange() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, s := range p.Series {
		for _, x := range s.X {
			lo = math.Min(lo, x)
			hi = math.Max(hi, x)
		}
	}
	if math.IsInf(lo, 1) {
		return 0, 1
	}
	if lo == hi {
		hi = lo + 1
	}
	return lo, hi
}

func (p *Panel) Empty() bool {
	for _, s := range p.Series {
		if len(s.Y) > 0 {
			return false
		}
	}
	return true
}

// Figure is a Rows x Cols grid of panels stored row major.
type Figure struct {
	Title     string
	Rows      int
	Cols      int
	RowLabels []string
	Panels    []Panel
}

func NewFigure(title string, rows, cols int) *Figure {
	return &Figure{
		Title:     title,
		Rows:      rows,
		Cols:      cols,
		RowLabels: make([]string, rows),
		Panels:    make([]Panel, rows*cols),
	}
}

func (f *Figure) Panel(row, col int) *Panel {
	return &f.Panels[row*f.Cols+col]
}

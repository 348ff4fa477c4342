package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/hvasim/internal/plot"
)

// Terminal colours matching plot.Palette entry for entry.
var seriesColors = []asciigraph.AnsiColor{
	asciigraph.Blue, asciigraph.Orange, asciigraph.Green, asciigraph.Red, asciigraph.Purple,
	asciigraph.Brown, asciigraph.Pink, asciigraph.Gray, asciigraph.Olive, asciigraph.Cyan,
}

func ansiColor(hex string) asciigraph.AnsiColor {
	for i, c := range plot.Palette {
		if strings.EqualFold(c, hex) {
			return seriesColors[i]
		}
	}
	return asciigraph.Default
}

type line struct {
	name  string
	color asciigraph.AnsiColor
	y     []float64
}

// groupLines averages the series of each group into one line, keeping the
// order in which groups first appear.
func groupLines(p *plot.Panel) []line {
	var (
		lines []line
		count []int
		index = make(map[string]int)
	)
	for _, s := range p.Series {
		if len(s.Y) == 0 {
			continue
		}
		key := s.Group
		if key == "" {
			key = s.Name
		}
		i, ok := index[key]
		if !ok {
			i = len(lines)
			index[key] = i
			lines = append(lines, line{name: key, color: ansiColor(s.Color), y: append([]float64(nil), s.Y...)})
			count = append(count, 1)
			continue
		}
		if len(s.Y) < len(lines[i].y) {
			lines[i].y = lines[i].y[:len(s.Y)]
		}
		for k := range lines[i].y {
			lines[i].y[k] += s.Y[k]
		}
		count[i]++
	}
	for i := range lines {
		for k := range lines[i].y {
			lines[i].y[k] /= float64(count[i])
		}
	}
	return lines
}

func precision(lo, hi float64) uint {
	span := hi - lo
	switch {
	case span <= 0:
		return 2
	case span < 0.01:
		return 5
	case span < 1:
		return 3
	case span < 100:
		return 1
	}
	return 0
}

// RenderPanel draws one panel as an asciigraph chart.
func RenderPanel(p *plot.Panel, width, height int) string {
	lines := groupLines(p)
	if len(lines) == 0 {
		return Subtle.Render("(no data)")
	}

	data := make([][]float64, len(lines))
	colors := make([]asciigraph.AnsiColor, len(lines))
	names := make([]string, len(lines))
	for i, l := range lines {
		data[i], colors[i], names[i] = l.y, l.color, l.name
	}

	lo, hi := p.YRange()
	opts := []asciigraph.Option{
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(precision(lo, hi)),
		asciigraph.SeriesColors(colors...),
		asciigraph.SeriesLegends(names...),
		asciigraph.Caption(fmt.Sprintf("%s vs %s", p.YLabel, p.XLabel)),
	}
	if p.FixedY {
		opts = append(opts, asciigraph.LowerBound(p.YMin), asciigraph.UpperBound(p.YMax))
	}

	graph := asciigraph.PlotMany(data, opts...)
	xlo, xhi := p.XRange()
	return graph + "\n" + Subtle.Render(fmt.Sprintf("x: %s .. %s", formatTick(xlo), formatTick(xhi)))
}

// RenderFigure draws every panel of fig, row by row.
func RenderFigure(fig *plot.Figure, width, height int) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render(fig.Title) + "\n\n")

	for row := 0; row < fig.Rows; row++ {
		for col := 0; col < fig.Cols; col++ {
			p := fig.Panel(row, col)
			title := p.Title
			if fig.Cols > 1 {
				title = fmt.Sprintf("%s / %s", fig.RowLabels[row], columnTitle(fig, col))
			}
			if title != "" {
				b.WriteString(HeaderStyle.Render(title) + "\n")
			}
			b.WriteString(RenderPanel(p, width, height) + "\n\n")
		}
	}
	return b.String()
}

// columnTitle is the group name shown above the first row of a grid.
func columnTitle(fig *plot.Figure, col int) string {
	return fig.Panel(0, col).Title
}

func formatTick(v float64) string {
	if v != 0 && math.Abs(v) < 0.01 {
		return fmt.Sprintf("%.2e", v)
	}
	return fmt.Sprintf("%.3g", v)
}

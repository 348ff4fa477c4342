package export

import (
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/san-kum/hvasim/internal/plot"
	"github.com/san-kum/hvasim/internal/viz"
)

const (
	background = "#0a0a0a"
	foreground = "#cccccc"
	axisColor  = "#444466"
)

// CanvasToSVG converts a Braille canvas, such as a spike raster, to SVG
// with one circle per dot.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.DotsX()) * scale
	height := float64(canvas.DotsY()) * scale

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
<g fill="%s">
`, width, height, width, height, background, plot.Palette[0]))

	dotRadius := scale * 0.4
	for y := 0; y < canvas.DotsY(); y++ {
		for x := 0; x < canvas.DotsX(); x++ {
			if !canvas.IsSet(x, y) {
				continue
			}
			cx := float64(x)*scale + scale/2
			cy := float64(y)*scale + scale/2
			sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f"/>
`, cx, cy, dotRadius))
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// Margins around the plotting area of each panel, in pixels.
const (
	marginLeft   = 60.0
	marginRight  = 15.0
	marginTop    = 25.0
	marginBottom = 40.0
)

// FigureSVG lays the panels of fig out on a width x height grid with axes,
// labels and one path per series.
func FigureSVG(fig *plot.Figure, width, height int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif" font-size="11">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background))

	top := 0.0
	if fig.Title != "" {
		top = 24
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="17" fill="%s" font-size="14" text-anchor="middle">%s</text>
`, width/2, foreground, html.EscapeString(fig.Title)))
	}

	if fig.Rows > 0 && fig.Cols > 0 {
		cellW := float64(width) / float64(fig.Cols)
		cellH := (float64(height) - top) / float64(fig.Rows)
		for row := 0; row < fig.Rows; row++ {
			for col := 0; col < fig.Cols; col++ {
				x0 := float64(col) * cellW
				y0 := top + float64(row)*cellH
				title := fig.Panel(row, col).Title
				if fig.Cols > 1 {
					title = fig.RowLabels[row] + " / " + fig.Panel(0, col).Title
				}
				writePanel(&sb, fig.Panel(row, col), title, x0, y0, cellW, cellH)
			}
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}

func writePanel(sb *strings.Builder, p *plot.Panel, title string, x0, y0, w, h float64) {
	left, right := x0+marginLeft, x0+w-marginRight
	upper, lower := y0+marginTop, y0+h-marginBottom
	if right <= left || lower <= upper {
		return
	}

	xlo, xhi := p.XRange()
	ylo, yhi := p.YRange()
	sx := func(x float64) float64 { return left + (x-xlo)/(xhi-xlo)*(right-left) }
	sy := func(y float64) float64 {
		y = math.Max(ylo, math.Min(yhi, y))
		return lower - (y-ylo)/(yhi-ylo)*(lower-upper)
	}

	sb.WriteString(fmt.Sprintf(`<g>
<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="none" stroke="%s"/>
`, left, upper, right-left, lower-upper, axisColor))
	if title != "" {
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" fill="%s" text-anchor="middle">%s</text>
`, (left+right)/2, upper-8, foreground, html.EscapeString(title)))
	}

	for _, tick := range []struct {
		v     float64
		x, y  float64
		align string
	}{
		{xlo, left, lower + 14, "start"},
		{xhi, right, lower + 14, "end"},
		{ylo, left - 4, lower, "end"},
		{yhi, left - 4, upper + 8, "end"},
	} {
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" fill="%s" text-anchor="%s">%s</text>
`, tick.x, tick.y, foreground, tick.align, formatTick(tick.v)))
	}

	if p.XLabel != "" {
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" fill="%s" text-anchor="middle">%s</text>
`, (left+right)/2, lower+30, foreground, html.EscapeString(p.XLabel)))
	}
	if p.YLabel != "" {
		cx, cy := x0+14, (upper+lower)/2
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" fill="%s" text-anchor="middle" transform="rotate(-90 %.1f %.1f)">%s</text>
`, cx, cy, foreground, cx, cy, html.EscapeString(p.YLabel)))
	}

	for _, s := range p.Series {
		n := min(len(s.X), len(s.Y))
		if n == 0 {
			continue
		}
		color := s.Color
		if color == "" {
			color = foreground
		}
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1" d="M`, color))
		for i := 0; i < n; i++ {
			if i == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", sx(s.X[i]), sy(s.Y[i])))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", sx(s.X[i]), sy(s.Y[i])))
			}
		}
		sb.WriteString(`"/>
`)
	}
	sb.WriteString("</g>\n")
}

func formatTick(v float64) string {
	if v != 0 && math.Abs(v) < 0.01 {
		return fmt.Sprintf("%.2e", v)
	}
	return fmt.Sprintf("%.3g", v)
}

package viz

import (
	"fmt"
	"strings"

	"github.com/san-kum/hvasim/internal/monitor"
)

// Raster draws one dot per spike with time across and unit index down.
// Units share dot rows when the group is taller than height*4.
func Raster(spk *monitor.SpikeMonitor, simTime float64, width, height int) *Canvas {
	n := spk.N
	if n < 1 {
		n = 1
	}
	rows := (n + 3) / 4
	if rows > height {
		rows = height
	}
	c := NewCanvas(width, rows)
	if simTime <= 0 {
		return c
	}

	dotsX, dotsY := c.DotsX(), c.DotsY()
	if n < dotsY {
		dotsY = n
	}
	for k, t := range spk.T {
		if t < 0 || t > simTime {
			continue
		}
		x := int(t / simTime * float64(dotsX-1))
		y := spk.I[k] * dotsY / n
		c.Set(x, y)
	}
	return c
}

// RenderRaster draws a titled raster with unit and time labels.
func RenderRaster(title string, spk *monitor.SpikeMonitor, simTime float64, width, height int) string {
	c := Raster(spk, simTime, width, height)

	var b strings.Builder
	b.WriteString(HeaderStyle.Render(title) + "\n")
	gutter := len(fmt.Sprint(spk.N - 1))
	for i, l := range c.Lines() {
		label := ""
		if i == 0 {
			label = "0"
		} else if i == c.Height-1 {
			label = fmt.Sprint(spk.N - 1)
		}
		b.WriteString(Subtle.Render(fmt.Sprintf("%*s │", gutter, label)) + l + "\n")
	}

	end := fmt.Sprintf("%.3gs", simTime)
	pad := c.Width - len(end) - 2
	if pad < 1 {
		pad = 1
	}
	b.WriteString(Subtle.Render(fmt.Sprintf("%*s  0s%s%s", gutter, "", strings.Repeat(" ", pad), end)) + "\n")
	b.WriteString(MetricLabel.Render("spikes ") + MetricValue.Render(fmt.Sprint(spk.Count())) + "\n")
	return b.String()
}

// Package viz renders figures and spike trains in the terminal.
//
//   - [RenderFigure]: every panel of a [plot.Figure] as an asciigraph chart
//   - [Raster]: spike raster on a Braille [Canvas]
//   - [ProgressModel]: Bubble Tea view of a running experiment
//
// Terminal charts are sampled by index, so series within a panel are
// expected to share their x values. Traces of one group are averaged into
// a single line before plotting.
package viz

// Package analysis reshapes saved recordings into plottable summaries.
//
// The entry points take the bundles of one run, in condition order:
//
//   - [ExtractAnalog]: voltage or conductance traces per condition and group
//   - [ExtractSpikes]: spike trains per condition and group, with a [PSTH]
//   - [FrequencyResponse]: depth of modulation of the population rate
//     at each condition's stimulus frequency
//
// # Binning
//
// PSTH edges run 0, b, 2b, ... up to the first edge at or beyond the
// simulated time. Bins are half-open except the last, which also counts
// spikes that land exactly on the final edge:
//
//	h, err := analysis.PSTH(spk.T, spk.I, 0.025, 5)
//	rates := analysis.PopulationRate(h)
package analysis

// Package viz renders ensemble results in the terminal.
//
//   - [RenderSummary]: outcome counts and range statistics as a styled panel
//   - [DepthProfile]: asciigraph plot of the stopped-ion depth histogram
//   - [TrajectoryPlot]: braille x-z projection of recorded paths
//   - [ProgressModel]: Bubble Tea view of a running ensemble
//
// # Key Bindings
//
//	Q, Ctrl+C - stop the run and keep the ions completed so far
package viz

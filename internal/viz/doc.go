// Package viz renders a running world in the terminal.
//
// [Model] is a Bubble Tea program that steps a world on every tick and draws
// it on a braille [Canvas] next to a lipgloss side panel with a kinetic
// energy chart.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Rebuild the world from its seed
//	T     - Cycle color themes
//	?     - Show help overlay
//	[ ]   - Step back/forward through recorded frames
//	Q     - Quit
package viz

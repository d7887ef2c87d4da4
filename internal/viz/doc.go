// Package viz renders robot arms and their trajectories.
//
// Terminal output uses a braille [Canvas] projected through a [Camera], with
// lipgloss panels and asciigraph charts. [Model] is a Bubble Tea program that
// steps a [dynamo.Simulator] live and lets gains of a configurable controller
// be tuned while the arm moves. [Figure] writes joint trajectories to image
// files through gonum/plot.
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	R     - Reset to initial state and gains
//	Tab   - Select gain, Up/Down to scale it
//	X/Y   - Rotate camera, +/- to zoom
//	[ ]   - Step through history
//	?     - Show help overlay
package viz

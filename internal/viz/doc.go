// Package viz provides the terminal front end for circuit simulations.
//
// The package implements an interactive TUI using the Bubble Tea framework:
//
//   - [Model]: live view that steps one circuit per tick, plots its probes
//     and tunes element parameters in place
//   - [NewInteractiveApp]: preset picker that opens a live view
//   - [Canvas]: Braille-based dot canvas; [DrawCircuit] renders a schematic
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	S     - Single step while paused
//	R     - Reset time and parameters
//	Tab   - Select next parameter
//	↑/↓   - Tune selected parameter by 5%
//	P     - Graph next probe
//	T     - Cycle color themes
//	?     - Show help overlay
//
// A [ReloadMsg] swaps the running circuit, which is how file watching feeds
// edits into a running view.
package viz

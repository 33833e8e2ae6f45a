// Package viz is the terminal host for the dashboard engine.
//
// The Bubble Tea program draws the two surfaces as a braille wireframe
// colored on the diverging intensity scale, with a side panel for the
// playback status, an attention/meditation timeline and per-metric bars.
//
// # Key Bindings
//
//	Space - Pause/Resume the live view
//	[ ]   - Step through history (enters historical mode)
//	Tab   - Cycle sensors, A toggles all sensors
//	R     - Reset history
//	E     - Mark the next configured event
//	hjkl  - Rotate the view; + and - zoom
//	D     - Camera and interaction debug overlay
//	T     - Cycle color themes
//	?     - Show help overlay
//
// Dragging with the left mouse button rotates the view. While a drag is
// in progress, and for a short window after the last view change, routine
// refreshes leave the scene untouched.
package viz

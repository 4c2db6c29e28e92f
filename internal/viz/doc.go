// Package viz is the terminal live view, built on Bubble Tea.
//
//   - [Model]: one driver tick per frame, drawn on a Braille [Canvas]
//     with an energy chart and per-pendulum readouts
//   - [Picker]: preset menu that hands over to a [Model]
//   - Five colour themes, cycled with T
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Reset to initial state
//	T     - Cycle color themes
//	?     - Show help overlay
//	[ ]   - Time travel (rewind/forward)
//
// Time travel only replays recorded snapshots; the simulation itself is
// never rewound.
package viz

// Package timesource produces the time step fed to the simulator on each
// tick.
//
// Two interchangeable strategies implement [Source]:
//
//   - [WallClock] measures real elapsed time since its previous reading and
//     ignores the frame delta offered by the loop.
//   - [External] passes the loop's own frame delta through after
//     validating it.
//
// Exactly one source is used for a run. Tests substitute the wall clock's
// [Clock] with a fake to control readings.
package timesource

// Package ui renders the run report on the terminal.
//
// Console prints one line per event (saved image, failed image, failed
// page) and the final summary. Colour is applied to whole lines and is
// disabled automatically when stdout is not a terminal. StatusTracker
// follows progress towards the image quota.
package ui

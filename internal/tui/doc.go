// Package tui implements the interactive dashboard for watching and
// switching a PDU from the terminal.
//
// The dashboard polls the device status on a fixed interval and renders the
// bank readings (current, temperature, humidity and, when a sideband client
// is attached, mains voltage) together with the eight outlet states. Outlets
// can be selected with the arrow keys or digits 1-8 and switched with:
//
//	o  turn the selected outlet on
//	f  turn the selected outlet off
//	c  power-cycle the selected outlet
//	r  refresh immediately
//	q  quit
//
// The model follows the standard bubbletea update loop and is safe to embed
// in other programs.
package tui

// Package gpio connects the receiver and transmitter to Raspberry Pi pins
// through periph.io, and provides the two sampling strategies for the input
// pin: a busy poll loop and a wait on kernel edge interrupts.
package gpio

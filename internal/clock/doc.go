// Package clock provides the monotonic time base used for transition timing
// and the deadline-based holds used by the transmitter.
package clock

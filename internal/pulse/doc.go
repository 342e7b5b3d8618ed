// Package pulse turns the timing of level transitions on a digital input into
// bits. Decoder is the live pulse-count decoder used by the receive loop and
// Analyze is the one-shot run-length decoder used to inspect a captured window
// after the fact.
package pulse

// Package capture handles everything recorded about a received message
// outside the decode itself: the diagnostic block written to the daily log,
// its console rendering, and WAV recordings of the receiver output.
package capture

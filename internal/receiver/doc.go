// Package receiver runs the receive loop: it pulls pin edges from an
// EdgeSource, feeds them to a pulse.Decoder, closes each message window when
// the silence gate expires and hands the message to the handler for the
// configured mode.
package receiver

// Package match runs a command when the start of a received capture matches
// a configured hex prefix.
//
// Rules are read from a text file of HEXPREFIX=COMMAND lines. Reading stops at
// the first blank line. The capture is rendered as uppercase hex and the first
// rule whose prefix it starts with wins.
package match

// Package cipher implements the repeating-key XOR obfuscation applied to
// packet payloads. It keeps casual listeners from reading the payload and is
// not a security control.
package cipher

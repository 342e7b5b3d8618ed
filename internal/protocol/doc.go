// Package protocol implements framing and validation of the 433MHz data packet.
// A packet is a 4 byte signature, a length field, the obfuscated payload and
// an XOR checksum of the payload.
package protocol

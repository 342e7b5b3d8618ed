package protocol

import "errors"

var (
	// ErrTooShort is returned when the captured data cannot hold the frame it describes.
	ErrTooShort = errors.New("packet too short")
	// ErrSignatureMismatch is returned when the first bytes are not the packet signature.
	ErrSignatureMismatch = errors.New("invalid signature")
	// ErrChecksumMismatch is returned when the XOR of the payload differs from the checksum byte.
	ErrChecksumMismatch = errors.New("invalid checksum")
	// ErrPayloadSize is returned when a payload cannot be framed.
	ErrPayloadSize = errors.New("invalid payload size")
)

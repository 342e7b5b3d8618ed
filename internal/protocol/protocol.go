package protocol

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/BirchJD/RPi-433MHz/internal/cipher"
)

// Protocol constants
const (
	// Packet structure sizes
	SignatureSize = 4
	ChecksumSize  = 1

	// Length field widths
	LengthWidthStandard = 1 // payload of 1-255 bytes
	LengthWidthExtended = 2 // payload of 1-65535 bytes, big-endian

	// DefaultMinRxBytes is the smallest capture worth looking at.
	DefaultMinRxBytes = 4
)

// DefaultSignature identifies packets produced by the transmitter.
var DefaultSignature = [SignatureSize]byte{0x63, 0xF9, 0x5C, 0x1B}

// Options selects the framing variant shared by sender and receiver.
type Options struct {
	Signature   [SignatureSize]byte
	LengthWidth int // 1 or 2
	MinRxBytes  int // captures shorter than this are dropped silently
}

// DefaultOptions returns the standard single-byte length framing.
func DefaultOptions() Options {
	return Options{
		Signature:   DefaultSignature,
		LengthWidth: LengthWidthStandard,
		MinRxBytes:  DefaultMinRxBytes,
	}
}

// Packet is a framed packet.
// Layout: [Signature:4][Length:1|2][Payload:Length][Checksum:1]
type Packet struct {
	Signature [SignatureSize]byte
	Length    int    // payload length as carried in the length field
	Payload   []byte // payload as carried on the air (obfuscated)
	Checksum  byte   // XOR of all payload bytes
}

// Overhead returns the number of non-payload bytes in a frame.
func (o Options) Overhead() int {
	return SignatureSize + o.lengthWidth() + ChecksumSize
}

// MaxPayload returns the largest payload the length field can describe.
func (o Options) MaxPayload() int {
	if o.lengthWidth() == LengthWidthExtended {
		return 0xFFFF
	}
	return 0xFF
}

func (o Options) lengthWidth() int {
	if o.LengthWidth == LengthWidthExtended {
		return LengthWidthExtended
	}
	return LengthWidthStandard
}

// Checksum returns the running XOR of data.
func Checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum ^= b
	}
	return sum
}

// Parse validates a captured byte sequence and extracts the packet it carries.
// Bytes after the checksum are ignored.
func Parse(data []byte, opts Options) (*Packet, error) {
	if len(data) < opts.MinRxBytes {
		return nil, fmt.Errorf("%w: expected at least %d bytes, got %d", ErrTooShort, opts.MinRxBytes, len(data))
	}
	if len(data) < SignatureSize {
		return nil, fmt.Errorf("%w: expected at least %d signature bytes, got %d", ErrTooShort, SignatureSize, len(data))
	}

	packet := &Packet{}
	copy(packet.Signature[:], data[:SignatureSize])
	if packet.Signature != opts.Signature {
		return nil, fmt.Errorf("%w: got % X", ErrSignatureMismatch, packet.Signature[:])
	}

	lw := opts.lengthWidth()
	offset := SignatureSize
	if len(data) < offset+lw {
		return nil, fmt.Errorf("%w: missing length field", ErrTooShort)
	}
	if lw == LengthWidthExtended {
		packet.Length = int(binary.BigEndian.Uint16(data[offset : offset+lw]))
	} else {
		packet.Length = int(data[offset])
	}
	offset += lw

	if need := offset + packet.Length + ChecksumSize; len(data) < need {
		return nil, fmt.Errorf("%w: length field %d needs %d bytes, got %d", ErrTooShort, packet.Length, need, len(data))
	}

	packet.Payload = make([]byte, packet.Length)
	copy(packet.Payload, data[offset:offset+packet.Length])
	packet.Checksum = data[offset+packet.Length]

	if sum := Checksum(packet.Payload); sum != packet.Checksum {
		return nil, fmt.Errorf("%w: computed 0x%02X, received 0x%02X", ErrChecksumMismatch, sum, packet.Checksum)
	}

	return packet, nil
}

// Decode parses a capture and returns the packet together with its decrypted payload.
func Decode(data []byte, opts Options, key cipher.Key) (*Packet, []byte, error) {
	packet, err := Parse(data, opts)
	if err != nil {
		return nil, nil, err
	}
	return packet, key.Decrypt(packet.Payload), nil
}

// NewPacket builds a packet around an already obfuscated payload.
func NewPacket(payload []byte, opts Options) (*Packet, error) {
	if len(payload) == 0 || len(payload) > opts.MaxPayload() {
		return nil, fmt.Errorf("%w: %d bytes (allowed 1-%d)", ErrPayloadSize, len(payload), opts.MaxPayload())
	}
	p := &Packet{
		Signature: opts.Signature,
		Length:    len(payload),
		Payload:   make([]byte, len(payload)),
		Checksum:  Checksum(payload),
	}
	copy(p.Payload, payload)
	return p, nil
}

// Encode encrypts plain with key and returns the complete wire frame.
func Encode(plain []byte, opts Options, key cipher.Key) ([]byte, error) {
	packet, err := NewPacket(key.Encrypt(plain), opts)
	if err != nil {
		return nil, err
	}
	return packet.Marshal(opts), nil
}

// Marshal serializes the packet in wire order.
func (p *Packet) Marshal(opts Options) []byte {
	lw := opts.lengthWidth()
	out := make([]byte, 0, opts.Overhead()+len(p.Payload))
	out = append(out, p.Signature[:]...)
	if lw == LengthWidthExtended {
		out = binary.BigEndian.AppendUint16(out, uint16(p.Length))
	} else {
		out = append(out, byte(p.Length))
	}
	out = append(out, p.Payload...)
	return append(out, p.Checksum)
}

// ParseSignature decodes a hex signature such as "63F95C1B" or "63 F9 5C 1B".
func ParseSignature(s string) ([SignatureSize]byte, error) {
	var sig [SignatureSize]byte
	raw, err := hex.DecodeString(strings.Join(strings.Fields(s), ""))
	if err != nil {
		return sig, fmt.Errorf("invalid signature %q: %w", s, err)
	}
	if len(raw) != SignatureSize {
		return sig, fmt.Errorf("signature must be %d bytes, got %d", SignatureSize, len(raw))
	}
	copy(sig[:], raw)
	return sig, nil
}

// HexString renders data as uppercase hex without separators.
func HexString(data []byte) string {
	return strings.ToUpper(hex.EncodeToString(data))
}

// String returns a human-readable representation of the packet
func (p *Packet) String() string {
	return fmt.Sprintf("Packet{Signature:% X, Length:%d, Payload:% X, Checksum:0x%02X}",
		p.Signature[:], p.Length, p.Payload, p.Checksum)
}

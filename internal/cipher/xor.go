package cipher

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// KeySize is the length of the default key.
const KeySize = 16

// DefaultKey is the key shared by the stock transmitter and receiver.
var DefaultKey = Key{0xC5, 0x07, 0x8C, 0xA9, 0xBD, 0x8B, 0x48, 0xEF, 0x88, 0xE1, 0x94, 0xDB, 0x63, 0x77, 0x95, 0x59}

// Key is a repeating XOR key. Byte i of a payload is combined with key[i mod len(key)].
type Key []byte

// ParseKey decodes a hex string such as "C5078CA9..." or "C5 07 8C ...".
func ParseKey(s string) (Key, error) {
	clean := strings.Join(strings.Fields(s), "")
	raw, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid key %q: %w", s, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("key cannot be empty")
	}
	return Key(raw), nil
}

// XOR returns data combined position-wise with the repeating key. The input
// is not modified. An empty key returns a plain copy.
func (k Key) XOR(data []byte) []byte {
	out := make([]byte, len(data))
	if len(k) == 0 {
		copy(out, data)
		return out
	}
	for i, b := range data {
		out[i] = b ^ k[i%len(k)]
	}
	return out
}

// Encrypt obfuscates a payload.
func (k Key) Encrypt(plain []byte) []byte { return k.XOR(plain) }

// Decrypt reverses Encrypt; XOR is its own inverse.
func (k Key) Decrypt(obfuscated []byte) []byte { return k.XOR(obfuscated) }

// String renders the key as spaced uppercase hex.
func (k Key) String() string {
	parts := make([]string, len(k))
	for i, b := range k {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, " ")
}

package publish

import "time"

// Topic suffixes under the configured prefix.
const (
	TopicPackets = "rx"
	TopicMatches = "match"
)

// PacketEvent is published for every packet that passes validation.
type PacketEvent struct {
	Time        time.Time `json:"time"`
	Signature   string    `json:"signature"`
	Length      int       `json:"length"`
	Payload     string    `json:"payload"` // decrypted, hex
	Text        string    `json:"text"`    // decrypted, printable characters only
	Bits        int       `json:"bits"`
	UnitSeconds float64   `json:"unit_seconds"`
}

// MatchEvent is published when a capture matches a rule, and for captures
// matching nothing when unmatched reporting is enabled.
type MatchEvent struct {
	Time    time.Time `json:"time"`
	Data    string    `json:"data"`
	Matched bool      `json:"matched"`
	Prefix  string    `json:"prefix,omitempty"`
	Command string    `json:"command,omitempty"`
	Error   string    `json:"error,omitempty"`
}

package pulse

import (
	"fmt"
	"time"
)

// Level is a sampled pin level.
type Level uint8

const (
	Low  Level = 0
	High Level = 1
)

// Invert returns the opposite level.
func (l Level) Invert() Level {
	return l ^ 1
}

func (l Level) String() string {
	if l == Low {
		return "LOW"
	}
	return "HIGH"
}

// Event is one level held for a measured duration. Seq numbers events within
// a window, starting at zero.
type Event struct {
	Seq      uint64
	Level    Level
	Duration time.Duration
}

func (e Event) String() string {
	return fmt.Sprintf("[%d] %s %v", e.Seq, e.Level, e.Duration)
}

// Window is the ordered list of events captured for one message.
type Window []Event

// Duration returns the summed duration of all events.
func (w Window) Duration() time.Duration {
	var total time.Duration
	for _, e := range w {
		total += e.Duration
	}
	return total
}

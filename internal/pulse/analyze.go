package pulse

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/BirchJD/RPi-433MHz/internal/bitstream"
)

// ErrBadTiming is returned when a window does not look like data.
var ErrBadTiming = errors.New("bad timing data")

// edgeGuard is the number of events at each end of a window left out of the
// minimum period search. They are the most likely to be noise.
const edgeGuard = 2

// AnalysisConfig holds the parameters of the one-shot decode.
type AnalysisConfig struct {
	EndPeriod    time.Duration
	RejectPeriod time.Duration
	StartBits    int
	// Invert flips the logical value of each level, for receivers wired
	// through an inverting level shifter.
	Invert bool
}

// Analysis is the result of a one-shot decode.
type Analysis struct {
	Events int

	MinLow     time.Duration
	MinLowSeq  uint64
	MinHigh    time.Duration
	MinHighSeq uint64

	// Decoded is false when the window was rejected before decoding.
	Decoded bool

	// Binary is the run-length bit stream as '0' and '1' characters.
	Binary string
	// Bytes is the run-length decode: each event is a run of bits of its level.
	Bytes []byte
	// AltBytes is the pulse-count decode: one period is 0, two periods are 1.
	AltBytes []byte
}

// Analyze decodes a captured window in one pass. The run-length decode uses
// the shortest period seen for each level as that level's bit period.
//
// The returned Analysis is never nil. When the error is ErrBadTiming the
// minimum periods are filled in, and the decoded data is too when the
// rejection was for all-zero data.
func Analyze(w Window, cfg AnalysisConfig) (*Analysis, error) {
	a := &Analysis{
		Events:  len(w),
		MinLow:  cfg.EndPeriod,
		MinHigh: cfg.EndPeriod,
	}

	for i, e := range w {
		if i < edgeGuard || i >= len(w)-edgeGuard || e.Duration >= cfg.EndPeriod {
			continue
		}
		if e.Level == Low && e.Duration < a.MinLow {
			a.MinLow, a.MinLowSeq = e.Duration, e.Seq
		}
		if e.Level == High && e.Duration < a.MinHigh {
			a.MinHigh, a.MinHighSeq = e.Duration, e.Seq
		}
	}

	if a.MinLow == cfg.EndPeriod || a.MinHigh == cfg.EndPeriod {
		return a, fmt.Errorf("%w: no usable period for a level", ErrBadTiming)
	}
	if a.MinLow < cfg.RejectPeriod || a.MinHigh < cfg.RejectPeriod {
		return a, fmt.Errorf("%w: minimum period below reject period %v", ErrBadTiming, cfg.RejectPeriod)
	}

	var invert Level
	if cfg.Invert {
		invert = 1
	}

	runs := bitstream.New(cfg.StartBits)
	alt := bitstream.New(cfg.StartBits)
	var binary strings.Builder
	skip := cfg.StartBits

	for _, e := range w {
		if e.Duration >= cfg.EndPeriod {
			continue
		}

		period := a.MinLow
		if e.Level == High {
			period = a.MinHigh
		}
		n := int(math.Round(float64(e.Duration) / float64(period)))

		bit := byte(e.Level ^ invert)
		for j := 0; j < n; j++ {
			if skip > 0 {
				skip--
			} else {
				binary.WriteByte('0' + bit)
			}
			runs.Push(bit)
		}

		switch n {
		case 1:
			alt.Push(0)
		case 2:
			alt.Push(1)
		}
	}

	a.Decoded = true
	a.Binary = binary.String()
	a.Bytes = runs.Bytes()
	a.AltBytes = alt.Bytes()

	if allZero(a.Bytes) || allZero(a.AltBytes) {
		return a, fmt.Errorf("%w: all zero data", ErrBadTiming)
	}
	return a, nil
}

func allZero(data []byte) bool {
	for _, b := range data {
		if b != 0 {
			return false
		}
	}
	return true
}

package pulse

import (
	"math"
	"time"

	"github.com/BirchJD/RPi-433MHz/internal/bitstream"
)

// DefaultCalibrationFactor scales the measured start bit period down so that
// a slightly short first data interval still rounds to one unit.
const DefaultCalibrationFactor = 0.9

// Class describes what a sample meant to the decoder.
type Class int

const (
	// ClassNone is a sample at the tracked level.
	ClassNone Class = iota
	// ClassNoise is a transition closer to the previous one than the reject period.
	ClassNoise
	// ClassStart is the transition that opened a message window.
	ClassStart
	// ClassCalibrate is the transition that ended the start bits and fixed the unit period.
	ClassCalibrate
	// ClassData is a transition that completed a data bit.
	ClassData
)

func (c Class) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassNoise:
		return "noise"
	case ClassStart:
		return "start"
	case ClassCalibrate:
		return "calibrate"
	case ClassData:
		return "data"
	default:
		return "unknown"
	}
}

// Config holds the timing parameters of the decoder.
type Config struct {
	// RejectPeriod is the shortest interval accepted as a transition.
	RejectPeriod time.Duration
	// EndPeriod is the silence that closes a message window.
	EndPeriod time.Duration
	// LevelPeriod is the unit period used when StartBits is zero.
	LevelPeriod time.Duration
	// StartBits is the number of unit periods the opening level is held for.
	StartBits int
	// CalibrationFactor scales the measured start period. Zero means the default.
	CalibrationFactor float64
	// IdleLevel is the pin level between messages.
	IdleLevel Level
}

// Message is the result of one closed window.
type Message struct {
	Bytes      []byte
	Bits       int
	Unit       time.Duration // unit period at close
	Calibrated bool          // unit was measured from start bits
	Noise      int           // transitions rejected as noise
	Window     Window        // every observed level change, noise included
	Start      time.Duration // time of the opening transition
	End        time.Duration // time of the last accepted transition
}

// Decoder is the live pulse-count decoder. Feed it every sample with Edge
// and poll Expired; when it reports true, Close returns the message and
// resets the decoder. A Decoder is owned by a single goroutine.
type Decoder struct {
	cfg Config

	level      Level
	open       bool
	calibrated bool
	start      time.Duration
	last       time.Duration
	unit       time.Duration
	noise      int
	asm        *bitstream.Assembler

	rawLevel Level
	rawLast  time.Duration
	window   Window
}

// NewDecoder returns a Decoder waiting for the first transition away from
// the idle level.
func NewDecoder(cfg Config) *Decoder {
	if cfg.CalibrationFactor <= 0 {
		cfg.CalibrationFactor = DefaultCalibrationFactor
	}
	if cfg.StartBits < 0 {
		cfg.StartBits = 0
	}
	d := &Decoder{
		cfg: cfg,
		asm: bitstream.New(0),
	}
	d.reset()
	return d
}

// Config returns the decoder configuration with defaults applied.
func (d *Decoder) Config() Config {
	return d.cfg
}

// Open reports whether a message window is in progress.
func (d *Decoder) Open() bool {
	return d.open
}

// Unit returns the current unit period estimate.
func (d *Decoder) Unit() time.Duration {
	return d.unit
}

// Edge feeds one sample of the pin taken at time at.
func (d *Decoder) Edge(at time.Duration, level Level) Class {
	if d.open && level != d.rawLevel {
		d.window = append(d.window, Event{
			Seq:      uint64(len(d.window)),
			Level:    d.rawLevel,
			Duration: at - d.rawLast,
		})
		d.rawLevel = level
		d.rawLast = at
	}

	if level == d.level {
		return ClassNone
	}

	if !d.open {
		d.open = true
		d.start = at
		d.last = at
		d.level = level
		d.rawLevel = level
		d.rawLast = at
		if d.cfg.StartBits == 0 {
			d.unit = d.cfg.LevelPeriod
		}
		return ClassStart
	}

	diff := at - d.last
	if diff < d.cfg.RejectPeriod {
		d.noise++
		return ClassNoise
	}

	d.level = level
	d.last = at

	if d.cfg.StartBits > 0 && !d.calibrated {
		d.unit = time.Duration(d.cfg.CalibrationFactor * float64(diff) / float64(d.cfg.StartBits))
		d.calibrated = true
		return ClassCalibrate
	}

	if d.unit <= 0 || diff < d.unit {
		d.unit = diff
	}
	if n := int(math.Round(float64(diff) / float64(d.unit))); n >= 2 {
		d.asm.Push(1)
	} else {
		d.asm.Push(0)
	}
	return ClassData
}

// Expired reports whether the window is open and nothing has been accepted
// for longer than the end period.
func (d *Decoder) Expired(now time.Duration) bool {
	return d.open && now-d.last > d.cfg.EndPeriod
}

// Deadline returns the time after which an open window expires.
func (d *Decoder) Deadline() time.Duration {
	return d.last + d.cfg.EndPeriod
}

// Close hands out the current message and resets the decoder.
func (d *Decoder) Close() Message {
	msg := Message{
		Bytes:      d.asm.Bytes(),
		Bits:       d.asm.Bits(),
		Unit:       d.unit,
		Calibrated: d.calibrated,
		Noise:      d.noise,
		Window:     d.window,
		Start:      d.start,
		End:        d.last,
	}
	d.reset()
	return msg
}

func (d *Decoder) reset() {
	d.level = d.cfg.IdleLevel
	d.rawLevel = d.cfg.IdleLevel
	d.open = false
	d.calibrated = false
	d.start = 0
	d.last = 0
	d.rawLast = 0
	d.unit = 0
	d.noise = 0
	d.window = nil
	d.asm.Reset()
}

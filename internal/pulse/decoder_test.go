package pulse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const unit = 500 * time.Microsecond

type sample struct {
	at    time.Duration
	level Level
}

// airTransitions returns the samples seen on the receiver for a frame sent
// with the pulse-count scheme: Low for startBits units, then one toggle per
// bit held for one unit (0) or two units (1), then back to High.
func airTransitions(frame []byte, u time.Duration, startBits int) []sample {
	t := time.Millisecond
	level := Low
	out := []sample{{t, level}}
	t += time.Duration(startBits) * u
	for _, b := range frame {
		for i := 7; i >= 0; i-- {
			level = level.Invert()
			out = append(out, sample{t, level})
			t += u
			if b>>uint(i)&1 == 1 {
				t += u
			}
		}
	}
	return append(out, sample{t, High})
}

// fromIntervals returns one transition at the start and one after each interval.
func fromIntervals(start time.Duration, first Level, intervals ...time.Duration) []sample {
	t := start
	level := first
	out := []sample{{t, level}}
	for _, d := range intervals {
		t += d
		level = level.Invert()
		out = append(out, sample{t, level})
	}
	return out
}

func testConfig(startBits int) Config {
	return Config{
		RejectPeriod: 5 * time.Microsecond,
		EndPeriod:    10 * time.Millisecond,
		LevelPeriod:  unit,
		StartBits:    startBits,
		IdleLevel:    High,
	}
}

func feed(d *Decoder, samples []sample) []Class {
	classes := make([]Class, 0, len(samples))
	for _, s := range samples {
		classes = append(classes, d.Edge(s.at, s.level))
	}
	return classes
}

func TestDecoderFixedPeriodBits(t *testing.T) {
	d := NewDecoder(testConfig(0))

	// 0 0 1 0 followed by 1 1 1 1
	classes := feed(d, fromIntervals(time.Millisecond, Low,
		unit, unit, 2*unit, unit,
		2*unit, 2*unit, 2*unit, 2*unit))

	assert.Equal(t, ClassStart, classes[0])
	for i, c := range classes[1:] {
		assert.Equal(t, ClassData, c, "transition %d", i+1)
	}

	msg := d.Close()
	assert.Equal(t, 8, msg.Bits)
	assert.Equal(t, []byte{0x2F}, msg.Bytes)
	assert.Equal(t, unit, msg.Unit)
	assert.False(t, msg.Calibrated)
}

func TestDecoderPartialByteDropped(t *testing.T) {
	d := NewDecoder(testConfig(0))
	feed(d, fromIntervals(time.Millisecond, Low, unit, unit, 2*unit, unit))

	msg := d.Close()
	assert.Equal(t, 4, msg.Bits)
	assert.Empty(t, msg.Bytes)
}

func TestDecoderStartBitCalibration(t *testing.T) {
	frame := []byte{0x63, 0xF9, 0x5C, 0x1B, 0x02, 0x8A, 0x4C, 0xC6}

	tests := []struct {
		name      string
		startBits int
		unit      time.Duration
	}{
		{name: "one start bit", startBits: 1, unit: unit},
		{name: "three start bits", startBits: 3, unit: unit},
		{name: "slow transmitter", startBits: 1, unit: 2 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDecoder(testConfig(tt.startBits))
			classes := feed(d, airTransitions(frame, tt.unit, tt.startBits))

			require.GreaterOrEqual(t, len(classes), 2)
			assert.Equal(t, ClassStart, classes[0])
			assert.Equal(t, ClassCalibrate, classes[1])

			msg := d.Close()
			assert.True(t, msg.Calibrated)
			assert.Equal(t, len(frame)*8, msg.Bits)
			assert.Equal(t, frame, msg.Bytes)
			assert.InDelta(t, 0.9*float64(tt.unit), float64(msg.Unit), 2)
		})
	}
}

func TestDecoderRunningMinimum(t *testing.T) {
	d := NewDecoder(testConfig(1))

	// Start bit of 2ms calibrates to 1.8ms, a 1.5ms interval then lowers it.
	feed(d, fromIntervals(time.Millisecond, Low, 2*time.Millisecond, 1500*time.Microsecond, 3*time.Millisecond))

	assert.Equal(t, 1500*time.Microsecond, d.Unit())
}

func TestDecoderNoiseFloor(t *testing.T) {
	clean := NewDecoder(testConfig(0))
	noisy := NewDecoder(testConfig(0))

	samples := fromIntervals(time.Millisecond, Low,
		unit, unit, 2*unit, unit,
		2*unit, 2*unit, 2*unit, 2*unit)
	feed(clean, samples)

	var glitched []sample
	for i, s := range samples {
		glitched = append(glitched, s)
		if i == 2 {
			// 2us spike to the opposite level and back
			glitched = append(glitched,
				sample{s.at + 2*time.Microsecond, s.level.Invert()},
				sample{s.at + 3*time.Microsecond, s.level})
		}
	}
	classes := feed(noisy, glitched)

	assert.Equal(t, ClassNoise, classes[3])
	assert.Equal(t, ClassNone, classes[4])

	want := clean.Close()
	got := noisy.Close()
	assert.Equal(t, want.Bytes, got.Bytes)
	assert.Equal(t, want.Bits, got.Bits)
	assert.Equal(t, want.Unit, got.Unit)
	assert.Equal(t, want.End, got.End)
	assert.Equal(t, 1, got.Noise)
	assert.Equal(t, 0, want.Noise)

	// The raw window keeps the spike
	assert.Len(t, want.Window, len(samples)-1)
	assert.Len(t, got.Window, len(samples)+1)
}

func TestDecoderSameLevelIsNotATransition(t *testing.T) {
	d := NewDecoder(testConfig(0))

	assert.Equal(t, ClassNone, d.Edge(time.Millisecond, High))
	assert.False(t, d.Open())

	assert.Equal(t, ClassStart, d.Edge(2*time.Millisecond, Low))
	assert.Equal(t, ClassNone, d.Edge(2*time.Millisecond+unit, Low))
	assert.True(t, d.Open())
}

func TestDecoderExpired(t *testing.T) {
	d := NewDecoder(testConfig(0))
	assert.False(t, d.Expired(time.Hour), "closed decoder never expires")

	feed(d, fromIntervals(time.Millisecond, Low, unit, unit))
	last := time.Millisecond + 2*unit

	assert.False(t, d.Expired(last+10*time.Millisecond))
	assert.True(t, d.Expired(last+10*time.Millisecond+time.Microsecond))
}

func TestDecoderCloseResets(t *testing.T) {
	d := NewDecoder(testConfig(1))
	feed(d, airTransitions([]byte{0xA5}, unit, 1))

	msg := d.Close()
	require.Equal(t, []byte{0xA5}, msg.Bytes)
	assert.Equal(t, time.Millisecond, msg.Start)

	assert.False(t, d.Open())
	assert.Equal(t, time.Duration(0), d.Unit())

	// Second message decodes independently
	frame := []byte{0x3C, 0x81}
	samples := airTransitions(frame, unit, 1)
	for i := range samples {
		samples[i].at += time.Second
	}
	feed(d, samples)
	msg = d.Close()
	assert.Equal(t, frame, msg.Bytes)
	assert.Equal(t, 0, msg.Noise)
}

func TestDecoderRawWindow(t *testing.T) {
	d := NewDecoder(testConfig(0))
	feed(d, fromIntervals(time.Millisecond, Low, unit, 2*unit))

	msg := d.Close()
	assert.Equal(t, Window{
		{Seq: 0, Level: Low, Duration: unit},
		{Seq: 1, Level: High, Duration: 2 * unit},
	}, msg.Window)
	assert.Equal(t, 3*unit, msg.Window.Duration())
}

func TestClassString(t *testing.T) {
	assert.Equal(t, "noise", ClassNoise.String())
	assert.Equal(t, "data", ClassData.String())
	assert.Equal(t, "unknown", Class(42).String())
	assert.Equal(t, "LOW", Low.String())
	assert.Equal(t, High, Low.Invert())
}

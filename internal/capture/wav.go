package capture

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/youpy/go-wav"

	"github.com/BirchJD/RPi-433MHz/internal/pulse"
)

const (
	// DefaultSampleRate is used for exported recordings.
	DefaultSampleRate = 48000

	exportAmplitude = 16383
	readChunk       = 4096
)

// WAVHeader represents the header structure of a WAV file
type WAVHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // File size - 8 bytes
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16  // Number of channels
	SampleRate    uint32  // Sample rate
	ByteRate      uint32  // SampleRate * NumChannels * BitsPerSample / 8
	BlockAlign    uint16  // NumChannels * BitsPerSample / 8
	BitsPerSample uint16  // Bits per sample
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32  // Number of bytes in the data
}

// EncodeWAV encodes mono PCM-16 samples into WAV format
func EncodeWAV(samples []int16, sampleRate int) ([]byte, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("cannot encode empty sample data")
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	numChannels := uint16(1)
	bitsPerSample := uint16(16)
	dataSize := uint32(len(samples) * 2)

	header := WAVHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   wav.AudioFormatPCM,
		NumChannels:   numChannels,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate) * uint32(numChannels) * uint32(bitsPerSample) / 8,
		BlockAlign:    numChannels * bitsPerSample / 8,
		BitsPerSample: bitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, 44+len(samples)*2))
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("failed to write WAV header: %w", err)
	}
	if err := binary.Write(buf, binary.LittleEndian, samples); err != nil {
		return nil, fmt.Errorf("failed to write sample data: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportWindow renders a capture window as a square wave, High positive and
// Low negative, with pad of the surrounding level at each end so that the
// first and last transitions are present in the recording.
func ExportWindow(w pulse.Window, sampleRate int, pad time.Duration) ([]byte, error) {
	if len(w) == 0 {
		return nil, fmt.Errorf("cannot export empty window")
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	var samples []int16
	appendRun := func(level pulse.Level, d time.Duration) {
		n := int(math.Round(d.Seconds() * float64(sampleRate)))
		v := int16(-exportAmplitude)
		if level == pulse.High {
			v = exportAmplitude
		}
		for i := 0; i < n; i++ {
			samples = append(samples, v)
		}
	}

	appendRun(w[0].Level.Invert(), pad)
	for _, e := range w {
		appendRun(e.Level, e.Duration)
	}
	appendRun(w[len(w)-1].Level.Invert(), pad)

	return EncodeWAV(samples, sampleRate)
}

// Source is what go-wav reads a recording from, such as *os.File or *bytes.Reader.
type Source interface {
	io.Reader
	io.ReaderAt
}

// Recording is a WAV file reduced to runs of constant level.
type Recording struct {
	SampleRate    uint32
	BitsPerSample uint16
	Samples       int
	// Window holds every run in the file, including the leading and
	// trailing idle runs.
	Window pulse.Window
}

// ReadWAV slices the first channel of a PCM recording into level runs. 8 bit
// files are unsigned and split at 128, 16 bit files are signed and split at
// zero. High is the level above the threshold unless invert is set.
func ReadWAV(src Source, invert bool) (*Recording, error) {
	reader := wav.NewReader(src)

	format, err := reader.Format()
	if err != nil {
		return nil, fmt.Errorf("failed to read WAV format: %w", err)
	}
	if format.AudioFormat != wav.AudioFormatPCM {
		return nil, fmt.Errorf("unsupported audio format: %d (only PCM is supported)", format.AudioFormat)
	}
	if format.SampleRate == 0 {
		return nil, fmt.Errorf("invalid sample rate: 0")
	}

	threshold := 0
	switch format.BitsPerSample {
	case 8:
		threshold = 128
	case 16:
	default:
		return nil, fmt.Errorf("unsupported bit depth: %d (only 8 and 16 bit are supported)", format.BitsPerSample)
	}

	rec := &Recording{SampleRate: format.SampleRate, BitsPerSample: format.BitsPerSample}
	samplePeriod := float64(time.Second) / float64(format.SampleRate)

	var (
		current pulse.Level
		run     int
	)
	flush := func() {
		if run == 0 {
			return
		}
		rec.Window = append(rec.Window, pulse.Event{
			Seq:      uint64(len(rec.Window)),
			Level:    current,
			Duration: time.Duration(math.Round(float64(run) * samplePeriod)),
		})
	}

	for {
		samples, err := reader.ReadSamples(readChunk)
		for _, s := range samples {
			level := pulse.Low
			if reader.IntValue(s, 0) > threshold {
				level = pulse.High
			}
			if invert {
				level = level.Invert()
			}
			if rec.Samples > 0 && level != current {
				flush()
				run = 0
			}
			current = level
			run++
			rec.Samples++
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read WAV samples: %w", err)
		}
	}
	flush()

	if rec.Samples == 0 {
		return nil, fmt.Errorf("no sample data found")
	}
	return rec, nil
}

package transmit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/BirchJD/RPi-433MHz/internal/cipher"
	"github.com/BirchJD/RPi-433MHz/internal/clock"
	"github.com/BirchJD/RPi-433MHz/internal/metrics"
	"github.com/BirchJD/RPi-433MHz/internal/protocol"
	"github.com/BirchJD/RPi-433MHz/internal/pulse"
)

// OutputPin is the pin the transmitter module's data input is wired to.
type OutputPin interface {
	Out(level pulse.Level) error
}

// Transmitter sends frames on an output pin.
type Transmitter struct {
	pin     OutputPin
	clock   clock.Clock
	config  Config
	opts    protocol.Options
	key     cipher.Key
	logger  *slog.Logger
	metrics *metrics.Metrics

	// One frame on the air at a time
	mu sync.Mutex
}

// NewTransmitter creates a transmitter and drives the pin to the off level.
func NewTransmitter(pin OutputPin, clk clock.Clock, cfg Config, opts protocol.Options, key cipher.Key,
	logger *slog.Logger, m *metrics.Metrics) (*Transmitter, error) {

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid transmitter config: %w", err)
	}
	if err := pin.Out(cfg.OffLevel); err != nil {
		return nil, fmt.Errorf("failed to set transmitter pin off: %w", err)
	}

	return &Transmitter{
		pin:     pin,
		clock:   clk,
		config:  cfg,
		opts:    opts,
		key:     key,
		logger:  logger,
		metrics: m,
	}, nil
}

// Send transmits an already framed byte sequence. It blocks for the whole
// air time. Each hold ends at an absolute deadline so that time spent
// driving the pin does not accumulate across bits.
//
// If ctx is cancelled between holds the pin is switched off and the context
// error returned.
func (t *Transmitter) Send(ctx context.Context, frame []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	holds := Schedule(frame, t.config)
	started := time.Now()

	t.logger.Debug("Sending frame",
		slog.Int("frame_size", len(frame)),
		slog.Int("holds", len(holds)),
		slog.Duration("air_time", Duration(holds)),
	)

	deadline := t.clock.Now()
	for _, h := range holds {
		if err := ctx.Err(); err != nil {
			t.off()
			return err
		}
		if err := t.pin.Out(h.Level); err != nil {
			t.off()
			return fmt.Errorf("failed to drive transmitter pin: %w", err)
		}
		deadline += h.Duration
		t.clock.SleepUntil(deadline)
	}

	elapsed := time.Since(started)
	t.metrics.RecordFrameSent(elapsed.Seconds())
	t.logger.Info("Frame sent",
		slog.String("frame", protocol.HexString(frame)),
		slog.Duration("duration", elapsed),
	)

	return nil
}

// SendPayload obfuscates payload, frames it and sends the frame.
func (t *Transmitter) SendPayload(ctx context.Context, payload []byte) ([]byte, error) {
	frame, err := protocol.Encode(payload, t.opts, t.key)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	if err := t.Send(ctx, frame); err != nil {
		return frame, err
	}
	return frame, nil
}

func (t *Transmitter) off() {
	if err := t.pin.Out(t.config.OffLevel); err != nil {
		t.logger.Warn("Failed to switch transmitter off", slog.String("error", err.Error()))
	}
}

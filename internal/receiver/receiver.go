package receiver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/BirchJD/RPi-433MHz/internal/metrics"
	"github.com/BirchJD/RPi-433MHz/internal/pulse"
)

// DefaultIdleTimeout is how long NextEdge waits while no window is open.
const DefaultIdleTimeout = 100 * time.Millisecond

// expiryMargin pushes the wait just past the silence deadline so that the
// window has expired by the time the source returns.
const expiryMargin = time.Microsecond

// EdgeSource delivers pin level changes. NextEdge blocks until the level
// changes or timeout elapses; ok is false on timeout. at is always the time
// of the call's last observation. io.EOF ends a finite source.
type EdgeSource interface {
	NextEdge(ctx context.Context, timeout time.Duration) (at time.Duration, level pulse.Level, ok bool, err error)
}

// Outcome is what a handler made of a closed window.
type Outcome int

const (
	OutcomeIgnored Outcome = iota
	OutcomeDecoded
	OutcomeRejected
	OutcomeMatched
	OutcomeUnmatched
	OutcomeLogged
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeDecoded:
		return "decoded"
	case OutcomeRejected:
		return "rejected"
	case OutcomeMatched:
		return "matched"
	case OutcomeUnmatched:
		return "unmatched"
	case OutcomeLogged:
		return "logged"
	default:
		return "unknown"
	}
}

// Handler consumes the message of each closed window. at is the wall clock
// time the window closed.
type Handler interface {
	HandleMessage(ctx context.Context, at time.Time, msg pulse.Message) Outcome
}

// Config contains receive loop parameters.
type Config struct {
	Mode        string
	Decoder     pulse.Config
	IdleTimeout time.Duration
}

// Receiver owns the decoder. Run must be called from a single goroutine;
// GetStatistics may be called from any.
type Receiver struct {
	cfg     Config
	src     EdgeSource
	decoder *pulse.Decoder
	handler Handler
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	lastAt time.Duration

	mu    sync.RWMutex
	stats Statistics
}

// Statistics represents receiver counters since start.
type Statistics struct {
	Mode        string    `json:"mode"`
	Transitions uint64    `json:"transitions"`
	Noise       uint64    `json:"noise"`
	Windows     uint64    `json:"windows"`
	Ignored     uint64    `json:"ignored"`
	Decoded     uint64    `json:"decoded"`
	Rejected    uint64    `json:"rejected"`
	Matched     uint64    `json:"matched"`
	Unmatched   uint64    `json:"unmatched"`
	Logged      uint64    `json:"logged"`
	LastWindow  time.Time `json:"last_window,omitempty"`
	LastBytes   int       `json:"last_bytes"`
	LastUnit    float64   `json:"last_unit_seconds"`
	WindowOpen  bool      `json:"window_open"`
}

// New creates a receiver reading src and passing closed windows to handler.
func New(cfg Config, src EdgeSource, handler Handler, logger *slog.Logger, m *metrics.Metrics) *Receiver {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	return &Receiver{
		cfg:     cfg,
		src:     src,
		decoder: pulse.NewDecoder(cfg.Decoder),
		handler: handler,
		logger:  logger,
		metrics: m,
		now:     time.Now,
		stats:   Statistics{Mode: cfg.Mode},
	}
}

// Run loops until ctx is cancelled or the source is exhausted. A window
// still open when a finite source ends is closed and handled. Cancellation
// is not an error.
func (r *Receiver) Run(ctx context.Context) error {
	r.logger.Info("Waiting for data",
		slog.String("mode", r.cfg.Mode),
		slog.Duration("end_period", r.cfg.Decoder.EndPeriod),
		slog.Duration("reject_period", r.cfg.Decoder.RejectPeriod),
		slog.Int("start_bits", r.cfg.Decoder.StartBits),
	)

	for {
		if err := ctx.Err(); err != nil {
			r.logger.Info("Receiver stopping due to context cancellation")
			return nil
		}

		at, level, ok, err := r.src.NextEdge(ctx, r.timeout())
		if err != nil {
			if errors.Is(err, io.EOF) {
				if r.decoder.Open() {
					r.closeWindow(ctx)
				}
				r.logger.Info("Edge source exhausted")
				return nil
			}
			if ctx.Err() != nil {
				r.logger.Info("Receiver stopping due to context cancellation")
				return nil
			}
			return fmt.Errorf("failed to read receiver pin: %w", err)
		}
		r.lastAt = at

		// An edge after the silence deadline starts the next message.
		if r.decoder.Expired(at) {
			r.closeWindow(ctx)
		}
		if !ok {
			continue
		}

		class := r.decoder.Edge(at, level)
		r.metrics.RecordTransition(class.String())

		r.mu.Lock()
		r.stats.Transitions++
		if class == pulse.ClassNoise {
			r.stats.Noise++
		}
		r.stats.WindowOpen = r.decoder.Open()
		r.mu.Unlock()
	}
}

func (r *Receiver) timeout() time.Duration {
	if !r.decoder.Open() {
		return r.cfg.IdleTimeout
	}
	remaining := r.decoder.Deadline() - r.lastAt + expiryMargin
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (r *Receiver) closeWindow(ctx context.Context) {
	msg := r.decoder.Close()
	at := r.now()
	r.metrics.RecordWindow(msg.Bits, msg.Unit.Seconds())

	r.logger.Debug("Message window closed",
		slog.Int("bytes", len(msg.Bytes)),
		slog.Int("bits", msg.Bits),
		slog.Duration("unit", msg.Unit),
		slog.Int("noise", msg.Noise),
		slog.Int("events", len(msg.Window)),
	)

	outcome := r.handler.HandleMessage(ctx, at, msg)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.Windows++
	r.stats.LastWindow = at
	r.stats.LastBytes = len(msg.Bytes)
	r.stats.LastUnit = msg.Unit.Seconds()
	r.stats.WindowOpen = false
	switch outcome {
	case OutcomeIgnored:
		r.stats.Ignored++
	case OutcomeDecoded:
		r.stats.Decoded++
	case OutcomeRejected:
		r.stats.Rejected++
	case OutcomeMatched:
		r.stats.Matched++
	case OutcomeUnmatched:
		r.stats.Unmatched++
	case OutcomeLogged:
		r.stats.Logged++
	}
}

// GetStatistics returns current receiver statistics
func (r *Receiver) GetStatistics() Statistics {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stats
}

package receiver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/BirchJD/RPi-433MHz/internal/capture"
	"github.com/BirchJD/RPi-433MHz/internal/cipher"
	"github.com/BirchJD/RPi-433MHz/internal/match"
	"github.com/BirchJD/RPi-433MHz/internal/metrics"
	"github.com/BirchJD/RPi-433MHz/internal/protocol"
	"github.com/BirchJD/RPi-433MHz/internal/publish"
	"github.com/BirchJD/RPi-433MHz/internal/pulse"
)

// Receive modes.
const (
	ModePacket = "packet"
	ModeMatch  = "match"
	ModeLog    = "log"
)

// Publisher forwards results off the host. A nil Publisher disables forwarding.
type Publisher interface {
	PublishPacket(ev publish.PacketEvent) error
	PublishMatch(ev publish.MatchEvent) error
}

// Gate drops windows too short to hold data, or whose unit period collapsed
// to the noise floor.
type Gate struct {
	MinBytes     int
	RejectPeriod time.Duration
}

// Pass reports whether msg is worth handing on.
func (g Gate) Pass(msg pulse.Message) bool {
	return len(msg.Bytes) >= g.MinBytes && msg.Unit > g.RejectPeriod
}

// PacketHandler validates and decrypts framed packets.
type PacketHandler struct {
	gate      Gate
	opts      protocol.Options
	key       cipher.Key
	publisher Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func NewPacketHandler(gate Gate, opts protocol.Options, key cipher.Key, pub Publisher, logger *slog.Logger, m *metrics.Metrics) *PacketHandler {
	return &PacketHandler{gate: gate, opts: opts, key: key, publisher: pub, logger: logger, metrics: m}
}

func (h *PacketHandler) HandleMessage(ctx context.Context, at time.Time, msg pulse.Message) Outcome {
	if !h.gate.Pass(msg) {
		return OutcomeIgnored
	}

	packet, plain, err := protocol.Decode(msg.Bytes, h.opts, h.key)
	if err != nil {
		reason := rejectReason(err)
		h.metrics.RecordRejection(reason)
		h.logger.Warn("Packet rejected",
			slog.String("reason", reason),
			slog.String("data", protocol.HexString(msg.Bytes)),
			slog.String("error", err.Error()),
		)
		return OutcomeRejected
	}

	h.metrics.RecordPacketDecoded()
	h.logger.Info("Packet received",
		slog.String("signature", protocol.HexString(packet.Signature[:])),
		slog.Int("length", packet.Length),
		slog.String("data", capture.Printable(plain)),
		slog.Duration("unit", msg.Unit),
	)

	if h.publisher != nil {
		ev := publish.PacketEvent{
			Time:        at,
			Signature:   protocol.HexString(packet.Signature[:]),
			Length:      packet.Length,
			Payload:     protocol.HexString(plain),
			Text:        capture.Printable(plain),
			Bits:        msg.Bits,
			UnitSeconds: msg.Unit.Seconds(),
		}
		if err := h.publisher.PublishPacket(ev); err != nil {
			h.logger.Warn("Failed to publish packet", slog.String("error", err.Error()))
		}
	}
	return OutcomeDecoded
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, protocol.ErrSignatureMismatch):
		return "signature"
	case errors.Is(err, protocol.ErrChecksumMismatch):
		return "checksum"
	case errors.Is(err, protocol.ErrTooShort):
		return "too_short"
	case errors.Is(err, pulse.ErrBadTiming):
		return "bad_timing"
	default:
		return "other"
	}
}

// MatchHandler runs the command of the first rule matching each capture.
type MatchHandler struct {
	gate       Gate
	engine     *match.Engine
	logNoMatch bool
	publisher  Publisher
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

func NewMatchHandler(gate Gate, engine *match.Engine, logNoMatch bool, pub Publisher, logger *slog.Logger, m *metrics.Metrics) *MatchHandler {
	return &MatchHandler{gate: gate, engine: engine, logNoMatch: logNoMatch, publisher: pub, logger: logger, metrics: m}
}

func (h *MatchHandler) HandleMessage(ctx context.Context, at time.Time, msg pulse.Message) Outcome {
	if !h.gate.Pass(msg) {
		return OutcomeIgnored
	}

	data := protocol.HexString(msg.Bytes)
	rule, ok, err := h.engine.Dispatch(ctx, msg.Bytes)
	h.metrics.RecordMatch(ok)

	ev := publish.MatchEvent{Time: at, Data: data, Matched: ok}
	if ok {
		ev.Prefix = rule.Prefix
		ev.Command = rule.Command
		h.logger.Info("Match",
			slog.String("rule", rule.String()),
			slog.Duration("unit", msg.Unit),
			slog.String("data", data),
		)
		if err != nil {
			h.metrics.RecordCommandFailure()
			ev.Error = err.Error()
			h.logger.Error("Match command failed",
				slog.String("command", rule.Command),
				slog.String("error", err.Error()),
			)
		}
	} else if h.logNoMatch {
		h.logger.Info("No match",
			slog.Duration("unit", msg.Unit),
			slog.String("data", data),
		)
	}

	if h.publisher != nil && (ok || h.logNoMatch) {
		if err := h.publisher.PublishMatch(ev); err != nil {
			h.logger.Warn("Failed to publish match", slog.String("error", err.Error()))
		}
	}

	if ok {
		return OutcomeMatched
	}
	return OutcomeUnmatched
}

// LogHandler re-analyses the raw window of each message and appends the
// diagnostic report to the daily log.
type LogHandler struct {
	analysis      pulse.AnalysisConfig
	signatureSize int
	logBadData    bool
	log           *capture.DailyLog
	wavDir        string
	logger        *slog.Logger
	metrics       *metrics.Metrics
}

// LogOptions configures a LogHandler.
type LogOptions struct {
	Analysis      pulse.AnalysisConfig
	SignatureSize int
	LogBadData    bool
	// WAVDir, when set, receives a square-wave recording of every logged window.
	WAVDir string
}

func NewLogHandler(opts LogOptions, log *capture.DailyLog, logger *slog.Logger, m *metrics.Metrics) *LogHandler {
	return &LogHandler{
		analysis:      opts.Analysis,
		signatureSize: opts.SignatureSize,
		logBadData:    opts.LogBadData,
		log:           log,
		wavDir:        opts.WAVDir,
		logger:        logger,
		metrics:       m,
	}
}

func (h *LogHandler) HandleMessage(ctx context.Context, at time.Time, msg pulse.Message) Outcome {
	a, err := pulse.Analyze(msg.Window, h.analysis)
	outcome := OutcomeLogged
	if err != nil {
		h.metrics.RecordRejection(rejectReason(err))
		h.logger.Debug("Bad data", slog.Int("events", len(msg.Window)), slog.String("error", err.Error()))
		if !h.logBadData {
			return OutcomeRejected
		}
		outcome = OutcomeRejected
	}

	if err := h.log.Write(at, capture.Report(at, a, h.signatureSize)); err != nil {
		h.logger.Error("Failed to write log", slog.String("error", err.Error()))
	}

	if h.wavDir != "" {
		if path, err := h.exportWAV(at, msg.Window); err != nil {
			h.logger.Error("Failed to export window", slog.String("error", err.Error()))
		} else {
			h.logger.Debug("Window exported", slog.String("path", path))
		}
	}
	return outcome
}

func (h *LogHandler) exportWAV(at time.Time, w pulse.Window) (string, error) {
	data, err := capture.ExportWindow(w, capture.DefaultSampleRate, h.analysis.EndPeriod)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(h.wavDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", h.wavDir, err)
	}
	path := filepath.Join(h.wavDir, at.Format("2006-01-02_15-04-05.000000")+".wav")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

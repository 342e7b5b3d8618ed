package receiver

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/BirchJD/RPi-433MHz/internal/capture"
	"github.com/BirchJD/RPi-433MHz/internal/config"
	"github.com/BirchJD/RPi-433MHz/internal/match"
	"github.com/BirchJD/RPi-433MHz/internal/metrics"
	"github.com/BirchJD/RPi-433MHz/internal/pulse"
)

// FromConfig builds the receive loop configuration and the handler for
// mode. Log mode closes windows on the capture section's end and reject
// periods. console receives the log mode reports and may be nil.
func FromConfig(cfg *config.Config, mode string, pub Publisher, console io.Writer,
	logger *slog.Logger, m *metrics.Metrics) (Config, Handler, error) {

	rc := Config{Mode: mode, Decoder: cfg.Receiver.DecoderConfig()}
	gate := Gate{MinBytes: cfg.Receiver.MinRxBytes, RejectPeriod: cfg.Receiver.GetRejectPeriod()}

	switch mode {
	case ModePacket:
		opts := cfg.Protocol.Options(cfg.Receiver.MinRxBytes)
		return rc, NewPacketHandler(gate, opts, cfg.Protocol.GetKey(), pub, logger, m), nil

	case ModeMatch:
		rules, err := match.LoadRulesFile(cfg.Match.RulesFile)
		if err != nil {
			return rc, nil, err
		}
		logger.Info("Match rules loaded",
			slog.String("rules_file", cfg.Match.RulesFile),
			slog.Int("rules", len(rules)),
		)
		engine := match.NewEngine(rules, match.ShellExecutor{Shell: cfg.Match.Shell}, logger)
		return rc, NewMatchHandler(gate, engine, cfg.Match.LogNoMatch, pub, logger, m), nil

	case ModeLog:
		rc.Decoder.EndPeriod = cfg.Capture.GetEndPeriod()
		rc.Decoder.RejectPeriod = cfg.Capture.GetRejectPeriod()

		log, err := capture.NewDailyLog(cfg.Capture.LogDir, console)
		if err != nil {
			return rc, nil, err
		}
		opts := LogOptions{
			Analysis: pulse.AnalysisConfig{
				EndPeriod:    cfg.Capture.GetEndPeriod(),
				RejectPeriod: cfg.Capture.GetRejectPeriod(),
				StartBits:    cfg.Receiver.StartBits,
				Invert:       cfg.Capture.Invert,
			},
			SignatureSize: cfg.Capture.SignatureSize,
			LogBadData:    cfg.Capture.LogBadData,
			WAVDir:        cfg.Capture.WAVDir,
		}
		return rc, NewLogHandler(opts, log, logger, m), nil

	default:
		return rc, nil, fmt.Errorf("unknown receive mode %q", mode)
	}
}

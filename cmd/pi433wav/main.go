package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/BirchJD/RPi-433MHz/internal/capture"
	"github.com/BirchJD/RPi-433MHz/internal/clock"
	"github.com/BirchJD/RPi-433MHz/internal/config"
	"github.com/BirchJD/RPi-433MHz/internal/metrics"
	"github.com/BirchJD/RPi-433MHz/internal/receiver"
)

const defaultConfigPath = "configs/config.yaml"

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-config FILE] [-mode MODE] [-export DIR] FILE.wav\n\n", os.Args[0])
	fmt.Fprintf(flag.CommandLine.Output(), "Decodes a recording of the receiver output offline.\n\n")
	flag.PrintDefaults()
}

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	mode := flag.String("mode", receiver.ModeLog, "Decode mode: packet, match or log")
	exportDir := flag.String("export", "", "Write each captured window as a WAV file to this directory (log mode)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	cfg.Receiver.Mode = *mode
	if *exportDir != "" {
		cfg.Capture.WAVDir = *exportDir
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(2)
	}

	logger, logCloser, err := config.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	stats, err := decodeFile(flag.Arg(0), cfg, logger)
	if err != nil {
		logger.Error("Decode failed", slog.String("file", flag.Arg(0)), slog.String("error", err.Error()))
		logCloser.Close()
		os.Exit(1)
	}

	fmt.Printf("WINDOWS: %d DECODED: %d REJECTED: %d MATCHED: %d LOGGED: %d\n",
		stats.Windows, stats.Decoded, stats.Rejected, stats.Matched, stats.Logged)
}

func decodeFile(path string, cfg *config.Config, logger *slog.Logger) (receiver.Statistics, error) {
	f, err := os.Open(path)
	if err != nil {
		return receiver.Statistics{}, fmt.Errorf("failed to open recording: %w", err)
	}
	defer f.Close()

	rec, err := capture.ReadWAV(f, cfg.Capture.Invert)
	if err != nil {
		return receiver.Statistics{}, err
	}
	logger.Info("Recording loaded",
		slog.String("file", path),
		slog.Int("sample_rate", int(rec.SampleRate)),
		slog.Int("bits_per_sample", int(rec.BitsPerSample)),
		slog.Int("samples", rec.Samples),
		slog.Int("runs", len(rec.Window)),
		slog.Duration("duration", rec.Window.Duration()),
	)

	m := metrics.NewMetrics(prometheus.NewRegistry())
	rc, handler, err := receiver.FromConfig(cfg, cfg.Receiver.Mode, nil, os.Stdout, logger, m)
	if err != nil {
		return receiver.Statistics{}, err
	}

	src := capture.NewPlayback(rec.Window, clock.NewFake(0))
	rx := receiver.New(rc, src, handler, logger, m)
	if err := rx.Run(context.Background()); err != nil {
		return receiver.Statistics{}, err
	}
	return rx.GetStatistics(), nil
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/BirchJD/RPi-433MHz/internal/clock"
	"github.com/BirchJD/RPi-433MHz/internal/config"
	"github.com/BirchJD/RPi-433MHz/internal/gpio"
	"github.com/BirchJD/RPi-433MHz/internal/metrics"
	"github.com/BirchJD/RPi-433MHz/internal/protocol"
	"github.com/BirchJD/RPi-433MHz/internal/transmit"
)

const defaultConfigPath = "configs/config.yaml"

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-config FILE] DATA\n\n", os.Args[0])
	fmt.Fprintf(flag.CommandLine.Output(), "Transmits DATA as one encrypted packet.\n\n")
	flag.PrintDefaults()
}

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 || flag.Arg(0) == "" {
		usage()
		os.Exit(2)
	}
	data := []byte(flag.Arg(0))

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, logCloser, err := config.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	if err := send(cfg, data, logger); err != nil {
		logger.Error("Transmit failed", slog.String("error", err.Error()))
		logCloser.Close()
		os.Exit(1)
	}
}

func send(cfg *config.Config, data []byte, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	txCfg := cfg.Transmitter.TransmitConfig()
	pin, err := gpio.OpenOutput(cfg.Transmitter.Pin, txCfg.OffLevel)
	if err != nil {
		return err
	}

	tx, err := transmit.NewTransmitter(pin, clock.NewMonotonic(), txCfg,
		cfg.Protocol.Options(cfg.Receiver.MinRxBytes), cfg.Protocol.GetKey(),
		logger, metrics.NewMetrics(prometheus.NewRegistry()))
	if err != nil {
		return err
	}

	if cfg.Transmitter.Realtime {
		if err := gpio.Realtime(); err != nil {
			logger.Warn("Failed to enable real-time scheduling", slog.String("error", err.Error()))
		}
	}

	frame, err := tx.SendPayload(ctx, data)
	if err != nil {
		return err
	}

	logger.Info("Packet sent",
		slog.String("pin", cfg.Transmitter.Pin),
		slog.Int("payload_size", len(data)),
		slog.String("frame", protocol.HexString(frame)),
	)
	return nil
}

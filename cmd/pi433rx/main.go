package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/BirchJD/RPi-433MHz/internal/clock"
	"github.com/BirchJD/RPi-433MHz/internal/config"
	"github.com/BirchJD/RPi-433MHz/internal/gpio"
	"github.com/BirchJD/RPi-433MHz/internal/metrics"
	"github.com/BirchJD/RPi-433MHz/internal/publish"
	"github.com/BirchJD/RPi-433MHz/internal/receiver"
	"github.com/BirchJD/RPi-433MHz/internal/server"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "pi433rx"
	serviceVersion    = "1.0.0"
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	mode := flag.String("mode", "", "Receive mode: packet, match or log (overrides receiver.mode)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *mode != "" {
		cfg.Receiver.Mode = *mode
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid mode: %v\n", err)
			os.Exit(2)
		}
	}

	logger, logCloser, err := config.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", *configPath),
		slog.String("mode", cfg.Receiver.Mode),
		slog.String("pin", cfg.Receiver.Pin),
		slog.String("sampling", cfg.Receiver.Sampling),
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("Receiver failed", slog.String("error", err.Error()))
		logCloser.Close()
		os.Exit(1)
	}
	logger.Info("Service stopped")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	// A nil Publisher disables forwarding; keep the interface nil, not a nil *Client.
	var pub receiver.Publisher
	if cfg.MQTT.Enabled {
		client, err := publish.Connect(publish.Config{
			Broker:         cfg.MQTT.Broker,
			ClientID:       cfg.MQTT.ClientID,
			Username:       cfg.MQTT.Username,
			Password:       cfg.MQTT.Password,
			TopicPrefix:    cfg.MQTT.TopicPrefix,
			QoS:            byte(cfg.MQTT.QoS),
			ConnectTimeout: cfg.MQTT.GetConnectTimeout(),
		}, logger, appMetrics)
		if err != nil {
			return err
		}
		defer client.Close()
		pub = client
	}

	rc, handler, err := receiver.FromConfig(cfg, cfg.Receiver.Mode, pub, os.Stdout, logger, appMetrics)
	if err != nil {
		return err
	}

	pull, err := gpio.ParsePull(cfg.Receiver.Pull)
	if err != nil {
		return err
	}
	edges := cfg.Receiver.Sampling == "edge"
	pin, err := gpio.OpenInput(cfg.Receiver.Pin, pull, edges)
	if err != nil {
		return err
	}

	clk := clock.NewMonotonic()
	var src receiver.EdgeSource
	if edges {
		src = gpio.NewEdgeWatcher(pin, clk)
	} else {
		src = gpio.NewPoller(pin, clk)
	}

	rx := receiver.New(rc, src, handler, logger, appMetrics)

	var httpServer *server.HTTPServer
	if cfg.HTTP.Enabled {
		httpServer = server.NewHTTPServer(cfg.HTTP, logger, cfg, rx, appMetrics, reg)
		if err := httpServer.Start(); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpServer.Stop(shutdownCtx); err != nil {
				logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
			}
		}()
	}

	// The receive loop runs on this goroutine, so this is the thread to promote.
	if cfg.Receiver.Realtime {
		if err := gpio.Realtime(); err != nil {
			logger.Warn("Failed to enable real-time scheduling", slog.String("error", err.Error()))
		}
	}

	err = rx.Run(ctx)

	stats := rx.GetStatistics()
	logger.Info("Final receiver statistics",
		slog.Uint64("transitions", stats.Transitions),
		slog.Uint64("noise", stats.Noise),
		slog.Uint64("windows", stats.Windows),
		slog.Uint64("decoded", stats.Decoded),
		slog.Uint64("rejected", stats.Rejected),
		slog.Uint64("matched", stats.Matched),
		slog.Uint64("logged", stats.Logged),
	)
	return err
}

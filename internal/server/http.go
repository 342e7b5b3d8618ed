package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/BirchJD/RPi-433MHz/internal/config"
	"github.com/BirchJD/RPi-433MHz/internal/metrics"
	"github.com/BirchJD/RPi-433MHz/internal/receiver"
)

const (
	serviceName    = "pi433rx"
	serviceVersion = "1.0.0"
)

// StatsSource provides receiver statistics.
type StatsSource interface {
	GetStatistics() receiver.Statistics
}

// HTTPServer provides HTTP API endpoints for monitoring
type HTTPServer struct {
	server   *http.Server
	handler  http.Handler
	logger   *slog.Logger
	config   *config.Config
	stats    StatsSource
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer

	startTime time.Time
}

// NewHTTPServer creates a new HTTP API server. gatherer is the registry the
// application metrics were registered with.
func NewHTTPServer(cfg config.HTTPConfig, logger *slog.Logger, appConfig *config.Config,
	stats StatsSource, m *metrics.Metrics, gatherer prometheus.Gatherer) *HTTPServer {

	h := &HTTPServer{
		logger:    logger,
		config:    appConfig,
		stats:     stats,
		metrics:   m,
		gatherer:  gatherer,
		startTime: time.Now(),
	}

	mux := http.NewServeMux()
	h.setupRoutes(mux)
	h.handler = mux

	h.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Address, cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return h
}

// setupRoutes configures HTTP API routes
func (h *HTTPServer) setupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.withMetrics("/health", h.handleHealth))
	mux.HandleFunc("/stats", h.withMetrics("/stats", h.handleStats))
	mux.HandleFunc("/config", h.withMetrics("/config", h.handleConfig))

	// Prometheus metrics endpoint (no metrics needed for metrics endpoint)
	mux.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))

	mux.HandleFunc("/", h.withMetrics("/", h.handleRoot))
}

// Handler returns the routed handler, for tests and embedding.
func (h *HTTPServer) Handler() http.Handler {
	return h.handler
}

// withMetrics wraps an HTTP handler with metrics collection
func (h *HTTPServer) withMetrics(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		// Create a response writer wrapper to capture status code
		ww := &responseWriter{ResponseWriter: w, statusCode: 200}

		handler(ww, r)

		duration := time.Since(startTime).Seconds()
		statusCode := fmt.Sprintf("%d", ww.statusCode)

		h.metrics.RecordHTTPRequest(r.Method, endpoint, statusCode, duration)

		if ww.statusCode >= 400 {
			errorType := "client_error"
			if ww.statusCode >= 500 {
				errorType = "server_error"
			}
			h.metrics.RecordHTTPError(r.Method, endpoint, errorType)
		}
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start starts the HTTP server
func (h *HTTPServer) Start() error {
	h.logger.Info("Starting HTTP API server",
		slog.String("address", h.server.Addr),
	)

	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.logger.Error("HTTP server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop gracefully stops the HTTP server
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.logger.Info("Stopping HTTP API server...")

	return h.server.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// handleHealth implements the /health endpoint
func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats := h.stats.GetStatistics()

	writeJSON(w, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(h.startTime).String(),
		"service": map[string]interface{}{
			"name":    serviceName,
			"version": serviceVersion,
		},
		"components": map[string]interface{}{
			"receiver": map[string]interface{}{
				"status":      "running",
				"mode":        stats.Mode,
				"pin":         h.config.Receiver.Pin,
				"windows":     stats.Windows,
				"window_open": stats.WindowOpen,
			},
			"mqtt": map[string]interface{}{
				"enabled": h.config.MQTT.Enabled,
			},
		},
	})
}

// handleStats implements the /stats endpoint
func (h *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, map[string]interface{}{
		"uptime":    time.Since(h.startTime).String(),
		"timestamp": time.Now().UTC(),
		"receiver":  h.stats.GetStatistics(),
	})
}

// handleConfig implements the /config endpoint. Secrets are redacted.
func (h *HTTPServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	c := h.config.Redacted()
	writeJSON(w, map[string]interface{}{
		"receiver": map[string]interface{}{
			"pin":           c.Receiver.Pin,
			"mode":          c.Receiver.Mode,
			"sampling":      c.Receiver.Sampling,
			"end_period":    c.Receiver.EndPeriod,
			"reject_period": c.Receiver.RejectPeriod,
			"level_period":  c.Receiver.LevelPeriod,
			"start_bits":    c.Receiver.StartBits,
			"min_rx_bytes":  c.Receiver.MinRxBytes,
			"realtime":      c.Receiver.Realtime,
		},
		"transmitter": map[string]interface{}{
			"pin":          c.Transmitter.Pin,
			"off_level":    c.Transmitter.OffLevel,
			"level_period": c.Transmitter.LevelPeriod,
			"end_period":   c.Transmitter.EndPeriod,
			"start_bits":   c.Transmitter.StartBits,
		},
		"protocol": map[string]interface{}{
			"signature":    c.Protocol.Signature,
			"key":          c.Protocol.Key,
			"length_width": c.Protocol.LengthWidth,
		},
		"match": map[string]interface{}{
			"rules_file":   c.Match.RulesFile,
			"log_no_match": c.Match.LogNoMatch,
		},
		"capture": map[string]interface{}{
			"log_dir":      c.Capture.LogDir,
			"log_bad_data": c.Capture.LogBadData,
			"invert":       c.Capture.Invert,
			"wav_dir":      c.Capture.WAVDir,
		},
		"mqtt": map[string]interface{}{
			"enabled":      c.MQTT.Enabled,
			"broker":       c.MQTT.Broker,
			"username":     c.MQTT.Username,
			"password":     c.MQTT.Password,
			"topic_prefix": c.MQTT.TopicPrefix,
		},
		"logging": map[string]interface{}{
			"level":  c.Logging.Level,
			"format": c.Logging.Format,
			"output": c.Logging.Output,
		},
	})
}

// handleRoot implements the / endpoint with API documentation
func (h *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	writeJSON(w, map[string]interface{}{
		"service": "433MHz Receiver",
		"version": serviceVersion,
		"endpoints": map[string]interface{}{
			"GET /":        "API documentation",
			"GET /health":  "Service health check",
			"GET /stats":   "Receiver statistics",
			"GET /config":  "Active configuration, secrets redacted",
			"GET /metrics": "Prometheus metrics",
		},
		"timestamp": time.Now().UTC(),
	})
}

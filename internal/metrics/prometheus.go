package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the 433MHz receiver and transmitter
type Metrics struct {
	// Decoder metrics
	Transitions   *prometheus.CounterVec
	WindowsClosed prometheus.Counter
	UnitPeriod    prometheus.Histogram
	MessageBits   prometheus.Histogram

	// Packet metrics
	PacketsDecoded  prometheus.Counter
	PacketsRejected *prometheus.CounterVec

	// Match metrics
	Matches         *prometheus.CounterVec
	CommandFailures prometheus.Counter

	// Transmit metrics
	FramesSent   prometheus.Counter
	SendDuration prometheus.Histogram

	// Publication metrics
	PublishErrors prometheus.Counter

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates all Prometheus metrics and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Decoder metrics
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pi433_transitions_total",
			Help: "Total number of pin level transitions by decoder classification",
		}, []string{"class"}),
		WindowsClosed: factory.NewCounter(prometheus.CounterOpts{
			Name: "pi433_windows_closed_total",
			Help: "Total number of message windows closed by the silence gate",
		}),
		UnitPeriod: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pi433_unit_period_seconds",
			Help:    "Bit unit period estimated for each closed window",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 10), // 50us to ~25ms
		}),
		MessageBits: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pi433_message_bits",
			Help:    "Number of data bits assembled per closed window",
			Buckets: prometheus.ExponentialBuckets(8, 2, 10), // 1 byte to 512 bytes
		}),

		// Packet metrics
		PacketsDecoded: factory.NewCounter(prometheus.CounterOpts{
			Name: "pi433_packets_decoded_total",
			Help: "Total number of packets that passed signature and checksum validation",
		}),
		PacketsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pi433_packets_rejected_total",
			Help: "Total number of rejected captures by reason",
		}, []string{"reason"}),

		// Match metrics
		Matches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pi433_matches_total",
			Help: "Total number of captures checked against match rules by result",
		}, []string{"result"}),
		CommandFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "pi433_command_failures_total",
			Help: "Total number of match commands that failed to run",
		}),

		// Transmit metrics
		FramesSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "pi433_frames_sent_total",
			Help: "Total number of frames transmitted",
		}),
		SendDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pi433_send_duration_seconds",
			Help:    "Time taken to transmit a frame",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
		}),

		// Publication metrics
		PublishErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "pi433_publish_errors_total",
			Help: "Total number of failed MQTT publications",
		}),

		// HTTP API metrics
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pi433_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pi433_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pi433_http_errors_total",
			Help: "Total number of HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// RecordTransition increments the transition counter for a decoder class
func (m *Metrics) RecordTransition(class string) {
	m.Transitions.WithLabelValues(class).Inc()
}

// RecordWindow records a closed message window
func (m *Metrics) RecordWindow(bits int, unitSeconds float64) {
	m.WindowsClosed.Inc()
	m.MessageBits.Observe(float64(bits))
	if unitSeconds > 0 {
		m.UnitPeriod.Observe(unitSeconds)
	}
}

// RecordPacketDecoded increments the decoded packets counter
func (m *Metrics) RecordPacketDecoded() {
	m.PacketsDecoded.Inc()
}

// RecordRejection increments the rejection counter for reason
func (m *Metrics) RecordRejection(reason string) {
	m.PacketsRejected.WithLabelValues(reason).Inc()
}

// RecordMatch records the result of checking a capture against the rules
func (m *Metrics) RecordMatch(matched bool) {
	result := "no_match"
	if matched {
		result = "match"
	}
	m.Matches.WithLabelValues(result).Inc()
}

// RecordCommandFailure increments the command failure counter
func (m *Metrics) RecordCommandFailure() {
	m.CommandFailures.Inc()
}

// RecordFrameSent records a transmitted frame
func (m *Metrics) RecordFrameSent(durationSeconds float64) {
	m.FramesSent.Inc()
	m.SendDuration.Observe(durationSeconds)
}

// RecordPublishError increments the publish error counter
func (m *Metrics) RecordPublishError() {
	m.PublishErrors.Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an HTTP error
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}

package publish

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/BirchJD/RPi-433MHz/internal/metrics"
)

// Config describes the broker connection.
type Config struct {
	Broker         string // e.g. tcp://localhost:1883
	ClientID       string // defaults to pi433-<hostname>
	Username       string
	Password       string
	TopicPrefix    string
	QoS            byte
	ConnectTimeout time.Duration
	PublishTimeout time.Duration
}

// Conn is the part of mqtt.Client the publisher uses.
type Conn interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// Client publishes events to topics below a common prefix.
type Client struct {
	conn    Conn
	prefix  string
	qos     byte
	timeout time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Connect dials the broker. The paho client reconnects on its own after a
// lost connection.
func Connect(cfg Config, logger *slog.Logger, m *metrics.Metrics) (*Client, error) {
	id := cfg.ClientID
	if id == "" {
		hostname, _ := os.Hostname()
		id = "pi433-" + hostname
	}

	opts := mqtt.NewClientOptions().AddBroker(cfg.Broker)
	opts.ClientID = id
	opts.Username = cfg.Username
	opts.Password = cfg.Password
	opts.AutoReconnect = true
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("MQTT connection lost", slog.String("error", err.Error()))
	})

	conn := mqtt.NewClient(opts)
	token := conn.Connect()
	if !token.WaitTimeout(cfg.ConnectTimeout) {
		return nil, fmt.Errorf("timed out connecting to MQTT broker %s", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", cfg.Broker, err)
	}

	logger.Info("MQTT connected",
		slog.String("broker", cfg.Broker),
		slog.String("client_id", id),
	)
	return NewClient(conn, cfg, logger, m), nil
}

// NewClient wraps an established connection.
func NewClient(conn Conn, cfg Config, logger *slog.Logger, m *metrics.Metrics) *Client {
	timeout := cfg.PublishTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		conn:    conn,
		prefix:  strings.TrimSuffix(cfg.TopicPrefix, "/"),
		qos:     cfg.QoS,
		timeout: timeout,
		logger:  logger,
		metrics: m,
	}
}

// Topic returns the full topic for a suffix.
func (c *Client) Topic(suffix string) string {
	if c.prefix == "" {
		return suffix
	}
	return c.prefix + "/" + suffix
}

// PublishPacket sends a decoded packet to <prefix>/rx.
func (c *Client) PublishPacket(ev PacketEvent) error {
	return c.publish(TopicPackets, ev)
}

// PublishMatch sends a match result to <prefix>/match.
func (c *Client) PublishMatch(ev MatchEvent) error {
	return c.publish(TopicMatches, ev)
}

func (c *Client) publish(suffix string, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", suffix, err)
	}

	topic := c.Topic(suffix)
	token := c.conn.Publish(topic, c.qos, false, payload)
	if !token.WaitTimeout(c.timeout) {
		err = fmt.Errorf("timed out publishing to %s", topic)
	} else if token.Error() != nil {
		err = fmt.Errorf("failed to publish to %s: %w", topic, token.Error())
	}
	if err != nil {
		c.metrics.RecordPublishError()
		return err
	}

	c.logger.Debug("Published event",
		slog.String("topic", topic),
		slog.Int("size", len(payload)),
	)
	return nil
}

// Close disconnects, allowing a quarter second for in-flight messages.
func (c *Client) Close() {
	c.conn.Disconnect(250)
}

package publish

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BirchJD/RPi-433MHz/internal/metrics"
)

type fakeToken struct {
	err     error
	timeout bool
}

func (t *fakeToken) Wait() bool                     { return !t.timeout }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return !t.timeout }
func (t *fakeToken) Error() error                   { return t.err }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type fakeConn struct {
	messages     []published
	token        *fakeToken
	disconnected bool
}

func (c *fakeConn) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.messages = append(c.messages, published{topic: topic, qos: qos, payload: payload.([]byte)})
	if c.token != nil {
		return c.token
	}
	return &fakeToken{}
}

func (c *fakeConn) Disconnect(quiesce uint) { c.disconnected = true }

func newTestClient(conn *fakeConn, prefix string) (*Client, *metrics.Metrics) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	m := metrics.NewMetrics(prometheus.NewRegistry())
	return NewClient(conn, Config{TopicPrefix: prefix, QoS: 1}, logger, m), m
}

func TestTopic(t *testing.T) {
	tests := []struct {
		prefix   string
		expected string
	}{
		{prefix: "home/433", expected: "home/433/rx"},
		{prefix: "home/433/", expected: "home/433/rx"},
		{prefix: "", expected: "rx"},
	}

	for _, tt := range tests {
		c, _ := newTestClient(&fakeConn{}, tt.prefix)
		assert.Equal(t, tt.expected, c.Topic(TopicPackets))
	}
}

func TestPublishPacket(t *testing.T) {
	conn := &fakeConn{}
	c, _ := newTestClient(conn, "pi433")

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, c.PublishPacket(PacketEvent{
		Time:        at,
		Signature:   "63F95C1B",
		Length:      2,
		Payload:     "4F4B",
		Text:        "OK",
		Bits:        64,
		UnitSeconds: 0.0005,
	}))

	require.Len(t, conn.messages, 1)
	msg := conn.messages[0]
	assert.Equal(t, "pi433/rx", msg.topic)
	assert.Equal(t, byte(1), msg.qos)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.payload, &decoded))
	assert.Equal(t, "OK", decoded["text"])
	assert.Equal(t, "63F95C1B", decoded["signature"])
	assert.Equal(t, float64(64), decoded["bits"])
	assert.Equal(t, "2024-03-01T12:00:00Z", decoded["time"])
}

func TestPublishMatchOmitsEmpty(t *testing.T) {
	conn := &fakeConn{}
	c, _ := newTestClient(conn, "pi433")

	require.NoError(t, c.PublishMatch(MatchEvent{Data: "AABB"}))

	require.Len(t, conn.messages, 1)
	assert.Equal(t, "pi433/match", conn.messages[0].topic)
	assert.NotContains(t, string(conn.messages[0].payload), "command")
	assert.Contains(t, string(conn.messages[0].payload), `"matched":false`)
}

func TestPublishErrors(t *testing.T) {
	tests := []struct {
		name     string
		token    *fakeToken
		errorMsg string
	}{
		{name: "broker error", token: &fakeToken{err: errors.New("not connected")}, errorMsg: "not connected"},
		{name: "timeout", token: &fakeToken{timeout: true}, errorMsg: "timed out"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := &fakeConn{token: tt.token}
			c, m := newTestClient(conn, "pi433")

			err := c.PublishMatch(MatchEvent{Data: "01"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
			assert.Equal(t, float64(1), testutil.ToFloat64(m.PublishErrors))
		})
	}
}

func TestClose(t *testing.T) {
	conn := &fakeConn{}
	c, _ := newTestClient(conn, "")
	c.Close()
	assert.True(t, conn.disconnected)
}

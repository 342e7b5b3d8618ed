package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/BirchJD/RPi-433MHz/internal/cipher"
	"github.com/BirchJD/RPi-433MHz/internal/protocol"
	"github.com/BirchJD/RPi-433MHz/internal/pulse"
	"github.com/BirchJD/RPi-433MHz/internal/transmit"
)

// Config represents the complete receiver and transmitter configuration
type Config struct {
	Receiver    ReceiverConfig    `yaml:"receiver"`
	Transmitter TransmitterConfig `yaml:"transmitter"`
	Protocol    ProtocolConfig    `yaml:"protocol"`
	Match       MatchConfig       `yaml:"match"`
	Capture     CaptureConfig     `yaml:"capture"`
	HTTP        HTTPConfig        `yaml:"http"`
	MQTT        MQTTConfig        `yaml:"mqtt"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ReceiverConfig contains receive pin and decoder timing parameters
type ReceiverConfig struct {
	Pin               string  `yaml:"pin"`
	Pull              string  `yaml:"pull"`       // up, down, none
	IdleLevel         int     `yaml:"idle_level"` // 0 or 1
	Sampling          string  `yaml:"sampling"`   // poll or edge
	EndPeriod         float64 `yaml:"end_period"`    // seconds
	RejectPeriod      float64 `yaml:"reject_period"` // seconds
	LevelPeriod       float64 `yaml:"level_period"`  // seconds
	StartBits         int     `yaml:"start_bits"`
	CalibrationFactor float64 `yaml:"calibration_factor"`
	MinRxBytes        int     `yaml:"min_rx_bytes"`
	Realtime          bool    `yaml:"realtime"`
	Mode              string  `yaml:"mode"` // packet, match, log
}

// TransmitterConfig contains transmit pin and timing parameters
type TransmitterConfig struct {
	Pin         string  `yaml:"pin"`
	OffLevel    int     `yaml:"off_level"`    // 0 or 1, the on level is the other
	LevelPeriod float64 `yaml:"level_period"` // seconds
	EndPeriod   float64 `yaml:"end_period"`   // seconds
	StartBits   int     `yaml:"start_bits"`
	Realtime    bool    `yaml:"realtime"`
}

// ProtocolConfig contains packet framing parameters
type ProtocolConfig struct {
	Signature   string `yaml:"signature"`    // hex
	Key         string `yaml:"key"`          // hex
	LengthWidth int    `yaml:"length_width"` // 1 or 2 bytes
}

// MatchConfig contains match mode parameters
type MatchConfig struct {
	RulesFile  string `yaml:"rules_file"`
	LogNoMatch bool   `yaml:"log_no_match"`
	Shell      string `yaml:"shell"`
}

// CaptureConfig contains log mode parameters. Log mode uses its own, looser
// end and reject periods so that whole bursts from unknown devices are kept.
type CaptureConfig struct {
	LogDir        string  `yaml:"log_dir"`
	LogBadData    bool    `yaml:"log_bad_data"`
	Invert        bool    `yaml:"invert"`
	SignatureSize int     `yaml:"signature_size"`
	EndPeriod     float64 `yaml:"end_period"`    // seconds
	RejectPeriod  float64 `yaml:"reject_period"` // seconds
	WAVDir        string  `yaml:"wav_dir"`
}

// HTTPConfig contains HTTP API server configuration
type HTTPConfig struct {
	Port    int    `yaml:"port"`
	Address string `yaml:"address"`
	Enabled bool   `yaml:"enabled"`
}

// MQTTConfig contains broker connection configuration
type MQTTConfig struct {
	Enabled        bool    `yaml:"enabled"`
	Broker         string  `yaml:"broker"`
	ClientID       string  `yaml:"client_id"`
	Username       string  `yaml:"username"`
	Password       string  `yaml:"password"`
	TopicPrefix    string  `yaml:"topic_prefix"`
	QoS            int     `yaml:"qos"`
	ConnectTimeout float64 `yaml:"connect_timeout"` // seconds
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Default returns the configuration of the stock hardware: receiver on
// GPIO26 with pull-up, transmitter on GPIO19 switched off by a high level.
func Default() *Config {
	return &Config{
		Receiver: ReceiverConfig{
			Pin:               "GPIO26",
			Pull:              "up",
			IdleLevel:         1,
			Sampling:          "poll",
			EndPeriod:         0.01,
			RejectPeriod:      0.000005,
			LevelPeriod:       0.0005,
			StartBits:         1,
			CalibrationFactor: pulse.DefaultCalibrationFactor,
			MinRxBytes:        protocol.DefaultMinRxBytes,
			Mode:              "packet",
		},
		Transmitter: TransmitterConfig{
			Pin:         "GPIO19",
			OffLevel:    1,
			LevelPeriod: 0.002,
			EndPeriod:   0.01,
			StartBits:   1,
		},
		Protocol: ProtocolConfig{
			Signature:   protocol.HexString(protocol.DefaultSignature[:]),
			Key:         cipher.DefaultKey.String(),
			LengthWidth: protocol.LengthWidthStandard,
		},
		Match: MatchConfig{
			RulesFile: "Pi433MHzRxMatch.ini",
			Shell:     "/bin/sh",
		},
		Capture: CaptureConfig{
			LogDir:        "LOG",
			SignatureSize: 4,
			EndPeriod:     0.25,
			RejectPeriod:  0.000025,
		},
		HTTP: HTTPConfig{
			Port:    8433,
			Address: "0.0.0.0",
		},
		MQTT: MQTTConfig{
			Broker:         "tcp://localhost:1883",
			TopicPrefix:    "pi433",
			QoS:            1,
			ConnectTimeout: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// Load reads and parses the configuration file. Settings missing from the
// file keep their Default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.Receiver.Validate(); err != nil {
		return fmt.Errorf("receiver config: %w", err)
	}

	if err := c.Transmitter.Validate(); err != nil {
		return fmt.Errorf("transmitter config: %w", err)
	}

	if err := c.Protocol.Validate(); err != nil {
		return fmt.Errorf("protocol config: %w", err)
	}

	if err := c.Capture.Validate(); err != nil {
		return fmt.Errorf("capture config: %w", err)
	}

	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}

	if err := c.MQTT.Validate(); err != nil {
		return fmt.Errorf("mqtt config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates receiver configuration
func (r *ReceiverConfig) Validate() error {
	if r.Pin == "" {
		return fmt.Errorf("pin cannot be empty")
	}

	validPulls := map[string]bool{"": true, "up": true, "down": true, "none": true, "float": true}
	if !validPulls[r.Pull] {
		return fmt.Errorf("pull must be one of [up, down, none], got '%s'", r.Pull)
	}

	if r.IdleLevel != 0 && r.IdleLevel != 1 {
		return fmt.Errorf("idle_level must be 0 or 1, got %d", r.IdleLevel)
	}

	if r.Sampling != "poll" && r.Sampling != "edge" {
		return fmt.Errorf("sampling must be 'poll' or 'edge', got '%s'", r.Sampling)
	}

	if r.RejectPeriod < 0 {
		return fmt.Errorf("reject_period cannot be negative, got %f", r.RejectPeriod)
	}

	if r.EndPeriod <= r.RejectPeriod {
		return fmt.Errorf("end_period (%f) must be greater than reject_period (%f)", r.EndPeriod, r.RejectPeriod)
	}

	if r.StartBits < 0 {
		return fmt.Errorf("start_bits cannot be negative, got %d", r.StartBits)
	}

	if r.StartBits == 0 && r.LevelPeriod <= 0 {
		return fmt.Errorf("level_period must be positive when start_bits is 0, got %f", r.LevelPeriod)
	}

	if r.CalibrationFactor < 0 || r.CalibrationFactor > 1 {
		return fmt.Errorf("calibration_factor must be between 0 and 1, got %f", r.CalibrationFactor)
	}

	if r.MinRxBytes < 0 {
		return fmt.Errorf("min_rx_bytes cannot be negative, got %d", r.MinRxBytes)
	}

	validModes := map[string]bool{"packet": true, "match": true, "log": true}
	if !validModes[r.Mode] {
		return fmt.Errorf("mode must be one of [packet, match, log], got '%s'", r.Mode)
	}

	return nil
}

// Validate validates transmitter configuration
func (t *TransmitterConfig) Validate() error {
	if t.Pin == "" {
		return fmt.Errorf("pin cannot be empty")
	}

	if t.OffLevel != 0 && t.OffLevel != 1 {
		return fmt.Errorf("off_level must be 0 or 1, got %d", t.OffLevel)
	}

	return t.TransmitConfig().Validate()
}

// Validate validates protocol configuration
func (p *ProtocolConfig) Validate() error {
	if _, err := protocol.ParseSignature(p.Signature); err != nil {
		return err
	}

	if _, err := cipher.ParseKey(p.Key); err != nil {
		return err
	}

	if p.LengthWidth != protocol.LengthWidthStandard && p.LengthWidth != protocol.LengthWidthExtended {
		return fmt.Errorf("length_width must be 1 or 2, got %d", p.LengthWidth)
	}

	return nil
}

// Validate validates capture configuration
func (c *CaptureConfig) Validate() error {
	if c.LogDir == "" {
		return fmt.Errorf("log_dir cannot be empty")
	}

	if c.SignatureSize < 0 {
		return fmt.Errorf("signature_size cannot be negative, got %d", c.SignatureSize)
	}

	if c.RejectPeriod < 0 {
		return fmt.Errorf("reject_period cannot be negative, got %f", c.RejectPeriod)
	}

	if c.EndPeriod <= c.RejectPeriod {
		return fmt.Errorf("end_period (%f) must be greater than reject_period (%f)", c.EndPeriod, c.RejectPeriod)
	}

	return nil
}

// Validate validates HTTP configuration
func (h *HTTPConfig) Validate() error {
	if h.Enabled {
		if h.Port < 1 || h.Port > 65535 {
			return fmt.Errorf("http port must be between 1 and 65535, got %d", h.Port)
		}

		if h.Address == "" {
			return fmt.Errorf("http address cannot be empty when HTTP is enabled")
		}
	}

	return nil
}

// Validate validates MQTT configuration
func (m *MQTTConfig) Validate() error {
	if !m.Enabled {
		return nil
	}

	if m.Broker == "" {
		return fmt.Errorf("broker cannot be empty when MQTT is enabled")
	}

	if m.QoS < 0 || m.QoS > 2 {
		return fmt.Errorf("qos must be 0, 1 or 2, got %d", m.QoS)
	}

	if m.ConnectTimeout <= 0 {
		return fmt.Errorf("connect_timeout must be positive, got %f", m.ConnectTimeout)
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	// Output is stdout, stderr or a file path
	return nil
}

func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}

// GetEndPeriod returns the end period as a time.Duration
func (r *ReceiverConfig) GetEndPeriod() time.Duration {
	return seconds(r.EndPeriod)
}

// GetRejectPeriod returns the reject period as a time.Duration
func (r *ReceiverConfig) GetRejectPeriod() time.Duration {
	return seconds(r.RejectPeriod)
}

// GetLevelPeriod returns the level period as a time.Duration
func (r *ReceiverConfig) GetLevelPeriod() time.Duration {
	return seconds(r.LevelPeriod)
}

// DecoderConfig returns the live decoder parameters.
func (r *ReceiverConfig) DecoderConfig() pulse.Config {
	return pulse.Config{
		RejectPeriod:      r.GetRejectPeriod(),
		EndPeriod:         r.GetEndPeriod(),
		LevelPeriod:       r.GetLevelPeriod(),
		StartBits:         r.StartBits,
		CalibrationFactor: r.CalibrationFactor,
		IdleLevel:         pulse.Level(r.IdleLevel),
	}
}

// GetLevelPeriod returns the level period as a time.Duration
func (t *TransmitterConfig) GetLevelPeriod() time.Duration {
	return seconds(t.LevelPeriod)
}

// GetEndPeriod returns the end period as a time.Duration
func (t *TransmitterConfig) GetEndPeriod() time.Duration {
	return seconds(t.EndPeriod)
}

// TransmitConfig returns the transmit schedule parameters.
func (t *TransmitterConfig) TransmitConfig() transmit.Config {
	off := pulse.Level(t.OffLevel)
	return transmit.Config{
		LevelPeriod: t.GetLevelPeriod(),
		EndPeriod:   t.GetEndPeriod(),
		StartBits:   t.StartBits,
		OnLevel:     off.Invert(),
		OffLevel:    off,
	}
}

// Options returns the framing options. Call after Validate.
func (p *ProtocolConfig) Options(minRxBytes int) protocol.Options {
	sig, _ := protocol.ParseSignature(p.Signature)
	return protocol.Options{
		Signature:   sig,
		LengthWidth: p.LengthWidth,
		MinRxBytes:  minRxBytes,
	}
}

// GetKey returns the payload key. Call after Validate.
func (p *ProtocolConfig) GetKey() cipher.Key {
	key, _ := cipher.ParseKey(p.Key)
	return key
}

// GetEndPeriod returns the log mode end period as a time.Duration
func (c *CaptureConfig) GetEndPeriod() time.Duration {
	return seconds(c.EndPeriod)
}

// GetRejectPeriod returns the log mode reject period as a time.Duration
func (c *CaptureConfig) GetRejectPeriod() time.Duration {
	return seconds(c.RejectPeriod)
}

// GetConnectTimeout returns the broker connect timeout as a time.Duration
func (m *MQTTConfig) GetConnectTimeout() time.Duration {
	return seconds(m.ConnectTimeout)
}

// Redacted returns a copy safe to expose over the API.
func (c *Config) Redacted() Config {
	out := *c
	if out.Protocol.Key != "" {
		out.Protocol.Key = "REDACTED"
	}
	if out.MQTT.Password != "" {
		out.MQTT.Password = "REDACTED"
	}
	return out
}

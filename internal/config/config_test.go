package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BirchJD/RPi-433MHz/internal/cipher"
	"github.com/BirchJD/RPi-433MHz/internal/protocol"
	"github.com/BirchJD/RPi-433MHz/internal/pulse"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default config is invalid: %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Config)
		expectError bool
		errorMsg    string
	}{
		{
			name:   "valid configuration",
			modify: func(c *Config) {},
		},
		{
			name:        "empty receiver pin",
			modify:      func(c *Config) { c.Receiver.Pin = "" },
			expectError: true,
			errorMsg:    "receiver config: pin cannot be empty",
		},
		{
			name:        "unknown mode",
			modify:      func(c *Config) { c.Receiver.Mode = "sniff" },
			expectError: true,
			errorMsg:    "mode must be one of",
		},
		{
			name:        "end period not above reject period",
			modify:      func(c *Config) { c.Receiver.EndPeriod = 0.000001 },
			expectError: true,
			errorMsg:    "end_period",
		},
		{
			name:        "fixed period without level period",
			modify:      func(c *Config) { c.Receiver.StartBits = 0; c.Receiver.LevelPeriod = 0 },
			expectError: true,
			errorMsg:    "level_period must be positive",
		},
		{
			name:        "invalid sampling",
			modify:      func(c *Config) { c.Receiver.Sampling = "irq" },
			expectError: true,
			errorMsg:    "sampling must be",
		},
		{
			name:        "transmitter without start bits",
			modify:      func(c *Config) { c.Transmitter.StartBits = 0 },
			expectError: true,
			errorMsg:    "transmitter config: start bits must be at least 1",
		},
		{
			name:        "invalid off level",
			modify:      func(c *Config) { c.Transmitter.OffLevel = 2 },
			expectError: true,
			errorMsg:    "off_level must be 0 or 1",
		},
		{
			name:        "short signature",
			modify:      func(c *Config) { c.Protocol.Signature = "63F95C" },
			expectError: true,
			errorMsg:    "signature must be 4 bytes",
		},
		{
			name:        "bad key",
			modify:      func(c *Config) { c.Protocol.Key = "zz" },
			expectError: true,
			errorMsg:    "invalid key",
		},
		{
			name:        "bad length width",
			modify:      func(c *Config) { c.Protocol.LengthWidth = 3 },
			expectError: true,
			errorMsg:    "length_width must be 1 or 2",
		},
		{
			name:        "http port out of range",
			modify:      func(c *Config) { c.HTTP.Enabled = true; c.HTTP.Port = 70000 },
			expectError: true,
			errorMsg:    "http port must be between 1 and 65535",
		},
		{
			name:   "disabled mqtt not checked",
			modify: func(c *Config) { c.MQTT.Broker = "" },
		},
		{
			name:        "mqtt without broker",
			modify:      func(c *Config) { c.MQTT.Enabled = true; c.MQTT.Broker = "" },
			expectError: true,
			errorMsg:    "broker cannot be empty",
		},
		{
			name:        "invalid log level",
			modify:      func(c *Config) { c.Logging.Level = "trace" },
			expectError: true,
			errorMsg:    "level must be one of",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				} else if tt.errorMsg != "" && !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error to contain '%s', got '%s'", tt.errorMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("Expected no error but got: %v", err)
			}
		})
	}
}

func TestConfigLoad(t *testing.T) {
	tempDir := t.TempDir()

	tests := []struct {
		name        string
		configYAML  string
		expectError bool
		errorMsg    string
		check       func(*testing.T, *Config)
	}{
		{
			name: "partial file keeps defaults",
			configYAML: `
receiver:
  mode: match
  start_bits: 3
match:
  log_no_match: true
`,
			check: func(t *testing.T, c *Config) {
				if c.Receiver.Mode != "match" || c.Receiver.StartBits != 3 {
					t.Errorf("receiver overrides not applied: %+v", c.Receiver)
				}
				if c.Receiver.Pin != "GPIO26" {
					t.Errorf("Expected default pin GPIO26, got %s", c.Receiver.Pin)
				}
				if !c.Match.LogNoMatch {
					t.Errorf("Expected log_no_match to be set")
				}
			},
		},
		{
			name: "full transmitter section",
			configYAML: `
transmitter:
  pin: GPIO17
  off_level: 0
  level_period: 0.001
  end_period: 0.02
  start_bits: 2
`,
			check: func(t *testing.T, c *Config) {
				tc := c.Transmitter.TransmitConfig()
				if tc.OnLevel != pulse.High || tc.OffLevel != pulse.Low {
					t.Errorf("Expected on High, off Low, got %v/%v", tc.OnLevel, tc.OffLevel)
				}
				if tc.LevelPeriod != time.Millisecond {
					t.Errorf("Expected 1ms level period, got %v", tc.LevelPeriod)
				}
			},
		},
		{
			name:        "invalid yaml",
			configYAML:  "receiver: [unclosed",
			expectError: true,
			errorMsg:    "failed to parse config file",
		},
		{
			name: "invalid values",
			configYAML: `
receiver:
  mode: unknown
`,
			expectError: true,
			errorMsg:    "config validation failed",
		},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(tempDir, "config"+string(rune('a'+i))+".yaml")
			if err := os.WriteFile(configPath, []byte(tt.configYAML), 0644); err != nil {
				t.Fatalf("Failed to write test config file: %v", err)
			}

			config, err := Load(configPath)
			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				} else if !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error to contain '%s', got '%s'", tt.errorMsg, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error but got: %v", err)
			}
			tt.check(t, config)
		})
	}
}

func TestConfigLoadNonexistentFile(t *testing.T) {
	_, err := Load("nonexistent.yaml")
	if err == nil {
		t.Error("Expected error for nonexistent file")
	}
	if !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("Expected file read error, got: %v", err)
	}
}

func TestDurationHelpers(t *testing.T) {
	c := Default()

	if got := c.Receiver.GetEndPeriod(); got != 10*time.Millisecond {
		t.Errorf("Expected end period 10ms, got %v", got)
	}
	if got := c.Receiver.GetRejectPeriod(); got != 5*time.Microsecond {
		t.Errorf("Expected reject period 5us, got %v", got)
	}
	if got := c.Capture.GetEndPeriod(); got != 250*time.Millisecond {
		t.Errorf("Expected log end period 250ms, got %v", got)
	}
	if got := c.Capture.GetRejectPeriod(); got != 25*time.Microsecond {
		t.Errorf("Expected log reject period 25us, got %v", got)
	}
	if got := c.Transmitter.GetLevelPeriod(); got != 2*time.Millisecond {
		t.Errorf("Expected level period 2ms, got %v", got)
	}
	if got := c.MQTT.GetConnectTimeout(); got != 10*time.Second {
		t.Errorf("Expected connect timeout 10s, got %v", got)
	}
}

func TestDecoderConfig(t *testing.T) {
	dc := Default().Receiver.DecoderConfig()

	if dc.IdleLevel != pulse.High {
		t.Errorf("Expected idle level High, got %v", dc.IdleLevel)
	}
	if dc.StartBits != 1 {
		t.Errorf("Expected 1 start bit, got %d", dc.StartBits)
	}
	if dc.LevelPeriod != 500*time.Microsecond {
		t.Errorf("Expected level period 500us, got %v", dc.LevelPeriod)
	}
}

func TestProtocolConversions(t *testing.T) {
	c := Default()

	opts := c.Protocol.Options(c.Receiver.MinRxBytes)
	if opts != protocol.DefaultOptions() {
		t.Errorf("Expected default options, got %+v", opts)
	}

	key := c.Protocol.GetKey()
	if key.String() != cipher.DefaultKey.String() {
		t.Errorf("Expected default key, got %s", key)
	}
}

func TestRedacted(t *testing.T) {
	c := Default()
	c.MQTT.Password = "secret"

	r := c.Redacted()
	if r.Protocol.Key != "REDACTED" || r.MQTT.Password != "REDACTED" {
		t.Errorf("Expected secrets redacted, got key=%q password=%q", r.Protocol.Key, r.MQTT.Password)
	}
	if c.Protocol.Key == "REDACTED" {
		t.Error("Redacted modified the original config")
	}
}

func TestNewLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rx.log")

	logger, closer, err := NewLogger(LoggingConfig{Level: "debug", Format: "json", Output: path})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	logger.Info("hello")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"hello"`) {
		t.Errorf("Expected JSON log line, got %s", data)
	}

	if _, _, err := NewLogger(LoggingConfig{Output: filepath.Join(t.TempDir(), "missing", "x.log")}); err == nil {
		t.Error("Expected error for unwritable log path")
	}
}

func TestSampleConfig(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "configs", "config.yaml"))
	if err != nil {
		t.Fatalf("Sample config failed to load: %v", err)
	}

	if c.Receiver.DecoderConfig() != Default().Receiver.DecoderConfig() {
		t.Errorf("Sample receiver timing differs from defaults: %+v", c.Receiver)
	}
	if c.Match.RulesFile == "" {
		t.Error("Sample config has no rules file")
	}
	if !c.HTTP.Enabled || c.HTTP.Port != 8433 {
		t.Errorf("Expected HTTP on 8433, got %+v", c.HTTP)
	}
}

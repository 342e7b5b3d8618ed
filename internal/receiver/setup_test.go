package receiver

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BirchJD/RPi-433MHz/internal/config"
	"github.com/BirchJD/RPi-433MHz/internal/metrics"
)

func TestFromConfig(t *testing.T) {
	dir := t.TempDir()
	rules := filepath.Join(dir, "rules.ini")
	require.NoError(t, os.WriteFile(rules, []byte("63F95C=/bin/true\n"), 0o644))

	cfg := config.Default()
	cfg.Match.RulesFile = rules
	cfg.Capture.LogDir = filepath.Join(dir, "LOG")
	m := metrics.NewMetrics(prometheus.NewRegistry())

	rc, h, err := FromConfig(cfg, ModePacket, nil, nil, testLogger(), m)
	require.NoError(t, err)
	assert.IsType(t, &PacketHandler{}, h)
	assert.Equal(t, 10*time.Millisecond, rc.Decoder.EndPeriod)

	_, h, err = FromConfig(cfg, ModeMatch, nil, nil, testLogger(), m)
	require.NoError(t, err)
	assert.IsType(t, &MatchHandler{}, h)

	rc, h, err = FromConfig(cfg, ModeLog, nil, nil, testLogger(), m)
	require.NoError(t, err)
	assert.IsType(t, &LogHandler{}, h)
	assert.Equal(t, 250*time.Millisecond, rc.Decoder.EndPeriod)
	assert.Equal(t, 25*time.Microsecond, rc.Decoder.RejectPeriod)
	assert.DirExists(t, cfg.Capture.LogDir)

	_, _, err = FromConfig(cfg, "sniff", nil, nil, testLogger(), m)
	assert.Error(t, err)

	cfg.Match.RulesFile = filepath.Join(dir, "missing.ini")
	_, _, err = FromConfig(cfg, ModeMatch, nil, nil, testLogger(), m)
	assert.Error(t, err)
}

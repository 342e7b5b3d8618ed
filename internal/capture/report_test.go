package capture

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BirchJD/RPi-433MHz/internal/pulse"
)

var stamp = time.Date(2019, 7, 21, 14, 5, 9, 0, time.Local)

func decodedAnalysis() *pulse.Analysis {
	return &pulse.Analysis{
		Events:     66,
		MinLow:     500 * time.Microsecond,
		MinLowSeq:  3,
		MinHigh:    250 * time.Microsecond,
		MinHighSeq: 8,
		Decoded:    true,
		Binary:     "0110",
		Bytes:      []byte{0x12, 0xAB},
		AltBytes:   []byte{0x63, 0xF9, 0x5C, 0x1B, 0x02, 'O', 'K'},
	}
}

func TestReportDecoded(t *testing.T) {
	block := Report(stamp, decodedAnalysis(), DefaultSignatureSize)

	expected := "2019-07-21 14:05:09\n" +
		"DATA SIZE: 66 MIN LOW PERIOD: [3] 0.000500 MIN HIGH PERIOD: [8] 0.000250\n" +
		"\nBINARY DATA:\n0110" +
		"\n\nHEX DATA:\n12 AB " +
		"\n\nALT HEX DATA:\n63 F9 5C 1B 02 4F 4B " +
		"\n\nRX SIGNATURE: 63 F9 5C 1B " +
		"\n\nBYTE DATA:\n 99 249  92  27   2  79  75 " +
		"\n\nWORD DATA OFFSET 0:\n 25593  23579    591 " +
		"\n\nWORD DATA OFFSET 1:\n    99  63836   6914  20299 " +
		"\n\nCHARACTER DATA:\nc.\\..OK" +
		"\n\n\n"
	assert.Equal(t, expected, block)
}

func TestReportRejected(t *testing.T) {
	a := &pulse.Analysis{
		Events:  12,
		MinLow:  250 * time.Millisecond,
		MinHigh: 2 * time.Microsecond,
	}

	block := Report(stamp, a, DefaultSignatureSize)
	assert.True(t, strings.HasSuffix(block, RejectedMarker+"\n\n\n"))
	assert.NotContains(t, block, "HEX DATA")
	assert.Contains(t, block, "MIN LOW PERIOD: [0] 0.250000")
}

func TestReportLineWrapping(t *testing.T) {
	a := decodedAnalysis()
	a.Bytes = make([]byte, 30)
	a.AltBytes = make([]byte, 40)
	for i := range a.AltBytes {
		a.AltBytes[i] = byte(i + 1)
	}

	block := Report(stamp, a, 2)

	hex := between(block, "\nHEX DATA:\n", "\n\nALT HEX DATA:")
	lines := strings.Split(hex, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, 26*3, len(lines[0]))

	bytesSection := between(block, "\nBYTE DATA:\n", "\n\nWORD DATA OFFSET 0:")
	assert.Len(t, strings.Split(bytesSection, "\n"), 3) // 19 + 19 + 2

	assert.Contains(t, block, "RX SIGNATURE: 01 02 \n")
}

func TestPrintable(t *testing.T) {
	assert.Equal(t, "OK..~.", Printable([]byte{'O', 'K', 0x00, 0x1F, '~', 0x7F}))
	assert.Equal(t, "", Printable(nil))
}

func TestDailyLog(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "LOG")
	var console strings.Builder

	log, err := NewDailyLog(dir, &console)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "2019-07-21_433MHz.log"), log.Path(stamp))

	require.NoError(t, log.Write(stamp, "first\n"))
	require.NoError(t, log.Write(stamp.Add(time.Hour), "second\n"))
	require.NoError(t, log.Write(stamp.Add(24*time.Hour), "next day\n"))

	data, err := os.ReadFile(log.Path(stamp))
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))

	data, err = os.ReadFile(log.Path(stamp.Add(24 * time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, "next day\n", string(data))

	assert.Contains(t, console.String(), "second")
}

func TestColorize(t *testing.T) {
	saved := color.NoColor
	defer func() { color.NoColor = saved }()

	block := Report(stamp, decodedAnalysis(), DefaultSignatureSize)

	color.NoColor = true
	assert.Equal(t, block, Colorize(block))

	color.NoColor = false
	colored := Colorize(block)
	assert.NotEqual(t, block, colored)
	assert.Contains(t, colored, "\x1b[")
	// Data lines are left alone
	assert.Contains(t, colored, "\n63 F9 5C 1B 02 4F 4B \n")
}

func between(s, start, end string) string {
	i := strings.Index(s, start)
	j := strings.Index(s, end)
	if i < 0 || j < 0 {
		return ""
	}
	return s[i+len(start) : j]
}

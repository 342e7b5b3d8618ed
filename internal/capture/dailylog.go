package capture

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// DailyLog appends diagnostic blocks to one file per day named
// YYYY-MM-DD_433MHz.log and echoes them to a console writer.
type DailyLog struct {
	dir     string
	console io.Writer

	mu sync.Mutex
}

// NewDailyLog creates the log directory if needed. console may be nil.
func NewDailyLog(dir string, console io.Writer) (*DailyLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}
	return &DailyLog{dir: dir, console: console}, nil
}

// Path returns the log file used for blocks written at t.
func (d *DailyLog) Path(t time.Time) string {
	return filepath.Join(d.dir, t.Format("2006-01-02")+"_433MHz.log")
}

// Write appends block to the file for day t and echoes it to the console.
func (d *DailyLog) Write(t time.Time, block string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.console != nil {
		fmt.Fprint(d.console, Colorize(block))
	}

	path := d.Path(t)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(block); err != nil {
		return fmt.Errorf("failed to write log file %s: %w", path, err)
	}
	return nil
}

var (
	headerColor   = color.New(color.FgCyan, color.Bold)
	rejectedColor = color.New(color.FgRed, color.Bold)
	stampColor    = color.New(color.FgYellow)
)

// Colorize highlights section headers, timestamps and rejections of a block
// for terminal output. It is a no-op when color output is disabled.
func Colorize(block string) string {
	lines := strings.Split(block, "\n")
	for i, line := range lines {
		switch {
		case line == RejectedMarker:
			lines[i] = rejectedColor.Sprint(line)
		case strings.HasSuffix(line, ":") && strings.ToUpper(line) == line:
			lines[i] = headerColor.Sprint(line)
		case strings.HasPrefix(line, "DATA SIZE:"):
			lines[i] = headerColor.Sprint(line)
		case isTimestamp(line):
			lines[i] = stampColor.Sprint(line)
		}
	}
	return strings.Join(lines, "\n")
}

func isTimestamp(line string) bool {
	_, err := time.Parse(timestampFormat, line)
	return err == nil
}

package gpio

import (
	"context"
	"time"

	"periph.io/x/conn/v3/gpio"

	"github.com/BirchJD/RPi-433MHz/internal/clock"
	"github.com/BirchJD/RPi-433MHz/internal/pulse"
)

// Input is the part of gpio.PinIn the samplers use.
type Input interface {
	Read() gpio.Level
	WaitForEdge(timeout time.Duration) bool
}

// ctxCheckInterval is how many reads the poller makes between context checks.
const ctxCheckInterval = 1024

// Poller reads the pin in a tight loop and reports each level change with the
// time it was first seen. Timing resolution is the loop period.
type Poller struct {
	pin   Input
	clock clock.Clock
	last  pulse.Level
}

// NewPoller creates a poller; the current pin level is the starting level.
func NewPoller(pin Input, clk clock.Clock) *Poller {
	return &Poller{pin: pin, clock: clk, last: ToLevel(pin.Read())}
}

// NextEdge spins until the level changes or timeout elapses. ok is false on
// timeout, in which case at is the time of the last read and level is unchanged.
func (p *Poller) NextEdge(ctx context.Context, timeout time.Duration) (time.Duration, pulse.Level, bool, error) {
	deadline := p.clock.Now() + timeout
	for i := 1; ; i++ {
		now := p.clock.Now()
		level := ToLevel(p.pin.Read())
		if level != p.last {
			p.last = level
			return now, level, true, nil
		}
		if now >= deadline {
			return now, level, false, nil
		}
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return now, level, false, err
			}
		}
	}
}

// EdgeWatcher blocks on the pin's edge interrupt instead of spinning. The pin
// must have been opened with edges enabled.
type EdgeWatcher struct {
	pin   Input
	clock clock.Clock
	last  pulse.Level
}

// NewEdgeWatcher creates an edge watcher; the current pin level is the starting level.
func NewEdgeWatcher(pin Input, clk clock.Clock) *EdgeWatcher {
	return &EdgeWatcher{pin: pin, clock: clk, last: ToLevel(pin.Read())}
}

// NextEdge waits up to timeout for an edge. Edges that settle back to the
// previous level before they are read are reported as that level; the
// decoder ignores them.
func (w *EdgeWatcher) NextEdge(ctx context.Context, timeout time.Duration) (time.Duration, pulse.Level, bool, error) {
	if err := ctx.Err(); err != nil {
		return w.clock.Now(), w.last, false, err
	}
	if !w.pin.WaitForEdge(timeout) {
		return w.clock.Now(), w.last, false, nil
	}
	at := w.clock.Now()
	w.last = ToLevel(w.pin.Read())
	return at, w.last, true, nil
}

package capture

import (
	"context"
	"io"
	"time"

	"github.com/BirchJD/RPi-433MHz/internal/clock"
	"github.com/BirchJD/RPi-433MHz/internal/pulse"
)

type edge struct {
	at    time.Duration
	level pulse.Level
}

// Playback replays a window as pin edges against a fake clock, so a recording
// can be run through the same receive loop as a live pin. After the last edge
// NextEdge returns io.EOF.
type Playback struct {
	clock *clock.Fake
	edges []edge
	next  int
	last  pulse.Level
}

// NewPlayback schedules the edges of w starting at the clock's current time.
// The first event's level is reported as an edge at the start.
func NewPlayback(w pulse.Window, clk *clock.Fake) *Playback {
	p := &Playback{clock: clk}
	if len(w) == 0 {
		return p
	}

	t := clk.Now()
	p.edges = append(p.edges, edge{at: t, level: w[0].Level})
	for i, e := range w[:len(w)-1] {
		t += e.Duration
		p.edges = append(p.edges, edge{at: t, level: w[i+1].Level})
	}
	p.last = w[0].Level.Invert()
	return p
}

func (p *Playback) NextEdge(ctx context.Context, timeout time.Duration) (time.Duration, pulse.Level, bool, error) {
	if err := ctx.Err(); err != nil {
		return p.clock.Now(), p.last, false, err
	}
	if p.next >= len(p.edges) {
		return p.clock.Now(), p.last, false, io.EOF
	}

	e := p.edges[p.next]
	if e.at > p.clock.Now()+timeout {
		p.clock.Advance(timeout)
		return p.clock.Now(), p.last, false, nil
	}

	p.clock.Set(e.at)
	p.next++
	p.last = e.level
	return e.at, e.level, true, nil
}

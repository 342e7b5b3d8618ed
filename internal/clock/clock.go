package clock

import (
	"sync"
	"time"
)

// spinThreshold is how close to a deadline SleepUntil stops sleeping and
// starts spinning. The kernel timer slack on a Raspberry Pi is far coarser
// than a 500us bit period.
const spinThreshold = 200 * time.Microsecond

// Clock measures elapsed time since an arbitrary origin and can block the
// caller until a point on that time line.
type Clock interface {
	Now() time.Duration
	SleepUntil(t time.Duration)
}

// Monotonic is a Clock backed by the runtime's monotonic clock.
type Monotonic struct {
	origin time.Time
}

// NewMonotonic returns a Clock whose zero is the time of the call.
func NewMonotonic() *Monotonic {
	return &Monotonic{origin: time.Now()}
}

// Now returns the time elapsed since the clock was created.
func (m *Monotonic) Now() time.Duration {
	return time.Since(m.origin)
}

// SleepUntil blocks until Now() >= t. Long waits sleep, the final stretch spins.
func (m *Monotonic) SleepUntil(t time.Duration) {
	for {
		remaining := t - m.Now()
		if remaining <= 0 {
			return
		}
		if remaining > spinThreshold {
			time.Sleep(remaining - spinThreshold)
		}
	}
}

// Fake is a manually advanced Clock for tests. SleepUntil jumps the clock
// forward instead of blocking.
type Fake struct {
	mu  sync.Mutex
	now time.Duration
}

// NewFake returns a Fake clock starting at start.
func NewFake(start time.Duration) *Fake {
	return &Fake{now: start}
}

func (f *Fake) Now() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) SleepUntil(t time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t > f.now {
		f.now = t
	}
}

// Advance moves the clock forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now += d
}

// Set moves the clock to t.
func (f *Fake) Set(t time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
}

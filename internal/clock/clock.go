// Package clock produces the frame ticks that drive sequences.
package clock

import (
	"context"
	"fmt"
	"time"
)

// DefaultFPS is used when a loop is created with a non-positive rate.
const DefaultFPS = 60

// Tick is one frame. Timestamp is the time since the clock started and never
// decreases; Delta is the time since the previous tick.
type Tick struct {
	Timestamp time.Duration
	Delta     time.Duration
}

// Monotonic turns raw timestamps into ticks. A timestamp earlier than the
// previous one yields a zero delta instead of moving time backwards.
type Monotonic struct {
	last    time.Duration
	started bool
}

// Advance records ts and returns the tick for it.
func (m *Monotonic) Advance(ts time.Duration) Tick {
	if !m.started {
		m.started = true
		m.last = ts
		return Tick{Timestamp: ts}
	}
	if ts < m.last {
		return Tick{Timestamp: m.last}
	}
	delta := ts - m.last
	m.last = ts
	return Tick{Timestamp: ts, Delta: delta}
}

// Manual is a clock stepped by hand, mostly for tests and offline sampling.
type Manual struct {
	mono Monotonic
	now  time.Duration
}

// NewManual returns a manual clock at zero.
func NewManual() *Manual {
	m := &Manual{}
	m.mono.Advance(0)
	return m
}

// Step moves the clock forward by d. Negative steps produce a zero delta.
func (m *Manual) Step(d time.Duration) Tick {
	if d > 0 {
		m.now += d
	}
	return m.mono.Advance(m.now)
}

// Now is the current timestamp.
func (m *Manual) Now() time.Duration { return m.now }

// Loop emits ticks from a wall-clock ticker.
type Loop struct {
	interval time.Duration
	now      func() time.Time
}

// NewLoop returns a loop ticking fps times per second.
func NewLoop(fps int) *Loop {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &Loop{
		interval: time.Second / time.Duration(fps),
		now:      time.Now,
	}
}

// Interval is the nominal time between ticks.
func (l *Loop) Interval() time.Duration { return l.interval }

// Run calls fn for every frame until ctx is cancelled or fn returns false.
// It returns ctx.Err() on cancellation and nil when fn stops the loop.
func (l *Loop) Run(ctx context.Context, fn func(Tick) bool) error {
	if fn == nil {
		return fmt.Errorf("clock: nil tick function")
	}

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	start := l.now()
	var mono Monotonic
	mono.Advance(0)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if !fn(mono.Advance(now.Sub(start))) {
				return nil
			}
		}
	}
}

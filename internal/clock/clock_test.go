package clock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonotonicClampsBackwardsTimestamps(t *testing.T) {
	var m Monotonic
	assert.Equal(t, Tick{Timestamp: 10 * time.Millisecond}, m.Advance(10*time.Millisecond))
	assert.Equal(t, Tick{Timestamp: 26 * time.Millisecond, Delta: 16 * time.Millisecond}, m.Advance(26*time.Millisecond))
	assert.Equal(t, Tick{Timestamp: 26 * time.Millisecond}, m.Advance(20*time.Millisecond))
	assert.Equal(t, Tick{Timestamp: 30 * time.Millisecond, Delta: 4 * time.Millisecond}, m.Advance(30*time.Millisecond))
}

func TestManualStep(t *testing.T) {
	m := NewManual()

	tick := m.Step(16 * time.Millisecond)
	assert.Equal(t, 16*time.Millisecond, tick.Delta)
	assert.Equal(t, 16*time.Millisecond, tick.Timestamp)

	tick = m.Step(-5 * time.Millisecond)
	assert.Zero(t, tick.Delta)
	assert.Equal(t, 16*time.Millisecond, m.Now())

	tick = m.Step(4 * time.Millisecond)
	assert.Equal(t, 4*time.Millisecond, tick.Delta)
	assert.Equal(t, 20*time.Millisecond, tick.Timestamp)
}

func TestNewLoopInterval(t *testing.T) {
	assert.Equal(t, time.Second/60, NewLoop(0).Interval())
	assert.Equal(t, 10*time.Millisecond, NewLoop(100).Interval())
}

func TestLoopStopsWhenFuncReturnsFalse(t *testing.T) {
	l := NewLoop(200)

	var ticks []Tick
	err := l.Run(context.Background(), func(tick Tick) bool {
		ticks = append(ticks, tick)
		return len(ticks) < 3
	})
	require.NoError(t, err)
	require.Len(t, ticks, 3)

	for i := 1; i < len(ticks); i++ {
		assert.GreaterOrEqual(t, ticks[i].Timestamp, ticks[i-1].Timestamp)
		assert.Equal(t, ticks[i].Timestamp-ticks[i-1].Timestamp, ticks[i].Delta)
	}
}

func TestLoopCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := NewLoop(100).Run(ctx, func(Tick) bool { return true })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLoopNilFunc(t *testing.T) {
	assert.Error(t, NewLoop(60).Run(context.Background(), nil))
}

package stagger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/choreo/internal/easing"
)

const ms = time.Millisecond

func mustCalc(t *testing.T, opts Options) *Calculator {
	t.Helper()
	c, err := New(opts)
	require.NoError(t, err)
	return c
}

func TestSequentialIsExact(t *testing.T) {
	c := mustCalc(t, Options{Delay: 100 * ms})
	for i := 0; i < 10; i++ {
		assert.Equal(t, time.Duration(i)*100*ms, c.DelayFor(i, 10))
	}
}

func TestMaxDelayCapsWithoutRescaling(t *testing.T) {
	c := mustCalc(t, Options{Delay: 100 * ms, MaxDelay: 250 * ms})
	got := c.Delays(6)

	assert.Equal(t, []time.Duration{0, 100 * ms, 200 * ms, 250 * ms, 250 * ms, 250 * ms}, got)
	for _, d := range got {
		assert.LessOrEqual(t, d, 250*ms)
	}
}

func TestFromCenter(t *testing.T) {
	c := mustCalc(t, Options{Delay: 100 * ms, Pattern: FromCenter})

	got := c.Delays(5)
	assert.Equal(t, []time.Duration{200 * ms, 100 * ms, 0, 100 * ms, 200 * ms}, got)

	// even count: center sits between two targets
	even := c.Delays(4)
	assert.Equal(t, []time.Duration{150 * ms, 50 * ms, 50 * ms, 150 * ms}, even)
}

func TestFromEdges(t *testing.T) {
	c := mustCalc(t, Options{Delay: 100 * ms, Pattern: FromEdges})
	assert.Equal(t, []time.Duration{0, 100 * ms, 200 * ms, 100 * ms, 0}, c.Delays(5))
}

func TestWaveAlternates(t *testing.T) {
	c := mustCalc(t, Options{Delay: 10 * ms, Pattern: Wave, WavePeriod: 2})
	got := c.Delays(5)

	// period 2: even indices near, odd indices far
	assert.Equal(t, time.Duration(0), got[0])
	assert.Equal(t, 40*ms, got[1])
	assert.Equal(t, time.Duration(0), got[2])
	assert.Equal(t, 40*ms, got[3])
}

func TestRandomIsSeededAndBounded(t *testing.T) {
	opts := Options{Delay: 50 * ms, Pattern: Random, Seed: 42}
	a := mustCalc(t, opts).Delays(8)
	b := mustCalc(t, opts).Delays(8)
	assert.Equal(t, a, b)

	for _, d := range a {
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 50*ms*7)
	}

	other := mustCalc(t, Options{Delay: 50 * ms, Pattern: Random, Seed: 7}).Delays(8)
	assert.NotEqual(t, a, other)
}

func TestReverseMirrorsIndex(t *testing.T) {
	fwd := mustCalc(t, Options{Delay: 100 * ms})
	rev := mustCalc(t, Options{Delay: 100 * ms, Reverse: true})

	for i := 0; i < 5; i++ {
		assert.Equal(t, fwd.DelayFor(4-i, 5), rev.DelayFor(i, 5))
	}
}

func TestEasingReshapesDistribution(t *testing.T) {
	linear := mustCalc(t, Options{Delay: 100 * ms})
	eased := mustCalc(t, Options{Delay: 100 * ms, Easing: "easeInQuad"})

	// endpoints unchanged, interior compressed toward zero
	assert.Equal(t, linear.DelayFor(0, 5), eased.DelayFor(0, 5))
	assert.Equal(t, linear.DelayFor(4, 5), eased.DelayFor(4, 5))
	assert.Equal(t, 100*ms, eased.DelayFor(2, 5)) // (0.5^2) × 4 × 100ms
	assert.Less(t, eased.DelayFor(1, 5), linear.DelayFor(1, 5))
}

func TestEasedDelaysStayInsideSpan(t *testing.T) {
	names := append(easing.Names(), "cubic-bezier(0.3, -0.8, 0.7, 1.8)")
	patterns := []Pattern{Sequential, FromCenter, FromEdges, Wave, Random}

	for _, name := range names {
		for _, p := range patterns {
			opts := Options{Delay: 100 * ms, Easing: name, Pattern: p, Seed: 3}
			span := Span(7, opts)
			for i, d := range mustCalc(t, opts).Delays(7) {
				assert.GreaterOrEqual(t, d, time.Duration(0), "%s/%s target %d", name, p, i)
				assert.LessOrEqual(t, d, span, "%s/%s target %d", name, p, i)
			}
		}
	}

	// easeOutBack overshoots past 1 in the middle of the range
	back := mustCalc(t, Options{Delay: 100 * ms, Easing: "easeOutBack"}).Delays(5)
	assert.Equal(t, 400*ms, back[2])
	assert.Equal(t, 400*ms, back[4])
}

func TestRandomDelayMatchesAcrossCalls(t *testing.T) {
	c := mustCalc(t, Options{Delay: 10 * ms, Pattern: Random, Seed: 99})
	all := c.Delays(64)

	distinct := map[time.Duration]bool{}
	for i, d := range all {
		assert.Equal(t, d, c.DelayFor(i, 64))
		distinct[d] = true
	}
	assert.Greater(t, len(distinct), 1)
}

func TestUnknownEasing(t *testing.T) {
	_, err := New(Options{Delay: ms, Easing: "nope"})
	require.Error(t, err)

	_, err = DelayFor(0, 3, Options{Delay: ms, Easing: "nope"})
	require.Error(t, err)
}

func TestDegenerateCounts(t *testing.T) {
	c := mustCalc(t, Options{Delay: 100 * ms})
	assert.Equal(t, time.Duration(0), c.DelayFor(0, 1))
	assert.Equal(t, time.Duration(0), c.DelayFor(0, 0))
	assert.Equal(t, 200*ms, c.DelayFor(99, 3), "index clamps to count-1")
}

func TestSpan(t *testing.T) {
	assert.Equal(t, 400*ms, Span(5, Options{Delay: 100 * ms}))
	assert.Equal(t, 250*ms, Span(5, Options{Delay: 100 * ms, MaxDelay: 250 * ms}))
	assert.Equal(t, time.Duration(0), Span(1, Options{Delay: 100 * ms}))
}

func TestParsePattern(t *testing.T) {
	for _, p := range []Pattern{Sequential, FromCenter, FromEdges, Wave, Random} {
		parsed, err := ParsePattern(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, parsed)
	}

	var p Pattern
	require.NoError(t, p.UnmarshalText([]byte("from-center")))
	assert.Equal(t, FromCenter, p)
	assert.Error(t, p.UnmarshalText([]byte("spiral")))
}

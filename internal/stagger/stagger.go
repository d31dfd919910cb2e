// Package stagger distributes per-target start delays across the targets of
// a single stage.
package stagger

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ivlev/choreo/internal/easing"
)

// Pattern selects how delays spread over target indices.
type Pattern int

const (
	Sequential Pattern = iota
	FromCenter
	FromEdges
	Wave
	Random
)

// DefaultWavePeriod is the number of targets in one wave cycle.
const DefaultWavePeriod = 4.0

var patternNames = map[Pattern]string{
	Sequential: "sequential",
	FromCenter: "center",
	FromEdges:  "edges",
	Wave:       "wave",
	Random:     "random",
}

func (p Pattern) String() string {
	if s, ok := patternNames[p]; ok {
		return s
	}
	return fmt.Sprintf("pattern(%d)", int(p))
}

// ParsePattern accepts the String form plus a few aliases.
func ParsePattern(s string) (Pattern, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sequential", "start", "first":
		return Sequential, nil
	case "center", "fromcenter", "from-center":
		return FromCenter, nil
	case "edges", "fromedges", "from-edges":
		return FromEdges, nil
	case "wave":
		return Wave, nil
	case "random":
		return Random, nil
	}
	return Sequential, fmt.Errorf("unknown stagger pattern %q", s)
}

// MarshalText implements encoding.TextMarshaler so patterns read well in
// scenario files.
func (p Pattern) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Pattern) UnmarshalText(b []byte) error {
	parsed, err := ParsePattern(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Options configures a stagger distribution.
type Options struct {
	// Delay is the base delay between neighbouring targets.
	Delay   time.Duration `yaml:"delay,omitempty"`
	Pattern Pattern       `yaml:"pattern,omitempty"`
	// Easing reshapes the normalized distance before scaling.
	Easing string `yaml:"easing,omitempty"`
	// MaxDelay caps the computed delays. Zero or negative means no cap.
	MaxDelay time.Duration `yaml:"maxDelay,omitempty"`
	// Reverse mirrors the index before the pattern is applied.
	Reverse    bool    `yaml:"reverse,omitempty"`
	Seed       int64   `yaml:"seed,omitempty"`
	WavePeriod float64 `yaml:"wavePeriod,omitempty"`
}

// Calculator is a compiled set of Options.
type Calculator struct {
	opts Options
	ease easing.Func
}

// New compiles opts, resolving the easing name.
func New(opts Options) (*Calculator, error) {
	var ease easing.Func
	if strings.TrimSpace(opts.Easing) != "" {
		f, err := easing.ByName(opts.Easing)
		if err != nil {
			return nil, err
		}
		ease = f
	}
	if opts.WavePeriod <= 0 {
		opts.WavePeriod = DefaultWavePeriod
	}
	return &Calculator{opts: opts, ease: ease}, nil
}

// DelayFor computes the delay for one target.
func DelayFor(index, count int, opts Options) (time.Duration, error) {
	c, err := New(opts)
	if err != nil {
		return 0, err
	}
	return c.DelayFor(index, count), nil
}

// DelayFor returns the delay of target index out of count targets.
// Out-of-range indices are clamped.
func (c *Calculator) DelayFor(index, count int) time.Duration {
	if count <= 1 || c.opts.Delay <= 0 {
		return 0
	}
	if index < 0 {
		index = 0
	}
	if index > count-1 {
		index = count - 1
	}
	if c.opts.Reverse {
		index = count - 1 - index
	}

	dist, maxDist := c.distance(index, count)
	if c.ease != nil && maxDist > 0 {
		// overshooting curves must stay inside Span
		dist = easing.Clamp01(c.ease(dist/maxDist)) * maxDist
	}
	if dist < 0 {
		dist = 0
	}

	delay := time.Duration(math.Round(dist * float64(c.opts.Delay)))
	if c.opts.MaxDelay > 0 && delay > c.opts.MaxDelay {
		delay = c.opts.MaxDelay
	}
	return delay
}

// Delays returns the delay of every target.
func (c *Calculator) Delays(count int) []time.Duration {
	out := make([]time.Duration, count)
	for i := range out {
		out[i] = c.DelayFor(i, count)
	}
	return out
}

// Span is the window a stagger adds on top of a stage duration:
// min(Delay × (count−1), MaxDelay).
func Span(count int, opts Options) time.Duration {
	if count <= 1 || opts.Delay <= 0 {
		return 0
	}
	span := opts.Delay * time.Duration(count-1)
	if opts.MaxDelay > 0 && span > opts.MaxDelay {
		span = opts.MaxDelay
	}
	return span
}

// distance returns the pattern distance of index in units of the base delay
// along with the largest distance the pattern can produce for count.
func (c *Calculator) distance(index, count int) (float64, float64) {
	last := float64(count - 1)
	i := float64(index)

	switch c.opts.Pattern {
	case FromCenter:
		center := last / 2
		return math.Abs(i - center), center
	case FromEdges:
		return math.Min(i, last-i), math.Floor(last / 2)
	case Wave:
		phase := 2 * math.Pi * i / c.opts.WavePeriod
		return last * (1 - math.Cos(phase)) / 2, last
	case Random:
		return unitHash(c.opts.Seed, index) * last, last
	default:
		return i, last
	}
}

// unitHash maps (seed, index) to [0,1) with a splitmix64 finalizer.
func unitHash(seed int64, index int) float64 {
	z := uint64(seed) + uint64(index+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	z ^= z >> 31
	return float64(z>>11) / (1 << 53)
}

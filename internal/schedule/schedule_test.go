package schedule

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/choreo/internal/errors"
	"github.com/ivlev/choreo/internal/stage"
	"github.com/ivlev/choreo/internal/stagger"
)

const ms = time.Millisecond

func style(id string, d time.Duration, deps ...string) stage.Stage {
	return stage.Stage{ID: id, Kind: stage.Style, Duration: d, DependsOn: deps}
}

func TestResolveIndependentStages(t *testing.T) {
	sched, err := Resolve([]stage.Stage{
		style("a", 100*ms),
		style("b", 200*ms),
		style("c", 300*ms),
	})
	require.NoError(t, err)

	assert.Equal(t, 300*ms, sched.Total)
	for _, id := range []string{"a", "b", "c"} {
		assert.Zero(t, sched.Intervals[id].Start, id)
	}
	assert.Equal(t, []string{"a", "b", "c"}, sched.Order)
	assert.Equal(t, []string{"c"}, sched.CriticalPath())
}

func TestResolveDependencyWithDelay(t *testing.T) {
	a := style("A", 100*ms)
	a.Delay = 50 * ms
	b := style("B", 200*ms, "A")

	sched, err := Resolve([]stage.Stage{b, a})
	require.NoError(t, err)

	assert.Equal(t, Interval{Start: 0, ActiveStart: 50 * ms, End: 150 * ms}, sched.Intervals["A"])
	assert.Equal(t, Interval{Start: 150 * ms, ActiveStart: 150 * ms, End: 350 * ms}, sched.Intervals["B"])
	assert.Equal(t, 350*ms, sched.Total)
	assert.Equal(t, []string{"A", "B"}, sched.Order)
	assert.Equal(t, []string{"A", "B"}, sched.CriticalPath())
}

func TestResolveStaggerEffectiveDuration(t *testing.T) {
	s := stage.Stage{
		ID:       "cards",
		Kind:     stage.Stagger,
		Targets:  []string{"c1", "c2", "c3", "c4", "c5"},
		Duration: 300 * ms,
		Stagger:  stagger.Options{Delay: 100 * ms, Pattern: stagger.Sequential},
	}

	sched, err := Resolve([]stage.Stage{s})
	require.NoError(t, err)
	assert.Equal(t, 700*ms, sched.Intervals["cards"].Width())
	assert.Equal(t, 700*ms, sched.Total)
}

func TestResolveRepeatAndYoyo(t *testing.T) {
	s := style("pulse", 500*ms)
	s.Repeat = 2
	s.Yoyo = true

	sched, err := Resolve([]stage.Stage{s})
	require.NoError(t, err)
	assert.Equal(t, time.Second, sched.Total)
}

func TestResolveDiamond(t *testing.T) {
	sched, err := Resolve([]stage.Stage{
		style("root", 100*ms),
		style("left", 300*ms, "root"),
		style("right", 50*ms, "root"),
		style("join", 100*ms, "right", "left"),
	})
	require.NoError(t, err)

	assert.Equal(t, 100*ms, sched.Intervals["left"].Start)
	assert.Equal(t, 100*ms, sched.Intervals["right"].Start)
	assert.Equal(t, 400*ms, sched.Intervals["join"].Start)
	assert.Equal(t, 500*ms, sched.Total)
	assert.Equal(t, []string{"root", "left", "right", "join"}, sched.Order)
	assert.Equal(t, []string{"root", "left", "join"}, sched.CriticalPath())
	assert.Equal(t, []string{"right", "left"}, sched.Dependencies("join"))
}

func TestResolveLoopingStageFillsTimeline(t *testing.T) {
	spinner := style("spinner", 200*ms)
	spinner.Repeat = stage.RepeatInfinite

	sched, err := Resolve([]stage.Stage{
		spinner,
		style("a", 400*ms),
		style("b", 300*ms, "a"),
	})
	require.NoError(t, err)

	assert.Equal(t, 700*ms, sched.Total)
	assert.Equal(t, Interval{Start: 0, ActiveStart: 0, End: 700 * ms}, sched.Intervals["spinner"])
}

func TestResolveCycle(t *testing.T) {
	tests := []struct {
		name   string
		stages []stage.Stage
		want   string
	}{
		{
			name:   "self",
			stages: []stage.Stage{style("a", ms, "a")},
			want:   "a -> a",
		},
		{
			name:   "pair",
			stages: []stage.Stage{style("a", ms, "b"), style("b", ms, "a")},
			want:   "a -> b -> a",
		},
		{
			name: "triangle behind a root",
			stages: []stage.Stage{
				style("root", ms),
				style("a", ms, "root", "c"),
				style("b", ms, "a"),
				style("c", ms, "b"),
			},
			want: "a -> b -> c -> a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sched, err := Resolve(tt.stages)
			require.Error(t, err)
			assert.Nil(t, sched)
			assert.True(t, errors.IsCycle(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestResolveInvalid(t *testing.T) {
	looping := style("loop", 100*ms)
	looping.Repeat = stage.RepeatInfinite

	tests := []struct {
		name   string
		stages []stage.Stage
	}{
		{"dangling dependency", []stage.Stage{style("a", ms, "ghost")}},
		{"duplicate id", []stage.Stage{style("a", ms), style("a", ms)}},
		{"negative duration", []stage.Stage{style("a", -ms)}},
		{"depends on looping", []stage.Stage{looping, style("a", ms, "loop")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.stages)
			require.Error(t, err)
			assert.True(t, errors.IsInvalidStage(err), "got %v", err)
		})
	}
}

func TestResolveEmpty(t *testing.T) {
	sched, err := Resolve(nil)
	require.NoError(t, err)
	assert.Zero(t, sched.Total)
	assert.Empty(t, sched.Order)
	assert.Nil(t, sched.CriticalPath())
}

func TestResolveDuplicateDependencyCountedOnce(t *testing.T) {
	sched, err := Resolve([]stage.Stage{
		style("a", 100*ms),
		style("b", 100*ms, "a", "a"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, sched.Order)
	assert.Equal(t, 200*ms, sched.Total)
}

// Random DAGs: every stage starts at the latest end of its dependencies and
// ends exactly one effective duration later.
func TestResolveMonotonicScheduling(t *testing.T) {
	r := rand.New(rand.NewSource(7))

	for round := 0; round < 50; round++ {
		n := 2 + r.Intn(12)
		stages := make([]stage.Stage, n)
		for i := range stages {
			s := style(fmt.Sprintf("s%d", i), time.Duration(r.Intn(500))*ms)
			s.Delay = time.Duration(r.Intn(100)) * ms
			s.Repeat = r.Intn(3)
			for j := 0; j < i; j++ {
				if r.Intn(3) == 0 {
					s.DependsOn = append(s.DependsOn, fmt.Sprintf("s%d", j))
				}
			}
			stages[i] = s
		}
		// shuffle declaration order; dependencies still only point backwards by index
		r.Shuffle(len(stages), func(i, j int) { stages[i], stages[j] = stages[j], stages[i] })

		sched, err := Resolve(stages)
		require.NoError(t, err)

		var total time.Duration
		for i := range stages {
			s := &stages[i]
			iv := sched.Intervals[s.ID]

			var want time.Duration
			for _, dep := range s.DependsOn {
				if end := sched.Intervals[dep].End; end > want {
					want = end
				}
			}
			assert.Equal(t, want, iv.Start, s.ID)
			assert.Equal(t, iv.Start+s.EffectiveDuration(), iv.End, s.ID)
			assert.Equal(t, iv.Start+s.Delay, iv.ActiveStart, s.ID)
			if iv.End > total {
				total = iv.End
			}
		}
		assert.Equal(t, total, sched.Total)

		pos := make(map[string]int, len(sched.Order))
		for i, id := range sched.Order {
			pos[id] = i
		}
		for i := range stages {
			for _, dep := range stages[i].DependsOn {
				assert.Less(t, pos[dep], pos[stages[i].ID])
			}
		}
	}
}

func TestResolveIsPure(t *testing.T) {
	stages := []stage.Stage{style("a", 100*ms), style("b", 50*ms, "a")}
	first, err := Resolve(stages)
	require.NoError(t, err)
	second, err := Resolve(stages)
	require.NoError(t, err)
	assert.Equal(t, first.Intervals, second.Intervals)
	assert.Equal(t, first.Order, second.Order)
}

func TestScheduleString(t *testing.T) {
	sched, err := Resolve([]stage.Stage{style("fade", 100*ms)})
	require.NoError(t, err)
	assert.Contains(t, sched.String(), "fade")
	assert.Contains(t, sched.String(), "total")
}

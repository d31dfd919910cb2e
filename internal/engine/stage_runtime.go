package engine

import (
	"fmt"
	"time"

	"github.com/ivlev/choreo/internal/easing"
	"github.com/ivlev/choreo/internal/effects"
	"github.com/ivlev/choreo/internal/renderer"
	"github.com/ivlev/choreo/internal/schedule"
	"github.com/ivlev/choreo/internal/stage"
	"github.com/ivlev/choreo/internal/stagger"
)

// Terminal is where a stage sits relative to its window.
type Terminal int

const (
	Pending Terminal = iota
	Active
	Completed
)

func (t Terminal) String() string {
	switch t {
	case Active:
		return "active"
	case Completed:
		return "completed"
	default:
		return "pending"
	}
}

// StageState is the derived runtime state of one stage.
type StageState struct {
	StageID  string
	Terminal Terminal
	// Progress is the raw phase of the current pass after yoyo inversion.
	// Stagger stages report the fraction of their whole window instead.
	Progress    float64
	RepeatIndex int
	// Reversed is true while a yoyo pass runs backwards.
	Reversed bool
}

// stageRuntime evaluates one stage against the global elapsed time. It keeps
// a completion latch so the final value is applied once per traversal.
type stageRuntime struct {
	stage    stage.Stage
	interval schedule.Interval
	ease     easing.Func
	timeline *renderer.Timeline
	targets  []string
	delays   []time.Duration

	state   StageState
	latched bool
}

func newStageRuntime(st stage.Stage, iv schedule.Interval) (*stageRuntime, error) {
	ease, err := easing.ByName(st.Easing)
	if err != nil {
		return nil, err
	}

	rt := &stageRuntime{
		stage:    st,
		interval: iv,
		ease:     ease,
		state:    StageState{StageID: st.ID},
	}

	if len(st.Keyframes) > 0 {
		rt.timeline, err = renderer.NewTimeline(st.Keyframes, st.ColorSpace)
		if err != nil {
			return nil, err
		}
	}

	if st.Kind == stage.Stagger {
		calc, err := stagger.New(st.Stagger)
		if err != nil {
			return nil, err
		}
		count := st.Count()
		rt.delays = calc.Delays(count)
		rt.targets = make([]string, count)
		for i := range rt.targets {
			if i < len(st.Targets) {
				rt.targets[i] = st.Targets[i]
				continue
			}
			base := st.Selector
			if base == "" {
				base = st.ID
			}
			rt.targets[i] = fmt.Sprintf("%s[%d]", base, i)
		}
	}

	return rt, nil
}

// adopt carries the traversal state of a runtime built from an earlier
// schedule over to rt.
func (rt *stageRuntime) adopt(prev *stageRuntime) {
	rt.state = prev.state
	rt.latched = prev.latched
}

func (rt *stageRuntime) reset() {
	rt.state = StageState{StageID: rt.stage.ID}
	rt.latched = false
}

// evaluate updates the runtime for elapsed time t and returns the effect
// invocation to apply, if any. The side of the window playback is heading
// away from is pending; the side it is heading towards is done.
func (rt *stageRuntime) evaluate(t time.Duration, dir renderer.Direction) (effects.Invocation, bool) {
	iv := rt.interval
	// windows are half-open towards the direction of travel, so a zero-width
	// stage is crossed, and completed, in both directions
	before, after := t < iv.ActiveStart, t >= iv.End
	if dir == renderer.Reverse {
		before, after = t <= iv.ActiveStart, t > iv.End
	}

	switch {
	case before:
		rt.state.Terminal = Pending
	case after:
		rt.state.Terminal = Completed
	default:
		rt.state.Terminal = Active
		rt.latched = false
		return rt.active(t-iv.ActiveStart, dir), true
	}

	done := (dir == renderer.Forward && after) || (dir == renderer.Reverse && before)
	if !done {
		rt.latched = false
		if before {
			rt.state.Progress, rt.state.RepeatIndex, rt.state.Reversed = 0, 0, false
		}
		return effects.Invocation{}, false
	}
	if rt.latched {
		return effects.Invocation{}, false
	}
	rt.latched = true
	return rt.final(dir), true
}

func (rt *stageRuntime) iterations() int {
	return rt.stage.Iterations()
}

// pass is the width of one target's animation: every iteration, no delay.
func (rt *stageRuntime) pass() time.Duration {
	return rt.stage.Duration * time.Duration(rt.iterations())
}

// sample computes the phase at local time inside an open window.
func (rt *stageRuntime) sample(local time.Duration) (phase float64, index int, reversed bool) {
	d := rt.stage.Duration
	if d <= 0 {
		return rt.closing(0)
	}
	index = int(local / d)
	phase = float64(local%d) / float64(d)
	return yoyo(phase, index, rt.stage.Yoyo)
}

// closing is the value at the end of the last pass. Looping stages end
// wherever the timeline ends, which local says.
func (rt *stageRuntime) closing(local time.Duration) (float64, int, bool) {
	d := rt.stage.Duration
	if !rt.stage.Looping() || d <= 0 || local <= 0 {
		return yoyo(1, rt.iterations()-1, rt.stage.Yoyo)
	}
	index := int(local / d)
	rem := local % d
	if rem == 0 {
		return yoyo(1, index-1, rt.stage.Yoyo)
	}
	return yoyo(float64(rem)/float64(d), index, rt.stage.Yoyo)
}

func yoyo(phase float64, index int, enabled bool) (float64, int, bool) {
	if enabled && index%2 == 1 {
		return 1 - phase, index, true
	}
	return phase, index, false
}

func (rt *stageRuntime) active(local time.Duration, dir renderer.Direction) effects.Invocation {
	if rt.stage.Kind == stage.Stagger {
		return rt.staggered(local, dir, false)
	}

	var phase float64
	var index int
	var reversed bool
	if local >= rt.interval.End-rt.interval.ActiveStart {
		phase, index, reversed = rt.closing(local)
	} else {
		phase, index, reversed = rt.sample(local)
	}
	rt.state.Progress, rt.state.RepeatIndex, rt.state.Reversed = phase, index, reversed
	return rt.invocation(phase, index, reversed, dir, false)
}

func (rt *stageRuntime) final(dir renderer.Direction) effects.Invocation {
	if rt.stage.Kind == stage.Stagger {
		return rt.staggered(rt.interval.End-rt.interval.ActiveStart, dir, true)
	}

	var phase float64
	var index int
	var reversed bool
	if dir == renderer.Forward {
		phase, index, reversed = rt.closing(rt.interval.End - rt.interval.ActiveStart)
	}
	rt.state.Progress, rt.state.RepeatIndex, rt.state.Reversed = phase, index, reversed
	return rt.invocation(phase, index, reversed, dir, true)
}

func (rt *stageRuntime) invocation(phase float64, index int, reversed bool, dir renderer.Direction, final bool) effects.Invocation {
	return effects.Invocation{
		Stage:       &rt.stage,
		Timeline:    rt.timeline,
		Progress:    rt.ease(phase),
		RepeatIndex: index,
		Direction:   dir,
		Reversed:    reversed,
		Final:       final,
	}
}

// staggered evaluates every target in its own window, offset by the target
// delay. Targets that have not started hold phase 0; finished targets hold
// their closing value. A final evaluation moves every target to the done
// side of its window.
func (rt *stageRuntime) staggered(local time.Duration, dir renderer.Direction, final bool) effects.Invocation {
	width := rt.interval.End - rt.interval.ActiveStart
	pass := rt.pass()

	targets := make([]effects.TargetProgress, len(rt.targets))
	maxIndex := 0
	for i, name := range rt.targets {
		own := local - rt.delays[i]

		var phase float64
		var index int
		switch {
		case final && dir == renderer.Reverse:
		case final:
			phase, index, _ = rt.closing(own)
		case own < 0:
		case !rt.stage.Looping() && own >= pass:
			phase, index, _ = rt.closing(own)
		default:
			phase, index, _ = rt.sample(own)
		}
		if index > maxIndex {
			maxIndex = index
		}
		targets[i] = effects.TargetProgress{
			Index:    i,
			Target:   name,
			Progress: rt.ease(phase),
			Final:    final,
		}
	}

	overall := 1.0
	if width > 0 {
		overall = clampUnit(float64(local) / float64(width))
	}
	if final && dir == renderer.Reverse {
		overall = 0
	}
	rt.state.Progress, rt.state.RepeatIndex, rt.state.Reversed = overall, maxIndex, false

	return effects.Invocation{
		Stage:       &rt.stage,
		Timeline:    rt.timeline,
		Progress:    overall,
		Targets:     targets,
		RepeatIndex: maxIndex,
		Direction:   dir,
		Final:       final,
	}
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

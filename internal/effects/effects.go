// Package effects turns stage progress into renderer frames. Each stage kind
// has one Effect; the sequence looks it up in a Table.
package effects

import (
	"fmt"

	"github.com/ivlev/choreo/internal/renderer"
	"github.com/ivlev/choreo/internal/stage"
)

// TargetProgress is the eased progress of one stagger target.
type TargetProgress struct {
	Index    int
	Target   string
	Progress float64
	Final    bool
}

// Invocation is one application of a stage effect.
type Invocation struct {
	SequenceID string
	Stage      *stage.Stage
	// Timeline is the compiled keyframe set; nil when the stage has none.
	Timeline *renderer.Timeline

	// Progress is the eased progress of the stage as a whole.
	Progress float64
	// Targets is set for stagger stages only.
	Targets []TargetProgress

	RepeatIndex int
	Direction   renderer.Direction
	// Reversed is true on yoyo passes that run backwards.
	Reversed bool
	Final    bool
}

func (inv Invocation) frame() renderer.Frame {
	f := renderer.Frame{
		SequenceID:  inv.SequenceID,
		StageID:     inv.Stage.ID,
		Kind:        inv.Stage.Kind.String(),
		Targets:     inv.Stage.Targets,
		TargetIndex: -1,
		Progress:    inv.Progress,
		RepeatIndex: inv.RepeatIndex,
		Direction:   inv.Direction,
		Reversed:    inv.Reversed,
		Final:       inv.Final,
	}
	if inv.Timeline != nil {
		f.Properties = inv.Timeline.At(inv.Progress)
	}
	return f
}

// Effect applies one invocation to a renderer.
type Effect interface {
	Apply(inv Invocation, r renderer.Renderer) error
}

// StyleEffect interpolates the stage keyframes across all targets at once.
type StyleEffect struct{}

func (StyleEffect) Apply(inv Invocation, r renderer.Renderer) error {
	return r.Render(inv.frame())
}

// StaggerEffect renders one frame per target, each at its own progress.
type StaggerEffect struct{}

func (StaggerEffect) Apply(inv Invocation, r renderer.Renderer) error {
	base := inv.frame()
	for _, tp := range inv.Targets {
		f := base
		f.Target = tp.Target
		f.TargetIndex = tp.Index
		f.Progress = tp.Progress
		f.Final = tp.Final
		if inv.Timeline != nil {
			f.Properties = inv.Timeline.At(tp.Progress)
		}
		if err := r.Render(f); err != nil {
			return fmt.Errorf("target %d (%s): %w", tp.Index, tp.Target, err)
		}
	}
	return nil
}

// CallbackEffect calls the stage callback with the eased progress, then
// reports the frame.
type CallbackEffect struct{}

func (CallbackEffect) Apply(inv Invocation, r renderer.Renderer) error {
	if inv.Stage.Callback == nil {
		return fmt.Errorf("stage %q has no callback", inv.Stage.ID)
	}
	if err := inv.Stage.Callback(inv.Progress); err != nil {
		return err
	}
	return r.Render(inv.frame())
}

// GroupEffect only reports progress; groups exist to be depended on.
type GroupEffect struct{}

func (GroupEffect) Apply(inv Invocation, r renderer.Renderer) error {
	f := inv.frame()
	f.Properties = nil
	return r.Render(f)
}

// EventEffect dispatches the stage event once per traversal, when the stage
// completes. Active ticks are ignored.
type EventEffect struct{}

func (EventEffect) Apply(inv Invocation, r renderer.Renderer) error {
	if !inv.Final {
		return nil
	}
	f := inv.frame()
	f.Event = inv.Stage.Event
	return r.Render(f)
}

// Table maps stage kinds to effects.
type Table map[stage.Kind]Effect

// DefaultTable returns the built-in effect for every kind.
func DefaultTable() Table {
	return Table{
		stage.Style:    StyleEffect{},
		stage.Stagger:  StaggerEffect{},
		stage.Callback: CallbackEffect{},
		stage.Group:    GroupEffect{},
		stage.Event:    EventEffect{},
	}
}

// With returns a copy of t with the effect for kind replaced.
func (t Table) With(kind stage.Kind, e Effect) Table {
	out := make(Table, len(t)+1)
	for k, v := range t {
		out[k] = v
	}
	out[kind] = e
	return out
}

// Dispatch applies inv with the effect registered for its stage kind.
func (t Table) Dispatch(inv Invocation, r renderer.Renderer) error {
	e, ok := t[inv.Stage.Kind]
	if !ok {
		return fmt.Errorf("no effect registered for %s stages", inv.Stage.Kind)
	}
	return e.Apply(inv, r)
}

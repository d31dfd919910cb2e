package renderer

import (
	"sort"

	"github.com/ivlev/choreo/internal/log"
)

// Direction is the direction time flows in.
type Direction int

const (
	Forward Direction = iota
	Reverse
)

func (d Direction) String() string {
	if d == Reverse {
		return "reverse"
	}
	return "forward"
}

// Flip returns the opposite direction.
func (d Direction) Flip() Direction {
	if d == Reverse {
		return Forward
	}
	return Reverse
}

// Frame is one effect application handed to the renderer.
type Frame struct {
	SequenceID string           `yaml:"sequence"`
	StageID    string           `yaml:"stage"`
	Kind       string           `yaml:"kind"`
	Targets    []string         `yaml:"targets,omitempty"`
	Target     string           `yaml:"target,omitempty"`
	Properties map[string]Value `yaml:"properties,omitempty"`
	Event      string           `yaml:"event,omitempty"`
	// TargetIndex is -1 when the frame covers every target.
	TargetIndex int       `yaml:"targetIndex"`
	Progress    float64   `yaml:"progress"`
	RepeatIndex int       `yaml:"repeat"`
	Direction   Direction `yaml:"-"`
	Reversed    bool      `yaml:"reversed,omitempty"`
	Final       bool      `yaml:"final,omitempty"`
}

// Renderer applies frames to a surface. The scheduling core never touches
// a surface itself.
type Renderer interface {
	Render(f Frame) error
}

// RenderFunc adapts a function to Renderer.
type RenderFunc func(f Frame) error

func (fn RenderFunc) Render(f Frame) error { return fn(f) }

// Discard drops every frame.
var Discard Renderer = RenderFunc(func(Frame) error { return nil })

// Multi fans frames out to several renderers, stopping at the first error.
type Multi []Renderer

func (m Multi) Render(f Frame) error {
	for _, r := range m {
		if err := r.Render(f); err != nil {
			return err
		}
	}
	return nil
}

// Recorder keeps every frame it receives.
type Recorder struct {
	Frames []Frame
}

func (r *Recorder) Render(f Frame) error {
	r.Frames = append(r.Frames, f)
	return nil
}

// Reset drops the recorded frames.
func (r *Recorder) Reset() {
	r.Frames = r.Frames[:0]
}

// ForStage returns the frames recorded for one stage.
func (r *Recorder) ForStage(stageID string) []Frame {
	var out []Frame
	for _, f := range r.Frames {
		if f.StageID == stageID {
			out = append(out, f)
		}
	}
	return out
}

// Finals returns the frames that carried a final value, per stage.
func (r *Recorder) Finals() map[string]int {
	out := make(map[string]int)
	for _, f := range r.Frames {
		if f.Final {
			out[f.StageID]++
		}
	}
	return out
}

// Last returns the most recent frame for a stage.
func (r *Recorder) Last(stageID string) (Frame, bool) {
	for i := len(r.Frames) - 1; i >= 0; i-- {
		if r.Frames[i].StageID == stageID {
			return r.Frames[i], true
		}
	}
	return Frame{}, false
}

// LogRenderer writes frames to a logger at debug level.
type LogRenderer struct {
	Logger *log.Logger
}

func (r LogRenderer) Render(f Frame) error {
	names := make([]string, 0, len(f.Properties))
	for name := range f.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	args := []any{
		"sequence", f.SequenceID,
		"stage", f.StageID,
		"kind", f.Kind,
		"progress", f.Progress,
		"repeat", f.RepeatIndex,
		"direction", f.Direction.String(),
	}
	if f.Target != "" {
		args = append(args, "target", f.Target)
	}
	if f.Event != "" {
		args = append(args, "event", f.Event)
	}
	for _, name := range names {
		args = append(args, "prop."+name, f.Properties[name].String())
	}
	if f.Final {
		args = append(args, "final", true)
	}
	r.Logger.Debug("frame", args...)
	return nil
}

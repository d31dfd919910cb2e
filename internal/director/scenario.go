package director

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ivlev/choreo/internal/motion"
	"github.com/ivlev/choreo/internal/renderer"
	"github.com/ivlev/choreo/internal/stage"
	"github.com/ivlev/choreo/internal/stagger"
)

// CurrentVersion is written into new scenario files.
const CurrentVersion = "1.0"

// Scenario is a file of sequences
type Scenario struct {
	Version   string         `yaml:"version"`
	Sequences []SequenceSpec `yaml:"sequences"`
}

// SequenceSpec declares one sequence
type SequenceSpec struct {
	ID       string          `yaml:"id"`
	Autoplay bool            `yaml:"autoplay,omitempty"`
	Repeat   Repeat          `yaml:"repeat,omitempty"`
	Category motion.Category `yaml:"category,omitempty"`
	Stages   []StageSpec     `yaml:"stages"`
}

// StageSpec is the file form of a stage. Callbacks are referenced by name.
type StageSpec struct {
	ID            string              `yaml:"id"`
	Kind          stage.Kind          `yaml:"kind"`
	Targets       []string            `yaml:"targets,omitempty"`
	Selector      string              `yaml:"selector,omitempty"`
	TargetCount   int                 `yaml:"targetCount,omitempty"`
	Duration      time.Duration       `yaml:"duration"`
	Delay         time.Duration       `yaml:"delay,omitempty"`
	Easing        string              `yaml:"easing,omitempty"`
	Stagger       *stagger.Options    `yaml:"stagger,omitempty"`
	Repeat        Repeat              `yaml:"repeat,omitempty"`
	Yoyo          bool                `yaml:"yoyo,omitempty"`
	DependsOn     []string            `yaml:"dependsOn,omitempty"`
	Category      motion.Category     `yaml:"category,omitempty"`
	ReducedMotion *stage.Alternative  `yaml:"reducedMotion,omitempty"`
	Keyframes     []renderer.Keyframe `yaml:"keyframes,omitempty"`
	ColorSpace    string              `yaml:"colorSpace,omitempty"`
	Callback      string              `yaml:"callback,omitempty"`
	Event         string              `yaml:"event,omitempty"`
}

// Repeat is a repeat count that also reads "infinite".
type Repeat int

// Infinite is the file form of stage.RepeatInfinite.
const Infinite Repeat = stage.RepeatInfinite

func (r Repeat) MarshalYAML() (interface{}, error) {
	if r == Infinite {
		return "infinite", nil
	}
	return int(r), nil
}

func (r *Repeat) UnmarshalText(b []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(b)))
	if s == "infinite" || s == "forever" {
		*r = Infinite
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("repeat must be a number or \"infinite\", got %q", string(b))
	}
	*r = Repeat(n)
	return nil
}

// Rectangle represents a bounding box
type Rectangle struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	W int `yaml:"w"`
	H int `yaml:"h"`
}

// Layout is a set of placed elements that Compose turns into a sequence.
type Layout struct {
	Viewport Rectangle `yaml:"viewport"`
	Elements []Element `yaml:"elements"`
}

// Element is one placed element of a layout
type Element struct {
	ID   string    `yaml:"id"`
	Rect Rectangle `yaml:"rect"`
}

// Package stage defines the declarative unit of animation: a tagged variant
// over the stage kinds plus the scheduling fields shared by all of them.
package stage

import (
	"fmt"
	"strings"
	"time"

	"github.com/ivlev/choreo/internal/easing"
	"github.com/ivlev/choreo/internal/errors"
	"github.com/ivlev/choreo/internal/motion"
	"github.com/ivlev/choreo/internal/renderer"
	"github.com/ivlev/choreo/internal/stagger"
)

// Kind discriminates how a stage turns progress into an effect.
type Kind int

const (
	Style Kind = iota
	Stagger
	Callback
	Group
	Event
)

var kindNames = map[Kind]string{
	Style:    "style",
	Stagger:  "stagger",
	Callback: "callback",
	Group:    "group",
	Event:    "event",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return Style, fmt.Errorf("unknown stage kind %q", s)
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// RepeatInfinite loops a stage until the end of the timeline.
const RepeatInfinite = -1

// Alternative overrides stage fields when motion is restricted for the
// stage category. Nil fields keep the stage value.
type Alternative struct {
	Duration     *time.Duration `yaml:"duration,omitempty"`
	Delay        *time.Duration `yaml:"delay,omitempty"`
	StaggerDelay *time.Duration `yaml:"staggerDelay,omitempty"`
	Repeat       *int           `yaml:"repeat,omitempty"`
	Yoyo         *bool          `yaml:"yoyo,omitempty"`
	Easing       *string        `yaml:"easing,omitempty"`
}

// Instant is the alternative used when a restricted stage declares none:
// the final value is applied without motion.
func Instant() *Alternative {
	zero := time.Duration(0)
	once := 1
	return &Alternative{
		Duration:     &zero,
		Delay:        &zero,
		StaggerDelay: &zero,
		Repeat:       &once,
	}
}

// Stage is the atomic unit of animation.
type Stage struct {
	ID       string
	Kind     Kind
	Targets  []string
	Selector string
	// TargetCount overrides len(Targets) when targets are resolved elsewhere.
	TargetCount int

	Duration time.Duration
	Delay    time.Duration
	Easing   string
	Stagger  stagger.Options

	Repeat int
	Yoyo   bool

	DependsOn     []string
	ReducedMotion *Alternative
	Category      motion.Category

	Keyframes  []renderer.Keyframe
	ColorSpace renderer.ColorSpace

	Callback     func(progress float64) error
	CallbackName string
	Event        string
}

// Count is the number of targets the stage animates.
func (s *Stage) Count() int {
	if s.TargetCount > 0 {
		return s.TargetCount
	}
	return len(s.Targets)
}

// Iterations is the number of passes; 0 and 1 both mean one pass.
// Looping stages report 1.
func (s *Stage) Iterations() int {
	if s.Repeat <= 1 {
		return 1
	}
	return s.Repeat
}

// Looping reports whether the stage repeats until the timeline ends.
func (s *Stage) Looping() bool {
	return s.Repeat == RepeatInfinite
}

// StaggerSpan is the extra window the per-target delays need.
func (s *Stage) StaggerSpan() time.Duration {
	if s.Kind != Stagger {
		return 0
	}
	return stagger.Span(s.Count(), s.Stagger)
}

// Span is the animated part of the stage window, excluding the delay.
func (s *Stage) Span() time.Duration {
	return s.Duration*time.Duration(s.Iterations()) + s.StaggerSpan()
}

// EffectiveDuration is the width of the stage window on the timeline.
func (s *Stage) EffectiveDuration() time.Duration {
	return s.Delay + s.Span()
}

// WithAlternative returns a copy with alt applied.
func (s Stage) WithAlternative(alt *Alternative) Stage {
	if alt == nil {
		return s
	}
	if alt.Duration != nil {
		s.Duration = *alt.Duration
	}
	if alt.Delay != nil {
		s.Delay = *alt.Delay
	}
	if alt.StaggerDelay != nil {
		s.Stagger.Delay = *alt.StaggerDelay
	}
	if alt.Repeat != nil {
		s.Repeat = *alt.Repeat
	}
	if alt.Yoyo != nil {
		s.Yoyo = *alt.Yoyo
	}
	if alt.Easing != nil {
		s.Easing = *alt.Easing
	}
	return s
}

// Validate checks the fields of a single stage. Set-level checks
// (duplicates, dangling dependencies, cycles) belong to the resolver.
func (s *Stage) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return errors.NewInvalidStageError("", "stage id is required")
	}
	if _, ok := kindNames[s.Kind]; !ok {
		return errors.NewInvalidStageError(s.ID, fmt.Sprintf("unknown kind %d", int(s.Kind)))
	}
	if s.Duration < 0 {
		return errors.NewInvalidStageError(s.ID, fmt.Sprintf("duration must not be negative, got %s", s.Duration))
	}
	if s.Delay < 0 {
		return errors.NewInvalidStageError(s.ID, fmt.Sprintf("delay must not be negative, got %s", s.Delay))
	}
	if s.Stagger.Delay < 0 {
		return errors.NewInvalidStageError(s.ID, fmt.Sprintf("stagger delay must not be negative, got %s", s.Stagger.Delay))
	}
	if s.Stagger.MaxDelay < 0 {
		return errors.NewInvalidStageError(s.ID, fmt.Sprintf("max stagger delay must not be negative, got %s", s.Stagger.MaxDelay))
	}
	if s.Repeat < RepeatInfinite {
		return errors.NewInvalidStageError(s.ID, fmt.Sprintf("repeat must be >= -1, got %d", s.Repeat))
	}
	if s.TargetCount < 0 {
		return errors.NewInvalidStageError(s.ID, "target count must not be negative")
	}
	if !easing.Valid(s.Easing) {
		return errors.Wrap(errors.ErrCodeInvalidStage, fmt.Sprintf("invalid stage %q", s.ID), errors.NewUnknownEasingError(s.Easing)).
			WithStages(s.ID)
	}
	if s.Kind == Stagger && s.Stagger.Easing != "" && !easing.Valid(s.Stagger.Easing) {
		return errors.Wrap(errors.ErrCodeInvalidStage, fmt.Sprintf("invalid stage %q stagger", s.ID), errors.NewUnknownEasingError(s.Stagger.Easing)).
			WithStages(s.ID)
	}
	if err := renderer.ValidateKeyframes(s.Keyframes); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidStage, fmt.Sprintf("invalid stage %q keyframes", s.ID), err).
			WithStages(s.ID)
	}
	switch s.Kind {
	case Callback:
		if s.Callback == nil {
			return errors.NewInvalidStageError(s.ID, "callback stage has no callback")
		}
	case Event:
		if strings.TrimSpace(s.Event) == "" {
			return errors.NewInvalidStageError(s.ID, "event stage has no event name")
		}
	}
	if s.Looping() && s.Duration == 0 {
		return errors.NewInvalidStageError(s.ID, "an infinitely repeating stage needs a positive duration")
	}
	for _, dep := range s.DependsOn {
		if strings.TrimSpace(dep) == "" {
			return errors.NewInvalidStageError(s.ID, "empty dependency id")
		}
	}
	return nil
}

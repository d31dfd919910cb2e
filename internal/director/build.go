package director

import (
	"fmt"

	"github.com/ivlev/choreo/internal/effects"
	"github.com/ivlev/choreo/internal/engine"
	"github.com/ivlev/choreo/internal/errors"
	"github.com/ivlev/choreo/internal/renderer"
	"github.com/ivlev/choreo/internal/stage"
)

// Configs turns every sequence of the scenario into an engine config.
// Callback stages resolve their function through callbacks, which may be nil
// when the scenario has none.
func (s *Scenario) Configs(callbacks *effects.Callbacks) ([]engine.Config, error) {
	seen := make(map[string]bool, len(s.Sequences))
	configs := make([]engine.Config, 0, len(s.Sequences))
	for i, seq := range s.Sequences {
		if seq.ID == "" {
			return nil, errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("sequence #%d has no id", i+1))
		}
		if seen[seq.ID] {
			return nil, errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("duplicate sequence id %q", seq.ID))
		}
		seen[seq.ID] = true

		cfg, err := seq.Config(callbacks)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

// Sequence looks a sequence up by id.
func (s *Scenario) Sequence(id string) (SequenceSpec, bool) {
	for _, seq := range s.Sequences {
		if seq.ID == id {
			return seq, true
		}
	}
	return SequenceSpec{}, false
}

// Config converts the sequence into an engine config. Hooks are left for
// the caller to set.
func (q SequenceSpec) Config(callbacks *effects.Callbacks) (engine.Config, error) {
	stages := make([]stage.Stage, 0, len(q.Stages))
	for _, spec := range q.Stages {
		st, err := spec.Stage(callbacks)
		if err != nil {
			return engine.Config{}, err
		}
		stages = append(stages, st)
	}
	return engine.Config{
		ID:       q.ID,
		Stages:   stages,
		Autoplay: q.Autoplay,
		Repeat:   int(q.Repeat),
		Category: q.Category,
	}, nil
}

// Stage converts the file form into a stage.
func (p StageSpec) Stage(callbacks *effects.Callbacks) (stage.Stage, error) {
	space, err := renderer.ParseColorSpace(p.ColorSpace)
	if err != nil {
		return stage.Stage{}, errors.NewInvalidStageError(p.ID, err.Error())
	}

	st := stage.Stage{
		ID:            p.ID,
		Kind:          p.Kind,
		Targets:       p.Targets,
		Selector:      p.Selector,
		TargetCount:   p.TargetCount,
		Duration:      p.Duration,
		Delay:         p.Delay,
		Easing:        p.Easing,
		Repeat:        int(p.Repeat),
		Yoyo:          p.Yoyo,
		DependsOn:     p.DependsOn,
		ReducedMotion: p.ReducedMotion,
		Category:      p.Category,
		Keyframes:     p.Keyframes,
		ColorSpace:    space,
		CallbackName:  p.Callback,
		Event:         p.Event,
	}
	if p.Stagger != nil {
		st.Stagger = *p.Stagger
	}

	if p.Callback != "" {
		if callbacks == nil {
			return stage.Stage{}, errors.NewInvalidStageError(p.ID, fmt.Sprintf("callback %q is not registered", p.Callback))
		}
		fn, err := callbacks.Lookup(p.Callback)
		if err != nil {
			return stage.Stage{}, errors.NewInvalidStageError(p.ID, err.Error()).
				WithSuggestion(fmt.Sprintf("registered callbacks: %v", callbacks.Names()))
		}
		st.Callback = fn
	}
	return st, nil
}

// Package engine drives resolved stage schedules over time: the sequence
// state machine, per-stage runtimes and reduced-motion re-resolution.
package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ivlev/choreo/internal/clock"
	"github.com/ivlev/choreo/internal/effects"
	"github.com/ivlev/choreo/internal/errors"
	"github.com/ivlev/choreo/internal/log"
	"github.com/ivlev/choreo/internal/motion"
	"github.com/ivlev/choreo/internal/renderer"
	"github.com/ivlev/choreo/internal/schedule"
	"github.com/ivlev/choreo/internal/stage"
)

// PlaybackState is the state of a sequence.
type PlaybackState int

const (
	Idle PlaybackState = iota
	Playing
	Paused
	Stopped
)

func (s PlaybackState) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Stopped:
		return "stopped"
	default:
		return "idle"
	}
}

// RepeatInfinite repeats a sequence until it is stopped.
const RepeatInfinite = stage.RepeatInfinite

// Config declares a sequence.
type Config struct {
	ID     string
	Stages []stage.Stage
	// Autoplay starts playback from New.
	Autoplay bool
	// Repeat is the number of passes over the timeline; 0 and 1 both mean
	// one pass and RepeatInfinite loops.
	Repeat int
	// Category applies to stages that do not declare one.
	Category motion.Category

	OnStart       func()
	OnComplete    func()
	OnRepeat      func(pass int)
	OnEffectError func(err error)
}

// TargetResolver expands a stage selector into target names.
type TargetResolver func(selector string) []string

// Option configures a Sequence.
type Option func(*Sequence)

// WithRenderer sets the renderer every effect is applied to.
func WithRenderer(r renderer.Renderer) Option {
	return func(s *Sequence) { s.renderer = r }
}

// WithPolicy sets the reduced-motion policy.
func WithPolicy(p motion.Policy) Option {
	return func(s *Sequence) { s.policy = p }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Sequence) { s.logger = l }
}

// WithTargetResolver resolves selectors of stages that list no targets.
func WithTargetResolver(fn TargetResolver) Option {
	return func(s *Sequence) { s.resolveTargets = fn }
}

// WithEffects replaces the effect table.
func WithEffects(t effects.Table) Option {
	return func(s *Sequence) { s.effects = t }
}

// Sequence is a playable timeline. It is driven by Tick and owned by a single
// goroutine; control methods may be called from inside effects.
type Sequence struct {
	id         string
	instanceID string
	cfg        Config
	stages     []stage.Stage

	renderer       renderer.Renderer
	policy         motion.Policy
	logger         *log.Logger
	effects        effects.Table
	resolveTargets TargetResolver

	sched       *schedule.Schedule
	runtimes    map[string]*stageRuntime
	fingerprint string

	state     PlaybackState
	direction renderer.Direction
	rate      float64
	elapsed   time.Duration
	pass      int

	evaluating bool
	dirty      bool
	disposed   bool
	// generation changes on every Stop; an evaluation pass started before
	// it is abandoned
	generation uint64
}

// New resolves the configured stages and returns a sequence in the Idle
// state, or Playing when Autoplay is set. Cycles and invalid stages are
// reported here and nowhere else.
func New(cfg Config, opts ...Option) (*Sequence, error) {
	s := &Sequence{
		id:         cfg.ID,
		instanceID: uuid.NewString(),
		cfg:        cfg,
		renderer:   renderer.Discard,
		policy:     motion.AllowAll,
		effects:    effects.DefaultTable(),
		rate:       1,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.id == "" {
		s.id = s.instanceID
	}
	if s.logger == nil {
		s.logger = log.DefaultLogger()
	}
	s.logger = s.logger.With("sequence", s.id)

	s.stages = make([]stage.Stage, len(cfg.Stages))
	for i, st := range cfg.Stages {
		if len(st.Targets) == 0 && st.Selector != "" && s.resolveTargets != nil {
			st.Targets = s.resolveTargets(st.Selector)
		}
		s.stages[i] = st
	}

	if err := s.resolve(s.effectiveStages()); err != nil {
		return nil, err
	}
	s.logger.Debug("sequence created",
		"instance", s.instanceID,
		"stages", len(s.stages),
		"total", s.sched.Total,
	)

	if cfg.Autoplay {
		s.Play()
	}
	return s, nil
}

// effectiveStages applies the policy to the authored stages.
func (s *Sequence) effectiveStages() ([]stage.Stage, string) {
	var fp strings.Builder
	out := make([]stage.Stage, len(s.stages))
	for i, st := range s.stages {
		cat := st.Category
		if cat == "" {
			cat = s.cfg.Category
		}
		cat = motion.Normalize(cat)

		allowed := s.policy.IsAllowed(cat)
		if !allowed {
			alt := st.ReducedMotion
			if alt == nil {
				alt = stage.Instant()
			}
			st = st.WithAlternative(alt)
		}
		st.Duration = s.policy.OverrideDuration(cat, st.Duration)
		if st.Looping() && st.Duration <= 0 {
			st.Repeat = 1
		}
		if st.Duration < 0 {
			st.Duration = 0
		}
		out[i] = st

		fp.WriteString(st.ID)
		fp.WriteByte(':')
		fp.WriteString(strconv.FormatBool(allowed))
		fp.WriteByte(':')
		fp.WriteString(strconv.FormatInt(int64(st.Duration), 10))
		fp.WriteByte(';')
	}
	return out, fp.String()
}

// resolve rebuilds the schedule and runtimes from the current policy. Runtime
// traversal state survives, so stages already completed do not fire again.
func (s *Sequence) resolve(stages []stage.Stage, fp string) error {
	sched, err := schedule.Resolve(stages)
	if err != nil {
		return err
	}

	runtimes := make(map[string]*stageRuntime, len(stages))
	for _, st := range stages {
		rt, err := newStageRuntime(st, sched.Intervals[st.ID])
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidStage, fmt.Sprintf("invalid stage %q", st.ID), err).
				WithStages(st.ID)
		}
		if prev, ok := s.runtimes[st.ID]; ok {
			rt.adopt(prev)
		}
		runtimes[st.ID] = rt
	}

	s.sched = sched
	s.runtimes = runtimes
	s.fingerprint = fp
	return nil
}

// checkPolicy re-resolves when the policy decisions changed, keeping the
// relative progress.
func (s *Sequence) checkPolicy() (bool, error) {
	stages, fp := s.effectiveStages()
	if fp == s.fingerprint {
		return false, nil
	}

	progress := s.Progress()
	oldTotal := s.sched.Total
	if err := s.resolve(stages, fp); err != nil {
		s.fingerprint = fp
		s.logger.WithError(err).Error("re-resolution failed, keeping previous schedule")
		return false, err
	}
	s.elapsed = time.Duration(math.Round(progress * float64(s.sched.Total)))
	s.logger.Info("schedule re-resolved",
		"old_total", oldTotal,
		"new_total", s.sched.Total,
		"progress", progress,
	)
	return true, nil
}

// Refresh re-reads the policy immediately instead of waiting for the next
// tick. A paused sequence is re-evaluated at its new position.
func (s *Sequence) Refresh() error {
	if s.disposed {
		return errors.New(errors.ErrCodeDisposed, "sequence is disposed")
	}
	changed, err := s.checkPolicy()
	if err != nil {
		return err
	}
	if changed && s.state == Paused {
		s.evaluate()
	}
	return nil
}

func (s *Sequence) setState(next PlaybackState) {
	if s.state == next {
		return
	}
	s.logger.Debug("playback state changed", "from", s.state.String(), "to", next.String())
	s.state = next
}

func (s *Sequence) boundary() time.Duration {
	if s.direction == renderer.Reverse {
		return s.sched.Total
	}
	return 0
}

// Play starts or resumes playback. From Idle or Stopped the elapsed time
// resets to the start of the current direction.
func (s *Sequence) Play() {
	if s.disposed || s.state == Playing {
		return
	}
	prev := s.state
	if prev == Idle || prev == Stopped {
		s.elapsed = s.boundary()
		s.pass = 0
		for _, rt := range s.runtimes {
			rt.reset()
		}
	}
	s.setState(Playing)
	if prev == Idle && s.cfg.OnStart != nil {
		s.cfg.OnStart()
	}
}

// Pause freezes playback.
func (s *Sequence) Pause() {
	if s.disposed || s.state != Playing {
		return
	}
	s.setState(Paused)
}

// Stop rewinds to zero and resets every stage to pending.
func (s *Sequence) Stop() {
	if s.disposed {
		return
	}
	s.setState(Stopped)
	s.generation++
	s.elapsed = 0
	s.pass = 0
	for _, rt := range s.runtimes {
		rt.reset()
	}
}

// Restart is Stop followed by Play.
func (s *Sequence) Restart() {
	s.Stop()
	s.Play()
}

// Reverse flips the playback direction. State and elapsed time are kept.
func (s *Sequence) Reverse() {
	if s.disposed {
		return
	}
	s.direction = s.direction.Flip()
	s.logger.Debug("direction changed", "direction", s.direction.String())
}

// SeekProgress jumps to p of the timeline, clamped to [0,1], and evaluates
// every stage at the new position. The playback state is unchanged.
func (s *Sequence) SeekProgress(p float64) {
	if s.disposed {
		return
	}
	if math.IsNaN(p) {
		p = 0
	}
	p = clampUnit(p)
	s.elapsed = time.Duration(math.Round(p * float64(s.sched.Total)))
	s.evaluate()
}

// SetPlaybackRate scales subsequent tick deltas.
func (s *Sequence) SetPlaybackRate(rate float64) error {
	if s.disposed {
		return errors.New(errors.ErrCodeDisposed, "sequence is disposed")
	}
	if !(rate > 0) || math.IsInf(rate, 0) {
		return errors.New(errors.ErrCodeInvalidRate, fmt.Sprintf("playback rate must be a positive number, got %g", rate))
	}
	s.rate = rate
	return nil
}

// Tick advances a playing sequence by the frame delta. The policy is checked
// on every tick, whatever the state.
func (s *Sequence) Tick(t clock.Tick) error {
	if s.disposed {
		return errors.New(errors.ErrCodeDisposed, "sequence is disposed")
	}
	// a failed re-resolution is logged and the previous schedule stays
	changed, _ := s.checkPolicy()
	if s.state != Playing {
		if changed && s.state == Paused {
			s.evaluate()
		}
		return nil
	}

	delta := t.Delta
	if delta < 0 {
		delta = 0
	}
	step := time.Duration(math.Round(float64(delta) * s.rate))
	if s.direction == renderer.Reverse {
		step = -step
	}

	total := s.sched.Total
	next := s.elapsed + step

	var overflow time.Duration
	switch {
	case s.direction == renderer.Forward && next >= total:
		overflow = next - total
		s.elapsed = total
	case s.direction == renderer.Reverse && next <= 0:
		overflow = -next
		s.elapsed = 0
	default:
		s.elapsed = next
		s.evaluate()
		return nil
	}

	gen := s.generation
	s.evaluate()
	if s.state != Playing || s.generation != gen {
		// an effect took control of the sequence
		return nil
	}

	if total > 0 && s.morePasses() {
		s.pass++
		overflow %= total
		for _, rt := range s.runtimes {
			rt.reset()
		}
		if s.direction == renderer.Forward {
			s.elapsed = overflow
		} else {
			s.elapsed = total - overflow
		}
		s.logger.Debug("sequence repeat", "pass", s.pass)
		if s.cfg.OnRepeat != nil {
			s.cfg.OnRepeat(s.pass)
		}
		s.evaluate()
		return nil
	}

	s.setState(Stopped)
	s.logger.Debug("sequence complete", "direction", s.direction.String())
	if s.cfg.OnComplete != nil {
		s.cfg.OnComplete()
	}
	return nil
}

func (s *Sequence) morePasses() bool {
	if s.cfg.Repeat == RepeatInfinite {
		return true
	}
	return s.pass+1 < s.cfg.Repeat
}

// evaluate runs every stage at the current elapsed time, dependencies first in
// the direction of playback. Nested calls from effects are folded into one
// more round.
func (s *Sequence) evaluate() {
	if s.evaluating {
		s.dirty = true
		return
	}
	s.evaluating = true
	defer func() { s.evaluating = false }()

	gen := s.generation
	for rounds := 0; rounds < 8; rounds++ {
		s.dirty = false
		order := s.sched.Order
		reverse := s.direction == renderer.Reverse
		for i := range order {
			id := order[i]
			if reverse {
				id = order[len(order)-1-i]
			}
			rt, ok := s.runtimes[id]
			if !ok {
				continue
			}
			inv, fire := rt.evaluate(s.elapsed, s.direction)
			if fire {
				s.apply(inv)
			}
			if s.disposed || s.generation != gen {
				return
			}
		}
		if !s.dirty {
			return
		}
	}
}

// apply dispatches one invocation; errors and panics are contained to the
// stage.
func (s *Sequence) apply(inv effects.Invocation) {
	inv.SequenceID = s.id
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return s.effects.Dispatch(inv, s.renderer)
	}()
	if err == nil {
		return
	}

	wrapped := errors.NewEffectInvocationError(inv.Stage.ID, err)
	s.logger.WithError(wrapped).Warn("stage effect failed",
		"stage", inv.Stage.ID,
		"elapsed", s.elapsed,
	)
	if s.cfg.OnEffectError != nil {
		s.cfg.OnEffectError(wrapped)
	}
}

// Dispose stops the sequence for good. Later calls are ignored or fail with
// a disposed error.
func (s *Sequence) Dispose() {
	if s.disposed {
		return
	}
	s.setState(Stopped)
	s.disposed = true
	s.logger.Debug("sequence disposed")
}

func (s *Sequence) ID() string         { return s.id }
func (s *Sequence) InstanceID() string { return s.instanceID }

// Progress is elapsed over total duration; an empty timeline reports 0.
func (s *Sequence) Progress() float64 {
	if s.sched.Total <= 0 {
		return 0
	}
	return clampUnit(float64(s.elapsed) / float64(s.sched.Total))
}

// Duration is the total duration of the current schedule.
func (s *Sequence) Duration() time.Duration { return s.sched.Total }

func (s *Sequence) PlaybackState() PlaybackState  { return s.state }
func (s *Sequence) Direction() renderer.Direction { return s.direction }
func (s *Sequence) Elapsed() time.Duration        { return s.elapsed }
func (s *Sequence) Rate() float64                 { return s.rate }
func (s *Sequence) Pass() int                     { return s.pass }
func (s *Sequence) Disposed() bool                { return s.disposed }

// Schedule returns the current resolved schedule.
func (s *Sequence) Schedule() *schedule.Schedule { return s.sched }

// StageStates returns the runtime state of every stage in topological order.
func (s *Sequence) StageStates() []StageState {
	out := make([]StageState, 0, len(s.sched.Order))
	for _, id := range s.sched.Order {
		out = append(out, s.runtimes[id].state)
	}
	return out
}

// StageState returns the runtime state of one stage.
func (s *Sequence) StageState(id string) (StageState, bool) {
	rt, ok := s.runtimes[id]
	if !ok {
		return StageState{}, false
	}
	return rt.state, true
}

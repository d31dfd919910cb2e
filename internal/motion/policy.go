// Package motion supplies the reduced-motion decisions a sequence folds into
// its schedule: whether a category may animate and how long it may take.
package motion

import (
	"math"
	"strings"
	"sync"
	"time"
)

// Category classifies stages by motion sensitivity.
type Category string

const (
	// Essential motion conveys state and survives reduced motion.
	Essential Category = "essential"
	// Decorative motion is the default category.
	Decorative Category = "decorative"
	Transition Category = "transition"
	Parallax   Category = "parallax"
)

// Normalize lowercases c and maps the empty category to Decorative.
func Normalize(c Category) Category {
	n := Category(strings.ToLower(strings.TrimSpace(string(c))))
	if n == "" {
		return Decorative
	}
	return n
}

// Policy is consulted per stage whenever a sequence resolves its schedule.
type Policy interface {
	IsAllowed(c Category) bool
	OverrideDuration(c Category, d time.Duration) time.Duration
}

type allowAll struct{}

func (allowAll) IsAllowed(Category) bool { return true }
func (allowAll) OverrideDuration(_ Category, d time.Duration) time.Duration { return d }

// AllowAll lets every category animate at its authored duration.
var AllowAll Policy = allowAll{}

// Settings is the serializable form of a policy.
type Settings struct {
	ReduceMotion       bool               `mapstructure:"reduce_motion" yaml:"reduce_motion"`
	DisabledCategories []string           `mapstructure:"disabled_categories" yaml:"disabled_categories,omitempty"`
	DurationScale      float64            `mapstructure:"duration_scale" yaml:"duration_scale"`
	CategoryScale      map[string]float64 `mapstructure:"category_scale" yaml:"category_scale,omitempty"`
}

// Preferences is a policy that can be changed while sequences consult it.
// Reduced motion disables every category except Essential; explicitly
// disabled categories are never allowed.
type Preferences struct {
	mu            sync.RWMutex
	reduced       bool
	disabled      map[Category]bool
	scale         float64
	categoryScale map[Category]float64
}

// NewPreferences returns preferences that allow everything.
func NewPreferences() *Preferences {
	return &Preferences{
		disabled:      make(map[Category]bool),
		scale:         1,
		categoryScale: make(map[Category]float64),
	}
}

func (p *Preferences) SetReduced(reduced bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reduced = reduced
}

func (p *Preferences) Reduced() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.reduced
}

// Disable turns off a category regardless of the reduced flag.
func (p *Preferences) Disable(c Category) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disabled[Normalize(c)] = true
}

func (p *Preferences) Enable(c Category) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.disabled, Normalize(c))
}

// SetDurationScale multiplies every duration. Non-positive scales reset to 1.
func (p *Preferences) SetDurationScale(scale float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scale = positiveOr(scale, 1)
}

// SetCategoryScale multiplies durations of one category on top of the global
// scale. A non-positive scale removes the override.
func (p *Preferences) SetCategoryScale(c Category, scale float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if scale <= 0 {
		delete(p.categoryScale, Normalize(c))
		return
	}
	p.categoryScale[Normalize(c)] = scale
}

// Apply replaces the whole state with s.
func (p *Preferences) Apply(s Settings) {
	disabled := make(map[Category]bool, len(s.DisabledCategories))
	for _, c := range s.DisabledCategories {
		disabled[Normalize(Category(c))] = true
	}
	scales := make(map[Category]float64, len(s.CategoryScale))
	for c, f := range s.CategoryScale {
		if f > 0 {
			scales[Normalize(Category(c))] = f
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.reduced = s.ReduceMotion
	p.disabled = disabled
	p.scale = positiveOr(s.DurationScale, 1)
	p.categoryScale = scales
}

// Settings returns a snapshot of the current state.
func (p *Preferences) Settings() Settings {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s := Settings{
		ReduceMotion:  p.reduced,
		DurationScale: p.scale,
	}
	for c := range p.disabled {
		s.DisabledCategories = append(s.DisabledCategories, string(c))
	}
	if len(p.categoryScale) > 0 {
		s.CategoryScale = make(map[string]float64, len(p.categoryScale))
		for c, f := range p.categoryScale {
			s.CategoryScale[string(c)] = f
		}
	}
	return s
}

func (p *Preferences) IsAllowed(c Category) bool {
	c = Normalize(c)
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.disabled[c] {
		return false
	}
	return !p.reduced || c == Essential
}

func (p *Preferences) OverrideDuration(c Category, d time.Duration) time.Duration {
	c = Normalize(c)
	p.mu.RLock()
	factor := p.scale
	if f, ok := p.categoryScale[c]; ok {
		factor *= f
	}
	p.mu.RUnlock()

	if factor == 1 || d <= 0 {
		return d
	}
	return time.Duration(math.Round(float64(d) * factor))
}

func positiveOr(v, fallback float64) float64 {
	if v > 0 {
		return v
	}
	return fallback
}

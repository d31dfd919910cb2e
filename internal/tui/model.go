// Package tui is the interactive terminal preview of running sequences.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ivlev/choreo/internal/clock"
	"github.com/ivlev/choreo/internal/engine"
	"github.com/ivlev/choreo/internal/motion"
)

const (
	seekStep = 0.05
	rateStep = 1.25
	minRate  = 0.05
	maxRate  = 16
)

// FrameMsg is one frame of the preview clock.
type FrameMsg time.Time

// Model represents the preview state
type Model struct {
	sequences []*engine.Sequence
	board     *Board
	// prefs is nil when the policy is a watched file; the m key is disabled.
	prefs    *motion.Preferences
	interval time.Duration

	mono    clock.Monotonic
	started time.Time

	selected  int
	width     int
	quitting  bool
	lastError string

	bar    progress.Model
	styles Styles
}

// Styles contains lipgloss styles for the preview
type Styles struct {
	Title    lipgloss.Style
	Selected lipgloss.Style
	Muted    lipgloss.Style
	Status   lipgloss.Style
	Error    lipgloss.Style
	Event    lipgloss.Style
	Key      lipgloss.Style
	KeyDesc  lipgloss.Style
	Border   lipgloss.Style
}

// DefaultStyles returns the default lipgloss styles
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")). // Purple
			MarginBottom(1),
		Selected: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("63")).
			Padding(0, 1),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")), // Gray
		Status: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")), // Cyan
		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")), // Red
		Event: lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")), // Yellow
		Key: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")),
		KeyDesc: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1),
	}
}

// NewModel creates a preview of seqs. The sequences must render into board.
func NewModel(seqs []*engine.Sequence, board *Board, prefs *motion.Preferences, fps int) Model {
	if fps <= 0 {
		fps = clock.DefaultFPS
	}
	return Model{
		sequences: seqs,
		board:     board,
		prefs:     prefs,
		interval:  time.Second / time.Duration(fps),
		width:     80,
		bar:       progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		styles:    DefaultStyles(),
	}
}

func (m Model) frame() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return FrameMsg(t) })
}

// Init starts the frame clock
func (m Model) Init() tea.Cmd {
	return m.frame()
}

// Update handles messages and updates the model state
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = clampInt(msg.Width-30, 10, 60)
		return m, nil

	case FrameMsg:
		m.advance(time.Time(msg))
		return m, m.frame()

	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}
	return m, nil
}

// advance ticks every sequence to now.
func (m *Model) advance(now time.Time) {
	if m.started.IsZero() {
		m.started = now
	}
	tick := m.mono.Advance(now.Sub(m.started))
	for _, seq := range m.sequences {
		if err := seq.Tick(tick); err != nil {
			m.lastError = err.Error()
		}
	}
}

func (m Model) current() *engine.Sequence {
	if len(m.sequences) == 0 {
		return nil
	}
	return m.sequences[m.selected]
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.Quit) {
		m.quitting = true
		return m, tea.Quit
	}

	switch {
	case key.Matches(msg, keys.Next):
		if len(m.sequences) > 0 {
			m.selected = (m.selected + 1) % len(m.sequences)
		}
		return m, nil
	case key.Matches(msg, keys.Previous):
		if len(m.sequences) > 0 {
			m.selected = (m.selected + len(m.sequences) - 1) % len(m.sequences)
		}
		return m, nil
	case key.Matches(msg, keys.Motion):
		m.toggleReducedMotion()
		return m, nil
	}

	seq := m.current()
	if seq == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Toggle):
		if seq.PlaybackState() == engine.Playing {
			seq.Pause()
		} else {
			seq.Play()
		}
	case key.Matches(msg, keys.Reverse):
		seq.Reverse()
	case key.Matches(msg, keys.Stop):
		seq.Stop()
	case key.Matches(msg, keys.Restart):
		seq.Restart()
	case key.Matches(msg, keys.Back):
		seq.SeekProgress(seq.Progress() - seekStep)
	case key.Matches(msg, keys.Forward):
		seq.SeekProgress(seq.Progress() + seekStep)
	case key.Matches(msg, keys.Faster):
		m.setRate(seq, seq.Rate()*rateStep)
	case key.Matches(msg, keys.Slower):
		m.setRate(seq, seq.Rate()/rateStep)
	}
	return m, nil
}

func (m *Model) setRate(seq *engine.Sequence, rate float64) {
	if rate < minRate {
		rate = minRate
	}
	if rate > maxRate {
		rate = maxRate
	}
	if err := seq.SetPlaybackRate(rate); err != nil {
		m.lastError = err.Error()
	}
}

// toggleReducedMotion flips the preference and re-resolves paused
// sequences right away; playing ones pick it up on their next tick.
func (m *Model) toggleReducedMotion() {
	if m.prefs == nil {
		return
	}
	m.prefs.SetReduced(!m.prefs.Reduced())
	for _, seq := range m.sequences {
		if err := seq.Refresh(); err != nil {
			m.lastError = err.Error()
		}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

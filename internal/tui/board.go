package tui

import (
	"fmt"

	"github.com/ivlev/choreo/internal/renderer"
)

const maxEvents = 6

// Board is the renderer behind the preview. It keeps the latest frame of
// every stage and a short log of raised events. It is only touched from the
// program's update loop.
type Board struct {
	frames map[string]map[string]renderer.Frame
	events []string
}

// NewBoard returns an empty board.
func NewBoard() *Board {
	return &Board{frames: make(map[string]map[string]renderer.Frame)}
}

// Render implements renderer.Renderer
func (b *Board) Render(f renderer.Frame) error {
	stages, ok := b.frames[f.SequenceID]
	if !ok {
		stages = make(map[string]renderer.Frame)
		b.frames[f.SequenceID] = stages
	}
	stages[f.StageID] = f

	if f.Event != "" {
		b.events = append(b.events, fmt.Sprintf("%s: %s (%s)", f.SequenceID, f.Event, f.Direction))
		if len(b.events) > maxEvents {
			b.events = b.events[len(b.events)-maxEvents:]
		}
	}
	return nil
}

// Latest returns the last frame rendered for a stage.
func (b *Board) Latest(sequenceID, stageID string) (renderer.Frame, bool) {
	f, ok := b.frames[sequenceID][stageID]
	return f, ok
}

// Events returns the most recent events, oldest first.
func (b *Board) Events() []string {
	return b.events
}

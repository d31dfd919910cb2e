package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ivlev/choreo/internal/engine"
	"github.com/ivlev/choreo/internal/renderer"
)

// View renders the preview (required by Bubble Tea)
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.styles.Title.Render("choreo preview"))
	b.WriteString("\n")

	if m.prefs != nil {
		mode := "full motion"
		if m.prefs.Reduced() {
			mode = "reduced motion"
		}
		b.WriteString(m.styles.Muted.Render(mode))
		b.WriteString("\n\n")
	}

	if len(m.sequences) == 0 {
		b.WriteString(m.styles.Muted.Render("no sequences"))
		b.WriteString("\n")
	}
	for i, seq := range m.sequences {
		b.WriteString(m.renderSequence(seq, i == m.selected))
		b.WriteString("\n")
	}

	if seq := m.current(); seq != nil {
		b.WriteString(m.styles.Border.Render(m.renderStages(seq)))
		b.WriteString("\n")
	}

	if events := m.board.Events(); len(events) > 0 {
		b.WriteString("\n")
		for _, ev := range events {
			b.WriteString(m.styles.Event.Render("» " + ev))
			b.WriteString("\n")
		}
	}

	if m.lastError != "" {
		b.WriteString("\n")
		b.WriteString(m.styles.Error.Render("error: " + m.lastError))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) renderSequence(seq *engine.Sequence, selected bool) string {
	name := seq.ID()
	if selected {
		name = m.styles.Selected.Render(name)
	} else {
		name = " " + name + " "
	}

	status := fmt.Sprintf("%-7s %s %s/%s x%.2g",
		seq.PlaybackState(),
		seq.Direction(),
		formatDuration(seq.Elapsed()),
		formatDuration(seq.Duration()),
		seq.Rate(),
	)
	if seq.Pass() > 0 {
		status += fmt.Sprintf(" pass %d", seq.Pass()+1)
	}

	return fmt.Sprintf("%s %s %s", name, m.bar.ViewAs(seq.Progress()), m.styles.Status.Render(status))
}

func (m Model) renderStages(seq *engine.Sequence) string {
	states := seq.StageStates()
	lines := make([]string, 0, len(states))
	for _, st := range states {
		line := fmt.Sprintf("%-14s %-9s %5.1f%%", st.StageID, st.Terminal, st.Progress*100)
		if st.RepeatIndex > 0 {
			line += fmt.Sprintf(" #%d", st.RepeatIndex+1)
		}
		if st.Reversed {
			line += " ↺"
		}
		if f, ok := m.board.Latest(seq.ID(), st.StageID); ok && len(f.Properties) > 0 {
			line += "  " + m.styles.Muted.Render(formatProperties(f.Properties))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderHelp() string {
	parts := make([]string, 0, len(keys.help()))
	for _, k := range keys.help() {
		h := k.Help()
		parts = append(parts, m.styles.Key.Render(h.Key)+" "+m.styles.KeyDesc.Render(h.Desc))
	}
	return strings.Join(parts, "  ")
}

func formatProperties(props map[string]renderer.Value) string {
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "=" + props[name].String()
	}
	return strings.Join(parts, " ")
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}

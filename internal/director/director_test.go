package director

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/choreo/internal/effects"
	"github.com/ivlev/choreo/internal/engine"
	"github.com/ivlev/choreo/internal/errors"
	"github.com/ivlev/choreo/internal/log"
	"github.com/ivlev/choreo/internal/motion"
	"github.com/ivlev/choreo/internal/stage"
	"github.com/ivlev/choreo/internal/stagger"
)

const ms = time.Millisecond

const heroScenario = `
version: "1.0"
sequences:
  - id: hero
    repeat: infinite
    category: decorative
    stages:
      - id: fade
        kind: style
        duration: 300ms
        easing: ease-out
        keyframes:
          - offset: 0
            properties: {opacity: 0}
          - offset: 1
            properties: {opacity: 1, color: "#ff0000"}
      - id: cards
        kind: stagger
        targets: [a, b, c]
        duration: 200ms
        stagger: {delay: 100ms, pattern: center}
        dependsOn: [fade]
        reducedMotion: {duration: 0s}
      - id: ping
        kind: callback
        callback: ping
        duration: 100ms
        dependsOn: [cards]
      - id: done
        kind: event
        event: "hero:done"
        category: essential
        dependsOn: [ping]
`

func pingCallbacks() *effects.Callbacks {
	cb := effects.NewCallbacks()
	cb.Register("ping", func(float64) error { return nil })
	return cb
}

func TestParseScenario(t *testing.T) {
	scn, err := ParseScenario([]byte(heroScenario))
	require.NoError(t, err)
	require.Len(t, scn.Sequences, 1)

	seq := scn.Sequences[0]
	assert.Equal(t, "hero", seq.ID)
	assert.Equal(t, Infinite, seq.Repeat)
	assert.Equal(t, motion.Decorative, seq.Category)
	require.Len(t, seq.Stages, 4)

	cards := seq.Stages[1]
	assert.Equal(t, stage.Stagger, cards.Kind)
	assert.Equal(t, []string{"a", "b", "c"}, cards.Targets)
	require.NotNil(t, cards.Stagger)
	assert.Equal(t, 100*ms, cards.Stagger.Delay)
	assert.Equal(t, stagger.FromCenter, cards.Stagger.Pattern)
	require.NotNil(t, cards.ReducedMotion)
	require.NotNil(t, cards.ReducedMotion.Duration)
	assert.Equal(t, time.Duration(0), *cards.ReducedMotion.Duration)

	fade := seq.Stages[0]
	require.Len(t, fade.Keyframes, 2)
	assert.Equal(t, "#ff0000", fade.Keyframes[1].Properties["color"].String())
}

func TestParseScenarioRejectsUnknownFields(t *testing.T) {
	_, err := ParseScenario([]byte("sequences:\n  - id: x\n    stagez: []\n"))
	require.Error(t, err)
}

func TestParseScenarioEmpty(t *testing.T) {
	scn, err := ParseScenario(nil)
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, scn.Version)
	assert.Empty(t, scn.Sequences)
}

func TestRepeatText(t *testing.T) {
	var r Repeat
	require.NoError(t, r.UnmarshalText([]byte("Infinite")))
	assert.Equal(t, Infinite, r)
	require.NoError(t, r.UnmarshalText([]byte("3")))
	assert.Equal(t, Repeat(3), r)
	assert.Error(t, r.UnmarshalText([]byte("often")))
}

func TestConfigsBuildRunnableSequences(t *testing.T) {
	scn, err := ParseScenario([]byte(heroScenario))
	require.NoError(t, err)

	configs, err := scn.Configs(pingCallbacks())
	require.NoError(t, err)
	require.Len(t, configs, 1)

	cfg := configs[0]
	assert.Equal(t, "hero", cfg.ID)
	assert.Equal(t, engine.RepeatInfinite, cfg.Repeat)
	require.Len(t, cfg.Stages, 4)
	assert.NotNil(t, cfg.Stages[2].Callback)
	assert.Equal(t, "ping", cfg.Stages[2].CallbackName)

	seq, err := engine.New(cfg, engine.WithLogger(log.Discard()))
	require.NoError(t, err)
	// fade 300ms, cards 200ms plus a 200ms stagger span, ping 100ms
	assert.Equal(t, 800*ms, seq.Duration())
}

func TestConfigsUnregisteredCallback(t *testing.T) {
	scn, err := ParseScenario([]byte(heroScenario))
	require.NoError(t, err)

	_, err = scn.Configs(effects.NewCallbacks())
	require.Error(t, err)
	assert.True(t, errors.IsInvalidStage(err))

	_, err = scn.Configs(nil)
	assert.True(t, errors.IsInvalidStage(err))
}

func TestConfigsRejectDuplicateSequences(t *testing.T) {
	scn := &Scenario{Sequences: []SequenceSpec{{ID: "a"}, {ID: "a"}}}
	_, err := scn.Configs(nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigInvalid, errors.CodeOf(err))

	scn = &Scenario{Sequences: []SequenceSpec{{}}}
	_, err = scn.Configs(nil)
	assert.Equal(t, errors.ErrCodeConfigInvalid, errors.CodeOf(err))
}

func TestStageRejectsUnknownColorSpace(t *testing.T) {
	_, err := StageSpec{ID: "x", ColorSpace: "cmyk"}.Stage(nil)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidStage(err))
}

func TestScenarioLookup(t *testing.T) {
	scn, err := ParseScenario([]byte(heroScenario))
	require.NoError(t, err)

	_, ok := scn.Sequence("hero")
	assert.True(t, ok)
	_, ok = scn.Sequence("missing")
	assert.False(t, ok)
}

func TestWriteReadRoundTrip(t *testing.T) {
	scn, err := ParseScenario([]byte(heroScenario))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "hero.yaml")
	require.NoError(t, WriteScenario(scn, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "repeat: infinite")
	assert.Contains(t, string(data), "kind: stagger")

	back, err := ReadScenario(path)
	require.NoError(t, err)
	require.Len(t, back.Sequences, 1)
	assert.Equal(t, Infinite, back.Sequences[0].Repeat)
	assert.Equal(t, 300*ms, back.Sequences[0].Stages[0].Duration)
	assert.Equal(t, stagger.FromCenter, back.Sequences[0].Stages[1].Stagger.Pattern)
}

func TestReadScenarioErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadScenario(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeFileNotFound, errors.CodeOf(err))

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("sequences: [\n"), 0644))
	_, err = ReadScenario(bad)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeFileUnmarshal, errors.CodeOf(err))
}

func pageLayout() []Element {
	return []Element{
		{ID: "footer", Rect: Rectangle{X: 100, Y: 500, W: 800, H: 40}},
		{ID: "right", Rect: Rectangle{X: 520, Y: 210, W: 300, H: 200}},
		{ID: "title", Rect: Rectangle{X: 100, Y: 50, W: 800, H: 60}},
		{ID: "left", Rect: Rectangle{X: 100, Y: 200, W: 300, H: 200}},
	}
}

func TestComposeReadingOrder(t *testing.T) {
	d := NewDirector(1000, 600)
	reveal, err := d.Compose("page", pageLayout(), 2*time.Second)
	require.NoError(t, err)

	var ids []string
	for _, st := range reveal.Stages {
		ids = append(ids, st.ID)
	}
	assert.Equal(t, []string{"intro", "row_1", "row_2", "row_3", "outro"}, ids)

	row1, row2, row3 := reveal.Stages[1], reveal.Stages[2], reveal.Stages[3]
	assert.Equal(t, []string{"title"}, row1.Targets)
	assert.Equal(t, stage.Style, row1.Kind)
	assert.Equal(t, []string{"left", "right"}, row2.Targets)
	assert.Equal(t, stage.Stagger, row2.Kind)
	require.NotNil(t, row2.Stagger)
	assert.Equal(t, 80*ms, row2.Stagger.Delay)
	assert.Equal(t, []string{"footer"}, row3.Targets)

	assert.Equal(t, []string{"intro"}, row1.DependsOn)
	assert.Equal(t, []string{"row_1"}, row2.DependsOn)
	outro := reveal.Stages[4]
	assert.Equal(t, stage.Event, outro.Kind)
	assert.Equal(t, "page:revealed", outro.Event)
	assert.Equal(t, []string{"row_3"}, outro.DependsOn)
}

func TestComposeDriftTowardsCenter(t *testing.T) {
	d := NewDirector(1000, 600)
	reveal, err := d.Compose("page", pageLayout(), 2*time.Second)
	require.NoError(t, err)

	// the title row is centered horizontally and sits 220px above center
	start := reveal.Stages[1].Keyframes[0].Properties["translate"]
	assert.InDelta(t, 0, start.Vector[0], 1e-9)
	assert.InDelta(t, -22, start.Vector[1], 1e-9)
	end := reveal.Stages[1].Keyframes[1].Properties["translate"]
	assert.Equal(t, 0.0, end.Vector[1])
}

func TestComposeSchedulesAsAChain(t *testing.T) {
	d := NewDirector(1000, 600)
	reveal, err := d.Compose("page", pageLayout(), 2*time.Second)
	require.NoError(t, err)

	cfg, err := reveal.Config(nil)
	require.NoError(t, err)
	seq, err := engine.New(cfg, engine.WithLogger(log.Discard()))
	require.NoError(t, err)

	dwell := 1600 * ms / 3
	assert.Equal(t, 400*ms+3*dwell+80*ms, seq.Duration())
}

func TestComposeEmpty(t *testing.T) {
	_, err := NewDirector(100, 100).Compose("x", nil, time.Second)
	assert.Error(t, err)
}

func TestCalculateDwellTimeClamps(t *testing.T) {
	d := NewDirector(100, 100)
	assert.Equal(t, d.MinDwell, d.calculateDwellTime(time.Second, 10))
	assert.Equal(t, d.MaxDwell, d.calculateDwellTime(10*time.Second, 1))
	// too short for an intro: the whole duration is shared
	assert.Equal(t, d.MinDwell, d.calculateDwellTime(200*ms, 1))
}

func TestReadLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.yaml")
	content := strings.Join([]string{
		"viewport: {x: 0, y: 0, w: 1280, h: 720}",
		"elements:",
		"  - id: title",
		"    rect: {x: 10, y: 20, w: 300, h: 40}",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	layout, err := ReadLayout(path)
	require.NoError(t, err)
	assert.Equal(t, 1280, layout.Viewport.W)
	require.Len(t, layout.Elements, 1)
	assert.Equal(t, Rectangle{X: 10, Y: 20, W: 300, H: 40}, layout.Elements[0].Rect)

	_, err = ReadLayout(filepath.Join(t.TempDir(), "none.yaml"))
	assert.Equal(t, errors.ErrCodeFileNotFound, errors.CodeOf(err))
}

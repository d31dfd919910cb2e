package renderer

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/choreo/internal/log"
)

func TestTimelineScalarInterpolation(t *testing.T) {
	keyframes := []Keyframe{
		{Offset: 0.0, Properties: map[string]Value{"opacity": Scalar(0), "x": Scalar(0)}},
		{Offset: 0.5, Properties: map[string]Value{"opacity": Scalar(1)}},
		{Offset: 1.0, Properties: map[string]Value{"x": Scalar(100)}},
	}

	tl, err := NewTimeline(keyframes, SpaceLab)
	require.NoError(t, err)
	assert.Equal(t, []string{"opacity", "x"}, tl.Properties())

	tests := []struct {
		progress    float64
		wantOpacity float64
		wantX       float64
	}{
		{0.0, 0, 0},
		{0.25, 0.5, 25},
		{0.5, 1, 50},
		{0.75, 1, 75},
		{1.0, 1, 100},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("p=%.2f", tt.progress), func(t *testing.T) {
			got := tl.At(tt.progress)
			assert.InDelta(t, tt.wantOpacity, got["opacity"].Scalar, 1e-9)
			assert.InDelta(t, tt.wantX, got["x"].Scalar, 1e-9)
		})
	}
}

func TestTimelineSegmentEasing(t *testing.T) {
	tl, err := NewTimeline([]Keyframe{
		{Offset: 0, Properties: map[string]Value{"s": Scalar(0)}, Easing: "easeInQuad"},
		{Offset: 1, Properties: map[string]Value{"s": Scalar(1)}},
	}, SpaceLab)
	require.NoError(t, err)

	assert.InDelta(t, 0.25, tl.At(0.5)["s"].Scalar, 1e-9)
}

func TestVectorAndColorMix(t *testing.T) {
	v := Mix(Vec(0, 0, 0), Vec(10, 20, 30), 0.5, SpaceLab)
	assert.Equal(t, KindVector, v.Kind)
	assert.InDelta(t, 5.0, v.Vector[0], 1e-9)
	assert.InDelta(t, 10.0, v.Vector[1], 1e-9)
	assert.InDelta(t, 15.0, v.Vector[2], 1e-9)

	black, err := Color("#000000")
	require.NoError(t, err)
	white, err := Color("#ffffff")
	require.NoError(t, err)

	for _, space := range []ColorSpace{SpaceLab, SpaceHcl, SpaceRGB} {
		assert.Equal(t, "#000000", Mix(black, white, 0, space).String())
		assert.Equal(t, "#ffffff", Mix(black, white, 1, space).String())
	}
	assert.Equal(t, "#808080", Mix(black, white, 0.5, SpaceRGB).String())
}

func TestMixMismatchedKindsSnaps(t *testing.T) {
	a, b := Scalar(1), Vec(1, 2, 3)
	assert.Equal(t, a, Mix(a, b, 0.9, SpaceLab))
	assert.Equal(t, b, Mix(a, b, 1, SpaceLab))
}

func TestValidateKeyframes(t *testing.T) {
	tests := []struct {
		name      string
		keyframes []Keyframe
		wantErr   bool
	}{
		{"empty", nil, false},
		{"ordered", []Keyframe{{Offset: 0}, {Offset: 1}}, false},
		{"out of range", []Keyframe{{Offset: 1.5}}, true},
		{"unsorted", []Keyframe{{Offset: 0.6}, {Offset: 0.2}}, true},
		{"bad easing", []Keyframe{{Offset: 0, Easing: "zigzag"}}, true},
		{"kind change", []Keyframe{
			{Offset: 0, Properties: map[string]Value{"a": Scalar(0)}},
			{Offset: 1, Properties: map[string]Value{"a": Vec(0, 0, 0)}},
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKeyframes(tt.keyframes)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseValue(t *testing.T) {
	v, err := ParseValue("0.5")
	require.NoError(t, err)
	assert.Equal(t, Scalar(0.5), v)

	v, err = ParseValue("10, 20")
	require.NoError(t, err)
	assert.Equal(t, Vec(10, 20, 0), v)

	v, err = ParseValue("#ff0000")
	require.NoError(t, err)
	assert.Equal(t, KindColor, v.Kind)

	_, err = ParseValue("1,2,3,4")
	assert.Error(t, err)
	_, err = ParseValue("tall")
	assert.Error(t, err)
}

func TestKeyframeYAML(t *testing.T) {
	src := `
offset: 0.5
easing: ease-out
properties:
  opacity: 0.25
  position: "4,8"
  fill: "#00ff00"
`
	var kf Keyframe
	require.NoError(t, yaml.Unmarshal([]byte(src), &kf))
	assert.Equal(t, 0.5, kf.Offset)
	assert.Equal(t, Scalar(0.25), kf.Properties["opacity"])
	assert.Equal(t, Vec(4, 8, 0), kf.Properties["position"])
	assert.Equal(t, "#00ff00", kf.Properties["fill"].String())
}

func TestRecorder(t *testing.T) {
	rec := &Recorder{}
	require.NoError(t, rec.Render(Frame{StageID: "a", Progress: 0.5}))
	require.NoError(t, rec.Render(Frame{StageID: "b", Final: true}))
	require.NoError(t, rec.Render(Frame{StageID: "a", Progress: 1, Final: true}))

	assert.Len(t, rec.ForStage("a"), 2)
	last, ok := rec.Last("a")
	require.True(t, ok)
	assert.Equal(t, 1.0, last.Progress)
	assert.Equal(t, map[string]int{"a": 1, "b": 1}, rec.Finals())

	rec.Reset()
	assert.Empty(t, rec.Frames)
}

func TestMultiStopsAtFirstError(t *testing.T) {
	calls := 0
	failing := RenderFunc(func(Frame) error { calls++; return fmt.Errorf("surface lost") })
	counting := RenderFunc(func(Frame) error { calls++; return nil })

	err := Multi{counting, failing, counting}.Render(Frame{})
	assert.EqualError(t, err, "surface lost")
	assert.Equal(t, 2, calls)
}

func TestLogRenderer(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := log.New(log.Config{Level: log.LevelDebug, Output: buf})

	r := LogRenderer{Logger: logger}
	require.NoError(t, r.Render(Frame{StageID: "fade", Properties: map[string]Value{"opacity": Scalar(0.5)}}))

	assert.Contains(t, buf.String(), "stage=fade")
	assert.Contains(t, buf.String(), "prop.opacity=0.5")
}

func TestDirectionFlip(t *testing.T) {
	assert.Equal(t, Reverse, Forward.Flip())
	assert.Equal(t, Forward, Reverse.Flip())
	assert.Equal(t, "reverse", Reverse.String())
}

package renderer

import (
	"fmt"
	"sort"

	"github.com/ivlev/choreo/internal/easing"
)

// Keyframe is a set of property values at a normalized offset of a stage.
// Easing shapes the segment that starts at this keyframe.
type Keyframe struct {
	Offset     float64          `yaml:"offset"`
	Properties map[string]Value `yaml:"properties"`
	Easing     string           `yaml:"easing,omitempty"`
}

type trackPoint struct {
	offset float64
	value  Value
	ease   easing.Func
}

// Timeline is a compiled keyframe set. Each property interpolates only
// between the keyframes that define it.
type Timeline struct {
	tracks map[string][]trackPoint
	space  ColorSpace
}

// ValidateKeyframes checks offsets and per-property kinds.
func ValidateKeyframes(keyframes []Keyframe) error {
	kinds := make(map[string]ValueKind)
	prev := -1.0
	for i, kf := range keyframes {
		if kf.Offset < 0 || kf.Offset > 1 {
			return fmt.Errorf("keyframe %d offset %.3f outside [0,1]", i, kf.Offset)
		}
		if kf.Offset < prev {
			return fmt.Errorf("keyframe %d offset %.3f is before previous offset %.3f", i, kf.Offset, prev)
		}
		prev = kf.Offset
		if kf.Easing != "" && !easing.Valid(kf.Easing) {
			return fmt.Errorf("keyframe %d: unknown easing %q", i, kf.Easing)
		}
		for name, v := range kf.Properties {
			if k, ok := kinds[name]; ok && k != v.Kind {
				return fmt.Errorf("keyframe %d: property %q changes kind from %s to %s", i, name, k, v.Kind)
			}
			kinds[name] = v.Kind
		}
	}
	return nil
}

// NewTimeline compiles keyframes.
func NewTimeline(keyframes []Keyframe, space ColorSpace) (*Timeline, error) {
	if err := ValidateKeyframes(keyframes); err != nil {
		return nil, err
	}

	tl := &Timeline{
		tracks: make(map[string][]trackPoint),
		space:  space,
	}
	for _, kf := range keyframes {
		ease, err := easing.ByName(kf.Easing)
		if err != nil {
			return nil, err
		}
		for name, v := range kf.Properties {
			tl.tracks[name] = append(tl.tracks[name], trackPoint{offset: kf.Offset, value: v, ease: ease})
		}
	}
	for name := range tl.tracks {
		points := tl.tracks[name]
		sort.SliceStable(points, func(i, j int) bool { return points[i].offset < points[j].offset })
	}
	return tl, nil
}

// Properties lists the animated property names in sorted order.
func (tl *Timeline) Properties() []string {
	names := make([]string, 0, len(tl.tracks))
	for name := range tl.tracks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// At calculates every property at the given progress.
func (tl *Timeline) At(progress float64) map[string]Value {
	out := make(map[string]Value, len(tl.tracks))
	for name, points := range tl.tracks {
		out[name] = interpolateTrack(points, progress, tl.space)
	}
	return out
}

func interpolateTrack(points []trackPoint, progress float64, space ColorSpace) Value {
	// before first keyframe, use first keyframe
	if progress <= points[0].offset {
		return points[0].value
	}

	// after last keyframe, use last keyframe
	last := points[len(points)-1]
	if progress >= last.offset {
		return last.value
	}

	// find surrounding keyframes
	i := sort.Search(len(points), func(i int) bool { return points[i].offset > progress }) - 1
	prev, next := points[i], points[i+1]

	span := next.offset - prev.offset
	if span <= 0 {
		return next.value
	}
	t := prev.ease((progress - prev.offset) / span)

	return Mix(prev.value, next.value, t, space)
}

package director

import (
	"fmt"
	"image"
	"sort"
	"time"

	"github.com/ivlev/choreo/internal/motion"
	"github.com/ivlev/choreo/internal/renderer"
	"github.com/ivlev/choreo/internal/stage"
	"github.com/ivlev/choreo/internal/stagger"
)

// Director composes reveal sequences from laid-out elements
type Director struct {
	ViewportWidth  int
	ViewportHeight int
	MinDwell       time.Duration // Minimum time per row
	MaxDwell       time.Duration // Maximum time per row
	Intro          time.Duration
	// RowThreshold is the vertical distance, in pixels, under which two
	// elements share a row.
	RowThreshold int
	// Stagger is the delay between elements of one row.
	Stagger time.Duration
	// Drift is the fraction of the distance to the viewport center an
	// element travels while it fades in.
	Drift  float64
	Easing string
}

// NewDirector creates a new Director with default settings
func NewDirector(viewportWidth, viewportHeight int) *Director {
	return &Director{
		ViewportWidth:  viewportWidth,
		ViewportHeight: viewportHeight,
		MinDwell:       300 * time.Millisecond,
		MaxDwell:       1200 * time.Millisecond,
		Intro:          400 * time.Millisecond,
		RowThreshold:   20,
		Stagger:        80 * time.Millisecond,
		Drift:          0.1,
		Easing:         "easeOutCubic",
	}
}

// Compose builds a sequence that fades in the layout row by row in reading
// order. The intro fades in the viewport; the outro raises "<id>:revealed".
func (d *Director) Compose(id string, elements []Element, totalDuration time.Duration) (*SequenceSpec, error) {
	if len(elements) == 0 {
		return nil, fmt.Errorf("no elements to compose")
	}
	if id == "" {
		id = "reveal"
	}

	rows := d.groupRows(d.sortElements(elements))
	dwell := d.calculateDwellTime(totalDuration, len(rows))

	spec := &SequenceSpec{ID: id}
	spec.Stages = append(spec.Stages, StageSpec{
		ID:       "intro",
		Kind:     stage.Style,
		Targets:  []string{"viewport"},
		Duration: d.Intro,
		Easing:   "linear",
		Category: motion.Transition,
		Keyframes: []renderer.Keyframe{
			{Offset: 0, Properties: map[string]renderer.Value{"opacity": renderer.Scalar(0)}},
			{Offset: 1, Properties: map[string]renderer.Value{"opacity": renderer.Scalar(1)}},
		},
	})

	prev := "intro"
	for i, row := range rows {
		rowID := fmt.Sprintf("row_%d", i+1)
		spec.Stages = append(spec.Stages, d.rowStage(rowID, prev, row, dwell))
		prev = rowID
	}

	spec.Stages = append(spec.Stages, StageSpec{
		ID:        "outro",
		Kind:      stage.Event,
		Event:     id + ":revealed",
		Category:  motion.Essential,
		DependsOn: []string{prev},
	})

	return spec, nil
}

func (d *Director) rowStage(id, after string, row []Element, dwell time.Duration) StageSpec {
	targets := make([]string, len(row))
	for i, el := range row {
		targets[i] = el.ID
		if targets[i] == "" {
			targets[i] = fmt.Sprintf("%s[%d]", id, i)
		}
	}

	// the row starts pushed away from the viewport center and settles in place
	var union image.Rectangle
	for _, el := range row {
		union = union.Union(el.Rect.image())
	}
	center := d.calculateCenter(union)
	dx := float64(center.X-d.ViewportWidth/2) * d.Drift
	dy := float64(center.Y-d.ViewportHeight/2) * d.Drift

	st := StageSpec{
		ID:        id,
		Kind:      stage.Style,
		Targets:   targets,
		Duration:  dwell,
		Easing:    d.Easing,
		Category:  motion.Decorative,
		DependsOn: []string{after},
		Keyframes: []renderer.Keyframe{
			{Offset: 0, Properties: map[string]renderer.Value{
				"opacity":   renderer.Scalar(0),
				"translate": renderer.Vec(dx, dy, 0),
			}},
			{Offset: 1, Properties: map[string]renderer.Value{
				"opacity":   renderer.Scalar(1),
				"translate": renderer.Vec(0, 0, 0),
			}},
		},
	}
	if len(row) > 1 {
		st.Kind = stage.Stagger
		st.Stagger = &stagger.Options{Delay: d.Stagger}
	}
	return st
}

// sortElements sorts elements in reading order (Western: top-to-bottom, left-to-right)
func (d *Director) sortElements(elements []Element) []Element {
	sorted := make([]Element, len(elements))
	copy(sorted, elements)

	sort.SliceStable(sorted, func(i, j int) bool {
		yDiff := sorted[i].Rect.Y - sorted[j].Rect.Y
		if abs(yDiff) > d.RowThreshold {
			return sorted[i].Rect.Y < sorted[j].Rect.Y
		}

		// Same row, sort by X
		return sorted[i].Rect.X < sorted[j].Rect.X
	})

	return sorted
}

// groupRows splits sorted elements into rows. A row starts whenever an
// element sits further than RowThreshold below the first element of the row.
func (d *Director) groupRows(sorted []Element) [][]Element {
	var rows [][]Element
	for _, el := range sorted {
		n := len(rows)
		if n > 0 && abs(el.Rect.Y-rows[n-1][0].Rect.Y) <= d.RowThreshold {
			rows[n-1] = append(rows[n-1], el)
			continue
		}
		rows = append(rows, []Element{el})
	}
	for _, row := range rows {
		sort.SliceStable(row, func(i, j int) bool { return row[i].Rect.X < row[j].Rect.X })
	}
	return rows
}

// calculateDwellTime determines how long each row takes to appear
func (d *Director) calculateDwellTime(totalDuration time.Duration, rowCount int) time.Duration {
	// Reserve time for the intro
	available := totalDuration - d.Intro
	if available <= 0 {
		available = totalDuration
	}

	dwell := available / time.Duration(rowCount)

	// Clamp to min/max
	if dwell < d.MinDwell {
		dwell = d.MinDwell
	}
	if d.MaxDwell > 0 && dwell > d.MaxDwell {
		dwell = d.MaxDwell
	}

	return dwell
}

// calculateCenter finds the center point of a rectangle
func (d *Director) calculateCenter(rect image.Rectangle) image.Point {
	return image.Point{
		X: rect.Min.X + rect.Dx()/2,
		Y: rect.Min.Y + rect.Dy()/2,
	}
}

func (r Rectangle) image() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
}

// abs returns absolute value of an integer
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

package analyzer

import (
	"context"
	"fmt"
	"image"
	"sort"

	"github.com/ivlev/choreo/internal/director"
)

// Region is a block of content found on a mockup image
type Region struct {
	Rect       image.Rectangle
	Kind       string  // "text", "media" or "block"
	Confidence float64 // share of edge pixels inside Rect, 0.0-1.0
}

// Detector finds content regions on an image
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]Region, error)
}

// NewDetector returns the detector registered under variant.
func NewDetector(variant string) (Detector, error) {
	switch variant {
	case "contrast", "":
		return NewContrastDetector(), nil
	default:
		return nil, fmt.Errorf("unknown detector variant: %s", variant)
	}
}

// DetectLayout runs d on img and returns a layout whose viewport is the
// image bounds. Elements are named region_1, region_2, ... in reading order.
func DetectLayout(ctx context.Context, d Detector, img image.Image) (*director.Layout, error) {
	regions, err := d.Detect(ctx, img)
	if err != nil {
		return nil, err
	}
	if len(regions) == 0 {
		return nil, fmt.Errorf("no regions detected")
	}

	b := img.Bounds()
	layout := &director.Layout{
		Viewport: director.Rectangle{X: 0, Y: 0, W: b.Dx(), H: b.Dy()},
	}
	for i, r := range regions {
		rect := r.Rect.Sub(b.Min)
		layout.Elements = append(layout.Elements, director.Element{
			ID:   fmt.Sprintf("region_%d", i+1),
			Rect: director.Rectangle{X: rect.Min.X, Y: rect.Min.Y, W: rect.Dx(), H: rect.Dy()},
		})
	}
	return layout, nil
}

// sortRegions orders regions top to bottom, then left to right.
func sortRegions(regions []Region) {
	sort.SliceStable(regions, func(i, j int) bool {
		a, b := regions[i].Rect.Min, regions[j].Rect.Min
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
}

// classify guesses a region kind from its shape.
func classify(r image.Rectangle) string {
	w, h := r.Dx(), r.Dy()
	switch {
	case h > 0 && w >= 4*h:
		return "text"
	case w > 0 && h > 0 && w < 2*h && h < 2*w && w*h >= 10000:
		return "media"
	default:
		return "block"
	}
}

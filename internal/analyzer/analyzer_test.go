package analyzer

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mockup(w, h int, blocks ...image.Rectangle) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for _, r := range blocks {
		draw.Draw(img, r, &image.Uniform{C: color.Gray{Y: 255}}, image.Point{}, draw.Src)
	}
	return img
}

func TestContrastDetectorFindsBlock(t *testing.T) {
	img := mockup(200, 200,
		image.Rect(50, 50, 150, 150),
		image.Rect(10, 10, 13, 13), // noise, below MinArea after dilation
	)

	regions, err := NewContrastDetector().Detect(context.Background(), img)
	require.NoError(t, err)
	require.Len(t, regions, 1)

	// edges on both sides of the border, grown by Gap
	assert.Equal(t, image.Rect(45, 45, 155, 155), regions[0].Rect)
	assert.Equal(t, "media", regions[0].Kind)
	assert.Greater(t, regions[0].Confidence, 0.0)
	assert.Less(t, regions[0].Confidence, 0.5)
}

func TestContrastDetectorReadingOrder(t *testing.T) {
	img := mockup(300, 140,
		image.Rect(200, 20, 260, 70),
		image.Rect(20, 20, 60, 60),
		image.Rect(10, 100, 290, 110),
	)

	regions, err := NewContrastDetector().Detect(context.Background(), img)
	require.NoError(t, err)
	require.Len(t, regions, 3)

	assert.Equal(t, image.Rect(15, 15, 65, 65), regions[0].Rect)
	assert.Equal(t, image.Rect(195, 15, 265, 75), regions[1].Rect)
	assert.Equal(t, image.Rect(5, 95, 295, 115), regions[2].Rect)
	assert.Equal(t, "text", regions[2].Kind)
}

func TestContrastDetectorSingleWorker(t *testing.T) {
	d := NewContrastDetector()
	d.Workers = 1

	regions, err := d.Detect(context.Background(), mockup(200, 200, image.Rect(50, 50, 150, 150)))
	require.NoError(t, err)
	require.Len(t, regions, 1)
	assert.Equal(t, image.Rect(45, 45, 155, 155), regions[0].Rect)
}

func TestContrastDetectorCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewContrastDetector().Detect(ctx, mockup(64, 64))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestContrastDetectorBlankImage(t *testing.T) {
	regions, err := NewContrastDetector().Detect(context.Background(), mockup(64, 64))
	require.NoError(t, err)
	assert.Empty(t, regions)
}

func TestDetectLayout(t *testing.T) {
	img := mockup(300, 140,
		image.Rect(20, 20, 60, 60),
		image.Rect(10, 100, 290, 110),
	)

	layout, err := DetectLayout(context.Background(), NewContrastDetector(), img)
	require.NoError(t, err)
	assert.Equal(t, 300, layout.Viewport.W)
	assert.Equal(t, 140, layout.Viewport.H)
	require.Len(t, layout.Elements, 2)
	assert.Equal(t, "region_1", layout.Elements[0].ID)
	assert.Equal(t, 15, layout.Elements[0].Rect.X)
	assert.Equal(t, 50, layout.Elements[0].Rect.W)
	assert.Equal(t, "region_2", layout.Elements[1].ID)

	_, err = DetectLayout(context.Background(), NewContrastDetector(), mockup(64, 64))
	assert.Error(t, err)
}

func TestNewDetector(t *testing.T) {
	tests := []struct {
		variant string
		wantErr bool
	}{
		{"contrast", false},
		{"", false},
		{"ocr", true},
	}

	for _, tt := range tests {
		t.Run(tt.variant, func(t *testing.T) {
			d, err := NewDetector(tt.variant)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, d)
		})
	}
}

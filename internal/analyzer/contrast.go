package analyzer

import (
	"context"
	"image"
	"image/color"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ContrastDetector finds regions by Sobel edge detection. Edges closer than
// Gap pixels are merged, and each connected group becomes one region.
type ContrastDetector struct {
	MinArea   int     // px², smaller regions are dropped
	Threshold float64 // gradient magnitude
	Gap       int
	Workers   int
}

func NewContrastDetector() *ContrastDetector {
	return &ContrastDetector{
		MinArea:   500,
		Threshold: 30,
		Gap:       4,
		Workers:   runtime.GOMAXPROCS(0),
	}
}

func (d *ContrastDetector) Detect(ctx context.Context, img image.Image) ([]Region, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, nil
	}
	w, h := b.Dx(), b.Dy()

	gray := planes.get(b)
	defer planes.put(gray)

	err := d.forRows(ctx, b, func(y int) {
		for x := b.Min.X; x < b.Max.X; x++ {
			gray.SetGray(x, y, color.GrayModel.Convert(img.At(x, y)).(color.Gray))
		}
	})
	if err != nil {
		return nil, err
	}

	edges := make([]bool, w*h)
	err = d.forRows(ctx, b, func(y int) {
		sobelRow(gray, edges, y, d.Threshold)
	})
	if err != nil {
		return nil, err
	}

	var regions []Region
	for _, rect := range components(dilate(edges, w, h, d.Gap), w, h) {
		if rect.Dx()*rect.Dy() < d.MinArea {
			continue
		}
		regions = append(regions, Region{
			Rect:       rect.Add(b.Min),
			Kind:       classify(rect),
			Confidence: density(edges, w, rect),
		})
	}
	sortRegions(regions)
	return regions, nil
}

// forRows calls fn for every row of b, split into one band per worker.
// Bands write disjoint rows.
func (d *ContrastDetector) forRows(ctx context.Context, b image.Rectangle, fn func(y int)) error {
	workers := max(d.Workers, 1)
	band := (b.Dy() + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	for start := b.Min.Y; start < b.Max.Y; start += band {
		start := start
		end := min(start+band, b.Max.Y)
		g.Go(func() error {
			for y := start; y < end; y++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				fn(y)
			}
			return nil
		})
	}
	return g.Wait()
}

var (
	sobelX = [3][3]float64{{-1, 0, 1}, {-2, 0, 2}, {-1, 0, 1}}
	sobelY = [3][3]float64{{-1, -2, -1}, {0, 0, 0}, {1, 2, 1}}
)

// sobelRow marks the edge pixels of row y. Border pixels are never edges.
func sobelRow(gray *image.Gray, edges []bool, y int, threshold float64) {
	b := gray.Rect
	if y <= b.Min.Y || y >= b.Max.Y-1 {
		return
	}
	w := b.Dx()
	for x := b.Min.X + 1; x < b.Max.X-1; x++ {
		var gx, gy float64
		for ky := -1; ky <= 1; ky++ {
			for kx := -1; kx <= 1; kx++ {
				v := float64(gray.GrayAt(x+kx, y+ky).Y)
				gx += v * sobelX[ky+1][kx+1]
				gy += v * sobelY[ky+1][kx+1]
			}
		}
		edges[(y-b.Min.Y)*w+(x-b.Min.X)] = math.Hypot(gx, gy) > threshold
	}
}

// dilate grows the mask by r pixels in both axes with two separable passes.
func dilate(mask []bool, w, h, r int) []bool {
	if r <= 0 {
		return mask
	}
	prefix := make([]int, max(w, h)+1)

	horiz := make([]bool, len(mask))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			prefix[x+1] = prefix[x] + btoi(mask[y*w+x])
		}
		for x := 0; x < w; x++ {
			horiz[y*w+x] = prefix[min(x+r+1, w)]-prefix[max(x-r, 0)] > 0
		}
	}

	out := make([]bool, len(mask))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			prefix[y+1] = prefix[y] + btoi(horiz[y*w+x])
		}
		for y := 0; y < h; y++ {
			out[y*w+x] = prefix[min(y+r+1, h)]-prefix[max(y-r, 0)] > 0
		}
	}
	return out
}

// components returns the bounding boxes of 4-connected groups of set pixels,
// in scan order of their first pixel.
func components(mask []bool, w, h int) []image.Rectangle {
	seen := make([]bool, len(mask))
	var rects []image.Rectangle
	var stack []int

	for i, set := range mask {
		if !set || seen[i] {
			continue
		}
		rect := image.Rect(i%w, i/w, i%w+1, i/w+1)
		seen[i] = true
		stack = append(stack[:0], i)

		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := p%w, p/w
			rect = rect.Union(image.Rect(x, y, x+1, y+1))

			for _, n := range [4]int{p - 1, p + 1, p - w, p + w} {
				switch {
				case n < 0 || n >= len(mask):
					continue
				case (n == p-1 && x == 0) || (n == p+1 && x == w-1):
					continue
				}
				if mask[n] && !seen[n] {
					seen[n] = true
					stack = append(stack, n)
				}
			}
		}
		rects = append(rects, rect)
	}
	return rects
}

func density(edges []bool, w int, r image.Rectangle) float64 {
	area := r.Dx() * r.Dy()
	if area == 0 {
		return 0
	}
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			n += btoi(edges[y*w+x])
		}
	}
	return float64(n) / float64(area)
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}

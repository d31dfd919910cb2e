package easing

import "math"

const (
	bezierNewtonIterations = 8
	bezierEpsilon          = 1e-7
)

// CubicBezier returns the CSS cubic-bezier timing curve with control points
// (x1, y1) and (x2, y2). x1 and x2 are clamped to [0,1] so the curve stays a
// function of time.
func CubicBezier(x1, y1, x2, y2 float64) Func {
	x1, x2 = Clamp01(x1), Clamp01(x2)
	if x1 == y1 && x2 == y2 {
		return Linear
	}

	cx := 3 * x1
	bx := 3*(x2-x1) - cx
	ax := 1 - cx - bx
	cy := 3 * y1
	by := 3*(y2-y1) - cy
	ay := 1 - cy - by

	sampleX := func(t float64) float64 { return ((ax*t+bx)*t + cx) * t }
	sampleY := func(t float64) float64 { return ((ay*t+by)*t + cy) * t }
	slopeX := func(t float64) float64 { return (3*ax*t+2*bx)*t + cx }

	solveX := func(x float64) float64 {
		t := x
		for i := 0; i < bezierNewtonIterations; i++ {
			err := sampleX(t) - x
			if math.Abs(err) < bezierEpsilon {
				return t
			}
			d := slopeX(t)
			if math.Abs(d) < 1e-6 {
				break
			}
			t -= err / d
		}

		// Newton did not converge; fall back to bisection.
		lo, hi := 0.0, 1.0
		t = x
		for lo < hi {
			v := sampleX(t)
			if math.Abs(v-x) < bezierEpsilon {
				return t
			}
			if x > v {
				lo = t
			} else {
				hi = t
			}
			next := (lo + hi) / 2
			if next == t {
				break
			}
			t = next
		}
		return t
	}

	return func(x float64) float64 {
		if x <= 0 {
			return 0
		}
		if x >= 1 {
			return 1
		}
		return sampleY(solveX(x))
	}
}

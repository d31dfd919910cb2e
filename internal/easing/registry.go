package easing

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ivlev/choreo/internal/errors"
)

var named = map[string]Func{
	"linear": Linear,

	// CSS keywords
	"ease":      CubicBezier(0.25, 0.1, 0.25, 1),
	"easein":    CubicBezier(0.42, 0, 1, 1),
	"easeout":   CubicBezier(0, 0, 0.58, 1),
	"easeinout": CubicBezier(0.42, 0, 0.58, 1),
	"stepstart": Steps(1, true),
	"stepend":   Steps(1, false),

	// Penner curves
	"easeinquad":      InQuad,
	"easeoutquad":     OutQuad,
	"easeinoutquad":   InOutQuad,
	"easeincubic":     InCubic,
	"easeoutcubic":    OutCubic,
	"easeinoutcubic":  InOutCubic,
	"easeinquart":     InQuart,
	"easeoutquart":    OutQuart,
	"easeinoutquart":  InOutQuart,
	"easeinquint":     InQuint,
	"easeoutquint":    OutQuint,
	"easeinoutquint":  InOutQuint,
	"easeinsine":      InSine,
	"easeoutsine":     OutSine,
	"easeinoutsine":   InOutSine,
	"easeinexpo":      InExpo,
	"easeoutexpo":     OutExpo,
	"easeinoutexpo":   InOutExpo,
	"easeincirc":      InCirc,
	"easeoutcirc":     OutCirc,
	"easeinoutcirc":   InOutCirc,
	"easeinback":      InBack,
	"easeoutback":     OutBack,
	"easeinoutback":   InOutBack,
	"easeinelastic":   InElastic,
	"easeoutelastic":  OutElastic,
	"easeinbounce":    InBounce,
	"easeoutbounce":   OutBounce,
	"easeinoutbounce": InOutBounce,

	// motion-library aliases
	"anticipate":       InBack,
	"backout":          OutBack,
	"circout":          OutCirc,
	"mirroreaseinout":  InOutSine,
	"reverseeaseinout": Reverse(CubicBezier(0.42, 0, 0.58, 1)),
}

// normalize folds "ease-in-out", "easeInOut" and "ease_in_out" together.
func normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(name)
}

// Names lists the registered curve names in sorted order.
func Names() []string {
	out := make([]string, 0, len(named))
	for name := range named {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ByName resolves an easing name. The empty name is Linear.
func ByName(name string) (Func, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return Linear, nil
	}

	lower := strings.ToLower(trimmed)
	switch {
	case strings.HasPrefix(lower, "cubic-bezier(") || strings.HasPrefix(lower, "cubicbezier("):
		args, err := parseArgs(lower)
		if err != nil || len(args) != 4 {
			return nil, errors.NewUnknownEasingError(name)
		}
		vals := make([]float64, 4)
		for i, a := range args {
			v, err := strconv.ParseFloat(a, 64)
			if err != nil {
				return nil, errors.NewUnknownEasingError(name)
			}
			vals[i] = v
		}
		if vals[0] < 0 || vals[0] > 1 || vals[2] < 0 || vals[2] > 1 {
			return nil, errors.NewUnknownEasingError(name)
		}
		return CubicBezier(vals[0], vals[1], vals[2], vals[3]), nil

	case strings.HasPrefix(lower, "steps("):
		args, err := parseArgs(lower)
		if err != nil || len(args) < 1 || len(args) > 2 {
			return nil, errors.NewUnknownEasingError(name)
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return nil, errors.NewUnknownEasingError(name)
		}
		start := false
		if len(args) == 2 {
			switch args[1] {
			case "start", "jump-start":
				start = true
			case "end", "jump-end":
			default:
				return nil, errors.NewUnknownEasingError(name)
			}
		}
		return Steps(n, start), nil
	}

	if f, ok := named[normalize(trimmed)]; ok {
		return f, nil
	}
	return nil, errors.NewUnknownEasingError(name)
}

// MustByName is ByName for names known at compile time.
func MustByName(name string) Func {
	f, err := ByName(name)
	if err != nil {
		panic(err)
	}
	return f
}

// Valid reports whether name resolves.
func Valid(name string) bool {
	_, err := ByName(name)
	return err == nil
}

func parseArgs(expr string) ([]string, error) {
	open := strings.IndexByte(expr, '(')
	if open < 0 || !strings.HasSuffix(expr, ")") {
		return nil, fmt.Errorf("malformed easing expression %q", expr)
	}
	inner := expr[open+1 : len(expr)-1]
	parts := strings.Split(inner, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts, nil
}

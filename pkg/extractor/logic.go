package extractor

import (
	"fmt"
	"regexp"
	"strconv"
)

var (
	maxLogicRe  = regexp.MustCompile(`^value = max\((\w+), ([\d.]+)\)$`)
	minLogicRe  = regexp.MustCompile(`^value = min\((\w+), ([\d.]+)\)$`)
	rateLogicRe = regexp.MustCompile(`^value = (\w+) \* ([\d.]+)$`)
)

// EvalLogic evaluates a rule's logic expression against an input map. Only
// the three shapes the strategies emit are supported; anything else is an
// error so malformed rules surface in validation instead of silently
// computing garbage.
func EvalLogic(logic string, input map[string]float64) (float64, error) {
	if m := maxLogicRe.FindStringSubmatch(logic); m != nil {
		actual, ok := input[m[1]]
		if !ok {
			return 0, fmt.Errorf("missing input %q", m[1])
		}
		fixed, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return 0, err
		}
		if actual > fixed {
			return actual, nil
		}
		return fixed, nil
	}

	if m := minLogicRe.FindStringSubmatch(logic); m != nil {
		actual, ok := input[m[1]]
		if !ok {
			return 0, fmt.Errorf("missing input %q", m[1])
		}
		cap, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return 0, err
		}
		if actual < cap {
			return actual, nil
		}
		return cap, nil
	}

	if m := rateLogicRe.FindStringSubmatch(logic); m != nil {
		base, ok := input[m[1]]
		if !ok {
			return 0, fmt.Errorf("missing input %q", m[1])
		}
		rate, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return 0, err
		}
		return base * rate, nil
	}

	return 0, fmt.Errorf("unsupported logic expression: %s", logic)
}

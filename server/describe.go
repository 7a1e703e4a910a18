package meticd

import (
	"fmt"
	"strconv"

	Mt "github.com/meticai/meticd/types"
)

// StaticSummary is what the UI shows for a stage with no curve at all.
const StaticSummary = "Static (no dynamics defined)"

// StageUnit maps a stage type to its display unit.
func StageUnit(stageType string) string {
	switch stageType {
	case "pressure":
		return "bar"
	case "flow":
		return "ml/s"
	case "power":
		return "%"
	default:
		return ""
	}
}

// DescribeDynamics builds the human-readable readout for one stage curve.
// It is a total function: any input, including nil dynamics, dangling
// variable references, or garbage values, comes back as a safe textual
// fallback rather than a panic or a "NaN" on screen.
func DescribeDynamics(d *Mt.StageDynamics, stageType string, vars []Mt.Variable) Mt.DynamicsDescription {
	if d == nil || len(d.Points) == 0 {
		return Mt.DynamicsDescription{
			Summary: StaticSummary,
			Pattern: Mt.PatternFlat,
		}
	}

	vals := ResolvePoints(d.Points, vars)
	pattern := ClassifyPattern(vals)

	// First and last resolvable values, and the positions they sit at,
	// for the summary line and the duration readout.
	var start, end *float64
	var firstPos, lastPos float64
	validPos := 0
	lo, hi := 0.0, 0.0
	for i, v := range vals {
		if v == nil {
			continue
		}
		if start == nil {
			start = v
			firstPos = d.Points[i].Position
			lo, hi = *v, *v
		}
		end = v
		lastPos = d.Points[i].Position
		validPos++
		if *v < lo {
			lo = *v
		}
		if *v > hi {
			hi = *v
		}
	}

	unit := StageUnit(stageType)

	desc := Mt.DynamicsDescription{
		StartValue: start,
		EndValue:   end,
		Pattern:    pattern,
	}

	// Duration readout depends on the curve axis
	switch {
	case d.Over == "time" && validPos >= 2:
		desc.Duration = trimFloat(lastPos-firstPos) + "s"
	case d.Over == "weight" && validPos >= 2:
		desc.Duration = trimFloat(lastPos-firstPos) + "g range"
	}

	// Every point referenced an unknown variable: nothing to print
	if start == nil || end == nil {
		desc.Summary = fmt.Sprintf("Variable %s (uses variables)", stageType)
		return desc
	}

	switch pattern {
	case Mt.PatternFlat:
		desc.Summary = fmt.Sprintf("Holds at %s", withUnit(*start, unit))
	case Mt.PatternAscending:
		desc.Summary = fmt.Sprintf("%s → %s (ramping up)", fmtVal(*start), withUnit(*end, unit))
	case Mt.PatternDescending:
		desc.Summary = fmt.Sprintf("%s → %s (declining)", fmtVal(*start), withUnit(*end, unit))
	case Mt.PatternPeak:
		desc.Summary = fmt.Sprintf("%s → %s → %s", fmtVal(*start), fmtVal(hi), withUnit(*end, unit))
	case Mt.PatternValley:
		desc.Summary = fmt.Sprintf("%s → %s → %s", fmtVal(*start), fmtVal(lo), withUnit(*end, unit))
	case Mt.PatternOscillating:
		desc.Summary = fmt.Sprintf("Oscillates %s-%s", fmtVal(lo), withUnit(hi, unit))
	default:
		// ramp-hold and complex share the generic readout
		desc.Summary = fmt.Sprintf("%s → %s (variable)", fmtVal(*start), withUnit(*end, unit))
	}

	if d.Interpolation == "curve" {
		desc.Summary += " (smooth)"
	}

	return desc
}

// fmtVal renders a value with one decimal, e.g. 9 -> "9.0"
func fmtVal(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func withUnit(v float64, unit string) string {
	if unit == "" {
		return fmtVal(v)
	}
	return fmtVal(v) + " " + unit
}

// trimFloat drops insignificant decimals, e.g. 15.0 -> "15"
func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

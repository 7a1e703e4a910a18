package meticd

import (
	Mt "github.com/meticai/meticd/types"
)

/*

	Pattern classification for stage dynamics.

	A curve is a short ordered list of resolved values, some possibly nil.
	The classifier walks a fixed cascade of shape predicates and the first
	match wins. Ordering is load-bearing: a flat-then-spike curve can
	loosely satisfy several of these at once.

*/

// These thresholds are empirical. Changing them changes how existing
// profiles read in the UI, so treat them as tunable but sticky.
const (
	// Epsilon is the absolute tolerance for "same value" comparisons.
	Epsilon = 0.1

	// HoldRange is the max spread the tail of a ramp-then-hold
	// curve may have and still count as holding.
	HoldRange = 0.5

	// MinReversals is how many genuine direction changes
	// make a curve oscillating.
	MinReversals = 2
)

// ClassifyPattern assigns a qualitative shape to a resolved value series.
// Nil entries (unresolved variable references) are dropped first.
func ClassifyPattern(vals []*float64) Mt.Pattern {
	vs := compact(vals)

	if len(vs) == 0 {
		return Mt.PatternComplex
	}
	if len(vs) == 1 {
		return Mt.PatternFlat
	}

	lo, hi := minMax(vs)
	if hi-lo < Epsilon {
		return Mt.PatternFlat
	}

	// Whole-series monotone, ascending first
	if nonDecreasing(vs) {
		return Mt.PatternAscending
	}
	if nonIncreasing(vs) {
		return Mt.PatternDescending
	}

	// Ramp then hold: front half moves, back half sits still
	mid := len(vs) / 2
	head, tail := vs[:mid], vs[mid:]
	tlo, thi := minMax(tail)
	if nonDecreasing(head) && thi-tlo < HoldRange {
		return Mt.PatternRampUpHold
	}
	if nonIncreasing(head) && thi-tlo < HoldRange {
		return Mt.PatternRampDnHold
	}

	// Single interior extremum
	if pi := indexOf(vs, hi); pi > 0 && pi < len(vs)-1 {
		if nonDecreasing(vs[:pi+1]) && nonIncreasing(vs[pi:]) {
			return Mt.PatternPeak
		}
	}
	if vi := indexOf(vs, lo); vi > 0 && vi < len(vs)-1 {
		if nonIncreasing(vs[:vi+1]) && nonDecreasing(vs[vi:]) {
			return Mt.PatternValley
		}
	}

	if reversals(vs) >= MinReversals {
		return Mt.PatternOscillating
	}

	return Mt.PatternComplex
}

// compact drops unresolved entries, keeping order
func compact(vals []*float64) []float64 {
	vs := make([]float64, 0, len(vals))
	for _, v := range vals {
		if v != nil {
			vs = append(vs, *v)
		}
	}
	return vs
}

func minMax(vs []float64) (float64, float64) {
	lo, hi := vs[0], vs[0]
	for _, v := range vs[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// nonDecreasing allows each step to dip by at most Epsilon
func nonDecreasing(vs []float64) bool {
	for i := 1; i < len(vs); i++ {
		if vs[i] < vs[i-1]-Epsilon {
			return false
		}
	}
	return true
}

func nonIncreasing(vs []float64) bool {
	for i := 1; i < len(vs); i++ {
		if vs[i] > vs[i-1]+Epsilon {
			return false
		}
	}
	return true
}

// indexOf finds the first occurrence of v
func indexOf(vs []float64, v float64) int {
	for i := range vs {
		if vs[i] == v {
			return i
		}
	}
	return -1
}

// reversals counts genuine direction changes in the first differences.
// Steps within Epsilon of zero carry no direction and are skipped.
func reversals(vs []float64) int {
	count := 0
	prev := 0 // -1 falling, +1 rising, 0 no direction yet

	for i := 1; i < len(vs); i++ {
		d := vs[i] - vs[i-1]

		var dir int
		switch {
		case d > Epsilon:
			dir = 1
		case d < -Epsilon:
			dir = -1
		default:
			continue
		}

		if prev != 0 && dir != prev {
			count++
		}
		prev = dir
	}
	return count
}

package meticd

import (
	Mt "github.com/meticai/meticd/types"
)

// ResolveValue turns a raw control point value into a number.
// A literal passes through unchanged. A reference is looked up by Key
// in the profile's variable list. A dangling reference, or a value that
// never decoded to anything usable, resolves to nil. This never errors:
// the UI must survive half-built profiles.
func ResolveValue(pv Mt.PointValue, vars []Mt.Variable) *float64 {
	if !pv.Valid {
		return nil
	}

	if !pv.IsRef {
		v := pv.Literal
		return &v
	}

	for _, vr := range vars {
		if vr.Key == pv.Ref {
			v := vr.Value
			return &v
		}
	}

	// No matching variable
	return nil
}

// ResolvePoints resolves every point in a dynamics curve,
// keeping slice positions aligned with the input so callers
// can pair values back up with their positions.
func ResolvePoints(points []Mt.ControlPoint, vars []Mt.Variable) []*float64 {
	vals := make([]*float64, len(points))
	for i, p := range points {
		vals[i] = ResolveValue(p.Value, vars)
	}
	return vals
}

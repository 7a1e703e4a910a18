package meticd_test

import (
	"testing"

	Ms "github.com/meticai/meticd/server"
	Mt "github.com/meticai/meticd/types"
)

func TestStageUnit(t *testing.T) {
	assertString(t, Ms.StageUnit("pressure"), "bar")
	assertString(t, Ms.StageUnit("flow"), "ml/s")
	assertString(t, Ms.StageUnit("power"), "%")
	assertString(t, Ms.StageUnit("mystery"), "")
}

// points is shorthand for building a literal dynamics curve
func points(pv ...[2]float64) []Mt.ControlPoint {
	out := make([]Mt.ControlPoint, len(pv))
	for i, p := range pv {
		out[i] = Mt.ControlPoint{Position: p[0], Value: Mt.LiteralValue(p[1])}
	}
	return out
}

func TestDescribeDynamics(t *testing.T) {
	t.Run("Nil dynamics reads as static", func(t *testing.T) {
		got := Ms.DescribeDynamics(nil, "pressure", nil)

		assertString(t, got.Summary, "Static (no dynamics defined)")
		if got.Pattern != Mt.PatternFlat {
			t.Errorf("got pattern %q, want %q", got.Pattern, Mt.PatternFlat)
		}
	})

	t.Run("Empty points read as static", func(t *testing.T) {
		d := &Mt.StageDynamics{Points: []Mt.ControlPoint{}, Over: "time"}
		got := Ms.DescribeDynamics(d, "flow", nil)

		assertString(t, got.Summary, "Static (no dynamics defined)")
	})

	t.Run("Flat curve holds at its value", func(t *testing.T) {
		d := &Mt.StageDynamics{
			Points: points([2]float64{0, 2}, [2]float64{15, 2}),
			Over:   "time",
		}
		got := Ms.DescribeDynamics(d, "flow", nil)

		assertString(t, got.Summary, "Holds at 2.0 ml/s")
		assertString(t, got.Duration, "15s")
	})

	t.Run("Ascending curve through a variable reference", func(t *testing.T) {
		vars := []Mt.Variable{{Name: "Peak", Key: "peak", Type: "pressure", Value: 9.0}}
		d := &Mt.StageDynamics{
			Points: []Mt.ControlPoint{
				{Position: 0, Value: Mt.LiteralValue(3)},
				{Position: 10, Value: Mt.RefValue("peak")},
			},
			Over: "time",
		}
		got := Ms.DescribeDynamics(d, "pressure", vars)

		assertString(t, got.Summary, "3.0 → 9.0 bar (ramping up)")
		assertString(t, got.Duration, "10s")
		assertFloat(t, *got.StartValue, 3)
		assertFloat(t, *got.EndValue, 9)
	})

	t.Run("Descending curve declines", func(t *testing.T) {
		d := &Mt.StageDynamics{
			Points: points([2]float64{0, 9}, [2]float64{20, 4}),
			Over:   "time",
		}
		got := Ms.DescribeDynamics(d, "pressure", nil)

		assertString(t, got.Summary, "9.0 → 4.0 bar (declining)")
	})

	t.Run("Peak curve names its extremum", func(t *testing.T) {
		d := &Mt.StageDynamics{
			Points: points(
				[2]float64{0, 3}, [2]float64{5, 6}, [2]float64{10, 8.5},
				[2]float64{15, 6}, [2]float64{20, 3}),
			Over: "time",
		}
		got := Ms.DescribeDynamics(d, "pressure", nil)

		assertString(t, got.Summary, "3.0 → 8.5 → 3.0 bar")
	})

	t.Run("Valley curve names its extremum", func(t *testing.T) {
		d := &Mt.StageDynamics{
			Points: points(
				[2]float64{0, 9}, [2]float64{5, 6}, [2]float64{10, 4},
				[2]float64{15, 6}, [2]float64{20, 9}),
			Over: "time",
		}
		got := Ms.DescribeDynamics(d, "pressure", nil)

		assertString(t, got.Summary, "9.0 → 4.0 → 9.0 bar")
	})

	t.Run("Oscillating curve names its range", func(t *testing.T) {
		d := &Mt.StageDynamics{
			Points: points(
				[2]float64{0, 0}, [2]float64{2, 8}, [2]float64{4, 0},
				[2]float64{6, 8}, [2]float64{8, 0}),
			Over: "time",
		}
		got := Ms.DescribeDynamics(d, "flow", nil)

		assertString(t, got.Summary, "Oscillates 0.0-8.0 ml/s")
	})

	t.Run("Weight axis reads as a gram range", func(t *testing.T) {
		d := &Mt.StageDynamics{
			Points: points([2]float64{0, 6}, [2]float64{30, 8}),
			Over:   "weight",
		}
		got := Ms.DescribeDynamics(d, "pressure", nil)

		assertStringContains(t, got.Duration, "30g range")
		assertString(t, got.Summary, "6.0 → 8.0 bar (ramping up)")
	})

	t.Run("Curve interpolation reads as smooth", func(t *testing.T) {
		d := &Mt.StageDynamics{
			Points:        points([2]float64{0, 2}, [2]float64{15, 2}),
			Over:          "time",
			Interpolation: "curve",
		}
		got := Ms.DescribeDynamics(d, "flow", nil)

		assertString(t, got.Summary, "Holds at 2.0 ml/s (smooth)")
	})

	t.Run("All references dangling falls back to variable text", func(t *testing.T) {
		d := &Mt.StageDynamics{
			Points: []Mt.ControlPoint{
				{Position: 0, Value: Mt.RefValue("gone")},
				{Position: 10, Value: Mt.RefValue("also-gone")},
			},
			Over: "time",
		}
		got := Ms.DescribeDynamics(d, "pressure", nil)

		assertString(t, got.Summary, "Variable pressure (uses variables)")
		if got.StartValue != nil || got.EndValue != nil {
			t.Errorf("expected nil start/end, got %+v", got)
		}
		assertString(t, got.Duration, "")
	})

	t.Run("Partially dangling curve uses resolvable endpoints", func(t *testing.T) {
		vars := []Mt.Variable{{Name: "Peak", Key: "peak", Type: "pressure", Value: 9.0}}
		d := &Mt.StageDynamics{
			Points: []Mt.ControlPoint{
				{Position: 0, Value: Mt.LiteralValue(3)},
				{Position: 5, Value: Mt.RefValue("gone")},
				{Position: 10, Value: Mt.RefValue("peak")},
			},
			Over: "time",
		}
		got := Ms.DescribeDynamics(d, "pressure", vars)

		assertString(t, got.Summary, "3.0 → 9.0 bar (ramping up)")
		assertString(t, got.Duration, "10s")
	})

	t.Run("Duration trims insignificant decimals", func(t *testing.T) {
		d := &Mt.StageDynamics{
			Points: points([2]float64{2.5, 2}, [2]float64{10, 2}),
			Over:   "time",
		}
		got := Ms.DescribeDynamics(d, "flow", nil)

		assertString(t, got.Duration, "7.5s")
	})
}

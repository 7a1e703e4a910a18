package meticd_test

import (
	"encoding/json"
	"testing"

	Ms "github.com/meticai/meticd/server"
	Mt "github.com/meticai/meticd/types"
)

func TestResolveValue(t *testing.T) {
	vars := []Mt.Variable{
		{Name: "Peak Pressure", Key: "peak", Type: "pressure", Value: 9.0},
		{Name: "Bloom Flow", Key: "bloom", Type: "flow", Value: 2.5},
	}

	t.Run("Literal passes through unchanged", func(t *testing.T) {
		got := Ms.ResolveValue(Mt.LiteralValue(6.5), vars)

		if got == nil {
			t.Fatal("expected a value, got nil")
		}
		assertFloat(t, *got, 6.5)
	})

	t.Run("Reference resolves by variable key", func(t *testing.T) {
		got := Ms.ResolveValue(Mt.RefValue("peak"), vars)

		if got == nil {
			t.Fatal("expected a value, got nil")
		}
		assertFloat(t, *got, 9.0)
	})

	t.Run("Dangling reference resolves to nil", func(t *testing.T) {
		got := Ms.ResolveValue(Mt.RefValue("missing"), vars)

		if got != nil {
			t.Errorf("expected nil, got %f", *got)
		}
	})

	t.Run("Invalid value resolves to nil", func(t *testing.T) {
		got := Ms.ResolveValue(Mt.PointValue{}, vars)

		if got != nil {
			t.Errorf("expected nil, got %f", *got)
		}
	})

	t.Run("Resolution does not alias the variable", func(t *testing.T) {
		got := Ms.ResolveValue(Mt.RefValue("bloom"), vars)
		*got = 99

		again := Ms.ResolveValue(Mt.RefValue("bloom"), vars)
		assertFloat(t, *again, 2.5)
	})
}

func TestResolvePoints(t *testing.T) {
	vars := []Mt.Variable{
		{Name: "Peak Pressure", Key: "peak", Type: "pressure", Value: 9.0},
	}

	points := []Mt.ControlPoint{
		{Position: 0, Value: Mt.LiteralValue(3)},
		{Position: 5, Value: Mt.RefValue("peak")},
		{Position: 10, Value: Mt.RefValue("missing")},
	}

	got := Ms.ResolvePoints(points, vars)

	t.Run("Positions stay aligned with input", func(t *testing.T) {
		assertInt(t, len(got), 3)
	})

	t.Run("Literal and reference both resolve", func(t *testing.T) {
		assertFloat(t, *got[0], 3)
		assertFloat(t, *got[1], 9.0)
	})

	t.Run("Dangling reference holds its slot as nil", func(t *testing.T) {
		if got[2] != nil {
			t.Errorf("expected nil, got %f", *got[2])
		}
	})
}

// TestPointValueJSON covers the tagged union decoding that
// resolution depends on: numbers, "$key" strings, and garbage.
func TestPointValueJSON(t *testing.T) {
	t.Run("Decodes a JSON number as literal", func(t *testing.T) {
		var pv Mt.PointValue
		err := json.Unmarshal([]byte(`9.1`), &pv)

		assertError(t, err, nil)
		if pv.IsRef || !pv.Valid {
			t.Errorf("expected a valid literal, got %+v", pv)
		}
		assertFloat(t, pv.Literal, 9.1)
	})

	t.Run("Decodes a sigil string as reference", func(t *testing.T) {
		var pv Mt.PointValue
		err := json.Unmarshal([]byte(`"$peak"`), &pv)

		assertError(t, err, nil)
		if !pv.IsRef || !pv.Valid {
			t.Errorf("expected a valid reference, got %+v", pv)
		}
		assertString(t, pv.Ref, "peak")
	})

	t.Run("Garbage decodes as invalid, never an error", func(t *testing.T) {
		for _, raw := range []string{`"no-sigil"`, `true`, `{"x":1}`, `null`} {
			var pv Mt.PointValue
			err := json.Unmarshal([]byte(raw), &pv)

			assertError(t, err, nil)
			if pv.Valid {
				t.Errorf("input %s should be invalid, got %+v", raw, pv)
			}
		}
	})

	t.Run("Round-trips through MarshalJSON", func(t *testing.T) {
		out, err := json.Marshal(Mt.RefValue("peak"))
		assertError(t, err, nil)
		assertString(t, string(out), `"$peak"`)

		out, err = json.Marshal(Mt.LiteralValue(6))
		assertError(t, err, nil)
		assertString(t, string(out), `6`)
	})
}

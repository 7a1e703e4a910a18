package meticd_test

import (
	"bytes"
	"strings"
	"testing"

	Ms "github.com/meticai/meticd/server"
	Mt "github.com/meticai/meticd/types"
)

const classicProfileJSON = `{
  "name": "Classic 9 Bar",
  "author": "MeticAI",
  "temperature": 92.5,
  "final_weight": 36,
  "variables": [
    {"name": "Peak Pressure", "key": "peak", "type": "pressure", "value": 9.0}
  ],
  "stages": [
    {
      "name": "Preinfusion",
      "key": "preinfusion",
      "type": "flow",
      "dynamics": {
        "points": [
          {"position": 0, "value": 2},
          {"position": 15, "value": 2}
        ],
        "over": "time"
      }
    },
    {
      "name": "Extraction",
      "key": "extraction",
      "type": "pressure",
      "dynamics": {
        "points": [
          {"position": 0, "value": 3},
          {"position": 10, "value": "$peak"}
        ],
        "over": "time"
      }
    }
  ]
}`

func TestImportProfile(t *testing.T) {
	t.Run("Decodes a well-formed upload", func(t *testing.T) {
		p, err := Ms.ImportProfile(strings.NewReader(classicProfileJSON))

		assertError(t, err, nil)
		assertString(t, p.Name, "Classic 9 Bar")
		assertInt(t, len(p.Stages), 2)
		assertFloat(t, p.Temperature, 92.5)
	})

	t.Run("Assigns an ID when the upload has none", func(t *testing.T) {
		p, err := Ms.ImportProfile(strings.NewReader(classicProfileJSON))

		assertError(t, err, nil)
		if p.ID == "" {
			t.Error("expected a generated ID, got empty string")
		}
	})

	t.Run("Keeps an existing ID", func(t *testing.T) {
		body := strings.Replace(classicProfileJSON,
			`"name": "Classic 9 Bar",`,
			`"name": "Classic 9 Bar", "id": "keep-me",`, 1)
		p, err := Ms.ImportProfile(strings.NewReader(body))

		assertError(t, err, nil)
		assertString(t, p.ID, "keep-me")
	})

	t.Run("Rejects malformed JSON", func(t *testing.T) {
		_, err := Ms.ImportProfile(strings.NewReader("{not json"))
		assertGotError(t, err)
	})
}

func TestValidateProfile(t *testing.T) {
	valid := func() *Mt.Profile {
		p, err := Ms.ImportProfile(strings.NewReader(classicProfileJSON))
		if err != nil {
			t.Fatalf("fixture should be valid: %v", err)
		}
		return p
	}

	t.Run("Accepts the fixture", func(t *testing.T) {
		assertError(t, Ms.ValidateProfile(valid()), nil)
	})

	t.Run("Rejects a nameless profile", func(t *testing.T) {
		p := valid()
		p.Name = ""
		assertGotError(t, Ms.ValidateProfile(p))
	})

	t.Run("Rejects a stageless profile", func(t *testing.T) {
		p := valid()
		p.Stages = nil
		assertGotError(t, Ms.ValidateProfile(p))
	})

	t.Run("Rejects an unknown stage type", func(t *testing.T) {
		p := valid()
		p.Stages[0].Type = "steam"
		assertGotError(t, Ms.ValidateProfile(p))
	})

	t.Run("Rejects out-of-order points", func(t *testing.T) {
		p := valid()
		pts := p.Stages[0].Dynamics.Points
		pts[0], pts[1] = pts[1], pts[0]
		assertGotError(t, Ms.ValidateProfile(p))
	})

	t.Run("Rejects an unknown dynamics axis", func(t *testing.T) {
		p := valid()
		p.Stages[0].Dynamics.Over = "volume"
		assertGotError(t, Ms.ValidateProfile(p))
	})

	t.Run("Allows dangling variable references", func(t *testing.T) {
		p := valid()
		p.Variables = nil
		assertError(t, Ms.ValidateProfile(p), nil)
	})
}

func TestBreakdownProfile(t *testing.T) {
	p, err := Ms.ImportProfile(strings.NewReader(classicProfileJSON))
	assertError(t, err, nil)

	t.Run("Describes every stage", func(t *testing.T) {
		got := Ms.BreakdownProfile(p)

		assertInt(t, len(got), 2)
		assertString(t, got[0].Name, "Preinfusion")
		assertString(t, got[0].Unit, "ml/s")
		assertString(t, got[0].Dynamics.Summary, "Holds at 2.0 ml/s")
		assertString(t, got[1].Unit, "bar")
		assertString(t, got[1].Dynamics.Summary, "3.0 → 9.0 bar (ramping up)")
	})

	t.Run("Nil profile is empty, not a panic", func(t *testing.T) {
		got := Ms.BreakdownProfile(nil)
		assertInt(t, len(got), 0)
	})
}

func TestExportProfile(t *testing.T) {
	p, err := Ms.ImportProfile(strings.NewReader(classicProfileJSON))
	assertError(t, err, nil)

	var buf bytes.Buffer
	err = Ms.ExportProfile(&buf, p)
	assertError(t, err, nil)

	t.Run("Export keeps references symbolic", func(t *testing.T) {
		assertStringContains(t, buf.String(), `"$peak"`)
	})

	t.Run("Export round-trips through import", func(t *testing.T) {
		again, err := Ms.ImportProfile(&buf)
		assertError(t, err, nil)
		assertString(t, again.Name, p.Name)
		assertString(t, again.ID, p.ID)
	})
}

package meticd_test

import (
	"os"
	"path/filepath"
	"testing"

	Ms "github.com/meticai/meticd/server"
)

func TestLoadConfigFileName(t *testing.T) {
	writeConfig := func(t *testing.T, body string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "meticd.json")
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	t.Run("Loads machine stanzas", func(t *testing.T) {
		path := writeConfig(t, `[
  {"id": "kitchen", "url": "http://10.0.0.5:8080", "threshold_bar": 2.0},
  {"id": "bench", "url": "http://10.0.0.6:8080"}
]`)

		cf, err := Ms.LoadConfigFileName(path)

		assertError(t, err, nil)
		assertInt(t, len(cf), 2)
		assertString(t, cf[0].ID, "kitchen")
		assertString(t, cf[0].URL, "http://10.0.0.5:8080")
		assertFloat(t, cf[0].ThresholdBar, 2.0)
		assertFloat(t, cf[1].ThresholdBar, 0)
	})

	t.Run("Missing file is an error", func(t *testing.T) {
		_, err := Ms.LoadConfigFileName(filepath.Join(t.TempDir(), "nope.json"))
		assertGotError(t, err)
	})

	t.Run("Empty file fails validation", func(t *testing.T) {
		path := writeConfig(t, "")
		_, err := Ms.LoadConfigFileName(path)
		assertGotError(t, err)
	})

	t.Run("Garbage fails to decode", func(t *testing.T) {
		path := writeConfig(t, "{not json")
		_, err := Ms.LoadConfigFileName(path)
		assertGotError(t, err)
	})
}

func TestDefaultSettings(t *testing.T) {
	s := Ms.DefaultSettings()

	assertString(t, s.Theme, "dark")
	assertString(t, s.Units, "metric")
	assertFloat(t, s.DefaultDose, 18.0)
	assertFloat(t, s.BrewThresholdBar, Ms.DefaultBrewThreshold)
	if !s.AutoUpdate {
		t.Error("auto update should default on")
	}
}

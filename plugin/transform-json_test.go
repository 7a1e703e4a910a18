package plugin_test

import (
	"testing"
	"time"

	Mp "github.com/meticai/meticd/plugin"
)

func TestJSONKeyPlugin(t *testing.T) {
	statusBlob := `{
		"sensors": {
			"pressure": 9.1,
			"scale": {"weight": 18.4}
		},
		"state": "brewing"
	}`

	t.Run("Extracts a top-level numeric key", func(t *testing.T) {
		tj := Mp.NewJSONTransformer("sensors.pressure")
		got, err := tj.Transform(statusBlob, 0, nil, time.Now())

		assertError(t, err, nil)
		assertFloat(t, got, 9.1)
	})

	t.Run("Extracts a nested numeric key", func(t *testing.T) {
		tj := Mp.NewJSONTransformer("sensors.scale.weight")
		got, err := tj.Transform(statusBlob, 0, nil, time.Now())

		assertError(t, err, nil)
		assertFloat(t, got, 18.4)
	})

	t.Run("Missing key is an error", func(t *testing.T) {
		tj := Mp.NewJSONTransformer("sensors.volume")
		_, err := tj.Transform(statusBlob, 0, nil, time.Now())
		assertGotError(t, err)
	})

	t.Run("Non-numeric value is an error", func(t *testing.T) {
		tj := Mp.NewJSONTransformer("state")
		_, err := tj.Transform(statusBlob, 0, nil, time.Now())
		assertGotError(t, err)
	})

	t.Run("Invalid JSON is an error", func(t *testing.T) {
		tj := Mp.NewJSONTransformer("sensors.pressure")
		_, err := tj.Transform("{not json", 0, nil, time.Now())
		assertGotError(t, err)
	})

	t.Run("Returns Hysteresis and Type", func(t *testing.T) {
		tj := Mp.NewJSONTransformer("sensors.pressure")
		assertInt(t, tj.HysteresisReq(), -1)
		assertString(t, tj.Type(), "json_key")
	})
}

func TestExtractValue(t *testing.T) {
	t.Run("Traversal into an array is not supported", func(t *testing.T) {
		data := map[string]interface{}{
			"stages": []interface{}{1.0, 2.0},
		}
		_, err := Mp.ExtractValue(data, "stages.0")
		assertGotError(t, err)
	})

	t.Run("Traversal through a scalar is an error", func(t *testing.T) {
		data := map[string]interface{}{"pressure": 9.1}
		_, err := Mp.ExtractValue(data, "pressure.deeper")
		assertGotError(t, err)
	})
}

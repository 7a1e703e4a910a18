package plugin

/*
	JSONKey

	This plugin allows a JSON status blob to be used as telemetry.

	Returns a number from the value of a key inside a JSON object.

	This expects the /channel/ used by Transform to contain the entire JSON
*/

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

type JSONKeyPlugin struct {
	ChannelKey string
}

// NewJSONTransformer returns a struct for what to search in the JSON
func NewJSONTransformer(ck string) *JSONKeyPlugin {
	return &JSONKeyPlugin{ChannelKey: ck}
}

// Transform extracts the JSONKeyPlugin key from the JSON object
// held as the full 'channel', i.e. the entire JSON response body
func (tj *JSONKeyPlugin) Transform(channel string, current float64, historical []float64, timestamp time.Time) (float64, error) {

	var data interface{}
	if err := json.Unmarshal([]byte(channel), &data); err != nil {
		slog.Error("Error unmarshalling json",
			slog.String("search", tj.ChannelKey),
			slog.String("json", channel),
			slog.Any("error", err))
		return 0, fmt.Errorf("error unmarshalling json from channel: %v", err)
	}

	value, err := ExtractValue(data, tj.ChannelKey)
	if err != nil {
		return 0, fmt.Errorf("error extracting json value from channel: %v", err)
	}

	return value, nil
}

func ExtractValue(data interface{}, key string) (float64, error) {
	keys := strings.Split(key, ".")
	current := data

	for _, k := range keys {
		switch v := current.(type) {
		case map[string]interface{}:
			var ok bool
			current, ok = v[k]
			if !ok {
				return 0, fmt.Errorf("key %s not found", k)
			}
		case []interface{}:
			return 0, fmt.Errorf("array indexing not implemented yet")
		default:
			return 0, fmt.Errorf("cannot traverse into type %T at key %s", v, k)
		}
	}

	// Convert final value to float64
	switch v := current.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("error converting json.Number to float64: %v", err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("value not numeric, cannot traverse %T", v)
	}
}

func (tj *JSONKeyPlugin) HysteresisReq() int { return -1 } // Not applicable
func (tj *JSONKeyPlugin) Type() string       { return "json_key" }

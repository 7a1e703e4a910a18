package types

/*

	These are the "immutable" core types of MeticAI,
	provided for cross-package use (e.g. Plugins) and testing.

	There are no functions defined here except the JSON codec
	for the tagged PointValue union, which cannot live anywhere else.
	Struct constructors are housed in their own packages.
	Methods taking these types should create local aliases,
	for example: type Stages []Mt.Stage

*/

import (
	"encoding/json"
	"strings"
	"time"
)

// RefSigil marks a symbolic variable reference inside point data.
// A value of "$peak" points at the Variable whose Key is "peak".
const RefSigil = "$"

// PointValue is one control point value: either a literal number
// or a symbolic reference to a named Variable. Profiles on disk mix
// both freely, so this decodes from a JSON number or a "$key" string.
type PointValue struct {
	Literal float64
	Ref     string
	IsRef   bool
	Valid   bool // false when the raw input was neither number nor reference
}

// LiteralValue builds a plain numeric PointValue
func LiteralValue(f float64) PointValue {
	return PointValue{Literal: f, Valid: true}
}

// RefValue builds a symbolic PointValue by variable key (no sigil)
func RefValue(key string) PointValue {
	return PointValue{Ref: key, IsRef: true, Valid: true}
}

func (pv *PointValue) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*pv = LiteralValue(num)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if strings.HasPrefix(s, RefSigil) {
			*pv = RefValue(strings.TrimPrefix(s, RefSigil))
			return nil
		}
	}

	// Anything else stays unresolvable, this is never an error
	*pv = PointValue{}
	return nil
}

func (pv PointValue) MarshalJSON() ([]byte, error) {
	if pv.IsRef {
		return json.Marshal(RefSigil + pv.Ref)
	}
	if !pv.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(pv.Literal)
}

// ControlPoint is one (position, value) sample on a dynamics curve.
// Position is seconds or grams depending on the curve axis.
type ControlPoint struct {
	Position float64    `json:"position"`
	Value    PointValue `json:"value"`
}

// Variable is a named reusable number, referenced by Key
// from control points and limits anywhere in the profile.
type Variable struct {
	Name  string  `json:"name"`
	Key   string  `json:"key"`
	Type  string  `json:"type"` // pressure, flow, power, weight, time
	Value float64 `json:"value"`
}

// StageDynamics is the control curve for one brewing stage.
// Points are ordered by ascending Position and may be empty,
// in which case the stage is static.
type StageDynamics struct {
	Points        []ControlPoint `json:"points"`
	Over          string         `json:"over"`                    // "time" or "weight"
	Interpolation string         `json:"interpolation,omitempty"` // "linear" or "curve"
}

// Pattern is the qualitative shape classification of a dynamics curve.
// It is derived on every render, never stored.
type Pattern string

const (
	PatternFlat        Pattern = "flat"
	PatternAscending   Pattern = "ascending"
	PatternDescending  Pattern = "descending"
	PatternRampUpHold  Pattern = "ramp-up-hold"
	PatternRampDnHold  Pattern = "ramp-down-hold"
	PatternPeak        Pattern = "peak"
	PatternValley      Pattern = "valley"
	PatternOscillating Pattern = "oscillating"
	PatternComplex     Pattern = "complex"
)

// DynamicsDescription is the human-readable readout of one stage curve.
// A pure function of (StageDynamics, stage type, variables).
type DynamicsDescription struct {
	Summary    string   `json:"summary"`
	StartValue *float64 `json:"startValue"`
	EndValue   *float64 `json:"endValue"`
	Pattern    Pattern  `json:"pattern"`
	Duration   string   `json:"duration,omitempty"`
}

// ExitTrigger ends a stage when a telemetry channel crosses a value.
type ExitTrigger struct {
	Kind     string     `json:"kind"` // time, weight, pressure, flow
	Value    PointValue `json:"value"`
	Relative bool       `json:"relative,omitempty"`
}

// Limit caps a channel during a stage, e.g. max flow while pressure-driven.
type Limit struct {
	Kind  string     `json:"kind"`
	Value PointValue `json:"value"`
}

// Stage is one phase of an extraction profile.
type Stage struct {
	Name     string         `json:"name"`
	Key      string         `json:"key"`
	Type     string         `json:"type"` // pressure, flow, power
	Dynamics *StageDynamics `json:"dynamics,omitempty"`
	ExitIf   []ExitTrigger  `json:"exit_triggers,omitempty"`
	Limits   []Limit        `json:"limits,omitempty"`
}

// Profile is a complete extraction profile as the machine consumes it.
type Profile struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Author      string     `json:"author,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	Temperature float64    `json:"temperature"`  // group temperature, Celsius
	FinalWeight float64    `json:"final_weight"` // target beverage weight, grams
	Variables   []Variable `json:"variables,omitempty"`
	Stages      []Stage    `json:"stages"`
}

// Sample is one telemetry reading from the machine, taken once per poll.
type Sample struct {
	Timestamp   time.Time `json:"timestamp"`
	Pressure    float64   `json:"pressure"`    // bar
	Flow        float64   `json:"flow"`        // ml/s
	Weight      float64   `json:"weight"`      // cumulative grams
	Temperature float64   `json:"temperature"` // Celsius
	State       string    `json:"state"`       // idle, heating, brewing, ...
}

// Shot is one finished extraction, keyed by StartTime in the store.
type Shot struct {
	ID         string        `json:"id"`
	ProfileID  string        `json:"profile_id,omitempty"`
	Profile    string        `json:"profile"`
	StartTime  time.Time     `json:"start_time"`
	Duration   time.Duration `json:"duration"`
	Samples    []Sample      `json:"samples"`
	FinalYield float64       `json:"final_yield"` // grams in the cup
}

// Timeseries is a generic fixed ring of display runes,
// one rune per second of live telemetry.
type Timeseries struct {
	Runes   []rune
	MaxSize int
	Current int
}

// Settings are the user-tunable knobs persisted in the store.
type Settings struct {
	Theme            string  `json:"theme,omitempty"`
	Units            string  `json:"units,omitempty"`
	DefaultDose      float64 `json:"default_dose,omitempty"`
	BrewThresholdBar float64 `json:"brew_threshold_bar,omitempty"`
	AutoUpdate       bool    `json:"auto_update"`
}

// ScheduledShot is a pending request to run a profile at a wall-clock time.
type ScheduledShot struct {
	ID        string    `json:"id"`
	ProfileID string    `json:"profile_id"`
	At        time.Time `json:"at"`
}

// ChangelogEntry is one release note served to the UI.
type ChangelogEntry struct {
	Version string   `json:"version"`
	Date    string   `json:"date"`
	Changes []string `json:"changes"`
}

package plugin

/*

	The Adapter sits aside /meticd/
	Contains core interfaces for Plugin

*/

import (
	"time"

	Mt "github.com/meticai/meticd/types"
)

// SampleTransformer derives a telemetry channel the firmware doesn't
// report, e.g. flow rate out of the cumulative scale weight.
// The amount of hysteresis needed for the calculation,
// for instance rates need 1, moving average 4,
// derivative (acceleration) 2, simple threshold check 0.
type SampleTransformer interface {
	Transform(channel string, current float64, historical []float64, timestamp time.Time) (float64, error)
	HysteresisReq() int // Required measurements in the past needed for calculation
	Type() string       // Unique ID for the transformer
}

// OutputAdapter can be used to define a place for finished shots to go,
// shot-by-shot or in batches if supported by the output type.
type OutputAdapter interface {
	WriteShot(shot *Mt.Shot) error                           // Write singleton shot data
	WriteBatch(shots []*Mt.Shot) error                       // Write batches of shots
	QueryRange(start, end time.Time) ([]*Mt.Shot, error)     // Time range query tool
	Flush() error                                            // Flush any buffered data
	Close() error                                            // Close the adapter and release resources
	Type() string                                            // ID for output
}

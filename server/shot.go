package meticd

import (
	"time"

	"github.com/google/uuid"
	Mt "github.com/meticai/meticd/types"
)

// NewShot builds the record for a finished extraction.
// What really matters for history is the sample trace:
// duration and yield are conveniences derived from it.
func NewShot(profile string, start time.Time, samples []Mt.Sample) *Mt.Shot {
	shot := &Mt.Shot{
		ID:        uuid.NewString(),
		Profile:   profile,
		StartTime: start,
		Samples:   append([]Mt.Sample(nil), samples...),
	}

	if n := len(samples); n > 0 {
		shot.Duration = samples[n-1].Timestamp.Sub(start)
		shot.FinalYield = samples[n-1].Weight
	}

	return shot
}

// ShotAge is how long ago a shot was pulled, for the history view
func ShotAge(s *Mt.Shot) time.Duration {
	return time.Since(s.StartTime)
}

package meticd

import (
	"math"

	Mt "github.com/meticai/meticd/types"
)

/*

	Shot comparison.

	Two shots never sample at the same instants, so before the UI can
	overlay them each channel is resampled onto a shared uniform time
	grid with linear interpolation. Times are seconds from shot start.

*/

// DefaultCompareStep is the grid spacing in seconds.
const DefaultCompareStep = 0.5

// ComparePoint is one grid sample of both shots plus their difference.
type ComparePoint struct {
	T     float64 `json:"t"`
	A     float64 `json:"a"`
	B     float64 `json:"b"`
	Delta float64 `json:"delta"`
}

// CompareSeries is one telemetry channel resampled for both shots.
type CompareSeries struct {
	Channel string         `json:"channel"`
	Points  []ComparePoint `json:"points"`
}

// ShotComparison is the full overlay of two shots.
type ShotComparison struct {
	ShotA  string          `json:"shot_a"`
	ShotB  string          `json:"shot_b"`
	Step   float64         `json:"step"`
	Series []CompareSeries `json:"series"`
}

// channelPickers maps channel names to sample accessors.
var channelPickers = map[string]func(Mt.Sample) float64{
	"pressure":    func(s Mt.Sample) float64 { return s.Pressure },
	"flow":        func(s Mt.Sample) float64 { return s.Flow },
	"weight":      func(s Mt.Sample) float64 { return s.Weight },
	"temperature": func(s Mt.Sample) float64 { return s.Temperature },
}

// compareChannels fixes the output ordering, maps don't
var compareChannels = []string{"pressure", "flow", "weight", "temperature"}

// CompareShots overlays two shots on a shared grid.
// Either shot having no samples yields an empty comparison, never a panic.
func CompareShots(a, b *Mt.Shot, step float64) ShotComparison {
	if step <= 0 {
		step = DefaultCompareStep
	}

	cmp := ShotComparison{Step: step}
	if a != nil {
		cmp.ShotA = a.ID
	}
	if b != nil {
		cmp.ShotB = b.ID
	}

	if a == nil || b == nil || len(a.Samples) == 0 || len(b.Samples) == 0 {
		cmp.Series = []CompareSeries{}
		return cmp
	}

	// Grid covers the longer of the two shots,
	// the shorter one clamps to its final sample.
	span := math.Max(shotSpan(a), shotSpan(b))
	n := int(span/step) + 1

	for _, ch := range compareChannels {
		pick := channelPickers[ch]
		series := CompareSeries{Channel: ch, Points: make([]ComparePoint, 0, n)}

		for i := 0; i < n; i++ {
			t := float64(i) * step
			va := resample(a, pick, t)
			vb := resample(b, pick, t)
			series.Points = append(series.Points, ComparePoint{
				T:     FloatPrecise(t, 3),
				A:     FloatPrecise(va, 3),
				B:     FloatPrecise(vb, 3),
				Delta: FloatPrecise(vb-va, 3),
			})
		}
		cmp.Series = append(cmp.Series, series)
	}

	return cmp
}

// shotSpan is the elapsed seconds of the last sample
func shotSpan(s *Mt.Shot) float64 {
	last := s.Samples[len(s.Samples)-1]
	return last.Timestamp.Sub(s.StartTime).Seconds()
}

// resample linearly interpolates one channel at t seconds from shot start.
// Before the first sample or after the last it clamps to the edge value.
func resample(s *Mt.Shot, pick func(Mt.Sample) float64, t float64) float64 {
	samples := s.Samples

	first := samples[0].Timestamp.Sub(s.StartTime).Seconds()
	if t <= first {
		return pick(samples[0])
	}

	for i := 1; i < len(samples); i++ {
		ti := samples[i].Timestamp.Sub(s.StartTime).Seconds()
		if t > ti {
			continue
		}

		tp := samples[i-1].Timestamp.Sub(s.StartTime).Seconds()
		if ti == tp {
			// duplicate timestamps, take the later reading
			return pick(samples[i])
		}

		frac := (t - tp) / (ti - tp)
		vp := pick(samples[i-1])
		return vp + frac*(pick(samples[i])-vp)
	}

	return pick(samples[len(samples)-1])
}

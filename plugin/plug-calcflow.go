package plugin

/*
	CalcFlow

	Derives flow rate (ml/s) from the cumulative scale weight
	for firmware builds that don't report a flow channel.
	Espresso is close enough to 1 g/ml that weight delta per
	second reads directly as flow.

	~~~ Plugin Reference Implementation ~~~
*/

import (
	"time"
)

type CalcFlowPlugin struct {
	PrevVal  map[string]float64
	PrevTime map[string]time.Time
}

// Transform is the main wrapper for the interface.
// Other calculation functions should be called from here.
func (p *CalcFlowPlugin) Transform(channel string, current float64, historical []float64, timestamp time.Time) (float64, error) {
	// Check the value in the plugin struct
	if prev, exists := p.PrevVal[channel]; exists {
		rate := CalcRate(current, prev, timestamp, p.PrevTime[channel])
		p.PrevVal[channel] = current
		p.PrevTime[channel] = timestamp
		return rate, nil
	}

	// No rate, first time reading
	// If it's not even initialized, fix that too
	if p.PrevVal == nil {
		p.PrevVal = make(map[string]float64)
		p.PrevTime = make(map[string]time.Time)
	}
	p.PrevVal[channel] = current
	p.PrevTime[channel] = timestamp
	return 0, nil
}

// CalcRate is a generic rate calculator that
// receives two sequential readings and their timestamps
// and returns the rate per second
func CalcRate(curr, prev float64, currtime, prevtime time.Time) float64 {
	delta := curr - prev
	timeDelta := currtime.Sub(prevtime).Seconds()

	if timeDelta <= 0 {
		return 0
	}

	// Handle scale tare mid-shot (weight reset to 0)
	if delta < 0 {
		delta = curr
	}

	return delta / timeDelta
}

func (p *CalcFlowPlugin) HysteresisReq() int { return 1 }
func (p *CalcFlowPlugin) Type() string       { return "calc_flow" }

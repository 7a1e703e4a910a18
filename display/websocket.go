package meticd

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	Ms "github.com/meticai/meticd/server"
)

// TelemetryFrame is one websocket message for the live charts UI.
type TelemetryFrame struct {
	Machine  string  `json:"machine"`
	T        string  `json:"t"`        // sample wall-clock time
	Pressure float64 `json:"pressure"` // bar
	Flow     float64 `json:"flow"`     // ml/s
	Weight   float64 `json:"weight"`   // cumulative grams
	Temp     float64 `json:"temperature"`
	State    string  `json:"state"`
	InShot   bool    `json:"inShot"`
	ShotTime float64 `json:"shotTime"` // seconds since shot start, 0 when idle
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (v *View) WebsocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// Send telemetry frames at chart rate
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			frames := v.GetTelemetryFrames()
			if err := conn.WriteJSON(frames); err != nil {
				return // Connection closed
			}
		}
	}
}

func (v *View) GetTelemetryFrames() []TelemetryFrame {
	// Make sure we're not nil
	if v.Net == nil || v.Net.Network == nil {
		return []TelemetryFrame{}
	}

	// Lock the MachineNet
	v.Net.MU.RLock()
	defer v.Net.MU.RUnlock()

	var frames []TelemetryFrame

	for _, m := range v.Net.Network {
		// Check for nil machines first
		if m == nil {
			continue
		}

		// Lock the Machine
		m.MU.RLock()

		frame := TelemetryFrame{
			Machine:  m.ID,
			T:        m.Latest.Timestamp.Format(time.RFC3339Nano),
			Pressure: Ms.FloatPrecise(m.Latest.Pressure, 2),
			Flow:     Ms.FloatPrecise(m.Latest.Flow, 2),
			Weight:   Ms.FloatPrecise(m.Latest.Weight, 2),
			Temp:     Ms.FloatPrecise(m.Latest.Temperature, 2),
			State:    m.Latest.State,
			InShot:   m.InShot,
		}
		if m.InShot {
			frame.ShotTime = Ms.FloatPrecise(m.Latest.Timestamp.Sub(m.ShotStart).Seconds(), 1)
		}
		frames = append(frames, frame)

		m.MU.RUnlock()
	}
	return frames
}

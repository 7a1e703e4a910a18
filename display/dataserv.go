package meticd

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	Ms "github.com/meticai/meticd/server"
)

// SetupMux handles all data serving:
// - Prometheus metric endpoint
// - Websocket specialized for the charts UI
// - Version for programmatic use
// - Profile, history, settings, and machine endpoints for the SPA
func (v *View) SetupMux() *mux.Router {
	r := mux.NewRouter()

	r.Handle("/metrics", v.Stats.Handler())
	r.HandleFunc("/ws", v.WebsocketHandler)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(v.StatsMiddleware)

	api.HandleFunc("/version", v.VersionHandler).Methods("GET")
	api.HandleFunc("/status", v.StatusHandler).Methods("GET")

	api.HandleFunc("/machine/profiles", v.MachineProfilesHandler).Methods("GET")
	api.HandleFunc("/machine/profiles/{id}/load", v.LoadProfileHandler).Methods("POST")

	api.HandleFunc("/profile/import", v.ImportProfileHandler).Methods("POST")
	api.HandleFunc("/profile/{id}/export", v.ExportProfileHandler).Methods("GET")
	api.HandleFunc("/profile/{id}/breakdown", v.BreakdownHandler).Methods("GET")
	api.HandleFunc("/profiles", v.ListProfilesHandler).Methods("GET")
	api.HandleFunc("/generate", v.GenerateHandler).Methods("POST")

	api.HandleFunc("/history", v.HistoryHandler).Methods("GET")
	api.HandleFunc("/history/{id}", v.ShotHandler).Methods("GET")
	api.HandleFunc("/compare", v.CompareHandler).Methods("GET")

	api.HandleFunc("/settings", v.SettingsHandler).Methods("GET", "PUT")
	api.HandleFunc("/changelog", v.ChangelogHandler).Methods("GET")

	api.HandleFunc("/schedule", v.ScheduleHandler).Methods("GET", "POST")
	api.HandleFunc("/schedule/{id}", v.UnscheduleHandler).Methods("DELETE")

	// Static files for the SPA frontend
	r.PathPrefix("/").Handler(http.FileServer(http.Dir("./web/")))

	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "meticd.http")
	})

	return r
}

var Version = "dev"

func (v *View) VersionHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"version": Version})
}

// MachineStatus is the UI feedback blob for the status bar.
type MachineStatus struct {
	Machine   string  `json:"machine"`
	State     string  `json:"state"`
	Pressure  float64 `json:"pressure"`
	Flow      float64 `json:"flow"`
	Weight    float64 `json:"weight"`
	Temp      float64 `json:"temperature"`
	InShot    bool    `json:"inShot"`
	Profile   string  `json:"profile,omitempty"`
	ShotStart string  `json:"shotStart,omitempty"`
}

func (v *View) StatusHandler(w http.ResponseWriter, r *http.Request) {
	v.Net.MU.RLock()
	defer v.Net.MU.RUnlock()

	var all []MachineStatus

	for _, m := range v.Net.Network {
		if m == nil {
			continue
		}
		m.MU.RLock()

		st := MachineStatus{
			Machine:  m.ID,
			State:    m.Latest.State,
			Pressure: Ms.FloatPrecise(m.Latest.Pressure, 2),
			Flow:     Ms.FloatPrecise(m.Latest.Flow, 2),
			Weight:   Ms.FloatPrecise(m.Latest.Weight, 2),
			Temp:     Ms.FloatPrecise(m.Latest.Temperature, 2),
			InShot:   m.InShot,
			Profile:  m.Profile,
		}
		if m.InShot {
			st.ShotStart = m.ShotStart.Format("15:04:05")
		}
		all = append(all, st)

		m.MU.RUnlock()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(all)
}

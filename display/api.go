package meticd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	_ "embed"

	"github.com/gorilla/mux"

	Ma "github.com/meticai/meticd/ai"
	Mp "github.com/meticai/meticd/plugin"
	Ms "github.com/meticai/meticd/server"
	Mt "github.com/meticai/meticd/types"
)

//go:embed changelog.json
var changelogJSON []byte

// maxUploadBytes caps the generate endpoint's photo upload
const maxUploadBytes = 16 << 20

// apiError sends a JSON error body so the SPA never parses raw text
func apiError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

// machineFor picks the target machine, ?machine= index or the first one
func (v *View) machineFor(r *http.Request) (*Ms.Machine, error) {
	v.Net.MU.RLock()
	defer v.Net.MU.RUnlock()

	if len(v.Net.Network) == 0 {
		return nil, errors.New("no machines configured")
	}

	idx := 0
	if q := r.URL.Query().Get("machine"); q != "" {
		i, err := strconv.Atoi(q)
		if err != nil || i < 0 || i >= len(v.Net.Network) {
			return nil, fmt.Errorf("no machine at index %q", q)
		}
		idx = i
	}
	return v.Net.Network[idx], nil
}

func (v *View) MachineProfilesHandler(w http.ResponseWriter, r *http.Request) {
	m, err := v.machineFor(r)
	if err != nil {
		apiError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	profiles, err := Ms.ListMachineProfiles(m)
	if err != nil {
		apiError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, profiles)
}

func (v *View) LoadProfileHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	p, err := v.Store.GetProfile(id)
	if err != nil {
		apiError(w, statusFor(err), err.Error())
		return
	}

	m, err := v.machineFor(r)
	if err != nil {
		apiError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	if err := Ms.LoadProfile(m, p); err != nil {
		apiError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, map[string]string{"loaded": p.ID})
}

func (v *View) ImportProfileHandler(w http.ResponseWriter, r *http.Request) {
	p, err := Ms.ImportProfile(r.Body)
	if err != nil {
		apiError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := v.Store.SaveProfile(p); err != nil {
		apiError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, p)
}

func (v *View) ExportProfileHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	p, err := v.Store.GetProfile(id)
	if err != nil {
		apiError(w, statusFor(err), err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", p.Name+".json"))
	if err := Ms.ExportProfile(w, p); err != nil {
		slog.Error("Could not export profile", slog.Any("Error", err))
	}
}

func (v *View) BreakdownHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	p, err := v.Store.GetProfile(id)
	if err != nil {
		apiError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, Ms.BreakdownProfile(p))
}

func (v *View) ListProfilesHandler(w http.ResponseWriter, r *http.Request) {
	profiles, err := v.Store.ListProfiles()
	if err != nil {
		apiError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if profiles == nil {
		profiles = []*Mt.Profile{}
	}
	writeJSON(w, profiles)
}

// GenerateHandler accepts a multipart form: text fields plus photo files.
// The heavy lifting happens in the ai package, this is just plumbing.
func (v *View) GenerateHandler(w http.ResponseWriter, r *http.Request) {
	if v.Gen == nil {
		apiError(w, http.StatusServiceUnavailable, "profile generator not configured")
		return
	}

	req, err := parseGenerateForm(r)
	if err != nil {
		apiError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := v.Gen.GenerateProfile(r.Context(), req)
	if err != nil {
		apiError(w, http.StatusBadGateway, err.Error())
		return
	}

	if err := v.Store.SaveProfile(p); err != nil {
		apiError(w, http.StatusInternalServerError, err.Error())
		return
	}

	v.Stats.Generated.Inc()
	writeJSON(w, p)
}

func parseGenerateForm(r *http.Request) (Ma.GenerateRequest, error) {
	var req Ma.GenerateRequest

	// A bare JSON body works too, for clients without photos
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		err := json.NewDecoder(r.Body).Decode(&req)
		return req, err
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return req, fmt.Errorf("could not parse upload: %w", err)
	}

	req.Taste = r.FormValue("taste")
	if tags := r.FormValue("tags"); tags != "" {
		req.Tags = strings.Split(tags, ",")
	}
	req.Language = r.FormValue("language")
	req.Dose, _ = strconv.ParseFloat(r.FormValue("dose"), 64)
	req.Temp, _ = strconv.ParseFloat(r.FormValue("temp"), 64)
	req.Ratio, _ = strconv.ParseFloat(r.FormValue("ratio"), 64)

	if r.MultipartForm == nil {
		return req, nil
	}

	for _, fh := range r.MultipartForm.File["photos"] {
		f, err := fh.Open()
		if err != nil {
			return req, fmt.Errorf("could not read photo: %w", err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return req, fmt.Errorf("could not read photo: %w", err)
		}
		mime := fh.Header.Get("Content-Type")
		if mime == "" {
			mime = "image/jpeg"
		}
		req.Photos = append(req.Photos, Ma.Photo{MIMEType: mime, Data: data})
	}

	return req, nil
}

// ShotSummary is the history list entry, samples stay out of the list view
type ShotSummary struct {
	ID         string  `json:"id"`
	Profile    string  `json:"profile"`
	StartTime  string  `json:"start_time"`
	DurationS  float64 `json:"duration_s"`
	FinalYield float64 `json:"final_yield"`
	Samples    int     `json:"samples"`
}

func (v *View) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	start, end := rangeFor(r)

	shots, err := v.Store.QueryRange(start, end)
	if err != nil {
		apiError(w, http.StatusInternalServerError, err.Error())
		return
	}

	summaries := make([]ShotSummary, 0, len(shots))
	for _, s := range shots {
		summaries = append(summaries, ShotSummary{
			ID:         s.ID,
			Profile:    s.Profile,
			StartTime:  s.StartTime.Format(time.RFC3339),
			DurationS:  Ms.FloatPrecise(s.Duration.Seconds(), 1),
			FinalYield: Ms.FloatPrecise(s.FinalYield, 1),
			Samples:    len(s.Samples),
		})
	}
	writeJSON(w, summaries)
}

// rangeFor reads ?start and ?end as RFC3339, defaulting to the last month
func rangeFor(r *http.Request) (time.Time, time.Time) {
	end := time.Now().Add(time.Minute)
	start := end.AddDate(0, -1, 0)

	if q := r.URL.Query().Get("start"); q != "" {
		if t, err := time.Parse(time.RFC3339, q); err == nil {
			start = t
		}
	}
	if q := r.URL.Query().Get("end"); q != "" {
		if t, err := time.Parse(time.RFC3339, q); err == nil {
			end = t
		}
	}
	return start, end
}

func (v *View) ShotHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	shot, err := v.Store.GetShot(id)
	if err != nil {
		apiError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, shot)
}

func (v *View) CompareHandler(w http.ResponseWriter, r *http.Request) {
	a := r.URL.Query().Get("a")
	b := r.URL.Query().Get("b")
	if a == "" || b == "" {
		apiError(w, http.StatusBadRequest, "compare needs ?a= and ?b= shot IDs")
		return
	}

	shotA, err := v.Store.GetShot(a)
	if err != nil {
		apiError(w, statusFor(err), err.Error())
		return
	}
	shotB, err := v.Store.GetShot(b)
	if err != nil {
		apiError(w, statusFor(err), err.Error())
		return
	}

	step, _ := strconv.ParseFloat(r.URL.Query().Get("step"), 64)
	writeJSON(w, Ms.CompareShots(shotA, shotB, step))
}

func (v *View) SettingsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s, err := v.Store.LoadSettings()
		if errors.Is(err, Mp.ErrNotFound) {
			s = Ms.DefaultSettings()
		} else if err != nil {
			apiError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, s)

	case http.MethodPut:
		var s Mt.Settings
		if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
			apiError(w, http.StatusBadRequest, "could not decode settings")
			return
		}
		if err := v.Store.SaveSettings(s); err != nil {
			apiError(w, http.StatusInternalServerError, err.Error())
			return
		}

		// The brew threshold feeds straight into shot detection
		if s.BrewThresholdBar > 0 {
			v.Net.MU.RLock()
			for _, m := range v.Net.Network {
				m.MU.Lock()
				m.Threshold = s.BrewThresholdBar
				m.MU.Unlock()
			}
			v.Net.MU.RUnlock()
		}

		writeJSON(w, s)
	}
}

func (v *View) ChangelogHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(changelogJSON)
}

func (v *View) ScheduleHandler(w http.ResponseWriter, r *http.Request) {
	if v.Sched == nil {
		apiError(w, http.StatusServiceUnavailable, "scheduler not running")
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, v.Sched.List())

	case http.MethodPost:
		var req Mt.ScheduledShot
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apiError(w, http.StatusBadRequest, "could not decode schedule request")
			return
		}
		if _, err := v.Store.GetProfile(req.ProfileID); err != nil {
			apiError(w, statusFor(err), err.Error())
			return
		}

		entry, err := v.Sched.Schedule(req.ProfileID, req.At)
		if err != nil {
			apiError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, entry)
	}
}

func (v *View) UnscheduleHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if v.Sched == nil || !v.Sched.Cancel(id) {
		apiError(w, http.StatusNotFound, "no such scheduled shot")
		return
	}
	writeJSON(w, map[string]string{"cancelled": id})
}

// statusFor maps store misses to 404 and everything else to 500
func statusFor(err error) int {
	if errors.Is(err, Mp.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// RespWriter is a wrapper with StatsMiddleware, used for Prometheus
type RespWriter struct {
	http.ResponseWriter
	Status int
}

// WriteHeader is a helper for StatsMiddleware, used for Prometheus
func (w *RespWriter) WriteHeader(status int) {
	w.Status = status
	w.ResponseWriter.WriteHeader(status)
}

// Write is a helper for StatsMiddleware, used for Prometheus
func (w *RespWriter) Write(b []byte) (int, error) {
	return w.ResponseWriter.Write(b)
}

func (v *View) StatsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped := &RespWriter{
			ResponseWriter: w,
			Status:         200,
		}
		next.ServeHTTP(wrapped, r)

		v.Stats.RecWWW(strconv.Itoa(wrapped.Status), r.Method)
	})
}

package meticd

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatsInternal is the service's own prometheus registry.
// Everything observable about meticd funnels through here
// and out the /metrics endpoint.
type StatsInternal struct {
	Registry   *prometheus.Registry
	WWW        *prometheus.CounterVec
	Polls      prometheus.Counter
	PollErrors prometheus.Counter
	ShotsTotal prometheus.Counter
	ActiveShot prometheus.Gauge
	Generated  prometheus.Counter
}

// NewStatsInternal builds the registry with Go runtime collectors attached
func NewStatsInternal() *StatsInternal {
	reg := prometheus.NewRegistry()

	s := &StatsInternal{
		Registry: reg,
		WWW: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meticd_http_requests_total",
			Help: "API requests served, by status code and method.",
		}, []string{"code", "method"}),
		Polls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meticd_machine_polls_total",
			Help: "Telemetry polls against the machine.",
		}),
		PollErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meticd_machine_poll_errors_total",
			Help: "Telemetry polls that failed.",
		}),
		ShotsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meticd_shots_total",
			Help: "Finished extractions recorded.",
		}),
		ActiveShot: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "meticd_shot_active",
			Help: "1 while an extraction is running.",
		}),
		Generated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meticd_profiles_generated_total",
			Help: "Profiles produced by the AI generator.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		s.WWW,
		s.Polls,
		s.PollErrors,
		s.ShotsTotal,
		s.ActiveShot,
		s.Generated,
	)

	return s
}

// RecWWW counts one served API request
func (s *StatsInternal) RecWWW(code, method string) {
	s.WWW.WithLabelValues(code, method).Inc()
}

// Handler serves the registry for the /metrics endpoint
func (s *StatsInternal) Handler() http.Handler {
	return promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{})
}

package meticd_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	Mo "github.com/meticai/meticd/obvy"
)

func TestStatsInternal(t *testing.T) {
	stats := Mo.NewStatsInternal()

	stats.RecWWW("200", "GET")
	stats.RecWWW("200", "GET")
	stats.RecWWW("404", "GET")
	stats.Polls.Inc()
	stats.ShotsTotal.Inc()
	stats.ActiveShot.Set(1)

	r := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	stats.Handler().ServeHTTP(w, r)

	if w.Code != 200 {
		t.Fatalf("metrics endpoint returned %d", w.Code)
	}

	body := w.Body.String()
	wants := []string{
		`meticd_http_requests_total{code="200",method="GET"} 2`,
		`meticd_http_requests_total{code="404",method="GET"} 1`,
		`meticd_machine_polls_total 1`,
		`meticd_shots_total 1`,
		`meticd_shot_active 1`,
		"go_goroutines", // runtime collectors ride along
	}
	for _, want := range wants {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestStatsInternal_IndependentRegistries(t *testing.T) {
	a := Mo.NewStatsInternal()
	b := Mo.NewStatsInternal()

	a.Polls.Inc()

	r := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	b.Handler().ServeHTTP(w, r)

	if strings.Contains(w.Body.String(), "meticd_machine_polls_total 1") {
		t.Error("registries should not share counters")
	}
}

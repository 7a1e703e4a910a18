package meticd_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	Ms "github.com/meticai/meticd/server"
)

// makeMockFeed serves a plaintext telemetry body
func makeMockFeed(body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(body))
	}))
}

func TestPollNetAll(t *testing.T) {
	t.Run("One poll updates live state", func(t *testing.T) {
		feed := makeMockFeed("pressure=6.2\nflow=2.0\nweight=11.0\n")
		defer feed.Close()

		view := makeTestView(t)
		view.Net.Network[0].BaseURL = feed.URL

		view.PollNetAll()

		assertFloat(t, view.Net.Network[0].Latest.Pressure, 6.2)
		if !view.Net.Network[0].InShot {
			t.Error("6.2 bar should read as an active shot")
		}
	})

	t.Run("Unreachable machine counts an error, not a crash", func(t *testing.T) {
		view := makeTestView(t)
		view.PollNetAll()
	})
}

func TestPollSupervisor(t *testing.T) {
	feed := makeMockFeed("pressure=0.4\n")
	defer feed.Close()

	view := makeTestView(t)
	view.Net.Network[0].BaseURL = feed.URL
	view.NewPollSupervisor()

	t.Run("Start polls on the ticker", func(t *testing.T) {
		view.Supervisor.Start()
		defer view.Supervisor.Stop()

		deadline := time.Now().Add(3 * time.Second)
		for time.Now().Before(deadline) {
			view.Net.Network[0].MU.RLock()
			got := view.Net.Network[0].Latest.Pressure
			view.Net.Network[0].MU.RUnlock()
			if got == 0.4 {
				return
			}
			time.Sleep(50 * time.Millisecond)
		}
		t.Error("supervisor never polled the feed")
	})

	t.Run("Stop is idempotent enough for shutdown paths", func(t *testing.T) {
		view.Supervisor.Start()
		view.Supervisor.Stop()
	})

	t.Run("Restart keeps polling", func(t *testing.T) {
		view.Supervisor.Start()
		view.Supervisor.Restart()
		view.Supervisor.Stop()
	})
}

func TestReloadConfig(t *testing.T) {
	view := makeTestView(t)
	view.NewPollSupervisor()
	view.Supervisor.Start()
	defer view.Supervisor.Stop()

	cf := []Ms.ConfigFile{
		{ID: "bench", URL: "http://10.0.0.6:8080", ThresholdBar: 2.0},
	}

	assertError(t, view.ReloadConfig(cf), nil)

	view.Net.MU.RLock()
	defer view.Net.MU.RUnlock()
	assertInt(t, len(view.Net.Network), 1)
	assertString(t, view.Net.Network[0].ID, "bench")
}

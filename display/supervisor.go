package meticd

import (
	"log/slog"
	"sync"
	"time"

	Ms "github.com/meticai/meticd/server"
)

type PollSupervisor struct {
	View     *View
	Ticker   *time.Ticker
	StopChan chan struct{}
	WG       sync.WaitGroup
}

// NewPollSupervisor is a wrapper around the View that manages polling goroutines
// They are strongly coupled, one knows about the other
func (v *View) NewPollSupervisor() *PollSupervisor {
	ps := &PollSupervisor{
		View: v,
	}
	v.Supervisor = ps
	return ps
}

// ReloadConfig swaps the machine network under a stopped supervisor
func (v *View) ReloadConfig(c []Ms.ConfigFile) error {
	v.Supervisor.Stop()

	// Build new machines from config
	// and replace the existing network
	ms, err := Ms.NewMachinesFromConfig(c)
	if err != nil {
		slog.Error("Could not reload config", slog.Any("Error", err))
		return err
	}

	v.Net.MU.Lock()
	v.Net.Network = ms
	v.Net.MU.Unlock()

	v.Supervisor.Start()
	return nil
}

// Start the PollSupervisor
func (p *PollSupervisor) Start() {
	p.StopChan = make(chan struct{})
	p.Ticker = time.NewTicker(1 * time.Second)

	p.WG.Add(1)
	go func() {
		defer p.WG.Done()
		defer p.Ticker.Stop()

		for {
			select {
			case <-p.Ticker.C:
				p.View.PollNetAll()
			case <-p.StopChan:
				return
			}
		}
	}()
}

// Stop the PollSupervisor
func (p *PollSupervisor) Stop() {
	if p.StopChan != nil {
		close(p.StopChan)
		p.WG.Wait()
	}
}

// Restart the PollSupervisor
func (p *PollSupervisor) Restart() {
	p.Stop()
	p.Start()
}

// PollNetAll runs one telemetry poll across the machine network
// and keeps the shot gauge current
func (v *View) PollNetAll() {
	v.Stats.Polls.Inc()

	if err := v.Net.PollMulti(); err != nil {
		v.Stats.PollErrors.Inc()
		slog.Error("Failed to poll machines", slog.Any("Error", err))
		return
	}

	active := 0.0
	v.Net.MU.RLock()
	for _, m := range v.Net.Network {
		m.MU.RLock()
		if m.InShot {
			active = 1.0
		}
		m.MU.RUnlock()
	}
	v.Net.MU.RUnlock()
	v.Stats.ActiveShot.Set(active)
}

package meticd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	Ma "github.com/meticai/meticd/ai"
	Mo "github.com/meticai/meticd/obvy"
	Mp "github.com/meticai/meticd/plugin"
	Ms "github.com/meticai/meticd/server"
	Mt "github.com/meticai/meticd/types"
)

const (
	screenGutter = 4
)

// ProfileGenerator is what the generate endpoint needs from the ai package,
// kept as an interface so tests can stub the model out.
type ProfileGenerator interface {
	GenerateProfile(ctx context.Context, req Ma.GenerateRequest) (*Mt.Profile, error)
}

// View is updated by whatever is in the MachineNet
type View struct {
	MU         sync.Mutex        // State locks to read data
	Net        *Ms.MachineNet    // The espresso machines
	Store      *Mp.BadgerOutput  // Shot history / profile library
	Gen        ProfileGenerator  // AI profile generation, may be nil
	Screen     tcell.Screen      // the screen itself, nil in web-only mode
	Stats      *Mo.StatsInternal // Internal status for prometheus
	server     *http.Server      // API + metrics server
	Supervisor *PollSupervisor   // telemetry polling goroutine
	Sched      *ShotScheduler    // pending shot timers
	SelectMach int               // Selected Machine with keyboard
	paused     bool              // freeze the terminal redraw
}

// CalcChannelY figures out where to draw the next channel row on the graph
func (v *View) CalcChannelY(machineIndex, channelIndex, gutter int) int {
	// Calculate cumulative offset from all previous machines
	offset := 0
	for i := 0; i < machineIndex; i++ {
		offset += len(Ms.Channels) + 1
	}
	return gutter + offset + channelIndex
}

// UpdateScreen redraws the live sparkline view
func (v *View) UpdateScreen() {
	if v.Screen == nil {
		return
	}

	v.MU.Lock()
	defer v.MU.Unlock()

	if v.paused {
		return
	}

	v.Screen.Clear()

	labelStyle := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	shotStyle := tcell.StyleDefault.Foreground(tcell.ColorDarkOrange)
	graphStyle := tcell.StyleDefault.Foreground(tcell.ColorAquaMarine)

	DrawText(v.Screen, 2, 1, labelStyle, "meticd live view  (ESC to quit, p to pause)")

	v.Net.MU.RLock()
	for mi, m := range v.Net.Network {
		if m == nil {
			continue
		}
		m.MU.RLock()

		header := fmt.Sprintf("%s  %s", m.ID, m.Latest.State)
		if m.InShot {
			header = fmt.Sprintf("%s  BREWING %.0fs  %.1fg",
				m.ID,
				m.Latest.Timestamp.Sub(m.ShotStart).Seconds(),
				m.Latest.Weight)
			DrawText(v.Screen, 2, v.CalcChannelY(mi, -1, screenGutter), shotStyle, header)
		} else {
			DrawText(v.Screen, 2, v.CalcChannelY(mi, -1, screenGutter), labelStyle, header)
		}

		for ci, ch := range Ms.Channels {
			y := v.CalcChannelY(mi, ci, screenGutter)
			DrawText(v.Screen, 2, y, labelStyle, fmt.Sprintf("%-12s", ch))
			DrawText(v.Screen, 15, y, graphStyle, string(m.GetDisplay(ch)))
		}

		m.MU.RUnlock()
	}
	v.Net.MU.RUnlock()

	v.Screen.Show()
}

// run drives the redraw alongside the poll ticker
func (v *View) run() {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		v.UpdateScreen()
	}
}

// handleKeyBoardEvent blocks on the tcell event loop until quit
func (v *View) handleKeyBoardEvent() {
	quit := func() {
		// Catch panics in a defer, clean up, and re-raise them,
		// otherwise the application can die without leaving
		// any diagnostic trace.
		maybePanic := recover()
		v.Screen.Fini()
		if maybePanic != nil {
			panic(maybePanic)
		}
	}
	defer quit()

	for {
		ev := v.Screen.PollEvent()

		switch ev := ev.(type) {
		case *tcell.EventResize:
			v.Screen.Sync()
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
				return
			} else if ev.Key() == tcell.KeyCtrlL {
				v.Screen.Sync()
			} else if ev.Rune() == 'C' || ev.Rune() == 'c' {
				v.Screen.Clear()
			} else if ev.Rune() == 'P' || ev.Rune() == 'p' {
				v.MU.Lock()
				v.paused = !v.paused
				v.MU.Unlock()
			}
		}
	}
}

// NewView creates the tcell screen that displays the live shot graph
func NewView(q *Ms.MachineNet, store *Mp.BadgerOutput) (*View, error) {
	if q == nil || q.Network == nil {
		slog.Error("Could not get a MachineNet for display")
		return nil, errors.New("machine network not found")
	}

	screen, err := GetTTY()
	if err != nil {
		slog.Error("Could not get new screen", slog.Any("Error", err))
		return nil, err
	}

	// create an attached prometheus registry
	stats := Mo.NewStatsInternal()

	view := &View{
		Net:    q,
		Store:  store,
		Screen: screen,
		Stats:  stats,
	}

	view.UpdateScreen()

	return view, err
}

// StartLiveViewWithConfig is called by main to run the program with the TUI.
// This also starts up the API and /metrics endpoint.
func StartLiveViewWithConfig(c []Ms.ConfigFile, store *Mp.BadgerOutput, gen ProfileGenerator) error {
	qn, err := netFromConfig(c, store)
	if err != nil {
		return err
	}

	view, err := NewView(qn, store)
	if err != nil {
		slog.Error("Could not start live view", slog.Any("Error", err))
		return err
	}
	view.Gen = gen

	if qn.Output != nil {
		qn.Output = NewCountingOutput(qn.Output, view.Stats.ShotsTotal)
	}

	view.NewPollSupervisor().Start()
	view.NewShotScheduler()
	defer view.Supervisor.Stop()
	defer view.Sched.Stop()

	if Ms.FillEnvVar("METICD_PLUGIN_MIDI") == "on" {
		if err := InitMIDIOutput(view, "midi"); err != nil {
			slog.Error("Could not enable MIDI output", slog.Any("Error", err))
		}
	}

	// Server for the API endpoint
	addr := listenAddr()
	view.server = &http.Server{
		Addr:    addr,
		Handler: view.SetupMux(),
	}

	// Run the redraw loop
	go view.run()

	// Run API endpoint
	go func() {
		slog.Info("Starting meticd API...", slog.String("Addr", addr))
		if err := view.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Could not start API endpoint", slog.Any("Error", err))
		}
	}()

	view.handleKeyBoardEvent()

	return err
}

// StartWebNoTUI serves the API without a terminal attached,
// the mode a headless install or container runs in.
func StartWebNoTUI(c []Ms.ConfigFile, store *Mp.BadgerOutput, gen ProfileGenerator) error {
	qn, err := netFromConfig(c, store)
	if err != nil {
		return err
	}

	// Create View without tcell screen
	stats := Mo.NewStatsInternal()
	view := &View{
		Net:   qn,
		Store: store,
		Stats: stats,
		Gen:   gen,
	}

	if qn.Output != nil {
		qn.Output = NewCountingOutput(qn.Output, view.Stats.ShotsTotal)
	}

	view.NewPollSupervisor().Start()
	view.NewShotScheduler()
	defer view.Supervisor.Stop()
	defer view.Sched.Stop()

	if Ms.FillEnvVar("METICD_PLUGIN_MIDI") == "on" {
		if err := InitMIDIOutput(view, "midi"); err != nil {
			slog.Error("Could not enable MIDI output", slog.Any("Error", err))
		}
	}

	addr := listenAddr()
	view.server = &http.Server{
		Addr:    addr,
		Handler: view.SetupMux(),
	}

	// Run API endpoint (blocks)
	slog.Info("Starting meticd web server...", slog.String("Addr", addr))
	if err := view.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Could not start API endpoint", slog.Any("Error", err))
		return err
	}

	return nil
}

// netFromConfig builds the MachineNet and wires the store and
// the flow transformer into it
func netFromConfig(c []Ms.ConfigFile, store *Mp.BadgerOutput) (*Ms.MachineNet, error) {
	ms, err := Ms.NewMachinesFromConfig(c)
	if err != nil || ms == nil {
		slog.Error("Failed to init machines", slog.Any("Error", err))
		return nil, errors.New("failed to init machines")
	}

	for _, m := range ms {
		tf, err := Mp.TransformerLookup("calc_flow")
		if err == nil {
			m.Transform = tf
		}
	}

	qn := Ms.NewMachineNet(ms)
	if store != nil {
		qn.Output = store
	}
	return qn, nil
}

func listenAddr() string {
	addr := Ms.FillEnvVar("METICD_ADDR")
	if addr == "ENOENT" {
		addr = ":8080"
	}
	return addr
}

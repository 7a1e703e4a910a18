package meticd

import (
	"log/slog"
	"sync"
	"time"

	Mp "github.com/meticai/meticd/plugin"
	Mt "github.com/meticai/meticd/types"
)

// MachineNet represents the connected network of espresso Machines.
// Most kitchens have exactly one, but the structure holds a slice
// so a roaster's bench of machines works the same way.

type MachineNet struct {
	MU      sync.RWMutex
	Network Machines // slice of *Machine
	Output  Mp.OutputAdapter
}

// NewMachineNet wires the machine slice to the net.
// The Machine objects hold pointers to their own live data,
// so each time the MachineNet is read it sees current telemetry.
func NewMachineNet(ms Machines) *MachineNet {
	return &MachineNet{
		Network: ms,
	}
}

// The telemetry channels every Machine carries a rolling display ring for.
var Channels = []string{"pressure", "flow", "weight", "temperature"}

// channelScale is the full-ladder value for each display ring.
// Pressure tops out around 12 bar on this machine, flow around 8 ml/s.
var channelScale = map[string]float64{
	"pressure":    12,
	"flow":        8,
	"weight":      60,
	"temperature": 100,
}

// Machine is one espresso machine on the local network.
//
//  1. app starts, reads config file (JSON stanzas, one per machine)
//  2. the config becomes a slice of Machine entries
//  3. the MachineNet holds that slice and polls it on a ticker
//  4. each poll parses the firmware's plaintext telemetry feed
//  5. a pressure reading at or above Threshold marks an active
//     extraction; the rising edge opens a Shot, the falling edge
//     closes it and hands the record to the Output adapter
type Machine struct {
	MU        sync.RWMutex
	ID        string                    // string describing the machine
	BaseURL   string                    // root URL of the machine's local API
	Delim     string                    // delimiter for the telemetry KV feed
	Threshold float64                   // bar reading that marks an active shot
	Latest    Mt.Sample                 // most recent telemetry
	Layer     map[string]*Mt.Timeseries // rolling display ring per channel
	Transform Mp.SampleTransformer      // optional derived-channel plugin
	Profile   string                    // profile currently loaded, if known

	InShot      bool
	ShotStart   time.Time
	shotSamples []Mt.Sample
}

type Machines []*Machine

// NewMachine initializes one machine with empty display rings
func NewMachine(id, baseURL, delim string, threshold float64) *Machine {
	tsdbWindow := 60

	layer := make(map[string]*Mt.Timeseries)
	for _, ch := range Channels {
		layer[ch] = &Mt.Timeseries{
			Runes:   make([]rune, tsdbWindow),
			MaxSize: tsdbWindow,
			Current: 0,
		}
	}

	if delim == "" {
		delim = "="
	}
	if threshold <= 0 {
		threshold = DefaultBrewThreshold
	}

	return &Machine{
		ID:        id,
		BaseURL:   baseURL,
		Delim:     delim,
		Threshold: threshold,
		Layer:     layer,
	}
}

// DefaultBrewThreshold is the pressure that marks an active extraction.
// Preinfusion on this machine sits well below it.
const DefaultBrewThreshold = 1.5

// NewMachinesFromConfig returns the slice of Machine for all config stanzas
func NewMachinesFromConfig(cf []ConfigFile) (Machines, error) {
	var machines Machines

	for _, c := range cf {
		m := NewMachine(c.ID, c.URL, c.Delim, c.ThresholdBar)
		machines = append(machines, m)
	}
	return machines, nil
}

// AddSecondWithCheck advances a channel's display ring by one slot
// and paints the rune for this second's value
func (m *Machine) AddSecondWithCheck(ch string, val float64, isShot bool) {
	layer, ok := m.Layer[ch]
	if !ok {
		return
	}

	// This is the index of the rune, and also the current second
	layer.Current = (layer.Current + 1) % layer.MaxSize

	// translate this val into a rune for display
	layer.Runes[layer.Current] = ValToRuneWithCheck(val, channelScale[ch], isShot)
}

// ValToRuneWithCheck maps a value onto the block-rune ladder,
// blank outside an active shot so idle noise doesn't paint the graph
func ValToRuneWithCheck(val, scale float64, isShot bool) rune {
	if !isShot {
		return ' '
	}
	return ValToRune(val, scale)
}

func ValToRune(val, scale float64) rune {
	if scale <= 0 {
		scale = 1
	}
	ratio := val / scale

	switch {
	case ratio < 0.125:
		return '▁'
	case ratio < 0.25:
		return '▂'
	case ratio < 0.375:
		return '▃'
	case ratio < 0.5:
		return '▄'
	case ratio < 0.625:
		return '▅'
	case ratio < 0.75:
		return '▆'
	case ratio < 0.875:
		return '▇'
	default:
		return '█'
	}
}

// GetDisplay provides the string of runes for drawing using the channel name
func (m *Machine) GetDisplay(ch string) []rune {
	layer, ok := m.Layer[ch]
	if !ok {
		return nil
	}

	display := make([]rune, layer.MaxSize)
	for i := 0; i < layer.MaxSize; i++ {
		// Start from oldest and go to newest (left to right)
		// subtract 1 instead to go right->left
		idx := (layer.Current + 1 + i) % layer.MaxSize
		display[i] = layer.Runes[idx]
	}
	return display
}

// Observe folds one telemetry sample into a machine's live state:
// latest reading, display rings, and the shot edge detection.
//
// i == Network index
func (q *MachineNet) Observe(i int, s Mt.Sample) {
	m := q.Network[i]

	m.MU.Lock()
	defer m.MU.Unlock()

	// Derive channels the firmware doesn't report, e.g. flow from
	// the cumulative scale weight between samples
	if m.Transform != nil && s.Flow == 0 {
		derived, err := m.Transform.Transform("flow", s.Weight, nil, s.Timestamp)
		if err == nil && derived > 0 {
			s.Flow = derived
		}
	}

	active := s.Pressure >= m.Threshold || s.State == "brewing"

	// Rising edge: a new extraction begins
	if active && !m.InShot {
		m.InShot = true
		m.ShotStart = s.Timestamp
		m.shotSamples = m.shotSamples[:0]
		slog.Info("Shot started",
			slog.String("Machine", m.ID),
			slog.String("Profile", m.Profile))
	}

	if m.InShot {
		m.shotSamples = append(m.shotSamples, s)
	}

	// Falling edge: extraction over, persist the record
	if !active && m.InShot {
		m.InShot = false
		shot := NewShot(m.Profile, m.ShotStart, m.shotSamples)
		m.shotSamples = nil

		if q.Output != nil {
			if err := q.Output.WriteShot(shot); err != nil {
				slog.Error("Could not store shot", slog.Any("Error", err))
			}
		}
		slog.Info("Shot finished",
			slog.String("Machine", m.ID),
			slog.Duration("Duration", shot.Duration),
			slog.Float64("Yield", shot.FinalYield))
	}

	m.Latest = s

	// ALWAYS add to the display rings, regardless of shot status
	m.AddSecondWithCheck("pressure", s.Pressure, m.InShot)
	m.AddSecondWithCheck("flow", s.Flow, m.InShot)
	m.AddSecondWithCheck("weight", s.Weight, m.InShot)
	m.AddSecondWithCheck("temperature", s.Temperature, m.InShot)
}

// PollMulti reads the telemetry feed of every configured machine.
func (q *MachineNet) PollMulti() error {
	for ni := range q.Network {
		delimiter := q.Network[ni].Delim
		feed := UrlCat(q.Network[ni].BaseURL, "/api/v1/telemetry")

		kv, err := TelemetryKV(delimiter, feed)
		if err != nil {
			slog.Error("Could not poll machine", slog.Any("Error", err))
			return err
		}

		sample := ParseSampleKV(kv, time.Now())
		q.Observe(ni, sample)
	}

	return nil
}

//go:build !nomidi

package plugin

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	Mt "github.com/meticai/meticd/types"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// MIDIOutput sonifies finished shots: each one plays a note,
// pitched by how close the yield landed to a double (36g).
type MIDIOutput struct {
	Port drivers.Out
	Send func(msg midi.Message) error
	WG   sync.WaitGroup
}

func NewMIDIOutput(port int) (*MIDIOutput, error) {
	out, err := midi.OutPort(port)
	if err != nil {
		slog.Error("Error opening MIDI port", slog.Int("port", port))
		return nil, fmt.Errorf("error opening MIDI port: %q", err)
	}

	send, err := midi.SendTo(out)
	if err != nil {
		slog.Error("Error sending to MIDI port", slog.Int("port", port))
		return nil, fmt.Errorf("error sending to MIDI port: %q", err)
	}

	initmidi := &MIDIOutput{
		Port: out,
		Send: send,
		WG:   sync.WaitGroup{},
	}

	return initmidi, nil
}

func (mo *MIDIOutput) SendNoteOnMIDI(midic, midin, midiv uint8) error {
	return mo.Send(midi.NoteOn(midic, midin, midiv))
}

func (mo *MIDIOutput) SendNoteOffMIDI(midic, midin uint8) error {
	return mo.Send(midi.NoteOff(midic, midin))
}

// noteFor maps the shot yield onto a pitch around middle C:
// on target rings C4, every two grams off shifts a semitone.
func noteFor(shot *Mt.Shot) uint8 {
	const target = 36.0
	offset := int((shot.FinalYield - target) / 2)
	if offset < -24 {
		offset = -24
	}
	if offset > 24 {
		offset = 24
	}
	return uint8(60 + offset)
}

func (mo *MIDIOutput) WriteShot(shot *Mt.Shot) error {
	var channel, velocity uint8
	channel = 0
	velocity = 100
	note := noteFor(shot)

	mo.WG.Add(1)
	go func() {
		defer mo.WG.Done()
		if err := mo.SendNoteOnMIDI(channel, note, velocity); err != nil {
			slog.Error("NoteOn event failed")
		}
		time.Sleep(time.Second)
		if err := mo.SendNoteOffMIDI(channel, note); err != nil {
			slog.Error("NoteOff event failed, attempting Flush")
			mo.Flush()
		}
	}()

	return nil
}

func (mo *MIDIOutput) WriteBatch(shots []*Mt.Shot) error {
	for _, s := range shots {
		if err := mo.WriteShot(s); err != nil {
			return err
		}
	}
	return nil
}

// QueryRange is not applicable: sound isn't stored anywhere
func (mo *MIDIOutput) QueryRange(start, end time.Time) ([]*Mt.Shot, error) {
	return nil, fmt.Errorf("MIDI output stores nothing to query")
}

func (mo *MIDIOutput) Flush() error {
	return mo.Send(midi.ControlChange(0, midi.AllNotesOff, midi.Off))
}

func (mo *MIDIOutput) Close() error {
	mo.WG.Wait()

	if mo.Port != nil {
		mo.Port.Close()
		midi.CloseDriver()
	}
	return nil
}

func (mo *MIDIOutput) Type() string { return "MIDI" }

//go:build !nomidi

package plugin_test

import (
	"sync"
	"testing"
	"time"

	Mp "github.com/meticai/meticd/plugin"
	Mt "github.com/meticai/meticd/types"
	"gitlab.com/gomidi/midi/v2"
)

// captureMIDI records messages instead of needing a hardware port
type captureMIDI struct {
	MU       sync.Mutex
	Messages []midi.Message
}

func (c *captureMIDI) send(msg midi.Message) error {
	c.MU.Lock()
	defer c.MU.Unlock()
	c.Messages = append(c.Messages, msg)
	return nil
}

func TestMIDIOutput_WriteShot(t *testing.T) {
	capture := &captureMIDI{}
	adapter := &Mp.MIDIOutput{Send: capture.send}

	shot := &Mt.Shot{
		ID:         "chime",
		Profile:    "Classic 9 Bar",
		StartTime:  time.Now(),
		FinalYield: 36.0,
	}

	assertError(t, adapter.WriteShot(shot), nil)
	adapter.Close()

	capture.MU.Lock()
	defer capture.MU.Unlock()
	assertInt(t, len(capture.Messages), 2)

	t.Run("On-target yield rings middle C", func(t *testing.T) {
		var ch, key, vel uint8
		if !capture.Messages[0].GetNoteOn(&ch, &key, &vel) {
			t.Fatal("first message should be NoteOn")
		}
		assertInt(t, int(key), 60)
	})

	t.Run("Note is released", func(t *testing.T) {
		var ch, key, vel uint8
		if !capture.Messages[1].GetNoteOff(&ch, &key, &vel) {
			t.Fatal("second message should be NoteOff")
		}
		assertInt(t, int(key), 60)
	})
}

func TestMIDIOutput_YieldPitch(t *testing.T) {
	playNote := func(t *testing.T, yield float64) uint8 {
		t.Helper()
		capture := &captureMIDI{}
		adapter := &Mp.MIDIOutput{Send: capture.send}
		adapter.WriteShot(&Mt.Shot{ID: "y", FinalYield: yield})
		adapter.Close()

		capture.MU.Lock()
		defer capture.MU.Unlock()
		var ch, key, vel uint8
		if len(capture.Messages) == 0 || !capture.Messages[0].GetNoteOn(&ch, &key, &vel) {
			t.Fatal("expected a NoteOn message")
		}
		return key
	}

	t.Run("Over-extraction pitches up", func(t *testing.T) {
		assertInt(t, int(playNote(t, 40)), 62)
	})

	t.Run("Empty cup pitches far down", func(t *testing.T) {
		assertInt(t, int(playNote(t, 0)), 60-18)
	})
}

func TestMIDIOutput_QueryRange(t *testing.T) {
	adapter := &Mp.MIDIOutput{Send: (&captureMIDI{}).send}
	_, err := adapter.QueryRange(time.Now().Add(-time.Hour), time.Now())
	assertGotError(t, err)
}

//go:build !nomidi

package meticd

import (
	"log/slog"

	Mp "github.com/meticai/meticd/plugin"
	Ms "github.com/meticai/meticd/server"
)

// InitMIDIOutput adds the shot chime beside the existing store output
func InitMIDIOutput(view *View, outputLocation string) error {
	midiPort := Ms.FillEnvVarInt("METICD_PLUGIN_MIDI_PORT", 0)

	output, err := Mp.NewMIDIOutput(midiPort)
	if err != nil {
		slog.Error("Failed to create adapter",
			slog.String("output", outputLocation),
			slog.Any("error", err))
		return err
	}

	view.Net.MU.Lock()
	view.Net.Output = NewTeeOutput(view.Net.Output, output)
	view.Net.MU.Unlock()

	slog.Info("MIDI Adapter Enabled", slog.String("output", outputLocation))
	return nil
}

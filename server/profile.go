package meticd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	Mt "github.com/meticai/meticd/types"
)

// StageBreakdown is one stage of a profile rendered for the UI.
type StageBreakdown struct {
	Name     string                 `json:"name"`
	Key      string                 `json:"key"`
	Type     string                 `json:"type"`
	Unit     string                 `json:"unit,omitempty"`
	Dynamics Mt.DynamicsDescription `json:"dynamics"`
}

// BreakdownProfile describes every stage of a profile.
// Recomputed on demand, nothing here is stored.
func BreakdownProfile(p *Mt.Profile) []StageBreakdown {
	if p == nil {
		return []StageBreakdown{}
	}

	out := make([]StageBreakdown, 0, len(p.Stages))
	for _, st := range p.Stages {
		out = append(out, StageBreakdown{
			Name:     st.Name,
			Key:      st.Key,
			Type:     st.Type,
			Unit:     StageUnit(st.Type),
			Dynamics: DescribeDynamics(st.Dynamics, st.Type, p.Variables),
		})
	}
	return out
}

// ImportProfile decodes and validates a profile JSON upload.
// Imports without an ID get one assigned here.
func ImportProfile(r io.Reader) (*Mt.Profile, error) {
	var p Mt.Profile
	dec := json.NewDecoder(r)
	if err := dec.Decode(&p); err != nil {
		slog.Error("Could not decode profile", slog.Any("Error", err))
		return nil, fmt.Errorf("profile decode error: %w", err)
	}

	if err := ValidateProfile(&p); err != nil {
		return nil, err
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	slog.Info("Profile imported",
		slog.String("ID", p.ID),
		slog.String("Name", p.Name),
		slog.Int("Stages", len(p.Stages)))

	return &p, nil
}

// ValidateProfile rejects profiles the machine would choke on.
// Dangling variable references are allowed on purpose: the UI shows
// them as unresolvable rather than refusing the whole profile.
func ValidateProfile(p *Mt.Profile) error {
	if p.Name == "" {
		return errors.New("profile has no name")
	}
	if len(p.Stages) == 0 {
		return errors.New("profile has no stages")
	}

	for _, st := range p.Stages {
		switch st.Type {
		case "pressure", "flow", "power":
		default:
			return fmt.Errorf("stage %q has unknown type %q", st.Name, st.Type)
		}

		if st.Dynamics == nil {
			continue
		}

		// Points must be ordered by ascending position
		for i := 1; i < len(st.Dynamics.Points); i++ {
			if st.Dynamics.Points[i].Position < st.Dynamics.Points[i-1].Position {
				return fmt.Errorf("stage %q has out-of-order points", st.Name)
			}
		}

		switch st.Dynamics.Over {
		case "time", "weight":
		default:
			return fmt.Errorf("stage %q dynamics over unknown axis %q", st.Name, st.Dynamics.Over)
		}
	}

	return nil
}

// ExportProfile writes a profile out as indented JSON,
// the same shape the import endpoint accepts.
func ExportProfile(w io.Writer, p *Mt.Profile) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		slog.Error("Could not encode profile", slog.Any("Error", err))
		return fmt.Errorf("profile encode error: %w", err)
	}
	return nil
}

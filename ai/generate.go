package meticd

/*

	AI profile generation.

	The user hands over photos of a coffee bag, free-text taste
	preferences, preset tags, and optionally advanced brew parameters.
	All of it goes to Gemini with a strict JSON response shape, and
	what comes back is decoded and validated into a Profile ready
	to load on the machine.

*/

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	Ms "github.com/meticai/meticd/server"
	Mt "github.com/meticai/meticd/types"
	"google.golang.org/genai"
)

// Photo is one coffee bag image from the upload form.
type Photo struct {
	MIMEType string
	Data     []byte
}

// GenerateRequest carries everything the user told us about the coffee.
type GenerateRequest struct {
	Taste    string   `json:"taste,omitempty"`    // free-text taste preference
	Tags     []string `json:"tags,omitempty"`     // preset tags: "fruity", "classic", ...
	Dose     float64  `json:"dose,omitempty"`     // grams in the basket
	Temp     float64  `json:"temp,omitempty"`     // group temperature override
	Ratio    float64  `json:"ratio,omitempty"`    // brew ratio, e.g. 2.0
	Photos   []Photo  `json:"-"`
	Language string   `json:"language,omitempty"` // for stage names and notes
}

// Generator wraps the Gemini client for profile generation.
type Generator struct {
	client *genai.Client
	model  string
}

// NewGenerator creates a Generator from an API key.
func NewGenerator(ctx context.Context, apiKey, model string) (*Generator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	if model == "" {
		model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &Generator{
		client: client,
		model:  model,
	}, nil
}

const systemPrompt = `You are an espresso profile designer for the Meticulous
espresso machine. From the coffee bag photos and the user's taste preferences,
design an extraction profile. Respond with ONLY a JSON object of this shape:
{"name": string, "notes": string, "temperature": number,
 "final_weight": number,
 "variables": [{"name": string, "key": string, "type": string, "value": number}],
 "stages": [{"name": string, "key": string, "type": "pressure"|"flow"|"power",
   "dynamics": {"points": [{"position": number, "value": number|"$key"}],
     "over": "time"|"weight", "interpolation": "linear"|"curve"},
   "exit_triggers": [{"kind": string, "value": number}]}]}
Points must be ordered by ascending position. Reference a variable from a
point value as "$" plus its key.`

// GenerateProfile runs one generation round trip.
// A single attempt, no retry: the UI owns the retry button.
func (g *Generator) GenerateProfile(ctx context.Context, req GenerateRequest) (*Mt.Profile, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(buildPrompt(req)),
	}
	for _, ph := range req.Photos {
		parts = append(parts, genai.NewPartFromBytes(ph.Data, ph.MIMEType))
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents,
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
			ResponseMIMEType:  "application/json",
		})
	if err != nil {
		slog.Error("Profile generation failed", slog.Any("Error", err))
		return nil, fmt.Errorf("GenAI generate failed: %w", err)
	}

	text := result.Text()
	if text == "" {
		return nil, fmt.Errorf("no profile returned")
	}

	var p Mt.Profile
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		slog.Error("Could not decode generated profile", slog.Any("Error", err))
		return nil, fmt.Errorf("generated profile decode error: %w", err)
	}

	if err := Ms.ValidateProfile(&p); err != nil {
		return nil, fmt.Errorf("generated profile invalid: %w", err)
	}

	p.ID = uuid.NewString()
	if p.Author == "" {
		p.Author = "MeticAI"
	}

	slog.Info("Profile generated",
		slog.String("ID", p.ID),
		slog.String("Name", p.Name),
		slog.Int("Stages", len(p.Stages)))

	return &p, nil
}

// buildPrompt folds the request into the user message
func buildPrompt(req GenerateRequest) string {
	var b strings.Builder

	b.WriteString("Design an espresso profile for this coffee.\n")

	if req.Taste != "" {
		b.WriteString("Taste preferences: " + req.Taste + "\n")
	}
	if len(req.Tags) > 0 {
		b.WriteString("Style tags: " + strings.Join(req.Tags, ", ") + "\n")
	}
	if req.Dose > 0 {
		fmt.Fprintf(&b, "Dose: %.1f g\n", req.Dose)
	}
	if req.Temp > 0 {
		fmt.Fprintf(&b, "Group temperature: %.1f C\n", req.Temp)
	}
	if req.Ratio > 0 {
		fmt.Fprintf(&b, "Brew ratio: 1:%.1f\n", req.Ratio)
	}
	if req.Language != "" {
		b.WriteString("Write stage names and notes in: " + req.Language + "\n")
	}
	if len(req.Photos) > 0 {
		b.WriteString("Photos of the coffee bag are attached.\n")
	}

	return b.String()
}

package meticd

import (
	"context"
	"strings"
	"testing"
)

func TestNewGenerator(t *testing.T) {
	t.Run("Requires an API key", func(t *testing.T) {
		_, err := NewGenerator(context.Background(), "", "")
		if err == nil {
			t.Error("expected an error without an API key")
		}
	})

	t.Run("Defaults the model", func(t *testing.T) {
		g, err := NewGenerator(context.Background(), "test-key", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if g.model != "gemini-2.5-flash" {
			t.Errorf("got model %q", g.model)
		}
	})

	t.Run("Keeps an explicit model", func(t *testing.T) {
		g, err := NewGenerator(context.Background(), "test-key", "gemini-2.5-pro")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if g.model != "gemini-2.5-pro" {
			t.Errorf("got model %q", g.model)
		}
	})
}

func TestBuildPrompt(t *testing.T) {
	t.Run("Folds every field into the message", func(t *testing.T) {
		req := GenerateRequest{
			Taste:    "chocolate, low acidity",
			Tags:     []string{"classic", "syrupy"},
			Dose:     18,
			Temp:     92.5,
			Ratio:    2,
			Language: "Italian",
			Photos:   []Photo{{MIMEType: "image/jpeg", Data: []byte{0xff}}},
		}

		got := buildPrompt(req)

		for _, want := range []string{
			"chocolate, low acidity",
			"classic, syrupy",
			"Dose: 18.0 g",
			"Group temperature: 92.5 C",
			"Brew ratio: 1:2.0",
			"Italian",
			"Photos of the coffee bag are attached.",
		} {
			if !strings.Contains(got, want) {
				t.Errorf("prompt missing %q in:\n%s", want, got)
			}
		}
	})

	t.Run("Empty request is just the task line", func(t *testing.T) {
		got := buildPrompt(GenerateRequest{})
		want := "Design an espresso profile for this coffee.\n"
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})
}

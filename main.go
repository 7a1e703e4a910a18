package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	Ma "github.com/meticai/meticd/ai"
	Md "github.com/meticai/meticd/display"
	Mo "github.com/meticai/meticd/obvy"
	Mp "github.com/meticai/meticd/plugin"
	Ms "github.com/meticai/meticd/server"
)

func main() {
	user := Ms.FillEnvVar("USER")
	fmt.Printf("MeticAI initializing for ... %s\n", user)

	// Tracing is opt-in, the daemon runs fine without a collector
	if os.Getenv("HONEYCOMB_API_KEY") != "" {
		shutdown, err := Mo.InitOTelHNY()
		if err != nil {
			slog.Error("Could not configure OpenTelemetry", slog.Any("Error", err))
		} else {
			defer shutdown()
		}
	}

	// Machine stanzas come off local disk
	cfgPath := Ms.FillEnvVar("METICD_CONFIG")
	if cfgPath == "ENOENT" {
		cfgPath = "meticd.json"
	}
	cf, err := Ms.LoadConfigFileName(cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	// One badger directory holds shots, profiles, and settings.
	// Batch size 1: a finished shot hits disk immediately.
	dataDir := Ms.FillEnvVar("METICD_DATA")
	if dataDir == "ENOENT" {
		dataDir = "./data"
	}
	store, err := Mp.NewBadgerOutput(dataDir, 1)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	// Profile generation needs a Gemini key; without one the
	// endpoint answers 503 and everything else still works
	var gen Md.ProfileGenerator
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		g, err := Ma.NewGenerator(context.Background(), key, os.Getenv("METICD_AI_MODEL"))
		if err != nil {
			slog.Error("Could not create profile generator", slog.Any("Error", err))
		} else {
			gen = g
		}
	} else {
		slog.Info("GEMINI_API_KEY not set, profile generation disabled")
	}

	if Ms.FillEnvVar("METICD_NOTUI") != "ENOENT" {
		err = Md.StartWebNoTUI(cf, store, gen)
	} else {
		err = Md.StartLiveViewWithConfig(cf, store, gen)
	}
	if err != nil {
		slog.Error("Problem starting meticd", slog.Any("Error", err))
		panic("Failed to start meticd")
	}
}

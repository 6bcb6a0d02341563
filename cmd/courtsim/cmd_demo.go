// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/CourtSim/pkg/logging"
	"github.com/AleutianAI/CourtSim/services/courtroom/agent"
	"github.com/AleutianAI/CourtSim/services/courtroom/caselib"
	"github.com/AleutianAI/CourtSim/services/courtroom/config"
	"github.com/AleutianAI/CourtSim/services/courtroom/datatypes"
	"github.com/AleutianAI/CourtSim/services/courtroom/simulation"
	"github.com/AleutianAI/CourtSim/services/llm"
)

// runDemo drives a single case from pre-trial to verdict without the
// HTTP surface and prints the transcript as a script.
func runDemo(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := logging.New(logging.Config{
		Level:   logging.ParseLevel(cfg.Log.Level),
		Service: "courtsim-demo",
		Quiet:   true, // transcript goes to stdout, keep stderr clean
	})

	library, err := caselib.Open(cfg.CaseDir, logger)
	if err != nil {
		return err
	}
	defer library.Close()

	client, err := llm.NewClient(cfg.Provider)
	if err != nil {
		return err
	}

	health := &llm.HealthTracker{}
	manager := simulation.NewManager(client, health, logger, simulation.ManagerConfig{
		Controller: simulation.Config{
			Unit:      agent.DefaultConfig(),
			TurnDelay: cfg.TurnDelay,
		},
		JudicialMemory: cfg.JudicialMemory,
	})

	kase, err := library.Materialize(args[0], demoJurors)
	if err != nil {
		return err
	}
	ctrl, err := manager.CreateSimulation(kase)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := ctrl.Start(ctx); err != nil {
		return err
	}
	if err := ctrl.Run(ctx); err != nil {
		return err
	}

	snap := ctrl.Snapshot()
	fmt.Printf("=== %s (%s) ===\n\n", snap.Title, snap.Type)
	for _, entry := range snap.Transcript {
		printEntry(entry)
	}
	fmt.Println()
	for _, r := range snap.Rulings {
		if r.Kind == "verdict" || r.Kind == "sentence" {
			fmt.Printf("[%s] %s — %s\n", r.Kind, r.Decision, r.Reasoning)
		}
	}
	if health.Status() != llm.StatusConnected {
		fmt.Printf("\n(gateway degraded: %d exhaustions, some statements canned)\n",
			health.Exhaustions())
	}
	return nil
}

func printEntry(entry datatypes.TranscriptEntry) {
	marker := ""
	if entry.Sidebar {
		marker = " (sidebar)"
	}
	switch entry.Type {
	case datatypes.EntryObjection, datatypes.EntryRuling, datatypes.EntryExhibit:
		fmt.Printf("  * %s%s: %s\n", entry.SpeakerName, marker, entry.Content)
	default:
		fmt.Printf("%s%s: %s\n", entry.SpeakerName, marker, entry.Content)
	}
}

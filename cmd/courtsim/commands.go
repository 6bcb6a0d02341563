// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is stamped at build time via -ldflags.
var version = "dev"

var (
	configPath string
	demoJurors int

	rootCmd = &cobra.Command{
		Use:   "courtsim",
		Short: "A courtroom trial simulation service",
		Long: `CourtSim runs multi-agent courtroom trial simulations: a judge,
counsel, witnesses, and optional jurors argue a case from pre-trial
through verdict, driven by a local or hosted language model.`,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the CourtSim HTTP service",
		RunE:  runServe, // Defined in cmd_serve.go
	}

	demoCmd = &cobra.Command{
		Use:   "demo [case-slug]",
		Short: "Run one case headless and print the transcript",
		Args:  cobra.ExactArgs(1),
		RunE:  runDemo, // Defined in cmd_demo.go
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the courtsim version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("courtsim", version)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to config.yaml (defaults apply when omitted)")
	demoCmd.Flags().IntVar(&demoJurors, "jurors", 0,
		"juror panel size (0 runs a bench trial)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(versionCmd)
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command lspclient hosts a language server over the typed LSP connection.
//
// It launches the configured server (or dials a WebSocket endpoint),
// performs the initialize handshake, streams the server's notifications to
// stdout and answers the server's requests on behalf of a headless editor.
//
// Usage:
//
//	lspclient run --config lspclient.yaml
//	lspclient run --language go --root ./myproject --debug-addr localhost:9464
//	lspclient query hover main.go 12 5 --root .
//	lspclient methods
//	lspclient version
//
// The debug address serves /healthz and /metrics while run is active.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	configPath string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:           "lspclient",
	Short:         "A headless Language Server Protocol client",
	Long:          `lspclient launches a language server, keeps it initialized and streams what it reports.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML or JSON config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format (auto, text, json)")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newQueryCmd())
	rootCmd.AddCommand(newMethodsCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/lspconn/services/lsp/channel"
	"github.com/AleutianAI/lspconn/services/lsp/client"
	"github.com/AleutianAI/lspconn/services/lsp/config"
)

// serverFlags are the command line overrides shared by run and query.
type serverFlags struct {
	language  string
	command   string
	args      []string
	root      string
	transport string
	url       string
}

func (f *serverFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.language, "language", "l", "", "Language identifier (go, python, rust, ...)")
	fs.StringVar(&f.command, "command", "", "Server executable, overrides the built-in one")
	fs.StringSliceVar(&f.args, "arg", nil, "Server argument, repeatable")
	fs.StringVarP(&f.root, "root", "r", "", "Workspace root directory")
	fs.StringVar(&f.transport, "transport", "", "Transport (stdio, websocket)")
	fs.StringVar(&f.url, "url", "", "WebSocket URL for the websocket transport")
}

// apply copies the flags that were set on cmd into cfg.
func (f *serverFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	fs := cmd.Flags()
	if fs.Changed("language") {
		cfg.Server.Language = f.language
	}
	if fs.Changed("command") {
		cfg.Server.Command = f.command
	}
	if fs.Changed("arg") {
		cfg.Server.Args = f.args
	}
	if fs.Changed("root") {
		cfg.Server.RootPath = f.root
	}
	if fs.Changed("transport") {
		cfg.Transport.Kind = f.transport
	}
	if fs.Changed("url") {
		cfg.Transport.URL = f.url
	}
}

// loadConfig loads the config file, applies the persistent and command
// flags and validates the result.
func loadConfig(cmd *cobra.Command, flags *serverFlags) (config.Config, error) {
	cfg, err := config.Read(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	if flags != nil {
		flags.apply(cmd, &cfg)
	}
	applyBuiltinCommand(&cfg, client.NewRegistry())
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// applyBuiltinCommand fills in the registry's server command when none is
// configured for a spawned server.
func applyBuiltinCommand(cfg *config.Config, registry *client.Registry) {
	if cfg.Server.Command != "" || cfg.Transport.Kind != config.TransportStdio {
		return
	}
	if sc, ok := registry.Get(cfg.Server.Language); ok {
		cfg.Server.Command = sc.Command
		cfg.Server.Args = sc.Args
	}
}

// serverConfig resolves the language server to launch from the registry
// and the configured overrides.
func serverConfig(cfg config.Config, registry *client.Registry) (client.ServerConfig, error) {
	sc, ok := registry.Get(cfg.Server.Language)
	if !ok {
		sc = client.ServerConfig{Language: cfg.Server.Language}
	}
	if cfg.Server.Command != "" {
		sc.Command = cfg.Server.Command
		sc.Args = cfg.Server.Args
	}
	if sc.Command == "" && cfg.Transport.Kind == config.TransportStdio {
		return client.ServerConfig{}, fmt.Errorf("%w: %s", client.ErrUnsupportedLanguage, cfg.Server.Language)
	}
	sc.Env = append(sc.Env, cfg.Server.Env...)

	opts, err := cfg.Server.InitializationOptionsJSON()
	if err != nil {
		return client.ServerConfig{}, err
	}
	if opts != nil {
		sc.InitializationOptions = opts
	}
	return sc, nil
}

// startServer launches or dials the configured server and completes the
// initialize handshake.
func startServer(ctx context.Context, cfg config.Config) (*client.Server, error) {
	sc, err := serverConfig(cfg, client.NewRegistry())
	if err != nil {
		return nil, err
	}
	root, err := filepath.Abs(cfg.Server.RootPath)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}

	srv := client.NewServer(sc, root, cfg.Connection.ConnectionOptions()...)
	switch cfg.Transport.Kind {
	case config.TransportWebSocket:
		ws, err := channel.DialWebSocket(ctx, cfg.Transport.URL, nil)
		if err != nil {
			return nil, err
		}
		if err := srv.Connect(ctx, ws); err != nil {
			return nil, err
		}
	default:
		if err := srv.Start(ctx); err != nil {
			return nil, err
		}
	}
	return srv, nil
}

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
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/lspconn/services/lsp/client"
	"github.com/AleutianAI/lspconn/services/lsp/config"
	"github.com/AleutianAI/lspconn/services/lsp/telemetry"
	"github.com/AleutianAI/lspconn/services/lsp/workspace"
)

const hostShutdownTimeout = 10 * time.Second

func newRunCmd() *cobra.Command {
	var (
		flags     serverFlags
		debugAddr string
		noWatch   bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start a language server and stream its events until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, &flags)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("debug-addr") {
				cfg.DebugAddr = debugAddr
			}
			if noWatch {
				cfg.Watcher.Enabled = false
			}
			return runHost(cmd.Context(), cmd, cfg)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&debugAddr, "debug-addr", "", "Serve /healthz and /metrics on this address")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not report file changes to the server")
	return cmd
}

// runHost runs the server until a signal arrives or the server exits.
func runHost(parent context.Context, cmd *cobra.Command, cfg config.Config) error {
	logger, closeLog, err := openLogger(cfg.Logging, os.Stderr, isTerminal(os.Stderr))
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()
	slog.SetDefault(logger)
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.FromConfig(cfg.Telemetry))
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	srv, err := startServer(ctx, cfg)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	handler := newEventHandler(srv.RootPath(), cfg.Server.InitializationOptions, cmd.OutOrStdout(), logger)
	g.Go(func() error {
		return handler.run(gctx, srv.Events())
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), hostShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.Watcher.Enabled {
		w, err := newWorkspaceWatcher(srv, cfg.Watcher, logger)
		if err != nil {
			logger.Warn("File watching disabled", slog.String("error", err.Error()))
		} else if err := w.Start(gctx); err != nil {
			logger.Warn("File watching disabled", slog.String("error", err.Error()))
		} else {
			defer w.Stop()
		}
	}

	if cfg.DebugAddr != "" {
		g.Go(func() error {
			return serveDebug(gctx, cfg.DebugAddr, srv)
		})
	}

	err = g.Wait()
	logger.Info("Host stopped")
	return err
}

// newWorkspaceWatcher reports file changes under the server's root over
// its connection.
func newWorkspaceWatcher(srv *client.Server, cfg config.WatcherConfig, logger *slog.Logger) (*workspace.Watcher, error) {
	opts := workspace.DefaultOptions()
	if cfg.Debounce > 0 {
		opts.DebounceWindow = cfg.Debounce
	}
	if len(cfg.Ignore) > 0 {
		opts.IgnorePatterns = cfg.Ignore
	}
	opts.Extensions = cfg.Extensions
	opts.Logger = logger
	return workspace.NewWatcher(srv.RootPath(), workspace.ForConnection(srv.Connection()), &opts)
}

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
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/lspconn/services/lsp/client"
	"github.com/AleutianAI/lspconn/services/lsp/protocol"
)

// Query kinds.
const (
	queryDefinition = "definition"
	queryReferences = "references"
	queryHover      = "hover"
	querySymbols    = "symbols"
)

// queryRequest is one parsed query invocation. Line and Col are 1-based.
type queryRequest struct {
	Kind string
	File string
	Line int
	Col  int
}

// parseQueryArgs validates KIND FILE [LINE COL].
func parseQueryArgs(args []string) (queryRequest, error) {
	if len(args) < 2 {
		return queryRequest{}, fmt.Errorf("expected KIND FILE [LINE COL]")
	}
	q := queryRequest{Kind: args[0], File: args[1]}
	switch q.Kind {
	case querySymbols:
		if len(args) != 2 {
			return queryRequest{}, fmt.Errorf("%s takes only FILE", q.Kind)
		}
		return q, nil
	case queryDefinition, queryReferences, queryHover:
		if len(args) != 4 {
			return queryRequest{}, fmt.Errorf("%s needs FILE LINE COL", q.Kind)
		}
	default:
		return queryRequest{}, fmt.Errorf("unknown query %q", q.Kind)
	}

	var err error
	if q.Line, err = strconv.Atoi(args[2]); err != nil || q.Line < 1 {
		return queryRequest{}, fmt.Errorf("invalid line %q", args[2])
	}
	if q.Col, err = strconv.Atoi(args[3]); err != nil || q.Col < 1 {
		return queryRequest{}, fmt.Errorf("invalid column %q", args[3])
	}
	return q, nil
}

func newQueryCmd() *cobra.Command {
	var (
		flags       serverFlags
		timeout     time.Duration
		includeDecl bool
	)
	cmd := &cobra.Command{
		Use:   "query KIND FILE [LINE COL]",
		Short: "Ask the server one question about a file",
		Long: `Ask the server one question about a file and print the answer.

KIND is one of definition, references, hover or symbols. LINE and COL are
1-based and required for every kind except symbols.`,
		Args: cobra.RangeArgs(2, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := parseQueryArgs(args)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd, &flags)
			if err != nil {
				return err
			}
			logger, closeLog, err := openLogger(cfg.Logging, os.Stderr, isTerminal(os.Stderr))
			if err != nil {
				return err
			}
			defer func() { _ = closeLog() }()
			slog.SetDefault(logger)

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			srv, err := startServer(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), hostShutdownTimeout)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()

			handler := newEventHandler(srv.RootPath(), cfg.Server.InitializationOptions, cmd.ErrOrStderr(), slog.Default())
			go func() { _ = handler.run(ctx, srv.Events()) }()

			return runQuery(ctx, client.NewOperations(srv), q, includeDecl, cmd.OutOrStdout())
		},
	}
	flags.register(cmd)
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Overall time limit")
	cmd.Flags().BoolVar(&includeDecl, "include-declaration", true, "Include the declaration in references")
	return cmd
}

// runQuery opens the file, runs q and prints the result to out.
func runQuery(ctx context.Context, ops *client.Operations, q queryRequest, includeDecl bool, out io.Writer) error {
	path, err := filepath.Abs(q.File)
	if err != nil {
		return err
	}
	if err := ops.OpenFile(ctx, path); err != nil {
		return fmt.Errorf("open %s: %w", q.File, err)
	}
	defer func() { _ = ops.CloseFile(context.WithoutCancel(ctx), path) }()

	// Operations take a 1-based line and a 0-based column.
	switch q.Kind {
	case queryDefinition:
		locs, err := ops.Definition(ctx, path, q.Line, q.Col-1)
		if err != nil {
			return err
		}
		printLocations(out, locs)
	case queryReferences:
		locs, err := ops.References(ctx, path, q.Line, q.Col-1, includeDecl)
		if err != nil {
			return err
		}
		printLocations(out, locs)
	case queryHover:
		info, err := ops.Hover(ctx, path, q.Line, q.Col-1)
		if err != nil {
			return err
		}
		if info != nil {
			fmt.Fprintln(out, info.Content)
		}
	case querySymbols:
		symbols, err := ops.DocumentSymbols(ctx, path)
		if err != nil {
			return err
		}
		printSymbols(out, symbols)
	}
	return nil
}

func printLocations(out io.Writer, locs []protocol.Location) {
	for _, loc := range locs {
		fmt.Fprintf(out, "%s:%d:%d\n", client.URIToPath(loc.URI), loc.Range.Start.Line+1, loc.Range.Start.Character+1)
	}
}

func printSymbols(out io.Writer, symbols []protocol.SymbolInformation) {
	for _, sym := range symbols {
		name := sym.Name
		if sym.ContainerName != "" {
			name = sym.ContainerName + "." + sym.Name
		}
		fmt.Fprintf(out, "%s\t%d\t%d\n", name, sym.Kind, sym.Location.Range.Start.Line+1)
	}
}

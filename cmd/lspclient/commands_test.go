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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/lspconn/services/lsp"
	"github.com/AleutianAI/lspconn/services/lsp/client"
	"github.com/AleutianAI/lspconn/services/lsp/config"
	"github.com/AleutianAI/lspconn/services/lsp/protocol"
)

func TestPrintMethods(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printMethods(&out))
	text := out.String()

	assert.Contains(t, text, fmt.Sprintf("Client requests (%d)", len(lsp.ClientRequestMethods())))
	assert.Contains(t, text, fmt.Sprintf("Server requests (%d)", len(lsp.ServerRequestMethods())))
	assert.Contains(t, text, protocol.MethodInitialize)
	assert.Contains(t, text, protocol.MethodWindowLogMessage)
	assert.Contains(t, text, "ack")

	lines := strings.Split(strings.TrimSpace(text), "\n")
	want := 4 + 3 + len(lsp.ClientRequestMethods()) + len(lsp.ClientNotificationMethods()) +
		len(lsp.ServerNotificationMethods()) + len(lsp.ServerRequestMethods())
	assert.Len(t, lines, want, "four headers, three separators and one line per method")
}

func TestVersionCommand(t *testing.T) {
	cmd := newVersionCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(nil)
	require.NoError(t, cmd.Execute())
	assert.True(t, strings.HasPrefix(out.String(), "lspclient "+version))
}

func TestParseQueryArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    queryRequest
		wantErr bool
	}{
		{"symbols", []string{"symbols", "main.go"}, queryRequest{Kind: querySymbols, File: "main.go"}, false},
		{"hover", []string{"hover", "main.go", "3", "7"}, queryRequest{Kind: queryHover, File: "main.go", Line: 3, Col: 7}, false},
		{"definition needs position", []string{"definition", "main.go"}, queryRequest{}, true},
		{"symbols rejects position", []string{"symbols", "main.go", "1", "1"}, queryRequest{}, true},
		{"unknown kind", []string{"rename", "main.go", "1", "1"}, queryRequest{}, true},
		{"zero line", []string{"references", "main.go", "0", "1"}, queryRequest{}, true},
		{"bad column", []string{"references", "main.go", "1", "x"}, queryRequest{}, true},
		{"too few", []string{"hover"}, queryRequest{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseQueryArgs(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	newLogger(config.LoggingConfig{Level: "info", Format: "auto"}, &buf, false).Info("hello")
	assert.True(t, json.Valid(bytes.TrimSpace(buf.Bytes())), "auto without a terminal logs JSON")

	buf.Reset()
	newLogger(config.LoggingConfig{Level: "info", Format: "auto"}, &buf, true).Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")

	buf.Reset()
	logger := newLogger(config.LoggingConfig{Level: "warn", Format: "text"}, &buf, false)
	logger.Info("quiet")
	logger.Warn("loud")
	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
}

func TestOpenLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "lspclient.log")
	var console bytes.Buffer

	logger, closeLog, err := openLogger(config.LoggingConfig{Level: "info", Format: "text", File: path}, &console, false)
	require.NoError(t, err)
	logger.With(slog.String("connection_id", "c-1")).Info("LSP server ready")
	logger.Debug("filtered")
	require.NoError(t, closeLog())

	assert.Contains(t, console.String(), "connection_id=c-1")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	assert.Equal(t, "LSP server ready", entry["msg"])
	assert.Equal(t, "c-1", entry["connection_id"])
	assert.NotContains(t, string(data), "filtered")
}

func TestOpenLogger_NoFile(t *testing.T) {
	var console bytes.Buffer
	logger, closeLog, err := openLogger(config.LoggingConfig{Level: "info", Format: "json"}, &console, true)
	require.NoError(t, err)
	logger.Info("hello")
	assert.NoError(t, closeLog())
	assert.True(t, json.Valid(bytes.TrimSpace(console.Bytes())))
}

func TestServerConfig(t *testing.T) {
	registry := client.NewRegistry()

	cfg := config.Default()
	sc, err := serverConfig(cfg, registry)
	require.NoError(t, err)
	assert.Equal(t, "gopls", sc.Command)
	assert.Equal(t, []string{"serve"}, sc.Args)
	assert.Nil(t, sc.InitializationOptions)

	cfg.Server.Command = "/opt/gopls"
	cfg.Server.Args = []string{"-rpc.trace"}
	cfg.Server.Env = []string{"GOFLAGS=-mod=mod"}
	cfg.Server.InitializationOptions = map[string]any{"usePlaceholders": true}
	sc, err = serverConfig(cfg, registry)
	require.NoError(t, err)
	assert.Equal(t, "/opt/gopls", sc.Command)
	assert.Equal(t, []string{"-rpc.trace"}, sc.Args)
	assert.Equal(t, []string{"GOFLAGS=-mod=mod"}, sc.Env)
	assert.JSONEq(t, `{"usePlaceholders":true}`, string(sc.InitializationOptions))

	cfg = config.Default()
	cfg.Server.Language = "cobol"
	_, err = serverConfig(cfg, registry)
	assert.ErrorIs(t, err, client.ErrUnsupportedLanguage)

	cfg.Transport.Kind = config.TransportWebSocket
	sc, err = serverConfig(cfg, registry)
	require.NoError(t, err, "a remote server needs no command")
	assert.Equal(t, "cobol", sc.Language)
}

func TestLoadConfig_FlagsAndBuiltins(t *testing.T) {
	var flags serverFlags
	cmd := &cobra.Command{Use: "test"}
	flags.register(cmd)
	root := t.TempDir()
	require.NoError(t, cmd.ParseFlags([]string{"--language", "rust", "--root", root}))

	cfg, err := loadConfig(cmd, &flags)
	require.NoError(t, err)
	assert.Equal(t, "rust", cfg.Server.Language)
	assert.Equal(t, root, cfg.Server.RootPath)
	assert.Equal(t, "rust-analyzer", cfg.Server.Command, "the built-in command fills the gap")

	var noBuiltin serverFlags
	cmd = &cobra.Command{Use: "test"}
	noBuiltin.register(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--language", "cobol"}))
	_, err = loadConfig(cmd, &noBuiltin)
	assert.Error(t, err, "stdio without any command is invalid")
}

func TestRunQuery(t *testing.T) {
	srv, peer := connectPeer(t, `{"definitionProvider":true,"referencesProvider":true,"hoverProvider":true,"documentSymbolProvider":true}`)
	file := writeFile(t, srv.RootPath(), "main.go", "package main\n\nfunc main() {}\n")
	uri := client.PathToURI(file)
	ops := client.NewOperations(srv)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	t.Run("definition", func(t *testing.T) {
		peer.respond(protocol.MethodTextDocumentDefinition,
			`[{"uri":"`+string(uri)+`","range":{"start":{"line":2,"character":5},"end":{"line":2,"character":9}}}]`)

		var out bytes.Buffer
		require.NoError(t, runQuery(ctx, ops, queryRequest{Kind: queryDefinition, File: file, Line: 3, Col: 7}, true, &out))
		assert.Equal(t, file+":3:6\n", out.String())

		var params protocol.TextDocumentPositionParams
		require.NoError(t, json.Unmarshal(peer.lastParams(protocol.MethodTextDocumentDefinition), &params))
		assert.Equal(t, protocol.Position{Line: 2, Character: 6}, params.Position)
	})

	t.Run("hover", func(t *testing.T) {
		peer.respond(protocol.MethodTextDocumentHover, `{"contents":{"kind":"markdown","value":"func main()"}}`)

		var out bytes.Buffer
		require.NoError(t, runQuery(ctx, ops, queryRequest{Kind: queryHover, File: file, Line: 3, Col: 6}, true, &out))
		assert.Equal(t, "func main()\n", out.String())
	})

	t.Run("symbols", func(t *testing.T) {
		peer.respond(protocol.MethodTextDocumentDocumentSymbol,
			`[{"name":"main","kind":12,"location":{"uri":"`+string(uri)+`","range":{"start":{"line":2,"character":0},"end":{"line":2,"character":14}}}}]`)

		var out bytes.Buffer
		require.NoError(t, runQuery(ctx, ops, queryRequest{Kind: querySymbols, File: file}, true, &out))
		assert.Equal(t, "main\t12\t3\n", out.String())
	})

	t.Run("missing file", func(t *testing.T) {
		var out bytes.Buffer
		err := runQuery(ctx, ops, queryRequest{Kind: querySymbols, File: file + ".absent"}, true, &out)
		assert.Error(t, err)
	})

	assert.False(t, ops.IsOpen(file), "the queried file is closed afterwards")
}

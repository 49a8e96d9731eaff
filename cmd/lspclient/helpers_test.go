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
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/lspconn/services/lsp/channel"
	"github.com/AleutianAI/lspconn/services/lsp/client"
	"github.com/AleutianAI/lspconn/services/lsp/jsonrpc"
	"github.com/AleutianAI/lspconn/services/lsp/protocol"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// syncBuffer is a bytes.Buffer safe for one writer and a polling reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// testPeer is a scripted language server on the far end of a pipe.
type testPeer struct {
	session *jsonrpc.Session

	mu      sync.Mutex
	results map[string]json.RawMessage
	params  map[string]json.RawMessage
}

func (p *testPeer) respond(method, result string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results[method] = json.RawMessage(result)
}

func (p *testPeer) lastParams(method string) json.RawMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.params[method]
}

func (p *testPeer) serve() {
	for ev := range p.session.Events() {
		switch ev.Kind {
		case jsonrpc.EventRequest:
			p.mu.Lock()
			p.params[ev.Method] = ev.Params
			result, ok := p.results[ev.Method]
			p.mu.Unlock()
			if !ok {
				_ = ev.Reply(context.Background(), nil, jsonrpc.NewError(jsonrpc.CodeMethodNotFound, "%s", ev.Method))
				continue
			}
			_ = ev.Reply(context.Background(), result, nil)
		case jsonrpc.EventNotification:
			p.mu.Lock()
			p.params[ev.Method] = ev.Params
			p.mu.Unlock()
			if ev.Method == protocol.MethodExit {
				_ = p.session.Close()
			}
		}
	}
}

// connectPeer returns a ready server talking to a scripted peer that
// reports caps.
func connectPeer(t *testing.T, caps string) (*client.Server, *testPeer) {
	t.Helper()
	local, remote := channel.Pipe()
	peer := &testPeer{
		session: jsonrpc.NewSession(remote),
		results: map[string]json.RawMessage{
			protocol.MethodInitialize: json.RawMessage(`{"capabilities":` + caps + `,"serverInfo":{"name":"peer-ls"}}`),
			protocol.MethodShutdown:   json.RawMessage(`null`),
		},
		params: make(map[string]json.RawMessage),
	}
	go peer.serve()

	srv := client.NewServer(client.ServerConfig{Language: "go"}, t.TempDir())
	require.NoError(t, srv.Connect(context.Background(), local))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		_ = remote.Close()
	})
	return srv, peer
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

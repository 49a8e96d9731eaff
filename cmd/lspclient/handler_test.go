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
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/lspconn/services/lsp"
	"github.com/AleutianAI/lspconn/services/lsp/channel"
	"github.com/AleutianAI/lspconn/services/lsp/client"
	"github.com/AleutianAI/lspconn/services/lsp/jsonrpc"
	"github.com/AleutianAI/lspconn/services/lsp/protocol"
)

type handlerHarness struct {
	peer *jsonrpc.Session
	conn *lsp.Connection
	out  *syncBuffer
	root string
	done chan error
}

func startHandler(t *testing.T, ctx context.Context) *handlerHarness {
	t.Helper()
	local, remote := channel.Pipe()
	h := &handlerHarness{
		peer: jsonrpc.NewSession(remote),
		conn: lsp.New(local),
		out:  &syncBuffer{},
		root: t.TempDir(),
		done: make(chan error, 1),
	}
	settings := map[string]any{
		"gopls": map[string]any{
			"staticcheck": true,
			"ui":          map[string]any{"semanticTokens": false},
		},
	}
	handler := newEventHandler(h.root, settings, h.out, discardLogger())
	go func() { h.done <- handler.run(ctx, h.conn.Events()) }()
	t.Cleanup(func() {
		_ = h.conn.Close()
		_ = h.peer.Close()
	})
	return h
}

func (h *handlerHarness) call(t *testing.T, method string, params any) (json.RawMessage, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return h.peer.Call(ctx, method, params)
}

func (h *handlerHarness) waitOutput(t *testing.T, substr string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return strings.Contains(h.out.String(), substr)
	}, 5*time.Second, 10*time.Millisecond, "output never contained %q", substr)
}

func TestEventHandler_WorkspaceConfiguration(t *testing.T) {
	h := startHandler(t, context.Background())

	res, err := h.call(t, protocol.MethodWorkspaceConfiguration, protocol.ConfigurationParams{
		Items: []protocol.ConfigurationItem{
			{Section: "gopls"},
			{Section: "gopls.ui.semanticTokens"},
			{Section: "missing"},
		},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"staticcheck":true,"ui":{"semanticTokens":false}},false,null]`, string(res))
}

func TestEventHandler_WorkspaceFolders(t *testing.T) {
	h := startHandler(t, context.Background())

	res, err := h.call(t, protocol.MethodWorkspaceWorkspaceFolders, nil)
	require.NoError(t, err)

	var folders []protocol.WorkspaceFolder
	require.NoError(t, json.Unmarshal(res, &folders))
	require.Len(t, folders, 1)
	assert.Equal(t, client.PathToURI(h.root), folders[0].URI)
	assert.Equal(t, filepath.Base(h.root), folders[0].Name)
}

func TestEventHandler_AcksAndDefaults(t *testing.T) {
	h := startHandler(t, context.Background())

	tests := []struct {
		name   string
		method string
		params any
		want   string
	}{
		{
			name:   "register capability",
			method: protocol.MethodClientRegisterCapability,
			params: json.RawMessage(`{"registrations":[{"id":"1","method":"workspace/didChangeWatchedFiles"}]}`),
			want:   `null`,
		},
		{
			name:   "unregister capability",
			method: protocol.MethodClientUnregisterCapability,
			params: json.RawMessage(`{"unregisterations":[]}`),
			want:   `null`,
		},
		{name: "code lens refresh", method: protocol.MethodWorkspaceCodeLensRefresh, want: `null`},
		{name: "semantic tokens refresh", method: protocol.MethodWorkspaceSemanticTokensRefresh, want: `null`},
		{name: "inlay hint refresh", method: protocol.MethodWorkspaceInlayHintRefresh, want: `null`},
		{name: "diagnostic refresh", method: protocol.MethodWorkspaceDiagnosticRefresh, want: `null`},
		{
			name:   "progress create",
			method: protocol.MethodWorkDoneProgressCreate,
			params: json.RawMessage(`{"token":"indexing"}`),
			want:   `null`,
		},
		{
			name:   "apply edit refused",
			method: protocol.MethodWorkspaceApplyEdit,
			params: json.RawMessage(`{"label":"rename","edit":{}}`),
			want:   `{"applied":false,"failureReason":"client is read-only"}`,
		},
		{
			name:   "show document refused",
			method: protocol.MethodWindowShowDocument,
			params: json.RawMessage(`{"uri":"https://example.com","external":true}`),
			want:   `{"success":false}`,
		},
		{
			name:   "show message request picks nothing",
			method: protocol.MethodWindowShowMessageRequest,
			params: json.RawMessage(`{"type":2,"message":"Reload workspace?","actions":[{"title":"Yes"},{"title":"No"}]}`),
			want:   `null`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := h.call(t, tt.method, tt.params)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(res))
		})
	}

	h.waitOutput(t, "Reload workspace?")
	assert.Contains(t, h.out.String(), "Yes | No")
}

func TestEventHandler_CustomRequestIsMethodNotFound(t *testing.T) {
	h := startHandler(t, context.Background())

	_, err := h.call(t, "$/vendor/ping", map[string]int{"n": 1})
	require.Error(t, err)

	var rpcErr *jsonrpc.Error
	require.True(t, errors.As(err, &rpcErr))
	assert.True(t, rpcErr.IsMethodNotFound())
}

func TestEventHandler_RendersNotifications(t *testing.T) {
	h := startHandler(t, context.Background())
	ctx := context.Background()

	require.NoError(t, h.peer.Notify(ctx, protocol.MethodWindowLogMessage,
		protocol.LogMessageParams{Type: protocol.MessageInfo, Message: "indexing done"}))
	h.waitOutput(t, "indexing done")

	require.NoError(t, h.peer.Notify(ctx, protocol.MethodTextDocumentPublishDiagnostics, json.RawMessage(`{
		"uri": "file:///work/main.go",
		"diagnostics": [{
			"range": {"start": {"line": 2, "character": 4}, "end": {"line": 2, "character": 9}},
			"severity": 1,
			"source": "compiler",
			"message": "declared and not used: x"
		}]
	}`)))
	h.waitOutput(t, "declared and not used: x")
	assert.Contains(t, h.out.String(), "3:5")
}

func TestEventHandler_RunReportsServerExit(t *testing.T) {
	h := startHandler(t, context.Background())

	require.NoError(t, h.peer.Close())
	select {
	case err := <-h.done:
		assert.ErrorIs(t, err, errServerExited)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after the server went away")
	}
}

func TestEventHandler_RunAfterCancelIsClean(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := startHandler(t, ctx)
	cancel()

	require.NoError(t, h.conn.Close())
	select {
	case err := <-h.done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after close")
	}
}

func TestLookupSection(t *testing.T) {
	settings := map[string]any{
		"python": map[string]any{
			"analysis": map[string]any{"typeCheckingMode": "strict"},
		},
		"flat": 3,
	}

	tests := []struct {
		section string
		want    any
		ok      bool
	}{
		{"python.analysis.typeCheckingMode", "strict", true},
		{"flat", 3, true},
		{"flat.deeper", nil, false},
		{"python.missing", nil, false},
		{"", settings, true},
	}
	for _, tt := range tests {
		got, ok := lookupSection(settings, tt.section)
		assert.Equal(t, tt.ok, ok, tt.section)
		if tt.ok {
			assert.Equal(t, tt.want, got, tt.section)
		}
	}

	_, ok := lookupSection(nil, "anything")
	assert.False(t, ok)
}

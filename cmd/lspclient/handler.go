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
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/AleutianAI/lspconn/services/lsp"
	"github.com/AleutianAI/lspconn/services/lsp/client"
	"github.com/AleutianAI/lspconn/services/lsp/protocol"
)

// errServerExited is returned by eventHandler.run when the event stream
// ends before the host asked for a shutdown.
var errServerExited = errors.New("language server exited")

// eventHandler answers server requests on behalf of a headless editor and
// renders notifications to an output.
//
// Thread Safety: run must be called from a single goroutine.
type eventHandler struct {
	root     string
	settings map[string]any
	out      io.Writer
	styles   styles
	logger   *slog.Logger
}

func newEventHandler(root string, settings map[string]any, out io.Writer, logger *slog.Logger) *eventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &eventHandler{
		root:     root,
		settings: settings,
		out:      out,
		styles:   newStyles(out),
		logger:   logger,
	}
}

// run drains events until the stream closes. It keeps draining after ctx
// ends so the shutdown handshake is never stuck behind a full buffer.
func (h *eventHandler) run(ctx context.Context, events <-chan lsp.Event) error {
	for ev := range events {
		if err := h.handle(ctx, ev); err != nil {
			h.logger.Warn("Failed to handle server event", slog.String("error", err.Error()))
		}
	}
	if ctx.Err() != nil {
		return nil
	}
	return errServerExited
}

// handle renders or answers one event.
func (h *eventHandler) handle(ctx context.Context, ev lsp.Event) error {
	switch ev := ev.(type) {
	case *lsp.NotificationEvent:
		fmt.Fprintln(h.out, h.styles.renderNotification(ev.Notification))
		return nil
	case *lsp.RequestEvent:
		fmt.Fprintln(h.out, h.styles.renderRequest(ev.Request))
		// Replies must reach the server even while the host shuts down.
		err := h.answer(context.WithoutCancel(ctx), ev.Request)
		if err != nil {
			return fmt.Errorf("answer %s (id %s): %w", ev.Request.Method(), ev.ID, err)
		}
		return nil
	default:
		return fmt.Errorf("unexpected event %T", ev)
	}
}

// answer sends exactly one response for req.
func (h *eventHandler) answer(ctx context.Context, req lsp.ServerRequest) error {
	switch r := req.(type) {
	case *lsp.WorkspaceConfiguration:
		return r.Reply.Succeed(ctx, h.configuration(r.Params.Items))
	case *lsp.WorkspaceFolders:
		return r.Reply.Succeed(ctx, []protocol.WorkspaceFolder{{
			URI:  client.PathToURI(h.root),
			Name: filepath.Base(h.root),
		}})
	case *lsp.ApplyEdit:
		return r.Reply.Succeed(ctx, protocol.ApplyWorkspaceEditResult{
			Applied:       false,
			FailureReason: "client is read-only",
		})
	case *lsp.RegisterCapability:
		for _, reg := range r.Params.Registrations {
			h.logger.Debug("Server registered capability", slog.String("method", reg.Method), slog.String("id", reg.ID))
		}
		return r.Reply.Succeed(ctx)
	case *lsp.UnregisterCapability:
		return r.Reply.Succeed(ctx)
	case *lsp.CodeLensRefresh:
		return r.Reply.Succeed(ctx)
	case *lsp.SemanticTokensRefresh:
		return r.Reply.Succeed(ctx)
	case *lsp.InlayHintRefresh:
		return r.Reply.Succeed(ctx)
	case *lsp.DiagnosticRefresh:
		return r.Reply.Succeed(ctx)
	case *lsp.InlineValueRefresh:
		return r.Reply.Succeed(ctx)
	case *lsp.FoldingRangeRefresh:
		return r.Reply.Succeed(ctx)
	case *lsp.ShowMessageRequest:
		return r.Reply.Succeed(ctx, nil)
	case *lsp.ShowDocument:
		return r.Reply.Succeed(ctx, protocol.ShowDocumentResult{Success: false})
	case *lsp.WorkDoneProgressCreate:
		return r.Reply.Succeed(ctx)
	default:
		return req.Fail(ctx, fmt.Errorf("%w: %s", lsp.ErrUnrecognizedMethod, req.Method()))
	}
}

// configuration answers workspace/configuration from the configured
// initialization options. Sections are dotted paths; unknown ones are null.
func (h *eventHandler) configuration(items []protocol.ConfigurationItem) []protocol.LSPAny {
	out := make([]protocol.LSPAny, len(items))
	for i, item := range items {
		out[i] = protocol.LSPAny("null")
		v, ok := lookupSection(h.settings, item.Section)
		if !ok {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			h.logger.Debug("Unencodable configuration section", slog.String("section", item.Section))
			continue
		}
		out[i] = raw
	}
	return out
}

func lookupSection(settings map[string]any, section string) (any, bool) {
	if settings == nil {
		return nil, false
	}
	if section == "" {
		return settings, true
	}
	var cur any = settings
	for _, key := range strings.Split(section, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[key]; !ok {
			return nil, false
		}
	}
	return cur, true
}

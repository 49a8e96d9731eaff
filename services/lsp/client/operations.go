// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package client

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/AleutianAI/lspconn/services/lsp"
	"github.com/AleutianAI/lspconn/services/lsp/protocol"
)

// =============================================================================
// OPERATIONS
// =============================================================================

// Operations provides high-level queries against one hosted server.
//
// Description:
//
//	Wraps a ready Server with editor-style operations that take file
//	paths and 1-indexed lines, check the advertised capabilities, and
//	retry idempotent queries once when the server reports a transient
//	failure. It also tracks which documents are open so didOpen and
//	didClose are sent at most once per document.
//
// Thread Safety:
//
//	Safe for concurrent use.
type Operations struct {
	server  *Server
	metrics *instruments

	maxRetries int
	retryDelay time.Duration

	openMu sync.Mutex
	open   map[protocol.DocumentURI]int
}

const (
	defaultMaxRetries = 1
	defaultRetryDelay = 100 * time.Millisecond
)

// NewOperations creates an Operations wrapper for server.
func NewOperations(server *Server) *Operations {
	return &Operations{
		server:     server,
		metrics:    processInstruments(),
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
		open:       make(map[protocol.DocumentURI]int),
	}
}

// Server returns the wrapped server.
func (o *Operations) Server() *Server {
	return o.server
}

// =============================================================================
// RETRY
// =============================================================================

// withRetry runs fn and retries transient server errors. It also
// returns how many times fn ran.
func withRetry[R any](ctx context.Context, o *Operations, operation string, fn func(*lsp.Connection) (R, error)) (R, int, error) {
	var zero R
	var lastErr error
	attempts := 0

	for attempt := 0; attempt <= o.maxRetries; attempt++ {
		conn, err := o.server.ready()
		if err != nil {
			return zero, attempts, err
		}

		attempts++
		result, err := fn(conn)
		if err == nil {
			return result, attempts, nil
		}
		lastErr = err

		if !isRetryableError(err) || attempt == o.maxRetries {
			break
		}

		slog.Debug("Retrying LSP operation after transient error",
			slog.String("operation", operation),
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()),
		)

		select {
		case <-time.After(o.retryDelay):
		case <-ctx.Done():
			return zero, attempts, ctx.Err()
		}
	}
	return zero, attempts, lastErr
}

func positionParams(filePath string, line, col int) protocol.TextDocumentPositionParams {
	return protocol.TextDocumentPositionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: PathToURI(filePath)},
		Position:     protocol.Position{Line: line - 1, Character: col},
	}
}

// =============================================================================
// DOCUMENT SYNC
// =============================================================================

// OpenFile sends textDocument/didOpen with the file's current content.
// Opening an already open file is a no-op.
func (o *Operations) OpenFile(ctx context.Context, filePath string) error {
	conn, err := o.server.ready()
	if err != nil {
		return err
	}

	uri := PathToURI(filePath)
	o.openMu.Lock()
	defer o.openMu.Unlock()
	if _, ok := o.open[uri]; ok {
		return nil
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("read %s: %w", filePath, err)
	}

	err = lsp.Notify(ctx, conn, lsp.DidOpen, protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        uri,
			LanguageID: o.server.Language(),
			Version:    1,
			Text:       string(content),
		},
	})
	if err != nil {
		return fmt.Errorf("didOpen: %w", err)
	}
	o.open[uri] = 1
	return nil
}

// CloseFile sends textDocument/didClose. Closing a file that is not open
// is a no-op.
func (o *Operations) CloseFile(ctx context.Context, filePath string) error {
	conn, err := o.server.ready()
	if err != nil {
		return err
	}

	uri := PathToURI(filePath)
	o.openMu.Lock()
	defer o.openMu.Unlock()
	if _, ok := o.open[uri]; !ok {
		return nil
	}

	err = lsp.Notify(ctx, conn, lsp.DidClose, protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	})
	if err != nil {
		return fmt.Errorf("didClose: %w", err)
	}
	delete(o.open, uri)
	return nil
}

// IsOpen reports whether filePath has been opened and not closed.
func (o *Operations) IsOpen(filePath string) bool {
	o.openMu.Lock()
	defer o.openMu.Unlock()
	_, ok := o.open[PathToURI(filePath)]
	return ok
}

// =============================================================================
// DEFINITION
// =============================================================================

// Definition returns the definition locations of the symbol at a position.
//
// Inputs:
//
//	ctx - Context for cancellation and timeout
//	filePath - Path to the file
//	line - 1-indexed line number
//	col - 0-indexed column number
//
// Outputs:
//
//	[]protocol.Location - Definition locations, may be empty
//	error - ErrServerNotRunning, ErrCapabilityNotSupported or the request error
//
// Example:
//
//	locs, err := ops.Definition(ctx, "/project/main.go", 10, 5)
//	if err != nil {
//	    return err
//	}
//	for _, loc := range locs {
//	    fmt.Printf("%s:%d\n", client.URIToPath(loc.URI), loc.Range.Start.Line+1)
//	}
func (o *Operations) Definition(ctx context.Context, filePath string, line, col int) (locs []protocol.Location, err error) {
	ctx, ob := o.observe(ctx, "definition", filePath)
	attempts := 0
	defer func() { ob.finish(ctx, attempts, len(locs), err) }()

	caps := o.server.Capabilities()
	if !caps.HasDefinitionProvider() {
		return nil, fmt.Errorf("%w: definition", ErrCapabilityNotSupported)
	}

	params := protocol.DefinitionParams{TextDocumentPositionParams: positionParams(filePath, line, col)}
	result, attempts, err := withRetry(ctx, o, "definition", func(conn *lsp.Connection) (protocol.Locations, error) {
		return lsp.Call(ctx, conn, lsp.Definition, params)
	})
	if err != nil {
		return nil, fmt.Errorf("definition request: %w", err)
	}
	return result, nil
}

// =============================================================================
// REFERENCES
// =============================================================================

// References returns every reference to the symbol at a position.
// Line is 1-indexed and col 0-indexed, as for Definition.
func (o *Operations) References(ctx context.Context, filePath string, line, col int, includeDecl bool) (locs []protocol.Location, err error) {
	ctx, ob := o.observe(ctx, "references", filePath)
	attempts := 0
	defer func() { ob.finish(ctx, attempts, len(locs), err) }()

	caps := o.server.Capabilities()
	if !caps.HasReferencesProvider() {
		return nil, fmt.Errorf("%w: references", ErrCapabilityNotSupported)
	}

	params := protocol.ReferenceParams{
		TextDocumentPositionParams: positionParams(filePath, line, col),
		Context:                    protocol.ReferenceContext{IncludeDeclaration: includeDecl},
	}
	result, attempts, err := withRetry(ctx, o, "references", func(conn *lsp.Connection) ([]protocol.Location, error) {
		return lsp.Call(ctx, conn, lsp.References, params)
	})
	if err != nil {
		return nil, fmt.Errorf("references request: %w", err)
	}
	return result, nil
}

// =============================================================================
// HOVER
// =============================================================================

// HoverInfo contains parsed hover information.
type HoverInfo struct {
	// Content is the hover text (documentation, type info, etc.)
	Content string `json:"content"`

	// Kind is the content format ("plaintext" or "markdown").
	Kind protocol.MarkupKind `json:"kind"`

	// Range is the range this hover applies to (optional).
	Range *protocol.Range `json:"range,omitempty"`
}

// Hover returns type and documentation info for the symbol at a position.
// It returns nil without error when the server has nothing to show.
func (o *Operations) Hover(ctx context.Context, filePath string, line, col int) (info *HoverInfo, err error) {
	ctx, ob := o.observe(ctx, "hover", filePath)
	attempts := 0
	defer func() {
		results := 0
		if info != nil {
			results = 1
		}
		ob.finish(ctx, attempts, results, err)
	}()

	caps := o.server.Capabilities()
	if !caps.HasHoverProvider() {
		return nil, fmt.Errorf("%w: hover", ErrCapabilityNotSupported)
	}

	params := protocol.HoverParams{TextDocumentPositionParams: positionParams(filePath, line, col)}
	hover, attempts, err := withRetry(ctx, o, "hover", func(conn *lsp.Connection) (*protocol.Hover, error) {
		return lsp.Call(ctx, conn, lsp.Hover, params)
	})
	if err != nil {
		return nil, fmt.Errorf("hover request: %w", err)
	}
	if hover == nil || hover.Contents.Value == "" {
		return nil, nil
	}
	return &HoverInfo{
		Content: hover.Contents.Value,
		Kind:    hover.Contents.Kind,
		Range:   hover.Range,
	}, nil
}

// =============================================================================
// DOCUMENT SYMBOLS
// =============================================================================

// DocumentSymbols returns the symbols of a file, flattened to
// SymbolInformation whichever shape the server answered with.
func (o *Operations) DocumentSymbols(ctx context.Context, filePath string) (flat []protocol.SymbolInformation, err error) {
	ctx, ob := o.observe(ctx, "document_symbols", filePath)
	attempts := 0
	defer func() { ob.finish(ctx, attempts, len(flat), err) }()

	caps := o.server.Capabilities()
	if !caps.HasDocumentSymbolProvider() {
		return nil, fmt.Errorf("%w: documentSymbol", ErrCapabilityNotSupported)
	}

	uri := PathToURI(filePath)
	params := protocol.DocumentSymbolParams{TextDocument: protocol.TextDocumentIdentifier{URI: uri}}
	symbols, attempts, err := withRetry(ctx, o, "document_symbols", func(conn *lsp.Connection) (protocol.DocumentSymbols, error) {
		return lsp.Call(ctx, conn, lsp.DocumentSymbol, params)
	})
	if err != nil {
		return nil, fmt.Errorf("documentSymbol request: %w", err)
	}
	return symbols.Flatten(uri), nil
}

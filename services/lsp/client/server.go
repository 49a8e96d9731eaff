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
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/AleutianAI/lspconn/services/lsp"
	"github.com/AleutianAI/lspconn/services/lsp/channel"
	"github.com/AleutianAI/lspconn/services/lsp/protocol"
)

// =============================================================================
// SERVER STATE
// =============================================================================

// ServerState represents the lifecycle state of a hosted server.
type ServerState int

const (
	// ServerStateUninitialized is the initial state before Start or Connect.
	ServerStateUninitialized ServerState = iota

	// ServerStateStarting means the process is launching or the handshake
	// is in flight.
	ServerStateStarting

	// ServerStateReady means the server is initialized and accepting requests.
	ServerStateReady

	// ServerStateStopping means shutdown is in progress.
	ServerStateStopping

	// ServerStateStopped means the server has terminated.
	ServerStateStopped
)

// String returns a human-readable state name.
func (s ServerState) String() string {
	names := []string{"uninitialized", "starting", "ready", "stopping", "stopped"}
	if int(s) >= 0 && int(s) < len(names) {
		return names[s]
	}
	return "unknown"
}

const (
	// shutdownTimeout bounds the shutdown request and the wait for exit.
	shutdownTimeout = 5 * time.Second

	clientName = "lspconn"
)

// =============================================================================
// SERVER
// =============================================================================

// Server is a language server hosted over an lsp.Connection.
//
// Description:
//
//	Owns the lifecycle of one server: process launch (Start) or attachment
//	to an existing channel (Connect), the initialize handshake, and the
//	shutdown/exit teardown. The typed event stream is exposed unchanged
//	through Events.
//
// Thread Safety:
//
//	Safe for concurrent use after Start or Connect returns successfully.
type Server struct {
	config   ServerConfig
	rootPath string
	connOpts []lsp.Option
	logger   *slog.Logger
	metrics  *instruments

	cmd    *exec.Cmd
	ctx    context.Context
	cancel context.CancelFunc

	conn         *lsp.Connection
	capabilities protocol.ServerCapabilities
	serverInfo   *protocol.ServerInfo

	state   ServerState
	stateMu sync.RWMutex
}

// NewServer creates a server instance (not started).
//
// Inputs:
//
//	config - How to launch the server and which language it serves
//	rootPath - Absolute path to the workspace root
//	opts - Options applied to the underlying lsp.Connection
//
// Outputs:
//
//	*Server - The configured (but not started) server
func NewServer(config ServerConfig, rootPath string, opts ...lsp.Option) *Server {
	return &Server{
		config:   config,
		rootPath: rootPath,
		connOpts: opts,
		logger:   slog.Default().With(slog.String("language", config.Language)),
		metrics:  processInstruments(),
		state:    ServerStateUninitialized,
	}
}

// Start launches the server process and initializes it.
//
// Description:
//
//	Looks up the configured command, starts it in the workspace root with
//	stdio pipes framed by Content-Length headers, and performs the
//	initialize handshake. The process lifetime is independent of ctx,
//	which only bounds the handshake.
//
// Errors:
//
//	ErrServerNotInstalled - Command not found
//	ErrServerAlreadyStarted - Start or Connect was already called
//	ErrInitializeFailed - The initialize handshake failed
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("ctx must not be nil")
	}
	if !s.transition(ServerStateUninitialized, ServerStateStarting) {
		return ErrServerAlreadyStarted
	}

	path, err := exec.LookPath(s.config.Command)
	if err != nil {
		s.setState(ServerStateStopped)
		s.metrics.serverStart(ctx, s.config.Language, transportStdio, outcomeNotInstalled)
		s.logger.Warn("LSP server not installed", slog.String("command", s.config.Command))
		return fmt.Errorf("%w: %s", ErrServerNotInstalled, s.config.Command)
	}

	s.logger.Info("Starting LSP server",
		slog.String("command", path),
		slog.String("root_path", s.rootPath),
	)

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.cmd = exec.CommandContext(s.ctx, path, s.config.Args...)
	s.cmd.Dir = s.rootPath
	if len(s.config.Env) > 0 {
		s.cmd.Env = append(os.Environ(), s.config.Env...)
	}

	stdin, err := s.cmd.StdinPipe()
	if err != nil {
		s.abort(ctx)
		return fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := s.cmd.StdoutPipe()
	if err != nil {
		s.abort(ctx)
		return fmt.Errorf("stdout pipe: %w", err)
	}
	if err := s.cmd.Start(); err != nil {
		s.abort(ctx)
		return fmt.Errorf("start process: %w", err)
	}

	return s.connect(ctx, channel.NewHeaderChannel(stdout, stdin), transportStdio)
}

// Connect initializes a server reachable over an established channel,
// such as a WebSocket. The server owns ch from now on.
func (s *Server) Connect(ctx context.Context, ch channel.Channel) error {
	if ctx == nil {
		return fmt.Errorf("ctx must not be nil")
	}
	if !s.transition(ServerStateUninitialized, ServerStateStarting) {
		return ErrServerAlreadyStarted
	}
	return s.connect(ctx, ch, transportChannel)
}

func (s *Server) connect(ctx context.Context, ch channel.Channel, transport string) error {
	s.conn = lsp.New(ch, s.connOpts...)

	start := time.Now()
	err := s.initialize(ctx)
	s.metrics.handshakeDone(ctx, s.config.Language, time.Since(start), err == nil)
	if err != nil {
		s.metrics.serverStart(ctx, s.config.Language, transport, outcomeInitFailed)
		_ = s.Shutdown(ctx)
		return fmt.Errorf("%w: %w", ErrInitializeFailed, err)
	}

	s.setState(ServerStateReady)
	s.metrics.serverStart(ctx, s.config.Language, transport, outcomeOK)

	attrs := []any{
		slog.String("connection_id", s.conn.ID()),
		slog.Bool("definition", s.capabilities.HasDefinitionProvider()),
		slog.Bool("references", s.capabilities.HasReferencesProvider()),
		slog.Bool("hover", s.capabilities.HasHoverProvider()),
		slog.Bool("document_symbol", s.capabilities.HasDocumentSymbolProvider()),
	}
	if s.serverInfo != nil {
		attrs = append(attrs, slog.String("server", s.serverInfo.Name))
	}
	s.logger.Info("LSP server ready", attrs...)
	return nil
}

// initialize performs the initialize request and initialized notification.
func (s *Server) initialize(ctx context.Context) error {
	pid := os.Getpid()
	rootURI := PathToURI(s.rootPath)

	params := protocol.InitializeParams{
		ProcessID:  &pid,
		ClientInfo: &protocol.ClientInfo{Name: clientName},
		RootPath:   s.rootPath,
		RootURI:    rootURI,
		Capabilities: protocol.ClientCapabilities{
			TextDocument: &protocol.TextDocumentClientCapabilities{
				Synchronization: &protocol.TextDocumentSyncClientCapabilities{DidSave: true},
				Definition:      &protocol.LinkSupportCapabilities{LinkSupport: true},
				References:      &protocol.DynamicRegistrationCapabilities{},
				Hover: &protocol.HoverClientCapabilities{
					ContentFormat: []protocol.MarkupKind{protocol.MarkupKindMarkdown, protocol.MarkupKindPlainText},
				},
				DocumentSymbol: &protocol.DocumentSymbolClientCapabilities{HierarchicalDocumentSymbolSupport: true},
				PublishDiagnostics: &protocol.PublishDiagnosticsClientCapabilities{
					RelatedInformation: true,
				},
			},
			Workspace: &protocol.WorkspaceClientCapabilities{
				ApplyEdit:             true,
				WorkspaceEdit:         &protocol.WorkspaceEditClientCapabilities{DocumentChanges: true},
				DidChangeWatchedFiles: &protocol.DynamicRegistrationCapabilities{DynamicRegistration: true},
				WorkspaceFolders:      true,
				Configuration:         true,
			},
			Window: &protocol.WindowClientCapabilities{WorkDoneProgress: true},
		},
		WorkspaceFolders: []protocol.WorkspaceFolder{
			{URI: rootURI, Name: filepath.Base(s.rootPath)},
		},
	}
	if len(s.config.InitializationOptions) > 0 {
		params.InitializationOptions = protocol.LSPAny(s.config.InitializationOptions)
	}

	result, err := lsp.Call(ctx, s.conn, lsp.Initialize, params)
	if err != nil {
		return fmt.Errorf("initialize request: %w", err)
	}
	if result == nil {
		return fmt.Errorf("%w: null initialize result", ErrInvalidResponse)
	}
	s.capabilities = result.Capabilities
	s.serverInfo = result.ServerInfo

	if err := lsp.Notify(ctx, s.conn, lsp.Initialized, protocol.InitializedParams{}); err != nil {
		return fmt.Errorf("initialized notification: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
//
// Description:
//
//	Sends shutdown and exit, closes the connection and waits for the
//	process to terminate, killing it if it does not exit in time.
//
// Thread Safety:
//
//	Safe for concurrent use. Multiple calls are idempotent.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stateMu.Lock()
	if s.state == ServerStateStopped || s.state == ServerStateStopping {
		s.stateMu.Unlock()
		return nil
	}
	s.state = ServerStateStopping
	s.stateMu.Unlock()

	s.logger.Info("Shutting down LSP server")
	defer s.setState(ServerStateStopped)

	var errs []error
	outcome := outcomeGraceful
	if s.conn != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()

		if _, err := lsp.Call(shutdownCtx, s.conn, lsp.Shutdown, protocol.NoParams{}); err != nil {
			s.logger.Debug("Shutdown request failed", slog.String("error", err.Error()))
		}
		if err := lsp.Notify(shutdownCtx, s.conn, lsp.Exit, protocol.NoParams{}); err != nil {
			s.logger.Debug("Exit notification failed", slog.String("error", err.Error()))
		}
		if err := s.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
	}

	if s.cmd != nil && s.cmd.Process != nil {
		done := make(chan error, 1)
		go func() { done <- s.cmd.Wait() }()

		select {
		case <-time.After(shutdownTimeout):
			_ = s.cmd.Process.Kill()
			<-done
			outcome = outcomeKilled
		case err := <-done:
			var exitErr *exec.ExitError
			if err != nil && !errors.As(err, &exitErr) {
				errs = append(errs, fmt.Errorf("wait for process: %w", err))
			}
		}
	}

	if s.cancel != nil {
		s.cancel()
	}
	s.metrics.serverStop(ctx, s.config.Language, outcome)
	return errors.Join(errs...)
}

// abort tears down a partially started process.
func (s *Server) abort(ctx context.Context) {
	s.metrics.serverStart(ctx, s.config.Language, transportStdio, outcomeSpawnFailed)
	if s.cancel != nil {
		s.cancel()
	}
	s.setState(ServerStateStopped)
}

// =============================================================================
// ACCESSORS
// =============================================================================

// State returns the current server state.
func (s *Server) State() ServerState {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// Language returns the language this server handles.
func (s *Server) Language() string {
	return s.config.Language
}

// RootPath returns the workspace root path.
func (s *Server) RootPath() string {
	return s.rootPath
}

// Capabilities returns the capabilities the server reported during
// initialize. The zero value is returned before then.
func (s *Server) Capabilities() protocol.ServerCapabilities {
	return s.capabilities
}

// ServerInfo returns the server's self-description, nil if it sent none.
func (s *Server) ServerInfo() *protocol.ServerInfo {
	return s.serverInfo
}

// Connection returns the typed connection, nil before Start or Connect.
func (s *Server) Connection() *lsp.Connection {
	return s.conn
}

// Events returns the connection's typed event stream.
func (s *Server) Events() <-chan lsp.Event {
	if s.conn == nil {
		return nil
	}
	return s.conn.Events()
}

// ready returns the connection if the server accepts requests.
func (s *Server) ready() (*lsp.Connection, error) {
	if s.State() != ServerStateReady {
		return nil, ErrServerNotRunning
	}
	return s.conn, nil
}

func (s *Server) setState(state ServerState) {
	s.stateMu.Lock()
	s.state = state
	s.stateMu.Unlock()
}

func (s *Server) transition(from, to ServerState) bool {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if s.state != from {
		return false
	}
	s.state = to
	return true
}

// =============================================================================
// URI HELPERS
// =============================================================================

// PathToURI converts a file path to a file:// URI, making it absolute and
// escaping reserved characters.
func PathToURI(path string) protocol.DocumentURI {
	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}
	u := &url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return protocol.DocumentURI(u.String())
}

// URIToPath converts a file:// URI back to a file path.
func URIToPath(uri protocol.DocumentURI) string {
	if u, err := url.Parse(string(uri)); err == nil && u.Scheme == "file" {
		return filepath.FromSlash(u.Path)
	}
	return strings.TrimPrefix(string(uri), "file://")
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/AleutianAI/lspconn/services/lsp/jsonrpc"
)

// =============================================================================
// INITIALIZE TYPES
// =============================================================================

// InitializeParams contains initialization parameters.
type InitializeParams struct {
	WorkDoneProgressParams

	// ProcessID is the process ID of the parent process. Nil is sent as
	// null, meaning the server should not watch the parent.
	ProcessID *int `json:"processId"`

	// ClientInfo identifies the client.
	ClientInfo *ClientInfo `json:"clientInfo,omitempty"`

	// Locale is the client UI locale, e.g. "en-us".
	Locale string `json:"locale,omitempty"`

	// RootPath is the root path of the workspace (deprecated).
	RootPath string `json:"rootPath,omitempty"`

	// RootURI is the root URI of the workspace (preferred over rootPath).
	RootURI DocumentURI `json:"rootUri,omitempty"`

	// InitializationOptions are server specific options.
	InitializationOptions LSPAny `json:"initializationOptions,omitempty"`

	// Capabilities describes what the client supports.
	Capabilities ClientCapabilities `json:"capabilities,omitzero"`

	// Trace sets the initial trace setting.
	Trace TraceValue `json:"trace,omitempty"`

	// WorkspaceFolders are the workspace folders if supported.
	WorkspaceFolders []WorkspaceFolder `json:"workspaceFolders,omitempty"`
}

// ClientInfo identifies the client.
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// TraceValue is the server trace level.
type TraceValue string

const (
	TraceOff      TraceValue = "off"
	TraceMessages TraceValue = "messages"
	TraceVerbose  TraceValue = "verbose"
)

// WorkspaceFolder represents a workspace folder.
type WorkspaceFolder struct {
	// URI is the folder URI.
	URI DocumentURI `json:"uri"`

	// Name is the name of the folder.
	Name string `json:"name"`
}

// ClientCapabilities describes what the client supports.
type ClientCapabilities struct {
	// TextDocument describes text document capabilities.
	TextDocument *TextDocumentClientCapabilities `json:"textDocument,omitempty"`

	// Workspace describes workspace capabilities.
	Workspace *WorkspaceClientCapabilities `json:"workspace,omitempty"`

	// Window describes window capabilities.
	Window *WindowClientCapabilities `json:"window,omitempty"`

	// General holds general client capabilities, kept raw.
	General LSPAny `json:"general,omitempty"`

	// Experimental holds experimental capabilities.
	Experimental LSPAny `json:"experimental,omitempty"`
}

// TextDocumentClientCapabilities describes text document capabilities.
type TextDocumentClientCapabilities struct {
	// Synchronization describes document sync capabilities.
	Synchronization *TextDocumentSyncClientCapabilities `json:"synchronization,omitempty"`

	// Definition describes go-to-definition support.
	Definition *LinkSupportCapabilities `json:"definition,omitempty"`

	// Declaration describes go-to-declaration support.
	Declaration *LinkSupportCapabilities `json:"declaration,omitempty"`

	// References describes find-references support.
	References *DynamicRegistrationCapabilities `json:"references,omitempty"`

	// Hover describes hover support.
	Hover *HoverClientCapabilities `json:"hover,omitempty"`

	// DocumentSymbol describes document symbol support.
	DocumentSymbol *DocumentSymbolClientCapabilities `json:"documentSymbol,omitempty"`

	// Rename describes rename support.
	Rename *RenameClientCapabilities `json:"rename,omitempty"`

	// PublishDiagnostics describes diagnostics support.
	PublishDiagnostics *PublishDiagnosticsClientCapabilities `json:"publishDiagnostics,omitempty"`
}

// DynamicRegistrationCapabilities is the common capability shape.
type DynamicRegistrationCapabilities struct {
	// DynamicRegistration indicates dynamic registration is supported.
	DynamicRegistration bool `json:"dynamicRegistration,omitempty"`
}

// TextDocumentSyncClientCapabilities describes sync capabilities.
type TextDocumentSyncClientCapabilities struct {
	DynamicRegistration bool `json:"dynamicRegistration,omitempty"`
	WillSave            bool `json:"willSave,omitempty"`
	WillSaveWaitUntil   bool `json:"willSaveWaitUntil,omitempty"`
	DidSave             bool `json:"didSave,omitempty"`
}

// LinkSupportCapabilities describes definition-style request support.
type LinkSupportCapabilities struct {
	DynamicRegistration bool `json:"dynamicRegistration,omitempty"`

	// LinkSupport indicates LocationLink results are understood.
	LinkSupport bool `json:"linkSupport,omitempty"`
}

// HoverClientCapabilities describes hover support.
type HoverClientCapabilities struct {
	DynamicRegistration bool `json:"dynamicRegistration,omitempty"`

	// ContentFormat lists supported content formats in order of preference.
	ContentFormat []MarkupKind `json:"contentFormat,omitempty"`
}

// DocumentSymbolClientCapabilities describes document symbol support.
type DocumentSymbolClientCapabilities struct {
	DynamicRegistration bool `json:"dynamicRegistration,omitempty"`

	// HierarchicalDocumentSymbolSupport requests DocumentSymbol trees.
	HierarchicalDocumentSymbolSupport bool `json:"hierarchicalDocumentSymbolSupport,omitempty"`
}

// RenameClientCapabilities describes rename support.
type RenameClientCapabilities struct {
	DynamicRegistration bool `json:"dynamicRegistration,omitempty"`

	// PrepareSupport indicates prepareRename is supported.
	PrepareSupport bool `json:"prepareSupport,omitempty"`
}

// PublishDiagnosticsClientCapabilities describes diagnostics support.
type PublishDiagnosticsClientCapabilities struct {
	RelatedInformation bool `json:"relatedInformation,omitempty"`
	VersionSupport     bool `json:"versionSupport,omitempty"`
}

// WorkspaceClientCapabilities describes workspace capabilities.
type WorkspaceClientCapabilities struct {
	// ApplyEdit indicates workspace/applyEdit requests are supported.
	ApplyEdit bool `json:"applyEdit,omitempty"`

	// WorkspaceEdit describes workspace edit capabilities.
	WorkspaceEdit *WorkspaceEditClientCapabilities `json:"workspaceEdit,omitempty"`

	// DidChangeWatchedFiles describes file watching support.
	DidChangeWatchedFiles *DynamicRegistrationCapabilities `json:"didChangeWatchedFiles,omitempty"`

	// Symbol describes workspace symbol capabilities.
	Symbol *DynamicRegistrationCapabilities `json:"symbol,omitempty"`

	// WorkspaceFolders indicates workspace folder support.
	WorkspaceFolders bool `json:"workspaceFolders,omitempty"`

	// Configuration indicates workspace/configuration support.
	Configuration bool `json:"configuration,omitempty"`
}

// WorkspaceEditClientCapabilities describes workspace edit capabilities.
type WorkspaceEditClientCapabilities struct {
	// DocumentChanges indicates documentChanges are supported.
	DocumentChanges bool `json:"documentChanges,omitempty"`
}

// WindowClientCapabilities describes window capabilities.
type WindowClientCapabilities struct {
	// WorkDoneProgress indicates server initiated progress is supported.
	WorkDoneProgress bool `json:"workDoneProgress,omitempty"`

	// ShowMessage describes window/showMessageRequest support, kept raw.
	ShowMessage LSPAny `json:"showMessage,omitempty"`

	// ShowDocument describes window/showDocument support.
	ShowDocument *ShowDocumentClientCapabilities `json:"showDocument,omitempty"`
}

// ShowDocumentClientCapabilities describes window/showDocument support.
type ShowDocumentClientCapabilities struct {
	Support bool `json:"support"`
}

// InitializeResult contains the server's response to initialize.
type InitializeResult struct {
	// Capabilities describes what the server supports.
	Capabilities ServerCapabilities `json:"capabilities"`

	// ServerInfo contains optional server information.
	ServerInfo *ServerInfo `json:"serverInfo,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler. Capabilities must be present.
func (r *InitializeResult) UnmarshalJSON(data []byte) error {
	if err := requireFields(data, "capabilities"); err != nil {
		return err
	}
	type plain InitializeResult
	return json.Unmarshal(data, (*plain)(r))
}

// ServerInfo contains information about the server.
type ServerInfo struct {
	// Name is the server's name.
	Name string `json:"name" validate:"required"`

	// Version is the server's version.
	Version string `json:"version,omitempty"`
}

// InitializedParams is sent with the initialized notification.
type InitializedParams struct{}

// =============================================================================
// SERVER CAPABILITIES
// =============================================================================

// Capability is a server capability that may be a boolean or an options
// object. The raw value is kept so options stay available.
type Capability json.RawMessage

// MarshalJSON implements json.Marshaler.
func (c Capability) MarshalJSON() ([]byte, error) {
	if len(c) == 0 {
		return []byte("null"), nil
	}
	return c, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Capability) UnmarshalJSON(data []byte) error {
	*c = append((*c)[:0], data...)
	return nil
}

// Enabled reports whether the capability is present and not false or null.
func (c Capability) Enabled() bool {
	trimmed := bytes.TrimSpace(c)
	if len(trimmed) == 0 {
		return false
	}
	return !bytes.Equal(trimmed, []byte("false")) && !bytes.Equal(trimmed, []byte("null"))
}

// Decode unmarshals an options-object capability into v.
func (c Capability) Decode(v any) error {
	if !c.Enabled() {
		return fmt.Errorf("capability not enabled")
	}
	return json.Unmarshal(c, v)
}

// ServerCapabilities describes what the server supports.
type ServerCapabilities struct {
	PositionEncoding                 string     `json:"positionEncoding,omitempty"`
	TextDocumentSync                 Capability `json:"textDocumentSync,omitempty"`
	CompletionProvider               Capability `json:"completionProvider,omitempty"`
	HoverProvider                    Capability `json:"hoverProvider,omitempty"`
	SignatureHelpProvider            Capability `json:"signatureHelpProvider,omitempty"`
	DeclarationProvider              Capability `json:"declarationProvider,omitempty"`
	DefinitionProvider               Capability `json:"definitionProvider,omitempty"`
	TypeDefinitionProvider           Capability `json:"typeDefinitionProvider,omitempty"`
	ImplementationProvider           Capability `json:"implementationProvider,omitempty"`
	ReferencesProvider               Capability `json:"referencesProvider,omitempty"`
	DocumentHighlightProvider        Capability `json:"documentHighlightProvider,omitempty"`
	DocumentSymbolProvider           Capability `json:"documentSymbolProvider,omitempty"`
	CodeActionProvider               Capability `json:"codeActionProvider,omitempty"`
	CodeLensProvider                 Capability `json:"codeLensProvider,omitempty"`
	DocumentLinkProvider             Capability `json:"documentLinkProvider,omitempty"`
	ColorProvider                    Capability `json:"colorProvider,omitempty"`
	DocumentFormattingProvider       Capability `json:"documentFormattingProvider,omitempty"`
	DocumentRangeFormattingProvider  Capability `json:"documentRangeFormattingProvider,omitempty"`
	DocumentOnTypeFormattingProvider Capability `json:"documentOnTypeFormattingProvider,omitempty"`
	RenameProvider                   Capability `json:"renameProvider,omitempty"`
	FoldingRangeProvider             Capability `json:"foldingRangeProvider,omitempty"`
	ExecuteCommandProvider           Capability `json:"executeCommandProvider,omitempty"`
	SelectionRangeProvider           Capability `json:"selectionRangeProvider,omitempty"`
	LinkedEditingRangeProvider       Capability `json:"linkedEditingRangeProvider,omitempty"`
	CallHierarchyProvider            Capability `json:"callHierarchyProvider,omitempty"`
	SemanticTokensProvider           Capability `json:"semanticTokensProvider,omitempty"`
	MonikerProvider                  Capability `json:"monikerProvider,omitempty"`
	TypeHierarchyProvider            Capability `json:"typeHierarchyProvider,omitempty"`
	InlineValueProvider              Capability `json:"inlineValueProvider,omitempty"`
	InlayHintProvider                Capability `json:"inlayHintProvider,omitempty"`
	DiagnosticProvider               Capability `json:"diagnosticProvider,omitempty"`
	WorkspaceSymbolProvider          Capability `json:"workspaceSymbolProvider,omitempty"`
	Workspace                        LSPAny     `json:"workspace,omitempty"`
	Experimental                     LSPAny     `json:"experimental,omitempty"`
}

// HasDefinitionProvider returns true if definition is supported.
func (c *ServerCapabilities) HasDefinitionProvider() bool {
	return c.DefinitionProvider.Enabled()
}

// HasReferencesProvider returns true if references is supported.
func (c *ServerCapabilities) HasReferencesProvider() bool {
	return c.ReferencesProvider.Enabled()
}

// HasHoverProvider returns true if hover is supported.
func (c *ServerCapabilities) HasHoverProvider() bool {
	return c.HoverProvider.Enabled()
}

// HasDocumentSymbolProvider returns true if documentSymbol is supported.
func (c *ServerCapabilities) HasDocumentSymbolProvider() bool {
	return c.DocumentSymbolProvider.Enabled()
}

// HasRenameProvider returns true if rename is supported.
func (c *ServerCapabilities) HasRenameProvider() bool {
	return c.RenameProvider.Enabled()
}

// HasWorkspaceSymbolProvider returns true if workspace/symbol is supported.
func (c *ServerCapabilities) HasWorkspaceSymbolProvider() bool {
	return c.WorkspaceSymbolProvider.Enabled()
}

// TextDocumentSyncKind is how document changes are sent to the server.
type TextDocumentSyncKind int

const (
	SyncNone        TextDocumentSyncKind = 0
	SyncFull        TextDocumentSyncKind = 1
	SyncIncremental TextDocumentSyncKind = 2
)

// SyncKind returns the change sync kind advertised by textDocumentSync,
// which is either a bare kind or an options object.
func (c *ServerCapabilities) SyncKind() TextDocumentSyncKind {
	if !c.TextDocumentSync.Enabled() {
		return SyncNone
	}
	var kind TextDocumentSyncKind
	if err := json.Unmarshal(c.TextDocumentSync, &kind); err == nil {
		return kind
	}
	var opts struct {
		Change TextDocumentSyncKind `json:"change"`
	}
	if err := json.Unmarshal(c.TextDocumentSync, &opts); err != nil {
		return SyncNone
	}
	return opts.Change
}

// =============================================================================
// GENERAL MESSAGES
// =============================================================================

// requireFields checks that the object in data carries every key with a
// non-null value. It covers fields whose zero value is also a legal one,
// such as request ID 0, which validate tags cannot tell from absence.
func requireFields(data []byte, keys ...string) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	for _, key := range keys {
		if value, ok := obj[key]; !ok || isNull(value) {
			return fmt.Errorf("%w: missing field %q", jsonrpc.ErrProtocolViolation, key)
		}
	}
	return nil
}

// CancelParams cancels an in-flight request.
type CancelParams struct {
	// ID is the request to cancel.
	ID jsonrpc.ID `json:"id"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *CancelParams) UnmarshalJSON(data []byte) error {
	if err := requireFields(data, "id"); err != nil {
		return err
	}
	type plain CancelParams
	return json.Unmarshal(data, (*plain)(p))
}

// ProgressParams reports progress for a token.
type ProgressParams struct {
	// Token is the progress token from the original request.
	Token ProgressToken `json:"token"`

	// Value is the progress payload, shaped by the token's owner.
	Value LSPAny `json:"value"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *ProgressParams) UnmarshalJSON(data []byte) error {
	if err := requireFields(data, "token"); err != nil {
		return err
	}
	type plain ProgressParams
	return json.Unmarshal(data, (*plain)(p))
}

// WorkDoneProgressValue is the payload of work done progress reports.
type WorkDoneProgressValue struct {
	// Kind is "begin", "report" or "end".
	Kind        string `json:"kind"`
	Title       string `json:"title,omitempty"`
	Message     string `json:"message,omitempty"`
	Percentage  *int   `json:"percentage,omitempty"`
	Cancellable bool   `json:"cancellable,omitempty"`
}

// WorkDone decodes Value as a work done progress payload.
func (p *ProgressParams) WorkDone() (*WorkDoneProgressValue, error) {
	var v WorkDoneProgressValue
	if err := json.Unmarshal(p.Value, &v); err != nil {
		return nil, fmt.Errorf("decode work done progress: %w", err)
	}
	if v.Kind == "" {
		return nil, fmt.Errorf("progress value is not work done progress")
	}
	return &v, nil
}

// SetTraceParams changes the server trace level.
type SetTraceParams struct {
	Value TraceValue `json:"value"`
}

// LogTraceParams is a server trace message.
type LogTraceParams struct {
	Message string `json:"message"`
	Verbose string `json:"verbose,omitempty"`
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package lsp

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"

	"github.com/AleutianAI/lspconn/services/lsp/jsonrpc"
	"github.com/AleutianAI/lspconn/services/lsp/protocol"
)

// =============================================================================
// EVENTS
// =============================================================================

// Event is one item of the typed event stream: *NotificationEvent or
// *RequestEvent.
type Event interface {
	isEvent()
}

// NotificationEvent carries a decoded server notification.
type NotificationEvent struct {
	Notification ServerNotification
}

// RequestEvent carries a decoded server request. The host must answer it
// exactly once through the request's responder.
type RequestEvent struct {
	ID      jsonrpc.ID
	Request ServerRequest
}

func (*NotificationEvent) isEvent() {}
func (*RequestEvent) isEvent()      {}

// =============================================================================
// RESPONDERS
// =============================================================================

// errNoReplier is returned by zero-value responders.
var errNoReplier = errors.New("lsp: responder not bound to a request")

// Reply completes a server request whose success carries a T.
type Reply[T any] struct {
	reply jsonrpc.Replier
}

// Respond sends result, or err when it is non-nil.
func (r Reply[T]) Respond(ctx context.Context, result T, err error) error {
	if r.reply == nil {
		return errNoReplier
	}
	if err != nil {
		return r.reply(ctx, nil, err)
	}
	return r.reply(ctx, result, nil)
}

// Succeed sends result.
func (r Reply[T]) Succeed(ctx context.Context, result T) error {
	return r.Respond(ctx, result, nil)
}

// Fail sends err as a JSON-RPC error. A *jsonrpc.Error is sent as is.
func (r Reply[T]) Fail(ctx context.Context, err error) error {
	var zero T
	if err == nil {
		err = jsonrpc.NewError(jsonrpc.CodeInternalError, "request failed")
	}
	return r.Respond(ctx, zero, err)
}

// Ack completes a server request whose success carries no value.
type Ack struct {
	reply jsonrpc.Replier
}

// Respond sends a null result, or err when it is non-nil.
func (a Ack) Respond(ctx context.Context, err error) error {
	if a.reply == nil {
		return errNoReplier
	}
	return a.reply(ctx, nil, err)
}

// Succeed sends a null result.
func (a Ack) Succeed(ctx context.Context) error {
	return a.Respond(ctx, nil)
}

// Fail sends err as a JSON-RPC error.
func (a Ack) Fail(ctx context.Context, err error) error {
	if err == nil {
		err = jsonrpc.NewError(jsonrpc.CodeInternalError, "request failed")
	}
	return a.Respond(ctx, err)
}

// =============================================================================
// SERVER NOTIFICATIONS
// =============================================================================

// ServerNotification is a decoded notification from the server.
type ServerNotification interface {
	// Method returns the wire method name.
	Method() string
}

// LogMessage is window/logMessage.
type LogMessage struct{ Params protocol.LogMessageParams }

// ShowMessage is window/showMessage.
type ShowMessage struct{ Params protocol.ShowMessageParams }

// PublishDiagnostics is textDocument/publishDiagnostics.
type PublishDiagnostics struct {
	Params protocol.PublishDiagnosticsParams
}

// TelemetryEvent is telemetry/event. Params is the raw payload, JSON null
// when the server sent none.
type TelemetryEvent struct{ Params protocol.LSPAny }

// CancelRequest is $/cancelRequest from the server.
type CancelRequest struct{ Params protocol.CancelParams }

// Progress is $/progress.
type Progress struct{ Params protocol.ProgressParams }

// LogTrace is $/logTrace.
type LogTrace struct{ Params protocol.LogTraceParams }

// MalformedNotification is published in place of a notification whose
// params failed to decode, when escalation is enabled for its method.
type MalformedNotification struct {
	// MethodName is the wire method name.
	MethodName string

	// Params is the raw payload as received.
	Params json.RawMessage

	// Err is a *jsonrpc.DecodeError.
	Err error
}

func (*LogMessage) Method() string              { return protocol.MethodWindowLogMessage }
func (*ShowMessage) Method() string             { return protocol.MethodWindowShowMessage }
func (*PublishDiagnostics) Method() string      { return protocol.MethodTextDocumentPublishDiagnostics }
func (*TelemetryEvent) Method() string          { return protocol.MethodTelemetryEvent }
func (*CancelRequest) Method() string           { return protocol.MethodCancelRequest }
func (*Progress) Method() string                { return protocol.MethodProgress }
func (*LogTrace) Method() string                { return protocol.MethodLogTrace }
func (n *MalformedNotification) Method() string { return n.MethodName }

// notificationEntry is one row of the server notification table.
type notificationEntry struct {
	params reflect.Type
	decode func(raw json.RawMessage) (ServerNotification, error)
}

func notificationEntryFor[P any](wrap func(P) ServerNotification) notificationEntry {
	return notificationEntry{
		params: reflect.TypeFor[P](),
		decode: func(raw json.RawMessage) (ServerNotification, error) {
			params, err := decodeParams[P](raw)
			if err != nil {
				return nil, err
			}
			return wrap(params), nil
		},
	}
}

// telemetryEntry keeps telemetry/event params raw and accepts none.
func telemetryEntry() notificationEntry {
	return notificationEntry{
		params: reflect.TypeFor[protocol.LSPAny](),
		decode: func(raw json.RawMessage) (ServerNotification, error) {
			if len(raw) == 0 {
				raw = json.RawMessage("null")
			}
			return &TelemetryEvent{Params: raw}, nil
		},
	}
}

// =============================================================================
// SERVER REQUESTS
// =============================================================================

// ServerRequest is a decoded request from the server.
type ServerRequest interface {
	// Method returns the wire method name.
	Method() string

	// Fail answers the request with an error, whatever its responder kind.
	Fail(ctx context.Context, err error) error
}

// WorkspaceConfiguration is workspace/configuration. The reply holds one
// value per requested item.
type WorkspaceConfiguration struct {
	Params protocol.ConfigurationParams
	Reply  Reply[[]protocol.LSPAny]
}

// WorkspaceFolders is workspace/workspaceFolders. It carries no params; a
// nil reply means no folder is open.
type WorkspaceFolders struct {
	Reply Reply[[]protocol.WorkspaceFolder]
}

// ApplyEdit is workspace/applyEdit.
type ApplyEdit struct {
	Params protocol.ApplyWorkspaceEditParams
	Reply  Reply[protocol.ApplyWorkspaceEditResult]
}

// RegisterCapability is client/registerCapability.
type RegisterCapability struct {
	Params protocol.RegistrationParams
	Reply  Ack
}

// UnregisterCapability is client/unregisterCapability.
type UnregisterCapability struct {
	Params protocol.UnregistrationParams
	Reply  Ack
}

// CodeLensRefresh is workspace/codeLens/refresh.
type CodeLensRefresh struct{ Reply Ack }

// SemanticTokensRefresh is workspace/semanticTokens/refresh.
type SemanticTokensRefresh struct{ Reply Ack }

// InlayHintRefresh is workspace/inlayHint/refresh.
type InlayHintRefresh struct{ Reply Ack }

// DiagnosticRefresh is workspace/diagnostic/refresh.
type DiagnosticRefresh struct{ Reply Ack }

// InlineValueRefresh is workspace/inlineValue/refresh.
type InlineValueRefresh struct{ Reply Ack }

// FoldingRangeRefresh is workspace/foldingRange/refresh.
type FoldingRangeRefresh struct{ Reply Ack }

// ShowMessageRequest is window/showMessageRequest. A nil reply means no
// action was chosen.
type ShowMessageRequest struct {
	Params protocol.ShowMessageRequestParams
	Reply  Reply[*protocol.MessageActionItem]
}

// ShowDocument is window/showDocument.
type ShowDocument struct {
	Params protocol.ShowDocumentParams
	Reply  Reply[protocol.ShowDocumentResult]
}

// WorkDoneProgressCreate is window/workDoneProgress/create.
type WorkDoneProgressCreate struct {
	Params protocol.WorkDoneProgressCreateParams
	Reply  Ack
}

// CustomServerRequest is any request method outside the table. It is
// still published so the host can answer it; an unanswered request would
// hang the server.
type CustomServerRequest struct {
	MethodName string
	Params     json.RawMessage
	Reply      Reply[any]
}

func (*WorkspaceConfiguration) Method() string { return protocol.MethodWorkspaceConfiguration }
func (*WorkspaceFolders) Method() string       { return protocol.MethodWorkspaceWorkspaceFolders }
func (*ApplyEdit) Method() string              { return protocol.MethodWorkspaceApplyEdit }
func (*RegisterCapability) Method() string     { return protocol.MethodClientRegisterCapability }
func (*UnregisterCapability) Method() string   { return protocol.MethodClientUnregisterCapability }
func (*CodeLensRefresh) Method() string        { return protocol.MethodWorkspaceCodeLensRefresh }
func (*SemanticTokensRefresh) Method() string  { return protocol.MethodWorkspaceSemanticTokensRefresh }
func (*InlayHintRefresh) Method() string       { return protocol.MethodWorkspaceInlayHintRefresh }
func (*DiagnosticRefresh) Method() string      { return protocol.MethodWorkspaceDiagnosticRefresh }
func (*InlineValueRefresh) Method() string     { return protocol.MethodWorkspaceInlineValueRefresh }
func (*FoldingRangeRefresh) Method() string    { return protocol.MethodWorkspaceFoldingRangeRefresh }
func (*ShowMessageRequest) Method() string     { return protocol.MethodWindowShowMessageRequest }
func (*ShowDocument) Method() string           { return protocol.MethodWindowShowDocument }
func (*WorkDoneProgressCreate) Method() string { return protocol.MethodWorkDoneProgressCreate }
func (r *CustomServerRequest) Method() string  { return r.MethodName }

func (r *WorkspaceConfiguration) Fail(ctx context.Context, err error) error {
	return r.Reply.Fail(ctx, err)
}
func (r *WorkspaceFolders) Fail(ctx context.Context, err error) error { return r.Reply.Fail(ctx, err) }
func (r *ApplyEdit) Fail(ctx context.Context, err error) error        { return r.Reply.Fail(ctx, err) }
func (r *RegisterCapability) Fail(ctx context.Context, err error) error {
	return r.Reply.Fail(ctx, err)
}
func (r *UnregisterCapability) Fail(ctx context.Context, err error) error {
	return r.Reply.Fail(ctx, err)
}
func (r *CodeLensRefresh) Fail(ctx context.Context, err error) error { return r.Reply.Fail(ctx, err) }
func (r *SemanticTokensRefresh) Fail(ctx context.Context, err error) error {
	return r.Reply.Fail(ctx, err)
}
func (r *InlayHintRefresh) Fail(ctx context.Context, err error) error  { return r.Reply.Fail(ctx, err) }
func (r *DiagnosticRefresh) Fail(ctx context.Context, err error) error { return r.Reply.Fail(ctx, err) }
func (r *InlineValueRefresh) Fail(ctx context.Context, err error) error {
	return r.Reply.Fail(ctx, err)
}
func (r *FoldingRangeRefresh) Fail(ctx context.Context, err error) error {
	return r.Reply.Fail(ctx, err)
}
func (r *ShowMessageRequest) Fail(ctx context.Context, err error) error {
	return r.Reply.Fail(ctx, err)
}
func (r *ShowDocument) Fail(ctx context.Context, err error) error { return r.Reply.Fail(ctx, err) }
func (r *WorkDoneProgressCreate) Fail(ctx context.Context, err error) error {
	return r.Reply.Fail(ctx, err)
}
func (r *CustomServerRequest) Fail(ctx context.Context, err error) error {
	return r.Reply.Fail(ctx, err)
}

// requestEntry is one row of the server request table.
type requestEntry struct {
	params reflect.Type
	result reflect.Type
	ack    bool
	decode func(raw json.RawMessage, reply jsonrpc.Replier) (ServerRequest, error)
}

// replyEntryFor builds a row for a request answered with a typed result.
func replyEntryFor[P, R any](wrap func(P, Reply[R]) ServerRequest) requestEntry {
	return requestEntry{
		params: reflect.TypeFor[P](),
		result: reflect.TypeFor[R](),
		decode: func(raw json.RawMessage, reply jsonrpc.Replier) (ServerRequest, error) {
			params, err := decodeParams[P](raw)
			if err != nil {
				return nil, err
			}
			return wrap(params, Reply[R]{reply: reply}), nil
		},
	}
}

// ackEntryFor builds a row for a request answered with null or an error.
func ackEntryFor[P any](wrap func(P, Ack) ServerRequest) requestEntry {
	return requestEntry{
		params: reflect.TypeFor[P](),
		result: reflect.TypeFor[protocol.Null](),
		ack:    true,
		decode: func(raw json.RawMessage, reply jsonrpc.Replier) (ServerRequest, error) {
			params, err := decodeParams[P](raw)
			if err != nil {
				return nil, err
			}
			return wrap(params, Ack{reply: reply}), nil
		},
	}
}

// customRequest wraps a request with no table entry.
func customRequest(method string, raw json.RawMessage, reply jsonrpc.Replier) *CustomServerRequest {
	return &CustomServerRequest{MethodName: method, Params: raw, Reply: Reply[any]{reply: reply}}
}

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
	"github.com/AleutianAI/lspconn/services/lsp/protocol"
)

// =============================================================================
// CLIENT REQUESTS
// =============================================================================

// Lifecycle.
var (
	Initialize = newRequestMethod[protocol.InitializeParams, *protocol.InitializeResult](protocol.MethodInitialize).nonNull()
	Shutdown   = newRequestMethod[protocol.NoParams, protocol.Null](protocol.MethodShutdown)
)

// Workspace.
var (
	ExecuteCommand         = newRequestMethod[protocol.ExecuteCommandParams, protocol.LSPAny](protocol.MethodWorkspaceExecuteCommand)
	WillCreateFiles        = newRequestMethod[protocol.CreateFilesParams, *protocol.WorkspaceEdit](protocol.MethodWorkspaceWillCreateFiles)
	WillRenameFiles        = newRequestMethod[protocol.RenameFilesParams, *protocol.WorkspaceEdit](protocol.MethodWorkspaceWillRenameFiles)
	WillDeleteFiles        = newRequestMethod[protocol.DeleteFilesParams, *protocol.WorkspaceEdit](protocol.MethodWorkspaceWillDeleteFiles)
	WorkspaceSymbol        = newRequestMethod[protocol.WorkspaceSymbolParams, []protocol.WorkspaceSymbol](protocol.MethodWorkspaceSymbol)
	WorkspaceSymbolResolve = newRequestMethod[protocol.WorkspaceSymbol, protocol.WorkspaceSymbol](protocol.MethodWorkspaceSymbolResolve)
	WorkspaceDiagnostic    = newRequestMethod[protocol.WorkspaceDiagnosticParams, protocol.WorkspaceDiagnosticReport](protocol.MethodWorkspaceDiagnostic)
)

// Text document.
var (
	WillSaveWaitUntil     = newRequestMethod[protocol.WillSaveTextDocumentParams, []protocol.TextEdit](protocol.MethodTextDocumentWillSaveWaitUntil)
	Completion            = newRequestMethod[protocol.CompletionParams, *protocol.CompletionList](protocol.MethodTextDocumentCompletion)
	CompletionItemResolve = newRequestMethod[protocol.CompletionItem, protocol.CompletionItem](protocol.MethodCompletionItemResolve)
	Hover                 = newRequestMethod[protocol.HoverParams, *protocol.Hover](protocol.MethodTextDocumentHover)
	SignatureHelp         = newRequestMethod[protocol.SignatureHelpParams, *protocol.SignatureHelp](protocol.MethodTextDocumentSignatureHelp)
	Declaration           = newRequestMethod[protocol.DeclarationParams, protocol.Locations](protocol.MethodTextDocumentDeclaration)
	Definition            = newRequestMethod[protocol.DefinitionParams, protocol.Locations](protocol.MethodTextDocumentDefinition)
	TypeDefinition        = newRequestMethod[protocol.TypeDefinitionParams, protocol.Locations](protocol.MethodTextDocumentTypeDefinition)
	Implementation        = newRequestMethod[protocol.ImplementationParams, protocol.Locations](protocol.MethodTextDocumentImplementation)
	References            = newRequestMethod[protocol.ReferenceParams, []protocol.Location](protocol.MethodTextDocumentReferences)
	DocumentHighlight     = newRequestMethod[protocol.DocumentHighlightParams, []protocol.DocumentHighlight](protocol.MethodTextDocumentDocumentHighlight)
	DocumentSymbol        = newRequestMethod[protocol.DocumentSymbolParams, protocol.DocumentSymbols](protocol.MethodTextDocumentDocumentSymbol)
	CodeAction            = newRequestMethod[protocol.CodeActionParams, []protocol.CommandOrCodeAction](protocol.MethodTextDocumentCodeAction)
	CodeActionResolve     = newRequestMethod[protocol.CodeAction, protocol.CodeAction](protocol.MethodCodeActionResolve)
	CodeLens              = newRequestMethod[protocol.CodeLensParams, []protocol.CodeLens](protocol.MethodTextDocumentCodeLens)
	CodeLensResolve       = newRequestMethod[protocol.CodeLens, protocol.CodeLens](protocol.MethodCodeLensResolve)
	DocumentLink          = newRequestMethod[protocol.DocumentLinkParams, []protocol.DocumentLink](protocol.MethodTextDocumentDocumentLink)
	DocumentLinkResolve   = newRequestMethod[protocol.DocumentLink, protocol.DocumentLink](protocol.MethodDocumentLinkResolve)
	DocumentColor         = newRequestMethod[protocol.DocumentColorParams, []protocol.ColorInformation](protocol.MethodTextDocumentDocumentColor)
	ColorPresentation     = newRequestMethod[protocol.ColorPresentationParams, []protocol.ColorPresentation](protocol.MethodTextDocumentColorPresentation)
	Formatting            = newRequestMethod[protocol.DocumentFormattingParams, []protocol.TextEdit](protocol.MethodTextDocumentFormatting)
	RangeFormatting       = newRequestMethod[protocol.DocumentRangeFormattingParams, []protocol.TextEdit](protocol.MethodTextDocumentRangeFormatting)
	OnTypeFormatting      = newRequestMethod[protocol.DocumentOnTypeFormattingParams, []protocol.TextEdit](protocol.MethodTextDocumentOnTypeFormatting)
	PrepareRename         = newRequestMethod[protocol.PrepareRenameParams, *protocol.PrepareRenameResult](protocol.MethodTextDocumentPrepareRename)
	Rename                = newRequestMethod[protocol.RenameParams, *protocol.WorkspaceEdit](protocol.MethodTextDocumentRename)
	FoldingRange          = newRequestMethod[protocol.FoldingRangeParams, []protocol.FoldingRange](protocol.MethodTextDocumentFoldingRange)
	SelectionRange        = newRequestMethod[protocol.SelectionRangeParams, []protocol.SelectionRange](protocol.MethodTextDocumentSelectionRange)
	LinkedEditingRange    = newRequestMethod[protocol.LinkedEditingRangeParams, *protocol.LinkedEditingRanges](protocol.MethodTextDocumentLinkedEditingRange)
	Moniker               = newRequestMethod[protocol.MonikerParams, []protocol.Moniker](protocol.MethodTextDocumentMoniker)
	InlayHint             = newRequestMethod[protocol.InlayHintParams, []protocol.InlayHint](protocol.MethodTextDocumentInlayHint)
	InlayHintResolve      = newRequestMethod[protocol.InlayHint, protocol.InlayHint](protocol.MethodInlayHintResolve)
	InlineValue           = newRequestMethod[protocol.InlineValueParams, []protocol.InlineValue](protocol.MethodTextDocumentInlineValue)
	DocumentDiagnostic    = newRequestMethod[protocol.DocumentDiagnosticParams, protocol.DocumentDiagnosticReport](protocol.MethodTextDocumentDiagnostic)
)

// Semantic tokens.
var (
	SemanticTokensFull      = newRequestMethod[protocol.SemanticTokensParams, *protocol.SemanticTokens](protocol.MethodSemanticTokensFull)
	SemanticTokensFullDelta = newRequestMethod[protocol.SemanticTokensDeltaParams, *protocol.SemanticTokensDeltaResult](protocol.MethodSemanticTokensFullDelta)
	SemanticTokensRange     = newRequestMethod[protocol.SemanticTokensRangeParams, *protocol.SemanticTokens](protocol.MethodSemanticTokensRange)
)

// Call and type hierarchy.
var (
	PrepareCallHierarchy = newRequestMethod[protocol.CallHierarchyPrepareParams, []protocol.CallHierarchyItem](protocol.MethodTextDocumentPrepareCallHierarchy)
	IncomingCalls        = newRequestMethod[protocol.CallHierarchyIncomingCallsParams, []protocol.CallHierarchyIncomingCall](protocol.MethodCallHierarchyIncomingCalls)
	OutgoingCalls        = newRequestMethod[protocol.CallHierarchyOutgoingCallsParams, []protocol.CallHierarchyOutgoingCall](protocol.MethodCallHierarchyOutgoingCalls)
	PrepareTypeHierarchy = newRequestMethod[protocol.TypeHierarchyPrepareParams, []protocol.TypeHierarchyItem](protocol.MethodTextDocumentPrepareTypeHierarchy)
	Supertypes           = newRequestMethod[protocol.TypeHierarchySupertypesParams, []protocol.TypeHierarchyItem](protocol.MethodTypeHierarchySupertypes)
	Subtypes             = newRequestMethod[protocol.TypeHierarchySubtypesParams, []protocol.TypeHierarchyItem](protocol.MethodTypeHierarchySubtypes)
)

// =============================================================================
// CLIENT NOTIFICATIONS
// =============================================================================

var (
	Initialized = newNotificationMethod[protocol.InitializedParams](protocol.MethodInitialized)
	Exit        = newNotificationMethod[protocol.NoParams](protocol.MethodExit)

	DidOpen   = newNotificationMethod[protocol.DidOpenTextDocumentParams](protocol.MethodTextDocumentDidOpen)
	DidChange = newNotificationMethod[protocol.DidChangeTextDocumentParams](protocol.MethodTextDocumentDidChange)
	DidClose  = newNotificationMethod[protocol.DidCloseTextDocumentParams](protocol.MethodTextDocumentDidClose)
	WillSave  = newNotificationMethod[protocol.WillSaveTextDocumentParams](protocol.MethodTextDocumentWillSave)
	DidSave   = newNotificationMethod[protocol.DidSaveTextDocumentParams](protocol.MethodTextDocumentDidSave)

	DidChangeWatchedFiles     = newNotificationMethod[protocol.DidChangeWatchedFilesParams](protocol.MethodWorkspaceDidChangeWatchedFiles)
	DidChangeWorkspaceFolders = newNotificationMethod[protocol.DidChangeWorkspaceFoldersParams](protocol.MethodWorkspaceDidChangeWorkspaceFolders)
	DidChangeConfiguration    = newNotificationMethod[protocol.DidChangeConfigurationParams](protocol.MethodWorkspaceDidChangeConfiguration)
	DidCreateFiles            = newNotificationMethod[protocol.CreateFilesParams](protocol.MethodWorkspaceDidCreateFiles)
	DidRenameFiles            = newNotificationMethod[protocol.RenameFilesParams](protocol.MethodWorkspaceDidRenameFiles)
	DidDeleteFiles            = newNotificationMethod[protocol.DeleteFilesParams](protocol.MethodWorkspaceDidDeleteFiles)

	Cancel                 = newNotificationMethod[protocol.CancelParams](protocol.MethodCancelRequest)
	SetTrace               = newNotificationMethod[protocol.SetTraceParams](protocol.MethodSetTrace)
	WorkDoneProgressCancel = newNotificationMethod[protocol.WorkDoneProgressCancelParams](protocol.MethodWorkDoneProgressCancel)
)

// =============================================================================
// SERVER NOTIFICATIONS
// =============================================================================

var serverNotifications = map[string]notificationEntry{
	protocol.MethodWindowLogMessage: notificationEntryFor(func(p protocol.LogMessageParams) ServerNotification {
		return &LogMessage{Params: p}
	}),
	protocol.MethodWindowShowMessage: notificationEntryFor(func(p protocol.ShowMessageParams) ServerNotification {
		return &ShowMessage{Params: p}
	}),
	protocol.MethodTextDocumentPublishDiagnostics: notificationEntryFor(func(p protocol.PublishDiagnosticsParams) ServerNotification {
		return &PublishDiagnostics{Params: p}
	}),
	protocol.MethodTelemetryEvent: telemetryEntry(),
	protocol.MethodCancelRequest: notificationEntryFor(func(p protocol.CancelParams) ServerNotification {
		return &CancelRequest{Params: p}
	}),
	protocol.MethodProgress: notificationEntryFor(func(p protocol.ProgressParams) ServerNotification {
		return &Progress{Params: p}
	}),
	protocol.MethodLogTrace: notificationEntryFor(func(p protocol.LogTraceParams) ServerNotification {
		return &LogTrace{Params: p}
	}),
}

// =============================================================================
// SERVER REQUESTS
// =============================================================================

var serverRequests = map[string]requestEntry{
	protocol.MethodWorkspaceConfiguration: replyEntryFor(func(p protocol.ConfigurationParams, r Reply[[]protocol.LSPAny]) ServerRequest {
		return &WorkspaceConfiguration{Params: p, Reply: r}
	}),
	protocol.MethodWorkspaceWorkspaceFolders: replyEntryFor(func(_ protocol.NoParams, r Reply[[]protocol.WorkspaceFolder]) ServerRequest {
		return &WorkspaceFolders{Reply: r}
	}),
	protocol.MethodWorkspaceApplyEdit: replyEntryFor(func(p protocol.ApplyWorkspaceEditParams, r Reply[protocol.ApplyWorkspaceEditResult]) ServerRequest {
		return &ApplyEdit{Params: p, Reply: r}
	}),
	protocol.MethodClientRegisterCapability: ackEntryFor(func(p protocol.RegistrationParams, a Ack) ServerRequest {
		return &RegisterCapability{Params: p, Reply: a}
	}),
	protocol.MethodClientUnregisterCapability: ackEntryFor(func(p protocol.UnregistrationParams, a Ack) ServerRequest {
		return &UnregisterCapability{Params: p, Reply: a}
	}),
	protocol.MethodWorkspaceCodeLensRefresh: ackEntryFor(func(_ protocol.NoParams, a Ack) ServerRequest {
		return &CodeLensRefresh{Reply: a}
	}),
	protocol.MethodWorkspaceSemanticTokensRefresh: ackEntryFor(func(_ protocol.NoParams, a Ack) ServerRequest {
		return &SemanticTokensRefresh{Reply: a}
	}),
	protocol.MethodWorkspaceInlayHintRefresh: ackEntryFor(func(_ protocol.NoParams, a Ack) ServerRequest {
		return &InlayHintRefresh{Reply: a}
	}),
	protocol.MethodWorkspaceDiagnosticRefresh: ackEntryFor(func(_ protocol.NoParams, a Ack) ServerRequest {
		return &DiagnosticRefresh{Reply: a}
	}),
	protocol.MethodWorkspaceInlineValueRefresh: ackEntryFor(func(_ protocol.NoParams, a Ack) ServerRequest {
		return &InlineValueRefresh{Reply: a}
	}),
	protocol.MethodWorkspaceFoldingRangeRefresh: ackEntryFor(func(_ protocol.NoParams, a Ack) ServerRequest {
		return &FoldingRangeRefresh{Reply: a}
	}),
	protocol.MethodWindowShowMessageRequest: replyEntryFor(func(p protocol.ShowMessageRequestParams, r Reply[*protocol.MessageActionItem]) ServerRequest {
		return &ShowMessageRequest{Params: p, Reply: r}
	}),
	protocol.MethodWindowShowDocument: replyEntryFor(func(p protocol.ShowDocumentParams, r Reply[protocol.ShowDocumentResult]) ServerRequest {
		return &ShowDocument{Params: p, Reply: r}
	}),
	protocol.MethodWorkDoneProgressCreate: ackEntryFor(func(p protocol.WorkDoneProgressCreateParams, a Ack) ServerRequest {
		return &WorkDoneProgressCreate{Params: p, Reply: a}
	}),
}

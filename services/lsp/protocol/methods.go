// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package protocol defines LSP method names and payload types.
//
// Only the shapes are defined here; which method carries which shape is
// fixed by the dispatch tables in package lsp.
package protocol

// =============================================================================
// CLIENT TO SERVER REQUESTS
// =============================================================================

const (
	MethodInitialize = "initialize"
	MethodShutdown   = "shutdown"

	MethodWorkspaceExecuteCommand  = "workspace/executeCommand"
	MethodWorkspaceWillCreateFiles = "workspace/willCreateFiles"
	MethodWorkspaceWillRenameFiles = "workspace/willRenameFiles"
	MethodWorkspaceWillDeleteFiles = "workspace/willDeleteFiles"
	MethodWorkspaceSymbol          = "workspace/symbol"
	MethodWorkspaceSymbolResolve   = "workspaceSymbol/resolve"
	MethodWorkspaceDiagnostic      = "workspace/diagnostic"

	MethodTextDocumentWillSaveWaitUntil    = "textDocument/willSaveWaitUntil"
	MethodTextDocumentCompletion           = "textDocument/completion"
	MethodCompletionItemResolve            = "completionItem/resolve"
	MethodTextDocumentHover                = "textDocument/hover"
	MethodTextDocumentSignatureHelp        = "textDocument/signatureHelp"
	MethodTextDocumentDeclaration          = "textDocument/declaration"
	MethodTextDocumentDefinition           = "textDocument/definition"
	MethodTextDocumentTypeDefinition       = "textDocument/typeDefinition"
	MethodTextDocumentImplementation       = "textDocument/implementation"
	MethodTextDocumentDocumentHighlight    = "textDocument/documentHighlight"
	MethodTextDocumentDocumentSymbol       = "textDocument/documentSymbol"
	MethodTextDocumentCodeAction           = "textDocument/codeAction"
	MethodCodeActionResolve                = "codeAction/resolve"
	MethodTextDocumentCodeLens             = "textDocument/codeLens"
	MethodCodeLensResolve                  = "codeLens/resolve"
	MethodTextDocumentSelectionRange       = "textDocument/selectionRange"
	MethodTextDocumentLinkedEditingRange   = "textDocument/linkedEditingRange"
	MethodTextDocumentPrepareCallHierarchy = "textDocument/prepareCallHierarchy"
	MethodTextDocumentPrepareRename        = "textDocument/prepareRename"
	MethodTextDocumentPrepareTypeHierarchy = "textDocument/prepareTypeHierarchy"
	MethodTextDocumentRename               = "textDocument/rename"
	MethodTextDocumentInlayHint            = "textDocument/inlayHint"
	MethodInlayHintResolve                 = "inlayHint/resolve"
	MethodTextDocumentDiagnostic           = "textDocument/diagnostic"
	MethodTextDocumentDocumentLink         = "textDocument/documentLink"
	MethodDocumentLinkResolve              = "documentLink/resolve"
	MethodTextDocumentDocumentColor        = "textDocument/documentColor"
	MethodTextDocumentColorPresentation    = "textDocument/colorPresentation"
	MethodTextDocumentFormatting           = "textDocument/formatting"
	MethodTextDocumentRangeFormatting      = "textDocument/rangeFormatting"
	MethodTextDocumentOnTypeFormatting     = "textDocument/onTypeFormatting"
	MethodTextDocumentReferences           = "textDocument/references"
	MethodTextDocumentFoldingRange         = "textDocument/foldingRange"
	MethodTextDocumentMoniker              = "textDocument/moniker"
	MethodTextDocumentInlineValue          = "textDocument/inlineValue"

	MethodSemanticTokensFull      = "textDocument/semanticTokens/full"
	MethodSemanticTokensFullDelta = "textDocument/semanticTokens/full/delta"
	MethodSemanticTokensRange     = "textDocument/semanticTokens/range"

	MethodCallHierarchyIncomingCalls = "callHierarchy/incomingCalls"
	MethodCallHierarchyOutgoingCalls = "callHierarchy/outgoingCalls"
	MethodTypeHierarchySupertypes    = "typeHierarchy/supertypes"
	MethodTypeHierarchySubtypes      = "typeHierarchy/subtypes"
)

// =============================================================================
// CLIENT TO SERVER NOTIFICATIONS
// =============================================================================

const (
	MethodInitialized = "initialized"
	MethodExit        = "exit"

	MethodTextDocumentDidOpen   = "textDocument/didOpen"
	MethodTextDocumentDidChange = "textDocument/didChange"
	MethodTextDocumentDidClose  = "textDocument/didClose"
	MethodTextDocumentWillSave  = "textDocument/willSave"
	MethodTextDocumentDidSave   = "textDocument/didSave"

	MethodWorkspaceDidChangeWatchedFiles     = "workspace/didChangeWatchedFiles"
	MethodWorkspaceDidChangeWorkspaceFolders = "workspace/didChangeWorkspaceFolders"
	MethodWorkspaceDidChangeConfiguration    = "workspace/didChangeConfiguration"
	MethodWorkspaceDidCreateFiles            = "workspace/didCreateFiles"
	MethodWorkspaceDidRenameFiles            = "workspace/didRenameFiles"
	MethodWorkspaceDidDeleteFiles            = "workspace/didDeleteFiles"

	MethodSetTrace               = "$/setTrace"
	MethodWorkDoneProgressCancel = "window/workDoneProgress/cancel"
)

// =============================================================================
// BIDIRECTIONAL NOTIFICATIONS
// =============================================================================

const (
	MethodCancelRequest = "$/cancelRequest"
	MethodProgress      = "$/progress"
)

// =============================================================================
// SERVER TO CLIENT NOTIFICATIONS
// =============================================================================

const (
	MethodWindowLogMessage               = "window/logMessage"
	MethodWindowShowMessage              = "window/showMessage"
	MethodTextDocumentPublishDiagnostics = "textDocument/publishDiagnostics"
	MethodTelemetryEvent                 = "telemetry/event"
	MethodLogTrace                       = "$/logTrace"
)

// =============================================================================
// SERVER TO CLIENT REQUESTS
// =============================================================================

const (
	MethodWorkspaceConfiguration    = "workspace/configuration"
	MethodWorkspaceWorkspaceFolders = "workspace/workspaceFolders"
	MethodWorkspaceApplyEdit        = "workspace/applyEdit"

	MethodClientRegisterCapability   = "client/registerCapability"
	MethodClientUnregisterCapability = "client/unregisterCapability"

	MethodWorkspaceCodeLensRefresh       = "workspace/codeLens/refresh"
	MethodWorkspaceSemanticTokensRefresh = "workspace/semanticTokens/refresh"
	MethodWorkspaceInlayHintRefresh      = "workspace/inlayHint/refresh"
	MethodWorkspaceDiagnosticRefresh     = "workspace/diagnostic/refresh"
	MethodWorkspaceInlineValueRefresh    = "workspace/inlineValue/refresh"
	MethodWorkspaceFoldingRangeRefresh   = "workspace/foldingRange/refresh"

	MethodWindowShowMessageRequest = "window/showMessageRequest"
	MethodWindowShowDocument       = "window/showDocument"
	MethodWorkDoneProgressCreate   = "window/workDoneProgress/create"
)

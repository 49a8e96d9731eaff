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

// =============================================================================
// DOCUMENT SYNCHRONIZATION
// =============================================================================

// DidOpenTextDocumentParams contains params for textDocument/didOpen.
type DidOpenTextDocumentParams struct {
	// TextDocument is the document that was opened.
	TextDocument TextDocumentItem `json:"textDocument"`
}

// DidCloseTextDocumentParams contains params for textDocument/didClose.
type DidCloseTextDocumentParams struct {
	// TextDocument is the document that was closed.
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// DidChangeTextDocumentParams contains params for textDocument/didChange.
type DidChangeTextDocumentParams struct {
	// TextDocument is the document that changed.
	TextDocument VersionedTextDocumentIdentifier `json:"textDocument"`

	// ContentChanges is the list of changes, applied in order.
	ContentChanges []TextDocumentContentChangeEvent `json:"contentChanges"`
}

// TextDocumentContentChangeEvent describes a content change event.
type TextDocumentContentChangeEvent struct {
	// Range is the range that got replaced. Omit for full document sync.
	Range *Range `json:"range,omitempty"`

	// RangeLength is the length of the replaced range (deprecated).
	RangeLength *int `json:"rangeLength,omitempty"`

	// Text is the new text for the range or full document.
	Text string `json:"text"`
}

// TextDocumentSaveReason says why a document is being saved.
type TextDocumentSaveReason int

const (
	SaveReasonManual     TextDocumentSaveReason = 1
	SaveReasonAfterDelay TextDocumentSaveReason = 2
	SaveReasonFocusOut   TextDocumentSaveReason = 3
)

// WillSaveTextDocumentParams is sent before a document is saved.
type WillSaveTextDocumentParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Reason       TextDocumentSaveReason `json:"reason"`
}

// DidSaveTextDocumentParams is sent after a document was saved.
type DidSaveTextDocumentParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`

	// Text is included when the server asked for it on save.
	Text *string `json:"text,omitempty"`
}

// =============================================================================
// WORKSPACE NOTIFICATIONS
// =============================================================================

// FileChangeType is the kind of a watched file change.
type FileChangeType int

const (
	FileCreated FileChangeType = 1
	FileChanged FileChangeType = 2
	FileDeleted FileChangeType = 3
)

// String returns the string representation of the change type.
func (t FileChangeType) String() string {
	switch t {
	case FileCreated:
		return "created"
	case FileChanged:
		return "changed"
	case FileDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// FileEvent is one watched file change.
type FileEvent struct {
	URI  DocumentURI    `json:"uri"`
	Type FileChangeType `json:"type"`
}

// DidChangeWatchedFilesParams reports watched file changes.
type DidChangeWatchedFilesParams struct {
	Changes []FileEvent `json:"changes"`
}

// DidChangeWorkspaceFoldersParams reports workspace folder changes.
type DidChangeWorkspaceFoldersParams struct {
	Event WorkspaceFoldersChangeEvent `json:"event"`
}

// WorkspaceFoldersChangeEvent lists added and removed folders.
type WorkspaceFoldersChangeEvent struct {
	Added   []WorkspaceFolder `json:"added"`
	Removed []WorkspaceFolder `json:"removed"`
}

// DidChangeConfigurationParams carries changed settings.
type DidChangeConfigurationParams struct {
	Settings LSPAny `json:"settings"`
}

// =============================================================================
// FILE OPERATIONS
// =============================================================================

// FileCreate names a created file.
type FileCreate struct {
	URI string `json:"uri"`
}

// CreateFilesParams is sent for workspace/willCreateFiles and didCreateFiles.
type CreateFilesParams struct {
	Files []FileCreate `json:"files"`
}

// FileRename names a renamed file.
type FileRename struct {
	OldURI string `json:"oldUri"`
	NewURI string `json:"newUri"`
}

// RenameFilesParams is sent for workspace/willRenameFiles and didRenameFiles.
type RenameFilesParams struct {
	Files []FileRename `json:"files"`
}

// FileDelete names a deleted file.
type FileDelete struct {
	URI string `json:"uri"`
}

// DeleteFilesParams is sent for workspace/willDeleteFiles and didDeleteFiles.
type DeleteFilesParams struct {
	Files []FileDelete `json:"files"`
}

// WorkDoneProgressCancelParams cancels server initiated progress.
type WorkDoneProgressCancelParams struct {
	Token ProgressToken `json:"token"`
}

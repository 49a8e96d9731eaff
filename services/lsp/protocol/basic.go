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
	"strconv"
)

// =============================================================================
// SPECIAL PAYLOADS
// =============================================================================

// NoParams marks a method that carries no params. The params field is
// omitted on the wire.
type NoParams struct{}

// Null is the result of a method whose successful response is JSON null.
type Null struct{}

// MarshalJSON implements json.Marshaler.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// UnmarshalJSON implements json.Unmarshaler. Servers are not consistent
// about void results, so any value is accepted.
func (*Null) UnmarshalJSON([]byte) error {
	return nil
}

// LSPAny is an arbitrary JSON value kept undecoded.
type LSPAny = json.RawMessage

// IntegerOrString holds a JSON value that is either an integer or a string,
// such as progress tokens and diagnostic codes.
type IntegerOrString struct {
	// Int is the value when IsString is false.
	Int int64

	// String is the value when IsString is true.
	String string

	// IsString selects the variant.
	IsString bool
}

// MarshalJSON implements json.Marshaler.
func (v IntegerOrString) MarshalJSON() ([]byte, error) {
	if v.IsString {
		return json.Marshal(v.String)
	}
	return []byte(strconv.FormatInt(v.Int, 10)), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *IntegerOrString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		v.IsString = true
		v.Int = 0
		return json.Unmarshal(data, &v.String)
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected integer or string, got %s", data)
	}
	*v = IntegerOrString{Int: n}
	return nil
}

// ProgressToken identifies a progress stream.
type ProgressToken = IntegerOrString

// =============================================================================
// POSITION & RANGE TYPES
// =============================================================================

// DocumentURI is a file:// (or other scheme) document URI.
type DocumentURI string

// Position is a zero-based line and UTF-16 character offset.
type Position struct {
	// Line is the 0-indexed line number.
	Line int `json:"line"`

	// Character is the 0-indexed character offset within the line.
	Character int `json:"character"`
}

// Range is a half-open span in a text document.
type Range struct {
	// Start is the inclusive start position.
	Start Position `json:"start"`

	// End is the exclusive end position.
	End Position `json:"end"`
}

// Location is a range inside a document.
type Location struct {
	// URI is the document URI.
	URI DocumentURI `json:"uri" validate:"required"`

	// Range is the range within the document.
	Range Range `json:"range"`
}

// LocationLink links a source span to a target location.
type LocationLink struct {
	// OriginSelectionRange is the span in the source that was used.
	OriginSelectionRange *Range `json:"originSelectionRange,omitempty"`

	// TargetURI is the target document URI.
	TargetURI DocumentURI `json:"targetUri"`

	// TargetRange is the full range of the target.
	TargetRange Range `json:"targetRange"`

	// TargetSelectionRange is the precise range to reveal.
	TargetSelectionRange Range `json:"targetSelectionRange"`
}

// =============================================================================
// DOCUMENT IDENTIFIERS
// =============================================================================

// TextDocumentIdentifier identifies a text document by URI.
type TextDocumentIdentifier struct {
	// URI is the document's URI.
	URI DocumentURI `json:"uri"`
}

// TextDocumentItem is a text document with its content.
type TextDocumentItem struct {
	// URI is the document's URI.
	URI DocumentURI `json:"uri"`

	// LanguageID is the language identifier (e.g., "go", "swift").
	LanguageID string `json:"languageId"`

	// Version increases after each change.
	Version int `json:"version"`

	// Text is the content of the document.
	Text string `json:"text"`
}

// VersionedTextDocumentIdentifier identifies a specific document version.
type VersionedTextDocumentIdentifier struct {
	TextDocumentIdentifier

	// Version is the version number.
	Version int `json:"version"`
}

// OptionalVersionedTextDocumentIdentifier identifies a document whose
// version may be unknown (null).
type OptionalVersionedTextDocumentIdentifier struct {
	TextDocumentIdentifier

	// Version is the version number, nil when unknown.
	Version *int `json:"version"`
}

// TextDocumentPositionParams identifies a position in a text document.
type TextDocumentPositionParams struct {
	// TextDocument is the document identifier.
	TextDocument TextDocumentIdentifier `json:"textDocument"`

	// Position is the position within the document.
	Position Position `json:"position"`
}

// WorkDoneProgressParams carries an optional work done progress token.
type WorkDoneProgressParams struct {
	WorkDoneToken *ProgressToken `json:"workDoneToken,omitempty"`
}

// PartialResultParams carries an optional partial result token.
type PartialResultParams struct {
	PartialResultToken *ProgressToken `json:"partialResultToken,omitempty"`
}

// =============================================================================
// EDITS
// =============================================================================

// TextEdit replaces a range with new text.
type TextEdit struct {
	// Range is the range to replace.
	Range Range `json:"range"`

	// NewText is the replacement text.
	NewText string `json:"newText"`
}

// TextDocumentEdit describes edits to a specific document version.
type TextDocumentEdit struct {
	// TextDocument identifies the document.
	TextDocument OptionalVersionedTextDocumentIdentifier `json:"textDocument"`

	// Edits is the list of edits.
	Edits []TextEdit `json:"edits"`
}

// WorkspaceEdit represents changes to many resources.
type WorkspaceEdit struct {
	// Changes maps a URI to its text edits.
	Changes map[DocumentURI][]TextEdit `json:"changes,omitempty"`

	// DocumentChanges holds versioned document edits and resource
	// operations (create, rename, delete). Entries are kept raw because
	// the array mixes shapes.
	DocumentChanges []json.RawMessage `json:"documentChanges,omitempty"`

	// ChangeAnnotations maps annotation IDs to annotations.
	ChangeAnnotations map[string]ChangeAnnotation `json:"changeAnnotations,omitempty"`
}

// ChangeAnnotation describes a workspace edit change.
type ChangeAnnotation struct {
	Label             string `json:"label"`
	NeedsConfirmation bool   `json:"needsConfirmation,omitempty"`
	Description       string `json:"description,omitempty"`
}

// TextDocumentEdits decodes the DocumentChanges entries that are text
// document edits, skipping resource operations.
func (e *WorkspaceEdit) TextDocumentEdits() ([]TextDocumentEdit, error) {
	var edits []TextDocumentEdit
	for _, raw := range e.DocumentChanges {
		var probe struct {
			Kind string `json:"kind"`
		}
		if err := json.Unmarshal(raw, &probe); err != nil {
			return nil, fmt.Errorf("decode document change: %w", err)
		}
		if probe.Kind != "" {
			continue
		}
		var edit TextDocumentEdit
		if err := json.Unmarshal(raw, &edit); err != nil {
			return nil, fmt.Errorf("decode text document edit: %w", err)
		}
		edits = append(edits, edit)
	}
	return edits, nil
}

// Command references a command registered on the server.
type Command struct {
	// Title of the command, like "save".
	Title string `json:"title"`

	// Command is the identifier of the actual command handler.
	Command string `json:"command"`

	// Arguments are passed to the command handler.
	Arguments []LSPAny `json:"arguments,omitempty"`
}

// =============================================================================
// MARKUP
// =============================================================================

// MarkupKind is the format of documentation content.
type MarkupKind string

const (
	MarkupKindPlainText MarkupKind = "plaintext"
	MarkupKindMarkdown  MarkupKind = "markdown"
)

// MarkupContent is documentation content.
type MarkupContent struct {
	// Kind is the type of markup.
	Kind MarkupKind `json:"kind"`

	// Value is the actual content.
	Value string `json:"value"`
}

// =============================================================================
// DIAGNOSTICS
// =============================================================================

// DiagnosticSeverity is the severity of a diagnostic.
type DiagnosticSeverity int

const (
	SeverityError       DiagnosticSeverity = 1
	SeverityWarning     DiagnosticSeverity = 2
	SeverityInformation DiagnosticSeverity = 3
	SeverityHint        DiagnosticSeverity = 4
)

// String returns the string representation of the severity.
func (s DiagnosticSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInformation:
		return "information"
	case SeverityHint:
		return "hint"
	default:
		return "unknown"
	}
}

// DiagnosticTag is additional metadata about a diagnostic.
type DiagnosticTag int

const (
	DiagnosticTagUnnecessary DiagnosticTag = 1
	DiagnosticTagDeprecated  DiagnosticTag = 2
)

// Diagnostic is a compiler error, warning or hint.
type Diagnostic struct {
	// Range is where the diagnostic applies.
	Range Range `json:"range"`

	// Severity is optional; clients decide how to treat a missing one.
	Severity DiagnosticSeverity `json:"severity,omitempty"`

	// Code is the diagnostic's code, an integer or a string.
	Code *IntegerOrString `json:"code,omitempty"`

	// CodeDescription links to documentation for the code.
	CodeDescription *CodeDescription `json:"codeDescription,omitempty"`

	// Source names the producer, like "go vet".
	Source string `json:"source,omitempty"`

	// Message is the diagnostic text.
	Message string `json:"message"`

	Tags               []DiagnosticTag                `json:"tags,omitempty"`
	RelatedInformation []DiagnosticRelatedInformation `json:"relatedInformation,omitempty"`
	Data               LSPAny                         `json:"data,omitempty"`
}

// CodeDescription links a diagnostic code to documentation.
type CodeDescription struct {
	Href string `json:"href"`
}

// DiagnosticRelatedInformation points at a related source location.
type DiagnosticRelatedInformation struct {
	Location Location `json:"location"`
	Message  string   `json:"message"`
}

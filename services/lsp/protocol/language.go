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
// NAVIGATION
// =============================================================================

// DefinitionParams is sent with textDocument/definition.
type DefinitionParams struct {
	TextDocumentPositionParams
	WorkDoneProgressParams
	PartialResultParams
}

// DeclarationParams is sent with textDocument/declaration.
type DeclarationParams = DefinitionParams

// TypeDefinitionParams is sent with textDocument/typeDefinition.
type TypeDefinitionParams = DefinitionParams

// ImplementationParams is sent with textDocument/implementation.
type ImplementationParams = DefinitionParams

// ReferenceParams extends TextDocumentPositionParams for find references.
type ReferenceParams struct {
	TextDocumentPositionParams
	WorkDoneProgressParams
	PartialResultParams

	// Context contains additional context for the request.
	Context ReferenceContext `json:"context"`
}

// ReferenceContext contains options for find references requests.
type ReferenceContext struct {
	// IncludeDeclaration indicates whether to include the declaration.
	IncludeDeclaration bool `json:"includeDeclaration"`
}

// DocumentHighlightKind distinguishes reads from writes.
type DocumentHighlightKind int

const (
	HighlightText  DocumentHighlightKind = 1
	HighlightRead  DocumentHighlightKind = 2
	HighlightWrite DocumentHighlightKind = 3
)

// DocumentHighlightParams is sent with textDocument/documentHighlight.
type DocumentHighlightParams = DefinitionParams

// DocumentHighlight is a range to highlight.
type DocumentHighlight struct {
	Range Range                 `json:"range"`
	Kind  DocumentHighlightKind `json:"kind,omitempty"`
}

// =============================================================================
// HOVER & SIGNATURE HELP
// =============================================================================

// HoverParams is sent with textDocument/hover.
type HoverParams struct {
	TextDocumentPositionParams
	WorkDoneProgressParams
}

// Hover contains hover information. Contents is normalized to
// MarkupContent whichever legacy form the server used.
type Hover struct {
	// Contents is the hover content.
	Contents MarkupContent `json:"contents"`

	// Range is the range this hover applies to.
	Range *Range `json:"range,omitempty"`
}

// SignatureHelpParams is sent with textDocument/signatureHelp.
type SignatureHelpParams struct {
	TextDocumentPositionParams
	WorkDoneProgressParams

	Context LSPAny `json:"context,omitempty"`
}

// SignatureHelp describes the signature at the cursor.
type SignatureHelp struct {
	Signatures      []SignatureInformation `json:"signatures"`
	ActiveSignature *int                   `json:"activeSignature,omitempty"`
	ActiveParameter *int                   `json:"activeParameter,omitempty"`
}

// SignatureInformation is one callable signature.
type SignatureInformation struct {
	Label           string                 `json:"label"`
	Documentation   LSPAny                 `json:"documentation,omitempty"`
	Parameters      []ParameterInformation `json:"parameters,omitempty"`
	ActiveParameter *int                   `json:"activeParameter,omitempty"`
}

// ParameterInformation is one parameter of a signature. Label is either a
// string or an [start, end] offset pair, so it is kept raw.
type ParameterInformation struct {
	Label         LSPAny `json:"label"`
	Documentation LSPAny `json:"documentation,omitempty"`
}

// =============================================================================
// COMPLETION
// =============================================================================

// CompletionParams is sent with textDocument/completion.
type CompletionParams struct {
	TextDocumentPositionParams
	WorkDoneProgressParams
	PartialResultParams

	Context *CompletionContext `json:"context,omitempty"`
}

// CompletionContext says how completion was triggered.
type CompletionContext struct {
	TriggerKind      int    `json:"triggerKind"`
	TriggerCharacter string `json:"triggerCharacter,omitempty"`
}

// CompletionItem is one completion proposal.
type CompletionItem struct {
	Label               string     `json:"label"`
	Kind                int        `json:"kind,omitempty"`
	Detail              string     `json:"detail,omitempty"`
	Documentation       LSPAny     `json:"documentation,omitempty"`
	Deprecated          bool       `json:"deprecated,omitempty"`
	Preselect           bool       `json:"preselect,omitempty"`
	SortText            string     `json:"sortText,omitempty"`
	FilterText          string     `json:"filterText,omitempty"`
	InsertText          string     `json:"insertText,omitempty"`
	InsertTextFormat    int        `json:"insertTextFormat,omitempty"`
	TextEdit            LSPAny     `json:"textEdit,omitempty"`
	AdditionalTextEdits []TextEdit `json:"additionalTextEdits,omitempty"`
	CommitCharacters    []string   `json:"commitCharacters,omitempty"`
	Command             *Command   `json:"command,omitempty"`
	Data                LSPAny     `json:"data,omitempty"`
}

// CompletionList is the completion result. A bare item array from the
// server is decoded as a complete list.
type CompletionList struct {
	IsIncomplete bool             `json:"isIncomplete"`
	Items        []CompletionItem `json:"items"`
}

// =============================================================================
// SYMBOLS
// =============================================================================

// SymbolKind represents the kind of a symbol.
type SymbolKind int

// Symbol kinds as defined by the LSP specification.
const (
	SymbolKindFile          SymbolKind = 1
	SymbolKindModule        SymbolKind = 2
	SymbolKindNamespace     SymbolKind = 3
	SymbolKindPackage       SymbolKind = 4
	SymbolKindClass         SymbolKind = 5
	SymbolKindMethod        SymbolKind = 6
	SymbolKindProperty      SymbolKind = 7
	SymbolKindField         SymbolKind = 8
	SymbolKindConstructor   SymbolKind = 9
	SymbolKindEnum          SymbolKind = 10
	SymbolKindInterface     SymbolKind = 11
	SymbolKindFunction      SymbolKind = 12
	SymbolKindVariable      SymbolKind = 13
	SymbolKindConstant      SymbolKind = 14
	SymbolKindString        SymbolKind = 15
	SymbolKindNumber        SymbolKind = 16
	SymbolKindBoolean       SymbolKind = 17
	SymbolKindArray         SymbolKind = 18
	SymbolKindObject        SymbolKind = 19
	SymbolKindKey           SymbolKind = 20
	SymbolKindNull          SymbolKind = 21
	SymbolKindEnumMember    SymbolKind = 22
	SymbolKindStruct        SymbolKind = 23
	SymbolKindEvent         SymbolKind = 24
	SymbolKindOperator      SymbolKind = 25
	SymbolKindTypeParameter SymbolKind = 26
)

// SymbolTag represents additional symbol attributes.
type SymbolTag int

// SymbolTagDeprecated marks a deprecated symbol.
const SymbolTagDeprecated SymbolTag = 1

// DocumentSymbolParams is sent with textDocument/documentSymbol.
type DocumentSymbolParams struct {
	WorkDoneProgressParams
	PartialResultParams

	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// DocumentSymbol is a node in a hierarchical document outline.
type DocumentSymbol struct {
	Name           string           `json:"name"`
	Detail         string           `json:"detail,omitempty"`
	Kind           SymbolKind       `json:"kind"`
	Tags           []SymbolTag      `json:"tags,omitempty"`
	Deprecated     bool             `json:"deprecated,omitempty"`
	Range          Range            `json:"range"`
	SelectionRange Range            `json:"selectionRange"`
	Children       []DocumentSymbol `json:"children,omitempty"`
}

// SymbolInformation is a flat symbol with its location.
type SymbolInformation struct {
	// Name is the symbol's name.
	Name string `json:"name"`

	// Kind is the symbol kind (function, class, etc.).
	Kind SymbolKind `json:"kind"`

	// Tags are additional attributes (deprecated, etc.).
	Tags []SymbolTag `json:"tags,omitempty"`

	// Location is where the symbol is defined.
	Location Location `json:"location"`

	// ContainerName is the name of the containing symbol.
	ContainerName string `json:"containerName,omitempty"`
}

// WorkspaceSymbolParams is sent with workspace/symbol.
type WorkspaceSymbolParams struct {
	WorkDoneProgressParams
	PartialResultParams

	// Query filters symbols. An empty query asks for all symbols.
	Query string `json:"query"`
}

// WorkspaceSymbol covers both SymbolInformation and WorkspaceSymbol
// results: Location.Range is nil when the server deferred it to
// workspaceSymbol/resolve.
type WorkspaceSymbol struct {
	Name          string                  `json:"name"`
	Kind          SymbolKind              `json:"kind"`
	Tags          []SymbolTag             `json:"tags,omitempty"`
	ContainerName string                  `json:"containerName,omitempty"`
	Location      WorkspaceSymbolLocation `json:"location"`
	Data          LSPAny                  `json:"data,omitempty"`
}

// WorkspaceSymbolLocation is a Location whose range may be missing.
type WorkspaceSymbolLocation struct {
	URI   DocumentURI `json:"uri"`
	Range *Range      `json:"range,omitempty"`
}

// =============================================================================
// CODE ACTIONS & CODE LENS
// =============================================================================

// CodeActionParams is sent with textDocument/codeAction.
type CodeActionParams struct {
	WorkDoneProgressParams
	PartialResultParams

	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Range        Range                  `json:"range"`
	Context      CodeActionContext      `json:"context"`
}

// CodeActionContext carries the diagnostics in range.
type CodeActionContext struct {
	Diagnostics []Diagnostic `json:"diagnostics"`
	Only        []string     `json:"only,omitempty"`
	TriggerKind int          `json:"triggerKind,omitempty"`
}

// CodeAction is a change the server can make.
type CodeAction struct {
	Title       string       `json:"title"`
	Kind        string       `json:"kind,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
	IsPreferred bool         `json:"isPreferred,omitempty"`
	Disabled    *struct {
		Reason string `json:"reason"`
	} `json:"disabled,omitempty"`
	Edit    *WorkspaceEdit `json:"edit,omitempty"`
	Command *Command       `json:"command,omitempty"`
	Data    LSPAny         `json:"data,omitempty"`
}

// CodeLensParams is sent with textDocument/codeLens.
type CodeLensParams struct {
	WorkDoneProgressParams
	PartialResultParams

	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// CodeLens is a command shown inline with source.
type CodeLens struct {
	Range   Range    `json:"range"`
	Command *Command `json:"command,omitempty"`
	Data    LSPAny   `json:"data,omitempty"`
}

// =============================================================================
// LINKS & COLORS
// =============================================================================

// DocumentLinkParams is sent with textDocument/documentLink.
type DocumentLinkParams struct {
	WorkDoneProgressParams
	PartialResultParams

	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// DocumentLink is a clickable range.
type DocumentLink struct {
	Range   Range  `json:"range"`
	Target  string `json:"target,omitempty"`
	Tooltip string `json:"tooltip,omitempty"`
	Data    LSPAny `json:"data,omitempty"`
}

// DocumentColorParams is sent with textDocument/documentColor.
type DocumentColorParams struct {
	WorkDoneProgressParams
	PartialResultParams

	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// Color is an RGBA color with components in [0, 1].
type Color struct {
	Red   float64 `json:"red"`
	Green float64 `json:"green"`
	Blue  float64 `json:"blue"`
	Alpha float64 `json:"alpha"`
}

// ColorInformation is a color found in a document.
type ColorInformation struct {
	Range Range `json:"range"`
	Color Color `json:"color"`
}

// ColorPresentationParams is sent with textDocument/colorPresentation.
type ColorPresentationParams struct {
	WorkDoneProgressParams
	PartialResultParams

	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Color        Color                  `json:"color"`
	Range        Range                  `json:"range"`
}

// ColorPresentation is one way to write a color.
type ColorPresentation struct {
	Label               string     `json:"label"`
	TextEdit            *TextEdit  `json:"textEdit,omitempty"`
	AdditionalTextEdits []TextEdit `json:"additionalTextEdits,omitempty"`
}

// =============================================================================
// FORMATTING & RENAME
// =============================================================================

// FormattingOptions controls formatting.
type FormattingOptions struct {
	TabSize                int  `json:"tabSize"`
	InsertSpaces           bool `json:"insertSpaces"`
	TrimTrailingWhitespace bool `json:"trimTrailingWhitespace,omitempty"`
	InsertFinalNewline     bool `json:"insertFinalNewline,omitempty"`
	TrimFinalNewlines      bool `json:"trimFinalNewlines,omitempty"`
}

// DocumentFormattingParams is sent with textDocument/formatting.
type DocumentFormattingParams struct {
	WorkDoneProgressParams

	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Options      FormattingOptions      `json:"options"`
}

// DocumentRangeFormattingParams is sent with textDocument/rangeFormatting.
type DocumentRangeFormattingParams struct {
	WorkDoneProgressParams

	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Range        Range                  `json:"range"`
	Options      FormattingOptions      `json:"options"`
}

// DocumentOnTypeFormattingParams is sent with textDocument/onTypeFormatting.
type DocumentOnTypeFormattingParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
	Ch           string                 `json:"ch"`
	Options      FormattingOptions      `json:"options"`
}

// RenameParams contains rename request parameters.
type RenameParams struct {
	TextDocumentPositionParams
	WorkDoneProgressParams

	// NewName is the new name to rename the symbol to.
	NewName string `json:"newName"`
}

// PrepareRenameParams contains prepare rename request parameters.
type PrepareRenameParams struct {
	TextDocumentPositionParams
	WorkDoneProgressParams
}

// =============================================================================
// RANGES
// =============================================================================

// FoldingRangeParams is sent with textDocument/foldingRange.
type FoldingRangeParams struct {
	WorkDoneProgressParams
	PartialResultParams

	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// FoldingRange is a foldable region.
type FoldingRange struct {
	StartLine      int    `json:"startLine"`
	StartCharacter *int   `json:"startCharacter,omitempty"`
	EndLine        int    `json:"endLine"`
	EndCharacter   *int   `json:"endCharacter,omitempty"`
	Kind           string `json:"kind,omitempty"`
	CollapsedText  string `json:"collapsedText,omitempty"`
}

// SelectionRangeParams is sent with textDocument/selectionRange.
type SelectionRangeParams struct {
	WorkDoneProgressParams
	PartialResultParams

	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Positions    []Position             `json:"positions"`
}

// SelectionRange is a range with its enclosing parent.
type SelectionRange struct {
	Range  Range           `json:"range"`
	Parent *SelectionRange `json:"parent,omitempty"`
}

// LinkedEditingRangeParams is sent with textDocument/linkedEditingRange.
type LinkedEditingRangeParams struct {
	TextDocumentPositionParams
	WorkDoneProgressParams
}

// LinkedEditingRanges are ranges that are edited together.
type LinkedEditingRanges struct {
	Ranges      []Range `json:"ranges"`
	WordPattern string  `json:"wordPattern,omitempty"`
}

// =============================================================================
// CALL & TYPE HIERARCHY
// =============================================================================

// CallHierarchyPrepareParams is sent with textDocument/prepareCallHierarchy.
type CallHierarchyPrepareParams struct {
	TextDocumentPositionParams
	WorkDoneProgressParams
}

// CallHierarchyItem is a node in a call hierarchy.
type CallHierarchyItem struct {
	Name           string      `json:"name"`
	Kind           SymbolKind  `json:"kind"`
	Tags           []SymbolTag `json:"tags,omitempty"`
	Detail         string      `json:"detail,omitempty"`
	URI            DocumentURI `json:"uri"`
	Range          Range       `json:"range"`
	SelectionRange Range       `json:"selectionRange"`
	Data           LSPAny      `json:"data,omitempty"`
}

// CallHierarchyIncomingCallsParams is sent with callHierarchy/incomingCalls.
type CallHierarchyIncomingCallsParams struct {
	WorkDoneProgressParams
	PartialResultParams

	Item CallHierarchyItem `json:"item"`
}

// CallHierarchyIncomingCall is a caller of the item.
type CallHierarchyIncomingCall struct {
	From       CallHierarchyItem `json:"from"`
	FromRanges []Range           `json:"fromRanges"`
}

// CallHierarchyOutgoingCallsParams is sent with callHierarchy/outgoingCalls.
type CallHierarchyOutgoingCallsParams struct {
	WorkDoneProgressParams
	PartialResultParams

	Item CallHierarchyItem `json:"item"`
}

// CallHierarchyOutgoingCall is a callee of the item.
type CallHierarchyOutgoingCall struct {
	To         CallHierarchyItem `json:"to"`
	FromRanges []Range           `json:"fromRanges"`
}

// TypeHierarchyPrepareParams is sent with textDocument/prepareTypeHierarchy.
type TypeHierarchyPrepareParams struct {
	TextDocumentPositionParams
	WorkDoneProgressParams
}

// TypeHierarchyItem is a node in a type hierarchy.
type TypeHierarchyItem = CallHierarchyItem

// TypeHierarchySupertypesParams is sent with typeHierarchy/supertypes.
type TypeHierarchySupertypesParams struct {
	WorkDoneProgressParams
	PartialResultParams

	Item TypeHierarchyItem `json:"item"`
}

// TypeHierarchySubtypesParams is sent with typeHierarchy/subtypes.
type TypeHierarchySubtypesParams = TypeHierarchySupertypesParams

// =============================================================================
// SEMANTIC TOKENS
// =============================================================================

// SemanticTokensParams is sent with textDocument/semanticTokens/full.
type SemanticTokensParams struct {
	WorkDoneProgressParams
	PartialResultParams

	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// SemanticTokensDeltaParams is sent with textDocument/semanticTokens/full/delta.
type SemanticTokensDeltaParams struct {
	WorkDoneProgressParams
	PartialResultParams

	TextDocument     TextDocumentIdentifier `json:"textDocument"`
	PreviousResultID string                 `json:"previousResultId"`
}

// SemanticTokensRangeParams is sent with textDocument/semanticTokens/range.
type SemanticTokensRangeParams struct {
	WorkDoneProgressParams
	PartialResultParams

	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Range        Range                  `json:"range"`
}

// SemanticTokens is an encoded token array.
type SemanticTokens struct {
	ResultID string   `json:"resultId,omitempty"`
	Data     []uint32 `json:"data"`
}

// SemanticTokensEdit patches a previous token array.
type SemanticTokensEdit struct {
	Start       uint32   `json:"start"`
	DeleteCount uint32   `json:"deleteCount"`
	Data        []uint32 `json:"data,omitempty"`
}

// SemanticTokensDelta is a set of edits against a previous result.
type SemanticTokensDelta struct {
	ResultID string               `json:"resultId,omitempty"`
	Edits    []SemanticTokensEdit `json:"edits"`
}

// =============================================================================
// MONIKERS, INLAY HINTS & INLINE VALUES
// =============================================================================

// MonikerParams is sent with textDocument/moniker.
type MonikerParams struct {
	TextDocumentPositionParams
	WorkDoneProgressParams
	PartialResultParams
}

// Moniker is a cross-index symbol identifier.
type Moniker struct {
	Scheme     string `json:"scheme"`
	Identifier string `json:"identifier"`
	Unique     string `json:"unique"`
	Kind       string `json:"kind,omitempty"`
}

// InlayHintParams is sent with textDocument/inlayHint.
type InlayHintParams struct {
	WorkDoneProgressParams

	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Range        Range                  `json:"range"`
}

// InlayHint is an inline annotation. Label is a string or a list of label
// parts, so it is kept raw.
type InlayHint struct {
	Position     Position   `json:"position"`
	Label        LSPAny     `json:"label"`
	Kind         int        `json:"kind,omitempty"`
	TextEdits    []TextEdit `json:"textEdits,omitempty"`
	Tooltip      LSPAny     `json:"tooltip,omitempty"`
	PaddingLeft  bool       `json:"paddingLeft,omitempty"`
	PaddingRight bool       `json:"paddingRight,omitempty"`
	Data         LSPAny     `json:"data,omitempty"`
}

// InlineValueParams is sent with textDocument/inlineValue.
type InlineValueParams struct {
	WorkDoneProgressParams

	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Range        Range                  `json:"range"`
	Context      InlineValueContext     `json:"context"`
}

// InlineValueContext describes the debugger stop location.
type InlineValueContext struct {
	FrameID         int   `json:"frameId"`
	StoppedLocation Range `json:"stoppedLocation"`
}

// InlineValue merges the text, variable lookup and evaluatable expression
// variants; which fields are set tells them apart.
type InlineValue struct {
	Range               Range  `json:"range"`
	Text                string `json:"text,omitempty"`
	VariableName        string `json:"variableName,omitempty"`
	CaseSensitiveLookup bool   `json:"caseSensitiveLookup,omitempty"`
	Expression          string `json:"expression,omitempty"`
}

// =============================================================================
// PULL DIAGNOSTICS
// =============================================================================

// DocumentDiagnosticParams is sent with textDocument/diagnostic.
type DocumentDiagnosticParams struct {
	WorkDoneProgressParams
	PartialResultParams

	TextDocument     TextDocumentIdentifier `json:"textDocument"`
	Identifier       string                 `json:"identifier,omitempty"`
	PreviousResultID string                 `json:"previousResultId,omitempty"`
}

// DiagnosticReportKind is "full" or "unchanged".
type DiagnosticReportKind string

const (
	ReportFull      DiagnosticReportKind = "full"
	ReportUnchanged DiagnosticReportKind = "unchanged"
)

// DocumentDiagnosticReport is a full or unchanged diagnostic report. Items
// is only set for full reports.
type DocumentDiagnosticReport struct {
	Kind             DiagnosticReportKind `json:"kind"`
	ResultID         string               `json:"resultId,omitempty"`
	Items            []Diagnostic         `json:"items,omitempty"`
	RelatedDocuments LSPAny               `json:"relatedDocuments,omitempty"`
}

// PreviousResultID pairs a document with its last report ID.
type PreviousResultID struct {
	URI   DocumentURI `json:"uri"`
	Value string      `json:"value"`
}

// WorkspaceDiagnosticParams is sent with workspace/diagnostic.
type WorkspaceDiagnosticParams struct {
	WorkDoneProgressParams
	PartialResultParams

	Identifier        string             `json:"identifier,omitempty"`
	PreviousResultIDs []PreviousResultID `json:"previousResultIds"`
}

// WorkspaceDocumentDiagnosticReport is a report for one document.
type WorkspaceDocumentDiagnosticReport struct {
	DocumentDiagnosticReport

	URI     DocumentURI `json:"uri"`
	Version *int        `json:"version"`
}

// WorkspaceDiagnosticReport is the workspace/diagnostic result.
type WorkspaceDiagnosticReport struct {
	Items []WorkspaceDocumentDiagnosticReport `json:"items"`
}

// =============================================================================
// WORKSPACE COMMANDS
// =============================================================================

// ExecuteCommandParams is sent with workspace/executeCommand.
type ExecuteCommandParams struct {
	WorkDoneProgressParams

	Command   string   `json:"command"`
	Arguments []LSPAny `json:"arguments,omitempty"`
}

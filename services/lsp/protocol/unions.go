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
	"errors"
	"fmt"
	"strings"
)

// ErrUnexpectedShape indicates a result matching none of the shapes the
// method allows.
var ErrUnexpectedShape = errors.New("unexpected result shape")

// isNull reports whether data is empty or the JSON literal null.
func isNull(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) == 0 || bytes.Equal(data, []byte("null"))
}

// firstByte returns the first non-space byte of data, or 0.
func firstByte(data []byte) byte {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return 0
	}
	return data[0]
}

// =============================================================================
// LOCATIONS
// =============================================================================

// Locations is the result of definition-style requests, normalized from
// Location, []Location or []LocationLink. Links are reduced to their
// target selection range.
type Locations []Location

// UnmarshalJSON implements json.Unmarshaler.
func (l *Locations) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		*l = nil
		return nil
	}

	if firstByte(data) == '[' {
		var elems []json.RawMessage
		if err := json.Unmarshal(data, &elems); err != nil {
			return fmt.Errorf("decode locations: %w", err)
		}
		out := make(Locations, 0, len(elems))
		for _, elem := range elems {
			loc, err := decodeLocation(elem)
			if err != nil {
				return err
			}
			out = append(out, loc)
		}
		*l = out
		return nil
	}

	loc, err := decodeLocation(data)
	if err != nil {
		return err
	}
	*l = Locations{loc}
	return nil
}

// decodeLocation decodes a Location or a LocationLink.
func decodeLocation(data []byte) (Location, error) {
	var shape struct {
		URI                  DocumentURI `json:"uri"`
		Range                *Range      `json:"range"`
		TargetURI            DocumentURI `json:"targetUri"`
		TargetSelectionRange *Range      `json:"targetSelectionRange"`
	}
	if err := json.Unmarshal(data, &shape); err != nil {
		return Location{}, fmt.Errorf("decode location: %w", err)
	}
	switch {
	case shape.TargetURI != "" && shape.TargetSelectionRange != nil:
		return Location{URI: shape.TargetURI, Range: *shape.TargetSelectionRange}, nil
	case shape.URI != "" && shape.Range != nil:
		return Location{URI: shape.URI, Range: *shape.Range}, nil
	default:
		return Location{}, fmt.Errorf("decode location %s: %w", data, ErrUnexpectedShape)
	}
}

// =============================================================================
// COMPLETION
// =============================================================================

// UnmarshalJSON implements json.Unmarshaler. It accepts a CompletionList,
// a bare []CompletionItem or null.
func (c *CompletionList) UnmarshalJSON(data []byte) error {
	switch firstByte(data) {
	case 0, 'n':
		*c = CompletionList{}
		return nil
	case '[':
		var items []CompletionItem
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("decode completion items: %w", err)
		}
		*c = CompletionList{Items: items}
		return nil
	}

	type plain CompletionList
	var list plain
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("decode completion list: %w", err)
	}
	*c = CompletionList(list)
	return nil
}

// =============================================================================
// HOVER
// =============================================================================

// markedString is the deprecated {language, value} hover form.
type markedString struct {
	Language string `json:"language"`
	Value    string `json:"value"`
}

// UnmarshalJSON implements json.Unmarshaler. Contents may be
// MarkupContent, a MarkedString or an array of MarkedStrings; the legacy
// forms are rendered as markdown.
func (h *Hover) UnmarshalJSON(data []byte) error {
	var raw struct {
		Contents json.RawMessage `json:"contents"`
		Range    *Range          `json:"range"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode hover: %w", err)
	}

	contents, err := decodeHoverContents(raw.Contents)
	if err != nil {
		return err
	}
	*h = Hover{Contents: contents, Range: raw.Range}
	return nil
}

func decodeHoverContents(data json.RawMessage) (MarkupContent, error) {
	switch firstByte(data) {
	case 0, 'n':
		return MarkupContent{}, fmt.Errorf("hover contents: %w", ErrUnexpectedShape)
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return MarkupContent{}, fmt.Errorf("decode hover contents: %w", err)
		}
		return MarkupContent{Kind: MarkupKindMarkdown, Value: s}, nil
	case '[':
		var parts []json.RawMessage
		if err := json.Unmarshal(data, &parts); err != nil {
			return MarkupContent{}, fmt.Errorf("decode hover contents: %w", err)
		}
		rendered := make([]string, 0, len(parts))
		for _, part := range parts {
			mc, err := decodeHoverContents(part)
			if err != nil {
				return MarkupContent{}, err
			}
			rendered = append(rendered, mc.Value)
		}
		return MarkupContent{Kind: MarkupKindMarkdown, Value: strings.Join(rendered, "\n\n")}, nil
	}

	var shape struct {
		Kind     MarkupKind `json:"kind"`
		Language string     `json:"language"`
		Value    string     `json:"value"`
	}
	if err := json.Unmarshal(data, &shape); err != nil {
		return MarkupContent{}, fmt.Errorf("decode hover contents: %w", err)
	}
	if shape.Kind != "" {
		return MarkupContent{Kind: shape.Kind, Value: shape.Value}, nil
	}
	ms := markedString{Language: shape.Language, Value: shape.Value}
	return MarkupContent{
		Kind:  MarkupKindMarkdown,
		Value: fmt.Sprintf("```%s\n%s\n```", ms.Language, ms.Value),
	}, nil
}

// =============================================================================
// DOCUMENT SYMBOLS
// =============================================================================

// DocumentSymbols is the textDocument/documentSymbol result. Servers
// answer with either a hierarchy or a flat list; exactly one field is set.
type DocumentSymbols struct {
	// Symbols is set for hierarchical results.
	Symbols []DocumentSymbol

	// Information is set for flat results.
	Information []SymbolInformation
}

// MarshalJSON implements json.Marshaler.
func (d DocumentSymbols) MarshalJSON() ([]byte, error) {
	switch {
	case d.Information != nil:
		return json.Marshal(d.Information)
	case d.Symbols != nil:
		return json.Marshal(d.Symbols)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *DocumentSymbols) UnmarshalJSON(data []byte) error {
	*d = DocumentSymbols{}
	if isNull(data) {
		return nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return fmt.Errorf("decode document symbols: %w", err)
	}
	if len(elems) == 0 {
		d.Symbols = []DocumentSymbol{}
		return nil
	}

	var shape struct {
		Location json.RawMessage `json:"location"`
	}
	if err := json.Unmarshal(elems[0], &shape); err != nil {
		return fmt.Errorf("decode document symbols: %w", err)
	}
	if shape.Location != nil {
		return json.Unmarshal(data, &d.Information)
	}
	return json.Unmarshal(data, &d.Symbols)
}

// Flatten returns every symbol as SymbolInformation, walking hierarchies
// depth first. Hierarchical symbols get uri as their location.
func (d DocumentSymbols) Flatten(uri DocumentURI) []SymbolInformation {
	if d.Information != nil {
		return d.Information
	}
	var out []SymbolInformation
	var walk func(symbols []DocumentSymbol, container string)
	walk = func(symbols []DocumentSymbol, container string) {
		for _, s := range symbols {
			out = append(out, SymbolInformation{
				Name:          s.Name,
				Kind:          s.Kind,
				Tags:          s.Tags,
				Location:      Location{URI: uri, Range: s.SelectionRange},
				ContainerName: container,
			})
			walk(s.Children, s.Name)
		}
	}
	walk(d.Symbols, "")
	return out
}

// =============================================================================
// CODE ACTIONS
// =============================================================================

// CommandOrCodeAction is one textDocument/codeAction result entry.
// Exactly one field is set.
type CommandOrCodeAction struct {
	Command    *Command
	CodeAction *CodeAction
}

// MarshalJSON implements json.Marshaler.
func (c CommandOrCodeAction) MarshalJSON() ([]byte, error) {
	if c.Command != nil {
		return json.Marshal(c.Command)
	}
	if c.CodeAction != nil {
		return json.Marshal(c.CodeAction)
	}
	return []byte("null"), nil
}

// UnmarshalJSON implements json.Unmarshaler. A Command carries a string
// "command" field; a CodeAction carries an object or none.
func (c *CommandOrCodeAction) UnmarshalJSON(data []byte) error {
	var shape struct {
		Command json.RawMessage `json:"command"`
	}
	if err := json.Unmarshal(data, &shape); err != nil {
		return fmt.Errorf("decode code action: %w", err)
	}
	if firstByte(shape.Command) == '"' {
		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			return fmt.Errorf("decode command: %w", err)
		}
		*c = CommandOrCodeAction{Command: &cmd}
		return nil
	}
	var action CodeAction
	if err := json.Unmarshal(data, &action); err != nil {
		return fmt.Errorf("decode code action: %w", err)
	}
	*c = CommandOrCodeAction{CodeAction: &action}
	return nil
}

// =============================================================================
// PREPARE RENAME
// =============================================================================

// PrepareRenameResult is the result of textDocument/prepareRename: a
// Range, a range with placeholder, or {defaultBehavior: true}.
type PrepareRenameResult struct {
	// Range is the range of the string to rename.
	Range Range

	// Placeholder is the text of the string to rename.
	Placeholder string

	// DefaultBehavior asks the client to use its own identifier rules.
	DefaultBehavior bool
}

// MarshalJSON implements json.Marshaler.
func (p PrepareRenameResult) MarshalJSON() ([]byte, error) {
	switch {
	case p.DefaultBehavior:
		return json.Marshal(struct {
			DefaultBehavior bool `json:"defaultBehavior"`
		}{true})
	case p.Placeholder != "":
		return json.Marshal(struct {
			Range       Range  `json:"range"`
			Placeholder string `json:"placeholder"`
		}{p.Range, p.Placeholder})
	default:
		return json.Marshal(p.Range)
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *PrepareRenameResult) UnmarshalJSON(data []byte) error {
	var shape struct {
		Start           *Position `json:"start"`
		End             *Position `json:"end"`
		Range           *Range    `json:"range"`
		Placeholder     string    `json:"placeholder"`
		DefaultBehavior bool      `json:"defaultBehavior"`
	}
	if err := json.Unmarshal(data, &shape); err != nil {
		return fmt.Errorf("decode prepare rename: %w", err)
	}
	switch {
	case shape.Start != nil && shape.End != nil:
		*p = PrepareRenameResult{Range: Range{Start: *shape.Start, End: *shape.End}}
	case shape.Range != nil:
		*p = PrepareRenameResult{Range: *shape.Range, Placeholder: shape.Placeholder}
	case shape.DefaultBehavior:
		*p = PrepareRenameResult{DefaultBehavior: true}
	default:
		return fmt.Errorf("decode prepare rename %s: %w", data, ErrUnexpectedShape)
	}
	return nil
}

// =============================================================================
// SEMANTIC TOKENS DELTA
// =============================================================================

// SemanticTokensDeltaResult is a full token set or a delta. Exactly one
// field is set.
type SemanticTokensDeltaResult struct {
	Tokens *SemanticTokens
	Delta  *SemanticTokensDelta
}

// MarshalJSON implements json.Marshaler.
func (s SemanticTokensDeltaResult) MarshalJSON() ([]byte, error) {
	if s.Delta != nil {
		return json.Marshal(s.Delta)
	}
	if s.Tokens != nil {
		return json.Marshal(s.Tokens)
	}
	return []byte("null"), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *SemanticTokensDeltaResult) UnmarshalJSON(data []byte) error {
	var shape struct {
		Edits json.RawMessage `json:"edits"`
	}
	if err := json.Unmarshal(data, &shape); err != nil {
		return fmt.Errorf("decode semantic tokens delta: %w", err)
	}
	if shape.Edits != nil {
		var delta SemanticTokensDelta
		if err := json.Unmarshal(data, &delta); err != nil {
			return fmt.Errorf("decode semantic tokens delta: %w", err)
		}
		*s = SemanticTokensDeltaResult{Delta: &delta}
		return nil
	}
	var tokens SemanticTokens
	if err := json.Unmarshal(data, &tokens); err != nil {
		return fmt.Errorf("decode semantic tokens: %w", err)
	}
	*s = SemanticTokensDeltaResult{Tokens: &tokens}
	return nil
}

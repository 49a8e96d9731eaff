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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/lspconn/services/lsp/jsonrpc"
)

func TestLocations_UnmarshalJSON(t *testing.T) {
	want := Location{
		URI:   "file:///src/main.go",
		Range: Range{Start: Position{Line: 9, Character: 5}, End: Position{Line: 9, Character: 10}},
	}

	tests := []struct {
		name    string
		input   string
		want    Locations
		wantErr bool
	}{
		{name: "null", input: `null`, want: nil},
		{name: "empty array", input: `[]`, want: Locations{}},
		{
			name:  "single location",
			input: `{"uri":"file:///src/main.go","range":{"start":{"line":9,"character":5},"end":{"line":9,"character":10}}}`,
			want:  Locations{want},
		},
		{
			name:  "location array",
			input: `[{"uri":"file:///src/main.go","range":{"start":{"line":9,"character":5},"end":{"line":9,"character":10}}}]`,
			want:  Locations{want},
		},
		{
			name: "location links",
			input: `[{"targetUri":"file:///src/main.go",
				"targetRange":{"start":{"line":8,"character":0},"end":{"line":12,"character":1}},
				"targetSelectionRange":{"start":{"line":9,"character":5},"end":{"line":9,"character":10}}}]`,
			want: Locations{want},
		},
		{name: "garbage object", input: `{"foo":1}`, wantErr: true},
		{name: "number", input: `42`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Locations
			err := json.Unmarshal([]byte(tt.input), &got)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompletionList_UnmarshalJSON(t *testing.T) {
	var list CompletionList
	require.NoError(t, json.Unmarshal([]byte(`{"isIncomplete":true,"items":[{"label":"fmt"}]}`), &list))
	assert.True(t, list.IsIncomplete)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "fmt", list.Items[0].Label)

	var bare CompletionList
	require.NoError(t, json.Unmarshal([]byte(`[{"label":"a"},{"label":"b"}]`), &bare))
	assert.False(t, bare.IsIncomplete)
	assert.Len(t, bare.Items, 2)

	var null CompletionList
	require.NoError(t, json.Unmarshal([]byte(`null`), &null))
	assert.Empty(t, null.Items)
}

func TestHover_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  MarkupContent
	}{
		{
			name:  "markup content",
			input: `{"contents":{"kind":"markdown","value":"**func** Foo()"}}`,
			want:  MarkupContent{Kind: MarkupKindMarkdown, Value: "**func** Foo()"},
		},
		{
			name:  "plain string",
			input: `{"contents":"hello"}`,
			want:  MarkupContent{Kind: MarkupKindMarkdown, Value: "hello"},
		},
		{
			name:  "marked string",
			input: `{"contents":{"language":"go","value":"func Foo()"}}`,
			want:  MarkupContent{Kind: MarkupKindMarkdown, Value: "```go\nfunc Foo()\n```"},
		},
		{
			name:  "array",
			input: `{"contents":["doc",{"language":"go","value":"x int"}]}`,
			want:  MarkupContent{Kind: MarkupKindMarkdown, Value: "doc\n\n```go\nx int\n```"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var h Hover
			require.NoError(t, json.Unmarshal([]byte(tt.input), &h))
			assert.Equal(t, tt.want, h.Contents)
		})
	}

	var h Hover
	assert.Error(t, json.Unmarshal([]byte(`{"range":{"start":{"line":0,"character":0},"end":{"line":0,"character":1}}}`), &h))
}

func TestDocumentSymbols_UnmarshalJSON(t *testing.T) {
	hierarchy := `[{"name":"Server","kind":5,
		"range":{"start":{"line":0,"character":0},"end":{"line":10,"character":1}},
		"selectionRange":{"start":{"line":0,"character":5},"end":{"line":0,"character":11}},
		"children":[{"name":"Start","kind":6,
			"range":{"start":{"line":2,"character":0},"end":{"line":4,"character":1}},
			"selectionRange":{"start":{"line":2,"character":5},"end":{"line":2,"character":10}}}]}]`

	var d DocumentSymbols
	require.NoError(t, json.Unmarshal([]byte(hierarchy), &d))
	require.Len(t, d.Symbols, 1)
	assert.Nil(t, d.Information)
	assert.Equal(t, "Start", d.Symbols[0].Children[0].Name)

	flat := d.Flatten("file:///a.go")
	require.Len(t, flat, 2)
	assert.Equal(t, "Server", flat[1].ContainerName)
	assert.Equal(t, DocumentURI("file:///a.go"), flat[1].Location.URI)

	info := `[{"name":"main","kind":12,"location":{"uri":"file:///a.go",
		"range":{"start":{"line":3,"character":0},"end":{"line":5,"character":1}}}}]`
	var d2 DocumentSymbols
	require.NoError(t, json.Unmarshal([]byte(info), &d2))
	require.Len(t, d2.Information, 1)
	assert.Nil(t, d2.Symbols)
	assert.Equal(t, SymbolKindFunction, d2.Information[0].Kind)

	data, err := json.Marshal(d2)
	require.NoError(t, err)
	assert.JSONEq(t, info, string(data))
}

func TestCommandOrCodeAction_UnmarshalJSON(t *testing.T) {
	var items []CommandOrCodeAction
	input := `[
		{"title":"Organize imports","command":"source.organizeImports","arguments":["file:///a.go"]},
		{"title":"Fix","kind":"quickfix","command":{"title":"run","command":"fix.run"}},
		{"title":"Extract","kind":"refactor.extract","edit":{"changes":{}}}
	]`
	require.NoError(t, json.Unmarshal([]byte(input), &items))
	require.Len(t, items, 3)

	require.NotNil(t, items[0].Command)
	assert.Equal(t, "source.organizeImports", items[0].Command.Command)
	assert.Nil(t, items[0].CodeAction)

	require.NotNil(t, items[1].CodeAction)
	assert.Equal(t, "fix.run", items[1].CodeAction.Command.Command)

	require.NotNil(t, items[2].CodeAction)
	assert.Equal(t, "refactor.extract", items[2].CodeAction.Kind)
}

func TestPrepareRenameResult_RoundTrip(t *testing.T) {
	r := Range{Start: Position{Line: 1, Character: 2}, End: Position{Line: 1, Character: 6}}
	tests := []struct {
		name  string
		value PrepareRenameResult
		wire  string
	}{
		{name: "range", value: PrepareRenameResult{Range: r},
			wire: `{"start":{"line":1,"character":2},"end":{"line":1,"character":6}}`},
		{name: "placeholder", value: PrepareRenameResult{Range: r, Placeholder: "name"},
			wire: `{"range":{"start":{"line":1,"character":2},"end":{"line":1,"character":6}},"placeholder":"name"}`},
		{name: "default behavior", value: PrepareRenameResult{DefaultBehavior: true},
			wire: `{"defaultBehavior":true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.value)
			require.NoError(t, err)
			assert.JSONEq(t, tt.wire, string(data))

			var got PrepareRenameResult
			require.NoError(t, json.Unmarshal([]byte(tt.wire), &got))
			assert.Equal(t, tt.value, got)
		})
	}

	var bad PrepareRenameResult
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"x":1}`), &bad), ErrUnexpectedShape)
}

func TestSemanticTokensDeltaResult_UnmarshalJSON(t *testing.T) {
	var full SemanticTokensDeltaResult
	require.NoError(t, json.Unmarshal([]byte(`{"resultId":"2","data":[0,1,2,3,0]}`), &full))
	require.NotNil(t, full.Tokens)
	assert.Nil(t, full.Delta)
	assert.Equal(t, []uint32{0, 1, 2, 3, 0}, full.Tokens.Data)

	var delta SemanticTokensDeltaResult
	require.NoError(t, json.Unmarshal([]byte(`{"resultId":"3","edits":[{"start":0,"deleteCount":5}]}`), &delta))
	require.NotNil(t, delta.Delta)
	assert.Equal(t, uint32(5), delta.Delta.Edits[0].DeleteCount)
}

func TestCapability_Enabled(t *testing.T) {
	var caps ServerCapabilities
	input := `{"hoverProvider":true,"definitionProvider":{"workDoneProgress":true},
		"referencesProvider":false,"renameProvider":null,"textDocumentSync":2}`
	require.NoError(t, json.Unmarshal([]byte(input), &caps))

	assert.True(t, caps.HasHoverProvider())
	assert.True(t, caps.HasDefinitionProvider())
	assert.False(t, caps.HasReferencesProvider())
	assert.False(t, caps.HasRenameProvider())
	assert.False(t, caps.HasDocumentSymbolProvider())
	assert.Equal(t, SyncIncremental, caps.SyncKind())

	var opts struct {
		WorkDoneProgress bool `json:"workDoneProgress"`
	}
	require.NoError(t, caps.DefinitionProvider.Decode(&opts))
	assert.True(t, opts.WorkDoneProgress)

	var objSync ServerCapabilities
	require.NoError(t, json.Unmarshal([]byte(`{"textDocumentSync":{"openClose":true,"change":1}}`), &objSync))
	assert.Equal(t, SyncFull, objSync.SyncKind())
}

func TestInitializeParams_MinimalWireForm(t *testing.T) {
	pid := 123
	data, err := json.Marshal(&InitializeParams{ProcessID: &pid})
	require.NoError(t, err)
	assert.JSONEq(t, `{"processId":123}`, string(data))
}

func TestIntegerOrString(t *testing.T) {
	var tok ProgressToken
	require.NoError(t, json.Unmarshal([]byte(`"indexing"`), &tok))
	assert.True(t, tok.IsString)
	assert.Equal(t, "indexing", tok.String)

	require.NoError(t, json.Unmarshal([]byte(`17`), &tok))
	assert.False(t, tok.IsString)
	assert.Equal(t, int64(17), tok.Int)

	data, err := json.Marshal(tok)
	require.NoError(t, err)
	assert.Equal(t, `17`, string(data))

	assert.Error(t, json.Unmarshal([]byte(`[1]`), &tok))
}

func TestCancelParams_PreservesIDVariant(t *testing.T) {
	data, err := json.Marshal(CancelParams{ID: jsonrpc.StringID("7")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"7"}`, string(data))

	var p CancelParams
	require.NoError(t, json.Unmarshal([]byte(`{"id":7}`), &p))
	assert.Equal(t, jsonrpc.IntID(7), p.ID)
}

func TestProgressParams_WorkDone(t *testing.T) {
	p := ProgressParams{Value: json.RawMessage(`{"kind":"report","message":"3/10","percentage":30}`)}
	v, err := p.WorkDone()
	require.NoError(t, err)
	assert.Equal(t, "report", v.Kind)
	require.NotNil(t, v.Percentage)
	assert.Equal(t, 30, *v.Percentage)

	p.Value = json.RawMessage(`{"items":[]}`)
	_, err = p.WorkDone()
	assert.Error(t, err)
}

func TestWorkspaceEdit_TextDocumentEdits(t *testing.T) {
	var edit WorkspaceEdit
	input := `{"documentChanges":[
		{"kind":"create","uri":"file:///new.go"},
		{"textDocument":{"uri":"file:///a.go","version":3},"edits":[{"range":{"start":{"line":0,"character":0},"end":{"line":0,"character":0}},"newText":"x"}]}
	]}`
	require.NoError(t, json.Unmarshal([]byte(input), &edit))

	edits, err := edit.TextDocumentEdits()
	require.NoError(t, err)
	require.Len(t, edits, 1)
	assert.Equal(t, DocumentURI("file:///a.go"), edits[0].TextDocument.URI)
	require.NotNil(t, edits[0].TextDocument.Version)
	assert.Equal(t, 3, *edits[0].TextDocument.Version)
}

func TestRequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		target any
		input  string
		ok     bool
	}{
		{name: "initialize result", target: &InitializeResult{}, input: `{"capabilities":{}}`, ok: true},
		{name: "initialize result without capabilities", target: &InitializeResult{}, input: `{}`},
		{name: "initialize result with null capabilities", target: &InitializeResult{}, input: `{"capabilities":null}`},
		{name: "cancel id zero", target: &CancelParams{}, input: `{"id":0}`, ok: true},
		{name: "cancel without id", target: &CancelParams{}, input: `{}`},
		{name: "progress", target: &ProgressParams{}, input: `{"token":0,"value":null}`, ok: true},
		{name: "progress without token", target: &ProgressParams{}, input: `{"value":{"kind":"end"}}`},
		{name: "progress create without token", target: &WorkDoneProgressCreateParams{}, input: `{}`},
		{name: "apply edit with empty edit", target: &ApplyWorkspaceEditParams{}, input: `{"edit":{}}`, ok: true},
		{name: "apply edit without edit", target: &ApplyWorkspaceEditParams{}, input: `{"label":"x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := json.Unmarshal([]byte(tt.input), tt.target)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, jsonrpc.ErrProtocolViolation)
		})
	}
}

func TestInitializeResult_DecodesFields(t *testing.T) {
	var r InitializeResult
	require.NoError(t, json.Unmarshal([]byte(`{"capabilities":{"hoverProvider":true},"serverInfo":{"name":"gopls"}}`), &r))
	assert.True(t, r.Capabilities.HasHoverProvider())
	require.NotNil(t, r.ServerInfo)
	assert.Equal(t, "gopls", r.ServerInfo.Name)
}

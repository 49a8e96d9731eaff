// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package jsonrpc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(IntID(42))
	require.NoError(t, err)
	assert.Equal(t, `42`, string(data))

	data, err = json.Marshal(StringID("abc"))
	require.NoError(t, err)
	assert.Equal(t, `"abc"`, string(data))
}

func TestID_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ID
		wantErr bool
	}{
		{name: "integer", input: `7`, want: IntID(7)},
		{name: "negative", input: `-3`, want: IntID(-3)},
		{name: "integral float", input: `3.0`, want: IntID(3)},
		{name: "string", input: `"req-1"`, want: StringID("req-1")},
		{name: "numeric string", input: `"1"`, want: StringID("1")},
		{name: "fraction", input: `3.5`, wantErr: true},
		{name: "object", input: `{}`, wantErr: true},
		{name: "bool", input: `true`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id ID
			err := json.Unmarshal([]byte(tt.input), &id)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestID_Equality(t *testing.T) {
	assert.Equal(t, IntID(1), IntID(1))
	assert.NotEqual(t, IntID(1), StringID("1"))

	m := map[ID]string{IntID(1): "int", StringID("1"): "string"}
	assert.Len(t, m, 2)
	assert.Equal(t, "string", m[StringID("1")])
}

func TestID_Accessors(t *testing.T) {
	n, ok := IntID(9).Int()
	assert.True(t, ok)
	assert.Equal(t, int64(9), n)

	_, ok = IntID(9).Str()
	assert.False(t, ok)

	s, ok := StringID("x").Str()
	assert.True(t, ok)
	assert.Equal(t, "x", s)
	assert.True(t, StringID("x").IsString())

	assert.Equal(t, `9`, IntID(9).String())
	assert.Equal(t, `"x"`, StringID("x").String())
}

func TestMessage_Classification(t *testing.T) {
	tests := []struct {
		input        string
		request      bool
		notification bool
		response     bool
	}{
		{input: `{"jsonrpc":"2.0","id":1,"method":"a"}`, request: true},
		{input: `{"jsonrpc":"2.0","method":"a"}`, notification: true},
		{input: `{"jsonrpc":"2.0","id":"x","result":null}`, response: true},
		{input: `{"jsonrpc":"2.0","id":null,"error":{"code":-32700,"message":"parse"}}`},
	}

	for _, tt := range tests {
		var msg Message
		require.NoError(t, json.Unmarshal([]byte(tt.input), &msg), tt.input)
		assert.Equal(t, tt.request, msg.IsRequest(), tt.input)
		assert.Equal(t, tt.notification, msg.IsNotification(), tt.input)
		assert.Equal(t, tt.response, msg.IsResponse(), tt.input)
	}
}

func TestMessage_NullResultPreserved(t *testing.T) {
	var msg Message
	require.NoError(t, json.Unmarshal([]byte(`{"jsonrpc":"2.0","id":1,"result":null}`), &msg))
	assert.NotNil(t, msg.Result)
	assert.True(t, IsNull(msg.Result))

	var missing Message
	require.NoError(t, json.Unmarshal([]byte(`{"jsonrpc":"2.0","id":1}`), &missing))
	assert.Nil(t, missing.Result)
}

func TestToWireError(t *testing.T) {
	assert.Equal(t, CodeMethodNotFound, toWireError(ErrUnrecognizedMethod).Code)
	assert.Equal(t, CodeInvalidParams, toWireError(&DecodeError{Method: "m", Err: ErrMissingParams}).Code)
	assert.Equal(t, CodeInternalError, toWireError(assert.AnError).Code)

	custom := NewError(CodeContentModified, "changed")
	assert.Same(t, custom, toWireError(custom))
	assert.True(t, custom.IsContentModified())
}

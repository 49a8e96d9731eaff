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
	"bytes"
	"encoding/json"
)

// Version is the JSON-RPC version used by LSP.
const Version = "2.0"

// =============================================================================
// WIRE ENVELOPE
// =============================================================================

// Message is the wire envelope shared by requests, notifications and
// responses. Which one it is follows from the fields that are present:
//
//	method + id      request
//	method, no id    notification
//	id, no method    response (result or error)
type Message struct {
	// JSONRPC is the protocol version, always "2.0".
	JSONRPC string `json:"jsonrpc"`

	// ID correlates a request with its response. Nil for notifications.
	ID *ID `json:"id,omitempty"`

	// Method is the method to invoke. Empty for responses.
	Method string `json:"method,omitempty"`

	// Params contains the method parameters, if any.
	Params json.RawMessage `json:"params,omitempty"`

	// Result contains the success value of a response. A JSON null
	// result is kept as the literal "null" so it stays distinguishable
	// from an absent field.
	Result json.RawMessage `json:"result,omitempty"`

	// Error contains the failure of a response.
	Error *Error `json:"error,omitempty"`
}

// IsRequest reports whether the message is a request.
func (m *Message) IsRequest() bool {
	return m.Method != "" && m.ID != nil
}

// IsNotification reports whether the message is a notification.
func (m *Message) IsNotification() bool {
	return m.Method != "" && m.ID == nil
}

// IsResponse reports whether the message is a response.
func (m *Message) IsResponse() bool {
	return m.Method == "" && m.ID != nil
}

// nullResult is the result payload of a successful void response.
var nullResult = json.RawMessage("null")

// marshalPayload encodes params or results. A nil value produces a nil
// payload so the field is omitted; a pre-encoded json.RawMessage is used
// as is.
func marshalPayload(v any) (json.RawMessage, error) {
	switch p := v.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		if len(p) == 0 {
			return nil, nil
		}
		return p, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// IsNull reports whether a raw payload is absent or the JSON literal null.
func IsNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, nullResult)
}

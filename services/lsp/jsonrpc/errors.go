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
	"errors"
	"fmt"
)

// Sentinel errors for JSON-RPC sessions.
var (
	// ErrClosed indicates the session was closed by the local side.
	ErrClosed = errors.New("jsonrpc: connection closed")

	// ErrAlreadyReplied indicates a Replier was invoked more than once.
	ErrAlreadyReplied = errors.New("jsonrpc: request already replied")

	// ErrMissingParams indicates a message that requires params carried none.
	ErrMissingParams = errors.New("jsonrpc: missing params")

	// ErrUnrecognizedMethod indicates a method with no dispatch table entry.
	ErrUnrecognizedMethod = errors.New("jsonrpc: unrecognized method")

	// ErrProtocolViolation indicates a structurally invalid message, such as
	// a response carrying neither result nor error.
	ErrProtocolViolation = errors.New("jsonrpc: protocol violation")
)

// JSON-RPC and LSP error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	CodeServerNotInitialized = -32002
	CodeUnknownErrorCode     = -32001

	CodeRequestFailed    = -32803
	CodeServerCancelled  = -32802
	CodeContentModified  = -32801
	CodeRequestCancelled = -32800
)

// =============================================================================
// WIRE ERROR
// =============================================================================

// Error is a JSON-RPC error object, either received from the peer in a
// response or sent back in reply to one of its requests.
type Error struct {
	// Code is the JSON-RPC error code.
	Code int `json:"code"`

	// Message is a short description of the error.
	Message string `json:"message"`

	// Data contains optional additional information.
	Data json.RawMessage `json:"data,omitempty"`
}

// NewError builds an Error with a formatted message.
func NewError(code int, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Data) > 0 {
		return fmt.Sprintf("jsonrpc error %d: %s (data: %s)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// IsParseError returns true if this is a JSON-RPC parse error.
func (e *Error) IsParseError() bool {
	return e.Code == CodeParseError
}

// IsMethodNotFound returns true if the peer does not support the method.
func (e *Error) IsMethodNotFound() bool {
	return e.Code == CodeMethodNotFound
}

// IsInvalidParams returns true if the peer rejected the params.
func (e *Error) IsInvalidParams() bool {
	return e.Code == CodeInvalidParams
}

// IsRequestCancelled returns true if the request was cancelled.
func (e *Error) IsRequestCancelled() bool {
	return e.Code == CodeRequestCancelled
}

// IsServerNotInitialized returns true if the server is not initialized.
func (e *Error) IsServerNotInitialized() bool {
	return e.Code == CodeServerNotInitialized
}

// IsContentModified returns true if the document changed while the
// request was being served.
func (e *Error) IsContentModified() bool {
	return e.Code == CodeContentModified
}

// toWireError maps a local error to the object sent to the peer.
func toWireError(err error) *Error {
	var wireErr *Error
	if errors.As(err, &wireErr) {
		return wireErr
	}
	switch {
	case errors.Is(err, ErrUnrecognizedMethod):
		return &Error{Code: CodeMethodNotFound, Message: err.Error()}
	case errors.Is(err, ErrMissingParams):
		return &Error{Code: CodeInvalidParams, Message: err.Error()}
	}
	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return &Error{Code: CodeInvalidParams, Message: err.Error()}
	}
	return &Error{Code: CodeInternalError, Message: err.Error()}
}

// =============================================================================
// ERROR TAXONOMY
// =============================================================================

// TransportError reports a failed channel read or write. It is fatal: the
// session terminates and every outstanding call fails with the same error.
type TransportError struct {
	// Op is the channel operation that failed: "read", "write" or "close".
	Op string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("jsonrpc transport %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecodeError reports a payload that did not match the shape expected for
// its method. It is local to one message.
type DecodeError struct {
	// Method is the method whose payload failed to decode.
	Method string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Method, e.Err)
}

// Unwrap returns the underlying cause.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// CancelledError reports that the caller's context ended before the
// response arrived. The pending entry for ID has been removed.
type CancelledError struct {
	// ID is the request ID that was abandoned.
	ID ID

	// Method is the request method.
	Method string

	// Err is the context error.
	Err error
}

// Error implements the error interface.
func (e *CancelledError) Error() string {
	return fmt.Sprintf("request %s %s abandoned: %v", e.ID, e.Method, e.Err)
}

// Unwrap returns the context error.
func (e *CancelledError) Unwrap() error {
	return e.Err
}

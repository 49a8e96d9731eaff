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
	"errors"

	"github.com/AleutianAI/lspconn/services/lsp/jsonrpc"
)

// Sentinel errors shared with the session layer, re-exported so hosts only
// need this package for errors.Is checks.
var (
	// ErrClosed indicates the connection was closed locally.
	ErrClosed = jsonrpc.ErrClosed

	// ErrMissingParams indicates a known method arrived without params.
	ErrMissingParams = jsonrpc.ErrMissingParams

	// ErrUnrecognizedMethod indicates a method with no table entry.
	ErrUnrecognizedMethod = jsonrpc.ErrUnrecognizedMethod

	// ErrAlreadyReplied indicates a responder was invoked twice.
	ErrAlreadyReplied = jsonrpc.ErrAlreadyReplied

	// ErrProtocolViolation indicates a structurally invalid message.
	ErrProtocolViolation = jsonrpc.ErrProtocolViolation
)

// ErrNotOpen indicates a send on a connection that is closing or closed.
var ErrNotOpen = errors.New("lsp connection not open")

// IsTransportError reports whether err is fatal to the connection.
func IsTransportError(err error) bool {
	var transportErr *jsonrpc.TransportError
	return errors.As(err, &transportErr)
}

// IsDecodeError reports whether err means the peer sent a payload of the
// wrong shape.
func IsDecodeError(err error) bool {
	var decodeErr *jsonrpc.DecodeError
	return errors.As(err, &decodeErr)
}

// IsCancelled reports whether err means the caller gave up waiting.
func IsCancelled(err error) bool {
	var cancelled *jsonrpc.CancelledError
	return errors.As(err, &cancelled)
}

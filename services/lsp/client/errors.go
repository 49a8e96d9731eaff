// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package client

import (
	"errors"

	"github.com/AleutianAI/lspconn/services/lsp/jsonrpc"
)

// Sentinel errors for hosted servers.
var (
	// ErrServerNotRunning indicates the server is not in the ready state.
	ErrServerNotRunning = errors.New("lsp server not running")

	// ErrServerNotInstalled indicates the server binary was not found.
	ErrServerNotInstalled = errors.New("lsp server not installed")

	// ErrServerAlreadyStarted indicates Start or Connect was called twice.
	ErrServerAlreadyStarted = errors.New("server already started")

	// ErrInitializeFailed indicates the initialize handshake failed.
	ErrInitializeFailed = errors.New("lsp initialize failed")

	// ErrInvalidResponse indicates the server answered with an unusable result.
	ErrInvalidResponse = errors.New("invalid lsp response")

	// ErrCapabilityNotSupported indicates the server did not advertise the
	// provider an operation needs.
	ErrCapabilityNotSupported = errors.New("capability not supported by server")

	// ErrUnsupportedLanguage indicates no server configuration matches a file.
	ErrUnsupportedLanguage = errors.New("no lsp configuration for language")
)

// isRetryableError reports whether err is transient and worth retrying.
//
// Servers answer ContentModified and ServerCancelled when a request
// raced an edit, and the reserved -32099..-32000 range for internal
// hiccups. Transport and decode failures are never retried.
func isRetryableError(err error) bool {
	var rpcErr *jsonrpc.Error
	if !errors.As(err, &rpcErr) {
		return false
	}
	switch rpcErr.Code {
	case jsonrpc.CodeContentModified, jsonrpc.CodeServerCancelled:
		return true
	}
	return rpcErr.Code >= -32099 && rpcErr.Code <= -32000 && rpcErr.Code != jsonrpc.CodeServerNotInitialized
}

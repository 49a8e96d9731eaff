// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package channel provides framed duplex transports for JSON-RPC messages.
//
// A Channel delivers whole messages: every ReadMessage call returns exactly
// one JSON-RPC envelope and every WriteMessage call sends exactly one. How
// the message boundaries are encoded on the wire is the implementation's
// concern:
//
//   - HeaderChannel: LSP base protocol, "Content-Length" headers over a byte stream
//   - WebSocket: one text frame per message
//   - Pipe: an in-memory pair, for tests and in-process peers
//
// Channels are established by the caller (spawning a process, dialing a
// socket). The JSON-RPC session on top only reads, writes and closes.
package channel

import "errors"

// ErrClosed is returned by WriteMessage after the channel has been closed.
var ErrClosed = errors.New("channel closed")

// Channel is a duplex, message-framed transport.
//
// Thread Safety:
//
//	ReadMessage must only be called from one goroutine at a time.
//	WriteMessage and Close are safe for concurrent use.
type Channel interface {
	// ReadMessage blocks until the next complete message is available.
	// It returns io.EOF when the peer closed the stream cleanly.
	ReadMessage() ([]byte, error)

	// WriteMessage frames and writes one message.
	WriteMessage(msg []byte) error

	// Close releases the transport. Pending and future reads fail.
	Close() error
}

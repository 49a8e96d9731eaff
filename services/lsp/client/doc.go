// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package client hosts a language server on top of an lsp.Connection.
//
// A Server launches the server process (or attaches to an existing
// channel such as a WebSocket), performs the initialize/initialized
// handshake and the shutdown/exit teardown. Operations layers the common
// editor queries on top: definition, references, hover and document
// symbols, plus document open/close bookkeeping.
//
// Transport establishment lives here rather than in the connection: the
// connection only ever sees a channel.Channel.
//
// The host owns the typed event stream. After Start returns, drain
// Server.Events and answer every server request exactly once.
package client

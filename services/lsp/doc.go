// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package lsp provides a typed, bidirectional Language Server Protocol
// client connection.
//
// The connection speaks JSON-RPC 2.0 over any framed channel and checks
// every message against fixed method tables in both directions.
//
// # Architecture
//
//	┌──────────────────────────────────────────────────────────────────────┐
//	│                                Host                                  │
//	│      SendRequest / Notify  ─────────────►   ◄───────────  Events()   │
//	└────────────────────┬───────────────────────────────────────▲─────────┘
//	                     │                                       │
//	┌────────────────────▼───────────────────────────────────────┴─────────┐
//	│  Connection  (client tables)        (hook → server tables → decode)  │
//	├──────────────────────────────────────────────────────────────────────┤
//	│  jsonrpc.Session  (pending table, ID allocation, raw event stream)   │
//	├──────────────────────────────────────────────────────────────────────┤
//	│  channel.Channel  (Content-Length framing, WebSocket, in-memory)     │
//	└──────────────────────────────────────────────────────────────────────┘
//
// # Components
//
//   - Client tables: package-level RequestMethod and NotificationMethod
//     values such as Initialize, Definition and DidOpen. Each binds a
//     method name to its params and result types.
//   - Server tables: inbound notifications and requests decoded into
//     concrete types (*PublishDiagnostics, *WorkspaceConfiguration, ...).
//     Requests carry a Reply[T] or an Ack responder.
//   - Extension hook: sees inbound notifications before the tables and
//     may claim them.
//
// # Inbound Rules
//
//   - Unknown notifications are dropped with a rate limited diagnostic.
//   - Unknown requests are published as *CustomServerRequest.
//   - A known request with bad params is answered with InvalidParams and
//     never published.
//   - A known notification with bad params is dropped, or published as
//     *MalformedNotification when escalated.
//
// # Thread Safety
//
// All exported types are safe for concurrent use.
//
// # Example
//
//	conn := lsp.New(channel.NewHeaderChannel(stdout, stdin))
//	defer conn.Close()
//
//	go func() {
//	    for ev := range conn.Events() {
//	        switch ev := ev.(type) {
//	        case *lsp.NotificationEvent:
//	            // ...
//	        case *lsp.RequestEvent:
//	            _ = ev.Request.Fail(ctx, jsonrpc.NewError(jsonrpc.CodeMethodNotFound, "unsupported"))
//	        }
//	    }
//	}()
//
//	pid := os.Getpid()
//	result, err := lsp.Call(ctx, conn, lsp.Initialize, protocol.InitializeParams{ProcessID: &pid})
package lsp

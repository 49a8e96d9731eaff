// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package channel

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// closeGracePeriod bounds how long Close waits to deliver the close frame.
const closeGracePeriod = time.Second

// WebSocket frames JSON-RPC messages as WebSocket data frames.
//
// Description:
//
//	Every message travels in its own text frame, so no Content-Length
//	header is needed. Binary frames are accepted on read; control frames
//	are handled by gorilla/websocket.
//
// Thread Safety:
//
//	Writes are serialized internally. Reads must come from one goroutine.
type WebSocket struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

// NewWebSocket wraps an established WebSocket connection.
func NewWebSocket(conn *websocket.Conn) *WebSocket {
	return &WebSocket{conn: conn}
}

// DialWebSocket connects to a language server exposed over WebSocket.
//
// Inputs:
//
//	ctx - Context for the dial handshake
//	url - ws:// or wss:// endpoint
//	header - Optional handshake headers (may be nil)
//
// Outputs:
//
//	*WebSocket - The connected channel
//	error - Non-nil if the handshake failed
func DialWebSocket(ctx context.Context, url string, header http.Header) (*WebSocket, error) {
	if ctx == nil {
		return nil, fmt.Errorf("ctx must not be nil")
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return NewWebSocket(conn), nil
}

// ReadMessage implements Channel.
func (w *WebSocket) ReadMessage() ([]byte, error) {
	for {
		mt, data, err := w.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, io.EOF
			}
			return nil, err
		}
		if mt == websocket.TextMessage || mt == websocket.BinaryMessage {
			return data, nil
		}
	}
}

// WriteMessage implements Channel.
func (w *WebSocket) WriteMessage(msg []byte) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	if err := w.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		if err == websocket.ErrCloseSent {
			return ErrClosed
		}
		return err
	}
	return nil
}

// Close sends a close frame and closes the connection. It is idempotent.
func (w *WebSocket) Close() error {
	w.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = w.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod))
		w.closeErr = w.conn.Close()
	})
	return w.closeErr
}

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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/lspconn/services/lsp/channel"
)

// newTestSession returns a session and the peer end of its channel.
func newTestSession(t *testing.T, opts ...Option) (*Session, channel.Channel) {
	t.Helper()
	local, peer := channel.Pipe()
	s := NewSession(local, opts...)
	t.Cleanup(func() {
		_ = s.Close()
		_ = peer.Close()
	})
	return s, peer
}

// readFrame reads one message from the peer side.
func readFrame(t *testing.T, peer channel.Channel) Message {
	t.Helper()
	data, err := peer.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

// writeFrame writes a raw message from the peer side.
func writeFrame(t *testing.T, peer channel.Channel, frame string) {
	t.Helper()
	require.NoError(t, peer.WriteMessage([]byte(frame)))
}

func nextEvent(t *testing.T, s *Session) Event {
	t.Helper()
	select {
	case ev, ok := <-s.Events():
		require.True(t, ok, "event stream closed")
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestSession_CallRoundTrip(t *testing.T) {
	s, peer := newTestSession(t)

	type result struct {
		raw json.RawMessage
		err error
	}
	done := make(chan result, 1)
	go func() {
		raw, err := s.Call(context.Background(), "initialize", map[string]int{"processId": 123})
		done <- result{raw, err}
	}()

	req := readFrame(t, peer)
	require.NotNil(t, req.ID)
	assert.Equal(t, IntID(1), *req.ID)
	assert.Equal(t, "initialize", req.Method)
	assert.JSONEq(t, `{"processId":123}`, string(req.Params))

	writeFrame(t, peer, `{"jsonrpc":"2.0","id":1,"result":{"capabilities":{}}}`)

	res := <-done
	require.NoError(t, res.err)
	assert.JSONEq(t, `{"capabilities":{}}`, string(res.raw))
	assert.Equal(t, 0, s.Pending())
}

func TestSession_CallOmitsNilParams(t *testing.T) {
	s, peer := newTestSession(t)

	go func() { _, _ = s.Call(context.Background(), "shutdown", nil) }()

	data, err := peer.ReadMessage()
	require.NoError(t, err)
	assert.NotContains(t, string(data), "params")
}

func TestSession_CallErrorResponse(t *testing.T) {
	s, peer := newTestSession(t)

	done := make(chan error, 1)
	go func() {
		_, err := s.Call(context.Background(), "textDocument/hover", nil)
		done <- err
	}()

	req := readFrame(t, peer)
	writeFrame(t, peer, fmt.Sprintf(`{"jsonrpc":"2.0","id":%s,"error":{"code":-32601,"message":"nope"}}`, req.ID))

	err := <-done
	var rpcErr *Error
	require.ErrorAs(t, err, &rpcErr)
	assert.True(t, rpcErr.IsMethodNotFound())
	assert.Equal(t, "nope", rpcErr.Message)
}

func TestSession_ResponseWithoutResultIsProtocolViolation(t *testing.T) {
	s, peer := newTestSession(t)

	done := make(chan error, 1)
	go func() {
		_, err := s.Call(context.Background(), "textDocument/hover", nil)
		done <- err
	}()

	req := readFrame(t, peer)
	writeFrame(t, peer, fmt.Sprintf(`{"jsonrpc":"2.0","id":%s}`, req.ID))

	err := <-done
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "textDocument/hover", decodeErr.Method)
	assert.ErrorIs(t, err, ErrProtocolViolation)
}

func TestSession_ConcurrentCallsCorrelate(t *testing.T) {
	s, peer := newTestSession(t)
	const n = 32

	// Peer: collect all requests, then answer in reverse order echoing
	// the params so each caller can check it got its own response.
	go func() {
		reqs := make([]Message, 0, n)
		for range n {
			data, err := peer.ReadMessage()
			if err != nil {
				return
			}
			var msg Message
			if json.Unmarshal(data, &msg) != nil {
				return
			}
			reqs = append(reqs, msg)
		}
		for i := len(reqs) - 1; i >= 0; i-- {
			resp, _ := json.Marshal(Message{JSONRPC: Version, ID: reqs[i].ID, Result: reqs[i].Params})
			if peer.WriteMessage(resp) != nil {
				return
			}
		}
	}()

	var g errgroup.Group
	for i := range n {
		g.Go(func() error {
			raw, err := s.Call(context.Background(), "echo", map[string]int{"caller": i})
			if err != nil {
				return err
			}
			var got map[string]int
			if err := json.Unmarshal(raw, &got); err != nil {
				return err
			}
			if got["caller"] != i {
				return fmt.Errorf("caller %d got response for %d", i, got["caller"])
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, 0, s.Pending())
}

func TestSession_IDsDistinct(t *testing.T) {
	s, peer := newTestSession(t)
	const n = 50

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Call(ctx, "m", nil)
		}()
	}

	seen := make(map[ID]bool)
	for range n {
		msg := readFrame(t, peer)
		require.NotNil(t, msg.ID)
		assert.False(t, seen[*msg.ID], "duplicate id %s", msg.ID)
		seen[*msg.ID] = true
	}
	assert.Equal(t, n, s.Pending())

	cancel()
	wg.Wait()
	assert.Equal(t, 0, s.Pending())
}

func TestSession_CallContextCancelled(t *testing.T) {
	s, peer := newTestSession(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := s.Call(ctx, "slow", nil)
		done <- err
	}()

	req := readFrame(t, peer)
	cancel()

	err := <-done
	var cancelled *CancelledError
	require.ErrorAs(t, err, &cancelled)
	assert.Equal(t, *req.ID, cancelled.ID)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, s.Pending())

	// A late response is ignored and the session keeps working.
	writeFrame(t, peer, fmt.Sprintf(`{"jsonrpc":"2.0","id":%s,"result":1}`, req.ID))
	writeFrame(t, peer, `{"jsonrpc":"2.0","method":"still/alive"}`)
	assert.Equal(t, "still/alive", nextEvent(t, s).Method)
}

func TestSession_NotificationEvent(t *testing.T) {
	s, peer := newTestSession(t)

	writeFrame(t, peer, `{"jsonrpc":"2.0","method":"window/logMessage","params":{"type":3,"message":"hi"}}`)

	ev := nextEvent(t, s)
	assert.Equal(t, EventNotification, ev.Kind)
	assert.Equal(t, "window/logMessage", ev.Method)
	assert.JSONEq(t, `{"type":3,"message":"hi"}`, string(ev.Params))
	assert.Nil(t, ev.Reply)
}

func TestSession_RequestEventAndReply(t *testing.T) {
	s, peer := newTestSession(t)

	writeFrame(t, peer, `{"jsonrpc":"2.0","id":"srv-1","method":"workspace/configuration","params":{"items":[]}}`)

	ev := nextEvent(t, s)
	require.Equal(t, EventRequest, ev.Kind)
	assert.Equal(t, StringID("srv-1"), ev.ID)
	require.NotNil(t, ev.Reply)

	go func() { _ = ev.Reply(context.Background(), []int{}, nil) }()

	resp := readFrame(t, peer)
	require.NotNil(t, resp.ID)
	assert.Equal(t, StringID("srv-1"), *resp.ID)
	assert.JSONEq(t, `[]`, string(resp.Result))
	assert.Nil(t, resp.Error)

	assert.ErrorIs(t, ev.Reply(context.Background(), nil, nil), ErrAlreadyReplied)
}

func TestSession_ReplyNilResultIsNull(t *testing.T) {
	s, peer := newTestSession(t)

	writeFrame(t, peer, `{"jsonrpc":"2.0","id":4,"method":"client/registerCapability","params":{"registrations":[]}}`)
	ev := nextEvent(t, s)

	go func() { _ = ev.Reply(context.Background(), nil, nil) }()

	data, err := peer.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":4,"result":null}`, string(data))
}

func TestSession_ReplyError(t *testing.T) {
	s, peer := newTestSession(t)

	writeFrame(t, peer, `{"jsonrpc":"2.0","id":5,"method":"x/y"}`)
	ev := nextEvent(t, s)

	go func() { _ = ev.Reply(context.Background(), nil, fmt.Errorf("x/y: %w", ErrUnrecognizedMethod)) }()

	resp := readFrame(t, peer)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeMethodNotFound, resp.Error.Code)
	assert.Nil(t, resp.Result)
}

func TestSession_MalformedFrameIsNotFatal(t *testing.T) {
	s, peer := newTestSession(t)

	writeFrame(t, peer, `{not json`)
	writeFrame(t, peer, `{"jsonrpc":"2.0","id":{"x":1},"method":"bad/id"}`)
	writeFrame(t, peer, `{"jsonrpc":"2.0"}`)
	writeFrame(t, peer, `{"jsonrpc":"2.0","method":"ok"}`)

	assert.Equal(t, "ok", nextEvent(t, s).Method)
	assert.NoError(t, s.Err())
}

func TestSession_TransportFailureFailsPending(t *testing.T) {
	s, peer := newTestSession(t)
	const m = 5

	errs := make(chan error, m)
	for range m {
		go func() {
			_, err := s.Call(context.Background(), "pending", nil)
			errs <- err
		}()
	}
	for range m {
		readFrame(t, peer)
	}
	require.Equal(t, m, s.Pending())

	require.NoError(t, peer.Close())

	for range m {
		err := <-errs
		var transportErr *TransportError
		require.ErrorAs(t, err, &transportErr)
		assert.ErrorIs(t, err, io.EOF)
	}

	ev := nextEvent(t, s)
	assert.Equal(t, EventTransportError, ev.Kind)
	require.Error(t, ev.Err)

	_, ok := <-s.Events()
	assert.False(t, ok, "event stream must end after the transport error")

	<-s.Done()
	_, err := s.Call(context.Background(), "after", nil)
	var transportErr *TransportError
	assert.ErrorAs(t, err, &transportErr)
}

func TestSession_CloseFailsPendingWithErrClosed(t *testing.T) {
	s, peer := newTestSession(t)

	done := make(chan error, 1)
	go func() {
		_, err := s.Call(context.Background(), "pending", nil)
		done <- err
	}()
	readFrame(t, peer)

	require.NoError(t, s.Close())
	assert.ErrorIs(t, <-done, ErrClosed)

	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("reader did not exit")
	}
	for ev := range s.Events() {
		t.Fatalf("unexpected event after close: %v", ev.Kind)
	}
	assert.ErrorIs(t, s.Notify(context.Background(), "late", nil), ErrClosed)
	assert.True(t, errors.Is(s.Err(), ErrClosed))
}

func TestSession_NotifyCancelledContext(t *testing.T) {
	s, _ := newTestSession(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Notify(ctx, "x", nil), context.Canceled)
}

func TestEventKind_String(t *testing.T) {
	assert.Equal(t, "notification", EventNotification.String())
	assert.Equal(t, "request", EventRequest.String())
	assert.Equal(t, "transport_error", EventTransportError.String())
	assert.Equal(t, "EventKind(9)", EventKind(9).String())
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package jsonrpc implements a JSON-RPC 2.0 session over a framed channel.
//
// A Session multiplexes concurrent outgoing calls over one channel,
// correlates responses with callers by request ID, and exposes every
// inbound request and notification on a single ordered event stream.
package jsonrpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/AleutianAI/lspconn/services/lsp/channel"
)

// DefaultEventBuffer is the capacity of the raw event stream.
const DefaultEventBuffer = 64

// =============================================================================
// EVENTS
// =============================================================================

// EventKind classifies a raw inbound event.
type EventKind int

const (
	// EventNotification is an inbound notification.
	EventNotification EventKind = iota

	// EventRequest is an inbound request that must be answered through
	// Event.Reply.
	EventRequest

	// EventTransportError is the final event of a session that failed.
	EventTransportError
)

// String returns the string representation of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventNotification:
		return "notification"
	case EventRequest:
		return "request"
	case EventTransportError:
		return "transport_error"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Replier completes one inbound request. Exactly one of result and err is
// used: a non-nil err produces an error response, otherwise result is
// encoded (nil becomes JSON null).
//
// Only the first invocation writes a response; later ones return
// ErrAlreadyReplied.
type Replier func(ctx context.Context, result any, err error) error

// Event is one decoded but untyped inbound message.
type Event struct {
	// Kind identifies which of the fields below are set.
	Kind EventKind

	// Method is the method name of a request or notification.
	Method string

	// ID is the request ID. Only set for EventRequest.
	ID ID

	// Params holds the raw params. Nil when the message had none.
	Params json.RawMessage

	// Reply answers the request. Only set for EventRequest.
	Reply Replier

	// Err is the terminal error. Only set for EventTransportError.
	Err error
}

// =============================================================================
// OPTIONS
// =============================================================================

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithEventBuffer sets the capacity of the raw event stream.
func WithEventBuffer(n int) Option {
	return func(s *Session) {
		if n >= 0 {
			s.eventBuffer = n
		}
	}
}

// =============================================================================
// SESSION
// =============================================================================

// callResult is delivered exactly once to a pending caller.
type callResult struct {
	result json.RawMessage
	err    error
}

// pendingCall is one entry of the pending request table.
type pendingCall struct {
	method string
	done   chan callResult
}

// Session is a JSON-RPC 2.0 endpoint bound to one channel.
//
// Thread Safety:
//
//	Call, Notify, Close and Replier functions are safe for concurrent use.
//	A single reader goroutine owns the event stream.
type Session struct {
	ch          channel.Channel
	logger      *slog.Logger
	eventBuffer int

	nextID atomic.Int64

	// mu guards pending, closed and err.
	mu      sync.Mutex
	pending map[ID]*pendingCall
	closed  bool
	err     error

	events    chan Event
	stop      chan struct{}
	stopOnce  sync.Once
	done      chan struct{}
	closeOnce sync.Once
}

// NewSession starts a session on ch. The session owns ch from now on and
// closes it on termination.
//
// Description:
//
//	Starts the reader goroutine immediately. Inbound messages are
//	delivered on Events() in arrival order; callers must drain it.
//
// Inputs:
//
//	ch - The framed channel. Must not be nil.
//	opts - Optional configuration.
//
// Outputs:
//
//	*Session - The running session.
func NewSession(ch channel.Channel, opts ...Option) *Session {
	s := &Session{
		ch:          ch,
		logger:      slog.Default(),
		eventBuffer: DefaultEventBuffer,
		pending:     make(map[ID]*pendingCall),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.events = make(chan Event, s.eventBuffer)

	go s.readLoop()
	return s
}

// Events returns the ordered stream of inbound events. The channel is
// closed once the session has terminated.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Done is closed when the reader goroutine has exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err returns the terminal error, or nil while the session is running.
// After Close it is a *TransportError wrapping ErrClosed.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Pending returns the number of calls awaiting a response.
func (s *Session) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Close terminates the session. Outstanding calls fail with a
// *TransportError wrapping ErrClosed and no further events are delivered.
//
// Close does not wait for the reader; use Done for that.
func (s *Session) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	s.terminate(&TransportError{Op: "close", Err: ErrClosed})
	return nil
}

// Call sends a request and waits for its response.
//
// Description:
//
//	Allocates a fresh ID, registers it in the pending table, writes the
//	request and blocks until the matching response arrives, the session
//	terminates, or ctx ends.
//
// Inputs:
//
//	ctx - Bounds the wait. Must not be nil.
//	method - The method name.
//	params - Params to encode. Nil omits the field; json.RawMessage is sent as is.
//
// Outputs:
//
//	json.RawMessage - The raw result, "null" for void results.
//	error - *Error from the peer, *TransportError, *CancelledError, or a
//	        *DecodeError wrapping ErrProtocolViolation.
func (s *Session) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if ctx == nil {
		return nil, errors.New("ctx must not be nil")
	}
	raw, err := marshalPayload(params)
	if err != nil {
		return nil, fmt.Errorf("marshal %s params: %w", method, err)
	}

	id := IntID(s.nextID.Add(1))
	call := &pendingCall{method: method, done: make(chan callResult, 1)}

	s.mu.Lock()
	if s.closed {
		err := s.err
		s.mu.Unlock()
		return nil, err
	}
	s.pending[id] = call
	s.mu.Unlock()

	if err := s.send(&Message{JSONRPC: Version, ID: &id, Method: method, Params: raw}); err != nil {
		var transportErr *TransportError
		if !errors.As(err, &transportErr) {
			s.remove(id)
			return nil, err
		}
		// terminate has already failed the entry.
		res := <-call.done
		return nil, res.err
	}

	select {
	case res := <-call.done:
		return res.result, res.err
	case <-ctx.Done():
		if s.remove(id) {
			return nil, &CancelledError{ID: id, Method: method, Err: ctx.Err()}
		}
		// The response or teardown won the race.
		res := <-call.done
		return res.result, res.err
	}
}

// Notify sends a notification. It returns once the message has been
// handed to the channel.
func (s *Session) Notify(ctx context.Context, method string, params any) error {
	if ctx == nil {
		return errors.New("ctx must not be nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := marshalPayload(params)
	if err != nil {
		return fmt.Errorf("marshal %s params: %w", method, err)
	}
	return s.send(&Message{JSONRPC: Version, Method: method, Params: raw})
}

// send writes one message. A channel failure terminates the session.
func (s *Session) send(msg *Message) error {
	if err := s.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := s.ch.WriteMessage(data); err != nil {
		s.terminate(&TransportError{Op: "write", Err: err})
		return s.Err()
	}
	return nil
}

// remove deletes a pending entry and reports whether it was still present.
func (s *Session) remove(id ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[id]; !ok {
		return false
	}
	delete(s.pending, id)
	return true
}

// terminate records the first terminal error, fails every pending call
// with it and closes the channel. Later calls are no-ops.
func (s *Session) terminate(cause error) {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.err = cause
		pending := s.pending
		s.pending = make(map[ID]*pendingCall)
		s.mu.Unlock()

		for _, call := range pending {
			call.done <- callResult{err: cause}
		}

		if err := s.ch.Close(); err != nil {
			s.logger.Debug("Channel close failed", slog.String("error", err.Error()))
		}
	})
}

// =============================================================================
// INBOUND
// =============================================================================

// readLoop is the only writer to s.events.
func (s *Session) readLoop() {
	defer close(s.done)
	defer close(s.events)

	for {
		data, err := s.ch.ReadMessage()
		if err != nil {
			s.terminate(&TransportError{Op: "read", Err: err})
			break
		}
		s.handle(data)
	}

	cause := s.Err()
	if errors.Is(cause, ErrClosed) {
		return
	}
	s.logger.Warn("JSON-RPC session terminated", slog.String("error", cause.Error()))
	s.emit(Event{Kind: EventTransportError, Err: cause})
}

// handle classifies one inbound frame.
func (s *Session) handle(data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		s.logger.Warn("Dropping malformed JSON-RPC message",
			slog.String("error", err.Error()),
			slog.Int("bytes", len(data)),
		)
		return
	}

	switch {
	case msg.IsRequest():
		id := *msg.ID
		s.emit(Event{
			Kind:   EventRequest,
			Method: msg.Method,
			ID:     id,
			Params: msg.Params,
			Reply:  s.replier(id, msg.Method),
		})

	case msg.IsNotification():
		s.emit(Event{
			Kind:   EventNotification,
			Method: msg.Method,
			Params: msg.Params,
		})

	case msg.IsResponse():
		s.resolve(*msg.ID, &msg)

	default:
		attrs := []any{}
		if msg.Error != nil {
			attrs = append(attrs, slog.String("error", msg.Error.Error()))
		}
		s.logger.Warn("Dropping JSON-RPC message without method or id", attrs...)
	}
}

// resolve completes the pending call matching id.
func (s *Session) resolve(id ID, msg *Message) {
	s.mu.Lock()
	call, ok := s.pending[id]
	if ok {
		delete(s.pending, id)
	}
	s.mu.Unlock()

	if !ok {
		s.logger.Debug("Dropping response for unknown request", slog.String("id", id.String()))
		return
	}

	switch {
	case msg.Error != nil:
		call.done <- callResult{err: msg.Error}
	case msg.Result == nil:
		call.done <- callResult{err: &DecodeError{
			Method: call.method,
			Err:    fmt.Errorf("%w: response has neither result nor error", ErrProtocolViolation),
		}}
	default:
		call.done <- callResult{result: msg.Result}
	}
}

// emit delivers an event, blocking while the stream is full. After Close
// the event is discarded.
func (s *Session) emit(ev Event) {
	select {
	case s.events <- ev:
	case <-s.stop:
	}
}

// replier builds the one-shot responder for an inbound request.
func (s *Session) replier(id ID, method string) Replier {
	var replied atomic.Bool
	return func(ctx context.Context, result any, err error) error {
		if !replied.CompareAndSwap(false, true) {
			return ErrAlreadyReplied
		}
		if err == nil && ctx != nil && ctx.Err() != nil {
			err = NewError(CodeRequestCancelled, "%s: %v", method, ctx.Err())
		}

		msg := &Message{JSONRPC: Version, ID: &id}
		if err != nil {
			msg.Error = toWireError(err)
		} else {
			raw, mErr := marshalPayload(result)
			switch {
			case mErr != nil:
				msg.Error = NewError(CodeInternalError, "marshal %s result: %v", method, mErr)
			case raw == nil:
				msg.Result = nullResult
			default:
				msg.Result = raw
			}
		}
		return s.send(msg)
	}
}

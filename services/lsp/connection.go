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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/AleutianAI/lspconn/services/lsp/channel"
	"github.com/AleutianAI/lspconn/services/lsp/jsonrpc"
	"github.com/AleutianAI/lspconn/services/lsp/protocol"
)

// DefaultEventBuffer is the capacity of the typed event stream.
const DefaultEventBuffer = 256

// =============================================================================
// STATE
// =============================================================================

// State is the lifecycle state of a Connection. Transitions only move
// forward: Open, Closing, Closed.
type State int32

const (
	// StateOpen means inbound events are being dispatched and sends are accepted.
	StateOpen State = iota

	// StateClosing means teardown has started and sends are rejected.
	StateClosing

	// StateClosed means the event stream has ended.
	StateClosed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// =============================================================================
// OPTIONS
// =============================================================================

// NotificationHook sees every inbound notification before the table does.
// Returning true claims the notification and skips generic decoding. It
// runs on the dispatch goroutine and must not block. A hook may call
// Close, which then starts teardown and returns without waiting for the
// dispatch goroutine to exit.
type NotificationHook func(method string, params json.RawMessage) bool

// DecodeFailurePolicy selects what happens to a known notification whose
// params fail to decode.
type DecodeFailurePolicy int

const (
	// DropDecodeFailures logs and counts the failure.
	DropDecodeFailures DecodeFailurePolicy = iota

	// PublishDecodeFailures publishes a *MalformedNotification instead.
	PublishDecodeFailures
)

// Option configures a Connection.
type Option func(*Connection)

// WithNotificationHook installs the extension hook.
func WithNotificationHook(hook NotificationHook) Option {
	return func(c *Connection) {
		c.hook = hook
	}
}

// WithEventBuffer sets the capacity of the typed event stream.
func WithEventBuffer(n int) Option {
	return func(c *Connection) {
		if n >= 0 {
			c.eventBuffer = n
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Connection) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDecodeFailurePolicy sets the policy for every notification method.
func WithDecodeFailurePolicy(policy DecodeFailurePolicy) Option {
	return func(c *Connection) {
		c.policy = policy
	}
}

// WithEscalatedNotifications publishes decode failures for the named
// methods only, leaving the rest to the policy.
func WithEscalatedNotifications(methods ...string) Option {
	return func(c *Connection) {
		for _, m := range methods {
			c.escalated[m] = true
		}
	}
}

// WithCancelOnContextDone controls whether a request abandoned by its
// caller is followed by $/cancelRequest. Enabled by default.
func WithCancelOnContextDone(enabled bool) Option {
	return func(c *Connection) {
		c.cancelOnDone = enabled
	}
}

// =============================================================================
// CONNECTION
// =============================================================================

// Connection is a typed LSP client connection over one framed channel.
//
// Description:
//
//	Outgoing requests and notifications are built from the fixed method
//	tables and sent with SendRequest, Call, SendNotification or Notify.
//	Inbound messages are decoded against the server tables and published
//	on Events() in arrival order.
//
// Thread Safety:
//
//	All methods are safe for concurrent use. Events() has a single
//	producer; the host should drain it from one goroutine.
type Connection struct {
	id      string
	session *jsonrpc.Session
	logger  *slog.Logger

	hook         NotificationHook
	policy       DecodeFailurePolicy
	escalated    map[string]bool
	cancelOnDone bool
	eventBuffer  int
	diagLimiter  *rate.Limiter

	state     atomic.Int32
	inHook    atomic.Bool
	events    chan Event
	stop      chan struct{}
	closeOnce sync.Once
	done      chan struct{}
}

// New starts a connection on ch.
//
// Description:
//
//	Wraps ch in a JSON-RPC session and starts the dispatch goroutine.
//	The connection owns ch and closes it on teardown.
//
// Inputs:
//
//	ch - An open framed channel. Must not be nil.
//	opts - Optional configuration.
//
// Outputs:
//
//	*Connection - The open connection.
//
// Example:
//
//	conn := lsp.New(ch, lsp.WithNotificationHook(hook))
//	defer conn.Close()
//
//	result, err := lsp.Call(ctx, conn, lsp.Initialize, params)
func New(ch channel.Channel, opts ...Option) *Connection {
	c := &Connection{
		id:           uuid.NewString(),
		logger:       slog.Default(),
		escalated:    make(map[string]bool),
		cancelOnDone: true,
		eventBuffer:  DefaultEventBuffer,
		diagLimiter:  rate.NewLimiter(rate.Every(time.Second), 10),
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(slog.String("connection_id", c.id))
	c.events = make(chan Event, c.eventBuffer)
	c.session = jsonrpc.NewSession(ch, jsonrpc.WithLogger(c.logger))

	go c.run()
	return c
}

// ID returns the connection ID used in logs and spans.
func (c *Connection) ID() string {
	return c.id
}

// State returns the current lifecycle state.
func (c *Connection) State() State {
	return State(c.state.Load())
}

// Events returns the typed event stream. It is closed exactly once, when
// the connection reaches StateClosed.
func (c *Connection) Events() <-chan Event {
	return c.events
}

// Done is closed when the connection reaches StateClosed.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// Err returns the terminal error, nil while open. After Close it wraps
// ErrClosed; after a channel failure it is a *jsonrpc.TransportError.
func (c *Connection) Err() error {
	return c.session.Err()
}

// Close tears the connection down. Outstanding requests fail with an
// error wrapping ErrClosed and the event stream ends. Close blocks until
// the dispatch goroutine has exited and is safe to call more than once.
// While a NotificationHook is running it does not wait, since the hook
// itself runs on the dispatch goroutine.
func (c *Connection) Close() error {
	c.closeOnce.Do(func() {
		c.state.CompareAndSwap(int32(StateOpen), int32(StateClosing))
		close(c.stop)
		if err := c.session.Close(); err != nil {
			c.logger.Debug("Session close failed", slog.String("error", err.Error()))
		}
	})
	if c.inHook.Load() {
		return nil
	}
	<-c.done
	return nil
}

// checkOpen rejects sends once teardown has started.
func (c *Connection) checkOpen() error {
	if c.State() == StateOpen {
		return nil
	}
	if err := c.session.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrNotOpen, err)
	}
	return ErrNotOpen
}

// =============================================================================
// OUTBOUND
// =============================================================================

// SendRequest sends req and decodes the response into R.
//
// Description:
//
//	Blocks the caller until the matching response arrives, the connection
//	fails, or ctx ends. Concurrent callers are multiplexed over the same
//	channel. No timeout is imposed; bound ctx for a deadline.
//
// Outputs:
//
//	R - The decoded result.
//	error - *jsonrpc.Error when the server answered with an error,
//	        *jsonrpc.TransportError when the channel failed,
//	        *jsonrpc.DecodeError when the result had the wrong shape,
//	        *jsonrpc.CancelledError when ctx ended first.
func SendRequest[R any](ctx context.Context, c *Connection, req Request[R]) (R, error) {
	var result R
	if ctx == nil {
		return result, errors.New("ctx must not be nil")
	}
	if err := c.checkOpen(); err != nil {
		return result, err
	}

	ctx, span := startRequestSpan(ctx, c.id, req.method)
	start := time.Now()

	result, err := roundTrip(ctx, c, req)

	recordRequest(ctx, req.method, time.Since(start), err)
	endRequestSpan(span, err)
	return result, err
}

// roundTrip performs the call and decodes the result.
func roundTrip[R any](ctx context.Context, c *Connection, req Request[R]) (R, error) {
	var result R

	raw, err := c.session.Call(ctx, req.method, req.params)
	if err != nil {
		var cancelled *jsonrpc.CancelledError
		if errors.As(err, &cancelled) && c.cancelOnDone {
			c.sendCancel(cancelled.ID)
		}
		return result, err
	}

	result, err = decodeResult[R](raw, req.nullable)
	if err != nil {
		var zero R
		recordDecodeFailure(ctx, "response", req.method)
		return zero, &jsonrpc.DecodeError{Method: req.method, Err: err}
	}
	return result, nil
}

// Call sends a table request with params.
func Call[P, R any](ctx context.Context, c *Connection, method RequestMethod[P, R], params P) (R, error) {
	return SendRequest(ctx, c, method.Request(params))
}

// SendNotification sends n. It returns once the message has been handed
// to the channel, not when the server has processed it.
func (c *Connection) SendNotification(ctx context.Context, n Notification) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	return c.session.Notify(ctx, n.method, n.params)
}

// SendCustomNotification sends a notification for a method outside the
// fixed table.
func (c *Connection) SendCustomNotification(ctx context.Context, method string, params any) error {
	if method == "" {
		return errors.New("method must not be empty")
	}
	if err := c.checkOpen(); err != nil {
		return err
	}
	return c.session.Notify(ctx, method, params)
}

// Notify sends a table notification with params.
func Notify[P any](ctx context.Context, c *Connection, method NotificationMethod[P], params P) error {
	return c.SendNotification(ctx, method.Notification(params))
}

// sendCancel tells the server an abandoned request is no longer wanted.
// It runs in the background so the caller returns immediately.
func (c *Connection) sendCancel(id jsonrpc.ID) {
	go func() {
		err := Notify(context.Background(), c, Cancel, protocol.CancelParams{ID: id})
		if err != nil {
			c.logger.Debug("Failed to send cancel notification",
				slog.String("id", id.String()),
				slog.String("error", err.Error()),
			)
		}
	}()
}

// =============================================================================
// INBOUND
// =============================================================================

// run is the dispatch goroutine and the only writer to c.events.
func (c *Connection) run() {
	defer close(c.done)
	defer func() {
		close(c.events)
		c.state.Store(int32(StateClosed))
	}()

	raw := c.session.Events()
	for {
		select {
		case <-c.stop:
			return
		case ev, ok := <-raw:
			if !ok {
				c.state.CompareAndSwap(int32(StateOpen), int32(StateClosing))
				return
			}
			if !c.dispatch(ev) {
				return
			}
		}
	}
}

// dispatch routes one raw event. It returns false once the connection is
// stopping.
func (c *Connection) dispatch(ev jsonrpc.Event) bool {
	switch ev.Kind {
	case jsonrpc.EventNotification:
		return c.dispatchNotification(ev)
	case jsonrpc.EventRequest:
		return c.dispatchRequest(ev)
	case jsonrpc.EventTransportError:
		c.state.CompareAndSwap(int32(StateOpen), int32(StateClosing))
		c.logger.Error("LSP connection failed", slog.String("error", ev.Err.Error()))
		return true
	default:
		return true
	}
}

func (c *Connection) dispatchNotification(ev jsonrpc.Event) bool {
	ctx := context.Background()
	recordInbound(ctx, "notification", ev.Method)

	if c.hook != nil && c.runHook(ev) {
		return true
	}

	entry, ok := serverNotifications[ev.Method]
	if !ok {
		recordDropped(ctx, ev.Method, "unrecognized")
		c.diagnose("Dropping notification with unrecognized method",
			slog.String("method", ev.Method),
		)
		return true
	}

	n, err := entry.decode(ev.Params)
	if err != nil {
		decodeErr := &jsonrpc.DecodeError{Method: ev.Method, Err: err}
		recordDecodeFailure(ctx, "notification", ev.Method)

		if c.policy == PublishDecodeFailures || c.escalated[ev.Method] {
			return c.publish(&NotificationEvent{Notification: &MalformedNotification{
				MethodName: ev.Method,
				Params:     ev.Params,
				Err:        decodeErr,
			}})
		}

		recordDropped(ctx, ev.Method, "decode_failure")
		c.diagnose("Dropping notification that failed to decode",
			slog.String("method", ev.Method),
			slog.String("error", decodeErr.Error()),
		)
		return true
	}

	return c.publish(&NotificationEvent{Notification: n})
}

// runHook calls the hook, flagging the dispatch goroutine as busy in it.
func (c *Connection) runHook(ev jsonrpc.Event) bool {
	c.inHook.Store(true)
	defer c.inHook.Store(false)
	return c.hook(ev.Method, ev.Params)
}

func (c *Connection) dispatchRequest(ev jsonrpc.Event) bool {
	ctx := context.Background()
	recordInbound(ctx, "request", ev.Method)

	entry, ok := serverRequests[ev.Method]
	if !ok {
		return c.publish(&RequestEvent{ID: ev.ID, Request: customRequest(ev.Method, ev.Params, ev.Reply)})
	}

	req, err := entry.decode(ev.Params, ev.Reply)
	if err != nil {
		decodeErr := &jsonrpc.DecodeError{Method: ev.Method, Err: err}
		recordDecodeFailure(ctx, "request", ev.Method)
		c.logger.Warn("Rejecting request that failed to decode",
			slog.String("method", ev.Method),
			slog.String("id", ev.ID.String()),
			slog.String("error", decodeErr.Error()),
		)
		if replyErr := ev.Reply(ctx, nil, decodeErr); replyErr != nil {
			c.logger.Debug("Failed to reject request",
				slog.String("method", ev.Method),
				slog.String("error", replyErr.Error()),
			)
		}
		return true
	}

	return c.publish(&RequestEvent{ID: ev.ID, Request: req})
}

// publish delivers ev to the host, blocking while the stream is full.
func (c *Connection) publish(ev Event) bool {
	select {
	case c.events <- ev:
		return true
	case <-c.stop:
		return false
	}
}

// diagnose logs a dropped-message diagnostic, rate limited so a noisy
// server cannot flood the log.
func (c *Connection) diagnose(msg string, attrs ...any) {
	if c.diagLimiter.Allow() {
		c.logger.Warn(msg, attrs...)
	}
}

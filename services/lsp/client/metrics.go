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
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/lspconn/services/lsp"
	"github.com/AleutianAI/lspconn/services/lsp/jsonrpc"
)

var (
	tracer = otel.Tracer("lspconn.client")
	meter  = otel.Meter("lspconn.client")
)

// Outcome labels shared by operation and lifecycle metrics.
const (
	outcomeOK           = "ok"
	outcomeEmpty        = "empty"
	outcomeUnsupported  = "unsupported"
	outcomeNotRunning   = "not_running"
	outcomeRPCError     = "rpc_error"
	outcomeDecodeError  = "decode_error"
	outcomeTransport    = "transport_error"
	outcomeCancelled    = "cancelled"
	outcomeFailed       = "failed"
	outcomeNotInstalled = "not_installed"
	outcomeSpawnFailed  = "spawn_failed"
	outcomeInitFailed   = "initialize_failed"
	outcomeGraceful     = "graceful"
	outcomeKilled       = "killed"
)

// Transport labels for server starts.
const (
	transportStdio   = "stdio"
	transportChannel = "channel"
)

// operationOutcome classifies the result of an Operations call.
func operationOutcome(err error, results int) string {
	var rpcErr *jsonrpc.Error
	switch {
	case err == nil && results == 0:
		return outcomeEmpty
	case err == nil:
		return outcomeOK
	case errors.Is(err, ErrCapabilityNotSupported):
		return outcomeUnsupported
	case errors.Is(err, ErrServerNotRunning):
		return outcomeNotRunning
	case errors.As(err, &rpcErr):
		return outcomeRPCError
	case lsp.IsDecodeError(err):
		return outcomeDecodeError
	case lsp.IsTransportError(err):
		return outcomeTransport
	case lsp.IsCancelled(err), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return outcomeCancelled
	}
	return outcomeFailed
}

// =============================================================================
// INSTRUMENTS
// =============================================================================

// instruments holds the client's metrics. A nil *instruments records
// nothing.
type instruments struct {
	opDuration metric.Float64Histogram
	opResults  metric.Int64Histogram
	opAttempts metric.Int64Histogram
	retries    metric.Int64Counter
	starts     metric.Int64Counter
	handshake  metric.Float64Histogram
	stops      metric.Int64Counter
}

// defaultInstruments builds the instruments on the global meter once.
var defaultInstruments = sync.OnceValues(func() (*instruments, error) {
	return newInstruments(meter)
})

// processInstruments returns the shared instruments, nil if they could
// not be created.
func processInstruments() *instruments {
	ins, err := defaultInstruments()
	if err != nil {
		return nil
	}
	return ins
}

func newInstruments(m metric.Meter) (*instruments, error) {
	var (
		ins instruments
		err error
	)

	if ins.opDuration, err = m.Float64Histogram(
		"lspconn_client_operation_duration_seconds",
		metric.WithDescription("Duration of editor operations, retries included"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if ins.opResults, err = m.Int64Histogram(
		"lspconn_client_operation_results",
		metric.WithDescription("Locations or symbols returned by successful operations"),
	); err != nil {
		return nil, err
	}
	if ins.opAttempts, err = m.Int64Histogram(
		"lspconn_client_operation_attempts",
		metric.WithDescription("Requests sent per operation"),
	); err != nil {
		return nil, err
	}
	if ins.retries, err = m.Int64Counter(
		"lspconn_client_operation_retries_total",
		metric.WithDescription("Retries after transient server errors, by whether the operation recovered"),
	); err != nil {
		return nil, err
	}
	if ins.starts, err = m.Int64Counter(
		"lspconn_client_server_starts_total",
		metric.WithDescription("Server start attempts by transport and outcome"),
	); err != nil {
		return nil, err
	}
	if ins.handshake, err = m.Float64Histogram(
		"lspconn_client_handshake_duration_seconds",
		metric.WithDescription("Duration of the initialize handshake"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if ins.stops, err = m.Int64Counter(
		"lspconn_client_server_stops_total",
		metric.WithDescription("Server shutdowns by whether the process exited on its own"),
	); err != nil {
		return nil, err
	}
	return &ins, nil
}

func (i *instruments) serverStart(ctx context.Context, language, transport, outcome string) {
	if i == nil {
		return
	}
	i.starts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("language", language),
		attribute.String("transport", transport),
		attribute.String("outcome", outcome),
	))
}

func (i *instruments) handshakeDone(ctx context.Context, language string, d time.Duration, ok bool) {
	if i == nil {
		return
	}
	i.handshake.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("language", language),
		attribute.Bool("ok", ok),
	))
}

func (i *instruments) serverStop(ctx context.Context, language, outcome string) {
	if i == nil {
		return
	}
	i.stops.Add(ctx, 1, metric.WithAttributes(
		attribute.String("language", language),
		attribute.String("outcome", outcome),
	))
}

// =============================================================================
// OPERATION OBSERVER
// =============================================================================

// operationObserver traces and measures one Operations call.
type operationObserver struct {
	metrics *instruments
	span    trace.Span
	start   time.Time
	attrs   []attribute.KeyValue
}

// observe starts the span for operation. The caller must call finish.
func (o *Operations) observe(ctx context.Context, operation, filePath string) (context.Context, *operationObserver) {
	server := "unknown"
	if info := o.server.ServerInfo(); info != nil && info.Name != "" {
		server = info.Name
	}
	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.String("language", o.server.Language()),
		attribute.String("server", server),
	}

	ctx, span := tracer.Start(ctx, "client."+operation,
		trace.WithAttributes(append(slices.Clone(attrs), attribute.String("file_path", filePath))...),
	)
	return ctx, &operationObserver{metrics: o.metrics, span: span, start: time.Now(), attrs: attrs}
}

// finish ends the span and records the outcome.
func (ob *operationObserver) finish(ctx context.Context, attempts, results int, err error) {
	defer ob.span.End()

	outcome := operationOutcome(err, results)
	ob.span.SetAttributes(
		attribute.String("outcome", outcome),
		attribute.Int("attempts", attempts),
		attribute.Int("results", results),
	)
	if err != nil {
		ob.span.RecordError(err)
		ob.span.SetStatus(codes.Error, err.Error())
	}

	m := ob.metrics
	if m == nil {
		return
	}
	base := metric.WithAttributes(ob.attrs...)
	m.opDuration.Record(ctx, time.Since(ob.start).Seconds(),
		metric.WithAttributes(append(slices.Clone(ob.attrs), attribute.String("outcome", outcome))...))
	if attempts > 0 {
		m.opAttempts.Record(ctx, int64(attempts), base)
	}
	if err == nil {
		m.opResults.Record(ctx, int64(results), base)
	}
	if attempts > 1 {
		result := "recovered"
		if err != nil {
			result = "exhausted"
		}
		m.retries.Add(ctx, int64(attempts-1),
			metric.WithAttributes(append(slices.Clone(ob.attrs), attribute.String("result", result))...))
	}
}

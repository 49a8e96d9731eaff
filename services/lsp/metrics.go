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
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/lspconn/services/lsp/jsonrpc"
)

// Package-level tracer and meter for connection operations.
var (
	tracer = otel.Tracer("lspconn.lsp")
	meter  = otel.Meter("lspconn.lsp")
)

// Metrics for connection operations.
var (
	requestLatency       metric.Float64Histogram
	requestTotal         metric.Int64Counter
	inboundTotal         metric.Int64Counter
	droppedNotifications metric.Int64Counter
	decodeFailures       metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// Request outcomes used as metric and span attributes.
const (
	outcomeSuccess   = "success"
	outcomeRPCError  = "rpc_error"
	outcomeTransport = "transport_error"
	outcomeDecode    = "decode_error"
	outcomeCancelled = "cancelled"
	outcomeError     = "error"
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		requestLatency, err = meter.Float64Histogram(
			"lsp_request_duration_seconds",
			metric.WithDescription("Duration of outgoing LSP requests"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		requestTotal, err = meter.Int64Counter(
			"lsp_requests_total",
			metric.WithDescription("Total number of outgoing LSP requests"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		inboundTotal, err = meter.Int64Counter(
			"lsp_inbound_events_total",
			metric.WithDescription("Total number of inbound notifications and requests"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		droppedNotifications, err = meter.Int64Counter(
			"lsp_dropped_notifications_total",
			metric.WithDescription("Total number of inbound notifications dropped"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		decodeFailures, err = meter.Int64Counter(
			"lsp_decode_failures_total",
			metric.WithDescription("Total number of payloads that failed to decode"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// classifyOutcome maps a request error to its outcome label.
func classifyOutcome(err error) string {
	if err == nil {
		return outcomeSuccess
	}
	var (
		rpcErr       *jsonrpc.Error
		transportErr *jsonrpc.TransportError
		decodeErr    *jsonrpc.DecodeError
		cancelled    *jsonrpc.CancelledError
	)
	switch {
	case errors.As(err, &cancelled):
		return outcomeCancelled
	case errors.As(err, &transportErr):
		return outcomeTransport
	case errors.As(err, &decodeErr):
		return outcomeDecode
	case errors.As(err, &rpcErr):
		return outcomeRPCError
	default:
		return outcomeError
	}
}

// startRequestSpan creates a span for an outgoing request.
func startRequestSpan(ctx context.Context, connID, method string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Connection.SendRequest",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("rpc.system", "jsonrpc"),
			attribute.String("rpc.method", method),
			attribute.String("lsp.connection_id", connID),
		),
	)
}

// endRequestSpan records the outcome on the span and ends it.
func endRequestSpan(span trace.Span, err error) {
	outcome := classifyOutcome(err)
	span.SetAttributes(attribute.String("lsp.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	span.End()
}

// recordRequest records metrics for an outgoing request.
func recordRequest(ctx context.Context, method string, duration time.Duration, err error) {
	if initMetrics() != nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("outcome", classifyOutcome(err)),
	)
	requestLatency.Record(ctx, duration.Seconds(), attrs)
	requestTotal.Add(ctx, 1, attrs)
}

// recordInbound records one inbound notification or request.
func recordInbound(ctx context.Context, kind, method string) {
	if initMetrics() != nil {
		return
	}
	inboundTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("method", method),
	))
}

// recordDropped records a dropped notification.
func recordDropped(ctx context.Context, method, reason string) {
	if initMetrics() != nil {
		return
	}
	droppedNotifications.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("reason", reason),
	))
}

// recordDecodeFailure records a payload that failed to decode.
func recordDecodeFailure(ctx context.Context, kind, method string) {
	if initMetrics() != nil {
		return
	}
	decodeFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("method", method),
	))
}

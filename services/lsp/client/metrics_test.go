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
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/AleutianAI/lspconn/services/lsp/channel"
	"github.com/AleutianAI/lspconn/services/lsp/jsonrpc"
	"github.com/AleutianAI/lspconn/services/lsp/protocol"
)

// newTestInstruments returns instruments backed by a manual reader.
func newTestInstruments(t *testing.T) (*instruments, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	ins, err := newInstruments(provider.Meter("test"))
	require.NoError(t, err)
	return ins, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) (metricdata.Metrics, bool) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

func hasAttrs(set attribute.Set, want map[string]string) bool {
	for k, v := range want {
		got, ok := set.Value(attribute.Key(k))
		if !ok || got.Emit() != v {
			return false
		}
	}
	return true
}

// counterValue sums the points of counter name whose attributes include want.
func counterValue(t *testing.T, rm metricdata.ResourceMetrics, name string, want map[string]string) int64 {
	t.Helper()
	m, ok := findMetric(rm, name)
	if !ok {
		return 0
	}
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "%s is not an int64 sum", name)

	var total int64
	for _, dp := range sum.DataPoints {
		if hasAttrs(dp.Attributes, want) {
			total += dp.Value
		}
	}
	return total
}

// histogramCount counts observations of histogram name whose attributes
// include want.
func histogramCount(t *testing.T, rm metricdata.ResourceMetrics, name string, want map[string]string) uint64 {
	t.Helper()
	m, ok := findMetric(rm, name)
	if !ok {
		return 0
	}

	var total uint64
	switch data := m.Data.(type) {
	case metricdata.Histogram[float64]:
		for _, dp := range data.DataPoints {
			if hasAttrs(dp.Attributes, want) {
				total += dp.Count
			}
		}
	case metricdata.Histogram[int64]:
		for _, dp := range data.DataPoints {
			if hasAttrs(dp.Attributes, want) {
				total += dp.Count
			}
		}
	default:
		t.Fatalf("%s is not a histogram", name)
	}
	return total
}

func TestOperationOutcome(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		results int
		want    string
	}{
		{"results", nil, 3, outcomeOK},
		{"no results", nil, 0, outcomeEmpty},
		{"unsupported", fmt.Errorf("%w: hover", ErrCapabilityNotSupported), 0, outcomeUnsupported},
		{"not running", ErrServerNotRunning, 0, outcomeNotRunning},
		{"rpc error", fmt.Errorf("hover request: %w", jsonrpc.NewError(jsonrpc.CodeInternalError, "boom")), 0, outcomeRPCError},
		{"decode error", &jsonrpc.DecodeError{Method: "textDocument/hover", Err: errors.New("bad")}, 0, outcomeDecodeError},
		{"transport error", &jsonrpc.TransportError{Op: "read", Err: errors.New("eof")}, 0, outcomeTransport},
		{"abandoned", &jsonrpc.CancelledError{Method: "textDocument/hover", Err: context.Canceled}, 0, outcomeCancelled},
		{"deadline", context.DeadlineExceeded, 0, outcomeCancelled},
		{"other", errors.New("something"), 0, outcomeFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, operationOutcome(tt.err, tt.results))
		})
	}
}

func TestOperations_Metrics(t *testing.T) {
	labels := map[string]string{"operation": "definition", "language": "go", "server": "fake-ls"}

	t.Run("retry that recovers", func(t *testing.T) {
		ops, fake := newTestOperations(t, fullCaps)
		ins, reader := newTestInstruments(t)
		ops.metrics = ins

		calls := 0
		fake.handle(protocol.MethodTextDocumentDefinition, func(json.RawMessage) (any, error) {
			calls++
			if calls == 1 {
				return nil, jsonrpc.NewError(jsonrpc.CodeContentModified, "content modified")
			}
			return []protocol.Location{{URI: "file:///x.go"}}, nil
		})

		_, err := ops.Definition(context.Background(), "/src/main.go", 1, 0)
		require.NoError(t, err)

		rm := collect(t, reader)
		assert.Equal(t, int64(1), counterValue(t, rm, "lspconn_client_operation_retries_total",
			map[string]string{"operation": "definition", "server": "fake-ls", "result": "recovered"}))
		assert.Zero(t, counterValue(t, rm, "lspconn_client_operation_retries_total",
			map[string]string{"result": "exhausted"}))
		assert.Equal(t, uint64(1), histogramCount(t, rm, "lspconn_client_operation_duration_seconds",
			map[string]string{"operation": "definition", "language": "go", "server": "fake-ls", "outcome": outcomeOK}))
		assert.Equal(t, uint64(1), histogramCount(t, rm, "lspconn_client_operation_attempts", labels))
		assert.Equal(t, uint64(1), histogramCount(t, rm, "lspconn_client_operation_results", labels))
	})

	t.Run("retry that gives up", func(t *testing.T) {
		ops, fake := newTestOperations(t, fullCaps)
		ins, reader := newTestInstruments(t)
		ops.metrics = ins

		fake.handle(protocol.MethodTextDocumentReferences, func(json.RawMessage) (any, error) {
			return nil, jsonrpc.NewError(jsonrpc.CodeServerCancelled, "busy")
		})

		_, err := ops.References(context.Background(), "/src/main.go", 1, 0, false)
		require.Error(t, err)

		rm := collect(t, reader)
		assert.Equal(t, int64(1), counterValue(t, rm, "lspconn_client_operation_retries_total",
			map[string]string{"operation": "references", "result": "exhausted"}))
		assert.Equal(t, uint64(1), histogramCount(t, rm, "lspconn_client_operation_duration_seconds",
			map[string]string{"operation": "references", "outcome": outcomeRPCError}))
		assert.Zero(t, histogramCount(t, rm, "lspconn_client_operation_results",
			map[string]string{"operation": "references"}))
	})

	t.Run("missing capability", func(t *testing.T) {
		ops, _ := newTestOperations(t, `{}`)
		ins, reader := newTestInstruments(t)
		ops.metrics = ins
		ctx := context.Background()

		_, _ = ops.Definition(ctx, "/a.go", 1, 0)
		_, _ = ops.References(ctx, "/a.go", 1, 0, true)
		_, _ = ops.Hover(ctx, "/a.go", 1, 0)
		_, _ = ops.DocumentSymbols(ctx, "/a.go")

		rm := collect(t, reader)
		assert.Equal(t, uint64(4), histogramCount(t, rm, "lspconn_client_operation_duration_seconds",
			map[string]string{"outcome": outcomeUnsupported}))
		assert.Zero(t, histogramCount(t, rm, "lspconn_client_operation_attempts", nil))
	})

	t.Run("empty hover", func(t *testing.T) {
		ops, fake := newTestOperations(t, fullCaps)
		ins, reader := newTestInstruments(t)
		ops.metrics = ins

		fake.handle(protocol.MethodTextDocumentHover, func(json.RawMessage) (any, error) {
			return nil, nil
		})

		info, err := ops.Hover(context.Background(), "/a.go", 1, 0)
		require.NoError(t, err)
		assert.Nil(t, info)

		rm := collect(t, reader)
		assert.Equal(t, uint64(1), histogramCount(t, rm, "lspconn_client_operation_duration_seconds",
			map[string]string{"operation": "hover", "outcome": outcomeEmpty}))
	})
}

func TestServer_LifecycleMetrics(t *testing.T) {
	ins, reader := newTestInstruments(t)

	local, peer := channel.Pipe()
	fake := newFakeServer(peer, fullCaps)
	go fake.serve()
	t.Cleanup(func() { _ = peer.Close() })

	srv := NewServer(ServerConfig{Language: "go"}, t.TempDir())
	srv.metrics = ins
	require.NoError(t, srv.Connect(context.Background(), local))
	require.NoError(t, srv.Shutdown(context.Background()))

	rm := collect(t, reader)
	assert.Equal(t, int64(1), counterValue(t, rm, "lspconn_client_server_starts_total",
		map[string]string{"language": "go", "transport": transportChannel, "outcome": outcomeOK}))
	assert.Equal(t, uint64(1), histogramCount(t, rm, "lspconn_client_handshake_duration_seconds",
		map[string]string{"language": "go", "ok": "true"}))
	assert.Equal(t, int64(1), counterValue(t, rm, "lspconn_client_server_stops_total",
		map[string]string{"language": "go", "outcome": outcomeGraceful}))
}

func TestServer_NotInstalledMetric(t *testing.T) {
	ins, reader := newTestInstruments(t)

	srv := NewServer(ServerConfig{Language: "go", Command: "lspconn-no-such-server"}, t.TempDir())
	srv.metrics = ins
	require.ErrorIs(t, srv.Start(context.Background()), ErrServerNotInstalled)

	rm := collect(t, reader)
	assert.Equal(t, int64(1), counterValue(t, rm, "lspconn_client_server_starts_total",
		map[string]string{"transport": transportStdio, "outcome": outcomeNotInstalled}))
}

func TestInstruments_NilIsNoop(t *testing.T) {
	var ins *instruments
	ctx := context.Background()
	assert.NotPanics(t, func() {
		ins.serverStart(ctx, "go", transportStdio, outcomeOK)
		ins.handshakeDone(ctx, "go", 0, true)
		ins.serverStop(ctx, "go", outcomeGraceful)
	})
}

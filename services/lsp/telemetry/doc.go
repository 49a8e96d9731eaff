// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry initializes OpenTelemetry tracing and metrics for the
// lspconn client.
//
// The lsp and client packages record spans and instruments through the
// global otel providers. Init swaps those providers for SDK providers wired
// to the configured exporters; without Init they stay no-ops.
//
//	shutdown, err := telemetry.Init(ctx, telemetry.FromConfig(cfg.Telemetry))
//	if err != nil {
//	    return fmt.Errorf("init telemetry: %w", err)
//	}
//	defer shutdown(context.Background())
//
// Supported trace exporters are otlp, stdout and none. Supported metric
// exporters are prometheus, stdout and none. The Prometheus exporter is
// served by MetricsHandler.
package telemetry

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/lspconn/services/lsp/config"
)

// Exporter names.
const (
	ExporterNone       = "none"
	ExporterStdout     = "stdout"
	ExporterOTLP       = "otlp"
	ExporterPrometheus = "prometheus"
)

var (
	// ErrNilContext is returned when Init is called with a nil context.
	ErrNilContext = errors.New("telemetry: nil context")

	// ErrUnknownExporter is returned for an unrecognized exporter name.
	ErrUnknownExporter = errors.New("telemetry: unknown exporter")
)

// ShutdownFunc flushes and stops the installed providers.
type ShutdownFunc func(ctx context.Context) error

// Config configures Init.
type Config struct {
	// ServiceName is reported as service.name on every span and metric.
	ServiceName string

	// ServiceVersion is reported as service.version.
	ServiceVersion string

	// Environment is reported as deployment.environment.
	Environment string

	// TraceExporter is one of otlp, stdout or none.
	TraceExporter string

	// MetricExporter is one of prometheus, stdout or none.
	MetricExporter string

	// OTLPEndpoint is the collector address for the otlp trace exporter.
	OTLPEndpoint string

	// OTLPInsecure disables TLS towards the collector.
	OTLPInsecure bool

	// Writer receives stdout exporter output. Nil means os.Stderr, so the
	// stdio transport on stdout is never disturbed.
	Writer io.Writer
}

// DefaultConfig returns a configuration with no exporters except the
// Prometheus reader.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "lspconn",
		ServiceVersion: "dev",
		Environment:    getEnvOr("LSPCONN_ENV", "development"),
		TraceExporter:  ExporterNone,
		MetricExporter: ExporterPrometheus,
		OTLPEndpoint:   getEnvOr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTLPInsecure:   true,
	}
}

// FromConfig converts the file configuration section into a Config.
func FromConfig(tc config.TelemetryConfig) Config {
	cfg := DefaultConfig()
	if tc.ServiceName != "" {
		cfg.ServiceName = tc.ServiceName
	}
	if tc.TraceExporter != "" {
		cfg.TraceExporter = tc.TraceExporter
	}
	if tc.MetricsExporter != "" {
		cfg.MetricExporter = tc.MetricsExporter
	}
	if tc.OTLPEndpoint != "" {
		cfg.OTLPEndpoint = tc.OTLPEndpoint
	}
	return cfg
}

var (
	metricsHandlerMu sync.RWMutex
	metricsHandler   http.Handler
)

// Init installs global tracer and meter providers built from cfg.
//
// Inputs:
//   - ctx: Context for exporter construction. Must not be nil.
//   - cfg: Exporter selection.
//
// Outputs:
//   - ShutdownFunc: Flushes and stops both providers. Always non-nil.
//   - error: ErrNilContext, ErrUnknownExporter or an exporter failure.
func Init(ctx context.Context, cfg Config) (ShutdownFunc, error) {
	noop := func(context.Context) error { return nil }
	if ctx == nil {
		return noop, ErrNilContext
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("service.version", cfg.ServiceVersion),
			attribute.String("deployment.environment", cfg.Environment),
		),
	)
	if err != nil {
		return noop, fmt.Errorf("create resource: %w", err)
	}

	tp, err := initTracer(ctx, cfg, res)
	if err != nil {
		return noop, fmt.Errorf("init tracer: %w", err)
	}

	mp, err := initMeter(cfg, res)
	if err != nil {
		if tp != nil {
			_ = tp.Shutdown(ctx)
		}
		return noop, fmt.Errorf("init meter: %w", err)
	}

	if tp != nil {
		otel.SetTracerProvider(tp)
	}
	if mp != nil {
		otel.SetMeterProvider(mp)
	}
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	slog.Debug("telemetry initialized",
		slog.String("service", cfg.ServiceName),
		slog.String("traces", cfg.TraceExporter),
		slog.String("metrics", cfg.MetricExporter),
	)

	return func(ctx context.Context) error {
		var errs []error
		if tp != nil {
			if err := tp.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("shutdown tracer: %w", err))
			}
		}
		if mp != nil {
			if err := mp.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("shutdown meter: %w", err))
			}
		}
		return errors.Join(errs...)
	}, nil
}

func initTracer(ctx context.Context, cfg Config, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	var exporter sdktrace.SpanExporter
	switch cfg.TraceExporter {
	case ExporterNone, "":
		return nil, nil
	case ExporterOTLP:
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
		if cfg.OTLPInsecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exp, err := otlptracegrpc.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("create otlp exporter: %w", err)
		}
		exporter = exp
	case ExporterStdout:
		exp, err := stdouttrace.New(stdouttrace.WithWriter(cfg.writer()), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("create stdout exporter: %w", err)
		}
		exporter = exp
	default:
		return nil, fmt.Errorf("%w: trace exporter %q", ErrUnknownExporter, cfg.TraceExporter)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	), nil
}

func initMeter(cfg Config, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	switch cfg.MetricExporter {
	case ExporterNone, "":
		setMetricsHandler(nil)
		return nil, nil
	case ExporterPrometheus:
		// A private registry keeps repeated Init calls from colliding on
		// the default registerer.
		reg := prometheus.NewRegistry()
		exp, err := promexporter.New(promexporter.WithRegisterer(reg))
		if err != nil {
			return nil, fmt.Errorf("create prometheus exporter: %w", err)
		}
		setMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		return sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(exp),
			sdkmetric.WithResource(res),
		), nil
	case ExporterStdout:
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(cfg.writer()))
		if err != nil {
			return nil, fmt.Errorf("create stdout metric exporter: %w", err)
		}
		setMetricsHandler(nil)
		return sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(30*time.Second))),
			sdkmetric.WithResource(res),
		), nil
	default:
		return nil, fmt.Errorf("%w: metric exporter %q", ErrUnknownExporter, cfg.MetricExporter)
	}
}

// MetricsHandler returns the Prometheus scrape handler installed by the
// last Init, or a handler answering 404 when Prometheus is not in use.
func MetricsHandler() http.Handler {
	metricsHandlerMu.RLock()
	defer metricsHandlerMu.RUnlock()
	if metricsHandler == nil {
		return http.NotFoundHandler()
	}
	return metricsHandler
}

func setMetricsHandler(h http.Handler) {
	metricsHandlerMu.Lock()
	metricsHandler = h
	metricsHandlerMu.Unlock()
}

// LoggerWithTrace adds trace_id and span_id from the active span in ctx.
// The logger is returned unchanged when ctx carries no valid span.
func LoggerWithTrace(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	if ctx == nil {
		return logger
	}
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return logger
	}
	return logger.With(
		slog.String("trace_id", sc.TraceID().String()),
		slog.String("span_id", sc.SpanID().String()),
	)
}

func (c Config) writer() io.Writer {
	if c.Writer != nil {
		return c.Writer
	}
	return os.Stderr
}

func getEnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

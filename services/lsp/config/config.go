// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads host configuration for the lspclient command:
// which server to run, how to reach it, connection policy, the workspace
// watcher, telemetry and logging.
//
// Priority is env > file > defaults.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/lspconn/services/lsp"
)

// Transport kinds.
const (
	TransportStdio     = "stdio"
	TransportWebSocket = "websocket"
)

// Config is the complete host configuration.
//
// Thread Safety: Safe to read concurrently. Not safe to modify after creation.
type Config struct {
	// Server describes the language server to launch.
	Server ServerConfig `json:"server" yaml:"server"`

	// Transport selects how the server is reached.
	Transport TransportConfig `json:"transport" yaml:"transport"`

	// Connection holds typed connection policy.
	Connection ConnectionConfig `json:"connection" yaml:"connection"`

	// Watcher configures workspace file watching.
	Watcher WatcherConfig `json:"watcher" yaml:"watcher"`

	// Telemetry configures trace and metric exporters.
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry"`

	// Logging configures the process logger.
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// DebugAddr is the listen address of the debug HTTP server. Empty disables it.
	DebugAddr string `json:"debug_addr" yaml:"debug_addr" validate:"omitempty,hostname_port"`
}

// ServerConfig describes the language server.
type ServerConfig struct {
	Language              string         `json:"language" yaml:"language" validate:"required"`
	Command               string         `json:"command" yaml:"command"`
	Args                  []string       `json:"args" yaml:"args"`
	Env                   []string       `json:"env" yaml:"env" validate:"dive,contains=="`
	RootPath              string         `json:"root_path" yaml:"root_path" validate:"required"`
	InitializationOptions map[string]any `json:"initialization_options" yaml:"initialization_options"`
}

// TransportConfig selects stdio (spawned process) or a WebSocket endpoint.
type TransportConfig struct {
	Kind string `json:"kind" yaml:"kind" validate:"oneof=stdio websocket"`
	URL  string `json:"url" yaml:"url" validate:"required_if=Kind websocket,omitempty,url"`
}

// ConnectionConfig holds lsp.Connection options.
type ConnectionConfig struct {
	EventBuffer            int      `json:"event_buffer" yaml:"event_buffer" validate:"gte=0,lte=65536"`
	EscalatedNotifications []string `json:"escalated_notifications" yaml:"escalated_notifications" validate:"dive,lspnotification"`
	PublishDecodeFailures  bool     `json:"publish_decode_failures" yaml:"publish_decode_failures"`
	CancelOnContextDone    bool     `json:"cancel_on_context_done" yaml:"cancel_on_context_done"`
}

// WatcherConfig configures the workspace watcher.
type WatcherConfig struct {
	Enabled    bool          `json:"enabled" yaml:"enabled"`
	Debounce   time.Duration `json:"debounce" yaml:"debounce" validate:"gte=0"`
	Extensions []string      `json:"extensions" yaml:"extensions" validate:"dive,startswith=."`
	Ignore     []string      `json:"ignore" yaml:"ignore"`
}

// TelemetryConfig configures exporters.
type TelemetryConfig struct {
	ServiceName     string `json:"service_name" yaml:"service_name" validate:"required"`
	TraceExporter   string `json:"trace_exporter" yaml:"trace_exporter" validate:"oneof=none stdout otlp"`
	OTLPEndpoint    string `json:"otlp_endpoint" yaml:"otlp_endpoint" validate:"required_if=TraceExporter otlp"`
	MetricsExporter string `json:"metrics_exporter" yaml:"metrics_exporter" validate:"oneof=none prometheus stdout"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `json:"format" yaml:"format" validate:"oneof=auto text json"`

	// File, when set, also receives JSON logs. A leading ~ is expanded.
	File string `json:"file" yaml:"file"`
}

// Default returns the default configuration. The server command is left
// empty; it must come from the file, the environment or flags.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Language: "go",
			RootPath: ".",
		},
		Transport: TransportConfig{Kind: TransportStdio},
		Connection: ConnectionConfig{
			EventBuffer:         lsp.DefaultEventBuffer,
			CancelOnContextDone: true,
		},
		Watcher: WatcherConfig{
			Enabled:  true,
			Debounce: 100 * time.Millisecond,
			Ignore:   []string{".git", "node_modules", ".build", "__pycache__"},
		},
		Telemetry: TelemetryConfig{
			ServiceName:     "lspconn",
			TraceExporter:   "none",
			OTLPEndpoint:    "localhost:4317",
			MetricsExporter: "prometheus",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load loads configuration with priority env > file > defaults and
// validates the result.
//
// Inputs:
//   - path: Path to a YAML or JSON file. Empty or missing uses defaults.
//
// Outputs:
//   - Config: Merged configuration.
//   - error: Non-nil if the file is invalid or validation fails.
func Load(path string) (Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Read merges defaults, the file at path and the environment without
// validating, for callers that apply further overrides first.
func Read(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return fmt.Errorf("parse config (tried YAML and JSON): YAML error: %v, JSON error: %w", err, jsonErr)
		}
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("LSPCONN_LANGUAGE"); v != "" {
		cfg.Server.Language = v
	}
	if v := os.Getenv("LSPCONN_SERVER_COMMAND"); v != "" {
		cfg.Server.Command = v
	}
	if v := os.Getenv("LSPCONN_SERVER_ARGS"); v != "" {
		cfg.Server.Args = strings.Fields(v)
	}
	if v := os.Getenv("LSPCONN_ROOT"); v != "" {
		cfg.Server.RootPath = v
	}

	if v := os.Getenv("LSPCONN_TRANSPORT"); v != "" {
		cfg.Transport.Kind = v
	}
	if v := os.Getenv("LSPCONN_WEBSOCKET_URL"); v != "" {
		cfg.Transport.URL = v
	}

	if v := os.Getenv("LSPCONN_EVENT_BUFFER"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Connection.EventBuffer = i
		}
	}
	if v := os.Getenv("LSPCONN_ESCALATE"); v != "" {
		cfg.Connection.EscalatedNotifications = strings.Split(v, ",")
	}

	if v := os.Getenv("LSPCONN_WATCH"); v != "" {
		cfg.Watcher.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("LSPCONN_WATCH_DEBOUNCE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Watcher.Debounce = d
		}
	}

	if v := os.Getenv("LSPCONN_TRACE_EXPORTER"); v != "" {
		cfg.Telemetry.TraceExporter = v
	}
	if v := os.Getenv("LSPCONN_OTLP_ENDPOINT"); v != "" {
		cfg.Telemetry.OTLPEndpoint = v
	}
	if v := os.Getenv("LSPCONN_METRICS_EXPORTER"); v != "" {
		cfg.Telemetry.MetricsExporter = v
	}

	if v := os.Getenv("LSPCONN_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LSPCONN_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("LSPCONN_LOG_FILE"); v != "" {
		cfg.Logging.File = v
	}
	if v := os.Getenv("LSPCONN_DEBUG_ADDR"); v != "" {
		cfg.DebugAddr = v
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	_ = validate.RegisterValidation("lspnotification", validateNotificationMethod)
	validate.RegisterStructValidation(validateTransport, Config{})
}

// validateNotificationMethod accepts only notifications the connection decodes.
func validateNotificationMethod(fl validator.FieldLevel) bool {
	method := fl.Field().String()
	for _, info := range lsp.ServerNotificationMethods() {
		if info.Method == method {
			return true
		}
	}
	return false
}

// validateTransport requires a command when the server is spawned.
func validateTransport(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(Config)
	if cfg.Transport.Kind == TransportStdio && cfg.Server.Command == "" {
		sl.ReportError(cfg.Server.Command, "Server.Command", "Command", "required_for_stdio", "")
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ConnectionOptions converts the connection settings to lsp options.
func (c ConnectionConfig) ConnectionOptions() []lsp.Option {
	opts := []lsp.Option{
		lsp.WithEventBuffer(c.EventBuffer),
		lsp.WithCancelOnContextDone(c.CancelOnContextDone),
	}
	if len(c.EscalatedNotifications) > 0 {
		opts = append(opts, lsp.WithEscalatedNotifications(c.EscalatedNotifications...))
	}
	if c.PublishDecodeFailures {
		opts = append(opts, lsp.WithDecodeFailurePolicy(lsp.PublishDecodeFailures))
	}
	return opts
}

// InitializationOptionsJSON encodes the server's initialization options,
// nil when none are configured.
func (s ServerConfig) InitializationOptionsJSON() (json.RawMessage, error) {
	if len(s.InitializationOptions) == 0 {
		return nil, nil
	}
	return json.Marshal(s.InitializationOptions)
}

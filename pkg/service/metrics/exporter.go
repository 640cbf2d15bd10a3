// SPDX-FileCopyrightText: 2026 The pathwatch authors
//
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"context"
	"crypto/tls"
	"fmt"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc/credentials"
)

// Exporter selects how traces leave the process.
type Exporter string

const (
	// STDOUT writes traces to standard output.
	STDOUT Exporter = "stdout"
	// GRPC exports traces to an otlp collector over grpc.
	GRPC Exporter = "grpc"
	// HTTP exports traces to an otlp collector over http.
	HTTP Exporter = "http"
	// NOOP discards all traces.
	NOOP Exporter = "noop"
)

func (e Exporter) String() string {
	return string(e)
}

// Validate checks that the exporter is one of the supported kinds.
func (e Exporter) Validate() error {
	switch e {
	case STDOUT, GRPC, HTTP, NOOP, "":
		return nil
	default:
		return fmt.Errorf("unsupported exporter %q", string(e))
	}
}

// IsExporting reports whether the exporter ships traces to a collector.
func (e Exporter) IsExporting() bool {
	return e == GRPC || e == HTTP
}

// Create builds the span exporter for the given configuration.
func (e Exporter) Create(ctx context.Context, cfg *Config) (sdktrace.SpanExporter, error) {
	switch e {
	case STDOUT:
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case GRPC:
		return newGRPCExporter(ctx, cfg)
	case HTTP:
		return newHTTPExporter(ctx, cfg)
	case NOOP, "":
		return noopExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported exporter %q", string(e))
	}
}

func newGRPCExporter(ctx context.Context, cfg *Config) (sdktrace.SpanExporter, error) {
	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Url),
		otlptracegrpc.WithHeaders(cfg.authHeaders()),
	}

	if cfg.TLS.Enabled {
		creds, err := grpcCredentials(cfg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, otlptracegrpc.WithTLSCredentials(creds))
	} else {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	return otlptracegrpc.New(ctx, opts...)
}

func newHTTPExporter(ctx context.Context, cfg *Config) (sdktrace.SpanExporter, error) {
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(cfg.Url),
		otlptracehttp.WithHeaders(cfg.authHeaders()),
	}

	if !cfg.TLS.Enabled {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return otlptracehttp.New(ctx, opts...)
}

func grpcCredentials(cfg *Config) (credentials.TransportCredentials, error) {
	if cfg.TLS.CertPath == "" {
		return credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12}), nil
	}

	creds, err := credentials.NewClientTLSFromFile(cfg.TLS.CertPath, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load tls certificate from %q: %w", cfg.TLS.CertPath, err)
	}
	return creds, nil
}

func (c *Config) authHeaders() map[string]string {
	if c.Token == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + c.Token}
}

var _ sdktrace.SpanExporter = (*noopExporter)(nil)

// noopExporter drops every span. Used when telemetry is configured off.
type noopExporter struct{}

func (noopExporter) ExportSpans(_ context.Context, _ []sdktrace.ReadOnlySpan) error { return nil }
func (noopExporter) Shutdown(_ context.Context) error                               { return nil }

// Package observability configures the process-wide logging pipeline.
//
// Logs always go to stderr: stdout carries the MCP protocol stream and
// must stay clean.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const loggerName = "fyers-mcp-server"

var loggerProvider *sdklog.LoggerProvider

// Instrument installs the default slog logger for the given level and
// format. Format "text" uses a plain slog handler; "json" and "otlp" run
// records through the OpenTelemetry log SDK, exporting to stderr or to an
// OTLP collector respectively.
func Instrument(level slog.Level, format string) error {
	switch format {
	case "text":
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return nil
	case "json", "otlp":
		processor, err := newProcessor(context.Background(), format)
		if err != nil {
			return fmt.Errorf("creating log exporter: %w", err)
		}
		loggerProvider = sdklog.NewLoggerProvider(
			sdklog.WithProcessor(minsev.NewLogProcessor(processor, severity(level))),
		)
		slog.SetDefault(otelslog.NewLogger(loggerName, otelslog.WithLoggerProvider(loggerProvider)))
		return nil
	default:
		return fmt.Errorf("unsupported log format: %q", format)
	}
}

// Shutdown flushes buffered log records. A no-op for the text format.
func Shutdown(ctx context.Context) error {
	if loggerProvider == nil {
		return nil
	}
	return loggerProvider.Shutdown(ctx)
}

func newProcessor(ctx context.Context, format string) (sdklog.Processor, error) {
	if format == "json" {
		exporter, err := stdoutlog.New(stdoutlog.WithWriter(os.Stderr))
		if err != nil {
			return nil, err
		}
		return sdklog.NewSimpleProcessor(exporter), nil
	}

	// OTLP transport selection follows the standard SDK environment knob.
	if strings.EqualFold(os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL"), "grpc") {
		exporter, err := otlploggrpc.New(ctx)
		if err != nil {
			return nil, err
		}
		return sdklog.NewBatchProcessor(exporter), nil
	}
	exporter, err := otlploghttp.New(ctx)
	if err != nil {
		return nil, err
	}
	return sdklog.NewBatchProcessor(exporter), nil
}

func severity(level slog.Level) minsev.Severity {
	switch {
	case level <= slog.LevelDebug:
		return minsev.SeverityDebug
	case level <= slog.LevelInfo:
		return minsev.SeverityInfo
	case level <= slog.LevelWarn:
		return minsev.SeverityWarn
	default:
		return minsev.SeverityError
	}
}

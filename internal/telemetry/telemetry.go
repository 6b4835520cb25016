package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"lipsync/internal/config"
	"lipsync/internal/logging"
)

// ServiceName is reported as service.name on every span.
const ServiceName = "lipsync"

// TraceFile is the span output file name inside the log directory.
const TraceFile = "traces.jsonl"

// Shutdown flushes pending spans and releases the exporter.
type Shutdown func(context.Context) error

// Setup installs the global tracer provider described by cfg. The returned
// Shutdown is always non-nil.
func Setup(ctx context.Context, cfg *config.Config, version string, logger *slog.Logger) (Shutdown, error) {
	noop := func(context.Context) error { return nil }
	if cfg == nil || !cfg.Telemetry.Trace {
		return noop, nil
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
		return noop, fmt.Errorf("create trace directory: %w", err)
	}
	path := filepath.Join(cfg.Paths.LogDir, TraceFile)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return noop, fmt.Errorf("open trace file: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", ServiceName),
			attribute.String("service.version", version),
		),
	)
	if err != nil {
		_ = file.Close()
		return noop, err
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(file))
	if err != nil {
		_ = file.Close()
		return noop, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	logger.Debug("telemetry initialized",
		logging.String("exporter", "stdout"),
		logging.String("path", path),
	)

	return func(ctx context.Context) error {
		var errs []error
		if err := tp.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
		if err := file.Close(); err != nil {
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	}, nil
}

// Tracer returns the named tracer from the global provider.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

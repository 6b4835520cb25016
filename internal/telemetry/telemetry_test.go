package telemetry

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"

	"lipsync/internal/logging"
	"lipsync/internal/testsupport"
)

func TestSetupDisabledIsNoop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	shutdown, err := Setup(context.Background(), cfg, "test", logging.NewNop())
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.LogDir, TraceFile)); !os.IsNotExist(err) {
		t.Fatalf("expected no trace file, got %v", err)
	}
}

func TestSetupWritesSpans(t *testing.T) {
	previous := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	cfg := testsupport.NewConfig(t)
	cfg.Telemetry.Trace = true
	shutdown, err := Setup(context.Background(), cfg, "test", logging.NewNop())
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	_, span := Tracer("lipsync/test").Start(context.Background(), "workflow.generate")
	span.End()

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, TraceFile))
	if err != nil {
		t.Fatalf("read trace file: %v", err)
	}
	if !strings.Contains(string(data), "workflow.generate") {
		t.Fatalf("expected span name in trace output, got %q", data)
	}
}

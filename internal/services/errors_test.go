package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"lipsync/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "align", "mfa", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"align", "mfa", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestExitCodeMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, services.ExitOK},
		{"validation", services.Wrap(services.ErrValidation, "compile", "intervals", "empty", nil), services.ExitUsage},
		{"config", fmt.Errorf("load: %w", services.ErrConfiguration), services.ExitUsage},
		{"not found", services.Wrap(services.ErrNotFound, "pose", "load", "missing", nil), services.ExitUsage},
		{"tool", services.Wrap(services.ErrExternalTool, "align", "run", "exit 1", nil), services.ExitRuntime},
		{"plain", errors.New("io"), services.ExitRuntime},
	}
	for _, tc := range cases {
		if got := services.ExitCode(tc.err); got != tc.want {
			t.Fatalf("%s: expected exit %d, got %d", tc.name, tc.want, got)
		}
	}
}

func TestHintCoversMarkers(t *testing.T) {
	if services.Hint(nil) != "" {
		t.Fatal("expected empty hint for nil")
	}
	if !strings.Contains(services.Hint(services.ErrExternalTool), "doctor") {
		t.Fatal("expected doctor hint for tool errors")
	}
}

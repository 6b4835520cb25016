package workflow_test

import (
	"errors"
	"path/filepath"
	"testing"

	"lipsync/internal/services"
	"lipsync/internal/workflow"
)

func TestNewSessionRequiresInputs(t *testing.T) {
	e := setup(t, "")

	_, err := workflow.NewSession(e.cfg, e.profile, filepath.Join(t.TempDir(), "nope.wav"), e.transcript)
	if !errors.Is(err, workflow.ErrMissingInput) || !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected missing input, got %v", err)
	}
	if services.ExitCode(err) != services.ExitUsage {
		t.Fatalf("expected usage exit code, got %d", services.ExitCode(err))
	}

	if _, err := workflow.NewSession(e.cfg, e.profile, e.audio, ""); !errors.Is(err, workflow.ErrMissingInput) {
		t.Fatalf("expected missing transcript, got %v", err)
	}
}

func TestNewSessionRejectsUnknownEncoding(t *testing.T) {
	e := setup(t, "")
	_, err := workflow.NewSession(e.cfg, e.profile, e.audio, e.transcript, workflow.WithEncoding("latin-9"))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSessionAccessors(t *testing.T) {
	e := setup(t, "")
	s, err := workflow.NewSession(e.cfg, e.profile, e.audio, e.transcript, workflow.WithEncoding("Big5"))
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if s.RunID() == "" {
		t.Fatal("expected generated run id")
	}
	if s.BaseName() != "line" || s.Encoding() != "big5" || s.Profile().Name != "english" {
		t.Fatalf("unexpected session %q %q %q", s.BaseName(), s.Encoding(), s.Profile().Name)
	}
	other, _ := workflow.NewSession(e.cfg, e.profile, e.audio, e.transcript)
	if other.RunID() == s.RunID() {
		t.Fatal("run ids must be unique")
	}
}

package mfa_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"lipsync/internal/language"
	"lipsync/internal/services"
	"lipsync/internal/services/mfa"
)

// scriptSpec installs body as an executable v1 aligner under a temp root.
func scriptSpec(t *testing.T, body string) language.AlignerSpec {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell aligner scripts need a POSIX shell")
	}
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "fake_align"), []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write aligner script: %v", err)
	}
	return language.AlignerSpec{
		Dialect: language.DialectV1,
		Root:    root,
		Command: "fake_align",
		Lexicon: filepath.Join(root, "lexicon.txt"),
		Model:   filepath.Join(root, "model.zip"),
	}
}

func TestCommandExecutorRunsAlignerAndStreamsBothStreams(t *testing.T) {
	spec := scriptSpec(t, `echo "Setting up corpus"
echo "Aligning" >&2
mkdir -p "$4"
printf 'File type = "ooTextFile"\n' > "$4/line.TextGrid"
`)
	client, err := mfa.New(spec, 10)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tmp := t.TempDir()
	var lines []string
	path, err := client.Align(context.Background(), filepath.Join(tmp, "in"), filepath.Join(tmp, "out"), func(ev mfa.ProgressEvent) {
		lines = append(lines, ev.Line)
	})
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	if filepath.Base(path) != "line.TextGrid" {
		t.Fatalf("unexpected path %q", path)
	}
	if len(lines) != 3 || lines[2] != "alignment complete" {
		t.Fatalf("expected two output lines plus completion, got %q", lines)
	}
}

func TestCommandExecutorTimeoutKillsWorkerProcesses(t *testing.T) {
	// The sleeping child keeps the output pipes open; only a group kill
	// lets Align return near the deadline.
	spec := scriptSpec(t, `echo "Setting up corpus"
echo "Aligning" >&2
sleep 30
`)
	client, err := mfa.New(spec, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tmp := t.TempDir()
	start := time.Now()
	_, err = client.Align(context.Background(), filepath.Join(tmp, "in"), filepath.Join(tmp, "out"), nil)
	elapsed := time.Since(start)
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if elapsed > 4*time.Second {
		t.Fatalf("Align returned %s after start, want shortly after the 1s deadline", elapsed)
	}
}

func TestCommandExecutorCancelStopsAligner(t *testing.T) {
	spec := scriptSpec(t, `echo "Setting up corpus"
sleep 30 &
wait
`)
	client, err := mfa.New(spec, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tmp := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	start := time.Now()
	_, err = client.Align(ctx, filepath.Join(tmp, "in"), filepath.Join(tmp, "out"), func(mfa.ProgressEvent) {
		cancel()
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 4*time.Second {
		t.Fatalf("Align returned %s after cancel, want prompt return", elapsed)
	}
}

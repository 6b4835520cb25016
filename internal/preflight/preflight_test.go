package preflight

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"lipsync/internal/language"
	"lipsync/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil, language.Profile{}); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_FailsWithoutAligner(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	profile := language.Profile{
		Name: "english",
		Aligner: language.AlignerSpec{
			Dialect: language.DialectV1,
			Command: filepath.Join(t.TempDir(), "mfa_align"),
		},
	}

	results := RunAll(context.Background(), cfg, profile)
	if err := Failures(results); err == nil {
		t.Fatal("expected missing aligner to fail preflight")
	}
}

func TestRunAll_PassesWithStubbedAligner(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithAligner("english", "mfa_align", "v1"))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	cat, err := language.Builtin()
	if err != nil {
		t.Fatalf("Builtin: %v", err)
	}
	profile, err := cat.Lookup("english")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	profile, err = language.Configure(profile, cfg)
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}

	results := RunAll(context.Background(), cfg, profile)
	if err := Failures(results); err != nil {
		t.Fatalf("expected preflight to pass, got %v", err)
	}
}

func TestCheckAudioWithoutFFprobePasses(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Aligner.FFprobeBinary = filepath.Join(t.TempDir(), "missing-ffprobe")

	result := CheckAudio(context.Background(), cfg, "clip.wav")
	if !result.Passed {
		t.Fatalf("expected advisory pass, got %q", result.Detail)
	}
}

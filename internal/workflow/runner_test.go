package workflow_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/text/encoding/simplifiedchinese"

	"lipsync/internal/config"
	"lipsync/internal/language"
	"lipsync/internal/pose"
	"lipsync/internal/rig"
	"lipsync/internal/scene"
	"lipsync/internal/services"
	"lipsync/internal/services/mfa"
	"lipsync/internal/testsupport"
	"lipsync/internal/textgrid"
	"lipsync/internal/timeline"
	"lipsync/internal/workflow"
)

type stubAligner struct {
	grid     string
	err      error
	inputDir string
	staged   map[string][]byte
}

func (s *stubAligner) Align(_ context.Context, inputDir, outputDir string, progress func(mfa.ProgressEvent)) (string, error) {
	s.inputDir = inputDir
	s.staged = map[string][]byte{}
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		data, err := os.ReadFile(filepath.Join(inputDir, e.Name()))
		if err != nil {
			return "", err
		}
		s.staged[e.Name()] = data
	}
	if progress != nil {
		progress(mfa.ProgressEvent{Line: "Aligning", Count: 1, Percent: 50})
	}
	if s.err != nil {
		return "", s.err
	}
	path := filepath.Join(outputDir, "input", "line.TextGrid")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(s.grid), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

type env struct {
	cfg        *config.Config
	profile    language.Profile
	audio      string
	transcript string
}

func setup(t *testing.T, skipPose string) env {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	sc, err := scene.Open(context.Background(), cfg.Paths.SceneDB)
	if err != nil {
		t.Fatalf("open scene: %v", err)
	}
	if err := sc.Define(context.Background(), "jaw_ctrl", rig.AttributeDef{Name: "rotateX", Keyable: true}); err != nil {
		t.Fatalf("define: %v", err)
	}
	if err := sc.Close(); err != nil {
		t.Fatalf("close scene: %v", err)
	}

	for category, value := range map[string]float64{"rest": 0, "AI": 20, "MBP": 2} {
		if category == skipPose {
			continue
		}
		snap := pose.Snapshot{Controls: []pose.Control{{Name: "jaw_ctrl", Attributes: []pose.Attribute{{Name: "rotateX", Value: value}}}}}
		if err := pose.Save(filepath.Join(cfg.Paths.PoseDir, category+".json"), snap); err != nil {
			t.Fatalf("save pose: %v", err)
		}
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

	base := testsupport.BaseDir(cfg)
	audio := filepath.Join(base, "in", "line.wav")
	transcript := filepath.Join(base, "in", "line-script.txt")
	testsupport.WriteSizedFile(t, audio, 4096)
	testsupport.WriteFile(t, transcript, []byte("am\n"))
	return env{cfg: cfg, profile: profile, audio: audio, transcript: transcript}
}

func newSession(t *testing.T, e env, opts ...workflow.SessionOption) workflow.Session {
	t.Helper()
	s, err := workflow.NewSession(e.cfg, e.profile, e.audio, e.transcript, opts...)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

func runner(aligner workflow.Aligner, opts ...workflow.Option) *workflow.Runner {
	opts = append([]workflow.Option{
		workflow.WithPreflight(false),
		workflow.WithAlignerFactory(func(language.AlignerSpec, int) (workflow.Aligner, error) { return aligner, nil }),
	}, opts...)
	return workflow.NewRunner(nil, opts...)
}

func TestGenerateCompilesAlignment(t *testing.T) {
	e := setup(t, "")
	aligner := &stubAligner{grid: testsupport.ShortTextGrid}
	var events int
	r := runner(aligner, workflow.WithProgress(func(mfa.ProgressEvent) { events++ }))

	report, err := r.Generate(context.Background(), newSession(t, e))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if report.Intervals != 3 || report.Keys() != 6 {
		t.Fatalf("unexpected report %+v", report)
	}
	if len(report.Result.Skipped()) != 0 {
		t.Fatalf("expected no skips, got %v", report.Result.Skipped())
	}
	if report.Encoding != "utf-8" {
		t.Fatalf("expected utf-8 transcript, got %q", report.Encoding)
	}
	if events != 1 {
		t.Fatalf("expected progress forwarded, got %d events", events)
	}

	// Transcript is staged under the audio's base name.
	if string(aligner.staged["line.txt"]) != "am\n" {
		t.Fatalf("unexpected staged files %v", keys(aligner.staged))
	}
	if len(aligner.staged["line.wav"]) != 4096 {
		t.Fatal("expected audio staged")
	}

	// Staging is removed afterwards.
	if _, err := os.Stat(filepath.Dir(aligner.inputDir)); !os.IsNotExist(err) {
		t.Fatalf("expected workspace removed, got %v", err)
	}

	sc, err := scene.Open(context.Background(), e.cfg.Paths.SceneDB)
	if err != nil {
		t.Fatalf("reopen scene: %v", err)
	}
	defer sc.Close()
	keysSet, err := sc.Keyframes(context.Background())
	if err != nil {
		t.Fatalf("Keyframes: %v", err)
	}
	if len(keysSet) != 4 {
		t.Fatalf("expected 4 distinct keys (shared boundaries collapse), got %d", len(keysSet))
	}
	track, ok, err := sc.Soundtrack(context.Background())
	if err != nil || !ok || track != e.audio {
		t.Fatalf("expected soundtrack %q, got %q ok=%v err=%v", e.audio, track, ok, err)
	}
}

func TestGenerateSkipsMissingPose(t *testing.T) {
	e := setup(t, "MBP")
	report, err := runner(&stubAligner{grid: testsupport.ShortTextGrid}).Generate(context.Background(), newSession(t, e))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	skipped := report.Result.Skipped()
	if len(skipped) != 1 || skipped[0].Interval.Label != "M" || skipped[0].Reason != timeline.ReasonNotConfigured {
		t.Fatalf("unexpected skips %+v", skipped)
	}
	if len(report.Result.Applied()) != 2 {
		t.Fatalf("expected 2 applied intervals")
	}
}

func TestGenerateCleansUpOnAlignerFailure(t *testing.T) {
	e := setup(t, "")
	aligner := &stubAligner{err: services.Wrap(services.ErrExternalTool, "align", "run", "boom", nil)}

	_, err := runner(aligner).Generate(context.Background(), newSession(t, e))
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	entries, readErr := os.ReadDir(e.cfg.Paths.StagingDir)
	if readErr != nil {
		t.Fatalf("read staging: %v", readErr)
	}
	if len(entries) != 0 {
		t.Fatalf("expected staging emptied, found %d entries", len(entries))
	}
}

func TestGenerateRejectsUnparsableAlignment(t *testing.T) {
	e := setup(t, "")
	_, err := runner(&stubAligner{grid: "garbage"}).Generate(context.Background(), newSession(t, e))
	if !errors.Is(err, textgrid.ErrParse) {
		t.Fatalf("expected textgrid.ErrParse, got %v", err)
	}
}

func TestGenerateDecodesLegacyTranscript(t *testing.T) {
	e := setup(t, "")
	encoded, err := simplifiedchinese.GB18030.NewEncoder().String("你好世界\n")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	testsupport.WriteFile(t, e.transcript, []byte(encoded))

	aligner := &stubAligner{grid: testsupport.ShortTextGrid}
	report, err := runner(aligner).Generate(context.Background(), newSession(t, e))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if report.Encoding != "gb18030" {
		t.Fatalf("expected gb18030, got %q", report.Encoding)
	}
	if string(aligner.staged["line.txt"]) != "你好世界\n" {
		t.Fatalf("expected UTF-8 transcript, got %q", aligner.staged["line.txt"])
	}
}

func TestGenerateKeepsTextGridCopy(t *testing.T) {
	e := setup(t, "")
	keep := filepath.Join(testsupport.BaseDir(e.cfg), "line.TextGrid")
	report, err := runner(&stubAligner{grid: testsupport.ShortTextGrid}).Generate(context.Background(), newSession(t, e, workflow.WithTextGridCopy(keep)))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if report.TextGrid != keep {
		t.Fatalf("expected kept textgrid path, got %q", report.TextGrid)
	}

	again, err := workflow.NewRunner(nil).CompileTextGrid(context.Background(), e.cfg, e.profile, keep)
	if err != nil {
		t.Fatalf("CompileTextGrid: %v", err)
	}
	if again.Keys() != report.Keys() {
		t.Fatalf("recompile produced %d keys, want %d", again.Keys(), report.Keys())
	}
}

func TestGenerateFailsPreflightWithoutAligner(t *testing.T) {
	e := setup(t, "")
	e.profile.Aligner.Root = filepath.Join(testsupport.BaseDir(e.cfg), "missing")
	r := workflow.NewRunner(nil, workflow.WithAlignerFactory(func(language.AlignerSpec, int) (workflow.Aligner, error) {
		t.Fatal("aligner must not run when preflight fails")
		return nil, nil
	}))
	_, err := r.Generate(context.Background(), newSession(t, e))
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func keys(m map[string][]byte) []string {
	var out []string
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestReportMentionsRunID(t *testing.T) {
	e := setup(t, "")
	s := newSession(t, e, workflow.WithRunID("fixed-id"))
	report, err := runner(&stubAligner{grid: testsupport.ShortTextGrid}).Generate(context.Background(), s)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.EqualFold(report.RunID, "fixed-id") {
		t.Fatalf("unexpected run id %q", report.RunID)
	}
}

package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lipsync/internal/config"
	"lipsync/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
	gridPath   string
}

// setupCLITestEnv writes a config whose english aligner is a shell script
// that copies a fixed TextGrid into the output directory.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	t.Setenv("LIPSYNC_POSE_DIR", "")
	t.Setenv("LIPSYNC_LANGUAGE", "")

	cfg := testsupport.NewConfig(t,
		testsupport.WithLanguage("english"),
		testsupport.WithAligner("english", "fake_align", "v1"),
	)
	base := testsupport.BaseDir(cfg)
	override := cfg.Languages["english"]

	gridPath := filepath.Join(base, "fixture.TextGrid")
	testsupport.WriteFile(t, gridPath, []byte(testsupport.ShortTextGrid))
	script := fmt.Sprintf("#!/bin/sh\nmkdir -p \"$4\"\ncp %q \"$4/line.TextGrid\"\n", gridPath)
	if err := os.WriteFile(filepath.Join(override.AlignerRoot, "fake_align"), []byte(script), 0o755); err != nil {
		t.Fatalf("write aligner script: %v", err)
	}

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base, gridPath: gridPath}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	var b strings.Builder
	fmt.Fprintf(&b, "[paths]\ndata_dir = %q\nstaging_dir = %q\npose_dir = %q\nscene_db = %q\nlog_dir = %q\n\n",
		cfg.Paths.DataDir, cfg.Paths.StagingDir, cfg.Paths.PoseDir, cfg.Paths.SceneDB, cfg.Paths.LogDir)
	fmt.Fprintf(&b, "[language]\ndefault = %q\n\n[logging]\nlevel = \"error\"\n", cfg.Language.Default)
	for name, o := range cfg.Languages {
		fmt.Fprintf(&b, "\n[languages.%s]\naligner_root = %q\naligner_command = %q\naligner_dialect = %q\nlexicon = %q\nmodel = %q\n",
			name, o.AlignerRoot, o.AlignerCommand, o.AlignerDialect, o.Lexicon, o.Model)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRunCLI(t *testing.T, env *cliTestEnv, args ...string) string {
	t.Helper()
	out, err := runCLI(t, env, args...)
	if err != nil {
		t.Fatalf("lipsync %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected output to contain %q\n%s", substr, output)
	}
}

// defineFace builds a one-control rig and saves rest, AI and MBP poses for it.
func defineFace(t *testing.T, env *cliTestEnv) {
	t.Helper()
	mustRunCLI(t, env, "rig", "define", "jaw_ctrl", "rotateX=0", "visibility=1:static")
	mustRunCLI(t, env, "pose", "save", "rest")
	mustRunCLI(t, env, "rig", "set", "jaw_ctrl.rotateX=20")
	mustRunCLI(t, env, "pose", "save", "AI")
	mustRunCLI(t, env, "rig", "set", "jaw_ctrl.rotateX=2")
	mustRunCLI(t, env, "pose", "save", "MBP")
	mustRunCLI(t, env, "rig", "set", "jaw_ctrl.rotateX=0")
}

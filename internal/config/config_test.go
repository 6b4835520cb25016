package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"lipsync/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("LIPSYNC_POSE_DIR", "")
	t.Setenv("LIPSYNC_LANGUAGE", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantStaging := filepath.Join(tempHome, ".local", "share", "lipsync", "staging")
	if cfg.Paths.StagingDir != wantStaging {
		t.Fatalf("unexpected staging dir: got %q want %q", cfg.Paths.StagingDir, wantStaging)
	}
	if cfg.Paths.PoseDir != filepath.Join(tempHome, ".local", "share", "lipsync", "poses") {
		t.Fatalf("unexpected pose dir: %q", cfg.Paths.PoseDir)
	}
	if cfg.Language.Default != "english" {
		t.Fatalf("unexpected default language: %q", cfg.Language.Default)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if cfg.Aligner.TimeoutSeconds != config.Default().Aligner.TimeoutSeconds {
		t.Fatalf("unexpected aligner timeout: %d", cfg.Aligner.TimeoutSeconds)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StagingDir, cfg.Paths.LogDir, cfg.Paths.PoseDir, filepath.Dir(cfg.Paths.SceneDB)} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPathResolvesOverrides(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "lipsync.toml")
	poseDir := filepath.Join(tempDir, "poses")
	dataDir := filepath.Join(tempDir, "data")

	type override struct {
		AlignerDialect string            `toml:"aligner_dialect"`
		Lexicon        string            `toml:"lexicon"`
		Poses          map[string]string `toml:"poses"`
	}
	type payload struct {
		Paths struct {
			DataDir    string `toml:"data_dir"`
			PoseDir    string `toml:"pose_dir"`
			StagingDir string `toml:"staging_dir"`
		} `toml:"paths"`
		Language struct {
			Default string `toml:"default"`
		} `toml:"language"`
		Languages map[string]override `toml:"languages"`
	}
	custom := payload{}
	custom.Paths.DataDir = dataDir
	custom.Paths.PoseDir = poseDir
	custom.Paths.StagingDir = filepath.Join(tempDir, "staging")
	custom.Language.Default = "  Chinese "
	custom.Languages = map[string]override{
		"English": {
			AlignerDialect: "V1",
			Lexicon:        "lexicon.txt",
			Poses:          map[string]string{"MBP": "closed.json", "AI": "/abs/open.json"},
		},
	}
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("LIPSYNC_POSE_DIR", "")
	t.Setenv("LIPSYNC_LANGUAGE", "")

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom config to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Language.Default != "chinese" {
		t.Fatalf("expected normalized language, got %q", cfg.Language.Default)
	}
	english, ok := cfg.Override("ENGLISH")
	if !ok {
		t.Fatal("expected english override")
	}
	if english.AlignerDialect != "v1" {
		t.Fatalf("expected lower-cased dialect, got %q", english.AlignerDialect)
	}
	if english.Lexicon != filepath.Join(dataDir, "lexicon.txt") {
		t.Fatalf("expected lexicon anchored at data dir, got %q", english.Lexicon)
	}
	if english.Poses["MBP"] != filepath.Join(poseDir, "closed.json") {
		t.Fatalf("expected relative pose anchored at pose dir, got %q", english.Poses["MBP"])
	}
	if english.Poses["AI"] != "/abs/open.json" {
		t.Fatalf("expected absolute pose path untouched, got %q", english.Poses["AI"])
	}
}

func TestLoadRejectsUnknownDialect(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "lipsync.toml")
	content := "[paths]\nstaging_dir = \"" + filepath.ToSlash(filepath.Join(tempDir, "staging")) + "\"\n\n[languages.english]\naligner_dialect = \"v2\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, _, err := config.Load(configPath)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "aligner_dialect") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadRejectsStagingEqualToPoseDir(t *testing.T) {
	tempDir := t.TempDir()
	shared := filepath.ToSlash(filepath.Join(tempDir, "shared"))
	configPath := filepath.Join(tempDir, "lipsync.toml")
	content := "[paths]\nstaging_dir = \"" + shared + "\"\npose_dir = \"" + shared + "\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("LIPSYNC_POSE_DIR", "")
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected error when staging and pose dirs collide")
	}
}

func TestEnvironmentOverridesPoseDirAndLanguage(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	poseDir := filepath.Join(tempHome, "custom-poses")
	t.Setenv("LIPSYNC_POSE_DIR", poseDir)
	t.Setenv("LIPSYNC_LANGUAGE", "Chinese")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.PoseDir != poseDir {
		t.Fatalf("expected env pose dir, got %q", cfg.Paths.PoseDir)
	}
	if cfg.Language.Default != "chinese" {
		t.Fatalf("expected env language, got %q", cfg.Language.Default)
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("LIPSYNC_POSE_DIR", "")
	t.Setenv("LIPSYNC_LANGUAGE", "")
	path := filepath.Join(tempHome, "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Staging.MaxAgeHours != 24 {
		t.Fatalf("unexpected staging retention: %d", cfg.Staging.MaxAgeHours)
	}
}

package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"lipsync/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = base
	cfgVal.Paths.StagingDir = filepath.Join(base, "staging")
	cfgVal.Paths.PoseDir = filepath.Join(base, "poses")
	cfgVal.Paths.SceneDB = filepath.Join(base, "scene.db")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithLanguage sets the default language profile on the test config.
func WithLanguage(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Language.Default = name
	}
}

// WithAligner points the given language at a stub aligner installation rooted
// at <BaseDir>/aligner. The command is a no-op script; lexicon and model are
// placeholder files.
func WithAligner(language, command, dialect string) ConfigOption {
	return func(b *configBuilder) {
		if b.cfg.Languages == nil {
			b.cfg.Languages = map[string]config.LanguageOverride{}
		}
		root := filepath.Join(b.baseDir, "aligner")
		if err := os.MkdirAll(root, 0o755); err != nil {
			b.t.Fatalf("mkdir aligner root: %v", err)
		}
		override := b.cfg.Languages[language]
		override.AlignerRoot = root
		override.AlignerCommand = command
		override.AlignerDialect = dialect
		override.Lexicon = filepath.Join(root, "lexicon.txt")
		override.Model = filepath.Join(root, "model.zip")
		files := map[string]os.FileMode{
			filepath.Join(root, command): 0o755,
			override.Lexicon:             0o644,
			override.Model:               0o644,
		}
		for path, mode := range files {
			if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), mode); err != nil {
				b.t.Fatalf("write aligner stub %s: %v", path, err)
			}
		}
		b.cfg.Languages[language] = override
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return cfg.Paths.DataDir
}

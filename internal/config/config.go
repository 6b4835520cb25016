package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and file locations.
type Paths struct {
	DataDir    string `toml:"data_dir"`
	StagingDir string `toml:"staging_dir"`
	PoseDir    string `toml:"pose_dir"`
	SceneDB    string `toml:"scene_db"`
	LogDir     string `toml:"log_dir"`
}

// Language selects the default language profile and optional extra profile tables.
type Language struct {
	Default    string `toml:"default"`
	ProfileDir string `toml:"profile_dir"`
}

// LanguageOverride replaces parts of a built-in language profile. Empty fields
// keep the profile's own values.
type LanguageOverride struct {
	AlignerRoot    string            `toml:"aligner_root"`
	AlignerCommand string            `toml:"aligner_command"`
	AlignerDialect string            `toml:"aligner_dialect"`
	Lexicon        string            `toml:"lexicon"`
	Model          string            `toml:"model"`
	Poses          map[string]string `toml:"poses"`
}

// AlignerDefaults contains settings shared by every aligner invocation.
type AlignerDefaults struct {
	TimeoutSeconds int    `toml:"timeout_seconds"`
	FFprobeBinary  string `toml:"ffprobe_binary"`
}

// Staging contains configuration for the aligner hand-off workspace.
type Staging struct {
	MaxAgeHours int `toml:"max_age_hours"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Telemetry toggles OpenTelemetry span export.
type Telemetry struct {
	Trace bool `toml:"trace"`
}

// Config encapsulates all configuration values for lipsync.
//
// Configuration sections by subsystem:
//   - Paths: data, staging, pose library, scene database, and log locations
//   - Language: default profile and user profile directory
//   - Languages: per-language aligner and pose binding overrides
//   - Aligner: settings shared by all aligner runs
//   - Staging: stale workspace retention
//   - Logging: log format and level
//   - Telemetry: span export
type Config struct {
	Paths     Paths                       `toml:"paths"`
	Language  Language                    `toml:"language"`
	Languages map[string]LanguageOverride `toml:"languages"`
	Aligner   AlignerDefaults             `toml:"aligner"`
	Staging   Staging                     `toml:"staging"`
	Logging   Logging                     `toml:"logging"`
	Telemetry Telemetry                   `toml:"telemetry"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/lipsync/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("lipsync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories lipsync writes into.
// The pose directory is created on a best-effort basis so commands that only
// read the scene keep working when the pose library lives on offline storage.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.LogDir, filepath.Dir(c.Paths.SceneDB)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.PoseDir) != "" {
		_ = os.MkdirAll(c.Paths.PoseDir, 0o755)
	}
	return nil
}

// FFprobeBinary returns the ffprobe command used to inspect input audio.
func (c *Config) FFprobeBinary() string {
	if c == nil || strings.TrimSpace(c.Aligner.FFprobeBinary) == "" {
		return defaultFFprobeBinary
	}
	return strings.TrimSpace(c.Aligner.FFprobeBinary)
}

// Override returns the per-language override block for the given profile key.
// Keys are matched after lower-casing, mirroring normalize.
func (c *Config) Override(language string) (LanguageOverride, bool) {
	if c == nil || len(c.Languages) == 0 {
		return LanguageOverride{}, false
	}
	override, ok := c.Languages[strings.ToLower(strings.TrimSpace(language))]
	return override, ok
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

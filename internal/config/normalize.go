package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLanguage()
	if err := c.normalizeLanguages(); err != nil {
		return err
	}
	if c.Aligner.TimeoutSeconds < 0 {
		c.Aligner.TimeoutSeconds = 0
	}
	if c.Staging.MaxAgeHours <= 0 {
		c.Staging.MaxAgeHours = defaultStagingMaxHours
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.PoseDir) == "" {
		c.Paths.PoseDir = defaultPoseDir
	}
	if value, ok := os.LookupEnv("LIPSYNC_POSE_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.PoseDir = strings.TrimSpace(value)
	}
	fields := []struct {
		key      string
		value    *string
		fallback string
	}{
		{"paths.data_dir", &c.Paths.DataDir, defaultDataDir},
		{"paths.staging_dir", &c.Paths.StagingDir, defaultStagingDir},
		{"paths.pose_dir", &c.Paths.PoseDir, defaultPoseDir},
		{"paths.scene_db", &c.Paths.SceneDB, defaultSceneDB},
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDir},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.value) == "" {
			*field.value = field.fallback
		}
		if *field.value, err = expandPath(strings.TrimSpace(*field.value)); err != nil {
			return fmt.Errorf("%s: %w", field.key, err)
		}
	}
	return nil
}

func (c *Config) normalizeLanguage() {
	c.Language.Default = strings.ToLower(strings.TrimSpace(c.Language.Default))
	if value, ok := os.LookupEnv("LIPSYNC_LANGUAGE"); ok && strings.TrimSpace(value) != "" {
		c.Language.Default = strings.ToLower(strings.TrimSpace(value))
	}
	if c.Language.Default == "" {
		c.Language.Default = defaultLanguage
	}
	c.Language.ProfileDir = strings.TrimSpace(c.Language.ProfileDir)
	if c.Language.ProfileDir != "" {
		if expanded, err := expandPath(c.Language.ProfileDir); err == nil {
			c.Language.ProfileDir = expanded
		}
	}
}

func (c *Config) normalizeLanguages() error {
	if len(c.Languages) == 0 {
		return nil
	}
	normalized := make(map[string]LanguageOverride, len(c.Languages))
	for name, override := range c.Languages {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		override.AlignerCommand = strings.TrimSpace(override.AlignerCommand)
		override.AlignerDialect = strings.ToLower(strings.TrimSpace(override.AlignerDialect))
		var err error
		if override.AlignerRoot, err = c.resolveDataPath(override.AlignerRoot); err != nil {
			return fmt.Errorf("languages.%s.aligner_root: %w", key, err)
		}
		if override.Lexicon, err = c.resolveDataPath(override.Lexicon); err != nil {
			return fmt.Errorf("languages.%s.lexicon: %w", key, err)
		}
		if override.Model, err = c.resolveDataPath(override.Model); err != nil {
			return fmt.Errorf("languages.%s.model: %w", key, err)
		}
		if len(override.Poses) > 0 {
			poses := make(map[string]string, len(override.Poses))
			for category, ref := range override.Poses {
				category = strings.TrimSpace(category)
				ref = strings.TrimSpace(ref)
				if category == "" {
					continue
				}
				if ref != "" && !filepath.IsAbs(ref) && !strings.HasPrefix(ref, "~") {
					ref = filepath.Join(c.Paths.PoseDir, ref)
				}
				if ref, err = expandPath(ref); err != nil {
					return fmt.Errorf("languages.%s.poses.%s: %w", key, category, err)
				}
				poses[category] = ref
			}
			override.Poses = poses
		}
		normalized[key] = override
	}
	c.Languages = normalized
	return nil
}

// resolveDataPath anchors relative aligner asset paths at the data directory.
func (c *Config) resolveDataPath(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	if !filepath.IsAbs(value) && !strings.HasPrefix(value, "~") {
		value = filepath.Join(c.Paths.DataDir, value)
	}
	return expandPath(value)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

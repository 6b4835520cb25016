package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateLanguages(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Aligner.TimeoutSeconds < 0 {
		return errors.New("aligner.timeout_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		return errors.New("paths.staging_dir must be set")
	}
	if strings.TrimSpace(c.Paths.SceneDB) == "" {
		return errors.New("paths.scene_db must be set")
	}
	if filepath.Clean(c.Paths.StagingDir) == filepath.Clean(c.Paths.PoseDir) {
		return errors.New("paths.staging_dir must differ from paths.pose_dir; staging is wiped on every run")
	}
	return nil
}

func (c *Config) validateLanguages() error {
	if strings.TrimSpace(c.Language.Default) == "" {
		return errors.New("language.default must be set")
	}
	for name, override := range c.Languages {
		switch override.AlignerDialect {
		case "", "v1", "v3":
		default:
			return fmt.Errorf("languages.%s.aligner_dialect must be \"v1\" or \"v3\", got %q", name, override.AlignerDialect)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
}

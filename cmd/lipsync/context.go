package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"lipsync/internal/config"
	"lipsync/internal/language"
	"lipsync/internal/logging"
	"lipsync/internal/scene"
	"lipsync/internal/services"
	"lipsync/internal/telemetry"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "cli", "load config", "", err)
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "cli", "ensure directories", "", err)
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// JSONMode reports whether --json was given.
func (c *commandContext) JSONMode() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = services.Wrap(services.ErrConfiguration, "cli", "create logger", "", err)
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// profile resolves name (or the configured default) and applies config
// overrides and pose bindings.
func (c *commandContext) profile(name string) (language.Profile, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return language.Profile{}, err
	}
	catalogue, err := language.LoadCatalogue(cfg.Language.ProfileDir)
	if err != nil {
		return language.Profile{}, services.Wrap(services.ErrConfiguration, "cli", "load profiles", "", err)
	}
	if strings.TrimSpace(name) == "" {
		name = cfg.Language.Default
	}
	profile, err := catalogue.Lookup(name)
	if err != nil {
		return language.Profile{}, services.Wrap(services.ErrNotFound, "cli", "lookup language", "", err)
	}
	profile, err = language.Configure(profile, cfg)
	if err != nil {
		return language.Profile{}, services.Wrap(services.ErrConfiguration, "cli", "configure language", "", err)
	}
	return profile, nil
}

func (c *commandContext) withScene(ctx context.Context, fn func(*scene.Scene) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	sc, err := scene.Open(ctx, cfg.Paths.SceneDB)
	if err != nil {
		if errors.Is(err, scene.ErrSceneLocked) {
			return services.Wrap(services.ErrValidation, "cli", "open scene", "another lipsync process holds the scene", err)
		}
		return fmt.Errorf("open scene: %w", err)
	}
	defer sc.Close()
	return fn(sc)
}

// withTelemetry installs the trace exporter for the duration of fn.
func (c *commandContext) withTelemetry(cmd *cobra.Command, fn func(*slog.Logger) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}
	shutdown, err := telemetry.Setup(cmd.Context(), cfg, version, logger)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "cli", "setup telemetry", "", err)
	}
	defer func() {
		if err := shutdown(context.WithoutCancel(cmd.Context())); err != nil {
			logging.WarnWithContext(logger, "trace flush failed", "telemetry_shutdown_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "some spans may be missing"),
			)
		}
	}()
	return fn(logger)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

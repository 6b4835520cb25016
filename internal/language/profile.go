package language

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"lipsync/internal/config"
	"lipsync/internal/viseme"
)

// Dialect selects the aligner command-line layout.
type Dialect string

const (
	// DialectV1 runs <root>/<command> in lexicon model out (MFA 1.x).
	DialectV1 Dialect = "v1"
	// DialectV3 runs <root>/<command> -m montreal_forced_aligner.command_line.mfa align ... (MFA 3.x).
	DialectV3 Dialect = "v3"
)

// AlignerSpec describes how to invoke the forced aligner for a language.
type AlignerSpec struct {
	Dialect Dialect
	Version string
	Root    string
	Command string
	Lexicon string
	Model   string
}

// Binary returns the absolute aligner executable path.
func (a AlignerSpec) Binary() string {
	if a.Command == "" {
		return ""
	}
	if filepath.IsAbs(a.Command) || a.Root == "" {
		return a.Command
	}
	return filepath.Join(a.Root, a.Command)
}

// Profile is one selectable language.
type Profile struct {
	Name       string
	Display    string
	Code       string
	Classifier viseme.Classifier
	Registry   viseme.Registry
	Aligner    AlignerSpec
}

// WithRegistry returns a copy of the profile using registry.
func (p Profile) WithRegistry(registry viseme.Registry) Profile {
	p.Registry = registry
	return p
}

// Configure applies config overrides for the profile and returns the
// resulting profile. Relative built-in aligner paths are anchored at the data
// dir, explicit pose bindings are applied, then remaining categories are
// auto-bound from the pose dir.
func Configure(p Profile, cfg *config.Config) (Profile, error) {
	if cfg == nil {
		return p, nil
	}
	spec := p.Aligner
	spec.Root = anchor(cfg.Paths.DataDir, spec.Root)
	spec.Lexicon = anchor(cfg.Paths.DataDir, spec.Lexicon)
	spec.Model = anchor(cfg.Paths.DataDir, spec.Model)

	registry := p.Registry
	if override, ok := cfg.Override(p.Name); ok {
		if override.AlignerRoot != "" {
			spec.Root = override.AlignerRoot
		}
		if override.AlignerCommand != "" {
			spec.Command = override.AlignerCommand
		}
		if override.AlignerDialect != "" {
			spec.Dialect = Dialect(override.AlignerDialect)
		}
		if override.Lexicon != "" {
			spec.Lexicon = override.Lexicon
		}
		if override.Model != "" {
			spec.Model = override.Model
		}
		categories := make([]string, 0, len(override.Poses))
		for category := range override.Poses {
			categories = append(categories, category)
		}
		sort.Strings(categories)
		for _, category := range categories {
			var err error
			registry, err = registry.Bind(viseme.Category(category), viseme.PoseRef(override.Poses[category]))
			if err != nil {
				return p, fmt.Errorf("languages.%s.poses: %w", p.Name, err)
			}
		}
	}
	registry = registry.AutoBind(cfg.Paths.PoseDir)

	p.Aligner = spec
	p.Registry = registry
	return p, nil
}

func anchor(base, value string) string {
	value = strings.TrimSpace(value)
	if value == "" || filepath.IsAbs(value) || base == "" {
		return value
	}
	if strings.HasPrefix(value, "~") {
		if expanded, err := config.ExpandPath(value); err == nil {
			return expanded
		}
		return value
	}
	return filepath.Join(base, value)
}

// AlignerInstalled reports whether the aligner binary, lexicon and model exist.
func (p Profile) AlignerInstalled() []string {
	var missing []string
	for _, path := range []string{p.Aligner.Binary(), p.Aligner.Lexicon, p.Aligner.Model} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			missing = append(missing, path)
		}
	}
	return missing
}

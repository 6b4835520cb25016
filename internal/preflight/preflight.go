package preflight

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"lipsync/internal/config"
	"lipsync/internal/language"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes the checks a generate run depends on for profile.
func RunAll(ctx context.Context, cfg *config.Config, profile language.Profile) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir))
	results = append(results, CheckDirectoryAccess("Scene directory", filepath.Dir(cfg.Paths.SceneDB)))
	if cfg.Paths.PoseDir != "" {
		results = append(results, CheckDirectoryAccess("Pose directory", cfg.Paths.PoseDir))
	}

	for _, status := range CheckSystemDeps(cfg, profile) {
		detail := status.Command
		if !status.Available {
			detail = status.Detail
		}
		results = append(results, Result{
			Name:     status.Name,
			Passed:   status.Available,
			Optional: status.Optional,
			Detail:   detail,
		})
	}
	return results
}

// Failures summarises the required checks that did not pass, or returns nil.
func Failures(results []Result) error {
	var failures []string
	for _, r := range results {
		if r.Passed || r.Optional {
			continue
		}
		failures = append(failures, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	if len(failures) == 0 {
		return nil
	}
	return fmt.Errorf("preflight checks failed: %s", strings.Join(failures, "; "))
}

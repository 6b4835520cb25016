package preflight

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"lipsync/internal/config"
	"lipsync/internal/deps"
	"lipsync/internal/language"
	"lipsync/internal/media/ffprobe"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates the aligner install for profile plus the optional
// ffprobe binary. Both generate and doctor use this to avoid duplicating the
// requirements list.
func CheckSystemDeps(cfg *config.Config, profile language.Profile) []deps.Status {
	statuses := deps.CheckAligner(profile.Name, profile.Aligner.Binary(), profile.Aligner.Lexicon, profile.Aligner.Model)
	statuses = append(statuses, deps.CheckBinaries([]deps.Requirement{{
		Name:        "FFprobe",
		Command:     cfg.FFprobeBinary(),
		Description: "Checks dialogue audio format before alignment",
		Optional:    true,
	}})...)
	return statuses
}

// CheckAudio inspects path with ffprobe and reports format deviations. When
// ffprobe is unavailable the check passes with a note.
func CheckAudio(ctx context.Context, cfg *config.Config, path string) Result {
	const name = "Audio format"

	probe := deps.CheckExecutable("FFprobe", cfg.FFprobeBinary(), "", true)
	if !probe.Available {
		return Result{Name: name, Passed: true, Detail: "ffprobe unavailable; format not checked"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	result, err := ffprobe.Inspect(checkCtx, probe.Command, path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", filepath.Base(path), err)}
	}
	if warnings := result.AlignmentWarnings(); len(warnings) > 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s: %s", filepath.Base(path), strings.Join(warnings, "; "))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (16 kHz mono PCM, %.2fs)", filepath.Base(path), result.DurationSeconds())}
}

package staging

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"lipsync/internal/logging"
	"lipsync/internal/textutil"
)

// DirPrefix marks directories owned by lipsync runs.
const DirPrefix = "run-"

// Workspace is the aligner hand-off area for one run.
type Workspace struct {
	Root   string
	Input  string
	Output string
}

// DirName returns the staging directory name for runID.
func DirName(runID string) string {
	return DirPrefix + textutil.SanitizeToken(runID)
}

// Prepare creates a clean workspace for runID under stagingDir. Leftovers from
// a previous run with the same ID are removed first.
func Prepare(stagingDir, runID string) (Workspace, error) {
	stagingDir = strings.TrimSpace(stagingDir)
	if stagingDir == "" {
		return Workspace{}, errors.New("staging directory required")
	}
	if strings.TrimSpace(runID) == "" {
		return Workspace{}, errors.New("run id required")
	}
	root := filepath.Join(stagingDir, DirName(runID))
	ws := Workspace{
		Root:   root,
		Input:  filepath.Join(root, "input"),
		Output: filepath.Join(root, "output"),
	}
	if err := os.RemoveAll(root); err != nil {
		return Workspace{}, fmt.Errorf("clear workspace: %w", err)
	}
	for _, dir := range []string{ws.Input, ws.Output} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Workspace{}, fmt.Errorf("create workspace: %w", err)
		}
	}
	return ws, nil
}

// Cleanup removes the workspace. Failures are logged, not returned.
func (w Workspace) Cleanup(logger *slog.Logger) bool {
	if w.Root == "" {
		return true
	}
	if err := os.RemoveAll(w.Root); err != nil {
		if logger != nil {
			logging.WarnWithContext(logger, "failed to remove staging workspace", "staging_cleanup_failed",
				logging.String("path", w.Root),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check staging_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
		}
		return false
	}
	if logger != nil {
		logger.Debug("staging workspace removed",
			logging.String("path", w.Root),
			logging.String(logging.FieldEventType, "staging_cleanup"),
		)
	}
	return true
}

package staging

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"lipsync/internal/logging"
)

// CleanStaleResult reports what a sweep removed and what it could not.
type CleanStaleResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a directory path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// runDir is one run workspace found under the staging root.
type runDir struct {
	path  string
	runID string
	entry fs.DirEntry
}

// CleanStale removes run workspaces whose modification time is older than maxAge.
func CleanStale(ctx context.Context, stagingDir string, maxAge time.Duration, logger *slog.Logger) CleanStaleResult {
	cutoff := time.Now().Add(-maxAge)
	return sweep(ctx, stagingDir, "stale", logger, func(dir runDir) (bool, error) {
		info, err := dir.entry.Info()
		if err != nil {
			return false, err
		}
		return info.ModTime().Before(cutoff), nil
	})
}

// CleanOrphaned removes run workspaces whose run ID is not in active.
// Directories without the run prefix are left alone.
func CleanOrphaned(ctx context.Context, stagingDir string, active map[string]struct{}, logger *slog.Logger) CleanStaleResult {
	return sweep(ctx, stagingDir, "orphaned", logger, func(dir runDir) (bool, error) {
		_, keep := active[dir.runID]
		return !keep, nil
	})
}

func sweep(ctx context.Context, stagingDir, kind string, logger *slog.Logger, doomed func(runDir) (bool, error)) CleanStaleResult {
	var result CleanStaleResult
	if logger == nil {
		logger = logging.NewNop()
	}

	dirs, err := runDirs(stagingDir)
	if err != nil {
		result.Errors = append(result.Errors, CleanupError{Path: stagingDir, Error: err})
		return result
	}

	for _, dir := range dirs {
		if ctx.Err() != nil {
			break
		}
		remove, err := doomed(dir)
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dir.path, Error: err})
			continue
		}
		if !remove {
			continue
		}
		if err := os.RemoveAll(dir.path); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dir.path, Error: err})
			logger.Warn("failed to remove "+kind+" staging directory",
				logging.String("path", dir.path),
				logging.Error(err),
				logging.String(logging.FieldEventType, "staging_cleanup_failed"),
				logging.String(logging.FieldErrorHint, "check staging_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		result.Removed = append(result.Removed, dir.path)
		logger.Info("removed "+kind+" staging directory",
			logging.String("path", dir.path),
			logging.String("run_id", dir.runID),
			logging.String(logging.FieldEventType, "staging_cleanup"),
		)
	}
	return result
}

// runDirs lists the run-prefixed directories under stagingDir. A blank or
// missing root yields nothing.
func runDirs(stagingDir string) ([]runDir, error) {
	stagingDir = strings.TrimSpace(stagingDir)
	if stagingDir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(stagingDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var dirs []runDir
	for _, entry := range entries {
		name := strings.ToLower(entry.Name())
		if !entry.IsDir() || !strings.HasPrefix(name, DirPrefix) {
			continue
		}
		dirs = append(dirs, runDir{
			path:  filepath.Join(stagingDir, entry.Name()),
			runID: strings.TrimPrefix(name, DirPrefix),
			entry: entry,
		})
	}
	return dirs, nil
}

// DirInfo describes one directory under the staging root.
type DirInfo struct {
	Name    string
	Path    string
	ModTime time.Time
	Size    int64
}

// ListDirectories returns every directory under stagingDir, run workspace or
// not, with its total size.
func ListDirectories(stagingDir string) ([]DirInfo, error) {
	stagingDir = strings.TrimSpace(stagingDir)
	if stagingDir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(stagingDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var dirs []DirInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(stagingDir, entry.Name())
		dirs = append(dirs, DirInfo{
			Name:    entry.Name(),
			Path:    path,
			ModTime: info.ModTime(),
			Size:    treeSize(path),
		})
	}
	return dirs, nil
}

// treeSize sums regular file sizes below root, skipping unreadable entries.
func treeSize(root string) int64 {
	var total int64
	_ = filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}

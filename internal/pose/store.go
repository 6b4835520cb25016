package pose

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"lipsync/internal/fileutil"
	"lipsync/internal/logging"
)

// Extension is the pose document suffix.
const Extension = ".json"

// Save writes s to path atomically.
func Save(path string, s Snapshot) error {
	data, err := Marshal(s)
	if err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("save pose %s: %w", path, err)
	}
	return nil
}

// Load reads a pose document. IO failures wrap the underlying os error so
// callers can test fs.ErrNotExist; malformed documents wrap ErrParse.
func Load(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load pose %s: %w", path, err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	snap, err := Decode(bytes.NewReader(data))
	if err != nil {
		return Snapshot{}, fmt.Errorf("load pose %s: %w", path, err)
	}
	return snap, nil
}

// Loader resolves a pose reference into a snapshot.
type Loader interface {
	Load(ref string) (Snapshot, error)
}

// FileLoader loads pose documents from disk, caching parsed snapshots by path
// for the lifetime of the loader.
type FileLoader struct {
	cache map[string]Snapshot
}

// NewFileLoader returns a loader with an empty cache.
func NewFileLoader() *FileLoader {
	return &FileLoader{cache: map[string]Snapshot{}}
}

func (l *FileLoader) Load(ref string) (Snapshot, error) {
	if snap, ok := l.cache[ref]; ok {
		return snap, nil
	}
	snap, err := Load(ref)
	if err != nil {
		return Snapshot{}, err
	}
	l.cache[ref] = snap
	return snap, nil
}

// List returns the pose documents in dir sorted by file name. A missing
// directory yields an empty list.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list poses: %w", err)
	}
	var out []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), Extension) {
			continue
		}
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		out = append(out, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// Watch calls fn with the current pose list and again whenever pose files in
// dir are created, removed, or renamed. Bursts of events are coalesced.
// Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, dir string, logger *slog.Logger, fn func([]string)) error {
	logger = logging.NewComponentLogger(logger, "pose-watch")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure pose dir: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	emit := func() {
		poses, err := List(dir)
		if err != nil {
			logging.WarnWithContext(logger, "pose list refresh failed", "pose_list_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check pose_dir permissions"),
				logging.String(logging.FieldImpact, "pose list may be stale"),
			)
			return
		}
		fn(poses)
	}
	emit()

	const settle = 150 * time.Millisecond
	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.EqualFold(filepath.Ext(event.Name), Extension) {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Write) {
				continue
			}
			logger.Debug("pose file changed", logging.String("path", event.Name), logging.String("op", event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(settle)
			} else {
				timer.Reset(settle)
			}
			timerC = timer.C
		case <-timerC:
			timerC = nil
			emit()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.WarnWithContext(logger, "pose watcher error", "pose_watch_error",
				logging.Error(err),
				logging.String(logging.FieldImpact, "some pose changes may be missed"),
			)
		}
	}
}

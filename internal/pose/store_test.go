package pose

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"lipsync/internal/logging"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "poses", "AI.json")
	if err := Save(path, sampleSnapshot()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !loaded.Equal(sampleSnapshot()) {
		t.Fatalf("unexpected snapshot %+v", loaded)
	}
}

func TestLoadDistinguishesMissingFromMalformed(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "missing.json"))
	if !errors.Is(err, fs.ErrNotExist) || errors.Is(err, ErrParse) {
		t.Fatalf("expected not-exist error, got %v", err)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = Load(bad)
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestLoadToleratesBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bom.json")
	if err := os.WriteFile(path, []byte("\xef\xbb\xbf{\"c\": {\"a\": 2.0}}"), 0o644); err != nil {
		t.Fatal(err)
	}
	snap, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v, ok := valueOf(snap, "c", "a"); !ok || v != 2 {
		t.Fatalf("unexpected value %v %v", v, ok)
	}
}

func TestFileLoaderCaches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "MBP.json")
	if err := Save(path, sampleSnapshot()); err != nil {
		t.Fatal(err)
	}
	loader := NewFileLoader()
	if _, err := loader.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if _, err := loader.Load(path); err != nil {
		t.Fatalf("expected cached snapshot, got %v", err)
	}
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"rest.json", "AI.JSON", "notes.txt", ".hidden.json"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.json"), 0o755); err != nil {
		t.Fatal(err)
	}
	got, err := List(dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{filepath.Join(dir, "AI.JSON"), filepath.Join(dir, "rest.json")}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("List = %v, want %v", got, want)
	}
	if got, err := List(filepath.Join(dir, "absent")); err != nil || got != nil {
		t.Fatalf("expected empty list for missing dir, got %v %v", got, err)
	}
}

func TestWatchReportsNewPoses(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := make(chan []string, 8)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, dir, logging.NewNop(), func(poses []string) { updates <- poses })
	}()

	select {
	case initial := <-updates:
		if len(initial) != 0 {
			t.Fatalf("expected empty initial list, got %v", initial)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for initial list")
	}

	if err := Save(filepath.Join(dir, "O.json"), sampleSnapshot()); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case poses := <-updates:
			if len(poses) == 1 && filepath.Base(poses[0]) == "O.json" {
				cancel()
				if err := <-done; err != nil {
					t.Fatalf("Watch: %v", err)
				}
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for pose update")
		}
	}
}

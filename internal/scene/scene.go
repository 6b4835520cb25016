package scene

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"lipsync/internal/rig"
)

// ErrSceneLocked is returned by Open when another process holds the scene.
var ErrSceneLocked = errors.New("scene is locked by another process")

// Scene is a SQLite-backed rig.
type Scene struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

// ControlInfo describes a stored control.
type ControlInfo struct {
	Name       string
	Attributes []rig.AttributeDef
}

// Open opens or creates the scene database at path and takes the scene lock.
func Open(ctx context.Context, path string) (*Scene, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("scene path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure scene dir: %w", err)
	}

	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire scene lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSceneLocked, path)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	s := &Scene{db: db, path: path, lock: lock}
	if err := s.applyMigrations(ctx); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}
	return s, nil
}

// Path returns the database file path.
func (s *Scene) Path() string { return s.path }

// Close closes the database and releases the scene lock.
func (s *Scene) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	if unlockErr := s.lock.Unlock(); unlockErr != nil && err == nil {
		err = fmt.Errorf("release scene lock: %w", unlockErr)
	}
	return err
}

// Define creates or replaces a control and its attributes. Keys recorded for
// the control are kept.
func (s *Scene) Define(ctx context.Context, control string, attrs ...rig.AttributeDef) error {
	control = strings.TrimSpace(control)
	if control == "" {
		return errors.New("control name is empty")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin define tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var id int64
	err = tx.QueryRowContext(ctx, "SELECT id FROM controls WHERE name = ?", control).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		var position int
		if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(position), -1) + 1 FROM controls").Scan(&position); err != nil {
			return fmt.Errorf("next control position: %w", err)
		}
		res, err := tx.ExecContext(ctx, "INSERT INTO controls (name, position) VALUES (?, ?)", control, position)
		if err != nil {
			return fmt.Errorf("insert control: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
	case err != nil:
		return fmt.Errorf("lookup control: %w", err)
	default:
		if _, err := tx.ExecContext(ctx, "DELETE FROM attributes WHERE control_id = ?", id); err != nil {
			return fmt.Errorf("reset attributes: %w", err)
		}
	}

	for i, attr := range attrs {
		name := strings.TrimSpace(attr.Name)
		if name == "" {
			return fmt.Errorf("control %s: attribute %d has no name", control, i)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO attributes (control_id, name, position, value, keyable, locked) VALUES (?, ?, ?, ?, ?, ?)",
			id, name, i, attr.Value, attr.Keyable, attr.Locked,
		); err != nil {
			return fmt.Errorf("insert attribute %s.%s: %w", control, name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit define: %w", err)
	}
	return nil
}

// Remove deletes a control and its attributes.
func (s *Scene) Remove(ctx context.Context, control string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM controls WHERE name = ?", control)
	if err != nil {
		return fmt.Errorf("delete control: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w %q", rig.ErrUnknownControl, control)
	}
	return nil
}

// Controls lists every control with its attributes in definition order.
func (s *Scene) Controls(ctx context.Context) ([]ControlInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT c.name, a.name, a.value, a.keyable, a.locked
        FROM controls c
        LEFT JOIN attributes a ON a.control_id = c.id
        ORDER BY c.position, a.position`)
	if err != nil {
		return nil, fmt.Errorf("query controls: %w", err)
	}
	defer rows.Close()

	var out []ControlInfo
	for rows.Next() {
		var (
			control string
			attr    sql.NullString
			value   sql.NullFloat64
			keyable sql.NullBool
			locked  sql.NullBool
		)
		if err := rows.Scan(&control, &attr, &value, &keyable, &locked); err != nil {
			return nil, fmt.Errorf("scan control: %w", err)
		}
		if len(out) == 0 || out[len(out)-1].Name != control {
			out = append(out, ControlInfo{Name: control})
		}
		if attr.Valid {
			last := &out[len(out)-1]
			last.Attributes = append(last.Attributes, rig.AttributeDef{
				Name:    attr.String,
				Value:   value.Float64,
				Keyable: keyable.Bool,
				Locked:  locked.Bool,
			})
		}
	}
	return out, rows.Err()
}

func (s *Scene) controlID(ctx context.Context, q querier, control string) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, "SELECT id FROM controls WHERE name = ?", control).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w %q", rig.ErrUnknownControl, control)
	}
	if err != nil {
		return 0, fmt.Errorf("lookup control: %w", err)
	}
	return id, nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Scene) ListKeyableAttributes(ctx context.Context, control string) ([]string, error) {
	id, err := s.controlID(ctx, s.db, control)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT name FROM attributes WHERE control_id = ? AND keyable = 1 AND locked = 0 ORDER BY position", id)
	if err != nil {
		return nil, fmt.Errorf("query attributes: %w", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan attribute: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *Scene) GetAttribute(ctx context.Context, control, attribute string) (float64, error) {
	id, err := s.controlID(ctx, s.db, control)
	if err != nil {
		return 0, err
	}
	var value float64
	err = s.db.QueryRowContext(ctx, "SELECT value FROM attributes WHERE control_id = ? AND name = ?", id, attribute).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w %s.%s", rig.ErrUnknownAttribute, control, attribute)
	}
	if err != nil {
		return 0, fmt.Errorf("read attribute: %w", err)
	}
	return value, nil
}

func (s *Scene) SetAttribute(ctx context.Context, control, attribute string, value float64) error {
	return s.setAttribute(ctx, s.db, control, attribute, value)
}

// Assignment is one control.attribute = value write.
type Assignment struct {
	Control   string
	Attribute string
	Value     float64
}

// SetAttributes writes every assignment in one transaction. If any target is
// unknown or locked, nothing is written.
func (s *Scene) SetAttributes(ctx context.Context, assignments []Assignment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	for _, a := range assignments {
		if err := s.setAttribute(ctx, tx, a.Control, a.Attribute, a.Value); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit set: %w", err)
	}
	return nil
}

type execer interface {
	querier
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Scene) setAttribute(ctx context.Context, q execer, control, attribute string, value float64) error {
	id, err := s.controlID(ctx, q, control)
	if err != nil {
		return err
	}
	var locked bool
	err = q.QueryRowContext(ctx, "SELECT locked FROM attributes WHERE control_id = ? AND name = ?", id, attribute).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w %s.%s", rig.ErrUnknownAttribute, control, attribute)
	}
	if err != nil {
		return fmt.Errorf("read attribute: %w", err)
	}
	if locked {
		return fmt.Errorf("%w: %s.%s", rig.ErrLockedAttribute, control, attribute)
	}
	if _, err := q.ExecContext(ctx, "UPDATE attributes SET value = ? WHERE control_id = ? AND name = ?", value, id, attribute); err != nil {
		return fmt.Errorf("write attribute: %w", err)
	}
	return nil
}

func (s *Scene) SetKeyframe(ctx context.Context, controls []string, time float64, tangent rig.Tangent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin keyframe tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, control := range controls {
		id, err := s.controlID(ctx, tx, control)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO keyframes (control, attribute, time, value, in_tangent, out_tangent)
            SELECT ?, name, ?, value, ?, ?
            FROM attributes
            WHERE control_id = ? AND keyable = 1 AND locked = 0
            ORDER BY position
            ON CONFLICT (control, attribute, time) DO UPDATE SET
                value = excluded.value,
                in_tangent = excluded.in_tangent,
                out_tangent = excluded.out_tangent`,
			control, time, string(tangent), string(tangent), id,
		); err != nil {
			return fmt.Errorf("key %s at %.3f: %w", control, time, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit keyframes: %w", err)
	}
	return nil
}

// Keyframes returns stored keys ordered by time, then by insertion.
func (s *Scene) Keyframes(ctx context.Context) ([]rig.Keyframe, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT control, attribute, time, value, in_tangent, out_tangent FROM keyframes ORDER BY time, id")
	if err != nil {
		return nil, fmt.Errorf("query keyframes: %w", err)
	}
	defer rows.Close()
	var keys []rig.Keyframe
	for rows.Next() {
		var k rig.Keyframe
		var in, out string
		if err := rows.Scan(&k.Control, &k.Attribute, &k.Time, &k.Value, &in, &out); err != nil {
			return nil, fmt.Errorf("scan keyframe: %w", err)
		}
		k.InTangent, k.OutTangent = rig.Tangent(in), rig.Tangent(out)
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// ClearKeyframes deletes every stored key and reports how many were removed.
func (s *Scene) ClearKeyframes(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM keyframes")
	if err != nil {
		return 0, fmt.Errorf("clear keyframes: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

const soundtrackKey = "soundtrack"

// SetSoundtrack records the audio file the scene is synced to.
func (s *Scene) SetSoundtrack(ctx context.Context, audioPath string) error {
	if _, err := os.Stat(audioPath); err != nil {
		return fmt.Errorf("soundtrack: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO scene_meta (key, value) VALUES (?, ?) ON CONFLICT (key) DO UPDATE SET value = excluded.value",
		soundtrackKey, audioPath,
	); err != nil {
		return fmt.Errorf("store soundtrack: %w", err)
	}
	return nil
}

// Soundtrack returns the recorded audio path, if any.
func (s *Scene) Soundtrack(ctx context.Context) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM scene_meta WHERE key = ?", soundtrackKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read soundtrack: %w", err)
	}
	return value, true, nil
}

var _ rig.Rig = (*Scene)(nil)

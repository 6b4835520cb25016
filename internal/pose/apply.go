package pose

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lipsync/internal/rig"
)

// Capture records every keyable, unlocked attribute of controls. It only
// reads from the rig.
func Capture(ctx context.Context, r rig.Rig, controls []string) (Snapshot, error) {
	var snap Snapshot
	seen := map[string]struct{}{}
	for _, name := range controls {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		attrs, err := r.ListKeyableAttributes(ctx, name)
		if err != nil {
			return Snapshot{}, fmt.Errorf("capture %s: %w", name, err)
		}
		control := Control{Name: name, Attributes: make([]Attribute, 0, len(attrs))}
		for _, attr := range attrs {
			value, err := r.GetAttribute(ctx, name, attr)
			if err != nil {
				return Snapshot{}, fmt.Errorf("capture %s.%s: %w", name, attr, err)
			}
			control.Attributes = append(control.Attributes, Attribute{Name: attr, Value: value})
		}
		snap.Controls = append(snap.Controls, control)
	}
	return snap, nil
}

// AssignmentError is one attribute that could not be applied.
type AssignmentError struct {
	Control   string
	Attribute string
	Err       error
}

func (e AssignmentError) Error() string {
	return fmt.Sprintf("%s.%s: %v", e.Control, e.Attribute, e.Err)
}

func (e AssignmentError) Unwrap() error { return e.Err }

// ApplyResult reports what Apply touched. Controls is always the snapshot's
// control set in snapshot order.
type ApplyResult struct {
	Controls []string
	Applied  int
	Failures []AssignmentError
}

// Err joins the failures, or returns nil when every assignment succeeded.
func (r ApplyResult) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Apply sets every attribute in s on r. Failed assignments are collected and
// do not stop the remaining ones.
func Apply(ctx context.Context, r rig.Rig, s Snapshot) ApplyResult {
	result := ApplyResult{Controls: s.ControlNames()}
	for _, c := range s.Controls {
		for _, a := range c.Attributes {
			if err := r.SetAttribute(ctx, c.Name, a.Name, a.Value); err != nil {
				result.Failures = append(result.Failures, AssignmentError{Control: c.Name, Attribute: a.Name, Err: err})
				continue
			}
			result.Applied++
		}
	}
	return result
}

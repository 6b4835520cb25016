package viseme

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"lipsync/internal/textutil"
)

// ErrUnknownCategory is returned when binding a category the registry does not define.
var ErrUnknownCategory = errors.New("unknown viseme category")

// PoseRef points at a stored pose document. Empty means not configured.
type PoseRef string

// Binding pairs a category with its pose reference.
type Binding struct {
	Category Category
	Ref      PoseRef
}

// Registry is an ordered, immutable set of bindings. Methods that change a
// binding return a new Registry.
type Registry struct {
	bindings []Binding
}

// NewRegistry creates a registry with one unbound entry per category.
func NewRegistry(categories []Category) Registry {
	bindings := make([]Binding, len(categories))
	for i, c := range categories {
		bindings[i] = Binding{Category: c}
	}
	return Registry{bindings: bindings}
}

// Bind returns a copy of the registry with category bound to ref.
func (r Registry) Bind(category Category, ref PoseRef) (Registry, error) {
	idx := r.index(category)
	if idx < 0 {
		names := make([]string, len(r.bindings))
		for i, b := range r.bindings {
			names[i] = string(b.Category)
		}
		return r, fmt.Errorf("%w %q%s", ErrUnknownCategory, category, textutil.DidYouMean(string(category), names))
	}
	next := r.clone()
	next.bindings[idx].Ref = PoseRef(strings.TrimSpace(string(ref)))
	return next, nil
}

// Resolve returns the pose bound to exactly category. Unbound categories and
// empty refs report false.
func (r Registry) Resolve(category Category) (PoseRef, bool) {
	idx := r.index(category)
	if idx < 0 || r.bindings[idx].Ref == "" {
		return "", false
	}
	return r.bindings[idx].Ref, true
}

// Bindings returns the bindings in registry order.
func (r Registry) Bindings() []Binding {
	return append([]Binding(nil), r.bindings...)
}

// Unbound lists categories with no pose reference.
func (r Registry) Unbound() []Category {
	var out []Category
	for _, b := range r.bindings {
		if b.Ref == "" {
			out = append(out, b.Category)
		}
	}
	return out
}

// AutoBind binds each unbound category to <dir>/<Category>.json when that
// file exists. File names must match the category exactly.
func (r Registry) AutoBind(dir string) Registry {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return r
	}
	next := r.clone()
	for i, b := range next.bindings {
		if b.Ref != "" {
			continue
		}
		candidate := filepath.Join(dir, string(b.Category)+".json")
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			next.bindings[i].Ref = PoseRef(candidate)
		}
	}
	return next
}

func (r Registry) index(category Category) int {
	for i, b := range r.bindings {
		if b.Category == category {
			return i
		}
	}
	return -1
}

func (r Registry) clone() Registry {
	return Registry{bindings: append([]Binding(nil), r.bindings...)}
}

package rig

import (
	"context"
	"fmt"
	"sync"
)

type memControl struct {
	name  string
	attrs []*AttributeDef
}

func (c *memControl) attr(name string) *AttributeDef {
	for _, a := range c.attrs {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// Memory is an in-process Rig. It is safe for concurrent use.
type Memory struct {
	mu       sync.Mutex
	controls []*memControl
	keys     []Keyframe
}

// NewMemory returns an empty rig.
func NewMemory() *Memory {
	return &Memory{}
}

// Define adds or replaces a control with the given attributes.
func (m *Memory) Define(control string, attrs ...AttributeDef) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := &memControl{name: control}
	for _, def := range attrs {
		def := def
		c.attrs = append(c.attrs, &def)
	}
	for i, existing := range m.controls {
		if existing.name == control {
			m.controls[i] = c
			return
		}
	}
	m.controls = append(m.controls, c)
}

// Remove deletes a control. Keys already recorded are kept.
func (m *Memory) Remove(control string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.controls {
		if c.name == control {
			m.controls = append(m.controls[:i], m.controls[i+1:]...)
			return
		}
	}
}

// Controls returns the defined control names in definition order.
func (m *Memory) Controls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, len(m.controls))
	for i, c := range m.controls {
		names[i] = c.name
	}
	return names
}

// Keyframes returns every recorded key in insertion order. Keying an
// attribute again at the same time replaces the earlier key in place.
func (m *Memory) Keyframes() []Keyframe {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Keyframe(nil), m.keys...)
}

func (m *Memory) control(name string) (*memControl, error) {
	for _, c := range m.controls {
		if c.name == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownControl, name)
}

func (m *Memory) ListKeyableAttributes(_ context.Context, control string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.control(control)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, a := range c.attrs {
		if a.Keyable && !a.Locked {
			out = append(out, a.Name)
		}
	}
	return out, nil
}

func (m *Memory) GetAttribute(_ context.Context, control, attribute string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.control(control)
	if err != nil {
		return 0, err
	}
	a := c.attr(attribute)
	if a == nil {
		return 0, fmt.Errorf("%w %s.%s", ErrUnknownAttribute, control, attribute)
	}
	return a.Value, nil
}

func (m *Memory) SetAttribute(_ context.Context, control, attribute string, value float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.control(control)
	if err != nil {
		return err
	}
	a := c.attr(attribute)
	if a == nil {
		return fmt.Errorf("%w %s.%s", ErrUnknownAttribute, control, attribute)
	}
	if a.Locked {
		return fmt.Errorf("%w: %s.%s", ErrLockedAttribute, control, attribute)
	}
	a.Value = value
	return nil
}

func (m *Memory) SetKeyframe(_ context.Context, controls []string, time float64, tangent Tangent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var pending []Keyframe
	for _, name := range controls {
		c, err := m.control(name)
		if err != nil {
			return err
		}
		for _, a := range c.attrs {
			if !a.Keyable || a.Locked {
				continue
			}
			pending = append(pending, Keyframe{
				Control:    name,
				Attribute:  a.Name,
				Time:       time,
				Value:      a.Value,
				InTangent:  tangent,
				OutTangent: tangent,
			})
		}
	}
	for _, key := range pending {
		m.upsert(key)
	}
	return nil
}

// upsert replaces a key already set on the same attribute at the same time.
func (m *Memory) upsert(key Keyframe) {
	for i, existing := range m.keys {
		if existing.Control == key.Control && existing.Attribute == key.Attribute && existing.Time == key.Time {
			m.keys[i] = key
			return
		}
	}
	m.keys = append(m.keys, key)
}

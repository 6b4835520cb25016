package pose

// Attribute is one captured attribute value.
type Attribute struct {
	Name  string
	Value float64
}

// Control is a captured control and its attributes in capture order.
type Control struct {
	Name       string
	Attributes []Attribute
}

// Snapshot is a captured pose.
type Snapshot struct {
	Controls []Control
}

// ControlNames returns the control set in snapshot order.
func (s Snapshot) ControlNames() []string {
	names := make([]string, len(s.Controls))
	for i, c := range s.Controls {
		names[i] = c.Name
	}
	return names
}

// IsEmpty reports whether the snapshot names no controls.
func (s Snapshot) IsEmpty() bool {
	return len(s.Controls) == 0
}

// AttributeCount is the number of attribute assignments the snapshot carries.
func (s Snapshot) AttributeCount() int {
	n := 0
	for _, c := range s.Controls {
		n += len(c.Attributes)
	}
	return n
}

// Equal reports whether both snapshots hold the same controls, attributes,
// values, and order.
func (s Snapshot) Equal(other Snapshot) bool {
	if len(s.Controls) != len(other.Controls) {
		return false
	}
	for i, c := range s.Controls {
		o := other.Controls[i]
		if c.Name != o.Name || len(c.Attributes) != len(o.Attributes) {
			return false
		}
		for j, a := range c.Attributes {
			if a != o.Attributes[j] {
				return false
			}
		}
	}
	return true
}

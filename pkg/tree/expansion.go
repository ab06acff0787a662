package tree

import (
	"encoding/json"
	"slices"
)

// Expansion is the set of category paths whose children are visible.
//
// The zero value is an empty expansion ready for reading; [Expansion.Add]
// and [Expansion.Toggle] allocate on first use. Expansions are not safe for
// concurrent mutation.
type Expansion struct {
	set map[string]struct{}
}

// NewExpansion returns an expansion containing paths.
func NewExpansion(paths ...string) Expansion {
	e := Expansion{set: make(map[string]struct{}, len(paths))}
	for _, p := range paths {
		e.set[p] = struct{}{}
	}
	return e
}

// Has reports whether path is expanded.
func (e Expansion) Has(path string) bool {
	_, ok := e.set[path]
	return ok
}

// Add marks path as expanded.
func (e *Expansion) Add(path string) {
	if e.set == nil {
		e.set = make(map[string]struct{})
	}
	e.set[path] = struct{}{}
}

// Remove marks path as collapsed.
func (e *Expansion) Remove(path string) {
	delete(e.set, path)
}

// Toggle flips path and reports whether it is expanded afterwards.
func (e *Expansion) Toggle(path string) bool {
	if e.Has(path) {
		e.Remove(path)
		return false
	}
	e.Add(path)
	return true
}

// Len returns the number of expanded paths.
func (e Expansion) Len() int { return len(e.set) }

// Paths returns the expanded paths in sorted order.
func (e Expansion) Paths() []string {
	out := make([]string, 0, len(e.set))
	for p := range e.set {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Clone returns an independent copy of e.
func (e Expansion) Clone() Expansion {
	return NewExpansion(e.Paths()...)
}

// Equal reports whether e and other contain the same paths.
func (e Expansion) Equal(other Expansion) bool {
	if e.Len() != other.Len() {
		return false
	}
	for p := range e.set {
		if !other.Has(p) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the expansion as a sorted array of paths.
func (e Expansion) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Paths())
}

// UnmarshalJSON decodes an array of paths. A JSON null yields an empty set.
func (e *Expansion) UnmarshalJSON(b []byte) error {
	var paths []string
	if err := json.Unmarshal(b, &paths); err != nil {
		return err
	}
	*e = NewExpansion(paths...)
	return nil
}

// InitialExpansion returns the expansion used when a dataset is first shown.
//
// Every category whose children include no field node is expanded, so the
// category skeleton is visible and the field lists start collapsed. Only
// category children are descended into.
func InitialExpansion(root *Node) Expansion {
	e := NewExpansion()
	if root == nil {
		return e
	}
	root.Walk(func(n *Node, path string, _ int) bool {
		if n.IsField() {
			return false
		}
		if !n.HasFieldChildren() {
			e.Add(path)
		}
		return true
	})
	return e
}

// FullExpansion returns an expansion containing the path of every node
// below the root, which shows the whole tree.
func FullExpansion(root *Node) Expansion {
	e := NewExpansion()
	if root == nil {
		return e
	}
	root.Walk(func(_ *Node, path string, depth int) bool {
		if depth > 0 {
			e.Add(path)
		}
		return true
	})
	return e
}

// ExpandAllToggle implements the "expand all / restore" control.
//
// The first call to [ExpandAllToggle.Toggle] remembers the current
// expansion and replaces it with [FullExpansion]. The second call restores
// the remembered expansion, or an empty one if nothing was remembered.
type ExpandAllToggle struct {
	Current     Expansion `json:"current"`
	Previous    Expansion `json:"previous"`
	AllExpanded bool      `json:"all_expanded"`
}

// Toggle switches between the full expansion of root and the remembered
// state. It returns the new current expansion.
func (t *ExpandAllToggle) Toggle(root *Node) Expansion {
	if t.AllExpanded {
		t.Current = t.Previous.Clone()
		t.Previous = NewExpansion()
		t.AllExpanded = false
		return t.Current
	}
	t.Previous = t.Current.Clone()
	t.Current = FullExpansion(root)
	t.AllExpanded = true
	return t.Current
}

package tree

import (
	"reflect"
	"strings"
)

// PathSeparator joins node names into a path.
const PathSeparator = "/"

// Node is a node in the source hierarchy.
//
// A node with at least one attribute is a field node, regardless of whether
// it has children. Every other node is a category. Size is an optional
// weight carried through to consumers, such as a field's participant count.
type Node struct {
	Name       string         `json:"name" bson:"name" yaml:"name"`
	Attributes map[string]any `json:"attributes,omitempty" bson:"attributes,omitempty" yaml:"attributes,omitempty"`
	Size       int64          `json:"size,omitempty" bson:"size,omitempty" yaml:"size,omitempty"`
	Children   []*Node        `json:"children,omitempty" bson:"children,omitempty" yaml:"children,omitempty"`
}

// IsField reports whether n carries attributes.
func (n *Node) IsField() bool { return len(n.Attributes) > 0 }

// IsCategory reports whether n is a grouping node.
func (n *Node) IsCategory() bool { return !n.IsField() }

// HasChildren reports whether n has at least one child.
func (n *Node) HasChildren() bool { return len(n.Children) > 0 }

// HasFieldChildren reports whether any direct child of n is a field.
func (n *Node) HasFieldChildren() bool {
	for _, c := range n.Children {
		if c.IsField() {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the subtree rooted at n.
// Attribute maps are copied shallowly: scalar values are shared.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{Name: n.Name, Attributes: copyAttributes(n.Attributes), Size: n.Size}
	if len(n.Children) > 0 {
		out.Children = make([]*Node, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = c.Clone()
		}
	}
	return out
}

// Walk visits every node of the subtree in pre-order. The callback receives
// the node's path and depth (0 for n itself). Returning false from fn skips
// the node's children.
func (n *Node) Walk(fn func(node *Node, path string, depth int) bool) {
	if n == nil {
		return
	}
	walk(n, n.Name, 0, fn)
}

func walk(n *Node, path string, depth int, fn func(*Node, string, int) bool) {
	if !fn(n, path, depth) {
		return
	}
	for _, c := range n.Children {
		walk(c, JoinPath(path, c.Name), depth+1, fn)
	}
}

// Height returns the depth of the deepest node below n (0 for a leaf).
func (n *Node) Height() int {
	if n == nil {
		return 0
	}
	h := 0
	for _, c := range n.Children {
		h = max(h, c.Height()+1)
	}
	return h
}

// Count returns the number of nodes in the subtree rooted at n.
func (n *Node) Count() int {
	if n == nil {
		return 0
	}
	total := 1
	for _, c := range n.Children {
		total += c.Count()
	}
	return total
}

// Leaves returns the number of leaves below n. A leaf counts as one.
func (n *Node) Leaves() int {
	if n == nil {
		return 0
	}
	if len(n.Children) == 0 {
		return 1
	}
	total := 0
	for _, c := range n.Children {
		total += c.Leaves()
	}
	return total
}

// Find returns the node at path, or nil if the path does not resolve.
// The first segment must match n's own name.
func (n *Node) Find(path string) *Node {
	if n == nil {
		return nil
	}
	segs := SplitPath(path)
	if len(segs) == 0 || segs[0] != n.Name {
		return nil
	}
	cur := n
	for _, seg := range segs[1:] {
		var next *Node
		for _, c := range cur.Children {
			if c.Name == seg {
				next = c
				break
			}
		}
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}

// Equal reports whether a and b have the same names, sizes, attribute keys
// and values, and child structure.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Name != b.Name || a.Size != b.Size || len(a.Attributes) != len(b.Attributes) || len(a.Children) != len(b.Children) {
		return false
	}
	for k, v := range a.Attributes {
		if bv, ok := b.Attributes[k]; !ok || !reflect.DeepEqual(bv, v) {
			return false
		}
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

// JoinPath appends a child name to a parent path.
func JoinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + PathSeparator + name
}

// ParentPath returns the path of the parent of path, or "" for a root path.
func ParentPath(path string) string {
	i := strings.LastIndex(path, PathSeparator)
	if i < 0 {
		return ""
	}
	return path[:i]
}

// SplitPath splits a path into node names.
func SplitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, PathSeparator)
}

// PathDepth returns the depth of the node addressed by path (0 for root).
func PathDepth(path string) int {
	if path == "" {
		return 0
	}
	return strings.Count(path, PathSeparator)
}

func copyAttributes(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

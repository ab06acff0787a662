package tree

// Filter returns the visible part of root under expanded, or nil if root is
// nil. The input tree and expansion are left untouched.
//
// Rules, applied top-down with the accumulated path:
//
//   - a field node is dropped unless its parent's path is expanded
//   - a non-root node with children whose own path is not expanded is kept
//     but stripped of its children, so it shows as a collapsed category
//   - otherwise children are filtered recursively, and a node left with no
//     visible children gets a nil Children slice
//
// The root is always treated as expanded. Filtering an already filtered tree
// with the same expansion returns an equal tree.
func Filter(root *Node, expanded Expansion) *Node {
	if root == nil {
		return nil
	}
	return filterNode(root, root.Name, 0, expanded)
}

func filterNode(n *Node, path string, depth int, expanded Expansion) *Node {
	out := &Node{Name: n.Name, Attributes: copyAttributes(n.Attributes), Size: n.Size}
	if len(n.Children) == 0 {
		return out
	}
	open := depth == 0 || expanded.Has(path)
	if !open {
		return out
	}

	children := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		// Children of an open node always have an expanded parent, so the
		// field rule reduces to the parent check above.
		children = append(children, filterNode(c, JoinPath(path, c.Name), depth+1, expanded))
	}
	if len(children) > 0 {
		out.Children = children
	}
	return out
}

// IsVisible reports whether the node at path survives [Filter] under
// expanded. Every proper ancestor of a visible non-root node must be the
// root or expanded.
func IsVisible(path string, expanded Expansion) bool {
	segs := SplitPath(path)
	if len(segs) == 0 {
		return false
	}
	ancestor := segs[0]
	for i := 1; i < len(segs)-1; i++ {
		ancestor = JoinPath(ancestor, segs[i])
		if !expanded.Has(ancestor) {
			return false
		}
	}
	return true
}

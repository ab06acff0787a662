package radial

import (
	"cmp"
	"slices"

	"github.com/matzehuels/radialtree/pkg/tree"
)

// hnode is the engine's working copy of a visible node.
type hnode struct {
	node     *tree.Node
	path     string
	parent   *hnode
	children []*hnode
	depth    int
	order    int     // pre-order index, used to break angle ties
	weight   float64 // subtree size driving proportional shares
	angle    float64
	start    float64 // angular window handed to the children
	end      float64
}

// hierarchy is a depth-indexed view of a filtered tree with children
// sorted by name.
type hierarchy struct {
	root   *hnode
	nodes  []*hnode   // pre-order
	levels [][]*hnode // nodes per depth, in pre-order
}

// sizeFunc returns the subtree size of the node at path, or 0 if unknown.
type sizeFunc func(path string) int

// buildHierarchy indexes root. Sizes come from sizes when it knows the
// path and fall back to the leaf count of the visible subtree otherwise.
func buildHierarchy(root *tree.Node, sizes sizeFunc) *hierarchy {
	h := &hierarchy{}
	if root == nil {
		return h
	}
	h.root = h.add(root, root.Name, nil, 0)
	h.assignWeights(h.root, sizes)
	return h
}

func (h *hierarchy) add(n *tree.Node, path string, parent *hnode, depth int) *hnode {
	hn := &hnode{node: n, path: path, parent: parent, depth: depth, order: len(h.nodes)}
	h.nodes = append(h.nodes, hn)
	for len(h.levels) <= depth {
		h.levels = append(h.levels, nil)
	}
	h.levels[depth] = append(h.levels[depth], hn)

	kids := slices.Clone(n.Children)
	slices.SortStableFunc(kids, func(a, b *tree.Node) int { return cmp.Compare(a.Name, b.Name) })
	for _, c := range kids {
		hn.children = append(hn.children, h.add(c, tree.JoinPath(path, c.Name), hn, depth+1))
	}
	return hn
}

func (h *hierarchy) assignWeights(n *hnode, sizes sizeFunc) int {
	leaves := 0
	for _, c := range n.children {
		leaves += h.assignWeights(c, sizes)
	}
	if leaves == 0 {
		leaves = 1
	}
	size := leaves
	if sizes != nil {
		if s := sizes(n.path); s > 0 {
			size = s
		}
	}
	n.weight = float64(size)
	return leaves
}

// height returns the deepest depth present.
func (h *hierarchy) height() int {
	return len(h.levels) - 1
}

// siblingGroups returns the children of every parent at depth-1 that has
// children, in pre-order of the parents.
func (h *hierarchy) siblingGroups(depth int) [][]*hnode {
	if depth < 1 || depth-1 >= len(h.levels) {
		return nil
	}
	var groups [][]*hnode
	for _, p := range h.levels[depth-1] {
		if len(p.children) > 0 {
			groups = append(groups, p.children)
		}
	}
	return groups
}

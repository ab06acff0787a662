package radial

import (
	"github.com/matzehuels/radialtree/pkg/errors"
	"github.com/matzehuels/radialtree/pkg/tree"
)

// Kind classifies a positioned node for renderers.
type Kind string

const (
	KindRoot      Kind = "root"
	KindCategory  Kind = "category"  // category with visible children
	KindCollapsed Kind = "collapsed" // category whose children are hidden
	KindField     Kind = "field"
)

// PositionedNode is the layout of one visible node.
type PositionedNode struct {
	Path       string         `json:"path"`
	Name       string         `json:"name"`
	ParentPath string         `json:"parent_path,omitempty"`
	Depth      int            `json:"depth"`
	Angle      float64        `json:"angle"`  // radians in [0, 2π), 0 at the top
	Radius     float64        `json:"radius"` // 0 for the root
	Kind       Kind           `json:"kind"`
	Clickable  bool           `json:"clickable"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Cartesian returns the node's screen coordinates.
func (n PositionedNode) Cartesian() (x, y float64) {
	return ToCartesian(n.Angle, n.Radius)
}

// Link joins a visible parent to a visible child.
type Link struct {
	Parent string `json:"parent"`
	Child  string `json:"child"`
}

// Result is a complete layout.
type Result struct {
	// Nodes lists every visible node in pre-order, children sorted by name.
	Nodes []PositionedNode `json:"nodes"`

	// Radii holds the ring radius of every depth.
	Radii LevelRadii `json:"radii"`

	// Violations counts adjacent pairs per depth still closer than the
	// depth's minimum angle after correction. Depths without residual
	// overlaps are omitted.
	Violations map[int]int `json:"violations,omitempty"`

	index map[string]int
}

// ByPath returns the node at path.
func (r *Result) ByPath(path string) (PositionedNode, bool) {
	if r.index == nil {
		r.index = make(map[string]int, len(r.Nodes))
		for i, n := range r.Nodes {
			r.index[n.Path] = i
		}
	}
	i, ok := r.index[path]
	if !ok {
		return PositionedNode{}, false
	}
	return r.Nodes[i], true
}

// Links returns one link per non-root node, in node order.
func (r *Result) Links() []Link {
	links := make([]Link, 0, len(r.Nodes))
	for _, n := range r.Nodes {
		if n.Depth > 0 {
			links = append(links, Link{Parent: n.ParentPath, Child: n.Path})
		}
	}
	return links
}

// MaxDepth returns the deepest visible depth.
func (r *Result) MaxDepth() int {
	return max(0, r.Radii.Len()-1)
}

// Compute filters root by expanded and lays out the visible nodes.
//
// Proportional angle shares use subtree sizes of the unfiltered tree, so
// expanding or collapsing a branch never moves the branch itself.
// Returns an error only for a nil root or an invalid cfg.
func Compute(root *tree.Node, expanded tree.Expansion, cfg Config) (*Result, error) {
	if root == nil {
		return nil, errors.New(errors.ErrCodeInvalidTree, "nil tree")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	src := indexSource(root)
	return layout(tree.Filter(root, expanded), cfg, src), nil
}

// LayoutTree lays out a tree that is already filtered. Subtree sizes are
// taken from the tree itself.
func LayoutTree(filtered *tree.Node, cfg Config) (*Result, error) {
	if filtered == nil {
		return nil, errors.New(errors.ErrCodeInvalidTree, "nil tree")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return layout(filtered, cfg, nil), nil
}

func layout(filtered *tree.Node, cfg Config, src *sourceIndex) *Result {
	var sizes sizeFunc
	if src != nil {
		sizes = src.leaves
	}
	h := buildHierarchy(filtered, sizes)
	radii := computeRadii(h, cfg)
	distribute(h, cfg)
	violations := validate(h, cfg)

	res := &Result{
		Nodes:      make([]PositionedNode, 0, len(h.nodes)),
		Radii:      radii,
		Violations: violations,
	}
	for _, n := range h.nodes {
		pn := PositionedNode{
			Path:       n.path,
			Name:       n.node.Name,
			Depth:      n.depth,
			Angle:      normalizeAngle(n.angle),
			Radius:     radii.At(n.depth),
			Kind:       kindOf(n, src),
			Attributes: n.node.Attributes,
		}
		if n.parent != nil {
			pn.ParentPath = n.parent.path
		} else {
			pn.Angle = RootAngle
			pn.Radius = 0
		}
		pn.Clickable = pn.Kind == KindField || pn.Kind == KindCollapsed ||
			pn.Kind == KindCategory && len(n.children) > 0
		res.Nodes = append(res.Nodes, pn)
	}
	return res
}

func kindOf(n *hnode, src *sourceIndex) Kind {
	switch {
	case n.parent == nil:
		return KindRoot
	case n.node.IsField():
		return KindField
	case len(n.children) > 0:
		return KindCategory
	case src != nil && src.hasChildren(n.path):
		return KindCollapsed
	default:
		return KindCategory
	}
}

// sourceIndex records facts about the unfiltered tree by path.
type sourceIndex struct {
	leafCount map[string]int
	branches  map[string]bool
}

func indexSource(root *tree.Node) *sourceIndex {
	idx := &sourceIndex{leafCount: make(map[string]int), branches: make(map[string]bool)}
	var visit func(n *tree.Node, path string) int
	visit = func(n *tree.Node, path string) int {
		if len(n.Children) == 0 {
			idx.leafCount[path] = 1
			return 1
		}
		idx.branches[path] = true
		total := 0
		for _, c := range n.Children {
			total += visit(c, tree.JoinPath(path, c.Name))
		}
		idx.leafCount[path] = total
		return total
	}
	visit(root, root.Name)
	return idx
}

func (s *sourceIndex) leaves(path string) int { return s.leafCount[path] }

func (s *sourceIndex) hasChildren(path string) bool { return s.branches[path] }

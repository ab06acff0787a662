package radial

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/matzehuels/radialtree/pkg/tree"
)

func field(name string) *tree.Node {
	return &tree.Node{Name: name, Attributes: map[string]any{"field_id": name}}
}

func cat(name string, children ...*tree.Node) *tree.Node {
	return &tree.Node{Name: name, Children: children}
}

// fields returns n field leaves named prefix000, prefix001, ...
func fields(prefix string, n int) []*tree.Node {
	out := make([]*tree.Node, n)
	for i := range out {
		out[i] = field(fmt.Sprintf("%s%03d", prefix, i))
	}
	return out
}

// randomTree builds a reproducible tree of the given depth. Inner nodes
// get between 1 and maxFanout children; the last level holds fields.
func randomTree(seed uint64, depth, maxFanout int) *tree.Node {
	rng := rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
	var build func(name string, d int) *tree.Node
	build = func(name string, d int) *tree.Node {
		if d == depth {
			return field(name)
		}
		n := cat(name)
		k := 1 + rng.IntN(maxFanout)
		for i := range k {
			n.Children = append(n.Children, build(fmt.Sprintf("%s.%d", name, i), d+1))
		}
		return n
	}
	return build("root", 0)
}

// balancedTree builds a tree where every inner node has fanout children
// and the leaves at the given depth are fields.
func balancedTree(fanout, depth int) *tree.Node {
	var build func(name string, d int) *tree.Node
	build = func(name string, d int) *tree.Node {
		if d == depth {
			return field(name)
		}
		n := cat(name)
		for i := range fanout {
			n.Children = append(n.Children, build(fmt.Sprintf("%s.%d", name, i), d+1))
		}
		return n
	}
	return build("root", 0)
}

// grid builds root → cats categories with perCat fields each.
func grid(cats, perCat int) *tree.Node {
	root := cat("root")
	for i := range cats {
		name := fmt.Sprintf("c%02d", i)
		root.Children = append(root.Children, cat(name, fields(name+".f", perCat)...))
	}
	return root
}

// angularDistance returns the unsigned circular distance between a and b.
func angularDistance(a, b float64) float64 {
	return math.Abs(angleDelta(a, b))
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

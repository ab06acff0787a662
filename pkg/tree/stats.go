package tree

// LevelStats summarizes the nodes at one depth.
type LevelStats struct {
	Depth          int     `json:"depth"`
	Nodes          int     `json:"nodes"`
	Fields         int     `json:"fields"`
	Categories     int     `json:"categories"`
	Parents        int     `json:"parents"`      // distinct parents of this level's nodes
	MaxSiblings    int     `json:"max_siblings"` // largest sibling group
	AvgLabelLength float64 `json:"avg_label_length"`
	MaxLabelLength int     `json:"max_label_length"`
}

// Stats summarizes the shape of a tree. Label lengths count runes.
type Stats struct {
	TotalNodes int          `json:"total_nodes"`
	MaxDepth   int          `json:"max_depth"`
	Levels     []LevelStats `json:"levels"`
}

// ComputeStats walks root and returns per-level statistics.
// A nil root yields zero Stats.
func ComputeStats(root *Node) Stats {
	var s Stats
	if root == nil {
		return s
	}

	labelTotals := []int{}
	root.Walk(func(n *Node, _ string, depth int) bool {
		for len(s.Levels) <= depth {
			s.Levels = append(s.Levels, LevelStats{Depth: len(s.Levels)})
			labelTotals = append(labelTotals, 0)
		}
		lvl := &s.Levels[depth]
		lvl.Nodes++
		if n.IsField() {
			lvl.Fields++
		} else {
			lvl.Categories++
		}
		l := len([]rune(n.Name))
		labelTotals[depth] += l
		lvl.MaxLabelLength = max(lvl.MaxLabelLength, l)

		if len(n.Children) > 0 {
			for len(s.Levels) <= depth+1 {
				s.Levels = append(s.Levels, LevelStats{Depth: len(s.Levels)})
				labelTotals = append(labelTotals, 0)
			}
			next := &s.Levels[depth+1]
			next.Parents++
			next.MaxSiblings = max(next.MaxSiblings, len(n.Children))
		}
		s.TotalNodes++
		return true
	})

	for i := range s.Levels {
		if s.Levels[i].Nodes > 0 {
			s.Levels[i].AvgLabelLength = float64(labelTotals[i]) / float64(s.Levels[i].Nodes)
		}
	}
	s.MaxDepth = len(s.Levels) - 1
	return s
}

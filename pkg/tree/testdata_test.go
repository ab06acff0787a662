package tree

// field returns a field leaf with the given id.
func field(name string, id int) *Node {
	return &Node{Name: name, Attributes: map[string]any{"field_id": id}}
}

func category(name string, children ...*Node) *Node {
	return &Node{Name: name, Children: children}
}

// sampleTree builds:
//
//	root
//	├── A
//	│   ├── a1 (field)
//	│   └── a2 (field)
//	├── B
//	│   ├── b1 (field)
//	│   └── b2 (field)
//	└── C
//	    └── D
//	        └── d1 (field)
func sampleTree() *Node {
	return category("root",
		category("A", field("a1", 1), field("a2", 2)),
		category("B", field("b1", 3), field("b2", 4)),
		category("C", category("D", field("d1", 5))),
	)
}

func names(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name
	}
	return out
}

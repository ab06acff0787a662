// Package tree provides the hierarchical data model consumed by the radial
// layout engine: nodes, expansion state and the visibility filter.
//
// # Data Model
//
// A [Node] is either a category (a grouping with children) or a field (a
// leaf carrying a non-empty attribute map, e.g. a UK Biobank data field):
//
//	{
//	  "name": "UK Biobank",
//	  "children": [
//	    {
//	      "name": "Assessment centre",
//	      "children": [
//	        {"name": "Date of attending", "attributes": {"field_id": 53}}
//	      ]
//	    }
//	  ]
//	}
//
// The attribute map is also accepted under the "data" key, which is the shape
// of the original static JSON resources.
//
// # Paths
//
// Nodes are addressed by their path: the names from the root down to the
// node, joined by [PathSeparator]. The root is always part of the path, so
// the path of a depth-1 node "A" under root "root" is "root/A". Names are
// unique among siblings but not globally, which makes the path the only
// stable identity of a node.
//
// # Expansion
//
// An [Expansion] is the set of category paths whose children are visible.
// [InitialExpansion] computes the state used when a dataset is first loaded;
// [Expansion.Toggle] flips one branch in response to a click. [Filter]
// applies an expansion to a tree and returns the visible subset.
//
// The layout engine treats an Expansion as a pure input and never mutates it.
//
// # Concurrency
//
// Nodes are plain values. Functions in this package never modify their
// inputs, so a tree may be shared between goroutines as long as no one
// writes to it.
package tree

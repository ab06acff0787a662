// Package pkg provides the libraries behind radialtree, a radial layout
// engine for large category hierarchies.
//
// # Overview
//
// A category tree (for example a biobank field catalogue) is shown as
// concentric rings: the root in the centre, each depth on its own ring,
// and only the categories a user has expanded contribute children. The
// pkg directory is organized into these areas:
//
//  1. [tree] - the input hierarchy, expansion state, visibility filter
//     and CSV import
//  2. [radial] - ring radii, angular distribution and overlap correction
//  3. [export] - JSON and Graphviz DOT documents of a layout
//  4. [pipeline] - orchestration (load → filter → layout → export) with
//     caching
//  5. [cache], [session] - storage backends for layouts and expansion
//     sessions (file, Redis, MongoDB)
//  6. [server] - the HTTP API
//
// # Architecture
//
// The typical data flow:
//
//	tree JSON / field CSV / URL
//	         ↓
//	    [tree] package (parse, filter by expansion)
//	         ↓
//	    [radial] package (radii, angles, overlap correction)
//	         ↓
//	    [export] package (JSON document, DOT)
//
// # Quick Start
//
// Lay out a tree with its default expansion:
//
//	import (
//	    "github.com/matzehuels/radialtree/pkg/radial"
//	    "github.com/matzehuels/radialtree/pkg/tree"
//	)
//
//	root, _ := tree.ReadFile("fields.json")
//	res, _ := radial.Compute(root, tree.InitialExpansion(root), radial.DefaultConfig())
//	for _, n := range res.Nodes {
//	    x, y := n.Cartesian()
//	    fmt.Printf("%s at (%.1f, %.1f)\n", n.Path, x, y)
//	}
//
// # Supporting Packages
//
//   - [config]: TOML, YAML or JSON configuration with environment overrides
//   - [errors]: coded errors shared by the CLI and the HTTP API
//   - [observability]: pipeline, cache and HTTP hooks with a Prometheus
//     implementation
//   - [httputil]: URL fetching with retries
//   - [buildinfo]: version information
//
// [tree]: https://pkg.go.dev/github.com/matzehuels/radialtree/pkg/tree
// [radial]: https://pkg.go.dev/github.com/matzehuels/radialtree/pkg/radial
// [export]: https://pkg.go.dev/github.com/matzehuels/radialtree/pkg/export
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/radialtree/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/radialtree/pkg/cache
// [session]: https://pkg.go.dev/github.com/matzehuels/radialtree/pkg/session
// [server]: https://pkg.go.dev/github.com/matzehuels/radialtree/pkg/server
// [config]: https://pkg.go.dev/github.com/matzehuels/radialtree/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/radialtree/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/radialtree/pkg/observability
// [httputil]: https://pkg.go.dev/github.com/matzehuels/radialtree/pkg/httputil
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/radialtree/pkg/buildinfo
package pkg

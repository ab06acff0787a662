// Package export serializes radial layouts for consumers.
//
// Two formats are supported:
//
//   - JSON: a self-contained document with Cartesian coordinates for every
//     node and a curve control point for every link, ready for a browser
//     renderer.
//   - DOT: a Graphviz document with pinned positions (pos="x,y!"), suitable
//     for neato -n. The document is parsed back with go-graphviz before it
//     is returned, so a malformed label never reaches the caller.
//
// Both formats are deterministic for a given [radial.Result].
package export

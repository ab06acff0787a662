// Package radial computes radial tree layouts.
//
// Given a tree and an expansion state, [Compute] assigns every visible node
// an angle in [0, 2π) and a radius, such that each depth sits on its own
// ring, rings grow strictly outward, and sibling labels keep a minimum
// angular distance.
//
// # Pipeline
//
// A layout runs in four stages:
//
//  1. Filter: [tree.Filter] reduces the tree to the visible nodes.
//  2. Radii: [ComputeLevelRadii] picks one radius per depth. Seed radii grow
//     by a fixed increment; bounded refinement passes then enlarge any ring
//     too small to hold its widest sibling group, followed by separation,
//     mixed-level, backward-layout and large fan-out adjustments.
//  3. Angles: children are placed top-down inside the angular window of
//     their parent, either uniformly or in proportion to the square root of
//     their subtree size. Each sibling group is spaced out locally before
//     the recursion descends.
//  4. Validation: a global pass regroups nodes by depth and separates nodes
//     of different parents that ended up too close.
//
// Every loop is bounded by a pass count from [Config], so a layout always
// terminates in O(passes × nodes). Very dense levels may keep residual
// overlaps; they are reported in [Result.Violations].
//
// # Determinism
//
// With jitter disabled (the default) the output is a pure function of the
// tree, the expansion and the config. With [Config.Jitter] set, jitter is
// drawn from a PCG generator seeded with [Config.Seed], so the layout is
// still reproducible for a given seed.
//
// # Orientation
//
// The root sits at angle π/2. Angles are measured from the top of the
// circle; [PositionedNode.Cartesian] applies the -π/2 rotation renderers
// expect.
//
// # Concurrency
//
// The engine keeps no state between calls and never mutates its inputs.
// Concurrent calls are safe.
package radial

package radial

import (
	"cmp"
	"math"
	"slices"
)

// circularOrder sorts nodes by angle and rotates the order so it starts
// right after the widest gap. The returned values are the nodes' angles
// unwrapped to increase monotonically, so adjacent differences are gaps.
func circularOrder(nodes []*hnode) ([]*hnode, []float64) {
	order := slices.Clone(nodes)
	slices.SortStableFunc(order, func(a, b *hnode) int {
		if c := cmp.Compare(normalizeAngle(a.angle), normalizeAngle(b.angle)); c != 0 {
			return c
		}
		return cmp.Compare(a.order, b.order)
	})

	n := len(order)
	start, widest := 0, -1.0
	for i := range n {
		prev := normalizeAngle(order[(i+n-1)%n].angle)
		cur := normalizeAngle(order[i].angle)
		gap := cur - prev
		if i == 0 {
			gap += twoPi
		}
		if gap > widest {
			start, widest = i, gap
		}
	}

	rotated := make([]*hnode, n)
	vals := make([]float64, n)
	for j := range n {
		i := (start + j) % n
		rotated[j] = order[i]
		vals[j] = normalizeAngle(order[i].angle)
		if i < start {
			vals[j] += twoPi
		}
	}
	return rotated, vals
}

// pushApart walks vals in order and moves each value forward until it is
// at least floor past its predecessor. Reports whether anything moved.
func pushApart(vals []float64, floor float64) bool {
	moved := false
	for i := 1; i < len(vals); i++ {
		if vals[i]-vals[i-1] < floor-epsilon {
			vals[i] = vals[i-1] + floor
			moved = true
		}
	}
	return moved
}

// spaceGroup enforces a minimum angular gap inside one sibling group.
//
// Angles are pushed apart in circular order. If anything moved and recenter
// is set, the group is rotated back toward target by at most
// MaxRecenterShift, then spaced again. A too-narrow gap between the last
// and first node is split between both. Reports whether any angle changed.
func spaceGroup(group []*hnode, target float64, recenter bool, floor float64, cfg Config) bool {
	if len(group) < 2 {
		return false
	}
	order, vals := circularOrder(group)

	moved := pushApart(vals, floor)
	if moved && recenter {
		drift := angleDelta(circularMean(vals), target)
		if math.Abs(drift) > cfg.RecenterTolerance {
			shift := math.Copysign(math.Min(math.Abs(drift), cfg.MaxRecenterShift), drift)
			for i := range vals {
				vals[i] += shift
			}
		}
		pushApart(vals, floor)
	}

	last := len(vals) - 1
	if gap := vals[0] + twoPi - vals[last]; gap < floor-epsilon {
		adj := (floor - gap) / 2
		vals[0] += adj
		vals[last] -= adj
		moved = true
	}

	if !moved {
		return false
	}
	for i, n := range order {
		n.angle = normalizeAngle(vals[i])
	}
	return true
}

// countViolations returns how many circularly adjacent pairs of nodes sit
// closer than floor.
func countViolations(nodes []*hnode, floor float64) int {
	if len(nodes) < 2 {
		return 0
	}
	_, vals := circularOrder(nodes)
	count := 0
	for i := 1; i < len(vals); i++ {
		if vals[i]-vals[i-1] < floor-epsilon {
			count++
		}
	}
	if vals[0]+twoPi-vals[len(vals)-1] < floor-epsilon {
		count++
	}
	return count
}

// validate runs the global overlap correction and returns the residual
// violations per depth.
//
// Levels with violations first get their sibling groups re-spaced around
// the actual parent angles. Then up to GlobalPasses passes walk every
// level in angular order, across parents, pushing nodes forward to a
// slightly wider floor.
func validate(h *hierarchy, cfg Config) map[int]int {
	for d := 1; d < len(h.levels); d++ {
		if countViolations(h.levels[d], cfg.MinAngle(d)) == 0 {
			continue
		}
		for _, g := range h.siblingGroups(d) {
			parent := g[0].parent
			spaceGroup(g, parent.angle, parent != h.root, cfg.MinSpacing(d, len(g)), cfg)
		}
	}

	for pass := 0; pass < cfg.GlobalPasses; pass++ {
		changed := false
		for d := 1; d < len(h.levels); d++ {
			if levelPass(h, d, cfg) {
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	violations := make(map[int]int)
	for d := 1; d < len(h.levels); d++ {
		if v := countViolations(h.levels[d], cfg.MinAngle(d)); v > 0 {
			violations[d] = v
		}
	}
	return violations
}

// levelPass spaces all nodes at depth d in angular order, across parents.
//
// The floor is capped at 2π/n so the level always fits on one turn. Nodes
// pushed past the turn are pulled back toward their predecessors, keeping
// the first node fixed. A pass that leaves more crowded sibling pairs than
// it found is undone. Reports whether any angle changed.
func levelPass(h *hierarchy, d int, cfg Config) bool {
	nodes := h.levels[d]
	if len(nodes) < 2 {
		return false
	}
	floor := min(cfg.MinAngle(d)*cfg.GlobalSpacingFactor, twoPi/float64(len(nodes)))
	order, vals := circularOrder(nodes)
	if !pushApart(vals, floor) && vals[0]+twoPi-vals[len(vals)-1] >= floor-epsilon {
		return false
	}
	pullBack(vals, vals[0]+twoPi-floor, floor)

	before := siblingViolations(h, d, cfg)
	saved := make([]float64, len(order))
	for i, n := range order {
		saved[i] = n.angle
		n.angle = normalizeAngle(vals[i])
	}
	if siblingViolations(h, d, cfg) > before {
		for i, n := range order {
			n.angle = saved[i]
		}
		return false
	}
	return true
}

// pullBack caps the last value at limit and walks backward, keeping every
// value at least floor below its successor. vals[0] never moves.
func pullBack(vals []float64, limit, floor float64) {
	last := len(vals) - 1
	vals[last] = min(vals[last], limit)
	for i := last - 1; i > 0; i-- {
		vals[i] = min(vals[i], vals[i+1]-floor)
	}
}

// siblingViolations counts crowded adjacent pairs inside the sibling
// groups of depth d.
func siblingViolations(h *hierarchy, d int, cfg Config) int {
	count := 0
	for _, g := range h.siblingGroups(d) {
		count += countViolations(g, cfg.MinSpacing(d, len(g)))
	}
	return count
}

package radial

import (
	"math"

	"github.com/matzehuels/radialtree/pkg/tree"
)

// LevelRadii maps depth to ring radius. Index 0 is the root and always 0.
type LevelRadii []float64

// At returns the radius of depth d, or 0 when d is out of range.
func (r LevelRadii) At(d int) float64 {
	if d < 0 || d >= len(r) {
		return 0
	}
	return r[d]
}

// Len returns the number of depths.
func (r LevelRadii) Len() int { return len(r) }

// ComputeLevelRadii returns the ring radius of every depth of root, which
// should already be filtered. A tree without children yields {0}.
//
// The result depends only on the tree shape, the label lengths and cfg.
func ComputeLevelRadii(root *tree.Node, cfg Config) LevelRadii {
	return computeRadii(buildHierarchy(root, nil), cfg)
}

func computeRadii(h *hierarchy, cfg Config) LevelRadii {
	height := h.height()
	if h.root == nil || height <= 0 {
		return LevelRadii{0}
	}

	r := make(LevelRadii, height+1)
	maxR := cfg.maxRadius()

	// Seed.
	r[1] = math.Min(cfg.BaseLevelDistance, maxR)
	for d := 2; d <= height; d++ {
		r[d] = math.Min(r[d-1]+cfg.LevelDistanceIncrement+float64(d)*cfg.LevelDepthTerm, maxR)
	}

	// Refine until every sibling group fits its share of the ring.
	for pass := 0; pass < cfg.RefinePasses; pass++ {
		changed := false
		for d := 1; d <= height; d++ {
			if grown := requiredRadius(h, d, r[d], cfg); grown > r[d] {
				grown = math.Min(grown, maxR)
				if grown > r[d] {
					r[d] = grown
					changed = true
				}
			}
		}
		if enforceSeparation(r, cfg) {
			changed = true
		}
		if !changed {
			break
		}
	}
	enforceSeparation(r, cfg)

	applyMixedBoost(h, r, cfg)

	// Guard against backward rings.
	for d := 1; d <= height; d++ {
		if r[d] <= r[d-1]+cfg.MinLevelGap {
			r[d] = r[d-1] + cfg.MinLevelGap
		}
	}

	applyFanoutBoost(h, r, cfg)
	return r
}

// requiredRadius returns the radius depth d needs so that every sibling
// group fits the angle its parent is allocated, starting from current.
//
// A parent gets 2π/parents of the ring, scaled by the square root of its
// share of the level's nodes.
func requiredRadius(h *hierarchy, d int, current float64, cfg Config) float64 {
	nodesAtLevel := len(h.levels[d])
	if nodesAtLevel == 0 {
		return current
	}
	parents := max(1, len(h.levels[d-1]))

	next := current
	for _, group := range h.siblingGroups(d) {
		if len(group) <= 1 {
			continue
		}
		width := 0.0
		for _, n := range group {
			width += cfg.labelWidth(n.node.Name)
		}
		allocated := 2 * math.Pi / float64(parents) * math.Sqrt(float64(len(group))/float64(nodesAtLevel))
		allocated = math.Min(allocated, 2*math.Pi)
		if allocated <= 0 {
			continue
		}
		if required := width / allocated; required > next {
			next = required * safetyFactor(d, isMixed(group), cfg)
		}
	}
	return next
}

func safetyFactor(d int, mixed bool, cfg Config) float64 {
	f := cfg.SafetyBase
	if mixed {
		f += cfg.SafetyMixed
	}
	if d >= 4 {
		f += cfg.SafetyPerDeepLevel * float64(d-3)
	}
	return f
}

// isMixed reports whether a group holds both field and category nodes.
func isMixed(group []*hnode) bool {
	var fields, categories bool
	for _, n := range group {
		if n.node.IsField() {
			fields = true
		} else {
			categories = true
		}
	}
	return fields && categories
}

// enforceSeparation keeps consecutive rings at least
// increment + d*LevelSeparationDepthTerm apart. Reports whether any ring moved.
func enforceSeparation(r LevelRadii, cfg Config) bool {
	changed := false
	for d := 2; d < len(r); d++ {
		sep := cfg.LevelDistanceIncrement + float64(d)*cfg.LevelSeparationDepthTerm
		if r[d]-r[d-1] < sep-epsilon {
			r[d] = r[d-1] + sep
			changed = true
		}
	}
	return changed
}

// applyMixedBoost widens rings that mix fields and categories under more
// than one field-bearing parent.
func applyMixedBoost(h *hierarchy, r LevelRadii, cfg Config) {
	for d := 1; d < len(r); d++ {
		var fields, categories int
		parents := make(map[*hnode]struct{})
		for _, n := range h.levels[d] {
			if n.node.IsField() {
				fields++
				parents[n.parent] = struct{}{}
			} else {
				categories++
			}
		}
		if fields == 0 || categories == 0 || len(parents) <= 1 {
			continue
		}
		r[d] *= 1 + math.Min(cfg.MixedBoostMax, float64(len(parents))*cfg.MixedBoostPerParent)
	}
}

// applyFanoutBoost grows a ring super-linearly when its largest sibling
// group exceeds LargeFanoutThreshold. The boost carries to every deeper
// ring so their spacing is preserved.
func applyFanoutBoost(h *hierarchy, r LevelRadii, cfg Config) {
	offset := 0.0
	threshold := float64(cfg.LargeFanoutThreshold)
	for d := 1; d < len(r); d++ {
		largest := 0
		for _, g := range h.siblingGroups(d) {
			largest = max(largest, len(g))
		}
		if float64(largest) > threshold {
			excess := math.Pow(float64(largest)/threshold, cfg.LargeFanoutExponent) - 1
			offset += cfg.LargeFanoutScale * cfg.LevelDistanceIncrement * excess
		}
		r[d] += offset
	}
}

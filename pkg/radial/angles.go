package radial

import (
	"math"
	"math/rand/v2"
)

// distributor assigns angles top-down.
type distributor struct {
	cfg  Config
	rng  *rand.Rand // nil when jitter is off
	root *hnode
}

// distribute places every node of h. The root gets RootAngle and the full
// circle as its window.
func distribute(h *hierarchy, cfg Config) {
	if h.root == nil {
		return
	}
	d := distributor{cfg: cfg, root: h.root}
	if cfg.Jitter && cfg.JitterFraction > 0 {
		d.rng = rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0xdeadbeef))
	}
	h.root.angle = RootAngle
	d.place(h.root, 0, twoPi)
}

// place assigns angles to the children of n inside [start, end), spaces
// them out, and recurses.
func (d *distributor) place(n *hnode, start, end float64) {
	n.start, n.end = start, end
	k := len(n.children)
	if k == 0 {
		return
	}
	cfg := d.cfg
	bounds := [2]float64{start, end}

	// Crowded parents only use a window around their own angle.
	if k > cfg.ManyChildrenThreshold {
		limit := math.Pi * cfg.windowFraction(n.depth) * math.Min(1, float64(cfg.WindowReferenceCount)/float64(k))
		span := math.Min(end-start, limit)
		s := math.Max(n.angle-span/2, bounds[0])
		e := math.Min(n.angle+span/2, bounds[1])
		if e > s {
			start, end = s, e
		}
	}

	// Never narrower than the per-child floor allows.
	if need := float64(k) * cfg.MinAngle(n.depth+1); end-start < need {
		mid := (start + end) / 2
		start = math.Max(mid-need/2, bounds[0])
		end = math.Min(mid+need/2, bounds[1])
	}

	windows := d.assign(n, start, end)

	if k > 1 {
		before := make([]float64, k)
		for i, c := range n.children {
			before[i] = c.angle
		}
		floor := cfg.MinSpacing(n.depth+1, k)
		for range cfg.SpacingPasses {
			if !spaceGroup(n.children, n.angle, n != d.root, floor, cfg) {
				break
			}
		}
		for i, c := range n.children {
			windows[i] = shiftWindow(windows[i], angleDelta(before[i], c.angle), bounds)
			mid := (windows[i][0] + windows[i][1]) / 2
			c.angle = mid + angleDelta(mid, c.angle)
		}
	}

	for i, c := range n.children {
		d.place(c, windows[i][0], windows[i][1])
	}
}

// assign sets the children's angles inside [start, end) and returns each
// child's own window.
func (d *distributor) assign(n *hnode, start, end float64) [][2]float64 {
	k := len(n.children)
	windows := make([][2]float64, k)
	span := end - start

	if k == 1 {
		n.children[0].angle = (start + end) / 2
		windows[0] = [2]float64{start, end}
		return windows
	}

	if d.cfg.uniform(n.depth, k) {
		step := span / float64(k)
		for i, c := range n.children {
			ws := start + float64(i)*step
			windows[i] = [2]float64{ws, ws + step}
			c.angle = ws + step/2
			if d.rng != nil {
				c.angle += (d.rng.Float64() - 0.5) * step * d.cfg.JitterFraction
			}
		}
		return windows
	}

	// Proportional to the square root of subtree size.
	total := 0.0
	for _, c := range n.children {
		total += math.Sqrt(math.Max(c.weight, 1))
	}
	cur := start
	for i, c := range n.children {
		share := span * math.Sqrt(math.Max(c.weight, 1)) / total
		windows[i] = [2]float64{cur, cur + share}
		c.angle = cur + share/2
		cur += share
	}
	return windows
}

// shiftWindow moves w by delta and clamps it to bounds. The unshifted
// window is kept if clamping would empty it.
func shiftWindow(w [2]float64, delta float64, bounds [2]float64) [2]float64 {
	if delta == 0 {
		return w
	}
	s := math.Max(w[0]+delta, bounds[0])
	e := math.Min(w[1]+delta, bounds[1])
	if e <= s {
		return w
	}
	return [2]float64{s, e}
}

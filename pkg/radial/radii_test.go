package radial

import (
	"math"
	"testing"

	"github.com/matzehuels/radialtree/pkg/tree"
)

func TestComputeLevelRadiiDegenerate(t *testing.T) {
	for _, root := range []*tree.Node{nil, cat("root"), field("root")} {
		r := ComputeLevelRadii(root, DefaultConfig())
		if r.Len() != 1 || r.At(0) != 0 {
			t.Errorf("radii = %v, want [0]", r)
		}
	}
}

func TestComputeLevelRadiiSeed(t *testing.T) {
	root := cat("root", cat("A", field("a1")))
	r := ComputeLevelRadii(root, DefaultConfig())

	// The seed 150+200+2*5 is lifted to the separation floor 200+2*10.
	want := LevelRadii{0, 150, 370}
	if r.Len() != len(want) {
		t.Fatalf("radii = %v, want %v", r, want)
	}
	for d := range want {
		if !almostEqual(r.At(d), want[d]) {
			t.Errorf("radius(%d) = %v, want %v", d, r.At(d), want[d])
		}
	}
	if r.At(-1) != 0 || r.At(10) != 0 {
		t.Error("out of range depths should report 0")
	}
}

func TestComputeLevelRadiiMonotonic(t *testing.T) {
	capped := DefaultConfig()
	capped.MaxLevelDistance = 200

	mixed := DefaultConfig()
	mixed.MixedBoostMax = 2
	mixed.MixedBoostPerParent = 1

	tests := []struct {
		name string
		root *tree.Node
		cfg  Config
	}{
		{"Chain", cat("root", cat("a", cat("b", cat("c", field("d"))))), DefaultConfig()},
		{"Capped", cat("root", cat("a", cat("b", cat("c", field("d"))))), capped},
		{"StrongMixedBoost", cat("root", cat("A", field("f1"), cat("C1", field("x"))), cat("B", field("f2"), cat("C2", field("y")))), mixed},
		{"Random1", randomTree(1, 6, 6), DefaultConfig()},
		{"Random2", randomTree(2, 4, 30), DefaultConfig()},
		{"Random3", randomTree(3, 7, 3), capped},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ComputeLevelRadii(tt.root, tt.cfg)
			if r.At(0) != 0 {
				t.Errorf("radius(0) = %v", r.At(0))
			}
			for d := 1; d < r.Len(); d++ {
				if !(r.At(d) > r.At(d-1)) {
					t.Errorf("radius(%d) = %v not above radius(%d) = %v", d, r.At(d), d-1, r.At(d-1))
				}
			}
		})
	}
}

func TestComputeLevelRadiiMixedBoost(t *testing.T) {
	root := cat("root",
		cat("A", field("f1"), cat("C1")),
		cat("B", field("f2"), cat("C2")),
	)
	r := ComputeLevelRadii(root, DefaultConfig())

	// Two parents carry fields at depth 2: 370 * (1 + 2*0.08).
	if want := 370 * 1.16; !almostEqual(r.At(2), want) {
		t.Errorf("radius(2) = %v, want %v", r.At(2), want)
	}
}

func TestComputeLevelRadiiRefinement(t *testing.T) {
	// 40 long labels under a single depth-1 parent cannot fit the seed ring.
	kids := make([]*tree.Node, 40)
	for i := range kids {
		kids[i] = field("a rather long field label " + string(rune('A'+i%26)) + string(rune('a'+i/26)))
	}
	root := cat("root", cat("A", kids...))
	cfg := DefaultConfig()
	r := ComputeLevelRadii(root, cfg)

	width := 0.0
	for _, k := range kids {
		width += cfg.labelWidth(k.Name)
	}
	if minimum := width / (2 * math.Pi); r.At(2) < minimum {
		t.Errorf("radius(2) = %v, cannot hold %v units of labels (need %v)", r.At(2), width, minimum)
	}
}

func TestComputeLevelRadiiLargeFanout(t *testing.T) {
	build := func(n int) *tree.Node {
		return cat("root", cat("A", cat("B", fields("f", n)...)))
	}
	cfg := DefaultConfig()

	small := ComputeLevelRadii(build(10), cfg)
	large := ComputeLevelRadii(build(500), cfg)

	if !(large.At(3) > small.At(3)) {
		t.Errorf("radius(3) with 500 children = %v, with 10 = %v", large.At(3), small.At(3))
	}
	if !almostEqual(small.At(3), 600) {
		t.Errorf("radius(3) with 10 children = %v, want 600", small.At(3))
	}
}

func TestFanoutBoostPropagates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LargeFanoutThreshold = 2

	// Three children at depth 1 exceed the threshold; depth 2 inherits the boost.
	root := cat("root", cat("a", field("x")), cat("b"), cat("c"))
	withBoost := ComputeLevelRadii(root, cfg)

	cfg.LargeFanoutScale = 0
	without := ComputeLevelRadii(root, cfg)

	boost := 0.5 * 200 * (math.Pow(1.5, 1.5) - 1)
	for d := 1; d <= 2; d++ {
		if got := withBoost.At(d) - without.At(d); !almostEqual(got, boost) {
			t.Errorf("boost at depth %d = %v, want %v", d, got, boost)
		}
	}
}

func TestComputeLevelRadiiDeterministic(t *testing.T) {
	root := randomTree(7, 5, 12)
	a := ComputeLevelRadii(root, DefaultConfig())
	b := ComputeLevelRadii(root, DefaultConfig())
	for d := range a {
		if a[d] != b[d] {
			t.Fatalf("radius(%d) differs: %v vs %v", d, a[d], b[d])
		}
	}
}

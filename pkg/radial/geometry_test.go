package radial

import (
	"math"
	"testing"
)

func TestNormalizeAngle(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{0, 0},
		{math.Pi, math.Pi},
		{2 * math.Pi, 0},
		{-math.Pi / 2, 1.5 * math.Pi},
		{5 * math.Pi, math.Pi},
	}
	for _, tt := range tests {
		if got := normalizeAngle(tt.in); !almostEqual(got, tt.want) {
			t.Errorf("normalizeAngle(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestAngleDelta(t *testing.T) {
	tests := []struct{ a, b, want float64 }{
		{0, 1, 1},
		{1, 0, -1},
		{0.1, 2*math.Pi - 0.1, -0.2},
		{2*math.Pi - 0.1, 0.1, 0.2},
	}
	for _, tt := range tests {
		if got := angleDelta(tt.a, tt.b); !almostEqual(got, tt.want) {
			t.Errorf("angleDelta(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestToCartesian(t *testing.T) {
	tests := []struct {
		angle, radius, x, y float64
	}{
		{0, 10, 0, -10},
		{math.Pi / 2, 10, 10, 0},
		{math.Pi, 10, 0, 10},
		{1, 0, 0, 0},
	}
	for _, tt := range tests {
		x, y := ToCartesian(tt.angle, tt.radius)
		if !almostEqual(x, tt.x) || !almostEqual(y, tt.y) {
			t.Errorf("ToCartesian(%v, %v) = (%v, %v), want (%v, %v)", tt.angle, tt.radius, x, y, tt.x, tt.y)
		}
	}

	n := PositionedNode{Angle: math.Pi / 2, Radius: 3}
	if x, y := n.Cartesian(); !almostEqual(x, 3) || !almostEqual(y, 0) {
		t.Errorf("Cartesian() = (%v, %v)", x, y)
	}
}

func TestLinkControlPoint(t *testing.T) {
	parent := PositionedNode{Angle: math.Pi / 2, Radius: 100}
	child := PositionedNode{Angle: math.Pi / 2, Radius: 200}
	if x, y := LinkControlPoint(parent, child); !almostEqual(x, 200) || !almostEqual(y, 0) {
		t.Errorf("straight link control = (%v, %v), want (200, 0)", x, y)
	}

	// A quarter turn bulges by 1 + 0.3*0.1 on the mid angle.
	child = PositionedNode{Angle: math.Pi, Radius: 200}
	x, y := LinkControlPoint(parent, child)
	wx, wy := ToCartesian(0.75*math.Pi, 200*1.03)
	if !almostEqual(x, wx) || !almostEqual(y, wy) {
		t.Errorf("curved link control = (%v, %v), want (%v, %v)", x, y, wx, wy)
	}
}

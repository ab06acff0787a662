package radial

import (
	"math"
)

const (
	twoPi   = 2 * math.Pi
	epsilon = 1e-9
)

// normalizeAngle maps a into [0, 2π).
func normalizeAngle(a float64) float64 {
	a = math.Mod(a, twoPi)
	if a < 0 {
		a += twoPi
	}
	if a >= twoPi {
		a = 0
	}
	return a
}

// angleDelta returns the signed shortest rotation from a to b, in [-π, π].
func angleDelta(a, b float64) float64 {
	d := math.Mod(b-a, twoPi)
	switch {
	case d > math.Pi:
		d -= twoPi
	case d < -math.Pi:
		d += twoPi
	}
	return d
}

// circularMean returns the mean direction of angles. Falls back to the
// first angle when the vectors cancel out.
func circularMean(angles []float64) float64 {
	var sx, sy float64
	for _, a := range angles {
		sx += math.Cos(a)
		sy += math.Sin(a)
	}
	if math.Abs(sx) < epsilon && math.Abs(sy) < epsilon {
		return angles[0]
	}
	return math.Atan2(sy, sx)
}

// ToCartesian converts a layout angle and radius to screen coordinates.
// Angle 0 points up; the root's angle π/2 therefore points right.
func ToCartesian(angle, radius float64) (x, y float64) {
	a := angle - math.Pi/2
	return radius * math.Cos(a), radius * math.Sin(a)
}

// LinkControlPoint returns the control point of the quadratic curve that
// joins parent to child. It sits on the mid angle, slightly outside the
// larger of the two radii, bulging more for wider angular spans.
func LinkControlPoint(parent, child PositionedNode) (x, y float64) {
	diff := angleDelta(parent.Angle, child.Angle)
	factor := math.Min(0.3, math.Abs(diff)/math.Pi)
	mid := parent.Angle + diff/2
	r := math.Max(parent.Radius, child.Radius) * (1 + factor*0.1)
	return ToCartesian(mid, r)
}

package vmath

import "math"

const (
	// Epsilon is the magnitude below which direction vectors are treated as degenerate
	Epsilon = 1e-4

	Deg2Rad = math.Pi / 180
	Rad2Deg = 180 / math.Pi
)

// Clamp restricts v to [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp01 restricts v to [0, 1]
func Clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}

// Lerp blends a toward b by t without clamping
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// WrapAngle maps radians into (-pi, pi]
func WrapAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

// LerpAngle moves radians a toward b along the shortest arc by t (clamped)
func LerpAngle(a, b, t float64) float64 {
	return WrapAngle(a + WrapAngle(b-a)*Clamp01(t))
}

// MoveTowards steps current toward target by at most maxDelta
func MoveTowards(current, target, maxDelta float64) float64 {
	if current < target {
		return math.Min(target, current+maxDelta)
	}
	return math.Max(target, current-maxDelta)
}

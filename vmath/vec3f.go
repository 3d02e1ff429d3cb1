package vmath

import (
	"math"
)

// Vec3F is a float64 3D vector in world space
// Y is up, Z is forward at zero yaw, X is right
type Vec3F struct {
	X, Y, Z float64
}

// Up is the world up axis
var Up = Vec3F{0, 1, 0}

func V3FAdd(a, b Vec3F) Vec3F {
	return Vec3F{a.X + b.X, a.Y + b.Y, a.Z + b.Z}
}

func V3FSub(a, b Vec3F) Vec3F {
	return Vec3F{a.X - b.X, a.Y - b.Y, a.Z - b.Z}
}

func V3FScale(v Vec3F, s float64) Vec3F {
	return Vec3F{v.X * s, v.Y * s, v.Z * s}
}

func V3FDot(a, b Vec3F) float64 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

func V3FCross(a, b Vec3F) Vec3F {
	return Vec3F{
		a.Y*b.Z - a.Z*b.Y,
		a.Z*b.X - a.X*b.Z,
		a.X*b.Y - a.Y*b.X,
	}
}

func V3FMagSq(v Vec3F) float64 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

func V3FMag(v Vec3F) float64 {
	return math.Sqrt(V3FMagSq(v))
}

// V3FDist returns euclidean distance between two points
func V3FDist(a, b Vec3F) float64 {
	return V3FMag(V3FSub(a, b))
}

// V3FDistSq returns squared distance, cheaper for comparisons
func V3FDistSq(a, b Vec3F) float64 {
	return V3FMagSq(V3FSub(a, b))
}

// V3FNormalize returns the unit vector, or zero for vectors below Epsilon
func V3FNormalize(v Vec3F) Vec3F {
	mag := V3FMag(v)
	if mag < Epsilon {
		return Vec3F{}
	}
	inv := 1.0 / mag
	return Vec3F{v.X * inv, v.Y * inv, v.Z * inv}
}

// V3FFlatten projects v onto the horizontal plane (drops the up component)
func V3FFlatten(v Vec3F) Vec3F {
	return Vec3F{v.X, 0, v.Z}
}

// V3FLerp blends a toward b by t, t is clamped to [0,1]
func V3FLerp(a, b Vec3F, t float64) Vec3F {
	t = Clamp01(t)
	return Vec3F{
		a.X + (b.X-a.X)*t,
		a.Y + (b.Y-a.Y)*t,
		a.Z + (b.Z-a.Z)*t,
	}
}

// V3FSignedAngleY returns the angle in degrees from a to b around the up axis
// Positive when b is clockwise of a seen from above (right turn)
// Returns 0 when either vector is degenerate
func V3FSignedAngleY(a, b Vec3F) float64 {
	fa := V3FNormalize(V3FFlatten(a))
	fb := V3FNormalize(V3FFlatten(b))
	if V3FMagSq(fa) == 0 || V3FMagSq(fb) == 0 {
		return 0
	}
	cross := V3FCross(fa, fb)
	angle := math.Atan2(cross.Y, V3FDot(fa, fb))
	return angle * Rad2Deg
}

// V3FFromYaw returns the horizontal unit forward vector for yaw radians
func V3FFromYaw(yaw float64) Vec3F {
	return Vec3F{math.Sin(yaw), 0, math.Cos(yaw)}
}

// V3FYaw returns the yaw in radians of the horizontal part of v
func V3FYaw(v Vec3F) float64 {
	return math.Atan2(v.X, v.Z)
}

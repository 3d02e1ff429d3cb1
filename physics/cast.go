package physics

import (
	"math"

	"github.com/lixenwraith/vi-traffic/sensor"
	"github.com/lixenwraith/vi-traffic/vmath"
)

// castSphere sweeps a sphere of radius along unit dir against a sphere body
// Reduces to a ray against the body sphere inflated by radius
func castSphere(origin, dir vmath.Vec3F, radius, maxRange float64, b *Body) (sensor.Hit, bool) {
	combined := b.Radius + radius
	toCenter := vmath.V3FSub(b.Position, origin)
	distSq := vmath.V3FMagSq(toCenter)

	// Overlapping at start
	if distSq <= combined*combined {
		return sensor.Hit{
			Point:    surfaceToward(b.Position, origin, b.Radius),
			Distance: 0,
		}, true
	}

	proj := vmath.V3FDot(toCenter, dir)
	disc := proj*proj - (distSq - combined*combined)
	if disc < 0 {
		return sensor.Hit{}, false
	}
	t := proj - math.Sqrt(disc)
	if t < 0 || t > maxRange {
		return sensor.Hit{}, false
	}

	// Contact lies on the segment between the swept center and body center
	center := vmath.V3FAdd(origin, vmath.V3FScale(dir, t))
	point := vmath.V3FAdd(center, vmath.V3FScale(vmath.V3FSub(b.Position, center), radius/combined))
	return sensor.Hit{Point: point, Distance: t}, true
}

// castBox sweeps a sphere against an axis-aligned box inflated by radius (slab test)
// Corner rounding of the Minkowski sum is ignored, which slightly overestimates corner hits
func castBox(origin, dir vmath.Vec3F, radius, maxRange float64, b *Body) (sensor.Hit, bool) {
	ext := vmath.Vec3F{X: b.HalfExtents.X + radius, Y: b.HalfExtents.Y + radius, Z: b.HalfExtents.Z + radius}
	lo := vmath.V3FSub(b.Position, ext)
	hi := vmath.V3FAdd(b.Position, ext)

	o := [3]float64{origin.X, origin.Y, origin.Z}
	d := [3]float64{dir.X, dir.Y, dir.Z}
	mn := [3]float64{lo.X, lo.Y, lo.Z}
	mx := [3]float64{hi.X, hi.Y, hi.Z}

	tEnter, tExit := math.Inf(-1), math.Inf(1)
	for axis := 0; axis < 3; axis++ {
		if math.Abs(d[axis]) < 1e-12 {
			if o[axis] < mn[axis] || o[axis] > mx[axis] {
				return sensor.Hit{}, false
			}
			continue
		}
		inv := 1 / d[axis]
		t1 := (mn[axis] - o[axis]) * inv
		t2 := (mx[axis] - o[axis]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tEnter = math.Max(tEnter, t1)
		tExit = math.Min(tExit, t2)
		if tEnter > tExit {
			return sensor.Hit{}, false
		}
	}
	if tExit < 0 {
		return sensor.Hit{}, false
	}

	t := math.Max(tEnter, 0)
	if t > maxRange {
		return sensor.Hit{}, false
	}

	center := vmath.V3FAdd(origin, vmath.V3FScale(dir, t))
	return sensor.Hit{Point: closestOnBox(center, b), Distance: t}, true
}

// closestOnBox clamps p into the body box
func closestOnBox(p vmath.Vec3F, b *Body) vmath.Vec3F {
	return vmath.Vec3F{
		X: vmath.Clamp(p.X, b.Position.X-b.HalfExtents.X, b.Position.X+b.HalfExtents.X),
		Y: vmath.Clamp(p.Y, b.Position.Y-b.HalfExtents.Y, b.Position.Y+b.HalfExtents.Y),
		Z: vmath.Clamp(p.Z, b.Position.Z-b.HalfExtents.Z, b.Position.Z+b.HalfExtents.Z),
	}
}

// surfaceToward returns the point on a sphere surface facing from
func surfaceToward(center, from vmath.Vec3F, radius float64) vmath.Vec3F {
	dir := vmath.V3FNormalize(vmath.V3FSub(from, center))
	return vmath.V3FAdd(center, vmath.V3FScale(dir, radius))
}

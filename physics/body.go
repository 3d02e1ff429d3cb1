package physics

import (
	"github.com/lixenwraith/vi-traffic/sensor"
	"github.com/lixenwraith/vi-traffic/vmath"
)

// ShapeKind selects the collider primitive
type ShapeKind uint8

const (
	ShapeSphere ShapeKind = iota
	ShapeBox
)

// Body is a static or kinematic collider
// Parent links bodies into a hierarchy (e.g. a bumper collider under a car root)
type Body struct {
	ID      sensor.BodyID
	Parent  sensor.BodyID
	Name    string
	Layer   uint32
	Trigger bool

	Shape       ShapeKind
	Radius      float64     // ShapeSphere
	HalfExtents vmath.Vec3F // ShapeBox, axis aligned

	Position vmath.Vec3F
}

// bounds returns the XZ footprint of the body
func (b *Body) bounds() (minX, minZ, maxX, maxZ float64) {
	ex, ez := b.Radius, b.Radius
	if b.Shape == ShapeBox {
		ex, ez = b.HalfExtents.X, b.HalfExtents.Z
	}
	return b.Position.X - ex, b.Position.Z - ez, b.Position.X + ex, b.Position.Z + ez
}

// Sphere builds a sphere body description
func Sphere(name string, layer uint32, pos vmath.Vec3F, radius float64) Body {
	return Body{Name: name, Layer: layer, Shape: ShapeSphere, Radius: radius, Position: pos}
}

// Box builds an axis-aligned box body description
func Box(name string, layer uint32, pos, halfExtents vmath.Vec3F) Body {
	return Body{Name: name, Layer: layer, Shape: ShapeBox, HalfExtents: halfExtents, Position: pos}
}

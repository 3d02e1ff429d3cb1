package sensor

import (
	"github.com/lixenwraith/vi-traffic/vmath"
)

// BodyID identifies a collider body in the spatial backend, 0 is no body
type BodyID uint64

// Hit is one body intersected by a forward cast
type Hit struct {
	Body     BodyID
	Point    vmath.Vec3F // contact point on the hit body
	Distance float64     // travel of the cast volume until contact
}

// Filter narrows which bodies a cast may return
type Filter struct {
	Layers          uint32 // bitmask, 0 matches every layer
	IncludeTriggers bool
}

// Matches reports whether a body on layer with trigger flag passes the filter
func (f Filter) Matches(layer uint32, trigger bool) bool {
	if trigger && !f.IncludeTriggers {
		return false
	}
	return f.Layers == 0 || f.Layers&layer != 0
}

// Query is the spatial capability the sensor casts against
// Any spatial index or physics backend can satisfy it
type Query interface {
	// QueryForward casts a sphere of radius from origin along unit dir for maxRange
	QueryForward(origin, dir vmath.Vec3F, radius, maxRange float64, filter Filter) []Hit

	// IsChildOf reports whether body is ancestor or below it in the body hierarchy
	IsChildOf(body, ancestor BodyID) bool
}

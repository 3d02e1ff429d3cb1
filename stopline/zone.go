package stopline

import (
	"sort"

	"github.com/lixenwraith/vi-traffic/vehicle"
	"github.com/lixenwraith/vi-traffic/vmath"
)

// Target is a vehicle that can occupy a zone, satisfied by vehicle.Controller
type Target interface {
	ID() vehicle.ID
	Position() vmath.Vec3F
	SetStopline(blocked bool, point vmath.Vec3F)
}

// Bounds is an axis-aligned box, inclusive on all faces
type Bounds struct {
	Min, Max vmath.Vec3F
}

// BoundsAround builds bounds from a center and half extents
func BoundsAround(center, half vmath.Vec3F) Bounds {
	return Bounds{
		Min: vmath.V3FSub(center, half),
		Max: vmath.V3FAdd(center, half),
	}
}

// Contains reports whether p lies inside the box
func (b Bounds) Contains(p vmath.Vec3F) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Center returns the box midpoint
func (b Bounds) Center() vmath.Vec3F {
	return vmath.V3FScale(vmath.V3FAdd(b.Min, b.Max), 0.5)
}

// ChangeFunc observes every signal pushed into a vehicle
type ChangeFunc func(z *Zone, id vehicle.ID, blocked bool)

// Zone is a trigger volume in front of a stop point
// Occupants receive (blocked, Point) on entry and whenever blocked changes,
// and (false, Point) when they leave
type Zone struct {
	Name   string
	Bounds Bounds
	Point  vmath.Vec3F

	blocked   bool
	occupants map[vehicle.ID]Target
	onChange  ChangeFunc
}

// NewZone creates an initially clear zone
func NewZone(name string, bounds Bounds, point vmath.Vec3F) *Zone {
	return &Zone{
		Name:      name,
		Bounds:    bounds,
		Point:     point,
		occupants: make(map[vehicle.ID]Target),
	}
}

// OnChange registers the push observer
func (z *Zone) OnChange(fn ChangeFunc) {
	z.onChange = fn
}

// Blocked returns the current gate state
func (z *Zone) Blocked() bool { return z.blocked }

// SetBlocked changes the gate and pushes the new state to every occupant
func (z *Zone) SetBlocked(blocked bool) {
	if z.blocked == blocked {
		return
	}
	z.blocked = blocked
	for _, id := range z.occupantIDs() {
		z.push(z.occupants[id], blocked)
	}
}

// Update recomputes occupancy from target positions
// Targets missing from the slice are dropped silently (despawned)
func (z *Zone) Update(targets []Target) {
	present := make(map[vehicle.ID]struct{}, len(targets))

	for _, t := range targets {
		id := t.ID()
		present[id] = struct{}{}

		inside := z.Bounds.Contains(t.Position())
		_, was := z.occupants[id]

		switch {
		case inside && !was:
			z.occupants[id] = t
			z.push(t, z.blocked)
		case !inside && was:
			delete(z.occupants, id)
			z.push(t, false)
		}
	}

	for id := range z.occupants {
		if _, ok := present[id]; !ok {
			delete(z.occupants, id)
		}
	}
}

// Occupied reports whether id is inside the zone
func (z *Zone) Occupied(id vehicle.ID) bool {
	_, ok := z.occupants[id]
	return ok
}

// Occupants returns the number of vehicles inside
func (z *Zone) Occupants() int { return len(z.occupants) }

func (z *Zone) push(t Target, blocked bool) {
	t.SetStopline(blocked, z.Point)
	if z.onChange != nil {
		z.onChange(z, t.ID(), blocked)
	}
}

// occupantIDs returns ids in ascending order so pushes are deterministic
func (z *Zone) occupantIDs() []vehicle.ID {
	ids := make([]vehicle.ID, 0, len(z.occupants))
	for id := range z.occupants {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

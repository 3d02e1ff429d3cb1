package physics

import (
	"sync"

	"github.com/lixenwraith/vi-traffic/parameter"
	"github.com/lixenwraith/vi-traffic/sensor"
	"github.com/lixenwraith/vi-traffic/vmath"
)

// maxHierarchyDepth bounds parent walks against accidental cycles
const maxHierarchyDepth = 32

// World is the body registry and spatial query backend
// Implements sensor.Query
type World struct {
	mu     sync.RWMutex
	bodies map[sensor.BodyID]*Body
	grid   *Grid
	nextID sensor.BodyID
}

// NewWorld creates an empty world with the default broadphase cell size
func NewWorld() *World {
	return &World{
		bodies: make(map[sensor.BodyID]*Body),
		grid:   NewGrid(parameter.BroadphaseCellSize),
	}
}

// Add registers a body and returns its assigned ID
func (w *World) Add(b Body) sensor.BodyID {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.nextID++
	b.ID = w.nextID
	body := &b
	w.bodies[b.ID] = body
	w.index(body)
	return b.ID
}

// Remove unregisters a body, children keep their now-dangling parent link
func (w *World) Remove(id sensor.BodyID) {
	w.mu.Lock()
	defer w.mu.Unlock()

	b, ok := w.bodies[id]
	if !ok {
		return
	}
	w.unindex(b)
	delete(w.bodies, id)
}

// Move relocates a body and updates its broadphase cells
func (w *World) Move(id sensor.BodyID, pos vmath.Vec3F) {
	w.mu.Lock()
	defer w.mu.Unlock()

	b, ok := w.bodies[id]
	if !ok {
		return
	}
	w.unindex(b)
	b.Position = pos
	w.index(b)
}

// Get returns a copy of the body
func (w *World) Get(id sensor.BodyID) (Body, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	b, ok := w.bodies[id]
	if !ok {
		return Body{}, false
	}
	return *b, true
}

// Count returns the number of registered bodies
func (w *World) Count() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.bodies)
}

// Bodies returns copies of all bodies, order unspecified
func (w *World) Bodies() []Body {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]Body, 0, len(w.bodies))
	for _, b := range w.bodies {
		out = append(out, *b)
	}
	return out
}

// IsChildOf reports whether body equals ancestor or is below it
func (w *World) IsChildOf(body, ancestor sensor.BodyID) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	cur := body
	for depth := 0; depth < maxHierarchyDepth && cur != 0; depth++ {
		if cur == ancestor {
			return true
		}
		b, ok := w.bodies[cur]
		if !ok {
			return false
		}
		cur = b.Parent
	}
	return false
}

// QueryForward sphere-casts against registered bodies
// Results are unordered, bodies overlapping the start report distance 0
func (w *World) QueryForward(origin, dir vmath.Vec3F, radius, maxRange float64, filter sensor.Filter) []sensor.Hit {
	w.mu.RLock()
	defer w.mu.RUnlock()

	end := vmath.V3FAdd(origin, vmath.V3FScale(dir, maxRange))
	minX, maxX := minMax(origin.X, end.X)
	minZ, maxZ := minMax(origin.Z, end.Z)
	candidates := w.grid.Collect(nil, minX-radius, minZ-radius, maxX+radius, maxZ+radius)

	var hits []sensor.Hit
	for _, id := range candidates {
		b := w.bodies[id]
		if b == nil || !filter.Matches(b.Layer, b.Trigger) {
			continue
		}

		var (
			h  sensor.Hit
			ok bool
		)
		switch b.Shape {
		case ShapeBox:
			h, ok = castBox(origin, dir, radius, maxRange, b)
		default:
			h, ok = castSphere(origin, dir, radius, maxRange, b)
		}
		if ok {
			h.Body = id
			hits = append(hits, h)
		}
	}
	return hits
}

// Overlapping returns bodies whose XZ footprint comes within radius of center
func (w *World) Overlapping(center vmath.Vec3F, radius float64, filter sensor.Filter) []sensor.BodyID {
	w.mu.RLock()
	defer w.mu.RUnlock()

	candidates := w.grid.Collect(nil, center.X-radius, center.Z-radius, center.X+radius, center.Z+radius)

	var out []sensor.BodyID
	for _, id := range candidates {
		b := w.bodies[id]
		if b == nil || !filter.Matches(b.Layer, b.Trigger) {
			continue
		}
		minX, minZ, maxX, maxZ := b.bounds()
		if b.Shape == ShapeSphere {
			d := vmath.V3FDist(vmath.V3FFlatten(center), vmath.V3FFlatten(b.Position))
			if d <= radius+b.Radius {
				out = append(out, id)
			}
			continue
		}
		dx := center.X - vmath.Clamp(center.X, minX, maxX)
		dz := center.Z - vmath.Clamp(center.Z, minZ, maxZ)
		if dx*dx+dz*dz <= radius*radius {
			out = append(out, id)
		}
	}
	return out
}

func (w *World) index(b *Body) {
	minX, minZ, maxX, maxZ := b.bounds()
	w.grid.Add(b.ID, minX, minZ, maxX, maxZ)
}

func (w *World) unindex(b *Body) {
	minX, minZ, maxX, maxZ := b.bounds()
	w.grid.Remove(b.ID, minX, minZ, maxX, maxZ)
}

func minMax(a, b float64) (float64, float64) {
	if a < b {
		return a, b
	}
	return b, a
}

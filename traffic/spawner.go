package traffic

import (
	"github.com/lixenwraith/vi-traffic/parameter"
	"github.com/lixenwraith/vi-traffic/route"
	"github.com/lixenwraith/vi-traffic/vehicle"
	"github.com/lixenwraith/vi-traffic/vmath"
)

// Spawner keeps up to Max vehicles alive on one route
// A spawn is attempted every Interval seconds while below Max and the spawn point is clear
type Spawner struct {
	Route    string
	Max      int
	Interval float64
	Waypoint int // spawn waypoint index

	path  *route.Path
	live  map[vehicle.ID]struct{}
	timer float64

	spawned   uint64
	despawned uint64
}

// NewSpawner creates a pool for path, the first spawn is due immediately
func NewSpawner(path *route.Path, limit int, interval float64, waypoint int) *Spawner {
	waypoint = min(waypoint, path.Len()-1)
	return &Spawner{
		Route:    path.Name,
		Max:      max(limit, 0),
		Interval: max(interval, 0),
		Waypoint: max(waypoint, 0),
		path:     path,
		live:     make(map[vehicle.ID]struct{}),
		timer:    max(interval, 0),
	}
}

// Path returns the route vehicles are placed on
func (s *Spawner) Path() *route.Path { return s.path }

// Live returns the number of vehicles currently owned
func (s *Spawner) Live() int { return len(s.live) }

// Stats returns lifetime spawn and despawn counts
func (s *Spawner) Stats() (spawned, despawned uint64) { return s.spawned, s.despawned }

// due advances the timer and reports whether a spawn should be attempted
func (s *Spawner) due(dt float64) bool {
	if s.path.Empty() || len(s.live) >= s.Max {
		return false
	}
	s.timer += dt
	return s.timer >= s.Interval
}

// pose returns the spawn placement facing the following waypoint
func (s *Spawner) pose() vehicle.Pose {
	at := s.path.At(s.Waypoint).Position
	next := s.path.At((s.Waypoint + 1) % s.path.Len()).Position
	var yaw float64
	if dir := vmath.V3FFlatten(vmath.V3FSub(next, at)); vmath.V3FMag(dir) > vmath.Epsilon {
		yaw = vmath.V3FYaw(dir)
	}
	return vehicle.Pose{Position: at, Yaw: yaw}
}

// added records a spawn and restarts the interval
func (s *Spawner) added(id vehicle.ID) {
	s.live[id] = struct{}{}
	s.spawned++
	s.timer = 0
}

// blocked keeps the timer saturated so the next clear step spawns
func (s *Spawner) blocked() {
	s.timer = s.Interval
}

// removed frees the slot held by id, reporting whether it was owned
func (s *Spawner) removed(id vehicle.ID) bool {
	if _, ok := s.live[id]; !ok {
		return false
	}
	delete(s.live, id)
	s.despawned++
	return true
}

// clearance is the free radius required at the spawn point
func (s *Spawner) clearance() float64 {
	return parameter.SpawnerClearance
}

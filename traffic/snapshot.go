package traffic

import (
	"github.com/lixenwraith/vi-traffic/blinker"
	"github.com/lixenwraith/vi-traffic/physics"
	"github.com/lixenwraith/vi-traffic/route"
	"github.com/lixenwraith/vi-traffic/sensor"
	"github.com/lixenwraith/vi-traffic/stopline"
	"github.com/lixenwraith/vi-traffic/vehicle"
	"github.com/lixenwraith/vi-traffic/vmath"
)

// VehicleView is a copy of one vehicle's observable state
type VehicleView struct {
	ID          vehicle.ID
	Route       string
	Position    vmath.Vec3F
	Yaw         float64
	Speed       float64
	Desired     float64
	TargetIndex int
	SteerDeg    float64
	Holding     bool
	Blinker     blinker.Mode
	LeftLamp    bool
	RightLamp   bool
	WheelSpin   float64 // front-left spin angle in degrees

	// Last sensor reading
	GapFound bool
	Gap      float64
	Hit      sensor.BodyID
	HitPoint vmath.Vec3F
}

// ZoneView is a copy of one stop-line zone
type ZoneView struct {
	Name      string
	Bounds    stopline.Bounds
	Point     vmath.Vec3F
	Blocked   bool
	Occupants int
	Signal    bool // driven by a timed signal
}

// Snapshot is a consistent copy of the simulation for viewers
type Snapshot struct {
	Tick      int64
	Elapsed   float64
	Paused    bool
	Vehicles  []VehicleView
	Zones     []ZoneView
	Obstacles []physics.Body
	Paths     []*route.Path // shared, read-only
	Spawned   uint64
	Despawned uint64
}

// Snapshot copies the current state under the read lock
func (s *Sim) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Tick:     s.tick,
		Elapsed:  s.elapsed,
		Paused:   s.Paused(),
		Vehicles: make([]VehicleView, 0, len(s.order)),
		Zones:    make([]ZoneView, 0, len(s.zones)),
	}

	for _, id := range s.order {
		a := s.agents[id]
		c := a.Controller
		v := VehicleView{
			ID:          id,
			Route:       a.Route,
			Position:    c.Position(),
			Yaw:         c.Yaw(),
			Speed:       c.Speed(),
			Desired:     c.DesiredSpeed(),
			TargetIndex: c.TargetIndex(),
			SteerDeg:    a.Wheels.SmoothSteer(),
			Holding:     c.Holding(),
			Blinker:     a.Blinker.Current(),
		}
		v.LeftLamp, v.RightLamp = a.Lamps()
		if r := a.Sensor.Last(); r.Found {
			v.GapFound, v.Gap, v.Hit, v.HitPoint = true, r.Gap, r.Body, r.Point
		}
		if front := a.Wheels.Front; len(front) > 0 {
			v.WheelSpin = front[0].Angle
		}
		snap.Vehicles = append(snap.Vehicles, v)
	}

	for _, z := range s.zones {
		snap.Zones = append(snap.Zones, ZoneView{
			Name:      z.Name,
			Bounds:    z.Bounds,
			Point:     z.Point,
			Blocked:   z.Blocked(),
			Occupants: z.Occupants(),
			Signal:    s.signaled[z],
		})
	}

	for _, id := range s.obstacles {
		if b, ok := s.world.Get(id); ok {
			snap.Obstacles = append(snap.Obstacles, b)
		}
	}

	for _, name := range s.routeNames() {
		snap.Paths = append(snap.Paths, s.paths[name])
	}

	for _, sp := range s.spawners {
		spawned, despawned := sp.Stats()
		snap.Spawned += spawned
		snap.Despawned += despawned
	}
	return snap
}

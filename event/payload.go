package event

import (
	"github.com/lixenwraith/vi-traffic/blinker"
	"github.com/lixenwraith/vi-traffic/vehicle"
	"github.com/lixenwraith/vi-traffic/vmath"
)

// VehicleSpawnedPayload is sent when a spawner places a vehicle
type VehicleSpawnedPayload struct {
	Vehicle  vehicle.ID
	Route    string
	Position vmath.Vec3F
	Index    int // first target waypoint
}

// VehicleDespawnedPayload is sent once per vehicle on termination
type VehicleDespawnedPayload struct {
	Vehicle  vehicle.ID
	Route    string
	Position vmath.Vec3F
	Index    int
	Marker   bool // despawn marker rather than end of route
}

// WaypointReachedPayload is sent on every arrival
type WaypointReachedPayload struct {
	Vehicle vehicle.ID
	Route   string
	Index   int
	Name    string
}

// BlinkerChangedPayload is sent on blinker mode transitions
type BlinkerChangedPayload struct {
	Vehicle vehicle.ID
	From    blinker.Mode
	To      blinker.Mode
}

// StoplineChangedPayload is sent when a zone pushes into a vehicle
type StoplineChangedPayload struct {
	Zone    string
	Vehicle vehicle.ID
	Blocked bool
}

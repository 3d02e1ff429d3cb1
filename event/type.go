package event

// EventType represents the type of simulation event
type EventType int

const (
	// EventNone is the zero value, never pushed
	EventNone EventType = iota

	// EventVehicleSpawned signals a new vehicle on a route
	// Trigger: Spawner | Payload: *VehicleSpawnedPayload
	EventVehicleSpawned

	// EventVehicleDespawned signals a vehicle leaving the simulation
	// Trigger: controller despawn marker or end of route | Payload: *VehicleDespawnedPayload
	EventVehicleDespawned

	// EventWaypointReached signals arrival at a waypoint, before annotations apply
	// Trigger: controller arrival | Payload: *WaypointReachedPayload
	EventWaypointReached

	// EventBlinkerChanged signals a blinker mode transition
	// Trigger: blinker.Machine OnChange | Payload: *BlinkerChangedPayload
	EventBlinkerChanged

	// EventStoplineChanged signals a stop-line push into a vehicle
	// Trigger: stopline.Zone | Payload: *StoplineChangedPayload
	EventStoplineChanged
)

// SimEvent is one queued event stamped with the step that produced it
type SimEvent struct {
	Type    EventType
	Payload any
	Tick    int64
}

var typeNames = map[EventType]string{
	EventNone:             "None",
	EventVehicleSpawned:   "VehicleSpawned",
	EventVehicleDespawned: "VehicleDespawned",
	EventWaypointReached:  "WaypointReached",
	EventBlinkerChanged:   "BlinkerChanged",
	EventStoplineChanged:  "StoplineChanged",
}

func (t EventType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "Unknown"
}

// ParseType returns the EventType for a name as produced by String
func ParseType(name string) (EventType, bool) {
	for t, n := range typeNames {
		if n == name {
			return t, true
		}
	}
	return EventNone, false
}

// AllTypes lists every pushable event type
func AllTypes() []EventType {
	return []EventType{
		EventVehicleSpawned,
		EventVehicleDespawned,
		EventWaypointReached,
		EventBlinkerChanged,
		EventStoplineChanged,
	}
}

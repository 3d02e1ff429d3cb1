package parameter

// Spacing sensor
const (
	// SensorRange is the forward cast distance
	SensorRange = 12.0

	// SensorRadius is the cast sphere radius, wider is more reliable lane sensing
	SensorRadius = 1.0

	// SensorRadiusMin floors the cast radius
	SensorRadiusMin = 0.01

	// SensorMinAlignment rejects hits whose direction from origin is not meaningfully ahead
	SensorMinAlignment = 0.2
)

// Collision layers
const (
	LayerNPC      uint32 = 1 << 0
	LayerObstacle uint32 = 1 << 1
	LayerPlayer   uint32 = 1 << 2

	// LayerDefaultObstacles is the sensor mask for NPC plus barriers
	LayerDefaultObstacles = LayerNPC | LayerObstacle
)

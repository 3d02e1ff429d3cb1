package parameter

// Driving defaults (meters, seconds)
const (
	// VehicleMaxSpeed is the cruise speed in m/s (~32 km/h)
	VehicleMaxSpeed = 9.0

	// VehicleAccel is the speed gain per second when below desired speed
	VehicleAccel = 5.0

	// VehicleBrake is the speed loss per second when above desired speed
	VehicleBrake = 12.0

	// VehicleSteerLerp is the fraction of the remaining heading error closed per second
	VehicleSteerLerp = 4.0

	// VehicleWaypointRadius is the arrival distance for a waypoint
	VehicleWaypointRadius = 1.0

	// VehicleWaypointRadiusMin floors a misconfigured arrival radius
	VehicleWaypointRadiusMin = 0.05

	// VehicleSteerVisualMaxDeg clamps the wheel steer angle exposed to visuals
	VehicleSteerVisualMaxDeg = 35.0

	// VehicleSpawnAdvanceFactor scales waypoint radius for the spawn-on-waypoint skip
	VehicleSpawnAdvanceFactor = 0.5
)

// Following distance
const (
	// VehicleMinGap is the desired following distance in meters
	VehicleMinGap = 6.0

	// VehicleCrawlSpeed is the speed used when the gap is inside minGap but above minGap/2
	VehicleCrawlSpeed = 2.0
)

// Stop-line braking
const (
	// StoplineBuffer is the distance before the line where desired speed reaches 0
	StoplineBuffer = 1.5

	// StoplineHoldSnapBack is how far behind the line an overshooting vehicle is pulled
	StoplineHoldSnapBack = 0.15

	// StoplineHoldDeadzone is the distance inside which desired speed is forced to 0
	StoplineHoldDeadzone = 0.08

	// StoplineSnapBlend is the fraction of the snap-back correction applied per tick
	StoplineSnapBlend = 0.6
)

// Vehicle body
const (
	// VehicleBodyRadius is the collision sphere radius of an NPC body
	VehicleBodyRadius = 1.2

	// VehicleSensorOffset places the sensor origin ahead of the body center (front bumper)
	VehicleSensorOffset = 2.1
)

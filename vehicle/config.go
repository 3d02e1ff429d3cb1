package vehicle

import (
	"math"

	"github.com/lixenwraith/vi-traffic/parameter"
)

// Config holds the per-vehicle driving tunables
type Config struct {
	// Driving
	MaxSpeed       float64 // m/s
	Accel          float64 // m/s^2
	Brake          float64 // m/s^2
	SteerLerp      float64 // heading smoothing rate per second
	WaypointRadius float64 // arrival distance

	// Spacing
	MinGap     float64 // desired following distance
	CrawlSpeed float64 // m/s when inside MinGap
	// SensorOffset places the sensor origin ahead of the vehicle position
	SensorOffset float64

	// Stop-line braking
	StopBuffer   float64 // meters before the line to target 0 m/s
	HoldSnapBack float64 // meters behind the line an overshooting vehicle is pulled to
	HoldDeadzone float64 // inside this distance desired speed is 0

	// Route
	Loop               bool
	StartIndex         int
	AutoPickStartIndex bool // pick the closest waypoint from the spawn position
}

// DefaultConfig returns the stock NPC tuning
func DefaultConfig() Config {
	return Config{
		MaxSpeed:           parameter.VehicleMaxSpeed,
		Accel:              parameter.VehicleAccel,
		Brake:              parameter.VehicleBrake,
		SteerLerp:          parameter.VehicleSteerLerp,
		WaypointRadius:     parameter.VehicleWaypointRadius,
		MinGap:             parameter.VehicleMinGap,
		CrawlSpeed:         parameter.VehicleCrawlSpeed,
		SensorOffset:       parameter.VehicleSensorOffset,
		StopBuffer:         parameter.StoplineBuffer,
		HoldSnapBack:       parameter.StoplineHoldSnapBack,
		HoldDeadzone:       parameter.StoplineHoldDeadzone,
		Loop:               true,
		AutoPickStartIndex: true,
	}
}

// Sanitize clamps values into ranges the controller can run with
// Authoring is expected to avoid these, the controller guards numerically instead of failing
func (c Config) Sanitize() Config {
	c.MaxSpeed = nonNegative(c.MaxSpeed)
	c.Accel = nonNegative(c.Accel)
	c.Brake = nonNegative(c.Brake)
	c.SteerLerp = nonNegative(c.SteerLerp)
	c.WaypointRadius = math.Max(c.WaypointRadius, parameter.VehicleWaypointRadiusMin)
	c.MinGap = nonNegative(c.MinGap)
	c.CrawlSpeed = nonNegative(c.CrawlSpeed)
	c.StopBuffer = nonNegative(c.StopBuffer)
	c.HoldSnapBack = nonNegative(c.HoldSnapBack)
	c.HoldDeadzone = nonNegative(c.HoldDeadzone)
	if c.StartIndex < 0 {
		c.StartIndex = 0
	}
	return c
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}

package parameter

// Wheel visuals
const (
	// WheelRadius is the default wheel radius in meters
	WheelRadius = 0.33

	// WheelRadiusMin floors the radius to avoid division blowup
	WheelRadiusMin = 0.001

	// WheelSteerLerp is the visual steer smoothing rate per second
	WheelSteerLerp = 10.0

	// WheelSpinMultiplier is 1 for physical spin, -1 flips direction
	WheelSpinMultiplier = 1.0

	// WheelDtMin guards the steer lerp against zero frame time
	WheelDtMin = 0.000001
)

package parameter

// Blink cycle
const (
	// BlinkOnTime is the seconds a side stays lit per cycle
	BlinkOnTime = 0.5

	// BlinkOffTime is the seconds a side stays dark per cycle
	BlinkOffTime = 0.5

	// BlinkEmissionIntensity multiplies the emission color (linear space)
	BlinkEmissionIntensity = 2.5
)

// BlinkEmissionColor is amber-ish, RGB in [0,1]
var BlinkEmissionColor = [3]float64{1.0, 0.6, 0.0}

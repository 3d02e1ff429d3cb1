package blinker

import "math"

// Emitter receives per-side lamp state on every phase change
// Rendering technique (objects, lights, emissive materials) is the emitter's concern
type Emitter interface {
	Apply(left, right bool)
}

// EmitterFunc adapts a function to Emitter
type EmitterFunc func(left, right bool)

func (f EmitterFunc) Apply(left, right bool) { f(left, right) }

// MultiEmitter fans out to several emitters in order
type MultiEmitter []Emitter

func (m MultiEmitter) Apply(left, right bool) {
	for _, e := range m {
		if e != nil {
			e.Apply(left, right)
		}
	}
}

// Glow returns the emission color for a lit or dark lamp
// Lit color is Color scaled by the gamma-space value of Intensity, dark is black
func (c Config) Glow(on bool) [3]float64 {
	if !on {
		return [3]float64{}
	}
	k := linearToGamma(c.Intensity)
	return [3]float64{c.Color[0] * k, c.Color[1] * k, c.Color[2] * k}
}

// linearToGamma applies the sRGB transfer curve
func linearToGamma(v float64) float64 {
	switch {
	case v <= 0:
		return 0
	case v <= 0.0031308:
		return 12.92 * v
	default:
		return 1.055*math.Pow(v, 1/2.4) - 0.055
	}
}

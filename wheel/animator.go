package wheel

import (
	"fmt"
	"math"
	"strings"

	"github.com/lixenwraith/vi-traffic/parameter"
	"github.com/lixenwraith/vi-traffic/vmath"
)

// Axis selects the local axis a wheel spins around
type Axis uint8

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return "unknown"
	}
}

// Unit returns the axis direction
func (a Axis) Unit() vmath.Vec3F {
	switch a {
	case AxisY:
		return vmath.Vec3F{Y: 1}
	case AxisZ:
		return vmath.Vec3F{Z: 1}
	default:
		return vmath.Vec3F{X: 1}
	}
}

// component picks the axis component of v
func (a Axis) component(v vmath.Vec3F) float64 {
	switch a {
	case AxisY:
		return v.Y
	case AxisZ:
		return v.Z
	default:
		return v.X
	}
}

// ParseAxis accepts x, y or z in any case
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "x":
		return AxisX, nil
	case "y":
		return AxisY, nil
	case "z":
		return AxisZ, nil
	}
	return AxisX, fmt.Errorf("unknown spin axis %q", s)
}

// Wheel is one visual wheel
type Wheel struct {
	Name     string
	Radius   float64 // meters
	SpinAxis Axis

	// Scale multiplies the radius on the spin axis when ScaleRadius is set
	Scale       vmath.Vec3F
	ScaleRadius bool

	// Angle is the accumulated spin in degrees
	Angle float64
}

// DefaultWheel returns a unit-scale wheel spinning on X
func DefaultWheel(name string) Wheel {
	return Wheel{
		Name:        name,
		Radius:      parameter.WheelRadius,
		SpinAxis:    AxisX,
		Scale:       vmath.Vec3F{X: 1, Y: 1, Z: 1},
		ScaleRadius: true,
	}
}

// EffectiveRadius is the floored radius times the scale on the spin axis
func (w *Wheel) EffectiveRadius() float64 {
	r := math.Max(parameter.WheelRadiusMin, w.Radius)
	if w.ScaleRadius {
		r *= math.Abs(w.SpinAxis.component(w.Scale))
	}
	// Zero scale would divide by zero
	return math.Max(parameter.WheelRadiusMin, r)
}

// SpinDelta returns degrees rolled at speed over dt
func (w *Wheel) SpinDelta(speed, dt, multiplier float64) float64 {
	return speed / w.EffectiveRadius() * vmath.Rad2Deg * dt * multiplier
}

// Source is what the animator observes, satisfied by vehicle.Controller
type Source interface {
	Position() vmath.Vec3F
	SteerVisualDeg() float64
}

// Config holds animator tuning
type Config struct {
	SteerLerp      float64
	SpinMultiplier float64 // 1 physical, -1 flips direction
}

// DefaultConfig returns the stock wheel tuning
func DefaultConfig() Config {
	return Config{
		SteerLerp:      parameter.WheelSteerLerp,
		SpinMultiplier: parameter.WheelSpinMultiplier,
	}
}

// Animator derives wheel steer and spin from an observed vehicle
// It never writes back to the source
type Animator struct {
	cfg   Config
	src   Source
	meter SpeedMeter

	Front []Wheel
	Rear  []Wheel

	smoothSteer float64
	speed       float64
}

// NewAnimator creates an animator with the given wheel sets
func NewAnimator(cfg Config, src Source, front, rear []Wheel) *Animator {
	return &Animator{
		cfg:   cfg,
		src:   src,
		Front: front,
		Rear:  rear,
	}
}

// Update smooths the steer angle, then spins every wheel by measured speed
func (a *Animator) Update(dt float64) {
	var target float64
	if a.src != nil {
		target = a.src.SteerVisualDeg()
	}
	a.smoothSteer = vmath.Lerp(a.smoothSteer, target, vmath.Clamp01(a.cfg.SteerLerp*math.Max(parameter.WheelDtMin, dt)))

	if dt <= 0 || a.src == nil {
		return
	}

	a.speed = a.meter.Sample(a.src.Position(), dt)
	spin(a.Front, a.speed, dt, a.cfg.SpinMultiplier)
	spin(a.Rear, a.speed, dt, a.cfg.SpinMultiplier)
}

func spin(wheels []Wheel, speed, dt, multiplier float64) {
	for i := range wheels {
		wheels[i].Angle += wheels[i].SpinDelta(speed, dt, multiplier)
	}
}

// SmoothSteer returns the front pivot yaw in degrees
func (a *Animator) SmoothSteer() float64 { return a.smoothSteer }

// Speed returns the last measured speed
func (a *Animator) Speed() float64 { return a.speed }

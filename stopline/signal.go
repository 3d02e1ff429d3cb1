package stopline

import (
	"math"
)

// Signal is a fixed-cycle traffic light driving one zone
// The cycle starts red at elapsed 0, Offset shifts it forward in time
type Signal struct {
	Red    float64 // seconds
	Green  float64 // seconds
	Offset float64 // seconds

	zone    *Zone
	elapsed float64
}

// NewSignal attaches a cycle to zone and applies its initial state
func NewSignal(zone *Zone, red, green, offset float64) *Signal {
	s := &Signal{
		Red:    math.Max(0, red),
		Green:  math.Max(0, green),
		Offset: offset,
		zone:   zone,
	}
	s.apply()
	return s
}

// Update advances the cycle and sets the zone's blocked flag
func (s *Signal) Update(dt float64) {
	if dt > 0 {
		s.elapsed += dt
	}
	s.apply()
}

// IsRed reports whether the light is red at the current time
func (s *Signal) IsRed() bool {
	period := s.Red + s.Green
	if period <= 0 {
		return false
	}
	if s.Green <= 0 {
		return true
	}
	t := math.Mod(s.elapsed+s.Offset, period)
	if t < 0 {
		t += period
	}
	return t < s.Red
}

// Zone returns the driven zone
func (s *Signal) Zone() *Zone { return s.zone }

func (s *Signal) apply() {
	if s.zone != nil {
		s.zone.SetBlocked(s.IsRed())
	}
}

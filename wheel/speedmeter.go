package wheel

import (
	"github.com/lixenwraith/vi-traffic/vmath"
)

// SpeedMeter measures speed from successive position samples
type SpeedMeter struct {
	last  vmath.Vec3F
	has   bool
	speed float64
}

// Sample records pos and returns distance travelled over dt
// The first sample returns 0, a non-positive dt returns the previous value
func (m *SpeedMeter) Sample(pos vmath.Vec3F, dt float64) float64 {
	if !m.has {
		m.last = pos
		m.has = true
		m.speed = 0
		return 0
	}
	if dt <= 0 {
		return m.speed
	}
	m.speed = vmath.V3FDist(pos, m.last) / dt
	m.last = pos
	return m.speed
}

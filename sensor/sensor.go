package sensor

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/lixenwraith/vi-traffic/parameter"
	"github.com/lixenwraith/vi-traffic/vmath"
)

// Config holds spacing sensor tuning
type Config struct {
	Range           float64
	Radius          float64
	MinAlignment    float64 // hits less aligned with forward than this are ignored
	Layers          uint32
	IncludeTriggers bool // true if NPC colliders are triggers
	Debug           bool // log every reading
}

// DefaultConfig returns the stock front-bumper sensor
func DefaultConfig() Config {
	return Config{
		Range:        parameter.SensorRange,
		Radius:       parameter.SensorRadius,
		MinAlignment: parameter.SensorMinAlignment,
		Layers:       parameter.LayerDefaultObstacles,
	}
}

// Reading is the transient result of one cast
type Reading struct {
	Found bool
	Gap   float64
	Body  BodyID
	Point vmath.Vec3F // contact point, valid when Found
}

// Sense casts forward and returns the clearance to the nearest qualifying obstacle
// Self and its hierarchy are excluded, as are hits less aligned than minAlignment
// gap = max(0, distance - radius)
func Sense(q Query, origin, forward vmath.Vec3F, radius, maxRange, minAlignment float64, filter Filter, self BodyID) Reading {
	if q == nil {
		return Reading{}
	}
	dir := vmath.V3FNormalize(forward)
	if vmath.V3FMagSq(dir) == 0 {
		return Reading{}
	}
	radius = math.Max(radius, parameter.SensorRadiusMin)
	maxRange = math.Max(maxRange, 0)

	hits := q.QueryForward(origin, dir, radius, maxRange, filter)

	found := false
	nearest := math.MaxFloat64
	var nearestBody BodyID
	var nearestPoint vmath.Vec3F
	for _, h := range hits {
		if self != 0 && (h.Body == self || q.IsChildOf(h.Body, self)) {
			continue
		}

		toHit := vmath.V3FNormalize(vmath.V3FSub(h.Point, origin))
		if vmath.V3FDot(dir, toHit) < minAlignment {
			continue
		}

		if h.Distance < nearest {
			found = true
			nearest = h.Distance
			nearestBody = h.Body
			nearestPoint = h.Point
		}
	}

	if !found {
		return Reading{}
	}
	return Reading{
		Found: true,
		Gap:   math.Max(0, nearest-radius),
		Body:  nearestBody,
		Point: nearestPoint,
	}
}

// Sensor binds a Config and spatial backend for one vehicle
type Sensor struct {
	cfg   Config
	query Query
	log   zerolog.Logger
	last  Reading
}

// New creates a sensor over query, logging debug traces to log
func New(cfg Config, query Query, log zerolog.Logger) *Sensor {
	return &Sensor{
		cfg:   cfg,
		query: query,
		log:   log,
	}
}

// FrontGap senses from origin along forward excluding self
func (s *Sensor) FrontGap(origin, forward vmath.Vec3F, self BodyID) (float64, bool) {
	filter := Filter{Layers: s.cfg.Layers, IncludeTriggers: s.cfg.IncludeTriggers}
	r := Sense(s.query, origin, forward, s.cfg.Radius, s.cfg.Range, s.cfg.MinAlignment, filter, self)
	s.last = r

	if s.cfg.Debug && r.Found {
		s.log.Debug().
			Uint64("self", uint64(self)).
			Uint64("hit", uint64(r.Body)).
			Float64("gap", r.Gap).
			Msg("front hit")
	}
	return r.Gap, r.Found
}

// Last returns the most recent reading, for debug overlays
func (s *Sensor) Last() Reading {
	return s.last
}

// Config returns the sensor tuning
func (s *Sensor) Config() Config {
	return s.cfg
}

package traffic

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/lixenwraith/vi-traffic/blinker"
	"github.com/lixenwraith/vi-traffic/config"
	"github.com/lixenwraith/vi-traffic/parameter"
	"github.com/lixenwraith/vi-traffic/physics"
	"github.com/lixenwraith/vi-traffic/route"
	"github.com/lixenwraith/vi-traffic/stopline"
	"github.com/lixenwraith/vi-traffic/vehicle"
	"github.com/lixenwraith/vi-traffic/vmath"
)

var (
	// ErrUnknownRoute is returned when a spawner or spawn names a route that was not loaded
	ErrUnknownRoute = errors.New("unknown route")

	// ErrSignalZone is returned when the operator toggles a zone its signal drives
	ErrSignalZone = errors.New("zone is driven by a signal")
)

// OptionsFromConfig converts per-vehicle tuning
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Vehicle:    cfg.VehicleParams(),
		Sensor:     cfg.SensorParams(),
		Blinker:    cfg.BlinkerParams(),
		Wheel:      cfg.WheelParams(),
		WheelShape: cfg.WheelTemplate(""),
		BodyRadius: cfg.Vehicle.BodyRadius,
	}
}

// FromConfig builds a simulation with every route, zone, spawner and obstacle in cfg
// Without configured spawners each route gets a default pool
// lamps may be nil
func FromConfig(cfg *config.Config, paths map[string]*route.Path, log zerolog.Logger, lamps func(vehicle.ID) blinker.Emitter) (*Sim, error) {
	opts := OptionsFromConfig(cfg)
	opts.Lamps = lamps

	s, err := New(opts, log)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(paths))
	for name := range paths {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		p := paths[name]
		s.AddPath(p)
		log.Debug().Str("route", name).Int("waypoints", p.Len()).Float64("length", p.Length()).Msg("route added")
	}

	for i, zc := range cfg.Stoplines {
		name := zc.Name
		if name == "" {
			name = fmt.Sprintf("stopline-%d", i)
		}
		z := stopline.NewZone(name, stopline.BoundsAround(vec(zc.Center), vec(zc.HalfExtents)), vec(zc.Point))

		var sig *stopline.Signal
		if !zc.Manual {
			red, green := zc.Red, zc.Green
			if red == 0 && green == 0 {
				red, green = parameter.SignalRed, parameter.SignalGreen
			}
			sig = stopline.NewSignal(z, red, green, zc.Offset)
		}
		s.AddZone(z, sig)
		log.Debug().Str("zone", name).Bool("signal", sig != nil).Msg("stop-line zone added")
	}

	if len(cfg.Spawners) == 0 {
		for _, name := range names {
			s.AddSpawner(NewSpawner(paths[name], parameter.SpawnerMax, parameter.SpawnerInterval, 0))
		}
	}
	for _, sc := range cfg.Spawners {
		p, ok := paths[sc.Route]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownRoute, sc.Route)
		}
		limit, interval := sc.Max, sc.Interval
		if limit == 0 {
			limit = parameter.SpawnerMax
		}
		if interval == 0 {
			interval = parameter.SpawnerInterval
		}
		s.AddSpawner(NewSpawner(p, limit, interval, sc.Waypoint))
	}

	for i, oc := range cfg.Obstacles {
		name := oc.Name
		if name == "" {
			name = fmt.Sprintf("obstacle-%d", i)
		}
		var b physics.Body
		if oc.Shape == "box" {
			b = physics.Box(name, parameter.LayerObstacle, vec(oc.Position), vec(oc.HalfExtents))
		} else {
			b = physics.Sphere(name, parameter.LayerObstacle, vec(oc.Position), oc.Radius)
		}
		b.Trigger = oc.Trigger
		s.AddObstacle(b)
	}

	log.Info().
		Int("routes", len(paths)).
		Int("zones", len(cfg.Stoplines)).
		Int("spawners", len(s.spawners)).
		Int("obstacles", len(cfg.Obstacles)).
		Msg("simulation built")
	return s, nil
}

func vec(a [3]float64) vmath.Vec3F {
	return vmath.Vec3F{X: a[0], Y: a[1], Z: a[2]}
}

package route

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/vi-traffic/blinker"
	"github.com/lixenwraith/vi-traffic/vmath"
)

// ErrDuplicateRoute is returned when two routes share a name
var ErrDuplicateRoute = errors.New("duplicate route name")

// File is the authored route document
type File struct {
	Routes []RouteDoc `yaml:"routes"`
}

// RouteDoc is one named route in a route file
type RouteDoc struct {
	Name   string        `yaml:"name"`
	Points []WaypointDoc `yaml:"points"`
}

// WaypointDoc is the authored form of a waypoint
type WaypointDoc struct {
	Name    string     `yaml:"name,omitempty"`
	Pos     [3]float64 `yaml:"pos"`
	Blink   *BlinkDoc  `yaml:"blink,omitempty"`
	Despawn bool       `yaml:"despawn,omitempty"`
}

// BlinkDoc is the authored form of a blink instruction
type BlinkDoc struct {
	Mode      string  `yaml:"mode"`
	AutoClear float64 `yaml:"auto_clear,omitempty"`
}

// LoadFile reads and decodes a YAML route file
func LoadFile(path string) (map[string]*Path, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read route file: %w", err)
	}
	paths, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("route file %s: %w", path, err)
	}
	return paths, nil
}

// Parse decodes a YAML route document into paths keyed by route name
func Parse(data []byte) (map[string]*Path, error) {
	var doc File
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	paths := make(map[string]*Path, len(doc.Routes))
	for i, rd := range doc.Routes {
		name := rd.Name
		if name == "" {
			name = fmt.Sprintf("route-%d", i)
		}
		if _, exists := paths[name]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateRoute, name)
		}

		p, err := rd.toPath(name)
		if err != nil {
			return nil, fmt.Errorf("route %q: %w", name, err)
		}
		paths[name] = p
	}
	return paths, nil
}

func (rd RouteDoc) toPath(name string) (*Path, error) {
	p := &Path{Name: name, Points: make([]Waypoint, 0, len(rd.Points))}
	for k, wd := range rd.Points {
		wp := Waypoint{
			Name:     wd.Name,
			Position: vmath.Vec3F{X: wd.Pos[0], Y: wd.Pos[1], Z: wd.Pos[2]},
			Despawn:  wd.Despawn,
		}
		if wd.Blink != nil {
			mode, err := blinker.ParseMode(wd.Blink.Mode)
			if err != nil {
				return nil, fmt.Errorf("waypoint %d: %w", k, err)
			}
			wp.Blink = &BlinkInstruction{Mode: mode, AutoClearSeconds: wd.Blink.AutoClear}
		}
		p.Points = append(p.Points, wp)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Encode renders paths back to the authored YAML form
func Encode(paths ...*Path) ([]byte, error) {
	var doc File
	for _, p := range paths {
		rd := RouteDoc{Name: p.Name}
		for _, wp := range p.Points {
			wd := WaypointDoc{
				Name:    wp.Name,
				Pos:     [3]float64{wp.Position.X, wp.Position.Y, wp.Position.Z},
				Despawn: wp.Despawn,
			}
			if wp.Blink != nil {
				wd.Blink = &BlinkDoc{Mode: wp.Blink.Mode.String(), AutoClear: wp.Blink.AutoClearSeconds}
			}
			rd.Points = append(rd.Points, wd)
		}
		doc.Routes = append(doc.Routes, rd)
	}
	return yaml.Marshal(&doc)
}

package route

import (
	"errors"
	"math"

	"github.com/lixenwraith/vi-traffic/blinker"
	"github.com/lixenwraith/vi-traffic/vmath"
)

// ErrEmptyPath is returned when a path has no waypoints
var ErrEmptyPath = errors.New("path has no waypoints")

// BlinkInstruction tells an arriving vehicle which blinker mode to play
type BlinkInstruction struct {
	Mode blinker.Mode
	// AutoClearSeconds reverts to Off after this long, <= 0 keeps until another instruction
	AutoClearSeconds float64
}

// Waypoint is an authored point on a route with optional annotations
type Waypoint struct {
	Name     string
	Position vmath.Vec3F
	Blink    *BlinkInstruction
	Despawn  bool
}

// Path is an ordered, read-only waypoint sequence shared by any number of vehicles
type Path struct {
	Name   string
	Points []Waypoint
}

// NewPath builds a path from positions without annotations
func NewPath(name string, positions ...vmath.Vec3F) *Path {
	p := &Path{Name: name, Points: make([]Waypoint, len(positions))}
	for i, pos := range positions {
		p.Points[i] = Waypoint{Position: pos}
	}
	return p
}

// Len returns the waypoint count, 0 for a nil path
func (p *Path) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Points)
}

// Empty reports whether the path can drive a vehicle
func (p *Path) Empty() bool {
	return p.Len() == 0
}

// At returns the waypoint at index i, i must be in range
func (p *Path) At(i int) *Waypoint {
	return &p.Points[i]
}

// ClosestIndex returns the waypoint index nearest to pos
// Linear scan, ties resolve to the lowest index, -1 for an empty path
func (p *Path) ClosestIndex(pos vmath.Vec3F) int {
	best := -1
	bestDist := math.MaxFloat64
	for k := 0; k < p.Len(); k++ {
		d := vmath.V3FDistSq(p.Points[k].Position, pos)
		if d < bestDist {
			bestDist = d
			best = k
		}
	}
	return best
}

// Length returns the open polyline length through all waypoints
func (p *Path) Length() float64 {
	total := 0.0
	for k := 1; k < p.Len(); k++ {
		total += vmath.V3FDist(p.Points[k-1].Position, p.Points[k].Position)
	}
	return total
}

// Validate checks that the path is usable by a controller
func (p *Path) Validate() error {
	if p.Empty() {
		return ErrEmptyPath
	}
	return nil
}

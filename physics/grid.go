package physics

import (
	"math"

	"github.com/lixenwraith/vi-traffic/sensor"
)

// cellKey addresses one XZ cell of the broadphase
type cellKey struct {
	X, Z int
}

// Grid is a sparse XZ hash grid for broadphase culling
// Bodies are registered in every cell their footprint overlaps
type Grid struct {
	cellSize float64
	cells    map[cellKey][]sensor.BodyID
}

// NewGrid creates a grid with the given cell edge length in meters
func NewGrid(cellSize float64) *Grid {
	if cellSize <= 0 {
		cellSize = 1
	}
	return &Grid{
		cellSize: cellSize,
		cells:    make(map[cellKey][]sensor.BodyID),
	}
}

func (g *Grid) cellRange(minX, minZ, maxX, maxZ float64) (x0, z0, x1, z1 int) {
	x0 = int(math.Floor(minX / g.cellSize))
	z0 = int(math.Floor(minZ / g.cellSize))
	x1 = int(math.Floor(maxX / g.cellSize))
	z1 = int(math.Floor(maxZ / g.cellSize))
	return
}

// Add inserts id into every cell overlapping the footprint
func (g *Grid) Add(id sensor.BodyID, minX, minZ, maxX, maxZ float64) {
	x0, z0, x1, z1 := g.cellRange(minX, minZ, maxX, maxZ)
	for z := z0; z <= z1; z++ {
		for x := x0; x <= x1; x++ {
			k := cellKey{x, z}
			g.cells[k] = append(g.cells[k], id)
		}
	}
}

// Remove deletes id from every cell overlapping the footprint
// Uses swap-remove, cell order is not preserved
func (g *Grid) Remove(id sensor.BodyID, minX, minZ, maxX, maxZ float64) {
	x0, z0, x1, z1 := g.cellRange(minX, minZ, maxX, maxZ)
	for z := z0; z <= z1; z++ {
		for x := x0; x <= x1; x++ {
			k := cellKey{x, z}
			ids := g.cells[k]
			for i, e := range ids {
				if e == id {
					last := len(ids) - 1
					ids[i] = ids[last]
					ids = ids[:last]
					break
				}
			}
			if len(ids) == 0 {
				delete(g.cells, k)
			} else {
				g.cells[k] = ids
			}
		}
	}
}

// Collect appends unique ids overlapping the footprint to dst
func (g *Grid) Collect(dst []sensor.BodyID, minX, minZ, maxX, maxZ float64) []sensor.BodyID {
	x0, z0, x1, z1 := g.cellRange(minX, minZ, maxX, maxZ)
	seen := make(map[sensor.BodyID]struct{})
	for z := z0; z <= z1; z++ {
		for x := x0; x <= x1; x++ {
			for _, id := range g.cells[cellKey{x, z}] {
				if _, ok := seen[id]; ok {
					continue
				}
				seen[id] = struct{}{}
				dst = append(dst, id)
			}
		}
	}
	return dst
}

package render

import (
	"math"

	"github.com/lixenwraith/vi-traffic/parameter"
	"github.com/lixenwraith/vi-traffic/route"
	"github.com/lixenwraith/vi-traffic/vmath"
)

// Camera maps the XZ ground plane onto terminal cells, +Z is up the screen
type Camera struct {
	CenterX, CenterZ float64
	Scale            float64 // columns per meter, rows use Scale / ViewCellAspect
}

// FitPaths centers the camera on every waypoint and picks the largest scale that shows them
func FitPaths(paths []*route.Path, cols, rows int) Camera {
	minX, minZ := math.Inf(1), math.Inf(1)
	maxX, maxZ := math.Inf(-1), math.Inf(-1)
	for _, p := range paths {
		for _, wp := range p.Points {
			minX = math.Min(minX, wp.Position.X)
			maxX = math.Max(maxX, wp.Position.X)
			minZ = math.Min(minZ, wp.Position.Z)
			maxZ = math.Max(maxZ, wp.Position.Z)
		}
	}
	if math.IsInf(minX, 1) {
		return Camera{Scale: 1}
	}

	pad := parameter.ViewPadding
	width := maxX - minX + 2*pad
	depth := maxZ - minZ + 2*pad

	scale := 1.0
	if cols > 0 && rows > 0 {
		scale = math.Min(float64(cols)/width, float64(rows)*parameter.ViewCellAspect/depth)
	}
	return Camera{
		CenterX: (minX + maxX) / 2,
		CenterZ: (minZ + maxZ) / 2,
		Scale:   scale,
	}
}

// Project returns the cell for p in a cols x rows viewport, ok=false when off screen
func (c Camera) Project(p vmath.Vec3F, cols, rows int) (x, y int, ok bool) {
	fx := (p.X-c.CenterX)*c.Scale + float64(cols)/2
	fy := float64(rows)/2 - (p.Z-c.CenterZ)*c.Scale/parameter.ViewCellAspect
	x, y = int(math.Floor(fx)), int(math.Floor(fy))
	return x, y, x >= 0 && y >= 0 && x < cols && y < rows
}

// Zoom multiplies the scale by factor
func (c *Camera) Zoom(factor float64) {
	if factor > 0 {
		c.Scale *= factor
	}
}

// headingRunes are indexed by octant, 0 faces +Z (screen up), clockwise
var headingRunes = [8]rune{'↑', '↗', '→', '↘', '↓', '↙', '←', '↖'}

// HeadingRune returns the arrow for yaw in radians
func HeadingRune(yaw float64) rune {
	oct := int(math.Round(vmath.WrapAngle(yaw)/(math.Pi/4))) % 8
	if oct < 0 {
		oct += 8
	}
	return headingRunes[oct]
}

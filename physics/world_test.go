package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/vi-traffic/parameter"
	"github.com/lixenwraith/vi-traffic/sensor"
	"github.com/lixenwraith/vi-traffic/vmath"
)

var forward = vmath.Vec3F{Z: 1}

func TestCastSphereAhead(t *testing.T) {
	w := NewWorld()
	id := w.Add(Sphere("car", parameter.LayerNPC, vmath.Vec3F{Z: 10}, 1))

	hits := w.QueryForward(vmath.Vec3F{}, forward, 1, 12, sensor.Filter{})
	require.Len(t, hits, 1)
	assert.Equal(t, id, hits[0].Body)
	// Cast sphere touches body sphere when centers are 2m apart
	assert.InDelta(t, 8.0, hits[0].Distance, 1e-9)
	assert.InDelta(t, 9.0, hits[0].Point.Z, 1e-9)
}

func TestCastRangeAndMiss(t *testing.T) {
	w := NewWorld()
	w.Add(Sphere("far", parameter.LayerNPC, vmath.Vec3F{Z: 30}, 1))
	w.Add(Sphere("side", parameter.LayerNPC, vmath.Vec3F{X: 5, Z: 5}, 1))
	w.Add(Sphere("behind", parameter.LayerNPC, vmath.Vec3F{Z: -5}, 1))

	hits := w.QueryForward(vmath.Vec3F{}, forward, 1, 12, sensor.Filter{})
	assert.Empty(t, hits)
}

func TestCastOverlapAtStart(t *testing.T) {
	w := NewWorld()
	w.Add(Sphere("touching", parameter.LayerNPC, vmath.Vec3F{Z: 1.5}, 1))

	hits := w.QueryForward(vmath.Vec3F{}, forward, 1, 12, sensor.Filter{})
	require.Len(t, hits, 1)
	assert.Zero(t, hits[0].Distance)
	assert.InDelta(t, 0.5, hits[0].Point.Z, 1e-9)
}

func TestCastBox(t *testing.T) {
	w := NewWorld()
	id := w.Add(Box("barrier", parameter.LayerObstacle, vmath.Vec3F{X: 0.5, Z: 6}, vmath.Vec3F{X: 3, Y: 1, Z: 0.5}))

	hits := w.QueryForward(vmath.Vec3F{}, forward, 1, 12, sensor.Filter{})
	require.Len(t, hits, 1)
	assert.Equal(t, id, hits[0].Body)
	// Front face at z=5.5, inflated by 1
	assert.InDelta(t, 4.5, hits[0].Distance, 1e-9)
	assert.InDelta(t, 5.5, hits[0].Point.Z, 1e-9)
}

func TestFilterLayersAndTriggers(t *testing.T) {
	w := NewWorld()
	w.Add(Sphere("npc", parameter.LayerNPC, vmath.Vec3F{Z: 6}, 1))
	trig := Sphere("zone", parameter.LayerObstacle, vmath.Vec3F{Z: 4}, 1)
	trig.Trigger = true
	w.Add(trig)
	w.Add(Sphere("player", parameter.LayerPlayer, vmath.Vec3F{Z: 3}, 1))

	hits := w.QueryForward(vmath.Vec3F{}, forward, 0.5, 12, sensor.Filter{Layers: parameter.LayerDefaultObstacles})
	assert.Len(t, hits, 1)

	hits = w.QueryForward(vmath.Vec3F{}, forward, 0.5, 12, sensor.Filter{Layers: parameter.LayerDefaultObstacles, IncludeTriggers: true})
	assert.Len(t, hits, 2)

	hits = w.QueryForward(vmath.Vec3F{}, forward, 0.5, 12, sensor.Filter{})
	assert.Len(t, hits, 2, "mask 0 matches all layers but still skips triggers")
}

func TestMoveUpdatesBroadphase(t *testing.T) {
	w := NewWorld()
	id := w.Add(Sphere("car", parameter.LayerNPC, vmath.Vec3F{X: 100, Z: 100}, 1))

	assert.Empty(t, w.QueryForward(vmath.Vec3F{}, forward, 1, 12, sensor.Filter{}))

	w.Move(id, vmath.Vec3F{Z: 7})
	hits := w.QueryForward(vmath.Vec3F{}, forward, 1, 12, sensor.Filter{})
	require.Len(t, hits, 1)

	w.Remove(id)
	assert.Empty(t, w.QueryForward(vmath.Vec3F{}, forward, 1, 12, sensor.Filter{}))
	assert.Zero(t, w.Count())
}

func TestIsChildOf(t *testing.T) {
	w := NewWorld()
	root := w.Add(Sphere("car", parameter.LayerNPC, vmath.Vec3F{}, 1))
	bumper := Sphere("bumper", parameter.LayerNPC, vmath.Vec3F{Z: 2}, 0.3)
	bumper.Parent = root
	bumperID := w.Add(bumper)
	other := w.Add(Sphere("other", parameter.LayerNPC, vmath.Vec3F{Z: 20}, 1))

	assert.True(t, w.IsChildOf(bumperID, root))
	assert.True(t, w.IsChildOf(root, root))
	assert.False(t, w.IsChildOf(root, bumperID))
	assert.False(t, w.IsChildOf(other, root))
}

func TestSensorOverWorldExcludesHierarchy(t *testing.T) {
	w := NewWorld()
	self := w.Add(Sphere("self", parameter.LayerNPC, vmath.Vec3F{}, 1.2))
	mirror := Sphere("mirror", parameter.LayerNPC, vmath.Vec3F{Z: 2.5}, 0.3)
	mirror.Parent = self
	w.Add(mirror)
	lead := w.Add(Sphere("lead", parameter.LayerNPC, vmath.Vec3F{Z: 9}, 1.2))

	origin := vmath.Vec3F{Z: 2.1}
	r := sensor.Sense(w, origin, forward, 1, 12, parameter.SensorMinAlignment, sensor.Filter{Layers: parameter.LayerNPC}, self)
	require.True(t, r.Found)
	assert.Equal(t, lead, r.Body)
	// Travel 9 - 2.1 - 2.2 = 4.7, gap subtracts the cast radius
	assert.InDelta(t, 3.7, r.Gap, 1e-9)
}

func TestOverlapping(t *testing.T) {
	w := NewWorld()
	near := w.Add(Sphere("near", parameter.LayerNPC, vmath.Vec3F{X: 3}, 1.2))
	w.Add(Sphere("far", parameter.LayerNPC, vmath.Vec3F{X: 30}, 1.2))
	wall := w.Add(Box("wall", parameter.LayerObstacle, vmath.Vec3F{Z: 5}, vmath.Vec3F{X: 2, Y: 1, Z: 1}))

	got := w.Overlapping(vmath.Vec3F{}, 4, sensor.Filter{Layers: parameter.LayerNPC})
	assert.Equal(t, []sensor.BodyID{near}, got)

	got = w.Overlapping(vmath.Vec3F{}, 4, sensor.Filter{})
	assert.ElementsMatch(t, []sensor.BodyID{near, wall}, got)

	assert.Empty(t, w.Overlapping(vmath.Vec3F{Z: -10}, 2, sensor.Filter{}))
}

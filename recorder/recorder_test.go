package recorder

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/vi-traffic/blinker"
	"github.com/lixenwraith/vi-traffic/event"
	"github.com/lixenwraith/vi-traffic/route"
	"github.com/lixenwraith/vi-traffic/vehicle"
	"github.com/lixenwraith/vi-traffic/vmath"
)

func openMemory(t *testing.T, opts Options) *Recorder {
	t.Helper()
	r, err := Open(opts, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func count(t *testing.T, r *Recorder, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, r.DB().Model(model).Count(&n).Error)
	return n
}

func TestRecorderSamples(t *testing.T) {
	r := openMemory(t, Options{SampleEvery: 5})

	path := route.NewPath("main", vmath.Vec3F{Z: 100})
	c := vehicle.New(7, vehicle.DefaultConfig(), vehicle.Deps{Path: path, Log: zerolog.Nop()}, vehicle.Pose{})
	c.Init()

	for tick := int64(0); tick < 20; tick++ {
		c.Tick(0.02)
		if r.ShouldSample(tick) {
			r.Sample(tick, c, "main")
		}
	}
	assert.Equal(t, 4, r.Pending())
	require.NoError(t, r.Flush())
	assert.Zero(t, r.Pending())

	var rows []VehicleSample
	require.NoError(t, r.DB().Order("tick").Find(&rows).Error)
	require.Len(t, rows, 4)
	assert.Equal(t, []int64{0, 5, 10, 15}, []int64{rows[0].Tick, rows[1].Tick, rows[2].Tick, rows[3].Tick})
	assert.Equal(t, uint64(7), rows[3].Vehicle)
	assert.Equal(t, "main", rows[3].Route)
	assert.Greater(t, rows[3].Z, rows[0].Z)
	assert.Greater(t, rows[3].Speed, 0.0)
}

func TestRecorderPersistsEvents(t *testing.T) {
	r := openMemory(t, Options{})

	r.HandleEvent(event.SimEvent{Type: event.EventVehicleDespawned, Tick: 42, Payload: &event.VehicleDespawnedPayload{
		Vehicle: 3, Route: "loop", Position: vmath.Vec3F{X: 1, Z: 2}, Index: 5, Marker: true,
	}})
	r.HandleEvent(event.SimEvent{Type: event.EventBlinkerChanged, Tick: 40, Payload: &event.BlinkerChangedPayload{
		Vehicle: 3, From: blinker.Off, To: blinker.Left,
	}})
	r.HandleEvent(event.SimEvent{Type: event.EventWaypointReached, Payload: &event.WaypointReachedPayload{}})
	assert.Equal(t, 2, r.Pending(), "unrelated events are ignored")

	require.NoError(t, r.Flush())

	var d Despawn
	require.NoError(t, r.DB().First(&d).Error)
	assert.Equal(t, int64(42), d.Tick)
	assert.Equal(t, uint64(3), d.Vehicle)
	assert.Equal(t, "loop", d.Route)
	assert.Equal(t, 5, d.Index)
	assert.True(t, d.Marker)
	assert.Equal(t, 2.0, d.Z)

	var b BlinkChange
	require.NoError(t, r.DB().First(&b).Error)
	assert.Equal(t, "off", b.From)
	assert.Equal(t, "left", b.To)
}

func TestRecorderAutoFlush(t *testing.T) {
	r := openMemory(t, Options{BatchSize: 3})

	for i := 0; i < 7; i++ {
		r.HandleEvent(event.SimEvent{Type: event.EventBlinkerChanged, Tick: int64(i), Payload: &event.BlinkerChangedPayload{
			Vehicle: vehicle.ID(i), From: blinker.Off, To: blinker.Hazard,
		}})
	}
	assert.Equal(t, 1, r.Pending())
	assert.Equal(t, int64(6), count(t, r, &BlinkChange{}))
}

func TestRecorderCloseFlushesToFile(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "telemetry.db")

	r, err := Open(Options{DSN: dsn}, zerolog.Nop())
	require.NoError(t, err)
	r.HandleEvent(event.SimEvent{Type: event.EventVehicleDespawned, Payload: &event.VehicleDespawnedPayload{Vehicle: 9}})
	require.NoError(t, r.Close())

	reopened, err := Open(Options{DSN: dsn}, zerolog.Nop())
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, int64(1), count(t, reopened, &Despawn{}))
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{}.withDefaults()
	assert.NotEmpty(t, o.DSN)
	assert.Positive(t, o.SampleEvery)
	assert.Positive(t, o.BatchSize)
}

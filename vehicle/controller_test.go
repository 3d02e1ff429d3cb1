package vehicle

import (
	"math"
	"math/rand"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/lixenwraith/vi-traffic/blinker"
	"github.com/lixenwraith/vi-traffic/route"
	"github.com/lixenwraith/vi-traffic/sensor"
	"github.com/lixenwraith/vi-traffic/vmath"
)

const dt = 0.02

// fakeSensor returns a fixed reading and counts queries
type fakeSensor struct {
	gap   float64
	ok    bool
	calls int
	self  sensor.BodyID
}

func (f *fakeSensor) FrontGap(origin, forward vmath.Vec3F, self sensor.BodyID) (float64, bool) {
	f.calls++
	f.self = self
	return f.gap, f.ok
}

type setCall struct {
	mode      blinker.Mode
	autoClear float64
}

// fakeSignaler records blinker commands
type fakeSignaler struct {
	sets      []setCall
	shutdowns int
}

func (f *fakeSignaler) Set(mode blinker.Mode, autoClear float64) {
	f.sets = append(f.sets, setCall{mode, autoClear})
}

func (f *fakeSignaler) Shutdown() { f.shutdowns++ }

// countingSpawner counts despawn notifications per controller
type countingSpawner struct {
	despawned map[ID]int
}

func newCountingSpawner() *countingSpawner {
	return &countingSpawner{despawned: make(map[ID]int)}
}

func (s *countingSpawner) NotifyDespawn(c *Controller) {
	s.despawned[c.ID()]++
}

// straightPath runs along +Z far enough that arrival never triggers in short tests
func straightPath() *route.Path {
	return route.NewPath("straight", vmath.Vec3F{Z: 500}, vmath.Vec3F{Z: 1000})
}

func newController(t *testing.T, cfg Config, deps Deps, pos vmath.Vec3F) *Controller {
	t.Helper()
	deps.Log = zerolog.Nop()
	c := New(1, cfg, deps, Pose{Position: pos})
	c.Init()
	return c
}

func TestEmptyPathIsInert(t *testing.T) {
	for _, p := range []*route.Path{nil, {Name: "empty"}} {
		c := newController(t, DefaultConfig(), Deps{Path: p}, vmath.Vec3F{X: 3})
		for i := 0; i < 10; i++ {
			c.Tick(dt)
		}
		if c.Position() != (vmath.Vec3F{X: 3}) {
			t.Errorf("Expected position unchanged, got %v", c.Position())
		}
		if c.Speed() != 0 {
			t.Errorf("Expected speed 0, got %f", c.Speed())
		}
		if c.Despawned() {
			t.Error("Expected an empty path to never despawn")
		}
	}
}

func TestSpeedBoundsAndRamp(t *testing.T) {
	cfg := DefaultConfig()
	fs := &fakeSensor{}
	square := route.NewPath("square",
		vmath.Vec3F{X: 0, Z: 0},
		vmath.Vec3F{X: 0, Z: 60},
		vmath.Vec3F{X: 60, Z: 60},
		vmath.Vec3F{X: 60, Z: 0},
	)
	c := newController(t, cfg, Deps{Path: square, Sensor: fs}, vmath.Vec3F{X: -2, Z: 5})

	rng := rand.New(rand.NewSource(7))
	prev := c.Speed()
	for i := 0; i < 5000; i++ {
		fs.ok = rng.Intn(3) > 0
		fs.gap = rng.Float64() * 12
		if rng.Intn(50) == 0 {
			ahead := vmath.V3FAdd(c.Position(), vmath.V3FScale(c.Forward(), rng.Float64()*14-2))
			c.SetStopline(rng.Intn(2) == 0, ahead)
		}

		c.Tick(dt)
		if c.Despawned() {
			t.Fatalf("Tick %d: expected a looping path to never despawn", i)
		}

		s := c.Speed()
		if s < 0 || s > cfg.MaxSpeed {
			t.Fatalf("Tick %d: expected speed in [0, %f], got %f", i, cfg.MaxSpeed, s)
		}
		if s > prev && s-prev > cfg.Accel*dt+1e-9 {
			t.Fatalf("Tick %d: expected accel at most %f, got %f", i, cfg.Accel*dt, s-prev)
		}
		if s <= prev && prev-s > cfg.Brake*dt+1e-9 {
			t.Fatalf("Tick %d: expected brake at most %f, got %f", i, cfg.Brake*dt, prev-s)
		}
		prev = s
	}
}

func TestGapArbitration(t *testing.T) {
	tests := []struct {
		name string
		gap  float64
		ok   bool
		want float64
	}{
		{"no reading", 0, false, 9},
		{"clear", 6, true, 9},
		{"crawl band", 3, true, 2},
		{"just under crawl band", 2.999, true, 0},
		{"hard stop", 2, true, 0},
		{"touching", 0, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := &fakeSensor{gap: tt.gap, ok: tt.ok}
			c := newController(t, DefaultConfig(), Deps{Path: straightPath(), Sensor: fs, Body: 42}, vmath.Vec3F{})
			c.Tick(dt)
			if c.DesiredSpeed() != tt.want {
				t.Errorf("Expected desired speed %f, got %f", tt.want, c.DesiredSpeed())
			}
			// Own body is passed for exclusion
			if fs.self != 42 {
				t.Errorf("Expected sensor self 42, got %d", fs.self)
			}
		})
	}
}

func TestCrawlNeverExceedsMaxSpeed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSpeed = 1.5
	cfg.CrawlSpeed = 4
	fs := &fakeSensor{gap: 4, ok: true}
	c := newController(t, cfg, Deps{Path: straightPath(), Sensor: fs}, vmath.Vec3F{})
	c.Tick(dt)
	if c.DesiredSpeed() != 1.5 {
		t.Errorf("Expected desired speed 1.5, got %f", c.DesiredSpeed())
	}
}

func TestStoplineDominatesSensor(t *testing.T) {
	fs := &fakeSensor{gap: 0, ok: true}
	c := newController(t, DefaultConfig(), Deps{Path: straightPath(), Sensor: fs}, vmath.Vec3F{})
	c.SetStopline(true, vmath.Vec3F{Z: 10})

	c.Tick(dt)
	if math.Abs(c.DesiredSpeed()-8.5) > 1e-9 {
		t.Errorf("Expected desired speed 8.5, got %f", c.DesiredSpeed())
	}
	if fs.calls != 0 {
		t.Errorf("Expected sensor skipped while blocked, got %d calls", fs.calls)
	}

	c.SetStopline(false, vmath.Vec3F{Z: 10})
	c.Tick(dt)
	if fs.calls != 1 {
		t.Errorf("Expected 1 sensor call, got %d", fs.calls)
	}
	if c.DesiredSpeed() != 0 {
		t.Errorf("Expected desired speed 0, got %f", c.DesiredSpeed())
	}
}

func TestStoplineApproachProfile(t *testing.T) {
	tests := []struct {
		z    float64
		want float64
	}{
		{0, 8.5},
		{-5, 9}, // dist 15, clamped to max speed
		{2, 6.5},
		{5, 3.5},
		{8.5, 0},
		{9.95, 0}, // inside deadzone
	}

	for _, tt := range tests {
		c := newController(t, DefaultConfig(), Deps{Path: straightPath()}, vmath.Vec3F{Z: tt.z})
		c.SetStopline(true, vmath.Vec3F{Y: 3, Z: 10})
		c.Tick(dt)
		if math.Abs(c.DesiredSpeed()-tt.want) > 1e-9 {
			t.Errorf("z=%v: expected desired speed %f, got %f", tt.z, tt.want, c.DesiredSpeed())
		}
		if c.Holding() {
			t.Errorf("z=%v: expected no hold before the line", tt.z)
		}
	}
}

func TestStoplineApproachStopsBeforeLine(t *testing.T) {
	c := newController(t, DefaultConfig(), Deps{Path: straightPath()}, vmath.Vec3F{})
	c.SetStopline(true, vmath.Vec3F{Z: 10})

	for i := 0; i < 1500; i++ {
		c.Tick(dt)
	}
	z := c.Position().Z
	if z >= 10.0 || z <= 10.0-1.5-0.2 {
		t.Errorf("Expected stop within (8.3, 10), got %f", z)
	}
	if math.Abs(c.Speed()) > 0.05 {
		t.Errorf("Expected speed near 0, got %f", c.Speed())
	}
}

func TestStoplineSnapBack(t *testing.T) {
	c := newController(t, DefaultConfig(), Deps{Path: straightPath()}, vmath.Vec3F{Z: 10.5})
	c.SetStopline(true, vmath.Vec3F{Y: 2, Z: 10})

	c.Tick(dt)
	if !c.Holding() {
		t.Error("Expected hold past the line")
	}
	if c.DesiredSpeed() != 0 {
		t.Errorf("Expected desired speed 0, got %f", c.DesiredSpeed())
	}
	// Blend 60% toward 10 - 0.15
	if math.Abs(c.Position().Z-10.11) > 1e-9 {
		t.Errorf("Expected snap to 10.11, got %f", c.Position().Z)
	}
	if c.Position().Y != 0 {
		t.Errorf("Expected snap to keep the vehicle height, got Y=%f", c.Position().Y)
	}

	// Second snap lands inside the deadzone, the vehicle then stays put
	for i := 0; i < 20; i++ {
		c.Tick(dt)
	}
	if math.Abs(c.Position().Z-9.954) > 1e-9 {
		t.Errorf("Expected rest at 9.954, got %f", c.Position().Z)
	}
	if c.Holding() {
		t.Error("Expected hold released inside the deadzone")
	}
	if c.Speed() != 0 {
		t.Errorf("Expected speed 0, got %f", c.Speed())
	}
}

func TestSteeringClampAndSmoothing(t *testing.T) {
	tests := []struct {
		name   string
		target vmath.Vec3F
		steer  float64
	}{
		{"hard right clamps", vmath.Vec3F{X: 50}, 35},
		{"hard left clamps", vmath.Vec3F{X: -50}, -35},
		{"slight", vmath.Vec3F{X: 10, Z: 100}, math.Atan2(10, 100) * vmath.Rad2Deg},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newController(t, DefaultConfig(), Deps{Path: route.NewPath(tt.name, tt.target)}, vmath.Vec3F{})
			c.Tick(dt)
			if math.Abs(c.SteerVisualDeg()-tt.steer) > 1e-9 {
				t.Errorf("Expected steer %f, got %f", tt.steer, c.SteerVisualDeg())
			}
			if math.Signbit(c.Yaw()) != math.Signbit(tt.steer) {
				t.Errorf("Expected yaw to turn toward the target, got %f", c.Yaw())
			}
		})
	}

	// Hard turn is rate limited to 4 rad/s worth of the right angle
	c := newController(t, DefaultConfig(), Deps{Path: route.NewPath("right", vmath.Vec3F{X: 50})}, vmath.Vec3F{})
	c.Tick(dt)
	if math.Abs(c.Yaw()-4*dt*math.Pi/2) > 1e-9 {
		t.Errorf("Expected yaw %f, got %f", 4*dt*math.Pi/2, c.Yaw())
	}
}

func TestDegenerateDirectionSkipsRotation(t *testing.T) {
	// Single waypoint directly above the vehicle, flat direction is zero
	p := route.NewPath("above", vmath.Vec3F{Y: 5})
	cfg := DefaultConfig()
	cfg.WaypointRadius = 0.1
	c := New(1, cfg, Deps{Path: p, Log: zerolog.Nop()}, Pose{Yaw: 0.4})
	c.Init()

	c.Tick(dt)
	if c.Yaw() != 0.4 {
		t.Errorf("Expected yaw 0.4, got %f", c.Yaw())
	}
	if c.SteerVisualDeg() != 0 {
		t.Errorf("Expected steer 0, got %f", c.SteerVisualDeg())
	}
	if math.IsNaN(c.Position().X) {
		t.Error("Expected a finite position, got NaN")
	}
}

func TestWaypointWrapWithLoop(t *testing.T) {
	p := route.NewPath("three", vmath.Vec3F{Z: 0}, vmath.Vec3F{Z: 10}, vmath.Vec3F{Z: 20})
	cfg := DefaultConfig()
	cfg.AutoPickStartIndex = false
	cfg.StartIndex = 2
	cfg.Loop = true
	sp := newCountingSpawner()

	c := newController(t, cfg, Deps{Path: p, Spawner: sp}, vmath.Vec3F{Z: 19.3})
	if c.TargetIndex() != 2 {
		t.Fatalf("Expected start index 2, got %d", c.TargetIndex())
	}

	c.Tick(dt)
	if c.TargetIndex() != 0 {
		t.Errorf("Expected wrap to 0, got %d", c.TargetIndex())
	}
	if len(sp.despawned) != 0 {
		t.Errorf("Expected no despawn on a loop, got %v", sp.despawned)
	}
}

func TestTerminalDespawn(t *testing.T) {
	p := route.NewPath("three", vmath.Vec3F{Z: 0}, vmath.Vec3F{Z: 10}, vmath.Vec3F{Z: 20})
	cfg := DefaultConfig()
	cfg.AutoPickStartIndex = false
	cfg.StartIndex = 2
	cfg.Loop = false
	sp := newCountingSpawner()
	sig := &fakeSignaler{}

	c := newController(t, cfg, Deps{Path: p, Spawner: sp, Blinker: sig}, vmath.Vec3F{Z: 19.3})
	c.Tick(dt)

	if !c.Despawned() {
		t.Fatal("Expected despawn at the last waypoint")
	}
	if c.Speed() != 0 {
		t.Errorf("Expected speed 0, got %f", c.Speed())
	}
	if sp.despawned[1] != 1 {
		t.Errorf("Expected 1 despawn notification, got %d", sp.despawned[1])
	}
	if c.TargetIndex() != 2 {
		t.Errorf("Expected index to stay at 2, got %d", c.TargetIndex())
	}
	if sig.shutdowns != 1 {
		t.Errorf("Expected despawn to force the blinker off once, got %d", sig.shutdowns)
	}

	pos := c.Position()
	for i := 0; i < 10; i++ {
		c.Tick(dt)
	}
	if sp.despawned[1] != 1 {
		t.Errorf("Expected exactly one notification, got %d", sp.despawned[1])
	}
	if c.Position() != pos {
		t.Errorf("Expected position frozen at %v, got %v", pos, c.Position())
	}
}

func TestArrivalAppliesBlinkAndDespawnMarker(t *testing.T) {
	p := &route.Path{Name: "annotated", Points: []route.Waypoint{
		{Position: vmath.Vec3F{Z: 0}},
		{Position: vmath.Vec3F{Z: 1.5}, Blink: &route.BlinkInstruction{Mode: blinker.Right, AutoClearSeconds: 2}},
		{Position: vmath.Vec3F{Z: 3}, Blink: &route.BlinkInstruction{Mode: blinker.Hazard}, Despawn: true},
		{Position: vmath.Vec3F{Z: 30}},
	}}
	cfg := DefaultConfig()
	cfg.AutoPickStartIndex = false
	cfg.StartIndex = 1
	sp := newCountingSpawner()
	sig := &fakeSignaler{}

	var reached []int
	deps := Deps{Path: p, Spawner: sp, Blinker: sig, OnWaypoint: func(c *Controller, i int) {
		reached = append(reached, i)
	}}
	c := newController(t, cfg, deps, vmath.Vec3F{Z: 0.8})

	c.Tick(dt)
	if want := []setCall{{blinker.Right, 2}}; !reflect.DeepEqual(sig.sets, want) {
		t.Fatalf("Expected blinker sets %v, got %v", want, sig.sets)
	}
	if c.TargetIndex() != 2 {
		t.Errorf("Expected target 2, got %d", c.TargetIndex())
	}

	for i := 0; i < 200 && !c.Despawned(); i++ {
		c.Tick(dt)
	}

	if !c.Despawned() {
		t.Fatal("Expected despawn at the marked waypoint")
	}
	// Despawn marker stops before advancing
	if c.TargetIndex() != 2 {
		t.Errorf("Expected target 2, got %d", c.TargetIndex())
	}
	if want := []setCall{{blinker.Right, 2}, {blinker.Hazard, 0}}; !reflect.DeepEqual(sig.sets, want) {
		t.Errorf("Expected blinker sets %v, got %v", want, sig.sets)
	}
	if sp.despawned[1] != 1 {
		t.Errorf("Expected 1 despawn notification, got %d", sp.despawned[1])
	}
	if want := []int{1, 2}; !reflect.DeepEqual(reached, want) {
		t.Errorf("Expected waypoints %v, got %v", want, reached)
	}
}

func TestStartIndexSeeding(t *testing.T) {
	p := route.NewPath("line", vmath.Vec3F{X: 0}, vmath.Vec3F{X: 10}, vmath.Vec3F{X: 20})

	tests := []struct {
		name string
		pos  vmath.Vec3F
		auto bool
		idx  int
		want int
	}{
		{"closest", vmath.Vec3F{X: 8.8}, true, 0, 1},
		{"on waypoint advances", vmath.Vec3F{X: 10.3}, true, 0, 2},
		{"on last wraps", vmath.Vec3F{X: 20.2}, true, 0, 0},
		{"boundary is inclusive", vmath.Vec3F{X: 10.5}, true, 0, 2},
		{"manual", vmath.Vec3F{X: 50}, false, 1, 1},
		{"manual clamped", vmath.Vec3F{X: 50}, false, 9, 2},
		{"manual on waypoint", vmath.Vec3F{X: 0.1}, false, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.AutoPickStartIndex = tt.auto
			cfg.StartIndex = tt.idx
			c := newController(t, cfg, Deps{Path: p}, tt.pos)
			if c.TargetIndex() != tt.want {
				t.Errorf("Expected target %d, got %d", tt.want, c.TargetIndex())
			}
		})
	}
}

func TestShutdownForcesBlinkerOff(t *testing.T) {
	sig := &fakeSignaler{}
	c := newController(t, DefaultConfig(), Deps{Path: straightPath(), Blinker: sig}, vmath.Vec3F{})
	c.Tick(dt)
	c.Shutdown()

	if sig.shutdowns != 1 {
		t.Errorf("Expected 1 blinker shutdown, got %d", sig.shutdowns)
	}
	if c.Active() {
		t.Error("Expected inactive after Shutdown")
	}

	pos := c.Position()
	c.Tick(dt)
	if c.Position() != pos {
		t.Errorf("Expected no movement after Shutdown, got %v", c.Position())
	}
}

func TestConfigSanitize(t *testing.T) {
	cfg := Config{MaxSpeed: -1, Accel: math.NaN(), WaypointRadius: -3, StartIndex: -2}
	s := cfg.Sanitize()
	if s.MaxSpeed != 0 {
		t.Errorf("Expected MaxSpeed 0, got %f", s.MaxSpeed)
	}
	if s.Accel != 0 {
		t.Errorf("Expected Accel 0, got %f", s.Accel)
	}
	if s.WaypointRadius <= 0 {
		t.Errorf("Expected a positive WaypointRadius, got %f", s.WaypointRadius)
	}
	if s.StartIndex != 0 {
		t.Errorf("Expected StartIndex 0, got %d", s.StartIndex)
	}
}

func TestCruiseReachesMaxSpeed(t *testing.T) {
	c := newController(t, DefaultConfig(), Deps{Path: straightPath()}, vmath.Vec3F{})
	// 9 m/s at 5 m/s^2 takes 1.8s = 90 ticks
	for i := 0; i < 89; i++ {
		c.Tick(dt)
	}
	if c.Speed() >= 9.0 {
		t.Errorf("Expected below max speed after 89 ticks, got %f", c.Speed())
	}
	c.Tick(dt)
	if math.Abs(c.Speed()-9.0) > 1e-9 {
		t.Errorf("Expected max speed 9.0 after 90 ticks, got %f", c.Speed())
	}
}

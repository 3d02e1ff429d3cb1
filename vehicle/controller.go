package vehicle

import (
	"github.com/rs/zerolog"

	"github.com/lixenwraith/vi-traffic/blinker"
	"github.com/lixenwraith/vi-traffic/parameter"
	"github.com/lixenwraith/vi-traffic/route"
	"github.com/lixenwraith/vi-traffic/sensor"
	"github.com/lixenwraith/vi-traffic/vmath"
)

// ID identifies a controller for spawner bookkeeping
type ID uint64

// Signaler is the blinker the controller drives on waypoint arrival
type Signaler interface {
	Set(mode blinker.Mode, autoClearSeconds float64)
	Shutdown()
}

// GapSensor measures forward clearance, ok=false when nothing qualifies
type GapSensor interface {
	FrontGap(origin, forward vmath.Vec3F, self sensor.BodyID) (gap float64, ok bool)
}

// Spawner receives the despawn notification
type Spawner interface {
	NotifyDespawn(c *Controller)
}

// Deps are the collaborators injected at construction
// Any of them may be nil, the controller then skips that concern
type Deps struct {
	Path    *route.Path
	Blinker Signaler
	Sensor  GapSensor
	Spawner Spawner
	Body    sensor.BodyID // own collider, excluded from sensing
	Log     zerolog.Logger

	// OnWaypoint fires on every arrival before annotations are applied
	OnWaypoint func(c *Controller, index int)
}

// Pose is a spawn placement
type Pose struct {
	Position vmath.Vec3F
	Yaw      float64 // radians, 0 faces +Z
}

// Controller drives one NPC vehicle along a path
// All state is mutated only inside its own Tick
type Controller struct {
	id   ID
	cfg  Config
	deps Deps
	log  zerolog.Logger

	position vmath.Vec3F
	yaw      float64
	speed    float64
	desired  float64
	index    int

	steerVisualDeg float64

	stopBlocked bool
	stopPoint   vmath.Vec3F
	holding     bool // snapped behind the stop line this tick

	active    bool
	despawned bool
}

// New creates an inactive controller at pose, call Init to activate
func New(id ID, cfg Config, deps Deps, pose Pose) *Controller {
	return &Controller{
		id:       id,
		cfg:      cfg.Sanitize(),
		deps:     deps,
		log:      deps.Log.With().Uint64("vehicle", uint64(id)).Logger(),
		position: pose.Position,
		yaw:      pose.Yaw,
	}
}

// Init activates the controller and seeds the target waypoint
func (c *Controller) Init() {
	if c.despawned {
		return
	}
	c.active = true
	if c.deps.Path.Empty() {
		c.log.Warn().Msg("no path assigned, vehicle is inert")
		return
	}
	c.index = c.startIndex()
}

// startIndex picks the first target, skipping a waypoint the vehicle spawned on
func (c *Controller) startIndex() int {
	path := c.deps.Path
	n := path.Len()

	var i int
	if c.cfg.AutoPickStartIndex {
		i = path.ClosestIndex(c.position)
	} else {
		i = c.cfg.StartIndex
		if i >= n {
			i = n - 1
		}
	}

	if vmath.V3FDist(c.position, path.At(i).Position) <= c.cfg.WaypointRadius*parameter.VehicleSpawnAdvanceFactor {
		i = (i + 1) % n
	}
	return i
}

// Shutdown deactivates the controller and forces the blinker off
func (c *Controller) Shutdown() {
	c.active = false
	if c.deps.Blinker != nil {
		c.deps.Blinker.Shutdown()
	}
}

// SetStopline stores the latest stop-line signal, last writer wins
func (c *Controller) SetStopline(blocked bool, point vmath.Vec3F) {
	c.stopBlocked = blocked
	c.stopPoint = point
}

// Tick advances the controller by dt seconds
func (c *Controller) Tick(dt float64) {
	if !c.active || c.despawned || c.deps.Path.Empty() || dt <= 0 {
		return
	}

	target := c.deps.Path.At(c.index)
	toTarget := vmath.V3FSub(target.Position, c.position)

	c.steer(toTarget, dt)

	fwd := c.Forward()
	c.desired = c.desiredSpeed(fwd)
	c.integrateSpeed(dt)

	if !c.holding {
		c.position = vmath.V3FAdd(c.position, vmath.V3FScale(fwd, c.speed*dt))
	}

	if vmath.V3FMag(toTarget) <= c.cfg.WaypointRadius {
		c.arrive(target)
	}
}

// steer updates the visual steer angle and smooths heading toward the target
// Degenerate directions skip the update for this tick
func (c *Controller) steer(toTarget vmath.Vec3F, dt float64) {
	flatDir := vmath.V3FNormalize(vmath.V3FFlatten(toTarget))
	if vmath.V3FMagSq(flatDir) == 0 {
		return
	}

	c.steerVisualDeg = vmath.Clamp(
		vmath.V3FSignedAngleY(c.Forward(), flatDir),
		-parameter.VehicleSteerVisualMaxDeg,
		parameter.VehicleSteerVisualMaxDeg,
	)
	c.yaw = vmath.LerpAngle(c.yaw, vmath.V3FYaw(flatDir), c.cfg.SteerLerp*dt)
}

// desiredSpeed arbitrates stop-line and sensor, stop-line takes priority
func (c *Controller) desiredSpeed(fwd vmath.Vec3F) float64 {
	c.holding = false

	if c.stopBlocked {
		return c.stoplineSpeed(fwd)
	}

	if c.deps.Sensor == nil {
		return c.cfg.MaxSpeed
	}
	gap, ok := c.deps.Sensor.FrontGap(c.SensorOrigin(), fwd, c.deps.Body)
	return c.gapSpeed(gap, ok)
}

// stoplineSpeed computes desired speed from the flattened forward distance to the stop point
func (c *Controller) stoplineSpeed(fwd vmath.Vec3F) float64 {
	a := c.position
	b := c.stopPoint
	a.Y = b.Y
	dist := vmath.V3FDot(vmath.V3FSub(b, a), fwd)

	if dist <= 0 {
		// At or past the line: pull back behind it, no displacement this tick
		hold := vmath.V3FSub(b, vmath.V3FScale(fwd, c.cfg.HoldSnapBack))
		hold.Y = c.position.Y
		c.position = vmath.V3FLerp(c.position, hold, parameter.StoplineSnapBlend)
		c.holding = true
		return 0
	}

	if dist < c.cfg.HoldDeadzone {
		return 0
	}
	return vmath.Clamp(dist-c.cfg.StopBuffer, 0, c.cfg.MaxSpeed)
}

// gapSpeed maps a front gap to desired speed
func (c *Controller) gapSpeed(gap float64, ok bool) float64 {
	if !ok || gap >= c.cfg.MinGap {
		return c.cfg.MaxSpeed
	}
	if gap < c.cfg.MinGap*0.5 {
		return 0
	}
	return min(c.cfg.MaxSpeed, c.cfg.CrawlSpeed)
}

// integrateSpeed ramps toward desired with asymmetric accel and brake
func (c *Controller) integrateSpeed(dt float64) {
	rate := c.cfg.Brake
	if c.speed < c.desired {
		rate = c.cfg.Accel
	}
	c.speed = vmath.MoveTowards(c.speed, c.desired, rate*dt)
	c.speed = vmath.Clamp(c.speed, 0, c.cfg.MaxSpeed)
}

// arrive applies waypoint annotations and advances the target
func (c *Controller) arrive(target *route.Waypoint) {
	reached := c.index
	if c.deps.OnWaypoint != nil {
		c.deps.OnWaypoint(c, reached)
	}

	if target.Blink != nil && c.deps.Blinker != nil {
		c.deps.Blinker.Set(target.Blink.Mode, target.Blink.AutoClearSeconds)
	}

	if target.Despawn {
		c.despawn("despawn marker")
		return
	}

	c.index++
	if c.index >= c.deps.Path.Len() {
		if c.cfg.Loop {
			c.index = 0
		} else {
			c.index = c.deps.Path.Len() - 1
			c.speed = 0
			c.despawn("end of route")
		}
	}

	c.log.Debug().Int("reached", reached).Int("next", c.index).Msg("waypoint reached")
}

// despawn notifies the spawner once and terminates the controller
func (c *Controller) despawn(reason string) {
	if c.despawned {
		return
	}
	c.despawned = true
	c.log.Info().Str("reason", reason).Int("index", c.index).Msg("vehicle despawned")

	if c.deps.Spawner != nil {
		c.deps.Spawner.NotifyDespawn(c)
	}
	c.Shutdown()
}

// ID returns the controller identity
func (c *Controller) ID() ID { return c.id }

// Body returns the collider the controller excludes from sensing
func (c *Controller) Body() sensor.BodyID { return c.deps.Body }

// Path returns the route being followed
func (c *Controller) Path() *route.Path { return c.deps.Path }

// Position returns the current world position
func (c *Controller) Position() vmath.Vec3F { return c.position }

// Yaw returns the heading in radians
func (c *Controller) Yaw() float64 { return c.yaw }

// Forward returns the horizontal unit heading
func (c *Controller) Forward() vmath.Vec3F { return vmath.V3FFromYaw(c.yaw) }

// SensorOrigin returns the front-bumper sensing point
func (c *Controller) SensorOrigin() vmath.Vec3F {
	return vmath.V3FAdd(c.position, vmath.V3FScale(c.Forward(), c.cfg.SensorOffset))
}

// Speed returns the current scalar speed
func (c *Controller) Speed() float64 { return c.speed }

// DesiredSpeed returns the arbitrated target speed of the last tick
func (c *Controller) DesiredSpeed() float64 { return c.desired }

// TargetIndex returns the current target waypoint index
func (c *Controller) TargetIndex() int { return c.index }

// SteerVisualDeg returns the wheel steer angle in degrees, left negative, clamped to ±35
func (c *Controller) SteerVisualDeg() float64 { return c.steerVisualDeg }

// Stopline returns the last pushed stop-line signal
func (c *Controller) Stopline() (blocked bool, point vmath.Vec3F) { return c.stopBlocked, c.stopPoint }

// Holding reports whether the last tick snapped the vehicle behind a stop line
func (c *Controller) Holding() bool { return c.holding }

// Active reports whether Tick does any work
func (c *Controller) Active() bool { return c.active && !c.despawned }

// Despawned reports whether the controller has terminated
func (c *Controller) Despawned() bool { return c.despawned }

// Config returns the sanitized tuning
func (c *Controller) Config() Config { return c.cfg }

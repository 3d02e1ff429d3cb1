package traffic

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/lixenwraith/vi-traffic/blinker"
	"github.com/lixenwraith/vi-traffic/event"
	"github.com/lixenwraith/vi-traffic/parameter"
	"github.com/lixenwraith/vi-traffic/physics"
	"github.com/lixenwraith/vi-traffic/route"
	"github.com/lixenwraith/vi-traffic/sensor"
	"github.com/lixenwraith/vi-traffic/stopline"
	"github.com/lixenwraith/vi-traffic/vehicle"
	"github.com/lixenwraith/vi-traffic/wheel"
)

// Options are the per-vehicle settings applied to every spawn
type Options struct {
	Vehicle    vehicle.Config
	Sensor     sensor.Config
	Blinker    blinker.Config
	Wheel      wheel.Config
	WheelShape wheel.Wheel // template for all four wheels
	BodyRadius float64
	EventQueue int // events buffered between dispatches, 0 uses the default

	// Lamps returns an extra lamp sink for a new vehicle, nil or a nil result is ignored
	Lamps func(id vehicle.ID) blinker.Emitter
}

// DefaultOptions returns stock tuning for every component
func DefaultOptions() Options {
	return Options{
		Vehicle:    vehicle.DefaultConfig(),
		Sensor:     sensor.DefaultConfig(),
		Blinker:    blinker.DefaultConfig(),
		Wheel:      wheel.DefaultConfig(),
		WheelShape: wheel.DefaultWheel(""),
		BodyRadius: parameter.VehicleBodyRadius,
	}
}

// Sampler receives periodic vehicle snapshots, satisfied by recorder.Recorder
type Sampler interface {
	ShouldSample(tick int64) bool
	Sample(tick int64, c *vehicle.Controller, route string)
}

// Agent bundles one vehicle's controller with its collaborators
type Agent struct {
	Controller *vehicle.Controller
	Blinker    *blinker.Machine
	Wheels     *wheel.Animator
	Sensor     *sensor.Sensor
	Route      string
	Body       sensor.BodyID

	spawner     *Spawner
	left, right bool
}

// Lamps returns the lamp state last applied by the blinker
func (a *Agent) Lamps() (left, right bool) { return a.left, a.right }

// Sim hosts the paths, zones, spawners and vehicles of one simulation
// Step is the only mutator, readers use Snapshot
type Sim struct {
	mu   sync.RWMutex
	opts Options
	log  zerolog.Logger

	world     *physics.World
	paths     map[string]*route.Path
	zones     []*stopline.Zone
	signals   []*stopline.Signal
	signaled  map[*stopline.Zone]bool
	spawners  []*Spawner
	obstacles []sensor.BodyID

	agents    map[vehicle.ID]*Agent
	order     []vehicle.ID // ascending, controllers tick in this order
	nextID    vehicle.ID
	despawned []vehicle.ID

	tick    int64
	elapsed float64
	paused  atomic.Bool

	queue    *event.Queue
	router   *event.Router
	metrics  *metrics
	samplers []Sampler
}

// New creates an empty simulation
func New(opts Options, log zerolog.Logger) (*Sim, error) {
	s := &Sim{
		opts:   opts,
		log:    log,
		world:  physics.NewWorld(),
		paths:    make(map[string]*route.Path),
		signaled: make(map[*stopline.Zone]bool),
		agents:   make(map[vehicle.ID]*Agent),
		queue:    event.NewQueue(opts.EventQueue),
	}
	s.router = event.NewRouter(s.queue)

	m, err := newMetrics(s)
	if err != nil {
		return nil, err
	}
	s.metrics = m
	s.router.Register(m)

	s.router.Register(event.HandlerFunc{Types: event.AllTypes(), Fn: func(ev event.SimEvent) {
		s.log.Trace().Str("event", ev.Type.String()).Int64("tick", ev.Tick).Msg("event")
	}})

	return s, nil
}

// World returns the physics backend
func (s *Sim) World() *physics.World { return s.world }

// Register adds an event handler, call before stepping
func (s *Sim) Register(h event.Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.router.Register(h)
}

// AddSampler adds a periodic vehicle sampler, call before stepping
func (s *Sim) AddSampler(smp Sampler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samplers = append(s.samplers, smp)
}

// AddPath registers a route by name, replacing any previous one
func (s *Sim) AddPath(p *route.Path) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths[p.Name] = p
}

// Path returns a registered route
func (s *Sim) Path(name string) (*route.Path, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.paths[name]
	return p, ok
}

// AddZone registers a stop-line zone, sig may be nil for an operator-controlled gate
func (s *Sim) AddZone(z *stopline.Zone, sig *stopline.Signal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	z.OnChange(func(zone *stopline.Zone, id vehicle.ID, blocked bool) {
		s.push(event.EventStoplineChanged, &event.StoplineChangedPayload{Zone: zone.Name, Vehicle: id, Blocked: blocked})
	})
	s.zones = append(s.zones, z)
	if sig != nil {
		s.signals = append(s.signals, sig)
		s.signaled[sig.Zone()] = true
	}
}

// AddSpawner registers a vehicle pool
func (s *Sim) AddSpawner(sp *Spawner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spawners = append(s.spawners, sp)
	if _, ok := s.paths[sp.Route]; !ok {
		s.paths[sp.Route] = sp.Path()
	}
}

// AddObstacle registers a static body
func (s *Sim) AddObstacle(b physics.Body) sensor.BodyID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.world.Add(b)
	s.obstacles = append(s.obstacles, id)
	return id
}

// Spawn places a vehicle on a registered route outside any spawner pool
func (s *Sim) Spawn(routeName string, pose vehicle.Pose) (*Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.paths[routeName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRoute, routeName)
	}
	return s.spawn(p, pose, nil), nil
}

// spawn builds and activates one agent, caller holds the lock
func (s *Sim) spawn(p *route.Path, pose vehicle.Pose, sp *Spawner) *Agent {
	s.nextID++
	id := s.nextID

	body := s.world.Add(physics.Sphere(fmt.Sprintf("vehicle-%d", id), parameter.LayerNPC, pose.Position, s.opts.BodyRadius))
	a := &Agent{Route: p.Name, Body: body, spawner: sp}

	var lamps blinker.Emitter = blinker.EmitterFunc(func(left, right bool) {
		a.left, a.right = left, right
	})
	if s.opts.Lamps != nil {
		if extra := s.opts.Lamps(id); extra != nil {
			lamps = blinker.MultiEmitter{lamps, extra}
		}
	}
	a.Blinker = blinker.NewMachine(s.opts.Blinker, lamps)
	a.Blinker.OnChange(func(from, to blinker.Mode) {
		s.push(event.EventBlinkerChanged, &event.BlinkerChangedPayload{Vehicle: id, From: from, To: to})
	})
	a.Blinker.Init()

	a.Sensor = sensor.New(s.opts.Sensor, s.world, s.log)
	a.Controller = vehicle.New(id, s.opts.Vehicle, vehicle.Deps{
		Path:       p,
		Blinker:    a.Blinker,
		Sensor:     a.Sensor,
		Spawner:    s,
		Body:       body,
		Log:        s.log,
		OnWaypoint: s.onWaypoint,
	}, pose)
	a.Wheels = wheel.NewAnimator(s.opts.Wheel, a.Controller, s.wheelSet("fl", "fr"), s.wheelSet("rl", "rr"))
	a.Controller.Init()

	s.agents[id] = a
	s.order = append(s.order, id)
	if sp != nil {
		sp.added(id)
	}

	s.push(event.EventVehicleSpawned, &event.VehicleSpawnedPayload{
		Vehicle:  id,
		Route:    p.Name,
		Position: pose.Position,
		Index:    a.Controller.TargetIndex(),
	})
	s.log.Debug().Uint64("vehicle", uint64(id)).Str("route", p.Name).Int("target", a.Controller.TargetIndex()).Msg("vehicle spawned")
	return a
}

func (s *Sim) wheelSet(names ...string) []wheel.Wheel {
	set := make([]wheel.Wheel, len(names))
	for i, n := range names {
		set[i] = s.opts.WheelShape
		set[i].Name = n
	}
	return set
}

// trySpawn places a vehicle for sp when the spawn point is clear
func (s *Sim) trySpawn(sp *Spawner) {
	pose := sp.pose()
	if len(s.world.Overlapping(pose.Position, sp.clearance(), sensor.Filter{Layers: parameter.LayerNPC})) > 0 {
		sp.blocked()
		return
	}
	s.spawn(sp.Path(), pose, sp)
}

// NotifyDespawn implements vehicle.Spawner
// Called from inside Step, removal is deferred until all controllers ticked
func (s *Sim) NotifyDespawn(c *vehicle.Controller) {
	a, ok := s.agents[c.ID()]
	if !ok {
		return
	}
	s.despawned = append(s.despawned, c.ID())

	wp := c.Path().At(c.TargetIndex())
	s.push(event.EventVehicleDespawned, &event.VehicleDespawnedPayload{
		Vehicle:  c.ID(),
		Route:    a.Route,
		Position: c.Position(),
		Index:    c.TargetIndex(),
		Marker:   wp != nil && wp.Despawn,
	})
}

func (s *Sim) onWaypoint(c *vehicle.Controller, index int) {
	var name string
	if wp := c.Path().At(index); wp != nil {
		name = wp.Name
	}
	s.push(event.EventWaypointReached, &event.WaypointReachedPayload{
		Vehicle: c.ID(),
		Route:   c.Path().Name,
		Index:   index,
		Name:    name,
	})
}

// reap removes despawned agents, their bodies and spawner slots
func (s *Sim) reap() {
	if len(s.despawned) == 0 {
		return
	}
	for _, id := range s.despawned {
		a, ok := s.agents[id]
		if !ok {
			continue
		}
		s.world.Remove(a.Body)
		if a.spawner != nil {
			a.spawner.removed(id)
		}
		delete(s.agents, id)
	}
	s.despawned = s.despawned[:0]

	live := s.order[:0]
	for _, id := range s.order {
		if _, ok := s.agents[id]; ok {
			live = append(live, id)
		}
	}
	s.order = live
}

// push queues an event, a full queue is dispatched early so no event is lost
func (s *Sim) push(t event.EventType, payload any) {
	ev := event.SimEvent{Type: t, Payload: payload, Tick: s.tick}
	if s.queue.Push(ev) {
		return
	}
	n := s.router.DispatchAll()
	s.log.Debug().Int("events", n).Int64("tick", s.tick).Msg("event queue full, dispatched early")
	if !s.queue.Push(ev) {
		s.log.Warn().Str("event", t.String()).Msg("event dropped")
	}
}

func (s *Sim) targets() []stopline.Target {
	out := make([]stopline.Target, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.agents[id].Controller)
	}
	return out
}

// Step advances the simulation by dt seconds
// Order: spawn, signals, zone occupancy, blinkers with controllers, despawn,
// body sync with wheels, samplers, event dispatch
func (s *Sim) Step(dt float64) {
	if dt <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := context.Background()
	s.tick++
	s.elapsed += dt

	for _, sp := range s.spawners {
		if sp.due(dt) {
			s.trySpawn(sp)
		}
	}

	for _, sig := range s.signals {
		sig.Update(dt)
	}

	targets := s.targets()
	for _, z := range s.zones {
		z.Update(targets)
	}

	// Blinkers advance before their controller so a cycle started by this tick's waypoint gets full phases
	for _, id := range s.order {
		a := s.agents[id]
		a.Blinker.Update(dt)
		a.Controller.Tick(dt)
	}

	s.reap()

	// Bodies follow controllers after all ticked, sensors and spawn checks see end-of-step positions
	for _, id := range s.order {
		a := s.agents[id]
		s.world.Move(a.Body, a.Controller.Position())
		a.Wheels.Update(dt)
		s.metrics.speed.Record(ctx, a.Controller.Speed())
	}

	for _, smp := range s.samplers {
		if !smp.ShouldSample(s.tick) {
			continue
		}
		for _, id := range s.order {
			a := s.agents[id]
			smp.Sample(s.tick, a.Controller, a.Route)
		}
	}

	s.metrics.steps.Add(ctx, 1)
	s.router.DispatchAll()
}

// StepN runs n steps of dt without pacing
func (s *Sim) StepN(n int, dt float64) {
	for i := 0; i < n; i++ {
		s.Step(dt)
	}
}

// Tick returns the number of steps executed
func (s *Sim) Tick() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tick
}

// Agent returns a live vehicle, only safe to use between steps
func (s *Sim) Agent(id vehicle.ID) (*Agent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.agents[id]
	return a, ok
}

// Live returns the number of live vehicles
func (s *Sim) Live() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.agents)
}

// LiveByRoute counts live vehicles per route
func (s *Sim) LiveByRoute() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int, len(s.paths))
	for _, a := range s.agents {
		out[a.Route]++
	}
	return out
}

// Spawners returns the registered pools
func (s *Sim) Spawners() []*Spawner {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Spawner(nil), s.spawners...)
}

// ToggleZone flips an operator gate by index and returns its new state
// Zones driven by a signal are refused with ErrSignalZone
func (s *Sim) ToggleZone(i int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.zones) {
		return false, fmt.Errorf("zone index %d out of range", i)
	}
	z := s.zones[i]
	if s.signaled[z] {
		return z.Blocked(), fmt.Errorf("%w: %s", ErrSignalZone, z.Name)
	}
	z.SetBlocked(!z.Blocked())
	return z.Blocked(), nil
}

// TogglePause flips the pause flag honored by Run
func (s *Sim) TogglePause() bool {
	for {
		cur := s.paused.Load()
		if s.paused.CompareAndSwap(cur, !cur) {
			return !cur
		}
	}
}

// Close releases the metric callback, the sim must not be stepped afterwards
func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metrics.close()
}

// Paused reports whether Run skips steps
func (s *Sim) Paused() bool { return s.paused.Load() }

// routeNames returns registered route names in sorted order
func (s *Sim) routeNames() []string {
	names := make([]string, 0, len(s.paths))
	for n := range s.paths {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

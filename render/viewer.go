package render

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"

	"github.com/lixenwraith/vi-traffic/blinker"
	"github.com/lixenwraith/vi-traffic/parameter"
	"github.com/lixenwraith/vi-traffic/physics"
	"github.com/lixenwraith/vi-traffic/route"
	"github.com/lixenwraith/vi-traffic/traffic"
	"github.com/lixenwraith/vi-traffic/vmath"
)

// Controls is the operator surface the viewer drives
type Controls interface {
	Snapshot() traffic.Snapshot
	TogglePause() bool
	ToggleZone(i int) (bool, error)
}

// Options tune the viewer
type Options struct {
	Glow     blinker.Config // lamp emission color
	MaxSpeed float64        // top of the speed gradient
	OnMute   func() bool    // optional, returns true when sound is on
	Sound    bool           // initial sound indicator
}

// Viewer draws simulation snapshots into a tcell screen and handles operator keys
type Viewer struct {
	screen tcell.Screen
	sim    Controls
	opts   Options
	log    zerolog.Logger

	cam    Camera
	fitted bool
	zone   int    // selected zone for toggling
	status string // last operator action
	sound  bool
}

// NewViewer creates a viewer on an initialized screen
func NewViewer(screen tcell.Screen, sim Controls, opts Options, log zerolog.Logger) *Viewer {
	if opts.MaxSpeed <= 0 {
		opts.MaxSpeed = parameter.VehicleMaxSpeed
	}
	return &Viewer{screen: screen, sim: sim, opts: opts, log: log, sound: opts.Sound}
}

// Run redraws at the frame interval until ctx is done or the operator quits
func (v *Viewer) Run(ctx context.Context) {
	ticker := time.NewTicker(parameter.FrameUpdateInterval)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return // screen finalized
			}
			select {
			case eventChan <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case ev := <-eventChan:
			if !v.HandleEvent(ev) {
				return
			}

		case <-ticker.C:
			v.Draw(v.sim.Snapshot())
			v.screen.Show()
		}
	}
}

// HandleEvent applies one input event, returns false when the operator quits
func (v *Viewer) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() == tcell.KeyTab {
			v.nextZone()
			return true
		}
		if ev.Key() == tcell.KeyRune {
			return v.handleRune(ev.Rune())
		}

	case *tcell.EventResize:
		v.screen.Sync()
		v.fitted = false
	}
	return true
}

// handleRune applies a character command, returns false on quit
func (v *Viewer) handleRune(r rune) bool {
	switch r {
	case 'q':
		return false
	case ' ':
		if v.sim.TogglePause() {
			v.status = "paused"
		} else {
			v.status = "running"
		}
	case 's':
		blocked, err := v.sim.ToggleZone(v.zone)
		if errors.Is(err, traffic.ErrSignalZone) {
			v.status = fmt.Sprintf("zone %d follows its signal", v.zone)
			break
		}
		if err != nil {
			v.status = "no stop-line zones"
			break
		}
		v.status = fmt.Sprintf("zone %d %s", v.zone, stateText(blocked))
		v.log.Info().Int("zone", v.zone).Bool("blocked", blocked).Msg("zone toggled")
	case 'n':
		v.nextZone()
	case '+', '=':
		v.cam.Zoom(parameter.ViewZoomStep)
	case '-':
		v.cam.Zoom(1 / parameter.ViewZoomStep)
	case 'f':
		v.fitted = false
	case 'm':
		if v.opts.OnMute != nil {
			v.sound = v.opts.OnMute()
		}
	}
	return true
}

func (v *Viewer) nextZone() {
	n := len(v.sim.Snapshot().Zones)
	if n == 0 {
		return
	}
	v.zone = (v.zone + 1) % n
	v.status = fmt.Sprintf("zone %d selected", v.zone)
}

// Zone returns the selected zone index
func (v *Viewer) Zone() int { return v.zone }

// Camera returns the current projection
func (v *Viewer) Camera() Camera { return v.cam }

// Draw renders snap into the back buffer, call Show to present
func (v *Viewer) Draw(snap traffic.Snapshot) {
	cols, rows := v.screen.Size()
	viewRows := max(rows-parameter.TopMargin-parameter.BottomMargin, 0)
	if !v.fitted {
		v.cam = FitPaths(snap.Paths, cols, viewRows)
		v.fitted = true
	}

	v.screen.Fill(' ', style(RgbBackground))

	put := func(p vmath.Vec3F, r rune, st tcell.Style) {
		if x, y, ok := v.cam.Project(p, cols, viewRows); ok {
			v.screen.SetContent(x, y+parameter.TopMargin, r, nil, st)
		}
	}
	step := 1 / math.Max(v.cam.Scale, 1e-6)

	for _, p := range snap.Paths {
		v.drawPath(p, step, put)
	}
	for _, b := range snap.Obstacles {
		v.drawObstacle(b, step, put)
	}
	for i, z := range snap.Zones {
		fg := RgbStopGreen
		if z.Blocked {
			fg = RgbStopRed
		}
		st := style(fg)
		if i == v.zone {
			st = st.Underline(true)
		}
		for x := z.Bounds.Min.X; x <= z.Bounds.Max.X; x += step {
			put(vmath.Vec3F{X: x, Z: z.Point.Z}, parameter.StopRune, st)
		}
	}

	hit := style(RgbSensorHit)
	for _, veh := range snap.Vehicles {
		if veh.GapFound {
			put(veh.HitPoint, parameter.HitRune, hit)
		}
	}

	for _, veh := range snap.Vehicles {
		r := HeadingRune(veh.Yaw)
		if veh.Holding {
			r = parameter.HoldRune
		}
		st := style(SpeedColor(veh.Speed, v.opts.MaxSpeed)).Bold(true)
		if veh.LeftLamp || veh.RightLamp {
			st = st.Background(FromUnit(v.opts.Glow.Glow(true)).Color())
		}
		put(veh.Position, r, st)
	}

	v.drawStatus(snap, cols)
	v.drawHelp(rows)
}

func (v *Viewer) drawPath(p *route.Path, step float64, put func(vmath.Vec3F, rune, tcell.Style)) {
	line := style(RgbPath)
	for i := 1; i < p.Len(); i++ {
		a, b := p.At(i-1).Position, p.At(i).Position
		n := int(math.Ceil(vmath.V3FDist(a, b) / step))
		for k := 0; k <= n; k++ {
			put(vmath.V3FLerp(a, b, float64(k)/float64(max(n, 1))), parameter.PathRune, line)
		}
	}
	for i := range p.Points {
		wp := p.At(i)
		if wp.Despawn {
			put(wp.Position, parameter.DespawnRune, style(RgbDespawn))
		} else {
			put(wp.Position, parameter.WaypointRune, style(RgbWaypoint))
		}
	}
}

func (v *Viewer) drawObstacle(b physics.Body, step float64, put func(vmath.Vec3F, rune, tcell.Style)) {
	ex, ez := b.Radius, b.Radius
	if b.Shape == physics.ShapeBox {
		ex, ez = b.HalfExtents.X, b.HalfExtents.Z
	}
	st := style(RgbObstacle)
	for x := -ex; x <= ex; x += step {
		for z := -ez; z <= ez; z += step * parameter.ViewCellAspect {
			if b.Shape == physics.ShapeSphere && x*x+z*z > b.Radius*b.Radius {
				continue
			}
			put(vmath.Vec3F{X: b.Position.X + x, Z: b.Position.Z + z}, parameter.ObstacleRune, st)
		}
	}
	put(b.Position, parameter.ObstacleRune, st)
}

func (v *Viewer) drawStatus(snap traffic.Snapshot, cols int) {
	bar := style(RgbStatusText).Background(RgbStatusBar.Color())
	for x := 0; x < cols; x++ {
		v.screen.SetContent(x, 0, ' ', nil, bar)
	}

	x := 0
	if snap.Paused {
		x = v.drawText(x, 0, parameter.PausedStr, style(RgbStatusText).Background(RgbPausedBg.Color()))
	}
	if v.sound {
		x = v.drawText(x, 0, " "+parameter.AudioStr, bar)
	}
	text := fmt.Sprintf(" tick %d  t=%.1fs  vehicles %d  spawned %d  despawned %d",
		snap.Tick, snap.Elapsed, len(snap.Vehicles), snap.Spawned, snap.Despawned)
	if v.zone < len(snap.Zones) {
		z := snap.Zones[v.zone]
		text += fmt.Sprintf("  [%s %s]", z.Name, stateText(z.Blocked))
	}
	if v.status != "" {
		text += "  " + v.status
	}
	v.drawText(x, 0, text, bar)
}

func (v *Viewer) drawHelp(rows int) {
	if rows < parameter.TopMargin+parameter.BottomMargin+1 {
		return
	}
	v.drawText(0, rows-1, " q quit  space pause  s toggle zone  tab next zone  +/- zoom  f fit  m mute", style(RgbHelpText))
}

// drawText writes s from (x, y) and returns the column after it
func (v *Viewer) drawText(x, y int, s string, st tcell.Style) int {
	for _, r := range s {
		v.screen.SetContent(x, y, r, nil, st)
		x++
	}
	return x
}

func stateText(blocked bool) string {
	if blocked {
		return "RED"
	}
	return "GREEN"
}

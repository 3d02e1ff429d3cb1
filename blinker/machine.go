package blinker

import (
	"github.com/lixenwraith/vi-traffic/parameter"
)

// phaseEpsilon absorbs float accumulation so a phase of 0.5s ends on the tick that reaches 0.5
const phaseEpsilon = 1e-9

// minPhase floors on/off durations so a zero config cannot spin Update forever
const minPhase = 1e-3

// Config holds blink cycle timing and emission parameters
type Config struct {
	OnTime    float64    // seconds lit per cycle
	OffTime   float64    // seconds dark per cycle
	Color     [3]float64 // emission RGB in [0,1]
	Intensity float64    // emission multiplier, linear space
}

// DefaultConfig returns the amber 0.5s/0.5s blinker
func DefaultConfig() Config {
	return Config{
		OnTime:    parameter.BlinkOnTime,
		OffTime:   parameter.BlinkOffTime,
		Color:     parameter.BlinkEmissionColor,
		Intensity: parameter.BlinkEmissionIntensity,
	}
}

// Machine is the left/right/hazard oscillator for one vehicle
// The blink cycle is an explicit phase timer advanced by Update, replacing it is overwriting the record
type Machine struct {
	cfg     Config
	emitter Emitter

	current Mode
	running bool

	phase        Phase
	phaseElapsed float64 // seconds spent in the current phase
	autoClear    float64 // <= 0 keeps the mode until replaced
	accumulated  float64 // completed on+off seconds, only tracked with autoClear

	left, right bool

	onChange func(from, to Mode)
}

// NewMachine creates a blinker driving emitter, emitter may be nil
func NewMachine(cfg Config, emitter Emitter) *Machine {
	if cfg.OnTime < minPhase {
		cfg.OnTime = minPhase
	}
	if cfg.OffTime < minPhase {
		cfg.OffTime = minPhase
	}
	return &Machine{
		cfg:     cfg,
		emitter: emitter,
	}
}

// OnChange registers a callback invoked after every mode transition
func (m *Machine) OnChange(fn func(from, to Mode)) {
	m.onChange = fn
}

// Init deasserts both sides, call when the owning vehicle activates
func (m *Machine) Init() {
	m.apply(false)
}

// Shutdown cancels any cycle and forces the lamps off
func (m *Machine) Shutdown() {
	m.Set(Off, 0)
}

// Set switches mode, optionally reverting to Off after autoClearSeconds (<= 0 keeps)
// Re-applying the running mode is a no-op and does not restart the phase timer
func (m *Machine) Set(mode Mode, autoClearSeconds float64) {
	if mode == m.current && m.running {
		return
	}

	from := m.current
	m.stop()
	m.current = mode

	if mode == Off {
		m.apply(false)
	} else {
		m.running = true
		m.phase = LightsOn
		m.phaseElapsed = 0
		m.accumulated = 0
		m.autoClear = autoClearSeconds
		m.apply(true)
	}

	if m.onChange != nil && from != mode {
		m.onChange(from, mode)
	}
}

// Clear is Set(Off)
func (m *Machine) Clear() {
	m.Set(Off, 0)
}

// Update advances the blink cycle by dt seconds
// Large dt is consumed phase by phase so every transition is emitted
func (m *Machine) Update(dt float64) {
	for m.running && dt > 0 {
		remaining := m.phaseDuration() - m.phaseElapsed
		if dt < remaining-phaseEpsilon {
			m.phaseElapsed += dt
			return
		}
		dt -= remaining
		m.phaseElapsed = 0

		if m.phase == LightsOn {
			m.phase = LightsOff
			m.apply(false)
			continue
		}

		// End of a full on/off cycle
		if m.autoClear > 0 {
			m.accumulated += m.cfg.OnTime + m.cfg.OffTime
			if m.accumulated >= m.autoClear-phaseEpsilon {
				m.Set(Off, 0)
				return
			}
		}
		m.phase = LightsOn
		m.apply(true)
	}
}

func (m *Machine) stop() {
	m.running = false
	m.phaseElapsed = 0
	m.accumulated = 0
	m.autoClear = 0
	m.phase = LightsOn
}

func (m *Machine) phaseDuration() float64 {
	if m.phase == LightsOn {
		return m.cfg.OnTime
	}
	return m.cfg.OffTime
}

// apply resolves the side rule and notifies the emitter
func (m *Machine) apply(on bool) {
	m.left = on && m.current.LeftSide()
	m.right = on && m.current.RightSide()
	if m.emitter != nil {
		m.emitter.Apply(m.left, m.right)
	}
}

// Current returns the active mode
func (m *Machine) Current() Mode { return m.current }

// Running reports whether a blink cycle is in flight
func (m *Machine) Running() bool { return m.running }

// Phase returns the current cycle phase, meaningful only while Running
func (m *Machine) Phase() Phase { return m.phase }

// PhaseElapsed returns seconds spent in the current phase
func (m *Machine) PhaseElapsed() float64 { return m.phaseElapsed }

// Lights returns the last asserted lamp state per side
func (m *Machine) Lights() (left, right bool) { return m.left, m.right }

// Config returns the timing and emission parameters
func (m *Machine) Config() Config { return m.cfg }

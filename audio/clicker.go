package audio

import "sync/atomic"

// Player plays a pre-rendered sound, satisfied by Engine
type Player interface {
	Play(s Sound) bool
}

// RelayClicker is a blinker lamp sink that clicks on every relay edge
// A lamp lighting plays a tick, both lamps going dark play a tock
type RelayClicker struct {
	player Player
	lit    bool

	ticks atomic.Uint64
	tocks atomic.Uint64
}

// NewRelayClicker creates a clicker, a nil player only counts edges
func NewRelayClicker(p Player) *RelayClicker {
	return &RelayClicker{player: p}
}

// Apply implements blinker.Emitter
func (c *RelayClicker) Apply(left, right bool) {
	on := left || right
	if on == c.lit {
		return
	}
	c.lit = on

	s := SoundTock
	if on {
		s = SoundTick
		c.ticks.Add(1)
	} else {
		c.tocks.Add(1)
	}
	if c.player != nil {
		c.player.Play(s)
	}
}

// Clicks returns the tick and tock counts
func (c *RelayClicker) Clicks() (ticks, tocks uint64) {
	return c.ticks.Load(), c.tocks.Load()
}

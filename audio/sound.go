package audio

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"

	"github.com/lixenwraith/vi-traffic/parameter"
)

// Sound identifies a pre-rendered effect
type Sound int

const (
	SoundTick Sound = iota // relay closes, lamp on
	SoundTock              // relay opens, lamp off
	soundCount
)

func (s Sound) String() string {
	switch s {
	case SoundTick:
		return "tick"
	case SoundTock:
		return "tock"
	default:
		return "unknown"
	}
}

// WaveType defines oscillator wave shapes
type WaveType int

const (
	WaveSine WaveType = iota
	WaveSquare
	WaveSaw
	WaveNoise
)

// oscillator generates raw audio waves
type oscillator struct {
	freq     float64
	phase    float64
	duration int
	position int
	wave     WaveType
	rate     beep.SampleRate
	rng      *rand.Rand
}

// NewOscillator creates a new oscillator for wave generation
// Noise is seeded so rendered effects are reproducible
func NewOscillator(freq float64, duration time.Duration, wave WaveType, rate beep.SampleRate) beep.Streamer {
	return &oscillator{
		freq:     freq,
		duration: rate.N(duration),
		wave:     wave,
		rate:     rate,
		rng:      rand.New(rand.NewSource(int64(freq) + 1)),
	}
}

func (o *oscillator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if o.position >= o.duration {
			return i, i > 0
		}

		var val float64
		switch o.wave {
		case WaveSine:
			val = math.Sin(2 * math.Pi * o.phase)
		case WaveSquare:
			if o.phase < 0.5 {
				val = 1.0
			} else {
				val = -1.0
			}
		case WaveSaw:
			val = 2.0 * (o.phase - 0.5)
		case WaveNoise:
			val = o.rng.Float64()*2 - 1
		}

		samples[i][0] = val
		samples[i][1] = val

		o.phase += o.freq / float64(o.rate)
		o.phase -= math.Floor(o.phase) // Keep in [0, 1)
		o.position++
	}
	return len(samples), true
}

func (o *oscillator) Err() error { return nil }

// envelope applies attack/release shaping to a stream
type envelope struct {
	streamer       beep.Streamer
	position       int
	attackSamples  int
	releaseSamples int
	sustainSamples int
	totalSamples   int
}

// NewEnvelope creates an attack/release envelope
func NewEnvelope(s beep.Streamer, duration, attack, release time.Duration, rate beep.SampleRate) beep.Streamer {
	total := rate.N(duration)
	att := rate.N(attack)
	rel := rate.N(release)
	sus := max(total-att-rel, 0)

	return &envelope{
		streamer:       s,
		attackSamples:  att,
		releaseSamples: rel,
		sustainSamples: sus,
		totalSamples:   total,
	}
}

func (e *envelope) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = e.streamer.Stream(samples)

	for i := 0; i < n; i++ {
		if e.position >= e.totalSamples {
			return i, i > 0
		}

		vol := 1.0

		// Attack phase
		if e.position < e.attackSamples && e.attackSamples > 0 {
			vol = float64(e.position) / float64(e.attackSamples)
		}
		// Release phase
		releaseStart := e.attackSamples + e.sustainSamples
		if e.position >= releaseStart && e.releaseSamples > 0 {
			remaining := e.totalSamples - e.position
			vol = max(float64(remaining)/float64(e.releaseSamples), 0)
		}

		samples[i][0] *= vol
		samples[i][1] *= vol
		e.position++
	}

	return n, ok
}

func (e *envelope) Err() error { return e.streamer.Err() }

// newVolume wraps s in a linear gain, math.Log2(0) is -Inf so 0 is silent
func newVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol), Silent: false}
}

// relayClick layers a short tone over a noise burst
func relayClick(freq float64, duration, attack, release time.Duration, rate beep.SampleRate) beep.Streamer {
	tone := NewEnvelope(NewOscillator(freq, duration, WaveSquare, rate), duration, attack, release, rate)
	noise := NewEnvelope(NewOscillator(0, duration, WaveNoise, rate), duration, attack, release, rate)
	return beep.Mix(
		newVolume(tone, 1-parameter.RelayNoiseMix),
		newVolume(noise, parameter.RelayNoiseMix),
	)
}

// NewSoundStreamer returns a fresh streamer for s
func NewSoundStreamer(s Sound, rate beep.SampleRate) beep.Streamer {
	switch s {
	case SoundTick:
		return relayClick(parameter.RelayTickFreq, parameter.RelayTickDuration, parameter.RelayTickAttack, parameter.RelayTickRelease, rate)
	case SoundTock:
		return relayClick(parameter.RelayTockFreq, parameter.RelayTockDuration, parameter.RelayTockAttack, parameter.RelayTockRelease, rate)
	default:
		return nil
	}
}

// floatBuffer is mono float64 samples at unity gain
type floatBuffer []float64

// Duration returns the rendered length of s
func (s Sound) Duration() time.Duration {
	switch s {
	case SoundTick:
		return parameter.RelayTickDuration
	case SoundTock:
		return parameter.RelayTockDuration
	default:
		return 0
	}
}

// render drains at most limit frames of a streamer into a mono buffer
func render(s beep.Streamer, limit int) floatBuffer {
	if s == nil || limit <= 0 {
		return nil
	}
	out := make(floatBuffer, 0, limit)
	chunk := make([][2]float64, 512)
	for len(out) < limit {
		want := min(len(chunk), limit-len(out))
		n, ok := s.Stream(chunk[:want])
		for i := 0; i < n; i++ {
			out = append(out, (chunk[i][0]+chunk[i][1])/2)
		}
		if !ok || n == 0 {
			break
		}
	}
	return out
}

// soundCache stores pre-rendered unity-gain buffers
type soundCache struct {
	mu    sync.RWMutex
	store [soundCount]floatBuffer
	ready [soundCount]bool
}

func newSoundCache() *soundCache {
	return &soundCache{}
}

// get returns cached buffer or renders on demand
func (c *soundCache) get(s Sound) floatBuffer {
	if s < 0 || s >= soundCount {
		return nil
	}

	c.mu.RLock()
	if c.ready[s] {
		buf := c.store[s]
		c.mu.RUnlock()
		return buf
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock
	if c.ready[s] {
		return c.store[s]
	}

	rate := beep.SampleRate(parameter.AudioSampleRate)
	buf := render(NewSoundStreamer(s, rate), rate.N(s.Duration()))
	c.store[s] = buf
	c.ready[s] = true
	return buf
}

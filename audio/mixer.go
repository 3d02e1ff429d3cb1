package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/vi-traffic/parameter"
)

// activeSound tracks a playing sound instance
type activeSound struct {
	buffer floatBuffer
	pos    int
	volume float64
}

type playRequest struct {
	sound  Sound
	volume float64
}

// Mixer sums queued sounds and writes fixed-size PCM blocks to output
type Mixer struct {
	output io.Writer
	cache  *soundCache

	playQueue chan playRequest
	stopChan  chan struct{}
	done      chan struct{}
	started   atomic.Bool
	stopped   atomic.Bool

	// Accessed only by mix goroutine
	active []activeSound

	statsMu sync.Mutex
	played  uint64
	dropped uint64

	errChan chan error
}

// NewMixer creates a mixer writing to out
func NewMixer(out io.Writer, cache *soundCache) *Mixer {
	return &Mixer{
		output:    out,
		cache:     cache,
		playQueue: make(chan playRequest, parameter.AudioQueueSize),
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
		active:    make([]activeSound, 0, 8),
		errChan:   make(chan error, 1),
	}
}

// Start begins the mixing loop
func (m *Mixer) Start() {
	if m.started.CompareAndSwap(false, true) {
		go m.loop()
	}
}

// Stop signals the mixer to halt and waits for the loop to exit
func (m *Mixer) Stop() {
	if m.stopped.CompareAndSwap(false, true) {
		close(m.stopChan)
	}
	if m.started.Load() {
		<-m.done
	}
}

// Play queues a sound, a full queue drops the request
func (m *Mixer) Play(s Sound, volume float64) {
	if m.stopped.Load() {
		return
	}

	select {
	case m.playQueue <- playRequest{sound: s, volume: volume}:
	default:
		m.statsMu.Lock()
		m.dropped++
		m.statsMu.Unlock()
	}
}

// Errors returns channel for pipe errors
func (m *Mixer) Errors() <-chan error {
	return m.errChan
}

func (m *Mixer) loop() {
	defer close(m.done)

	ticker := time.NewTicker(parameter.AudioBufferDuration)
	defer ticker.Stop()

	samplesPerTick := parameter.AudioBufferSamples
	mixBuf := make([]float64, samplesPerTick)
	outBytes := make([]byte, samplesPerTick*parameter.AudioBytesPerFrame)

	for {
		select {
		case <-m.stopChan:
			return

		case req := <-m.playQueue:
			m.activate(req)
			m.drainQueue(4)

		case <-ticker.C:
			clear(mixBuf)
			m.active = mixActive(m.active, mixBuf)
			floatToBytes(mixBuf, outBytes)

			if _, err := m.output.Write(outBytes); err != nil {
				select {
				case m.errChan <- fmt.Errorf("%w: %v", ErrPipeClosed, err):
				default:
				}
				return
			}
		}
	}
}

func (m *Mixer) activate(req playRequest) {
	buf := m.cache.get(req.sound)
	if len(buf) == 0 {
		return
	}
	m.active = append(m.active, activeSound{buffer: buf, volume: req.volume})
	m.statsMu.Lock()
	m.played++
	m.statsMu.Unlock()
}

// drainQueue processes up to n additional queued requests
func (m *Mixer) drainQueue(n int) {
	for i := 0; i < n; i++ {
		select {
		case req := <-m.playQueue:
			m.activate(req)
		default:
			return
		}
	}
}

// mixActive adds every active sound into buf and returns those with samples left
func mixActive(active []activeSound, buf []float64) []activeSound {
	remaining := active[:0]
	for i := range active {
		s := &active[i]
		for j := 0; j < len(buf) && s.pos < len(s.buffer); j++ {
			buf[j] += s.buffer[s.pos] * s.volume
			s.pos++
		}
		if s.pos < len(s.buffer) {
			remaining = append(remaining, *s)
		}
	}
	return remaining
}

// floatToBytes converts float64 mono to interleaved stereo int16 LE bytes
// Applies soft limiting before hard clip
func floatToBytes(in []float64, out []byte) {
	for i, v := range in {
		if v > 0.8 {
			v = 0.8 + 0.2*(1.0-1.0/(1.0+(v-0.8)*5.0))
		} else if v < -0.8 {
			v = -0.8 - 0.2*(1.0-1.0/(1.0+(-v-0.8)*5.0))
		}

		v = min(max(v, -1.0), 1.0)

		i16 := int16(v * 32767)
		idx := i * 4
		binary.LittleEndian.PutUint16(out[idx:], uint16(i16))   // L
		binary.LittleEndian.PutUint16(out[idx+2:], uint16(i16)) // R
	}
}

// Stats returns played and dropped counts
func (m *Mixer) Stats() (played, dropped uint64) {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	return m.played, m.dropped
}

package audio

import (
	"fmt"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/rs/zerolog"

	"github.com/lixenwraith/vi-traffic/parameter"
)

// Engine pipes mixed PCM to a system playback tool, falling back to the beep speaker
// Without any output it runs silent, Play then reports false
type Engine struct {
	log   zerolog.Logger
	cache *soundCache
	mixer *Mixer

	backend *BackendConfig
	cmd     *exec.Cmd
	stdin   io.WriteCloser

	running    atomic.Bool
	speaker    atomic.Bool
	muted      atomic.Bool
	silentMode atomic.Bool

	mu     sync.RWMutex // Protects volume
	volume float64

	wg sync.WaitGroup
}

// NewEngine creates a stopped engine at volume in [0, 1]
func NewEngine(volume float64, log zerolog.Logger) *Engine {
	e := &Engine{log: log, cache: newSoundCache()}
	e.SetVolume(volume)

	// Preload
	e.cache.get(SoundTick)
	e.cache.get(SoundTock)
	return e
}

// Start launches the backend process and mixer
func (e *Engine) Start() error {
	if e.running.Load() {
		return fmt.Errorf("audio engine already running")
	}

	backend, err := DetectBackend()
	if err != nil {
		rate := beep.SampleRate(parameter.AudioSampleRate)
		if serr := speaker.Init(rate, rate.N(parameter.AudioBufferDuration*2)); serr != nil {
			e.log.Warn().Err(err).AnErr("speaker", serr).Msg("audio disabled")
			e.silentMode.Store(true)
			e.running.Store(true)
			return nil // Silent mode, not an error
		}
		e.log.Info().Str("backend", "speaker").Msg("audio started")
		e.speaker.Store(true)
		e.running.Store(true)
		return nil
	}
	return e.startWith(backend)
}

// StartWriter mixes into w instead of a backend process
func (e *Engine) StartWriter(w io.Writer) error {
	if e.running.Load() {
		return fmt.Errorf("audio engine already running")
	}
	e.startMixer(w)
	return nil
}

func (e *Engine) startWith(backend *BackendConfig) error {
	e.backend = backend

	cmd := exec.Command(backend.Path, backend.Args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		e.silentMode.Store(true)
		e.running.Store(true)
		return nil
	}
	if err := cmd.Start(); err != nil {
		stdin.Close()
		e.log.Warn().Err(err).Str("backend", backend.Name).Msg("audio backend failed to start")
		e.silentMode.Store(true)
		e.running.Store(true)
		return nil
	}

	e.cmd = cmd
	e.stdin = stdin

	e.wg.Add(1)
	go e.monitorProcess()

	e.log.Info().Str("backend", backend.Name).Msg("audio started")
	e.startMixer(stdin)
	return nil
}

func (e *Engine) startMixer(w io.Writer) {
	e.mixer = NewMixer(w, e.cache)
	e.mixer.Start()

	e.wg.Add(1)
	go e.monitorMixer(e.mixer)

	e.running.Store(true)
}

// monitorProcess watches for subprocess exit
func (e *Engine) monitorProcess() {
	defer e.wg.Done()

	err := e.cmd.Wait()
	if err != nil && e.running.Load() && !e.silentMode.Load() {
		e.log.Warn().Err(err).Msg("audio backend exited")
		e.silentMode.Store(true)
	}
}

// monitorMixer watches for pipe errors
func (e *Engine) monitorMixer(m *Mixer) {
	defer e.wg.Done()

	select {
	case err := <-m.Errors():
		e.log.Warn().Err(err).Msg("audio output failed")
		e.silentMode.Store(true)
	case <-m.done:
	}
}

// Stop terminates the engine
func (e *Engine) Stop() {
	if !e.running.CompareAndSwap(true, false) {
		return
	}

	if e.mixer != nil {
		e.mixer.Stop()
	}
	if e.speaker.Load() {
		speaker.Close()
	}
	if e.stdin != nil {
		e.stdin.Close()
	}
	if e.cmd != nil && e.cmd.Process != nil {
		e.cmd.Process.Kill()
	}

	e.wg.Wait()
}

// Play queues a sound, returns false when nothing will be heard
func (e *Engine) Play(s Sound) bool {
	if !e.running.Load() || e.muted.Load() || e.silentMode.Load() {
		return false
	}

	e.mu.RLock()
	vol := e.volume
	e.mu.RUnlock()

	if e.speaker.Load() {
		rate := beep.SampleRate(parameter.AudioSampleRate)
		st := NewSoundStreamer(s, rate)
		if st == nil {
			return false
		}
		speaker.Play(beep.Take(rate.N(s.Duration()), newVolume(st, vol)))
		return true
	}
	if e.mixer == nil {
		return false
	}
	e.mixer.Play(s, vol)
	return true
}

// ToggleMute toggles mute state, returns true if sound is now enabled
func (e *Engine) ToggleMute() bool {
	mute := !e.muted.Load()
	e.muted.Store(mute)
	return !mute
}

// IsEnabled returns true if running, unmuted and attached to output
func (e *Engine) IsEnabled() bool {
	return e.running.Load() && !e.muted.Load() && !e.silentMode.Load()
}

// SetVolume updates master volume, clamped to [0, 1]
func (e *Engine) SetVolume(vol float64) {
	e.mu.Lock()
	e.volume = min(max(vol, 0), 1)
	e.mu.Unlock()
}

// Stats returns played and dropped counts
func (e *Engine) Stats() (played, dropped uint64) {
	if e.mixer == nil {
		return 0, 0
	}
	return e.mixer.Stats()
}

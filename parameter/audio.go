package parameter

import "time"

// Audio Hardware Settings
const (
	AudioSampleRate    = 44100
	AudioChannels      = 2
	AudioBitDepth      = 16
	AudioBytesPerFrame = AudioChannels * (AudioBitDepth / 8) // 4 bytes
)

// Audio Engine Timing
const (
	// AudioBufferDuration determines latency and mixer tick rate
	AudioBufferDuration = 50 * time.Millisecond

	// AudioBufferSamples is frames per mixer tick at 44.1kHz
	AudioBufferSamples = (AudioSampleRate * 50) / 1000 // 2205

	// AudioQueueSize bounds pending play requests, excess requests are dropped
	AudioQueueSize = 32
)

// Relay Tick (lamp on)
const (
	RelayTickDuration = 12 * time.Millisecond
	RelayTickAttack   = 1 * time.Millisecond
	RelayTickRelease  = 9 * time.Millisecond
	RelayTickFreq     = 2400.0 // Hz
)

// Relay Tock (lamp off)
const (
	RelayTockDuration = 18 * time.Millisecond
	RelayTockAttack   = 1 * time.Millisecond
	RelayTockRelease  = 14 * time.Millisecond
	RelayTockFreq     = 1400.0 // Hz
)

// RelayNoiseMix is the noise share layered over the relay tone
const RelayNoiseMix = 0.35

// AudioDefaultVolume is the master volume when unset
const AudioDefaultVolume = 0.5

package audio

import (
	"errors"
	"os/exec"
	"strconv"

	"github.com/lixenwraith/vi-traffic/parameter"
)

// BackendType identifies the audio backend
type BackendType int

const (
	BackendPulse BackendType = iota
	BackendPipeWire
	BackendALSA
	BackendSoX
)

// BackendConfig describes a CLI audio backend fed raw s16le stereo on stdin
type BackendConfig struct {
	Type BackendType
	Name string
	Path string
	Args []string
}

// Sentinel errors
var (
	ErrNoAudioBackend = errors.New("no compatible audio backend found")
	ErrPipeClosed     = errors.New("audio pipe closed")
)

// lookPath is replaced in tests
var lookPath = exec.LookPath

// DetectBackend searches for available audio backends
// Priority: pacat > pw-cat > aplay > play (sox)
func DetectBackend() (*BackendConfig, error) {
	rate := strconv.Itoa(parameter.AudioSampleRate)

	// PulseAudio/PipeWire
	if path, err := lookPath("pacat"); err == nil {
		return &BackendConfig{
			Type: BackendPulse,
			Name: "pacat",
			Path: path,
			Args: []string{"--raw", "--format=s16le", "--rate=" + rate, "--channels=2", "--latency-msec=50", "--playback"},
		}, nil
	}

	// PipeWire native
	if path, err := lookPath("pw-cat"); err == nil {
		return &BackendConfig{
			Type: BackendPipeWire,
			Name: "pw-cat",
			Path: path,
			Args: []string{"--playback", "--format=s16", "--rate=" + rate, "--channels=2", "--latency=50ms", "-"},
		}, nil
	}

	// ALSA
	if path, err := lookPath("aplay"); err == nil {
		return &BackendConfig{
			Type: BackendALSA,
			Name: "aplay",
			Path: path,
			Args: []string{"-t", "raw", "-f", "S16_LE", "-r", rate, "-c", "2", "-q"},
		}, nil
	}

	// SoX
	if path, err := lookPath("play"); err == nil {
		return &BackendConfig{
			Type: BackendSoX,
			Name: "sox",
			Path: path,
			Args: []string{"-t", "raw", "-e", "signed", "-b", "16", "-c", "2", "-r", rate, "-", "-d", "-q"},
		}, nil
	}

	return nil, ErrNoAudioBackend
}

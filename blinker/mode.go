package blinker

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMode is returned when a mode name cannot be parsed
var ErrUnknownMode = errors.New("unknown blinker mode")

// Mode selects which sides blink
type Mode uint8

const (
	Off Mode = iota
	Left
	Right
	Hazard
)

var modeNames = [...]string{
	Off:    "off",
	Left:   "left",
	Right:  "right",
	Hazard: "hazard",
}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("mode(%d)", m)
}

// LeftSide reports whether the mode drives the left lamps
func (m Mode) LeftSide() bool {
	return m == Left || m == Hazard
}

// RightSide reports whether the mode drives the right lamps
func (m Mode) RightSide() bool {
	return m == Right || m == Hazard
}

// ParseMode converts an authored name to a Mode, case-insensitive
func ParseMode(s string) (Mode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range modeNames {
		if n == name {
			return Mode(i), nil
		}
	}
	return Off, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Phase is the half of the blink cycle currently playing
type Phase uint8

const (
	LightsOn Phase = iota
	LightsOff
)

func (p Phase) String() string {
	if p == LightsOn {
		return "on"
	}
	return "off"
}

package render

import (
	"github.com/gdamore/tcell/v2"
)

// Palette
var (
	RgbBackground = RGB{26, 27, 38} // Tokyo Night background
	RgbPath       = RGB{70, 74, 100}
	RgbWaypoint   = RGB{130, 135, 170}
	RgbDespawn    = RGB{200, 80, 80}
	RgbObstacle   = RGB{150, 150, 150}
	RgbStopRed    = RGB{255, 60, 60}
	RgbStopGreen  = RGB{60, 220, 90}
	RgbStatusText = RGB{0, 0, 0}
	RgbStatusBar  = RGB{135, 206, 250} // Light sky blue
	RgbPausedBg   = RGB{255, 165, 0}   // Orange
	RgbHelpText   = RGB{180, 180, 180}
	RgbSensorHit  = RGB{255, 220, 80}
)

// speedStops is the speed gradient from stopped to cruise
var speedStops = [...]RGB{
	{200, 50, 50},   // stopped
	{255, 200, 0},   // crawling
	{80, 220, 120},  // cruising
	{120, 200, 255}, // at the cap
}

// SpeedColor maps speed/maxSpeed onto the speed gradient
func SpeedColor(speed, maxSpeed float64) RGB {
	if maxSpeed <= 0 {
		return speedStops[0]
	}
	progress := min(max(speed/maxSpeed, 0), 1)

	seg := progress * float64(len(speedStops)-1)
	i := int(seg)
	if i >= len(speedStops)-1 {
		return speedStops[len(speedStops)-1]
	}
	return speedStops[i].Blend(speedStops[i+1], seg-float64(i))
}

// style returns fg over the background
func style(fg RGB) tcell.Style {
	return tcell.StyleDefault.Background(RgbBackground.Color()).Foreground(fg.Color())
}

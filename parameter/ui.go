package parameter

// Layout & Margins
const (
	// TopMargin for the status bar
	TopMargin = 1

	// BottomMargin for the key help line
	BottomMargin = 1

	// ViewPadding is the world border kept around the fitted routes, meters
	ViewPadding = 6.0

	// ViewCellAspect is the height/width ratio of a terminal cell
	ViewCellAspect = 2.0

	// ViewZoomStep multiplies the scale per zoom key press
	ViewZoomStep = 1.25
)

// UI Symbols
const (
	AudioStr     = "♫ "
	PausedStr    = " PAUSED "
	PathRune     = '·'
	WaypointRune = '+'
	DespawnRune  = 'x'
	ObstacleRune = '#'
	StopRune     = '='
	HoldRune     = '■'
	HitRune      = '*' // sensor contact point
)

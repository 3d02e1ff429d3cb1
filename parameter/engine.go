package parameter

import "time"

// Simulation Loop & Engine Timing
const (
	// FixedStep is the simulation tick interval (50 Hz, matches a typical physics step)
	FixedStep = 20 * time.Millisecond

	// FrameUpdateInterval is the viewer redraw interval (~30 FPS)
	FrameUpdateInterval = 33 * time.Millisecond

	// MaxCatchUpSteps bounds how many fixed steps Run executes after a stall
	MaxCatchUpSteps = 5
)

// Event Queue Limits
const (
	// EventQueueSize caps the events buffered between two dispatches
	EventQueueSize = 4096

	// EventQueueInitial is the starting capacity of the queue buffers
	EventQueueInitial = 256
)

// Physics broadphase
const (
	// BroadphaseCellSize is the XZ edge length of a spatial grid cell in meters
	BroadphaseCellSize = 8.0
)

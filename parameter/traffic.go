package parameter

// Spawning
const (
	// SpawnerMax is the default live vehicle cap per route
	SpawnerMax = 4

	// SpawnerInterval is the default seconds between spawns on a route
	SpawnerInterval = 3.0

	// SpawnerClearance is the free radius required around a spawn point
	SpawnerClearance = 4.0
)

// Signals
const (
	// SignalRed is the default red phase in seconds
	SignalRed = 8.0

	// SignalGreen is the default green phase in seconds
	SignalGreen = 10.0
)

// Headless runs
const (
	// HeadlessSteps is the default step count without the viewer (60s at 50 Hz)
	HeadlessSteps = 3000
)

// Telemetry recording
const (
	// RecorderDSN is an in-memory sqlite database
	RecorderDSN = "file::memory:"

	// RecorderSampleEvery records vehicle samples every N steps
	RecorderSampleEvery = 10

	// RecorderBatchSize is the row count per batched insert
	RecorderBatchSize = 256
)

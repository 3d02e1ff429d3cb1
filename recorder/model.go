package recorder

// VehicleSample is a periodic snapshot of one controller
type VehicleSample struct {
	ID          uint    `gorm:"primarykey"`
	Tick        int64   `gorm:"index:idx_sample_tick"`
	Vehicle     uint64  `gorm:"index:idx_sample_vehicle"`
	Route       string  `gorm:"size:64"`
	X           float64 `gorm:"column:pos_x"`
	Y           float64 `gorm:"column:pos_y"`
	Z           float64 `gorm:"column:pos_z"`
	Yaw         float64
	Speed       float64
	Desired     float64
	TargetIndex int
	SteerDeg    float64
	Blocked     bool
}

// Despawn is written once per vehicle when it leaves the simulation
type Despawn struct {
	ID      uint    `gorm:"primarykey"`
	Tick    int64   `gorm:"index:idx_despawn_tick"`
	Vehicle uint64  `gorm:"uniqueIndex:idx_despawn_vehicle"`
	Route   string  `gorm:"size:64"`
	X       float64 `gorm:"column:pos_x"`
	Y       float64 `gorm:"column:pos_y"`
	Z       float64 `gorm:"column:pos_z"`
	Index   int
	Marker  bool
}

// BlinkChange is a blinker mode transition
type BlinkChange struct {
	ID      uint   `gorm:"primarykey"`
	Tick    int64  `gorm:"index:idx_blink_tick"`
	Vehicle uint64 `gorm:"index:idx_blink_vehicle"`
	From    string `gorm:"size:16"`
	To      string `gorm:"size:16"`
}

// Models lists every migrated table
var Models = []any{
	&VehicleSample{},
	&Despawn{},
	&BlinkChange{},
}

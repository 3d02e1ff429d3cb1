package recorder

import (
	"database/sql"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lixenwraith/vi-traffic/event"
	"github.com/lixenwraith/vi-traffic/parameter"
	"github.com/lixenwraith/vi-traffic/vehicle"
)

// Options controls storage and batching
type Options struct {
	DSN         string // sqlite path or file::memory:
	SampleEvery int    // steps between vehicle samples
	BatchSize   int    // rows per insert batch, also the auto flush threshold
}

func (o Options) withDefaults() Options {
	if o.DSN == "" {
		o.DSN = parameter.RecorderDSN
	}
	if o.SampleEvery <= 0 {
		o.SampleEvery = parameter.RecorderSampleEvery
	}
	if o.BatchSize <= 0 {
		o.BatchSize = parameter.RecorderBatchSize
	}
	return o
}

// Recorder buffers telemetry rows and writes them in batches
// It is driven from the step goroutine only
type Recorder struct {
	db    *gorm.DB
	sqlDB *sql.DB
	opts  Options
	log   zerolog.Logger

	samples  []VehicleSample
	despawns []Despawn
	blinks   []BlinkChange
}

// Open connects to sqlite and migrates the schema
func Open(opts Options, log zerolog.Logger) (*Recorder, error) {
	opts = opts.withDefaults()

	db, err := gorm.Open(sqlite.Open(opts.DSN), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        opts.BatchSize,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open recorder db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql interface: %w", err)
	}
	// In-memory databases are per connection
	sqlDB.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = MEMORY;",
		"PRAGMA synchronous = OFF;",
		"PRAGMA temp_store = MEMORY;",
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("error setting PRAGMA: %w", err)
		}
	}

	if err := db.AutoMigrate(Models...); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	log.Info().Str("dsn", opts.DSN).Int("batch", opts.BatchSize).Msg("recorder ready")

	return &Recorder{
		db:    db,
		sqlDB: sqlDB,
		opts:  opts,
		log:   log,
	}, nil
}

// DB exposes the connection for queries
func (r *Recorder) DB() *gorm.DB { return r.db }

// ShouldSample reports whether tick is a sampling step
func (r *Recorder) ShouldSample(tick int64) bool {
	return tick%int64(r.opts.SampleEvery) == 0
}

// Sample buffers a snapshot of c
func (r *Recorder) Sample(tick int64, c *vehicle.Controller, route string) {
	pos := c.Position()
	blocked, _ := c.Stopline()
	r.samples = append(r.samples, VehicleSample{
		Tick:        tick,
		Vehicle:     uint64(c.ID()),
		Route:       route,
		X:           pos.X,
		Y:           pos.Y,
		Z:           pos.Z,
		Yaw:         c.Yaw(),
		Speed:       c.Speed(),
		Desired:     c.DesiredSpeed(),
		TargetIndex: c.TargetIndex(),
		SteerDeg:    c.SteerVisualDeg(),
		Blocked:     blocked,
	})
	r.flushIfFull()
}

// EventTypes implements event.Handler
func (r *Recorder) EventTypes() []event.EventType {
	return []event.EventType{event.EventVehicleDespawned, event.EventBlinkerChanged}
}

// HandleEvent implements event.Handler
func (r *Recorder) HandleEvent(ev event.SimEvent) {
	switch p := ev.Payload.(type) {
	case *event.VehicleDespawnedPayload:
		r.despawns = append(r.despawns, Despawn{
			Tick:    ev.Tick,
			Vehicle: uint64(p.Vehicle),
			Route:   p.Route,
			X:       p.Position.X,
			Y:       p.Position.Y,
			Z:       p.Position.Z,
			Index:   p.Index,
			Marker:  p.Marker,
		})
	case *event.BlinkerChangedPayload:
		r.blinks = append(r.blinks, BlinkChange{
			Tick:    ev.Tick,
			Vehicle: uint64(p.Vehicle),
			From:    p.From.String(),
			To:      p.To.String(),
		})
	default:
		return
	}
	r.flushIfFull()
}

// Pending returns the number of buffered rows
func (r *Recorder) Pending() int {
	return len(r.samples) + len(r.despawns) + len(r.blinks)
}

func (r *Recorder) flushIfFull() {
	if r.Pending() < r.opts.BatchSize {
		return
	}
	if err := r.Flush(); err != nil {
		r.log.Error().Err(err).Msg("recorder flush failed")
	}
}

// Flush writes all buffered rows, buffers are cleared even on error
func (r *Recorder) Flush() error {
	defer func() {
		r.samples = r.samples[:0]
		r.despawns = r.despawns[:0]
		r.blinks = r.blinks[:0]
	}()

	if len(r.samples) > 0 {
		if err := r.db.CreateInBatches(r.samples, r.opts.BatchSize).Error; err != nil {
			return fmt.Errorf("insert vehicle samples: %w", err)
		}
	}
	if len(r.despawns) > 0 {
		if err := r.db.CreateInBatches(r.despawns, r.opts.BatchSize).Error; err != nil {
			return fmt.Errorf("insert despawns: %w", err)
		}
	}
	if len(r.blinks) > 0 {
		if err := r.db.CreateInBatches(r.blinks, r.opts.BatchSize).Error; err != nil {
			return fmt.Errorf("insert blink changes: %w", err)
		}
	}
	return nil
}

// Close flushes pending rows and releases the connection
func (r *Recorder) Close() error {
	ferr := r.Flush()
	cerr := r.sqlDB.Close()
	if ferr != nil {
		return ferr
	}
	return cerr
}

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lixenwraith/vi-traffic/blinker"
	"github.com/lixenwraith/vi-traffic/parameter"
	"github.com/lixenwraith/vi-traffic/sensor"
	"github.com/lixenwraith/vi-traffic/vehicle"
	"github.com/lixenwraith/vi-traffic/wheel"
)

// EnvPrefix namespaces environment overrides, e.g. VITRAFFIC_VEHICLE_MAX_SPEED
const EnvPrefix = "VITRAFFIC"

var (
	ErrNoRoutes     = errors.New("no routes file configured")
	ErrUnknownLayer = errors.New("unknown collision layer")
)

// SimConfig controls the step loop
type SimConfig struct {
	Step     time.Duration `mapstructure:"step"`
	Steps    int           `mapstructure:"steps"`
	Headless bool          `mapstructure:"headless"`
}

// LogConfig selects log sinks
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// VehicleConfig mirrors vehicle.Config plus body geometry
type VehicleConfig struct {
	MaxSpeed           float64 `mapstructure:"max_speed"`
	Accel              float64 `mapstructure:"accel"`
	Brake              float64 `mapstructure:"brake"`
	SteerLerp          float64 `mapstructure:"steer_lerp"`
	WaypointRadius     float64 `mapstructure:"waypoint_radius"`
	MinGap             float64 `mapstructure:"min_gap"`
	CrawlSpeed         float64 `mapstructure:"crawl_speed"`
	SensorOffset       float64 `mapstructure:"sensor_offset"`
	StopBuffer         float64 `mapstructure:"stop_buffer"`
	HoldSnapBack       float64 `mapstructure:"hold_snap_back"`
	HoldDeadzone       float64 `mapstructure:"hold_deadzone"`
	Loop               bool    `mapstructure:"loop"`
	StartIndex         int     `mapstructure:"start_index"`
	AutoPickStartIndex bool    `mapstructure:"auto_pick_start_index"`
	BodyRadius         float64 `mapstructure:"body_radius"`
}

// SensorConfig mirrors sensor.Config with named layers
type SensorConfig struct {
	Range           float64  `mapstructure:"range"`
	Radius          float64  `mapstructure:"radius"`
	MinAlignment    float64  `mapstructure:"min_alignment"`
	Layers          []string `mapstructure:"layers"`
	IncludeTriggers bool     `mapstructure:"include_triggers"`
	Debug           bool     `mapstructure:"debug"`
}

// BlinkerConfig mirrors blinker.Config
type BlinkerConfig struct {
	OnTime    float64    `mapstructure:"on_time"`
	OffTime   float64    `mapstructure:"off_time"`
	Color     [3]float64 `mapstructure:"color"`
	Intensity float64    `mapstructure:"intensity"`
}

// WheelConfig mirrors wheel.Config plus the wheel geometry shared by all vehicles
type WheelConfig struct {
	SteerLerp      float64 `mapstructure:"steer_lerp"`
	SpinMultiplier float64 `mapstructure:"spin_multiplier"`
	Radius         float64 `mapstructure:"radius"`
	SpinAxis       string  `mapstructure:"spin_axis"`
}

// RecorderConfig controls telemetry storage
type RecorderConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	DSN         string `mapstructure:"dsn"`
	SampleEvery int    `mapstructure:"sample_every"`
	BatchSize   int    `mapstructure:"batch_size"`
}

// AudioConfig controls the relay clicker
type AudioConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	Volume  float64 `mapstructure:"volume"`
}

// StoplineConfig is one gated zone, optionally driven by a signal cycle
type StoplineConfig struct {
	Name        string     `mapstructure:"name"`
	Center      [3]float64 `mapstructure:"center"`
	HalfExtents [3]float64 `mapstructure:"half_extents"`
	Point       [3]float64 `mapstructure:"point"`
	Red         float64    `mapstructure:"red"`
	Green       float64    `mapstructure:"green"`
	Offset      float64    `mapstructure:"offset"`
	Manual      bool       `mapstructure:"manual"` // no signal, toggled by the operator
}

// SpawnerConfig is one per-route vehicle pool
type SpawnerConfig struct {
	Route    string  `mapstructure:"route"`
	Max      int     `mapstructure:"max"`
	Interval float64 `mapstructure:"interval"`
	Waypoint int     `mapstructure:"waypoint"` // spawn position index
}

// ObstacleConfig is a static body
type ObstacleConfig struct {
	Name        string     `mapstructure:"name"`
	Shape       string     `mapstructure:"shape"` // sphere or box
	Position    [3]float64 `mapstructure:"position"`
	Radius      float64    `mapstructure:"radius"`
	HalfExtents [3]float64 `mapstructure:"half_extents"`
	Trigger     bool       `mapstructure:"trigger"`
}

// Config is the full simulation configuration
type Config struct {
	Sim       SimConfig        `mapstructure:"sim"`
	Log       LogConfig        `mapstructure:"log"`
	Routes    string           `mapstructure:"routes"`
	Vehicle   VehicleConfig    `mapstructure:"vehicle"`
	Sensor    SensorConfig     `mapstructure:"sensor"`
	Blinker   BlinkerConfig    `mapstructure:"blinker"`
	Wheel     WheelConfig      `mapstructure:"wheel"`
	Recorder  RecorderConfig   `mapstructure:"recorder"`
	Audio     AudioConfig      `mapstructure:"audio"`
	Stoplines []StoplineConfig `mapstructure:"stopline"`
	Spawners  []SpawnerConfig  `mapstructure:"spawner"`
	Obstacles []ObstacleConfig `mapstructure:"obstacle"`
}

// SetDefaults registers every key with its parameter default
func SetDefaults(v *viper.Viper) {
	v.SetDefault("sim.step", parameter.FixedStep)
	v.SetDefault("sim.steps", parameter.HeadlessSteps)
	v.SetDefault("sim.headless", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	v.SetDefault("routes", "")

	v.SetDefault("vehicle.max_speed", parameter.VehicleMaxSpeed)
	v.SetDefault("vehicle.accel", parameter.VehicleAccel)
	v.SetDefault("vehicle.brake", parameter.VehicleBrake)
	v.SetDefault("vehicle.steer_lerp", parameter.VehicleSteerLerp)
	v.SetDefault("vehicle.waypoint_radius", parameter.VehicleWaypointRadius)
	v.SetDefault("vehicle.min_gap", parameter.VehicleMinGap)
	v.SetDefault("vehicle.crawl_speed", parameter.VehicleCrawlSpeed)
	v.SetDefault("vehicle.sensor_offset", parameter.VehicleSensorOffset)
	v.SetDefault("vehicle.stop_buffer", parameter.StoplineBuffer)
	v.SetDefault("vehicle.hold_snap_back", parameter.StoplineHoldSnapBack)
	v.SetDefault("vehicle.hold_deadzone", parameter.StoplineHoldDeadzone)
	v.SetDefault("vehicle.loop", true)
	v.SetDefault("vehicle.start_index", 0)
	v.SetDefault("vehicle.auto_pick_start_index", true)
	v.SetDefault("vehicle.body_radius", parameter.VehicleBodyRadius)

	v.SetDefault("sensor.range", parameter.SensorRange)
	v.SetDefault("sensor.radius", parameter.SensorRadius)
	v.SetDefault("sensor.min_alignment", parameter.SensorMinAlignment)
	v.SetDefault("sensor.layers", []string{"npc", "obstacle"})
	v.SetDefault("sensor.include_triggers", false)
	v.SetDefault("sensor.debug", false)

	v.SetDefault("blinker.on_time", parameter.BlinkOnTime)
	v.SetDefault("blinker.off_time", parameter.BlinkOffTime)
	v.SetDefault("blinker.color", parameter.BlinkEmissionColor[:])
	v.SetDefault("blinker.intensity", parameter.BlinkEmissionIntensity)

	v.SetDefault("wheel.steer_lerp", parameter.WheelSteerLerp)
	v.SetDefault("wheel.spin_multiplier", parameter.WheelSpinMultiplier)
	v.SetDefault("wheel.radius", parameter.WheelRadius)
	v.SetDefault("wheel.spin_axis", "x")

	v.SetDefault("recorder.enabled", false)
	v.SetDefault("recorder.dsn", parameter.RecorderDSN)
	v.SetDefault("recorder.sample_every", parameter.RecorderSampleEvery)
	v.SetDefault("recorder.batch_size", parameter.RecorderBatchSize)

	v.SetDefault("audio.enabled", false)
	v.SetDefault("audio.volume", parameter.AudioDefaultVolume)
}

// BindFlags maps command line flags onto config keys
// Flags absent from fs are skipped
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	bindings := map[string]string{
		"sim.headless":     "headless",
		"sim.steps":        "steps",
		"recorder.enabled": "record",
		"recorder.dsn":     "record-dsn",
		"log.level":        "log-level",
		"log.file":         "log-file",
		"audio.enabled":    "audio",
		"routes":           "routes",
	}
	for key, name := range bindings {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// New returns a viper instance with defaults and env overrides applied
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path (TOML) into a typed Config
// An empty path uses defaults, flags and environment only
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	v := New()
	if fs != nil {
		if err := BindFlags(v, fs); err != nil {
			return nil, err
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg, err := Decode(v)
	if err != nil {
		return nil, err
	}

	// Routes are resolved relative to the config file
	if path != "" && cfg.Routes != "" && !filepath.IsAbs(cfg.Routes) {
		cfg.Routes = filepath.Join(filepath.Dir(path), cfg.Routes)
	}
	return cfg, nil
}

// Decode unmarshals and validates the current viper state
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field requirements, numeric ranges are clamped downstream
func (c *Config) Validate() error {
	if c.Routes == "" {
		return ErrNoRoutes
	}
	if _, err := ParseLayers(c.Sensor.Layers); err != nil {
		return err
	}
	if _, err := wheel.ParseAxis(c.Wheel.SpinAxis); err != nil {
		return err
	}
	for i, o := range c.Obstacles {
		if o.Shape != "" && o.Shape != "sphere" && o.Shape != "box" {
			return fmt.Errorf("obstacle %d (%s): unknown shape %q", i, o.Name, o.Shape)
		}
	}
	for i, s := range c.Spawners {
		if s.Route == "" {
			return fmt.Errorf("spawner %d: route is required", i)
		}
	}
	return nil
}

// ParseLayers converts layer names to a collision mask
func ParseLayers(names []string) (uint32, error) {
	var mask uint32
	for _, n := range names {
		switch strings.ToLower(strings.TrimSpace(n)) {
		case "npc":
			mask |= parameter.LayerNPC
		case "obstacle":
			mask |= parameter.LayerObstacle
		case "player":
			mask |= parameter.LayerPlayer
		default:
			return 0, fmt.Errorf("%w: %q", ErrUnknownLayer, n)
		}
	}
	return mask, nil
}

// VehicleParams converts to controller tuning
func (c *Config) VehicleParams() vehicle.Config {
	v := c.Vehicle
	return vehicle.Config{
		MaxSpeed:           v.MaxSpeed,
		Accel:              v.Accel,
		Brake:              v.Brake,
		SteerLerp:          v.SteerLerp,
		WaypointRadius:     v.WaypointRadius,
		MinGap:             v.MinGap,
		CrawlSpeed:         v.CrawlSpeed,
		SensorOffset:       v.SensorOffset,
		StopBuffer:         v.StopBuffer,
		HoldSnapBack:       v.HoldSnapBack,
		HoldDeadzone:       v.HoldDeadzone,
		Loop:               v.Loop,
		StartIndex:         v.StartIndex,
		AutoPickStartIndex: v.AutoPickStartIndex,
	}
}

// SensorParams converts to sensor tuning, layers were checked by Validate
func (c *Config) SensorParams() sensor.Config {
	mask, _ := ParseLayers(c.Sensor.Layers)
	return sensor.Config{
		Range:           c.Sensor.Range,
		Radius:          c.Sensor.Radius,
		MinAlignment:    c.Sensor.MinAlignment,
		Layers:          mask,
		IncludeTriggers: c.Sensor.IncludeTriggers,
		Debug:           c.Sensor.Debug,
	}
}

// BlinkerParams converts to blinker tuning
func (c *Config) BlinkerParams() blinker.Config {
	return blinker.Config{
		OnTime:    c.Blinker.OnTime,
		OffTime:   c.Blinker.OffTime,
		Color:     c.Blinker.Color,
		Intensity: c.Blinker.Intensity,
	}
}

// WheelParams converts to animator tuning
func (c *Config) WheelParams() wheel.Config {
	return wheel.Config{
		SteerLerp:      c.Wheel.SteerLerp,
		SpinMultiplier: c.Wheel.SpinMultiplier,
	}
}

// WheelTemplate returns the wheel every vehicle is fitted with
func (c *Config) WheelTemplate(name string) wheel.Wheel {
	w := wheel.DefaultWheel(name)
	w.Radius = c.Wheel.Radius
	w.SpinAxis, _ = wheel.ParseAxis(c.Wheel.SpinAxis)
	return w
}

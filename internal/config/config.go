package config

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/aerocade/flightcore/internal/control"
	"github.com/aerocade/flightcore/internal/throttle"
	"github.com/aerocade/flightcore/pkg/core"
	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "flightcore.cfg.json"

// ErrInvalidSurface marks a surface entry that was skipped.
var ErrInvalidSurface = errors.New("invalid surface")

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	setDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./flightlogs")
	viper.SetDefault("logging.console", true)
	viper.SetDefault("logging.maxSizeMB", 20)
	viper.SetDefault("logging.maxBackups", 5)

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("aircraft", "jet")
	viper.SetDefault("flight.terminalVelocity", 200.0)
	viper.SetDefault("flight.flapMin", -1.0)
	viper.SetDefault("flight.flapMax", 1.0)
	viper.SetDefault("flight.sensitivity.pitch", 0.2)
	viper.SetDefault("flight.sensitivity.roll", 0.2)
	viper.SetDefault("flight.sensitivity.yaw", 0.2)

	viper.SetDefault("sim.tickRate", 50.0)
	viper.SetDefault("sim.commandQueue", 64)

	viper.SetDefault("proximity.maxDistance", 5000.0)
	viper.SetDefault("proximity.layer", 3)

	viper.SetDefault("throttle.near", 0.0)
	viper.SetDefault("throttle.far", 100.0)
	viper.SetDefault("throttle.initial", 0.0)

	viper.SetDefault("effects.jet", 0.3)
	viper.SetDefault("effects.boost", 0.6)
	viper.SetDefault("effects.boostPriority", 3)
	viper.SetDefault("effects.normalPriority", 1)

	viper.SetDefault("spawn.position.y", 150.0)

	viper.SetDefault("terrain.seed", 7)
	viper.SetDefault("terrain.amplitude", 60.0)
	viper.SetDefault("terrain.wavelength", 400.0)
	viper.SetDefault("terrain.seaLevel", 0.0)

	viper.SetDefault("geo.originLon", 13.4050)
	viper.SetDefault("geo.originLat", 52.5200)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.flushInterval", "1s")
	viper.SetDefault("storage.memory.outputDir", "./recordings")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.path", "")
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")
	viper.SetDefault("storage.postgres.host", "localhost")
	viper.SetDefault("storage.postgres.port", "5432")
	viper.SetDefault("storage.postgres.username", "postgres")
	viper.SetDefault("storage.postgres.password", "postgres")
	viper.SetDefault("storage.postgres.database", "flightcore")
	viper.SetDefault("storage.postgres.sslMode", "disable")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "flightcore")
	viper.SetDefault("influx.bucket", "telemetry")
	viper.SetDefault("influx.everyTicks", 5)

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "flightcore")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.metricInterval", "10s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// FlightConfig is the per-aircraft tuning.
type FlightConfig struct {
	Aircraft         string
	TerminalVelocity float64
	FlapMin          float64
	FlapMax          float64
	Pitch, Roll, Yaw float64
	TickRate         float64
	CommandQueue     int
}

func GetFlightConfig() FlightConfig {
	return FlightConfig{
		Aircraft:         viper.GetString("aircraft"),
		TerminalVelocity: viper.GetFloat64("flight.terminalVelocity"),
		FlapMin:          viper.GetFloat64("flight.flapMin"),
		FlapMax:          viper.GetFloat64("flight.flapMax"),
		Pitch:            viper.GetFloat64("flight.sensitivity.pitch"),
		Roll:             viper.GetFloat64("flight.sensitivity.roll"),
		Yaw:              viper.GetFloat64("flight.sensitivity.yaw"),
		TickRate:         viper.GetFloat64("sim.tickRate"),
		CommandQueue:     viper.GetInt("sim.commandQueue"),
	}
}

// ProximityConfig configures the terrain raycasts.
type ProximityConfig struct {
	MaxDistance float64
	Layer       int
}

func GetProximityConfig() ProximityConfig {
	return ProximityConfig{
		MaxDistance: viper.GetFloat64("proximity.maxDistance"),
		Layer:       viper.GetInt("proximity.layer"),
	}
}

// ThrottleConfig holds the auto-throttle curve. An empty Curve means the
// built-in default.
type ThrottleConfig struct {
	Near    float64
	Far     float64
	Initial float64
	Curve   []throttle.Keyframe
}

func GetThrottleConfig() (ThrottleConfig, error) {
	cfg := ThrottleConfig{
		Near:    viper.GetFloat64("throttle.near"),
		Far:     viper.GetFloat64("throttle.far"),
		Initial: viper.GetFloat64("throttle.initial"),
	}
	if err := viper.UnmarshalKey("throttle.curve", &cfg.Curve); err != nil {
		return cfg, fmt.Errorf("decoding throttle curve: %w", err)
	}
	return cfg, nil
}

// EffectsConfig holds the jet and camera thresholds.
type EffectsConfig struct {
	Jet            float64
	Boost          float64
	BoostPriority  int
	NormalPriority int
}

func GetEffectsConfig() EffectsConfig {
	return EffectsConfig{
		Jet:            viper.GetFloat64("effects.jet"),
		Boost:          viper.GetFloat64("effects.boost"),
		BoostPriority:  viper.GetInt("effects.boostPriority"),
		NormalPriority: viper.GetInt("effects.normalPriority"),
	}
}

// SurfaceEntry is one control surface as written in the config file.
type SurfaceEntry struct {
	Name       string   `json:"name" mapstructure:"name"`
	Role       string   `json:"role" mapstructure:"role"`
	Multiplier *float64 `json:"multiplier" mapstructure:"multiplier"`
	Active     *bool    `json:"active" mapstructure:"active"`
}

// GetSurfaces builds the aircraft's surfaces. Entries with an unknown role,
// no name or a non-finite multiplier are skipped; each one is reported in
// the returned error, which wraps ErrInvalidSurface. The surfaces that did
// parse are returned either way.
func GetSurfaces() ([]*control.Surface, error) {
	var entries []SurfaceEntry
	if err := viper.UnmarshalKey("surfaces", &entries); err != nil {
		return nil, fmt.Errorf("decoding surfaces: %w", err)
	}

	var (
		out  []*control.Surface
		errs []error
	)
	for i, e := range entries {
		if e.Name == "" {
			errs = append(errs, fmt.Errorf("%w: entry %d has no name", ErrInvalidSurface, i))
			continue
		}
		role, err := control.ParseRole(e.Role)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %v", ErrInvalidSurface, e.Name, err))
			continue
		}
		mult := 1.0
		if e.Multiplier != nil {
			mult = *e.Multiplier
		}
		if math.IsNaN(mult) || math.IsInf(mult, 0) {
			errs = append(errs, fmt.Errorf("%w: %s: multiplier %v", ErrInvalidSurface, e.Name, mult))
			continue
		}
		s := control.NewSurface(e.Name, role, mult)
		if e.Active != nil {
			s.IsControlSurface = *e.Active
		}
		out = append(out, s)
	}
	return out, errors.Join(errs...)
}

// GetSpawnPose reads the spawn point. Rotation is given in degrees.
func GetSpawnPose() core.Pose {
	pos := core.Vec3{
		X: viper.GetFloat64("spawn.position.x"),
		Y: viper.GetFloat64("spawn.position.y"),
		Z: viper.GetFloat64("spawn.position.z"),
	}
	rot := core.QuatFromEuler(
		deg(viper.GetFloat64("spawn.rotation.pitch")),
		deg(viper.GetFloat64("spawn.rotation.yaw")),
		deg(viper.GetFloat64("spawn.rotation.roll")),
	)
	return core.NewPose(pos, rot)
}

func deg(d float64) float64 { return d * math.Pi / 180 }

// TerrainConfig shapes the built-in heightfield.
type TerrainConfig struct {
	Seed       int64
	Amplitude  float64
	Wavelength float64
	SeaLevel   float64
}

func GetTerrainConfig() TerrainConfig {
	return TerrainConfig{
		Seed:       viper.GetInt64("terrain.seed"),
		Amplitude:  viper.GetFloat64("terrain.amplitude"),
		Wavelength: viper.GetFloat64("terrain.wavelength"),
		SeaLevel:   viper.GetFloat64("terrain.seaLevel"),
	}
}

// GeoConfig anchors the local frame on the globe for track export.
type GeoConfig struct {
	OriginLon float64
	OriginLat float64
}

func GetGeoConfig() GeoConfig {
	return GeoConfig{
		OriginLon: viper.GetFloat64("geo.originLon"),
		OriginLat: viper.GetFloat64("geo.originLat"),
	}
}

// LoggingConfig controls the log fan-out.
type LoggingConfig struct {
	Level          string
	Dir            string
	Console        bool
	MaxSizeMB      int
	MaxBackups     int
	GraylogEnabled bool
	GraylogAddress string
}

func GetLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:          viper.GetString("logLevel"),
		Dir:            viper.GetString("logsDir"),
		Console:        viper.GetBool("logging.console"),
		MaxSizeMB:      viper.GetInt("logging.maxSizeMB"),
		MaxBackups:     viper.GetInt("logging.maxBackups"),
		GraylogEnabled: viper.GetBool("graylog.enabled"),
		GraylogAddress: viper.GetString("graylog.address"),
	}
}

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds SQLite storage backend settings.
type SQLiteConfig struct {
	Path         string
	DumpInterval time.Duration
}

// PostgresConfig holds PostgreSQL storage backend settings.
type PostgresConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
	SSLMode  string
}

// StorageConfig selects and configures the recorder backend.
type StorageConfig struct {
	Type          string
	FlushInterval time.Duration
	Memory        MemoryConfig
	SQLite        SQLiteConfig
	Postgres      PostgresConfig
}

func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type:          viper.GetString("storage.type"),
		FlushInterval: viper.GetDuration("storage.flushInterval"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			Path:         viper.GetString("storage.sqlite.path"),
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("storage.postgres.host"),
			Port:     viper.GetString("storage.postgres.port"),
			Username: viper.GetString("storage.postgres.username"),
			Password: viper.GetString("storage.postgres.password"),
			Database: viper.GetString("storage.postgres.database"),
			SSLMode:  viper.GetString("storage.postgres.sslMode"),
		},
	}
}

// InfluxConfig holds InfluxDB connection settings.
type InfluxConfig struct {
	Enabled    bool
	Host       string
	Port       string
	Protocol   string
	Token      string
	Org        string
	Bucket     string
	EveryTicks int
}

func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:    viper.GetBool("influx.enabled"),
		Host:       viper.GetString("influx.host"),
		Port:       viper.GetString("influx.port"),
		Protocol:   viper.GetString("influx.protocol"),
		Token:      viper.GetString("influx.token"),
		Org:        viper.GetString("influx.org"),
		Bucket:     viper.GetString("influx.bucket"),
		EveryTicks: viper.GetInt("influx.everyTicks"),
	}
}

// OTelConfig holds OpenTelemetry settings.
type OTelConfig struct {
	Enabled        bool
	ServiceName    string
	BatchTimeout   time.Duration
	MetricInterval time.Duration
	Endpoint       string
	Insecure       bool
}

func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:        viper.GetBool("otel.enabled"),
		ServiceName:    viper.GetString("otel.serviceName"),
		BatchTimeout:   viper.GetDuration("otel.batchTimeout"),
		MetricInterval: viper.GetDuration("otel.metricInterval"),
		Endpoint:       viper.GetString("otel.endpoint"),
		Insecure:       viper.GetBool("otel.insecure"),
	}
}

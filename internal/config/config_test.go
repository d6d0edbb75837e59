package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aerocade/flightcore/internal/control"
	"github.com/aerocade/flightcore/internal/throttle"
	"github.com/aerocade/flightcore/pkg/core"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0644))
	return dir
}

func loadConfig(t *testing.T, body string) {
	t.Helper()
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, body)))
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	loadConfig(t, `{
		"logLevel": "debug",
		"aircraft": "trainer",
		"storage": { "postgres": { "host": "10.0.0.1", "port": "5433" } }
	}`)

	assert.Equal(t, "debug", viper.GetString("logLevel"))
	assert.Equal(t, "trainer", viper.GetString("aircraft"))
	assert.Equal(t, "10.0.0.1", viper.GetString("storage.postgres.host"))
	assert.Equal(t, "5433", viper.GetString("storage.postgres.port"))
}

func TestLoad_DefaultValues(t *testing.T) {
	loadConfig(t, `{}`)

	assert.Equal(t, "info", viper.GetString("logLevel"))
	assert.Equal(t, "./flightlogs", viper.GetString("logsDir"))
	assert.Equal(t, false, viper.GetBool("graylog.enabled"))
	assert.Equal(t, "localhost:12201", viper.GetString("graylog.address"))
	assert.Equal(t, "memory", viper.GetString("storage.type"))
	assert.Equal(t, "./recordings", viper.GetString("storage.memory.outputDir"))
	assert.Equal(t, true, viper.GetBool("storage.memory.compressOutput"))
	assert.Equal(t, "3m", viper.GetString("storage.sqlite.dumpInterval"))
	assert.Equal(t, false, viper.GetBool("otel.enabled"))
	assert.Equal(t, "flightcore", viper.GetString("otel.serviceName"))
	assert.Equal(t, "5s", viper.GetString("otel.batchTimeout"))
	assert.Equal(t, "", viper.GetString("otel.endpoint"))
	assert.Equal(t, true, viper.GetBool("otel.insecure"))
}

func TestLoad_MissingFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load("/nonexistent/path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestGetters(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testKey", "testValue")
	viper.Set("testInt", 42)
	viper.Set("testBool", true)

	assert.Equal(t, "testValue", GetString("testKey"))
	assert.Equal(t, 42, GetInt("testInt"))
	assert.Equal(t, true, GetBool("testBool"))
}

func TestGetFlightConfig(t *testing.T) {
	loadConfig(t, `{
		"flight": { "terminalVelocity": 320, "sensitivity": { "roll": 0.35 } },
		"sim": { "tickRate": 60 }
	}`)

	fc := GetFlightConfig()
	assert.Equal(t, "jet", fc.Aircraft)
	assert.Equal(t, 320.0, fc.TerminalVelocity)
	assert.Equal(t, 0.2, fc.Pitch)
	assert.Equal(t, 0.35, fc.Roll)
	assert.Equal(t, -1.0, fc.FlapMin)
	assert.Equal(t, 1.0, fc.FlapMax)
	assert.Equal(t, 60.0, fc.TickRate)
	assert.Equal(t, 64, fc.CommandQueue)
}

func TestGetProximityAndEffects_Defaults(t *testing.T) {
	loadConfig(t, `{}`)

	assert.Equal(t, ProximityConfig{MaxDistance: 5000, Layer: 3}, GetProximityConfig())
	assert.Equal(t, EffectsConfig{Jet: 0.3, Boost: 0.6, BoostPriority: 3, NormalPriority: 1}, GetEffectsConfig())
}

func TestGetThrottleConfig(t *testing.T) {
	loadConfig(t, `{
		"throttle": {
			"far": 250,
			"curve": [
				{ "time": 0, "value": 0.9 },
				{ "time": 1, "value": -0.2 }
			]
		}
	}`)

	tc, err := GetThrottleConfig()
	require.NoError(t, err)
	assert.Equal(t, 0.0, tc.Near)
	assert.Equal(t, 250.0, tc.Far)
	assert.Equal(t, []throttle.Keyframe{{Time: 0, Value: 0.9}, {Time: 1, Value: -0.2}}, tc.Curve)
}

func TestGetThrottleConfig_NoCurve(t *testing.T) {
	loadConfig(t, `{}`)

	tc, err := GetThrottleConfig()
	require.NoError(t, err)
	assert.Empty(t, tc.Curve)
}

func TestGetSurfaces(t *testing.T) {
	loadConfig(t, `{
		"surfaces": [
			{ "name": "elevator", "role": "pitch", "multiplier": -1 },
			{ "name": "aileron_l", "role": "Roll" },
			{ "name": "strake", "role": "none", "active": false },
			{ "name": "canard", "role": "thrust" },
			{ "role": "yaw" }
		]
	}`)

	surfaces, err := GetSurfaces()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidSurface))
	assert.Contains(t, err.Error(), "canard")
	assert.Contains(t, err.Error(), "entry 4")

	require.Len(t, surfaces, 3)
	assert.Equal(t, "elevator", surfaces[0].Name)
	assert.Equal(t, control.RolePitch, surfaces[0].Role)
	assert.Equal(t, -1.0, surfaces[0].InputMultiplier)
	assert.True(t, surfaces[0].IsControlSurface)

	assert.Equal(t, control.RoleRoll, surfaces[1].Role)
	assert.Equal(t, 1.0, surfaces[1].InputMultiplier)

	assert.Equal(t, control.RoleNone, surfaces[2].Role)
	assert.False(t, surfaces[2].IsControlSurface)
}

func TestGetSurfaces_Empty(t *testing.T) {
	loadConfig(t, `{}`)

	surfaces, err := GetSurfaces()
	require.NoError(t, err)
	assert.Empty(t, surfaces)
}

func TestGetSpawnPose(t *testing.T) {
	loadConfig(t, `{
		"spawn": { "position": { "x": 10, "y": 300, "z": -5 }, "rotation": { "yaw": 90 } }
	}`)

	p := GetSpawnPose()
	assert.Equal(t, core.Vec3{X: 10, Y: 300, Z: -5}, p.Position)
	assert.Equal(t, core.One, p.Scale)

	fwd := p.Rotation.Forward()
	assert.InDelta(t, 1, fwd.X, 1e-9)
	assert.InDelta(t, 0, fwd.Z, 1e-9)
	assert.InDelta(t, math.Pi/2, deg(90), 1e-12)
}

func TestGetStorageConfig_Defaults(t *testing.T) {
	loadConfig(t, `{}`)

	cfg := GetStorageConfig()
	assert.Equal(t, "memory", cfg.Type)
	assert.Equal(t, time.Second, cfg.FlushInterval)
	assert.Equal(t, "./recordings", cfg.Memory.OutputDir)
	assert.Equal(t, true, cfg.Memory.CompressOutput)
	assert.Equal(t, 3*time.Minute, cfg.SQLite.DumpInterval)
	assert.Equal(t, "flightcore", cfg.Postgres.Database)
	assert.Equal(t, "disable", cfg.Postgres.SSLMode)
}

func TestGetStorageConfig_Override(t *testing.T) {
	loadConfig(t, `{
		"storage": {
			"type": "sqlite",
			"memory": { "outputDir": "/tmp/out", "compressOutput": false },
			"sqlite": { "path": "/tmp/flight.db", "dumpInterval": "10m" }
		}
	}`)

	sc := GetStorageConfig()
	assert.Equal(t, "sqlite", sc.Type)
	assert.Equal(t, "/tmp/out", sc.Memory.OutputDir)
	assert.Equal(t, false, sc.Memory.CompressOutput)
	assert.Equal(t, "/tmp/flight.db", sc.SQLite.Path)
	assert.Equal(t, 10*time.Minute, sc.SQLite.DumpInterval)
}

func TestGetInfluxConfig_Defaults(t *testing.T) {
	loadConfig(t, `{}`)

	ic := GetInfluxConfig()
	assert.False(t, ic.Enabled)
	assert.Equal(t, "telemetry", ic.Bucket)
	assert.Equal(t, 5, ic.EveryTicks)
}

func TestGetOTelConfig_Override(t *testing.T) {
	loadConfig(t, `{
		"otel": {
			"enabled": true,
			"serviceName": "my-service",
			"batchTimeout": "30s",
			"metricInterval": "1m",
			"endpoint": "localhost:4318",
			"insecure": false
		}
	}`)

	oc := GetOTelConfig()
	assert.Equal(t, true, oc.Enabled)
	assert.Equal(t, "my-service", oc.ServiceName)
	assert.Equal(t, 30*time.Second, oc.BatchTimeout)
	assert.Equal(t, time.Minute, oc.MetricInterval)
	assert.Equal(t, "localhost:4318", oc.Endpoint)
	assert.Equal(t, false, oc.Insecure)
}

func TestGetLoggingAndGeo(t *testing.T) {
	loadConfig(t, `{ "graylog": { "enabled": true }, "geo": { "originLat": 47.5 } }`)

	lc := GetLoggingConfig()
	assert.True(t, lc.GraylogEnabled)
	assert.Equal(t, "localhost:12201", lc.GraylogAddress)
	assert.Equal(t, 20, lc.MaxSizeMB)

	gc := GetGeoConfig()
	assert.Equal(t, 47.5, gc.OriginLat)
	assert.Equal(t, 13.405, gc.OriginLon)

	assert.Equal(t, TerrainConfig{Seed: 7, Amplitude: 60, Wavelength: 400}, GetTerrainConfig())
}

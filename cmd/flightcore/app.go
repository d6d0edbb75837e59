package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aerocade/flightcore/internal/config"
	"github.com/aerocade/flightcore/internal/dispatcher"
	"github.com/aerocade/flightcore/internal/flight"
	"github.com/aerocade/flightcore/internal/geo"
	"github.com/aerocade/flightcore/internal/hud"
	"github.com/aerocade/flightcore/internal/influx"
	"github.com/aerocade/flightcore/internal/logging"
	"github.com/aerocade/flightcore/internal/monitor"
	intOtel "github.com/aerocade/flightcore/internal/otel"
	"github.com/aerocade/flightcore/internal/recorder"
	"github.com/aerocade/flightcore/internal/session"
	"github.com/aerocade/flightcore/internal/sim"
	"github.com/aerocade/flightcore/internal/storage"
	"github.com/aerocade/flightcore/internal/terrain"
	"github.com/aerocade/flightcore/pkg/core"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// respawnAfter is how long a wreck stays down before the sortie respawns it.
const respawnAfter = 2 * time.Second

// app is one wired flight session.
type app struct {
	start time.Time

	slogManager *logging.SlogManager
	logger      *slog.Logger
	zlog        zerolog.Logger
	otel        *intOtel.Provider

	backend  storage.Backend
	recorder *recorder.Recorder
	influx   *influx.Manager
	sessCtx  *session.Context
	monitor  *monitor.Service

	tickRate   float64
	terrain    *terrain.Heightfield
	body       *sim.Body
	unit       *flight.Unit
	commands   *dispatcher.Dispatcher
	script     *sim.Script
	hud        *hud.HUD
	presenters []flight.Presenter

	closers []io.Closer
}

// newApp wires logging, telemetry sinks, storage and the flight unit from
// the loaded config. configErr is logged, not fatal: defaults still apply.
// With a screen the pilot flies from the keyboard instead of the sortie
// script.
func newApp(configErr error, screen tcell.Screen) (*app, error) {
	a := &app{
		start:   time.Now(),
		sessCtx: session.NewContext(),
	}
	if screen != nil {
		a.hud = hud.New(screen)
	}
	if err := a.setupLogging(); err != nil {
		return nil, err
	}
	if configErr != nil {
		a.logger.Warn("Failed to load config, using defaults!", "error", configErr)
	} else {
		a.logger.Info("Loaded config")
	}

	projector, err := geo.NewProjector(config.GetGeoConfig().OriginLon, config.GetGeoConfig().OriginLat)
	if err != nil {
		a.logger.Warn("Invalid geo origin, tracks will not be georeferenced", "error", err)
		projector = nil
	}

	if err := a.setupStorage(projector); err != nil {
		a.close()
		return nil, err
	}
	a.setupInflux()

	if err := a.setupUnit(); err != nil {
		a.close()
		return nil, err
	}

	a.monitor = monitor.NewService(monitor.Dependencies{
		LogManager:     a.slogManager,
		SessionContext: a.sessCtx,
		Recorder:       a.recorder,
		Backend:        a.backend,
		StatusDir:      config.GetLoggingConfig().Dir,
	})
	if err := a.monitor.Start(); err != nil {
		a.logger.Warn("Failed to start status monitor", "error", err)
	}
	return a, nil
}

func (a *app) setupLogging() error {
	lc := config.GetLoggingConfig()
	if err := os.MkdirAll(lc.Dir, 0755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	logPath := logging.LogFilePath(lc.Dir, AppName, a.start)
	logFile := logging.NewFileWriter(logPath, lc.MaxSizeMB, lc.MaxBackups)
	a.closers = append(a.closers, logFile)

	// The HUD owns the terminal.
	consoleOn := lc.Console && a.hud == nil
	var console io.Writer
	if consoleOn {
		console = os.Stdout
	}
	a.zlog = logging.NewZerolog(console, logFile, lc.Level)

	// OTel is set up before slog so its log bridge can be attached.
	otelCfg := config.GetOTelConfig()
	provider, err := intOtel.New(intOtel.Config{
		Enabled:        otelCfg.Enabled,
		ServiceName:    otelCfg.ServiceName,
		BatchTimeout:   otelCfg.BatchTimeout,
		MetricInterval: otelCfg.MetricInterval,
		LogWriter:      logFile,
		MetricWriter:   logFile,
		Endpoint:       otelCfg.Endpoint,
		Insecure:       otelCfg.Insecure,
	})
	if err != nil {
		a.zlog.Error().Err(err).Msg("Failed to initialize OTel provider")
		provider, _ = intOtel.New(intOtel.Config{})
	}
	a.otel = provider
	a.otel.SetGlobal()

	var opts []logging.Option
	if consoleOn {
		opts = append(opts, logging.WithConsole())
	}
	if lc.GraylogEnabled {
		gw, err := logging.NewGraylogWriter(lc.GraylogAddress)
		if err != nil {
			a.zlog.Error().Err(err).Str("address", lc.GraylogAddress).Msg("Graylog disabled")
		} else {
			opts = append(opts, logging.WithGraylog(gw))
			a.closers = append(a.closers, gw)
		}
	}
	opts = append(opts, logging.WithSession(a.sessCtx))

	var otelLogProvider *sdklog.LoggerProvider
	if a.otel.Enabled() {
		otelLogProvider = a.otel.LoggerProvider()
	}
	a.slogManager = logging.NewSlogManager()
	a.slogManager.Setup(logFile, lc.Level, otelLogProvider, opts...)
	a.logger = a.slogManager.Logger()
	a.logger.Info("Logging to file", "path", logPath, "version", BuildVersion)
	return nil
}

func (a *app) setupStorage(projector *geo.Projector) error {
	storageCfg := config.GetStorageConfig()
	backend, err := createStorageBackend(storageCfg, a.slogManager, projector)
	if err != nil {
		a.logger.Error("Failed to create storage backend", "error", err)
		return err
	}
	if err := backend.Init(); err != nil {
		a.logger.Error("Failed to initialize storage backend", "error", err)
		_ = backend.Close()
		return err
	}
	a.backend = backend

	a.recorder = recorder.New(backend,
		recorder.WithFlushInterval(storageCfg.FlushInterval),
		recorder.WithLogger(a.slogManager.Component("recorder")),
	)
	a.recorder.Start()
	return nil
}

func (a *app) setupInflux() {
	ic := config.GetInfluxConfig()
	if !ic.Enabled {
		return
	}
	backup := filepath.Join(config.GetLoggingConfig().Dir,
		fmt.Sprintf("influx_backup_%s.log.gz", a.start.Format("20060102_150405")))
	m := influx.NewManager(a.zlog.With().Str("component", "influx").Logger(), ic, backup)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.Connect(ctx); err != nil {
		a.logger.Error("InfluxDB unavailable", "error", err)
		return
	}
	a.influx = m
}

func (a *app) setupUnit() error {
	fc := config.GetFlightConfig()
	a.tickRate = fc.TickRate
	if a.tickRate <= 0 {
		a.tickRate = 50
	}

	surfaces, err := configuredSurfaces()
	if err != nil {
		if len(surfaces) == 0 && !errors.Is(err, config.ErrInvalidSurface) {
			return err
		}
		a.logger.Warn("Skipped control surfaces", "error", err)
	}

	curve, throttleOpts, err := throttleOptions()
	if err != nil {
		return err
	}

	spawn := config.GetSpawnPose()
	a.terrain = terrain.New(config.GetTerrainConfig())
	if c := a.terrain.Clearance(spawn.Position); c < 10 {
		spawn.Position.Y += 10 - c
	}

	a.commands, err = dispatcher.New(logging.NewComponentLogger(a.zlog.With().Str("component", "dispatcher").Logger()))
	if err != nil {
		return fmt.Errorf("creating dispatcher: %w", err)
	}

	a.body = sim.NewBody(sim.DefaultBodyConfig(), surfaces, spawn,
		sim.WithGround(a.terrain),
		sim.WithVelocity(spawn.Rotation.Forward().Scale(100)),
		sim.WithImpact(a.onImpact),
	)
	a.script = sortie()

	a.presenters = []flight.Presenter{a.sessCtx, a.recorder}
	if a.influx != nil {
		a.presenters = append(a.presenters, a.influx)
	}
	var input flight.Input = a.script
	opts := []flight.Option{}
	if a.hud != nil {
		input = a.hud
		a.presenters = append(a.presenters, a.hud)
		opts = append(opts, flight.WithEffects(a.hud))
	}

	a.unit, err = flight.New(flightConfig(), surfaces, spawn, append(opts,
		flight.WithBody(a.body),
		flight.WithInput(input),
		flight.WithDampener(sim.SpeedDampener{MinAuthority: 0.3}),
		flight.WithRaycaster(a.terrain, proximityConfig()),
		flight.WithThrottle(curve, throttleOpts...),
		flight.WithEventSink(a.recorder),
		flight.WithPresenters(a.presenters...),
		flight.WithLogger(a.slogManager.Component("flight")),
	)...)
	if err != nil {
		return fmt.Errorf("creating flight unit: %w", err)
	}
	a.unit.RegisterCommands(a.commands, fc.CommandQueue)

	sess := &core.Session{
		Aircraft:     fc.Aircraft,
		StartTime:    a.start,
		TickRate:     a.tickRate,
		SpawnPose:    spawn,
		BuildVersion: BuildVersion,
	}
	if err := a.backend.StartSession(sess); err != nil {
		return fmt.Errorf("starting session: %w", err)
	}
	a.sessCtx.SetSession(sess)
	if a.influx != nil {
		a.influx.SetSession(sess)
	}
	a.logger.Info("Session started", "surfaces", len(surfaces), "tickRate", a.tickRate)
	return nil
}

// onImpact runs inside body.Step; the kill lands on the next tick.
func (a *app) onImpact(p core.Vec3) {
	a.logger.Info("Ground impact", "x", p.X, "y", p.Y, "z", p.Z)
	a.dispatch(flight.CmdKill)
}

func (a *app) dispatch(command string, args ...string) {
	if _, err := a.commands.Dispatch(dispatcher.Event{Command: command, Args: args, Timestamp: time.Now()}); err != nil {
		a.logger.Error("Command failed", "command", command, "error", err)
	}
}

// step runs one fixed tick plus one render frame.
func (a *app) step(dt float64) {
	a.unit.OnFixedTick(dt)
	a.body.Step(dt)
	a.unit.OnVariableTick(dt)
}

// fly runs the scripted sortie for ticks fixed ticks, or until ctx ends
// when ticks is 0, and returns the last frame.
func (a *app) fly(ctx context.Context, ticks int, realtime bool) (core.Telemetry, error) {
	dt := 1 / a.tickRate
	var pace <-chan time.Time
	if ticks <= 0 && !realtime {
		return core.Telemetry{}, errors.New("ticks must be positive unless running in realtime")
	}
	if realtime {
		t := time.NewTicker(time.Duration(dt * float64(time.Second)))
		defer t.Stop()
		pace = t.C
	}

	respawnTicks := uint64(respawnAfter.Seconds() * a.tickRate)
	var deadSince uint64
	for i := 0; ticks <= 0 || i < ticks; i++ {
		if pace != nil {
			select {
			case <-ctx.Done():
				return a.sessCtx.Last(), nil
			case <-pace:
			}
		} else if ctx.Err() != nil {
			return a.sessCtx.Last(), nil
		}

		tick := uint64(i) + 1
		for _, c := range sortieCommands[tick] {
			a.dispatch(c.command, c.args...)
		}

		a.step(dt)

		switch {
		case !a.unit.IsDead():
			deadSince = 0
		case deadSince == 0:
			deadSince = tick
		case tick-deadSince >= respawnTicks:
			a.dispatch(flight.CmdRespawn)
			deadSince = 0
		}
	}
	return a.sessCtx.Last(), nil
}

// flyHUD hands the stick to the keyboard and draws the HUD until the
// pilot quits or ctx ends.
func (a *app) flyHUD(ctx context.Context) error {
	if a.hud == nil {
		return errors.New("no HUD screen")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	actions := make(chan hud.Action, 8)
	go a.hud.Listen(ctx, actions)

	dt := 1 / a.tickRate
	ticker := time.NewTicker(time.Duration(dt * float64(time.Second)))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case act, ok := <-actions:
			if !ok {
				return nil
			}
			switch act {
			case hud.ActionQuit:
				return nil
			case hud.ActionKill:
				a.dispatch(flight.CmdKill)
			case hud.ActionRespawn:
				a.dispatch(flight.CmdRespawn)
			case hud.ActionBoost:
				a.dispatch(flight.CmdSetThrust, "1", "2")
			}
		case <-ticker.C:
			a.step(dt)
		}
	}
}

// close stops every service in reverse order of start. Errors are logged.
func (a *app) close() {
	if a.monitor != nil {
		a.monitor.Stop()
	}
	if a.recorder != nil {
		if err := a.recorder.Stop(); err != nil {
			a.logger.Error("Final recorder flush failed", "error", err)
		}
	}
	if a.backend != nil {
		if a.sessCtx.GetSession().ID != 0 {
			if err := a.backend.EndSession(); err != nil {
				a.logger.Error("Failed to end session", "error", err)
			}
		}
		if exp, ok := a.backend.(storage.Exporter); ok && exp.ExportedFilePath() != "" {
			a.logger.Info("Recording saved", "path", exp.ExportedFilePath())
		}
		if err := a.backend.Close(); err != nil {
			a.logger.Error("Failed to close storage backend", "error", err)
		}
	}
	if a.influx != nil {
		if err := a.influx.Close(); err != nil {
			a.logger.Error("Failed to close InfluxDB", "error", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if a.slogManager != nil {
		_ = a.slogManager.Flush(ctx)
	}
	if a.otel != nil {
		if err := a.otel.Shutdown(ctx); err != nil {
			a.logger.Error("OTel shutdown failed", "error", err)
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
	a.closers = nil
}

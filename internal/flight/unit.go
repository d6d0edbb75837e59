// Package flight ties the control mixer, proximity sensor, throttle and
// life cycle together behind the two per-frame entry points a host calls.
package flight

import (
	"context"
	"errors"
	"time"

	"github.com/aerocade/flightcore/internal/control"
	"github.com/aerocade/flightcore/internal/dispatcher"
	"github.com/aerocade/flightcore/internal/lifecycle"
	"github.com/aerocade/flightcore/internal/proximity"
	"github.com/aerocade/flightcore/internal/throttle"
	"github.com/aerocade/flightcore/pkg/core"
)

// Config holds per-aircraft tuning.
type Config struct {
	Aircraft         string
	Sensitivity      control.Sensitivity
	TerminalVelocity float64 // m/s
	FlapMin, FlapMax float64
	Effects          EffectThresholds
}

// DefaultConfig returns the stock jet tuning.
func DefaultConfig() Config {
	return Config{
		Aircraft:         "jet",
		Sensitivity:      control.DefaultSensitivity,
		TerminalVelocity: 200,
		FlapMin:          -1,
		FlapMax:          1,
		Effects:          DefaultEffectThresholds(),
	}
}

// Option wires a collaborator into the unit.
type Option func(*Unit)

func WithBody(b Body) Option {
	return func(u *Unit) { u.body = b }
}

func WithInput(in Input) Option {
	return func(u *Unit) { u.input = in }
}

// WithDampener sets the pitch/roll dampener. Without one, axes pass through.
func WithDampener(d Dampener) Option {
	return func(u *Unit) { u.dampener = d }
}

func WithEffects(e Effects) Option {
	return func(u *Unit) { u.effects = e }
}

func WithEventSink(s EventSink) Option {
	return func(u *Unit) { u.sink = s }
}

// WithPresenters appends telemetry presenters; each gets every frame in
// registration order.
func WithPresenters(p ...Presenter) Option {
	return func(u *Unit) { u.presenters = append(u.presenters, p...) }
}

// WithRaycaster enables the proximity sensor.
func WithRaycaster(r proximity.Raycaster, cfg proximity.Config) Option {
	return func(u *Unit) { u.sensor = proximity.NewSensor(r, cfg) }
}

// WithThrottle sets the proximity curve and throttle options.
func WithThrottle(curve throttle.Curve, opts ...throttle.Option) Option {
	return func(u *Unit) {
		u.curve = curve
		u.throttleOpts = opts
	}
}

// WithLogger sets the logger. *slog.Logger satisfies Logger.
func WithLogger(l Logger) Option {
	return func(u *Unit) {
		if l != nil {
			u.logger = l
		}
	}
}

// WithClock overrides the wall clock used to stamp frames and events.
func WithClock(now func() time.Time) Option {
	return func(u *Unit) { u.now = now }
}

// Unit is the flight control unit. All methods must be called from the
// host's tick goroutine; scripting from elsewhere goes through the
// dispatcher registered with RegisterCommands.
type Unit struct {
	cfg      Config
	surfaces []*control.Surface
	mixer    *control.Mixer
	sensor   *proximity.Sensor
	throttle *throttle.Controller
	life     *lifecycle.Controller

	curve        throttle.Curve
	throttleOpts []throttle.Option

	body       Body
	input      Input
	dampener   Dampener
	presenters []Presenter
	effects    Effects
	sink       EventSink
	commands   *dispatcher.Dispatcher
	logger     Logger
	now        func() time.Time
	metrics    *metrics

	tick       uint64
	cmd        core.PilotCommand
	minDist    float64
	sensing    bool
	cue        EffectCue
	cueApplied bool
	last       core.Telemetry
}

// New builds a unit for the given surfaces. spawn is where Respawn puts the
// aircraft back; it never changes afterwards.
func New(cfg Config, surfaces []*control.Surface, spawn core.Pose, opts ...Option) (*Unit, error) {
	u := &Unit{
		cfg:      cfg,
		surfaces: surfaces,
		mixer:    control.NewMixer(cfg.Sensitivity),
		logger:   nopLogger{},
		now:      time.Now,
		minDist:  proximity.Unbounded,
		sensing:  true,
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.sensor == nil {
		u.sensor = proximity.NewSensor(nil, proximity.DefaultConfig)
	}
	if u.curve == nil {
		u.curve = throttle.DefaultCurve()
	}
	if u.cfg.FlapMin > u.cfg.FlapMax {
		u.cfg.FlapMin, u.cfg.FlapMax = u.cfg.FlapMax, u.cfg.FlapMin
	}
	u.cue = EffectCue{CameraPriority: u.cfg.Effects.NormalPriority}

	m, err := newMetrics()
	if err != nil {
		return nil, err
	}
	u.metrics = m

	u.throttle = throttle.New(u.curve, append(u.throttleOpts, throttle.WithListener(u.onThrottle))...)

	var transform lifecycle.Transform
	if u.body != nil {
		transform = u.body
	}
	u.life = lifecycle.New(transform, spawn)
	u.life.OnTransition(u.onTransition)

	return u, nil
}

// OnFixedTick advances the simulation by dt seconds.
func (u *Unit) OnFixedTick(dt float64) {
	u.tick++
	if u.commands != nil {
		u.commands.Drain()
	}

	bodyOK := u.bodyReady()
	var (
		pose  core.Pose
		speed float64
	)
	if bodyOK {
		pose = u.body.Pose()
		speed = u.body.Velocity().Length()
	}

	u.cmd = u.readInput(speed)

	var sample proximity.Sample
	err := proximity.ErrUnavailable
	if bodyOK {
		sample, err = u.sensor.Sample(pose.Position, pose.Rotation)
	}
	if err == nil {
		u.minDist = sample.Min()
		u.throttle.Tick(dt, u.minDist)
	} else {
		u.minDist = proximity.Unbounded
		u.throttle.Advance(dt)
	}
	u.noteSensing(err)

	mixed := 0
	if u.life.IsDead() {
		u.throttle.ForceZero()
		if bodyOK {
			u.body.Freeze()
		}
	} else {
		mixed = u.mixer.Mix(u.cmd, u.surfaces)
		if bodyOK {
			u.body.SetThrustPercent(u.throttle.Thrust())
		}
	}

	u.last = core.Telemetry{
		Tick:      u.tick,
		Time:      u.now(),
		Speed:     speed,
		Altitude:  pose.Position.Y,
		Thrust:    u.throttle.Thrust(),
		Override:  u.throttle.Overriding(),
		Destroyed: u.life.IsDead(),
		Position:  pose.Position,
	}
	for _, p := range u.presenters {
		if p != nil && ready(p) {
			p.Present(u.last)
		}
	}
	u.metrics.recordTick(context.Background(), mixed, u.last, u.minDist)
}

// OnVariableTick refreshes presentation-only effects once per rendered
// frame.
func (u *Unit) OnVariableTick(dt float64) {
	next := u.cfg.Effects.Next(u.cue, u.throttle.Thrust())
	if u.cueApplied && next == u.cue {
		return
	}
	u.cue = next
	if u.effects != nil && ready(u.effects) {
		u.effects.ApplyEffects(next)
		u.cueApplied = true
	}
}

func (u *Unit) readInput(speed float64) core.PilotCommand {
	var raw core.PilotCommand
	if u.input != nil && ready(u.input) {
		raw = u.input.Axes()
	}
	cmd := raw.Clamped(u.cfg.FlapMin, u.cfg.FlapMax)
	if u.dampener != nil && ready(u.dampener) {
		cmd.Pitch, cmd.Roll = u.dampener.Dampen(cmd.Pitch, cmd.Roll, speed, u.cfg.TerminalVelocity)
		cmd = cmd.Clamped(u.cfg.FlapMin, u.cfg.FlapMax)
	}
	return cmd
}

func (u *Unit) bodyReady() bool {
	return u.body != nil && ready(u.body)
}

func (u *Unit) noteSensing(err error) {
	ok := err == nil
	if ok == u.sensing {
		return
	}
	u.sensing = ok
	if ok {
		u.logger.Info("proximity sensor available", "tick", u.tick)
	} else if errors.Is(err, proximity.ErrUnavailable) {
		u.logger.Debug("proximity sensor unavailable, auto-throttle paused", "tick", u.tick)
	}
}

// SetThrust forces thrust to value in [0, 1]. A non-zero duration holds it
// for that many seconds of game time before auto-throttle resumes; a newer
// call replaces an older one.
func (u *Unit) SetThrust(value, durationSeconds float64) {
	u.throttle.SetThrust(value, durationSeconds)
}

// ResetThrust hands thrust back to the auto-throttle.
func (u *Unit) ResetThrust() {
	u.throttle.ResetThrust()
}

// Kill destroys the aircraft: thrust drops to zero and the body freezes.
func (u *Unit) Kill() bool {
	if !u.life.Kill() {
		return false
	}
	u.throttle.ForceZero()
	if u.bodyReady() {
		u.body.SetThrustPercent(0)
		u.body.Freeze()
	}
	return true
}

// Respawn puts a destroyed aircraft back on its spawn pose with no motion,
// zero thrust and no pending override. It does nothing while alive.
func (u *Unit) Respawn() bool {
	if !u.life.Respawn() {
		return false
	}
	u.throttle.ResetThrust()
	u.throttle.ForceZero()
	u.cmd = core.PilotCommand{}
	return true
}

func (u *Unit) IsDead() bool {
	return u.life.IsDead()
}

// TerminalVelocity is the speed, in m/s, at which the dampener applies
// full authority.
func (u *Unit) TerminalVelocity() float64 {
	return u.cfg.TerminalVelocity
}

func (u *Unit) Thrust() float64 {
	return u.throttle.Thrust()
}

// Surfaces returns the current deflection of every surface.
func (u *Unit) Surfaces() []control.Reading {
	return control.Readings(u.surfaces)
}

// Snapshot is a read-only copy of the unit's state.
type Snapshot struct {
	Aircraft          string
	State             lifecycle.State
	Thrust            float64
	Override          bool
	Deadline          time.Duration
	HasDeadline       bool
	GameTime          time.Duration
	Command           core.PilotCommand
	MinGroundDistance float64
	Effects           EffectCue
	Surfaces          []control.Reading
	Telemetry         core.Telemetry
}

// Snapshot copies the current state.
func (u *Unit) Snapshot() Snapshot {
	deadline, has := u.throttle.Deadline()
	return Snapshot{
		Aircraft:          u.cfg.Aircraft,
		State:             u.life.State(),
		Thrust:            u.throttle.Thrust(),
		Override:          u.throttle.Overriding(),
		Deadline:          deadline,
		HasDeadline:       has,
		GameTime:          u.throttle.Now(),
		Command:           u.cmd,
		MinGroundDistance: u.minDist,
		Effects:           u.cue,
		Surfaces:          u.Surfaces(),
		Telemetry:         u.last,
	}
}

func (u *Unit) position() core.Vec3 {
	if u.bodyReady() {
		return u.body.Pose().Position
	}
	return u.life.SpawnPose().Position
}

func (u *Unit) onTransition(from, to lifecycle.State) {
	kind := core.LifecycleKilled
	if to == lifecycle.Alive {
		kind = core.LifecycleRespawned
	}
	u.logger.Info("aircraft "+string(kind), "aircraft", u.cfg.Aircraft, "tick", u.tick, "from", from.String())
	u.metrics.recordTransition(context.Background(), to)

	if u.sink != nil {
		u.sink.OnLifecycle(core.LifecycleEvent{
			Tick:     u.tick,
			Time:     u.now(),
			Kind:     kind,
			Position: u.position(),
			Thrust:   u.throttle.Thrust(),
		})
	}
}

func (u *Unit) onThrottle(ch throttle.Change) {
	u.logger.Debug("throttle "+string(ch.Kind), "thrust", ch.Thrust, "duration", ch.Duration, "tick", u.tick)
	u.metrics.recordThrottle(context.Background(), ch.Kind)

	if u.sink != nil {
		u.sink.OnThrottle(core.ThrottleEvent{
			Tick:     u.tick,
			Time:     u.now(),
			Kind:     ch.Kind,
			Thrust:   ch.Thrust,
			Duration: ch.Duration,
		})
	}
}

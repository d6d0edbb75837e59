package flight

import (
	"github.com/aerocade/flightcore/internal/lifecycle"
	"github.com/aerocade/flightcore/pkg/core"
)

// Readiness is implemented by collaborators that can be temporarily
// unavailable. A collaborator that does not implement it is always ready.
type Readiness interface {
	Ready() bool
}

// Body is the rigid body and aerodynamics model the unit steers.
type Body interface {
	lifecycle.Transform
	Pose() core.Pose
	Velocity() core.Vec3
	SetThrustPercent(thrust float64)
	// Freeze locks position and rotation until the next ClearMotion.
	Freeze()
}

// Input polls the pilot's controls once per tick.
type Input interface {
	Axes() core.PilotCommand
}

// Dampener softens pitch and roll as speed approaches terminal velocity.
type Dampener interface {
	Dampen(pitch, roll, speed, terminalVelocity float64) (float64, float64)
}

// Presenter receives one telemetry frame per fixed tick. Frames are values;
// presenters may keep them.
type Presenter interface {
	Present(t core.Telemetry)
}

// Effects drives exhaust particles and the chase camera.
type Effects interface {
	ApplyEffects(cue EffectCue)
}

// EventSink is told about life-cycle transitions and scripted throttle
// changes.
type EventSink interface {
	OnLifecycle(e core.LifecycleEvent)
	OnThrottle(e core.ThrottleEvent)
}

// Logger is the subset of *slog.Logger the unit uses.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

func ready(v any) bool {
	if r, ok := v.(Readiness); ok {
		return r.Ready()
	}
	return true
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

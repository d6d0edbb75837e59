// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"database/sql"
	"time"

	"github.com/aerocade/flightcore/internal/geo"
	"github.com/aerocade/flightcore/internal/model"
	"github.com/aerocade/flightcore/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

// locate projects a local position, or returns an empty point without a projector.
func locate(p *geo.Projector, v core.Vec3) geom.Point {
	if p == nil {
		return geom.NewEmptyPoint(geom.DimXYZ)
	}
	return p.Point(v)
}

// CoreToSession converts a core.Session to a GORM model.Session.
func CoreToSession(s core.Session) model.Session {
	return model.Session{
		ID:           s.ID,
		Aircraft:     s.Aircraft,
		StartTime:    s.StartTime,
		TickRate:     s.TickRate,
		SpawnPose:    datatypes.NewJSONType(s.SpawnPose),
		BuildVersion: s.BuildVersion,
	}
}

// CoreToTelemetryFrame converts one tick of telemetry. A nil projector
// leaves Location empty.
func CoreToTelemetryFrame(sessionID uint, t core.Telemetry, p *geo.Projector) model.TelemetryFrame {
	return model.TelemetryFrame{
		SessionID: sessionID,
		Tick:      t.Tick,
		Time:      t.Time,
		Speed:     t.Speed,
		Altitude:  t.Altitude,
		Thrust:    t.Thrust,
		Override:  t.Override,
		Destroyed: t.Destroyed,
		X:         t.Position.X,
		Y:         t.Position.Y,
		Z:         t.Position.Z,
		Location:  locate(p, t.Position),
	}
}

// CoreToLifecycleEvent converts a core.LifecycleEvent to a GORM model.LifecycleEvent.
func CoreToLifecycleEvent(sessionID uint, e core.LifecycleEvent) model.LifecycleEvent {
	return model.LifecycleEvent{
		ID:        e.ID,
		SessionID: sessionID,
		Tick:      e.Tick,
		Time:      e.Time,
		Kind:      string(e.Kind),
		X:         e.Position.X,
		Y:         e.Position.Y,
		Z:         e.Position.Z,
		Thrust:    e.Thrust,
	}
}

// CoreToThrottleEvent converts a core.ThrottleEvent. A negative duration
// (override without deadline) is stored as NULL.
func CoreToThrottleEvent(sessionID uint, e core.ThrottleEvent) model.ThrottleEvent {
	var d sql.NullInt64
	if e.Duration >= 0 {
		d = sql.NullInt64{Int64: e.Duration.Milliseconds(), Valid: true}
	}
	return model.ThrottleEvent{
		ID:         e.ID,
		SessionID:  sessionID,
		Tick:       e.Tick,
		Time:       e.Time,
		Kind:       string(e.Kind),
		Thrust:     e.Thrust,
		DurationMs: d,
	}
}

// SessionToCore converts a stored session back to core.
func SessionToCore(s model.Session) core.Session {
	return core.Session{
		ID:           s.ID,
		Aircraft:     s.Aircraft,
		StartTime:    s.StartTime,
		TickRate:     s.TickRate,
		SpawnPose:    s.SpawnPose.Data(),
		BuildVersion: s.BuildVersion,
	}
}

// TelemetryFrameToCore converts a stored frame back to core.
func TelemetryFrameToCore(f model.TelemetryFrame) core.Telemetry {
	return core.Telemetry{
		Tick:      f.Tick,
		Time:      f.Time,
		Speed:     f.Speed,
		Altitude:  f.Altitude,
		Thrust:    f.Thrust,
		Override:  f.Override,
		Destroyed: f.Destroyed,
		Position:  core.Vec3{X: f.X, Y: f.Y, Z: f.Z},
	}
}

// ThrottleEventToCore converts a stored throttle event back to core.
func ThrottleEventToCore(e model.ThrottleEvent) core.ThrottleEvent {
	d := time.Duration(-1)
	if e.DurationMs.Valid {
		d = time.Duration(e.DurationMs.Int64) * time.Millisecond
	}
	return core.ThrottleEvent{
		ID:       e.ID,
		Tick:     e.Tick,
		Time:     e.Time,
		Kind:     core.ThrottleEventKind(e.Kind),
		Thrust:   e.Thrust,
		Duration: d,
	}
}

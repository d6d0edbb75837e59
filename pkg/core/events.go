// pkg/core/events.go
package core

import "time"

// Session describes one continuous flight of one aircraft, from spawn to
// shutdown. Respawns stay inside the session.
type Session struct {
	ID           uint
	Aircraft     string
	StartTime    time.Time
	TickRate     float64 // fixed ticks per second
	SpawnPose    Pose
	BuildVersion string
}

// LifecycleKind names a life-cycle transition.
type LifecycleKind string

const (
	LifecycleKilled    LifecycleKind = "killed"
	LifecycleRespawned LifecycleKind = "respawned"
)

// LifecycleEvent is emitted whenever the aircraft is destroyed or respawned.
type LifecycleEvent struct {
	ID       uint
	Tick     uint64
	Time     time.Time
	Kind     LifecycleKind
	Position Vec3
	Thrust   float64
}

// ThrottleEventKind names a throttle override change.
type ThrottleEventKind string

const (
	ThrottleOverride ThrottleEventKind = "override"
	ThrottleSet      ThrottleEventKind = "set"
	ThrottleReverted ThrottleEventKind = "reverted"
)

// ThrottleEvent is emitted when thrust is forced by script or an override
// ends.
type ThrottleEvent struct {
	ID       uint
	Tick     uint64
	Time     time.Time
	Kind     ThrottleEventKind
	Thrust   float64
	Duration time.Duration
}

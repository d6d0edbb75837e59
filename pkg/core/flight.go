// pkg/core/flight.go
package core

import (
	"fmt"
	"time"
)

// PilotCommand is one tick's worth of pilot intent. It is recomputed every
// tick and never persisted.
type PilotCommand struct {
	Pitch float64
	Roll  float64
	Yaw   float64
	Flap  float64
}

// Clamped returns the command with pitch, roll and yaw limited to [-1, 1]
// and flap limited to [flapMin, flapMax].
func (c PilotCommand) Clamped(flapMin, flapMax float64) PilotCommand {
	return PilotCommand{
		Pitch: Clamp(c.Pitch, -1, 1),
		Roll:  Clamp(c.Roll, -1, 1),
		Yaw:   Clamp(c.Yaw, -1, 1),
		Flap:  Clamp(c.Flap, flapMin, flapMax),
	}
}

// Telemetry is the status record published to presenters once per tick.
type Telemetry struct {
	Tick      uint64
	Time      time.Time
	Speed     float64 // m/s
	Altitude  float64 // m, world Y
	Thrust    float64 // 0..1
	Override  bool
	Destroyed bool
	Position  Vec3
}

// ThrustPercent returns thrust as a whole percentage, truncated.
func (t Telemetry) ThrustPercent() int {
	return int(t.Thrust * 100)
}

// String renders the three-line cockpit readout.
func (t Telemetry) String() string {
	return fmt.Sprintf("V: %d m/s\nA: %d m\nT: %d%%", int(t.Speed), int(t.Altitude), t.ThrustPercent())
}

// Package control turns pilot axes into per-surface deflection commands.
package control

import "github.com/aerocade/flightcore/pkg/core"

// Sensitivity holds the aircraft-level gains for the three rotational axes.
// Flap input has no sensitivity term.
type Sensitivity struct {
	Pitch float64
	Roll  float64
	Yaw   float64
}

// DefaultSensitivity matches the stock airframe tuning.
var DefaultSensitivity = Sensitivity{Pitch: 0.2, Roll: 0.2, Yaw: 0.2}

type axisFunc func(cmd core.PilotCommand) float64

// Mixer maps a pilot command onto control surfaces through a role table.
type Mixer struct {
	sensitivity Sensitivity
	axes        map[Role]axisFunc
}

// NewMixer builds the role dispatch table for the given sensitivities.
func NewMixer(s Sensitivity) *Mixer {
	m := &Mixer{sensitivity: s}
	m.axes = map[Role]axisFunc{
		RolePitch: func(c core.PilotCommand) float64 { return c.Pitch * m.sensitivity.Pitch },
		RoleRoll:  func(c core.PilotCommand) float64 { return c.Roll * m.sensitivity.Roll },
		RoleYaw:   func(c core.PilotCommand) float64 { return c.Yaw * m.sensitivity.Yaw },
		RoleFlap:  func(c core.PilotCommand) float64 { return c.Flap },
	}
	return m
}

// Sensitivity returns the configured gains.
func (m *Mixer) Sensitivity() Sensitivity {
	return m.sensitivity
}

// Mix writes a new angle to every active surface whose role has an axis.
// Nil entries, inactive surfaces and RoleNone keep their previous angle.
// It returns how many surfaces were updated.
func (m *Mixer) Mix(cmd core.PilotCommand, surfaces []*Surface) int {
	updated := 0
	for _, s := range surfaces {
		if s == nil || !s.IsControlSurface {
			continue
		}
		axis, ok := m.axes[s.Role]
		if !ok {
			continue
		}
		s.angle = axis(cmd) * s.InputMultiplier
		updated++
	}
	return updated
}

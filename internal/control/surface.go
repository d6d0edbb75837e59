package control

import (
	"fmt"
	"strings"
)

// Role selects which pilot axis drives a surface.
type Role uint8

const (
	RoleNone Role = iota
	RolePitch
	RoleRoll
	RoleYaw
	RoleFlap
)

var roleNames = map[Role]string{
	RoleNone:  "none",
	RolePitch: "pitch",
	RoleRoll:  "roll",
	RoleYaw:   "yaw",
	RoleFlap:  "flap",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("role(%d)", uint8(r))
}

// ParseRole converts a config role name (case-insensitive) to a Role.
func ParseRole(s string) (Role, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for r, name := range roleNames {
		if name == want {
			return r, nil
		}
	}
	return RoleNone, fmt.Errorf("unknown control role %q", s)
}

// Surface is one movable aerodynamic panel. Its commanded angle is written
// only by the Mixer and read by the physics collaborator.
type Surface struct {
	Name             string
	Role             Role
	IsControlSurface bool

	// InputMultiplier carries polarity (sign) and per-surface gain.
	InputMultiplier float64

	angle float64
}

// NewSurface creates an active control surface.
func NewSurface(name string, role Role, multiplier float64) *Surface {
	return &Surface{
		Name:             name,
		Role:             role,
		IsControlSurface: true,
		InputMultiplier:  multiplier,
	}
}

// Angle returns the angle committed by the last mixer pass.
func (s *Surface) Angle() float64 {
	return s.angle
}

// Reading is a read-only view of a surface for presenters and snapshots.
type Reading struct {
	Name  string
	Role  Role
	Angle float64
}

// Readings copies the current angles of all non-nil surfaces.
func Readings(surfaces []*Surface) []Reading {
	out := make([]Reading, 0, len(surfaces))
	for _, s := range surfaces {
		if s == nil {
			continue
		}
		out = append(out, Reading{Name: s.Name, Role: s.Role, Angle: s.angle})
	}
	return out
}

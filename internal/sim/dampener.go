package sim

import "github.com/aerocade/flightcore/pkg/core"

// SpeedDampener scales pitch and roll down linearly with speed, reaching
// MinAuthority at terminal velocity.
type SpeedDampener struct {
	MinAuthority float64
}

// Dampen implements flight.Dampener.
func (d SpeedDampener) Dampen(pitch, roll, speed, terminalVelocity float64) (float64, float64) {
	if terminalVelocity <= 0 {
		return pitch, roll
	}
	f := 1 + (core.Clamp(d.MinAuthority, 0, 1)-1)*core.InverseLerp(0, terminalVelocity, speed)
	return pitch * f, roll * f
}

package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuat_RotateBodyAxes(t *testing.T) {
	yaw90 := QuatFromAxisAngle(Up, math.Pi/2)

	assert.InDelta(t, 1.0, yaw90.Forward().X, 1e-9)
	assert.InDelta(t, 0.0, yaw90.Forward().Z, 1e-9)
	assert.InDelta(t, -1.0, yaw90.Right().Z, 1e-9)
	assert.InDelta(t, 1.0, yaw90.Up().Y, 1e-9)
}

func TestQuat_IdentityKeepsAxes(t *testing.T) {
	assert.Equal(t, Forward, Identity.Forward())
	assert.Equal(t, Up, Identity.Up())
	assert.Equal(t, Right, Identity.Right())
}

func TestQuat_NormalizeZero(t *testing.T) {
	assert.Equal(t, Identity, Quat{}.Normalize())
}

func TestClamp(t *testing.T) {
	tests := []struct {
		name string
		v    float64
		want float64
	}{
		{"inside", 0.25, 0.25},
		{"below", -3, 0},
		{"above", 7, 1},
		{"nan", math.NaN(), 0},
		{"+inf", math.Inf(1), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clamp(tt.v, 0, 1))
		})
	}
}

func TestInverseLerp(t *testing.T) {
	assert.Equal(t, 0.0, InverseLerp(0, 100, 0))
	assert.Equal(t, 0.5, InverseLerp(0, 100, 50))
	assert.Equal(t, 1.0, InverseLerp(0, 100, 100))
	assert.Equal(t, 1.0, InverseLerp(0, 100, 250))
	assert.Equal(t, 1.0, InverseLerp(0, 100, math.Inf(1)))
	assert.Equal(t, 0.0, InverseLerp(0, 100, -5))
	assert.Equal(t, 0.0, InverseLerp(5, 5, 10))
}

func TestTelemetry_String(t *testing.T) {
	tel := Telemetry{Speed: 123.9, Altitude: 45.2, Thrust: 0.879}
	assert.Equal(t, "V: 123 m/s\nA: 45 m\nT: 87%", tel.String())
}

func TestPilotCommand_Clamped(t *testing.T) {
	cmd := PilotCommand{Pitch: 2, Roll: -2, Yaw: 0.5, Flap: 0.9}.Clamped(0, 0.5)
	assert.Equal(t, PilotCommand{Pitch: 1, Roll: -1, Yaw: 0.5, Flap: 0.5}, cmd)
}

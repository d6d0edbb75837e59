// Package sim is a small point-mass airframe that stands in for a physics
// engine when the flight unit runs headless.
package sim

import (
	"math"

	"github.com/aerocade/flightcore/internal/control"
	"github.com/aerocade/flightcore/pkg/core"
)

// Ground is the terrain the body can fly into.
type Ground interface {
	Clearance(p core.Vec3) float64
}

// BodyConfig tunes the airframe. Rates are radians per second at full
// surface deflection.
type BodyConfig struct {
	Mass      float64 // kg
	MaxThrust float64 // N
	Drag      float64 // N per (m/s)^2
	Lift      float64 // N per (m/s)^2 of forward speed
	FlapLift  float64 // extra lift fraction per unit of flap
	Gravity   float64 // m/s^2
	PitchRate float64
	RollRate  float64
	YawRate   float64
}

// DefaultBodyConfig cruises level at about 100 m/s and tops out near
// 200 m/s on full thrust.
func DefaultBodyConfig() BodyConfig {
	return BodyConfig{
		Mass:      1000,
		MaxThrust: 20000,
		Drag:      0.5,
		Lift:      0.981,
		FlapLift:  0.3,
		Gravity:   9.81,
		PitchRate: 4,
		RollRate:  6,
		YawRate:   2,
	}
}

// Body integrates pose and velocity from thrust and surface angles.
type Body struct {
	cfg      BodyConfig
	surfaces []*control.Surface
	ground   Ground
	onImpact func(core.Vec3)

	pose     core.Pose
	velocity core.Vec3
	thrust   float64
	frozen   bool
	ready    bool
}

// BodyOption configures a Body.
type BodyOption func(*Body)

// WithGround enables ground impact.
func WithGround(g Ground) BodyOption {
	return func(b *Body) { b.ground = g }
}

// WithImpact is called once per impact with the contact point.
func WithImpact(fn func(core.Vec3)) BodyOption {
	return func(b *Body) { b.onImpact = fn }
}

// WithVelocity sets the initial velocity.
func WithVelocity(v core.Vec3) BodyOption {
	return func(b *Body) { b.velocity = v }
}

// NewBody creates a body at pose steered by surfaces.
func NewBody(cfg BodyConfig, surfaces []*control.Surface, pose core.Pose, opts ...BodyOption) *Body {
	b := &Body{
		cfg:      cfg,
		surfaces: surfaces,
		pose:     pose,
		ready:    true,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Body) Pose() core.Pose            { return b.pose }
func (b *Body) Velocity() core.Vec3        { return b.velocity }
func (b *Body) SetPose(p core.Pose)        { b.pose = p }
func (b *Body) Thrust() float64            { return b.thrust }
func (b *Body) Frozen() bool               { return b.frozen }
func (b *Body) Ready() bool                { return b.ready }
func (b *Body) SetReady(ready bool)        { b.ready = ready }
func (b *Body) SetThrustPercent(t float64) { b.thrust = core.Clamp(t, 0, 1) }
func (b *Body) Freeze()                    { b.frozen = true }

// ClearMotion stops the body and lifts a freeze.
func (b *Body) ClearMotion() {
	b.velocity = core.Vec3{}
	b.frozen = false
}

// deflections averages the committed angle of each role.
func (b *Body) deflections() (pitch, roll, yaw, flap float64) {
	var sum, n [5]float64
	for _, s := range b.surfaces {
		if s == nil || !s.IsControlSurface || int(s.Role) >= len(sum) {
			continue
		}
		sum[s.Role] += s.Angle()
		n[s.Role]++
	}
	avg := func(r control.Role) float64 {
		if n[r] == 0 {
			return 0
		}
		return sum[r] / n[r]
	}
	return avg(control.RolePitch), avg(control.RoleRoll), avg(control.RoleYaw), avg(control.RoleFlap)
}

// Step advances the body by dt seconds. A frozen body does not move.
func (b *Body) Step(dt float64) {
	if b.frozen || dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return
	}
	pitch, roll, yaw, flap := b.deflections()

	// Positive pitch raises the nose, positive roll drops the right wing.
	delta := core.QuatFromAxisAngle(core.Right, -pitch*b.cfg.PitchRate*dt).
		Mul(core.QuatFromAxisAngle(core.Forward, -roll*b.cfg.RollRate*dt)).
		Mul(core.QuatFromAxisAngle(core.Up, yaw*b.cfg.YawRate*dt))
	rot := b.pose.Rotation.Mul(delta).Normalize()

	fwd, up := rot.Forward(), rot.Up()
	speed := b.velocity.Length()
	fwdSpeed := math.Max(b.velocity.Dot(fwd), 0)

	force := fwd.Scale(b.thrust * b.cfg.MaxThrust).
		Add(up.Scale(b.cfg.Lift * fwdSpeed * fwdSpeed * (1 + flap*b.cfg.FlapLift))).
		Add(b.velocity.Scale(-b.cfg.Drag * speed))
	accel := force.Scale(1 / b.cfg.Mass).Add(core.Vec3{Y: -b.cfg.Gravity})

	b.velocity = b.velocity.Add(accel.Scale(dt))
	b.pose.Rotation = rot
	b.pose.Position = b.pose.Position.Add(b.velocity.Scale(dt))

	if b.ground != nil {
		if c := b.ground.Clearance(b.pose.Position); c <= 0 {
			b.pose.Position.Y -= c
			b.velocity = core.Vec3{}
			b.frozen = true
			if b.onImpact != nil {
				b.onImpact(b.pose.Position)
			}
		}
	}
}

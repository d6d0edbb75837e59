package flight

import (
	"github.com/aerocade/flightcore/internal/proximity"
	"github.com/aerocade/flightcore/pkg/core"
)

type fakeBody struct {
	pose     core.Pose
	velocity core.Vec3
	thrust   []float64
	frozen   int
	cleared  int
	down     bool
}

func (b *fakeBody) SetPose(p core.Pose)         { b.pose = p }
func (b *fakeBody) ClearMotion()                { b.cleared++; b.velocity = core.Vec3{} }
func (b *fakeBody) Pose() core.Pose             { return b.pose }
func (b *fakeBody) Velocity() core.Vec3         { return b.velocity }
func (b *fakeBody) SetThrustPercent(t float64)  { b.thrust = append(b.thrust, t) }
func (b *fakeBody) Freeze()                     { b.frozen++ }
func (b *fakeBody) Ready() bool                 { return !b.down }
func (b *fakeBody) lastThrust() (float64, bool) { return last(b.thrust) }

func last(v []float64) (float64, bool) {
	if len(v) == 0 {
		return 0, false
	}
	return v[len(v)-1], true
}

type fakeInput struct {
	cmd core.PilotCommand
}

func (f *fakeInput) Axes() core.PilotCommand { return f.cmd }

type flatGround struct {
	distance float64
	down     bool
}

func (g *flatGround) Raycast(_, dir core.Vec3, maxDistance float64, _ proximity.LayerMask) (float64, bool) {
	if dir.Y > -0.5 || g.distance > maxDistance {
		return 0, false
	}
	return g.distance, true
}

func (g *flatGround) Ready() bool { return !g.down }

type halfDampener struct{}

func (halfDampener) Dampen(pitch, roll, speed, terminal float64) (float64, float64) {
	if speed >= terminal {
		return pitch / 2, roll / 2
	}
	return pitch, roll
}

type recordingPresenter struct {
	frames []core.Telemetry
}

func (p *recordingPresenter) Present(t core.Telemetry) { p.frames = append(p.frames, t) }

type recordingEffects struct {
	cues []EffectCue
}

func (e *recordingEffects) ApplyEffects(c EffectCue) { e.cues = append(e.cues, c) }

type recordingSink struct {
	lifecycle []core.LifecycleEvent
	throttle  []core.ThrottleEvent
}

func (s *recordingSink) OnLifecycle(e core.LifecycleEvent) { s.lifecycle = append(s.lifecycle, e) }
func (s *recordingSink) OnThrottle(e core.ThrottleEvent)   { s.throttle = append(s.throttle, e) }

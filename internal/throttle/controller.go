// Package throttle owns the aircraft thrust level: proximity-driven
// auto-throttle plus scripted overrides that revert after a game-time delay.
package throttle

import (
	"math"
	"time"

	"github.com/aerocade/flightcore/pkg/core"
)

// Change describes a scripted thrust change, reported to the listener.
type Change struct {
	Kind     core.ThrottleEventKind
	Thrust   float64
	Duration time.Duration
}

// Option configures a Controller.
type Option func(*Controller)

// WithRange sets the ground distances mapped to curve inputs 0 and 1.
func WithRange(near, far float64) Option {
	return func(c *Controller) {
		c.near, c.far = near, far
	}
}

// WithInitialThrust sets the thrust at spawn.
func WithInitialThrust(v float64) Option {
	return func(c *Controller) {
		c.thrust = core.Clamp(v, 0, 1)
	}
}

// WithListener receives every scripted change and reversion.
func WithListener(fn func(Change)) Option {
	return func(c *Controller) {
		c.listener = fn
	}
}

// Controller holds thrust in [0, 1]. While an override is active the
// proximity curve is ignored.
type Controller struct {
	curve     Curve
	near, far float64

	thrust   float64
	override bool
	clock    float64 // game seconds
	now      time.Duration
	revert   Deferred

	listener func(Change)
}

// DefaultNear and DefaultFar bound the proximity normalization in meters.
const (
	DefaultNear = 0.0
	DefaultFar  = 100.0
)

// New creates a controller. A nil curve behaves as a flat zero curve.
func New(curve Curve, opts ...Option) *Controller {
	if curve == nil {
		curve = CurveFunc(func(float64) float64 { return 0 })
	}
	c := &Controller{
		curve: curve,
		near:  DefaultNear,
		far:   DefaultFar,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tick advances the clock by dt seconds, fires a due reversion and, unless
// overriding, applies the proximity curve. It returns the new thrust.
func (c *Controller) Tick(dt, minGroundDistance float64) float64 {
	dt = sanitizeDelta(dt)
	c.Advance(dt)

	if !c.override && !math.IsNaN(minGroundDistance) {
		rate := c.curve.Evaluate(core.InverseLerp(c.near, c.far, minGroundDistance))
		if !math.IsNaN(rate) && !math.IsInf(rate, 0) {
			c.thrust += rate * dt
		}
	}
	c.thrust = core.Clamp(c.thrust, 0, 1)
	return c.thrust
}

// Advance moves the game clock without sampling proximity.
func (c *Controller) Advance(dt float64) {
	c.clock += sanitizeDelta(dt)
	c.now = seconds(c.clock)
	c.revert.Poll(c.now)
}

// SetThrust forces thrust to value. A non-zero duration starts an override
// that reverts after duration seconds of game time, replacing any pending
// reversion; a negative duration reverts on the next tick and +Inf never
// reverts on its own. A zero duration leaves the override state untouched.
func (c *Controller) SetThrust(value, duration float64) {
	c.thrust = core.Clamp(value, 0, 1)

	if duration == 0 || math.IsNaN(duration) {
		c.notify(Change{Kind: core.ThrottleSet, Thrust: c.thrust})
		return
	}

	c.override = true
	switch {
	case math.IsInf(duration, 1):
		c.revert.Cancel()
		c.notify(Change{Kind: core.ThrottleOverride, Thrust: c.thrust, Duration: -1})
		return
	case duration < 0:
		duration = 0
	}

	c.revert.Schedule(seconds(c.clock+duration), c.endOverride)
	c.notify(Change{Kind: core.ThrottleOverride, Thrust: c.thrust, Duration: seconds(duration)})
}

// ResetThrust ends the override now and cancels the pending reversion.
func (c *Controller) ResetThrust() {
	c.revert.Cancel()
	if c.override {
		c.endOverride()
	}
}

// ForceZero drops thrust to zero without touching the override state.
func (c *Controller) ForceZero() {
	c.thrust = 0
}

func (c *Controller) endOverride() {
	c.override = false
	c.notify(Change{Kind: core.ThrottleReverted, Thrust: c.thrust})
}

func (c *Controller) notify(ch Change) {
	if c.listener != nil {
		c.listener(ch)
	}
}

// Thrust returns the current thrust in [0, 1].
func (c *Controller) Thrust() float64 { return c.thrust }

// Overriding reports whether auto-throttle is suspended.
func (c *Controller) Overriding() bool { return c.override }

// Deadline returns when the pending reversion fires on the game clock.
func (c *Controller) Deadline() (time.Duration, bool) { return c.revert.Deadline() }

// Now returns the accumulated game time.
func (c *Controller) Now() time.Duration { return c.now }

// seconds rounds to the nearest nanosecond so that float tick sums such as
// 300 * (1/60) land exactly on their deadline.
func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}

func sanitizeDelta(dt float64) float64 {
	if math.IsNaN(dt) || dt < 0 || math.IsInf(dt, 0) {
		return 0
	}
	return dt
}

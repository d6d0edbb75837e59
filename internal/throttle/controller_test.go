package throttle

import (
	"math"
	"testing"
	"time"

	"github.com/aerocade/flightcore/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bleed loses 10%/s far from the ground and gains 50%/s on the deck.
var bleed = CurveFunc(func(t float64) float64 {
	return 0.5 - 0.6*t
})

func TestTick_AppliesCurve(t *testing.T) {
	c := New(bleed, WithInitialThrust(0.5))

	got := c.Tick(0.1, 0)
	assert.InDelta(t, 0.55, got, 1e-9)

	got = c.Tick(0.1, math.Inf(1))
	assert.InDelta(t, 0.54, got, 1e-9)
}

func TestTick_ClampsToUnitRange(t *testing.T) {
	up := New(CurveFunc(func(float64) float64 { return 100 }))
	assert.Equal(t, 1.0, up.Tick(1, 0))

	down := New(CurveFunc(func(float64) float64 { return -100 }), WithInitialThrust(0.2))
	assert.Equal(t, 0.0, down.Tick(1, 0))
}

func TestTick_MalformedCurveContributesNothing(t *testing.T) {
	for name, v := range map[string]float64{"nan": math.NaN(), "inf": math.Inf(1), "-inf": math.Inf(-1)} {
		t.Run(name, func(t *testing.T) {
			c := New(CurveFunc(func(float64) float64 { return v }), WithInitialThrust(0.4))
			assert.Equal(t, 0.4, c.Tick(0.1, 10))
		})
	}
}

func TestTick_IgnoresBadDelta(t *testing.T) {
	c := New(bleed, WithInitialThrust(0.5))
	for _, dt := range []float64{-1, math.NaN(), math.Inf(1)} {
		assert.Equal(t, 0.5, c.Tick(dt, 0))
	}
	assert.Equal(t, time.Duration(0), c.Now())
}

func TestTick_CustomRange(t *testing.T) {
	var seen float64
	c := New(CurveFunc(func(t float64) float64 { seen = t; return 0 }), WithRange(10, 20))

	c.Tick(0.1, 15)
	assert.InDelta(t, 0.5, seen, 1e-9)
	c.Tick(0.1, 5)
	assert.Equal(t, 0.0, seen)
}

func TestOverride_SuspendsCurveUntilDeadline(t *testing.T) {
	c := New(bleed)
	c.SetThrust(1.0, 5.0)
	require.True(t, c.Overriding())

	for i := 0; i < 49; i++ {
		c.Tick(0.1, 1000)
	}
	assert.Equal(t, 1.0, c.Thrust(), "curve must not apply while overriding")
	assert.True(t, c.Overriding())
	assert.Equal(t, 4900*time.Millisecond, c.Now())

	c.Tick(0.1, 1000)
	assert.False(t, c.Overriding())
	assert.InDelta(t, 0.99, c.Thrust(), 1e-9, "auto-throttle resumes on the reverting tick")
}

func TestOverride_RevertsOnTimeAtSixtyHertz(t *testing.T) {
	const dt = 1.0 / 60
	c := New(bleed)
	c.SetThrust(1.0, 5.0)

	for i := 0; i < 299; i++ {
		c.Tick(dt, 1000)
	}
	assert.True(t, c.Overriding())
	assert.Equal(t, 1.0, c.Thrust())

	c.Tick(dt, 1000)
	assert.Equal(t, 5*time.Second, c.Now())
	assert.False(t, c.Overriding(), "reversion fires on the tick that reaches 5s")
}

func TestOverride_LastCallWins(t *testing.T) {
	c := New(bleed)
	c.SetThrust(0.8, 2)
	c.Tick(1, 1000)
	c.SetThrust(0.6, 5)

	deadline, ok := c.Deadline()
	require.True(t, ok)
	assert.Equal(t, 6*time.Second, deadline)

	for i := 0; i < 4; i++ {
		c.Tick(1, 1000)
	}
	assert.True(t, c.Overriding(), "first deadline at 2s must not fire")
	assert.Equal(t, 0.6, c.Thrust())

	c.Tick(1, 1000)
	assert.False(t, c.Overriding())
}

func TestOverride_ZeroDurationKeepsOverride(t *testing.T) {
	c := New(bleed)
	c.SetThrust(0.9, 3)
	c.SetThrust(0.4, 0)

	assert.True(t, c.Overriding())
	assert.Equal(t, 0.4, c.Thrust())
	deadline, ok := c.Deadline()
	assert.True(t, ok)
	assert.Equal(t, 3*time.Second, deadline)
}

func TestOverride_ZeroDurationWithoutOverride(t *testing.T) {
	c := New(bleed)
	c.SetThrust(0.7, 0)
	assert.False(t, c.Overriding())
	assert.Equal(t, 0.7, c.Thrust())
}

func TestOverride_NegativeDurationRevertsNextTick(t *testing.T) {
	c := New(bleed)
	c.SetThrust(0.5, -3)
	assert.True(t, c.Overriding())

	c.Tick(0.02, 1000)
	assert.False(t, c.Overriding())
}

func TestOverride_InfiniteDurationHoldsUntilReset(t *testing.T) {
	c := New(bleed)
	c.SetThrust(0.5, math.Inf(1))
	_, pending := c.Deadline()
	assert.False(t, pending)

	for i := 0; i < 100; i++ {
		c.Tick(1, 1000)
	}
	assert.True(t, c.Overriding())

	c.ResetThrust()
	assert.False(t, c.Overriding())
}

func TestSetThrust_ClampsValue(t *testing.T) {
	c := New(nil)
	c.SetThrust(1.7, 0)
	assert.Equal(t, 1.0, c.Thrust())
	c.SetThrust(-0.3, 0)
	assert.Equal(t, 0.0, c.Thrust())
	c.SetThrust(math.NaN(), 0)
	assert.Equal(t, 0.0, c.Thrust())
}

func TestResetThrust_CancelsPending(t *testing.T) {
	c := New(bleed)
	c.SetThrust(1, 5)
	c.ResetThrust()

	assert.False(t, c.Overriding())
	_, pending := c.Deadline()
	assert.False(t, pending)
	assert.Equal(t, 1.0, c.Thrust(), "reset keeps the current value")
}

func TestAdvance_FiresReversionWithoutCurve(t *testing.T) {
	c := New(bleed)
	c.SetThrust(0.3, 1)
	c.Advance(1)
	assert.False(t, c.Overriding())
	assert.Equal(t, 0.3, c.Thrust())
}

func TestForceZero(t *testing.T) {
	c := New(bleed, WithInitialThrust(0.9))
	c.SetThrust(0.9, 10)
	c.ForceZero()
	assert.Equal(t, 0.0, c.Thrust())
	assert.True(t, c.Overriding())
}

func TestListener(t *testing.T) {
	var changes []Change
	c := New(bleed, WithListener(func(ch Change) { changes = append(changes, ch) }))

	c.SetThrust(0.8, 1.5)
	c.SetThrust(0.5, 0)
	c.Tick(2, 1000)
	c.ResetThrust()

	require.Len(t, changes, 3)
	assert.Equal(t, Change{Kind: core.ThrottleOverride, Thrust: 0.8, Duration: 1500 * time.Millisecond}, changes[0])
	assert.Equal(t, core.ThrottleSet, changes[1].Kind)
	assert.Equal(t, core.ThrottleReverted, changes[2].Kind)
}

package throttle

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyframes_Evaluate(t *testing.T) {
	k := NewKeyframes(
		Keyframe{Time: 1, Value: -1},
		Keyframe{Time: 0, Value: 1},
		Keyframe{Time: 0.5, Value: 0},
	)

	tests := []struct {
		in, want float64
	}{
		{-2, 1},
		{0, 1},
		{0.25, 0.5},
		{0.5, 0},
		{0.75, -0.5},
		{1, -1},
		{3, -1},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, k.Evaluate(tt.in), 1e-9, "t=%v", tt.in)
	}
	assert.True(t, k.NonIncreasing())
}

func TestKeyframes_Empty(t *testing.T) {
	k := NewKeyframes()
	assert.Equal(t, 0.0, k.Evaluate(0.3))
	assert.Equal(t, 0, k.Len())
}

func TestKeyframes_DropsNaN(t *testing.T) {
	k := NewKeyframes(Keyframe{Time: math.NaN(), Value: 1}, Keyframe{Time: 0, Value: math.NaN()}, Keyframe{Time: 0, Value: 2})
	assert.Equal(t, 1, k.Len())
	assert.Equal(t, 2.0, k.Evaluate(0.7))
}

func TestKeyframes_StepAtDuplicateTime(t *testing.T) {
	k := NewKeyframes(Keyframe{0, 0}, Keyframe{0.5, 0}, Keyframe{0.5, 1}, Keyframe{1, 1})
	assert.Equal(t, 1.0, k.Evaluate(0.6))
	assert.Equal(t, 0.0, k.Evaluate(0.4))
	assert.False(t, k.NonIncreasing())
}

func TestDefaultCurve(t *testing.T) {
	k := DefaultCurve()
	assert.True(t, k.NonIncreasing())
	assert.Greater(t, k.Evaluate(0), 0.0)
	assert.Less(t, k.Evaluate(1), 0.0)
}

func TestDeferred(t *testing.T) {
	var d Deferred
	fired := 0
	d.Schedule(2*time.Second, func() { fired++ })
	assert.True(t, d.Pending())

	assert.False(t, d.Poll(time.Second))
	assert.True(t, d.Poll(2*time.Second))
	assert.False(t, d.Poll(3*time.Second))
	assert.Equal(t, 1, fired)

	d.Schedule(time.Second, func() { fired++ })
	d.Cancel()
	assert.False(t, d.Poll(time.Hour))
	assert.Equal(t, 1, fired)

	d.Schedule(time.Second, nil)
	assert.False(t, d.Pending())
}

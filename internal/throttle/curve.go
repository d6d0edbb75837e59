package throttle

import (
	"math"
	"sort"
)

// Curve maps normalized ground proximity (0 = on the deck, 1 = far away) to
// a thrust rate in percent per second.
type Curve interface {
	Evaluate(t float64) float64
}

// CurveFunc adapts a plain function to Curve.
type CurveFunc func(t float64) float64

func (f CurveFunc) Evaluate(t float64) float64 { return f(t) }

// Keyframe is one designer-authored point on a curve.
type Keyframe struct {
	Time  float64 `json:"time" mapstructure:"time"`
	Value float64 `json:"value" mapstructure:"value"`
}

// Keyframes is a piecewise-linear curve through sorted keys, held flat past
// the first and last key.
type Keyframes struct {
	keys []Keyframe
}

// NewKeyframes copies and sorts keys. Keys with a NaN time or value are
// dropped.
func NewKeyframes(keys ...Keyframe) *Keyframes {
	clean := make([]Keyframe, 0, len(keys))
	for _, k := range keys {
		if math.IsNaN(k.Time) || math.IsNaN(k.Value) {
			continue
		}
		clean = append(clean, k)
	}
	sort.SliceStable(clean, func(i, j int) bool { return clean[i].Time < clean[j].Time })
	return &Keyframes{keys: clean}
}

// DefaultCurve pushes hard near the ground and bleeds thrust slowly at
// altitude.
func DefaultCurve() *Keyframes {
	return NewKeyframes(
		Keyframe{Time: 0, Value: 0.8},
		Keyframe{Time: 0.2, Value: 0.25},
		Keyframe{Time: 0.5, Value: 0},
		Keyframe{Time: 1, Value: -0.05},
	)
}

// Keys returns a copy of the sorted keys.
func (k *Keyframes) Keys() []Keyframe {
	return append([]Keyframe(nil), k.keys...)
}

// Len returns the number of usable keys.
func (k *Keyframes) Len() int {
	return len(k.keys)
}

// Evaluate interpolates the curve at t. An empty curve evaluates to 0.
func (k *Keyframes) Evaluate(t float64) float64 {
	n := len(k.keys)
	switch {
	case n == 0:
		return 0
	case t <= k.keys[0].Time:
		return k.keys[0].Value
	case t >= k.keys[n-1].Time:
		return k.keys[n-1].Value
	}

	i := sort.Search(n, func(i int) bool { return k.keys[i].Time > t })
	a, b := k.keys[i-1], k.keys[i]
	span := b.Time - a.Time
	if span == 0 {
		return b.Value
	}
	f := (t - a.Time) / span
	return a.Value + (b.Value-a.Value)*f
}

// NonIncreasing reports whether values never rise with time, i.e. the
// curve pushes at least as hard closer to the ground.
func (k *Keyframes) NonIncreasing() bool {
	for i := 1; i < len(k.keys); i++ {
		if k.keys[i].Value > k.keys[i-1].Value {
			return false
		}
	}
	return true
}

// Package proximity measures how close the aircraft is to terrain by casting
// rays along its six body axes.
package proximity

import (
	"errors"
	"math"

	"github.com/aerocade/flightcore/pkg/core"
)

// ErrUnavailable is returned when the raycast backend cannot serve a sample
// this tick.
var ErrUnavailable = errors.New("raycast backend unavailable")

// LayerMask selects which collision layers a ray may hit.
type LayerMask uint32

// TerrainLayer is the collision layer terrain geometry lives on.
const TerrainLayer = 3

// TerrainMask hits terrain only.
const TerrainMask LayerMask = 1 << TerrainLayer

// Unbounded is the distance reported for a ray that hit nothing.
var Unbounded = math.Inf(1)

// Raycaster is the world-query collaborator.
type Raycaster interface {
	// Raycast returns the distance to the first hit along dir, or hit=false
	// when nothing on mask lies within maxDistance.
	Raycast(origin, dir core.Vec3, maxDistance float64, mask LayerMask) (distance float64, hit bool)
}

// Readiness is optionally implemented by collaborators that can be
// temporarily unable to serve requests.
type Readiness interface {
	Ready() bool
}

// Direction indexes the six body-relative rays.
type Direction int

const (
	Forward Direction = iota
	Back
	Up
	Down
	Right
	Left
	numDirections
)

var directionNames = [numDirections]string{"forward", "back", "up", "down", "right", "left"}

func (d Direction) String() string {
	if d < 0 || d >= numDirections {
		return "unknown"
	}
	return directionNames[d]
}

// Sample holds one distance per direction; misses are Unbounded.
type Sample [numDirections]float64

// Min returns the smallest distance, Unbounded when every ray missed.
func (s Sample) Min() float64 {
	m := Unbounded
	for _, d := range s {
		if d < m {
			m = d
		}
	}
	return m
}

// MinimumDistance is Sample.Min in function form.
func MinimumDistance(s Sample) float64 {
	return s.Min()
}

// Config tunes the sensor.
type Config struct {
	// MaxDistance bounds each ray. Non-positive values fall back to
	// DefaultMaxDistance.
	MaxDistance float64
	Mask        LayerMask
}

// DefaultMaxDistance keeps worst-case raycast cost bounded while being far
// beyond any distance the throttle curve reacts to.
const DefaultMaxDistance = 5000.0

// DefaultConfig casts against terrain only.
var DefaultConfig = Config{MaxDistance: DefaultMaxDistance, Mask: TerrainMask}

// Sensor samples terrain proximity through a Raycaster.
type Sensor struct {
	raycaster Raycaster
	cfg       Config
}

// NewSensor creates a sensor. A nil raycaster is allowed; Sample will then
// report ErrUnavailable.
func NewSensor(r Raycaster, cfg Config) *Sensor {
	if cfg.MaxDistance <= 0 || math.IsNaN(cfg.MaxDistance) {
		cfg.MaxDistance = DefaultMaxDistance
	}
	return &Sensor{raycaster: r, cfg: cfg}
}

// Config returns the effective configuration.
func (s *Sensor) Config() Config {
	return s.cfg
}

// Sample casts the six rays from origin using the body axes of orientation.
func (s *Sensor) Sample(origin core.Vec3, orientation core.Quat) (Sample, error) {
	var out Sample
	if s.raycaster == nil {
		return out, ErrUnavailable
	}
	if r, ok := s.raycaster.(Readiness); ok && !r.Ready() {
		return out, ErrUnavailable
	}

	q := orientation.Normalize()
	fwd, up, right := q.Forward(), q.Up(), q.Right()
	dirs := [numDirections]core.Vec3{
		Forward: fwd,
		Back:    fwd.Neg(),
		Up:      up,
		Down:    up.Neg(),
		Right:   right,
		Left:    right.Neg(),
	}

	for i, dir := range dirs {
		d, hit := s.raycaster.Raycast(origin, dir, s.cfg.MaxDistance, s.cfg.Mask)
		switch {
		case !hit || math.IsNaN(d):
			out[i] = Unbounded
		case d < 0:
			out[i] = 0
		default:
			out[i] = d
		}
	}
	return out, nil
}

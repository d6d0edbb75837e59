// Package terrain is a procedural heightfield that answers proximity rays.
package terrain

import (
	"math"
	"math/rand"

	"github.com/aerocade/flightcore/internal/config"
	"github.com/aerocade/flightcore/internal/proximity"
	"github.com/aerocade/flightcore/pkg/core"
)

const (
	minStep   = 0.5
	maxStep   = 50.0
	refineMax = 24
	tolerance = 1e-3
)

// octave is one sine layer of the height function.
type octave struct {
	dirX, dirZ float64
	freq       float64
	amp        float64
	phase      float64
}

// Heightfield is a sum of seeded sine waves clamped at sea level. It only
// lives on the terrain collision layer.
type Heightfield struct {
	cfg      config.TerrainConfig
	octaves  []octave
	maxSlope float64
}

// New builds a heightfield from cfg. The same seed always yields the same
// terrain. A non-positive wavelength gives flat ground at sea level.
func New(cfg config.TerrainConfig) *Heightfield {
	h := &Heightfield{cfg: cfg}
	if cfg.Wavelength <= 0 || cfg.Amplitude == 0 {
		return h
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	weights := []float64{0.6, 0.3, 0.1}
	for i, w := range weights {
		angle := rng.Float64() * 2 * math.Pi
		wl := cfg.Wavelength / math.Pow(2, float64(i))
		o := octave{
			dirX:  math.Cos(angle),
			dirZ:  math.Sin(angle),
			freq:  2 * math.Pi / wl,
			amp:   math.Abs(cfg.Amplitude) * w,
			phase: rng.Float64() * 2 * math.Pi,
		}
		h.octaves = append(h.octaves, o)
		h.maxSlope += o.amp * o.freq
	}
	return h
}

// Height returns the ground height at (x, z).
func (h *Heightfield) Height(x, z float64) float64 {
	y := h.cfg.SeaLevel
	for _, o := range h.octaves {
		y += o.amp * math.Sin((x*o.dirX+z*o.dirZ)*o.freq+o.phase)
	}
	return math.Max(y, h.cfg.SeaLevel)
}

// Clearance returns how far p is above the ground; negative when below.
func (h *Heightfield) Clearance(p core.Vec3) float64 {
	return p.Y - h.Height(p.X, p.Z)
}

// Ready always reports true; the heightfield needs no streaming.
func (h *Heightfield) Ready() bool { return true }

// Raycast marches along dir until the ray dips under the surface, then
// bisects the crossing. Masks without the terrain layer never hit.
func (h *Heightfield) Raycast(origin, dir core.Vec3, maxDistance float64, mask proximity.LayerMask) (float64, bool) {
	if mask&proximity.TerrainMask == 0 || maxDistance <= 0 {
		return 0, false
	}
	dir = dir.Normalize()
	if dir.IsZero() {
		return 0, false
	}
	if h.Clearance(origin) <= 0 {
		return 0, true
	}

	// Vertical clearance shrinks at most this fast per metre travelled.
	closing := h.maxSlope*math.Hypot(dir.X, dir.Z) - dir.Y
	if closing <= 0 {
		return 0, false
	}

	prev := 0.0
	for t := 0.0; t < maxDistance; {
		step := core.Clamp(h.Clearance(at(origin, dir, t))/closing, minStep, maxStep)
		prev, t = t, math.Min(t+step, maxDistance)
		if h.Clearance(at(origin, dir, t)) <= 0 {
			return h.refine(origin, dir, prev, t), true
		}
		if t == maxDistance {
			break
		}
	}
	return 0, false
}

// refine bisects [lo, hi] where lo is above ground and hi is not.
func (h *Heightfield) refine(origin, dir core.Vec3, lo, hi float64) float64 {
	for i := 0; i < refineMax && hi-lo > tolerance; i++ {
		mid := (lo + hi) / 2
		if h.Clearance(at(origin, dir, mid)) > 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return hi
}

func at(origin, dir core.Vec3, t float64) core.Vec3 {
	return origin.Add(dir.Scale(t))
}

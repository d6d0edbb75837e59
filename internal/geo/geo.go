package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/aerocade/flightcore/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// The flight model works in a local frame: X east, Z north, Y up, all in
// metres. Recorded positions are projected onto EPSG:4326 around a fixed
// origin through Web Mercator (EPSG:3857), which keeps the maths inside the
// wgs84 transforms and gives geometry that GIS tooling can read directly.

var (
	// ErrInvalidOrigin is returned for an origin that Web Mercator cannot represent.
	ErrInvalidOrigin = errors.New("invalid projection origin")
	// ErrShortTrack is returned when a track has fewer than two points.
	ErrShortTrack = errors.New("track needs at least 2 points")
)

// maxLatitude is the Web Mercator cutoff.
const maxLatitude = 85.05112878

// Projector maps local flight coordinates to geographic ones.
type Projector struct {
	originLon float64
	originLat float64
	originX   float64
	originY   float64
	scale     float64 // mercator metres per ground metre at the origin

	toMercator func(a, b, c float64) (float64, float64, float64)
	toLonLat   func(a, b, c float64) (float64, float64, float64)
}

// NewProjector returns a projector anchored at the given WGS84 longitude and latitude.
func NewProjector(originLon, originLat float64) (*Projector, error) {
	if math.IsNaN(originLon) || math.IsNaN(originLat) ||
		math.Abs(originLon) > 180 || math.Abs(originLat) > maxLatitude {
		return nil, fmt.Errorf("%w: lon=%v lat=%v", ErrInvalidOrigin, originLon, originLat)
	}

	epsg := wgs84.EPSG()
	p := &Projector{
		originLon:  originLon,
		originLat:  originLat,
		scale:      1 / math.Cos(originLat*math.Pi/180),
		toMercator: epsg.Transform(4326, 3857),
		toLonLat:   epsg.Transform(3857, 4326),
	}
	p.originX, p.originY, _ = p.toMercator(originLon, originLat, 0)
	return p, nil
}

// Origin returns the anchor longitude and latitude.
func (p *Projector) Origin() (lon, lat float64) {
	return p.originLon, p.originLat
}

// Mercator projects a local position to EPSG:3857, keeping altitude as Z.
func (p *Projector) Mercator(v core.Vec3) (x, y, alt float64) {
	return p.originX + v.X*p.scale, p.originY + v.Z*p.scale, v.Y
}

// LonLat projects a local position to longitude, latitude and altitude.
func (p *Projector) LonLat(v core.Vec3) (lon, lat, alt float64) {
	x, y, alt := p.Mercator(v)
	lon, lat, _ = p.toLonLat(x, y, 0)
	return lon, lat, alt
}

// Point returns the local position as an XYZ point in EPSG:4326.
func (p *Projector) Point(v core.Vec3) geom.Point {
	lon, lat, alt := p.LonLat(v)
	return geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: lon, Y: lat},
		Z:    alt,
		Type: geom.DimXYZ,
	})
}

// Track builds an XYZ line string through the given local positions.
func (p *Projector) Track(points []core.Vec3) (geom.LineString, error) {
	if len(points) < 2 {
		return geom.LineString{}, fmt.Errorf("%w, got %d", ErrShortTrack, len(points))
	}

	flat := make([]float64, 0, len(points)*3)
	for _, v := range points {
		lon, lat, alt := p.LonLat(v)
		flat = append(flat, lon, lat, alt)
	}

	seq := geom.NewSequence(flat, geom.DimXYZ)
	return geom.NewLineString(seq), nil
}

// TrackWKT renders Track as well-known text.
func (p *Projector) TrackWKT(points []core.Vec3) (string, error) {
	ls, err := p.Track(points)
	if err != nil {
		return "", err
	}
	return ls.AsText(), nil
}

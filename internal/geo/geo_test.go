package geo

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/aerocade/flightcore/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

func newBerlin(t *testing.T) *Projector {
	t.Helper()
	p, err := NewProjector(13.405, 52.52)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p
}

func TestNewProjector_InvalidOrigin(t *testing.T) {
	tests := []struct {
		name     string
		lon, lat float64
	}{
		{"polar", 0, 89},
		{"lon out of range", 181, 0},
		{"nan", math.NaN(), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProjector(tt.lon, tt.lat)
			if !errors.Is(err, ErrInvalidOrigin) {
				t.Errorf("expected ErrInvalidOrigin, got %v", err)
			}
		})
	}
}

func TestLonLat_OriginRoundTrip(t *testing.T) {
	p := newBerlin(t)

	lon, lat, alt := p.LonLat(core.Vec3{Y: 120})
	if math.Abs(lon-13.405) > 1e-9 {
		t.Errorf("expected lon=13.405, got %f", lon)
	}
	if math.Abs(lat-52.52) > 1e-9 {
		t.Errorf("expected lat=52.52, got %f", lat)
	}
	if alt != 120 {
		t.Errorf("expected alt=120, got %f", alt)
	}
}

func TestLonLat_NorthAndEast(t *testing.T) {
	p := newBerlin(t)

	// one degree of latitude is about 111.2 km
	_, lat, _ := p.LonLat(core.Vec3{Z: 1000})
	if d := lat - 52.52; math.Abs(d-1000.0/111195) > 1e-4 {
		t.Errorf("expected ~0.009 deg north, got %f", d)
	}

	lon, _, _ := p.LonLat(core.Vec3{X: 1000})
	if lon <= 13.405 {
		t.Errorf("expected east of origin, got %f", lon)
	}
}

func TestPoint_HasAltitude(t *testing.T) {
	p := newBerlin(t)

	pt := p.Point(core.Vec3{Y: 42})
	coords, ok := pt.Coordinates()
	if !ok {
		t.Fatal("expected valid coordinates")
	}
	if coords.Z != 42 {
		t.Errorf("expected Z=42, got %f", coords.Z)
	}
	if coords.Type != geom.DimXYZ {
		t.Errorf("expected XYZ coordinates, got %v", coords.Type)
	}
}

func TestTrack(t *testing.T) {
	p := newBerlin(t)

	ls, err := p.Track([]core.Vec3{{}, {Z: 500, Y: 100}, {X: 300, Z: 900, Y: 150}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := ls.Coordinates().Length(); n != 3 {
		t.Errorf("expected 3 points, got %d", n)
	}
}

func TestTrack_TooShort(t *testing.T) {
	p := newBerlin(t)

	_, err := p.Track([]core.Vec3{{}})
	if !errors.Is(err, ErrShortTrack) {
		t.Errorf("expected ErrShortTrack, got %v", err)
	}
}

func TestTrackWKT(t *testing.T) {
	p := newBerlin(t)

	wkt, err := p.TrackWKT([]core.Vec3{{}, {Z: 100}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(wkt, "LINESTRING Z") {
		t.Errorf("expected LINESTRING Z, got %q", wkt)
	}
}

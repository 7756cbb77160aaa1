package utils

import (
	"fmt"
	"math"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Bounds is a lat/lng rectangle. When Southwest.Lng > Northeast.Lng the
// rectangle crosses the antimeridian.
type Bounds struct {
	Northeast Point `json:"northeast"`
	Southwest Point `json:"southwest"`
}

func (p Point) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lng)
}

func IsValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// CrossesAntimeridian reports whether the longitude range wraps past 180°.
func (b Bounds) CrossesAntimeridian() bool {
	return b.Southwest.Lng > b.Northeast.Lng
}

// Contains reports whether p falls inside the rectangle.
func (b Bounds) Contains(p Point) bool {
	if p.Lat < b.Southwest.Lat || p.Lat > b.Northeast.Lat {
		return false
	}
	if b.CrossesAntimeridian() {
		return p.Lng >= b.Southwest.Lng || p.Lng <= b.Northeast.Lng
	}
	return p.Lng >= b.Southwest.Lng && p.Lng <= b.Northeast.Lng
}

const boundsMargin = s1.Angle(1e-9)

var validLatRange = r1.Interval{Lo: -math.Pi / 2, Hi: math.Pi / 2}

// BoundingBox returns a rectangle that fully covers the spherical cap of
// radiusKM around center. It is a prefilter only; callers still apply the
// exact distance check.
func BoundingBox(center Point, radiusKM float64) Bounds {
	ll := s2.LatLngFromDegrees(center.Lat, center.Lng)
	angle := s1.Angle(radiusKM / EarthRadiusKM)
	rect := s2.CapFromCenterAngle(s2.PointFromLatLng(ll), angle).RectBound()
	// Pad by a few millimetres so points exactly on the radius survive the
	// prefilter despite rounding.
	rect = s2.Rect{
		Lat: rect.Lat.Expanded(boundsMargin.Radians()).Intersection(validLatRange),
		Lng: rect.Lng.Expanded(boundsMargin.Radians()),
	}.PolarClosure()

	lo, hi := rect.Lo(), rect.Hi()
	return Bounds{
		Southwest: Point{Lat: lo.Lat.Degrees(), Lng: lo.Lng.Degrees()},
		Northeast: Point{Lat: hi.Lat.Degrees(), Lng: hi.Lng.Degrees()},
	}
}

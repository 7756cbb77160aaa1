package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateDistance(t *testing.T) {
	tests := []struct {
		name      string
		a, b      Point
		want      float64
		tolerance float64
	}{
		{name: "same point", a: Point{0, 0}, b: Point{0, 0}, want: 0, tolerance: 1e-9},
		{name: "0.01 degree of longitude at the equator", a: Point{0, 0}, b: Point{0, 0.01}, want: 1.112, tolerance: 0.01},
		{name: "one degree diagonal", a: Point{0, 0}, b: Point{1, 1}, want: 157.2, tolerance: 0.5},
		{name: "across the antimeridian", a: Point{0, 179.995}, b: Point{0, -179.995}, want: 1.112, tolerance: 0.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateDistance(tt.a.Lat, tt.a.Lng, tt.b.Lat, tt.b.Lng)
			assert.InDelta(t, tt.want, got, tt.tolerance)
		})
	}
}

func TestCalculateDistance_Symmetric(t *testing.T) {
	points := []Point{{12.9716, 77.5946}, {28.6139, 77.2090}, {-33.8688, 151.2093}, {0, 0}}
	for _, a := range points {
		for _, b := range points {
			assert.InDelta(t,
				CalculateDistance(a.Lat, a.Lng, b.Lat, b.Lng),
				CalculateDistance(b.Lat, b.Lng, a.Lat, a.Lng),
				1e-9)
		}
	}
}

func TestIsWithinRadius_Boundary(t *testing.T) {
	d := CalculateDistance(0, 0, 0, 0.01)
	assert.True(t, IsWithinRadius(0, 0, 0, 0.01, d))
	assert.False(t, IsWithinRadius(0, 0, 0, 0.01, d-1e-6))
	assert.True(t, IsWithinRadius(0, 0, 0, 0.01, DefaultNotifyRadiusKM))
	assert.False(t, IsWithinRadius(0, 0, 1, 1, DefaultNotifyRadiusKM))
}

func TestBoundingBox_CoversRadius(t *testing.T) {
	center := Point{Lat: 12.9716, Lng: 77.5946}
	box := BoundingBox(center, DefaultNotifyRadiusKM)

	assert.False(t, box.CrossesAntimeridian())
	assert.True(t, box.Contains(center))

	// 1.99 km due north, east, south and west all have to be inside.
	const deg = 1.99 / 111.195
	assert.True(t, box.Contains(Point{center.Lat + deg, center.Lng}))
	assert.True(t, box.Contains(Point{center.Lat - deg, center.Lng}))
	assert.True(t, box.Contains(Point{center.Lat, center.Lng + deg*1.03}))
	assert.True(t, box.Contains(Point{center.Lat, center.Lng - deg*1.03}))

	assert.False(t, box.Contains(Point{center.Lat + 0.1, center.Lng}))
}

func TestBoundingBox_Antimeridian(t *testing.T) {
	box := BoundingBox(Point{Lat: 0, Lng: 179.999}, DefaultNotifyRadiusKM)

	assert.True(t, box.CrossesAntimeridian())
	assert.True(t, box.Contains(Point{0, -179.995}))
	assert.True(t, box.Contains(Point{0, 179.99}))
	assert.False(t, box.Contains(Point{0, 0}))
}

func TestIsValidCoordinates(t *testing.T) {
	assert.True(t, IsValidCoordinates(0, 0))
	assert.True(t, IsValidCoordinates(-90, 180))
	assert.False(t, IsValidCoordinates(90.1, 0))
	assert.False(t, IsValidCoordinates(0, -180.5))
}

func TestBoundingBox_KeepsPointsOnTheRadius(t *testing.T) {
	center := Point{Lat: 28.6139, Lng: 77.209}
	box := BoundingBox(center, DefaultNotifyRadiusKM)

	deg := DefaultNotifyRadiusKM / EarthRadiusKM * 180 / math.Pi
	for _, p := range []Point{
		{center.Lat + deg, center.Lng},
		{center.Lat - deg, center.Lng},
	} {
		assert.InDelta(t, DefaultNotifyRadiusKM, CalculateDistance(center.Lat, center.Lng, p.Lat, p.Lng), 1e-9)
		assert.True(t, box.Contains(p), "point %v on the radius fell outside %v", p, box)
	}
}

func TestBoundingBox_NearPole(t *testing.T) {
	box := BoundingBox(Point{Lat: 89.995, Lng: 10}, DefaultNotifyRadiusKM)

	assert.LessOrEqual(t, box.Northeast.Lat, 90.0)
	assert.GreaterOrEqual(t, box.Southwest.Lat, -90.0)
	// The cap covers the pole, so every longitude is in range.
	assert.True(t, box.Contains(Point{89.999, -170}))
	assert.True(t, box.Contains(Point{89.999, 100}))
}

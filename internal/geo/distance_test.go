package geo

import (
	"math"
	"testing"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		expected               float64
		tolerance              float64
	}{
		{"same point", 37.5665, 126.9780, 37.5665, 126.9780, 0, 0},
		{"origin", 0, 0, 0, 0, 0, 0},
		// 0.001 degree of longitude at the equator
		{"equator short hop", 0, 0, 0, 0.001, 111.19, 0.01},
		{"equator 0.0026", 0, 0, 0, 0.0026, 289.11, 0.01},
		{"equator 0.0027", 0, 0, 0, 0.0027, 300.23, 0.01},
		// Seoul City Hall to Gangnam Station
		{"seoul city hall to gangnam", 37.5663, 126.9779, 37.4979, 127.0276, 8778, 20},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Distance(tc.lat1, tc.lon1, tc.lat2, tc.lon2)
			if math.Abs(got-tc.expected) > tc.tolerance {
				t.Errorf("Distance() = %f, expected %f (±%f)", got, tc.expected, tc.tolerance)
			}
		})
	}
}

func TestDistanceSymmetric(t *testing.T) {
	points := [][2]float64{
		{37.5665, 126.9780},
		{37.2636, 127.0286},
		{-33.8688, 151.2093},
		{0, 0},
	}
	for _, a := range points {
		for _, b := range points {
			d1 := Distance(a[0], a[1], b[0], b[1])
			d2 := Distance(b[0], b[1], a[0], a[1])
			if math.Abs(d1-d2) > 1e-6 {
				t.Errorf("Distance not symmetric for %v/%v: %f vs %f", a, b, d1, d2)
			}
			if d1 < 0 {
				t.Errorf("Distance negative for %v/%v: %f", a, b, d1)
			}
		}
	}
}

func TestBoundsAroundContainsRadius(t *testing.T) {
	lat, lon := 37.5665, 126.9780
	box := BoundsAround(lat, lon, 300)

	// Points just inside the radius in each cardinal direction
	for _, p := range [][2]float64{
		{lat + 0.0026, lon},
		{lat - 0.0026, lon},
		{lat, lon + 0.0033},
		{lat, lon - 0.0033},
	} {
		if Distance(lat, lon, p[0], p[1]) > 300 {
			t.Fatalf("test point %v is outside the radius", p)
		}
		if !box.Contains(p[0], p[1]) {
			t.Errorf("box %+v does not contain %v", box, p)
		}
	}

	if box.Contains(lat+0.01, lon) {
		t.Errorf("box %+v should not contain a point ~1.1km north", box)
	}
}

func TestBoundsAroundAntimeridian(t *testing.T) {
	tests := []struct {
		name             string
		originLon, ptLon float64
	}{
		{"west origin, east point", -179.9995, 179.9995},
		{"east origin, west point", 179.9995, -179.9995},
		{"origin on the line", 180, -179.999},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if d := Distance(0, tc.originLon, 0, tc.ptLon); d > 300 {
				t.Fatalf("test point is %f m away, outside the radius", d)
			}
			box := BoundsAround(0, tc.originLon, 300)
			if !box.Contains(0, tc.ptLon) {
				t.Errorf("box %+v does not contain lon %f", box, tc.ptLon)
			}
			if box.Contains(0, 0) {
				t.Errorf("box %+v should not contain the prime meridian", box)
			}
		})
	}
}

func TestBoundsAroundPole(t *testing.T) {
	box := BoundsAround(89.9999, 10, 300)
	// ~22m away across the pole
	if d := Distance(89.9999, 10, 89.9999, -170); d > 300 {
		t.Fatalf("test point is %f m away, outside the radius", d)
	}
	if !box.Contains(89.9999, -170) {
		t.Errorf("box %+v does not contain the point across the pole", box)
	}
}

func TestRound(t *testing.T) {
	tests := []struct {
		in       float64
		places   int
		expected float64
	}{
		{289.1102, 3, 289.11},
		{111.19492664, 3, 111.195},
		{0, 3, 0},
		{1.23456, 2, 1.23},
	}
	for _, tc := range tests {
		if got := Round(tc.in, tc.places); math.Abs(got-tc.expected) > 1e-9 {
			t.Errorf("Round(%f, %d) = %f, expected %f", tc.in, tc.places, got, tc.expected)
		}
	}
}

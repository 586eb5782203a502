package geo

import "math"

// EarthRadiusMeters is the mean Earth radius used by Distance
const EarthRadiusMeters = 6371000

// Distance calculates the great-circle distance between two WGS84 points in meters
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	deltaPhi := (lat2 - lat1) * math.Pi / 180
	deltaLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaPhi/2)*math.Sin(deltaPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(deltaLambda/2)*math.Sin(deltaLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// BoundingBox is a lat/lon rectangle
type BoundingBox struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// BoundsAround returns a box that contains every point within radiusMeters of
// (lat, lon). It is a prefilter only; callers still compare Distance.
// Near the antimeridian MinLon or MaxLon may fall outside [-180, 180].
func BoundsAround(lat, lon, radiusMeters float64) BoundingBox {
	angular := radiusMeters / EarthRadiusMeters
	dLat := angular * 180 / math.Pi
	dLon := 180.0
	// widest longitude reached by a circle of that angular radius
	if s := math.Sin(angular) / math.Cos(lat*math.Pi/180); s >= 0 && s < 1 {
		dLon = math.Asin(s) * 180 / math.Pi
	}
	// small slack for rounding at the edge
	dLat *= 1 + 1e-9
	dLon = math.Min(180, dLon*(1+1e-9))
	// a circle over a pole covers every longitude
	if lat+dLat >= 90 || lat-dLat <= -90 {
		dLon = 180
	}
	return BoundingBox{
		MinLat: lat - dLat,
		MaxLat: lat + dLat,
		MinLon: lon - dLon,
		MaxLon: lon + dLon,
	}
}

// Contains reports whether the point lies inside the box. Longitudes wrap
// at ±180.
func (b BoundingBox) Contains(lat, lon float64) bool {
	if lat < b.MinLat || lat > b.MaxLat {
		return false
	}
	for _, l := range [...]float64{lon, lon - 360, lon + 360} {
		if l >= b.MinLon && l <= b.MaxLon {
			return true
		}
	}
	return false
}

// Round rounds v to the given number of decimal places
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

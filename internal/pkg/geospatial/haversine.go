package geospatial

import (
	"math"

	"github.com/samirrijal/terraview/internal/core/domain"
)

// EarthRadiusMeters is the mean Earth radius used by every distance calculation.
const EarthRadiusMeters = 6371000.0

// metersPerDegreeLat is the length of one degree of latitude on the sphere.
const metersPerDegreeLat = EarthRadiusMeters * math.Pi / 180

// Haversine returns the great-circle distance in meters between two
// raw coordinate pairs given in degrees.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	phi1, phi2 := toRad(lat1), toRad(lat2)
	dPhi := toRad(lat2 - lat1)
	dLambda := toRad(lng2 - lng1)

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	h := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda

	// Rounding can push h just past 1 for antipodal points.
	h = math.Min(1, math.Max(0, h))
	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(h))
}

// BoundingBox returns the lat/lng box that extends radiusMeters around a point.
// Near the poles the longitude span is capped at the full range.
func BoundingBox(lat, lng, radiusMeters float64) domain.Bounds {
	latDelta := radiusMeters / metersPerDegreeLat

	lngDelta := 180.0
	if c := math.Cos(toRad(lat)); c > 1e-12 {
		lngDelta = math.Min(180, radiusMeters/(metersPerDegreeLat*c))
	}

	return domain.Bounds{
		MinLat: math.Max(-90, lat-latDelta),
		MinLng: lng - lngDelta,
		MaxLat: math.Min(90, lat+latDelta),
		MaxLng: lng + lngDelta,
	}
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}

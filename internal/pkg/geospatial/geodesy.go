package geospatial

import (
	"math"

	"github.com/samirrijal/terraview/internal/core/domain"
)

// Distance returns the great-circle distance in meters between a and b.
func Distance(a, b domain.GeoPoint) float64 {
	return Haversine(a.Lat, a.Lng, b.Lat, b.Lng)
}

// Destination returns the point reached by travelling distanceM meters from
// origin along the initial bearing bearingDeg (0 = north, clockwise).
func Destination(origin domain.GeoPoint, bearingDeg, distanceM float64) domain.GeoPoint {
	lat1 := toRad(origin.Lat)
	lng1 := toRad(origin.Lng)
	brng := toRad(bearingDeg)
	delta := distanceM / EarthRadiusMeters

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(delta) +
		math.Cos(lat1)*math.Sin(delta)*math.Cos(brng))
	lng2 := lng1 + math.Atan2(
		math.Sin(brng)*math.Sin(delta)*math.Cos(lat1),
		math.Cos(delta)-math.Sin(lat1)*math.Sin(lat2),
	)

	return domain.GeoPoint{Lat: toDeg(lat2), Lng: normalizeLng(toDeg(lng2))}
}

func normalizeLng(lng float64) float64 {
	if lng >= -180 && lng <= 180 {
		return lng
	}
	return math.Mod(math.Mod(lng+180, 360)+360, 360) - 180
}

package domain

import "math"

const earthRadiusMeters = 6371000.0

// DistanceMeters is the haversine great-circle distance between two WGS84 points.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	rad1 := toRadians(lat1)
	rad2 := toRadians(lat2)
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(rad1)*math.Cos(rad2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// WithinRadius reports whether the two points are at most radius meters apart.
func WithinRadius(lat1, lon1, lat2, lon2, radius float64) bool {
	return DistanceMeters(lat1, lon1, lat2, lon2) <= radius
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

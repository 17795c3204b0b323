package tracker

import "github.com/golang/geo/s2"

// EarthRadiusMeters matches the value spec'd for haversine distance.
const EarthRadiusMeters = 6371000.0

// haversineMeters returns the great-circle distance between two
// lat/lon points, in meters.
func haversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

package geo

import "github.com/golang/geo/s2"

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two coordinates in
// kilometers.
func HaversineKm(a, b Coord) float64 {
	p := s2.LatLngFromDegrees(a.Lat, a.Lng)
	q := s2.LatLngFromDegrees(b.Lat, b.Lng)
	return p.Distance(q).Radians() * earthRadiusKm
}

// TotalDistanceKm sums the leg distances along an ordered path of coordinates.
// Fewer than two points yields zero.
func TotalDistanceKm(coords []Coord) float64 {
	total := 0.0
	for i := 1; i < len(coords); i++ {
		total += HaversineKm(coords[i-1], coords[i])
	}
	return total
}

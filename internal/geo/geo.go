// Package geo provides pure geographic computation helpers.
package geo

import "math"

const earthRadiusKm = 6371.0

// Point is a latitude/longitude pair in decimal degrees. It is a plain
// value type: two points with the same coordinates are the same point.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DistanceKm returns the great-circle distance in kilometres between two
// points using the Haversine formula. The result is symmetric and zero for
// identical points. Coordinates outside [-90,90]/[-180,180] are a caller
// precondition violation; they are used as given, not clamped.
func DistanceKm(a, b Point) float64 {
	if a == b {
		return 0
	}

	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

// BearingDegrees returns the initial compass bearing from a to b,
// normalized to [0, 360).
func BearingDegrees(a, b Point) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	y := math.Sin(dLng) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLng)

	bearing := math.Mod(toDegrees(math.Atan2(y, x))+360, 360)
	return bearing
}

// WithinBounds reports whether p lies inside the rectangle described by its
// north-east and south-west corners, inclusive on all edges. Rectangles
// crossing the antimeridian are not handled.
func WithinBounds(p, northEast, southWest Point) bool {
	return p.Lat >= southWest.Lat && p.Lat <= northEast.Lat &&
		p.Lng >= southWest.Lng && p.Lng <= northEast.Lng
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

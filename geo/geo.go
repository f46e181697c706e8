package geo

import (
	"fmt"
	"math"
)

// earthRadiusMeters is the mean Earth radius used by the Haversine formula.
const earthRadiusMeters = 6371000.0

// Coordinate is a WGS 84 latitude/longitude pair.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate checks the coordinate against WGS 84 bounds. Out-of-range values
// are a caller error, never clamped.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Latitude) || c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", c.Latitude)
	}
	if math.IsNaN(c.Longitude) || c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", c.Longitude)
	}
	return nil
}

// GeofenceTarget is a circular region: a center plus a radius in meters.
type GeofenceTarget struct {
	Name         string     `json:"name,omitempty"`
	Center       Coordinate `json:"center"`
	RadiusMeters float64    `json:"radius_meters"`
}

// DistanceMeters returns the great-circle distance between two coordinates
// using the Haversine formula. Total for any valid coordinates; identical
// points yield 0.
func DistanceMeters(a, b Coordinate) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// IsWithin reports whether point lies inside the target. The boundary is
// inclusive: a distance exactly equal to the radius counts as inside.
func IsWithin(point Coordinate, target GeofenceTarget) bool {
	return DistanceMeters(point, target.Center) <= target.RadiusMeters
}

// Nearest returns the minimum-distance target among targets and that distance.
// Ties keep the first occurrence in input order. An empty list returns
// ok=false with an infinite distance.
func Nearest(point Coordinate, targets []GeofenceTarget) (GeofenceTarget, float64, bool) {
	best := GeofenceTarget{}
	bestDist := math.Inf(1)
	found := false
	for _, t := range targets {
		d := DistanceMeters(point, t.Center)
		if d < bestDist {
			best = t
			bestDist = d
			found = true
		}
	}
	return best, bestDist, found
}

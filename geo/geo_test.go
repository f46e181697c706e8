package geo

import (
	"math"
	"testing"
)

// metersPerDegreeLat is the surface length of one degree of latitude on the
// sphere used by DistanceMeters.
const metersPerDegreeLat = math.Pi * earthRadiusMeters / 180

var office = Coordinate{Latitude: 21.12354197063915, Longitude: 79.039775255145}

func offsetLat(c Coordinate, meters float64) Coordinate {
	return Coordinate{Latitude: c.Latitude + meters/metersPerDegreeLat, Longitude: c.Longitude}
}

func TestDistanceIdenticalPoints(t *testing.T) {
	if d := DistanceMeters(office, office); d != 0 {
		t.Fatalf("distance between identical points = %v, want 0", d)
	}
}

func TestDistanceSymmetry(t *testing.T) {
	a := office
	b := Coordinate{Latitude: 21.13254, Longitude: 79.039775}
	if d1, d2 := DistanceMeters(a, b), DistanceMeters(b, a); math.Abs(d1-d2) > 1e-9 {
		t.Fatalf("distance not symmetric: %v vs %v", d1, d2)
	}
}

func TestDistanceOneDegreeLatitude(t *testing.T) {
	d := DistanceMeters(Coordinate{0, 0}, Coordinate{1, 0})
	if math.Abs(d-metersPerDegreeLat) > 1 {
		t.Fatalf("one degree of latitude = %v m, want about %v", d, metersPerDegreeLat)
	}
}

func TestDistanceKilometerNorthOfOffice(t *testing.T) {
	far := Coordinate{Latitude: 21.13254, Longitude: 79.039775}
	d := DistanceMeters(office, far)
	if d < 995 || d > 1006 {
		t.Fatalf("distance = %v m, want about 1000", d)
	}
}

func TestIsWithinOfficeRadius(t *testing.T) {
	target := GeofenceTarget{Name: "office", Center: office, RadiusMeters: 50}

	if !IsWithin(offsetLat(office, 30), target) {
		t.Error("point 30m away should be within a 50m fence")
	}
	if IsWithin(offsetLat(office, 80), target) {
		t.Error("point 80m away should be outside a 50m fence")
	}
	if IsWithin(Coordinate{Latitude: 21.13254, Longitude: 79.039775}, target) {
		t.Error("point 1km away should be outside a 50m fence")
	}
}

func TestIsWithinBoundaryInclusive(t *testing.T) {
	p := offsetLat(office, 42)
	target := GeofenceTarget{Center: office, RadiusMeters: DistanceMeters(p, office)}
	if !IsWithin(p, target) {
		t.Error("point exactly on the fence boundary should count as inside")
	}
}

func TestValidate(t *testing.T) {
	valid := []Coordinate{
		{0, 0},
		{90, 180},
		{-90, -180},
		office,
	}
	for _, c := range valid {
		if err := c.Validate(); err != nil {
			t.Errorf("Validate(%v) = %v, want nil", c, err)
		}
	}

	invalid := []Coordinate{
		{91, 0},
		{-90.0001, 0},
		{0, 180.5},
		{0, -181},
		{math.NaN(), 0},
		{0, math.NaN()},
	}
	for _, c := range invalid {
		if err := c.Validate(); err == nil {
			t.Errorf("Validate(%v) = nil, want error", c)
		}
	}
}

func TestNearestEmpty(t *testing.T) {
	_, dist, ok := Nearest(office, nil)
	if ok {
		t.Error("Nearest on empty list reported ok")
	}
	if !math.IsInf(dist, 1) {
		t.Errorf("Nearest on empty list dist = %v, want +Inf", dist)
	}
}

func TestNearestPicksClosest(t *testing.T) {
	targets := []GeofenceTarget{
		{Name: "far", Center: offsetLat(office, 500), RadiusMeters: 50},
		{Name: "near", Center: offsetLat(office, 20), RadiusMeters: 50},
		{Name: "mid", Center: offsetLat(office, 100), RadiusMeters: 50},
	}
	best, dist, ok := Nearest(office, targets)
	if !ok {
		t.Fatal("Nearest reported not found")
	}
	if best.Name != "near" {
		t.Errorf("Nearest picked %q, want near", best.Name)
	}
	if math.Abs(dist-20) > 0.5 {
		t.Errorf("Nearest dist = %v, want about 20", dist)
	}
}

func TestNearestTieKeepsFirst(t *testing.T) {
	center := offsetLat(office, 60)
	targets := []GeofenceTarget{
		{Name: "first", Center: center, RadiusMeters: 10},
		{Name: "second", Center: center, RadiusMeters: 200},
	}
	best, _, ok := Nearest(office, targets)
	if !ok {
		t.Fatal("Nearest reported not found")
	}
	if best.Name != "first" {
		t.Errorf("tie broke to %q, want first occurrence", best.Name)
	}
}

package geo_test

import (
	"math"
	"testing"

	"github.com/JanSetu/JS-Backend/internal/geo"
)

// TestDistance_Identity verifies that coincident points are ~0 meters apart.
func TestDistance_Identity(t *testing.T) {
	points := [][2]float64{
		{0, 0},
		{30.3165, 78.0322},
		{-45.5, 170.25},
		{90, 0},
	}
	for _, p := range points {
		d := geo.Distance(p[0], p[1], p[0], p[1], geo.Meters)
		if d > 1e-6 {
			t.Errorf("Distance(%v,%v -> same point) = %v, want ~0", p[0], p[1], d)
		}
	}
}

// TestDistance_Symmetry verifies d(A,B) == d(B,A).
func TestDistance_Symmetry(t *testing.T) {
	ab := geo.Distance(30.3165, 78.0322, 28.6139, 77.2090, geo.Meters)
	ba := geo.Distance(28.6139, 77.2090, 30.3165, 78.0322, geo.Meters)
	if math.Abs(ab-ba) > 1e-6 {
		t.Errorf("distance not symmetric: %v vs %v", ab, ba)
	}
}

// TestDistance_OneDegreeMeridian checks 1° of latitude at the equator
// against the known ~111,195 m arc within 1%.
func TestDistance_OneDegreeMeridian(t *testing.T) {
	d := geo.Distance(0, 0, 1, 0, geo.Meters)
	want := 111195.0
	if math.Abs(d-want)/want > 0.01 {
		t.Errorf("1° meridian = %v m, want %v ±1%%", d, want)
	}
}

// TestDistance_Units verifies the km result is the meters result / 1000.
func TestDistance_Units(t *testing.T) {
	m := geo.Distance(30.3165, 78.0322, 30.4, 78.1, geo.Meters)
	km := geo.Distance(30.3165, 78.0322, 30.4, 78.1, geo.Kilometers)
	if math.Abs(m/1000-km) > 1e-6 {
		t.Errorf("unit mismatch: %v m vs %v km", m, km)
	}
}

// TestDistance_Antipodal makes sure near-antipodal points stay finite and
// close to half the Earth's circumference.
func TestDistance_Antipodal(t *testing.T) {
	d := geo.Distance(0, 0, 0, 180, geo.Meters)
	if math.IsNaN(d) || math.IsInf(d, 0) {
		t.Fatalf("antipodal distance not finite: %v", d)
	}
	want := math.Pi * geo.EarthRadiusM
	if math.Abs(d-want)/want > 0.001 {
		t.Errorf("antipodal distance = %v, want ~%v", d, want)
	}
}

package geo

import "math"

// Earth radius on the spherical model used throughout the platform.
const (
	EarthRadiusKM = 6371.0
	EarthRadiusM  = 6371000.0
)

// Unit selects the scale of a computed distance.
type Unit int

const (
	Meters Unit = iota
	Kilometers
)

// Distance returns the great-circle distance between two coordinates using
// the haversine formula. Inputs are plain degrees; callers are responsible
// for keeping latitude in [-90,90] and longitude in [-180,180]; out-of-range
// values still produce a number, just not a meaningful one.
//
// The atan2 form is used rather than asin so that floating-point overshoot
// past 1.0 near antipodal points cannot leave the function's domain.
func Distance(lat1, lon1, lat2, lon2 float64, unit Unit) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	sinLat := math.Sin(deltaLat / 2)
	sinLon := math.Sin(deltaLon / 2)
	a := sinLat*sinLat + math.Cos(lat1Rad)*math.Cos(lat2Rad)*sinLon*sinLon
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	if unit == Kilometers {
		return EarthRadiusKM * c
	}
	return EarthRadiusM * c
}

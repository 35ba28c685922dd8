package cluster

import (
	"fmt"

	"github.com/JanSetu/JS-Backend/internal/geo"
)

// Summary describes one extracted cluster's geometry.
type Summary struct {
	CentroidLat  float64
	CentroidLon  float64
	RadiusMeters float64
	MemberCount  int
}

// Summarize reduces extraction output to per-cluster geometry. The centroid
// is the arithmetic mean of member latitudes and longitudes, a good enough
// approximation at ward scale. The radius is the maximum haversine distance
// from the centroid to any member, so it can overestimate the minimal
// enclosing circle but never leaves a member outside it. Noise points
// contribute nothing.
func Summarize(points []Point, labels []int) (map[int]Summary, error) {
	if len(points) != len(labels) {
		return nil, fmt.Errorf("summarize: %d points but %d labels", len(points), len(labels))
	}

	sums := make(map[int]*Summary)
	for i, l := range labels {
		if l == Noise {
			continue
		}
		s, ok := sums[l]
		if !ok {
			s = &Summary{}
			sums[l] = s
		}
		s.CentroidLat += points[i].Lat
		s.CentroidLon += points[i].Lon
		s.MemberCount++
	}

	for _, s := range sums {
		s.CentroidLat /= float64(s.MemberCount)
		s.CentroidLon /= float64(s.MemberCount)
	}

	for i, l := range labels {
		if l == Noise {
			continue
		}
		s := sums[l]
		d := geo.Distance(s.CentroidLat, s.CentroidLon, points[i].Lat, points[i].Lon, geo.Meters)
		if d > s.RadiusMeters {
			s.RadiusMeters = d
		}
	}

	out := make(map[int]Summary, len(sums))
	for l, s := range sums {
		out[l] = *s
	}
	return out, nil
}

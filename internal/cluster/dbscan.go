package cluster

import (
	"fmt"

	"github.com/JanSetu/JS-Backend/internal/geo"
)

func init() {
	register(KindDBSCAN, runDBSCAN)
}

// runDBSCAN is classic density-radius clustering over the haversine metric:
// a core point has at least MinSamples neighbors (itself included) within
// EpsMeters of ground distance; clusters are maximal chains of core points
// with their border points; everything else is noise.
//
// Neighborhoods are found by a full pairwise scan. At the point counts this
// platform sees (hundreds to low thousands) that is well inside budget and
// keeps the label assignment fully deterministic.
func runDBSCAN(points []Point, alg Algorithm) ([]int, []float64, error) {
	params, ok := alg.(DBSCANParams)
	if !ok {
		return nil, nil, fmt.Errorf("%w: expected DBSCAN parameters, got %s", ErrInvalidParams, alg.Kind())
	}

	n := len(points)
	neighbors := make([][]int, n)
	for i := 0; i < n; i++ {
		neighbors[i] = append(neighbors[i], i)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := geo.Distance(points[i].Lat, points[i].Lon, points[j].Lat, points[j].Lon, geo.Meters)
			if d <= params.EpsMeters {
				neighbors[i] = append(neighbors[i], j)
				neighbors[j] = append(neighbors[j], i)
			}
		}
	}

	labels := make([]int, n)
	for i := range labels {
		labels[i] = Noise
	}

	visited := make([]bool, n)
	next := 0
	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		visited[i] = true
		if len(neighbors[i]) < params.MinSamples {
			continue // not a core point; may still join a cluster as border
		}

		labels[i] = next
		queue := append([]int(nil), neighbors[i]...)
		for qi := 0; qi < len(queue); qi++ {
			j := queue[qi]
			if labels[j] == Noise {
				labels[j] = next
			}
			if visited[j] {
				continue
			}
			visited[j] = true
			if len(neighbors[j]) >= params.MinSamples {
				queue = append(queue, neighbors[j]...)
			}
		}
		next++
	}

	return labels, nil, nil
}

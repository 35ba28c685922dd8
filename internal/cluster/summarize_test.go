package cluster_test

import (
	"math"
	"testing"

	"github.com/JanSetu/JS-Backend/internal/cluster"
	"github.com/JanSetu/JS-Backend/internal/geo"
)

func TestSummarize_CentroidIsArithmeticMean(t *testing.T) {
	points := []cluster.Point{
		{Lat: 30.0, Lon: 78.0},
		{Lat: 30.2, Lon: 78.2},
		{Lat: 30.4, Lon: 78.4},
	}
	labels := []int{0, 0, 0}

	sums, err := cluster.Summarize(points, labels)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	s, ok := sums[0]
	if !ok {
		t.Fatal("cluster 0 missing from summary")
	}
	if math.Abs(s.CentroidLat-30.2) > 1e-9 || math.Abs(s.CentroidLon-78.2) > 1e-9 {
		t.Errorf("centroid = (%v, %v), want (30.2, 78.2)", s.CentroidLat, s.CentroidLon)
	}
	if s.MemberCount != 3 {
		t.Errorf("member count = %d, want 3", s.MemberCount)
	}
}

// TestSummarize_RadiusCoversAllMembers verifies the reported radius is at
// least the centroid distance of every member point.
func TestSummarize_RadiusCoversAllMembers(t *testing.T) {
	points := testPoints()
	res, err := cluster.Extract(points, cluster.DBSCANParams{EpsMeters: 500, MinSamples: 3})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	sums, err := cluster.Summarize(points, res.Labels)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}

	for i, l := range res.Labels {
		if l == cluster.Noise {
			continue
		}
		s := sums[l]
		d := geo.Distance(s.CentroidLat, s.CentroidLon, points[i].Lat, points[i].Lon, geo.Meters)
		if d > s.RadiusMeters+1e-6 {
			t.Errorf("member %d lies %vm from centroid, outside radius %vm", i, d, s.RadiusMeters)
		}
	}
}

func TestSummarize_NoiseExcluded(t *testing.T) {
	points := []cluster.Point{
		{Lat: 30.0, Lon: 78.0},
		{Lat: 30.1, Lon: 78.1},
		{Lat: 45.0, Lon: 100.0},
	}
	labels := []int{0, 0, cluster.Noise}

	sums, err := cluster.Summarize(points, labels)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if len(sums) != 1 {
		t.Fatalf("expected 1 summarized cluster, got %d", len(sums))
	}
	if sums[0].MemberCount != 2 {
		t.Errorf("member count = %d, want 2 (noise excluded)", sums[0].MemberCount)
	}
}

func TestSummarize_LengthMismatch(t *testing.T) {
	if _, err := cluster.Summarize([]cluster.Point{{Lat: 1, Lon: 1}}, []int{0, 0}); err == nil {
		t.Fatal("expected error on mismatched lengths")
	}
}

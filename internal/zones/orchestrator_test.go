package zones_test

import (
	"context"
	"math"
	"testing"

	"github.com/JanSetu/JS-Backend/internal/cluster"
	"github.com/JanSetu/JS-Backend/internal/zones"
	"gorm.io/gorm"
)

func newOrchestrator(t *testing.T, db *gorm.DB) *zones.Orchestrator {
	t.Helper()
	reg := zones.NewRegistry(db, true)
	res := zones.NewResolver(db)
	return zones.NewOrchestrator(db, reg, res)
}

func seedIssue(t *testing.T, db *gorm.DB, id int, lat, lon float64) {
	t.Helper()
	issue := zones.Issue{ID: id, Latitude: lat, Longitude: lon, Status: "reported"}
	if err := db.Create(&issue).Error; err != nil {
		t.Fatalf("seeding issue: %v", err)
	}
}

func TestAutoAssignRoutesIssueToNearestZone(t *testing.T) {
	db := openTestDB(t)
	orc := newOrchestrator(t, db)
	ctx := context.Background()

	zone := seedZone(t, db, zones.Zone{
		ClusterLabel:      0,
		CentroidLatitude:  30.3165,
		CentroidLongitude: 78.0322,
		Name:              strPtr("Clock Tower Ward"),
		RepresentativeID:  intPtr(7),
		RadiusMeters:      f64Ptr(400),
		IssueCount:        3,
		IsActive:          true,
	})
	seedIssue(t, db, 42, 30.3170, 78.0330)

	got, err := orc.AutoAssign(ctx, 42, 30.3170, 78.0330, 0)
	if err != nil {
		t.Fatalf("AutoAssign: %v", err)
	}
	if got == nil {
		t.Fatal("AutoAssign returned nil result, want assignment")
	}
	if got.RepresentativeID != 7 {
		t.Errorf("RepresentativeID = %d, want 7", got.RepresentativeID)
	}
	if got.ZoneID != zone.ID {
		t.Errorf("ZoneID = %d, want %d", got.ZoneID, zone.ID)
	}
	// roughly 95m between issue and centroid
	if math.Abs(got.DistanceMeters-95) > 20 {
		t.Errorf("DistanceMeters = %.1f, want ~95", got.DistanceMeters)
	}

	var assignments []zones.IssueAssignment
	if err := db.Where("issue_id = ?", 42).Find(&assignments).Error; err != nil {
		t.Fatalf("loading assignments: %v", err)
	}
	if len(assignments) != 1 {
		t.Fatalf("assignment rows = %d, want 1", len(assignments))
	}
	a := assignments[0]
	if a.ZoneID != zone.ID {
		t.Errorf("assignment.ZoneID = %d, want %d", a.ZoneID, zone.ID)
	}
	if a.AssignmentMethod != zones.MethodNearestCentroid {
		t.Errorf("assignment.AssignmentMethod = %q, want %q", a.AssignmentMethod, zones.MethodNearestCentroid)
	}
	if a.DistanceFromCentroid == nil || math.Abs(*a.DistanceFromCentroid-95) > 20 {
		t.Errorf("assignment.DistanceFromCentroid = %v, want ~95", a.DistanceFromCentroid)
	}

	var issue zones.Issue
	if err := db.First(&issue, "id = ?", 42).Error; err != nil {
		t.Fatalf("reloading issue: %v", err)
	}
	if issue.Status != "assigned" {
		t.Errorf("issue.Status = %q, want assigned", issue.Status)
	}
	if issue.AssignedRepresentativeID == nil || *issue.AssignedRepresentativeID != 7 {
		t.Errorf("issue.AssignedRepresentativeID = %v, want 7", issue.AssignedRepresentativeID)
	}
	if issue.WardName == nil || *issue.WardName != "Clock Tower Ward" {
		t.Errorf("issue.WardName = %v, want Clock Tower Ward", issue.WardName)
	}

	var reloaded zones.Zone
	if err := db.First(&reloaded, "id = ?", zone.ID).Error; err != nil {
		t.Fatalf("reloading zone: %v", err)
	}
	if reloaded.IssueCount != 4 {
		t.Errorf("zone.IssueCount = %d, want 4", reloaded.IssueCount)
	}
}

func TestAutoAssignNoEligibleZoneWritesNothing(t *testing.T) {
	db := openTestDB(t)
	orc := newOrchestrator(t, db)
	ctx := context.Background()

	// only zone is unmapped: resolver must skip it
	seedZone(t, db, zones.Zone{
		ClusterLabel: 0, CentroidLatitude: 30.3165, CentroidLongitude: 78.0322,
		IsActive: true,
	})
	seedIssue(t, db, 50, 30.3170, 78.0330)

	got, err := orc.AutoAssign(ctx, 50, 30.3170, 78.0330, 0)
	if err != nil {
		t.Fatalf("AutoAssign: %v", err)
	}
	if got != nil {
		t.Fatalf("got %+v, want nil when no zone qualifies", got)
	}

	var count int64
	if err := db.Model(&zones.IssueAssignment{}).Count(&count).Error; err != nil {
		t.Fatalf("counting assignments: %v", err)
	}
	if count != 0 {
		t.Errorf("assignment rows = %d, want 0", count)
	}

	var issue zones.Issue
	if err := db.First(&issue, "id = ?", 50).Error; err != nil {
		t.Fatalf("reloading issue: %v", err)
	}
	if issue.Status != "reported" {
		t.Errorf("issue.Status = %q, want untouched reported", issue.Status)
	}
	if issue.AssignedRepresentativeID != nil {
		t.Errorf("issue.AssignedRepresentativeID = %v, want nil", issue.AssignedRepresentativeID)
	}
}

func TestAutoAssignMissingIssueRollsBack(t *testing.T) {
	db := openTestDB(t)
	orc := newOrchestrator(t, db)
	ctx := context.Background()

	zone := seedZone(t, db, zones.Zone{
		ClusterLabel: 0, CentroidLatitude: 30.3165, CentroidLongitude: 78.0322,
		RepresentativeID: intPtr(7), IssueCount: 3, IsActive: true,
	})

	_, err := orc.AutoAssign(ctx, 999, 30.3170, 78.0330, 0)
	if err == nil {
		t.Fatal("AutoAssign with missing issue succeeded, want error")
	}

	var count int64
	if err := db.Model(&zones.IssueAssignment{}).Count(&count).Error; err != nil {
		t.Fatalf("counting assignments: %v", err)
	}
	if count != 0 {
		t.Errorf("assignment rows = %d, want rollback to 0", count)
	}
	var reloaded zones.Zone
	if err := db.First(&reloaded, "id = ?", zone.ID).Error; err != nil {
		t.Fatalf("reloading zone: %v", err)
	}
	if reloaded.IssueCount != 3 {
		t.Errorf("zone.IssueCount = %d, want rollback to 3", reloaded.IssueCount)
	}
}

// staleFinder returns a fixed zone regardless of the query, standing in
// for a resolver whose answer went stale before the write transaction.
type staleFinder struct {
	zone *zones.Zone
}

func (f *staleFinder) FindNearest(ctx context.Context, lat, lon, maxMeters float64) (*zones.Zone, error) {
	return f.zone, nil
}

func TestAutoAssignSupersededZoneTreatedAsNoMatch(t *testing.T) {
	db := openTestDB(t)
	reg := zones.NewRegistry(db, true)
	ctx := context.Background()

	zone := seedZone(t, db, zones.Zone{
		ClusterLabel: 0, CentroidLatitude: 30.3165, CentroidLongitude: 78.0322,
		RepresentativeID: intPtr(7), IssueCount: 3, IsActive: true,
	})
	seedIssue(t, db, 60, 30.3170, 78.0330)

	// retire the zone after "resolution": the stale finder still hands the
	// orchestrator the old row, so the guarded count update must refuse it
	if err := db.Model(&zones.Zone{}).Where("id = ?", zone.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivating zone: %v", err)
	}

	orc := zones.NewOrchestrator(db, reg, &staleFinder{zone: &zone})
	got, err := orc.AutoAssign(ctx, 60, 30.3170, 78.0330, 0)
	if err != nil {
		t.Fatalf("AutoAssign: %v", err)
	}
	if got != nil {
		t.Fatalf("got %+v, want nil for superseded zone", got)
	}

	var count int64
	if err := db.Model(&zones.IssueAssignment{}).Count(&count).Error; err != nil {
		t.Fatalf("counting assignments: %v", err)
	}
	if count != 0 {
		t.Errorf("assignment rows = %d, want 0", count)
	}

	var issue zones.Issue
	if err := db.First(&issue, "id = ?", 60).Error; err != nil {
		t.Fatalf("reloading issue: %v", err)
	}
	if issue.Status != "reported" {
		t.Errorf("issue.Status = %q, want untouched reported", issue.Status)
	}
}

func TestRunReclusteringEndToEnd(t *testing.T) {
	db := openTestDB(t)
	orc := newOrchestrator(t, db)
	ctx := context.Background()

	// two dense neighborhoods and one stray report
	coords := [][2]float64{
		{30.3165, 78.0322}, {30.3170, 78.0330}, {30.3160, 78.0315},
		{30.3172, 78.0325}, {30.3158, 78.0328},
		{30.3500, 78.0800}, {30.3505, 78.0808}, {30.3495, 78.0795},
		{30.3502, 78.0803}, {30.3498, 78.0810},
		{30.5500, 78.3500},
	}
	for i, c := range coords {
		seedIssue(t, db, i+1, c[0], c[1])
	}

	run, err := orc.RunReclustering(ctx, cluster.DBSCANParams{EpsMeters: 500, MinSamples: 3})
	if err != nil {
		t.Fatalf("RunReclustering: %v", err)
	}
	if run.NumClusters != 2 {
		t.Errorf("NumClusters = %d, want 2", run.NumClusters)
	}
	if run.NumNoisePoints != 1 {
		t.Errorf("NumNoisePoints = %d, want 1", run.NumNoisePoints)
	}
	if run.TotalPoints != 11 {
		t.Errorf("TotalPoints = %d, want 11", run.TotalPoints)
	}
	if run.Algorithm != "dbscan" {
		t.Errorf("Algorithm = %q, want dbscan", run.Algorithm)
	}
	if run.EpsMeters == nil || *run.EpsMeters != 500 {
		t.Errorf("EpsMeters = %v, want 500", run.EpsMeters)
	}
	if run.MinSamples == nil || *run.MinSamples != 3 {
		t.Errorf("MinSamples = %v, want 3", run.MinSamples)
	}
	if run.MinClusterSize != nil {
		t.Errorf("MinClusterSize = %v, want nil for dbscan", run.MinClusterSize)
	}

	reg := zones.NewRegistry(db, true)
	active, err := reg.ListZones(ctx, true, false)
	if err != nil {
		t.Fatalf("ListZones: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("active zones = %d, want 2", len(active))
	}
	if active[0].IssueCount+active[1].IssueCount != 10 {
		t.Errorf("summed zone issue counts = %d, want 10 clustered points",
			active[0].IssueCount+active[1].IssueCount)
	}
	for _, z := range active {
		if z.RadiusMeters == nil || *z.RadiusMeters <= 0 {
			t.Errorf("zone %d radius = %v, want positive", z.ID, z.RadiusMeters)
		}
	}
}

func TestRunReclusteringNoIssues(t *testing.T) {
	db := openTestDB(t)
	orc := newOrchestrator(t, db)

	run, err := orc.RunReclustering(context.Background(), cluster.DBSCANParams{EpsMeters: 500, MinSamples: 3})
	if err != nil {
		t.Fatalf("RunReclustering on empty table: %v", err)
	}
	if run.NumClusters != 0 || run.TotalPoints != 0 {
		t.Errorf("run = %+v, want zeroed counts", run)
	}
}

package zones_test

import (
	"context"
	"errors"
	"testing"

	"github.com/JanSetu/JS-Backend/internal/zones"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrapping sql.DB: %v", err)
	}
	// one connection so every query sees the same in-memory database
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&zones.Zone{},
		&zones.ClusteringRun{},
		&zones.IssueAssignment{},
		&zones.Representative{},
		&zones.Issue{},
	); err != nil {
		t.Fatalf("migrating schema: %v", err)
	}
	return db
}

func strPtr(s string) *string   { return &s }
func intPtr(n int) *int         { return &n }
func f64Ptr(f float64) *float64 { return &f }

func seedRepresentative(t *testing.T, db *gorm.DB, id int, role string, active bool) {
	t.Helper()
	rep := zones.Representative{
		ID:           id,
		Name:         "Test Rep",
		MobileNumber: "+919876543210",
		Role:         role,
		IsActive:     active,
	}
	if err := db.Create(&rep).Error; err != nil {
		t.Fatalf("seeding representative: %v", err)
	}
}

func sampleSpecs() []zones.ZoneSpec {
	return []zones.ZoneSpec{
		{Label: 0, CentroidLat: 30.3165, CentroidLon: 78.0322, RadiusMeters: 420, MemberCount: 5},
		{Label: 1, CentroidLat: 30.3500, CentroidLon: 78.0800, RadiusMeters: 310, MemberCount: 4},
	}
}

func sampleRun() zones.RunRecord {
	return zones.RunRecord{
		Algorithm:      "dbscan",
		EpsMeters:      f64Ptr(500),
		MinSamples:     intPtr(3),
		NumNoisePoints: 1,
		TotalPoints:    10,
	}
}

func TestReplaceAllZonesCreatesGeneration(t *testing.T) {
	db := openTestDB(t)
	reg := zones.NewRegistry(db, true)
	ctx := context.Background()

	run, err := reg.ReplaceAllZones(ctx, sampleSpecs(), sampleRun())
	if err != nil {
		t.Fatalf("ReplaceAllZones: %v", err)
	}
	if run.NumClusters != 2 {
		t.Errorf("run.NumClusters = %d, want 2", run.NumClusters)
	}
	if run.Status != "completed" {
		t.Errorf("run.Status = %q, want completed", run.Status)
	}

	active, err := reg.ListZones(ctx, true, false)
	if err != nil {
		t.Fatalf("ListZones: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("active zones = %d, want 2", len(active))
	}
	if active[0].Name == nil || *active[0].Name != "Zone 1" {
		t.Errorf("first zone name = %v, want Zone 1", active[0].Name)
	}
	if active[0].IssueCount != 5 {
		t.Errorf("first zone issue_count = %d, want 5", active[0].IssueCount)
	}
	if active[0].RepresentativeID != nil {
		t.Error("fresh zones must start unmapped")
	}
}

func TestReplaceAllZonesSupersedesPreviousGeneration(t *testing.T) {
	db := openTestDB(t)
	reg := zones.NewRegistry(db, true)
	ctx := context.Background()

	if _, err := reg.ReplaceAllZones(ctx, sampleSpecs(), sampleRun()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	second := []zones.ZoneSpec{
		{Label: 0, CentroidLat: 30.3200, CentroidLon: 78.0400, RadiusMeters: 600, MemberCount: 8},
	}
	if _, err := reg.ReplaceAllZones(ctx, second, sampleRun()); err != nil {
		t.Fatalf("second run: %v", err)
	}

	active, err := reg.ListZones(ctx, true, false)
	if err != nil {
		t.Fatalf("ListZones active: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("active zones after supersession = %d, want 1", len(active))
	}

	all, err := reg.ListZones(ctx, false, false)
	if err != nil {
		t.Fatalf("ListZones all: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("total zones = %d, want 3 (old rows retained, deactivated)", len(all))
	}
}

func TestReplaceAllZonesEmptyRunPolicies(t *testing.T) {
	t.Run("DeactivateOnEmpty", func(t *testing.T) {
		db := openTestDB(t)
		reg := zones.NewRegistry(db, true)
		ctx := context.Background()

		if _, err := reg.ReplaceAllZones(ctx, sampleSpecs(), sampleRun()); err != nil {
			t.Fatalf("seed run: %v", err)
		}
		run, err := reg.ReplaceAllZones(ctx, nil, sampleRun())
		if err != nil {
			t.Fatalf("empty run: %v", err)
		}
		if run.NumClusters != 0 {
			t.Errorf("empty run NumClusters = %d, want 0", run.NumClusters)
		}

		active, _ := reg.ListZones(ctx, true, false)
		if len(active) != 0 {
			t.Errorf("active zones = %d, want 0 under deactivate policy", len(active))
		}
	})

	t.Run("PreserveOnEmpty", func(t *testing.T) {
		db := openTestDB(t)
		reg := zones.NewRegistry(db, false)
		ctx := context.Background()

		if _, err := reg.ReplaceAllZones(ctx, sampleSpecs(), sampleRun()); err != nil {
			t.Fatalf("seed run: %v", err)
		}
		if _, err := reg.ReplaceAllZones(ctx, nil, sampleRun()); err != nil {
			t.Fatalf("empty run: %v", err)
		}

		active, _ := reg.ListZones(ctx, true, false)
		if len(active) != 2 {
			t.Errorf("active zones = %d, want 2 preserved under keep policy", len(active))
		}

		runs, err := reg.ListRuns(ctx, 10)
		if err != nil {
			t.Fatalf("ListRuns: %v", err)
		}
		if len(runs) != 2 {
			t.Errorf("runs recorded = %d, want 2 (empty run still audited)", len(runs))
		}
	})
}

func TestBindRepresentative(t *testing.T) {
	db := openTestDB(t)
	reg := zones.NewRegistry(db, true)
	ctx := context.Background()

	if _, err := reg.ReplaceAllZones(ctx, sampleSpecs(), sampleRun()); err != nil {
		t.Fatalf("seed run: %v", err)
	}
	zs, _ := reg.ListZones(ctx, true, false)
	zoneID := zs[0].ID

	seedRepresentative(t, db, 101, "representative", true)
	seedRepresentative(t, db, 102, "citizen", true)
	seedRepresentative(t, db, 103, "representative", false)

	t.Run("Success", func(t *testing.T) {
		zone, err := reg.BindRepresentative(ctx, zoneID, 101, strPtr("clock tower ward"), strPtr("Around the clock tower"))
		if err != nil {
			t.Fatalf("BindRepresentative: %v", err)
		}
		if zone.RepresentativeID == nil || *zone.RepresentativeID != 101 {
			t.Fatalf("zone.RepresentativeID = %v, want 101", zone.RepresentativeID)
		}
		if zone.Name == nil || *zone.Name != "Clock Tower Ward" {
			t.Errorf("zone.Name = %v, want title-cased Clock Tower Ward", zone.Name)
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		if _, err := reg.BindRepresentative(ctx, zoneID, 101, nil, nil); err != nil {
			t.Fatalf("re-binding same representative: %v", err)
		}
	})

	t.Run("ZoneNotFound", func(t *testing.T) {
		_, err := reg.BindRepresentative(ctx, 99999, 101, nil, nil)
		if !errors.Is(err, zones.ErrZoneNotFound) {
			t.Errorf("err = %v, want ErrZoneNotFound", err)
		}
	})

	t.Run("RepresentativeNotFound", func(t *testing.T) {
		_, err := reg.BindRepresentative(ctx, zoneID, 99999, nil, nil)
		if !errors.Is(err, zones.ErrRepresentativeNotFound) {
			t.Errorf("err = %v, want ErrRepresentativeNotFound", err)
		}
	})

	t.Run("WrongRole", func(t *testing.T) {
		_, err := reg.BindRepresentative(ctx, zoneID, 102, nil, nil)
		if !errors.Is(err, zones.ErrNotARepresentative) {
			t.Errorf("err = %v, want ErrNotARepresentative", err)
		}
	})

	t.Run("InactiveRepresentative", func(t *testing.T) {
		_, err := reg.BindRepresentative(ctx, zoneID, 103, nil, nil)
		if !errors.Is(err, zones.ErrNotARepresentative) {
			t.Errorf("err = %v, want ErrNotARepresentative", err)
		}
	})
}

func TestStatistics(t *testing.T) {
	db := openTestDB(t)
	reg := zones.NewRegistry(db, true)
	ctx := context.Background()

	if _, err := reg.ReplaceAllZones(ctx, sampleSpecs(), sampleRun()); err != nil {
		t.Fatalf("seed run: %v", err)
	}
	zs, _ := reg.ListZones(ctx, true, false)
	seedRepresentative(t, db, 201, "representative", true)
	if _, err := reg.BindRepresentative(ctx, zs[0].ID, 201, nil, nil); err != nil {
		t.Fatalf("binding: %v", err)
	}

	stats, err := reg.Statistics(ctx)
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	if stats.TotalZones != 2 {
		t.Errorf("TotalZones = %d, want 2", stats.TotalZones)
	}
	if stats.MappedZones != 1 {
		t.Errorf("MappedZones = %d, want 1", stats.MappedZones)
	}
	if stats.UnmappedZones != 1 {
		t.Errorf("UnmappedZones = %d, want 1", stats.UnmappedZones)
	}
	if stats.TotalIssuesInZones != 9 {
		t.Errorf("TotalIssuesInZones = %d, want 9", stats.TotalIssuesInZones)
	}
}

func TestListZonesMappedOnlyFilter(t *testing.T) {
	db := openTestDB(t)
	reg := zones.NewRegistry(db, true)
	ctx := context.Background()

	if _, err := reg.ReplaceAllZones(ctx, sampleSpecs(), sampleRun()); err != nil {
		t.Fatalf("seed run: %v", err)
	}
	zs, _ := reg.ListZones(ctx, true, false)
	seedRepresentative(t, db, 301, "representative", true)
	if _, err := reg.BindRepresentative(ctx, zs[1].ID, 301, nil, nil); err != nil {
		t.Fatalf("binding: %v", err)
	}

	mapped, err := reg.ListZones(ctx, true, true)
	if err != nil {
		t.Fatalf("ListZones mapped: %v", err)
	}
	if len(mapped) != 1 || mapped[0].ID != zs[1].ID {
		t.Errorf("mapped zones = %+v, want only zone %d", mapped, zs[1].ID)
	}
}

package zones

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/JanSetu/JS-Backend/internal/cluster"
	"github.com/JanSetu/JS-Backend/internal/geo"
	"gorm.io/gorm"
)

// ZoneFinder locates the nearest eligible zone for a coordinate. The
// production implementation is Resolver.
type ZoneFinder interface {
	FindNearest(ctx context.Context, lat, lon, maxMeters float64) (*Zone, error)
}

// Orchestrator composes the resolver and registry: it routes issues into
// zones and drives full re-clustering runs. All collaborators are injected
// at construction.
type Orchestrator struct {
	db       *gorm.DB
	registry *Registry
	resolver ZoneFinder
}

func NewOrchestrator(db *gorm.DB, registry *Registry, resolver ZoneFinder) *Orchestrator {
	return &Orchestrator{db: db, registry: registry, resolver: resolver}
}

// AssignmentResult reports a successful auto-assignment.
type AssignmentResult struct {
	RepresentativeID int
	ZoneID           int
	ZoneName         *string
	DistanceMeters   float64
}

// AutoAssign routes the issue at (lat, lon) to the representative of the
// nearest eligible zone. When no zone qualifies it returns (nil, nil) and
// writes nothing at all.
//
// On success, a single transaction records the IssueAssignment, moves the
// issue to assigned with the zone's display name denormalized onto it, and
// bumps the zone's issue_count. The count update is guarded on is_active:
// if a re-clustering run retired the zone after resolution, zero rows
// match, the transaction rolls back, and the caller gets the same "no
// eligible zone" answer it would have gotten a moment later.
//
// Callers own the "assign only if unassigned" precondition; this method
// does not re-check it.
func (o *Orchestrator) AutoAssign(ctx context.Context, issueID int, lat, lon, maxMeters float64) (*AssignmentResult, error) {
	zone, err := o.resolver.FindNearest(ctx, lat, lon, maxMeters)
	if err != nil {
		return nil, err
	}
	if zone == nil || zone.RepresentativeID == nil {
		return nil, nil
	}

	distance := geo.Distance(lat, lon, zone.CentroidLatitude, zone.CentroidLongitude, geo.Meters)
	repID := *zone.RepresentativeID

	err = o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bump := tx.Model(&Zone{}).
			Where("id = ? AND is_active = ?", zone.ID, true).
			Update("issue_count", gorm.Expr("issue_count + 1"))
		if bump.Error != nil {
			return bump.Error
		}
		if bump.RowsAffected == 0 {
			return ErrZoneSuperseded
		}

		assignment := IssueAssignment{
			IssueID:              issueID,
			ZoneID:               zone.ID,
			DistanceFromCentroid: &distance,
			AssignmentMethod:     MethodNearestCentroid,
		}
		if err := tx.Create(&assignment).Error; err != nil {
			return fmt.Errorf("recording assignment: %w", err)
		}

		update := tx.Model(&Issue{}).Where("id = ?", issueID).Updates(map[string]interface{}{
			"assigned_representative_id": repID,
			"status":                     statusAssigned,
			"ward_name":                  zone.Name,
		})
		if update.Error != nil {
			return fmt.Errorf("updating issue %d: %w", issueID, update.Error)
		}
		if update.RowsAffected == 0 {
			return ErrIssueNotFound
		}
		return nil
	})
	if errors.Is(err, ErrZoneSuperseded) {
		log.Printf("[zones] zone %d superseded mid-assignment of issue %d; leaving unassigned", zone.ID, issueID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &AssignmentResult{
		RepresentativeID: repID,
		ZoneID:           zone.ID,
		ZoneName:         zone.Name,
		DistanceMeters:   distance,
	}, nil
}

// RunReclustering loads every issue's coordinates, extracts clusters with
// the given algorithm, summarizes them, and replaces the active zone
// generation. It is synchronous and meant for the infrequent
// administrative trigger, not a request hot path.
func (o *Orchestrator) RunReclustering(ctx context.Context, alg cluster.Algorithm) (*ClusteringRun, error) {
	var issues []Issue
	if err := o.db.WithContext(ctx).Order("id ASC").Find(&issues).Error; err != nil {
		return nil, fmt.Errorf("loading issues: %w", err)
	}

	points := make([]cluster.Point, len(issues))
	for i, issue := range issues {
		points[i] = cluster.Point{Lat: issue.Latitude, Lon: issue.Longitude}
	}

	res, err := cluster.Extract(points, alg)
	if err != nil {
		return nil, err
	}

	sums, err := cluster.Summarize(points, res.Labels)
	if err != nil {
		return nil, err
	}

	labels := make([]int, 0, len(sums))
	for label := range sums {
		labels = append(labels, label)
	}
	sort.Ints(labels)

	specs := make([]ZoneSpec, 0, len(labels))
	for _, label := range labels {
		s := sums[label]
		specs = append(specs, ZoneSpec{
			Label:        label,
			CentroidLat:  s.CentroidLat,
			CentroidLon:  s.CentroidLon,
			RadiusMeters: s.RadiusMeters,
			MemberCount:  s.MemberCount,
		})
	}

	record := RunRecord{
		Algorithm:      string(alg.Kind()),
		NumNoisePoints: res.NumNoise,
		TotalPoints:    len(points),
	}
	switch p := alg.(type) {
	case cluster.DBSCANParams:
		record.EpsMeters = &p.EpsMeters
		record.MinSamples = &p.MinSamples
	case cluster.HDBSCANParams:
		record.MinClusterSize = &p.MinClusterSize
	}

	run, err := o.registry.ReplaceAllZones(ctx, specs, record)
	if err != nil {
		return nil, err
	}
	log.Printf("[zones] clustering run %d: %d clusters, %d noise of %d points",
		run.ID, run.NumClusters, run.NumNoisePoints, run.TotalPoints)
	return run, nil
}

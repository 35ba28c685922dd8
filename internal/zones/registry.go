package zones

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

// Common errors
var (
	ErrZoneNotFound           = errors.New("zone not found")
	ErrRepresentativeNotFound = errors.New("representative not found")
	ErrNotARepresentative     = errors.New("user is not an active representative")
	ErrIssueNotFound          = errors.New("issue not found")
	ErrAlreadyAssigned        = errors.New("issue is already assigned to a representative")
	ErrZoneSuperseded         = errors.New("zone was superseded during assignment")
)

// Registry owns the Zone and ClusteringRun lifecycles. It is constructed
// once at startup with an explicit DB handle and handed to whoever needs
// it.
type Registry struct {
	db *gorm.DB

	// deactivateOnEmptyRun controls whether a run yielding zero clusters
	// still retires the current zone generation. True preserves the
	// platform's historical behavior; false keeps serving the old
	// generation until a run actually produces zones.
	deactivateOnEmptyRun bool
}

func NewRegistry(db *gorm.DB, deactivateOnEmptyRun bool) *Registry {
	return &Registry{db: db, deactivateOnEmptyRun: deactivateOnEmptyRun}
}

// ZoneSpec is one cluster from a run, ready to persist.
type ZoneSpec struct {
	Label        int
	CentroidLat  float64
	CentroidLon  float64
	RadiusMeters float64
	MemberCount  int
}

// RunRecord carries the parameters and result counts of one extraction,
// only the fields relevant to the chosen algorithm populated.
type RunRecord struct {
	Algorithm      string
	MinSamples     *int
	EpsMeters      *float64
	MinClusterSize *int
	NumNoisePoints int
	TotalPoints    int
}

// ReplaceAllZones supersedes the active zone generation in one
// transaction: every active zone is marked inactive, one new active zone
// is inserted per spec, and a ClusteringRun row records the operation.
// Prior zones are never deleted. Readers see either the full old
// generation or the full new one, nothing in between.
func (r *Registry) ReplaceAllZones(ctx context.Context, specs []ZoneSpec, run RunRecord) (*ClusteringRun, error) {
	record := &ClusteringRun{
		Algorithm:      run.Algorithm,
		MinSamples:     run.MinSamples,
		EpsMeters:      run.EpsMeters,
		MinClusterSize: run.MinClusterSize,
		NumClusters:    len(specs),
		NumNoisePoints: run.NumNoisePoints,
		TotalPoints:    run.TotalPoints,
		Status:         "completed",
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(specs) > 0 || r.deactivateOnEmptyRun {
			if err := tx.Model(&Zone{}).Where("is_active = ?", true).
				Update("is_active", false).Error; err != nil {
				return fmt.Errorf("deactivating prior zones: %w", err)
			}
		}

		for _, spec := range specs {
			name := fmt.Sprintf("Zone %d", spec.Label+1)
			radius := spec.RadiusMeters
			zone := Zone{
				ClusterLabel:      spec.Label,
				CentroidLatitude:  spec.CentroidLat,
				CentroidLongitude: spec.CentroidLon,
				Name:              &name,
				IssueCount:        spec.MemberCount,
				RadiusMeters:      &radius,
				IsActive:          true,
			}
			if err := tx.Create(&zone).Error; err != nil {
				return fmt.Errorf("inserting zone for label %d: %w", spec.Label, err)
			}
		}

		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("recording clustering run: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// BindRepresentative maps a zone to a representative, optionally setting
// the human-assigned display name and area description. It validates that
// the zone exists and that the target user exists, holds the
// representative role, and is active. Re-binding the same pair is allowed
// and just refreshes the optional fields.
func (r *Registry) BindRepresentative(ctx context.Context, zoneID, repID int, name, description *string) (*Zone, error) {
	db := r.db.WithContext(ctx)

	var zone Zone
	if err := db.First(&zone, "id = ?", zoneID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrZoneNotFound
		}
		return nil, err
	}

	var rep Representative
	if err := db.First(&rep, "id = ?", repID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRepresentativeNotFound
		}
		return nil, err
	}
	if rep.Role != roleRepresentative || !rep.IsActive {
		return nil, ErrNotARepresentative
	}

	zone.RepresentativeID = &repID
	if name != nil && *name != "" {
		display := cases.Title(language.English, cases.NoLower).String(*name)
		zone.Name = &display
	}
	if description != nil && *description != "" {
		zone.AreaDescription = description
	}

	if err := db.Save(&zone).Error; err != nil {
		return nil, fmt.Errorf("binding zone %d: %w", zoneID, err)
	}
	return &zone, nil
}

// GetZone fetches one zone by id.
func (r *Registry) GetZone(ctx context.Context, zoneID int) (*Zone, error) {
	var zone Zone
	if err := r.db.WithContext(ctx).First(&zone, "id = ?", zoneID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrZoneNotFound
		}
		return nil, err
	}
	return &zone, nil
}

// ListZones returns zones ordered by id. activeOnly restricts to the
// current generation; mappedOnly to zones with a bound representative.
func (r *Registry) ListZones(ctx context.Context, activeOnly, mappedOnly bool) ([]Zone, error) {
	query := r.db.WithContext(ctx).Model(&Zone{}).Order("id ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if mappedOnly {
		query = query.Where("representative_id IS NOT NULL")
	}

	var out []Zone
	if err := query.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListRuns returns the most recent clustering runs, newest first.
func (r *Registry) ListRuns(ctx context.Context, limit int) ([]ClusteringRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []ClusteringRun
	if err := r.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

// Statistics summarizes the active zone generation.
type Statistics struct {
	TotalZones         int `json:"total_zones"`
	MappedZones        int `json:"mapped_zones"`
	UnmappedZones      int `json:"unmapped_zones"`
	TotalIssuesInZones int `json:"total_issues_in_zones"`
}

func (r *Registry) Statistics(ctx context.Context) (Statistics, error) {
	active, err := r.ListZones(ctx, true, false)
	if err != nil {
		return Statistics{}, err
	}

	stats := Statistics{TotalZones: len(active)}
	for _, z := range active {
		if z.RepresentativeID != nil {
			stats.MappedZones++
		}
		stats.TotalIssuesInZones += z.IssueCount
	}
	stats.UnmappedZones = stats.TotalZones - stats.MappedZones
	return stats, nil
}

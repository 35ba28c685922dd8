package zones

import (
	"context"

	"github.com/JanSetu/JS-Backend/internal/geo"
	"gorm.io/gorm"
)

// DefaultMaxDistanceMeters is the resolution cutoff applied when the
// caller does not supply one.
const DefaultMaxDistanceMeters = 5000

// Resolver answers "which representative owns this coordinate" by finding
// the nearest eligible zone centroid. Eligible means active and bound to a
// representative; unmapped and superseded zones are never candidates, no
// matter how close.
type Resolver struct {
	db *gorm.DB
}

func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// FindNearest returns the eligible zone whose centroid is closest to the
// query point, or nil when the closest one is still beyond maxMeters.
// Candidates are scanned in ascending id order with a strict-less
// comparison, so equidistant zones resolve to the lowest id.
//
// A linear scan is deliberate: deployments carry tens to low hundreds of
// zones. A spatial index can replace the scan behind this signature if
// that ever changes.
func (r *Resolver) FindNearest(ctx context.Context, lat, lon, maxMeters float64) (*Zone, error) {
	if maxMeters <= 0 {
		maxMeters = DefaultMaxDistanceMeters
	}

	var candidates []Zone
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND representative_id IS NOT NULL", true).
		Order("id ASC").
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	var nearest *Zone
	minDistance := 0.0
	for i := range candidates {
		z := &candidates[i]
		d := geo.Distance(lat, lon, z.CentroidLatitude, z.CentroidLongitude, geo.Meters)
		if nearest == nil || d < minDistance {
			nearest = z
			minDistance = d
		}
	}

	if nearest == nil || minDistance > maxMeters {
		return nil, nil
	}
	return nearest, nil
}

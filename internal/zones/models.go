package zones

import (
	"time"
)

// Assignment methods recorded on IssueAssignment rows. The core only ever
// writes nearest_centroid; manual is recognized because coordinators can
// assign by hand through the field-ops surface.
const (
	MethodNearestCentroid = "nearest_centroid"
	MethodManual          = "manual"
)

// Zone is a persisted geographic cluster (pseudo-ward). A zone with no
// representative is unmapped: it exists, citizens can see it, but the
// resolver will never route an issue to it. A nil RepresentativeID means
// unbound, non-nil means bound, and nothing
// else in the row distinguishes the two.
type Zone struct {
	ID           int `gorm:"primaryKey" json:"id"`
	ClusterLabel int `gorm:"index" json:"cluster_label"`

	CentroidLatitude  float64 `json:"centroid_latitude"`
	CentroidLongitude float64 `json:"centroid_longitude"`

	Name            *string `gorm:"size:255" json:"name"`
	AreaDescription *string `gorm:"size:1000" json:"area_description"`

	RepresentativeID *int `gorm:"index" json:"representative_id"`

	IssueCount   int      `gorm:"default:0" json:"issue_count"`
	RadiusMeters *float64 `json:"radius_meters"`

	IsActive    bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `gorm:"autoUpdateTime" json:"last_updated"`
}

func (Zone) TableName() string { return "geo_zones" }

// ClusteringRun is the immutable audit record of one extraction run. Only
// the parameters relevant to the chosen algorithm are populated.
type ClusteringRun struct {
	ID        int    `gorm:"primaryKey" json:"id"`
	Algorithm string `gorm:"size:50" json:"algorithm"`

	MinSamples     *int     `json:"min_samples,omitempty"`
	EpsMeters      *float64 `json:"eps_meters,omitempty"`
	MinClusterSize *int     `json:"min_cluster_size,omitempty"`

	NumClusters    int `gorm:"default:0" json:"num_clusters"`
	NumNoisePoints int `gorm:"default:0" json:"num_noise_points"`
	TotalPoints    int `gorm:"default:0" json:"total_points"`

	Status    string    `gorm:"size:50;default:'completed'" json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func (ClusteringRun) TableName() string { return "clustering_runs" }

// IssueAssignment links an issue to the zone it was routed into. Rows are
// append-only; a re-assigned issue gets a second row, it never loses the
// first.
type IssueAssignment struct {
	ID     int `gorm:"primaryKey" json:"id"`
	IssueID int `gorm:"index" json:"issue_id"`
	ZoneID  int `gorm:"index" json:"zone_id"`

	DistanceFromCentroid *float64 `json:"distance_from_centroid"`
	AssignmentMethod     string   `gorm:"size:50;default:'nearest_centroid'" json:"assignment_method"`

	CreatedAt time.Time `json:"created_at"`
}

func (IssueAssignment) TableName() string { return "issue_assignments" }

// Representative is a read-only view over the users table owned by the
// auth module, just the columns binding validation needs.
type Representative struct {
	ID           int    `gorm:"primaryKey"`
	Name         string
	MobileNumber string
	Role         string
	IsActive     bool
	VillageName  *string
}

func (Representative) TableName() string { return "users" }

// Issue is the narrow view of the issues table this package reads for
// clustering input and mutates on successful assignment. The full model
// lives in the issues module.
type Issue struct {
	ID        int `gorm:"primaryKey"`
	Latitude  float64
	Longitude float64

	Status                   string
	WardName                 *string
	AssignedRepresentativeID *int
}

func (Issue) TableName() string { return "issues" }

// roleRepresentative matches the role string the auth module stores for
// elected ward representatives.
const roleRepresentative = "representative"

// statusAssigned is the issue status written on successful assignment.
const statusAssigned = "assigned"

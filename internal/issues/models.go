package issues

import "time"

// Issue types citizens can report.
const (
	TypeWater       = "water"
	TypeElectricity = "electricity"
	TypeRoad        = "road"
	TypeGarbage     = "garbage"
)

// Issue lifecycle. Assignment moves reported -> assigned; the
// representative then walks acknowledged -> in_progress -> resolved.
const (
	StatusReported     = "reported"
	StatusAssigned     = "assigned"
	StatusAcknowledged = "acknowledged"
	StatusInProgress   = "in_progress"
	StatusResolved     = "resolved"
)

func ValidType(t string) bool {
	switch t {
	case TypeWater, TypeElectricity, TypeRoad, TypeGarbage:
		return true
	}
	return false
}

func ValidStatus(s string) bool {
	switch s {
	case StatusReported, StatusAssigned, StatusAcknowledged, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

type Issue struct {
	ID        int    `gorm:"primaryKey" json:"id"`
	IssueType string `gorm:"size:50;index;not null" json:"issue_type"`

	Description string `gorm:"size:2000;not null" json:"description"`

	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	WardID   *int    `gorm:"index" json:"ward_id"`
	WardName *string `gorm:"size:200" json:"ward_name"`

	Status string `gorm:"size:50;index;default:'reported'" json:"status"`

	UserID                   *int `gorm:"index" json:"user_id"`
	AssignedRepresentativeID *int `gorm:"index" json:"assigned_representative_id"`

	AssignmentNotes *string `gorm:"size:1000" json:"assignment_notes"`
	ProgressNotes   *string `gorm:"size:2000" json:"progress_notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Photos []IssuePhoto `gorm:"foreignKey:IssueID" json:"photos,omitempty"`
}

func (Issue) TableName() string { return "issues" }

type IssuePhoto struct {
	ID      int `gorm:"primaryKey" json:"id"`
	IssueID int `gorm:"index;not null" json:"issue_id"`

	// MinIO object key; presigned on the way out
	ObjectKey   string `gorm:"size:500;not null" json:"-"`
	Filename    string `gorm:"size:255" json:"filename"`
	FileSize    int64  `json:"file_size"`
	ContentType string `gorm:"size:100;default:'image/jpeg'" json:"content_type"`

	CreatedAt time.Time `json:"created_at"`
}

func (IssuePhoto) TableName() string { return "issue_photos" }
